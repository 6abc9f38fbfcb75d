package types

// BackSide is a card's answer: free text or a reference to another card.
// A non-empty Card field makes it a card reference; Text is then ignored.
type BackSide struct {
	Text string `json:"text,omitempty"`
	Card CardID `json:"card,omitempty"`
}

// TextBack returns a free-text answer.
func TextBack(text string) BackSide {
	return BackSide{Text: text}
}

// CardBack returns an answer that references another card.
func CardBack(id CardID) BackSide {
	return BackSide{Card: id}
}

// IsCard reports whether the answer references a card.
func (b BackSide) IsCard() bool {
	return b.Card != NoCard
}

// IsEmpty reports whether the answer holds neither text nor a card.
func (b BackSide) IsEmpty() bool {
	return b.Card == NoCard && b.Text == ""
}
