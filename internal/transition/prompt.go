package transition

// Prompter asks the user for the inputs a transition needs.
type Prompter interface {
	// Pick asks the user to choose one of options and returns its index.
	// Returns types.ErrCancelled if the user declines.
	Pick(prompt string, options []string) (int, error)

	// Input asks for one line of text. An empty answer means the user
	// declined.
	Input(prompt string) (string, error)
}
