package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/mesh-intelligence/cardtree/pkg/types"
)

// linePrompter asks transition questions on the terminal: numbered menus
// for choices and a line editor for text. Ctrl-C and Ctrl-D decline.
type linePrompter struct {
	rl  *readline.Instance
	out io.Writer
}

func newLinePrompter(in io.ReadCloser, out io.Writer) (*linePrompter, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		Stdin:           in,
		Stdout:          out,
		InterruptPrompt: "^C",
		EOFPrompt:       "^D",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prompt: %w", err)
	}
	return &linePrompter{rl: rl, out: out}, nil
}

// Pick prints options numbered from 1 and reads a choice until it is valid.
// An empty line declines.
func (p *linePrompter) Pick(prompt string, options []string) (int, error) {
	_, _ = fmt.Fprintln(p.out, prompt)
	for i, opt := range options {
		_, _ = fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
	}
	p.rl.SetPrompt("choice> ")
	for {
		line, err := p.readLine()
		if err != nil {
			return -1, err
		}
		idx, err := parseChoice(line, len(options))
		if errors.Is(err, types.ErrCancelled) {
			return -1, err
		}
		if err != nil {
			_, _ = fmt.Fprintln(p.out, err)
			continue
		}
		return idx, nil
	}
}

// Input reads one line of text. A declined prompt reads as empty.
func (p *linePrompter) Input(prompt string) (string, error) {
	p.rl.SetPrompt(prompt + ": ")
	line, err := p.readLine()
	if errors.Is(err, types.ErrCancelled) {
		return "", nil
	}
	return line, err
}

// Close restores the terminal.
func (p *linePrompter) Close() error {
	return p.rl.Close()
}

func (p *linePrompter) readLine() (string, error) {
	line, err := p.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return "", types.ErrCancelled
	}
	return line, err
}

// parseChoice turns a 1-based menu answer into an index into n options.
func parseChoice(line string, n int) (int, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return -1, types.ErrCancelled
	}
	choice, err := strconv.Atoi(line)
	if err != nil || choice < 1 || choice > n {
		return -1, fmt.Errorf("choose a number between 1 and %d", n)
	}
	return choice - 1, nil
}

// terminalPrompter opens the line prompter on the first question, so
// commands that never ask anything leave the terminal alone.
type terminalPrompter struct {
	in   io.ReadCloser
	out  io.Writer
	line *linePrompter
}

func (t *terminalPrompter) get() (*linePrompter, error) {
	if t.line == nil {
		p, err := newLinePrompter(t.in, t.out)
		if err != nil {
			return nil, err
		}
		t.line = p
	}
	return t.line, nil
}

func (t *terminalPrompter) Pick(prompt string, options []string) (int, error) {
	p, err := t.get()
	if err != nil {
		return -1, err
	}
	return p.Pick(prompt, options)
}

func (t *terminalPrompter) Input(prompt string) (string, error) {
	p, err := t.get()
	if err != nil {
		return "", err
	}
	return p.Input(prompt)
}

// Close closes the line prompter if it was opened.
func (t *terminalPrompter) Close() error {
	if t.line == nil {
		return nil
	}
	return t.line.Close()
}
