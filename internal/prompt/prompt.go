// Package prompt implements terminal prompts for confirmations, free-form
// input, and hidden password entry. Prompt text goes to stderr so stdout
// stays reserved for machine-readable output.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// TerminalPrompter reads answers from in and writes questions to errOut.
type TerminalPrompter struct {
	in     *bufio.Reader
	errOut io.Writer
}

// New creates a TerminalPrompter reading from in and prompting on errOut.
func New(in io.Reader, errOut io.Writer) *TerminalPrompter {
	return &TerminalPrompter{
		in:     bufio.NewReader(in),
		errOut: errOut,
	}
}

// Confirm asks a yes/no question. Empty input returns def.
func (p *TerminalPrompter) Confirm(question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(p.errOut, "%s [%s]: ", question, hint)

	answer, err := p.readLine()
	if err != nil {
		return false, err
	}

	switch strings.ToLower(answer) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Input asks for a single line of text. Returns "" for empty input.
func (p *TerminalPrompter) Input(question string) (string, error) {
	fmt.Fprintf(p.errOut, "%s: ", question)
	return p.readLine()
}

// Password asks for a secret without echoing it when stdin is a terminal.
// When stdin is not a terminal (tests, pipes) it falls back to a plain read.
func (p *TerminalPrompter) Password(question string) (string, error) {
	fmt.Fprintf(p.errOut, "%s: ", question)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(p.errOut)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}

	return p.readLine()
}

func (p *TerminalPrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return "", nil
		}
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
