package selector

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// NumberedSelector is the fallback picker for hosts without fzf. It prints
// a 1-based numbered list and the prompt to errOut (stderr, so captured
// stdout stays clean) and reads the choice from in (stdin).
type NumberedSelector struct {
	in     *bufio.Reader
	errOut io.Writer
}

// NewNumberedSelector creates a NumberedSelector reading from in and
// writing list and prompts to errOut.
func NewNumberedSelector(in io.Reader, errOut io.Writer) *NumberedSelector {
	return &NumberedSelector{
		in:     bufio.NewReader(in),
		errOut: errOut,
	}
}

// SingleSelect prompts for one number. Empty input cancels; non-numeric or
// out-of-range input is an error that aborts the selection.
func (s *NumberedSelector) SingleSelect(prompt string, lines []string) (string, error) {
	s.printList(prompt, lines)
	fmt.Fprint(s.errOut, "Enter number (empty to cancel): ")

	input, err := s.readLine()
	if err != nil {
		return "", err
	}
	if input == "" {
		return "", nil
	}

	idx, err := strconv.Atoi(input)
	if err != nil {
		return "", fmt.Errorf("invalid selection: %q is not a number", input)
	}
	if idx < 1 || idx > len(lines) {
		return "", fmt.Errorf("invalid selection: %d is out of range 1-%d", idx, len(lines))
	}

	return lines[idx-1], nil
}

// MultiSelect prompts for space-separated numbers or the literal "all".
// Empty input cancels. Invalid or out-of-range tokens are silently skipped
// rather than failing the whole selection.
func (s *NumberedSelector) MultiSelect(prompt string, lines []string) ([]string, error) {
	s.printList(prompt, lines)
	fmt.Fprint(s.errOut, "Enter numbers separated by spaces, or 'all' (empty to cancel): ")

	input, err := s.readLine()
	if err != nil {
		return nil, err
	}
	if input == "" {
		return nil, nil
	}
	if input == "all" {
		chosen := make([]string, len(lines))
		copy(chosen, lines)
		return chosen, nil
	}

	var chosen []string
	for _, token := range strings.Fields(input) {
		idx, err := strconv.Atoi(token)
		if err != nil || idx < 1 || idx > len(lines) {
			continue
		}
		chosen = append(chosen, lines[idx-1])
	}
	return chosen, nil
}

func (s *NumberedSelector) printList(prompt string, lines []string) {
	fmt.Fprintf(s.errOut, "%s:\n", prompt)
	for i, line := range lines {
		fmt.Fprintf(s.errOut, "%3d) %s\n", i+1, line)
	}
}

func (s *NumberedSelector) readLine() (string, error) {
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return "", nil // EOF on stdin is a cancellation
		}
		return "", fmt.Errorf("reading selection: %w", err)
	}
	return strings.TrimSpace(line), nil
}
