package selector

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// fzf exits 130 when the user aborts with ctrl-c/esc and 1 when the query
// matched nothing. Neither is a failure of the selection itself.
const (
	fzfExitNoMatch = 1
	fzfExitAborted = 130
)

// FzfSelector drives an external fzf process. Lines are piped to its stdin;
// the chosen lines are captured from its stdout. fzf renders its UI on the
// terminal directly, so stdout stays clean for the selection result.
type FzfSelector struct {
	bin    string
	errOut io.Writer
}

// NewFzfSelector creates an FzfSelector using the fzf binary at bin.
func NewFzfSelector(bin string, errOut io.Writer) *FzfSelector {
	return &FzfSelector{bin: bin, errOut: errOut}
}

// SingleSelect runs fzf in single-selection mode.
func (s *FzfSelector) SingleSelect(prompt string, lines []string) (string, error) {
	chosen, err := s.pick(prompt, lines, false)
	if err != nil {
		return "", err
	}
	if len(chosen) == 0 {
		return "", nil
	}
	return chosen[0], nil
}

// MultiSelect runs fzf in multi-selection mode: tab toggles items, enter
// confirms the set.
func (s *FzfSelector) MultiSelect(prompt string, lines []string) ([]string, error) {
	return s.pick(prompt, lines, true)
}

func (s *FzfSelector) pick(prompt string, lines []string, multi bool) ([]string, error) {
	args := []string{"--prompt", prompt + " > ", "--height", "60%", "--reverse"}
	if multi {
		args = append(args, "--multi")
	}

	cmd := exec.Command(s.bin, args...)
	cmd.Stdin = strings.NewReader(strings.Join(lines, "\n"))
	cmd.Stderr = s.errOut

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			switch ee.ExitCode() {
			case fzfExitNoMatch, fzfExitAborted:
				return nil, nil // cancellation, not an error
			}
		}
		return nil, fmt.Errorf("running fzf: %w", err)
	}

	var chosen []string
	for _, line := range strings.Split(out.String(), "\n") {
		if line != "" {
			chosen = append(chosen, line)
		}
	}
	return chosen, nil
}
