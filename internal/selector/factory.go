package selector

import (
	"fmt"
	"io"
	"os/exec"

	"rb-go/internal/config"
	"rb-go/internal/restorer"
)

// lookPath is swapped out in tests to simulate a host without fzf.
var lookPath = exec.LookPath

// New creates a Selector based on the selector config mode. The probe for
// fzf happens once, here; the variant cannot change mid-run.
func New(cfg config.SelectorConfig, in io.Reader, errOut io.Writer) (restorer.Selector, error) {
	switch cfg.Mode {
	case "", "auto":
		if bin, err := lookPath("fzf"); err == nil {
			return NewFzfSelector(bin, errOut), nil
		}
		return NewNumberedSelector(in, errOut), nil
	case "fzf":
		bin, err := lookPath("fzf")
		if err != nil {
			return nil, fmt.Errorf("selector mode is fzf but fzf was not found in PATH: %w", err)
		}
		return NewFzfSelector(bin, errOut), nil
	case "numbered":
		return NewNumberedSelector(in, errOut), nil
	default:
		return nil, fmt.Errorf("unknown selector mode: %s", cfg.Mode)
	}
}
