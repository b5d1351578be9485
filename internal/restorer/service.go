// Package restorer implements the interactive restore workflow: pick a
// snapshot, browse its tree, accumulate paths, and hand them to the engine
// for extraction. All state is in-memory and lives for one invocation.
package restorer

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrCancelled signals that the user backed out of the workflow (quit the
// picker, declined a confirmation, chose Quit from the browser menu).
// Cancellation is a normal outcome, not a failure: callers print a short
// message and exit zero.
var ErrCancelled = errors.New("cancelled")

// RestoreService coordinates the selector, the engine, and the prompter to
// run the restore workflows needed by the CLI.
type RestoreService struct {
	engine   Engine
	selector Selector
	prompter Prompter
	prober   Prober
	guard    Guard
	logger   Logger

	// out receives user-facing status text. It must never be stdout:
	// stdout is reserved for machine-readable selection results.
	out io.Writer
}

// NewRestoreService creates a RestoreService with the provided dependencies.
func NewRestoreService(engine Engine, selector Selector, prompter Prompter, prober Prober, guard Guard, logger Logger, out io.Writer) *RestoreService {
	return &RestoreService{
		engine:   engine,
		selector: selector,
		prompter: prompter,
		prober:   prober,
		guard:    guard,
		logger:   logger,
		out:      out,
	}
}

// Run executes the full interactive flow: connectivity guard, snapshot
// pick, directory browse, restore. Returns ErrCancelled if the user backs
// out at any step.
func (s *RestoreService) Run(ctx context.Context) error {
	if err := s.checkConnectivity(); err != nil {
		return err
	}

	snapshotID, err := s.PickSnapshot(ctx)
	if err != nil {
		return err
	}

	paths, err := s.BrowseSnapshot(ctx, snapshotID)
	if err != nil {
		return err
	}

	return s.RestoreSelection(ctx, snapshotID, paths)
}

// statusf writes a user-facing status line.
func (s *RestoreService) statusf(format string, args ...any) {
	fmt.Fprintf(s.out, format+"\n", args...)
}
