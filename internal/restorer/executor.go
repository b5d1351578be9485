package restorer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rb-go/internal/restic"
)

// RestoreSelection confirms the accumulated paths with the user and invokes
// the engine's restore with one include filter per path. Restoring to the
// original locations means targeting "/": the include filters carry the
// full snapshot-relative paths, so files land where they were backed up.
//
// The restore itself is all-or-nothing from rb's perspective; any engine
// failure propagates as-is with no partial-failure recovery.
func (s *RestoreService) RestoreSelection(ctx context.Context, snapshotID string, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no paths selected for restore")
	}

	s.statusf("Selected for restore from snapshot %s:", snapshotID)
	for _, p := range paths {
		s.statusf("  %s", p)
	}

	toOriginal, err := s.prompter.Confirm("Restore to original locations?", true)
	if err != nil {
		return fmt.Errorf("reading confirmation: %w", err)
	}

	target := "/"
	if !toOriginal {
		raw, err := s.prompter.Input("Restore target directory")
		if err != nil {
			return fmt.Errorf("reading target directory: %w", err)
		}
		if raw == "" {
			return ErrCancelled
		}

		target, err = expandHome(raw)
		if err != nil {
			return fmt.Errorf("resolving target directory: %w", err)
		}
		if err := os.MkdirAll(target, 0755); err != nil {
			return fmt.Errorf("creating target directory: %w", err)
		}
	}

	ok, err := s.prompter.Confirm(fmt.Sprintf("Restore %d item(s) to %s?", len(paths), target), false)
	if err != nil {
		return fmt.Errorf("reading confirmation: %w", err)
	}
	if !ok {
		return ErrCancelled
	}

	s.logger.Info("restore started", "snapshot", snapshotID, "target", target, "includes", len(paths))
	if err := s.engine.Restore(ctx, snapshotID, restic.RestoreOptions{
		Target:   target,
		Includes: paths,
	}); err != nil {
		return fmt.Errorf("restoring snapshot %s: %w", snapshotID, err)
	}

	s.statusf("Restore complete.")
	return nil
}

// QuickRestore restores a whole snapshot into target without any prompts.
// An empty target means the current directory.
func (s *RestoreService) QuickRestore(ctx context.Context, snapshotID string, target string) error {
	if err := s.checkConnectivity(); err != nil {
		return err
	}

	if target == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
		target = cwd
	}

	target, err := expandHome(target)
	if err != nil {
		return fmt.Errorf("resolving target directory: %w", err)
	}
	if err := os.MkdirAll(target, 0755); err != nil {
		return fmt.Errorf("creating target directory: %w", err)
	}

	s.logger.Info("quick restore started", "snapshot", snapshotID, "target", target)
	if err := s.engine.Restore(ctx, snapshotID, restic.RestoreOptions{Target: target}); err != nil {
		return fmt.Errorf("restoring snapshot %s: %w", snapshotID, err)
	}

	s.statusf("Restored snapshot %s to %s", snapshotID, target)
	return nil
}

// expandHome resolves a leading "~" to the user's home directory.
func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	if p == "~" {
		return home, nil
	}
	return filepath.Join(home, p[2:]), nil
}
