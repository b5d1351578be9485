package restorer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"rb-go/internal/restic"
)

// Snapshots lists the repository's snapshots after the connectivity check
// that every engine-touching flow runs.
func (s *RestoreService) Snapshots(ctx context.Context) ([]restic.Snapshot, error) {
	if err := s.checkConnectivity(); err != nil {
		return nil, err
	}
	return s.engine.Snapshots(ctx)
}

// maxPathsWidth bounds the path column so every snapshot line has a fixed
// visual width in the picker.
const maxPathsWidth = 48

// PickSnapshot lists the repository's snapshots and lets the user choose
// one. Returns the chosen snapshot's short id, or ErrCancelled if the user
// dismissed the picker.
func (s *RestoreService) PickSnapshot(ctx context.Context) (string, error) {
	snapshots, err := s.engine.Snapshots(ctx)
	if err != nil {
		return "", fmt.Errorf("listing snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		return "", fmt.Errorf("no snapshots found")
	}

	lines := make([]string, len(snapshots))
	for i, sn := range snapshots {
		lines[i] = formatSnapshotLine(sn.ShortID, sn.Time.Format("2006-01-02 15:04"), sn.Hostname, sn.Paths)
	}

	chosen, err := s.selector.SingleSelect("Select a snapshot", lines)
	if err != nil {
		return "", fmt.Errorf("selecting snapshot: %w", err)
	}
	if chosen == "" {
		return "", ErrCancelled
	}

	// The short id is the first whitespace-delimited token of the line.
	fields := strings.Fields(chosen)
	if len(fields) == 0 {
		return "", ErrCancelled
	}
	id := fields[0]
	s.logger.Info("snapshot selected", "id", id)
	return id, nil
}

// formatSnapshotLine renders one snapshot as a single selectable line:
// short id, date, host, truncated path list.
func formatSnapshotLine(shortID, date, host string, paths []string) string {
	joined := strings.Join(paths, ", ")
	if len(joined) > maxPathsWidth {
		// Cut on a rune boundary so multibyte path names stay valid UTF-8.
		cut := maxPathsWidth - 3
		for cut > 0 && !utf8.RuneStart(joined[cut]) {
			cut--
		}
		joined = joined[:cut] + "..."
	}
	return fmt.Sprintf("%-10s %-17s %-12s %s", shortID, date, host, joined)
}
