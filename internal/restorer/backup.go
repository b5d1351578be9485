package restorer

import (
	"context"
	"fmt"

	"rb-go/internal/restic"
)

// Backup creates a new snapshot of the configured paths and then applies
// the retention policy, if one is set. Forget failures after a successful
// backup are reported but do not fail the operation: the snapshot exists,
// and retention will be re-applied on the next run.
func (s *RestoreService) Backup(ctx context.Context, opts restic.BackupOptions, policy restic.RetentionPolicy) (*restic.BackupSummary, error) {
	if len(opts.Paths) == 0 {
		return nil, fmt.Errorf("no backup paths configured")
	}

	if err := s.checkConnectivity(); err != nil {
		return nil, err
	}

	s.logger.Info("backup started", "paths", len(opts.Paths))
	summary, err := s.engine.Backup(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("backing up: %w", err)
	}

	s.statusf("Snapshot %s created: %d new, %d changed, %d unmodified files (%d bytes added)",
		summary.SnapshotID, summary.FilesNew, summary.FilesChanged, summary.FilesUnmodified, summary.DataAdded)
	s.logger.Info("backup finished", "snapshot", summary.SnapshotID, "files_new", summary.FilesNew)

	if !policy.Empty() {
		if err := s.engine.Forget(ctx, policy); err != nil {
			s.statusf("Warning: retention cleanup failed: %v", err)
			s.logger.Error("retention cleanup failed", "error", err)
			return summary, nil
		}
		s.statusf("Retention policy applied.")
	}

	return summary, nil
}
