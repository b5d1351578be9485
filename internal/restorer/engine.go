package restorer

import (
	"context"

	"rb-go/internal/restic"
)

// Engine is the contract with the external backup engine. rb treats the
// repository as a black box: snapshots are created, listed, and extracted
// exclusively through these operations, never by touching storage directly.
type Engine interface {
	// Snapshots lists all snapshots in the repository.
	Snapshots(ctx context.Context) ([]restic.Snapshot, error)

	// Ls lists the entries directly under path within a snapshot.
	Ls(ctx context.Context, snapshotID string, path string) ([]restic.Node, error)

	// Restore extracts files from a snapshot into opts.Target.
	// An empty include list restores the whole snapshot.
	Restore(ctx context.Context, snapshotID string, opts restic.RestoreOptions) error

	// Backup creates a new snapshot and returns the engine's summary.
	Backup(ctx context.Context, opts restic.BackupOptions) (*restic.BackupSummary, error)

	// Forget applies the retention policy and prunes unreferenced data.
	Forget(ctx context.Context, policy restic.RetentionPolicy) error
}
