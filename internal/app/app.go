package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"rb-go/internal/config"
	"rb-go/internal/history"
	"rb-go/internal/prompt"
	"rb-go/internal/restic"
	"rb-go/internal/restorer"
	"rb-go/internal/secret"
	"rb-go/internal/selector"
)

// App is the application layer between the CLI and the RestoreService.
// It constructs all dependencies from config, records the invocation in
// the history store, and manages resource lifecycle on Close.
type App struct {
	cfg     *config.Config
	service *restorer.RestoreService
	history history.Store
	op      *history.Operation
	logFile *os.File
}

// New creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "Browse", "QuickRestore").
// The caller must call Close when done.
func New(cfg *config.Config, operation string) (*App, error) {
	if cfg.Repository.URL == "" {
		return nil, fmt.Errorf("no repository configured (set repository.url in the config)")
	}

	runID := uuid.New().String()
	logger, logFile, err := newLogger(cfg.LogDir, runID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	engine, err := newEngine(cfg)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	sel, err := selector.New(cfg.Selector, os.Stdin, os.Stderr)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating selector: %w", err)
	}

	guard := restorer.Guard{
		Host:    cfg.Guard.Host,
		Port:    cfg.Guard.Port,
		Timeout: time.Duration(cfg.Guard.TimeoutSeconds) * time.Second,
	}
	if guard.Host != "" && guard.Port == 0 {
		guard.Port = 22 // sftp default
	}

	svc := restorer.NewRestoreService(
		engine,
		sel,
		prompt.New(os.Stdin, os.Stderr),
		restorer.TCPProber{},
		guard,
		&slogAdapter{l: logger},
		os.Stderr,
	)

	hist, err := history.NewStoreFromConfig(cfg.History, cfg.HostID)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening history store: %w", err)
	}

	op, err := hist.Begin(operation, "", "")
	if err != nil {
		hist.Close()
		logFile.Close()
		return nil, fmt.Errorf("recording operation: %w", err)
	}

	return &App{
		cfg:     cfg,
		service: svc,
		history: hist,
		op:      op,
		logFile: logFile,
	}, nil
}

// newEngine builds the restic Runner, resolving the repository password
// from the password file or the age-encrypted secret store.
func newEngine(cfg *config.Config) (*restic.Runner, error) {
	var opts []restic.Option
	if cfg.Repository.Binary != "" {
		opts = append(opts, restic.WithBinary(cfg.Repository.Binary))
	}
	if len(cfg.Repository.Env) > 0 {
		opts = append(opts, restic.WithEnv(cfg.Repository.Env...))
	}

	if cfg.Repository.PasswordFile != "" {
		opts = append(opts, restic.WithPasswordFile(cfg.Repository.PasswordFile))
	} else {
		store := secret.NewStore(cfg.Secret)
		if !store.IsConfigured() {
			return nil, fmt.Errorf("no repository password: set repository.password_file or run 'rb secret init' and 'rb secret set'")
		}
		password, err := store.Get()
		if err != nil {
			return nil, fmt.Errorf("loading repository password: %w", err)
		}
		opts = append(opts, restic.WithPassword(password))
	}

	return restic.NewRunner(cfg.Repository.URL, opts...), nil
}

// Browse runs the full interactive flow: connectivity guard, snapshot
// pick, directory browse, restore.
func (a *App) Browse(ctx context.Context) error {
	return a.service.Run(ctx)
}

// QuickRestore restores a whole snapshot without prompts.
func (a *App) QuickRestore(ctx context.Context, snapshotID, target string) error {
	a.op.SnapshotID = snapshotID
	a.op.Target = target
	return a.service.QuickRestore(ctx, snapshotID, target)
}

// Snapshots lists the repository's snapshots, guarded like every other
// engine-touching flow.
func (a *App) Snapshots(ctx context.Context) ([]restic.Snapshot, error) {
	return a.service.Snapshots(ctx)
}

// Backup snapshots the configured paths and applies the retention policy.
func (a *App) Backup(ctx context.Context) (*restic.BackupSummary, error) {
	return a.service.Backup(ctx, restic.BackupOptions{
		Paths:    a.cfg.Backup.Paths,
		Excludes: a.cfg.Backup.Excludes,
		Tags:     a.cfg.Backup.Tags,
	}, a.cfg.Retention)
}

// History returns the most recent recorded operations. The listing
// invocation itself is still running and is excluded, so the output never
// leads with its own open row.
func (a *App) History(limit int) ([]*history.Operation, error) {
	ops, err := a.history.List(limit + 1)
	if err != nil {
		return nil, err
	}

	filtered := ops[:0]
	for _, op := range ops {
		if op.ID != "" && op.ID == a.op.ID {
			continue
		}
		filtered = append(filtered, op)
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// Close finalizes the operation record and closes all resources.
// runErr is the error the operation finished with; cancellations are
// recorded as "cancelled", not as errors.
func (a *App) Close(runErr error) error {
	status := "success"
	switch {
	case errors.Is(runErr, restorer.ErrCancelled):
		status = "cancelled"
	case runErr != nil:
		status = "error"
	}

	var firstErr error
	if err := a.history.Finish(a.op, status); err != nil {
		firstErr = fmt.Errorf("finishing operation record: %w", err)
	}
	if err := a.history.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing history store: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
