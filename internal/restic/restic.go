// Package restic wraps the restic binary. Every repository interaction in
// rb goes through this package — no other package may invoke the binary
// directly. The repository itself is opaque: rb never reads or interprets
// its on-disk format.
package restic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Snapshot is one record from `restic snapshots --json`.
type Snapshot struct {
	ID       string    `json:"id"`
	ShortID  string    `json:"short_id"`
	Time     time.Time `json:"time"`
	Hostname string    `json:"hostname"`
	Username string    `json:"username"`
	Paths    []string  `json:"paths"`
	Tags     []string  `json:"tags,omitempty"`
}

// Node is a single directory entry from `restic ls --json`.
// Type is "dir" or "file".
type Node struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Path string `json:"path"`
}

// lsRecord is the raw shape of one `ls --json` line. The stream starts with
// a snapshot-summary record; only node records carry directory entries.
// Older restic versions tag records with struct_type, newer ones with
// message_type.
type lsRecord struct {
	Node
	StructType  string `json:"struct_type"`
	MessageType string `json:"message_type"`
}

func (r *lsRecord) isNode() bool {
	return r.StructType == "node" || r.MessageType == "node"
}

// RestoreOptions configures a restore invocation.
// An empty Includes list restores the whole snapshot.
type RestoreOptions struct {
	Target   string
	Includes []string
}

// BackupOptions configures a backup invocation.
type BackupOptions struct {
	Paths    []string
	Excludes []string
	Tags     []string
}

// BackupSummary is the summary event emitted at the end of `backup --json`.
type BackupSummary struct {
	MessageType         string  `json:"message_type"`
	FilesNew            uint64  `json:"files_new"`
	FilesChanged        uint64  `json:"files_changed"`
	FilesUnmodified     uint64  `json:"files_unmodified"`
	DataAdded           uint64  `json:"data_added"`
	TotalFilesProcessed uint64  `json:"total_files_processed"`
	TotalBytesProcessed uint64  `json:"total_bytes_processed"`
	TotalDuration       float64 `json:"total_duration"`
	SnapshotID          string  `json:"snapshot_id"`
}

// RetentionPolicy mirrors restic's keep-* retention flags.
// Zero-valued fields are omitted from the forget invocation.
type RetentionPolicy struct {
	KeepLast    int `toml:"keep_last"`
	KeepDaily   int `toml:"keep_daily"`
	KeepWeekly  int `toml:"keep_weekly"`
	KeepMonthly int `toml:"keep_monthly"`
}

// Empty returns true if no retention rule is set.
func (p RetentionPolicy) Empty() bool {
	return p.KeepLast == 0 && p.KeepDaily == 0 && p.KeepWeekly == 0 && p.KeepMonthly == 0
}

// Runner executes restic commands against a single repository.
type Runner struct {
	bin          string
	repository   string
	password     string
	passwordFile string
	extraEnv     []string
}

// Option configures a Runner.
type Option func(*Runner)

// WithBinary overrides the restic binary path (default: "restic" from PATH).
func WithBinary(bin string) Option {
	return func(r *Runner) { r.bin = bin }
}

// WithPassword supplies the repository password directly via RESTIC_PASSWORD.
// Takes precedence over WithPasswordFile.
func WithPassword(password string) Option {
	return func(r *Runner) { r.password = password }
}

// WithPasswordFile points RESTIC_PASSWORD_FILE at the given path.
func WithPasswordFile(path string) Option {
	return func(r *Runner) { r.passwordFile = path }
}

// WithEnv appends extra environment variables ("KEY=value") to every
// invocation, e.g. backend credentials.
func WithEnv(env ...string) Option {
	return func(r *Runner) { r.extraEnv = append(r.extraEnv, env...) }
}

// NewRunner creates a Runner for the given repository URL.
func NewRunner(repository string, opts ...Option) *Runner {
	r := &Runner{
		bin:        "restic",
		repository: repository,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Snapshots lists all snapshots in the repository, as restic returns them
// (oldest first).
func (r *Runner) Snapshots(ctx context.Context) ([]Snapshot, error) {
	out, err := r.output(ctx, "snapshots", "--json", "--no-lock")
	if err != nil {
		return nil, err
	}

	snapshots, err := parseSnapshots(out)
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

// Ls lists the entries directly under path within the given snapshot.
func (r *Runner) Ls(ctx context.Context, snapshotID string, path string) ([]Node, error) {
	out, err := r.output(ctx, "ls", "--json", snapshotID, path)
	if err != nil {
		return nil, err
	}
	return parseLs(out)
}

// Restore extracts files from a snapshot. With no includes the whole
// snapshot is restored into opts.Target.
func (r *Runner) Restore(ctx context.Context, snapshotID string, opts RestoreOptions) error {
	return r.run(ctx, restoreArgs(snapshotID, opts)...)
}

// Backup creates a new snapshot of opts.Paths and returns the summary
// event restic emits on completion.
func (r *Runner) Backup(ctx context.Context, opts BackupOptions) (*BackupSummary, error) {
	out, err := r.output(ctx, backupArgs(opts)...)
	if err != nil {
		return nil, err
	}
	return parseBackupSummary(out)
}

// Forget applies the retention policy and prunes unreferenced data.
func (r *Runner) Forget(ctx context.Context, policy RetentionPolicy) error {
	if policy.Empty() {
		return fmt.Errorf("restic: refusing to forget with an empty retention policy")
	}
	return r.run(ctx, forgetArgs(policy)...)
}

// restoreArgs builds the argument list for a restore invocation.
func restoreArgs(snapshotID string, opts RestoreOptions) []string {
	args := []string{"restore", snapshotID, "--target", opts.Target}
	for _, include := range opts.Includes {
		args = append(args, "--include", include)
	}
	return args
}

// backupArgs builds the argument list for a backup invocation.
func backupArgs(opts BackupOptions) []string {
	args := []string{"backup", "--json"}
	for _, tag := range opts.Tags {
		args = append(args, "--tag", tag)
	}
	for _, exclude := range opts.Excludes {
		args = append(args, "--exclude", exclude)
	}
	return append(args, opts.Paths...)
}

// forgetArgs builds the argument list for a forget invocation.
func forgetArgs(policy RetentionPolicy) []string {
	args := []string{"forget", "--prune"}
	if policy.KeepLast > 0 {
		args = append(args, "--keep-last", fmt.Sprintf("%d", policy.KeepLast))
	}
	if policy.KeepDaily > 0 {
		args = append(args, "--keep-daily", fmt.Sprintf("%d", policy.KeepDaily))
	}
	if policy.KeepWeekly > 0 {
		args = append(args, "--keep-weekly", fmt.Sprintf("%d", policy.KeepWeekly))
	}
	if policy.KeepMonthly > 0 {
		args = append(args, "--keep-monthly", fmt.Sprintf("%d", policy.KeepMonthly))
	}
	return args
}

// parseSnapshots decodes the output of `snapshots --json`.
func parseSnapshots(out []byte) ([]Snapshot, error) {
	var snapshots []Snapshot
	if err := json.Unmarshal(out, &snapshots); err != nil {
		return nil, fmt.Errorf("restic: parsing snapshots output: %w", err)
	}
	return snapshots, nil
}

// parseLs decodes the newline-delimited output of `ls --json`, keeping only
// node records. The leading snapshot-summary record and any non-JSON noise
// (deprecation warnings from older versions) are skipped.
func parseLs(out []byte) ([]Node, error) {
	var nodes []Node

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var rec lsRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if !rec.isNode() || rec.Name == "" {
			continue
		}
		nodes = append(nodes, rec.Node)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("restic: reading ls output: %w", err)
	}

	return nodes, nil
}

// parseBackupSummary finds the summary event in `backup --json` output.
func parseBackupSummary(out []byte) (*BackupSummary, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var summary *BackupSummary
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var event BackupSummary
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if event.MessageType == "summary" {
			s := event
			summary = &s
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("restic: reading backup output: %w", err)
	}
	if summary == nil {
		return nil, fmt.Errorf("restic: backup produced no summary event")
	}
	return summary, nil
}

// run executes a restic command and waits for it to finish.
// Output is discarded; stderr is folded into the error on failure.
func (r *Runner) run(ctx context.Context, args ...string) error {
	cmd := r.buildCmd(ctx, args)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("restic: %s failed: %w\n%s", args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

// output executes a restic command and returns its stdout.
func (r *Runner) output(ctx context.Context, args ...string) ([]byte, error) {
	cmd := r.buildCmd(ctx, args)
	out, err := cmd.Output()
	if err != nil {
		stderr := ""
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = strings.TrimSpace(string(ee.Stderr))
		}
		return nil, fmt.Errorf("restic: %s failed: %w\n%s", args[0], err, stderr)
	}
	return out, nil
}

// buildCmd constructs the exec.Cmd for a restic invocation. The repository
// location and credentials travel via the environment so they never appear
// in process listings.
func (r *Runner) buildCmd(ctx context.Context, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, r.bin, args...)

	env := append(cmd.Environ(), "RESTIC_REPOSITORY="+r.repository)
	if r.password != "" {
		env = append(env, "RESTIC_PASSWORD="+r.password)
	} else if r.passwordFile != "" {
		env = append(env, "RESTIC_PASSWORD_FILE="+r.passwordFile)
	}
	env = append(env, r.extraEnv...)

	cmd.Env = env
	return cmd
}
