package testutil

import (
	"context"
	"fmt"
	"time"

	"rb-go/internal/restic"
)

// RestoreCall records one Restore invocation on a FakeEngine.
type RestoreCall struct {
	SnapshotID string
	Opts       restic.RestoreOptions
}

// FakeEngine is a scripted in-memory backup engine. Snapshot listings and
// directory listings are served from fields; every mutating call is recorded
// so tests can assert on what reached the engine.
type FakeEngine struct {
	SnapshotList []restic.Snapshot
	SnapshotsErr error

	// Listings maps a virtual snapshot path to its entries.
	Listings map[string][]restic.Node
	// LsErrs maps a virtual snapshot path to a listing failure.
	LsErrs map[string]error

	RestoreErr error

	BackupSummary *restic.BackupSummary
	BackupErr     error
	ForgetErr     error

	SnapshotsCalls int
	LsCalls        []string
	RestoreCalls   []RestoreCall
	BackupCalls    []restic.BackupOptions
	ForgetCalls    []restic.RetentionPolicy
}

func (e *FakeEngine) Snapshots(ctx context.Context) ([]restic.Snapshot, error) {
	e.SnapshotsCalls++
	if e.SnapshotsErr != nil {
		return nil, e.SnapshotsErr
	}
	return e.SnapshotList, nil
}

func (e *FakeEngine) Ls(ctx context.Context, snapshotID string, path string) ([]restic.Node, error) {
	e.LsCalls = append(e.LsCalls, path)
	if err, ok := e.LsErrs[path]; ok {
		return nil, err
	}
	return e.Listings[path], nil
}

func (e *FakeEngine) Restore(ctx context.Context, snapshotID string, opts restic.RestoreOptions) error {
	e.RestoreCalls = append(e.RestoreCalls, RestoreCall{SnapshotID: snapshotID, Opts: opts})
	return e.RestoreErr
}

func (e *FakeEngine) Backup(ctx context.Context, opts restic.BackupOptions) (*restic.BackupSummary, error) {
	e.BackupCalls = append(e.BackupCalls, opts)
	if e.BackupErr != nil {
		return nil, e.BackupErr
	}
	if e.BackupSummary != nil {
		return e.BackupSummary, nil
	}
	return &restic.BackupSummary{SnapshotID: "fake0001"}, nil
}

func (e *FakeEngine) Forget(ctx context.Context, policy restic.RetentionPolicy) error {
	e.ForgetCalls = append(e.ForgetCalls, policy)
	return e.ForgetErr
}

// ScriptedSelector serves selections from queues, in call order. Running out
// of scripted answers is a test bug and fails loudly.
type ScriptedSelector struct {
	Singles []string
	Multis  [][]string

	// Prompts and Offered record what each SingleSelect call presented.
	Prompts []string
	Offered [][]string
}

func (s *ScriptedSelector) SingleSelect(prompt string, lines []string) (string, error) {
	s.Prompts = append(s.Prompts, prompt)
	s.Offered = append(s.Offered, lines)
	if len(s.Singles) == 0 {
		return "", fmt.Errorf("scripted selector: unexpected SingleSelect(%q)", prompt)
	}
	answer := s.Singles[0]
	s.Singles = s.Singles[1:]
	return answer, nil
}

func (s *ScriptedSelector) MultiSelect(prompt string, lines []string) ([]string, error) {
	if len(s.Multis) == 0 {
		return nil, fmt.Errorf("scripted selector: unexpected MultiSelect(%q)", prompt)
	}
	answer := s.Multis[0]
	s.Multis = s.Multis[1:]
	return answer, nil
}

// ScriptedPrompter serves confirmation and input answers from queues.
type ScriptedPrompter struct {
	Confirms []bool
	Inputs   []string

	Questions []string
}

func (p *ScriptedPrompter) Confirm(question string, def bool) (bool, error) {
	p.Questions = append(p.Questions, question)
	if len(p.Confirms) == 0 {
		return false, fmt.Errorf("scripted prompter: unexpected Confirm(%q)", question)
	}
	answer := p.Confirms[0]
	p.Confirms = p.Confirms[1:]
	return answer, nil
}

func (p *ScriptedPrompter) Input(question string) (string, error) {
	p.Questions = append(p.Questions, question)
	if len(p.Inputs) == 0 {
		return "", fmt.Errorf("scripted prompter: unexpected Input(%q)", question)
	}
	answer := p.Inputs[0]
	p.Inputs = p.Inputs[1:]
	return answer, nil
}

// FakeProber records probes and returns a fixed result.
type FakeProber struct {
	Err    error
	Probes int
}

func (p *FakeProber) Probe(host string, port int, timeout time.Duration) error {
	p.Probes++
	return p.Err
}
