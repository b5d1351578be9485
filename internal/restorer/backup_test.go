package restorer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"rb-go/internal/restic"
	"rb-go/internal/testutil"
)

func TestBackupAppliesRetention(t *testing.T) {
	engine := &testutil.FakeEngine{
		BackupSummary: &restic.BackupSummary{SnapshotID: "abc123", FilesNew: 3},
	}
	svc, out := newTestService(engine, &testutil.ScriptedSelector{}, &testutil.ScriptedPrompter{})

	opts := restic.BackupOptions{Paths: []string{"/home"}, Tags: []string{"auto"}}
	policy := restic.RetentionPolicy{KeepLast: 5, KeepDaily: 7}

	summary, err := svc.Backup(context.Background(), opts, policy)
	if err != nil {
		t.Fatalf("Backup() error: %v", err)
	}
	if summary.SnapshotID != "abc123" {
		t.Errorf("snapshot = %q, want abc123", summary.SnapshotID)
	}
	if len(engine.ForgetCalls) != 1 || engine.ForgetCalls[0] != policy {
		t.Errorf("forget calls = %v, want one with the policy", engine.ForgetCalls)
	}
	if !strings.Contains(out.String(), "Retention policy applied.") {
		t.Errorf("missing retention notice: %q", out.String())
	}
}

func TestBackupSkipsEmptyRetention(t *testing.T) {
	engine := &testutil.FakeEngine{}
	svc, _ := newTestService(engine, &testutil.ScriptedSelector{}, &testutil.ScriptedPrompter{})

	_, err := svc.Backup(context.Background(), restic.BackupOptions{Paths: []string{"/home"}}, restic.RetentionPolicy{})
	if err != nil {
		t.Fatalf("Backup() error: %v", err)
	}
	if len(engine.ForgetCalls) != 0 {
		t.Errorf("forget ran with an empty policy")
	}
}

func TestBackupForgetFailureIsWarning(t *testing.T) {
	engine := &testutil.FakeEngine{
		BackupSummary: &restic.BackupSummary{SnapshotID: "abc123"},
		ForgetErr:     fmt.Errorf("lock held"),
	}
	svc, out := newTestService(engine, &testutil.ScriptedSelector{}, &testutil.ScriptedPrompter{})

	summary, err := svc.Backup(context.Background(), restic.BackupOptions{Paths: []string{"/home"}}, restic.RetentionPolicy{KeepLast: 3})
	if err != nil {
		t.Fatalf("Backup() error = %v, want nil after forget failure", err)
	}
	if summary == nil || summary.SnapshotID != "abc123" {
		t.Errorf("summary = %+v", summary)
	}
	if !strings.Contains(out.String(), "retention cleanup failed") {
		t.Errorf("missing warning: %q", out.String())
	}
}

func TestBackupNoPaths(t *testing.T) {
	svc, _ := newTestService(&testutil.FakeEngine{}, &testutil.ScriptedSelector{}, &testutil.ScriptedPrompter{})

	_, err := svc.Backup(context.Background(), restic.BackupOptions{}, restic.RetentionPolicy{})
	if err == nil || !strings.Contains(err.Error(), "no backup paths") {
		t.Fatalf("Backup() error = %v, want no backup paths", err)
	}
}
