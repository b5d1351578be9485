package restorer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"rb-go/internal/testutil"
)

func TestRestoreSelectionOriginalLocations(t *testing.T) {
	engine := &testutil.FakeEngine{}
	prompter := &testutil.ScriptedPrompter{Confirms: []bool{true, true}}
	svc, out := newTestService(engine, &testutil.ScriptedSelector{}, prompter)

	err := svc.RestoreSelection(context.Background(), "def456", []string{"/home/notes.txt", "/etc"})
	if err != nil {
		t.Fatalf("RestoreSelection() error: %v", err)
	}

	if len(engine.RestoreCalls) != 1 {
		t.Fatalf("restore calls = %d, want 1", len(engine.RestoreCalls))
	}
	call := engine.RestoreCalls[0]
	if call.SnapshotID != "def456" {
		t.Errorf("snapshot = %q, want def456", call.SnapshotID)
	}
	if call.Opts.Target != "/" {
		t.Errorf("target = %q, want /", call.Opts.Target)
	}
	if !reflect.DeepEqual(call.Opts.Includes, []string{"/home/notes.txt", "/etc"}) {
		t.Errorf("includes = %v", call.Opts.Includes)
	}
	if !strings.Contains(out.String(), "Restore complete.") {
		t.Errorf("missing completion notice: %q", out.String())
	}
}

func TestRestoreSelectionCustomTarget(t *testing.T) {
	target := filepath.Join(t.TempDir(), "restored")

	engine := &testutil.FakeEngine{}
	prompter := &testutil.ScriptedPrompter{
		Confirms: []bool{false, true},
		Inputs:   []string{target},
	}
	svc, _ := newTestService(engine, &testutil.ScriptedSelector{}, prompter)

	err := svc.RestoreSelection(context.Background(), "def456", []string{"/home/notes.txt"})
	if err != nil {
		t.Fatalf("RestoreSelection() error: %v", err)
	}

	if engine.RestoreCalls[0].Opts.Target != target {
		t.Errorf("target = %q, want %q", engine.RestoreCalls[0].Opts.Target, target)
	}
	if fi, err := os.Stat(target); err != nil || !fi.IsDir() {
		t.Errorf("target directory was not created: %v", err)
	}
}

func TestRestoreSelectionTildeTarget(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	engine := &testutil.FakeEngine{}
	prompter := &testutil.ScriptedPrompter{
		Confirms: []bool{false, true},
		Inputs:   []string{"~/restored"},
	}
	svc, _ := newTestService(engine, &testutil.ScriptedSelector{}, prompter)

	err := svc.RestoreSelection(context.Background(), "def456", []string{"/etc"})
	if err != nil {
		t.Fatalf("RestoreSelection() error: %v", err)
	}

	want := filepath.Join(home, "restored")
	if engine.RestoreCalls[0].Opts.Target != want {
		t.Errorf("target = %q, want %q", engine.RestoreCalls[0].Opts.Target, want)
	}
}

func TestRestoreSelectionEmptyTargetCancels(t *testing.T) {
	engine := &testutil.FakeEngine{}
	prompter := &testutil.ScriptedPrompter{
		Confirms: []bool{false},
		Inputs:   []string{""},
	}
	svc, _ := newTestService(engine, &testutil.ScriptedSelector{}, prompter)

	err := svc.RestoreSelection(context.Background(), "def456", []string{"/etc"})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("RestoreSelection() error = %v, want ErrCancelled", err)
	}
	if len(engine.RestoreCalls) != 0 {
		t.Errorf("restore ran after cancel: %v", engine.RestoreCalls)
	}
}

func TestRestoreSelectionDeclinedFinalConfirm(t *testing.T) {
	engine := &testutil.FakeEngine{}
	prompter := &testutil.ScriptedPrompter{Confirms: []bool{true, false}}
	svc, _ := newTestService(engine, &testutil.ScriptedSelector{}, prompter)

	err := svc.RestoreSelection(context.Background(), "def456", []string{"/etc"})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("RestoreSelection() error = %v, want ErrCancelled", err)
	}
	if len(engine.RestoreCalls) != 0 {
		t.Errorf("restore ran after declined confirmation: %v", engine.RestoreCalls)
	}
}

func TestRestoreSelectionNoPaths(t *testing.T) {
	svc, _ := newTestService(&testutil.FakeEngine{}, &testutil.ScriptedSelector{}, &testutil.ScriptedPrompter{})

	err := svc.RestoreSelection(context.Background(), "def456", nil)
	if err == nil || !strings.Contains(err.Error(), "no paths selected") {
		t.Fatalf("RestoreSelection() error = %v, want no paths selected", err)
	}
}

func TestRestoreSelectionEngineFailure(t *testing.T) {
	engine := &testutil.FakeEngine{RestoreErr: fmt.Errorf("repository locked")}
	prompter := &testutil.ScriptedPrompter{Confirms: []bool{true, true}}
	svc, _ := newTestService(engine, &testutil.ScriptedSelector{}, prompter)

	err := svc.RestoreSelection(context.Background(), "def456", []string{"/etc"})
	if err == nil || !strings.Contains(err.Error(), "repository locked") {
		t.Fatalf("RestoreSelection() error = %v, want engine failure", err)
	}
}

func TestQuickRestore(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out")

	engine := &testutil.FakeEngine{}
	svc, out := newTestService(engine, &testutil.ScriptedSelector{}, &testutil.ScriptedPrompter{})

	if err := svc.QuickRestore(context.Background(), "abc123", target); err != nil {
		t.Fatalf("QuickRestore() error: %v", err)
	}

	if len(engine.RestoreCalls) != 1 {
		t.Fatalf("restore calls = %d, want 1", len(engine.RestoreCalls))
	}
	call := engine.RestoreCalls[0]
	if call.SnapshotID != "abc123" || call.Opts.Target != target {
		t.Errorf("restore call = %+v", call)
	}
	if len(call.Opts.Includes) != 0 {
		t.Errorf("quick restore passed includes: %v", call.Opts.Includes)
	}
	if fi, err := os.Stat(target); err != nil || !fi.IsDir() {
		t.Errorf("target directory was not created: %v", err)
	}
	if !strings.Contains(out.String(), "Restored snapshot abc123") {
		t.Errorf("missing status line: %q", out.String())
	}
}

func TestQuickRestoreDefaultsToCwd(t *testing.T) {
	engine := &testutil.FakeEngine{}
	svc, _ := newTestService(engine, &testutil.ScriptedSelector{}, &testutil.ScriptedPrompter{})

	if err := svc.QuickRestore(context.Background(), "abc123", ""); err != nil {
		t.Fatalf("QuickRestore() error: %v", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if engine.RestoreCalls[0].Opts.Target != cwd {
		t.Errorf("target = %q, want cwd %q", engine.RestoreCalls[0].Opts.Target, cwd)
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/docs", filepath.Join(home, "docs")},
		{"/var/tmp", "/var/tmp"},
		{"relative/path", "relative/path"},
		{"~user/docs", "~user/docs"},
	}

	for _, tt := range tests {
		got, err := expandHome(tt.in)
		if err != nil {
			t.Errorf("expandHome(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("expandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
