package restic

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseSnapshots(t *testing.T) {
	t.Run("parses snapshot records", func(t *testing.T) {
		out := []byte(`[
			{"id":"abc123def456","short_id":"abc123","time":"2024-01-10T03:00:00Z","hostname":"mbp","username":"user","paths":["/home/user"]},
			{"id":"def456abc789","short_id":"def456","time":"2024-01-11T03:00:00Z","hostname":"mbp","username":"user","paths":["/home/user","/etc"],"tags":["nightly"]}
		]`)

		snapshots, err := parseSnapshots(out)
		if err != nil {
			t.Fatalf("parseSnapshots() error = %v", err)
		}
		if len(snapshots) != 2 {
			t.Fatalf("got %d snapshots, want 2", len(snapshots))
		}
		if snapshots[0].ShortID != "abc123" {
			t.Errorf("ShortID = %q, want %q", snapshots[0].ShortID, "abc123")
		}
		if snapshots[1].Hostname != "mbp" {
			t.Errorf("Hostname = %q, want %q", snapshots[1].Hostname, "mbp")
		}
		if len(snapshots[1].Paths) != 2 {
			t.Errorf("got %d paths, want 2", len(snapshots[1].Paths))
		}
	})

	t.Run("empty array yields no snapshots", func(t *testing.T) {
		snapshots, err := parseSnapshots([]byte(`[]`))
		if err != nil {
			t.Fatalf("parseSnapshots() error = %v", err)
		}
		if len(snapshots) != 0 {
			t.Errorf("got %d snapshots, want 0", len(snapshots))
		}
	})

	t.Run("malformed output returns error", func(t *testing.T) {
		if _, err := parseSnapshots([]byte(`not json`)); err == nil {
			t.Fatal("expected error for malformed output")
		}
	})
}

func TestParseLs(t *testing.T) {
	t.Run("filters out non-node records", func(t *testing.T) {
		out := strings.Join([]string{
			`{"time":"2024-01-10T03:00:00Z","hostname":"mbp","struct_type":"snapshot"}`,
			`{"name":"docs","type":"dir","path":"/docs","struct_type":"node"}`,
			`{"name":"notes.txt","type":"file","path":"/notes.txt","struct_type":"node"}`,
		}, "\n")

		nodes, err := parseLs([]byte(out))
		if err != nil {
			t.Fatalf("parseLs() error = %v", err)
		}
		if len(nodes) != 2 {
			t.Fatalf("got %d nodes, want 2", len(nodes))
		}
		if nodes[0].Name != "docs" || nodes[0].Type != "dir" {
			t.Errorf("node[0] = %+v, want dir docs", nodes[0])
		}
		if nodes[1].Name != "notes.txt" || nodes[1].Type != "file" {
			t.Errorf("node[1] = %+v, want file notes.txt", nodes[1])
		}
	})

	t.Run("accepts message_type tagging", func(t *testing.T) {
		out := `{"name":"bin","type":"dir","path":"/bin","message_type":"node"}`

		nodes, err := parseLs([]byte(out))
		if err != nil {
			t.Fatalf("parseLs() error = %v", err)
		}
		if len(nodes) != 1 {
			t.Fatalf("got %d nodes, want 1", len(nodes))
		}
	})

	t.Run("skips non-JSON noise lines", func(t *testing.T) {
		out := strings.Join([]string{
			`warning: something deprecated`,
			``,
			`{"name":"a.txt","type":"file","path":"/a.txt","struct_type":"node"}`,
		}, "\n")

		nodes, err := parseLs([]byte(out))
		if err != nil {
			t.Fatalf("parseLs() error = %v", err)
		}
		if len(nodes) != 1 {
			t.Fatalf("got %d nodes, want 1", len(nodes))
		}
	})

	t.Run("empty output yields no nodes", func(t *testing.T) {
		nodes, err := parseLs(nil)
		if err != nil {
			t.Fatalf("parseLs() error = %v", err)
		}
		if len(nodes) != 0 {
			t.Errorf("got %d nodes, want 0", len(nodes))
		}
	})
}

func TestParseBackupSummary(t *testing.T) {
	t.Run("finds the summary event", func(t *testing.T) {
		out := strings.Join([]string{
			`{"message_type":"status","percent_done":0.5}`,
			`{"message_type":"summary","files_new":3,"data_added":1024,"snapshot_id":"abc123"}`,
		}, "\n")

		summary, err := parseBackupSummary([]byte(out))
		if err != nil {
			t.Fatalf("parseBackupSummary() error = %v", err)
		}
		if summary.FilesNew != 3 {
			t.Errorf("FilesNew = %d, want 3", summary.FilesNew)
		}
		if summary.SnapshotID != "abc123" {
			t.Errorf("SnapshotID = %q, want %q", summary.SnapshotID, "abc123")
		}
	})

	t.Run("missing summary is an error", func(t *testing.T) {
		out := `{"message_type":"status","percent_done":1.0}`
		if _, err := parseBackupSummary([]byte(out)); err == nil {
			t.Fatal("expected error when no summary event present")
		}
	})
}

func TestRestoreArgs(t *testing.T) {
	tests := []struct {
		name       string
		snapshotID string
		opts       RestoreOptions
		want       []string
	}{
		{
			name:       "whole snapshot",
			snapshotID: "abc123",
			opts:       RestoreOptions{Target: "/tmp/out"},
			want:       []string{"restore", "abc123", "--target", "/tmp/out"},
		},
		{
			name:       "with include filters",
			snapshotID: "def456",
			opts:       RestoreOptions{Target: "/", Includes: []string{"/home/notes.txt", "/etc/hosts"}},
			want: []string{
				"restore", "def456", "--target", "/",
				"--include", "/home/notes.txt", "--include", "/etc/hosts",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := restoreArgs(tt.snapshotID, tt.opts)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("restoreArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBackupArgs(t *testing.T) {
	opts := BackupOptions{
		Paths:    []string{"/home/user", "/etc"},
		Excludes: []string{"*.cache"},
		Tags:     []string{"nightly"},
	}
	want := []string{
		"backup", "--json",
		"--tag", "nightly",
		"--exclude", "*.cache",
		"/home/user", "/etc",
	}

	got := backupArgs(opts)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("backupArgs() = %v, want %v", got, want)
	}
}

func TestForgetArgs(t *testing.T) {
	policy := RetentionPolicy{KeepDaily: 7, KeepWeekly: 4, KeepMonthly: 6}
	want := []string{
		"forget", "--prune",
		"--keep-daily", "7",
		"--keep-weekly", "4",
		"--keep-monthly", "6",
	}

	got := forgetArgs(policy)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("forgetArgs() = %v, want %v", got, want)
	}
}

func TestRetentionPolicy_Empty(t *testing.T) {
	if !(RetentionPolicy{}).Empty() {
		t.Error("zero policy should be empty")
	}
	if (RetentionPolicy{KeepLast: 1}).Empty() {
		t.Error("policy with keep_last should not be empty")
	}
}
