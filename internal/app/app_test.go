package app

import (
	"testing"
	"time"

	"rb-go/internal/history"
	"rb-go/internal/testutil"
)

func TestHistoryExcludesOwnInvocation(t *testing.T) {
	clock := testutil.FixedClock()
	store, err := history.NewSQLiteStore(":memory:", "host-1", clock, testutil.NewStubIDGenerator())
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	prev, err := store.Begin("Backup", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Finish(prev, "success"); err != nil {
		t.Fatal(err)
	}

	clock.Advance(time.Minute)
	cur, err := store.Begin("GetHistory", "", "")
	if err != nil {
		t.Fatal(err)
	}

	a := &App{history: store, op: cur}

	ops, err := a.History(10)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("History() returned %d operations, want 1", len(ops))
	}
	if ops[0].ID != prev.ID {
		t.Errorf("listed %q, want the finished operation %q", ops[0].ID, prev.ID)
	}
}

func TestHistoryHonorsLimitAfterExclusion(t *testing.T) {
	clock := testutil.FixedClock()
	store, err := history.NewSQLiteStore(":memory:", "host-1", clock, testutil.NewStubIDGenerator())
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	for i := 0; i < 4; i++ {
		op, err := store.Begin("Backup", "", "")
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Finish(op, "success"); err != nil {
			t.Fatal(err)
		}
		clock.Advance(time.Second)
	}
	cur, err := store.Begin("GetHistory", "", "")
	if err != nil {
		t.Fatal(err)
	}

	a := &App{history: store, op: cur}

	ops, err := a.History(2)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("History(2) returned %d operations, want 2", len(ops))
	}
	for _, op := range ops {
		if op.ID == cur.ID {
			t.Errorf("listing includes the in-flight invocation %q", cur.ID)
		}
	}
}
