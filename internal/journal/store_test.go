package journal

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	id, err := store.BeginRun(ctx, "/src", "/out", false)
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}
	if id == "" {
		t.Fatal("expected run id")
	}

	if err := store.RecordFile(ctx, id, "/src/a.flac", "converted", "", 0); err != nil {
		t.Fatalf("record file: %v", err)
	}
	if err := store.RecordFile(ctx, id, "/src/b.flac", "failed", "encoder exit status 1", 0); err != nil {
		t.Fatalf("record file: %v", err)
	}
	if err := store.RecordFile(ctx, id, "/src/album.flac", "split", "", 12); err != nil {
		t.Fatalf("record file: %v", err)
	}
	if err := store.FinishRun(ctx, id, 13, 0, 1); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	runs, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	run := runs[0]
	if run.ID != id || run.Converted != 13 || run.Failed != 1 {
		t.Fatalf("run = %+v", run)
	}
	if run.FinishedAt.IsZero() || run.StartedAt.IsZero() {
		t.Fatalf("timestamps missing: %+v", run)
	}

	files, err := store.FilesForRun(ctx, id)
	if err != nil {
		t.Fatalf("files for run: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("files = %d, want 3", len(files))
	}
	if files[1].Outcome != "failed" || files[1].Detail == "" {
		t.Fatalf("failure record = %+v", files[1])
	}
	if files[2].Tracks != 12 {
		t.Fatalf("split record = %+v", files[2])
	}
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	var last string
	for i := 0; i < 3; i++ {
		id, err := store.BeginRun(ctx, "/src", "/out", i%2 == 0)
		if err != nil {
			t.Fatalf("begin run: %v", err)
		}
		last = id
	}

	runs, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].ID != last {
		t.Fatalf("newest run should come first, got %+v", runs[0])
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.BeginRun(ctx, "/src", "/out", false); err != nil {
		t.Fatalf("begin run: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d after reopen, want 1", len(runs))
	}
}
