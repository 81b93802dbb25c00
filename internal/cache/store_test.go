package cache

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/codewandler/glpipe/internal/models"
	"github.com/google/go-cmp/cmp"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache", "project.db"), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func detail(id int, status models.Status, created time.Time) *models.PipelineDetail {
	dur := 12.5
	return &models.PipelineDetail{
		Pipeline: models.Pipeline{
			ID:        id,
			Status:    status,
			Ref:       "main",
			SHA:       "0123456789abcdef",
			CreatedAt: created,
			UpdatedAt: created.Add(time.Minute),
		},
		Jobs: []models.Job{
			{ID: id*10 + 1, PipelineID: id, Name: "compile", Stage: "build", Status: models.StatusSuccess, Duration: &dur, CreatedAt: created},
			{ID: id*10 + 2, PipelineID: id, Name: "unit", Stage: "test", Status: status, CreatedAt: created},
		},
	}
}

func TestPathFor(t *testing.T) {
	tests := []struct {
		project string
		want    string
	}{
		{"group/app", "group__app.db"},
		{"/group/sub/app/", "group__sub__app.db"},
		{"", "default.db"},
	}
	for _, tt := range tests {
		if got := PathFor("/c", tt.project); got != filepath.Join("/c", tt.want) {
			t.Errorf("PathFor(%q) = %q, want %q", tt.project, got, tt.want)
		}
	}
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	if _, ok := s.Get(ctx, 7); ok {
		t.Fatal("Get() on empty store reported a hit")
	}

	want := detail(7, models.StatusFailed, created)
	if err := s.Put(ctx, want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok := s.Get(ctx, 7)
	if !ok {
		t.Fatal("Get() missed after Put()")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}
}

func TestPutRefusesNonTerminal(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, st := range []models.Status{models.StatusRunning, models.StatusPending, models.StatusManual, models.StatusCreated} {
		err := s.Put(ctx, detail(1, st, time.Now()))
		if !errors.Is(err, ErrNotTerminal) {
			t.Errorf("Put(%s) error = %v, want ErrNotTerminal", st, err)
		}
	}
	if _, ok := s.Get(ctx, 1); ok {
		t.Error("non-terminal pipeline was stored")
	}
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	if err := s.Put(ctx, detail(42, models.StatusFailed, created)); err != nil {
		t.Fatalf("Put(failed) error = %v", err)
	}
	if err := s.Put(ctx, detail(42, models.StatusSuccess, created)); err != nil {
		t.Fatalf("Put(success) error = %v", err)
	}

	got, ok := s.Get(ctx, 42)
	if !ok {
		t.Fatal("Get(42) missed")
	}
	if got.Pipeline.Status != models.StatusSuccess {
		t.Errorf("Get(42).Status = %s, want success", got.Pipeline.Status)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st.Pipelines != 1 {
		t.Errorf("Stats().Pipelines = %d, want 1", st.Pipelines)
	}
}

func TestGetCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rows := []struct {
		id   int
		data string
	}{
		{1, `{not json`},
		{2, `{"pipeline":{"id":2,"status":"running"},"jobs":[]}`},
		{3, `{"pipeline":{"id":99,"status":"success"},"jobs":[]}`},
	}
	for _, r := range rows {
		if _, err := s.db.Exec(`INSERT INTO pipelines (pipeline_id, created_at, data) VALUES (?, ?, ?)`,
			r.id, formatStoredTime(time.Now()), r.data); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	for _, r := range rows {
		if got, ok := s.Get(ctx, r.id); ok || got != nil {
			t.Errorf("Get(%d) = %v, %v; want miss", r.id, got, ok)
		}
	}
}

func TestMergeRequestLinks(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []int{10, 30, 20} {
		if err := s.LinkMergeRequest(ctx, 5, id, base.Add(time.Duration(id)*time.Minute)); err != nil {
			t.Fatalf("LinkMergeRequest(%d) error = %v", i, err)
		}
	}
	// relinking is idempotent
	if err := s.LinkMergeRequest(ctx, 5, 10, base.Add(10*time.Minute)); err != nil {
		t.Fatalf("relink error = %v", err)
	}

	ids, err := s.MergeRequestPipelineIDs(ctx, 5)
	if err != nil {
		t.Fatalf("MergeRequestPipelineIDs() error = %v", err)
	}
	if diff := cmp.Diff([]int{30, 20, 10}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	old := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 6, 1, 0, 0, 0, 500, time.UTC)

	for _, d := range []*models.PipelineDetail{
		detail(1, models.StatusSuccess, old),
		detail(2, models.StatusFailed, old.Add(time.Hour)),
		detail(3, models.StatusCanceled, recent),
	} {
		if err := s.Put(ctx, d); err != nil {
			t.Fatalf("Put(%d) error = %v", d.Pipeline.ID, err)
		}
	}

	n, err := s.Prune(ctx, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Prune() removed %d, want 2", n)
	}
	if _, ok := s.Get(ctx, 3); !ok {
		t.Error("recent pipeline was pruned")
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st.Pipelines != 1 || !st.OldestCreated.Equal(recent) || !st.NewestCreated.Equal(recent) {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.Put(ctx, detail(9, models.StatusSuccess, time.Now().UTC())); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	var wg sync.WaitGroup
	misses := make(chan int, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.Get(ctx, 9); !ok {
				misses <- 1
			}
		}()
	}
	wg.Wait()
	close(misses)
	if len(misses) > 0 {
		t.Errorf("%d concurrent reads missed", len(misses))
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "p.db")

	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Put(ctx, detail(4, models.StatusSkipped, time.Now().UTC())); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	_ = s.Close()

	s, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	if _, ok := s.Get(ctx, 4); !ok {
		t.Error("entry lost after reopen")
	}
}
