package importer_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/vmunix/snapguess/internal/catalog"
	"github.com/vmunix/snapguess/internal/importer"
	"github.com/vmunix/snapguess/internal/importjob"
	"github.com/vmunix/snapguess/internal/migrations"
	"github.com/vmunix/snapguess/pkg/rawg"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

// fakeProvider serves a fixed set of pages deterministically.
type fakeProvider struct {
	mu    sync.Mutex
	pages [][]rawg.Game
	total int

	// gates, when set for a page, block ListGames for that page until the
	// channel is closed. Lets tests pause a job at a known boundary.
	gates map[int]chan struct{}

	listCalls []int
}

func newFakeProvider(pages [][]rawg.Game) *fakeProvider {
	total := 0
	for _, p := range pages {
		total += len(p)
	}
	return &fakeProvider{pages: pages, total: total, gates: map[int]chan struct{}{}}
}

func (f *fakeProvider) ListGames(ctx context.Context, page, _, _ int) (*rawg.Page, error) {
	f.mu.Lock()
	gate := f.gates[page]
	f.listCalls = append(f.listCalls, page)
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if page < 1 || page > len(f.pages) {
		return &rawg.Page{Count: f.total}, nil
	}
	return &rawg.Page{
		Count:   f.total,
		Results: f.pages[page-1],
		HasNext: page < len(f.pages),
	}, nil
}

func (f *fakeProvider) GetGame(_ context.Context, id int64) (*rawg.GameDetail, error) {
	return &rawg.GameDetail{ID: id, Developer: "Dev Studio", Publisher: "Pub Corp"}, nil
}

func (f *fakeProvider) ListScreenshots(_ context.Context, id int64) ([]rawg.Screenshot, error) {
	var shots []rawg.Screenshot
	for i := 0; i < 6; i++ {
		shots = append(shots, rawg.Screenshot{
			ID:    id*100 + int64(i),
			Image: fmt.Sprintf("https://media.example/shots/%d/%d.jpg", id, i),
		})
	}
	return shots, nil
}

func (f *fakeProvider) calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.listCalls...)
}

// fakeFetcher records downloads without touching the network or disk.
type fakeFetcher struct {
	mu        sync.Mutex
	failURLs  map[string]bool
	downloads []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{failURLs: map[string]bool{}}
}

func (f *fakeFetcher) Download(_ context.Context, sourceURL, _ string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failURLs[sourceURL] {
		return false
	}
	f.downloads = append(f.downloads, sourceURL)
	return true
}

// recordingReporter captures every snapshot the orchestrator publishes.
type recordingReporter struct {
	mu        sync.Mutex
	snapshots []importer.Snapshot
}

func (r *recordingReporter) Publish(_ context.Context, _ string, s importer.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *recordingReporter) all() []importer.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]importer.Snapshot(nil), r.snapshots...)
}

// candidate builds a provider listing entry with sensible defaults.
func candidate(id int64, slug, name string, score, shotCount int) rawg.Game {
	return rawg.Game{
		ID:              id,
		Slug:            slug,
		Name:            name,
		Released:        "2010-01-01",
		Metacritic:      score,
		ScreenshotCount: shotCount,
		Genres:          []string{"Action"},
		Platforms:       []string{"PC"},
	}
}

type testEnv struct {
	db       *sql.DB
	jobs     *importjob.Store
	catalog  *catalog.Store
	provider *fakeProvider
	fetcher  *fakeFetcher
	reporter *recordingReporter
	orch     *importer.Orchestrator
}

func setupEnv(t *testing.T, pages [][]rawg.Game) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	env := &testEnv{
		db:       db,
		jobs:     importjob.NewStore(db),
		catalog:  catalog.NewStore(db),
		provider: newFakeProvider(pages),
		fetcher:  newFakeFetcher(),
		reporter: &recordingReporter{},
	}
	env.orch = importer.New(env.jobs, env.catalog, env.provider, env.fetcher,
		env.reporter, t.TempDir(), testLogger())
	t.Cleanup(env.orch.Close)
	return env
}

func defaultConfig() importjob.Config {
	return importjob.Config{BatchSize: 2, MinQuality: 70, ScreenshotsPerGame: 3}
}
