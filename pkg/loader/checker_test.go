package loader

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/slp-atlas/pkg/metrics"
	"github.com/hazyhaar/slp-atlas/pkg/store"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCheckAll_Mixed(t *testing.T) {
	srv200 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv200.Close()

	srv404 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv404.Close()

	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "atlas.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := db.SyncSources(map[string]string{
		SourceRecords:      srv200.URL + "/data.csv",
		SourceDistricts:    srv404.URL + "/gadm41_LKA_1.json",
		SourceSubDistricts: writeFile(t, dir, "gadm41_LKA_2.json", subDistrictsJSON),
	}); err != nil {
		t.Fatalf("SyncSources: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	checker := NewChecker(db, logger, time.Hour)

	if failed := checker.CheckAll(context.Background()); failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}

	sources, err := db.ListSources()
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	status := make(map[string]int)
	for _, src := range sources {
		if src.LastStatus != nil {
			status[src.Name] = *src.LastStatus
		}
	}
	if status[SourceRecords] != 200 {
		t.Errorf("records: expected 200, got %d", status[SourceRecords])
	}
	if status[SourceDistricts] != 404 {
		t.Errorf("districts: expected 404, got %d", status[SourceDistricts])
	}
	if status[SourceSubDistricts] != 200 {
		t.Errorf("local sub-districts: expected 200, got %d", status[SourceSubDistricts])
	}

	if got := testutil.ToFloat64(metrics.SourceUp.WithLabelValues(SourceDistricts)); got != 0 {
		t.Errorf("districts up = %v, want 0", got)
	}
	if got := testutil.ToFloat64(metrics.SourceUp.WithLabelValues(SourceRecords)); got != 1 {
		t.Errorf("records up = %v, want 1", got)
	}
}

func TestCheckAll_MissingFile(t *testing.T) {
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "atlas.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := db.SyncSources(map[string]string{SourceRecords: filepath.Join(dir, "absent.csv")}); err != nil {
		t.Fatalf("SyncSources: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	NewChecker(db, logger, time.Hour).CheckAll(context.Background())

	sources, _ := db.ListSources()
	if len(sources) != 1 || sources[0].LastStatus == nil || *sources[0].LastStatus != 0 {
		t.Fatalf("sources = %+v", sources)
	}
	if sources[0].LastError == nil {
		t.Error("expected an error message for a missing file")
	}
}
