package history

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codeshape/internal/engine/corpus"
)

func TestStore_OpenInitializesSchemaAndSaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	first := Record{
		ProjectKey: "flask",
		Label:      "flask_2.0.0",
		RunID:      "run-1",
		Timestamp:  base,
		Totals:     corpus.Totals{TotalFiles: 20, TotalFunctions: 100, TotalClasses: 10, TotalImports: 60, TotalLines: 4000, AvgFunctionsPerFile: 5},
	}
	replaced := first
	replaced.RunID = "run-2"
	replaced.Totals.TotalFunctions = 110
	replaced.FailureCount = 1
	second := Record{
		ProjectKey: "flask",
		Label:      "flask_2.2.0",
		Timestamp:  base.Add(time.Hour),
		Totals:     corpus.Totals{TotalFiles: 22, TotalFunctions: 150, TotalClasses: 12, AvgClassesPerFile: 0.55},
	}

	for _, rec := range []Record{first, replaced, second} {
		if err := store.SaveSummary(ctx, rec); err != nil {
			t.Fatalf("save %s: %v", rec.Label, err)
		}
	}

	got, err := store.LoadSummaries(ctx, "flask")
	if err != nil {
		t.Fatalf("load summaries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries after upsert, got %d", len(got))
	}
	if got[0].Label != "flask_2.0.0" || got[0].RunID != "run-2" {
		t.Fatalf("expected replaced first row, got %+v", got[0])
	}
	if got[0].Totals.TotalFunctions != 110 || got[0].FailureCount != 1 || got[0].Totals.TotalLines != 4000 {
		t.Fatalf("expected upserted totals, got %+v", got[0])
	}
	if got[1].Totals.AvgClassesPerFile != 0.55 {
		t.Fatalf("expected averages to roundtrip, got %+v", got[1].Totals)
	}
	if !got[1].Timestamp.Equal(base.Add(time.Hour)) {
		t.Fatalf("unexpected timestamp %v", got[1].Timestamp)
	}
	if got[1].SchemaVersion != SchemaVersion {
		t.Fatalf("expected schema version %d, got %d", SchemaVersion, got[1].SchemaVersion)
	}
}

func TestStore_SaveRejectsEmptyLabel(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.SaveSummary(context.Background(), Record{Label: "  "}); err == nil {
		t.Fatal("expected error for empty label")
	}
	if err := store.SaveSummary(context.Background(), Record{Label: "x_1", SchemaVersion: 9}); err == nil {
		t.Fatal("expected error for unsupported schema version")
	}
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir())
	if err == nil {
		t.Fatal("expected open error for directory path")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_OpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	if err := os.WriteFile(path, []byte("this is not sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if err == nil {
		t.Fatal("expected sqlite open error")
	}
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "not a database") && !strings.Contains(lower, "schema") {
		t.Fatalf("expected schema/open error, got: %v", err)
	}
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	_, err = store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1)
	if err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	err = EnsureSchema(db)
	if err == nil {
		t.Fatal("expected drift error")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIsCorruptError(t *testing.T) {
	if !IsCorruptError(errors.New("database disk image is malformed")) {
		t.Fatal("expected malformed sqlite message to be treated as corrupt")
	}
	if IsCorruptError(nil) {
		t.Fatal("nil is not corrupt")
	}
}

func TestStore_ProjectIsolation(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.SaveSummary(ctx, Record{ProjectKey: "a", Label: "p_1", Totals: corpus.Totals{TotalFiles: 1}}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveSummary(ctx, Record{ProjectKey: "b", Label: "p_1", Totals: corpus.Totals{TotalFiles: 2}}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveSummary(ctx, Record{Label: "p_1", Totals: corpus.Totals{TotalFiles: 3}}); err != nil {
		t.Fatal(err)
	}

	for key, want := range map[string]int{"a": 1, "b": 2, "": 3, "default": 3} {
		rows, err := store.LoadSummaries(ctx, key)
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 1 || rows[0].Totals.TotalFiles != want {
			t.Fatalf("project %q: unexpected rows %+v", key, rows)
		}
	}
}

func TestAdapter_RoundTripsSnapshots(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	adapter := NewAdapter(store)
	defer adapter.Close()

	summary := &corpus.CorpusSummary{
		Label:          "proj_1.0.0",
		FilesAnalyzed:  2,
		TotalFunctions: 7,
		TotalClasses:   1,
		Failures:       []corpus.FileFailure{{Path: "bad.py", Error: "boom"}},
	}
	if err := adapter.SaveSnapshot(ctx, "proj", "run-x", summary); err != nil {
		t.Fatalf("save: %v", err)
	}

	snaps, err := adapter.LoadSnapshots(ctx, "proj")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snaps) != 1 || snaps[0].Label != "proj_1.0.0" || snaps[0].Totals.TotalFunctions != 7 {
		t.Fatalf("unexpected snapshots %+v", snaps)
	}

	records, err := store.LoadSummaries(ctx, "proj")
	if err != nil {
		t.Fatal(err)
	}
	if records[0].FailureCount != 1 || records[0].RunID != "run-x" {
		t.Fatalf("unexpected record %+v", records[0])
	}
}
