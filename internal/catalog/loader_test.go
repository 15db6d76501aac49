package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoaderLoad(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "lunar/catalog.csv"),
		"filename,time_abs(%Y-%m-%dT%H:%M:%S.%f),time_rel(sec),evid\n"+
			"xa.s12.first_evid00001,1970-01-19T00:00:01.000000,1.0,evid00001\n"+
			"xa.s12.renamed_evid00029,1970-01-19T00:00:02.000000,2.0,evid00029\n"+
			"xa.s12.missing_evid00099,1970-01-19T00:00:03.000000,3.0,evid00099\n")
	writeFile(t, filepath.Join(base, "lunar/train/xa.s12.first_evid00001.csv"), lunarWaveform)
	writeFile(t, filepath.Join(base, "lunar/train/xa.s12.actual_evid00029.csv"), lunarWaveform)
	writeFile(t, filepath.Join(base, "lunar/test/S12/a.csv"), lunarWaveform)
	writeFile(t, filepath.Join(base, "lunar/test/S15/b.csv"), lunarWaveform)
	writeFile(t, filepath.Join(base, "lunar/test/S15/broken.csv"), "garbage\n")
	writeFile(t, filepath.Join(base, "lunar/test/S15/notes.txt"), "ignored")
	writeFile(t, filepath.Join(base, "mars/test/m.csv"), martianWaveform)

	loader := NewLoader(base, 2, zap.NewNop().Sugar())
	store, err := loader.Load(context.Background(), []Source{
		{Body: "moon", CatalogFile: "lunar/catalog.csv", TrainDir: "lunar/train", TestDir: "lunar/test"},
		{Body: "mars", TestDir: "mars/test"},
		{Body: "venus", TestDir: "venus/test"},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := store.Len("moon"); got != 4 {
		t.Errorf("expected 4 lunar channels, got %d", got)
	}
	if got := store.Len("mars"); got != 1 {
		t.Errorf("expected 1 martian channel, got %d", got)
	}
	if _, err := store.Entries("venus"); err != nil {
		t.Errorf("configured body without data should still be known: %v", err)
	}

	e, err := store.Lookup("moon", "xa.s12.first_evid00001.json")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if e.Split != Train || e.Arrival == nil || *e.Arrival != 1 {
		t.Errorf("unexpected training entry %+v", e)
	}

	renamed, err := store.Lookup("moon", "xa.s12.actual_evid00029")
	if err != nil {
		t.Fatalf("expected the event-id fallback to find the renamed file: %v", err)
	}
	if renamed.Arrival == nil || *renamed.Arrival != 2 {
		t.Errorf("renamed entry lost its arrival: %+v", renamed)
	}

	test, err := store.Lookup("moon", "b")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if test.Split != Test || test.HasArrival() {
		t.Errorf("unexpected test entry %+v", test)
	}
}

func TestLoaderMissingCatalog(t *testing.T) {
	loader := NewLoader(t.TempDir(), 0, zap.NewNop().Sugar())
	_, err := loader.Load(context.Background(), []Source{{Body: "moon", CatalogFile: "nope.csv"}})
	if err == nil {
		t.Error("expected an error for a missing catalog")
	}
}

func TestLoaderCancelled(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "test/a.csv"), lunarWaveform)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLoader(base, 1, zap.NewNop().Sugar()).Load(ctx, []Source{{Body: "moon", TestDir: "test"}})
	if err == nil {
		t.Error("expected an error from a cancelled context")
	}
}
