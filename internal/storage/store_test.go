package storage

import (
	"testing"

	"github.com/astrokit/galmag/internal/sampler"
)

func testResults() []sampler.LOSResult {
	return []sampler.LOSResult{
		{Parallel: 1.25, Perp2: 10.5},
		{Parallel: -0.75, Perp2: 8.25},
		{Parallel: 2.5, Perp2: 12.125},
	}
}

func TestSaveAndLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	meta := RunMetadata{
		Model:        "base",
		Seed:         123,
		Samples:      3,
		Step:         0.1,
		Longitude:    90,
		Latitude:     -10,
		MeanParallel: 1.0,
		StdParallel:  0.5,
	}
	runID, err := st.Save(meta, testResults())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Fatal("empty run id")
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Model != "base" || loaded.Samples != 3 || loaded.Seed != 123 {
		t.Errorf("unexpected metadata: %+v", loaded)
	}
	if loaded.ID != runID {
		t.Errorf("expected id %s, got %s", runID, loaded.ID)
	}
}

func TestList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}

	if _, err := st.Save(RunMetadata{Model: "base"}, testResults()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestListMissingDir(t *testing.T) {
	st := New(t.TempDir() + "/does-not-exist")
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestLoadSamples(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	want := testResults()
	runID, err := st.Save(RunMetadata{Model: "cre10"}, want)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Parallel != want[i].Parallel || got[i].Perp2 != want[i].Perp2 {
			t.Errorf("sample %d mismatch: %+v vs %+v", i, got[i], want[i])
		}
	}
}
