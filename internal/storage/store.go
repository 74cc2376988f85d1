// Package storage persists Monte-Carlo sampling runs under a data
// directory: one subdirectory per run with JSON metadata and a CSV of
// the per-draw line-of-sight integrals.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/astrokit/galmag/internal/sampler"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string    `json:"id"`
	Model        string    `json:"model"`
	Timestamp    time.Time `json:"timestamp"`
	Seed         int64     `json:"seed"`
	Samples      int       `json:"samples"`
	Step         float64   `json:"step"`
	Longitude    float64   `json:"longitude"`
	Latitude     float64   `json:"latitude"`
	MeanParallel float64   `json:"mean_parallel"`
	StdParallel  float64   `json:"std_parallel"`
	MeanPerp2    float64   `json:"mean_perp2"`
	StdPerp2     float64   `json:"std_perp2"`
}

func (s *Store) Save(meta RunMetadata, results []sampler.LOSResult) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Model, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	meta.ID = runID
	meta.Timestamp = time.Now()

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"sample", "b_parallel", "b_perp2"}); err != nil {
		return "", err
	}
	for i, res := range results {
		row := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(res.Parallel, 'e', 6, 64),
			strconv.FormatFloat(res.Perp2, 'e', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSamples reads back the per-draw LOS integrals of a run.
func (s *Store) LoadSamples(runID string) ([]sampler.LOSResult, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	results := make([]sampler.LOSResult, 0, len(records))
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 3 {
			continue
		}
		par, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}
		perp2, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			continue
		}
		results = append(results, sampler.LOSResult{Parallel: par, Perp2: perp2})
	}
	return results, nil
}
