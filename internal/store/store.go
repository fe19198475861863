// Package store persists bench runs: one directory per run holding
// metadata.json and a counts.csv time series.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/san-kum/msgviz/internal/entity"
	"github.com/san-kum/msgviz/internal/sim"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrNotFound = errors.New("store: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo describes how a run was configured.
type RunInfo struct {
	Mode     string        `json:"mode"`
	Scenario string        `json:"scenario,omitempty"`
	Source   string        `json:"source"`
	Seed     int64         `json:"seed"`
	Frame    time.Duration `json:"frame"`
	Duration time.Duration `json:"duration"`
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Frames    int                `json:"frames"`
	Events    uint64             `json:"events"`
	Metrics   map[string]float64 `json:"metrics"`
	Errors    []string           `json:"errors,omitempty"`
	RunInfo
}

var countsHeader = func() []string {
	h := []string{"t", "mode", "total"}
	for _, k := range entity.Kinds() {
		h = append(h, string(k))
	}
	return append(h, "alpha", "events", "dropped")
}()

func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	runID := id.String()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Timestamp: time.Now(),
		Frames:    result.Frames,
		Events:    result.Events,
		Metrics:   result.Metrics,
		RunInfo:   info,
	}
	for _, e := range result.Errors {
		meta.Errors = append(meta.Errors, e.Error())
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, "metadata.json"), data, 0644); err != nil {
		return "", err
	}

	if err := writeCounts(filepath.Join(runDir, "counts.csv"), result.Samples); err != nil {
		return "", err
	}
	return runID, nil
}

func writeCounts(path string, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(countsHeader); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			strconv.FormatFloat(smp.T.Seconds(), 'f', 3, 64),
			smp.Mode,
			strconv.Itoa(smp.Total),
		}
		for _, k := range entity.Kinds() {
			row = append(row, strconv.Itoa(smp.ByType[k]))
		}
		row = append(row,
			strconv.FormatFloat(smp.Alpha, 'f', 6, 64),
			strconv.FormatUint(smp.Events, 10),
			strconv.FormatUint(smp.Dropped, 10),
		)
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first.
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
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadCounts reads a run's time series back. Rows that do not parse are
// skipped.
func (s *Store) LoadCounts(runID string) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "counts.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	kinds := entity.Kinds()
	samples := make([]sim.Sample, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(countsHeader) {
			continue
		}
		smp, err := parseRow(rec, kinds)
		if err != nil {
			continue
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

func parseRow(rec []string, kinds []entity.Kind) (sim.Sample, error) {
	t, err := strconv.ParseFloat(rec[0], 64)
	if err != nil {
		return sim.Sample{}, err
	}
	total, err := strconv.Atoi(rec[2])
	if err != nil {
		return sim.Sample{}, err
	}
	smp := sim.Sample{
		T:      time.Duration(t * float64(time.Second)),
		Mode:   rec[1],
		Total:  total,
		ByType: make(map[entity.Kind]int, len(kinds)),
	}
	for i, k := range kinds {
		n, err := strconv.Atoi(rec[3+i])
		if err != nil {
			return sim.Sample{}, err
		}
		if n > 0 {
			smp.ByType[k] = n
		}
	}
	rest := rec[3+len(kinds):]
	if smp.Alpha, err = strconv.ParseFloat(rest[0], 64); err != nil {
		return sim.Sample{}, err
	}
	if smp.Events, err = strconv.ParseUint(rest[1], 10, 64); err != nil {
		return sim.Sample{}, err
	}
	if smp.Dropped, err = strconv.ParseUint(rest[2], 10, 64); err != nil {
		return sim.Sample{}, err
	}
	return smp, nil
}
