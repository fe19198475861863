package store

import (
	"io"
	"os"

	"github.com/san-kum/msgviz/internal/sim"
)

type ExportData struct {
	RunInfo
	Frames  int                `json:"frames"`
	Events  uint64             `json:"events"`
	Samples []sim.Sample       `json:"samples"`
	Metrics map[string]float64 `json:"metrics"`
}

func newExport(info RunInfo, result *sim.Result) ExportData {
	return ExportData{
		RunInfo: info,
		Frames:  result.Frames,
		Events:  result.Events,
		Samples: result.Samples,
		Metrics: result.Metrics,
	}
}

func ExportJSON(path string, info RunInfo, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, info, result)
}

func WriteJSON(w io.Writer, info RunInfo, result *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExport(info, result))
}
