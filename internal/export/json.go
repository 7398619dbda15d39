package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/san-kum/neurospin/internal/storage"
)

type RunData struct {
	Run     storage.RunMetadata `json:"run"`
	Steps   int                 `json:"steps"`
	Frames  []storage.Frame     `json:"frames"`
	Metrics map[string]float64  `json:"metrics"`
}

func NewRunData(meta storage.RunMetadata, frames []storage.Frame) RunData {
	if frames == nil {
		frames = []storage.Frame{}
	}
	return RunData{Run: meta, Steps: len(frames), Frames: frames, Metrics: meta.Metrics}
}

func WriteJSON(w io.Writer, data RunData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode run %s: %w", data.Run.ID, err)
	}
	return nil
}

// ExportJSON writes data to path, or to stdout when path is "-".
func ExportJSON(path string, data RunData) error {
	if path == "-" {
		return WriteJSON(os.Stdout, data)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}

// WriteFile writes an SVG document.
func WriteFile(path, doc string) error {
	if doc == "" {
		return fmt.Errorf("export %s: nothing to draw", path)
	}
	return os.WriteFile(path, []byte(doc), 0644)
}
