package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/neurospin/internal/relax"
	"github.com/san-kum/neurospin/internal/scanner"
	"github.com/san-kum/neurospin/internal/spin"
	"github.com/san-kum/neurospin/internal/storage"
	"github.com/san-kum/neurospin/internal/tissue"
)

func TestCurvesToSVG(t *testing.T) {
	curves := relax.ForRegion(tissue.Brain)
	doc := CurvesToSVG(curves, 600, 300, 1200)

	if !strings.HasPrefix(doc, "<?xml") || !strings.HasSuffix(doc, "</svg>") {
		t.Fatal("not an svg document")
	}
	// two paths per tissue
	if got := strings.Count(doc, "<path"); got != 2*len(curves) {
		t.Errorf("got %d paths, want %d", got, 2*len(curves))
	}
	for _, c := range curves {
		if !strings.Contains(doc, c.Tissue.Color) {
			t.Errorf("missing colour for %s", c.Tissue.ID)
		}
	}
	if !strings.Contains(doc, `stroke="#ffffff"`) {
		t.Error("missing cursor")
	}
	if strings.Contains(CurvesToSVG(curves, 600, 300, 0), `stroke="#ffffff"`) {
		t.Error("cursor drawn at zero")
	}
}

func TestCurvesToSVGEmpty(t *testing.T) {
	if CurvesToSVG(nil, 100, 100, 0) != "" {
		t.Error("expected empty output")
	}
	if CurvesToSVG(relax.ForRegion(tissue.Brain), 0, 100, 0) != "" {
		t.Error("expected empty output for zero width")
	}
}

func TestSpinsToSVG(t *testing.T) {
	f := spin.NewField(spin.DefaultConfig())
	st := scanner.DefaultState()
	st.Phase = scanner.PhaseExcitation
	doc := SpinsToSVG(f.Frame(st, 0), 400, 400)

	if got := strings.Count(doc, "<line"); got != 25 {
		t.Errorf("got %d arrows", got)
	}
	if !strings.Contains(doc, tippedColor) {
		t.Error("excited spins should use the tipped colour")
	}

	st.Phase = scanner.PhaseAlignment
	if strings.Contains(SpinsToSVG(f.Frame(st, 0), 400, 400), tippedColor) {
		t.Error("aligned spins drawn as tipped")
	}
	if SpinsToSVG(nil, 10, 10) != "" {
		t.Error("expected empty output")
	}
}

func TestWriteJSON(t *testing.T) {
	meta := storage.RunMetadata{ID: "brain-t1_1", Region: "brain", Metrics: map[string]float64{"excitations": 10}}
	frames := []storage.Frame{{ElapsedMs: 0, Phase: "excitation"}, {ElapsedMs: 16, Phase: "excitation"}}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, NewRunData(meta, frames)); err != nil {
		t.Fatal(err)
	}
	var got RunData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Steps != 2 || got.Run.ID != meta.ID || got.Metrics["excitations"] != 10 {
		t.Errorf("got %+v", got)
	}
}

func TestExportFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.json")
	if err := ExportJSON(path, NewRunData(storage.RunMetadata{ID: "x"}, nil)); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(filepath.Join(dir, "empty.svg"), ""); err == nil {
		t.Error("expected error for empty document")
	}
}
