// Package storage persists local state under a data directory: scan runs,
// the license activation record and the device identifier.
package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	runsDir      = "runs"
	licenseFile  = "license.json"
	deviceIDFile = "device_id"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Dir() string { return s.baseDir }

func (s *Store) Init() error {
	return os.MkdirAll(filepath.Join(s.baseDir, runsDir), 0755)
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Region        string             `json:"region"`
	Sequence      string             `json:"sequence"`
	FieldStrength float64            `json:"field_strength"`
	Timestamp     time.Time          `json:"timestamp"`
	DurationMs    float64            `json:"duration_ms"`
	Completed     bool               `json:"completed"`
	Metrics       map[string]float64 `json:"metrics"`
}

// Frame is one recorded scan tick.
type Frame struct {
	ElapsedMs         float64
	Progress          float64
	Phase             string
	SinceExcitationMs float64
	LinesFilled       int
	Mxy               float64
	Mz                float64
}

var frameHeader = []string{"elapsed_ms", "progress", "phase", "since_excitation_ms", "lines_filled", "mxy", "mz"}

// SaveRun writes metadata.json and frames.csv for a new run and returns its
// id. ID and Timestamp are filled in when empty.
func (s *Store) SaveRun(meta RunMetadata, frames []Frame) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s-%s_%d_%s", meta.Region, meta.Sequence, meta.Timestamp.Unix(), uuid.NewString()[:8])
	}
	runDir := filepath.Join(s.baseDir, runsDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "frames.csv"))
	if err != nil {
		return "", fmt.Errorf("create frames: %w", err)
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(frameHeader); err != nil {
		return "", err
	}
	for _, f := range frames {
		row := []string{
			formatFloat(f.ElapsedMs),
			formatFloat(f.Progress),
			f.Phase,
			formatFloat(f.SinceExcitationMs),
			strconv.Itoa(f.LinesFilled),
			formatFloat(f.Mxy),
			formatFloat(f.Mz),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write frames: %w", err)
	}

	return meta.ID, nil
}

// List returns all runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, runsDir))
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	var meta RunMetadata
	if err := readJSON(filepath.Join(s.baseDir, runsDir, runID, "metadata.json"), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runsDir, runID, "frames.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(records) < 2 {
		return []Frame{}, nil
	}

	frames := make([]Frame, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < len(frameHeader) {
			continue
		}
		lines, err := strconv.Atoi(rec[4])
		if err != nil {
			continue
		}
		f := Frame{Phase: rec[2], LinesFilled: lines}
		ok := true
		for i, dst := range []*float64{&f.ElapsedMs, &f.Progress, nil, &f.SinceExcitationMs, nil, &f.Mxy, &f.Mz} {
			if dst == nil {
				continue
			}
			v, err := strconv.ParseFloat(rec[i], 64)
			if err != nil {
				ok = false
				break
			}
			*dst = v
		}
		if ok {
			frames = append(frames, f)
		}
	}
	return frames, nil
}

// LicenseRecord binds an activated key to this device.
type LicenseRecord struct {
	Key            string    `json:"key"`
	Owner          string    `json:"owner"`
	DeviceID       string    `json:"device_id"`
	ActivationDate time.Time `json:"activation_date"`
}

func (s *Store) SaveLicense(rec LicenseRecord) error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	return writeJSON(filepath.Join(s.baseDir, licenseFile), rec)
}

func (s *Store) LoadLicense() (*LicenseRecord, error) {
	var rec LicenseRecord
	if err := readJSON(filepath.Join(s.baseDir, licenseFile), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) ClearLicense() error {
	err := os.Remove(filepath.Join(s.baseDir, licenseFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// DeviceID returns the stable identifier of this installation, generating
// and persisting one on first use. An unreadable id is reported as
// ErrCorrupt and left in place, since replacing it would orphan the
// license bound to it.
func (s *Store) DeviceID() (string, error) {
	path := filepath.Join(s.baseDir, deviceIDFile)
	data, err := os.ReadFile(path)
	if err == nil {
		id, perr := uuid.ParseBytes(bytes.TrimSpace(data))
		if perr != nil {
			return "", fmt.Errorf("%w: device id %s: %v", ErrCorrupt, path, perr)
		}
		return id.String(), nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("read device id: %w", err)
	}

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return "", err
	}
	id := uuid.NewString()
	if err := os.WriteFile(path, []byte(id+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write device id: %w", err)
	}
	return id, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", filepath.Base(path), ErrNotFound)
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w: %v", filepath.Base(path), ErrCorrupt, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
