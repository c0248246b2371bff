package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	particles "github.com/aiira-co/three-particles"
)

// FrameRecord is one sampled frame in frames.csv.
type FrameRecord struct {
	Frame      uint64  `csv:"frame"`
	SimTime    float64 `csv:"sim_time"`
	Alive      uint32  `csv:"alive_est"`
	FrameMS    float64 `csv:"frame_ms"`
	EncodeMS   float64 `csv:"encode_ms"`
	SortPasses int     `csv:"sort_passes"`
	Rebuilds   uint64  `csv:"rebuilds"`
}

// EventRecord marks a discrete moment in events.csv: state changes,
// bursts, provider edits.
type EventRecord struct {
	SimTime float64 `csv:"sim_time"`
	Kind    string  `csv:"kind"`
	Detail  string  `csv:"detail"`
}

// Output writes run telemetry as CSV plus a config snapshot. Each run
// gets its own directory under root, named by a fresh run ID.
type Output struct {
	dir   string
	runID string

	framesFile *os.File
	eventsFile *os.File

	framesHeaderWritten bool
	eventsHeaderWritten bool
}

// NewOutput creates the run directory and opens the CSV files.
// Returns nil if root is empty (output disabled); a nil *Output is
// safe to use, every method no-ops.
func NewOutput(root string) (*Output, error) {
	if root == "" {
		return nil, nil
	}

	runID := uuid.NewString()[:8]
	dir := filepath.Join(root, "run-"+runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating run directory: %w", err)
	}

	out := &Output{dir: dir, runID: runID}

	f, err := os.Create(filepath.Join(dir, "frames.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating frames.csv: %w", err)
	}
	out.framesFile = f

	f, err = os.Create(filepath.Join(dir, "events.csv"))
	if err != nil {
		out.framesFile.Close()
		return nil, fmt.Errorf("creating events.csv: %w", err)
	}
	out.eventsFile = f

	return out, nil
}

// WriteConfig saves the effective configuration as YAML next to the CSVs.
func (out *Output) WriteConfig(cfg *particles.Config) error {
	if out == nil || cfg == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(out.dir, "config.yaml"))
}

// WriteFrame appends a frame record to frames.csv.
func (out *Output) WriteFrame(rec FrameRecord) error {
	if out == nil {
		return nil
	}

	records := []FrameRecord{rec}

	if !out.framesHeaderWritten {
		if err := gocsv.Marshal(records, out.framesFile); err != nil {
			return fmt.Errorf("writing frame record: %w", err)
		}
		out.framesHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, out.framesFile); err != nil {
			return fmt.Errorf("writing frame record: %w", err)
		}
	}

	return nil
}

// WriteEvent appends an event record to events.csv.
func (out *Output) WriteEvent(rec EventRecord) error {
	if out == nil {
		return nil
	}

	records := []EventRecord{rec}

	if !out.eventsHeaderWritten {
		if err := gocsv.Marshal(records, out.eventsFile); err != nil {
			return fmt.Errorf("writing event record: %w", err)
		}
		out.eventsHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, out.eventsFile); err != nil {
			return fmt.Errorf("writing event record: %w", err)
		}
	}

	return nil
}

// WriteSummary saves the end-of-run summary as JSON.
func (out *Output) WriteSummary(sum RunSummary) error {
	if out == nil {
		return nil
	}

	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(out.dir, "summary.json"), data, 0644); err != nil {
		return fmt.Errorf("writing summary.json: %w", err)
	}

	return nil
}

// RunID returns the short identifier for this run.
func (out *Output) RunID() string {
	if out == nil {
		return ""
	}
	return out.runID
}

// Dir returns the run directory path.
func (out *Output) Dir() string {
	if out == nil {
		return ""
	}
	return out.dir
}

// Close flushes and closes the CSV files.
func (out *Output) Close() error {
	if out == nil {
		return nil
	}

	var firstErr error

	if out.framesFile != nil {
		if err := out.framesFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if out.eventsFile != nil {
		if err := out.eventsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
