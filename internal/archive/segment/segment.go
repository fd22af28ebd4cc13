// Package segment implements the segmented archive format: a directory
// per metric node holding a node.yaml descriptor and one Parquet file per
// flushed segment, named <startMs>-<endMs>.parquet. Each segment carries
// its own time bounds, so availability is the union of segment ranges
// rather than a retention window.
package segment

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

const metaFile = "node.yaml"

// Meta is the per-node descriptor stored in node.yaml.
type Meta struct {
	// StepSeconds is the node's sample resolution.
	StepSeconds int64 `yaml:"step_seconds"`

	// Aggregation names the consolidation function for nodes that store
	// consolidated values. Empty for raw nodes.
	Aggregation string `yaml:"aggregation,omitempty"`
}

// LoadMeta reads a node directory's descriptor.
func LoadMeta(dir string) (*Meta, error) {
	data, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return nil, fmt.Errorf("read node meta: %w", err)
	}

	var m Meta
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse node meta: %w", err)
	}
	if m.StepSeconds <= 0 {
		return nil, fmt.Errorf("node meta: step_seconds %d <= 0", m.StepSeconds)
	}

	return &m, nil
}

// SaveMeta writes a node directory's descriptor, creating the directory
// if needed.
func SaveMeta(dir string, m *Meta) error {
	if m.StepSeconds <= 0 {
		return fmt.Errorf("node meta: step_seconds %d <= 0", m.StepSeconds)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create node dir: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode node meta: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, metaFile), data, 0o644)
}

// IsNodeDir reports whether dir looks like a segmented archive node.
func IsNodeDir(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, metaFile))
	return err == nil
}

// Segment describes one stored segment file.
type Segment struct {
	Path    string
	StartMs int64
	EndMs   int64
}

// List returns the node's segments sorted by start time. Files that do
// not match the segment naming scheme are ignored.
func List(dir string) ([]Segment, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read node dir: %w", err)
	}

	var segments []Segment
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".parquet") {
			continue
		}
		startMs, endMs, ok := parseSegmentName(e.Name())
		if !ok {
			continue
		}
		segments = append(segments, Segment{
			Path:    filepath.Join(dir, e.Name()),
			StartMs: startMs,
			EndMs:   endMs,
		})
	}

	sort.Slice(segments, func(i, j int) bool { return segments[i].StartMs < segments[j].StartMs })
	return segments, nil
}

func parseSegmentName(name string) (startMs, endMs int64, ok bool) {
	base := strings.TrimSuffix(name, ".parquet")
	parts := strings.SplitN(base, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	startMs, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	endMs, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil || endMs <= startMs {
		return 0, 0, false
	}
	return startMs, endMs, true
}

// PointRow is a datapoint in Parquet format.
type PointRow struct {
	TimestampMs int64   `parquet:"timestamp_ms"`
	Value       float64 `parquet:"value"`
}

// WriteSegment writes points as a new segment file, deriving the segment
// bounds from the data. Points need not be sorted. This is the flush
// path's entry point and the test fixture builder.
func WriteSegment(dir string, points []PointRow) (string, error) {
	if len(points) == 0 {
		return "", fmt.Errorf("write segment: no points")
	}

	sorted := make([]PointRow, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TimestampMs < sorted[j].TimestampMs })

	startMs := sorted[0].TimestampMs
	endMs := sorted[len(sorted)-1].TimestampMs + 1

	path := filepath.Join(dir, fmt.Sprintf("%d-%d.parquet", startMs, endMs))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create segment: %w", err)
	}

	w := parquet.NewGenericWriter[PointRow](f, parquet.Compression(&parquet.Zstd))
	if _, err := w.Write(sorted); err != nil {
		f.Close()
		return "", fmt.Errorf("write rows: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return "", fmt.Errorf("close writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close segment: %w", err)
	}

	return path, nil
}

// ReadSegment reads every point in a segment file.
func ReadSegment(path string) ([]PointRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open segment: %w", err)
	}
	defer f.Close()

	r := parquet.NewGenericReader[PointRow](f)
	defer r.Close()

	rows := make([]PointRow, r.NumRows())
	n, err := r.Read(rows)
	if err != nil && n < len(rows) {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rows[:n], nil
}
