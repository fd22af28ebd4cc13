package reader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/xtxerr/seriesmux/internal/archive/fixedstep"
	"github.com/xtxerr/seriesmux/internal/interval"
)

// GzippedFixedStep reads a gzip-compressed fixed-step archive. The
// stream is decompressed transparently and the archive header is parsed
// from it directly. Compressed archives are cold storage the flush
// pipeline never writes to, so no cache fusion is applied.
type GzippedFixedStep struct {
	path string
}

// NewGzippedFixedStep creates a reader for the compressed archive at
// path.
func NewGzippedFixedStep(path string) *GzippedFixedStep {
	return &GzippedFixedStep{path: path}
}

// Intervals derives availability from the decompressed header's
// retention and the file's modification time.
func (r *GzippedFixedStep) Intervals() (interval.Set, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return interval.Set{}, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return interval.Set{}, fmt.Errorf("decompress %s: %w", r.path, err)
	}
	defer gz.Close()

	info, err := fixedstep.ReadHeader(gz)
	if err != nil {
		return interval.Set{}, fmt.Errorf("%s: %w", r.path, err)
	}

	st, err := f.Stat()
	if err != nil {
		return interval.Set{}, fmt.Errorf("stat %s: %w", r.path, err)
	}

	return retentionInterval(time.Now().Unix(), info.MaxRetention, st.ModTime().Unix()), nil
}

// Fetch decompresses the archive into memory and reads the range from
// it.
func (r *GzippedFixedStep) Fetch(ctx context.Context, from, until int64) *Pending {
	f, err := os.Open(r.path)
	if err != nil {
		return Done(nil, fmt.Errorf("open %s: %w", r.path, err))
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return Done(nil, fmt.Errorf("decompress %s: %w", r.path, err))
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		return Done(nil, fmt.Errorf("decompress %s: %w", r.path, err))
	}

	res, err := fixedstep.FetchAt(bytes.NewReader(data), from, until, time.Now().Unix())
	if err != nil {
		return Done(nil, fmt.Errorf("gzipped fetch %s: %w", r.path, err))
	}
	return Done(res, nil)
}
