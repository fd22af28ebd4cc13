package fixedstep

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/xtxerr/seriesmux/internal/archive"
	"github.com/xtxerr/seriesmux/internal/series"
)

// Point is a raw datapoint written into an archive.
type Point struct {
	Timestamp int64
	Value     float64
}

// Create writes a new archive file with the given tiers, all slots
// empty. Tiers must be ordered finest first.
func Create(path string, method Method, tiers []archive.TierSpec) error {
	if len(tiers) == 0 {
		return fmt.Errorf("create %s: no tiers", path)
	}
	var prev int64
	for i, t := range tiers {
		if t.StepSeconds <= 0 || t.Rows <= 0 {
			return fmt.Errorf("create %s: tier %d: bad spec %+v", path, i, t)
		}
		if t.StepSeconds <= prev {
			return fmt.Errorf("create %s: tiers must be ordered finest first", path)
		}
		prev = t.StepSeconds
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(encodeHeader(method, tiers)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	var rows int64
	for _, t := range tiers {
		rows += t.Rows
	}
	if err := f.Truncate(headerLen(len(tiers)) + rows*pointSize); err != nil {
		return fmt.Errorf("reserve slots: %w", err)
	}

	return f.Sync()
}

// Update writes datapoints into every tier of the archive. Timestamps
// are bucketed to the tier's step; the last write into a slot wins.
// The flush path consolidates before calling Update, so a point is the
// tier's final value for its bucket.
func Update(path string, points []Point) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := ReadHeader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	entry := make([]byte, pointSize)
	for ti, tier := range info.Tiers {
		base := tierOffset(info, ti)
		for _, p := range points {
			bucket := p.Timestamp - floorMod(p.Timestamp, tier.StepSeconds)
			slot := floorDiv(bucket, tier.StepSeconds) % tier.Rows
			if slot < 0 {
				slot += tier.Rows
			}

			binary.LittleEndian.PutUint64(entry[0:8], uint64(bucket))
			binary.LittleEndian.PutUint64(entry[8:16], math.Float64bits(p.Value))
			if _, err := f.WriteAt(entry, base+slot*pointSize); err != nil {
				return fmt.Errorf("write slot: %w", err)
			}
		}
	}

	return f.Sync()
}

// Info reads the archive's metadata.
func Info(path string) (*archive.Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadHeader(f)
}

// ModTime returns the archive file's modification time in Unix seconds.
func ModTime(path string) (int64, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return st.ModTime().Unix(), nil
}

// Fetch reads the raw stored series for [from, until). A nil result
// means the archive holds no data for the range.
func Fetch(path string, from, until int64) (*series.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return FetchAt(f, from, until, time.Now().Unix())
}

// FetchAt reads the raw stored series for [from, until) relative to the
// given current time. The reader must be positioned at the start of the
// archive; gzipped callers pass a fully decompressed stream.
func FetchAt(r io.ReadSeeker, from, until, now int64) (*series.Result, error) {
	info, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	oldest := now - info.MaxRetention
	if from < oldest {
		from = oldest
	}
	if until > now {
		until = now
	}
	if from >= until {
		return nil, nil
	}

	ti := pickTier(info, now-from)
	tier := info.Tiers[ti]
	step := tier.StepSeconds

	start := floorDiv(from, step) * step
	end := ceilDiv(until, step) * step
	if start >= end {
		return nil, nil
	}

	res := series.New(series.Window{Start: start, End: end, Step: step})

	if _, err := r.Seek(tierOffset(info, ti), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek tier: %w", err)
	}

	block := make([]byte, tier.Rows*pointSize)
	if _, err := io.ReadFull(r, block); err != nil {
		return nil, fmt.Errorf("read tier: %w", err)
	}

	for off := 0; off < len(block); off += pointSize {
		ts := int64(binary.LittleEndian.Uint64(block[off:]))
		if ts == 0 || ts < start || ts >= end {
			continue
		}
		i := int((ts - start) / step)
		if i < 0 || i >= len(res.Values) {
			continue
		}
		res.Values[i] = math.Float64frombits(binary.LittleEndian.Uint64(block[off+8:]))
	}

	return res, nil
}

// pickTier selects the finest tier whose retention covers the requested
// age, falling back to the coarsest.
func pickTier(info *archive.Info, age int64) int {
	for i, t := range info.Tiers {
		if age <= t.Retention() {
			return i
		}
	}
	return len(info.Tiers) - 1
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func ceilDiv(a, b int64) int64 {
	return floorDiv(a+b-1, b)
}
