// Package fixedstep implements the fixed-step archive format: a single
// binary file holding one ring of timestamped slots per retention tier.
//
// File layout (binary, little-endian):
//   - magic "FSA1" (4 bytes)
//   - aggregation method (1 byte)
//   - max retention in seconds (8 bytes)
//   - tier count (4 bytes)
//   - per tier: step seconds (4 bytes) + row count (4 bytes)
//   - per tier, in header order: rows × (timestamp int64 + value float64)
//
// A slot with timestamp zero is empty. Tiers are ordered finest first.
// The header parser works on any io.Reader so callers holding a
// decompressed stream can reuse it directly.
package fixedstep

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/xtxerr/seriesmux/internal/archive"
)

var magic = [4]byte{'F', 'S', 'A', '1'}

const (
	pointSize     = 16
	maxTiers      = 64
	baseHeaderLen = 4 + 1 + 8 + 4
)

// Method identifies the aggregation used when rolling samples into
// coarser tiers.
type Method uint8

const (
	MethodAverage Method = iota + 1
	MethodSum
	MethodMax
	MethodMin
)

// String returns the consolidation function name for the method.
func (m Method) String() string {
	switch m {
	case MethodAverage:
		return "average"
	case MethodSum:
		return "sum"
	case MethodMax:
		return "max"
	case MethodMin:
		return "min"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// ParseMethod parses a consolidation function name into a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "average":
		return MethodAverage, nil
	case "sum":
		return MethodSum, nil
	case "max":
		return MethodMax, nil
	case "min":
		return MethodMin, nil
	default:
		return 0, fmt.Errorf("unknown aggregation method: %q", s)
	}
}

// ReadHeader parses an archive header from r, leaving r positioned at
// the first tier's point block.
func ReadHeader(r io.Reader) (*archive.Info, error) {
	fixed := make([]byte, baseHeaderLen)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if [4]byte(fixed[0:4]) != magic {
		return nil, fmt.Errorf("bad magic %q", fixed[0:4])
	}

	method := Method(fixed[4])
	if method < MethodAverage || method > MethodMin {
		return nil, fmt.Errorf("bad aggregation method %d", fixed[4])
	}

	maxRetention := int64(binary.LittleEndian.Uint64(fixed[5:13]))
	tierCount := binary.LittleEndian.Uint32(fixed[13:17])
	if tierCount == 0 || tierCount > maxTiers {
		return nil, fmt.Errorf("bad tier count %d", tierCount)
	}

	tierBytes := make([]byte, 8*tierCount)
	if _, err := io.ReadFull(r, tierBytes); err != nil {
		return nil, fmt.Errorf("read tier table: %w", err)
	}

	info := &archive.Info{
		AggregationMethod: method.String(),
		MaxRetention:      maxRetention,
		Tiers:             make([]archive.TierSpec, tierCount),
	}
	for i := range info.Tiers {
		off := 8 * i
		info.Tiers[i] = archive.TierSpec{
			StepSeconds: int64(binary.LittleEndian.Uint32(tierBytes[off:])),
			Rows:        int64(binary.LittleEndian.Uint32(tierBytes[off+4:])),
		}
		if info.Tiers[i].StepSeconds <= 0 || info.Tiers[i].Rows <= 0 {
			return nil, fmt.Errorf("tier %d: bad spec %+v", i, info.Tiers[i])
		}
	}

	return info, nil
}

// headerLen returns the byte length of the header for an archive with
// the given tier count.
func headerLen(tiers int) int64 {
	return int64(baseHeaderLen + 8*tiers)
}

// tierOffset returns the file offset of tier i's point block.
func tierOffset(info *archive.Info, i int) int64 {
	off := headerLen(len(info.Tiers))
	for _, t := range info.Tiers[:i] {
		off += t.Rows * pointSize
	}
	return off
}

// encodeHeader serializes an archive header.
func encodeHeader(method Method, tiers []archive.TierSpec) []byte {
	buf := make([]byte, 0, headerLen(len(tiers)))
	buf = append(buf, magic[:]...)
	buf = append(buf, byte(method))

	var maxRetention int64
	for _, t := range tiers {
		if r := t.Retention(); r > maxRetention {
			maxRetention = r
		}
	}
	buf = binary.LittleEndian.AppendUint64(buf, uint64(maxRetention))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tiers)))

	for _, t := range tiers {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(t.StepSeconds))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(t.Rows))
	}
	return buf
}
