// Package archive defines the metadata model shared by the on-disk
// archive formats. Each format subpackage exposes interval discovery and
// raw range reads against its own storage; the reader layer composes
// those with cache fusion.
package archive

// TierSpec describes one retention tier of an archive: samples every
// StepSeconds, Rows samples kept.
type TierSpec struct {
	StepSeconds int64
	Rows        int64
}

// Retention returns the tier's covered span in seconds.
func (t TierSpec) Retention() int64 {
	return t.StepSeconds * t.Rows
}

// Info describes an archive's stored metadata.
type Info struct {
	// AggregationMethod names the consolidation function the archive
	// uses when rolling samples into coarser tiers.
	AggregationMethod string

	// MaxRetention is the longest span covered by any tier, in seconds.
	MaxRetention int64

	// Tiers lists the retention tiers, finest first.
	Tiers []TierSpec
}
