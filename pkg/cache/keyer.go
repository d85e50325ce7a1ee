package cache

import "strconv"

// Keyer builds cache keys.
type Keyer interface {
	// GridKey identifies the grid binned from a matrix.
	GridKey(fingerprint string, opts GridKeyOpts) string

	// ArtifactKey identifies a rendering of a grid.
	ArtifactKey(gridHash string, opts ArtifactKeyOpts) string
}

// GridKeyOpts holds the options that change a binned grid.
type GridKeyOpts struct {
	Resolution int  `json:"resolution"`
	SkipZeros  bool `json:"skip_zeros,omitempty"`
}

// ArtifactKeyOpts holds the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format  string  `json:"format"`
	Delta   float64 `json:"delta"`
	Samples int     `json:"samples"`
	Size    int     `json:"size"`
	Legend  bool    `json:"legend,omitempty"`
	Nominal bool    `json:"nominal,omitempty"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// GridKey returns "grid:<hash>".
func (DefaultKeyer) GridKey(fingerprint string, opts GridKeyOpts) string {
	return hashKey("grid", fingerprint, opts)
}

// ArtifactKey returns "artifact:<format>:<hash>".
func (DefaultKeyer) ArtifactKey(gridHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:"+opts.Format, gridHash, opts)
}

// SizeString formats a byte count for display.
func SizeString(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(n)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
