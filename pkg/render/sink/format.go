package sink

import (
	"path/filepath"
	"strings"

	"github.com/matzehuels/mtxspy/pkg/errors"
)

// Format is an output format.
type Format string

// Supported output formats.
const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatTIFF Format = "tiff"
	FormatBMP  Format = "bmp"
	FormatSVG  Format = "svg"
	FormatJSON Format = "json"
	FormatBins Format = "bins" // exchange text
)

// Formats lists every supported format.
var Formats = []Format{FormatPNG, FormatJPEG, FormatGIF, FormatTIFF, FormatBMP, FormatSVG, FormatJSON, FormatBins}

var aliases = map[string]Format{
	"jpg": FormatJPEG,
	"tif": FormatTIFF,
	"txt": FormatBins,
}

// ParseFormat resolves a format name or common alias, ignoring case and a
// leading dot.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimPrefix(s, "."))
	if f, ok := aliases[s]; ok {
		return f, nil
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidOption, "unknown format %q", s)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", errors.New(errors.ErrCodeInvalidOption, "cannot infer format of %q without an extension", path)
	}
	return ParseFormat(ext)
}

// IsRaster reports whether f is a bitmap image format.
func (f Format) IsRaster() bool {
	switch f {
	case FormatPNG, FormatJPEG, FormatGIF, FormatTIFF, FormatBMP:
		return true
	}
	return false
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatBins:
		return ".bins"
	}
	return "." + string(f)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatJSON:
		return "application/json"
	case FormatBins:
		return "text/plain; charset=utf-8"
	}
	return "image/" + string(f)
}
