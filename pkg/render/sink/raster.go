package sink

import (
	"bytes"
	"image"
	"io"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/mtxspy/pkg/errors"
)

// RasterOption configures bitmap encoding.
type RasterOption func(*rasterEncoder)

type rasterEncoder struct {
	quality int
}

// WithJPEGQuality sets the JPEG quality from 1 to 100 (default 95).
func WithJPEGQuality(q int) RasterOption {
	return func(e *rasterEncoder) { e.quality = q }
}

var imagingFormats = map[Format]imaging.Format{
	FormatPNG:  imaging.PNG,
	FormatJPEG: imaging.JPEG,
	FormatGIF:  imaging.GIF,
	FormatTIFF: imaging.TIFF,
	FormatBMP:  imaging.BMP,
}

// Encode writes img to w in the raster format f.
func Encode(w io.Writer, img image.Image, f Format, opts ...RasterOption) error {
	e := rasterEncoder{quality: 95}
	for _, opt := range opts {
		opt(&e)
	}
	format, ok := imagingFormats[f]
	if !ok {
		return errors.New(errors.ErrCodeUnsupported, "%s is not a raster format", f)
	}
	return imaging.Encode(w, img, format, imaging.JPEGQuality(e.quality))
}

// RenderRaster encodes img in format f and returns the bytes.
func RenderRaster(img image.Image, f Format, opts ...RasterOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, f, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
