package sink

import (
	"bytes"
	"io"

	"github.com/matzehuels/mtxspy/pkg/exchange"
	"github.com/matzehuels/mtxspy/pkg/render"
)

// Render produces the plot in format f. Raster formats draw the plot
// first; the exchange format writes the underlying grid.
func Render(p *render.Plot, f Format) ([]byte, error) {
	switch {
	case f.IsRaster():
		return RenderRaster(p.Draw(), f)
	case f == FormatSVG:
		return RenderSVG(p), nil
	case f == FormatJSON:
		return RenderJSON(p)
	case f == FormatBins:
		var buf bytes.Buffer
		if err := exchange.Write(&buf, p.Grid); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	_, err := ParseFormat(string(f))
	return nil, err
}

// Write renders the plot in format f to w.
func Write(w io.Writer, p *render.Plot, f Format) error {
	data, err := Render(p, f)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
