package sink

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/mtxspy/pkg/render"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	name  string
	stats any
}

// WithJSONName records the matrix name in the output.
func WithJSONName(s string) JSONOption { return func(r *jsonRenderer) { r.name = s } }

// WithJSONStats embeds a statistics summary, typically a [stats.Summary].
//
// [stats.Summary]: github.com/matzehuels/mtxspy/pkg/stats.Summary
func WithJSONStats(s any) JSONOption { return func(r *jsonRenderer) { r.stats = s } }

type jsonOutput struct {
	Name    string     `json:"name,omitempty"`
	Rows    int        `json:"rows"`
	Cols    int        `json:"cols"`
	NNZ     int64      `json:"nnz"`
	Density float64    `json:"density"`
	Grid    jsonGrid   `json:"grid"`
	Window  jsonWindow `json:"window"`
	Nominal bool       `json:"nominal_density,omitempty"`
	Width   int        `json:"width"`
	Height  int        `json:"height"`
	Stats   any        `json:"stats,omitempty"`
	Cells   []jsonCell `json:"cells"`
}

type jsonGrid struct {
	Rows  int `json:"rows"`
	Cols  int `json:"cols"`
	MRate int `json:"m_rate"`
	NRate int `json:"n_rate"`
}

type jsonWindow struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Delta float64 `json:"delta"`
}

type jsonCell struct {
	Row     int     `json:"row"`
	Col     int     `json:"col"`
	Count   int64   `json:"count"`
	Density float64 `json:"density"`
	Color   string  `json:"color,omitempty"`
}

// RenderJSON exports grid metadata, the density window and every
// non-empty cell. Cells below the window have no color.
func RenderJSON(p *render.Plot, opts ...JSONOption) ([]byte, error) {
	var r jsonRenderer
	for _, opt := range opts {
		opt(&r)
	}

	g := p.Grid
	out := jsonOutput{
		Name:    r.name,
		Rows:    g.M,
		Cols:    g.N,
		NNZ:     g.NNZ,
		Density: g.GlobalDensity(),
		Grid:    jsonGrid{Rows: g.Rows, Cols: g.Cols, MRate: g.MRate, NRate: g.NRate},
		Window:  jsonWindow{Min: p.Window.Min, Max: p.Window.Max, Delta: p.Options.Delta},
		Nominal: p.Options.NominalDensity,
		Width:   p.Geometry.Width,
		Height:  p.Geometry.Height,
		Stats:   r.stats,
		Cells:   buildJSONCells(p),
	}
	return json.MarshalIndent(out, "", "  ")
}

func buildJSONCells(p *render.Plot) []jsonCell {
	colored := make(map[[2]int]string, len(p.Cells))
	for _, c := range p.Cells {
		colored[[2]int{c.Row, c.Col}] = fmt.Sprintf("#%02x%02x%02x", c.Color.R, c.Color.G, c.Color.B)
	}

	cells := make([]jsonCell, 0, p.Grid.NonEmpty())
	p.Grid.Each(func(r, c int, count int64) {
		cells = append(cells, jsonCell{
			Row:     r,
			Col:     c,
			Count:   count,
			Density: p.Grid.Density(r, c, p.Options.NominalDensity),
			Color:   colored[[2]int{r, c}],
		})
	})
	return cells
}
