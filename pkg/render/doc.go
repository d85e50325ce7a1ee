// Package render turns a binned grid into a density image.
//
// Rendering happens in two steps. [Prepare] computes the local density of
// every cell, the logarithmic window around the matrix's global density
// and the color of each cell, producing a [Plot]. A plot is then drawn by
// [Plot.Draw] or handed to one of the sinks in [sink].
//
//	grid, _ := binning.Bin(matrix, binning.DefaultResolution)
//	raster, err := render.Render(grid, render.DefaultOptions())
//	if err != nil {
//	    return err // EMPTY_MATRIX or INVALID_WINDOW
//	}
//	png, err := sink.RenderRaster(raster.Image, sink.FormatPNG)
//
// # Placement
//
// Cell (r, c) covers matrix rows [r·m_rate, min((r+1)·m_rate, M)) and the
// analogous columns. [Geometry] maps these extents to pixels, so a matrix
// whose shape is not a multiple of the rates keeps its proportions.
//
// # Density
//
// By default a cell's density is its count divided by the number of matrix
// entries it actually covers. [Options.NominalDensity] divides by
// m_rate·n_rate everywhere instead, which under-reports edge cells.
//
// [sink]: github.com/matzehuels/mtxspy/pkg/render/sink
package render
