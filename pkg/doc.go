// Package pkg provides the core libraries of mtxspy, a sparsity fingerprint
// renderer for sparse matrices.
//
// # Overview
//
// A fingerprint is a small image of a sparse matrix: the matrix is split
// into a grid of blocks, every block is colored by its local nonzero density
// relative to the global density, and the result shows where the nonzeros
// concentrate. The pkg directory is organized by pipeline stage:
//
//  1. [mtx] - Matrix Market coordinate reader (plain, gzip, zstd, mmap)
//  2. [binning] - Grid layout and single-pass nonzero counting
//  3. [exchange] - Text encoding of a binned grid
//  4. [colormap] - Logarithmic density window and color ramp
//  5. [render] - Plot geometry, legend and raster drawing
//  6. [render/sink] - Output encoders (PNG, JPEG, GIF, TIFF, BMP, SVG, JSON)
//  7. [pipeline] - Orchestration (load → bin → render) with caching
//
// # Architecture
//
// The typical data flow through mtxspy:
//
//	Matrix Market file
//	         ↓
//	    [mtx] package (stream nonzero coordinates)
//	         ↓
//	    [binning] package (count nonzeros per block)
//	         ↓
//	    [colormap] package (normalize densities, pick colors)
//	         ↓
//	    [render] and [render/sink] packages
//	         ↓
//	PNG/SVG/JSON output
//
// # Quick Start
//
//	m, err := mtx.Open("bcsstk01.mtx.gz")
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//
//	g, err := binning.Bin(m, binning.DefaultResolution, binning.WithWorkers(4))
//	if err != nil {
//	    return err
//	}
//
//	plot, err := render.Prepare(g, render.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	png, err := sink.Render(plot, sink.FormatPNG)
//
// # Supporting Packages
//
// [stats] - Density statistics of a grid (gonum).
//
// [cache] - Cache interface with file, redis and null backends, and the
// keyers that address grids and artifacts.
//
// [errors] - Structured error codes shared by every stage.
//
// [observability] - Hook interfaces for tracing pipeline, cache and server
// events.
//
// [buildinfo] - Version information injected at build time.
package pkg
