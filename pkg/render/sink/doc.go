// Package sink writes rendered plots in their output formats.
//
//   - Raster images (PNG, JPEG, GIF, TIFF, BMP) via [Encode] and
//     [RenderRaster]
//   - SVG via [RenderSVG], one rectangle per colored cell
//   - JSON via [RenderJSON], grid metadata and every non-empty cell
//   - Exchange text ("bins"), the grid itself
//
// [Render] dispatches on a [Format]. Formats are resolved from names with
// [ParseFormat] or from output paths with [FormatFromPath].
package sink
