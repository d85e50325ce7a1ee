// Package colormap maps local nonzero densities to colors.
//
// A [Window] places densities on a logarithmic scale anchored at the
// matrix's own global density. A [Ramp] turns the normalized value into
// one of a fixed number of gradient colors; anything below the window,
// including empty cells, gets the distinct [Under] color.
package colormap
