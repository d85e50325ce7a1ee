// Package cli implements the mtxspy command-line interface.
//
// The CLI renders sparsity fingerprints of Matrix Market files, converts
// them to the grid exchange format, prints density statistics and serves
// the pipeline over HTTP. It is built on cobra; status lines use lipgloss
// and diagnostics go through a charmbracelet/log logger.
//
// # Commands
//
//   - render: render one or more matrices to images, JSON or exchange text
//   - bin: write the binned grid of a matrix in exchange format
//   - info: print shape and density statistics
//   - serve: run the HTTP service
//   - cache: inspect or clear the local cache
//
// # Configuration
//
// Defaults are read from $XDG_CONFIG_HOME/mtxspy/config.toml, or from the
// file named by --config. Flags given on the command line take precedence
// over file values.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// traces every pipeline stage and cache lookup.
package cli
