// Package binning compresses a sparse matrix into a small grid of nonzero
// counts.
//
// An M×N matrix is split into blocks of MRate rows by NRate columns and
// every nonzero increments the count of the block it falls into. The result
// is a [Grid] whose cells sum to the number of nonzeros, together with the
// [Layout] needed to map cells back to matrix coordinates.
//
// Binning is a single streaming pass over the nonzero coordinates of a
// [Source], so it works on matrices far larger than their dense form would
// allow:
//
//	m, err := mtx.Open("G2_circuit.mtx")
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//
//	grid, err := binning.Bin(m, binning.DefaultResolution, binning.WithWorkers(4))
//
// Sources that implement [Sharded] are binned in parallel when more than one
// worker is requested.
package binning
