// Package mtx reads sparse matrices in the Matrix Market coordinate format.
//
// A coordinate file starts with a banner line, optional comment lines and a
// size line, followed by one line per stored entry:
//
//	%%MatrixMarket matrix coordinate real general
//	% comment
//	3 3 2
//	1 1 4.5
//	3 2 -1
//
// Indices in the file are 1-based; [Matrix.Scan] reports them 0-based and
// yields the implied transpose for symmetric storage. Values are only read
// when [WithSkipZeros] is set.
//
// [Open] memory-maps plain files so that they can be split into shards and
// binned on several goroutines. Compressed files (.gz, .zst) and readers
// passed to [NewReader] are streamed.
package mtx
