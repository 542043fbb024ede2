// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genofilter

import "context"

// DefaultParallelism is used by ScanGenotypes and the compound engine when
// a caller passes parallelism<=0. It is a fixed worker count: the engine
// never reads runtime.GOMAXPROCS, so a caller that wants a pool sized to
// the machine passes that count explicitly.
const DefaultParallelism = 4

// ScanGenotypes evaluates cs against every row named in candidates and
// returns the subsequence of candidates whose row passes, in the order
// candidates were given (ascending, or a Store's sort-key order).
// Passing means: for every (index, mask) in cs, row[index].Passes(mask).
// An index absent from cs is unconstrained.
//
// Work is split into contiguous batches of candidates (not matrix rows),
// mirroring the source's parallel_apply_bitwise splitting the candidate id
// array rather than the whole matrix, and batches are scanned
// concurrently up to parallelism workers. Cancellation is checked once per
// batch, not once per row: a batch already in flight always finishes.
func ScanGenotypes(ctx context.Context, matrix *GenotypeMatrix, candidates []VariantID, cs conditionSet, parallelism int) ([]VariantID, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if len(cs) == 0 {
		out := make([]VariantID, len(candidates))
		copy(out, candidates)
		return out, nil
	}
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	if parallelism > len(candidates) {
		parallelism = len(candidates)
	}
	batchSize := (len(candidates) + parallelism - 1) / parallelism
	nBatches := (len(candidates) + batchSize - 1) / batchSize

	results := make([][]VariantID, nBatches)
	th := &throttle{Max: parallelism}
	for b := 0; b < nBatches; b++ {
		b := b
		start := b * batchSize
		end := start + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		if err := th.Go(ctx, func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[b] = scanBatch(matrix, candidates[start:end], cs)
			return nil
		}); err != nil {
			th.Wait()
			return nil, &CancelledError{}
		}
	}
	if err := th.Wait(); err != nil {
		if err == context.Canceled || err == context.DeadlineExceeded {
			return nil, &CancelledError{}
		}
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]VariantID, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func scanBatch(matrix *GenotypeMatrix, ids []VariantID, cs conditionSet) []VariantID {
	var kept []VariantID
	for _, id := range ids {
		row := matrix.Row(id)
		if passesConditions(row, cs) {
			kept = append(kept, id)
		}
	}
	return kept
}

func passesConditions(row []GenoBit, cs conditionSet) bool {
	for idx, mask := range cs {
		if idx >= len(row) || !row[idx].Passes(mask) {
			return false
		}
	}
	return true
}
