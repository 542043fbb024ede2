// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genofilter

import "context"

// Request is one filter evaluation: a dataset, a cohort selection, an
// inheritance scenario, an optional compound-heterozygous pass, and the
// usual variant-attribute predicates/sort/pagination pushed to the store.
type Request struct {
	Dataset     string
	Selection   *SamplesSelection
	Scenario    GenotypeScenario
	CompoundHet bool

	Predicates []VariantPredicate
	Sort       SortKey
	Reverse    bool
	Bounds     Bounds

	Parallelism int
}

// FilterResult is the outcome of Evaluate: the matching variant ids in
// request order, their hydrated rows restricted to Bounds, and Total, the
// count before pagination (so a caller can render "page 3 of N" without a
// second round trip).
type FilterResult struct {
	IDs   []VariantID
	Rows  []VariantRow
	Total int

	// CompoundPairs holds the surviving compound-het pairs per gene, for
	// callers that want to render which two variants paired up rather than
	// just the flat id list. Empty unless Request.CompoundHet was set.
	CompoundPairs map[string][]CompoundPair
}

// Evaluate runs one filter Request against store. It never mutates store
// or req.Selection.
//
// When the request carries no variant-attribute predicates and no sort
// key, the variants table itself is never queried for hydration up
// front: only ids are fetched, the genotype scan runs over those, and
// hydration happens once at the end over the surviving page — the
// source's same shortcut for "pure genotype filter, store's natural
// order is fine".
//
// The candidate id set, the genotype-scan survivors and the compound-het
// result are each intersected as packed bitmasks (PackedSet, C7) rather
// than map membership tests, matching the source's use of packed ndarrays
// for these set operations.
func Evaluate(ctx context.Context, store Store, req Request) (*FilterResult, error) {
	if req.Selection == nil {
		return nil, &InvalidSelectionError{Reason: "request has no samples selection"}
	}

	shortcut := len(req.Predicates) == 0 && req.Sort == ""

	var orderedIDs []VariantID
	if shortcut {
		ids, err := store.IDsQuery(ctx, req.Dataset, nil, "", false)
		if err != nil {
			return nil, err
		}
		orderedIDs = ids
	} else {
		rows, err := store.VariantsQuery(ctx, req.Dataset, req.Predicates, req.Sort, req.Reverse, Bounds{})
		if err != nil {
			return nil, err
		}
		orderedIDs = make([]VariantID, len(rows))
		for i, r := range rows {
			orderedIDs[i] = r.VariantID
		}
	}

	if req.Scenario == ScenarioXLinked {
		chrX, err := store.ChrXIDs(ctx, req.Dataset)
		if err != nil {
			return nil, err
		}
		orderedIDs = intersectOrdered(orderedIDs, packFrom(chrX))
	}

	cond, impossible, err := CompileScenario(req.Selection, req.Scenario)
	if err != nil {
		return nil, err
	}
	if impossible {
		return emptyResult(), nil
	}

	// n bounds every packed bitmask built below: the largest variant id
	// this dataset can produce, so every set intersected via PackedSet.And
	// shares the same bit for the same id regardless of which subset built
	// it.
	n := 0
	for _, id := range orderedIDs {
		if int(id) > n {
			n = int(id)
		}
	}

	keep := PackIDs(orderedIDs, n)
	if len(cond) > 0 {
		matrix, err := store.GenotypeMatrix(ctx, req.Dataset)
		if err != nil {
			return nil, err
		}
		survivors, err := ScanGenotypes(ctx, matrix, orderedIDs, cond, req.Parallelism)
		if err != nil {
			return nil, err
		}
		keep = keep.And(PackIDs(survivors, n))
	}

	var compoundPairs map[string][]CompoundPair
	if req.CompoundHet {
		matrix, err := store.GenotypeMatrix(ctx, req.Dataset)
		if err != nil {
			return nil, err
		}
		byGene, err := store.VariantsByGene(ctx, req.Dataset)
		if err != nil {
			return nil, err
		}
		result, err := EvaluateCompoundHet(ctx, matrix, byGene, req.Selection, req.Parallelism)
		if err != nil {
			return nil, err
		}
		keep = keep.And(PackIDs(result.IDs, n))
		keepSet := make(map[VariantID]bool, keep.Len())
		for _, id := range keep.ToIndices() {
			keepSet[id] = true
		}
		compoundPairs = pruneCompoundPairs(keepSet, result.Pairs)
		keep = PackIDs(pairedIDsSlice(compoundPairs), n)
	}

	final := make([]VariantID, 0, len(orderedIDs))
	for _, id := range orderedIDs {
		if keep.Test(id) {
			final = append(final, id)
		}
	}

	total := len(final)
	paged := paginateIDs(final, req.Bounds)

	rows, err := hydrate(ctx, store, req.Dataset, paged)
	if err != nil {
		return nil, err
	}

	return &FilterResult{IDs: final, Rows: rows, Total: total, CompoundPairs: compoundPairs}, nil
}

func emptyResult() *FilterResult {
	return &FilterResult{IDs: nil, Rows: nil, Total: 0}
}

// packFrom builds a PackedSet holding exactly ids, sized to the largest id
// present; a later Test against an id beyond that size simply reports
// false, which is correct since it can't have been a member.
func packFrom(ids []VariantID) PackedSet {
	n := 0
	for _, id := range ids {
		if int(id) > n {
			n = int(id)
		}
	}
	return PackIDs(ids, n)
}

// intersectOrdered restricts ids to those present in mask, preserving
// order; used to push the chrX restriction into the ordered candidate
// list via a packed bitmask (C7) rather than a map membership test.
func intersectOrdered(ids []VariantID, mask PackedSet) []VariantID {
	out := make([]VariantID, 0, len(ids))
	for _, id := range ids {
		if mask.Test(id) {
			out = append(out, id)
		}
	}
	return out
}

// pruneCompoundPairs runs the post-intersection fixpoint: a pair survives
// only if both its variants are still in keep (e.g. after a variant-
// attribute predicate dropped one side), and an id is kept only if some
// surviving pair still holds both of its sides. Dropping one id can orphan
// another pair in the same gene, so this iterates to a fixed point rather
// than a single pass, the same "bin_keep" shape the source uses.
func pruneCompoundPairs(keep map[VariantID]bool, pairs map[string][]CompoundPair) map[string][]CompoundPair {
	current := keep
	out := map[string][]CompoundPair{}
	for {
		changed := false
		nextOut := map[string][]CompoundPair{}
		survivingIDs := map[VariantID]bool{}
		for gene, gp := range pairs {
			var kept []CompoundPair
			for _, p := range gp {
				if current[p.Paternal] && current[p.Maternal] {
					kept = append(kept, p)
					survivingIDs[p.Paternal] = true
					survivingIDs[p.Maternal] = true
				}
			}
			if len(kept) > 0 {
				nextOut[gene] = kept
			}
		}
		if len(survivingIDs) != len(current) {
			changed = true
		} else {
			for id := range current {
				if !survivingIDs[id] {
					changed = true
					break
				}
			}
		}
		out = nextOut
		current = survivingIDs
		if !changed {
			break
		}
	}
	return out
}

func pairedIDsSlice(pairs map[string][]CompoundPair) []VariantID {
	seen := map[VariantID]bool{}
	var out []VariantID
	for _, gp := range pairs {
		for _, p := range gp {
			if !seen[p.Paternal] {
				seen[p.Paternal] = true
				out = append(out, p.Paternal)
			}
			if !seen[p.Maternal] {
				seen[p.Maternal] = true
				out = append(out, p.Maternal)
			}
		}
	}
	return out
}

func paginateIDs(ids []VariantID, b Bounds) []VariantID {
	if b.Offset > 0 {
		if b.Offset >= len(ids) {
			return nil
		}
		ids = ids[b.Offset:]
	}
	if b.Limit > 0 && b.Limit < len(ids) {
		ids = ids[:b.Limit]
	}
	return ids
}

func hydrate(ctx context.Context, store Store, dataset string, ids []VariantID) ([]VariantRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := store.VariantsQuery(ctx, dataset, []VariantPredicate{NewVariantIDPredicate(ids)}, "", false, Bounds{})
	if err != nil {
		return nil, err
	}
	byID := make(map[VariantID]VariantRow, len(rows))
	for _, r := range rows {
		byID[r.VariantID] = r
	}
	out := make([]VariantRow, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}
