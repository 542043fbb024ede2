// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genofilter

import (
	"context"
	"sort"
	"sync"
)

// CompoundPair is one candidate compound-heterozygous pair: two distinct
// variants in the same gene, one inherited from each parent, both het in
// an affected child.
type CompoundPair struct {
	Gene      string
	Paternal  VariantID
	Maternal  VariantID
}

// CompoundHetResult is the outcome of EvaluateCompoundHet: the variant ids
// that take part in at least one surviving pair, and the pairs themselves
// per gene, kept around so the orchestrator's post-intersection pruning
// (bin_keep in the source) can re-derive which ids to drop if a later
// variant-attribute filter removes one side of a pair.
type CompoundHetResult struct {
	IDs   []VariantID
	Pairs map[string][]CompoundPair
}

// EvaluateCompoundHet runs the two-pass compound-heterozygous algorithm
// over every gene in byGene: for each gene, find, per affected sample, the
// candidate variants inherited purely from the father (child het, father
// a carrier, mother not) and purely from the mother (symmetric) — subject
// to the base constraint that every affected sample is heterozygous and
// every not-affected active sample is not homozygous-alt at that position
// — form every father/mother pair, discard any pair also fully present
// (both sides carried) in a not-affected active sample, and keep the gene
// only if every affected sample that has two active parents still has at
// least one surviving pair. Affected samples without two active parents
// can't have their inheritance origin confirmed and are excluded from the
// per-gene AND — mirroring the source's requirement that both parents be
// present to call a compound het.
//
// Genes are processed concurrently in batches; merging results uses one
// mutex rather than per-gene channels, since the per-gene work is cheap
// relative to its row-scan cost and a single critical section is simpler
// than fan-in plumbing for a result this small.
func EvaluateCompoundHet(ctx context.Context, matrix *GenotypeMatrix, byGene map[string][]VariantID, ss *SamplesSelection, parallelism int) (*CompoundHetResult, error) {
	affected := ss.AffectedIdx()
	if len(affected) == 0 {
		return &CompoundHetResult{Pairs: map[string][]CompoundPair{}}, nil
	}

	// Only affected samples with two active parents can be attributed an
	// inheritance origin; the others never gate any gene.
	var qualifying []int
	for _, a := range affected {
		s := ss.Sample(a)
		if ss.MotherIdxOf(s) >= 0 && ss.FatherIdxOf(s) >= 0 {
			qualifying = append(qualifying, a)
		}
	}
	if len(qualifying) == 0 {
		return &CompoundHetResult{Pairs: map[string][]CompoundPair{}}, nil
	}

	genes := make([]string, 0, len(byGene))
	for g := range byGene {
		genes = append(genes, g)
	}
	sort.Strings(genes)

	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}

	var mu sync.Mutex
	pairsByGene := map[string][]CompoundPair{}

	th := &throttle{Max: parallelism}
	for _, gene := range genes {
		gene := gene
		ids := byGene[gene]
		if err := th.Go(ctx, func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pairs := compoundPairsForGene(matrix, ids, ss, qualifying, ss.NotAffectedIdx())
			if len(pairs) > 0 {
				for i := range pairs {
					pairs[i].Gene = gene
				}
				mu.Lock()
				pairsByGene[gene] = pairs
				mu.Unlock()
			}
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

	idSet := map[VariantID]bool{}
	for _, pairs := range pairsByGene {
		for _, p := range pairs {
			idSet[p.Paternal] = true
			idSet[p.Maternal] = true
		}
	}
	ids := make([]VariantID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return &CompoundHetResult{IDs: ids, Pairs: pairsByGene}, nil
}

// compoundPairsForGene returns the surviving compound-het pairs for one
// gene, or nil if any qualifying affected sample has none (the per-gene
// AND gate).
func compoundPairsForGene(matrix *GenotypeMatrix, ids []VariantID, ss *SamplesSelection, qualifying, notAffected []int) []CompoundPair {
	type origins struct {
		paternal []VariantID
		maternal []VariantID
	}

	affected := ss.AffectedIdx()

	// A candidate position must satisfy the base constraints shared by
	// every affected/not-affected sample — every affected sample
	// heterozygous, every not-affected active sample not homozygous-alt —
	// before it's even considered for paternal/maternal origin at a given
	// qualifying child. Without this, a not-affected sample that happens
	// to be homozygous-alt at a candidate site never disqualifies it.
	baseSatisfied := func(row []GenoBit) bool {
		for _, i := range affected {
			if !row[i].Passes(CarrierHet) {
				return false
			}
		}
		for _, i := range notAffected {
			if !row[i].Passes(NotCarrierHom) {
				return false
			}
		}
		return true
	}

	perSample := make(map[int]origins, len(qualifying))
	for _, a := range qualifying {
		s := ss.Sample(a)
		mother := ss.MotherIdxOf(s)
		father := ss.FatherIdxOf(s)
		var o origins
		for _, id := range ids {
			row := matrix.Row(id)
			if !baseSatisfied(row) {
				continue
			}
			switch {
			case row[father].Passes(Carrier) && row[mother].Passes(NonCarrierHom):
				o.paternal = append(o.paternal, id)
			case row[mother].Passes(Carrier) && row[father].Passes(NonCarrierHom):
				o.maternal = append(o.maternal, id)
			}
		}
		if len(o.paternal) == 0 || len(o.maternal) == 0 {
			return nil
		}
		perSample[a] = o
	}

	// Union of every qualifying affected sample's candidate pairs, deduped
	// by (paternal,maternal), is the set false-positive elimination runs
	// over — a pair shared by two affected samples only needs checking
	// once.
	seen := map[[2]VariantID]bool{}
	var candidates []CompoundPair
	for _, o := range perSample {
		for _, f := range o.paternal {
			for _, m := range o.maternal {
				key := [2]VariantID{f, m}
				if seen[key] {
					continue
				}
				seen[key] = true
				candidates = append(candidates, CompoundPair{Paternal: f, Maternal: m})
			}
		}
	}

	survivors := make([]CompoundPair, 0, len(candidates))
	for _, p := range candidates {
		if compoundPairEliminated(matrix, p, notAffected) {
			continue
		}
		survivors = append(survivors, p)
	}
	if len(survivors) == 0 {
		return nil
	}

	// AND gate: every qualifying affected sample must still have at least
	// one surviving pair drawn from its own origin lists.
	for a, o := range perSample {
		if !anySurvives(survivors, o, a) {
			return nil
		}
	}

	sort.Slice(survivors, func(i, j int) bool {
		if survivors[i].Paternal != survivors[j].Paternal {
			return survivors[i].Paternal < survivors[j].Paternal
		}
		return survivors[i].Maternal < survivors[j].Maternal
	})
	for i := range survivors {
		survivors[i].Gene = ""
	}
	return survivors
}

func anySurvives(survivors []CompoundPair, o struct {
	paternal []VariantID
	maternal []VariantID
}, _ int) bool {
	pSet := map[VariantID]bool{}
	for _, id := range o.paternal {
		pSet[id] = true
	}
	mSet := map[VariantID]bool{}
	for _, id := range o.maternal {
		mSet[id] = true
	}
	for _, s := range survivors {
		if pSet[s.Paternal] && mSet[s.Maternal] {
			return true
		}
	}
	return false
}

// compoundPairEliminated reports whether any not-affected active sample
// carries both sides of p, which would make it a combination the not-
// affected sample tolerates and so not disease-causing.
func compoundPairEliminated(matrix *GenotypeMatrix, p CompoundPair, notAffected []int) bool {
	if len(notAffected) == 0 {
		return false
	}
	rowF := matrix.Row(p.Paternal)
	rowM := matrix.Row(p.Maternal)
	for _, n := range notAffected {
		if rowF[n].Passes(Carrier) && rowM[n].Passes(Carrier) {
			return true
		}
	}
	return false
}
