// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genofilter

import (
	"context"

	"gopkg.in/check.v1"
)

type compoundSuite struct{}

var _ = check.Suite(&compoundSuite{})

// TestCompoundHetFindsCrossParentPair is the literal compound-het table:
// groups affected=[C1,C2], not_affected=[M,F,L,C3], gene "B" carrying a
// mother-origin and a father-origin variant, both of which two affected
// siblings share.
func (s *compoundSuite) TestCompoundHetFindsCrossParentPair(c *check.C) {
	ss := literalSelection([]string{"C1", "C2"}, []string{"M", "F", "L", "C3"})
	matrix := literalMatrix([][]int{
		{2, 1, 2, 2, 1, 1}, // v1: mother-origin
		{1, 2, 2, 2, 1, 1}, // v2: father-origin
	})
	byGene := map[string][]VariantID{"B": {1, 2}}

	result, err := EvaluateCompoundHet(context.Background(), matrix, byGene, ss, 2)
	c.Assert(err, check.IsNil)
	c.Check(result.IDs, check.DeepEquals, []VariantID{1, 2})
	c.Assert(result.Pairs["B"], check.HasLen, 1)
	c.Check(result.Pairs["B"][0].Maternal, check.Equals, VariantID(1))
	c.Check(result.Pairs["B"][0].Paternal, check.Equals, VariantID(2))
}

// TestCompoundHetEliminatesVariantCarriedHomozygousByUnaffected is the
// literal "compound het with unaffected carrier hom" table: a candidate
// father-origin variant is disqualified entirely because a not-affected
// sample (L) is homozygous-alt for it, which the base per-position
// constraint (every not-affected active sample NOT_CARRIER_HOM) now
// catches before the variant is even classified as paternal/maternal
// origin for either affected sibling. Only the remaining pair survives.
func (s *compoundSuite) TestCompoundHetEliminatesVariantCarriedHomozygousByUnaffected(c *check.C) {
	ss := literalSelection([]string{"C1", "C2"}, []string{"M", "F", "L", "C3"})
	matrix := literalMatrix([][]int{
		{2, 1, 2, 2, 1, 1}, // v1: mother-origin
		{1, 2, 2, 2, 1, 4}, // v2': father-origin, but L is homozygous
		{1, 2, 2, 2, 1, 1}, // v3: father-origin
	})
	byGene := map[string][]VariantID{"B": {1, 2, 3}}

	result, err := EvaluateCompoundHet(context.Background(), matrix, byGene, ss, 2)
	c.Assert(err, check.IsNil)
	c.Check(result.IDs, check.DeepEquals, []VariantID{1, 3})
	c.Assert(result.Pairs["B"], check.HasLen, 1)
	c.Check(result.Pairs["B"][0].Maternal, check.Equals, VariantID(1))
	c.Check(result.Pairs["B"][0].Paternal, check.Equals, VariantID(3))
}

func (s *compoundSuite) TestCompoundHetEliminatesPairCarriedByUnaffected(c *check.C) {
	ss := literalSelection([]string{"C1"}, []string{"M", "F", "L", "C3", "C2"})
	rows := [][]int{
		{2, 1, 2, 2, 1, 1}, // v1: mother-origin, but C2 (not affected here) also carries it
		{1, 2, 2, 2, 1, 1}, // v2: father-origin, C2 also carries it
	}
	matrix := literalMatrix(rows)
	byGene := map[string][]VariantID{"ELIM1": {1, 2}}

	result, err := EvaluateCompoundHet(context.Background(), matrix, byGene, ss, 2)
	c.Assert(err, check.IsNil)
	c.Check(result.IDs, check.HasLen, 0)
	c.Check(result.Pairs["ELIM1"], check.HasLen, 0)
}

func (s *compoundSuite) TestCompoundHetRequiresBothParentsActive(c *check.C) {
	samples := []Sample{
		{Name: "Sasha", Phenotype: PhenotypeAffected},
		{Name: "Dasha", Phenotype: PhenotypeNotAffected},
	}
	groups := GroupsFromPhenotype(samples)
	ss, err := NewSamplesSelection(samples, groups)
	c.Assert(err, check.IsNil)

	matrix := NewGenotypeMatrix(2, 2)
	_ = matrix.SetRow(1, []RawCall{RawHet, RawHomRef})
	_ = matrix.SetRow(2, []RawCall{RawHet, RawHomRef})
	byGene := map[string][]VariantID{"BRCA1": {1, 2}}

	result, err := EvaluateCompoundHet(context.Background(), matrix, byGene, ss, 1)
	c.Assert(err, check.IsNil)
	c.Check(result.IDs, check.HasLen, 0)
}
