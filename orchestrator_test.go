// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genofilter

import (
	"context"
	"os"

	"gopkg.in/check.v1"
)

type orchestratorSuite struct {
	path string
}

var _ = check.Suite(&orchestratorSuite{})

func (s *orchestratorSuite) SetUpTest(c *check.C) {
	samples := familySamples()
	rows := []VariantRow{
		{VariantID: 1, Chrom: "chr1", Start: 100, GeneSymbol: "ABC1", Fields: map[string]any{"quality": 80.0}},
		{VariantID: 2, Chrom: "chr1", Start: 200, GeneSymbol: "ABC1", Fields: map[string]any{"quality": 5.0}},
		{VariantID: 3, Chrom: "chr2", Start: 300, GeneSymbol: "DEF2", Fields: map[string]any{"quality": 90.0}},
	}
	calls := [][]RawCall{
		// Dominant-compatible: both affected (Sasha, Dasha) carry, unaffected don't.
		{RawHomRef, RawHomRef, RawHet, RawHet, RawHomRef, RawHomRef},
		// Same pattern but low quality, to be excluded by a predicate.
		{RawHomRef, RawHomRef, RawHet, RawHet, RawHomRef, RawHomRef},
		// Doesn't satisfy Dominant (Lena, not affected and unrelated, also carries).
		{RawHomRef, RawHomRef, RawHet, RawHet, RawHomRef, RawHet},
	}
	f, err := os.CreateTemp("", "genofilter-fixture-*.gob.gz")
	c.Assert(err, check.IsNil)
	s.path = f.Name()
	c.Assert(WriteDatasetFixture(f, samples, rows, calls), check.IsNil)
	c.Assert(f.Close(), check.IsNil)
}

func (s *orchestratorSuite) TearDownTest(c *check.C) {
	os.Remove(s.path)
}

func (s *orchestratorSuite) newStore() *FixtureStore {
	return NewFixtureStore(map[string]string{"fam1": s.path})
}

func (s *orchestratorSuite) TestEvaluateDominantShortcut(c *check.C) {
	store := s.newStore()
	result, err := Evaluate(context.Background(), store, Request{
		Dataset:   "fam1",
		Selection: familySelection(),
		Scenario:  ScenarioDominant,
	})
	c.Assert(err, check.IsNil)
	c.Check(result.Total, check.Equals, 2)
	ids := make([]VariantID, len(result.Rows))
	for i, r := range result.Rows {
		ids[i] = r.VariantID
	}
	c.Check(ids, check.DeepEquals, []VariantID{1, 2})
}

func (s *orchestratorSuite) TestEvaluateWithPredicateAndSort(c *check.C) {
	store := s.newStore()
	result, err := Evaluate(context.Background(), store, Request{
		Dataset:    "fam1",
		Selection:  familySelection(),
		Scenario:   ScenarioDominant,
		Predicates: []VariantPredicate{NewContinuousPredicate("quality", OpGE, 50, NoneExclude)},
		Sort:       "start",
	})
	c.Assert(err, check.IsNil)
	c.Check(result.Total, check.Equals, 1)
	c.Assert(result.Rows, check.HasLen, 1)
	c.Check(result.Rows[0].VariantID, check.Equals, VariantID(1))
}

func (s *orchestratorSuite) TestEvaluateImpossibleScenarioYieldsEmptyResult(c *check.C) {
	samples := familySamples()
	groups := GroupsFromPhenotype(samples)
	delete(groups, "affected")
	ss, err := NewSamplesSelection(samples, groups)
	c.Assert(err, check.IsNil)

	store := s.newStore()
	result, err := Evaluate(context.Background(), store, Request{
		Dataset:   "fam1",
		Selection: ss,
		Scenario:  ScenarioDominant,
	})
	c.Assert(err, check.IsNil)
	c.Check(result.Total, check.Equals, 0)
	c.Check(result.Rows, check.HasLen, 0)
}

func (s *orchestratorSuite) TestEvaluateRequiresSelection(c *check.C) {
	store := s.newStore()
	_, err := Evaluate(context.Background(), store, Request{Dataset: "fam1"})
	c.Assert(err, check.NotNil)
	_, ok := err.(*InvalidSelectionError)
	c.Check(ok, check.Equals, true)
}

func (s *orchestratorSuite) TestEvaluateIsIdempotentOverItsOwnResult(c *check.C) {
	store := s.newStore()
	first, err := Evaluate(context.Background(), store, Request{
		Dataset:   "fam1",
		Selection: familySelection(),
		Scenario:  ScenarioDominant,
	})
	c.Assert(err, check.IsNil)

	second, err := Evaluate(context.Background(), store, Request{
		Dataset:    "fam1",
		Selection:  familySelection(),
		Scenario:   ScenarioDominant,
		Predicates: []VariantPredicate{NewVariantIDPredicate(first.IDs)},
	})
	c.Assert(err, check.IsNil)
	c.Check(second.IDs, check.DeepEquals, first.IDs)
}
