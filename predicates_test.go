// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genofilter

import "gopkg.in/check.v1"

type predicateSuite struct{}

var _ = check.Suite(&predicateSuite{})

func (s *predicateSuite) TestContinuousPredicateNonePolicies(c *check.C) {
	row := VariantRow{Fields: map[string]any{}}
	c.Check(NewContinuousPredicate("quality", OpGE, 10, NoneExclude).Match(row), check.Equals, false)
	c.Check(NewContinuousPredicate("quality", OpGE, 10, NoneInclude).Match(row), check.Equals, true)
	c.Check(NewContinuousPredicate("quality", OpLE, 10, NoneLower).Match(row), check.Equals, true)
	c.Check(NewContinuousPredicate("quality", OpGE, 10, NoneHigher).Match(row), check.Equals, true)
	c.Check(NewContinuousPredicate("quality", OpGE, 10, NoneLower).Match(row), check.Equals, false)
}

func (s *predicateSuite) TestEnumPredicateCaseInsensitiveByDefault(c *check.C) {
	row := VariantRow{Fields: map[string]any{"impact": "HIGH"}}
	p := NewEnumPredicate("impact", []string{"high", "moderate"}, false)
	c.Check(p.Match(row), check.Equals, true)

	sensitive := NewEnumPredicate("impact", []string{"high"}, true)
	c.Check(sensitive.Match(row), check.Equals, false)
}

func (s *predicateSuite) TestLocationPredicateHalfOpenRange(c *check.C) {
	p := NewLocationPredicate([]GenomicRange{{Chrom: "chr1", Start: 100, End: 200}})
	c.Check(p.Match(VariantRow{Chrom: "chr1", Start: 100}), check.Equals, true)
	c.Check(p.Match(VariantRow{Chrom: "chr1", Start: 200}), check.Equals, false)
	c.Check(p.Match(VariantRow{Chrom: "chr2", Start: 150}), check.Equals, false)
}

func (s *predicateSuite) TestBinaryPredicate(c *check.C) {
	p := NewBinaryPredicate("in_dbsnp", true)
	c.Check(p.Match(VariantRow{Fields: map[string]any{"in_dbsnp": true}}), check.Equals, true)
	c.Check(p.Match(VariantRow{Fields: map[string]any{"in_dbsnp": false}}), check.Equals, false)
	c.Check(p.Match(VariantRow{Fields: map[string]any{}}), check.Equals, false)
}
