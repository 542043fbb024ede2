// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genofilter

import (
	"context"

	"gopkg.in/check.v1"
)

type scannerSuite struct{}

var _ = check.Suite(&scannerSuite{})

func (s *scannerSuite) TestScanGenotypesFiltersAndPreservesOrder(c *check.C) {
	ss := familySelection()
	cond, impossible, err := CompileScenario(ss, ScenarioDominant)
	c.Assert(err, check.IsNil)
	c.Assert(impossible, check.Equals, false)

	// Dominant-compatible: both affected (Sasha, Dasha) carry, everyone else doesn't.
	pass := []RawCall{RawHomRef, RawHomRef, RawHet, RawHet, RawHomRef, RawHomRef}
	// Same pattern, but Lena (not affected, unrelated) also carries.
	fail := []RawCall{RawHomRef, RawHomRef, RawHet, RawHet, RawHomRef, RawHet}
	matrix := buildMatrix([][]RawCall{pass, fail, pass, fail, pass})
	candidates := []VariantID{1, 2, 3, 4, 5}

	got, err := ScanGenotypes(context.Background(), matrix, candidates, cond, 2)
	c.Assert(err, check.IsNil)
	c.Check(got, check.DeepEquals, []VariantID{1, 3, 5})
}

func (s *scannerSuite) TestScanGenotypesEmptyConditionReturnsAllCandidates(c *check.C) {
	matrix := buildMatrix([][]RawCall{
		{RawHomRef, RawHomRef, RawHomRef, RawHomRef, RawHomRef, RawHomRef},
	})
	got, err := ScanGenotypes(context.Background(), matrix, []VariantID{1}, conditionSet{}, 4)
	c.Assert(err, check.IsNil)
	c.Check(got, check.DeepEquals, []VariantID{1})
}

func (s *scannerSuite) TestScanGenotypesHonorsCancellation(c *check.C) {
	ss := familySelection()
	cond, _, _ := CompileScenario(ss, ScenarioDominant)
	row := []RawCall{RawHomRef, RawHomRef, RawHet, RawHet, RawHomRef, RawHomRef}
	rows := make([][]RawCall, 200)
	for i := range rows {
		rows[i] = row
	}
	matrix := buildMatrix(rows)
	candidates := make([]VariantID, 200)
	for i := range candidates {
		candidates[i] = VariantID(i + 1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ScanGenotypes(ctx, matrix, candidates, cond, 4)
	c.Assert(err, check.NotNil)
	_, ok := err.(*CancelledError)
	c.Check(ok, check.Equals, true)
}
