// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genofilter

import "gopkg.in/check.v1"

type packedSetSuite struct{}

var _ = check.Suite(&packedSetSuite{})

func (s *packedSetSuite) TestPackAndToIndicesRoundTrip(c *check.C) {
	ids := []VariantID{1, 3, 8, 9, 17}
	p := PackIDs(ids, 20)
	c.Check(p.ToIndices(), check.DeepEquals, ids)
	c.Check(p.Len(), check.Equals, len(ids))
	for _, id := range ids {
		c.Check(p.Test(id), check.Equals, true)
	}
	c.Check(p.Test(2), check.Equals, false)
}

func (s *packedSetSuite) TestAndIntersects(c *check.C) {
	a := PackIDs([]VariantID{1, 2, 3, 4}, 10)
	b := PackIDs([]VariantID{2, 4, 6}, 10)
	got := a.And(b)
	c.Check(got.ToIndices(), check.DeepEquals, []VariantID{2, 4})
}

func (s *packedSetSuite) TestIDsOutOfRangeAreIgnored(c *check.C) {
	p := PackIDs([]VariantID{1, 2, 100}, 4)
	c.Check(p.ToIndices(), check.DeepEquals, []VariantID{1, 2})
}
