// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genofilter

import "sort"

// RegionMask is a per-chromosome interval tree testing point/region
// membership in O(log n) once frozen, adapted from the teacher's mask
// type (originally built to mask out known-bad reference regions) to back
// a location VariantPredicate's range lookups instead of a linear scan,
// which matters once a request names hundreds of exon or capture-kit
// intervals.
type RegionMask struct {
	intervals map[string][]regionInterval
	itrees    map[string]regionIntervalTree
	frozen    bool
}

type regionInterval struct {
	start int64
	end   int64
}

type regionIntervalNode struct {
	interval regionInterval
	maxend   int64
}

type regionIntervalTree []regionIntervalNode

// Add registers one region on chrom covering start through end, both
// inclusive. Must be called before Freeze.
func (m *RegionMask) Add(chrom string, start, end int64) {
	if m.intervals == nil {
		m.intervals = map[string][]regionInterval{}
	}
	m.intervals[chrom] = append(m.intervals[chrom], regionInterval{start, end})
}

// Freeze builds the interval trees from every region added so far. Check
// panics if called before Freeze.
func (m *RegionMask) Freeze() {
	m.itrees = map[string]regionIntervalTree{}
	for chrom, regions := range m.intervals {
		m.itrees[chrom] = freezeRegions(regions)
	}
	m.frozen = true
}

// Check reports whether the inclusive range [start,end] overlaps any
// region added for chrom.
func (m *RegionMask) Check(chrom string, start, end int64) bool {
	if !m.frozen {
		panic("bug: RegionMask.Check called before Freeze")
	}
	return m.itrees[chrom].overlaps(0, regionInterval{start, end})
}

func freezeRegions(in []regionInterval) regionIntervalTree {
	if len(in) == 0 {
		return nil
	}
	sort.Slice(in, func(i, j int) bool { return in[i].start < in[j].start })
	size := 1
	for size < len(in) {
		size *= 2
	}
	tree := make(regionIntervalTree, size)
	tree.importSlice(0, in)
	for i := len(in); i < size; i++ {
		tree[i].maxend = -1
	}
	return tree
}

func (tree regionIntervalTree) overlaps(root int, q regionInterval) bool {
	return root < len(tree) &&
		tree[root].maxend >= q.start &&
		((tree[root].interval.start <= q.end && tree[root].interval.end >= q.start) ||
			tree.overlaps(root*2+1, q) ||
			tree.overlaps(root*2+2, q))
}

func (tree regionIntervalTree) importSlice(root int, in []regionInterval) int64 {
	mid := len(in) / 2
	node := regionIntervalNode{interval: in[mid], maxend: in[mid].end}
	if mid > 0 {
		if end := tree.importSlice(root*2+1, in[0:mid]); end > node.maxend {
			node.maxend = end
		}
	}
	if mid+1 < len(in) {
		if end := tree.importSlice(root*2+2, in[mid+1:]); end > node.maxend {
			node.maxend = end
		}
	}
	tree[root] = node
	return node.maxend
}
