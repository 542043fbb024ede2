// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genofilter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// SamplesSelection is an ordered, immutable (for its lifetime) view over
// a cohort: an arena of samples deep-copied from the store so group/active
// mutation never leaks back, plus the group membership and derived index
// lists the condition compiler (C4) and compound engine (C6) need.
//
// Pedigree is represented as name lookups into this arena, not owning
// pointers: MotherIdxOf/FatherIdxOf/ParentsIdxOf look a parent's name up
// in byName on each call, which keeps the structure acyclic regardless of
// how the underlying pedigree graph is shaped.
type SamplesSelection struct {
	samples []selectedSample
	byName  map[string]int // name -> position in samples

	groups map[string][]string // group name -> member names, as given

	affectedIdx    []int
	notAffectedIdx []int
	activeIdx      []int
}

// NewSamplesSelection builds a selection from an ordered sample list and a
// group-name -> member-names map. Every name mentioned in groups must
// exist in samples, and samples must have unique names, or an
// *InvalidSelectionError is returned. A sample is active iff it belongs to
// at least one group.
func NewSamplesSelection(samples []Sample, groups map[string][]string) (*SamplesSelection, error) {
	ss := &SamplesSelection{
		samples: make([]selectedSample, len(samples)),
		byName:  make(map[string]int, len(samples)),
		groups:  map[string][]string{},
	}
	for i, s := range samples {
		ss.samples[i] = selectedSample{Sample: s}
		if _, dup := ss.byName[s.Name]; dup {
			return nil, &InvalidSelectionError{Reason: fmt.Sprintf("duplicate sample name %q", s.Name)}
		}
		ss.byName[s.Name] = i
	}
	for group, names := range groups {
		for _, name := range names {
			i, ok := ss.byName[name]
			if !ok {
				return nil, &InvalidSelectionError{Reason: fmt.Sprintf("group %q references unknown sample %q", group, name)}
			}
			ss.samples[i].Group = group
			ss.samples[i].Active = true
		}
		cp := make([]string, len(names))
		copy(cp, names)
		ss.groups[group] = cp
	}
	for i, s := range ss.samples {
		if s.Active {
			ss.activeIdx = append(ss.activeIdx, i)
		}
	}
	ss.affectedIdx = ss.idxsOfGroup("affected")
	ss.notAffectedIdx = ss.idxsOfGroup("not_affected")
	return ss, nil
}

// GroupsFromPhenotype derives {"affected": [...], "not_affected": [...]}
// group membership from each sample's PED phenotype code, for callers that
// have pedigree data but no explicit group selection from the request
// layer. Samples with PhenotypeUnknown belong to neither group.
func GroupsFromPhenotype(samples []Sample) map[string][]string {
	groups := map[string][]string{}
	for _, s := range samples {
		switch s.Phenotype {
		case PhenotypeAffected:
			groups["affected"] = append(groups["affected"], s.Name)
		case PhenotypeNotAffected:
			groups["not_affected"] = append(groups["not_affected"], s.Name)
		}
	}
	return groups
}

// Len returns the number of samples in the selection.
func (ss *SamplesSelection) Len() int { return len(ss.samples) }

// Sample returns the i'th sample in selection order.
func (ss *SamplesSelection) Sample(i int) Sample { return ss.samples[i].Sample }

// Group returns the group label attached to sample i, or "" if inactive.
func (ss *SamplesSelection) Group(i int) string { return ss.samples[i].Group }

// Active reports whether sample i belongs to any group.
func (ss *SamplesSelection) Active(i int) bool { return ss.samples[i].Active }

// ActiveIdx returns the positions of active samples, in selection order.
func (ss *SamplesSelection) ActiveIdx() []int { return ss.activeIdx }

// AffectedIdx returns the positions of the "affected" group's members.
func (ss *SamplesSelection) AffectedIdx() []int { return ss.affectedIdx }

// NotAffectedIdx returns the positions of the "not_affected" group's members.
func (ss *SamplesSelection) NotAffectedIdx() []int { return ss.notAffectedIdx }

// HasGroup reports whether a non-empty group of that name exists.
func (ss *SamplesSelection) HasGroup(name string) bool {
	return len(ss.groups[name]) > 0
}

// IdxOf returns the position of the named sample, or -1 if not found (or
// not active, when activeOnly is set).
func (ss *SamplesSelection) IdxOf(name string, activeOnly bool) int {
	i, ok := ss.byName[name]
	if !ok {
		return -1
	}
	if activeOnly && !ss.samples[i].Active {
		return -1
	}
	return i
}

// IdxsOf returns the positions of the named samples, skipping any name
// that doesn't resolve (unknown, or inactive when activeOnly is set).
func (ss *SamplesSelection) IdxsOf(names []string, activeOnly bool) []int {
	idxs := make([]int, 0, len(names))
	for _, n := range names {
		if i := ss.IdxOf(n, activeOnly); i >= 0 {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func (ss *SamplesSelection) idxsOfGroup(group string) []int {
	names, ok := ss.groups[group]
	if !ok {
		return nil
	}
	return ss.IdxsOf(names, true)
}

// motherIdx returns the position of s's mother, or -1 if absent.
func (ss *SamplesSelection) motherIdx(s Sample) int {
	if s.MotherName == "" {
		return -1
	}
	i, ok := ss.byName[s.MotherName]
	if !ok {
		return -1
	}
	return i
}

// fatherIdx returns the position of s's father, or -1 if absent.
func (ss *SamplesSelection) fatherIdx(s Sample) int {
	if s.FatherName == "" {
		return -1
	}
	i, ok := ss.byName[s.FatherName]
	if !ok {
		return -1
	}
	return i
}

// MotherIdxOf returns the active-selection position of s's mother, or -1
// if she's absent or not active. Used only by genotype filters, which
// only ever care about active parents (c.f. data_models/samples.py's
// comment "FOR GENOTYPE FILTERS (ACTIVE ONLY)").
func (ss *SamplesSelection) MotherIdxOf(s Sample) int {
	i := ss.motherIdx(s)
	if i < 0 || !ss.samples[i].Active {
		return -1
	}
	return i
}

// FatherIdxOf returns the active-selection position of s's father, or -1
// if he's absent or not active.
func (ss *SamplesSelection) FatherIdxOf(s Sample) int {
	i := ss.fatherIdx(s)
	if i < 0 || !ss.samples[i].Active {
		return -1
	}
	return i
}

// ParentsIdxOf returns the active positions of s's active parents, mother
// first then father, omitting whichever is absent or inactive.
func (ss *SamplesSelection) ParentsIdxOf(s Sample) []int {
	var parents []int
	if i := ss.MotherIdxOf(s); i >= 0 {
		parents = append(parents, i)
	}
	if i := ss.FatherIdxOf(s); i >= 0 {
		parents = append(parents, i)
	}
	return parents
}

// Affected returns the Sample values in the "affected" group.
func (ss *SamplesSelection) Affected() []Sample {
	return ss.samplesAt(ss.affectedIdx)
}

// NotAffected returns the Sample values in the "not_affected" group.
func (ss *SamplesSelection) NotAffected() []Sample {
	return ss.samplesAt(ss.notAffectedIdx)
}

// ActiveSamples returns the Sample values of every active sample.
func (ss *SamplesSelection) ActiveSamples() []Sample {
	return ss.samplesAt(ss.activeIdx)
}

func (ss *SamplesSelection) samplesAt(idx []int) []Sample {
	out := make([]Sample, len(idx))
	for i, pos := range idx {
		out[i] = ss.samples[pos].Sample
	}
	return out
}

// SelectActive returns the sublist of row (length ss.Len(), in store
// column order) at the active positions, in selection order. row must
// have exactly ss.Len() elements.
func (ss *SamplesSelection) SelectActive(row []GenoBit) ([]GenoBit, error) {
	if len(row) != ss.Len() {
		return nil, &InvalidSelectionError{Reason: fmt.Sprintf(
			"row has %d elements, selection has %d samples", len(row), ss.Len())}
	}
	out := make([]GenoBit, len(ss.activeIdx))
	for i, pos := range ss.activeIdx {
		out[i] = row[pos]
	}
	return out, nil
}

// CacheKey is a stable hash over (name, group, active) triples in
// name-sorted order, so it is invariant under permutation of the input
// sample list that produced an equivalent selection.
func (ss *SamplesSelection) CacheKey() string {
	ordered := make([]int, len(ss.samples))
	for i := range ordered {
		ordered[i] = i
	}
	sort.Slice(ordered, func(a, b int) bool {
		return ss.samples[ordered[a]].Name < ss.samples[ordered[b]].Name
	})
	var sb strings.Builder
	for n, i := range ordered {
		if n > 0 {
			sb.WriteByte('&')
		}
		s := ss.samples[i]
		sb.WriteString(s.Name)
		sb.WriteByte('/')
		sb.WriteString(s.Group)
		sb.WriteByte('/')
		sb.WriteString(strconv.FormatBool(s.Active))
	}
	sum := blake2b.Sum256([]byte(sb.String()))
	return fmt.Sprintf("%x", sum)
}
