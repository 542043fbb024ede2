// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genofilter

import "sort"

// GenotypeScenario names one of the built-in inheritance patterns the
// condition compiler knows how to turn into per-sample bitmask
// constraints. CompoundHeterozygous is deliberately not a GenotypeScenario
// value: its two-pass, per-gene algorithm (compound.go) doesn't fit the
// single condition-array shape the other scenarios share, exactly as the
// source splits GenotypesFilterCompoundHeterozygous out of the
// build_conditions_array family.
type GenotypeScenario int

const (
	// ScenarioNothing applies no genotype constraint at all; every active
	// sample is left at Any. Used when a request selects samples but asks
	// for no inheritance pattern.
	ScenarioNothing GenotypeScenario = iota
	// ScenarioActive requires every active sample to carry the variant.
	ScenarioActive
	// ScenarioDominant requires every affected sample to carry the variant
	// and every not-affected sample not to.
	ScenarioDominant
	// ScenarioRecessive requires every affected sample to be homozygous for
	// the variant, each of its active parents to carry at least one copy,
	// and every not-affected sample not to be homozygous.
	ScenarioRecessive
	// ScenarioDeNovo requires every affected sample with two active,
	// not-affected parents to be heterozygous while both parents carry
	// neither allele, and every other active not-affected sample to carry
	// neither allele either.
	ScenarioDeNovo
	// ScenarioXLinked applies sex-aware recessive constraints restricted to
	// chrX: an affected male need only be heterozygous (hemizygous), with
	// his active mother required to carry at least one copy; an affected
	// female must be homozygous, with each active parent required to
	// carry; not-affected males must be non-carriers and not-affected
	// females must not be homozygous.
	ScenarioXLinked
)

// conditionSet maps an active-sample position (as returned by
// SamplesSelection.ActiveIdx, MotherIdxOf, etc.) to the GenoBit mask that
// sample's call must satisfy. A position absent from the set is
// unconstrained (equivalent to mapping it to Any).
type conditionSet map[int]GenoBit

// mergeConditions AND-reduces a list of (index, mask) pairs that may name
// the same index more than once — e.g. a sample that is both "affected"
// and a "parent of an affected sibling" picks up one constraint from each
// role. This mirrors the source's merge_conditions_array: sort by index,
// group runs of the same index, AND their masks together. A merged mask
// of zero means no call can ever satisfy all the roles assigned to that
// sample, so the whole scenario is impossible for this selection.
func mergeConditions(pairs []struct {
	idx  int
	mask GenoBit
}) (conditionSet, bool) {
	if len(pairs) == 0 {
		return conditionSet{}, false
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].idx < pairs[j].idx })
	out := make(conditionSet, len(pairs))
	i := 0
	for i < len(pairs) {
		j := i + 1
		mask := pairs[i].mask
		for j < len(pairs) && pairs[j].idx == pairs[i].idx {
			mask &= pairs[j].mask
			j++
		}
		if mask == 0 {
			return nil, true
		}
		out[pairs[i].idx] = mask
		i = j
	}
	return out, false
}

func pair(idx int, mask GenoBit) struct {
	idx  int
	mask GenoBit
} {
	return struct {
		idx  int
		mask GenoBit
	}{idx, mask}
}

// CompileScenario builds the per-active-sample condition set for scenario
// against ss. The second return value reports the scenario's "shortcut":
// true means the constraints can never all be satisfied (e.g. a Dominant
// request with no affected samples selected, or a chrX request with no
// chrX-restricted role at all), and the caller should treat the filter as
// producing an empty result without ever touching the genotype matrix —
// the same early exit as the source's GenotypesFilter "is_empty" checks.
func CompileScenario(ss *SamplesSelection, scenario GenotypeScenario) (conditionSet, bool, error) {
	switch scenario {
	case ScenarioNothing:
		return conditionSet{}, false, nil

	case ScenarioActive:
		if len(ss.ActiveIdx()) == 0 {
			return nil, true, nil
		}
		var pairs []struct {
			idx  int
			mask GenoBit
		}
		for _, i := range ss.ActiveIdx() {
			pairs = append(pairs, pair(i, Carrier))
		}
		cs, impossible := mergeConditions(pairs)
		return cs, impossible, nil

	case ScenarioDominant:
		if len(ss.AffectedIdx()) == 0 {
			return nil, true, nil
		}
		var pairs []struct {
			idx  int
			mask GenoBit
		}
		for _, i := range ss.AffectedIdx() {
			pairs = append(pairs, pair(i, Carrier))
		}
		for _, i := range ss.NotAffectedIdx() {
			pairs = append(pairs, pair(i, NonCarrier))
		}
		cs, impossible := mergeConditions(pairs)
		return cs, impossible, nil

	case ScenarioRecessive:
		if len(ss.AffectedIdx()) == 0 {
			return nil, true, nil
		}
		var pairs []struct {
			idx  int
			mask GenoBit
		}
		for _, i := range ss.AffectedIdx() {
			pairs = append(pairs, pair(i, CarrierHom))
			s := ss.Sample(i)
			for _, p := range ss.ParentsIdxOf(s) {
				pairs = append(pairs, pair(p, Carrier))
			}
		}
		for _, i := range ss.NotAffectedIdx() {
			pairs = append(pairs, pair(i, NotCarrierHom))
		}
		cs, impossible := mergeConditions(pairs)
		return cs, impossible, nil

	case ScenarioDeNovo:
		if len(ss.AffectedIdx()) == 0 {
			return nil, true, nil
		}
		affectedSet := make(map[int]bool, len(ss.AffectedIdx()))
		for _, i := range ss.AffectedIdx() {
			affectedSet[i] = true
		}
		var pairs []struct {
			idx  int
			mask GenoBit
		}
		anyQualifying := false
		for _, i := range ss.AffectedIdx() {
			s := ss.Sample(i)
			parents := ss.ParentsIdxOf(s)
			if len(parents) != 2 {
				// De novo can only be confirmed against both active
				// parents; a child missing one is skipped rather than
				// trusted on a single parent's genotype alone.
				continue
			}
			if affectedSet[parents[0]] || affectedSet[parents[1]] {
				// An affected parent makes the variant inherited, not
				// de novo, so this child can't gate the scenario.
				continue
			}
			anyQualifying = true
			pairs = append(pairs, pair(i, CarrierHet))
			for _, p := range parents {
				pairs = append(pairs, pair(p, NonCarrierHom))
			}
		}
		if !anyQualifying {
			// De novo is meaningless without at least one affected child
			// whose origin can actually be confirmed against both active
			// parents: the source treats this the same as an
			// unsatisfiable request.
			return nil, true, nil
		}
		for _, i := range ss.NotAffectedIdx() {
			pairs = append(pairs, pair(i, NonCarrier))
		}
		cs, impossible := mergeConditions(pairs)
		return cs, impossible, nil

	case ScenarioXLinked:
		if len(ss.AffectedIdx()) == 0 {
			return nil, true, nil
		}
		var pairs []struct {
			idx  int
			mask GenoBit
		}
		for _, i := range ss.AffectedIdx() {
			s := ss.Sample(i)
			if s.Sex == SexMale {
				// Hemizygous: one copy is sufficient, and it must have
				// come from his mother (sons never inherit an X from
				// their father).
				pairs = append(pairs, pair(i, CarrierHet))
				if mother := ss.MotherIdxOf(s); mother >= 0 {
					pairs = append(pairs, pair(mother, Carrier))
				}
			} else {
				// An affected daughter received one X from each parent,
				// so both active parents must carry.
				pairs = append(pairs, pair(i, CarrierHom))
				for _, p := range ss.ParentsIdxOf(s) {
					pairs = append(pairs, pair(p, Carrier))
				}
			}
		}
		for _, i := range ss.NotAffectedIdx() {
			s := ss.Sample(i)
			if s.Sex == SexMale {
				pairs = append(pairs, pair(i, NonCarrier))
			} else {
				pairs = append(pairs, pair(i, NotCarrierHom))
			}
		}
		cs, impossible := mergeConditions(pairs)
		return cs, impossible, nil

	default:
		return nil, false, &InvalidSelectionError{Reason: "unknown genotype scenario"}
	}
}
