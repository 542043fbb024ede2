// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genofilter

import "strings"

// CompareOp is a comparison operator for a ContinuousPredicate.
type CompareOp string

const (
	OpLT CompareOp = "<"
	OpLE CompareOp = "<="
	OpEQ CompareOp = "="
	OpGE CompareOp = ">="
	OpGT CompareOp = ">"
)

// NonePolicy governs how a ContinuousPredicate treats a variant whose
// attribute value is absent (nil in VariantRow.Fields), mirroring the
// source's ContinuousFilter(none_is=...) parameter.
type NonePolicy int

const (
	// NoneExclude drops variants with no value, whatever the filter.
	NoneExclude NonePolicy = iota
	// NoneLower treats an absent value as -inf (e.g. rare/absent frequency).
	NoneLower
	// NoneHigher treats an absent value as +inf (e.g. an unscored p-value).
	NoneHigher
	// NoneInclude always lets a variant with no value pass.
	NoneInclude
)

// GenomicRange is a half-open [Start,End) interval on one chromosome.
type GenomicRange struct {
	Chrom string
	Start int64
	End   int64
}

// VariantPredicate is a variant-attribute filter pushed to the store as a
// query fragment and, for in-memory evaluation (tests, a store-less
// pipeline), evaluated directly against a VariantRow. The engine never
// interprets the predicate itself — only the store (or Match, for
// testing) does. Replaces the source's per-subclass dynamic dispatch
// (VariantFilter hierarchy) with one tagged value.
type VariantPredicate struct {
	Field string

	kind predicateKind

	// Continuous
	op     CompareOp
	cval   float64
	noneIs NonePolicy

	// Enum / set membership
	values    map[string]bool
	sensitive bool

	// Binary
	bval bool

	// Location
	mask *RegionMask

	// VariantID set
	ids map[VariantID]bool
}

type predicateKind int

const (
	kindContinuous predicateKind = iota
	kindEnum
	kindBinary
	kindLocation
	kindVariantID
)

// NewContinuousPredicate builds a predicate over a float-valued field,
// e.g. quality<=100 or cadd_scaled>=20.
func NewContinuousPredicate(field string, op CompareOp, value float64, noneIs NonePolicy) VariantPredicate {
	return VariantPredicate{Field: field, kind: kindContinuous, op: op, cval: value, noneIs: noneIs}
}

// NewEnumPredicate builds a set-membership predicate over a string field,
// e.g. impact in {exon,intron}. Matching is case-insensitive unless
// sensitive is set (location/transcript identifiers are case-sensitive).
func NewEnumPredicate(field string, accepted []string, sensitive bool) VariantPredicate {
	set := make(map[string]bool, len(accepted))
	for _, v := range accepted {
		if !sensitive {
			v = strings.ToLower(v)
		}
		set[v] = true
	}
	return VariantPredicate{Field: field, kind: kindEnum, values: set, sensitive: sensitive}
}

// NewBinaryPredicate builds a boolean-equality predicate, e.g. in_dbsnp=true.
func NewBinaryPredicate(field string, value bool) VariantPredicate {
	return VariantPredicate{Field: field, kind: kindBinary, bval: value}
}

// NewLocationPredicate builds a predicate matching any of the given
// genomic ranges, backed by a RegionMask interval tree so a request naming
// many ranges (a capture kit's exon list, say) stays O(log n) per variant
// rather than scanning the whole range list.
func NewLocationPredicate(ranges []GenomicRange) VariantPredicate {
	mask := &RegionMask{}
	for _, rg := range ranges {
		// RegionMask.Check treats bounds as inclusive; translate the
		// half-open [Start,End) convention by storing an inclusive end.
		mask.Add(rg.Chrom, rg.Start, rg.End-1)
	}
	mask.Freeze()
	return VariantPredicate{Field: "location", kind: kindLocation, mask: mask}
}

// NewVariantIDPredicate builds a predicate matching a fixed set of ids,
// the mechanism Testable Property 1 (idempotence) uses to feed a prior
// result back in as a filter.
func NewVariantIDPredicate(ids []VariantID) VariantPredicate {
	set := make(map[VariantID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return VariantPredicate{Field: "variant_id", kind: kindVariantID, ids: set}
}

// Match reports whether row satisfies the predicate. Stores that evaluate
// predicates in-process (rather than pushing them to a query planner) use
// this directly; FixtureStore does.
func (p VariantPredicate) Match(row VariantRow) bool {
	switch p.kind {
	case kindVariantID:
		return p.ids[row.VariantID]
	case kindLocation:
		return p.mask.Check(row.Chrom, row.Start, row.Start)
	case kindBinary:
		v, ok := row.Fields[p.Field].(bool)
		if !ok {
			return false
		}
		return v == p.bval
	case kindEnum:
		v, ok := row.Fields[p.Field].(string)
		if !ok {
			return false
		}
		if !p.sensitive {
			v = strings.ToLower(v)
		}
		return p.values[v]
	case kindContinuous:
		v, ok := row.Fields[p.Field].(float64)
		if !ok {
			switch p.noneIs {
			case NoneLower:
				return p.op == OpLE || p.op == OpLT
			case NoneHigher:
				return p.op == OpGE || p.op == OpGT
			case NoneInclude:
				return true
			default: // NoneExclude
				return false
			}
		}
		switch p.op {
		case OpLT:
			return v < p.cval
		case OpLE:
			return v <= p.cval
		case OpEQ:
			return v == p.cval
		case OpGE:
			return v >= p.cval
		case OpGT:
			return v > p.cval
		default:
			return false
		}
	default:
		return false
	}
}
