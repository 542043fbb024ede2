// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genofilter

// Sex is a sample's reported sex, as resolved from pedigree (PED) codes.
type Sex byte

const (
	SexUnknown Sex = 'U'
	SexMale    Sex = 'M'
	SexFemale  Sex = 'F'
)

// sexFromPED maps a PED-style sex code (1=male, 2=female) or an already
// resolved letter to a Sex, defaulting to SexUnknown.
func sexFromPED(code string) Sex {
	switch code {
	case "1", "M", "m":
		return SexMale
	case "2", "F", "f":
		return SexFemale
	default:
		return SexUnknown
	}
}

// Phenotype is a PED-style phenotype code: 0=unknown, 1=not affected,
// 2=affected. GroupsFromPhenotype uses it to derive default groups when
// a caller supplies none explicitly.
type Phenotype byte

const (
	PhenotypeUnknown     Phenotype = '0'
	PhenotypeNotAffected Phenotype = '1'
	PhenotypeAffected    Phenotype = '2'
)

// Sample is one cohort member as read from the store: its identity and
// pedigree links by name. Pedigree links (MotherName/FatherName) are
// resolved to positions only within a SamplesSelection; Sample itself
// carries no back-references, so arbitrarily many selections can share
// the same underlying Sample rows without aliasing state.
type Sample struct {
	Name       string
	SampleID   int
	FamilyID   string
	MotherName string
	FatherName string
	Sex        Sex
	Phenotype  Phenotype
}

// selectedSample augments a Sample with the group/active bookkeeping a
// SamplesSelection assigns to it. It never leaks back to the store: a
// selection deep-copies its input Samples before attaching this state.
type selectedSample struct {
	Sample
	Group  string
	Active bool
}
