// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genofilter

// familySamples returns the six-member pedigree (M=Mother, F=Father,
// C1=Sasha, C2=Dasha, C3=Lesha, L=Lena) used across the scenario and
// compound-het tests: Father and Mother are founders, Sasha and Dasha are
// their affected children, Lesha their unaffected child, and Lena an
// unrelated not-affected sample with no pedigree link to the rest of the
// family — deliberately present so a constraint that should apply to
// "every active not-affected sample" rather than just "parents of an
// affected child" has someone to catch it failing on. Sample order matches
// column order in every test genotype matrix built from it.
func familySamples() []Sample {
	return []Sample{
		{Name: "Father", FamilyID: "FAM1", Sex: SexMale, Phenotype: PhenotypeNotAffected},
		{Name: "Mother", FamilyID: "FAM1", Sex: SexFemale, Phenotype: PhenotypeNotAffected},
		{Name: "Sasha", FamilyID: "FAM1", MotherName: "Mother", FatherName: "Father", Sex: SexMale, Phenotype: PhenotypeAffected},
		{Name: "Dasha", FamilyID: "FAM1", MotherName: "Mother", FatherName: "Father", Sex: SexFemale, Phenotype: PhenotypeAffected},
		{Name: "Lesha", FamilyID: "FAM1", MotherName: "Mother", FatherName: "Father", Sex: SexMale, Phenotype: PhenotypeNotAffected},
		{Name: "Lena", FamilyID: "FAM2", Sex: SexFemale, Phenotype: PhenotypeNotAffected},
	}
}

// familySelection builds the default affected/not_affected selection over
// familySamples, with every member active.
func familySelection() *SamplesSelection {
	samples := familySamples()
	groups := GroupsFromPhenotype(samples)
	ss, err := NewSamplesSelection(samples, groups)
	if err != nil {
		panic(err)
	}
	return ss
}

// familyIdx resolves the family fixture's column index for name, in
// familySamples order: Father=0 Mother=1 Sasha=2 Dasha=3 Lesha=4 Lena=5.
func familyIdx(name string) int {
	for i, s := range familySamples() {
		if s.Name == name {
			return i
		}
	}
	panic("unknown sample " + name)
}
