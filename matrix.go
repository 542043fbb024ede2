// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genofilter

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/pgzip"
)

// GenotypeMatrix is an immutable N-variants x S-samples matrix of
// bit-encoded genotype calls. Row i (0-based) corresponds to
// VariantID(i+1); columns are in the store's sample order, not any
// selection's active subset. It is never mutated after construction.
type GenotypeMatrix struct {
	nVariants int
	nSamples  int
	data      []GenoBit
}

// NewGenotypeMatrix allocates a zeroed nVariants x nSamples matrix.
func NewGenotypeMatrix(nVariants, nSamples int) *GenotypeMatrix {
	return &GenotypeMatrix{
		nVariants: nVariants,
		nSamples:  nSamples,
		data:      make([]GenoBit, nVariants*nSamples),
	}
}

// VariantCount returns the number of rows (N).
func (m *GenotypeMatrix) VariantCount() int { return m.nVariants }

// SampleCount returns the number of columns (S).
func (m *GenotypeMatrix) SampleCount() int { return m.nSamples }

// Row returns the genotype row for id, a slice of length SampleCount()
// aliasing the matrix's backing array. It panics if id is out of range;
// callers that read ids from an external index should validate with
// checkVariantID first so a malformed index surfaces as an IntegrityError
// rather than a panic.
func (m *GenotypeMatrix) Row(id VariantID) []GenoBit {
	r := int(id) - 1
	return m.data[r*m.nSamples : (r+1)*m.nSamples]
}

// SetRow overwrites the row for id with the elementwise encoding of raw.
// Used only while building a matrix (e.g. from store rows or a fixture).
func (m *GenotypeMatrix) SetRow(id VariantID, raw []RawCall) error {
	if len(raw) != m.nSamples {
		return &IntegrityError{Reason: fmt.Sprintf(
			"variant %d: row has %d genotype calls, expected %d", id, len(raw), m.nSamples)}
	}
	row := m.Row(id)
	for i, r := range raw {
		row[i] = encode(r)
	}
	return nil
}

// checkVariantID validates that id is a legal row reference into m,
// surfacing an *IntegrityError rather than letting an out-of-range index
// reach a slice panic.
func (m *GenotypeMatrix) checkVariantID(id VariantID) error {
	if id < 1 || int(id) > m.nVariants {
		return &IntegrityError{Reason: fmt.Sprintf("variant id %d outside [1,%d]", id, m.nVariants)}
	}
	return nil
}

// ValidateIDs checks that every id in ids is in range for m, and that ids
// is sorted ascending; used to validate chrX indices and per-gene batches
// at load time (spec's IntegrityError conditions).
func (m *GenotypeMatrix) ValidateIDs(ids []VariantID) error {
	var prev VariantID
	for i, id := range ids {
		if err := m.checkVariantID(id); err != nil {
			return err
		}
		if i > 0 && id <= prev {
			return &IntegrityError{Reason: fmt.Sprintf("id list not strictly ascending at index %d", i)}
		}
		prev = id
	}
	return nil
}

// datasetRecord is the on-disk shape of one dataset fixture: a gob record
// gzip-compressed with pgzip, mirroring the teacher's LibraryEntry/
// DecodeLibrary shape (gob.go) repurposed from tile libraries to genotype
// datasets.
type datasetRecord struct {
	Samples       []Sample
	VariantRows   []VariantRow
	GenotypeCalls [][]RawCall // one slice of S raw calls per variant row, same order as VariantRows
}

// WriteDatasetFixture gob-encodes and pgzip-compresses rec to w. Used by
// the `import` CLI subcommand to build fixtures for local evaluation.
func WriteDatasetFixture(w io.Writer, samples []Sample, rows []VariantRow, calls [][]RawCall) error {
	zw := pgzip.NewWriter(w)
	enc := gob.NewEncoder(zw)
	if err := enc.Encode(datasetRecord{Samples: samples, VariantRows: rows, GenotypeCalls: calls}); err != nil {
		return err
	}
	return zw.Close()
}

// ReadDatasetFixture decompresses and gob-decodes a dataset fixture
// written by WriteDatasetFixture, building the matrix, per-gene batches
// and chrX index a FixtureStore serves.
func ReadDatasetFixture(r io.Reader) (samples []Sample, rows []VariantRow, matrix *GenotypeMatrix, byGene map[string][]VariantID, chrX []VariantID, err error) {
	zr, err := pgzip.NewReader(bufio.NewReaderSize(r, 1<<20))
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	defer zr.Close()
	var rec datasetRecord
	if err := gob.NewDecoder(zr).Decode(&rec); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("gob decode dataset fixture: %w", err)
	}
	if len(rec.VariantRows) != len(rec.GenotypeCalls) {
		return nil, nil, nil, nil, nil, &IntegrityError{Reason: fmt.Sprintf(
			"%d variant rows but %d genotype rows", len(rec.VariantRows), len(rec.GenotypeCalls))}
	}
	matrix = NewGenotypeMatrix(len(rec.VariantRows), len(rec.Samples))
	byGene = map[string][]VariantID{}
	for i, row := range rec.VariantRows {
		id := row.VariantID
		if err := matrix.checkVariantID(id); err != nil {
			return nil, nil, nil, nil, nil, err
		}
		if err := matrix.SetRow(id, rec.GenotypeCalls[i]); err != nil {
			return nil, nil, nil, nil, nil, err
		}
		if row.GeneSymbol != "" {
			byGene[row.GeneSymbol] = append(byGene[row.GeneSymbol], id)
		}
		if row.Chrom == "chrX" {
			chrX = append(chrX, id)
		}
	}
	for gene, ids := range byGene {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		if err := matrix.ValidateIDs(ids); err != nil {
			return nil, nil, nil, nil, nil, err
		}
		byGene[gene] = ids
	}
	sort.Slice(chrX, func(i, j int) bool { return chrX[i] < chrX[j] })
	if err := matrix.ValidateIDs(chrX); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	return rec.Samples, rec.VariantRows, matrix, byGene, chrX, nil
}
