// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genofilter

import (
	"context"
	"fmt"
	"os"
	"sort"
)

// FixtureStore is a Store backed by gob+pgzip fixtures on local disk, one
// file per dataset name. It exists so the engine and its CLI can be
// exercised end to end without a real variant database — the same role
// the teacher's local tile library files play relative to an Arvados
// collection.
type FixtureStore struct {
	// Paths maps a dataset name to its fixture file path.
	Paths map[string]string

	cache *DatasetCache
}

// NewFixtureStore returns a FixtureStore serving the given dataset name ->
// file path mapping, with its own dataset cache.
func NewFixtureStore(paths map[string]string) *FixtureStore {
	return &FixtureStore{Paths: paths, cache: NewDatasetCache()}
}

func (fs *FixtureStore) load(ctx context.Context, dataset string) (*GenotypeMatrix, []VariantRow, map[string][]VariantID, []VariantID, []Sample, error) {
	return fs.cache.Get(ctx, dataset, func(ctx context.Context) ([]Sample, []VariantRow, *GenotypeMatrix, map[string][]VariantID, []VariantID, error) {
		path, ok := fs.Paths[dataset]
		if !ok {
			return nil, nil, nil, nil, nil, &StoreUnavailableError{Dataset: dataset, Cause: fmt.Errorf("no fixture registered")}
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, nil, nil, nil, &StoreUnavailableError{Dataset: dataset, Cause: err}
		}
		defer f.Close()
		return ReadDatasetFixture(f)
	})
}

// VariantsQuery implements Store.
func (fs *FixtureStore) VariantsQuery(ctx context.Context, dataset string, predicates []VariantPredicate, sort_ SortKey, reverse bool, bounds Bounds) ([]VariantRow, error) {
	_, rows, _, _, _, err := fs.load(ctx, dataset)
	if err != nil {
		return nil, err
	}
	filtered := filterRows(rows, predicates)
	orderRows(filtered, sort_, reverse)
	return paginateRows(filtered, bounds), nil
}

// IDsQuery implements Store.
func (fs *FixtureStore) IDsQuery(ctx context.Context, dataset string, predicates []VariantPredicate, sort_ SortKey, reverse bool) ([]VariantID, error) {
	_, rows, _, _, _, err := fs.load(ctx, dataset)
	if err != nil {
		return nil, err
	}
	filtered := filterRows(rows, predicates)
	orderRows(filtered, sort_, reverse)
	ids := make([]VariantID, len(filtered))
	for i, r := range filtered {
		ids[i] = r.VariantID
	}
	return ids, nil
}

// GenotypeMatrix implements Store.
func (fs *FixtureStore) GenotypeMatrix(ctx context.Context, dataset string) (*GenotypeMatrix, error) {
	m, _, _, _, _, err := fs.load(ctx, dataset)
	return m, err
}

// VariantsByGene implements Store.
func (fs *FixtureStore) VariantsByGene(ctx context.Context, dataset string) (map[string][]VariantID, error) {
	_, _, byGene, _, _, err := fs.load(ctx, dataset)
	return byGene, err
}

// ChrXIDs implements Store.
func (fs *FixtureStore) ChrXIDs(ctx context.Context, dataset string) ([]VariantID, error) {
	_, _, _, chrX, _, err := fs.load(ctx, dataset)
	return chrX, err
}

// SampleList implements Store.
func (fs *FixtureStore) SampleList(ctx context.Context, dataset string) ([]Sample, error) {
	_, _, _, _, samples, err := fs.load(ctx, dataset)
	return samples, err
}

func filterRows(rows []VariantRow, predicates []VariantPredicate) []VariantRow {
	if len(predicates) == 0 {
		out := make([]VariantRow, len(rows))
		copy(out, rows)
		return out
	}
	out := make([]VariantRow, 0, len(rows))
	for _, r := range rows {
		keep := true
		for _, p := range predicates {
			if !p.Match(r) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	return out
}

func orderRows(rows []VariantRow, key SortKey, reverse bool) {
	less := func(i, j int) bool {
		switch key {
		case "":
			if rows[i].Chrom != rows[j].Chrom {
				return rows[i].Chrom < rows[j].Chrom
			}
			return rows[i].Start < rows[j].Start
		case "start":
			return rows[i].Start < rows[j].Start
		case "gene_symbol":
			return rows[i].GeneSymbol < rows[j].GeneSymbol
		default:
			return fmt.Sprint(rows[i].Fields[string(key)]) < fmt.Sprint(rows[j].Fields[string(key)])
		}
	}
	if reverse {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(rows, less)
}

func paginateRows(rows []VariantRow, b Bounds) []VariantRow {
	if b.Offset > 0 {
		if b.Offset >= len(rows) {
			return nil
		}
		rows = rows[b.Offset:]
	}
	if b.Limit > 0 && b.Limit < len(rows) {
		rows = rows[:b.Limit]
	}
	return rows
}
