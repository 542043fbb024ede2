// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genofilter

import (
	"context"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// datasetEntry is a single, read-only-after-publication dataset build,
// guarded the way the teacher's tilelib.go guards its lazy-loaded tile
// library: one mutex per entry, held only while the build is in flight,
// never while it's being read afterwards.
type datasetEntry struct {
	mu      sync.Mutex
	built   bool
	matrix  *GenotypeMatrix
	rows    []VariantRow
	byGene  map[string][]VariantID
	chrX    []VariantID
	samples []Sample
	err     error
}

// DatasetCache holds one built dataset per name, built at most once per
// process regardless of how many goroutines request it concurrently. A
// build that fails is retried with bounded backoff on the next access
// rather than permanently poisoning the entry, since a transient
// StoreUnavailableError shouldn't wedge every future request.
type DatasetCache struct {
	mu      sync.Mutex
	entries map[string]*datasetEntry

	Backoff retry.Backoff // nil means retry.NewConstant(200*time.Millisecond) with up to 3 retries (4 attempts)
}

// NewDatasetCache returns an empty cache with the default bounded retry.
func NewDatasetCache() *DatasetCache {
	return &DatasetCache{entries: map[string]*datasetEntry{}}
}

func (c *DatasetCache) backoff() retry.Backoff {
	if c.Backoff != nil {
		return c.Backoff
	}
	b, _ := retry.NewConstant(200 * time.Millisecond)
	return retry.WithMaxRetries(3, b)
}

func (c *DatasetCache) entry(name string) *datasetEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[name]
	if !ok {
		e = &datasetEntry{}
		c.entries[name] = e
	}
	return e
}

// Get returns the built dataset for name, building it with build (which
// may itself wrap a retry.Backoff around store access, per
// StoreUnavailableError) on first access. A failed build is retried
// on the NEXT call to Get, not inline within this one beyond the
// Backoff's own attempts — this keeps one slow dataset from blocking a
// completely unrelated request from ever being tried for the first time
// under the cache's own lock scope.
func (c *DatasetCache) Get(ctx context.Context, name string, build func(context.Context) (samples []Sample, rows []VariantRow, matrix *GenotypeMatrix, byGene map[string][]VariantID, chrX []VariantID, err error)) (*GenotypeMatrix, []VariantRow, map[string][]VariantID, []VariantID, []Sample, error) {
	e := c.entry(name)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.built {
		return e.matrix, e.rows, e.byGene, e.chrX, e.samples, e.err
	}

	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		samples, rows, matrix, byGene, chrX, err := build(ctx)
		if err != nil {
			if _, ok := err.(*StoreUnavailableError); ok {
				return retry.RetryableError(err)
			}
			return err
		}
		e.samples, e.rows, e.matrix, e.byGene, e.chrX = samples, rows, matrix, byGene, chrX
		return nil
	})
	e.built = err == nil
	e.err = err
	return e.matrix, e.rows, e.byGene, e.chrX, e.samples, e.err
}

// Invalidate drops the cached entry for name, so the next Get rebuilds it
// from scratch. Used when a dataset is known to have been republished.
func (c *DatasetCache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
}
