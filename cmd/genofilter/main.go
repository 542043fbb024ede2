// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/urfave/cli/v2"

	"github.com/varapp/varapp-backend-go"
)

func main() {
	genofilter.ConfigureLogging()

	app := &cli.App{
		Name:  "genofilter",
		Usage: "build and query a genotype filtering dataset",
		Commands: []*cli.Command{
			importCommand(),
			evaluateCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "build a dataset fixture from a sample sheet and genotype matrix",
		ArgsUsage: "SAMPLES.tsv GENOTYPES.tsv OUT.gob.gz",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 3 {
				return cli.Exit("import requires SAMPLES.tsv, GENOTYPES.tsv and OUT.gob.gz", 2)
			}
			return runImport(c.Args().Get(0), c.Args().Get(1), c.Args().Get(2))
		},
	}
}

func runImport(samplesPath, genotypesPath, outPath string) error {
	samples, err := readSamplesTSV(samplesPath)
	if err != nil {
		return err
	}
	rows, calls, err := readGenotypesTSV(genotypesPath, len(samples))
	if err != nil {
		return err
	}

	bar := pb.StartNew(len(rows))
	bar.SetWriter(os.Stderr)
	for range rows {
		bar.Increment()
	}
	bar.Finish()

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := genofilter.WriteDatasetFixture(out, samples, rows, calls); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %d variants x %d samples to %s\n", len(rows), len(samples), outPath)
	return nil
}

// readSamplesTSV reads a PED-like tab-separated sample sheet: name,
// family id, mother name, father name, sex code, phenotype code.
func readSamplesTSV(path string) ([]genofilter.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	samples := make([]genofilter.Sample, 0, len(records))
	for i, rec := range records {
		if len(rec) < 6 {
			return nil, fmt.Errorf("samples sheet line %d: expected 6 columns, got %d", i+1, len(rec))
		}
		samples = append(samples, genofilter.Sample{
			Name:       rec[0],
			SampleID:   i,
			FamilyID:   rec[1],
			MotherName: blankDash(rec[2]),
			FatherName: blankDash(rec[3]),
			Sex:        sexCode(rec[4]),
			Phenotype:  genofilter.Phenotype(rec[5][0]),
		})
	}
	return samples, nil
}

func blankDash(s string) string {
	if s == "-" || s == "0" {
		return ""
	}
	return s
}

func sexCode(s string) genofilter.Sex {
	switch s {
	case "1", "M", "m":
		return genofilter.SexMale
	case "2", "F", "f":
		return genofilter.SexFemale
	default:
		return genofilter.SexUnknown
	}
}

// readGenotypesTSV reads a tab-separated genotype matrix: one header-free
// row per variant, columns chrom, start, gene, then one raw call
// (0/1/2/3) per sample in sample-sheet order.
func readGenotypesTSV(path string, nSamples int) ([]genofilter.VariantRow, [][]genofilter.RawCall, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	rows := make([]genofilter.VariantRow, 0, len(records))
	calls := make([][]genofilter.RawCall, 0, len(records))
	for i, rec := range records {
		if len(rec) != 3+nSamples {
			return nil, nil, fmt.Errorf("genotypes line %d: expected %d columns, got %d", i+1, 3+nSamples, len(rec))
		}
		start, err := strconv.ParseInt(rec[1], 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("genotypes line %d: bad start position: %w", i+1, err)
		}
		row := genofilter.VariantRow{
			VariantID:  genofilter.VariantID(i + 1),
			Chrom:      rec[0],
			Start:      start,
			GeneSymbol: rec[2],
			Fields:     map[string]any{},
		}
		call := make([]genofilter.RawCall, nSamples)
		for j, field := range rec[3:] {
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, nil, fmt.Errorf("genotypes line %d, sample %d: %w", i+1, j, err)
			}
			call[j] = genofilter.RawCall(v)
		}
		rows = append(rows, row)
		calls = append(calls, call)
	}
	return rows, calls, nil
}

func evaluateCommand() *cli.Command {
	var dataset, groupsFlag, scenarioFlag string
	var compoundHet bool
	var limit int
	return &cli.Command{
		Name:      "evaluate",
		Usage:     "run a genotype filter against a dataset fixture",
		ArgsUsage: "FIXTURE.gob.gz",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dataset", Destination: &dataset, Value: "default"},
			&cli.StringFlag{Name: "groups", Usage: "group:name,name;group:name", Destination: &groupsFlag},
			&cli.StringFlag{Name: "scenario", Usage: "nothing|active|dominant|recessive|de_novo|x_linked", Value: "nothing", Destination: &scenarioFlag},
			&cli.BoolFlag{Name: "compound-het", Destination: &compoundHet},
			&cli.IntFlag{Name: "limit", Value: 100, Destination: &limit},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("evaluate requires FIXTURE.gob.gz", 2)
			}
			return runEvaluate(c.Args().Get(0), dataset, groupsFlag, scenarioFlag, compoundHet, limit)
		},
	}
}

func runEvaluate(fixturePath, dataset, groupsFlag, scenarioFlag string, compoundHet bool, limit int) error {
	store := genofilter.NewFixtureStore(map[string]string{dataset: fixturePath})
	ctx := context.Background()

	samples, err := store.SampleList(ctx, dataset)
	if err != nil {
		return err
	}
	groups := parseGroups(groupsFlag)
	if len(groups) == 0 {
		groups = genofilter.GroupsFromPhenotype(samples)
	}
	selection, err := genofilter.NewSamplesSelection(samples, groups)
	if err != nil {
		return err
	}
	scenario, err := parseScenario(scenarioFlag)
	if err != nil {
		return err
	}

	result, err := genofilter.Evaluate(ctx, store, genofilter.Request{
		Dataset:     dataset,
		Selection:   selection,
		Scenario:    scenario,
		CompoundHet: compoundHet,
		Bounds:      genofilter.Bounds{Limit: limit},
	})
	if err != nil {
		return err
	}
	fmt.Printf("%d variants (showing %d)\n", result.Total, len(result.Rows))
	for _, row := range result.Rows {
		fmt.Printf("%d\t%s:%d\t%s\n", row.VariantID, row.Chrom, row.Start, row.GeneSymbol)
	}
	return nil
}

func parseGroups(s string) map[string][]string {
	groups := map[string][]string{}
	if s == "" {
		return groups
	}
	for _, clause := range strings.Split(s, ";") {
		parts := strings.SplitN(clause, ":", 2)
		if len(parts) != 2 {
			continue
		}
		names := strings.Split(parts[1], ",")
		groups[parts[0]] = append(groups[parts[0]], names...)
	}
	return groups
}

func parseScenario(s string) (genofilter.GenotypeScenario, error) {
	switch s {
	case "nothing", "":
		return genofilter.ScenarioNothing, nil
	case "active":
		return genofilter.ScenarioActive, nil
	case "dominant":
		return genofilter.ScenarioDominant, nil
	case "recessive":
		return genofilter.ScenarioRecessive, nil
	case "de_novo":
		return genofilter.ScenarioDeNovo, nil
	case "x_linked":
		return genofilter.ScenarioXLinked, nil
	default:
		return 0, fmt.Errorf("unknown scenario %q", s)
	}
}
