package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"medstore/m/internal/seed"
)

type seedCmd struct {
	csv string
}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "load the medicine catalog from a CSV file" }
func (*seedCmd) Usage() string {
	return `medstore seed [-csv <path>]

  Inserts every medicine in the CSV (name,unit,category,price,description)
  whose name is not already in the catalog.
`
}

func (c *seedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.csv, "csv", "assets/medicine.csv", "Path to the medicine catalog CSV.")
}

func (c *seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := bootstrap(ctx)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	res, err := seed.LoadMedicinesFile(ctx, a.db, c.csv, a.log)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("inserted %d medicines, skipped %d\n", res.Inserted, res.Skipped)
	return subcommands.ExitSuccess
}
