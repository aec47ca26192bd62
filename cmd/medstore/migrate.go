package main

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply database migrations and exit" }
func (*migrateCmd) Usage() string {
	return `medstore migrate

  Creates or upgrades the schema of the configured database.
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := bootstrap(ctx)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	a.log.Info("migrations applied", zap.String("driver", a.cfg.Database.Driver))
	return subcommands.ExitSuccess
}
