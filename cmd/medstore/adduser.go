package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"medstore/m/internal/auth"
	"medstore/m/internal/store"
)

type addUserCmd struct {
	email    string
	password string
	name     string
}

func (*addUserCmd) Name() string     { return "adduser" }
func (*addUserCmd) Synopsis() string { return "create a staff account" }
func (*addUserCmd) Usage() string {
	return `medstore adduser -email <email> -password <password> [-name <full name>]
`
}

func (c *addUserCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "Sign-in email of the new account.")
	f.StringVar(&c.password, "password", "", "Initial password, at least 6 characters.")
	f.StringVar(&c.name, "name", "", "Optional full name.")
}

func (c *addUserCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.email == "" || c.password == "" {
		fail(fmt.Errorf("-email and -password are required"))
		return subcommands.ExitUsageError
	}
	a, err := bootstrap(ctx)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	svc := auth.NewService(store.New(a.db), auth.NewTokens(a.cfg.Secret, a.cfg.TokenTTL), nil, nil, a.log)
	in := auth.RegisterInput{Email: c.email, Password: c.password}
	if c.name != "" {
		in.FullName = &c.name
	}
	sess, err := svc.Register(ctx, in)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("created user %d <%s>\n", sess.User.ID, sess.User.Email)
	return subcommands.ExitSuccess
}
