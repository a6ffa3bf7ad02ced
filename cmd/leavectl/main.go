package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"holidayhub/internal/app/server"
	"holidayhub/internal/domain/auth"
	"holidayhub/internal/platform/config"
)

const usage = `Usage: leavectl <command> [flags]

Commands:
  adduser    -email <email> -name <name> [-role employee|hr]
  token      -email <email> [-ttl 24h]
  provision  [-year 2025]
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := run(context.Background(), os.Args[1:], cfg, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, cfg config.Config, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("missing command")
	}
	switch args[0] {
	case "adduser":
		return addUser(ctx, args[1:], cfg, stdout, stderr)
	case "token":
		return mintToken(ctx, args[1:], cfg, stdout, stderr)
	case "provision":
		return provision(ctx, args[1:], cfg, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	fmt.Fprint(stderr, usage)
	return fmt.Errorf("unknown command %q", args[0])
}

func addUser(ctx context.Context, args []string, cfg config.Config, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "Email address")
	name := fs.String("name", "", "Display name")
	role := fs.String("role", auth.RoleEmployee, "Role (employee or hr)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *name == "" {
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email, name")
	}

	app, err := server.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	u, err := app.Users.Create(ctx, *email, *name, *role)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "User %s created with id %s (%s)\n", u.Email, u.ID, u.Role)
	return nil
}

func mintToken(ctx context.Context, args []string, cfg config.Config, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "Email address of an existing user")
	ttl := fs.Duration("ttl", cfg.SessionTTL, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	app, err := server.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	u, err := app.Users.GetByEmail(ctx, *email)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", *email, err)
	}
	token, err := auth.GenerateToken(cfg.JWTSecret, u.ID, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, token)
	return nil
}

func provision(ctx context.Context, args []string, cfg config.Config, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("provision", flag.ContinueOnError)
	fs.SetOutput(stderr)
	year := fs.Int("year", time.Now().UTC().Year(), "Credit year")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := server.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.Users.ProvisionYear(ctx, *year)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Created %d credit records for %d\n", n, *year)
	return nil
}
