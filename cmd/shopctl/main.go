// shopctl is a command line storefront client.
// It keeps customer and admin sessions in a state file and runs account and admin flows against
// the commerce API and the storefront server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	env := Env{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Getenv: os.Getenv,
		Getwd:  os.Getwd,
		Home:   os.UserHomeDir,
	}

	if err := run(ctx, env, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "shopctl: %v\n", err)
		os.Exit(1)
	}
}

// Env is everything the process takes from outside
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer

	Getenv func(string) string
	Getwd  func() (string, error)
	Home   func() (string, error)
}

// Config precedence: defaults < .env file < environment < flags
func run(ctx context.Context, env Env, args []string) error {
	home, err := env.Home()
	if err != nil {
		return fmt.Errorf("error while looking up home dir. Err: %w", err)
	}

	c := NewConfig(home)
	if err := c.LoadDotEnv(env.Getwd); err != nil {
		return fmt.Errorf("error while loading .env file. Err: %w", err)
	}
	if err := c.LoadEnv(env.Getenv); err != nil {
		return err
	}
	cmdArgs, err := c.ParseFlags(args)
	if err != nil {
		return fmt.Errorf("error while parsing flags. Err: %w", err)
	}

	if len(cmdArgs) == 0 {
		printUsage(env.Stdout)
		return errNoCommand
	}

	app, err := NewApp(c, env)
	if err != nil {
		return err
	}

	return app.Run(ctx, cmdArgs[0], cmdArgs[1:])
}
