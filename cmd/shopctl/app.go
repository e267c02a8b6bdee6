package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/g-but/fitfoot/internal/logger"
	"github.com/g-but/fitfoot/internal/service/commerce"
	"github.com/g-but/fitfoot/internal/service/storefront"
	"github.com/g-but/fitfoot/internal/session"
	"github.com/g-but/fitfoot/internal/storage"
)

var errNoCommand = errors.New("no command given")

type command struct {
	usage string
	run   func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"login":           {"login <email> [--password p]          log in as customer", (*App).login},
	"login-admin":     {"login-admin <email> [--password p]    log in as admin", (*App).loginAdmin},
	"logout":          {"logout                                log customer out", (*App).logout},
	"logout-admin":    {"logout-admin                          log admin out", (*App).logoutAdmin},
	"whoami":          {"whoami                                show both sessions", (*App).whoami},
	"refresh":         {"refresh                               refresh the active token", (*App).refresh},
	"watch":           {"watch                                 keep sessions fresh until interrupted", (*App).watch},
	"register":        {"register --email e --first-name f --last-name l [--phone p] [--password p]", (*App).register},
	"confirm-email":   {"confirm-email <token>                 confirm customer email", (*App).confirmEmail},
	"forgot-password": {"forgot-password <email>               request password reset link", (*App).forgotPassword},
	"reset-password":  {"reset-password <token> [--password p] set new password", (*App).resetPassword},
	"profile":         {"profile                               show customer profile", (*App).profile},
	"profile-update":  {"profile-update --first-name f --last-name l [--phone p]", (*App).profileUpdate},
	"change-password": {"change-password [--current p] [--new p] [--confirm p]", (*App).changePassword},
	"bulk":            {"bulk <delete|archive|unarchive|update> <id>... [update flags]", (*App).bulk},
	"products":        {"products [filter flags]               list products", (*App).products},
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage: shopctl [--api-base url] [--app-url url] [--state file] [--state-key hex] <command> [args]")
	_, _ = fmt.Fprintln(w, "Commands:")
	for _, name := range sortedCommands() {
		_, _ = fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

type App struct {
	manager    *session.Manager
	storefront *storefront.Client
	logger     logger.Logger

	in  *bufio.Reader
	out io.Writer
}

func NewApp(c *Config, env Env) (*App, error) {
	l, err := logger.New(logger.EnvDevelopment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	var key []byte
	if c.StateKey != "" {
		if key, err = storage.ParseKey(c.StateKey); err != nil {
			return nil, err
		}
	}
	state, err := storage.OpenFile(c.StateFile, key)
	if err != nil {
		return nil, err
	}

	sf := storefront.NewClient(c.AppURL, l)

	a := &App{
		storefront: sf,
		logger:     l,
		in:         bufio.NewReader(env.Stdin),
		out:        env.Stdout,
	}

	a.manager, err = session.New(session.Config{
		Storage:    state,
		Commerce:   commerce.NewClient(c.APIBase, l),
		Storefront: sf,
		Navigator: session.NavigatorFunc(func(path string) {
			a.printf("Go to %s to log in again\n", path)
		}),
		Logger:          l,
		MonitorInterval: c.MonitorInterval,
	})
	if err != nil {
		return nil, err
	}
	a.manager.Initialize()

	return a, nil
}

func (a *App) Run(ctx context.Context, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		printUsage(a.out)
		return fmt.Errorf("unknown command %q", name)
	}
	return cmd.run(a, ctx, args)
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

// Secrets not given by flag are read from stdin, one per line
func (a *App) readSecret(prompt string) (string, error) {
	a.printf("%s: ", prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("error while reading %s. Err: %w", strings.ToLower(prompt), err)
	}
	a.printf("\n")
	return strings.TrimRight(line, "\r\n"), nil
}
