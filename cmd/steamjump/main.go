package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/MrSnakeDoc/steamjump/internal/app"
	"github.com/MrSnakeDoc/steamjump/internal/config"
	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/launcher"
	"github.com/MrSnakeDoc/steamjump/internal/logger"
	"github.com/MrSnakeDoc/steamjump/internal/scheduler"
	"github.com/MrSnakeDoc/steamjump/internal/version"
)

// CLI is the top-level command structure for steamjump.
type CLI struct {
	Version kong.VersionFlag `help:"Show version." short:"V"`
	Config  string           `help:"YAML file with STEAMJUMP_* settings." type:"path" env:"STEAMJUMP_CONFIG_FILE"`

	Serve   ServeCmd   `cmd:"" help:"Run the HTTP query server with background refresh."`
	Search  SearchCmd  `cmd:"" help:"Search apps, friends, navigations and actions."`
	Launch  LaunchCmd  `cmd:"" help:"Record a launch and print the action to execute."`
	Refresh RefreshCmd `cmd:"" help:"Refresh stale sources."`
	Clear   ClearCmd   `cmd:"" help:"Delete the cached document."`
}

// service is the query facade the one-shot commands run against.
type service interface {
	Search(ctx context.Context, scope domain.Scope, text string) launcher.Response
	Launch(ctx context.Context, key string) (launcher.LaunchResult, error)
	Refresh(ctx context.Context, force bool) scheduler.Report
	Clear(ctx context.Context) error
}

// env carries the process wiring into the commands. Tests replace open
// and serve.
type env struct {
	ctx    context.Context
	out    io.Writer
	errOut io.Writer
	open   func(ctx context.Context, opts app.Options) (service, func(), error)
	serve  func(ctx context.Context) error
}

// ServeCmd runs the server until interrupted.
type ServeCmd struct{}

func (c *ServeCmd) Run(e *env) error {
	return e.serve(e.ctx)
}

// SearchCmd answers one query.
type SearchCmd struct {
	Scope string   `help:"One of all, apps, friends, navigations, actions." short:"s" default:"all"`
	JSON  bool     `help:"Print the full response as JSON." name:"json"`
	Words []string `arg:"" optional:"" help:"Query words."`
}

func (c *SearchCmd) Run(e *env) error {
	scope, err := domain.ParseScope(c.Scope)
	if err != nil {
		return err
	}

	svc, done, err := e.open(e.ctx, app.Options{RefreshOnQuery: true})
	if err != nil {
		return err
	}
	defer done()

	resp := svc.Search(e.ctx, scope, strings.Join(c.Words, " "))
	if c.JSON {
		return writeJSON(e.out, resp)
	}

	printFailures(e.errOut, resp.Failures)
	for _, r := range resp.Items {
		line := fmt.Sprintf("%-32s %s", r.Key, r.Name)
		if r.Description != "" {
			line += "  (" + r.Description + ")"
		}
		fmt.Fprintln(e.out, line)
	}
	return nil
}

// LaunchCmd records a launch of one item.
type LaunchCmd struct {
	Key  string `arg:"" help:"Item key, e.g. app:400 or nav:s:store/400."`
	JSON bool   `help:"Print the full result as JSON." name:"json"`
}

func (c *LaunchCmd) Run(e *env) error {
	svc, done, err := e.open(e.ctx, app.Options{})
	if err != nil {
		return err
	}
	defer done()

	res, err := svc.Launch(e.ctx, c.Key)
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(e.out, res)
	}

	printFailures(e.errOut, res.Failures)
	if !res.Handled {
		fmt.Fprintln(e.out, res.Action)
	}
	return nil
}

// RefreshCmd runs one refresh pass.
type RefreshCmd struct {
	Force bool `help:"Ignore the refresh intervals." short:"f"`
}

func (c *RefreshCmd) Run(e *env) error {
	svc, done, err := e.open(e.ctx, app.Options{})
	if err != nil {
		return err
	}
	defer done()

	rep := svc.Refresh(e.ctx, c.Force)
	fmt.Fprintf(e.out, "files: %s\n", sourceState(rep.FileDue, rep.FileRefreshed))
	fmt.Fprintf(e.out, "api:   %s\n", sourceState(rep.APIDue, rep.APIRefreshed))
	printFailures(e.errOut, rep.Failures())
	return rep.Err()
}

func sourceState(due, refreshed bool) string {
	switch {
	case refreshed:
		return "refreshed"
	case due:
		return "failed"
	default:
		return "fresh"
	}
}

// ClearCmd wipes the cache, launch stats included.
type ClearCmd struct{}

func (c *ClearCmd) Run(e *env) error {
	svc, done, err := e.open(e.ctx, app.Options{})
	if err != nil {
		return err
	}
	defer done()

	if err := svc.Clear(e.ctx); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "cache cleared")
	return nil
}

func printFailures(w io.Writer, failures []domain.Failure) {
	for _, f := range failures {
		if f.Source != "" {
			fmt.Fprintf(w, "warning: %s (%s): %s\n", f.Code, f.Source, f.Message)
			continue
		}
		fmt.Fprintf(w, "warning: %s: %s\n", f.Code, f.Message)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func openApp(ctx context.Context, opts app.Options) (service, func(), error) {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.PrettyLog)

	a, err := app.New(ctx, cfg, log, opts)
	if err != nil {
		return nil, nil, err
	}
	return a.Launcher(), func() {
		a.Close()
		_ = log.Sync()
	}, nil
}

func serveApp(ctx context.Context) error {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = log.Sync() }()

	a, err := app.New(ctx, cfg, log, app.ServeOptions)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Serve(ctx)
}

func exitCode(err error) int {
	if errors.Is(err, domain.ErrUnknownItem) {
		return 2
	}
	return 1
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("steamjump"),
		kong.Description("Search and launch Steam games, friends and client pages."),
		kong.Vars{"version": version.String()},
	)
	if cli.Config != "" {
		_ = os.Setenv("STEAMJUMP_CONFIG_FILE", cli.Config)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := kctx.Run(&env{
		ctx:    ctx,
		out:    os.Stdout,
		errOut: os.Stderr,
		open:   openApp,
		serve:  serveApp,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ steamjump: %s\n", err)
		stop()
		os.Exit(exitCode(err))
	}
}
