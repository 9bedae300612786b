// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/poiesic/semindex"
	"github.com/poiesic/semindex/config"
	"github.com/poiesic/semindex/indexer"
	"github.com/poiesic/semindex/server"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "semindex",
		Usage: "Semantic search over notes, ledgers, music and images",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default ~/.semindex/semindex.yaml)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write a config file template",
				Action: initCommand,
			},
			{
				Name:   "build",
				Usage:  "Build the indexes of enabled content types",
				Action: buildCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Content type to build (repeatable, default all enabled)",
					},
					&cli.BoolFlag{
						Name:  "regenerate",
						Usage: "Discard cached embeddings and recompute",
					},
					&cli.BoolFlag{
						Name:  "no-progress",
						Usage: "Disable the progress bar",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search one content type",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "type",
						Aliases:  []string{"t"},
						Usage:    "Content type to search",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "results",
						Aliases: []string{"n"},
						Usage:   "Number of results",
						Value:   5,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.addr)",
					},
					&cli.DurationFlag{
						Name:  "shutdown-timeout",
						Usage: "Grace period for in-flight requests on shutdown",
						Value: 10 * time.Second,
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Show the state of every content type",
				Action: statusCommand,
			},
		},
	}
}

func configPath(c *cli.Context) (string, error) {
	if p := c.String("config"); p != "" {
		return p, nil
	}
	return config.DefaultPath()
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	path, err := configPath(c)
	if err != nil {
		return nil, err
	}
	return config.LoadFromFile(path)
}

func openEngine(cfg *config.Config, opts ...semindex.EngineOption) (*semindex.Engine, error) {
	engine, err := semindex.NewEngine(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func initCommand(c *cli.Context) error {
	path, err := configPath(c)
	if err != nil {
		return err
	}
	created, err := config.WriteDefaultTemplate(path)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(c.App.Writer, "Wrote config template to %s\n", path)
	} else {
		fmt.Fprintf(c.App.Writer, "Config already exists at %s\n", path)
	}
	return nil
}

func buildCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var progress indexer.Progress
	if !c.Bool("no-progress") {
		progress = newProgress(cfg.IndexerConfig().ReportInterval)
	}
	engine, err := openEngine(cfg, semindex.WithProgress(progress))
	if err != nil {
		return err
	}
	defer engine.Close()

	tags := c.StringSlice("type")
	if len(tags) == 0 {
		tags = engine.EnabledTypes()
	}
	if len(tags) == 0 {
		return errors.New("no content type is enabled; list input_files or input_filter in the config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	regenerate := c.Bool("regenerate")
	for _, tag := range tags {
		idx, err := engine.Build(ctx, tag, regenerate)
		if err != nil {
			return fmt.Errorf("build %s failed: %w", tag, err)
		}
		fmt.Fprintf(c.App.Writer, "%s: %d entries, %d dimensions\n", tag, idx.Len(), idx.Dimensions)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("query is required")
	}
	if c.Int("results") <= 0 {
		return errors.New("results must be greater than 0")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	results, err := engine.Search(context.Background(), c.String("type"), query, c.Int("results"))
	if err != nil {
		return err
	}

	for i, res := range results {
		fmt.Fprintf(c.App.Writer, "%d. [%.3f] %s\n", i+1, res.Score, res.Entry.Source)
		fmt.Fprintf(c.App.Writer, "   %s\n", firstLine(res.Entry.Text))
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	engine, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Warm {
		restored := engine.Warm(ctx)
		slog.Info("warm start", "restored", restored, "enabled", len(engine.EnabledTypes()))
	}

	srv := server.New(cfg.Server.Addr, engine, cfg.Server.DefaultResults, slog.Default())
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Duration("shutdown-timeout"))
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func statusCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	engine.Warm(context.Background())

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tENABLED\tENTRIES\tDIMENSIONS\tBUILT")
	for _, st := range engine.Status() {
		built := "-"
		if !st.BuiltAt.IsZero() {
			built = st.BuiltAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%t\t%d\t%d\t%s\n", st.Type, st.Enabled, st.Entries, st.Dimensions, built)
	}
	return tw.Flush()
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
