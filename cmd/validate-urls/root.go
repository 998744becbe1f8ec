package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sudosantos27/entry-url-validator/internal/annotation"
	"github.com/sudosantos27/entry-url-validator/internal/changeset"
	"github.com/sudosantos27/entry-url-validator/internal/checker"
	"github.com/sudosantos27/entry-url-validator/internal/config"
	"github.com/sudosantos27/entry-url-validator/internal/validator"
)

func Execute() {
	if err := newRootCmd(os.Stdout, os.Stderr, nil).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command. runner is nil outside tests.
func newRootCmd(stdout, stderr io.Writer, runner changeset.Runner) *cobra.Command {
	var configFile string
	d := config.Default()

	cmd := &cobra.Command{
		Use:   "validate-urls [paths...]",
		Short: "Check that URLs in changed entry files are reachable",
		Long: `validate-urls lists the entry files added or modified between two git
revisions, fetches every URL they reference and prints a GitHub Actions
warning for each URL that is unreachable or does not answer with 2xx.

Paths given as arguments are checked instead of the git diff. Check results
never change the exit status.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.New(), cmd.Flags(), configFile)
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Debug {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

			ctx := cmd.Context()
			if cfg.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
				defer cancel()
			}

			return run(ctx, cfg, args, stdout, runner, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "Path to a YAML config file")
	flags.String("base", d.Base, "Base revision of the diff")
	flags.String("head", d.Head, "Head revision of the diff")
	flags.String("dir", d.Dir, "Directory holding the entry files")
	flags.IntP("concurrency", "c", d.Concurrency, "Number of entry files checked in parallel")
	flags.DurationP("timeout", "t", d.Timeout, "Global timeout for the run (0 disables it)")
	flags.Duration("connect-timeout", d.ConnectTimeout, "Timeout for connecting to a host")
	flags.Duration("read-timeout", d.ReadTimeout, "Timeout for reading response headers")
	flags.Int("max-redirects", d.MaxRedirects, "Maximum number of redirects followed per URL")
	flags.Float64("rate-limit", d.RateLimit, "Maximum requests per second across all workers (0 is unlimited)")
	flags.StringP("output", "o", d.Output, "Output format (github, json)")
	flags.String("user-agent", d.UserAgent, "User-Agent header sent with every request")
	flags.String("from", d.From, "From header sent with every request")
	flags.Bool("debug", d.Debug, "Enable debug logging on stderr")

	return cmd
}

func run(ctx context.Context, cfg config.Config, args []string, stdout io.Writer, runner changeset.Runner, logger *slog.Logger) error {
	paths := args
	if len(paths) == 0 {
		lister := changeset.NewLister(cfg.Base, cfg.Head, cfg.Dir, runner)
		var err error
		paths, err = lister.List(ctx)
		if err != nil {
			return err
		}
		logger.Info("Fetched changed entries", "base", cfg.Base, "head", cfg.Head, "dir", cfg.Dir, "total", len(paths))
	}

	reporter, err := annotation.New(cfg.Output, stdout)
	if err != nil {
		return err
	}

	if len(paths) == 0 {
		logger.Info("No changed entries. Nothing to process.")
		return reporter.Close()
	}

	c := checker.New(cfg.Checker(), checker.WithLogger(logger))
	v := validator.New(c, reporter, cfg.Concurrency, validator.WithLogger(logger))

	_, runErr := v.Run(ctx, paths)
	if err := reporter.Close(); err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}

	return runErr
}
