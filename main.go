package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"loa-scraper/config"
	"loa-scraper/scraper/loa"
	"loa-scraper/services"
	"loa-scraper/storage"
	"loa-scraper/utils"
)

type options struct {
	start    uint32
	end      uint32
	output   string
	browser  bool
	postgres bool
	quiet    bool
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "loa-scraper",
		Short:         "Scrape Library of America volumes and generate CSV",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var end *uint32
			if cmd.Flags().Changed("end") {
				end = &opts.end
			}
			return run(cmd.Context(), opts, loa.NewRange(opts.start, end), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().Uint32VarP(&opts.start, "start", "s", 1, "Starting volume number")
	cmd.Flags().Uint32VarP(&opts.end, "end", "e", 0, "Ending volume number (default: last available)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output CSV file path (default: stdout)")
	cmd.Flags().BoolVar(&opts.browser, "browser", false, "Fetch the collection page with headless Chrome")
	cmd.Flags().BoolVar(&opts.postgres, "postgres", false, "Also store volumes in PostgreSQL")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Hide the progress bar")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	return cmd
}

func run(ctx context.Context, opts *options, rng loa.Range, stdout, stderr io.Writer) error {
	cfg := config.Load()
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.browser {
		cfg.FetchMode = config.FetchModeBrowser
	}
	if opts.postgres {
		cfg.PostgresEnabled = true
	}

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if !cfg.EnvFileLoaded {
		logger.Debug("[config] No .env file found, using environment variables")
	}
	logger.Info("Scraping Library of America volumes")
	if err := rng.Validate(); err != nil {
		logger.Warn("%v, nothing to select", err)
	}

	var progress loa.Progress = utils.NopProgress{}
	if !opts.quiet {
		progress = utils.NewProgressBar(stderr)
	}

	scraper, err := loa.NewFromConfig(cfg, logger, progress)
	if err != nil {
		return err
	}

	var csvWriter *storage.CSVWriter
	if opts.output != "" {
		csvWriter = storage.NewCSVFileWriter(opts.output)
	} else {
		csvWriter = storage.NewCSVStreamWriter(stdout)
	}
	writers := []storage.VolumeWriter{csvWriter}

	if cfg.PostgresEnabled {
		pgWriter, err := storage.NewPostgresWriter(ctx, cfg.DSN(), cfg.MaxRetries, logger)
		if err != nil {
			return err
		}
		writers = append(writers, pgWriter)
	}

	sink := storage.Tee(writers...)
	written, err := scraper.Run(ctx, rng, sink)
	if err != nil {
		if abortErr := storage.Abort(sink); abortErr != nil {
			logger.Warn("Discarding partial output failed: %v", abortErr)
		}
		return err
	}
	if err := sink.Close(); err != nil {
		return err
	}

	summary := services.NewSummaryService(logger)
	summary.Print(summary.Generate(scraper.Processed()))

	if written > 0 && opts.output != "" {
		logger.Info("CSV file created successfully: '%s'", opts.output)
	}
	if written > 0 && cfg.PostgresEnabled {
		logger.Info("Volumes stored in PostgreSQL (table: volumes)")
	}
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
