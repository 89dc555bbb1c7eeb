package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"covid-etl/config"
	"covid-etl/services"
	"covid-etl/storage"
	"covid-etl/utils"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "covid-etl",
		Short:         "Clean, analyze, store and report COVID-19 case data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "covid-etl %s\n", version)
		},
	}
}

// runFlags holds command-line overrides. Only flags the user actually set are
// applied on top of the loaded configuration.
type runFlags struct {
	input, report, exportCSV, dbDriver, logLevel string
	limit, top, shards                           int
	skipDB, replace                              bool
}

func newRunCmd() *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the extract → clean → analyze → store → report pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			rf.apply(cmd, cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&rf.input, "input", "i", "", "path to the delimited case file (INPUT_PATH)")
	f.IntVarP(&rf.limit, "limit", "n", 0, "maximum data rows to read, 0 = all (ROW_LIMIT)")
	f.StringVarP(&rf.report, "report", "o", "", "where to write the text report (REPORT_PATH)")
	f.IntVar(&rf.top, "top", 0, "cities shown in the population section, 0 = all (REPORT_TOP_N)")
	f.StringVar(&rf.exportCSV, "export-csv", "", "optional CSV export of the cleaned records (CLEAN_CSV_PATH)")
	f.StringVar(&rf.dbDriver, "db-driver", "", "database driver: postgres or sqlite (DB_DRIVER)")
	f.BoolVar(&rf.skipDB, "skip-db", false, "do not persist cleaned records (SKIP_DB)")
	f.BoolVar(&rf.replace, "replace", false, "delete previously stored rows before writing (REPLACE_EXISTING)")
	f.IntVar(&rf.shards, "shards", 0, "number of shards cleaned concurrently (CLEAN_SHARDS)")
	f.StringVar(&rf.logLevel, "log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	return cmd
}

func (rf *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	set := cmd.Flags().Changed
	if set("input") {
		cfg.InputPath = rf.input
	}
	if set("limit") {
		cfg.RowLimit = rf.limit
	}
	if set("report") {
		cfg.ReportPath = rf.report
	}
	if set("top") {
		cfg.ReportTopN = rf.top
	}
	if set("export-csv") {
		cfg.CleanCSVPath = rf.exportCSV
	}
	if set("db-driver") {
		cfg.DBDriver = rf.dbDriver
	}
	if set("skip-db") {
		cfg.SkipDB = rf.skipDB
	}
	if set("replace") {
		cfg.ReplaceExisting = rf.replace
	}
	if set("shards") {
		cfg.CleanShards = rf.shards
	}
	if set("log-level") {
		cfg.LogLevel = rf.logLevel
	}
}

// run executes one pipeline run and echoes the report to out.
func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	logger := utils.NewLoggerWithLevel(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("=== COVID-19 data pipeline starting ===")
	if !cfg.EnvFileLoaded {
		logger.Debug("[config] No .env file found, falling back to system env vars")
	}
	logger.Info("Config | input: %s | limit: %d | db: %s | shards: %d",
		cfg.InputPath, cfg.RowLimit, dbLabel(cfg), cfg.CleanShards)

	p := &services.Pipeline{
		Source:      storage.NewCSVReader(cfg.InputPath, cfg.InputDelimiter, cfg.RowLimit),
		Cleaner:     services.NewCleaner(logger),
		Analyzer:    services.NewAnalyzer(logger),
		Reporter:    services.NewReporter(logger, cfg.ReportTopN),
		ReportPath:  cfg.ReportPath,
		CleanShards: cfg.CleanShards,
		Logger:      logger,
	}

	var sqlWriter *storage.SQLWriter
	if !cfg.SkipDB {
		w, err := storage.NewSQLWriter(cfg.DBDriver, cfg.DSN(), &utils.RetryConfig{
			MaxAttempts: cfg.DBConnectRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		})
		if err != nil {
			logger.Error("Failed to connect to the database: %v", err)
			if cfg.DBDriver == "postgres" {
				logger.Error("Make sure PostgreSQL is running: docker compose up -d")
			}
			return err
		}
		defer w.Close()
		w.ReplaceExisting = cfg.ReplaceExisting
		sqlWriter = w
		p.Writer = w
	}

	if cfg.CleanCSVPath != "" {
		export, err := storage.NewCSVWriter(cfg.CleanCSVPath)
		if err != nil {
			logger.Error("Failed to create CSV export: %v", err)
			return err
		}
		defer export.Close()
		p.Export = export
	}

	_, report, err := p.Run(ctx)
	if err != nil {
		logger.Error("Pipeline aborted: %v", err)
		return err
	}

	if sqlWriter != nil {
		total, err := sqlWriter.Count(ctx)
		if err != nil {
			logger.Warn("Could not count stored rows: %v", err)
		} else {
			logger.Info("covid_data now holds %d rows", total)
		}
	}

	if _, err := io.WriteString(out, report); err != nil {
		return err
	}
	logger.Info("Done. Report → %s", cfg.ReportPath)
	return nil
}

func dbLabel(cfg *config.Config) string {
	switch {
	case cfg.SkipDB:
		return "disabled"
	case cfg.ReplaceExisting:
		return cfg.DBDriver + " (replace)"
	}
	return cfg.DBDriver
}
