package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/hoopsdb/internal/config"
	"github.com/JonMunkholm/hoopsdb/internal/core"
	"github.com/JonMunkholm/hoopsdb/internal/extract"
	"github.com/JonMunkholm/hoopsdb/internal/logging"
	"github.com/JonMunkholm/hoopsdb/internal/pipeline"
	"github.com/JonMunkholm/hoopsdb/internal/schema"
)

type flags struct {
	batchSize     int
	scratchDir    string
	manifest      string
	dialect       string
	noForeignKeys bool
	maxEntrySize  string
	logLevel      string
	logFormat     string
	jsonOutput    bool
	envFiles      []string
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var runErr error
	cmd := newRootCmd(stdout, &runErr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil && runErr == nil {
		// Flag parsing and other cobra failures.
		runErr = core.E(core.KindUsage, "parse flags", err)
	}
	if runErr == nil {
		return 0
	}

	if !core.IsUserFacing(runErr) {
		slog.Error("unclassified failure", "error", runErr)
	}
	fmt.Fprintln(stderr, core.FormatUserError(runErr))
	fmt.Fprintln(stderr, "  error:", runErr)
	if core.IsKind(runErr, core.KindUsage) {
		fmt.Fprintln(stderr)
		fmt.Fprint(stderr, cmd.UsageString())
	}
	return core.ExitCode(runErr)
}

func newRootCmd(stdout io.Writer, runErr *error) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "hoopsdb [flags] <archive> <store>",
		Short: "Load an NBA statistics archive into a new relational store",
		Long: `hoopsdb unpacks a zip or tar.gz archive holding the NBA games CSV files
(games.csv, games_details.csv, players.csv, ranking.csv, teams.csv), cleans
them and writes six tables (team, player, team_player, ranking, game,
statistics) into a new store. SQLite store paths get the .db suffix when
missing. The store must not exist yet.

Settings come from the environment (and .env) and are overridden by flags.`,
		// The pipeline validates the argument count so usage failures go
		// through the same state machine as every other failure.
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			*runErr = execute(cmd, f, args, stdout)
			return *runErr
		},
	}

	fl := cmd.Flags()
	fl.IntVar(&f.batchSize, "batch-size", 0, "rows per INSERT statement (env LOAD_BATCH_SIZE, default 20)")
	fl.StringVar(&f.scratchDir, "scratch-dir", "", "directory to unpack into; must not exist (env LOAD_SCRATCH_DIR)")
	fl.StringVar(&f.manifest, "manifest", "", `"named", "positional" or a YAML manifest file (env LOAD_MANIFEST)`)
	fl.StringVar(&f.dialect, "dialect", "", "store engine: sqlite or postgres (env STORE_DIALECT)")
	fl.BoolVar(&f.noForeignKeys, "no-foreign-keys", false, "disable SQLite foreign-key enforcement")
	fl.StringVar(&f.maxEntrySize, "max-entry-size", "", "largest decompressed archive entry, e.g. 512MiB; -1 disables (env LOAD_MAX_ENTRY_SIZE)")
	fl.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	fl.StringVar(&f.logFormat, "log-format", "", "text or json (env LOG_FORMAT)")
	fl.BoolVar(&f.jsonOutput, "json", false, "print the run result as JSON")
	fl.StringSliceVar(&f.envFiles, "env-file", nil, "env files to load before reading settings (default .env)")

	return cmd
}

func execute(cmd *cobra.Command, f flags, args []string, stdout io.Writer) error {
	if _, err := config.LoadEnvFiles(f.envFiles...); err != nil {
		return core.E(core.KindUsage, "load env files", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return core.E(core.KindUsage, "load config", err)
	}
	if err := applyFlags(cfg, f); err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	manifest, err := extract.ResolveManifest(cfg.Load.Manifest)
	if err != nil {
		return core.E(core.KindUsage, "resolve manifest", err)
	}

	p := pipeline.New(pipeline.Options{
		Dialect:            cfg.Dialect(),
		Suffix:             cfg.Store.Suffix,
		DisableForeignKeys: !cfg.Store.ForeignKeys,
		BatchSize:          cfg.Load.BatchSize,
		ScratchDir:         cfg.Load.ScratchDir,
		Manifest:           manifest,
		MaxEntrySize:       cfg.Load.MaxEntrySize,
		Schema:             schema.NBA(),
	})

	res, err := p.Run(cmd.Context(), args)
	if err != nil {
		return err
	}
	return printResult(stdout, res, f.jsonOutput)
}

// applyFlags overrides env settings with the flags that were set.
func applyFlags(cfg *config.Config, f flags) error {
	if f.batchSize != 0 {
		cfg.Load.BatchSize = f.batchSize
	}
	if f.scratchDir != "" {
		cfg.Load.ScratchDir = f.scratchDir
	}
	if f.manifest != "" {
		cfg.Load.Manifest = f.manifest
	}
	if f.dialect != "" {
		cfg.Store.Dialect = f.dialect
	}
	if f.noForeignKeys {
		cfg.Store.ForeignKeys = false
	}
	if f.maxEntrySize != "" {
		n, err := config.ParseSize(f.maxEntrySize)
		if err != nil {
			return core.E(core.KindUsage, "max-entry-size", err)
		}
		cfg.Load.MaxEntrySize = n
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Logging.Format = f.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return core.E(core.KindUsage, "flags", err)
	}
	return nil
}

func printResult(w io.Writer, res pipeline.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(w, "Loaded %s (run %s)\n\n", res.StorePath, res.RunID)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "TABLE\tROWS\tSTATEMENTS\tDURATION\t")
	for _, t := range res.Report.Tables {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t\n", t.Table, t.Rows, t.Statements, t.Duration.Round(1e6))
	}
	fmt.Fprintf(tw, "total\t%d\t\t\t\n", res.Report.Rows())
	return tw.Flush()
}
