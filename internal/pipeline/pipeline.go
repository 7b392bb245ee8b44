// Package pipeline runs one load: validate the arguments, extract the archive,
// drop the scratch directory, transform, create the store and load it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/hoopsdb/internal/core"
	"github.com/JonMunkholm/hoopsdb/internal/dataset"
	"github.com/JonMunkholm/hoopsdb/internal/extract"
	"github.com/JonMunkholm/hoopsdb/internal/load"
	"github.com/JonMunkholm/hoopsdb/internal/logging"
	"github.com/JonMunkholm/hoopsdb/internal/schema"
	"github.com/JonMunkholm/hoopsdb/internal/store"
	"github.com/JonMunkholm/hoopsdb/internal/transform"
)

// Usage is printed with every UsageError.
const Usage = "usage: hoopsdb [flags] <archive> <store>"

// Options configures a Pipeline. Zero values take the defaults noted on
// each field.
type Options struct {
	// Dialect of the target store. Zero means SQLite.
	Dialect schema.Dialect

	// Suffix is appended to SQLite store paths. Empty means store.DefaultSuffix.
	Suffix string

	// DisableForeignKeys turns off SQLite foreign-key enforcement.
	DisableForeignKeys bool

	// BatchSize is the number of rows per INSERT. Zero means load.DefaultBatchSize.
	BatchSize int

	// ScratchDir is where the archive is unpacked. It must not exist; the run
	// creates and removes it. Empty means <tmp>/hoopsdb-<run id>.
	ScratchDir string

	// Manifest maps archive files to tables. Empty means extract.DefaultManifest.
	Manifest extract.Manifest

	// MaxEntrySize caps decompressed entries; see extract.Options.
	MaxEntrySize int64

	// Transforms are the cleaning hooks. Empty means transform.Default.
	Transforms transform.Set

	// Schema of the store. Empty means schema.NBA.
	Schema schema.Schema
}

// Result describes a finished run, successful or not.
type Result struct {
	RunID      string                       `json:"run_id"`
	State      core.State                   `json:"state"`
	History    []core.State                 `json:"history"`
	StorePath  string                       `json:"store_path,omitempty"`
	ScratchDir string                       `json:"scratch_dir,omitempty"`
	Extracted  string                       `json:"extracted,omitempty"`
	Report     load.Report                  `json:"report"`
	Durations  map[core.State]time.Duration `json:"durations"`
}

// Pipeline sequences the stages of a load run.
type Pipeline struct {
	opts Options
}

// New returns a pipeline with defaults applied to opts.
func New(opts Options) *Pipeline {
	if opts.Dialect.Name == "" {
		opts.Dialect = schema.SQLite
	}
	if len(opts.Manifest.Entries) == 0 {
		opts.Manifest = extract.DefaultManifest()
	}
	t := opts.Transforms
	if t.Team == nil && t.Player == nil && t.Ranking == nil && t.Game == nil && t.Statistics == nil {
		opts.Transforms = transform.Default()
	}
	if len(opts.Schema.Entities) == 0 {
		opts.Schema = schema.NBA()
	}
	return &Pipeline{opts: opts}
}

// run carries the state of one invocation.
type run struct {
	machine *core.Machine
	result  Result
	started time.Time
}

func (r *run) advance(ctx context.Context, to core.State) error {
	r.mark()
	if err := r.machine.Advance(to); err != nil {
		return core.E(core.KindInternal, "advance", err)
	}
	logging.FromContext(ctx).Debug("stage entered", "state", to)
	return nil
}

// mark records how long the current state lasted.
func (r *run) mark() {
	now := time.Now()
	if !r.started.IsZero() {
		r.result.Durations[r.machine.State()] += now.Sub(r.started)
	}
	r.started = now
}

func (r *run) finish() Result {
	r.result.State = r.machine.State()
	r.result.History = r.machine.History()
	return r.result
}

func (r *run) fail(ctx context.Context, err error) (Result, error) {
	r.mark()
	state := r.machine.State()
	r.machine.Fail(err)
	logging.FromContext(ctx).Error("run failed",
		"state", state, "kind", core.KindOf(err).String(), "error", err)
	return r.finish(), err
}

// Run executes a load with args = [archive, store]. On failure the returned
// Result holds the state reached and the error is a *core.Error whose kind
// selects the exit code.
func (p *Pipeline) Run(ctx context.Context, args []string) (Result, error) {
	runID := uuid.NewString()
	ctx = logging.WithRun(ctx, runID)
	logger := logging.FromContext(ctx)

	r := &run{
		machine: core.NewMachine(),
		result:  Result{RunID: runID, Durations: make(map[core.State]time.Duration)},
	}

	// ValidatingInputs: no filesystem writes before this stage passes.
	if err := r.advance(ctx, core.StateValidating); err != nil {
		return r.fail(ctx, err)
	}
	archive, storePath, err := validateArgs(args)
	if err != nil {
		return r.fail(ctx, err)
	}
	storeOpts := store.Options{
		Dialect:            p.opts.Dialect,
		Location:           storePath,
		Suffix:             p.opts.Suffix,
		DisableForeignKeys: p.opts.DisableForeignKeys,
	}
	r.result.StorePath = storeOpts.NormalizedLocation()

	scratch := p.opts.ScratchDir
	if scratch == "" {
		scratch = filepath.Join(os.TempDir(), "hoopsdb-"+runID)
	}
	r.result.ScratchDir = scratch
	if _, err := os.Stat(scratch); err == nil {
		return r.fail(ctx, core.Errorf(core.KindUsage, "validate inputs",
			"scratch directory %s already exists", scratch))
	}
	logger.Info("run started", "archive", archive, "store", r.result.StorePath, "dialect", p.opts.Dialect.Name)

	// Extracting, then CleaningUp regardless of the outcome.
	if err := r.advance(ctx, core.StateExtracting); err != nil {
		return r.fail(ctx, err)
	}
	raw, extractErr := p.extract(ctx, archive, scratch)
	cleanupErr := removeScratch(scratch)
	if extractErr != nil {
		if cleanupErr != nil {
			logger.Warn("scratch cleanup failed", "scratch_dir", scratch, "error", cleanupErr)
		}
		return r.fail(ctx, extractErr)
	}
	r.result.Extracted = extract.Describe(raw)
	logger.Info("archive extracted", "datasets", r.result.Extracted)

	if err := r.advance(ctx, core.StateCleaningUp); err != nil {
		return r.fail(ctx, err)
	}
	if cleanupErr != nil {
		return r.fail(ctx, core.E(core.KindExtraction, "remove scratch directory", cleanupErr))
	}
	logger.Debug("scratch directory removed", "scratch_dir", scratch)

	// Transforming works on the in-memory datasets only.
	if err := r.advance(ctx, core.StateTransforming); err != nil {
		return r.fail(ctx, err)
	}
	tables, err := p.opts.Transforms.Apply(ctx, raw)
	if err != nil {
		return r.fail(ctx, err)
	}

	if err := r.advance(ctx, core.StateInitializing); err != nil {
		return r.fail(ctx, err)
	}
	st, err := store.Materialize(ctx, storeOpts, p.opts.Schema)
	if err != nil {
		return r.fail(ctx, err)
	}
	defer st.Close()

	if err := r.advance(ctx, core.StateLoading); err != nil {
		return r.fail(ctx, err)
	}
	loader := load.New(p.opts.Schema, load.Options{BatchSize: p.opts.BatchSize})
	report, err := loader.Load(ctx, st, tables)
	r.result.Report = report
	if err != nil {
		return r.fail(ctx, err)
	}

	if err := r.advance(ctx, core.StateDone); err != nil {
		return r.fail(ctx, err)
	}
	res := r.finish()
	logger.Info("run complete", "store", res.StorePath, "tables", len(report.Tables), "rows", report.Rows())
	return res, nil
}

func validateArgs(args []string) (archive, storePath string, err error) {
	const op = "validate inputs"
	if len(args) != 2 {
		return "", "", core.Errorf(core.KindUsage, op, "expected 2 arguments, got %d; %s", len(args), Usage)
	}
	archive, storePath = args[0], args[1]
	if storePath == "" {
		return "", "", core.Errorf(core.KindUsage, op, "store path is empty; %s", Usage)
	}

	info, err := os.Stat(archive)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", "", core.Errorf(core.KindUsage, op, "archive %s does not exist", archive)
	case err != nil:
		return "", "", core.E(core.KindUsage, op, err)
	case !info.Mode().IsRegular():
		return "", "", core.Errorf(core.KindUsage, op, "archive %s is not a regular file", archive)
	}
	return archive, storePath, nil
}

func (p *Pipeline) extract(ctx context.Context, archive, scratch string) (map[string]dataset.Raw, error) {
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, core.E(core.KindExtraction, "create scratch directory", err)
	}
	return extract.Extract(ctx, archive, scratch, p.opts.Manifest, extract.Options{MaxEntrySize: p.opts.MaxEntrySize})
}

func removeScratch(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	return nil
}
