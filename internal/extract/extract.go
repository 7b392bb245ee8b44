// Package extract unpacks a statistics archive into a scratch directory and
// reads the CSV files it contains into raw datasets.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/hoopsdb/internal/core"
	"github.com/JonMunkholm/hoopsdb/internal/dataset"
	"github.com/JonMunkholm/hoopsdb/internal/logging"
)

// DefaultMaxEntrySize caps a single decompressed entry at 1 GiB.
const DefaultMaxEntrySize int64 = 1 << 30

// Options tunes extraction.
type Options struct {
	// MaxEntrySize rejects any entry that decompresses larger than this.
	// Zero means DefaultMaxEntrySize; negative disables the check.
	MaxEntrySize int64
}

func (o Options) maxEntrySize() int64 {
	switch {
	case o.MaxEntrySize == 0:
		return DefaultMaxEntrySize
	case o.MaxEntrySize < 0:
		return 0
	default:
		return o.MaxEntrySize
	}
}

// Extract decompresses archivePath into scratchDir, assigns the extracted
// files to tables according to m and parses each one. scratchDir must exist
// and is left populated; removing it is the caller's job.
//
// Every failure is an ExtractionError.
func Extract(ctx context.Context, archivePath, scratchDir string, m Manifest, opts Options) (map[string]dataset.Raw, error) {
	const op = "extract"
	logger := logging.WithFields(ctx, "archive", archivePath, "scratch_dir", scratchDir)

	info, err := os.Stat(scratchDir)
	if err != nil {
		return nil, core.E(core.KindExtraction, op, err)
	}
	if !info.IsDir() {
		return nil, core.Errorf(core.KindExtraction, op, "scratch path %s is not a directory", scratchDir)
	}

	if err := Unpack(ctx, archivePath, scratchDir, opts.maxEntrySize()); err != nil {
		return nil, core.E(core.KindExtraction, "unpack archive", err)
	}

	files, err := ListFiles(scratchDir)
	if err != nil {
		return nil, core.E(core.KindExtraction, "list files", err)
	}
	logger.Debug("archive unpacked", "files", len(files))

	assigned, err := m.Assign(files)
	if err != nil {
		return nil, core.E(core.KindExtraction, "match files", err)
	}

	out := make(map[string]dataset.Raw, len(assigned))
	for _, e := range m.Entries {
		if err := ctx.Err(); err != nil {
			return nil, core.E(core.KindExtraction, op, err)
		}
		path := assigned[e.Table]
		raw, err := dataset.ReadCSVFile(e.Table, path)
		if err != nil {
			return nil, &core.Error{
				Kind:  core.KindExtraction,
				Op:    "read csv",
				Table: e.Table,
				Err:   err,
			}
		}
		rel, _ := filepath.Rel(scratchDir, path)
		logger.Info("dataset read", "table", e.Table, "file", rel, "records", raw.Len())
		out[e.Table] = raw
	}

	if len(out) != len(m.Entries) {
		return nil, core.Errorf(core.KindExtraction, op, "read %d datasets, want %d", len(out), len(m.Entries))
	}
	return out, nil
}

// Describe summarizes extracted datasets for logs.
func Describe(raw map[string]dataset.Raw) string {
	total := 0
	for _, r := range raw {
		total += r.Len()
	}
	return fmt.Sprintf("%d datasets, %d records", len(raw), total)
}
