package extract

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/hoopsdb/internal/schema"
)

// Mode selects how extracted files are matched to tables.
type Mode string

const (
	// ModeNamed matches each entry's glob pattern against file base names.
	ModeNamed Mode = "named"
	// ModePositional assigns the lexicographically sorted files to entries by index.
	ModePositional Mode = "positional"
)

// Entry binds a logical table to the file that feeds it.
type Entry struct {
	Table   string `yaml:"table"`
	Pattern string `yaml:"pattern"`
}

// Manifest lists the source files an archive must provide.
type Manifest struct {
	Mode    Mode    `yaml:"mode"`
	Entries []Entry `yaml:"tables"`
}

// DefaultManifest matches the file names of the public NBA games dataset.
func DefaultManifest() Manifest {
	return Manifest{
		Mode: ModeNamed,
		Entries: []Entry{
			{Table: schema.TableGame, Pattern: "games.csv"},
			{Table: schema.TableStatistics, Pattern: "games_details.csv"},
			{Table: schema.TablePlayer, Pattern: "players.csv"},
			{Table: schema.TableRanking, Pattern: "ranking.csv"},
			{Table: schema.TableTeam, Pattern: "teams.csv"},
		},
	}
}

// PositionalManifest maps sorted files 0..4 to game, statistics, player,
// ranking and team, ignoring file names.
func PositionalManifest() Manifest {
	m := DefaultManifest()
	m.Mode = ModePositional
	for i := range m.Entries {
		m.Entries[i].Pattern = ""
	}
	return m
}

// ParseManifest decodes a YAML manifest:
//
//	mode: named
//	tables:
//	  - table: team
//	    pattern: "teams*.csv"
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Mode == "" {
		m.Mode = ModeNamed
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// LoadManifest reads a YAML manifest from path.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ResolveManifest turns a configured manifest value into a Manifest.
// "" and "named" select the default, "positional" selects the legacy
// positional mapping, anything else is read as a YAML file path.
func ResolveManifest(value string) (Manifest, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(ModeNamed):
		return DefaultManifest(), nil
	case string(ModePositional):
		return PositionalManifest(), nil
	default:
		return LoadManifest(value)
	}
}

// Validate checks the manifest is usable.
func (m Manifest) Validate() error {
	if m.Mode != ModeNamed && m.Mode != ModePositional {
		return fmt.Errorf("manifest: unknown mode %q", m.Mode)
	}
	if len(m.Entries) == 0 {
		return fmt.Errorf("manifest: no tables")
	}
	seen := make(map[string]bool, len(m.Entries))
	for _, e := range m.Entries {
		if e.Table == "" {
			return fmt.Errorf("manifest: entry without table")
		}
		if seen[e.Table] {
			return fmt.Errorf("manifest: table %q listed twice", e.Table)
		}
		seen[e.Table] = true

		if m.Mode == ModeNamed {
			if e.Pattern == "" {
				return fmt.Errorf("manifest: table %q has no pattern", e.Table)
			}
			if _, err := path.Match(e.Pattern, ""); err != nil {
				return fmt.Errorf("manifest: table %q: bad pattern %q: %w", e.Table, e.Pattern, err)
			}
		}
	}
	return nil
}

// Assign maps each manifest table to one of files, which must be sorted.
func (m Manifest) Assign(files []string) (map[string]string, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if len(files) < len(m.Entries) {
		return nil, fmt.Errorf("archive holds %d files, need at least %d", len(files), len(m.Entries))
	}

	out := make(map[string]string, len(m.Entries))
	if m.Mode == ModePositional {
		for i, e := range m.Entries {
			out[e.Table] = files[i]
		}
		return out, nil
	}

	for _, e := range m.Entries {
		var matches []string
		for _, f := range files {
			// Patterns use / semantics regardless of OS; match on base name.
			if ok, _ := path.Match(e.Pattern, filepath.Base(f)); ok {
				matches = append(matches, f)
			}
		}
		switch len(matches) {
		case 1:
			out[e.Table] = matches[0]
		case 0:
			return nil, fmt.Errorf("table %q: no file matches %q", e.Table, e.Pattern)
		default:
			sort.Strings(matches)
			return nil, fmt.Errorf("table %q: pattern %q matches %d files: %s",
				e.Table, e.Pattern, len(matches), strings.Join(matches, ", "))
		}
	}
	return out, nil
}
