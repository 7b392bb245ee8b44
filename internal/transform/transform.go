// Package transform cleans raw CSV datasets into store-shaped tables.
//
// The cleaning logic is injected: a [Set] carries one hook per source file and
// the orchestrator calls [Set.Apply]. [Default] returns hooks for the public NBA
// games dataset.
package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/hoopsdb/internal/core"
	"github.com/JonMunkholm/hoopsdb/internal/dataset"
	"github.com/JonMunkholm/hoopsdb/internal/logging"
	"github.com/JonMunkholm/hoopsdb/internal/schema"
)

// Func cleans one raw dataset into one table.
type Func func(raw dataset.Raw) (dataset.Table, error)

// PlayerFunc cleans the player file, which feeds both the player table and
// the team_player association.
type PlayerFunc func(raw dataset.Raw) (players, teamPlayers dataset.Table, err error)

// Set holds the five cleaning hooks. All are required.
type Set struct {
	Team       Func
	Player     PlayerFunc
	Ranking    Func
	Game       Func
	Statistics Func
}

// Default returns the cleaning hooks for the NBA games dataset.
func Default() Set {
	return Set{
		Team:       Teams,
		Player:     Players,
		Ranking:    Rankings,
		Game:       Games,
		Statistics: Statistics,
	}
}

// Validate reports the first missing hook.
func (s Set) Validate() error {
	switch {
	case s.Team == nil:
		return fmt.Errorf("no %s transform", schema.TableTeam)
	case s.Player == nil:
		return fmt.Errorf("no %s transform", schema.TablePlayer)
	case s.Ranking == nil:
		return fmt.Errorf("no %s transform", schema.TableRanking)
	case s.Game == nil:
		return fmt.Errorf("no %s transform", schema.TableGame)
	case s.Statistics == nil:
		return fmt.Errorf("no %s transform", schema.TableStatistics)
	}
	return nil
}

// Apply runs the hooks in the order team, player, ranking, game, statistics
// and returns the cleaned tables keyed by table name, team_player included.
// The first failure stops the stage with a TransformError.
func (s Set) Apply(ctx context.Context, raw map[string]dataset.Raw) (map[string]dataset.Table, error) {
	if err := s.Validate(); err != nil {
		return nil, core.E(core.KindTransform, "transform", err)
	}

	out := make(map[string]dataset.Table, len(raw)+1)
	logger := logging.FromContext(ctx)

	single := func(table string, fn Func) error {
		in, err := input(raw, table)
		if err != nil {
			return err
		}
		start := time.Now()
		t, err := fn(in)
		if err != nil {
			return tableError(table, err)
		}
		out[table] = named(t, table)
		logger.Debug("table cleaned", "table", table, "in", in.Len(), "out", t.Len(), "duration", time.Since(start))
		return nil
	}

	if err := single(schema.TableTeam, s.Team); err != nil {
		return nil, err
	}

	in, err := input(raw, schema.TablePlayer)
	if err != nil {
		return nil, err
	}
	players, links, err := s.Player(in)
	if err != nil {
		return nil, tableError(schema.TablePlayer, err)
	}
	out[schema.TablePlayer] = named(players, schema.TablePlayer)
	out[schema.TableTeamPlayer] = named(links, schema.TableTeamPlayer)
	logger.Debug("table cleaned", "table", schema.TablePlayer, "in", in.Len(),
		"players", players.Len(), "team_players", links.Len())

	for _, step := range []struct {
		table string
		fn    Func
	}{
		{schema.TableRanking, s.Ranking},
		{schema.TableGame, s.Game},
		{schema.TableStatistics, s.Statistics},
	} {
		if err := ctx.Err(); err != nil {
			return nil, core.E(core.KindTransform, "transform", err)
		}
		if err := single(step.table, step.fn); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func input(raw map[string]dataset.Raw, table string) (dataset.Raw, error) {
	in, ok := raw[table]
	if !ok {
		return dataset.Raw{}, core.TableErrorf(core.KindTransform, table, "transform", "no raw dataset")
	}
	return in, nil
}

func tableError(table string, err error) error {
	if core.KindOf(err) != core.KindInternal {
		return err
	}
	return &core.Error{Kind: core.KindTransform, Op: "transform", Table: table, Err: err}
}

func named(t dataset.Table, table string) dataset.Table {
	if t.Name == "" {
		t.Name = table
	}
	return t
}
