package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/hoopsdb/internal/core"
	"github.com/JonMunkholm/hoopsdb/internal/schema"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	st, err := Materialize(context.Background(), Options{
		Location: filepath.Join(t.TempDir(), "nba"),
	}, schema.NBA())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

var fixture = []string{
	`INSERT INTO team (id, abbreviation, city, arena) VALUES
		(1610612737, 'ATL', 'Atlanta', 'State Farm Arena'),
		(1610612738, 'BOS', 'Boston', 'TD Garden')`,
	`INSERT INTO player (id, player_name) VALUES ('1629027', 'Trae Young'), ('1628369', 'Jayson Tatum')`,
	`INSERT INTO team_player (player_id, team_id, season) VALUES
		('1629027', 1610612737, 2019),
		('1629027', 1610612737, 2020),
		('1628369', 1610612738, 2019)`,
	`INSERT INTO ranking (team_id, season_id, standings_date, conference, games, wins, loses) VALUES
		(1610612737, 22019, '2020-03-01', 'East', 62, 19, 43),
		(1610612737, 22019, '2020-02-01', 'East', 50, 14, 36)`,
	`INSERT INTO game (id, game_date_est, home_team_id, visitor_team_id, game_status_text, season) VALUES
		(21900900, '2020-03-01', 1610612737, 1610612738, 'Final', 2019),
		(21900800, '2020-02-15', 1610612738, 1610612737, 'Final', 2019)`,
	`INSERT INTO statistics (team_id, game_id, player_id, points) VALUES
		(1610612737, 21900900, '1629027', 33),
		(1610612738, 21900900, '1628369', 25),
		(1610612737, 21900800, '1629027', 20)`,
}

func seed(t *testing.T, st *Store) {
	t.Helper()
	for _, q := range fixture {
		_, err := st.DB().Exec(q)
		require.NoError(t, err, q)
	}
}

func TestNormalizeLocation(t *testing.T) {
	tests := []struct {
		path, suffix, want string
	}{
		{"nba", ".db", "nba.db"},
		{"nba.db", ".db", "nba.db"},
		{"data/nba.sqlite", ".db", "data/nba.sqlite.db"},
		{"nba", "", "nba"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLocation(tt.path, tt.suffix), "NormalizeLocation(%q, %q)", tt.path, tt.suffix)
	}
}

func TestMaterialize_CreatesEmptySchema(t *testing.T) {
	st := newStore(t)

	assert.True(t, filepath.Ext(st.Location()) == ".db", "location %s should carry the suffix", st.Location())
	_, err := os.Stat(st.Location())
	require.NoError(t, err)

	counts, err := st.Counts(context.Background())
	require.NoError(t, err)
	assert.Len(t, counts, 6)
	for table, n := range counts {
		assert.Zero(t, n, table)
	}
}

func TestMaterialize_ExistingStoreFails(t *testing.T) {
	st := newStore(t)
	seed(t, st)

	_, err := Materialize(context.Background(), Options{Location: st.Location()}, schema.NBA())
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindStoreInit))
	assert.ErrorIs(t, err, ErrExists)

	// The existing store is left alone.
	counts, err := st.Counts(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[schema.TableTeam])
}

func TestMaterialize_MissingDirectory(t *testing.T) {
	loc := filepath.Join(t.TempDir(), "missing", "nba.db")
	_, err := Materialize(context.Background(), Options{Location: loc}, schema.NBA())
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindStoreInit))

	_, statErr := os.Stat(loc)
	assert.True(t, os.IsNotExist(statErr))
}

func TestMaterialize_InvalidSchemaLeavesNothing(t *testing.T) {
	loc := filepath.Join(t.TempDir(), "bad.db")
	bad := schema.Schema{Entities: []schema.Entity{{Name: "x", Columns: []schema.Column{{Name: "a"}}}}}

	_, err := Materialize(context.Background(), Options{Location: loc}, bad)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindStoreInit))
	_, statErr := os.Stat(loc)
	assert.True(t, os.IsNotExist(statErr))
}

func TestOpen(t *testing.T) {
	st := newStore(t)
	seed(t, st)
	require.NoError(t, st.Close())

	ro, err := Open(context.Background(), Options{Location: st.Location(), ReadOnly: true}, schema.NBA())
	require.NoError(t, err)
	defer ro.Close()

	teams, err := ro.Teams(context.Background())
	require.NoError(t, err)
	assert.Len(t, teams, 2)

	_, err = ro.DB().Exec(`DELETE FROM statistics`)
	assert.Error(t, err, "read-only store accepted a write")

	_, err = Open(context.Background(), Options{Location: filepath.Join(t.TempDir(), "none.db")}, schema.NBA())
	assert.True(t, core.IsKind(err, core.KindStoreInit))
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	seed(t, st)

	teams, err := st.Teams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "State Farm Arena", teams[0].Arena)
	assert.Equal(t, "ATL", teams[0].Abbreviation.String)
	assert.False(t, teams[0].Owner.Valid)

	team, err := st.Team(ctx, 1610612738)
	require.NoError(t, err)
	assert.Equal(t, "Boston", team.City.String)

	_, err = st.Team(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	player, err := st.Player(ctx, "1629027")
	require.NoError(t, err)
	assert.Equal(t, "Trae Young", player.Name.String)

	_, err = st.Player(ctx, "0")
	assert.ErrorIs(t, err, ErrNotFound)

	game, err := st.Game(ctx, 21900900)
	require.NoError(t, err)
	assert.Equal(t, "2020-03-01", game.GameDateEST.Time.Format("2006-01-02"))

	stats, err := st.StatisticsForTeam(ctx, 1610612737, Page{})
	require.NoError(t, err)
	assert.Len(t, stats, 2)
	assert.Equal(t, schema.DefaultComment, stats[0].Comment.String)
	assert.Equal(t, 33.0, stats[0].Points.Float64)

	stats, err = st.StatisticsForGame(ctx, 21900900)
	require.NoError(t, err)
	assert.Len(t, stats, 2)

	stats, err = st.StatisticsForPlayer(ctx, "1629027", Page{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, stats, 1)

	rankings, err := st.RankingsForTeam(ctx, 1610612737, Page{})
	require.NoError(t, err)
	require.Len(t, rankings, 2)
	assert.Equal(t, "2020-02-01", rankings[0].StandingsDate.Time.Format("2006-01-02"))

	games, err := st.GamesForTeam(ctx, 1610612737, Page{})
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.EqualValues(t, 21900800, games[0].ID)

	players, err := st.PlayersForTeam(ctx, 1610612737, pgtype.Int8{})
	require.NoError(t, err)
	assert.Len(t, players, 1)

	players, err = st.PlayersForTeam(ctx, 1610612737, pgtype.Int8{Int64: 2018, Valid: true})
	require.NoError(t, err)
	assert.Empty(t, players)

	seasons, err := st.TeamsForPlayer(ctx, "1629027")
	require.NoError(t, err)
	require.Len(t, seasons, 2)
	assert.EqualValues(t, 2019, seasons[0].Season.Int64)
	assert.Equal(t, "ATL", seasons[1].Team.Abbreviation.String)

	counts, err := st.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		schema.TableTeam:       2,
		schema.TablePlayer:     2,
		schema.TableTeamPlayer: 3,
		schema.TableRanking:    2,
		schema.TableGame:       2,
		schema.TableStatistics: 3,
	}, counts)
}

func TestDeleteGame_CascadesToStatistics(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	seed(t, st)

	require.NoError(t, st.DeleteGame(ctx, 21900900))

	stats, err := st.StatisticsForGame(ctx, 21900900)
	require.NoError(t, err)
	assert.Empty(t, stats)

	remaining, err := st.StatisticsForGame(ctx, 21900800)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	assert.ErrorIs(t, st.DeleteGame(ctx, 21900900), ErrNotFound)
}

func TestDeleteTeam_Referenced(t *testing.T) {
	st := newStore(t)
	seed(t, st)

	err := st.DeleteTeam(context.Background(), 1610612737)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindConstraint), "got %v", err)
}

func TestDeleteGame_CascadesWithoutForeignKeys(t *testing.T) {
	ctx := context.Background()
	st, err := Materialize(ctx, Options{
		Location:           filepath.Join(t.TempDir(), "nba"),
		DisableForeignKeys: true,
	}, schema.NBA())
	require.NoError(t, err)
	defer st.Close()
	seed(t, st)

	require.NoError(t, st.DeleteGame(ctx, 21900900))

	counts, err := st.Counts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[schema.TableGame])
	assert.EqualValues(t, 1, counts[schema.TableStatistics], "only the other game's row remains")
}

func TestDeleteTeam_Unreferenced(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	seed(t, st)

	_, err := st.DB().Exec(`INSERT INTO team (id, abbreviation, city, arena) VALUES (1610612739, 'CLE', 'Cleveland', 'Rocket Mortgage FieldHouse')`)
	require.NoError(t, err)

	before, err := st.Counts(ctx)
	require.NoError(t, err)

	require.NoError(t, st.DeleteTeam(ctx, 1610612739))

	after, err := st.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, before[schema.TableTeam]-1, after[schema.TableTeam])
	for _, name := range schema.NBA().TableNames() {
		if name != schema.TableTeam {
			assert.Equal(t, before[name], after[name], name)
		}
	}

	_, err = st.Team(ctx, 1610612739)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.DeleteTeam(ctx, 1610612739), ErrNotFound)
}

func TestForeignKeysDefaultOn(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want int
	}{
		{"zero value", Options{}, 1},
		{"disabled", Options{DisableForeignKeys: true}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Location = filepath.Join(t.TempDir(), "nba")
			st, err := Materialize(context.Background(), tt.opts, schema.NBA())
			require.NoError(t, err)
			defer st.Close()

			var got int
			require.NoError(t, st.DB().QueryRow(`PRAGMA foreign_keys`).Scan(&got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	st := newStore(t)

	_, err := st.DB().Exec(`INSERT INTO statistics (team_id, game_id, player_id) VALUES (1, 2, '3')`)
	require.Error(t, err)
	assert.True(t, IsConstraint(err))

	_, err = st.DB().Exec(`INSERT INTO team (id) VALUES (1)`)
	require.Error(t, err, "arena is NOT NULL")
	assert.True(t, IsConstraint(err))
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(core.KindLoad, "team", "insert", nil))

	err := Classify(core.KindLoad, "team", "insert", errors.New("disk I/O error"))
	assert.True(t, core.IsKind(err, core.KindLoad))

	var e *core.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "team", e.Table)
}

func TestRedact(t *testing.T) {
	got := redact(schema.Postgres, "postgres://user:secret@db:5432/nba")
	assert.Equal(t, "postgres://***@db:5432/nba", got)
	assert.Equal(t, "nba.db", redact(schema.SQLite, "nba.db"))
}
