package transform

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/hoopsdb/internal/core"
	"github.com/JonMunkholm/hoopsdb/internal/dataset"
	"github.com/JonMunkholm/hoopsdb/internal/schema"
)

func raw(name string, header string, records ...string) dataset.Raw {
	r := dataset.Raw{Name: name, Header: strings.Split(header, ",")}
	for _, rec := range records {
		r.Records = append(r.Records, strings.Split(rec, ","))
	}
	return r
}

func sampleRaw() map[string]dataset.Raw {
	return map[string]dataset.Raw{
		schema.TableTeam: raw("team",
			"LEAGUE_ID,TEAM_ID,MIN_YEAR,MAX_YEAR,ABBREVIATION,NICKNAME,YEARFOUNDED,CITY,ARENA,ARENACAPACITY,OWNER,GENERALMANAGER,HEADCOACH,DLEAGUEAFFILIATION",
			"0,1610612737,1949,2019,ATL,Hawks,1949,Atlanta,State Farm Arena,18729.0,Tony Ressler,Travis Schlenk,Lloyd Pierce,College Park Skyhawks",
			"0,1610612738,1946,2019,BOS,Celtics,1946,Boston,,,Wyc Grousbeck,Danny Ainge,Brad Stevens,Maine Red Claws",
		),
		schema.TablePlayer: raw("player",
			"PLAYER_NAME,TEAM_ID,PLAYER_ID,SEASON",
			"Trae Young,1610612737,1629027,2019",
			"Trae Young,1610612737,1629027,2019",
			"Trae Young,1610612737,1629027.0,2020",
			"Jayson Tatum,1610612738,1628369,2019",
		),
		schema.TableRanking: raw("ranking",
			"TEAM_ID,LEAGUE_ID,SEASON_ID,STANDINGSDATE,CONFERENCE,TEAM,G,W,L,W_PCT,HOME_RECORD,ROAD_RECORD,RETURNTOPLAY",
			"1610612737,0,22019,2020-03-01,East,Atlanta,62,19,43,0.306,12-19,7-24,",
		),
		schema.TableGame: raw("game",
			"GAME_DATE_EST,GAME_ID,GAME_STATUS_TEXT,HOME_TEAM_ID,VISITOR_TEAM_ID,SEASON",
			"2020-03-01,21900900,Final,1610612737,1610612738,2019",
			"2020-03-01,21900900,Final,1610612737,1610612738,2019",
		),
		schema.TableStatistics: raw("statistics",
			"GAME_ID,TEAM_ID,TEAM_ABBREVIATION,TEAM_CITY,PLAYER_ID,PLAYER_NAME,NICKNAME,START_POSITION,COMMENT,MIN,FGM,FGA,FG_PCT,FG3M,FG3A,FG3_PCT,FTM,FTA,FT_PCT,OREB,DREB,REB,AST,STL,BLK,TO,PF,PTS,PLUS_MINUS",
			"21900900,1610612737,ATL,Atlanta,1629027,Trae Young,Trae,G,,35:12,10.0,22.0,0.455,4.0,11.0,0.364,9.0,10.0,0.9,1.0,3.0,4.0,8.0,1.0,0.0,5.0,2.0,33.0,-4.0",
			"21900900,1610612738,BOS,Boston,1628369,Jayson Tatum,Jayson,F,DNP - Coach's Decision,,,,,,,,,,,,,,,,,,,,",
		),
	}
}

func TestDefault_Apply(t *testing.T) {
	out, err := Default().Apply(context.Background(), sampleRaw())
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	wantLen := map[string]int{
		schema.TableTeam:       2,
		schema.TablePlayer:     2,
		schema.TableTeamPlayer: 3,
		schema.TableRanking:    1,
		schema.TableGame:       1,
		schema.TableStatistics: 2,
	}
	for table, want := range wantLen {
		got, ok := out[table]
		if !ok {
			t.Errorf("table %s missing", table)
			continue
		}
		if got.Len() != want {
			t.Errorf("%s rows = %d, want %d", table, got.Len(), want)
		}
		if got.Name != table {
			t.Errorf("%s Name = %q", table, got.Name)
		}
	}
}

func TestTransforms_MatchSchemaColumns(t *testing.T) {
	out, err := Default().Apply(context.Background(), sampleRaw())
	if err != nil {
		t.Fatal(err)
	}
	s := schema.NBA()
	for name, tbl := range out {
		e, ok := s.Entity(name)
		if !ok {
			t.Errorf("table %s is not in the schema", name)
			continue
		}
		insertable := make(map[string]bool)
		for _, c := range e.InsertColumns() {
			insertable[c] = true
		}
		for _, c := range tbl.Columns {
			if !insertable[c] {
				t.Errorf("%s: column %q is not insertable", name, c)
			}
		}
		for _, c := range e.RequiredColumns() {
			if tbl.ColumnIndex(c) < 0 {
				t.Errorf("%s: required column %q missing", name, c)
			}
		}
		for i, row := range tbl.Rows {
			if len(row) != len(tbl.Columns) {
				t.Errorf("%s row %d has %d values for %d columns", name, i, len(row), len(tbl.Columns))
			}
		}
	}
}

func TestTeams_ArenaPlaceholder(t *testing.T) {
	tbl, err := Teams(sampleRaw()[schema.TableTeam])
	if err != nil {
		t.Fatal(err)
	}
	arena := tbl.ColumnIndex("arena")
	if got := tbl.Rows[1][arena].(pgtype.Text); got.String != UnknownArena || !got.Valid {
		t.Errorf("empty arena = %+v, want %q", got, UnknownArena)
	}
	if got := tbl.Rows[0][tbl.ColumnIndex("arena_capacity")].(pgtype.Float8); got.Float64 != 18729 {
		t.Errorf("arena_capacity = %+v", got)
	}
	if got := tbl.Rows[1][tbl.ColumnIndex("arena_capacity")].(pgtype.Float8); got.Valid {
		t.Errorf("empty arena_capacity should be NULL, got %+v", got)
	}
}

func TestPlayers_Dedup(t *testing.T) {
	players, links, err := Players(sampleRaw()[schema.TablePlayer])
	if err != nil {
		t.Fatal(err)
	}
	if players.Len() != 2 {
		t.Errorf("players = %d, want 2", players.Len())
	}
	// "1629027.0" canonicalizes to the same player.
	for _, row := range links.Rows {
		if id := row[0].(pgtype.Text); id.String == "1629027.0" {
			t.Error("player id not canonicalized")
		}
	}
	if links.Len() != 3 {
		t.Errorf("team_player = %d, want 3", links.Len())
	}
}

func TestStatistics_EmptyCommentIsNull(t *testing.T) {
	tbl, err := Statistics(sampleRaw()[schema.TableStatistics])
	if err != nil {
		t.Fatal(err)
	}
	comment := tbl.ColumnIndex("comment")
	if got := tbl.Rows[0][comment].(pgtype.Text); got.Valid {
		t.Errorf("empty comment = %+v, want NULL", got)
	}
	if got := tbl.Rows[1][comment].(pgtype.Text); got.String != "DNP - Coach's Decision" {
		t.Errorf("comment = %+v", got)
	}
	if got := tbl.Rows[0][tbl.ColumnIndex("player_id")].(pgtype.Text); got.String != "1629027" {
		t.Errorf("player_id = %+v", got)
	}
}

func TestRankings_Date(t *testing.T) {
	tbl, err := Rankings(sampleRaw()[schema.TableRanking])
	if err != nil {
		t.Fatal(err)
	}
	got := tbl.Rows[0][tbl.ColumnIndex("standings_date")].(pgtype.Date)
	want := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Valid || !got.Time.Equal(want) {
		t.Errorf("standings_date = %+v, want %v", got, want)
	}
}

func TestApply_Errors(t *testing.T) {
	t.Run("missing hook", func(t *testing.T) {
		s := Default()
		s.Ranking = nil
		_, err := s.Apply(context.Background(), sampleRaw())
		if !core.IsKind(err, core.KindTransform) || !strings.Contains(err.Error(), "no ranking transform") {
			t.Errorf("Apply() error = %v", err)
		}
	})

	t.Run("missing dataset", func(t *testing.T) {
		in := sampleRaw()
		delete(in, schema.TableGame)
		_, err := Default().Apply(context.Background(), in)
		if !core.IsKind(err, core.KindTransform) {
			t.Errorf("Apply() error = %v, want TransformError", err)
		}
	})

	t.Run("missing key column", func(t *testing.T) {
		in := sampleRaw()
		in[schema.TableTeam] = raw("team", "ABBREVIATION,ARENA", "ATL,State Farm Arena")
		_, err := Default().Apply(context.Background(), in)
		if !core.IsKind(err, core.KindTransform) || !strings.Contains(err.Error(), `missing column "TEAM_ID"`) {
			t.Errorf("Apply() error = %v", err)
		}
	})

	t.Run("malformed key", func(t *testing.T) {
		in := sampleRaw()
		in[schema.TableGame] = raw("game", "GAME_ID,HOME_TEAM_ID", "abc,1610612737")
		_, err := Default().Apply(context.Background(), in)
		var e *core.Error
		if !errors.As(err, &e) || e.Kind != core.KindTransform || e.Table != schema.TableGame {
			t.Errorf("Apply() error = %v, want TransformError for game", err)
		}
	})

	t.Run("hook failure", func(t *testing.T) {
		s := Default()
		boom := errors.New("boom")
		s.Statistics = func(dataset.Raw) (dataset.Table, error) { return dataset.Table{}, boom }
		_, err := s.Apply(context.Background(), sampleRaw())
		if !errors.Is(err, boom) || !core.IsKind(err, core.KindTransform) {
			t.Errorf("Apply() error = %v", err)
		}
	})
}

func TestApply_Order(t *testing.T) {
	var order []string
	record := func(name string) Func {
		return func(r dataset.Raw) (dataset.Table, error) {
			order = append(order, name)
			return dataset.NewTable(name), nil
		}
	}
	s := Set{
		Team: record("team"),
		Player: func(dataset.Raw) (dataset.Table, dataset.Table, error) {
			order = append(order, "player")
			return dataset.Table{}, dataset.Table{}, nil
		},
		Ranking:    record("ranking"),
		Game:       record("game"),
		Statistics: record("statistics"),
	}
	out, err := s.Apply(context.Background(), sampleRaw())
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(order, ","); got != "team,player,ranking,game,statistics" {
		t.Errorf("order = %s", got)
	}
	if out[schema.TableTeamPlayer].Name != schema.TableTeamPlayer {
		t.Error("unnamed team_player table should be named by Apply")
	}
}
