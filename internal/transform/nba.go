package transform

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/hoopsdb/internal/dataset"
	"github.com/JonMunkholm/hoopsdb/internal/schema"
)

// UnknownArena replaces an empty team arena, which the store requires.
const UnknownArena = "Unknown"

// field maps one CSV header to one store column.
type field struct {
	Column string
	Header string
	Conv   func(string) any
}

func text(column, header string) field {
	return field{column, header, func(s string) any { return ToPgText(s) }}
}

func integer(column, header string) field {
	return field{column, header, func(s string) any { return ToPgInt8(s) }}
}

func float(column, header string) field {
	return field{column, header, func(s string) any { return ToPgFloat8(s) }}
}

func date(column, header string) field {
	return field{column, header, func(s string) any { return ToPgDate(s) }}
}

func columns(key string, fields []field) []string {
	out := make([]string, 0, len(fields)+1)
	if key != "" {
		out = append(out, key)
	}
	for _, f := range fields {
		out = append(out, f.Column)
	}
	return out
}

var teamFields = []field{
	integer("league_id", "LEAGUE_ID"),
	integer("min_year", "MIN_YEAR"),
	integer("max_year", "MAX_YEAR"),
	text("abbreviation", "ABBREVIATION"),
	text("nickname", "NICKNAME"),
	text("city", "CITY"),
	{"arena", "ARENA", func(s string) any {
		if t := ToPgText(s); t.Valid {
			return t
		}
		return pgtype.Text{String: UnknownArena, Valid: true}
	}},
	float("arena_capacity", "ARENACAPACITY"),
	text("owner", "OWNER"),
	text("generalmanager", "GENERALMANAGER"),
	text("headcoach", "HEADCOACH"),
	text("d_league_affiliation", "DLEAGUEAFFILIATION"),
}

var rankingFields = []field{
	integer("season_id", "SEASON_ID"),
	date("standings_date", "STANDINGSDATE"),
	text("conference", "CONFERENCE"),
	integer("games", "G"),
	integer("wins", "W"),
	integer("loses", "L"),
	text("home_record", "HOME_RECORD"),
	text("road_record", "ROAD_RECORD"),
	text("return_to_play", "RETURNTOPLAY"),
}

var gameFields = []field{
	date("game_date_est", "GAME_DATE_EST"),
	integer("home_team_id", "HOME_TEAM_ID"),
	integer("visitor_team_id", "VISITOR_TEAM_ID"),
	text("game_status_text", "GAME_STATUS_TEXT"),
	integer("season", "SEASON"),
}

var statisticsFields = []field{
	integer("team_id", "TEAM_ID"),
	integer("game_id", "GAME_ID"),
	{"player_id", "PLAYER_ID", func(s string) any { return PlayerKey(s) }},
	text("comment", "COMMENT"),
	text("minute", "MIN"),
	float("field_g_made", "FGM"),
	float("field_g_attempts", "FGA"),
	float("field_g3_made", "FG3M"),
	float("field_g3_attempts", "FG3A"),
	float("free_throws_made", "FTM"),
	float("free_throw_attempts", "FTA"),
	float("off_rebound", "OREB"),
	float("def_rebound", "DREB"),
	float("assist", "AST"),
	float("steal", "STL"),
	float("block", "BLK"),
	float("turnover", "TO"),
	float("personal_foul", "PF"),
	float("points", "PTS"),
	float("plus_minus", "PLUS_MINUS"),
}

// rows reads cells by header name.
type rows struct {
	idx map[string]int
}

func newRows(raw dataset.Raw, required ...string) (*rows, error) {
	idx := raw.HeaderIndex()
	for _, h := range required {
		if _, ok := idx[h]; !ok {
			return nil, fmt.Errorf("missing column %q", h)
		}
	}
	return &rows{idx: idx}, nil
}

// cell returns the named cell of rec, or "" when the column or cell is absent.
func (r *rows) cell(rec []string, header string) string {
	i, ok := r.idx[header]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func (r *rows) project(rec []string, fields []field) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = f.Conv(r.cell(rec, f.Header))
	}
	return out
}

// line returns the 1-based file line of record i, counting the header.
func line(i int) int {
	return i + 2
}

// keyedTable builds a table whose first column is an integer key read from
// keyHeader. Records with an empty key are dropped, duplicates keep the first
// occurrence and a malformed key fails the table.
func keyedTable(raw dataset.Raw, table, keyColumn, keyHeader string, fields []field) (dataset.Table, error) {
	r, err := newRows(raw, keyHeader)
	if err != nil {
		return dataset.Table{}, err
	}

	out := dataset.NewTable(table, columns(keyColumn, fields)...)
	seen := make(map[int64]bool, raw.Len())
	for i, rec := range raw.Records {
		key, ok, err := intKey(r.cell(rec, keyHeader))
		if err != nil {
			return dataset.Table{}, fmt.Errorf("line %d: %s: %w", line(i), keyHeader, err)
		}
		if !ok || seen[key.Int64] {
			continue
		}
		seen[key.Int64] = true
		out.Append(append([]any{key}, r.project(rec, fields)...)...)
	}
	return out, nil
}

// Teams cleans teams.csv.
func Teams(raw dataset.Raw) (dataset.Table, error) {
	return keyedTable(raw, schema.TableTeam, "id", "TEAM_ID", teamFields)
}

// Games cleans games.csv. The source repeats some games; the first row wins.
func Games(raw dataset.Raw) (dataset.Table, error) {
	return keyedTable(raw, schema.TableGame, "id", "GAME_ID", gameFields)
}

// Players cleans players.csv into unique players and the seasons each player
// spent with each team.
func Players(raw dataset.Raw) (dataset.Table, dataset.Table, error) {
	r, err := newRows(raw, "PLAYER_ID", "TEAM_ID")
	if err != nil {
		return dataset.Table{}, dataset.Table{}, err
	}

	players := dataset.NewTable(schema.TablePlayer, "id", "player_name")
	links := dataset.NewTable(schema.TableTeamPlayer, "player_id", "team_id", "season")

	type link struct {
		player string
		team   int64
		season int64
		valid  bool
	}
	seenPlayer := make(map[string]bool, raw.Len())
	seenLink := make(map[link]bool, raw.Len())

	for i, rec := range raw.Records {
		id := PlayerKey(r.cell(rec, "PLAYER_ID"))
		if !id.Valid {
			continue
		}
		if !seenPlayer[id.String] {
			seenPlayer[id.String] = true
			players.Append(id, ToPgText(r.cell(rec, "PLAYER_NAME")))
		}

		team, ok, err := intKey(r.cell(rec, "TEAM_ID"))
		if err != nil {
			return dataset.Table{}, dataset.Table{}, fmt.Errorf("line %d: TEAM_ID: %w", line(i), err)
		}
		if !ok {
			continue
		}
		season := ToPgInt8(r.cell(rec, "SEASON"))
		k := link{id.String, team.Int64, season.Int64, season.Valid}
		if seenLink[k] {
			continue
		}
		seenLink[k] = true
		links.Append(id, team, season)
	}
	return players, links, nil
}

// Rankings cleans ranking.csv. Rows keep source order; the store assigns ids.
func Rankings(raw dataset.Raw) (dataset.Table, error) {
	r, err := newRows(raw, "TEAM_ID")
	if err != nil {
		return dataset.Table{}, err
	}

	out := dataset.NewTable(schema.TableRanking, columns("team_id", rankingFields)...)
	for i, rec := range raw.Records {
		team, _, err := intKey(r.cell(rec, "TEAM_ID"))
		if err != nil {
			return dataset.Table{}, fmt.Errorf("line %d: TEAM_ID: %w", line(i), err)
		}
		out.Append(append([]any{team}, r.project(rec, rankingFields)...)...)
	}
	return out, nil
}

// Statistics cleans games_details.csv. An empty COMMENT is left NULL so the
// store default applies.
func Statistics(raw dataset.Raw) (dataset.Table, error) {
	r, err := newRows(raw, "GAME_ID", "TEAM_ID", "PLAYER_ID")
	if err != nil {
		return dataset.Table{}, err
	}

	out := dataset.NewTable(schema.TableStatistics, columns("", statisticsFields)...)
	for i, rec := range raw.Records {
		for _, h := range []string{"GAME_ID", "TEAM_ID"} {
			if _, _, err := parseInt(r.cell(rec, h)); err != nil {
				return dataset.Table{}, fmt.Errorf("line %d: %s: %w", line(i), h, err)
			}
		}
		out.Append(r.project(rec, statisticsFields)...)
	}
	return out, nil
}
