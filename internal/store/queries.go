package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/hoopsdb/internal/core"
	"github.com/JonMunkholm/hoopsdb/internal/schema"
)

// Navigation queries over the loaded store. Each relationship is walked
// explicitly; nothing is loaded lazily.

type scanner interface {
	Scan(dest ...any) error
}

const teamColumns = `t.id, t.league_id, t.min_year, t.max_year, t.abbreviation, t.nickname,
	t.city, t.arena, t.arena_capacity, t.owner, t.generalmanager, t.headcoach,
	t.d_league_affiliation`

func scanTeam(s scanner) (Team, error) {
	var t Team
	err := s.Scan(&t.ID, &t.LeagueID, &t.MinYear, &t.MaxYear, &t.Abbreviation, &t.Nickname,
		&t.City, &t.Arena, &t.ArenaCapacity, &t.Owner, &t.GeneralManager, &t.HeadCoach,
		&t.DLeagueAffiliation)
	return t, err
}

const statisticColumns = `s.stat_id, s.team_id, s.game_id, s.player_id, s.comment, s.minute,
	s.field_g_made, s.field_g_attempts, s.field_g3_made, s.field_g3_attempts,
	s.free_throws_made, s.free_throw_attempts, s.off_rebound, s.def_rebound,
	s.assist, s.steal, s.block, s.turnover, s.personal_foul, s.points, s.plus_minus`

func scanStatistic(s scanner) (Statistic, error) {
	var st Statistic
	err := s.Scan(&st.StatID, &st.TeamID, &st.GameID, &st.PlayerID, &st.Comment, &st.Minute,
		&st.FieldGoalsMade, &st.FieldGoalAttempts, &st.ThreesMade, &st.ThreeAttempts,
		&st.FreeThrowsMade, &st.FreeThrowAttempts, &st.OffRebound, &st.DefRebound,
		&st.Assist, &st.Steal, &st.Block, &st.Turnover, &st.PersonalFoul, &st.Points, &st.PlusMinus)
	return st, err
}

const gameColumns = `g.id, g.game_date_est, g.home_team_id, g.visitor_team_id, g.game_status_text, g.season`

func scanGame(s scanner) (Game, error) {
	var g Game
	err := s.Scan(&g.ID, &g.GameDateEST, &g.HomeTeamID, &g.VisitorTeamID, &g.GameStatusText, &g.Season)
	return g, err
}

const rankingColumns = `r.id, r.team_id, r.season_id, r.standings_date, r.conference, r.games,
	r.wins, r.loses, r.home_record, r.road_record, r.return_to_play`

func scanRanking(s scanner) (Ranking, error) {
	var r Ranking
	err := s.Scan(&r.ID, &r.TeamID, &r.SeasonID, &r.StandingsDate, &r.Conference, &r.Games,
		&r.Wins, &r.Loses, &r.HomeRecord, &r.RoadRecord, &r.ReturnToPlay)
	return r, err
}

// queryList runs q and scans every row with scan.
func queryList[T any](ctx context.Context, s *Store, what, q string, scan func(scanner) (T, error), args ...any) ([]T, error) {
	rows, err := s.db.QueryContext(ctx, s.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", what, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", what, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Teams returns every team ordered by id.
func (s *Store) Teams(ctx context.Context) ([]Team, error) {
	return queryList(ctx, s, "teams", `SELECT `+teamColumns+` FROM team t ORDER BY t.id`, scanTeam)
}

// Team returns one team.
func (s *Store) Team(ctx context.Context, id int64) (Team, error) {
	row := s.db.QueryRowContext(ctx, s.Rebind(`SELECT `+teamColumns+` FROM team t WHERE t.id = ?`), id)
	t, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Team{}, fmt.Errorf("team %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Team{}, fmt.Errorf("querying team: %w", err)
	}
	return t, nil
}

// Player returns one player.
func (s *Store) Player(ctx context.Context, id string) (Player, error) {
	var p Player
	err := s.db.QueryRowContext(ctx, s.Rebind(`SELECT id, player_name FROM player WHERE id = ?`), id).
		Scan(&p.ID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Player{}, fmt.Errorf("querying player: %w", err)
	}
	return p, nil
}

// Game returns one game.
func (s *Store) Game(ctx context.Context, id int64) (Game, error) {
	row := s.db.QueryRowContext(ctx, s.Rebind(`SELECT `+gameColumns+` FROM game g WHERE g.id = ?`), id)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Game{}, fmt.Errorf("game %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Game{}, fmt.Errorf("querying game: %w", err)
	}
	return g, nil
}

// StatisticsForTeam returns the box score lines recorded for a team.
func (s *Store) StatisticsForTeam(ctx context.Context, teamID int64, page Page) ([]Statistic, error) {
	page = page.normalized()
	return queryList(ctx, s, "statistics",
		`SELECT `+statisticColumns+` FROM statistics s WHERE s.team_id = ? ORDER BY s.stat_id LIMIT ? OFFSET ?`,
		scanStatistic, teamID, page.Limit, page.Offset)
}

// StatisticsForGame returns every box score line of a game.
func (s *Store) StatisticsForGame(ctx context.Context, gameID int64) ([]Statistic, error) {
	return queryList(ctx, s, "statistics",
		`SELECT `+statisticColumns+` FROM statistics s WHERE s.game_id = ? ORDER BY s.stat_id`,
		scanStatistic, gameID)
}

// StatisticsForPlayer returns a player's box score lines.
func (s *Store) StatisticsForPlayer(ctx context.Context, playerID string, page Page) ([]Statistic, error) {
	page = page.normalized()
	return queryList(ctx, s, "statistics",
		`SELECT `+statisticColumns+` FROM statistics s WHERE s.player_id = ? ORDER BY s.stat_id LIMIT ? OFFSET ?`,
		scanStatistic, playerID, page.Limit, page.Offset)
}

// RankingsForTeam returns a team's standings snapshots in date order.
func (s *Store) RankingsForTeam(ctx context.Context, teamID int64, page Page) ([]Ranking, error) {
	page = page.normalized()
	return queryList(ctx, s, "rankings",
		`SELECT `+rankingColumns+` FROM ranking r WHERE r.team_id = ?
		ORDER BY r.standings_date, r.id LIMIT ? OFFSET ?`,
		scanRanking, teamID, page.Limit, page.Offset)
}

// GamesForTeam returns the games a team played, home or away, in date order.
func (s *Store) GamesForTeam(ctx context.Context, teamID int64, page Page) ([]Game, error) {
	page = page.normalized()
	return queryList(ctx, s, "games",
		`SELECT `+gameColumns+` FROM game g WHERE g.home_team_id = ? OR g.visitor_team_id = ?
		ORDER BY g.game_date_est, g.id LIMIT ? OFFSET ?`,
		scanGame, teamID, teamID, page.Limit, page.Offset)
}

// PlayersForTeam returns the players rostered on a team, optionally
// restricted to one season.
func (s *Store) PlayersForTeam(ctx context.Context, teamID int64, season pgtype.Int8) ([]Player, error) {
	q := `SELECT DISTINCT p.id, p.player_name FROM player p
		JOIN team_player tp ON tp.player_id = p.id
		WHERE tp.team_id = ?`
	args := []any{teamID}
	if season.Valid {
		q += ` AND tp.season = ?`
		args = append(args, season.Int64)
	}
	q += ` ORDER BY p.id`

	return queryList(ctx, s, "players", q, func(sc scanner) (Player, error) {
		var p Player
		err := sc.Scan(&p.ID, &p.Name)
		return p, err
	}, args...)
}

// TeamsForPlayer returns the teams a player was rostered on, one entry per season.
func (s *Store) TeamsForPlayer(ctx context.Context, playerID string) ([]TeamSeason, error) {
	q := `SELECT ` + teamColumns + `, tp.season FROM team_player tp
		JOIN team t ON t.id = tp.team_id
		WHERE tp.player_id = ?
		ORDER BY tp.season, t.id`

	return queryList(ctx, s, "teams", q, func(sc scanner) (TeamSeason, error) {
		var ts TeamSeason
		t := &ts.Team
		err := sc.Scan(&t.ID, &t.LeagueID, &t.MinYear, &t.MaxYear, &t.Abbreviation, &t.Nickname,
			&t.City, &t.Arena, &t.ArenaCapacity, &t.Owner, &t.GeneralManager, &t.HeadCoach,
			&t.DLeagueAffiliation, &ts.Season)
		return ts, err
	}, playerID)
}

// Counts returns the row count of every table in the store's schema.
func (s *Store) Counts(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, len(s.schema.Entities))
	for _, name := range s.schema.TableNames() {
		var n int64
		// Table names come from the schema, never from input.
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+name).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", name, err)
		}
		out[name] = n
	}
	return out, nil
}

// DeleteGame removes a game and its statistics rows in one transaction. The
// statistics are removed explicitly so the cascade holds on connections
// without foreign-key enforcement.
func (s *Store) DeleteGame(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Classify(core.KindLoad, schema.TableGame, "begin delete", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.Rebind(`DELETE FROM statistics WHERE game_id = ?`), id); err != nil {
		return Classify(core.KindLoad, schema.TableStatistics, "delete", err)
	}
	if err := s.deleteByID(ctx, tx, schema.TableGame, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return Classify(core.KindLoad, schema.TableGame, "commit delete", err)
	}
	return nil
}

// DeleteTeam removes a team. It fails with a ConstraintViolation while any
// game, ranking, roster or statistics row still references the team.
func (s *Store) DeleteTeam(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, s.db, schema.TableTeam, id)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) deleteByID(ctx context.Context, db execer, table string, id int64) error {
	res, err := db.ExecContext(ctx, s.Rebind(`DELETE FROM `+table+` WHERE id = ?`), id)
	if err != nil {
		return Classify(core.KindLoad, table, "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
	}
	return nil
}
