package store

import "github.com/jackc/pgx/v5/pgtype"

// Team is a row of the team table.
type Team struct {
	ID                 int64         `json:"id"`
	LeagueID           pgtype.Int8   `json:"league_id"`
	MinYear            pgtype.Int8   `json:"min_year"`
	MaxYear            pgtype.Int8   `json:"max_year"`
	Abbreviation       pgtype.Text   `json:"abbreviation"`
	Nickname           pgtype.Text   `json:"nickname"`
	City               pgtype.Text   `json:"city"`
	Arena              string        `json:"arena"`
	ArenaCapacity      pgtype.Float8 `json:"arena_capacity"`
	Owner              pgtype.Text   `json:"owner"`
	GeneralManager     pgtype.Text   `json:"generalmanager"`
	HeadCoach          pgtype.Text   `json:"headcoach"`
	DLeagueAffiliation pgtype.Text   `json:"d_league_affiliation"`
}

// Player is a row of the player table.
type Player struct {
	ID   string      `json:"id"`
	Name pgtype.Text `json:"player_name"`
}

// TeamSeason is one team a player was rostered on, by season.
type TeamSeason struct {
	Team   Team        `json:"team"`
	Season pgtype.Int8 `json:"season"`
}

// Ranking is a row of the ranking table.
type Ranking struct {
	ID            int64       `json:"id"`
	TeamID        pgtype.Int8 `json:"team_id"`
	SeasonID      pgtype.Int8 `json:"season_id"`
	StandingsDate pgtype.Date `json:"standings_date"`
	Conference    pgtype.Text `json:"conference"`
	Games         pgtype.Int8 `json:"games"`
	Wins          pgtype.Int8 `json:"wins"`
	Loses         pgtype.Int8 `json:"loses"`
	HomeRecord    pgtype.Text `json:"home_record"`
	RoadRecord    pgtype.Text `json:"road_record"`
	ReturnToPlay  pgtype.Text `json:"return_to_play"`
}

// Game is a row of the game table.
type Game struct {
	ID             int64       `json:"id"`
	GameDateEST    pgtype.Date `json:"game_date_est"`
	HomeTeamID     pgtype.Int8 `json:"home_team_id"`
	VisitorTeamID  pgtype.Int8 `json:"visitor_team_id"`
	GameStatusText pgtype.Text `json:"game_status_text"`
	Season         pgtype.Int8 `json:"season"`
}

// Statistic is one player's box score line for one game.
type Statistic struct {
	StatID            int64         `json:"stat_id"`
	TeamID            pgtype.Int8   `json:"team_id"`
	GameID            pgtype.Int8   `json:"game_id"`
	PlayerID          pgtype.Text   `json:"player_id"`
	Comment           pgtype.Text   `json:"comment"`
	Minute            pgtype.Text   `json:"minute"`
	FieldGoalsMade    pgtype.Float8 `json:"field_g_made"`
	FieldGoalAttempts pgtype.Float8 `json:"field_g_attempts"`
	ThreesMade        pgtype.Float8 `json:"field_g3_made"`
	ThreeAttempts     pgtype.Float8 `json:"field_g3_attempts"`
	FreeThrowsMade    pgtype.Float8 `json:"free_throws_made"`
	FreeThrowAttempts pgtype.Float8 `json:"free_throw_attempts"`
	OffRebound        pgtype.Float8 `json:"off_rebound"`
	DefRebound        pgtype.Float8 `json:"def_rebound"`
	Assist            pgtype.Float8 `json:"assist"`
	Steal             pgtype.Float8 `json:"steal"`
	Block             pgtype.Float8 `json:"block"`
	Turnover          pgtype.Float8 `json:"turnover"`
	PersonalFoul      pgtype.Float8 `json:"personal_foul"`
	Points            pgtype.Float8 `json:"points"`
	PlusMinus         pgtype.Float8 `json:"plus_minus"`
}

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

func (p Page) normalized() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
