package schema

// Logical table names. Raw datasets use the same names for the five source
// files; team_player is derived from the player file.
const (
	TableTeam       = "team"
	TablePlayer     = "player"
	TableTeamPlayer = "team_player"
	TableRanking    = "ranking"
	TableGame       = "game"
	TableStatistics = "statistics"
)

// DefaultComment fills statistics.comment when a row has none.
const DefaultComment = "Empty Comment"

func ref(table, column string) *Reference {
	return &Reference{Table: table, Column: column}
}

// NBA returns the six-entity basketball statistics schema.
func NBA() Schema {
	return Schema{Entities: []Entity{
		{
			Name: TableTeam,
			Columns: []Column{
				{Name: "id", Type: Integer, PrimaryKey: true, NotNull: true},
				{Name: "league_id", Type: Integer},
				{Name: "min_year", Type: Integer},
				{Name: "max_year", Type: Integer},
				{Name: "abbreviation", Type: Text, Size: 60},
				{Name: "nickname", Type: Text, Size: 60},
				{Name: "city", Type: Text, Size: 100},
				{Name: "arena", Type: Text, Size: 100, NotNull: true},
				{Name: "arena_capacity", Type: Float},
				{Name: "owner", Type: Text, Size: 100},
				{Name: "generalmanager", Type: Text, Size: 100},
				{Name: "headcoach", Type: Text, Size: 100},
				{Name: "d_league_affiliation", Type: Text, Size: 100},
			},
		},
		{
			Name: TablePlayer,
			Columns: []Column{
				{Name: "id", Type: Text, PrimaryKey: true, NotNull: true},
				{Name: "player_name", Type: Text, Size: 60},
			},
		},
		{
			Name: TableTeamPlayer,
			Columns: []Column{
				{Name: "id", Type: Integer, PrimaryKey: true, AutoIncrement: true, NotNull: true},
				{Name: "player_id", Type: Text, NotNull: true, References: ref(TablePlayer, "id")},
				{Name: "team_id", Type: Integer, NotNull: true, References: ref(TableTeam, "id")},
				{Name: "season", Type: Integer},
			},
		},
		{
			Name: TableRanking,
			Columns: []Column{
				{Name: "id", Type: Integer, PrimaryKey: true, AutoIncrement: true, NotNull: true},
				{Name: "team_id", Type: Integer, References: ref(TableTeam, "id")},
				{Name: "season_id", Type: Integer},
				{Name: "standings_date", Type: Date},
				{Name: "conference", Type: Text, Size: 60},
				{Name: "games", Type: Integer},
				{Name: "wins", Type: Integer},
				{Name: "loses", Type: Integer},
				{Name: "home_record", Type: Text, Size: 10},
				{Name: "road_record", Type: Text, Size: 10},
				{Name: "return_to_play", Type: Text, Size: 10},
			},
		},
		{
			Name: TableGame,
			Columns: []Column{
				{Name: "id", Type: Integer, PrimaryKey: true, NotNull: true},
				{Name: "game_date_est", Type: Date},
				{Name: "home_team_id", Type: Integer, References: ref(TableTeam, "id")},
				{Name: "visitor_team_id", Type: Integer, References: ref(TableTeam, "id")},
				{Name: "game_status_text", Type: Text, Size: 60},
				{Name: "season", Type: Integer},
			},
		},
		{
			Name: TableStatistics,
			Columns: []Column{
				{Name: "stat_id", Type: Integer, PrimaryKey: true, AutoIncrement: true, NotNull: true},
				{Name: "team_id", Type: Integer, References: ref(TableTeam, "id")},
				{Name: "game_id", Type: Integer, References: &Reference{Table: TableGame, Column: "id", OnDelete: Cascade}},
				{Name: "player_id", Type: Text, References: ref(TablePlayer, "id")},
				{Name: "comment", Type: Text, Size: 300, Default: DefaultComment},
				{Name: "minute", Type: Text, Size: 10},
				{Name: "field_g_made", Type: Float},
				{Name: "field_g_attempts", Type: Float},
				{Name: "field_g3_made", Type: Float},
				{Name: "field_g3_attempts", Type: Float},
				{Name: "free_throws_made", Type: Float},
				{Name: "free_throw_attempts", Type: Float},
				{Name: "off_rebound", Type: Float},
				{Name: "def_rebound", Type: Float},
				{Name: "assist", Type: Float},
				{Name: "steal", Type: Float},
				{Name: "block", Type: Float},
				{Name: "turnover", Type: Float},
				{Name: "personal_foul", Type: Float},
				{Name: "points", Type: Float},
				{Name: "plus_minus", Type: Float},
			},
		},
	}}
}
