package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/hoopsdb/internal/config"
	"github.com/JonMunkholm/hoopsdb/internal/schema"
	"github.com/JonMunkholm/hoopsdb/internal/store"
)

var fixture = []string{
	`INSERT INTO team (id, abbreviation, city, arena) VALUES
		(1610612737, 'ATL', 'Atlanta', 'State Farm Arena'),
		(1610612738, 'BOS', 'Boston', 'TD Garden')`,
	`INSERT INTO player (id, player_name) VALUES ('1629027', 'Trae Young'), ('1628369', 'Jayson Tatum')`,
	`INSERT INTO team_player (player_id, team_id, season) VALUES
		('1629027', 1610612737, 2019), ('1629027', 1610612737, 2020), ('1628369', 1610612738, 2019)`,
	`INSERT INTO ranking (team_id, season_id, standings_date, conference) VALUES
		(1610612737, 22019, '2020-03-01', 'East')`,
	`INSERT INTO game (id, game_date_est, home_team_id, visitor_team_id, season) VALUES
		(21900900, '2020-03-01', 1610612737, 1610612738, 2019)`,
	`INSERT INTO statistics (team_id, game_id, player_id, points) VALUES
		(1610612737, 21900900, '1629027', 33), (1610612738, 21900900, '1628369', 25)`,
}

func newTestServer(t *testing.T, cfg config.ServerConfig) *Server {
	t.Helper()
	st, err := store.Materialize(context.Background(), store.Options{
		Location: filepath.Join(t.TempDir(), "nba"),
	}, schema.NBA())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	for _, q := range fixture {
		_, err := st.DB().Exec(q)
		require.NoError(t, err, q)
	}

	s := NewServer(st, cfg)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{RequestTimeout: 5 * time.Second})

	tests := []struct {
		path   string
		status int
		count  int // expected array length; -1 for objects
	}{
		{"/healthz", http.StatusOK, -1},
		{"/api/summary", http.StatusOK, -1},
		{"/api/teams", http.StatusOK, 2},
		{"/api/teams/1610612737", http.StatusOK, -1},
		{"/api/teams/1610612737/statistics", http.StatusOK, 1},
		{"/api/teams/1610612737/rankings", http.StatusOK, 1},
		{"/api/teams/1610612738/games", http.StatusOK, 1},
		{"/api/teams/1610612737/players", http.StatusOK, 1},
		{"/api/teams/1610612737/players?season=2018", http.StatusOK, 0},
		{"/api/games/21900900/statistics", http.StatusOK, 2},
		{"/api/players/1629027", http.StatusOK, -1},
		{"/api/players/1629027.0/teams", http.StatusOK, 2},
		{"/api/players/1629027/statistics?limit=1", http.StatusOK, 1},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, s, tt.path)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			if tt.count >= 0 {
				assert.Len(t, decode[[]json.RawMessage](t, rec), tt.count)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	got := decode[SummaryResponse](t, get(t, s, "/api/summary"))
	assert.Equal(t, "sqlite", got.Dialect)
	assert.EqualValues(t, 2, got.Tables[schema.TableTeam])
	assert.EqualValues(t, 3, got.Tables[schema.TableTeamPlayer])
}

func TestTeamJSON(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	got := decode[map[string]any](t, get(t, s, "/api/teams/1610612738"))
	assert.Equal(t, "TD Garden", got["arena"])
	assert.Equal(t, "BOS", got["abbreviation"])
	assert.Nil(t, got["owner"], "NULL columns encode as null")
}

func TestErrors(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/api/teams/1", http.StatusNotFound, "NF001"},
		{"/api/teams/abc", http.StatusBadRequest, "REQ001"},
		{"/api/teams/1610612737/players?season=latest", http.StatusBadRequest, "REQ001"},
		{"/api/teams/1610612737/games?limit=-5", http.StatusBadRequest, "REQ001"},
		{"/api/games/1/statistics", http.StatusNotFound, "NF001"},
		{"/api/players/0", http.StatusNotFound, "NF001"},
		{"/api/players/0/teams", http.StatusNotFound, "NF001"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, s, tt.path)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{RateLimit: 2})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, get(t, s, "/healthz").Code)
	}
	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "REQ002", decode[ErrorResponse](t, rec).Code)
}
