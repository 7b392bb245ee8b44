package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/hoopsdb/internal/store"
	"github.com/JonMunkholm/hoopsdb/internal/transform"
)

// SummaryResponse is returned by GET /api/summary.
type SummaryResponse struct {
	Store   string           `json:"store"`
	Dialect string           `json:"dialect"`
	Tables  map[string]int64 `json:"tables"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DB().PingContext(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.Counts(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	loc := s.store.Location()
	if s.store.Dialect().IsPostgres() {
		loc = "postgres"
	}
	writeJSON(w, http.StatusOK, SummaryResponse{
		Store:   loc,
		Dialect: s.store.Dialect().Name,
		Tables:  counts,
	})
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.store.Teams(r.Context())
	respond(w, r, teams, err)
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	team, err := s.store.Team(r.Context(), id)
	respond(w, r, team, err)
}

func (s *Server) handleTeamStatistics(w http.ResponseWriter, r *http.Request) {
	id, page, err := idAndPage(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	stats, err := s.store.StatisticsForTeam(r.Context(), id, page)
	respond(w, r, stats, err)
}

func (s *Server) handleTeamRankings(w http.ResponseWriter, r *http.Request) {
	id, page, err := idAndPage(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rankings, err := s.store.RankingsForTeam(r.Context(), id, page)
	respond(w, r, rankings, err)
}

func (s *Server) handleTeamGames(w http.ResponseWriter, r *http.Request) {
	id, page, err := idAndPage(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	games, err := s.store.GamesForTeam(r.Context(), id, page)
	respond(w, r, games, err)
}

func (s *Server) handleTeamPlayers(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var season pgtype.Int8
	if v := r.URL.Query().Get("season"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, r, &badRequest{param: "season", err: err})
			return
		}
		season = pgtype.Int8{Int64: n, Valid: true}
	}
	players, err := s.store.PlayersForTeam(r.Context(), id, season)
	respond(w, r, players, err)
}

func (s *Server) handleGameStatistics(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if _, err := s.store.Game(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	stats, err := s.store.StatisticsForGame(r.Context(), id)
	respond(w, r, stats, err)
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	player, err := s.store.Player(r.Context(), playerParam(r))
	respond(w, r, player, err)
}

func (s *Server) handlePlayerTeams(w http.ResponseWriter, r *http.Request) {
	id := playerParam(r)
	if _, err := s.store.Player(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	teams, err := s.store.TeamsForPlayer(r.Context(), id)
	respond(w, r, teams, err)
}

func (s *Server) handlePlayerStatistics(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	stats, err := s.store.StatisticsForPlayer(r.Context(), playerParam(r), page)
	respond(w, r, stats, err)
}

func respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func intParam(r *http.Request, name string) (int64, error) {
	v := chi.URLParam(r, name)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &badRequest{param: name, err: err}
	}
	return n, nil
}

// playerParam returns the player id path parameter in its stored form.
func playerParam(r *http.Request) string {
	return transform.PlayerKey(chi.URLParam(r, "id")).String
}

func pageParams(r *http.Request) (store.Page, error) {
	var p store.Page
	q := r.URL.Query()
	for _, f := range []struct {
		name string
		dst  *int
	}{{"limit", &p.Limit}, {"offset", &p.Offset}} {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			if err == nil {
				err = strconv.ErrRange
			}
			return p, &badRequest{param: f.name, err: err}
		}
		*f.dst = n
	}
	return p, nil
}

func idAndPage(r *http.Request) (int64, store.Page, error) {
	id, err := intParam(r, "id")
	if err != nil {
		return 0, store.Page{}, err
	}
	page, err := pageParams(r)
	return id, page, err
}
