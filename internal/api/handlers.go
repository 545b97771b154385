package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/mindful-arcade/internal/arcade"
	"github.com/MJE43/mindful-arcade/internal/games"
	"github.com/MJE43/mindful-arcade/internal/store"
)

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GamesResponse{
		Games:         s.arcade.Games(),
		ArcadeVersion: ArcadeVersion,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	s.writeGameState(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (s *Server) writeGameState(w http.ResponseWriter, r *http.Request, id string, status int) {
	state, err := s.arcade.Snapshot(id)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	spec, _ := games.Lookup(id)
	s.writeJSON(w, status, GameStateResponse{Game: spec, State: state})
}

// handleGameAction dispatches a presentation event and answers with the
// resulting state.
func (s *Server) handleGameAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	action, err := arcade.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	// A select body is required only by games that read its value.
	var req ActionRequest
	if action == arcade.ActionSelect {
		spec, _ := games.Lookup(id)
		if !s.decodeJSON(w, r, &req, !spec.SelectValue) {
			return
		}
	}

	if err := s.arcade.Do(id, action, req.Value); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeGameState(w, r, id, http.StatusOK)
}

func (s *Server) handleListScores(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, ScoresResponse{Scores: s.arcade.Scores()})
}

// handleReportScore feeds an externally played attempt into the board. The
// board keeps the maximum, so a lower score is accepted but changes nothing.
func (s *Server) handleReportScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if !s.decodeJSON(w, r, &req, false) || !s.validateStruct(w, r, &req) {
		return
	}
	s.arcade.Board().Report(req.GameID, *req.Score)
	s.writeJSON(w, http.StatusOK, ScoresResponse{Scores: s.arcade.Scores()})
}

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.unavailable(w, r, "attempt history")
		return
	}

	q := store.AttemptsQuery{Game: r.URL.Query().Get("game")}
	if q.Game != "" {
		if _, ok := games.Lookup(q.Game); !ok {
			s.errorHandler.HandleValidationError(w, r, "game", "unknown game "+strconv.Quote(q.Game))
			return
		}
	}
	var ok bool
	if q.Page, ok = s.queryInt(w, r, "page"); !ok {
		return
	}
	if q.PerPage, ok = s.queryInt(w, r, "per_page"); !ok {
		return
	}

	page, err := s.db.ListAttempts(r.Context(), q)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		s.unavailable(w, r, "challenges")
		return
	}
	statuses, err := s.tracker.List(r.Context())
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	total, err := s.tracker.TokensEarned(r.Context())
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ChallengesResponse{Challenges: statuses, TokensEarned: total})
}

func (s *Server) handleClaimChallenge(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		s.unavailable(w, r, "challenges")
		return
	}
	claim, err := s.tracker.Claim(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, claim)
}

func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		s.unavailable(w, r, "achievements")
		return
	}
	list, err := s.tracker.Achievements(r.Context())
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	resp := AchievementsResponse{Achievements: list}
	for _, a := range list {
		if a.Unlocked {
			resp.Unlocked++
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// queryInt parses an optional non-negative integer query parameter.
func (s *Server) queryInt(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		s.errorHandler.HandleValidationError(w, r, key, key+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}

func (s *Server) unavailable(w http.ResponseWriter, r *http.Request, what string) {
	apiErr := NewError(ErrTypeServiceUnavailable, what+" is not available").
		WithRequestID(middleware.GetReqID(r.Context())).
		Build()
	s.errorHandler.write(w, r, http.StatusServiceUnavailable, apiErr)
}
