package http

import (
	"net/http"
	"strings"

	"smartsave/internal/core"
	"smartsave/internal/services"
)

const (
	defaultDepositLimit = 10
	maxDepositLimit     = 100
)

type depositResponse struct {
	Goal    services.GoalView `json:"goal"`
	Deposit core.Deposit      `json:"deposit"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request, user core.User) {
	goals, err := s.deps.Goals.List(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(goals))
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request, user core.User) {
	goal, err := s.deps.Goals.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, user core.User) {
	var req goalRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	g, err := req.goal()
	if err != nil {
		respondError(w, r, err)
		return
	}
	goal, err := s.deps.Goals.Create(r.Context(), user.ID, g)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, goal)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request, user core.User) {
	var req goalUpdateRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	u, err := req.update()
	if err != nil {
		respondError(w, r, err)
		return
	}
	goal, err := s.deps.Goals.Update(r.Context(), user.ID, r.PathValue("id"), u)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request, user core.User) {
	if err := s.deps.Goals.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request, user core.User) {
	var req depositRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	goal, deposit, err := s.deps.Goals.Deposit(r.Context(), user.ID, r.PathValue("id"), req.Amount, sanitizeInput(req.Description))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, depositResponse{Goal: goal, Deposit: deposit})
}

// handleListDeposits lists the newest deposits, optionally for one goal.
func (s *Server) handleListDeposits(w http.ResponseWriter, r *http.Request, user core.User) {
	query := r.URL.Query()
	goalID := strings.TrimSpace(query.Get("savings_goal_id"))
	limit, err := ParseLimit(query, "limit", defaultDepositLimit, maxDepositLimit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	deposits, err := s.deps.Goals.Deposits(r.Context(), user.ID, goalID, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deposits)
}
