package http

import (
	"net/http"

	"smartsave/internal/core"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, user core.User) {
	budgets, err := s.deps.Budgets.List(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(budgets))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	var req budgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	b, err := s.deps.Budgets.Create(r.Context(), user.ID, req.budget())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, b)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	var req budgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	b, err := s.deps.Budgets.Update(r.Context(), user.ID, r.PathValue("id"), req.budget())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	if err := s.deps.Budgets.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetAlerts(w http.ResponseWriter, r *http.Request, user core.User) {
	alerts, err := s.deps.Budgets.Alerts(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}
