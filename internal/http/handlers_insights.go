package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"smartsave/internal/assistant"
	"smartsave/internal/core"
	"smartsave/internal/export"
	"smartsave/internal/log"
)

type syncResponse struct {
	Transactions int       `json:"transactions"`
	Budgets      int       `json:"budgets"`
	Goals        int       `json:"goals"`
	SyncedAt     time.Time `json:"synced_at"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request, user core.User) {
	recs, err := s.deps.Insights.Recommendations(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"recommendations": nonNil(recs)})
}

func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request, user core.User) {
	insights, err := s.deps.Insights.Savings(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, insights)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, user core.User) {
	summary, err := s.deps.Insights.Summary(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request, user core.User) {
	overview, err := s.deps.Insights.Overview(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

// handleAssistant always answers with a botMessage, even on failure.
func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request, user core.User) {
	var req assistantRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	reply, err := s.deps.Insights.Ask(r.Context(), user.ID, req.UserMessage)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, assistantResponse{BotMessage: reply})
	case errors.Is(err, assistant.ErrEmptyQuestion):
		respondError(w, r, err)
	case errors.Is(err, assistant.ErrNotConfigured):
		respondJSON(w, http.StatusServiceUnavailable, assistantResponse{BotMessage: assistant.NotConfiguredMessage})
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Assistant failed", log.FieldError, err)
		respondJSON(w, http.StatusInternalServerError, assistantResponse{BotMessage: assistant.ErrorMessage})
	}
}

func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request, user core.User) {
	s.writeCSVExport(w, r, "transactions", func(ctx context.Context, out io.Writer) error {
		return s.deps.Insights.ExportTransactions(ctx, user.ID, out)
	})
}

func (s *Server) handleExportGoals(w http.ResponseWriter, r *http.Request, user core.User) {
	s.writeCSVExport(w, r, "goals", func(ctx context.Context, out io.Writer) error {
		return s.deps.Insights.ExportGoals(ctx, user.ID, out)
	})
}

func (s *Server) handleExportRecommendations(w http.ResponseWriter, r *http.Request, user core.User) {
	s.writeCSVExport(w, r, "recommendations", func(ctx context.Context, out io.Writer) error {
		return s.deps.Insights.ExportRecommendations(ctx, user.ID, out)
	})
}

// writeCSVExport buffers the export so a failure can still produce a JSON
// error instead of a truncated download.
func (s *Server) writeCSVExport(w http.ResponseWriter, r *http.Request, kind string, write func(context.Context, io.Writer) error) {
	var buf bytes.Buffer
	if err := write(r.Context(), &buf); err != nil {
		respondError(w, r, err)
		return
	}
	NewResponse().
		Text("text/csv; charset=utf-8", buf.Bytes()).
		Attachment(export.Filename(kind, "csv", time.Now())).
		Write(w)
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request, user core.User) {
	report, err := s.deps.Insights.Report(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponse().
		Text("text/plain; charset=utf-8", []byte(report)).
		Attachment(export.Filename("report", "txt", time.Now())).
		Write(w)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, user core.User) {
	if err := s.deps.Insights.Reset(r.Context(), user.ID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request, user core.User) {
	snap, err := s.deps.Insights.Sync(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, syncResponse{
		Transactions: len(snap.Transactions),
		Budgets:      len(snap.Budgets),
		Goals:        len(snap.Goals),
		SyncedAt:     snap.LoadedAt,
	})
}
