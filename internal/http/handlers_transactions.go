package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"smartsave/internal/core"
	"smartsave/internal/services"
)

const maxLatestLimit = 100

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, user core.User) {
	txs, err := s.deps.Transactions.List(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(txs))
}

func (s *Server) handleLatestTransactions(w http.ResponseWriter, r *http.Request, user core.User) {
	limit, err := ParseLimit(r.URL.Query(), "limit", services.DefaultLatestLimit, maxLatestLimit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	txs, err := s.deps.Transactions.Latest(r.Context(), user.ID, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(txs))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	var req transactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	t, err := req.transaction()
	if err != nil {
		respondError(w, r, err)
		return
	}
	created, err := s.deps.Transactions.Create(r.Context(), user.ID, t)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// handleUploadCSV accepts a multipart "file" field or a raw text/csv body.
func (s *Server) handleUploadCSV(w http.ResponseWriter, r *http.Request, user core.User) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadSize+1<<20)

	var (
		filename = "upload.csv"
		body     io.Reader
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				respondError(w, r, services.ErrFileTooLarge)
				return
			}
			respondError(w, r, fmt.Errorf("%w: missing multipart field \"file\"", errBadRequest))
			return
		}
		defer file.Close()
		filename, body = header.Filename, file
	} else {
		if name := r.URL.Query().Get("filename"); name != "" {
			filename = name
		}
		body = r.Body
	}

	result, err := s.deps.Transactions.Import(r.Context(), user.ID, filename, body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = services.ErrFileTooLarge
		}
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// nonNil keeps empty collections encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
