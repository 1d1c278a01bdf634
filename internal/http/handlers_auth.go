package http

import (
	"net/http"
	"time"

	"smartsave/internal/auth"
	"smartsave/internal/core"
)

type sessionResponse struct {
	User      core.User `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	user, err := s.deps.Auth.Signup(r.Context(), req.Email, req.Password, sanitizeInput(req.Name))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	user, token, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	expires := time.Now().Add(s.deps.Auth.Sessions().TTL())
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.deps.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, sessionResponse{User: user, Token: token, ExpiresAt: expires})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.deps.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request, user core.User) {
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateWhatsApp(w http.ResponseWriter, r *http.Request, user core.User) {
	var req whatsAppRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	number := sanitizeInput(req.WhatsAppNumber)
	if err := s.deps.Auth.UpdateWhatsApp(r.Context(), user.ID, number); err != nil {
		respondError(w, r, err)
		return
	}
	user.WhatsAppNumber = number
	respondJSON(w, http.StatusOK, user)
}
