package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/bher20/npahowtopay/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string     `json:"token"`
	Role      string     `json:"role"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := s.Auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		log.Printf("api: authenticate: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	expiresAt, err := auth.ParseExpirationDuration(s.TokenExpiry)
	if err != nil {
		log.Printf("api: token expiry %q: %v", s.TokenExpiry, err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	token, raw, err := s.Auth.CreateToken(r.Context(), user.ID, "login", user.Role, expiresAt)
	if err != nil {
		log.Printf("api: create token: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: raw, Role: token.Role, ExpiresAt: token.ExpiresAt})
}
