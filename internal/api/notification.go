package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/bher20/npahowtopay/internal/auth"
	"github.com/bher20/npahowtopay/internal/storage"
)

func registerNotificationRoutes(mux *http.ServeMux, s *server) {
	s.handle(mux, "GET /api/v1/settings/email", auth.ObjSettings, auth.ActRead, func(w http.ResponseWriter, r *http.Request) {
		cfg, err := s.Notif.GetConfig(r.Context())
		if err != nil {
			log.Printf("api: get email config: %v", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		if cfg == nil {
			cfg = &storage.EmailConfig{}
		}
		redacted := *cfg
		if redacted.Password != "" {
			redacted.Password = "********"
		}
		if redacted.APIKey != "" {
			redacted.APIKey = "********"
		}
		writeJSON(w, http.StatusOK, redacted)
	})

	s.handle(mux, "PUT /api/v1/settings/email", auth.ObjSettings, auth.ActWrite, func(w http.ResponseWriter, r *http.Request) {
		var req storage.EmailConfig
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.Notif.SaveConfig(r.Context(), req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	s.handle(mux, "POST /api/v1/settings/email/test", auth.ObjSettings, auth.ActWrite, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Config storage.EmailConfig `json:"config"`
			To     string              `json:"to"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.Notif.TestConfig(r.Context(), req.Config, req.To); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}
