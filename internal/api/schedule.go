package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/bher20/npahowtopay/internal/cron"
)

type scheduleSettings struct {
	Schedule string `json:"schedule"`
	Run      string `json:"run"`
}

func (s *server) getSchedule(w http.ResponseWriter, r *http.Request) {
	var out scheduleSettings
	var err error
	if out.Schedule, err = s.Store.GetSetting(r.Context(), cron.ScheduleSetting); err != nil {
		log.Printf("api: get schedule: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if out.Run, err = s.Store.GetSetting(r.Context(), cron.RunSetting); err != nil {
		log.Printf("api: get schedule run: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// putSchedule overrides the worker's schedule and run. Empty fields are left
// unchanged.
func (s *server) putSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Schedule != "" {
		if err := cron.ValidSchedule(req.Schedule); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.Store.SetSetting(r.Context(), cron.ScheduleSetting, req.Schedule); err != nil {
			log.Printf("api: set schedule: %v", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
	}
	if req.Run != "" {
		if err := s.Store.SetSetting(r.Context(), cron.RunSetting, req.Run); err != nil {
			log.Printf("api: set schedule run: %v", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
	}
	s.getSchedule(w, r)
}

func (s *server) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.Store.GetScheduledJob(r.Context(), r.PathValue("name"))
	if err != nil {
		log.Printf("api: get job: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if job == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
