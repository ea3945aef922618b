package jobs

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Scheduler starts background ingestion for a newly created job.
type Scheduler interface {
	Schedule(job *Job)
}

// RegisterRoutes mounts the ingestion job API routes.
func RegisterRoutes(r chi.Router, store *Store, sched Scheduler) {
	r.Route("/api/repos", func(r chi.Router) {
		r.Post("/", handleCreate(store, sched))
		r.Get("/", handleList(store))
		r.Get("/{id}", handleStatus(store))
	})
}

type createRequest struct {
	URL string `json:"url"`
}

func handleCreate(store *Store, sched Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.URL) == "" {
			http.Error(w, `{"error":"url is required"}`, http.StatusBadRequest)
			return
		}

		job, err := store.Create(r.Context(), req.URL)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		// Only schedule work for jobs that have not run yet; re-submitting
		// an already ingested URL just reports the existing job.
		if job.Status == StatusScheduled {
			sched.Schedule(job)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(job)
	}
}

func handleStatus(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		job, err := store.Get(r.Context(), id)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if job == nil {
			http.Error(w, `{"error":"repo not found"}`, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(job)
	}
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := store.List(r.Context())
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if all == nil {
			all = []Job{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(all)
	}
}
