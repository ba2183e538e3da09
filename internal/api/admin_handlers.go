package api

import (
	"encoding/json"
	"net/http"

	"github.com/shelfarr/shelfarr/internal/indexer"
)

func (s *Server) handleListDownloads(w http.ResponseWriter, r *http.Request) {
	downloads, err := s.store.ListDownloads()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to list downloads")
		return
	}
	RespondWithJSON(w, http.StatusOK, downloads)
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	type sourceStatus struct {
		indexer.SourceInfo
		Enabled bool `json:"enabled"`
	}
	var infos []sourceStatus
	for _, src := range indexer.All() {
		info := src.Info()
		infos = append(infos, sourceStatus{SourceInfo: info, Enabled: indexer.IsEnabled(info.ID)})
	}
	RespondWithJSON(w, http.StatusOK, infos)
}

func (s *Server) handleRunAdminJob(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		JobName string `json:"job_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	err := s.app.JobManager().RunJob(payload.JobName, s.app)
	if err != nil {
		RespondWithError(w, http.StatusConflict, err.Error()) // 409 Conflict if a job is already running
		return
	}

	RespondWithJSON(w, http.StatusAccepted, map[string]string{
		"message": "Job '" + payload.JobName + "' started successfully.",
	})
}

func (s *Server) handleGetAdminJobsStatus(w http.ResponseWriter, r *http.Request) {
	statuses := s.app.JobManager().GetStatus()
	RespondWithJSON(w, http.StatusOK, statuses)
}
