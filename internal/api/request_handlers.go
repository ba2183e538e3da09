package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shelfarr/shelfarr/internal/models"
	"github.com/shelfarr/shelfarr/internal/notify"
	"github.com/shelfarr/shelfarr/internal/search"
)

type createRequestPayload struct {
	ExternalID string `json:"external_id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Medium     string `json:"medium"`
	Language   string `json:"language"`
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var payload createRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.ExternalID == "" || payload.Title == "" {
		RespondWithError(w, http.StatusBadRequest, "external_id and title are required")
		return
	}
	medium := models.Medium(payload.Medium)
	if medium != models.MediumEbook && medium != models.MediumAudiobook {
		RespondWithError(w, http.StatusBadRequest, "medium must be 'ebook' or 'audiobook'")
		return
	}

	work, err := s.store.CreateWork(&models.Work{
		ExternalID: payload.ExternalID,
		Title:      payload.Title,
		Author:     payload.Author,
		Medium:     medium,
		Language:   payload.Language,
	})
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to save work")
		return
	}

	req, err := s.store.CreateRequest(work.ID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to create request")
		return
	}

	s.app.Hub().Notify(notify.EventGrabRequested, req.ID, "Request created for "+work.Title)
	s.kickSearch(req.ID)

	RespondWithJSON(w, http.StatusCreated, req)
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := s.store.ListRequests()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to list requests")
		return
	}
	RespondWithJSON(w, http.StatusOK, requests)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := requestID(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	req, err := s.store.GetRequest(id)
	if errors.Is(err, sql.ErrNoRows) {
		RespondWithError(w, http.StatusNotFound, "Request not found")
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to load request")
		return
	}

	candidates, err := s.store.GetCandidates(id)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to load candidates")
		return
	}
	downloads, err := s.store.ListRequestDownloads(id)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to load downloads")
		return
	}

	RespondWithJSON(w, http.StatusOK, struct {
		*models.Request
		Candidates []*models.Candidate `json:"candidates"`
		Downloads  []*models.Download  `json:"downloads"`
	}{req, candidates, downloads})
}

// handleSelectCandidate is the manual path through selection: a human
// picks a candidate by GUID on a request the policy would not decide.
func (s *Server) handleSelectCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := requestID(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}
	guid := chi.URLParam(r, "guid")

	c, err := s.store.GetCandidateByGUID(id, guid)
	if errors.Is(err, sql.ErrNoRows) {
		RespondWithError(w, http.StatusNotFound, "Candidate not found")
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to load candidate")
		return
	}
	if c.Status != models.CandidatePending {
		RespondWithError(w, http.StatusConflict, "Candidate is no longer selectable")
		return
	}

	if err := search.Grab(r.Context(), s.app, id, c); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to grab candidate")
		return
	}

	req, err := s.store.GetRequest(id)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to load request")
		return
	}
	RespondWithJSON(w, http.StatusOK, req)
}

// handleRetryRequest restarts the pipeline for a parked or finished
// request; a fresh search replaces the candidate set.
func (s *Server) handleRetryRequest(w http.ResponseWriter, r *http.Request) {
	id, err := requestID(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}
	if _, err := s.store.GetRequest(id); errors.Is(err, sql.ErrNoRows) {
		RespondWithError(w, http.StatusNotFound, "Request not found")
		return
	}

	if err := s.store.ResetRequest(id); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to reset request")
		return
	}
	s.kickSearch(id)

	req, _ := s.store.GetRequest(id)
	RespondWithJSON(w, http.StatusAccepted, req)
}

func (s *Server) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	id, err := requestID(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}
	if err := s.store.DeleteRequest(id); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to delete request")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Request deleted"})
}

// kickSearch starts the search stage without holding up the HTTP
// response; the retry sweep re-delivers if the process dies first.
func (s *Server) kickSearch(id int64) {
	app := s.app
	go func() {
		if err := search.Run(context.Background(), app, id); err != nil {
			log.Printf("Search for request %d failed: %v", id, err)
		}
	}()
}

func requestID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "requestID"), 10, 64)
}
