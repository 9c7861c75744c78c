package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/errors"
	"github.com/jonathan/interview-insights/internal/pipeline"
	"github.com/jonathan/interview-insights/internal/service"
	"github.com/jonathan/interview-insights/internal/store"
	"github.com/jonathan/interview-insights/internal/types"
)

// SubmitResponse is returned by POST /submit-experience.
type SubmitResponse struct {
	Message      string `json:"message"`
	ExperienceID string `json:"experience_id"`
	NLPProcessed bool   `json:"nlp_processed"`
}

const submittedMessage = "Experience submitted successfully"

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeSubmission reads the request body. Caller-chosen ids are not
// accepted over HTTP.
func decodeSubmission(w http.ResponseWriter, r *http.Request) (*types.RawSubmission, error) {
	var sub types.RawSubmission
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&sub); err != nil {
		return nil, errors.InvalidInput("Invalid request body", err)
	}
	sub.ID = ""
	return &sub, nil
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sub, err := decodeSubmission(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	res, err := s.svc.Submit(r.Context(), sub)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, SubmitResponse{
		Message:      submittedMessage,
		ExperienceID: res.ID,
		NLPProcessed: res.NLPProcessed,
	})
}

// handleSubmitStream runs a submission and streams stage progress as
// server-sent events, ending with a complete or error event.
func (s *Server) handleSubmitStream(w http.ResponseWriter, r *http.Request) {
	sub, err := decodeSubmission(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.messageResponse(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	res, err := s.svc.SubmitStream(r.Context(), sub, func(e pipeline.ProgressEvent) {
		if werr := sse.WriteEvent("progress", e); werr != nil {
			s.logger.Debug("Dropped progress event", zap.Error(werr))
		}
	})
	if err != nil {
		sse.WriteError(errors.Message(err))
		return
	}
	sse.WriteComplete(SubmitResponse{
		Message:      submittedMessage,
		ExperienceID: res.ID,
		NLPProcessed: res.NLPProcessed,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.List(r.Context())
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, records)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := s.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, record)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records, err := s.svc.Filter(r.Context(), store.Query{
		Company:    q.Get("company"),
		Role:       q.Get("role"),
		Difficulty: q.Get("difficulty"),
		Sentiment:  q.Get("sentiment"),
	})
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, records)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

var _ ExperienceService = (*service.Service)(nil)
