package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// errorResponse maps err to a status and writes its client-facing message.
// Internal causes are logged, never returned.
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	body := ErrorResponse{Message: errors.Message(err)}

	var de *errors.DomainError
	if asDomain(err, &de) && de.Type == errors.ErrTypeInvalidInput {
		body.Fields = de.Fields
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID(r)),
			zap.Error(err),
		)
	}
	s.jsonResponse(w, status, body)
}

// messageResponse writes {message} with status.
func (s *Server) messageResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, ErrorResponse{Message: message})
}
