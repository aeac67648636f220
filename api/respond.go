package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"property-recommender/auth"
	"property-recommender/services"
)

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("[api] Encoding response failed: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorBody{Error: msg})
}

// writeFailure maps a domain error onto a status code. Unexpected errors are
// logged and answered with a generic message.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "property not found")
	case services.IsMalformed(err), errors.Is(err, auth.ErrInvalidInput):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.writeError(w, http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, auth.ErrUserExists):
		s.writeError(w, http.StatusConflict, "username already taken")
	default:
		s.logger.Error("[api] %s %s: %v", r.Method, r.URL.Path, err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}
