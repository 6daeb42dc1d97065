package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"matchmaking_server/services"
)

// SessionController handles HTTP requests for session lookups
type SessionController struct {
	SessionService *services.SessionService
}

// NewSessionController creates a new SessionController instance
func NewSessionController(sessionService *services.SessionService) *SessionController {
	return &SessionController{SessionService: sessionService}
}

// GetSession handles GET /sessions/{id}. A malformed id is a 400; a missing
// or expired session is a 404, and the two 404 cases look the same to the
// caller.
func (sc *SessionController) GetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	session, err := sc.SessionService.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSessionID) {
			http.Error(w, "Invalid session id", http.StatusBadRequest)
			return
		}
		if errors.Is(err, services.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to fetch session: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(session)
}
