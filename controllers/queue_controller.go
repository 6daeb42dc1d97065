package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"matchmaking_server/services"
)

// QueueController handles HTTP requests for enqueueing participants
type QueueController struct {
	QueueService *services.QueueService
}

// NewQueueController creates a new QueueController instance
func NewQueueController(queueService *services.QueueService) *QueueController {
	return &QueueController{QueueService: queueService}
}

type enqueueRequest struct {
	ParticipantID string `json:"participantId"`
	Rating        int    `json:"rating"`
}

// Enqueue handles POST /api/queue. It acknowledges the ticket; the match is
// formed asynchronously and surfaced through the session lookup and the
// websocket gateway.
func (qc *QueueController) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ticket, err := qc.QueueService.PublishEnqueue(r.Context(), req.ParticipantID, req.Rating)
	if err != nil {
		if errors.Is(err, services.ErrInvalidTicket) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to enqueue: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(ticket)
}
