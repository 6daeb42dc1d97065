package routes

import (
	"matchmaking_server/controllers"
	"matchmaking_server/services"

	"github.com/gorilla/mux"
)

// RegisterQueueRoutes sets up routes for enqueue operations under /api/queue
func RegisterQueueRoutes(r *mux.Router, queueService *services.QueueService) {
	controller := controllers.NewQueueController(queueService)

	queueRouter := r.PathPrefix("/api/queue").Subrouter()
	queueRouter.HandleFunc("", controller.Enqueue).Methods("POST")
}
