package routes

import (
	"matchmaking_server/controllers"
	"matchmaking_server/services"

	"github.com/gorilla/mux"
)

// RegisterSessionRoutes sets up the session lookup route
func RegisterSessionRoutes(r *mux.Router, sessionService *services.SessionService) {
	controller := controllers.NewSessionController(sessionService)

	r.HandleFunc("/sessions/{id}", controller.GetSession).Methods("GET")
}
