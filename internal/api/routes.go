package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler, hub *Hub) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Dashboard push
	r.HandleFunc("/ws", hub.ServeWS).Methods("GET")

	// Trade routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/trades", handler.ListTrades).Methods("GET")
	api.HandleFunc("/trades", handler.CreateTrade).Methods("POST")
	api.HandleFunc("/trades/{id}", handler.GetTrade).Methods("GET")
	api.HandleFunc("/trades/{id}", handler.ReplaceTrade).Methods("PUT")
	api.HandleFunc("/trades/{id}", handler.PatchTrade).Methods("PATCH")
	api.HandleFunc("/trades/{id}", handler.DeleteTrade).Methods("DELETE")
	api.HandleFunc("/metrics", handler.GetMetrics).Methods("GET")
	api.HandleFunc("/editor", handler.OpenEditor).Methods("POST")

	return r
}
