package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the API on r. Routes marked protected go through auth.
func RegisterRoutes(h *Handler, r *mux.Router, auth func(http.Handler) http.Handler) {
	protect := func(f http.HandlerFunc) http.Handler { return auth(f) }

	r.HandleFunc("/health", h.Health).Methods("GET")

	r.HandleFunc("/api/trends", h.GetTrends).Methods("GET")

	r.HandleFunc("/api/strategy/generate-persona", h.GeneratePersona).Methods("POST")
	r.Handle("/api/strategy/generate", protect(h.GenerateStrategy)).Methods("POST")
	r.Handle("/api/strategy/generate-ideas", protect(h.GenerateIdeas)).Methods("POST")
	r.Handle("/api/strategy/expand-idea", protect(h.ExpandIdea)).Methods("POST")
	r.Handle("/api/strategy", protect(h.ListStrategies)).Methods("GET")
	r.Handle("/api/strategy/{id}", protect(h.GetStrategy)).Methods("GET")
	r.Handle("/api/strategy/{id}", protect(h.DeleteStrategy)).Methods("DELETE")
	r.Handle("/api/strategy/{strategyId}/calendar/{day}", protect(h.UpdateCalendarItem)).Methods("PUT")

	r.Handle("/api/competitors", protect(h.AddCompetitor)).Methods("POST")
	r.Handle("/api/competitors", protect(h.ListCompetitors)).Methods("GET")
	r.Handle("/api/competitors/{id}", protect(h.DeleteCompetitor)).Methods("DELETE")
	r.Handle("/api/competitors/{id}/analyze-gaps", protect(h.AnalyzeGaps)).Methods("GET")
	r.Handle("/api/competitors/{id}/refresh", protect(h.RefreshCompetitor)).Methods("POST")
}
