// Package api exposes the spot service over JSON HTTP endpoints.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"builder-maps/internal/auth"
	"builder-maps/pkg/health"
	"builder-maps/pkg/logging"
	"builder-maps/pkg/metrics"
)

// RouterDeps are the collaborators wired into the router.
type RouterDeps struct {
	Spots  SpotService
	Admins *auth.AdminResolver
	Health *health.Manager
	Logger *logging.Logger
}

// NewRouter builds the public and admin routes.
func NewRouter(d RouterDeps) *mux.Router {
	log := d.Logger.WithComponent("api")

	router := mux.NewRouter()
	router.Use(requestIDMiddleware, loggingMiddleware(d.Logger), recoverMiddleware(d.Logger))
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "route not found"})
	})

	if d.Health != nil {
		router.Handle("/healthz", d.Health.Handler()).Methods("GET")
	}
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	public := router.PathPrefix("/api").Subrouter()
	public.HandleFunc("/spots/check-duplicates", CheckDuplicatesHandler(d.Spots, log)).Methods("POST")
	public.HandleFunc("/spots", NominateHandler(d.Spots, log)).Methods("POST")
	public.HandleFunc("/spots/{id:[0-9]+}", GetSpotHandler(d.Spots, log)).Methods("GET")
	public.HandleFunc("/cities/{city}/spots", CitySpotsHandler(d.Spots, log)).Methods("GET")
	public.HandleFunc("/cities/{city}/stats", CityStatsHandler(d.Spots, log)).Methods("GET")
	public.HandleFunc("/links/classify", ClassifyLinksHandler(d.Spots, log)).Methods("POST")

	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(auth.NewAdminAuthMiddleware(d.Admins, func(w http.ResponseWriter, r *http.Request, ip string) {
		log.Warn(r.Context(), "admin access denied", logging.String("ip", ip))
		writeJSON(w, http.StatusForbidden, ErrorResponse{
			Error:     "admin access required",
			RequestID: logging.RequestIDFrom(r.Context()),
		})
	}).Handler)
	admin.HandleFunc("/cities/{city}/spots", AdminCitySpotsHandler(d.Spots, log)).Methods("GET")
	admin.HandleFunc("/spots/{id:[0-9]+}", AdminSpotHandler(d.Spots, log)).Methods("GET")
	admin.HandleFunc("/spots/{id:[0-9]+}/approve", ApproveSpotHandler(d.Spots, log)).Methods("POST")
	admin.HandleFunc("/spots/{id:[0-9]+}/reject", RejectSpotHandler(d.Spots, log)).Methods("POST")

	return router
}
