package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)

	r.Get("/health", h.handleHealth)
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}
	if h.Events != nil {
		r.Get("/ws", h.Events.ServeHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Campaigns
		r.Get("/campaigns", h.handleListCampaigns)
		r.Post("/campaigns", h.handleCreateCampaign)
		r.Route("/campaigns/{campaignID}", func(r chi.Router) {
			r.Get("/", h.handleGetCampaign)
			r.Post("/approve", h.handleApproveCampaign)
			r.Post("/reject", h.handleRejectCampaign)
			r.Post("/archive", h.handleArchiveCampaign)
			r.Post("/stages", h.handleStartNextStage)
			r.Get("/stage", h.handleActiveStage)
			r.Get("/scenarios", h.handleListScenarios)
			r.Post("/scenarios", h.handleDefineCampaignScenario)
			r.Get("/aggregate", h.handleGetAggregate)
			r.Get("/participants/{participantID}/balance", h.handleGetBalance)
			r.Get("/qr", h.handleInviteQR)
		})

		// Scenarios
		r.Post("/scenarios", h.handleDefineStandaloneScenario)
		r.Route("/scenarios/{scenarioID}", func(r chi.Router) {
			r.Get("/", h.handleGetScenario)
			r.Post("/approve", h.handleApproveScenario)
			r.Post("/reject", h.handleRejectScenario)
			r.Post("/start", h.handleStartScenario)
			r.Post("/close", h.handleCloseScenario)
			r.Get("/result", h.handleGetResult)
			r.Post("/votes", h.handleCastVote)
			r.Get("/votes/{voterID}", h.handleGetVote)
		})

		// Deadline sweep
		r.Post("/sweep", h.handleSweep)
	})

	return r
}
