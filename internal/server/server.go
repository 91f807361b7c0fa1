// Package server exposes the session API over HTTP/JSON: the full set of
// assignment-store transitions plus the derived display values, scoped to
// one session per browser tab.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/amit429/billbreak/internal/middleware"
	"github.com/amit429/billbreak/internal/receipt"
	"github.com/amit429/billbreak/internal/session"
)

// Server wires the session registry and the receipt collaborator into HTTP
// handlers.
type Server struct {
	registry *session.Registry
	parser   receipt.Parser
	validate *validator.Validate
	origins  []string
}

// New creates a Server. parser may be nil, in which case the receipt
// endpoint responds 503.
func New(registry *session.Registry, parser receipt.Parser, corsOrigins []string) *Server {
	return &Server{
		registry: registry,
		parser:   parser,
		validate: validator.New(),
		origins:  corsOrigins,
	}
}

// Routes builds the router with the full middleware stack.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", middleware.MetricsHandler())

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)

			r.Post("/participants", s.handleAddParticipant)
			r.Delete("/participants/{participantID}", s.handleRemoveParticipant)

			r.Post("/items", s.handleAddItem)
			r.Patch("/items/{itemID}", s.handleUpdateItem)
			r.Delete("/items/{itemID}", s.handleRemoveItem)
			r.Put("/items/{itemID}/select", s.handleSelectItem)
			r.Delete("/select", s.handleClearSelection)

			r.Put("/items/{itemID}/assignments/{participantID}", s.handleAssign)
			r.Delete("/items/{itemID}/assignments/{participantID}", s.handleUnassign)
			r.Post("/items/{itemID}/assignments/toggle", s.handleToggle)
			r.Post("/items/{itemID}/assignments/all", s.handleAssignAll)
			r.Delete("/items/{itemID}/assignments", s.handleUnassignAll)

			r.Put("/tax", s.handleSetTax)
			r.Put("/tip", s.handleSetTip)
			r.Post("/reset", s.handleReset)
			r.Post("/load", s.handleLoad)
			r.Post("/demo", s.handleLoadDemo)
			r.Post("/receipt", s.handleParseReceipt)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
