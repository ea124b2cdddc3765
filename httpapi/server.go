// Package httpapi exposes the negotiation workflow over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/procurely/negotiator/negotiation"
	"github.com/procurely/negotiator/observability"
)

// Observable step names for the HTTP surface.
const (
	StepRequestDecoded observability.Step = "httpapi.request_decoded"
	StepRunFailed      observability.Step = "httpapi.run_failed"
)

// Runner executes one negotiation; satisfied by *negotiation.Workflow.
type Runner interface {
	Run(ctx context.Context, request negotiation.Request) (*negotiation.Response, error)
}

// Server routes inbound HTTP traffic to the workflow. Construct with New and
// mount Handler on an http.Server.
type Server struct {
	workflow    Runner
	environment string
	observer    observability.Observer
}

// Option overrides a Server collaborator during construction.
type Option func(*Server)

// WithObserver sets the diagnostics sink. Defaults to NoOpObserver.
func WithObserver(observer observability.Observer) Option {
	return func(s *Server) { s.observer = observer }
}

// New builds the HTTP surface for one workflow instance.
func New(workflow Runner, environment string, opts ...Option) *Server {
	s := &Server{
		workflow:    workflow,
		environment: environment,
		observer:    observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /workflows/negotiate", s.handleNegotiate)
	mux.HandleFunc("GET /workflows/ping", s.handlePing)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// handleNegotiate runs one negotiation synchronously. Workflow errors are
// deliberately opaque to callers; the event stream carries the detail.
func (s *Server) handleNegotiate(w http.ResponseWriter, r *http.Request) {
	var request negotiation.Request
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid request body"})
		return
	}

	s.observer.OnEvent(r.Context(), observability.Event{
		Step:      StepRequestDecoded,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "httpapi.Server",
		Data: map[string]any{
			"vendor_ids":   request.VendorIDs,
			"vendor_limit": request.VendorLimit,
		},
	})

	response, err := s.workflow.Run(r.Context(), request)
	if err != nil {
		s.observer.OnEvent(r.Context(), observability.Event{
			Step:      StepRunFailed,
			Level:     observability.LevelError,
			Timestamp: time.Now(),
			Source:    "httpapi.Server",
			Data:      map[string]any{"error": err.Error()},
		})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "negotiation run failed"})
		return
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "workflow router ready"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"environment": s.environment,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding failures at this point cannot be reported to the client.
	_ = json.NewEncoder(w).Encode(body)
}
