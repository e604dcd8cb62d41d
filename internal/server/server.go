package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/coursecraft/internal/config"
	"github.com/jonathan/coursecraft/internal/content"
	"github.com/jonathan/coursecraft/internal/db"
	"github.com/jonathan/coursecraft/internal/fetch"
	"github.com/jonathan/coursecraft/internal/llm"
	"github.com/jonathan/coursecraft/internal/pipeline"
	"github.com/jonathan/coursecraft/internal/progress"
	"github.com/jonathan/coursecraft/internal/quality"
	"github.com/jonathan/coursecraft/internal/research"
	"github.com/jonathan/coursecraft/internal/server/middleware"
	"github.com/jonathan/coursecraft/internal/server/ratelimit"
	"github.com/jonathan/coursecraft/internal/templates"
	"github.com/jonathan/coursecraft/internal/workflow"
)

// SessionStore is the read/delete surface for session listing endpoints.
// *db.DB satisfies it; step transitions go through the workflow machine.
type SessionStore interface {
	ListSessions(ctx context.Context, filters db.SessionFilters) ([]db.Session, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	db          *db.DB
	sessions    SessionStore
	pipeline    *pipeline.Orchestrator
	templates   *templates.Store
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	authHandler *AuthHandler
	validator   *validator.Validate
}

// Config holds server configuration
type Config struct {
	Port             int
	DatabaseURL      string
	APIKey           string
	SearchAPIKey     string
	SearchCX         string
	UseBrowser       bool
	BatchConcurrency int
}

// New creates a server instance and wires its generation stack
func New(ctx context.Context, cfg Config) (*Server, error) {
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	templateStore := templates.NewStore(database)
	generator := content.NewGenerator(client, templateStore)
	reviewer := quality.NewReviewer(client, templateStore)
	loop := quality.NewLoop(reviewer, reviewer)
	machine := workflow.NewMachine(database)
	events := progress.NewBroadcaster()

	// Research is optional; without search credentials route B sessions
	// fail cleanly at the research step.
	var searcher research.Searcher
	var collector pipeline.CorpusCollector
	if cfg.SearchAPIKey != "" {
		r, err := research.NewResearcher(ctx, cfg.SearchAPIKey, cfg.SearchCX)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to create researcher: %w", err)
		}
		searcher = r
		fetcher := fetch.NewCachedFetcher(database, fetch.DefaultOptions(), db.DefaultPageCacheTTL)
		collector = research.NewCollector(fetcher, cfg.UseBrowser)
	}

	orchestrator := pipeline.New(machine, generator, loop, searcher, collector, events, pipeline.Options{
		BatchConcurrency: cfg.BatchConcurrency,
	})

	s := &Server{
		db:        database,
		sessions:  database,
		pipeline:  orchestrator,
		templates: templateStore,
		validator: validator.New(),
	}

	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	s.jwtService = NewJWTService(jwtConfig)
	s.authHandler = NewAuthHandler(NewOperatorService(database, passwordConfig), s.jwtService)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(s.routes()))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for generation steps and SSE streams
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// routes builds the request mux
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(s.jwtService.AsTokenValidator())

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /auth/login", s.authHandler.Login)
	mux.Handle("PUT /auth/password", requireAuth(http.HandlerFunc(s.handleUpdatePassword)))

	// Session lifecycle
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions", s.handleListSessions)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /sessions/{id}/pause", s.handlePauseSession)
	mux.HandleFunc("POST /sessions/{id}/resume", s.handleResumeSession)
	mux.HandleFunc("GET /sessions/{id}/decisions", s.handleListDecisions)
	mux.HandleFunc("GET /sessions/{id}/data/{key}", s.handleGetStepData)
	mux.HandleFunc("GET /sessions/{id}/export", s.handleExport)

	// Step submissions and human gates
	mux.HandleFunc("POST /sessions/{id}/brief", s.handleSubmitBrief)
	mux.HandleFunc("POST /sessions/{id}/framework", s.handleSelectFramework)
	mux.HandleFunc("POST /sessions/{id}/route", s.handleSelectRoute)
	mux.HandleFunc("POST /sessions/{id}/upload", s.handleUploadContent)
	mux.HandleFunc("POST /sessions/{id}/research", s.handleRunResearch)
	mux.HandleFunc("POST /sessions/{id}/approach", s.handleSelectApproach)
	mux.HandleFunc("POST /sessions/{id}/review/content", s.handleReviewContent)
	mux.HandleFunc("POST /sessions/{id}/review/arc", s.handleReviewArc)
	mux.HandleFunc("POST /sessions/{id}/review/matrix", s.handleReviewMatrix)
	mux.HandleFunc("POST /sessions/{id}/review/sample", s.handleValidateSample)

	// Batch progress streaming
	mux.HandleFunc("GET /jobs/{id}/events", s.handleJobEvents)

	// Prompt template management; mutations require authentication
	mux.HandleFunc("GET /templates", s.handleListTemplates)
	mux.HandleFunc("GET /templates/{category}", s.handleGetTemplate)
	mux.Handle("PUT /templates/{category}", requireAuth(http.HandlerFunc(s.handlePutTemplate)))
	mux.Handle("DELETE /templates/{category}", requireAuth(http.HandlerFunc(s.handleResetTemplate)))
	mux.Handle("DELETE /templates", requireAuth(http.HandlerFunc(s.handleResetAllTemplates)))

	return mux
}

// Start begins listening for requests and blocks until shutdown
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[SERVER] Listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[SERVER] Serve error: %v", err)
		}
	}()

	<-stop
	log.Println("[SERVER] Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	s.db.Close()
	log.Println("[SERVER] Stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpdatePassword changes the authenticated operator's password
func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	operatorID, err := middleware.GetOperatorID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	s.authHandler.UpdatePassword(w, r, operatorID)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[SERVER] Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID extracts the client identifier from the request. This is
// the IP from RemoteAddr; X-Forwarded-For is ignored because the server has
// no trusted proxy configuration.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[SERVER] Rate limit exceeded: limit=%d remaining=%d reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
