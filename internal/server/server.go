package server

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sendrec/mediashare/internal/auth"
	"github.com/sendrec/mediashare/internal/database"
	"github.com/sendrec/mediashare/internal/player"
	"github.com/sendrec/mediashare/internal/ratelimit"
	"github.com/sendrec/mediashare/internal/share"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	DB        database.DBTX
	Pinger    Pinger
	Storage   share.ObjectStorage
	JWTSecret string
	BaseURL   string
	Share     share.Config
}

type Server struct {
	router        chi.Router
	pinger        Pinger
	jwtSecret     string
	shareHandler  *share.Handler
	playerHandler *player.Handler
	limiters      []*ratelimit.Limiter
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(slogMiddleware)
	r.Use(securityHeaders(SecurityConfig{BaseURL: cfg.BaseURL}))

	s := &Server{router: r, pinger: cfg.Pinger}

	if cfg.DB != nil {
		if cfg.JWTSecret == "" {
			log.Fatal("JWT_SECRET is required; set the environment variable")
		}
		s.jwtSecret = cfg.JWTSecret

		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:8080"
		}

		store := share.NewStore(cfg.DB)
		resolver := share.NewResolver(store, store, cfg.Share)
		s.shareHandler = share.NewHandler(store, cfg.Storage, baseURL)
		s.playerHandler = player.NewHandler(resolver, baseURL)
	}

	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops the background work of the server's rate limiters.
func (s *Server) Close() {
	for _, l := range s.limiters {
		l.Stop()
	}
}

func (s *Server) newLimiter(requestsPerSecond float64, burst int) *ratelimit.Limiter {
	l := ratelimit.NewLimiter(requestsPerSecond, burst)
	s.limiters = append(s.limiters, l)
	return l
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)

	if s.shareHandler == nil {
		return
	}

	apiLimiter := s.newLimiter(2, 10)
	s.router.Group(func(r chi.Router) {
		r.Use(apiLimiter.Middleware)
		r.Use(auth.Middleware(s.jwtSecret))
		r.Get("/api/share", s.shareHandler.List)
		r.Post("/api/share", s.shareHandler.Create)
		r.Get("/api/players", s.playerHandler.Players)
	})

	downloadLimiter := s.newLimiter(5, 20)
	s.router.Route("/api/public/dl/{hash}", func(r chi.Router) {
		r.Use(downloadLimiter.Middleware)
		r.Get("/", s.shareHandler.PublicDownload)
		// The shared path follows the hash for readable URLs; only the hash is looked up.
		r.Get("/*", s.shareHandler.PublicDownload)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
