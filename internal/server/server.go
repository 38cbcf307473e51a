package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"monocart/internal/config"
	custommiddleware "monocart/internal/middleware"
	"monocart/internal/session"
	"monocart/internal/storage"
	"monocart/internal/store"
	"monocart/internal/transport"
)

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	session *session.Session
	store   *store.Store
	storage storage.Storage
	redis   *redis.Client
	stop    context.CancelFunc
	done    chan struct{}
}

func NewServer(cfg *config.Config, logger *zap.Logger, sess *session.Session, st *store.Store, sessionStorage storage.Storage) *Server {
	s := &Server{
		config:  cfg,
		logger:  logger,
		session: sess,
		store:   st,
		storage: sessionStorage,
		done:    make(chan struct{}),
	}

	if cfg.Redis.Host != "" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      s.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := context.WithCancel(context.Background())
	s.stop = stop
	go s.watchTeardowns(ctx)

	return s
}

func (s *Server) routes() http.Handler {
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.ErrorHandlingMiddleware(s.logger))
	router.Use(custommiddleware.LoggingMiddleware(s.logger))
	router.Use(custommiddleware.CORSMiddleware(s.config.Server.AllowedOrigins, !s.config.IsProduction()))

	if s.redis != nil {
		router.Use(custommiddleware.RateLimitMiddleware(s.redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: s.config.RateLimit.Requests,
			Window:            s.config.RateLimit.Window,
			KeyPrefix:         s.config.Redis.KeyPrefix,
		}, s.logger))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Get("/health", s.health)

	requireSession := custommiddleware.RequireSession(s.session, s.logger)
	requireAdmin := custommiddleware.RequireAdmin(s.logger)

	transport.NewSessionHandler(s.session, s.store, s.logger).RegisterRoutes(router, requireSession)
	transport.NewCatalogHandler(s.store, s.logger).RegisterRoutes(router)
	transport.NewCartHandler(s.session, s.store, s.logger).RegisterRoutes(router, requireSession)
	transport.NewOrderHandler(s.session, s.store, s.logger).RegisterRoutes(router, requireSession)
	transport.NewAdminHandler(s.session, s.store, s.logger).RegisterRoutes(router, requireSession, requireAdmin)

	return router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"storage": s.config.Storage.Driver,
		"session": string(s.session.Snapshot().State),
	}

	status := http.StatusOK
	if checker, ok := s.storage.(storage.HealthChecker); ok {
		health := checker.Health(r.Context())
		resp["storage_health"] = health
		if health["status"] != "up" {
			resp["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	custommiddleware.RespondWithJSON(w, status, resp)
}

// watchTeardowns drops user data whenever the API revoked the session
func (s *Server) watchTeardowns(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case td := <-s.session.Teardowns():
			s.store.ClearUserData()
			s.logger.Info("Cleared user data after session teardown",
				zap.String("reason", td.Reason),
				zap.String("redirect", td.RedirectTo),
			)
		}
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	s.stop()
	<-s.done

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			s.logger.Error("Failed to close session storage", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
