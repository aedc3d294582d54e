// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"assistance-gateway/internal/config"
	"assistance-gateway/internal/db"
	"assistance-gateway/internal/domain/catalog"
	requestHandler "assistance-gateway/internal/handlers/request"
	wsHandler "assistance-gateway/internal/handlers/websocket"
	wizardHandler "assistance-gateway/internal/handlers/wizard"
	"assistance-gateway/internal/middleware"
	"assistance-gateway/internal/pkg/assistance"
	"assistance-gateway/internal/pkg/geo"
	"assistance-gateway/internal/pkg/identity"
	"assistance-gateway/internal/repository/memory"
	"assistance-gateway/internal/repository/postgres"
	redisstore "assistance-gateway/internal/repository/redis"
	requestUsecase "assistance-gateway/internal/service/request"
	subscriptionUsecase "assistance-gateway/internal/service/subscription"
	trackingUsecase "assistance-gateway/internal/service/tracking"
	wizardUsecase "assistance-gateway/internal/service/wizard"
	"assistance-gateway/internal/websocket"
	wsHandlers "assistance-gateway/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	http   *http.Server
	logger *zap.Logger

	redis    redis.UniversalClient
	pool     *pgxpool.Pool
	registry *trackingUsecase.Registry
	stopHub  context.CancelFunc
}

// NewServer wires every dependency. Nothing listens until Start.
func NewServer() (*Server, error) {
	cfg := config.Load()
	ctx := context.Background()

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	s := &Server{cfg: cfg, logger: logger}

	// ----- Catalog -----
	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		cat, err = catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}
	logger.Info("service catalog loaded", zap.Int("services", cat.Len()))

	// ----- Session store -----
	var (
		store   wizardUsecase.SessionStore
		limiter middleware.RateLimiter
	)
	if cfg.UseMemoryStore() {
		store = memory.NewWizardSessionStore(cfg.WizardSessionTTL)
		limiter = memory.NewRateLimiter()
		logger.Warn("wizard sessions kept in memory; they do not survive restarts")
	} else {
		client, err := db.NewRedis(db.RedisConfig{
			ClusterMode: cfg.RedisCluster,
			Addresses:   cfg.RedisAddrs,
			Password:    cfg.RedisPass,
			PoolSize:    10,
		})
		if err != nil {
			return nil, err
		}
		s.redis = client
		store = redisstore.NewWizardSessionStore(client, cfg.WizardSessionTTL)
		limiter = redisstore.NewRateLimiter(client)
		logger.Info("redis connected", zap.Strings("addrs", cfg.RedisAddrs), zap.Bool("cluster", cfg.RedisCluster))
	}

	// ----- Submission ledger (optional) -----
	var (
		ledger      wizardUsecase.Ledger
		submissions requestUsecase.SubmissionLister
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.ConnectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			s.closeStores()
			return nil, err
		}
		s.pool = pool
		repo := postgres.NewSubmissionRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			s.closeStores()
			return nil, err
		}
		ledger, submissions = repo, repo
		logger.Info("submission ledger enabled")
	}

	// ----- Assistance API -----
	upstream := assistance.NewClient(assistance.Config{
		BaseURL: cfg.AssistanceURL,
		Timeout: cfg.AssistanceTimeout,
		RPS:     cfg.AssistanceRPS,
		Burst:   cfg.AssistanceBurst,
	}, logger)

	var geocoder geo.Geocoder = upstream
	if cfg.GoogleMapsAPIKey != "" {
		gm, err := geo.NewGoogleMapsGeocoder(cfg.GoogleMapsAPIKey, cfg.GeocodeLanguage, cfg.GeocodeRegion)
		if err != nil {
			s.closeStores()
			return nil, err
		}
		geocoder = gm
		logger.Info("using Google Maps geocoder")
	}

	// ----- Services (Usecases) -----
	subscriptionService := subscriptionUsecase.NewSubscriptionService(upstream, logger)
	wizardService := wizardUsecase.NewWizardService(store, cat, subscriptionService, upstream, geocoder, ledger, logger)
	requestService := requestUsecase.NewRequestService(upstream, submissions, logger)

	poller := trackingUsecase.NewPoller(upstream, cfg.TrackingInterval, logger)
	s.registry = trackingUsecase.NewRegistry(poller)

	// ----- WebSocket Hub -----
	verifier := identity.NewVerifier(upstream, cfg.TokenVerifyTTL)
	hub := websocket.NewHub(verifier, logger)
	if err := hub.RegisterHandler(wsHandlers.NewTrackingHandler(s.registry, logger)); err != nil {
		s.closeStores()
		return nil, err
	}
	hubCtx, stopHub := context.WithCancel(context.Background())
	s.stopHub = stopHub
	go hub.Run(hubCtx)

	// ----- Handlers -----
	handlers := &Handlers{
		WizardHandler:  wizardHandler.NewWizardHandler(wizardService, hub, logger),
		RequestHandler: requestHandler.NewRequestHandler(requestService, hub, logger),
		WSHandler:      wsHandler.NewWebSocketHandler(hub, cfg.CORSOrigins, logger),
		Verifier:       verifier,
		Limits: RateLimits{
			Limiter: limiter,
			Start:   cfg.StartRateLimit,
			Submit:  cfg.SubmitRateLimit,
			Window:  cfg.RateLimitWindow,
		},
	}

	// ----- Middlewares -----
	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(cfg.CORSOrigins),
	)

	// ----- Router -----
	SetupRouter(s.engine, logger, handlers)

	s.http = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains HTTP, stops every tracking poller and closes the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)

	s.stopHub()
	s.registry.CloseAll()
	s.closeStores()

	s.logger.Info("server stopped")
	_ = s.logger.Sync()
	return err
}

func (s *Server) closeStores() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
