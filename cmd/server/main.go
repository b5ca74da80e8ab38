package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ayash-Bera/mediguide/internal/advisor"
	"github.com/Ayash-Bera/mediguide/internal/api/handlers"
	"github.com/Ayash-Bera/mediguide/internal/config"
	"github.com/Ayash-Bera/mediguide/internal/database"
	"github.com/Ayash-Bera/mediguide/internal/health"
	"github.com/Ayash-Bera/mediguide/internal/middleware"
	"github.com/Ayash-Bera/mediguide/internal/migration"
	"github.com/Ayash-Bera/mediguide/internal/places"
	"github.com/Ayash-Bera/mediguide/internal/repository"
	"github.com/Ayash-Bera/mediguide/internal/services"
	"github.com/Ayash-Bera/mediguide/internal/triage"
	"github.com/Ayash-Bera/mediguide/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()
	logger.Info("Starting MediGuide API server...")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	gin.SetMode(cfg.Server.Mode)

	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}
	defer dbManager.Close()

	if err := migration.NewRunner(dbManager, logger).RunMigrations(cfg.Migrations.Path); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	repoManager := repository.NewRepositoryManager(dbManager.DB)
	cache := database.NewCache(dbManager.Redis, logger)

	// Facility sources, best first. The chain falls back to the static list
	// when every source comes up empty.
	var sources []places.Source
	var placesClient *places.Client
	if cfg.PlacesEnabled() {
		placesClient = places.NewClient(cfg.Places.BaseURL, cfg.Places.APIKey, cfg.Places.Timeout, logger)
		sources = append(sources, places.NewPlacesSource(placesClient, logger))
	} else {
		logger.Warn("Places API key not set, using the facility directory only")
	}
	sources = append(sources, places.NewDirectorySource(repoManager.Directory, logger))
	finder := places.NewChain(logger, sources...)

	advisorClient := advisor.NewClient(cfg.Advisor.BaseURL, cfg.Advisor.APIKey, cfg.Advisor.Model, cfg.Advisor.Timeout, logger)
	if !advisorClient.Enabled() {
		logger.Warn("Advisor API key not set, responses will use rule-based advice only")
	}

	engine := triage.NewEngine(cfg.TriageConfig())
	triageService := services.NewTriageService(engine, finder, advisorClient, cache, repoManager, services.Options{
		DefaultLocation: cfg.Places.DefaultLocation,
		DefaultRadius:   cfg.Places.Radius,
		FacilityTTL:     cfg.Cache.FacilityTTL,
		FacilityTimeout: cfg.Places.Timeout,
		AdvisorTimeout:  cfg.Advisor.Timeout,
	}, logger)

	checks := []health.Check{
		{Name: "postgres", Critical: true, Probe: dbManager.PingDatabase},
		{Name: "redis", Critical: true, Probe: dbManager.PingRedis},
	}
	if placesClient != nil {
		checks = append(checks, health.Check{Name: "places", Probe: health.HTTPProbe(cfg.Places.BaseURL)})
	}
	if advisorClient.Enabled() {
		checks = append(checks, health.Check{Name: "advisor", Probe: health.HTTPProbe(cfg.Advisor.BaseURL)})
	}
	healthChecker := health.NewHealthChecker(repoManager.SystemHealth, cache, logger, checks...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go healthChecker.PeriodicHealthCheck(ctx, time.Minute)

	rateLimiter := middleware.NewRateLimiter(float64(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	go rateLimiter.Cleanup(5*time.Minute, ctx.Done())

	router := setupRouter(cfg, logger, rateLimiter)
	handlers.RegisterRoutes(router,
		handlers.NewTriageHandler(triageService, logger),
		handlers.NewHealthHandler(healthChecker).WithCacheStats(cache),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server error")
		}
	}()

	logger.WithField("port", cfg.Server.Port).Info("Server listening")
	waitForShutdown(server, logger)
}

func setupRouter(cfg *config.Config, logger *logrus.Logger, rateLimiter *middleware.RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.SecurityHeaders(),
		cors.New(cors.Config{
			AllowOrigins:  cfg.Server.AllowOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "X-Session-ID", "X-Request-ID"},
			ExposeHeaders: []string{"X-Request-ID", "Retry-After"},
			MaxAge:        12 * time.Hour,
		}),
		middleware.Session(),
		middleware.Logger(logger),
		middleware.Metrics(),
		rateLimiter.RateLimit(),
	)
	return router
}

func waitForShutdown(server *http.Server, logger *logrus.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}
