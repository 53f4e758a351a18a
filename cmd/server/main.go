package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap/zapcore"
	"norelock.dev/mixtape/backend/internal/api"
	"norelock.dev/mixtape/backend/internal/auth"
	"norelock.dev/mixtape/backend/internal/config"
	"norelock.dev/mixtape/backend/internal/db/mongo"
	"norelock.dev/mixtape/backend/internal/db/mongo/repositories"
	"norelock.dev/mixtape/backend/internal/db/redis"
	"norelock.dev/mixtape/backend/internal/db/redis/managers"
	"norelock.dev/mixtape/backend/internal/services/dj"
	"norelock.dev/mixtape/backend/internal/services/playlist"
	"norelock.dev/mixtape/backend/internal/services/song"
	"norelock.dev/mixtape/backend/internal/services/stats"
	"norelock.dev/mixtape/backend/internal/services/suggest"
	"norelock.dev/mixtape/backend/internal/services/system"
	"norelock.dev/mixtape/backend/internal/services/user"
	"norelock.dev/mixtape/backend/internal/utils"
)

// CombinedAuthProvider combines JWT and password providers to implement the full auth.Provider interface
type CombinedAuthProvider struct {
	*auth.JWTProvider
	*auth.PasswordProvider
}

// convert logger level to zapcore.Level
func hLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	case "panic":
		return zapcore.PanicLevel
	default:
		return zapcore.InfoLevel
	}
}

func main() {
	// Create a context that will be canceled on interrupt signal
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("Received shutdown signal")
		cancel()
	}()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	loggerOptions := utils.LoggerOptions{
		Development: cfg.Environment == "development",
		Level:       hLevel(cfg.Logging.Level),
		OutputPaths: cfg.Logging.OutputPaths,
	}
	logger := utils.NewLogger(loggerOptions)
	logger.Info("Starting Mixtape server", "environment", cfg.Environment)

	// Initialize MongoDB client
	mongoClient, err := mongo.NewClient(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("Failed to disconnect from MongoDB", err)
		}
	}()

	if err := mongoClient.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to ensure MongoDB indexes", err)
	}

	// Initialize Redis client
	redisClient, err := redis.NewClient(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()

	// Initialize MongoDB repositories
	userRepo := repositories.NewUserRepository(mongoClient.Database(), logger)
	songRepo := repositories.NewSongRepository(mongoClient.Database(), logger)
	playlistRepo := repositories.NewPlaylistRepository(mongoClient.Database(), logger)
	historyRepo := repositories.NewHistoryRepository(mongoClient.Database(), logger)
	djRepo := repositories.NewDjRepository(mongoClient.Database(), logger)

	// Initialize Redis managers
	sessionMgr := managers.NewSessionManager(redisClient, cfg.Auth.AccessTokenExpiry)
	rateLimiter := redis.NewRateLimiter(redisClient)

	// Initialize authentication provider
	jwtConfig := auth.JWTConfig{
		Secret:               cfg.Auth.JWTSecret,
		Issuer:               "mixtape",
		Audience:             "mixtape-users",
		AccessTokenDuration:  cfg.Auth.AccessTokenExpiry,
		RefreshTokenDuration: cfg.Auth.RefreshTokenExpiry,
	}
	jwtProvider := auth.NewJWTProvider(jwtConfig, logger)
	passwordProvider := auth.NewPasswordProvider(logger)
	authProvider := &CombinedAuthProvider{
		JWTProvider:      jwtProvider,
		PasswordProvider: passwordProvider,
	}

	// Initialize services
	userManager := user.NewManager(userRepo, djRepo, sessionMgr, rateLimiter, authProvider, cfg, logger)
	playlistManager := playlist.NewManager(playlistRepo, songRepo, userRepo, cfg, logger)
	songService := song.NewService(songRepo, logger)
	suggestEngine := suggest.NewEngine(songRepo, redisClient, cfg, logger)
	statsService := stats.NewService(userRepo, songRepo, historyRepo, logger)
	djService := dj.NewService(djRepo, logger)

	// Initialize system services
	healthConfig := system.HealthServiceConfig{
		Version:     "1.0.0",
		Environment: cfg.Environment,
	}
	healthService := system.NewHealthService(mongoClient.Client(), redisClient, sessionMgr, logger, healthConfig)
	metricsService := system.NewMetricsService(logger)

	// Initialize maintenance service
	maintenanceConfig := system.DefaultMaintenanceConfig()
	maintenanceService := system.NewMaintenanceService(
		maintenanceConfig,
		mongoClient.Database(),
		redisClient,
		sessionMgr,
		metricsService,
		logger,
	)

	// Initialize in-process rate limiters
	limiters := utils.NewDefaultLimiterConfig()
	stopLimiterCleanup := limiters.StartCleanupRoutines(ctx)
	defer stopLimiterCleanup()

	// Initialize API router
	router := api.NewRouter(
		authProvider,
		sessionMgr,
		userRepo,
		api.Services{
			UserManager:     userManager,
			PlaylistManager: playlistManager,
			SongService:     songService,
			SuggestEngine:   suggestEngine,
			StatsService:    statsService,
			DjService:       djService,
			HealthService:   healthService,
			MetricsService:  metricsService,
		},
		limiters,
		cfg,
		logger,
	)

	// Start maintenance service
	if err := maintenanceService.Start(ctx); err != nil {
		logger.Error("Failed to start maintenance service", err)
	}

	// Start health service
	healthService.Start(ctx)

	// Start runtime metrics collection
	metricsService.Start(ctx)

	// Create HTTP server for API
	apiAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         apiAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start HTTP server for API
	go func() {
		logger.Info("Starting HTTP server", "address", apiAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("Shutting down server")

	// Create a context with timeout for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", err)
	}

	// Stop maintenance service
	maintenanceService.Stop()

	logger.Info("Server shutdown complete")
}
