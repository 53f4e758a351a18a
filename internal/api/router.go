// Package api provides the HTTP API for the application.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"norelock.dev/mixtape/backend/internal/api/handlers"
	appMiddleware "norelock.dev/mixtape/backend/internal/api/middleware"
	"norelock.dev/mixtape/backend/internal/auth"
	"norelock.dev/mixtape/backend/internal/config"
	"norelock.dev/mixtape/backend/internal/db/mongo/repositories"
	"norelock.dev/mixtape/backend/internal/db/redis/managers"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/services/dj"
	"norelock.dev/mixtape/backend/internal/services/playlist"
	"norelock.dev/mixtape/backend/internal/services/song"
	"norelock.dev/mixtape/backend/internal/services/stats"
	"norelock.dev/mixtape/backend/internal/services/suggest"
	"norelock.dev/mixtape/backend/internal/services/system"
	"norelock.dev/mixtape/backend/internal/services/user"
	"norelock.dev/mixtape/backend/internal/utils"
)

// Router is the main HTTP router for the API.
type Router struct {
	*chi.Mux
	logger *utils.Logger
}

// Services bundles the application services the router exposes.
type Services struct {
	UserManager     *user.Manager
	PlaylistManager *playlist.Manager
	SongService     *song.Service
	SuggestEngine   *suggest.Engine
	StatsService    *stats.Service
	DjService       *dj.Service
	HealthService   *system.HealthService
	MetricsService  *system.MetricsService
}

// NewRouter creates a new API router.
func NewRouter(
	authProvider auth.Provider,
	sessionMgr *managers.SessionManager,
	userRepo repositories.UserRepository,
	services Services,
	limiters *utils.LimiterConfig,
	cfg *config.Config,
	logger *utils.Logger,
) *Router {
	r := chi.NewRouter()
	apiLogger := logger.Named("api")

	// Create middleware
	recoveryMiddleware := appMiddleware.NewRecoveryMiddleware(apiLogger)
	loggerMiddleware := appMiddleware.NewLoggerMiddleware(apiLogger)
	corsConfig := appMiddleware.DefaultCORSConfig()
	if len(cfg.Auth.AllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = cfg.Auth.AllowedOrigins
	}
	corsMiddleware := appMiddleware.NewCORSMiddleware(corsConfig, apiLogger)
	metricsMiddleware := appMiddleware.NewMetricsMiddleware(services.MetricsService)
	authMiddleware := appMiddleware.NewAuthMiddleware(authProvider, sessionMgr, userRepo, apiLogger)

	// Rate limit policies
	apiLimit := utils.RateLimitMiddleware(limiters.API, utils.DefaultKeyFunc)
	registerLimit := utils.RateLimitMiddleware(limiters.Register, utils.DefaultKeyFunc)
	searchLimit := utils.RateLimitMiddleware(limiters.Search, utils.RouteKeyFunc)
	suggestLimit := utils.RateLimitMiddleware(limiters.Suggestions, utils.DefaultKeyFunc)

	// Create handlers
	authHandler := handlers.NewAuthHandler(services.UserManager, services.MetricsService, apiLogger)
	userHandler := handlers.NewUserHandler(services.UserManager, apiLogger)
	songHandler := handlers.NewSongHandler(services.SongService, services.MetricsService, apiLogger)
	playlistHandler := handlers.NewPlaylistHandler(services.PlaylistManager, services.MetricsService, apiLogger)
	suggestionHandler := handlers.NewSuggestionHandler(services.SuggestEngine, services.MetricsService, apiLogger)
	statsHandler := handlers.NewStatsHandler(services.StatsService, services.MetricsService, apiLogger)
	djHandler := handlers.NewDjHandler(services.DjService, apiLogger)
	healthHandler := handlers.NewHealthHandler(apiLogger, services.HealthService, cfg)

	// Apply global middleware. RequestID and RealIP run first so the logger
	// and rate limiters see the resolved values.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(recoveryMiddleware.Recovery)
	r.Use(loggerMiddleware.Logger)
	r.Use(metricsMiddleware.Metrics)
	r.Use(corsMiddleware.CORS)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(apiLimit)

	// Health check and metrics
	r.Get("/health", healthHandler.Check)
	r.Method("GET", "/metrics", services.MetricsService.Handler())

	// Auth routes
	r.Route("/auth", func(r chi.Router) {
		if cfg.Features.EnableRegistration {
			r.With(registerLimit).Post("/register", authHandler.Register)
		}
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Post("/logout", authHandler.Logout)
		})
	})

	// Discovery routes. Anonymous requests see public content only.
	if cfg.Features.EnableDiscovery {
		r.Route("/discover", func(r chi.Router) {
			r.Use(authMiddleware.OptionalAuth)
			r.Get("/playlists", playlistHandler.Discover)
			r.With(searchLimit).Get("/playlists/search", playlistHandler.Search)
			r.Get("/songs/recent", songHandler.Recent)
		})
	}

	// Playlist routes. Reads work anonymously for public playlists, every
	// mutation requires the authenticated owner or an admin.
	r.Route("/playlists", func(r chi.Router) {
		r.Use(authMiddleware.OptionalAuth)
		r.Get("/", playlistHandler.GetPlaylists)
		r.Post("/", playlistHandler.CreatePlaylist)
		r.Get("/{id}", WithID(playlistHandler.GetPlaylist))
		r.Get("/{id}/view", WithID(playlistHandler.GetPlaylistView))
		r.Put("/{id}", WithID(playlistHandler.UpdatePlaylist))
		r.Delete("/{id}", WithID(playlistHandler.DeletePlaylist))
		r.Post("/{id}/songs", WithID(playlistHandler.AddSong))
		r.Put("/{id}/songs", WithID(playlistHandler.ReplaceSongs))
		r.Delete("/{id}/songs/{songId}", WithID(playlistHandler.RemoveSong))
		r.Put("/{id}/order", WithID(playlistHandler.Reorder))
		r.Post("/{id}/clone", WithID(playlistHandler.Clone))
		r.Put("/{id}/publish", WithID(playlistHandler.Publish))
	})

	// Catalog routes. The song service limits mutations to catalog managers.
	// The search limit keys on the request path, so listing and item routes
	// consume separate budgets.
	r.Route("/songs", func(r chi.Router) {
		r.Use(authMiddleware.OptionalAuth)
		r.Use(searchLimit)
		AddCRUDRoutes[models.SongCreateRequest, models.SongUpdateRequest](r, songHandler)
		r.Put("/{id}/restrict", WithIDAndBody(songHandler.Restrict))
	})

	// Dj profile routes.
	r.Route("/djs", func(r chi.Router) {
		r.Use(authMiddleware.OptionalAuth)
		r.Get("/", djHandler.ListProfiles)
		r.Get("/{id}", WithID(djHandler.GetProfile))
		r.Put("/{id}", WithID(djHandler.UpdateProfile))
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		// User routes
		r.Route("/users", func(r chi.Router) {
			r.Get("/me", authHandler.Me)
			r.Put("/me/preferences", userHandler.UpdatePreferences)
			r.Put("/me/password", userHandler.ChangePassword)
			r.Get("/me/stats", statsHandler.GetStats)
			r.Get("/me/plays", statsHandler.GetRecentPlays)
			r.Delete("/me/plays", statsHandler.ClearHistory)
			r.Get("/{id}", userHandler.GetUser)
		})

		// Suggestions
		if cfg.Features.EnableSuggestions {
			r.With(suggestLimit).Get("/suggestions", suggestionHandler.Suggest)
		}

		// Play tracking
		r.Post("/plays", statsHandler.RecordPlay)
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Use(authMiddleware.RequireRole(models.RoleAdmin))

		r.Route("/admin", func(r chi.Router) {
			r.Get("/health", healthHandler.DetailedCheck)
			r.Get("/users", userHandler.ListUsers)
			r.Put("/users/{id}/role", userHandler.SetUserRole)
			r.Put("/users/{id}/active", userHandler.SetUserActive)
		})
	})

	return &Router{
		Mux:    r,
		logger: apiLogger,
	}
}
