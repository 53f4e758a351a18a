// Package system provides system-level services for monitoring and maintenance.
package system

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"norelock.dev/mixtape/backend/internal/utils"
)

// MetricsService provides application metrics collection functionality.
type MetricsService struct {
	logger *utils.Logger

	// HTTP metrics
	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec
	httpRequestsInProgress prometheus.Gauge

	// User metrics
	usersTotal        prometheus.Gauge
	usersActive       prometheus.Gauge
	userRegistrations prometheus.Counter
	userLogins        prometheus.Counter

	// Catalog metrics
	songsTotal       prometheus.Gauge
	songPlaysTotal   prometheus.Counter
	songSearchsTotal prometheus.Counter

	// Playlist metrics
	playlistsTotal         prometheus.Gauge
	playlistMutationsTotal *prometheus.CounterVec
	playlistClonesTotal    prometheus.Counter

	// Suggestion metrics
	suggestionRequestsTotal prometheus.Counter
	suggestionDuration      prometheus.Histogram

	// Runtime metrics
	systemMemoryUsage prometheus.Gauge
	systemGoroutines  prometheus.Gauge
}

// NewMetricsService creates a new metrics service.
func NewMetricsService(logger *utils.Logger) *MetricsService {
	m := &MetricsService{
		logger: logger.Named("metrics_service"),
	}

	m.initHTTPMetrics()
	m.initUserMetrics()
	m.initCatalogMetrics()
	m.initPlaylistMetrics()
	m.initSuggestionMetrics()
	m.initRuntimeMetrics()

	return m
}

// Handler returns an HTTP handler for exposing metrics.
func (m *MetricsService) Handler() http.Handler {
	return promhttp.Handler()
}

// Start samples runtime statistics until the context is cancelled.
func (m *MetricsService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var stats runtime.MemStats
				runtime.ReadMemStats(&stats)
				m.systemMemoryUsage.Set(float64(stats.Alloc))
				m.systemGoroutines.Set(float64(runtime.NumGoroutine()))
			}
		}
	}()

	m.logger.Info("Metrics collection started")
}

// initHTTPMetrics initializes HTTP-related metrics.
func (m *MetricsService) initHTTPMetrics() {
	m.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mixtape_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mixtape_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.httpRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mixtape_http_requests_in_progress",
			Help: "Number of HTTP requests currently in progress",
		},
	)
}

// initUserMetrics initializes user-related metrics.
func (m *MetricsService) initUserMetrics() {
	m.usersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mixtape_users_total",
			Help: "Total number of registered users",
		},
	)

	m.usersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mixtape_users_active",
			Help: "Number of active users",
		},
	)

	m.userRegistrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mixtape_user_registrations_total",
			Help: "Total number of user registrations",
		},
	)

	m.userLogins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mixtape_user_logins_total",
			Help: "Total number of user logins",
		},
	)
}

// initCatalogMetrics initializes catalog-related metrics.
func (m *MetricsService) initCatalogMetrics() {
	m.songsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mixtape_songs_total",
			Help: "Total number of songs in the catalog",
		},
	)

	m.songPlaysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mixtape_song_plays_total",
			Help: "Total number of recorded song plays",
		},
	)

	m.songSearchsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mixtape_song_searches_total",
			Help: "Total number of catalog searches",
		},
	)
}

// initPlaylistMetrics initializes playlist-related metrics.
func (m *MetricsService) initPlaylistMetrics() {
	m.playlistsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mixtape_playlists_total",
			Help: "Total number of playlists",
		},
	)

	m.playlistMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mixtape_playlist_mutations_total",
			Help: "Total number of playlist mutations",
		},
		[]string{"operation"},
	)

	m.playlistClonesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mixtape_playlist_clones_total",
			Help: "Total number of playlist clones",
		},
	)
}

// initSuggestionMetrics initializes suggestion-related metrics.
func (m *MetricsService) initSuggestionMetrics() {
	m.suggestionRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mixtape_suggestion_requests_total",
			Help: "Total number of suggestion requests",
		},
	)

	m.suggestionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mixtape_suggestion_duration_seconds",
			Help:    "Time spent computing suggestions",
			Buckets: prometheus.DefBuckets,
		},
	)
}

// initRuntimeMetrics initializes runtime metrics.
func (m *MetricsService) initRuntimeMetrics() {
	m.systemMemoryUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mixtape_system_memory_usage_bytes",
			Help: "Memory usage in bytes",
		},
	)

	m.systemGoroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mixtape_system_goroutines",
			Help: "Number of goroutines",
		},
	)
}

// ObserveHTTPRequest records metrics for a finished HTTP request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, http.StatusText(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncHTTPRequestsInProgress increments the in-progress HTTP requests gauge.
func (m *MetricsService) IncHTTPRequestsInProgress() {
	m.httpRequestsInProgress.Inc()
}

// DecHTTPRequestsInProgress decrements the in-progress HTTP requests gauge.
func (m *MetricsService) DecHTTPRequestsInProgress() {
	m.httpRequestsInProgress.Dec()
}

// SetUsersTotal sets the total number of registered users.
func (m *MetricsService) SetUsersTotal(count int64) {
	m.usersTotal.Set(float64(count))
}

// SetUsersActive sets the number of active users.
func (m *MetricsService) SetUsersActive(count int64) {
	m.usersActive.Set(float64(count))
}

// IncUserRegistrations increments the user registrations counter.
func (m *MetricsService) IncUserRegistrations() {
	m.userRegistrations.Inc()
}

// IncUserLogins increments the user logins counter.
func (m *MetricsService) IncUserLogins() {
	m.userLogins.Inc()
}

// SetSongsTotal sets the total number of songs in the catalog.
func (m *MetricsService) SetSongsTotal(count int64) {
	m.songsTotal.Set(float64(count))
}

// IncSongPlays increments the song plays counter.
func (m *MetricsService) IncSongPlays() {
	m.songPlaysTotal.Inc()
}

// IncSongSearches increments the catalog searches counter.
func (m *MetricsService) IncSongSearches() {
	m.songSearchsTotal.Inc()
}

// SetPlaylistsTotal sets the total number of playlists.
func (m *MetricsService) SetPlaylistsTotal(count int64) {
	m.playlistsTotal.Set(float64(count))
}

// IncPlaylistMutations increments the playlist mutations counter.
func (m *MetricsService) IncPlaylistMutations(operation string) {
	m.playlistMutationsTotal.WithLabelValues(operation).Inc()
}

// IncPlaylistClones increments the playlist clones counter.
func (m *MetricsService) IncPlaylistClones() {
	m.playlistClonesTotal.Inc()
}

// ObserveSuggestionRequest records metrics for a suggestion request.
func (m *MetricsService) ObserveSuggestionRequest(duration time.Duration) {
	m.suggestionRequestsTotal.Inc()
	m.suggestionDuration.Observe(duration.Seconds())
}
