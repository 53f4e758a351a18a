// Package system provides system-level services for monitoring and maintenance.
package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"norelock.dev/mixtape/backend/internal/db/redis"
	"norelock.dev/mixtape/backend/internal/db/redis/managers"
	"norelock.dev/mixtape/backend/internal/utils"
)

// MaintenanceTask represents a maintenance task to be executed.
type MaintenanceTask struct {
	Name     string
	Interval time.Duration
	LastRun  time.Time
	Fn       func(context.Context) error
}

// MaintenanceConfig contains configuration for the maintenance service.
type MaintenanceConfig struct {
	// Whether to enable automatic maintenance tasks
	Enabled bool
	// Maximum age of play event records before cleanup
	PlayHistoryMaxAge time.Duration
	// Maximum age of unexpired cache entries before an expiration is forced
	CacheMaxAge time.Duration
	// Interval for running maintenance tasks
	MaintenanceInterval time.Duration
	// Maximum number of concurrent maintenance tasks
	MaxConcurrentTasks int
	// Timeout for individual maintenance tasks
	TaskTimeout time.Duration
}

// DefaultMaintenanceConfig returns the default maintenance configuration.
func DefaultMaintenanceConfig() MaintenanceConfig {
	return MaintenanceConfig{
		Enabled:             true,
		PlayHistoryMaxAge:   90 * 24 * time.Hour,
		CacheMaxAge:         24 * time.Hour,
		MaintenanceInterval: 1 * time.Hour,
		MaxConcurrentTasks:  3,
		TaskTimeout:         30 * time.Minute,
	}
}

// MaintenanceService manages system maintenance tasks.
type MaintenanceService struct {
	config      MaintenanceConfig
	mongoDB     *mongo.Database
	redisClient *redis.Client
	sessionMgr  *managers.SessionManager
	metrics     *MetricsService
	logger      *utils.Logger
	tasks       []*MaintenanceTask
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
}

// NewMaintenanceService creates a new maintenance service.
func NewMaintenanceService(
	config MaintenanceConfig,
	mongoDB *mongo.Database,
	redisClient *redis.Client,
	sessionMgr *managers.SessionManager,
	metrics *MetricsService,
	logger *utils.Logger,
) *MaintenanceService {
	s := &MaintenanceService{
		config:      config,
		mongoDB:     mongoDB,
		redisClient: redisClient,
		sessionMgr:  sessionMgr,
		metrics:     metrics,
		logger:      logger.Named("maintenance_service"),
		stopCh:      make(chan struct{}),
		tasks:       make([]*MaintenanceTask, 0),
	}

	// Register default maintenance tasks
	s.RegisterTask("play_history_cleanup", config.MaintenanceInterval, s.CleanupPlayHistory)
	s.RegisterTask("database_optimization", 24*time.Hour, s.OptimizeDatabase)
	s.RegisterTask("cache_cleanup", config.MaintenanceInterval, s.CleanupCache)
	s.RegisterTask("session_cleanup", config.MaintenanceInterval, s.CleanupSessions)
	s.RegisterTask("metrics_refresh", config.MaintenanceInterval, s.RefreshEntityMetrics)

	return s
}

// RegisterTask registers a new maintenance task.
func (s *MaintenanceService) RegisterTask(name string, interval time.Duration, fn func(context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := &MaintenanceTask{
		Name:     name,
		Interval: interval,
		LastRun:  time.Now().Add(-interval), // Schedule to run immediately
		Fn:       fn,
	}

	s.tasks = append(s.tasks, task)
	s.logger.Info("Registered maintenance task", "name", name, "interval", interval)
}

// Start starts the maintenance service.
func (s *MaintenanceService) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Maintenance service is disabled")
		return nil
	}

	s.logger.Info("Starting maintenance service")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runDueTasks(ctx)
			case <-s.stopCh:
				s.logger.Info("Stopping maintenance service")
				return
			case <-ctx.Done():
				s.logger.Info("Context cancelled, stopping maintenance service")
				return
			}
		}
	}()

	return nil
}

// Stop stops the maintenance service.
func (s *MaintenanceService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// RunAllTasks runs all maintenance tasks immediately.
func (s *MaintenanceService) RunAllTasks(ctx context.Context) error {
	s.logger.Info("Running all maintenance tasks")

	s.mu.Lock()
	tasks := make([]*MaintenanceTask, len(s.tasks))
	copy(tasks, s.tasks)
	s.mu.Unlock()

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.config.MaxConcurrentTasks)
	errCh := make(chan error, len(tasks))

	for _, task := range tasks {
		wg.Add(1)
		go func(t *MaintenanceTask) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			s.logger.Info("Running maintenance task", "name", t.Name)
			if err := t.Fn(ctx); err != nil {
				s.logger.Error("Failed to run maintenance task", err, "name", t.Name)
				errCh <- fmt.Errorf("task %s failed: %w", t.Name, err)
				return
			}

			s.mu.Lock()
			t.LastRun = time.Now()
			s.mu.Unlock()

			s.logger.Info("Completed maintenance task", "name", t.Name)
		}(task)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("some maintenance tasks failed: %v", errs)
	}

	return nil
}

// runDueTasks runs all maintenance tasks that are due.
func (s *MaintenanceService) runDueTasks(ctx context.Context) {
	s.mu.Lock()
	var dueTasks []*MaintenanceTask
	now := time.Now()
	for _, task := range s.tasks {
		if now.Sub(task.LastRun) >= task.Interval {
			dueTasks = append(dueTasks, task)
		}
	}
	s.mu.Unlock()

	if len(dueTasks) == 0 {
		return
	}

	s.logger.Info("Running due maintenance tasks", "count", len(dueTasks))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.config.MaxConcurrentTasks)

	for _, task := range dueTasks {
		wg.Add(1)
		go func(t *MaintenanceTask) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("Task panic recovered", fmt.Errorf("%v", r), "name", t.Name)
				}
			}()

			taskCtx, cancel := context.WithTimeout(ctx, s.config.TaskTimeout)
			defer cancel()

			if err := t.Fn(taskCtx); err != nil {
				s.logger.Error("Task failed", err, "name", t.Name)
				return
			}

			s.mu.Lock()
			t.LastRun = time.Now()
			s.mu.Unlock()
		}(task)
	}

	wg.Wait()
}

// CleanupPlayHistory removes play event records older than the configured max age.
// The embedded per-user play counters are unaffected.
func (s *MaintenanceService) CleanupPlayHistory(ctx context.Context) error {
	s.logger.Info("Cleaning up play history", "maxAge", s.config.PlayHistoryMaxAge)

	cutoff := time.Now().Add(-s.config.PlayHistoryMaxAge)
	filter := bson.M{
		"playedAt": bson.M{"$lt": cutoff},
	}

	collection := s.mongoDB.Collection("play_history")
	result, err := collection.DeleteMany(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to cleanup play history: %w", err)
	}

	s.logger.Info("Play history cleanup completed", "deletedCount", result.DeletedCount)
	return nil
}

// OptimizeDatabase performs database optimization tasks.
func (s *MaintenanceService) OptimizeDatabase(ctx context.Context) error {
	s.logger.Info("Optimizing database")

	if s.mongoDB == nil {
		return fmt.Errorf("database connection is nil")
	}

	collections := []string{"users", "songs", "playlists", "play_history", "dj_profiles"}
	var errs []error

	for _, collection := range collections {
		s.logger.Info("Optimizing collection", "collection", collection)

		opCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)

		command := bson.D{{Key: "compact", Value: collection}}
		result := s.mongoDB.RunCommand(opCtx, command)
		cancel()
		if result.Err() != nil {
			err := fmt.Errorf("failed to optimize collection %s: %w", collection, result.Err())
			s.logger.Error("Collection optimization failed", result.Err(), "collection", collection)
			errs = append(errs, err)
			// Continue with other collections
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("database optimization completed with errors: %v", errs)
	}

	s.logger.Info("Database optimization completed successfully")
	return nil
}

// CleanupCache forces an expiration onto cache keys that were written without one.
func (s *MaintenanceService) CleanupCache(ctx context.Context) error {
	s.logger.Info("Cleaning up cache")

	if s.redisClient == nil {
		return fmt.Errorf("redis client is nil")
	}

	opCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	pattern := "suggest:cache:*"
	keys, err := s.redisClient.Keys(opCtx, pattern)
	if err != nil {
		return fmt.Errorf("failed to get cache keys: %w", err)
	}

	var updatedCount int
	var errs []error

	for _, key := range keys {
		ttl, err := s.redisClient.TTL(opCtx, key)
		if err != nil {
			s.logger.Error("Failed to get TTL for key", err, "key", key)
			errs = append(errs, fmt.Errorf("failed to get TTL for key %s: %w", key, err))
			continue
		}

		// Negative TTL means the key has no expiration.
		if ttl < 0 {
			err = s.redisClient.Expire(opCtx, key, s.config.CacheMaxAge)
			if err != nil {
				s.logger.Error("Failed to set expiration for key", err, "key", key)
				errs = append(errs, fmt.Errorf("failed to set expiration for key %s: %w", key, err))
				continue
			}
			updatedCount++
		}
	}

	s.logger.Info("Cache cleanup completed", "updatedCount", updatedCount)

	if len(errs) > 0 {
		return fmt.Errorf("cache cleanup completed with errors: %v", errs)
	}

	return nil
}

// CleanupSessions removes session index entries whose backing session keys
// have already expired.
func (s *MaintenanceService) CleanupSessions(ctx context.Context) error {
	if s.sessionMgr == nil {
		return fmt.Errorf("session manager is nil")
	}

	opCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	removed, err := s.sessionMgr.CleanupExpiredSessions(opCtx)
	if err != nil {
		return fmt.Errorf("failed to clean up sessions: %w", err)
	}

	s.logger.Info("Session cleanup completed", "removedCount", removed)
	return nil
}

// RefreshEntityMetrics recounts users, songs and playlists and pushes the
// totals into the metrics gauges.
func (s *MaintenanceService) RefreshEntityMetrics(ctx context.Context) error {
	if s.metrics == nil {
		return fmt.Errorf("metrics service is nil")
	}

	opCtx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	usersTotal, err := s.mongoDB.Collection("users").CountDocuments(opCtx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}

	usersActive, err := s.mongoDB.Collection("users").CountDocuments(opCtx, bson.M{"isActive": true})
	if err != nil {
		return fmt.Errorf("failed to count active users: %w", err)
	}

	songsTotal, err := s.mongoDB.Collection("songs").CountDocuments(opCtx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count songs: %w", err)
	}

	playlistsTotal, err := s.mongoDB.Collection("playlists").CountDocuments(opCtx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count playlists: %w", err)
	}

	s.metrics.SetUsersTotal(usersTotal)
	s.metrics.SetUsersActive(usersActive)
	s.metrics.SetSongsTotal(songsTotal)
	s.metrics.SetPlaylistsTotal(playlistsTotal)

	s.logger.Debug("Entity metrics refreshed",
		"users", usersTotal, "activeUsers", usersActive,
		"songs", songsTotal, "playlists", playlistsTotal)
	return nil
}

// PerformMaintenance runs a specific maintenance task by name.
func (s *MaintenanceService) PerformMaintenance(ctx context.Context, taskName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range s.tasks {
		if task.Name == taskName {
			s.logger.Info("Running maintenance task", "name", taskName)
			if err := task.Fn(ctx); err != nil {
				return fmt.Errorf("failed to run maintenance task %s: %w", taskName, err)
			}
			task.LastRun = time.Now()
			s.logger.Info("Completed maintenance task", "name", taskName)
			return nil
		}
	}

	return fmt.Errorf("maintenance task not found: %s", taskName)
}
