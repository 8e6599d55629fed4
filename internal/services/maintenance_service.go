package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slideshow/server/internal/observability"
	"github.com/slideshow/server/internal/repository"
)

// ErrMaintenanceRunning is returned when a run is requested while one is in progress
var ErrMaintenanceRunning = errors.New("maintenance already running")

const maintenanceRunTimeout = 10 * time.Minute

// MaintenanceStatus represents the current status of the reference reconciler
type MaintenanceStatus struct {
	Running           bool       `json:"running"`
	Enabled           bool       `json:"enabled"`
	Schedule          string     `json:"schedule"`
	LastRun           *time.Time `json:"lastRun,omitempty"`
	LastRunDuration   string     `json:"lastRunDuration,omitempty"`
	DanglingFound     int        `json:"danglingFound"`
	SlideshowsUpdated int64      `json:"slideshowsUpdated"`
	Errors            []string   `json:"errors,omitempty"`
	NextScheduledRun  *time.Time `json:"nextScheduledRun,omitempty"`
}

// MaintenanceService periodically removes ids of deleted images from
// slideshows that still reference them
type MaintenanceService struct {
	store      repository.Store
	references *ReferenceService
	schedule   string

	mu      sync.RWMutex
	cron    *cron.Cron
	entryID cron.EntryID
	running bool
	status  MaintenanceStatus
}

// NewMaintenanceService creates a new MaintenanceService
func NewMaintenanceService(store repository.Store, references *ReferenceService, schedule string) *MaintenanceService {
	return &MaintenanceService{
		store:      store,
		references: references,
		schedule:   schedule,
		status: MaintenanceStatus{
			Schedule: schedule,
			Errors:   []string{},
		},
	}
}

// Start schedules the reconciler
func (s *MaintenanceService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil // Already started
	}

	c := cron.New()
	id, err := c.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), maintenanceRunTimeout)
		defer cancel()
		if _, err := s.RunNow(ctx); err != nil && !errors.Is(err, ErrMaintenanceRunning) {
			observability.WithError(err).Warn("Scheduled maintenance failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid maintenance schedule %q: %w", s.schedule, err)
	}

	c.Start()
	s.cron = c
	s.entryID = id
	s.status.Enabled = true
	observability.WithField("schedule", s.schedule).Info("Maintenance service started")
	return nil
}

// Stop unschedules the reconciler and waits for a scheduled run to finish
func (s *MaintenanceService) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.status.Enabled = false
	s.mu.Unlock()

	if c == nil {
		return // Already stopped
	}
	<-c.Stop().Done()
	observability.Info("Maintenance service stopped")
}

// IsEnabled returns whether the reconciler is scheduled
func (s *MaintenanceService) IsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cron != nil
}

// GetStatus returns the current maintenance status
func (s *MaintenanceService) GetStatus() MaintenanceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := s.status
	status.Running = s.running
	status.Errors = append([]string{}, s.status.Errors...)
	if s.cron != nil {
		next := s.cron.Entry(s.entryID).Next
		if !next.IsZero() {
			status.NextScheduledRun = &next
		}
	}
	return status
}

// RunNow performs one reconciliation pass and returns the resulting status
func (s *MaintenanceService) RunNow(ctx context.Context) (MaintenanceStatus, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return MaintenanceStatus{}, ErrMaintenanceRunning
	}
	s.running = true
	s.mu.Unlock()

	startTime := time.Now()
	found, updated, runErrors, err := s.reconcile(ctx)
	duration := time.Since(startTime)

	s.mu.Lock()
	s.running = false
	s.status.LastRun = &startTime
	s.status.LastRunDuration = duration.Round(time.Millisecond).String()
	s.status.DanglingFound = found
	s.status.SlideshowsUpdated = updated
	s.status.Errors = runErrors
	s.mu.Unlock()

	if err != nil {
		return s.GetStatus(), err
	}

	logger := observability.WithContext(ctx).WithFields(map[string]interface{}{
		"dangling_ids":       found,
		"slideshows_updated": updated,
	})
	if len(runErrors) > 0 {
		logger.Warnf("Maintenance completed with %d errors in %s", len(runErrors), duration.Round(time.Millisecond))
	} else {
		logger.Infof("Maintenance completed in %s", duration.Round(time.Millisecond))
	}
	return s.GetStatus(), nil
}

// reconcile removes every dangling image id from every slideshow
func (s *MaintenanceService) reconcile(ctx context.Context) (int, int64, []string, error) {
	ids, err := s.store.Slideshows().FindDanglingImageIDs(ctx)
	if err != nil {
		errMsg := "Failed to find dangling image ids: " + err.Error()
		return 0, 0, []string{errMsg}, fmt.Errorf("failed to find dangling image ids: %w", err)
	}

	runErrors := []string{}
	var updated int64
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			runErrors = append(runErrors, "Run interrupted: "+err.Error())
			break
		}
		touched, err := s.references.ScrubReferences(ctx, id, ScrubSourceReconcile)
		if err != nil {
			runErrors = append(runErrors, fmt.Sprintf("Failed to remove image %d: %v", id, err))
			continue
		}
		updated += int64(len(touched))
	}
	return len(ids), updated, runErrors, nil
}
