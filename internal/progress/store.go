package progress

import (
	"sync"
	"time"

	"videofetch/internal/model"
	"videofetch/pkg/logger"

	"go.uber.org/zap"
)

// Store maps job ids to their progress records. It is injected into the
// services that need it rather than living as a package global. Each record
// has exactly one writer (the worker owning the job); reads are snapshots.
type Store struct {
	mu       sync.RWMutex
	jobs     map[string]model.Job
	ttl      time.Duration
	interval time.Duration
	quitChan chan bool
}

// NewStore creates a progress store. Terminal records older than ttl are
// evicted by the cleanup routine.
func NewStore(ttl, cleanupInterval time.Duration) *Store {
	return &Store{
		jobs:     make(map[string]model.Job),
		ttl:      ttl,
		interval: cleanupInterval,
		quitChan: make(chan bool),
	}
}

// Start starts the cleanup routine
func (s *Store) Start() {
	go s.cleanupRoutine()
}

// Stop stops the cleanup routine
func (s *Store) Stop() {
	select {
	case s.quitChan <- true:
	default:
	}
}

// Set overwrites the record for id wholesale and stamps it.
func (s *Store) Set(id string, job model.Job) {
	job.LastUpdated = time.Now()

	s.mu.Lock()
	s.jobs[id] = job
	s.mu.Unlock()
}

// Get returns a snapshot of the record for id. An absent id yields the
// unknown sentinel: that is a valid poll outcome, not an error.
func (s *Store) Get(id string) model.Job {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()

	if !ok {
		return model.Job{Status: model.StatusUnknown, Percent: 0}
	}
	return job
}

// Len returns the number of tracked records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *Store) cleanupRoutine() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quitChan:
			if logger.Logger != nil {
				logger.Logger.Info("Progress store cleanup routine stopped")
			}
			return
		case <-ticker.C:
			s.cleanupExpired()
		}
	}
}

// cleanupExpired evicts terminal records past the TTL. Non-terminal records
// are never evicted; their worker still owns them.
func (s *Store) cleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, job := range s.jobs {
		if job.Terminal() && now.Sub(job.LastUpdated) > s.ttl {
			delete(s.jobs, id)
			removed++
		}
	}

	if removed > 0 && logger.Logger != nil {
		logger.Logger.Info("Progress records cleaned up",
			zap.Int("removed", removed),
			zap.Int("remaining", len(s.jobs)))
	}
}
