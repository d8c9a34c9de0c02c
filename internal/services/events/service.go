// Package events keeps analytics events and the counters shown on /api/stats.
package events

import (
	"strconv"
	"sync"
	"time"

	"github.com/BearBump/ShipTrack/internal/models"
	"github.com/pkg/errors"
)

const DefaultLimit = 100

const categoryPage = "page"

type Service struct {
	mu     sync.Mutex
	limit  int
	events []models.Event
	stats  models.EventStats
	now    func() time.Time
}

func New(limit int) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{
		limit: limit,
		stats: models.EventStats{ActiveUsers: 1},
		now:   time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Track records an event newest first and drops the oldest ones past the limit.
// An empty timestamp is replaced with the current time.
func (s *Service) Track(name, category string, value any, timestamp string) (models.Event, models.EventStats, error) {
	if name == "" || category == "" {
		return models.Event{}, models.EventStats{}, errors.Wrap(models.ErrValidation, "event name and category are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if timestamp == "" {
		timestamp = now.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	}
	ev := models.Event{
		ID:        strconv.FormatInt(now.UnixMilli(), 10),
		Name:      name,
		Category:  category,
		Value:     value,
		Timestamp: timestamp,
	}

	s.events = append([]models.Event{ev}, s.events...)
	if len(s.events) > s.limit {
		s.events = s.events[:s.limit]
	}

	s.stats.TotalEvents++
	if category == categoryPage {
		s.stats.PageViews++
	}
	return ev, s.stats, nil
}

func (s *Service) List() ([]models.Event, models.EventStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Event{}, s.events...), s.stats
}

func (s *Service) Stats() models.EventStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Clear drops events and resets the counters. activeUsers is kept.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.stats.TotalEvents = 0
	s.stats.PageViews = 0
}
