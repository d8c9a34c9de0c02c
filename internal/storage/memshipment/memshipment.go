// Package memshipment keeps shipments in process memory. Nothing survives a restart.
package memshipment

import (
	"context"
	"sync"

	"github.com/BearBump/ShipTrack/internal/models"
)

type Storage struct {
	mu    sync.RWMutex
	items []*models.Shipment
}

func New() *Storage {
	return &Storage{}
}

func (s *Storage) List(ctx context.Context) ([]*models.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Shipment, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it.Clone())
	}
	return out, nil
}

// Get returns the first shipment with the tracking number.
func (s *Storage) Get(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(trackingNumber); i >= 0 {
		return s.items[i].Clone(), nil
	}
	return nil, models.ErrShipmentNotFound
}

// Create appends unconditionally: duplicate tracking numbers are allowed.
func (s *Storage) Create(ctx context.Context, sh *models.Shipment) (*models.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append(s.items, sh.Clone())
	return sh.Clone(), nil
}

func (s *Storage) Update(ctx context.Context, trackingNumber string, p models.Patch) (*models.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(trackingNumber)
	if i < 0 {
		return nil, models.ErrShipmentNotFound
	}
	merged, err := models.ApplyPatch(s.items[i], p)
	if err != nil {
		return nil, err
	}
	s.items[i] = merged
	return merged.Clone(), nil
}

// Delete removes every shipment with the tracking number and reports how many went away.
func (s *Storage) Delete(ctx context.Context, trackingNumber string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	for _, it := range s.items {
		if it.TrackingNumber != trackingNumber {
			kept = append(kept, it)
		}
	}
	removed := len(s.items) - len(kept)
	clear(s.items[len(kept):])
	s.items = kept
	return removed, nil
}

func (s *Storage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	return nil
}

func (s *Storage) indexOf(trackingNumber string) int {
	for i, it := range s.items {
		if it.TrackingNumber == trackingNumber {
			return i
		}
	}
	return -1
}
