package shipments

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/BearBump/ShipTrack/internal/broker/messages"
	"github.com/BearBump/ShipTrack/internal/cache"
	"github.com/BearBump/ShipTrack/internal/models"
	"github.com/BearBump/ShipTrack/internal/services/timeline"
	"github.com/pkg/errors"
)

type Store interface {
	List(ctx context.Context) ([]*models.Shipment, error)
	Get(ctx context.Context, trackingNumber string) (*models.Shipment, error)
	Create(ctx context.Context, sh *models.Shipment) (*models.Shipment, error)
	Update(ctx context.Context, trackingNumber string, p models.Patch) (*models.Shipment, error)
	Delete(ctx context.Context, trackingNumber string) (int, error)
	Clear(ctx context.Context) error
}

type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// DefaultPublishTimeout bounds how long a mutation waits for the broker.
const DefaultPublishTimeout = time.Second

type Service struct {
	store          Store
	cache          cache.BytesCache
	cacheTTL       time.Duration
	publisher      Publisher
	publishTimeout time.Duration
	loc            *time.Location
	now            func() time.Time

	// растёт после каждой мутации, Get не кладёт в кэш прочитанное до неё
	gen atomic.Uint64
}

// New wires the service. cache and publisher are optional (nil disables them).
func New(store Store, c cache.BytesCache, cacheTTL time.Duration, publisher Publisher, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:          store,
		cache:          c,
		cacheTTL:       cacheTTL,
		publisher:      publisher,
		publishTimeout: DefaultPublishTimeout,
		loc:            loc,
		now:            time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) WithPublishTimeout(d time.Duration) *Service {
	if d > 0 {
		s.publishTimeout = d
	}
	return s
}

func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) List(ctx context.Context) ([]*models.Shipment, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	if s.cacheEnabled() {
		b, ok, err := s.cache.Get(ctx, currentKey(trackingNumber))
		if err == nil && ok {
			var sh models.Shipment
			if json.Unmarshal(b, &sh) == nil {
				return &sh, nil
			}
		}
	}

	gen := s.gen.Load()
	sh, err := s.store.Get(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled() && s.gen.Load() == gen {
		b, _ := json.Marshal(sh)
		_ = s.cache.Set(ctx, currentKey(trackingNumber), b, s.cacheTTL)
	}
	return sh, nil
}

// Create fills the derived fields the caller left out and appends the shipment.
// A caller-supplied timeline or transit time is stored as is.
func (s *Service) Create(ctx context.Context, in *models.Shipment) (*models.Shipment, error) {
	if in == nil || strings.TrimSpace(in.TrackingNumber) == "" {
		return nil, errors.Wrap(models.ErrValidation, "trackingNumber is required")
	}

	sh := in.Clone()
	now := s.now()
	if sh.CreatedAt.IsZero() {
		sh.CreatedAt = now.UTC()
	}
	if sh.StatusTime.IsZero() {
		sh.StatusTime = sh.CreatedAt
	}
	if sh.TransitTime == "" && sh.EstimatedArrival != nil {
		sh.TransitTime = timeline.EstimateTransitTime(*sh.EstimatedArrival, now)
	}
	if len(sh.Timeline) == 0 {
		sh.Timeline = timeline.BuildCreation(sh.Status, sh.StatusTime, sh.Milestones(), s.loc)
	}

	stored, err := s.store.Create(ctx, sh)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, stored.TrackingNumber)
	s.publish(ctx, stored.TrackingNumber, messages.ShipmentChanged{
		Action:         messages.ActionCreated,
		TrackingNumber: stored.TrackingNumber,
		Shipment:       stored,
		At:             now.UTC(),
	})

	slog.Info("shipment created", "tracking_number", stored.TrackingNumber, "status", stored.Status, "timeline_entries", len(stored.Timeline))
	return stored, nil
}

// Update shallow-merges p into the first shipment with the tracking number.
// The stored timeline is left alone.
func (s *Service) Update(ctx context.Context, trackingNumber string, p models.Patch) (*models.Shipment, error) {
	merged, err := s.store.Update(ctx, trackingNumber, p)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, trackingNumber, merged.TrackingNumber)
	s.publish(ctx, merged.TrackingNumber, messages.ShipmentChanged{
		Action:         messages.ActionUpdated,
		TrackingNumber: merged.TrackingNumber,
		Shipment:       merged,
		At:             s.now().UTC(),
	})
	return merged, nil
}

// Delete removes every shipment with the tracking number. Zero matches is not an error.
func (s *Service) Delete(ctx context.Context, trackingNumber string) (int, error) {
	n, err := s.store.Delete(ctx, trackingNumber)
	if err != nil {
		return 0, err
	}

	s.invalidate(ctx, trackingNumber)
	s.publish(ctx, trackingNumber, messages.ShipmentChanged{
		Action:         messages.ActionDeleted,
		TrackingNumber: trackingNumber,
		Removed:        n,
		At:             s.now().UTC(),
	})
	slog.Info("shipment deleted", "tracking_number", trackingNumber, "removed", n)
	return n, nil
}

func (s *Service) Clear(ctx context.Context) error {
	var keys []string
	if s.cacheEnabled() {
		all, err := s.store.List(ctx)
		if err != nil {
			return err
		}
		for _, sh := range all {
			keys = append(keys, sh.TrackingNumber)
		}
	}

	if err := s.store.Clear(ctx); err != nil {
		return err
	}

	s.invalidate(ctx, keys...)
	s.publish(ctx, "", messages.ShipmentChanged{
		Action: messages.ActionCleared,
		At:     s.now().UTC(),
	})
	return nil
}

func (s *Service) Stats(ctx context.Context) (models.ShipmentStats, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return models.ShipmentStats{}, err
	}

	today := s.now().In(s.loc)
	st := models.ShipmentStats{TotalShipments: len(all)}
	for _, sh := range all {
		if sh.Status != models.StatusDelivered {
			st.ActiveShipments++
			continue
		}
		if sameDay(sh.CreatedAt.In(s.loc), today) {
			st.DeliveredToday++
		}
	}
	return st, nil
}

// Timeline returns the stored timeline, or a synthesized one when the record has none.
func (s *Service) Timeline(ctx context.Context, trackingNumber string) ([]models.TimelineEntry, error) {
	sh, err := s.Get(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}
	if len(sh.Timeline) > 0 {
		return sh.Timeline, nil
	}
	return timeline.Synthesize(sh.Status, s.now(), s.loc), nil
}

// ApplyStatusUpdate applies a partial update received from the broker.
func (s *Service) ApplyStatusUpdate(ctx context.Context, msg messages.ShipmentStatus) error {
	if msg.TrackingNumber == "" {
		return errors.Wrap(models.ErrValidation, "tracking_number is required")
	}
	if len(msg.Fields) == 0 {
		return errors.Wrap(models.ErrValidation, "fields are empty")
	}
	_, err := s.Update(ctx, msg.TrackingNumber, msg.Fields)
	return err
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.cacheTTL > 0
}

func (s *Service) invalidate(ctx context.Context, trackingNumbers ...string) {
	s.gen.Add(1)
	if !s.cacheEnabled() || len(trackingNumbers) == 0 {
		return
	}
	keys := make([]string, 0, len(trackingNumbers))
	seen := make(map[string]struct{}, len(trackingNumbers))
	for _, tn := range trackingNumbers {
		if _, ok := seen[tn]; ok {
			continue
		}
		seen[tn] = struct{}{}
		keys = append(keys, currentKey(tn))
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		slog.Warn("cache invalidation failed", "keys", keys, "err", err)
	}
}

func (s *Service) publish(ctx context.Context, key string, msg messages.ShipmentChanged) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, key, msg); err != nil {
		slog.Warn("publish shipment change failed", "action", msg.Action, "tracking_number", msg.TrackingNumber, "err", err)
	}
}

func currentKey(trackingNumber string) string {
	return fmt.Sprintf("shipment:%s:current", trackingNumber)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
