package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"evmalert/backend/services/alert-service/internal/models"
)

// DefaultSuppressionWindow is the cool-down between two notifications of one key.
const DefaultSuppressionWindow = 2 * time.Hour

// SuppressionStore persists suppression state across restarts.
type SuppressionStore interface {
	Save(ctx context.Context, entry models.SuppressionEntry) error
	Load(ctx context.Context) ([]models.SuppressionEntry, error)
}

// SuppressionSnapshot is a point-in-time copy of the suppression state.
type SuppressionSnapshot struct {
	TakenAt time.Time                 `json:"taken_at"`
	Window  string                    `json:"window"`
	Entries []models.SuppressionEntry `json:"entries"`
}

// Suppressor admits a candidate only once per condition+device within the window.
type Suppressor struct {
	mu     sync.Mutex
	window time.Duration
	last   map[models.SuppressionKey]time.Time
	store  SuppressionStore
	now    func() time.Time
	logger *zap.Logger
}

// SuppressorOption customizes a Suppressor.
type SuppressorOption func(*Suppressor)

// WithClock overrides the clock used for snapshots.
func WithClock(now func() time.Time) SuppressorOption {
	return func(s *Suppressor) {
		s.now = now
	}
}

// WithSuppressionStore persists every admission to store.
func WithSuppressionStore(store SuppressionStore) SuppressorOption {
	return func(s *Suppressor) {
		s.store = store
	}
}

// NewSuppressor returns an empty suppression state.
func NewSuppressor(window time.Duration, logger *zap.Logger, opts ...SuppressorOption) *Suppressor {
	if window <= 0 {
		window = DefaultSuppressionWindow
	}
	s := &Suppressor{
		window: window,
		last:   make(map[models.SuppressionKey]time.Time),
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Admit reports whether the candidate should be notified and records it if so.
// A key is admitted when unseen or when DetectedAt is strictly later than last+window.
func (s *Suppressor) Admit(ctx context.Context, candidate models.AlertCandidate) bool {
	key := candidate.Key()

	s.mu.Lock()
	last, seen := s.last[key]
	if seen && !candidate.DetectedAt.After(last.Add(s.window)) {
		s.mu.Unlock()
		return false
	}
	s.last[key] = candidate.DetectedAt
	s.mu.Unlock()

	if s.store != nil {
		entry := models.SuppressionEntry{SuppressionKey: key, LastNotifiedAt: candidate.DetectedAt}
		if err := s.store.Save(ctx, entry); err != nil {
			s.logger.Warn("failed to persist suppression entry", zap.String("key", key.String()), zap.Error(err))
		}
	}
	return true
}

// Restore merges persisted entries into memory, keeping the later timestamp per key.
func (s *Suppressor) Restore(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	entries, err := s.store.Load(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	restored := 0
	for _, entry := range entries {
		if current, ok := s.last[entry.SuppressionKey]; ok && !entry.LastNotifiedAt.After(current) {
			continue
		}
		s.last[entry.SuppressionKey] = entry.LastNotifiedAt
		restored++
	}
	return restored, nil
}

// Snapshot returns a copy of the state ordered by condition and device.
func (s *Suppressor) Snapshot() SuppressionSnapshot {
	s.mu.Lock()
	entries := make([]models.SuppressionEntry, 0, len(s.last))
	for key, ts := range s.last {
		entries = append(entries, models.SuppressionEntry{SuppressionKey: key, LastNotifiedAt: ts})
	}
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Condition != entries[j].Condition {
			return entries[i].Condition < entries[j].Condition
		}
		return entries[i].DeviceID < entries[j].DeviceID
	})

	return SuppressionSnapshot{
		TakenAt: s.now().UTC(),
		Window:  s.window.String(),
		Entries: entries,
	}
}

// Len returns the number of tracked keys.
func (s *Suppressor) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.last)
}
