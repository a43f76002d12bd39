package alert

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"tokenMirror/internal/metrics"
	"tokenMirror/internal/model"
	"tokenMirror/internal/storage"
)

// Source tags alerts raised by the ingestion process.
const Source = "INDEXER"

// Sink persists system alerts. Alerts sharing a title are suppressed until
// the cooldown since the last persisted one has elapsed, except for titles
// registered with WithoutCooldown.
type Sink struct {
	store    storage.AlertStore
	cooldown time.Duration
	exempt   map[string]bool
	logger   *zap.Logger
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

func NewSink(store storage.AlertStore, cooldown time.Duration, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{
		store:    store,
		cooldown: cooldown,
		logger:   logger.Named("alert"),
		now:      time.Now,
		exempt:   make(map[string]bool),
		last:     make(map[string]time.Time),
	}
}

// WithoutCooldown makes every alert with one of titles persist. It is meant
// for titles whose callers are already rate bound, such as the snapshot
// ticker. It must be called before the sink is shared.
func (s *Sink) WithoutCooldown(titles ...string) *Sink {
	for _, title := range titles {
		s.exempt[title] = true
	}
	return s
}

// Raise records an alert. It never fails: a persistence error is logged.
func (s *Sink) Raise(ctx context.Context, severity model.Severity, title, description string) {
	now := s.now().UTC()
	if s.suppressed(title, now) {
		metrics.AlertsSuppressed.Inc()
		s.logger.Debug("alert suppressed", zap.String("title", title))
		return
	}

	metrics.AlertsRaised.WithLabelValues(string(severity)).Inc()
	s.logger.Warn("system alert",
		zap.String("severity", string(severity)),
		zap.String("title", title),
		zap.String("description", description),
	)

	err := s.store.InsertAlert(ctx, model.SystemAlert{
		Severity:    severity,
		Title:       title,
		Description: description,
		Source:      Source,
		CreatedAt:   now,
	})
	if err != nil {
		s.logger.Error("persist alert failed", zap.String("title", title), zap.Error(err))
		s.forget(title)
	}
}

func (s *Sink) suppressed(title string, now time.Time) bool {
	if s.exempt[title] {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.last[title]; ok && s.cooldown > 0 && now.Sub(last) < s.cooldown {
		return true
	}
	s.last[title] = now
	return false
}

func (s *Sink) forget(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.last, title)
}
