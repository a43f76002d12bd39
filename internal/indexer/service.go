package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tokenMirror/internal/metrics"
	"tokenMirror/internal/model"
	"tokenMirror/internal/storage"
)

// Config holds the scheduler settings.
type Config struct {
	PollInterval     time.Duration
	SnapshotInterval time.Duration
	// HoldOnError keeps the watermark below any event that could not be
	// stored so that it is fetched again on the next poll.
	HoldOnError bool
}

// PollReport describes one completed poll.
type PollReport struct {
	MinBlock  uint64
	Watermark uint64
	Results   []Result
}

// Service drives the category processors and the snapshot builder.
type Service struct {
	cfg        Config
	store      storage.EventStore
	processors []*Processor
	watermark  *Watermark
	snapshots  *SnapshotBuilder
	alerts     Alerter
	logger     *zap.Logger

	polling      atomic.Bool
	snapshotting atomic.Bool
}

// NewService wires one processor per registered category.
func NewService(
	cfg Config,
	store storage.EventStore,
	fetcher Fetcher,
	watermark *Watermark,
	snapshots *SnapshotBuilder,
	alerts Alerter,
	deadLetter storage.DeadLetter,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	processors := make([]*Processor, 0, len(Descriptors))
	for _, desc := range Descriptors {
		processors = append(processors, NewProcessor(desc, fetcher, store, deadLetter, logger))
	}
	return &Service{
		cfg:        cfg,
		store:      store,
		processors: processors,
		watermark:  watermark,
		snapshots:  snapshots,
		alerts:     alerts,
		logger:     logger,
	}
}

func (s *Service) Watermark() *Watermark {
	return s.watermark
}

// Start initialises the watermark from the store and runs one catch-up poll
// before returning.
func (s *Service) Start(ctx context.Context) error {
	if s.cfg.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be greater than zero")
	}
	if s.cfg.SnapshotInterval <= 0 {
		return fmt.Errorf("snapshot interval must be greater than zero")
	}

	latest, err := s.store.MaxBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("load watermark: %w", err)
	}
	s.watermark.Advance(latest)
	metrics.Watermark.Set(float64(s.watermark.Load()))
	s.logger.Info("indexer starting", zap.Uint64("from_block", s.watermark.Load()))

	s.Poll(ctx)
	return nil
}

// Run schedules polls and snapshots until ctx is cancelled. A tick that fires
// while the previous run of the same job is still in flight is dropped. On
// cancellation Run waits for in-flight work, which runs detached from ctx, and
// returns ctx.Err().
func (s *Service) Run(ctx context.Context) error {
	pollTicker := time.NewTicker(s.cfg.PollInterval)
	defer pollTicker.Stop()
	snapshotTicker := time.NewTicker(s.cfg.SnapshotInterval)
	defer snapshotTicker.Stop()

	work := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("indexer stopping, waiting for in-flight work")
			return ctx.Err()
		case <-pollTicker.C:
			if !s.polling.CompareAndSwap(false, true) {
				metrics.PollsSkipped.Inc()
				s.logger.Debug("poll still in flight, tick dropped")
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer s.polling.Store(false)
				s.Poll(work)
			}()
		case <-snapshotTicker.C:
			if !s.snapshotting.CompareAndSwap(false, true) {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer s.snapshotting.Store(false)
				s.snapshot(work)
			}()
		}
	}
}

// snapshot runs one scheduled build. Build has already logged and alerted
// when it fails; the scheduler only records the missed tick.
func (s *Service) snapshot(ctx context.Context) {
	if _, err := s.snapshots.Build(ctx); err != nil {
		s.logger.Warn("scheduled snapshot skipped", zap.Error(err))
	}
}

// Poll runs every processor concurrently against the current watermark,
// waits for all of them and commits the new watermark.
func (s *Service) Poll(ctx context.Context) PollReport {
	started := time.Now()
	minBlock := s.watermark.Load()
	results := make([]Result, len(s.processors))

	var g errgroup.Group
	for i, p := range s.processors {
		g.Go(func() error {
			results[i] = p.Process(ctx, minBlock)
			return nil
		})
	}
	_ = g.Wait()

	committed := s.commit(results)
	metrics.PollDuration.Observe(time.Since(started).Seconds())
	s.report(ctx, results)

	s.logger.Info("poll completed",
		zap.Uint64("min_block", minBlock),
		zap.Uint64("watermark", committed),
		zap.Duration("elapsed", time.Since(started)),
	)
	return PollReport{MinBlock: minBlock, Watermark: committed, Results: results}
}

// commit advances the watermark to the highest stored block, capped below the
// lowest held block when HoldOnError is set.
func (s *Service) commit(results []Result) uint64 {
	var (
		highest uint64
		held    bool
		lowest  uint64
	)
	for _, r := range results {
		if r.MaxBlock > highest {
			highest = r.MaxBlock
		}
		if r.Held && (!held || r.HoldBlock < lowest) {
			held = true
			lowest = r.HoldBlock
		}
	}

	target := highest
	if s.cfg.HoldOnError && held {
		limit := uint64(0)
		if lowest > 0 {
			limit = lowest - 1
		}
		if limit < target {
			target = limit
		}
	}
	s.watermark.Advance(target)

	current := s.watermark.Load()
	metrics.Watermark.Set(float64(current))
	return current
}

func (s *Service) report(ctx context.Context, results []Result) {
	if s.alerts == nil {
		return
	}

	var fetchErrs []error
	failed := 0
	for _, r := range results {
		if r.FetchErr != nil {
			fetchErrs = append(fetchErrs, fmt.Errorf("%s: %w", r.Category, r.FetchErr))
		}
		failed += r.Failed
	}

	if len(results) > 0 && len(fetchErrs) == len(results) {
		s.alerts.Raise(ctx, model.SeverityError, model.AlertPollError,
			fmt.Sprintf("Failed to poll events: %v", errors.Join(fetchErrs...)))
	}
	if failed > 0 {
		desc := fmt.Sprintf("%d event(s) could not be decoded or stored", failed)
		if s.cfg.HoldOnError {
			desc += "; watermark held until they are ingested"
		}
		s.alerts.Raise(ctx, model.SeverityWarning, model.AlertEventSkipped, desc)
	}
}
