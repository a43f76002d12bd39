package indexer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tokenMirror/internal/metrics"
	"tokenMirror/internal/model"
	"tokenMirror/internal/storage"
)

// Result summarises one processor run.
type Result struct {
	Category   model.Category
	Fetched    int
	Persisted  int
	Duplicates int
	Failed     int
	// MaxBlock is the highest block seen stored during the run, whether
	// inserted now or already present.
	MaxBlock uint64
	// Held is set when some events at or above HoldBlock may not be
	// stored yet, so the watermark must stay below HoldBlock.
	Held      bool
	HoldBlock uint64
	FetchErr  error
}

func (r *Result) hold(block uint64) {
	if !r.Held || block < r.HoldBlock {
		r.Held = true
		r.HoldBlock = block
	}
}

func (r *Result) observe(block uint64) {
	if block > r.MaxBlock {
		r.MaxBlock = block
	}
}

// Processor mirrors one event category into the store.
type Processor struct {
	desc       Descriptor
	fetcher    Fetcher
	store      storage.EventStore
	deadLetter storage.DeadLetter
	logger     *zap.Logger
}

// NewProcessor builds a Processor for the category described by desc.
func NewProcessor(desc Descriptor, fetcher Fetcher, store storage.EventStore, deadLetter storage.DeadLetter, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		desc:       desc,
		fetcher:    fetcher,
		store:      store,
		deadLetter: deadLetter,
		logger:     logger.With(zap.String("category", desc.Category.String())),
	}
}

func (p *Processor) Category() model.Category {
	return p.desc.Category
}

// Process fetches events above minBlock and stores them in upstream order.
// Failures are contained: they are logged, counted and reflected in the
// returned Result, never returned as errors.
func (p *Processor) Process(ctx context.Context, minBlock uint64) Result {
	category := p.desc.Category
	res := Result{Category: category}

	raws, err := p.fetcher.FetchEvents(ctx, category, minBlock)
	res.Fetched = len(raws)
	metrics.EventsFetched.WithLabelValues(category.String()).Add(float64(len(raws)))
	if err != nil {
		res.FetchErr = err
		metrics.FetchErrors.WithLabelValues(category.String()).Inc()
		p.logger.Warn("fetch events failed", zap.Error(err), zap.Uint64("min_block", minBlock), zap.Int("partial", len(raws)))
		// The last block of a partial result may continue on the page that
		// failed, so it is held as well.
		res.hold(p.partialHold(raws, minBlock))
	}

	for _, raw := range raws {
		if ctx.Err() != nil {
			res.hold(p.blockOf(raw, minBlock))
			break
		}
		p.processOne(ctx, raw, minBlock, &res)
	}

	if res.Persisted > 0 || res.Failed > 0 {
		p.logger.Info("category processed",
			zap.Int("fetched", res.Fetched),
			zap.Int("persisted", res.Persisted),
			zap.Int("duplicates", res.Duplicates),
			zap.Int("failed", res.Failed),
			zap.Uint64("max_block", res.MaxBlock),
		)
	}
	return res
}

func (p *Processor) processOne(ctx context.Context, raw model.RawEvent, minBlock uint64, res *Result) {
	category := p.desc.Category

	key, err := decodeKey(raw)
	if err != nil {
		p.fail(raw, "decode", err, minBlock, res)
		return
	}
	exists, err := p.store.Exists(ctx, category, key.TxHash, key.LogIndex)
	if err != nil {
		p.fail(raw, "exists", err, minBlock, res)
		return
	}
	if exists {
		res.Duplicates++
		metrics.EventsDuplicate.WithLabelValues(category.String()).Inc()
		if block, err := decodeUint("block number", raw.BlockNumber, 64); err == nil {
			res.observe(block)
		}
		return
	}

	event, err := p.desc.Decode(raw)
	if err != nil {
		p.fail(raw, "decode", err, minBlock, res)
		return
	}
	inserted, err := p.store.InsertEvent(ctx, event)
	if err != nil {
		p.fail(raw, "insert", err, minBlock, res)
		return
	}
	block := event.Meta().BlockNumber
	if inserted {
		res.Persisted++
		metrics.EventsPersisted.WithLabelValues(category.String()).Inc()
	} else {
		// Stored by a concurrent writer between the check and the insert.
		res.Duplicates++
		metrics.EventsDuplicate.WithLabelValues(category.String()).Inc()
	}
	res.observe(block)
}

func (p *Processor) fail(raw model.RawEvent, stage string, err error, minBlock uint64, res *Result) {
	category := p.desc.Category
	res.Failed++
	res.hold(p.blockOf(raw, minBlock))
	metrics.EventErrors.WithLabelValues(category.String(), stage).Inc()
	p.logger.Error("event skipped",
		zap.String("stage", stage),
		zap.String("tx_hash", raw.TxHash),
		zap.String("log_index", raw.LogIndex),
		zap.String("block_number", raw.BlockNumber),
		zap.Error(err),
	)

	if stage != "decode" || p.deadLetter == nil {
		return
	}
	record := model.DecodeError{
		Category:   category,
		Stage:      stage,
		Raw:        raw,
		Error:      err.Error(),
		RecordedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := p.deadLetter.Put(record); err != nil {
		p.logger.Warn("write dead letter failed", zap.Error(err))
	}
}

// blockOf returns the block number of raw, falling back to the first block
// above minBlock when the field does not parse.
func (p *Processor) blockOf(raw model.RawEvent, minBlock uint64) uint64 {
	block, err := decodeUint("block number", raw.BlockNumber, 64)
	if err != nil || block <= minBlock {
		return minBlock + 1
	}
	return block
}

func (p *Processor) partialHold(raws []model.RawEvent, minBlock uint64) uint64 {
	if len(raws) == 0 {
		return minBlock + 1
	}
	return p.blockOf(raws[len(raws)-1], minBlock)
}
