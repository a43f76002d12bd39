package rpc

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"tokenMirror/internal/model"
	"tokenMirror/internal/retry"
)

// ChainReader is the subset of chain.Client used to read token logs.
type ChainReader interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	TransactionSender(ctx context.Context, txHash, blockHash common.Hash, txIndex uint) (common.Address, error)
}

// Config holds settings for reading events straight from a node.
type Config struct {
	Token        common.Address
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

// Source reads token events with eth_getLogs and renders them as RawEvents.
type Source struct {
	cfg     Config
	chain   ChainReader
	decoder *Decoder
	logger  *zap.Logger

	mu      sync.Mutex
	cursors map[model.Category]scanCursor
}

// scanCursor records how far a category has been scanned. emitted is the
// highest block of any event handed out since the cursor was created; the
// cursor is only trusted while the caller's watermark has reached it.
type scanCursor struct {
	through uint64
	emitted uint64
}

func NewSource(cfg Config, chain ChainReader, logger *zap.Logger) (*Source, error) {
	if chain == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if cfg.BatchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if cfg.Token == (common.Address{}) {
		return nil, fmt.Errorf("token address is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	decoder, err := NewDecoder()
	if err != nil {
		return nil, err
	}
	return &Source{
		cfg:     cfg,
		chain:   chain,
		decoder: decoder,
		logger:  logger.Named("rpc"),
		cursors: make(map[model.Category]scanCursor),
	}, nil
}

// FetchEvents walks (minBlock, head] in batches, skipping blocks an earlier
// call already scanned for category. A range that still fails after retries
// ends the walk and the events gathered so far are returned with the error.
func (s *Source) FetchEvents(ctx context.Context, category model.Category, minBlock uint64) ([]model.RawEvent, error) {
	topic0, err := s.decoder.Topic0(category)
	if err != nil {
		return nil, err
	}

	var head uint64
	err = retry.Do(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		head, err = s.chain.LatestBlockNumber(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get latest block: %w", err)
	}

	from := s.resumeFrom(category, minBlock)
	if head <= from {
		return nil, nil
	}

	ranges, err := spans(from+1, head, s.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	var events []model.RawEvent
	for _, span := range ranges {
		batch, err := s.fetchSpan(ctx, category, topic0, span)
		if err != nil {
			return events, fmt.Errorf("blocks %s: %w", span, err)
		}
		s.markScanned(category, span.To, batch)
		events = append(events, batch...)
	}
	return events, nil
}

// resumeFrom returns the block after which scanning continues. When minBlock
// is below an event this source already emitted, that event may not be
// stored, so the cursor is dropped and the scan restarts at minBlock.
func (s *Source) resumeFrom(category model.Category, minBlock uint64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.cursors[category]
	if !ok {
		return minBlock
	}
	if minBlock < cur.emitted {
		delete(s.cursors, category)
		return minBlock
	}
	return max(minBlock, cur.through)
}

func (s *Source) markScanned(category model.Category, through uint64, batch []model.RawEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.cursors[category]
	cur.through = max(cur.through, through)
	for _, ev := range batch {
		if block, err := strconv.ParseUint(ev.BlockNumber, 10, 64); err == nil {
			cur.emitted = max(cur.emitted, block)
		}
	}
	s.cursors[category] = cur
}

func (s *Source) fetchSpan(ctx context.Context, category model.Category, topic0 common.Hash, span blockSpan) ([]model.RawEvent, error) {
	var logs []types.Log
	err := retry.Do(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = s.chain.FilterLogs(ctx, span.From, span.To, []common.Address{s.cfg.Token}, []common.Hash{topic0})
		if err != nil {
			s.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", span.From), zap.Uint64("to", span.To))
			if rangeRejected(err) {
				return retry.Terminal(err)
			}
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("filter logs: %w", err)
	}

	out := make([]model.RawEvent, 0, len(logs))
	for _, log := range logs {
		if log.Removed {
			continue
		}
		var decoded *decodedLog
		if d, err := s.decoder.Decode(category, log); err != nil {
			// The record is still emitted, without payload, so the
			// processor rejects and dead-letters it.
			s.logger.Warn("decode log failed", zap.Error(err), zap.String("tx_hash", log.TxHash.Hex()), zap.Uint("log_index", log.Index))
		} else {
			decoded = &d
		}

		ts, err := s.blockTimestamp(ctx, log.BlockNumber)
		if err != nil {
			return nil, fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
		}

		var actor common.Address
		if needsSender(category) {
			actor, err = s.sender(ctx, log)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, buildRawEvent(category, log, decoded, ts, actor))
	}
	return out, nil
}

func (s *Source) blockTimestamp(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := retry.Do(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		ts, err = s.chain.BlockTimestamp(ctx, blockNumber)
		if err != nil {
			s.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", blockNumber))
		}
		return err
	})
	return ts, err
}

func (s *Source) sender(ctx context.Context, log types.Log) (common.Address, error) {
	var sender common.Address
	err := retry.Do(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		sender, err = s.chain.TransactionSender(ctx, log.TxHash, log.BlockHash, log.TxIndex)
		return err
	})
	if err != nil {
		return common.Address{}, fmt.Errorf("transaction sender %s: %w", log.TxHash.Hex(), err)
	}
	return sender, nil
}

// rangeRejectedMarkers are the messages nodes return when an eth_getLogs
// query spans too many blocks or results. The same query never succeeds.
var rangeRejectedMarkers = []string{
	"query returned more than",
	"block range is too large",
	"exceed maximum block range",
	"range too large",
}

func rangeRejected(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range rangeRejectedMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
