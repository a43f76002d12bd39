package subgraph

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/machinebox/graphql"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"tokenMirror/internal/model"
	"tokenMirror/internal/retry"
)

// Config holds subgraph client settings.
type Config struct {
	URL          string
	PageSize     int
	MaxRetries   int
	RetryBackoff time.Duration
	// RateLimit caps requests per second; zero disables throttling.
	RateLimit   float64
	HTTPTimeout time.Duration
}

// Client pages events out of a token subgraph.
type Client struct {
	cfg     Config
	gql     *graphql.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("subgraph url is required")
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("page size must be greater than zero")
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	gql := graphql.NewClient(cfg.URL, graphql.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
	return &Client{
		cfg:     cfg,
		gql:     gql,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.Named("subgraph"),
	}, nil
}

// FetchEvents pages through every event of category above minBlock. When a
// page still fails after retries the events gathered so far are returned
// with the error.
//
// The subgraph orders by block only, so events inside one block may come
// back in a different order on every request. After a full page the next
// request starts again at the page's last block, which then arrives whole in
// a single response; records already seen are dropped by id. Skip paging is
// only used while one block fills a whole page.
func (c *Client) FetchEvents(ctx context.Context, category model.Category, minBlock uint64) ([]model.RawEvent, error) {
	ent, ok := entities[category]
	if !ok {
		return nil, fmt.Errorf("subgraph: unsupported category %q", category)
	}

	var (
		events []model.RawEvent
		seen   = make(map[scalar]struct{})
		after  = minBlock
		skip   = 0
	)
	for {
		page, err := c.fetchPage(ctx, ent, after, skip)
		if err != nil {
			return events, fmt.Errorf("fetch %s page after block %d at skip %d: %w", ent.field, after, skip, err)
		}
		for _, rec := range page {
			if rec.ID != "" {
				if _, dup := seen[rec.ID]; dup {
					continue
				}
				seen[rec.ID] = struct{}{}
			}
			events = append(events, rec.normalize(category))
		}
		if len(page) < c.cfg.PageSize {
			return events, nil
		}

		first, errFirst := strconv.ParseUint(string(page[0].BlockNumber), 10, 64)
		last, errLast := strconv.ParseUint(string(page[len(page)-1].BlockNumber), 10, 64)
		if errFirst == nil && errLast == nil && first < last && last-1 > after {
			after, skip = last-1, 0
			continue
		}
		skip += c.cfg.PageSize
	}
}

func (c *Client) fetchPage(ctx context.Context, ent entity, minBlock uint64, skip int) ([]record, error) {
	var page []record
	err := retry.Do(ctx, c.cfg.MaxRetries, c.cfg.RetryBackoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req := graphql.NewRequest(ent.query)
		req.Var("first", c.cfg.PageSize)
		req.Var("skip", skip)
		req.Var("blockNumber", minBlock)

		var resp map[string][]record
		if err := c.gql.Run(ctx, req, &resp); err != nil {
			c.logger.Warn("subgraph request failed",
				zap.String("entity", ent.field),
				zap.Int("skip", skip),
				zap.Uint64("min_block", minBlock),
				zap.Error(err),
			)
			return err
		}
		page = resp[ent.field]
		return nil
	})
	return page, err
}
