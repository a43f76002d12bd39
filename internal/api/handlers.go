package api

import (
	"context"
	"math/big"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tokenMirror/internal/model"
	"tokenMirror/internal/storage"
)

const (
	defaultPageLimit   = 50
	maxPageLimit       = 500
	largeTransferLimit = 10
	healthAlertLimit   = 10
)

type pagination struct {
	Total   uint64 `json:"total"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
	HasMore bool   `json:"has_more"`
}

func newPagination(total uint64, limit, offset, returned int) pagination {
	return pagination{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: uint64(offset+returned) < total,
	}
}

func pageParams(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", defaultPageLimit)
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

type activityResponse struct {
	Count     uint64 `json:"count"`
	Amount    string `json:"amount,omitempty"`
	Volume    string `json:"volume,omitempty"`
	ChangePct string `json:"change_pct,omitempty"`
}

type transferResponse struct {
	Transaction string `json:"transaction,omitempty"`
	Block       uint64 `json:"block,omitempty"`
	Timestamp   string `json:"timestamp"`
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
}

func toTransferResponse(t model.TransferEvent, _ int) transferResponse {
	return transferResponse{
		Transaction: t.TxHash,
		Block:       t.BlockNumber,
		Timestamp:   formatTime(t.BlockTimestamp),
		From:        formatAddress(t.FromAddress),
		To:          formatAddress(t.ToAddress),
		Amount:      formatAmount(t.Amount),
	}
}

func (s *Server) getOverview(c *fiber.Ctx) error {
	timeframe := c.Query("timeframe", "24h")
	now := s.now().UTC()
	current, err := parseTimeframe(timeframe, now)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	previous := current.previous()
	ctx := c.UserContext()

	var (
		totals                  model.Totals
		mints, burns, transfers storage.Activity
		prevMints, prevBurns    storage.Activity
		large                   []model.TransferEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totals, err = s.store.Totals(gctx)
		return err
	})
	g.Go(func() (err error) {
		mints, err = s.activity(gctx, model.CategoryMint, current)
		return err
	})
	g.Go(func() (err error) {
		burns, err = s.activity(gctx, model.CategoryBurn, current)
		return err
	})
	g.Go(func() (err error) {
		transfers, err = s.activity(gctx, model.CategoryTransfer, current)
		return err
	})
	g.Go(func() (err error) {
		prevMints, err = s.activity(gctx, model.CategoryMint, previous)
		return err
	})
	g.Go(func() (err error) {
		prevBurns, err = s.activity(gctx, model.CategoryBurn, previous)
		return err
	})
	g.Go(func() (err error) {
		large, err = s.store.LargestTransfers(gctx, current.From, current.To, largeTransferLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	supply := new(big.Int).Sub(totals.TotalMinted, totals.TotalBurned)
	return c.JSON(fiber.Map{
		"overview": fiber.Map{
			"total_supply": formatAmount(supply),
			"total_minted": formatAmount(totals.TotalMinted),
			"total_burned": formatAmount(totals.TotalBurned),
			"net_issuance": formatAmount(supply),
		},
		"timeframe_activity": fiber.Map{
			"timeframe": timeframe,
			"mints": activityResponse{
				Count:     mints.Count,
				Amount:    formatAmount(mints.Sum),
				ChangePct: changePct(mints.Sum, prevMints.Sum),
			},
			"burns": activityResponse{
				Count:     burns.Count,
				Amount:    formatAmount(burns.Sum),
				ChangePct: changePct(burns.Sum, prevBurns.Sum),
			},
			"transfers": activityResponse{
				Count:  transfers.Count,
				Volume: formatAmount(transfers.Sum),
			},
		},
		"recent_activity": fiber.Map{
			"large_transfers": lo.Map(large, toTransferResponse),
		},
		"as_of": formatTime(now),
		"block_range": fiber.Map{
			"from": formatTime(current.From),
			"to":   formatTime(current.To),
		},
	})
}

func (s *Server) activity(ctx context.Context, category model.Category, w window) (storage.Activity, error) {
	return s.store.ActivityBetween(ctx, category, w.From, w.To)
}

func (s *Server) getMints(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	ctx := c.UserContext()

	mints, err := s.store.ListMints(ctx, limit, offset)
	if err != nil {
		return err
	}
	total, err := s.store.CountEvents(ctx, model.CategoryMint)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"mints": lo.Map(mints, func(m model.MintEvent, _ int) fiber.Map {
			return fiber.Map{
				"transaction": m.TxHash,
				"block":       m.BlockNumber,
				"timestamp":   formatTime(m.BlockTimestamp),
				"to":          formatAddress(m.ToAddress),
				"amount":      formatAmount(m.Amount),
				"minter":      formatAddress(m.Minter),
			}
		}),
		"pagination": newPagination(total, limit, offset, len(mints)),
	})
}

func (s *Server) getBurns(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	ctx := c.UserContext()

	burns, err := s.store.ListBurns(ctx, limit, offset)
	if err != nil {
		return err
	}
	total, err := s.store.CountEvents(ctx, model.CategoryBurn)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"burns": lo.Map(burns, func(b model.BurnEvent, _ int) fiber.Map {
			return fiber.Map{
				"transaction": b.TxHash,
				"block":       b.BlockNumber,
				"timestamp":   formatTime(b.BlockTimestamp),
				"from":        formatAddress(b.FromAddress),
				"amount":      formatAmount(b.Amount),
				"burner":      formatAddress(b.Burner),
			}
		}),
		"pagination": newPagination(total, limit, offset, len(burns)),
	})
}

func (s *Server) getTransfers(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	ctx := c.UserContext()

	transfers, err := s.store.ListTransfers(ctx, limit, offset)
	if err != nil {
		return err
	}
	total, err := s.store.CountEvents(ctx, model.CategoryTransfer)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"transfers":  lo.Map(transfers, toTransferResponse),
		"pagination": newPagination(total, limit, offset, len(transfers)),
	})
}

func (s *Server) getBlacklist(c *fiber.Ctx) error {
	events, err := s.store.BlacklistEvents(c.UserContext())
	if err != nil {
		return err
	}

	isListed := func(e model.BlacklistEvent, _ int) bool { return e.Listed }
	listed, unlisted := lo.Filter(events, isListed), lo.Reject(events, isListed)
	current := model.CurrentlyBlacklisted(events)

	return c.JSON(fiber.Map{
		"currently_blacklisted": lo.Map(current, func(e model.BlacklistEvent, _ int) fiber.Map {
			return fiber.Map{
				"account":        formatAddress(e.Account),
				"blacklisted_at": formatTime(e.BlockTimestamp),
				"blacklisted_by": formatAddress(e.Blacklister),
			}
		}),
		"blacklist_history": fiber.Map{
			"total_blacklisted":   distinctAccounts(listed),
			"total_unblacklisted": distinctAccounts(unlisted),
			"currently_active":    len(current),
		},
		"as_of": formatTime(s.now()),
	})
}

func distinctAccounts(events []model.BlacklistEvent) int {
	return len(lo.UniqBy(events, func(e model.BlacklistEvent) string { return formatAddress(e.Account) }))
}

func (s *Server) getSnapshots(c *fiber.Ctx) error {
	limit, _ := pageParams(c)
	snaps, err := s.store.LatestSnapshots(c.UserContext(), limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"snapshots": lo.Map(snaps, func(snap model.TokenSnapshot, _ int) fiber.Map {
			return fiber.Map{
				"snapshot_time":       formatTime(snap.SnapshotTime),
				"total_supply":        formatAmount(snap.TotalSupply),
				"total_minted":        formatAmount(snap.TotalMinted),
				"total_burned":        formatAmount(snap.TotalBurned),
				"unique_holders":      snap.UniqueHolders,
				"total_transactions":  snap.TotalTransactions,
				"latest_block_number": snap.LatestBlockNumber,
			}
		}),
	})
}

func (s *Server) getHealth(c *fiber.Ctx) error {
	ctx := c.UserContext()

	latest, ok, err := s.store.LatestTransfer(ctx)
	if err != nil {
		return err
	}
	counts := make(map[model.Category]uint64, 3)
	for _, category := range []model.Category{model.CategoryMint, model.CategoryBurn, model.CategoryTransfer} {
		n, err := s.store.CountEvents(ctx, category)
		if err != nil {
			return err
		}
		counts[category] = n
	}
	snaps, err := s.store.LatestSnapshots(ctx, 1)
	if err != nil {
		return err
	}
	snapCount, err := s.store.CountSnapshots(ctx)
	if err != nil {
		return err
	}
	alerts, err := s.store.UnresolvedAlerts(ctx, healthAlertLimit)
	if err != nil {
		return err
	}

	database := fiber.Map{
		"last_block":      uint64(0),
		"last_block_time": nil,
		"total_events": fiber.Map{
			"mints":     counts[model.CategoryMint],
			"burns":     counts[model.CategoryBurn],
			"transfers": counts[model.CategoryTransfer],
		},
	}
	if ok {
		database["last_block"] = latest.BlockNumber
		database["last_block_time"] = formatTime(latest.BlockTimestamp)
	}

	indexer := fiber.Map{
		"last_snapshot":   nil,
		"snapshots_count": snapCount,
	}
	if len(snaps) > 0 {
		indexer["last_snapshot"] = formatTime(snaps[0].SnapshotTime)
	}
	if s.watermark != nil {
		wm := s.watermark.Load()
		indexer["watermark"] = wm
		if s.head != nil {
			head, err := s.head.LatestBlockNumber(ctx)
			if err != nil {
				s.logger.Warn("chain head unavailable", zap.Error(err))
			} else {
				indexer["chain_head"] = head
				indexer["lag_blocks"] = lo.Ternary(head > wm, head-wm, 0)
			}
		}
	}

	return c.JSON(fiber.Map{
		"database": database,
		"indexer":  indexer,
		"alerts": lo.Map(alerts, func(a model.SystemAlert, _ int) fiber.Map {
			return fiber.Map{
				"id":          a.ID,
				"severity":    a.Severity,
				"title":       a.Title,
				"description": a.Description,
				"created":     formatTime(a.CreatedAt),
			}
		}),
		"as_of": formatTime(s.now()),
	})
}
