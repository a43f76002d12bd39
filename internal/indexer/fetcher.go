package indexer

import (
	"context"

	"tokenMirror/internal/model"
)

// Fetcher retrieves upstream events of one category.
//
// FetchEvents returns every event with a block number strictly greater than
// minBlock in ascending block order. When the upstream fails part way it
// returns the events gathered so far together with the error.
type Fetcher interface {
	FetchEvents(ctx context.Context, category model.Category, minBlock uint64) ([]model.RawEvent, error)
}
