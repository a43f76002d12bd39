package indexer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"tokenMirror/internal/model"
)

func txHash(n int) string {
	return fmt.Sprintf("0x%064x", n)
}

func address(n int) string {
	return fmt.Sprintf("0x%040x", n)
}

func rawMint(tx int, logIndex uint32, block uint64, amount string) model.RawEvent {
	return model.RawEvent{
		TxHash:      txHash(tx),
		LogIndex:    strconv.FormatUint(uint64(logIndex), 10),
		BlockNumber: strconv.FormatUint(block, 10),
		Timestamp:   strconv.FormatInt(1700000000+int64(block), 10),
		To:          address(1),
		Amount:      amount,
		Actor:       address(9),
	}
}

func rawBurn(tx int, block uint64, amount string) model.RawEvent {
	return model.RawEvent{
		TxHash:      txHash(tx),
		LogIndex:    "0",
		BlockNumber: strconv.FormatUint(block, 10),
		Timestamp:   strconv.FormatInt(1700000000+int64(block), 10),
		From:        address(1),
		Amount:      amount,
		Actor:       address(1),
	}
}

func rawTransfer(tx int, block uint64, from, to int, amount string) model.RawEvent {
	return model.RawEvent{
		TxHash:      txHash(tx),
		LogIndex:    "1",
		BlockNumber: strconv.FormatUint(block, 10),
		Timestamp:   strconv.FormatInt(1700000000+int64(block), 10),
		From:        address(from),
		To:          address(to),
		Amount:      amount,
	}
}

func rawListing(tx int, block uint64, account int) model.RawEvent {
	return model.RawEvent{
		TxHash:      txHash(tx),
		LogIndex:    "2",
		BlockNumber: strconv.FormatUint(block, 10),
		Timestamp:   strconv.FormatInt(1700000000+int64(block), 10),
		Account:     address(account),
		Actor:       address(9),
	}
}

type fetchCall struct {
	category model.Category
	minBlock uint64
}

// fakeFetcher serves fixture events filtered by block number. A category with
// an error configured returns its first partial[category] events and the
// error.
type fakeFetcher struct {
	mu       sync.Mutex
	events   map[model.Category][]model.RawEvent
	errs     map[model.Category]error
	partial  map[model.Category]int
	delay    time.Duration
	calls    []fetchCall
	inFlight map[model.Category]int
	maxInFly map[model.Category]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		events:   make(map[model.Category][]model.RawEvent),
		errs:     make(map[model.Category]error),
		partial:  make(map[model.Category]int),
		inFlight: make(map[model.Category]int),
		maxInFly: make(map[model.Category]int),
	}
}

func (f *fakeFetcher) set(category model.Category, events ...model.RawEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[category] = events
}

func (f *fakeFetcher) fail(category model.Category, err error, partial int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[category] = err
	f.partial[category] = partial
}

func (f *fakeFetcher) heal(category model.Category) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.errs, category)
}

func (f *fakeFetcher) FetchEvents(ctx context.Context, category model.Category, minBlock uint64) ([]model.RawEvent, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{category: category, minBlock: minBlock})
	f.inFlight[category]++
	if f.inFlight[category] > f.maxInFly[category] {
		f.maxInFly[category] = f.inFlight[category]
	}
	delay := f.delay
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight[category]--
		f.mu.Unlock()
	}()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.RawEvent
	for _, ev := range f.events[category] {
		block, err := strconv.ParseUint(strings.TrimSpace(ev.BlockNumber), 10, 64)
		if err != nil || block > minBlock {
			out = append(out, ev)
		}
	}
	if err := f.errs[category]; err != nil {
		n := f.partial[category]
		if n > len(out) {
			n = len(out)
		}
		return out[:n], err
	}
	return out, nil
}

func (f *fakeFetcher) minBlocks(category model.Category) []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []uint64
	for _, c := range f.calls {
		if c.category == category {
			out = append(out, c.minBlock)
		}
	}
	return out
}

func (f *fakeFetcher) maxConcurrent(category model.Category) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFly[category]
}

type raisedAlert struct {
	severity model.Severity
	title    string
}

type fakeAlerter struct {
	mu     sync.Mutex
	raised []raisedAlert
}

func (a *fakeAlerter) Raise(_ context.Context, severity model.Severity, title, _ string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.raised = append(a.raised, raisedAlert{severity: severity, title: title})
}

func (a *fakeAlerter) titles() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.raised))
	for _, r := range a.raised {
		out = append(out, r.title)
	}
	return out
}

type memoryDeadLetter struct {
	mu      sync.Mutex
	records []model.DecodeError
}

func (d *memoryDeadLetter) Put(record model.DecodeError) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append(d.records, record)
	return nil
}
