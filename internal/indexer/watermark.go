package indexer

import "sync/atomic"

// Watermark is the highest block whose events are durably persisted. It
// only ever moves forward.
type Watermark struct {
	block atomic.Uint64
}

func NewWatermark(initial uint64) *Watermark {
	w := &Watermark{}
	w.block.Store(initial)
	return w
}

func (w *Watermark) Load() uint64 {
	return w.block.Load()
}

// Advance raises the watermark to block if block is higher and reports
// whether it moved.
func (w *Watermark) Advance(block uint64) bool {
	for {
		current := w.block.Load()
		if block <= current {
			return false
		}
		if w.block.CompareAndSwap(current, block) {
			return true
		}
	}
}
