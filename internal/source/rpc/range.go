package rpc

import "fmt"

// blockSpan is an inclusive range of blocks queried with one eth_getLogs call.
type blockSpan struct {
	From uint64
	To   uint64
}

func (s blockSpan) String() string {
	return fmt.Sprintf("%d-%d", s.From, s.To)
}

// spans cuts [from, to] into consecutive spans of at most size blocks.
func spans(from, to, size uint64) ([]blockSpan, error) {
	if size == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("block range %d-%d is empty", from, to)
	}

	out := make([]blockSpan, 0, (to-from)/size+1)
	for start := from; ; start += size {
		end := to
		if to-start >= size {
			end = start + size - 1
		}
		out = append(out, blockSpan{From: start, To: end})
		if end == to {
			return out, nil
		}
	}
}
