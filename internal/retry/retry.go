package retry

import (
	"context"
	"errors"
	"time"
)

// MaxDelay caps the backoff between two attempts.
const MaxDelay = 30 * time.Second

type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// Terminal marks err so that Do returns it without further attempts.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &terminalError{err: err}
}

// IsTerminal reports whether retrying err cannot help.
func IsTerminal(err error) bool {
	var t *terminalError
	return errors.As(err, &t) || errors.Is(err, context.Canceled)
}

// Do calls fn until it succeeds, returns a terminal error, or maxRetries
// further attempts have failed. Backoff starts at baseDelay and doubles up to
// MaxDelay. Cancelling ctx stops the wait and returns ctx.Err().
func Do(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	maxRetries = max(maxRetries, 0)
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		switch {
		case err == nil:
			return nil
		case IsTerminal(err), attempt >= maxRetries:
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, MaxDelay)
	}
}
