package score

import (
	"context"
	"time"
)

// Follow plays the remaining events into sink in real time, polling now
// every interval until the score is done or ctx is cancelled.
func (c *Cursor) Follow(ctx context.Context, now func() float64, sink Sink, interval time.Duration) error {
	if _, err := c.Advance(now(), sink); err != nil || c.Done() {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			more, err := c.Advance(now(), sink)
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
		}
	}
}
