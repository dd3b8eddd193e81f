package journal

import (
	"context"
	"time"
)

// Follow hands every log matching f to fn in chain order, then polls for
// newer ones every interval until ctx is cancelled. f.Limit is ignored.
func (j *DB) Follow(ctx context.Context, f Filter, interval time.Duration, fn func(Entry)) error {
	f.Limit = 0
	poll := func() error {
		entries, err := j.Logs(f)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fn(e)
			f.FromBlock = e.BlockNumber + 1
		}
		return nil
	}

	if err := poll(); err != nil {
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := poll(); err != nil {
				return err
			}
		}
	}
}
