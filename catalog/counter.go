package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/nasir-hacker-7/power.modz.hub/models"
)

// maxCounterAttempts bounds the optimistic retry loop before degrading.
const maxCounterAttempts = 3

// RecordAccess counts one successful gate pass against the record: the
// lifetime view count goes up by one and the per-day bucket is advanced,
// resetting to 1 together with the stored date whenever the day changed.
//
// The write uses the store's conditional primitive so concurrent callers
// cannot lose increments; on repeated conflicts or store errors it degrades to
// a plain atomic increment of the lifetime count. Under that fallback the day
// bucket may drift — lifetime views favor availability over day-level
// exactness. A missing record is reported as ErrNotFound.
func RecordAccess(ctx context.Context, store Store, id string, now time.Time) error {
	today := now.Format(models.DayFormat)

	var lastErr error
	for attempt := 0; attempt < maxCounterAttempts; attempt++ {
		item, err := store.Get(ctx, id)
		if err != nil {
			return err
		}

		day := int64(1)
		if item.LastDownloadDate == today {
			day = item.DayDownloads + 1
		}

		err = store.CompareAndSwapCounters(ctx, id, item.Views, item.Views+1, day, today)
		if err == nil {
			return nil
		}
		lastErr = err
		if !errors.Is(err, ErrConflict) {
			break
		}
	}

	// Degraded path: keep the lifetime count moving even when the
	// transactional primitive keeps failing.
	if err := store.IncrementViews(ctx, id); err != nil {
		if lastErr != nil {
			return errors.Join(lastErr, err)
		}
		return err
	}
	return nil
}
