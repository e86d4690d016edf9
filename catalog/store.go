// Package catalog implements the content catalog: the store contract, the
// visibility filter for public surfaces, the download counter with its
// optimistic-concurrency protocol, live subscriptions, and the timed-release
// gate for the download view.
package catalog

import (
	"context"
	"errors"

	"github.com/nasir-hacker-7/power.modz.hub/models"
)

var (
	// ErrNotFound is returned when a record id does not exist.
	ErrNotFound = errors.New("catalog: record not found")
	// ErrConflict is returned by CompareAndSwapCounters when the read
	// snapshot went stale before the write landed.
	ErrConflict = errors.New("catalog: stale counter snapshot")
)

// Store is the catalog persistence contract. List returns records ordered by
// upload date descending; Get does not apply the visibility filter — hidden
// records stay reachable by identity, visibility only controls listing
// inclusion.
type Store interface {
	List(ctx context.Context) ([]models.ContentItem, error)
	Get(ctx context.Context, id string) (*models.ContentItem, error)
	// Create assigns the identity and seeds counter defaults per the record lifecycle.
	Create(ctx context.Context, item *models.ContentItem) error
	// Update applies a partial patch of column -> value.
	Update(ctx context.Context, id string, patch map[string]interface{}) error
	Delete(ctx context.Context, id string) error

	// CompareAndSwapCounters writes the three counter fields atomically,
	// failing with ErrConflict unless the stored lifetime view count still
	// equals expectedViews. Views is monotonic, so it doubles as the
	// snapshot version.
	CompareAndSwapCounters(ctx context.Context, id string, expectedViews, views, dayDownloads int64, lastDownloadDate string) error
	// IncrementViews is the degraded non-transactional path: bump the
	// lifetime count by one without touching the day bucket.
	IncrementViews(ctx context.Context, id string) error
}
