package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nasir-hacker-7/power.modz.hub/models"
)

// MemoryStore is an in-process Store used by tests and as a fallback when no
// database is configured. All methods are safe for concurrent use.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]models.ContentItem
}

// NewMemoryStore returns an empty in-memory catalog.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]models.ContentItem{}}
}

func (s *MemoryStore) List(ctx context.Context) ([]models.ContentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]models.ContentItem, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].UploadDate.After(items[j].UploadDate)
	})
	return items, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.ContentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := it
	return &copied, nil
}

func (s *MemoryStore) Create(ctx context.Context, item *models.ContentItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.UploadDate.IsZero() {
		item.UploadDate = now
	}
	if item.LastDownloadDate == "" {
		item.LastDownloadDate = now.Format(models.DayFormat)
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	s.items[item.ID] = *item
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, patch map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	for col, v := range patch {
		switch col {
		case "title":
			it.Title = v.(string)
		case "description":
			it.Description = v.(string)
		case "category":
			it.Category = v.(string)
		case "type":
			it.Type = v.(models.ContentType)
		case "thumbnail_url":
			it.ThumbnailURL = v.(string)
		case "download_url":
			it.DownloadURL = v.(string)
		case "size":
			it.Size = v.(string)
		case "version":
			it.Version = v.(string)
		case "is_visible":
			it.IsVisible = v.(bool)
		}
	}
	it.UpdatedAt = time.Now()
	s.items[id] = it
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryStore) CompareAndSwapCounters(ctx context.Context, id string, expectedViews, views, dayDownloads int64, lastDownloadDate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	if it.Views != expectedViews {
		return ErrConflict
	}
	it.Views = views
	it.DayDownloads = dayDownloads
	it.LastDownloadDate = lastDownloadDate
	it.UpdatedAt = time.Now()
	s.items[id] = it
	return nil
}

func (s *MemoryStore) IncrementViews(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	it.Views++
	it.UpdatedAt = time.Now()
	s.items[id] = it
	return nil
}
