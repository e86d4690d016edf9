package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/nasir-hacker-7/power.modz.hub/models"
)

// GormStore persists the catalog in MySQL through GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store bound to an initialized gorm DB.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) List(ctx context.Context) ([]models.ContentItem, error) {
	var items []models.ContentItem
	if err := s.db.WithContext(ctx).Order("upload_date DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*models.ContentItem, error) {
	var item models.ContentItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *GormStore) Create(ctx context.Context, item *models.ContentItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *GormStore) Update(ctx context.Context, id string, patch map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.ContentItem{}).Where("id = ?", id).Updates(patch)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing row from a no-op patch.
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.ContentItem{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.ContentItem{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompareAndSwapCounters relies on the WHERE clause for atomicity: the update
// lands only if the lifetime view count is still the one the caller read.
func (s *GormStore) CompareAndSwapCounters(ctx context.Context, id string, expectedViews, views, dayDownloads int64, lastDownloadDate string) error {
	res := s.db.WithContext(ctx).Model(&models.ContentItem{}).
		Where("id = ? AND views = ?", id, expectedViews).
		Updates(map[string]interface{}{
			"views":              views,
			"day_downloads":      dayDownloads,
			"last_download_date": lastDownloadDate,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *GormStore) IncrementViews(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&models.ContentItem{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
