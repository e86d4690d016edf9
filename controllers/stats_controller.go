package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nasir-hacker-7/power.modz.hub/catalog"
	"github.com/nasir-hacker-7/power.modz.hub/models"
	"github.com/nasir-hacker-7/power.modz.hub/utils"
)

// StatsController aggregates catalog counters for the public landing page
// and the admin dashboard.
type StatsController struct {
	store catalog.Store
	db    *gorm.DB
}

// NewStatsController creates a StatsController.
func NewStatsController(store catalog.Store, db *gorm.DB) *StatsController {
	return &StatsController{store: store, db: db}
}

// PublicStats exposes totals over visible items only.
func (s *StatsController) PublicStats(ctx *gin.Context) {
	items, err := s.store.List(ctx.Request.Context())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load stats")
		return
	}

	visible := catalog.FilterVisible(items)
	var totalViews int64
	for _, it := range visible {
		totalViews += it.Views
	}

	utils.Success(ctx, gin.H{
		"total_items": len(visible),
		"total_views": totalViews,
	})
}

// AdminStats exposes the full dashboard counters, hidden items included.
func (s *StatsController) AdminStats(ctx *gin.Context) {
	items, err := s.store.List(ctx.Request.Context())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load stats")
		return
	}

	today := time.Now().Format(models.DayFormat)
	var public, private, newToday int
	var totalViews, todayDownloads int64
	for _, it := range items {
		if it.IsVisible {
			public++
		} else {
			private++
		}
		totalViews += it.Views
		if it.UploadDate.Format(models.DayFormat) == today {
			newToday++
		}
		if it.LastDownloadDate == today {
			todayDownloads += it.DayDownloads
		}
	}

	var userCount int64
	if s.db != nil {
		if err := s.db.Model(&models.User{}).Count(&userCount).Error; err != nil && utils.Sugar != nil {
			utils.Sugar.Warnf("user count failed: %v", err)
		}
	}

	utils.Success(ctx, gin.H{
		"total_items":     len(items),
		"public_items":    public,
		"private_items":   private,
		"total_views":     totalViews,
		"new_items_today": newToday,
		"downloads_today": todayDownloads,
		"users":           userCount,
	})
}
