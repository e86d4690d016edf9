package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nasir-hacker-7/power.modz.hub/models"
	"github.com/nasir-hacker-7/power.modz.hub/utils"
)

// ProfileController serves the singleton site profile.
type ProfileController struct {
	db *gorm.DB
}

// NewProfileController creates a ProfileController.
func NewProfileController(db *gorm.DB) *ProfileController {
	return &ProfileController{db: db}
}

// GetProfile returns the public profile. A missing row or a read failure both
// degrade to an empty profile so the public page always renders.
func (p *ProfileController) GetProfile(ctx *gin.Context) {
	profile := models.ProfileSettings{ID: models.ProfileDocID}
	if err := p.db.Where("id = ?", models.ProfileDocID).First(&profile).Error; err != nil {
		if utils.Sugar != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Sugar.Warnf("profile read failed, serving defaults: %v", err)
		}
		profile = models.ProfileSettings{ID: models.ProfileDocID}
	}
	utils.Success(ctx, profile)
}

// UpdateProfile merges the provided fields into the singleton row,
// creating it on first write. Omitted fields keep their stored values.
func (p *ProfileController) UpdateProfile(ctx *gin.Context) {
	type request struct {
		DisplayName *string `json:"display_name"`
		Bio         *string `json:"bio"`
		AvatarURL   *string `json:"avatar_url"`
		CoverURL    *string `json:"cover_url"`
		TiktokURL   *string `json:"tiktok_url"`
		Email       *string `json:"email"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	profile := models.ProfileSettings{ID: models.ProfileDocID, UpdatedAt: time.Now()}
	columns := []string{"updated_at"}
	set := func(col string, dst *string, v *string, clean func(string) string) {
		if v == nil {
			return
		}
		val := *v
		if clean != nil {
			val = clean(val)
		}
		*dst = val
		columns = append(columns, col)
	}
	set("display_name", &profile.DisplayName, req.DisplayName, utils.SanitizeText)
	set("bio", &profile.Bio, req.Bio, utils.Sanitize)
	set("avatar_url", &profile.AvatarURL, req.AvatarURL, nil)
	set("cover_url", &profile.CoverURL, req.CoverURL, nil)
	set("tiktok_url", &profile.TiktokURL, req.TiktokURL, nil)
	set("email", &profile.Email, req.Email, nil)

	err := p.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&profile).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to save profile")
		return
	}

	var saved models.ProfileSettings
	if err := p.db.Where("id = ?", models.ProfileDocID).First(&saved).Error; err != nil {
		saved = profile
	}
	utils.Success(ctx, saved)
}
