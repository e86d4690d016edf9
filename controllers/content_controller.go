package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nasir-hacker-7/power.modz.hub/catalog"
	"github.com/nasir-hacker-7/power.modz.hub/config"
	"github.com/nasir-hacker-7/power.modz.hub/middleware"
	"github.com/nasir-hacker-7/power.modz.hub/models"
	"github.com/nasir-hacker-7/power.modz.hub/utils"
)

// ContentController serves the public catalog surfaces and the admin CRUD,
// and runs the access gate in front of downloads.
type ContentController struct {
	store  catalog.Store
	broker *catalog.Broker
}

// NewContentController creates a controller over the given catalog store.
func NewContentController(store catalog.Store, broker *catalog.Broker) *ContentController {
	return &ContentController{store: store, broker: broker}
}

// ListContent returns the public listing: visibility-filtered, upload date
// descending, optionally narrowed by category or a search term.
func (cc *ContentController) ListContent(ctx *gin.Context) {
	search := strings.TrimSpace(ctx.Query("search"))
	category := strings.TrimSpace(ctx.Query("category"))

	// Cache only the unfiltered listing to avoid cache key explosion.
	cacheKey := "cache:content:list"
	if search == "" && category == "" {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	items, err := cc.store.List(ctx.Request.Context())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list content")
		return
	}

	visible := catalog.FilterVisible(items)
	if category != "" && !strings.EqualFold(category, "All") {
		filtered := visible[:0]
		for _, it := range visible {
			if strings.EqualFold(it.Category, category) || strings.EqualFold(string(it.Type), category) {
				filtered = append(filtered, it)
			}
		}
		visible = filtered
	}
	if search != "" {
		term := strings.ToLower(search)
		filtered := make([]models.ContentItem, 0, len(visible))
		for _, it := range visible {
			if strings.Contains(strings.ToLower(it.Title), term) ||
				strings.Contains(strings.ToLower(it.Description), term) ||
				strings.Contains(strings.ToLower(it.Category), term) {
				filtered = append(filtered, it)
			}
		}
		visible = filtered
	}

	payload := gin.H{"items": visible, "total": len(visible)}
	if search == "" && category == "" {
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
		utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	}
	utils.Success(ctx, payload)
}

// LiveContent streams visibility-filtered catalog snapshots over SSE until
// the client disconnects.
func (cc *ContentController) LiveContent(ctx *gin.Context) {
	ch, cancel := cc.broker.Subscribe()
	defer cancel()

	ctx.Writer.Header().Set("Cache-Control", "no-cache")
	ctx.Writer.Header().Set("Connection", "keep-alive")

	// Seed the stream so subscribers do not wait for the first mutation.
	if items, err := cc.store.List(ctx.Request.Context()); err == nil {
		ctx.SSEvent("content", catalog.FilterVisible(items))
		ctx.Writer.Flush()
	}

	ctx.Stream(func(w io.Writer) bool {
		select {
		case items, ok := <-ch:
			if !ok {
				return false
			}
			ctx.SSEvent("content", catalog.FilterVisible(items))
			return true
		case <-ctx.Request.Context().Done():
			return false
		}
	})
}

// GetContent returns a single record by identity. The visibility filter does
// not apply here: hidden records stay reachable for callers that already hold
// the key.
func (cc *ContentController) GetContent(ctx *gin.Context) {
	item, err := cc.store.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		// Read failures degrade to not-found rather than surfacing storage errors.
		if !errors.Is(err, catalog.ErrNotFound) {
			utils.Sugar.Warnf("content fetch failed id=%s err=%v", ctx.Param("id"), err)
		}
		utils.Error(ctx, http.StatusNotFound, 40401, "content not found")
		return
	}
	utils.Success(ctx, gin.H{
		"item":              item,
		"countdown_seconds": config.Get().DownloadDelaySeconds,
	})
}

// Download is the access gate. Anonymous callers are redirected to sign-in
// with the intended destination preserved; any authenticated identity passes,
// admin or not. The counter update is best-effort and never blocks the
// download itself.
func (cc *ContentController) Download(ctx *gin.Context) {
	id := ctx.Param("id")

	if _, ok := middleware.SessionFromContext(ctx); !ok {
		utils.Respond(ctx, http.StatusUnauthorized, 40110, "sign in to download", gin.H{
			"redirect": "/login",
			"from":     "/view/" + id,
		})
		return
	}

	item, err := cc.store.Get(ctx.Request.Context(), id)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "content not found")
		return
	}

	if err := catalog.RecordAccess(ctx.Request.Context(), cc.store, id, time.Now()); err != nil {
		utils.Sugar.Warnf("download count failed id=%s err=%v", id, err)
	} else {
		utils.InvalidateByPrefix("cache:content:list")
		cc.publishSnapshot(ctx)
	}

	utils.Success(ctx, gin.H{
		"download_url":      item.DownloadURL,
		"countdown_seconds": config.Get().DownloadDelaySeconds,
	})
}

// ReleaseCountdown streams the per-view download countdown over SSE: one tick
// per second, then a ready event once the delay elapses. Disconnecting tears
// the pending timer down. The countdown is presentation only; the download
// URL itself stays behind the access gate.
func (cc *ContentController) ReleaseCountdown(ctx *gin.Context) {
	id := ctx.Param("id")
	if _, err := cc.store.Get(ctx.Request.Context(), id); err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "content not found")
		return
	}

	delay := time.Duration(config.Get().DownloadDelaySeconds) * time.Second
	gate := catalog.NewReleaseGate(delay)
	defer gate.Cancel()

	ctx.Writer.Header().Set("Cache-Control", "no-cache")

	remaining := int(delay / time.Second)
	ctx.SSEvent("tick", gin.H{"remaining": remaining})
	ctx.Writer.Flush()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	ctx.Stream(func(w io.Writer) bool {
		select {
		case <-gate.Ready():
			ctx.SSEvent("ready", gin.H{"remaining": 0})
			return false
		case <-ticker.C:
			if remaining > 0 {
				remaining--
			}
			ctx.SSEvent("tick", gin.H{"remaining": remaining})
			return true
		case <-ctx.Request.Context().Done():
			return false
		}
	})
}

type contentRequest struct {
	Title        string `json:"title" binding:"required,min=1"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Type         string `json:"type" binding:"required"`
	ThumbnailURL string `json:"thumbnail_url"`
	DownloadURL  string `json:"download_url" binding:"required"`
	Size         string `json:"size"`
	Version      string `json:"version"`
	IsVisible    *bool  `json:"is_visible"`
}

// CreateContent allows the admin to add a catalog record.
func (cc *ContentController) CreateContent(ctx *gin.Context) {
	var req contentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := utils.SanitizeText(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}
	contentType := models.ContentType(req.Type)
	if !models.ValidContentType(contentType) {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid content type")
		return
	}

	item := models.ContentItem{
		Title:        title,
		Description:  utils.Sanitize(req.Description),
		Category:     utils.SanitizeText(strings.TrimSpace(req.Category)),
		Type:         contentType,
		ThumbnailURL: strings.TrimSpace(req.ThumbnailURL),
		DownloadURL:  strings.TrimSpace(req.DownloadURL),
		Size:         strings.TrimSpace(req.Size),
		Version:      strings.TrimSpace(req.Version),
		IsVisible:    req.IsVisible == nil || *req.IsVisible,
	}

	if err := cc.store.Create(ctx.Request.Context(), &item); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create content")
		return
	}

	utils.InvalidateByPrefix("cache:content:list")
	cc.publishSnapshot(ctx)
	utils.Success(ctx, gin.H{"item": item})
}

type contentPatchRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	Type         *string `json:"type"`
	ThumbnailURL *string `json:"thumbnail_url"`
	DownloadURL  *string `json:"download_url"`
	Size         *string `json:"size"`
	Version      *string `json:"version"`
	IsVisible    *bool   `json:"is_visible"`
}

// UpdateContent applies a partial admin edit. Counter fields are not
// editable through this path.
func (cc *ContentController) UpdateContent(ctx *gin.Context) {
	var req contentPatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	patch := map[string]interface{}{}
	if req.Title != nil {
		title := utils.SanitizeText(strings.TrimSpace(*req.Title))
		if title == "" {
			utils.Error(ctx, http.StatusBadRequest, 40025, "title cannot be empty")
			return
		}
		patch["title"] = title
	}
	if req.Description != nil {
		patch["description"] = utils.Sanitize(*req.Description)
	}
	if req.Category != nil {
		patch["category"] = utils.SanitizeText(strings.TrimSpace(*req.Category))
	}
	if req.Type != nil {
		contentType := models.ContentType(*req.Type)
		if !models.ValidContentType(contentType) {
			utils.Error(ctx, http.StatusBadRequest, 40026, "invalid content type")
			return
		}
		patch["type"] = contentType
	}
	if req.ThumbnailURL != nil {
		patch["thumbnail_url"] = strings.TrimSpace(*req.ThumbnailURL)
	}
	if req.DownloadURL != nil {
		patch["download_url"] = strings.TrimSpace(*req.DownloadURL)
	}
	if req.Size != nil {
		patch["size"] = strings.TrimSpace(*req.Size)
	}
	if req.Version != nil {
		patch["version"] = strings.TrimSpace(*req.Version)
	}
	if req.IsVisible != nil {
		patch["is_visible"] = *req.IsVisible
	}
	if len(patch) == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40027, "empty patch")
		return
	}

	id := ctx.Param("id")
	if err := cc.store.Update(ctx.Request.Context(), id, patch); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "content not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to update content")
		return
	}

	utils.InvalidateByPrefix("cache:content:list")
	cc.publishSnapshot(ctx)

	item, err := cc.store.Get(ctx.Request.Context(), id)
	if err != nil {
		utils.Success(ctx, gin.H{"message": "content updated"})
		return
	}
	utils.Success(ctx, gin.H{"item": item})
}

// DeleteContent removes a record permanently.
func (cc *ContentController) DeleteContent(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := cc.store.Delete(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "content not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to delete content")
		return
	}

	utils.InvalidateByPrefix("cache:content:list")
	cc.publishSnapshot(ctx)
	utils.Success(ctx, gin.H{"message": fmt.Sprintf("content %s deleted", id)})
}

// publishSnapshot refreshes the live subscription feed after a mutation.
func (cc *ContentController) publishSnapshot(ctx *gin.Context) {
	items, err := cc.store.List(ctx.Request.Context())
	if err != nil {
		utils.Sugar.Warnf("snapshot refresh failed: %v", err)
		return
	}
	cc.broker.Publish(items)
}
