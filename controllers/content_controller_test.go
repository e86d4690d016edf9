package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasir-hacker-7/power.modz.hub/catalog"
	"github.com/nasir-hacker-7/power.modz.hub/config"
	"github.com/nasir-hacker-7/power.modz.hub/middleware"
	"github.com/nasir-hacker-7/power.modz.hub/models"
	"github.com/nasir-hacker-7/power.modz.hub/utils"
)

func TestMain(m *testing.M) {
	config.SetForTesting(config.AppConfig{
		JWTSecret:            "test-secret",
		AdminEmail:           "powerxdeveloper@gmail.com",
		AdminHandle:          "powerxtream",
		AdminPassword:        "hub-secret",
		DownloadDelaySeconds: 10,
		RateLimitPerMinute:   1000,
		LogLevel:             "error",
	})
	if err := utils.InitLogger(config.Get()); err != nil {
		panic(err)
	}
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestRouter(store catalog.Store) *gin.Engine {
	cc := NewContentController(store, catalog.NewBroker())

	r := gin.New()
	api := r.Group("/api/v1")
	api.GET("/content", cc.ListContent)
	api.GET("/content/:id", cc.GetContent)
	api.POST("/content/:id/download", middleware.AuthOptional(), cc.Download)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	admin.POST("/content", cc.CreateContent)
	admin.PUT("/content/:id", cc.UpdateContent)
	admin.DELETE("/content/:id", cc.DeleteContent)
	return r
}

func seedContent(t *testing.T, store catalog.Store, item models.ContentItem) string {
	t.Helper()
	require.NoError(t, store.Create(context.Background(), &item))
	return item.ID
}

func doRequest(r *gin.Engine, method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (int, map[string]any) {
	t.Helper()
	var env struct {
		Code int            `json:"code"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Code, env.Data
}

func userToken(t *testing.T) string {
	t.Helper()
	token, err := utils.GenerateToken(7, "Someone", "someone@example.com", time.Hour)
	require.NoError(t, err)
	return token
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := utils.GenerateToken(1, "Dev", config.Get().AdminEmail, time.Hour)
	require.NoError(t, err)
	return token
}

func TestListContentHidesInvisibleItems(t *testing.T) {
	store := catalog.NewMemoryStore()
	seedContent(t, store, models.ContentItem{Title: "public", IsVisible: true})
	hiddenID := seedContent(t, store, models.ContentItem{Title: "hidden", IsVisible: false})
	r := newTestRouter(store)

	w := doRequest(r, http.MethodGet, "/api/v1/content?search=idden", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decodeEnvelope(t, w)
	assert.EqualValues(t, 0, data["total"], "hidden items never appear in listings")

	// Direct fetch by identity still works for hidden records.
	w = doRequest(r, http.MethodGet, "/api/v1/content/"+hiddenID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, data = decodeEnvelope(t, w)
	item := data["item"].(map[string]any)
	assert.Equal(t, "hidden", item["title"])
	assert.EqualValues(t, 10, data["countdown_seconds"])
}

func TestListContentCategoryFilter(t *testing.T) {
	store := catalog.NewMemoryStore()
	seedContent(t, store, models.ContentItem{Title: "a", Category: "Games", Type: models.TypeApp, IsVisible: true})
	seedContent(t, store, models.ContentItem{Title: "b", Category: "Tools", Type: models.TypeZip, IsVisible: true})
	r := newTestRouter(store)

	w := doRequest(r, http.MethodGet, "/api/v1/content?category=games", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decodeEnvelope(t, w)
	assert.EqualValues(t, 1, data["total"])

	w = doRequest(r, http.MethodGet, "/api/v1/content?category=All", "", nil)
	_, data = decodeEnvelope(t, w)
	assert.EqualValues(t, 2, data["total"], "the All pseudo-category matches everything")
}

func TestGetContentUnknownID(t *testing.T) {
	r := newTestRouter(catalog.NewMemoryStore())
	w := doRequest(r, http.MethodGet, "/api/v1/content/nope", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	code, _ := decodeEnvelope(t, w)
	assert.Equal(t, 40401, code)
}

func TestDownloadGateRedirectsAnonymous(t *testing.T) {
	store := catalog.NewMemoryStore()
	id := seedContent(t, store, models.ContentItem{Title: "pkg", IsVisible: true, DownloadURL: "https://cdn.example.com/pkg.zip"})
	r := newTestRouter(store)

	w := doRequest(r, http.MethodPost, "/api/v1/content/"+id+"/download", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	code, data := decodeEnvelope(t, w)
	assert.Equal(t, 40110, code)
	assert.Equal(t, "/login", data["redirect"])
	assert.Equal(t, "/view/"+id, data["from"], "the intended destination must survive the redirect")

	// The gate pass never happened, so nothing was counted.
	item, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 0, item.Views)
}

func TestDownloadPermitsAnyAuthenticatedUser(t *testing.T) {
	store := catalog.NewMemoryStore()
	now := time.Now()
	id := seedContent(t, store, models.ContentItem{
		Title:            "pkg",
		IsVisible:        true,
		DownloadURL:      "https://cdn.example.com/pkg.zip",
		Views:            3,
		DayDownloads:     1,
		LastDownloadDate: now.Format(models.DayFormat),
	})
	r := newTestRouter(store)

	w := doRequest(r, http.MethodPost, "/api/v1/content/"+id+"/download", userToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decodeEnvelope(t, w)
	assert.Equal(t, "https://cdn.example.com/pkg.zip", data["download_url"])
	assert.EqualValues(t, 10, data["countdown_seconds"])

	item, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 4, item.Views)
	assert.EqualValues(t, 2, item.DayDownloads)
}

// downCounterStore fails every counter write path while leaving reads intact.
type downCounterStore struct {
	*catalog.MemoryStore
}

func (s *downCounterStore) CompareAndSwapCounters(ctx context.Context, id string, expectedViews, views, dayDownloads int64, lastDownloadDate string) error {
	return errors.New("counter storage unavailable")
}

func (s *downCounterStore) IncrementViews(ctx context.Context, id string) error {
	return errors.New("counter storage unavailable")
}

func TestDownloadSucceedsWhenCountingFails(t *testing.T) {
	inner := catalog.NewMemoryStore()
	id := seedContent(t, inner, models.ContentItem{
		Title:       "pkg",
		IsVisible:   true,
		DownloadURL: "https://cdn.example.com/pkg.zip",
		Views:       3,
	})
	r := newTestRouter(&downCounterStore{MemoryStore: inner})

	w := doRequest(r, http.MethodPost, "/api/v1/content/"+id+"/download", userToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code, "a counting failure must never block the download")
	_, data := decodeEnvelope(t, w)
	assert.Equal(t, "https://cdn.example.com/pkg.zip", data["download_url"])

	item, err := inner.Get(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 3, item.Views, "nothing was counted")
}

func TestDownloadHiddenItemStillPermitted(t *testing.T) {
	store := catalog.NewMemoryStore()
	id := seedContent(t, store, models.ContentItem{Title: "pkg", IsVisible: false, DownloadURL: "u"})
	r := newTestRouter(store)

	w := doRequest(r, http.MethodPost, "/api/v1/content/"+id+"/download", userToken(t), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDownloadConcurrentCounts(t *testing.T) {
	store := catalog.NewMemoryStore()
	now := time.Now()
	id := seedContent(t, store, models.ContentItem{
		Title:            "pkg",
		IsVisible:        true,
		DownloadURL:      "u",
		Views:            5,
		LastDownloadDate: now.Format(models.DayFormat),
	})
	r := newTestRouter(store)
	token := userToken(t)

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = doRequest(r, http.MethodPost, "/api/v1/content/"+id+"/download", token, nil).Code
		}(i)
	}
	wg.Wait()

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])

	item, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 7, item.Views, "concurrent downloads must not lose increments")
}

func TestAdminGuard(t *testing.T) {
	store := catalog.NewMemoryStore()
	r := newTestRouter(store)
	body := []byte(`{"title":"x","type":"App","download_url":"u"}`)

	w := doRequest(r, http.MethodPost, "/api/v1/admin/content", "", body)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	code, _ := decodeEnvelope(t, w)
	assert.Equal(t, 40101, code)

	w = doRequest(r, http.MethodPost, "/api/v1/admin/content", userToken(t), body)
	require.Equal(t, http.StatusForbidden, w.Code)
	code, _ = decodeEnvelope(t, w)
	assert.Equal(t, 40301, code)
}

func TestAdminCreateUpdateDelete(t *testing.T) {
	store := catalog.NewMemoryStore()
	r := newTestRouter(store)
	token := adminToken(t)

	w := doRequest(r, http.MethodPost, "/api/v1/admin/content", token,
		[]byte(`{"title":"New Mod","type":"Zip","download_url":"https://cdn/x.zip","category":"Tools"}`))
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decodeEnvelope(t, w)
	item := data["item"].(map[string]any)
	id := item["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, true, item["is_visible"], "visibility defaults to true")

	w = doRequest(r, http.MethodPut, "/api/v1/admin/content/"+id, token, []byte(`{"is_visible":false}`))
	require.Equal(t, http.StatusOK, w.Code)
	stored, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, stored.IsVisible)
	assert.Equal(t, "New Mod", stored.Title, "patch leaves omitted fields alone")

	w = doRequest(r, http.MethodPut, "/api/v1/admin/content/"+id, token, []byte(`{"type":"Bogus"}`))
	require.Equal(t, http.StatusBadRequest, w.Code)
	code, _ := decodeEnvelope(t, w)
	assert.Equal(t, 40026, code)

	w = doRequest(r, http.MethodDelete, "/api/v1/admin/content/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, err = store.Get(context.Background(), id)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestAdminCreateSanitizesTitle(t *testing.T) {
	store := catalog.NewMemoryStore()
	r := newTestRouter(store)

	w := doRequest(r, http.MethodPost, "/api/v1/admin/content", adminToken(t),
		[]byte(`{"title":"<script>alert(1)</script>","type":"App","download_url":"u"}`))
	require.Equal(t, http.StatusBadRequest, w.Code)
	code, _ := decodeEnvelope(t, w)
	assert.Equal(t, 40021, code, "a title that sanitizes to nothing is rejected")
}
