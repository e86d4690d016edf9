package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nasir-hacker-7/power.modz.hub/catalog"
	"github.com/nasir-hacker-7/power.modz.hub/config"
	"github.com/nasir-hacker-7/power.modz.hub/middleware"
	"github.com/nasir-hacker-7/power.modz.hub/models"
)

func newAuthRouter(store catalog.Store) *gin.Engine {
	ac := NewAuthController(nil)
	cc := NewContentController(store, catalog.NewBroker())

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/auth/admin/login", ac.AdminLogin)
	api.POST("/auth/logout", middleware.AuthRequired(), ac.Logout)
	api.GET("/auth/me", middleware.AuthRequired(), ac.Me)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	admin.DELETE("/content/:id", cc.DeleteContent)
	return r
}

func manualLogin(t *testing.T, r *gin.Engine, username, password string) (string, int) {
	t.Helper()
	body := []byte(fmt.Sprintf(`{"username":%q,"password":%q}`, username, password))
	w := doRequest(r, http.MethodPost, "/api/v1/auth/admin/login", "", body)
	if w.Code != http.StatusOK {
		code, _ := decodeEnvelope(t, w)
		return "", code
	}
	_, data := decodeEnvelope(t, w)
	return data["token"].(string), 0
}

func TestAdminLoginManualBypass(t *testing.T) {
	store := catalog.NewMemoryStore()
	id := seedContent(t, store, models.ContentItem{Title: "pkg", IsVisible: true, DownloadURL: "u"})
	r := newAuthRouter(store)

	token, _ := manualLogin(t, r, "powerxtream", "hub-secret")
	require.NotEmpty(t, token)

	// The manual token carries full admin rights with no backend account.
	w := doRequest(r, http.MethodDelete, "/api/v1/admin/content/"+id, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminLoginRejectsBadCredential(t *testing.T) {
	r := newAuthRouter(catalog.NewMemoryStore())

	token, code := manualLogin(t, r, "powerxtream", "wrong")
	assert.Empty(t, token)
	assert.Equal(t, 40106, code)

	token, code = manualLogin(t, r, "someone", "hub-secret")
	assert.Empty(t, token)
	assert.Equal(t, 40106, code)
}

func TestAdminLoginDisabledWithoutCredential(t *testing.T) {
	saved := config.Get()
	cfg := saved
	cfg.AdminPassword = ""
	config.SetForTesting(cfg)
	defer config.SetForTesting(saved)

	r := newAuthRouter(catalog.NewMemoryStore())
	token, code := manualLogin(t, r, "powerxtream", "")
	assert.Empty(t, token)
	assert.Equal(t, 40122, code)
}

func TestLogoutRevokesManualSession(t *testing.T) {
	store := catalog.NewMemoryStore()
	id := seedContent(t, store, models.ContentItem{Title: "pkg", IsVisible: true, DownloadURL: "u"})
	r := newAuthRouter(store)

	token, _ := manualLogin(t, r, "powerxtream", "hub-secret")
	require.NotEmpty(t, token)

	w := doRequest(r, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The revoked token must not reach the admin surface anymore.
	w = doRequest(r, http.MethodDelete, "/api/v1/admin/content/"+id, token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	code, _ := decodeEnvelope(t, w)
	assert.Equal(t, 40104, code)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicateKey(fmt.Errorf("create user: %w", gorm.ErrDuplicatedKey)))
	assert.False(t, isDuplicateKey(gorm.ErrRecordNotFound))
	assert.False(t, isDuplicateKey(nil))
}

func TestMeResolvesSession(t *testing.T) {
	r := newAuthRouter(catalog.NewMemoryStore())

	w := doRequest(r, http.MethodGet, "/api/v1/auth/me", userToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decodeEnvelope(t, w)
	session := data["session"].(map[string]any)
	assert.Equal(t, true, session["authenticated"])
	assert.Equal(t, "Someone", session["username"])
	assert.Equal(t, "user", session["role"])
}
