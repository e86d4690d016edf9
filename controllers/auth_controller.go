package controllers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/nasir-hacker-7/power.modz.hub/config"
	"github.com/nasir-hacker-7/power.modz.hub/middleware"
	"github.com/nasir-hacker-7/power.modz.hub/models"
	"github.com/nasir-hacker-7/power.modz.hub/utils"
)

const sessionTokenTTL = 72 * time.Hour

// AuthController is the identity provider surface: local credentials, the
// Google federated flow, and the legacy manual admin bypass.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Register creates a local credential with a display name.
func (a *AuthController) Register(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required,min=2,max=64"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	if len(req.Password) < 6 {
		utils.Error(ctx, http.StatusBadRequest, 40002, "password should be at least 6 characters")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var existing models.User
	if err := a.db.Where("email = ?", email).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40901, "email is already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Username:     utils.SanitizeText(strings.TrimSpace(req.Username)),
		Email:        email,
		PasswordHash: hash,
	}
	if err := a.db.Create(&user).Error; err != nil {
		// A concurrent registration can slip past the pre-read and land on
		// the unique email index instead.
		if isDuplicateKey(err) {
			utils.Error(ctx, http.StatusConflict, 40901, "email is already registered")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}

	a.issueSession(ctx, &user)
}

// isDuplicateKey reports whether err is a unique-constraint violation, as
// translated by gorm's TranslateError.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// Login signs a local credential in.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}

	a.issueSession(ctx, &user)
}

// AdminLogin is the legacy manual bypass: the operator credential is compared
// locally, no identity-provider call is made, and success sets the durable
// manual session flag synchronously.
func (a *AuthController) AdminLogin(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid request payload")
		return
	}

	cfg := config.Get()
	if cfg.AdminPassword == "" {
		utils.Error(ctx, http.StatusForbidden, 40122, "manual sign-in is not enabled")
		return
	}
	handleOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(cfg.AdminHandle)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(cfg.AdminPassword)) == 1
	if !handleOK || !passOK {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	token, jti, err := utils.GenerateManualAdminToken(sessionTokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	utils.SetManualSession(jti, sessionTokenTTL)

	utils.Success(ctx, gin.H{
		"token":   token,
		"session": models.ResolveSession(true, nil, cfg.AdminEmail, cfg.AdminHandle),
	})
}

// Logout revokes the presented token and clears the manual session flag. The
// local effect is unconditional: even when Redis or the provider is
// unreachable the caller ends up signed out.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}
	token := strings.TrimSpace(parts[1])

	expiresAt := time.Now().Add(sessionTokenTTL)
	if claims, err := utils.ParseToken(token); err == nil {
		if claims.RegisteredClaims.ExpiresAt != nil {
			expiresAt = claims.RegisteredClaims.ExpiresAt.Time
		}
		utils.ClearManualSession(claims.ID)
	}
	utils.BlacklistToken(token, expiresAt)

	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the resolved session for the presented token.
func (a *AuthController) Me(ctx *gin.Context) {
	session, _ := middleware.SessionFromContext(ctx)
	utils.Success(ctx, gin.H{"session": session})
}

// SessionLive streams session state changes over SSE. Each connection owns a
// tracker fed from the token's two credential sources; revocation or a
// cleared manual flag shows up as a pushed state change. The subscription is
// torn down when the client disconnects.
func (a *AuthController) SessionLive(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}
	tokenString := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	cfg := config.Get()
	tracker := models.NewSessionTracker(cfg.AdminEmail, cfg.AdminHandle)

	updates := make(chan models.Session, 1)
	cancel := tracker.Subscribe(func(s models.Session) {
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- s:
		default:
		}
	})
	defer cancel()

	var id *models.ProviderIdentity
	if claims.UserID != 0 {
		id = &models.ProviderIdentity{Email: claims.Email, DisplayName: claims.Username}
	}
	tracker.SetManual(claims.ManualAdmin && utils.ManualSessionActive(claims.ID))
	tracker.ObserveProvider(id)

	ctx.Writer.Header().Set("Cache-Control", "no-cache")
	ctx.SSEvent("session", tracker.Current())
	ctx.Writer.Flush()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	ctx.Stream(func(w io.Writer) bool {
		select {
		case s := <-updates:
			ctx.SSEvent("session", s)
			return true
		case <-ticker.C:
			if utils.IsTokenBlacklisted(tokenString) {
				tracker.Logout()
			} else {
				tracker.SetManual(claims.ManualAdmin && utils.ManualSessionActive(claims.ID))
			}
			return true
		case <-ctx.Request.Context().Done():
			return false
		}
	})
}

// OAuthRedirect starts the Google federated flow.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	conf, err := a.oauthConfig()
	if err != nil {
		utils.Error(ctx, http.StatusForbidden, 40122, "sign-in method not enabled")
		return
	}

	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)
	ctx.Redirect(http.StatusFound, conf.AuthCodeURL(state))
}

// OAuthCallback completes the Google flow: exchanges the code, loads the
// remote identity, and signs the matching local account in (creating it on
// first sight).
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	if errCode := ctx.Query("error"); errCode != "" {
		// The user backed out of the interactive flow.
		utils.Error(ctx, http.StatusBadRequest, 40120, "sign-in cancelled")
		return
	}
	if !utils.ConsumeState(ctx.Query("state")) {
		utils.Error(ctx, http.StatusBadRequest, 40121, "unauthorized sign-in origin")
		return
	}

	conf, err := a.oauthConfig()
	if err != nil {
		utils.Error(ctx, http.StatusForbidden, 40122, "sign-in method not enabled")
		return
	}

	token, err := conf.Exchange(ctx.Request.Context(), ctx.Query("code"))
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40123, "failed to exchange authorization code")
		return
	}

	remote, err := fetchGoogleUser(ctx.Request.Context(), conf, token)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to load provider profile")
		return
	}

	user, err := a.findOrCreateOAuthUser(remote)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to resolve account")
		return
	}

	sessionToken, err := utils.GenerateToken(user.ID, user.Username, user.Email, sessionTokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	// Hand the token back to the SPA via fragment so it never hits access logs.
	ctx.Redirect(http.StatusFound, config.Get().OAuthRedirectBase+"/login#token="+sessionToken)
}

type oauthUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (a *AuthController) oauthConfig() (*oauth2.Config, error) {
	cfg := config.Get()
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil, errors.New("google oauth not configured")
	}
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.OAuthRedirectBase + "/api/v1/auth/oauth/google/callback",
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}, nil
}

func fetchGoogleUser(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*oauthUser, error) {
	client := conf.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode)
	}

	var data oauthUser
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	if data.Email == "" {
		return nil, errors.New("provider returned no email")
	}
	return &data, nil
}

func (a *AuthController) findOrCreateOAuthUser(remote *oauthUser) (*models.User, error) {
	var user models.User
	err := a.db.Where("provider = ? AND provider_id = ?", "google", remote.ID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	email := strings.ToLower(remote.Email)
	err = a.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		// Link the federated identity to the existing local account.
		user.Provider = "google"
		user.ProviderID = remote.ID
		if user.AvatarURL == "" {
			user.AvatarURL = remote.Picture
		}
		if saveErr := a.db.Save(&user).Error; saveErr != nil {
			return nil, saveErr
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	username := strings.TrimSpace(remote.Name)
	if username == "" {
		username = email
	}
	user = models.User{
		Username:   utils.SanitizeText(username),
		Email:      email,
		Provider:   "google",
		ProviderID: remote.ID,
		AvatarURL:  remote.Picture,
	}
	if err := a.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// issueSession signs a token for a provider account and returns it with the
// resolved session.
func (a *AuthController) issueSession(ctx *gin.Context, user *models.User) {
	token, err := utils.GenerateToken(user.ID, user.Username, user.Email, sessionTokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	cfg := config.Get()
	session := models.ResolveSession(false, &models.ProviderIdentity{
		Email:       user.Email,
		DisplayName: user.Username,
	}, cfg.AdminEmail, cfg.AdminHandle)

	utils.Success(ctx, gin.H{
		"token":   token,
		"session": session,
		"user": gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"email":      user.Email,
			"avatar_url": user.AvatarURL,
		},
	})
}
