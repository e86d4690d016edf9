package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nasir-hacker-7/power.modz.hub/config"
	"github.com/nasir-hacker-7/power.modz.hub/models"
	"github.com/nasir-hacker-7/power.modz.hub/utils"
)

const (
	// ContextSessionKey stores the resolved models.Session in Gin context.
	ContextSessionKey = "session"
	// ContextUserIDKey stores the authenticated user ID, zero for manual admin sessions.
	ContextUserIDKey = "user_id"
	// ContextTokenJTIKey stores the bearer token's jti for logout handling.
	ContextTokenJTIKey = "token_jti"
)

// ResolveBearer parses a bearer token into the merged session. The manual flag
// only counts when both the token claim and the durable server-side marker
// agree; the provider identity comes from the user claims.
func ResolveBearer(tokenString string) (models.Session, *utils.Claims, error) {
	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		return models.Session{}, nil, err
	}

	var id *models.ProviderIdentity
	if claims.UserID != 0 {
		id = &models.ProviderIdentity{Email: claims.Email, DisplayName: claims.Username}
	}
	manual := claims.ManualAdmin && utils.ManualSessionActive(claims.ID)

	cfg := config.Get()
	return models.ResolveSession(manual, id, cfg.AdminEmail, cfg.AdminHandle), claims, nil
}

// AuthRequired ensures the request carries a valid, unrevoked session token.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, code, msg := bearerToken(ctx)
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, code, msg)
			ctx.Abort()
			return
		}

		if utils.IsTokenBlacklisted(tokenString) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		session, claims, err := ResolveBearer(tokenString)
		if err != nil || !session.Authenticated {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextSessionKey, session)
		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextTokenJTIKey, claims.ID)
		ctx.Next()
	}
}

// AuthOptional resolves the session when a token is present but lets
// anonymous requests through; the access gate decides what anonymity means
// for each endpoint.
func AuthOptional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, _, _ := bearerToken(ctx)
		if tokenString == "" || utils.IsTokenBlacklisted(tokenString) {
			ctx.Next()
			return
		}
		if session, claims, err := ResolveBearer(tokenString); err == nil && session.Authenticated {
			ctx.Set(ContextSessionKey, session)
			ctx.Set(ContextUserIDKey, claims.UserID)
			ctx.Set(ContextTokenJTIKey, claims.ID)
		}
		ctx.Next()
	}
}

// AdminRequired enforces the admin role. Must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		session, ok := SessionFromContext(ctx)
		if !ok || session.Role != models.RoleAdmin {
			utils.Error(ctx, http.StatusForbidden, 40301, "admin access required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// SessionFromContext returns the resolved session set by the auth middleware.
func SessionFromContext(ctx *gin.Context) (models.Session, bool) {
	v, exists := ctx.Get(ContextSessionKey)
	if !exists {
		return models.Session{}, false
	}
	session, ok := v.(models.Session)
	return session, ok
}

func bearerToken(ctx *gin.Context) (token string, code int, msg string) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", 40101, "authorization header missing"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", 40102, "invalid authorization header format"
	}
	t := strings.TrimSpace(parts[1])
	if t == "" {
		return "", 40103, "empty bearer token"
	}
	return t, 0, ""
}
