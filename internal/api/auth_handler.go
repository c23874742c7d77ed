package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"healthhive/internal/api/middleware"
	"healthhive/internal/auth"
	"healthhive/internal/database"
)

const refreshTokenCookieName = "refresh_token"
const refreshTokenBlacklistKeyPrefix = "auth:refresh:blacklist:"

// AuthHandler covers register, login, refresh and logout.
type AuthHandler struct {
	db                    *gorm.DB
	authService           *auth.AuthService
	redis                 redis.UniversalClient
	logger                *slog.Logger
	loginRateLimitPerHour int
	loginLockThreshold    int
	loginLockTTL          time.Duration
	cookieDomain          string
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(db *gorm.DB, authService *auth.AuthService, redisClient redis.UniversalClient, logger *slog.Logger, loginRateLimitPerHour, loginLockThreshold int, loginLockTTL time.Duration, cookieDomain string) *AuthHandler {
	return &AuthHandler{
		db:                    db,
		authService:           authService,
		redis:                 redisClient,
		logger:                logger,
		loginRateLimitPerHour: loginRateLimitPerHour,
		loginLockThreshold:    loginLockThreshold,
		loginLockTTL:          loginLockTTL,
		cookieDomain:          cookieDomain,
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// Register creates a new account. Every self-registered account starts as a
// regular user; admins are promoted through the admin surface or the CLI.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(slog.String("email", email))

	var existing database.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		logger.Info("register conflict: email already registered")
		Conflict(c, "email already registered")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("register lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("hash password failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	user := database.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: hashed,
		Role:         database.RoleUser,
	}

	if err := h.db.WithContext(ctx).Create(&user).Error; err != nil {
		logger.Error("create user failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("user registered", slog.Uint64("user_id", uint64(user.ID)))
	Message(c, http.StatusCreated, "account created")
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies the password and issues a token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	ip := c.ClientIP()
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(slog.String("email", email))

	// Rate limit per IP+email per hour.
	count, err := countLoginAttempt(ctx, h.redis, loginRateKey(ip, email, time.Now()), time.Hour)
	if err != nil {
		count = 0
	}
	if count > int64(h.loginRateLimitPerHour) {
		Error(c, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	if ttl, _ := h.redis.TTL(ctx, loginLockKey(email)).Result(); ttl > 0 {
		Error(c, http.StatusTooManyRequests, "account temporarily locked")
		return
	}

	var user database.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Info("login failed: user not found")
			_ = h.incrementLoginFail(ctx, email)
			Unauthorized(c)
			return
		}
		logger.Error("login query failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Info("login failed: password mismatch", slog.Uint64("user_id", uint64(user.ID)))
		_ = h.incrementLoginFail(ctx, email)
		Unauthorized(c)
		return
	}

	_ = h.redis.Del(ctx, loginFailKey(email)).Err()

	tokenPair, err := h.authService.GenerateTokenPair(user.ID, user.Role)
	if err != nil {
		logger.Error("generate token pair failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	h.replyWithTokenPair(c, tokenPair, user)
}

// Refresh rotates a refresh token. The used token is blacklisted so every
// refresh token is single use.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := h.extractRefreshToken(c)
	if refreshToken == "" {
		Unauthorized(c)
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c)

	claims, err := h.authService.ValidateToken(refreshToken)
	if err != nil || claims.TokenType != "refresh" || claims.ID == "" {
		logger.Info("refresh token invalid")
		Unauthorized(c)
		return
	}

	blacklistKey := refreshTokenBlacklistKeyPrefix + claims.ID
	if exists, err := h.redis.Exists(ctx, blacklistKey).Result(); err == nil && exists > 0 {
		logger.Info("refresh token reuse detected", slog.Uint64("user_id", uint64(claims.UserID)))
		Unauthorized(c)
		return
	}

	var user database.User
	if err := h.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		logger.Info("refresh for unknown user", slog.Uint64("user_id", uint64(claims.UserID)))
		Unauthorized(c)
		return
	}

	if err := h.blacklistRefreshToken(ctx, claims); err != nil {
		logger.Error("blacklist refresh token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	tokenPair, err := h.authService.GenerateTokenPair(user.ID, user.Role)
	if err != nil {
		logger.Error("generate token pair failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	h.replyWithTokenPair(c, tokenPair, user)
}

// Logout blacklists the refresh token and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if refreshToken := h.extractRefreshToken(c); refreshToken != "" {
		if claims, err := h.authService.ValidateToken(refreshToken); err == nil && claims.TokenType == "refresh" && claims.ID != "" {
			if err := h.blacklistRefreshToken(ctx, claims); err != nil {
				h.loggerFromContext(c).Error("blacklist refresh token failed", slog.Any("error", err))
			}
		}
	}

	h.clearRefreshCookie(c)
	Message(c, http.StatusOK, "logged out")
}

func (h *AuthHandler) incrementLoginFail(ctx context.Context, email string) error {
	count, err := countLoginAttempt(ctx, h.redis, loginFailKey(email), h.loginLockTTL)
	if err != nil {
		return err
	}
	if h.loginLockThreshold > 0 && count >= int64(h.loginLockThreshold) {
		return h.redis.Set(ctx, loginLockKey(email), "1", h.loginLockTTL).Err()
	}
	return nil
}

func (h *AuthHandler) blacklistRefreshToken(ctx context.Context, claims *auth.TokenClaims) error {
	ttl := h.authService.RefreshTokenTTL()
	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			ttl = remaining
		}
	}
	return h.redis.Set(ctx, refreshTokenBlacklistKeyPrefix+claims.ID, "1", ttl).Err()
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// extractRefreshToken prefers the cookie and falls back to the JSON body for
// clients that cannot carry cookies.
func (h *AuthHandler) extractRefreshToken(c *gin.Context) string {
	if cookie, err := c.Cookie(refreshTokenCookieName); err == nil && cookie != "" {
		return cookie
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		return strings.TrimSpace(req.RefreshToken)
	}
	return ""
}

func (h *AuthHandler) replyWithTokenPair(c *gin.Context, pair auth.TokenPair, user database.User) {
	maxAge := int(h.authService.RefreshTokenTTL().Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshTokenCookieName, pair.RefreshToken, maxAge, "/v1/auth", h.cookieDomain, true, true)

	OK(c, http.StatusOK, gin.H{
		"access_token": pair.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   int(h.authService.AccessTokenTTL().Seconds()),
		"user":         newUserResponse(user),
	})
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshTokenCookieName, "", -1, "/v1/auth", h.cookieDomain, true, true)
}

func (h *AuthHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if h.logger != nil {
		return h.logger.With(slog.String("correlation_id", middleware.GetCorrelationID(c)))
	}
	return middleware.LoggerFromContext(c)
}
