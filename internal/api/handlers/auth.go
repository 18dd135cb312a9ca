package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Fimeg/partnernotice/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	tokenLifetime = 24 * time.Hour
	tokenCookie   = "token"
	userKey       = "user"
)

// CredentialVerifier checks dashboard credentials
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, username, password string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

// AuthHandler handles authentication for the admin dashboard
type AuthHandler struct {
	jwtSecret string
	users     CredentialVerifier
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(jwtSecret string, users CredentialVerifier) *AuthHandler {
	return &AuthHandler{
		jwtSecret: jwtSecret,
		users:     users,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// UserClaims represents JWT claims for dashboard users
type UserClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	jwt.RegisteredClaims
}

// Login handles dashboard login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	user, err := h.users.VerifyCredentials(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		log.Warn().Str("username", req.Username).Msg("login failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	tokenString, err := h.IssueToken(*user)
	if err != nil {
		log.Error().Err(err).Msg("failed to sign dashboard token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
		return
	}

	if err := h.users.UpdateLastLogin(c.Request.Context(), user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to update last login")
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(tokenCookie, tokenString, int(tokenLifetime.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, LoginResponse{
		Token: tokenString,
		User:  user,
	})
}

// IssueToken signs a dashboard token for user
func (h *AuthHandler) IssueToken(user models.User) (string, error) {
	now := time.Now()
	claims := UserClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
}

// VerifyToken handles token verification
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":    true,
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(tokenCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

// WebAuthMiddleware validates dashboard tokens from the Authorization
// header or, for admin screens loaded by the browser, the session cookie.
func (h *AuthHandler) WebAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if tokenString == "" {
			tokenString, _ = c.Cookie(tokenCookie)
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		claims := &UserClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(h.jwtSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			log.Debug().Err(err).Msg("dashboard token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set(userKey, models.User{
			ID:       claims.UserID,
			Username: claims.Username,
			Role:     claims.Role,
		})
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by WebAuthMiddleware
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}
