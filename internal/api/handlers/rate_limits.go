package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Fimeg/partnernotice/internal/api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RateLimitHandler exposes the rate limiter settings to administrators
type RateLimitHandler struct {
	rateLimiter *middleware.RateLimiter
}

func NewRateLimitHandler(rateLimiter *middleware.RateLimiter) *RateLimitHandler {
	return &RateLimitHandler{
		rateLimiter: rateLimiter,
	}
}

// GetRateLimitSettings returns current rate limit configuration
func (h *RateLimitHandler) GetRateLimitSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"settings": h.rateLimiter.GetSettings(),
	})
}

// UpdateRateLimitSettings updates rate limit configuration
func (h *RateLimitHandler) UpdateRateLimitSettings(c *gin.Context) {
	var settings middleware.RateLimitSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format: " + err.Error()})
		return
	}

	if err := validateRateLimitSettings(settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.rateLimiter.UpdateSettings(settings)
	if user, ok := CurrentUser(c); ok {
		log.Info().Str("user", user.Username).Msg("rate limit settings updated")
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "rate limit settings updated",
		"settings": settings,
	})
}

// ResetRateLimitSettings resets to default values
func (h *RateLimitHandler) ResetRateLimitSettings(c *gin.Context) {
	defaults := middleware.DefaultRateLimitSettings()
	h.rateLimiter.UpdateSettings(defaults)

	c.JSON(http.StatusOK, gin.H{
		"message":  "rate limit settings reset to defaults",
		"settings": defaults,
	})
}

// CleanupRateLimitEntries drops tracking state for idle clients
func (h *RateLimitHandler) CleanupRateLimitEntries(c *gin.Context) {
	removed := h.rateLimiter.CleanupExpiredEntries()
	c.JSON(http.StatusOK, gin.H{
		"message": "rate limit entries cleaned up",
		"removed": removed,
	})
}

func validateRateLimitSettings(settings middleware.RateLimitSettings) error {
	for name, config := range settings.Limits() {
		if !config.Enabled {
			continue
		}
		if config.Requests <= 0 || config.Requests > 10000 {
			return fmt.Errorf("%s: requests must be between 1 and 10000", name)
		}
		if config.Window < time.Second || config.Window > 24*time.Hour {
			return fmt.Errorf("%s: window must be between 1s and 24h", name)
		}
	}
	return nil
}
