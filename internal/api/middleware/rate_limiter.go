package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Rate limit types
const (
	LimitLogin           = "login"
	LimitNoticeActions   = "notice_actions"
	LimitAdminOperations = "admin_operations"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Requests int           `json:"requests"`
	Window   time.Duration `json:"window"`
	Enabled  bool          `json:"enabled"`
}

// RateLimitEntry tracks requests for a specific key
type RateLimitEntry struct {
	Requests []time.Time
	mutex    sync.Mutex
	removed  bool // set under mutex once cleanup drops the entry from the map
}

// RateLimiter implements in-memory sliding window rate limiting
type RateLimiter struct {
	entries sync.Map // map[string]*RateLimitEntry
	configs map[string]RateLimitConfig
	mutex   sync.RWMutex
}

// RateLimitSettings holds all configurable rate limit settings
type RateLimitSettings struct {
	Login           RateLimitConfig `json:"login"`
	NoticeActions   RateLimitConfig `json:"notice_actions"`
	AdminOperations RateLimitConfig `json:"admin_operations"`
}

// Limits returns the settings keyed by limit type
func (s RateLimitSettings) Limits() map[string]RateLimitConfig {
	return map[string]RateLimitConfig{
		LimitLogin:           s.Login,
		LimitNoticeActions:   s.NoticeActions,
		LimitAdminOperations: s.AdminOperations,
	}
}

// DefaultRateLimitSettings provides sensible defaults. Notice actions are
// cheap to dismiss but an install downloads a package, so they stay low.
func DefaultRateLimitSettings() RateLimitSettings {
	return RateLimitSettings{
		Login: RateLimitConfig{
			Requests: 10,
			Window:   time.Minute,
			Enabled:  true,
		},
		NoticeActions: RateLimitConfig{
			Requests: 10,
			Window:   time.Minute,
			Enabled:  true,
		},
		AdminOperations: RateLimitConfig{
			Requests: 100,
			Window:   time.Minute,
			Enabled:  true,
		},
	}
}

// NewRateLimiter creates a new rate limiter with default settings
func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{}
	rl.UpdateSettings(DefaultRateLimitSettings())
	return rl
}

// UpdateSettings updates rate limit configurations
func (rl *RateLimiter) UpdateSettings(settings RateLimitSettings) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	rl.configs = settings.Limits()
}

// GetSettings returns current rate limit settings
func (rl *RateLimiter) GetSettings() RateLimitSettings {
	rl.mutex.RLock()
	defer rl.mutex.RUnlock()

	return RateLimitSettings{
		Login:           rl.configs[LimitLogin],
		NoticeActions:   rl.configs[LimitNoticeActions],
		AdminOperations: rl.configs[LimitAdminOperations],
	}
}

// RateLimit creates middleware for a specific rate limit type
func (rl *RateLimiter) RateLimit(limitType string, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rl.mutex.RLock()
		config, exists := rl.configs[limitType]
		rl.mutex.RUnlock()

		if !exists || !config.Enabled {
			c.Next()
			return
		}

		key := keyFunc(c)
		if key == "" {
			c.Next()
			return
		}
		key = limitType + ":" + key

		allowed, remaining, resetTime := rl.checkRateLimit(key, config, time.Now())
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", config.Requests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime.Unix()))

		if !allowed {
			log.Warn().Str("limit", limitType).Str("key", key).Msg("rate limit exceeded")
			c.Header("Retry-After", fmt.Sprintf("%d", int(time.Until(resetTime).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Rate limit exceeded",
				"limit":      config.Requests,
				"window":     config.Window.String(),
				"reset_time": resetTime,
			})
			return
		}

		c.Next()
	}
}

// checkRateLimit records a request at now if the key is under its limit
func (rl *RateLimiter) checkRateLimit(key string, config RateLimitConfig, now time.Time) (bool, int, time.Time) {
	entry := rl.lockEntry(key)
	defer entry.mutex.Unlock()

	// Drop requests outside the window
	cutoff := now.Add(-config.Window)
	valid := entry.Requests[:0]
	for _, reqTime := range entry.Requests {
		if reqTime.After(cutoff) {
			valid = append(valid, reqTime)
		}
	}
	entry.Requests = valid

	if len(valid) >= config.Requests {
		return false, 0, valid[0].Add(config.Window)
	}

	entry.Requests = append(entry.Requests, now)
	return true, config.Requests - len(entry.Requests), entry.Requests[0].Add(config.Window)
}

// lockEntry returns the live entry for key with its mutex held. An entry
// that cleanup removed after we loaded it is skipped so the hit lands in
// the map.
func (rl *RateLimiter) lockEntry(key string) *RateLimitEntry {
	for {
		entryInterface, _ := rl.entries.LoadOrStore(key, &RateLimitEntry{})
		entry := entryInterface.(*RateLimitEntry)
		entry.mutex.Lock()
		if !entry.removed {
			return entry
		}
		entry.mutex.Unlock()
		rl.entries.CompareAndDelete(key, entry)
	}
}

// CleanupExpiredEntries removes entries with no request in the last hour
func (rl *RateLimiter) CleanupExpiredEntries() int {
	removed := 0
	cutoff := time.Now().Add(-time.Hour)
	rl.entries.Range(func(key, value interface{}) bool {
		entry := value.(*RateLimitEntry)
		entry.mutex.Lock()
		defer entry.mutex.Unlock()

		valid := entry.Requests[:0]
		for _, reqTime := range entry.Requests {
			if reqTime.After(cutoff) {
				valid = append(valid, reqTime)
			}
		}
		entry.Requests = valid

		if len(valid) == 0 {
			entry.removed = true
			rl.entries.CompareAndDelete(key, entry)
			removed++
		}
		return true
	})
	return removed
}

// Key generation functions
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByUserID keys on the authenticated user, falling back to the client IP
func KeyByUserID(c *gin.Context) string {
	if id, ok := c.Get("user_id"); ok {
		if userID, ok := id.(uuid.UUID); ok {
			return userID.String()
		}
	}
	return c.ClientIP()
}
