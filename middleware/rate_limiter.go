// middleware/rate_limiter.go
package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/HSouheill/teamboard_backend/models"
)

// EndpointLimit is the token bucket for one route.
type EndpointLimit struct {
	Limit rate.Limit
	Burst int
}

type RateLimiter struct {
	ips            map[string]*rate.Limiter
	blockedIPs     map[string]time.Time
	mu             sync.Mutex
	defaultLimit   EndpointLimit
	blockDuration  time.Duration
	endpointLimits map[string]EndpointLimit
	now            func() time.Time
}

func NewRateLimiter() *RateLimiter {
	limiter := &RateLimiter{
		ips:           make(map[string]*rate.Limiter),
		blockedIPs:    make(map[string]time.Time),
		defaultLimit:  EndpointLimit{Limit: rate.Every(100 * time.Millisecond), Burst: 20}, // 10 requests per second
		blockDuration: 5 * time.Minute,
		endpointLimits: map[string]EndpointLimit{
			// brute force protection
			"/api/auth/login":  {Limit: rate.Every(2 * time.Second), Burst: 5},
			"/api/auth/signup": {Limit: rate.Every(500 * time.Millisecond), Burst: 5},
			// providers retry; keep them from hammering us
			"/api/webhooks/payment": {Limit: rate.Every(200 * time.Millisecond), Burst: 10},
			"/r/:code":              {Limit: rate.Every(time.Second), Burst: 10},
		},
		now: time.Now,
	}
	return limiter
}

// SetEndpointLimit overrides the bucket for path (an echo route pattern).
func (r *RateLimiter) SetEndpointLimit(path string, l EndpointLimit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpointLimits[path] = l
}

// RunCleanup drops expired blocks every interval until ctx is done.
func (r *RateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.cleanup()
		}
	}
}

func (r *RateLimiter) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for ip, blockUntil := range r.blockedIPs {
		if now.After(blockUntil) {
			delete(r.blockedIPs, ip)
			delete(r.ips, ip)
		}
	}
}

func key(ip, path string) string { return ip + " " + path }

func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			path := c.Path()

			r.mu.Lock()
			if blockUntil, blocked := r.blockedIPs[ip]; blocked {
				if r.now().Before(blockUntil) {
					r.mu.Unlock()
					c.Response().Header().Set("Retry-After", blockUntil.UTC().Format(http.TimeFormat))
					return c.JSON(http.StatusTooManyRequests, models.Response{
						Status:  http.StatusTooManyRequests,
						Message: "IP address blocked due to too many requests",
					})
				}
				delete(r.blockedIPs, ip)
				for k := range r.ips {
					if len(k) > len(ip) && k[:len(ip)+1] == ip+" " {
						delete(r.ips, k)
					}
				}
			}
			l, ok := r.endpointLimits[path]
			if !ok {
				l = r.defaultLimit
			}
			limiter, exists := r.ips[key(ip, path)]
			if !exists {
				limiter = rate.NewLimiter(l.Limit, l.Burst)
				r.ips[key(ip, path)] = limiter
			}
			allowed := limiter.AllowN(r.now(), 1)
			if !allowed {
				r.blockedIPs[ip] = r.now().Add(r.blockDuration)
			}
			r.mu.Unlock()

			if !allowed {
				log.Warn().Str("ip", ip).Str("path", path).Msg("rate limit exceeded, blocking IP")
				return c.JSON(http.StatusTooManyRequests, models.Response{
					Status:  http.StatusTooManyRequests,
					Message: "Too many requests",
				})
			}
			return next(c)
		}
	}
}
