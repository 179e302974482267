package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/staffstore-backend/api/responses"
	pkgerrors "github.com/angelmondragon/staffstore-backend/pkg/errors"
	"github.com/angelmondragon/staffstore-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/staffstore-backend/pkg/redis"
)

// AuthRateLimitPolicy defines the throttling parameters for a login surface.
type AuthRateLimitPolicy struct {
	name    string
	window  time.Duration
	ipLimit int
}

// NewAuthRateLimitPolicy builds a policy with the supplied window and per-IP limit.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit int) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		name:    strings.ToLower(strings.TrimSpace(name)),
		window:  window,
		ipLimit: ipLimit,
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && p.ipLimit > 0
}

func (p AuthRateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "auth"
	}
	return p.name
}

func (p AuthRateLimitPolicy) ipScope(ip string) string {
	if ip == "" {
		return ""
	}
	return fmt.Sprintf("%s:ip:%s", p.normalizedName(), ip)
}

// AuthRateLimit enforces a fixed-window per-IP counter. It is a pass-through
// when the policy is disabled or no store is configured.
func AuthRateLimit(policy AuthRateLimitPolicy, store pkgredis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientIP(r)
			scope := policy.ipScope(ip)
			if scope == "" {
				next.ServeHTTP(w, r)
				return
			}

			hit, err := store.Hit(ctx, scope, int64(policy.ipLimit), policy.window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !hit.Allowed {
				respondRateLimited(ctx, logg, w, policy, ip, hit)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy AuthRateLimitPolicy, ip string, hit pkgredis.WindowCount) {
	retryAfter := retryAfterSeconds(hit.ResetIn, policy.window)
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"policy":      policy.normalizedName(),
			"ip":          ip,
			"attempts":    hit.Count,
			"limit":       policy.ipLimit,
			"retry_after": retryAfter,
		})
		logg.Warn(logCtx, "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "Too many login attempts"))
}

// retryAfterSeconds rounds the remaining window up to whole seconds, falling
// back to the full window when the store could not say.
func retryAfterSeconds(resetIn, window time.Duration) int {
	if resetIn <= 0 {
		resetIn = window
	}
	return max(1, int(math.Ceil(resetIn.Seconds())))
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
