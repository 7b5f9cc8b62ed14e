package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ClassTrack/CT-Backend/internal/api"
	"github.com/ClassTrack/CT-Backend/internal/utils"
)

// TokenFetcher resolves a presented bearer token to its owner.
type TokenFetcher interface {
	FindTokenByValue(value string) (utils.TokenData, error)
}

// TokenMiddleware authenticates requests carrying "Authorization: Bearer"
// headers. It rejects missing, unknown and expired tokens with 401 and
// attaches the Actor plus the token digest to the request context.
func TokenMiddleware(fetcher TokenFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			value, ok := bearerToken(r)
			if !ok {
				api.WriteDetail(w, http.StatusUnauthorized,
					"Authentication credentials were not provided.")
				return
			}

			token, err := fetcher.FindTokenByValue(value)
			if err != nil {
				api.WriteDetail(w, http.StatusUnauthorized, "Invalid token.")
				return
			}

			if token.ExpiresAt.Before(time.Now()) {
				api.WriteDetail(w, http.StatusUnauthorized, "Token has expired.")
				return
			}

			actor := utils.Actor{
				UserID:        token.UserID,
				Role:          token.Role,
				Authenticated: true,
			}
			ctx := utils.WithActor(r.Context(), actor)
			ctx = utils.WithTokenDigest(ctx, token.Digest)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, value, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

// Throttle limits requests per client IP. Used on the credential endpoints
// to slow down guessing; everything else is unthrottled.
func Throttle(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(limit, burst)
			limiters[ip] = l
		}
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiterFor(ip).Allow() {
				w.Header().Set("Retry-After", "60")
				api.WriteDetail(w, http.StatusTooManyRequests,
					"Too many requests, slow down.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
