package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sarrafio/api/internal/services/auth"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxRoles
)

// Authenticate parses the bearer token and stores the user id and roles in
// the request context.
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" || raw == r.Header.Get("Authorization") {
				writeError(w, http.StatusUnauthorized, "توکن احراز هویت یافت نشد")
				return
			}

			claims, err := auth.ParseToken(secret, raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "توکن احراز هویت نامعتبر است")
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.Subject)
			ctx = context.WithValue(ctx, ctxRoles, claims.Roles)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole guards a subtree to users carrying at least one of the roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			have, _ := r.Context().Value(ctxRoles).([]string)

			for _, want := range roles {
				for _, role := range have {
					if role == want {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			writeError(w, http.StatusForbidden, "دسترسی غیرمجاز")
		})
	}
}

// RateLimit is a fixed-window limiter keyed by user id when authenticated,
// client IP otherwise. It fails open when redis is unavailable so an outage
// never blocks traffic.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, keyPrefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			clientID := requestUserID(r)
			if clientID == "" {
				ip := r.Header.Get("X-Forwarded-For")
				if ip == "" {
					ip = r.RemoteAddr
				}
				clientID = "ip:" + strings.Split(ip, ",")[0]
			}

			key := keyPrefix + ":" + clientID

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if count == 1 {
				rdb.Expire(ctx, key, window)
			}

			if count > int64(limit) {
				ttl, _ := rdb.TTL(ctx, key).Result()
				w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
				writeError(w, http.StatusTooManyRequests, "تعداد درخواست‌ها بیش از حد مجاز است")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requestUserID(r *http.Request) string {
	id, _ := r.Context().Value(ctxUserID).(string)
	return id
}
