package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"staffbot-backend/internal/security"
)

type contextKey string

const (
	claimsKey     contextKey = "claims"
	webAppUserKey contextKey = "webapp_user"
)

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

// jwtMiddleware guards dashboard routes with a Bearer session token.
func (s *Server) jwtMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := s.tokens.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFrom(r *http.Request) *security.Claims {
	claims, _ := r.Context().Value(claimsKey).(*security.Claims)
	return claims
}

// initDataMiddleware guards WebApp routes with verified Telegram init data
// from the X-Telegram-Init-Data header.
func (s *Server) initDataMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		initData := r.Header.Get("X-Telegram-Init-Data")
		if initData == "" {
			writeError(w, http.StatusUnauthorized, "missing init data")
			return
		}
		user, err := security.VerifyInitData(initData, s.botToken, s.initDataMaxAge)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "init data verification failed")
			return
		}
		ctx := context.WithValue(r.Context(), webAppUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func webAppUserFrom(r *http.Request) *security.WebAppUser {
	user, _ := r.Context().Value(webAppUserKey).(*security.WebAppUser)
	return user
}
