// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielhkuo/voucher-vote/auth"
	"github.com/danielhkuo/voucher-vote/models"
)

// SessionCookie carries the session token for browser clients
const SessionCookie = "session"

type contextKey string

const sessionUserKey contextKey = "session_user"

// WithUser attaches an authenticated caller to ctx
func WithUser(ctx context.Context, user models.SessionUser) context.Context {
	return context.WithValue(ctx, sessionUserKey, user)
}

// CurrentUser returns the caller attached by WithSession, if any
func CurrentUser(r *http.Request) (models.SessionUser, bool) {
	user, ok := r.Context().Value(sessionUserKey).(models.SessionUser)
	return user, ok && user.ID > 0
}

// TokenFromRequest reads the session token from the Authorization header,
// falling back to the session cookie
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// WithSession attaches the caller when the request carries a valid token.
// Requests without one pass through anonymous.
func WithSession(secret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := TokenFromRequest(r); token != "" {
			if user, err := auth.ParseSessionToken(token, secret); err == nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
		}
		next(w, r)
	}
}

// RequireUser rejects anonymous requests with 401
func RequireUser(secret string, next http.HandlerFunc) http.HandlerFunc {
	return WithSession(secret, func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			ErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	})
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403
func RequireAdmin(secret string, next http.HandlerFunc) http.HandlerFunc {
	return RequireUser(secret, func(w http.ResponseWriter, r *http.Request) {
		user, _ := CurrentUser(r)
		if !user.IsAdmin() {
			ErrorResponse(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r)
	})
}
