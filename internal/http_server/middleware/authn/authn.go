// Package authn verifies bearer tokens and places the resulting principal in
// the request context. Three token kinds exist: session access tokens,
// refresh tokens, and guest magic-link tokens, each signed with its own
// secret.
package authn

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	resp "event_service/internal/lib/api/response"
	"event_service/internal/lib/jwt"

	"github.com/go-chi/render"
)

type ctxKey string

const (
	userIDKey       ctxKey = "user_id"
	usernameKey     ctxKey = "username"
	refreshTokenKey ctxKey = "refresh_token"
	guestKey        ctxKey = "guest"
)

// GuestPrincipal identifies the guest behind a verified magic-link token.
type GuestPrincipal struct {
	GuestID string
	EventID string
}

// Session authorizes requests carrying a valid access token.
func Session(log *slog.Logger, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w, r)
				return
			}

			claims, err := jwt.ParseSessionToken(raw, secret)
			if err != nil {
				log.Info("access token rejected")
				unauthorized(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			ctx = context.WithValue(ctx, usernameKey, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Refresh authorizes requests carrying a valid refresh token and keeps the
// raw token in the context so the session flow can match it against the
// stored hash.
func Refresh(log *slog.Logger, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w, r)
				return
			}

			claims, err := jwt.ParseSessionToken(raw, secret)
			if err != nil {
				log.Info("refresh token rejected")
				unauthorized(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			ctx = context.WithValue(ctx, refreshTokenKey, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Guest authorizes requests carrying a valid guest token, either as a bearer
// header or as the magic link's token query param.
func Guest(log *slog.Logger, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				raw = r.URL.Query().Get("token")
			}
			if raw == "" {
				unauthorized(w, r)
				return
			}

			claims, err := jwt.ParseGuestToken(raw, secret)
			if err != nil {
				log.Info("guest token rejected")
				unauthorized(w, r)
				return
			}

			principal := GuestPrincipal{GuestID: claims.Subject, EventID: claims.EventID}
			ctx := context.WithValue(r.Context(), guestKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func Username(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameKey).(string)
	return name, ok
}

func RefreshToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(refreshTokenKey).(string)
	return token, ok && token != ""
}

func CurrentGuest(ctx context.Context) (GuestPrincipal, bool) {
	p, ok := ctx.Value(guestKey).(GuestPrincipal)
	return p, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}

	return strings.TrimPrefix(header, "Bearer "), true
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, resp.Error("Unauthorized"))
}
