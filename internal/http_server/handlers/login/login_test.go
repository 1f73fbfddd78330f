package login

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"event_service/internal/auth"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionStarter struct {
	pair auth.TokenPair
	err  error

	gotUsername string
	gotPassword string
}

func (f *fakeSessionStarter) Login(_ context.Context, username, password string) (auth.TokenPair, error) {
	f.gotUsername = username
	f.gotPassword = password
	return f.pair, f.err
}

func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svc        *fakeSessionStarter
		wantStatus int
		wantBody   string
	}{
		{
			name: "success",
			body: `{"username": "johndoe", "password": "sup3r-secret"}`,
			svc: &fakeSessionStarter{
				pair: auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
			},
			wantStatus: http.StatusOK,
			wantBody:   `"access_token":"access"`,
		},
		{
			name:       "invalid credentials",
			body:       `{"username": "johndoe", "password": "wrong"}`,
			svc:        &fakeSessionStarter{err: auth.ErrInvalidCredentials},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `"error":"Invalid credentials"`,
		},
		{
			name:       "missing password",
			body:       `{"username": "johndoe"}`,
			svc:        &fakeSessionStarter{},
			wantStatus: http.StatusBadRequest,
			wantBody:   `field Password is required`,
		},
		{
			name:       "malformed json",
			body:       `{"username":`,
			svc:        &fakeSessionStarter{},
			wantStatus: http.StatusBadRequest,
			wantBody:   `"error":"Failed to decode request"`,
		},
		{
			name:       "service failure",
			body:       `{"username": "johndoe", "password": "sup3r-secret"}`,
			svc:        &fakeSessionStarter{err: errors.New("connection refused")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `"error":"Internal error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := slog.New(slog.NewTextHandler(io.Discard, nil))
			handler := New(log, validator.New(), tt.svc)

			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

// The handler's logger is shared across requests; request-scoped attributes
// must not pile up on it from one request to the next.
func TestLoginHandlerLogsAttrsOncePerRequest(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	svc := &fakeSessionStarter{
		pair: auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
	}
	handler := New(log, validator.New(), svc)

	body := `{"username": "johndoe", "password": "sup3r-secret"}`
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, "op=handlers.login.New"), "line: %s", line)
	}
}

func TestLoginHandlerPassesCredentials(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := &fakeSessionStarter{}
	handler := New(log, validator.New(), svc)

	body := `{"username": "johndoe", "password": "sup3r-secret"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "johndoe", svc.gotUsername)
	assert.Equal(t, "sup3r-secret", svc.gotPassword)
}
