package events_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"event_service/internal/events"
	handlers "event_service/internal/http_server/handlers/events"
	"event_service/internal/http_server/middleware/authn"
	"event_service/internal/lib/jwt"
	"event_service/internal/lib/pagination"
	"event_service/internal/models"

	"github.com/go-chi/chi"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accessSecret = "access-secret"

type fakeService struct {
	event  *models.Event
	events []models.Event
	meta   pagination.Meta
	err    error

	gotOrganizerID string
	gotEventID     string
	gotParams      pagination.Params
}

func (f *fakeService) Create(_ context.Context, organizerID string, _ events.CreateInput) (*models.Event, error) {
	f.gotOrganizerID = organizerID
	return f.event, f.err
}

func (f *fakeService) List(_ context.Context, organizerID string, p pagination.Params, _ bool) ([]models.Event, pagination.Meta, error) {
	f.gotOrganizerID = organizerID
	f.gotParams = p
	return f.events, f.meta, f.err
}

func (f *fakeService) Get(_ context.Context, id, organizerID string) (*models.Event, error) {
	f.gotEventID = id
	f.gotOrganizerID = organizerID
	return f.event, f.err
}

func (f *fakeService) Update(_ context.Context, id, organizerID string, _ events.UpdateInput) (*models.Event, error) {
	f.gotEventID = id
	f.gotOrganizerID = organizerID
	return f.event, f.err
}

func (f *fakeService) Delete(_ context.Context, id, organizerID string) error {
	f.gotEventID = id
	f.gotOrganizerID = organizerID
	return f.err
}

// newRouter mounts the handlers behind the real session middleware, the way
// the composition root does.
func newRouter(svc *fakeService) chi.Router {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	validate := validator.New()

	r := chi.NewRouter()
	r.Route("/events", func(r chi.Router) {
		r.Use(authn.Session(log, accessSecret))

		r.Get("/", handlers.NewList(log, svc))
		r.Post("/", handlers.NewCreate(log, validate, svc))
		r.Get("/{eventID}", handlers.NewGet(log, svc))
		r.Patch("/{eventID}", handlers.NewUpdate(log, validate, svc))
		r.Delete("/{eventID}", handlers.NewDelete(log, svc))
	})

	return r
}

func authedRequest(t *testing.T, method, target, body, userID string) *http.Request {
	t.Helper()

	token, err := jwt.NewSessionToken(userID, "johndoe", accessSecret, time.Minute)
	require.NoError(t, err)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+token)

	return req
}

func testEvent(id string) *models.Event {
	return &models.Event{
		ID:          id,
		OrganizerID: "user-1",
		Name:        "Launch party",
		Description: "Rooftop",
		When:        time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC),
		Address:     "42 Main St",
		GuestsCount: 2,
	}
}

func TestCreateEvent(t *testing.T) {
	eventID := uuid.NewString()
	svc := &fakeService{event: testEvent(eventID)}
	router := newRouter(svc)

	body := `{"name": "Launch party", "description": "Rooftop", "when": "2026-09-01T18:00:00Z", "address": "42 Main St"}`
	req := authedRequest(t, http.MethodPost, "/events", body, "user-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), eventID)
	assert.Equal(t, "user-1", svc.gotOrganizerID)
}

func TestCreateEventRejections(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing fields",
			body:       `{"name": "Launch party"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `field Description is required`,
		},
		{
			name:       "duplicate name",
			body:       `{"name": "Launch party", "description": "Rooftop", "when": "2026-09-01T18:00:00Z", "address": "42 Main St"}`,
			svcErr:     events.ErrNameTaken,
			wantStatus: http.StatusConflict,
			wantBody:   `"error":"Event already exists"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.svcErr}
			router := newRouter(svc)

			req := authedRequest(t, http.MethodPost, "/events", tt.body, "user-1")
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestListEvents(t *testing.T) {
	total := int64(25)
	svc := &fakeService{
		events: []models.Event{*testEvent(uuid.NewString())},
		meta:   pagination.Meta{Page: 3, Limit: 10, Count: 1, Total: &total},
	}
	router := newRouter(svc)

	req := authedRequest(t, http.MethodGet, "/events?page=3&limit=10", "", "user-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pagination.Params{Page: 3, Limit: 10}, svc.gotParams)
	assert.Contains(t, rec.Body.String(), `"total":25`)
}

func TestListEventsRejectsBadPagination(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"zero page", "/events?page=0&limit=10"},
		{"negative limit", "/events?page=1&limit=-5"},
		{"missing params", "/events"},
		{"non-numeric", "/events?page=abc&limit=10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&fakeService{})

			req := authedRequest(t, http.MethodGet, tt.target, "", "user-1")
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetEvent(t *testing.T) {
	eventID := uuid.NewString()

	t.Run("found", func(t *testing.T) {
		svc := &fakeService{event: testEvent(eventID)}
		router := newRouter(svc)

		req := authedRequest(t, http.MethodGet, "/events/"+eventID, "", "user-1")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, eventID, svc.gotEventID)
		assert.Contains(t, rec.Body.String(), `"guests_count":2`)
	})

	t.Run("missing and not-owned read the same", func(t *testing.T) {
		svc := &fakeService{err: events.ErrNotFound}
		router := newRouter(svc)

		req := authedRequest(t, http.MethodGet, "/events/"+eventID, "", "user-1")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Event not found or you are not authorized")
	})

	t.Run("non-uuid id", func(t *testing.T) {
		router := newRouter(&fakeService{})

		req := authedRequest(t, http.MethodGet, "/events/not-a-uuid", "", "user-1")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Event id must be a UUID")
	})
}

func TestDeleteEvent(t *testing.T) {
	eventID := uuid.NewString()
	svc := &fakeService{}
	router := newRouter(svc)

	req := authedRequest(t, http.MethodDelete, "/events/"+eventID, "", "user-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, eventID, svc.gotEventID)
}

func TestEventsRequireSession(t *testing.T) {
	router := newRouter(&fakeService{})

	t.Run("no token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/events?page=1&limit=10", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with the wrong secret", func(t *testing.T) {
		token, err := jwt.NewSessionToken("user-1", "johndoe", "other-secret", time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/events?page=1&limit=10", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
