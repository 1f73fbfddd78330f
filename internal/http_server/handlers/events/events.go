// Package events serves the /events CRUD surface. All operations act on
// behalf of the authenticated organizer.
package events

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"event_service/internal/events"
	"event_service/internal/http_server/middleware/authn"
	resp "event_service/internal/lib/api/response"
	sl "event_service/internal/lib/logger"
	"event_service/internal/lib/pagination"
	"event_service/internal/models"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Event struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	When           time.Time `json:"when"`
	Address        string    `json:"address"`
	GuestsCount    int64     `json:"guests_count"`
	GuestsAccepted int64     `json:"guests_accepted"`
	GuestsRejected int64     `json:"guests_rejected"`
	GuestsPending  int64     `json:"guests_pending"`
}

type Response struct {
	resp.Response
	Event Event `json:"event"`
}

type ListResponse struct {
	resp.Response
	Events []Event         `json:"events"`
	Meta   pagination.Meta `json:"meta"`
}

type CreateRequest struct {
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description" validate:"required"`
	When        time.Time `json:"when" validate:"required"`
	Address     string    `json:"address" validate:"required"`
}

type UpdateRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string    `json:"description,omitempty"`
	When        *time.Time `json:"when,omitempty"`
	Address     *string    `json:"address,omitempty"`
}

type Service interface {
	Create(ctx context.Context, organizerID string, in events.CreateInput) (*models.Event, error)
	List(ctx context.Context, organizerID string, p pagination.Params, withTotal bool) ([]models.Event, pagination.Meta, error)
	Get(ctx context.Context, id, organizerID string) (*models.Event, error)
	Update(ctx context.Context, id, organizerID string, in events.UpdateInput) (*models.Event, error)
	Delete(ctx context.Context, id, organizerID string) error
}

func NewCreate(log *slog.Logger, validate *validator.Validate, svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.NewCreate"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		organizerID, ok := authn.UserID(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthorized"))

			return
		}

		var req CreateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		event, err := svc.Create(ctx, organizerID, events.CreateInput{
			Name:        req.Name,
			Description: req.Description,
			When:        req.When,
			Address:     req.Address,
		})
		if err != nil {
			if errors.Is(err, events.ErrNameTaken) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error("Event already exists"))

				return
			}

			log.Error("failed to create event", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Event created", slog.String("event_id", event.ID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response: resp.OK(),
			Event:    toView(event),
		})
	}
}

func NewList(log *slog.Logger, svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.NewList"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		organizerID, ok := authn.UserID(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthorized"))

			return
		}

		params, err := pagination.ParseQuery(r.URL.Query())
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error(err.Error()))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		items, meta, err := svc.List(ctx, organizerID, params, true)
		if err != nil {
			log.Error("failed to list events", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		views := make([]Event, 0, len(items))
		for i := range items {
			views = append(views, toView(&items[i]))
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Events:   views,
			Meta:     meta,
		})
	}
}

func NewGet(log *slog.Logger, svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.NewGet"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		organizerID, ok := authn.UserID(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthorized"))

			return
		}

		eventID, ok := eventIDParam(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		event, err := svc.Get(ctx, eventID, organizerID)
		if err != nil {
			if errors.Is(err, events.ErrNotFound) {
				notFound(w, r)

				return
			}

			log.Error("failed to get event", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Event:    toView(event),
		})
	}
}

func NewUpdate(log *slog.Logger, validate *validator.Validate, svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.NewUpdate"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		organizerID, ok := authn.UserID(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthorized"))

			return
		}

		eventID, ok := eventIDParam(w, r)
		if !ok {
			return
		}

		var req UpdateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		event, err := svc.Update(ctx, eventID, organizerID, events.UpdateInput{
			Name:        req.Name,
			Description: req.Description,
			When:        req.When,
			Address:     req.Address,
		})
		if err != nil {
			switch {
			case errors.Is(err, events.ErrNotFound):
				notFound(w, r)
			case errors.Is(err, events.ErrNameTaken):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error("Event already exists"))
			default:
				log.Error("failed to update event", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		log.Info("Event updated", slog.String("event_id", event.ID))

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Event:    toView(event),
		})
	}
}

func NewDelete(log *slog.Logger, svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.NewDelete"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		organizerID, ok := authn.UserID(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthorized"))

			return
		}

		eventID, ok := eventIDParam(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := svc.Delete(ctx, eventID, organizerID); err != nil {
			if errors.Is(err, events.ErrNotFound) {
				notFound(w, r)

				return
			}

			log.Error("failed to delete event", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Event deleted", slog.String("event_id", eventID))

		render.NoContent(w, r)
	}
}

func toView(e *models.Event) Event {
	return Event{
		ID:             e.ID,
		Name:           e.Name,
		Description:    e.Description,
		When:           e.When,
		Address:        e.Address,
		GuestsCount:    e.GuestsCount,
		GuestsAccepted: e.GuestsAccepted,
		GuestsRejected: e.GuestsRejected,
		GuestsPending:  e.GuestsPending,
	}
}

func eventIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "eventID")
	if _, err := uuid.Parse(id); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("Event id must be a UUID"))

		return "", false
	}

	return id, true
}

// notFound collapses missing and not-owned into one response so the surface
// does not leak resource existence.
func notFound(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, resp.Error("Event not found or you are not authorized to change this event"))
}
