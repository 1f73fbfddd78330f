// Package guests serves the /events/{eventID}/guests surface. Listing,
// upsert, and delete require the organizer's session; the RSVP endpoint is
// reached with a guest magic-link token instead.
package guests

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"event_service/internal/guests"
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

type Guest struct {
	ID         string             `json:"id"`
	EventID    string             `json:"event_id"`
	FirstName  string             `json:"first_name"`
	LastName   string             `json:"last_name"`
	Email      *string            `json:"email,omitempty"`
	RSVPStatus *models.RSVPStatus `json:"rsvp_status"`
}

type Response struct {
	resp.Response
	Guest Guest `json:"guest"`
}

type ListResponse struct {
	resp.Response
	Guests []Guest         `json:"guests"`
	Meta   pagination.Meta `json:"meta"`
}

type UpsertRequest struct {
	FirstName  string  `json:"first_name" validate:"required,max=100"`
	LastName   string  `json:"last_name" validate:"required,max=100"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	RSVPStatus *string `json:"rsvp_status,omitempty" validate:"omitempty,oneof=pending accepted rejected"`
}

type RSVPRequest struct {
	RSVPStatus string `json:"rsvp_status" validate:"required,oneof=pending accepted rejected"`
}

type Service interface {
	List(ctx context.Context, organizerID, eventID string, filter guests.Filter, p pagination.Params, withTotal bool) ([]models.Guest, pagination.Meta, error)
	Upsert(ctx context.Context, organizerID, eventID, guestID string, in guests.UpsertInput) (*models.Guest, bool, error)
	UpdateRSVP(ctx context.Context, guestID, eventID string, status models.RSVPStatus) (*models.Guest, error)
	Delete(ctx context.Context, organizerID, eventID, guestID string) error
}

// listLimit caps the unfiltered listing; the search endpoint honors the
// client's limit instead.
const listLimit = 100

func NewList(log *slog.Logger, svc Service) http.HandlerFunc {
	return list(log, svc, false)
}

func NewSearch(log *slog.Logger, svc Service) http.HandlerFunc {
	return list(log, svc, true)
}

func list(log *slog.Logger, svc Service, search bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.guests.list"

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

		eventID, ok := uuidParam(w, r, "eventID")
		if !ok {
			return
		}

		params, err := pagination.ParseQuery(r.URL.Query())
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error(err.Error()))

			return
		}

		filter := guests.Filter{}
		if search {
			filter.FirstName = r.URL.Query().Get("first_name")
			filter.LastName = r.URL.Query().Get("last_name")
		} else {
			params.Limit = listLimit
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		items, meta, err := svc.List(ctx, organizerID, eventID, filter, params, true)
		if err != nil {
			log.Error("failed to list guests", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		views := make([]Guest, 0, len(items))
		for i := range items {
			views = append(views, toView(&items[i]))
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Guests:   views,
			Meta:     meta,
		})
	}
}

func NewUpsert(log *slog.Logger, validate *validator.Validate, svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.guests.NewUpsert"

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

		eventID, ok := uuidParam(w, r, "eventID")
		if !ok {
			return
		}
		guestID, ok := uuidParam(w, r, "guestID")
		if !ok {
			return
		}

		var req UpsertRequest

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

		in := guests.UpsertInput{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
		}
		if req.RSVPStatus != nil {
			status := models.RSVPStatus(*req.RSVPStatus)
			in.RSVPStatus = &status
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		guest, created, err := svc.Upsert(ctx, organizerID, eventID, guestID, in)
		if err != nil {
			switch {
			case errors.Is(err, guests.ErrEventNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Event not found or you are not authorized to change this event"))
			case errors.Is(err, guests.ErrDuplicateName):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error("Guest name already on the list"))
			case errors.Is(err, guests.ErrInvalidRSVP):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Invalid rsvp status"))
			default:
				log.Error("failed to upsert guest", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		log.Info("Guest upserted", slog.String("guest_id", guest.ID))

		if created {
			render.Status(r, http.StatusCreated)
		}
		render.JSON(w, r, Response{
			Response: resp.OK(),
			Guest:    toView(guest),
		})
	}
}

// NewRSVP updates the RSVP status on behalf of a guest principal. The event
// in the URL must match the one the guest token was issued for.
func NewRSVP(log *slog.Logger, validate *validator.Validate, svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.guests.NewRSVP"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		principal, ok := authn.CurrentGuest(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthorized"))

			return
		}

		eventID, ok := uuidParam(w, r, "eventID")
		if !ok {
			return
		}

		if principal.EventID != eventID {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, resp.Error("Forbidden"))

			return
		}

		var req RSVPRequest

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

		guest, err := svc.UpdateRSVP(ctx, principal.GuestID, eventID, models.RSVPStatus(req.RSVPStatus))
		if err != nil {
			switch {
			case errors.Is(err, guests.ErrNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Guest not found"))
			case errors.Is(err, guests.ErrInvalidRSVP):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Invalid rsvp status"))
			default:
				log.Error("failed to update rsvp", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		log.Info("RSVP updated", slog.String("guest_id", guest.ID))

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Guest:    toView(guest),
		})
	}
}

func NewDelete(log *slog.Logger, svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.guests.NewDelete"

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

		eventID, ok := uuidParam(w, r, "eventID")
		if !ok {
			return
		}
		guestID, ok := uuidParam(w, r, "guestID")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := svc.Delete(ctx, organizerID, eventID, guestID); err != nil {
			if errors.Is(err, guests.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Guest not found or you are not authorized to change this event"))

				return
			}

			log.Error("failed to delete guest", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Guest deleted", slog.String("guest_id", guestID))

		render.NoContent(w, r)
	}
}

func toView(g *models.Guest) Guest {
	return Guest{
		ID:         g.ID,
		EventID:    g.EventID,
		FirstName:  g.FirstName,
		LastName:   g.LastName,
		Email:      g.Email,
		RSVPStatus: g.RSVPStatus,
	}
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := chi.URLParam(r, name)
	if _, err := uuid.Parse(id); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("Path params must be UUIDs"))

		return "", false
	}

	return id, true
}
