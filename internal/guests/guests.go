// Package guests implements guest-list management. Organizer operations are
// scoped through the owning event; the RSVP update is the one operation a
// guest principal may perform, and it touches only the RSVP column.
package guests

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"event_service/internal/lib/pagination"
	sl "event_service/internal/lib/logger"
	"event_service/internal/models"
	"event_service/internal/storage"
	storepg "event_service/internal/storage/postgres"
)

var (
	ErrNotFound      = errors.New("guest not found")
	ErrEventNotFound = errors.New("event not found")
	ErrDuplicateName = errors.New("guest name already on the list")
	ErrInvalidRSVP   = errors.New("invalid rsvp status")
)

type Storage interface {
	GuestByIDForEvent(ctx context.Context, guestID, eventID string) (*models.Guest, error)
	GuestsByEvent(ctx context.Context, eventID, organizerID string, filter storepg.GuestFilter, p pagination.Params, withTotal bool) ([]models.Guest, pagination.Meta, error)
	SaveGuest(ctx context.Context, g *models.Guest, organizerID string) error
	UpdateGuest(ctx context.Context, guestID, eventID, organizerID string, upd storepg.GuestUpdate) error
	UpdateGuestRSVP(ctx context.Context, guestID, eventID string, status models.RSVPStatus) error
	DeleteGuest(ctx context.Context, guestID, eventID, organizerID string) error
}

type Guests struct {
	log     *slog.Logger
	storage Storage
}

func New(log *slog.Logger, storage Storage) *Guests {
	return &Guests{log: log, storage: storage}
}

// Filter narrows a listing by name prefixes; empty fields match everything.
type Filter struct {
	FirstName string
	LastName  string
}

func (g *Guests) List(
	ctx context.Context,
	organizerID, eventID string,
	filter Filter,
	p pagination.Params,
	withTotal bool,
) ([]models.Guest, pagination.Meta, error) {
	const op = "guests.List"

	items, meta, err := g.storage.GuestsByEvent(ctx, eventID, organizerID,
		storepg.GuestFilter{FirstName: filter.FirstName, LastName: filter.LastName},
		p, withTotal,
	)
	if err != nil {
		g.log.Error("failed to list guests", slog.String("op", op), sl.Err(err))
		return nil, pagination.Meta{}, fmt.Errorf("%s: %w", op, err)
	}

	return items, meta, nil
}

// UpsertInput is the full replacement state a PUT carries.
type UpsertInput struct {
	FirstName  string
	LastName   string
	Email      *string
	RSVPStatus *models.RSVPStatus
}

// Upsert updates the guest when it exists under the organizer's event, and
// creates it under the supplied id otherwise. Returns whether a new guest
// was created.
func (g *Guests) Upsert(
	ctx context.Context,
	organizerID, eventID, guestID string,
	in UpsertInput,
) (*models.Guest, bool, error) {
	const op = "guests.Upsert"

	log := g.log.With(slog.String("op", op))

	if in.RSVPStatus != nil && !in.RSVPStatus.Valid() {
		return nil, false, ErrInvalidRSVP
	}

	err := g.storage.UpdateGuest(ctx, guestID, eventID, organizerID, storepg.GuestUpdate{
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      in.Email,
		RSVPStatus: in.RSVPStatus,
	})

	created := false
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrGuestNotFound):
		created = true
		guest := &models.Guest{
			ID:         guestID,
			EventID:    eventID,
			FirstName:  in.FirstName,
			LastName:   in.LastName,
			Email:      in.Email,
			RSVPStatus: in.RSVPStatus,
		}

		if err := g.storage.SaveGuest(ctx, guest, organizerID); err != nil {
			switch {
			case errors.Is(err, storage.ErrEventNotFound):
				return nil, false, ErrEventNotFound
			case errors.Is(err, storage.ErrGuestExists):
				return nil, false, ErrDuplicateName
			}

			log.Error("failed to save guest", sl.Err(err))
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
	case errors.Is(err, storage.ErrGuestExists):
		return nil, false, ErrDuplicateName
	default:
		log.Error("failed to update guest", sl.Err(err))
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	guest, err := g.storage.GuestByIDForEvent(ctx, guestID, eventID)
	if err != nil {
		log.Error("failed to reload guest", sl.Err(err))
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("guest upserted", slog.String("guest_id", guestID), slog.Bool("created", created))

	return guest, created, nil
}

// UpdateRSVP is the guest-principal path: only the RSVP status changes, and
// only within the event the guest token was issued for.
func (g *Guests) UpdateRSVP(ctx context.Context, guestID, eventID string, status models.RSVPStatus) (*models.Guest, error) {
	const op = "guests.UpdateRSVP"

	log := g.log.With(slog.String("op", op))

	if !status.Valid() {
		return nil, ErrInvalidRSVP
	}

	if err := g.storage.UpdateGuestRSVP(ctx, guestID, eventID, status); err != nil {
		if errors.Is(err, storage.ErrGuestNotFound) {
			return nil, ErrNotFound
		}

		log.Error("failed to update rsvp status", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	guest, err := g.storage.GuestByIDForEvent(ctx, guestID, eventID)
	if err != nil {
		log.Error("failed to reload guest", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("rsvp updated", slog.String("guest_id", guestID), slog.String("status", string(status)))

	return guest, nil
}

func (g *Guests) Delete(ctx context.Context, organizerID, eventID, guestID string) error {
	const op = "guests.Delete"

	if err := g.storage.DeleteGuest(ctx, guestID, eventID, organizerID); err != nil {
		if errors.Is(err, storage.ErrGuestNotFound) {
			return ErrNotFound
		}

		g.log.Error("failed to delete guest", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	g.log.Info("guest deleted", slog.String("op", op), slog.String("guest_id", guestID))

	return nil
}
