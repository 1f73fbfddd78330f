// Package events implements the organizer-scoped event operations. Every
// query and mutation carries the organizer predicate down into the store, so
// an affected-row count of zero means not-found-or-forbidden, collapsed.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"event_service/internal/lib/pagination"
	sl "event_service/internal/lib/logger"
	"event_service/internal/models"
	"event_service/internal/storage"
	storepg "event_service/internal/storage/postgres"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("event not found")
	ErrNameTaken = errors.New("event already exists")
)

type Storage interface {
	SaveEvent(ctx context.Context, e *models.Event) error
	EventByID(ctx context.Context, id, organizerID string) (*models.Event, error)
	EventsByOrganizer(ctx context.Context, organizerID string, p pagination.Params, withTotal bool) ([]models.Event, pagination.Meta, error)
	UpdateEvent(ctx context.Context, id, organizerID string, upd storepg.EventUpdate) error
	DeleteEvent(ctx context.Context, id, organizerID string) error
}

type Events struct {
	log     *slog.Logger
	storage Storage
}

func New(log *slog.Logger, storage Storage) *Events {
	return &Events{log: log, storage: storage}
}

type CreateInput struct {
	Name        string
	Description string
	When        time.Time
	Address     string
}

func (e *Events) Create(ctx context.Context, organizerID string, in CreateInput) (*models.Event, error) {
	const op = "events.Create"

	log := e.log.With(slog.String("op", op))

	event := &models.Event{
		ID:          uuid.NewString(),
		OrganizerID: organizerID,
		Name:        in.Name,
		Description: in.Description,
		When:        in.When,
		Address:     in.Address,
	}

	if err := e.storage.SaveEvent(ctx, event); err != nil {
		if errors.Is(err, storage.ErrEventExists) {
			return nil, ErrNameTaken
		}

		log.Error("failed to save event", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("event created", slog.String("event_id", event.ID))

	return e.Get(ctx, event.ID, organizerID)
}

func (e *Events) List(
	ctx context.Context,
	organizerID string,
	p pagination.Params,
	withTotal bool,
) ([]models.Event, pagination.Meta, error) {
	const op = "events.List"

	items, meta, err := e.storage.EventsByOrganizer(ctx, organizerID, p, withTotal)
	if err != nil {
		e.log.Error("failed to list events", slog.String("op", op), sl.Err(err))
		return nil, pagination.Meta{}, fmt.Errorf("%s: %w", op, err)
	}

	return items, meta, nil
}

func (e *Events) Get(ctx context.Context, id, organizerID string) (*models.Event, error) {
	const op = "events.Get"

	event, err := e.storage.EventByID(ctx, id, organizerID)
	if err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			return nil, ErrNotFound
		}

		e.log.Error("failed to get event", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return event, nil
}

type UpdateInput struct {
	Name        *string
	Description *string
	When        *time.Time
	Address     *string
}

func (e *Events) Update(ctx context.Context, id, organizerID string, in UpdateInput) (*models.Event, error) {
	const op = "events.Update"

	log := e.log.With(slog.String("op", op))

	upd := storepg.EventUpdate{
		Name:        in.Name,
		Description: in.Description,
		When:        in.When,
		Address:     in.Address,
	}

	if err := e.storage.UpdateEvent(ctx, id, organizerID, upd); err != nil {
		switch {
		case errors.Is(err, storage.ErrEventNotFound):
			return nil, ErrNotFound
		case errors.Is(err, storage.ErrEventExists):
			return nil, ErrNameTaken
		}

		log.Error("failed to update event", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return e.Get(ctx, id, organizerID)
}

func (e *Events) Delete(ctx context.Context, id, organizerID string) error {
	const op = "events.Delete"

	if err := e.storage.DeleteEvent(ctx, id, organizerID); err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			return ErrNotFound
		}

		e.log.Error("failed to delete event", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	e.log.Info("event deleted", slog.String("op", op), slog.String("event_id", id))

	return nil
}
