package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"event_service/internal/lib/pagination"
	"event_service/internal/models"
	"event_service/internal/storage"

	"github.com/jackc/pgx/v5"
)

// eventWithCounts selects an event row plus its per-query RSVP aggregates.
// The counts are never stored; recomputing them on every read keeps them
// consistent with the guest table.
const eventWithCounts = `
	SELECT e.id, e.organizer_id, e.name, e.description, e.when_at, e.address,
	       e.created_at, e.updated_at,
	       COUNT(g.id) AS guests_count,
	       COUNT(g.id) FILTER (WHERE g.rsvp_status = 'accepted') AS guests_accepted,
	       COUNT(g.id) FILTER (WHERE g.rsvp_status = 'rejected') AS guests_rejected,
	       COUNT(g.id) FILTER (WHERE g.rsvp_status = 'pending') AS guests_pending
	FROM events e
	LEFT JOIN guests g ON g.event_id = e.id
`

func (s *Storage) SaveEvent(ctx context.Context, e *models.Event) error {
	const op = "storage.postgres.SaveEvent"

	query := `
		INSERT INTO events (id, organizer_id, name, description, when_at, address)
		VALUES ($1, $2, $3, $4, $5, $6);
	`

	_, err := s.db.Exec(ctx, query, e.ID, e.OrganizerID, e.Name, e.Description, e.When, e.Address)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrEventExists
		}

		return fmt.Errorf("%s: failed to save event: %w", op, err)
	}

	return nil
}

func (s *Storage) EventByID(ctx context.Context, id, organizerID string) (*models.Event, error) {
	query := eventWithCounts + `
		WHERE e.id = $1 AND e.organizer_id = $2
		GROUP BY e.id;
	`

	e, err := scanEvent(s.db.QueryRow(ctx, query, id, organizerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrEventNotFound
		}

		return nil, err
	}

	return e, nil
}

func (s *Storage) EventsByOrganizer(
	ctx context.Context,
	organizerID string,
	p pagination.Params,
	withTotal bool,
) ([]models.Event, pagination.Meta, error) {
	const op = "storage.postgres.EventsByOrganizer"

	query := eventWithCounts + `
		WHERE e.organizer_id = $1
		GROUP BY e.id
		ORDER BY e.when_at DESC
		LIMIT $2 OFFSET $3;
	`

	rows, err := s.db.Query(ctx, query, organizerID, p.Limit, p.Offset())
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, pagination.Meta{}, fmt.Errorf("%s: %w", op, err)
		}
		events = append(events, *e)
	}
	if rows.Err() != nil {
		return nil, pagination.Meta{}, fmt.Errorf("%s: %w", op, rows.Err())
	}

	var total *int64
	if withTotal {
		var n int64
		err := s.db.QueryRow(ctx,
			`SELECT COUNT(*) FROM events WHERE organizer_id = $1;`, organizerID,
		).Scan(&n)
		if err != nil {
			return nil, pagination.Meta{}, fmt.Errorf("%s: failed to count events: %w", op, err)
		}
		total = &n
	}

	return events, pagination.NewMeta(p, len(events), total), nil
}

// EventUpdate carries the optional fields of an event PATCH; nil means keep.
type EventUpdate struct {
	Name        *string
	Description *string
	When        *time.Time
	Address     *string
}

// UpdateEvent mutates the event in a single statement carrying the ownership
// predicate, so the affected-row count is the sole authorization signal.
func (s *Storage) UpdateEvent(ctx context.Context, id, organizerID string, upd EventUpdate) error {
	const op = "storage.postgres.UpdateEvent"

	set := []string{"updated_at = NOW()"}
	args := []any{id, organizerID}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.When != nil {
		add("when_at", *upd.When)
	}
	if upd.Address != nil {
		add("address", *upd.Address)
	}

	query := `UPDATE events SET ` + strings.Join(set, ", ") + ` WHERE id = $1 AND organizer_id = $2;`

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrEventExists
		}

		return fmt.Errorf("%s: failed to update event: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrEventNotFound
	}

	return nil
}

func (s *Storage) DeleteEvent(ctx context.Context, id, organizerID string) error {
	const op = "storage.postgres.DeleteEvent"

	tag, err := s.db.Exec(ctx,
		`DELETE FROM events WHERE id = $1 AND organizer_id = $2;`, id, organizerID,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to delete event: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrEventNotFound
	}

	return nil
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event

	err := row.Scan(
		&e.ID,
		&e.OrganizerID,
		&e.Name,
		&e.Description,
		&e.When,
		&e.Address,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.GuestsCount,
		&e.GuestsAccepted,
		&e.GuestsRejected,
		&e.GuestsPending,
	)
	if err != nil {
		return nil, err
	}

	return &e, nil
}
