package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"event_service/internal/lib/pagination"
	"event_service/internal/models"
	"event_service/internal/storage"

	"github.com/jackc/pgx/v5"
)

const guestColumns = `g.id, g.event_id, g.first_name, g.last_name, g.email, g.rsvp_status, g.created_at, g.updated_at`

func (s *Storage) GuestByID(ctx context.Context, id string) (*models.Guest, error) {
	query := `SELECT ` + guestColumns + ` FROM guests g WHERE g.id = $1;`

	return s.scanGuest(s.db.QueryRow(ctx, query, id))
}

// GuestByIDForEvent resolves a guest within a single event, without an
// ownership predicate: it backs the public magic-link issuance and the
// guest-token verification.
func (s *Storage) GuestByIDForEvent(ctx context.Context, guestID, eventID string) (*models.Guest, error) {
	query := `SELECT ` + guestColumns + ` FROM guests g WHERE g.id = $1 AND g.event_id = $2;`

	return s.scanGuest(s.db.QueryRow(ctx, query, guestID, eventID))
}

// GuestFilter narrows a guest listing; empty fields match everything.
type GuestFilter struct {
	FirstName string
	LastName  string
}

func (s *Storage) GuestsByEvent(
	ctx context.Context,
	eventID, organizerID string,
	filter GuestFilter,
	p pagination.Params,
	withTotal bool,
) ([]models.Guest, pagination.Meta, error) {
	const op = "storage.postgres.GuestsByEvent"

	where := []string{"g.event_id = e.id", "e.id = $1", "e.organizer_id = $2"}
	args := []any{eventID, organizerID}

	if filter.FirstName != "" {
		args = append(args, filter.FirstName+"%")
		where = append(where, fmt.Sprintf("g.first_name ILIKE $%d", len(args)))
	}
	if filter.LastName != "" {
		args = append(args, filter.LastName+"%")
		where = append(where, fmt.Sprintf("g.last_name ILIKE $%d", len(args)))
	}

	countQuery := `SELECT COUNT(*) FROM guests g, events e WHERE ` + strings.Join(where, " AND ") + `;`

	query := `SELECT ` + guestColumns + `
		FROM guests g, events e
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY g.last_name, g.first_name
		LIMIT ` + fmt.Sprintf("$%d OFFSET $%d;", len(args)+1, len(args)+2)

	rows, err := s.db.Query(ctx, query, append(args, p.Limit, p.Offset())...)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	guests := []models.Guest{}
	for rows.Next() {
		var g models.Guest
		if err := rows.Scan(
			&g.ID, &g.EventID, &g.FirstName, &g.LastName,
			&g.Email, &g.RSVPStatus, &g.CreatedAt, &g.UpdatedAt,
		); err != nil {
			return nil, pagination.Meta{}, fmt.Errorf("%s: %w", op, err)
		}
		guests = append(guests, g)
	}
	if rows.Err() != nil {
		return nil, pagination.Meta{}, fmt.Errorf("%s: %w", op, rows.Err())
	}

	var total *int64
	if withTotal {
		var n int64
		if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&n); err != nil {
			return nil, pagination.Meta{}, fmt.Errorf("%s: failed to count guests: %w", op, err)
		}
		total = &n
	}

	return guests, pagination.NewMeta(p, len(guests), total), nil
}

// SaveGuest inserts a guest only when the target event belongs to the
// organizer: the ownership check rides inside the INSERT ... SELECT, so a
// forged event id inserts nothing.
func (s *Storage) SaveGuest(ctx context.Context, g *models.Guest, organizerID string) error {
	const op = "storage.postgres.SaveGuest"

	query := `
		INSERT INTO guests (id, event_id, first_name, last_name, email, rsvp_status)
		SELECT $1, e.id, $3, $4, $5, $6
		FROM events e
		WHERE e.id = $2 AND e.organizer_id = $7;
	`

	tag, err := s.db.Exec(ctx, query,
		g.ID, g.EventID, g.FirstName, g.LastName, g.Email, g.RSVPStatus, organizerID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrGuestExists
		}

		return fmt.Errorf("%s: failed to save guest: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrEventNotFound
	}

	return nil
}

// GuestUpdate carries the replaceable guest fields of a PUT.
type GuestUpdate struct {
	FirstName  string
	LastName   string
	Email      *string
	RSVPStatus *models.RSVPStatus
}

func (s *Storage) UpdateGuest(ctx context.Context, guestID, eventID, organizerID string, upd GuestUpdate) error {
	const op = "storage.postgres.UpdateGuest"

	query := `
		UPDATE guests g
		SET first_name = $4, last_name = $5, email = $6, rsvp_status = $7, updated_at = NOW()
		FROM events e
		WHERE g.id = $1 AND g.event_id = e.id AND e.id = $2 AND e.organizer_id = $3;
	`

	tag, err := s.db.Exec(ctx, query,
		guestID, eventID, organizerID, upd.FirstName, upd.LastName, upd.Email, upd.RSVPStatus,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrGuestExists
		}

		return fmt.Errorf("%s: failed to update guest: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrGuestNotFound
	}

	return nil
}

// UpdateGuestRSVP touches only the RSVP column, scoped to the event carried
// by the guest token.
func (s *Storage) UpdateGuestRSVP(ctx context.Context, guestID, eventID string, status models.RSVPStatus) error {
	const op = "storage.postgres.UpdateGuestRSVP"

	query := `
		UPDATE guests SET rsvp_status = $3, updated_at = NOW()
		WHERE id = $1 AND event_id = $2;
	`

	tag, err := s.db.Exec(ctx, query, guestID, eventID, status)
	if err != nil {
		return fmt.Errorf("%s: failed to update rsvp status: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrGuestNotFound
	}

	return nil
}

func (s *Storage) DeleteGuest(ctx context.Context, guestID, eventID, organizerID string) error {
	const op = "storage.postgres.DeleteGuest"

	query := `
		DELETE FROM guests g
		USING events e
		WHERE g.id = $1 AND g.event_id = e.id AND e.id = $2 AND e.organizer_id = $3;
	`

	tag, err := s.db.Exec(ctx, query, guestID, eventID, organizerID)
	if err != nil {
		return fmt.Errorf("%s: failed to delete guest: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrGuestNotFound
	}

	return nil
}

func (s *Storage) scanGuest(row pgx.Row) (*models.Guest, error) {
	var g models.Guest

	err := row.Scan(
		&g.ID,
		&g.EventID,
		&g.FirstName,
		&g.LastName,
		&g.Email,
		&g.RSVPStatus,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrGuestNotFound
		}

		return nil, err
	}

	return &g, nil
}
