package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"event_service/internal/models"
	"event_service/internal/storage"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, email, first_name, last_name, password_hash, refresh_token_hash, created_at, updated_at`

func (s *Storage) SaveUser(ctx context.Context, u *models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (id, username, email, first_name, last_name, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6);
	`

	_, err := s.db.Exec(ctx, query, u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.PassHash)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserExists
		}

		return fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	return nil
}

func (s *Storage) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1;`

	return s.scanUser(s.db.QueryRow(ctx, query, username))
}

func (s *Storage) UserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1;`

	return s.scanUser(s.db.QueryRow(ctx, query, id))
}

func (s *Storage) scanUser(row pgx.Row) (*models.User, error) {
	var u models.User

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.PassHash,
		&u.RefreshTokenHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}

		return nil, err
	}

	return &u, nil
}

// UserUpdate carries the optional profile fields of a PATCH; nil means keep.
type UserUpdate struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	PassHash  []byte
}

// UpdateUser applies a partial profile update. The ownership predicate is the
// id itself: profile updates are self-service only.
func (s *Storage) UpdateUser(ctx context.Context, userID string, upd UserUpdate) error {
	const op = "storage.postgres.UpdateUser"

	set := []string{"updated_at = NOW()"}
	args := []any{userID}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Username != nil {
		add("username", *upd.Username)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.PassHash != nil {
		add("password_hash", upd.PassHash)
	}

	query := `UPDATE users SET ` + strings.Join(set, ", ") + ` WHERE id = $1;`

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserExists
		}

		return fmt.Errorf("%s: failed to update user: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	const op = "storage.postgres.DeleteUser"

	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1;`, userID)
	if err != nil {
		return fmt.Errorf("%s: failed to delete user: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// SetRefreshTokenHash overwrites the stored refresh-token hash; nil clears it
// (logout).
func (s *Storage) SetRefreshTokenHash(ctx context.Context, userID string, tokenHash *string) error {
	const op = "storage.postgres.SetRefreshTokenHash"

	query := `UPDATE users SET refresh_token_hash = $2, updated_at = NOW() WHERE id = $1;`

	tag, err := s.db.Exec(ctx, query, userID, tokenHash)
	if err != nil {
		return fmt.Errorf("%s: failed to set refresh token hash: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// RotateRefreshTokenHash replaces the stored hash only if it still equals
// oldHash, so two concurrent refreshes with the same token cannot both win.
func (s *Storage) RotateRefreshTokenHash(ctx context.Context, userID, oldHash, newHash string) error {
	const op = "storage.postgres.RotateRefreshTokenHash"

	query := `
		UPDATE users SET refresh_token_hash = $3, updated_at = NOW()
		WHERE id = $1 AND refresh_token_hash = $2;
	`

	tag, err := s.db.Exec(ctx, query, userID, oldHash, newHash)
	if err != nil {
		return fmt.Errorf("%s: failed to rotate refresh token hash: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrStaleRefreshToken
	}

	return nil
}
