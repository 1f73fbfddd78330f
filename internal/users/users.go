// Package users implements the self-service profile operations.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"event_service/internal/lib/hash"
	sl "event_service/internal/lib/logger"
	"event_service/internal/models"
	"event_service/internal/storage"
	storepg "event_service/internal/storage/postgres"
)

var (
	ErrNotFound = errors.New("user not found")
	ErrInUse    = errors.New("username or email already in use")
)

type Storage interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, userID string, upd storepg.UserUpdate) error
	DeleteUser(ctx context.Context, userID string) error
}

type Users struct {
	log     *slog.Logger
	storage Storage
}

func New(log *slog.Logger, storage Storage) *Users {
	return &Users{log: log, storage: storage}
}

func (u *Users) Profile(ctx context.Context, userID string) (*models.User, error) {
	const op = "users.Profile"

	user, err := u.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrNotFound
		}

		u.log.Error("failed to get user", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

type UpdateInput struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Password  *string
}

func (u *Users) UpdateProfile(ctx context.Context, userID string, in UpdateInput) error {
	const op = "users.UpdateProfile"

	log := u.log.With(slog.String("op", op))

	upd := storepg.UserUpdate{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}

	if in.Password != nil {
		passHash, err := hash.Password(*in.Password)
		if err != nil {
			log.Error("failed to generate password hash", sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
		upd.PassHash = passHash
	}

	if err := u.storage.UpdateUser(ctx, userID, upd); err != nil {
		switch {
		case errors.Is(err, storage.ErrUserNotFound):
			return ErrNotFound
		case errors.Is(err, storage.ErrUserExists):
			return ErrInUse
		}

		log.Error("failed to update user", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("profile updated", slog.String("uid", userID))

	return nil
}

// DeleteProfile removes the user; owned events and their guests go with it
// via cascade.
func (u *Users) DeleteProfile(ctx context.Context, userID string) error {
	const op = "users.DeleteProfile"

	if err := u.storage.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrNotFound
		}

		u.log.Error("failed to delete user", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	u.log.Info("profile deleted", slog.String("op", op), slog.String("uid", userID))

	return nil
}
