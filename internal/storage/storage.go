package storage

import "errors"

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("user already exists")
	ErrEventNotFound = errors.New("event not found")
	ErrEventExists   = errors.New("event already exists")
	ErrGuestNotFound = errors.New("guest not found")
	ErrGuestExists   = errors.New("guest already exists")

	// ErrStaleRefreshToken is returned when a conditional refresh-token
	// rotation matches no row, i.e. the stored hash changed between the
	// verify and the update.
	ErrStaleRefreshToken = errors.New("stale refresh token")
)
