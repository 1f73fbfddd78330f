package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"event_service/internal/config"
	"event_service/internal/lib/hash"
	"event_service/internal/lib/jwt"
	sl "event_service/internal/lib/logger"
	"event_service/internal/models"
	"event_service/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrPasswordMismatch     = errors.New("passwords are not identical")
	ErrUserExists           = errors.New("username or email already in use")
	ErrSessionExpired       = errors.New("session expired")
	ErrRefreshTokenMismatch = errors.New("refresh token mismatch")
	ErrGuestNotFound        = errors.New("guest not found")
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type UserSaver interface {
	SaveUser(ctx context.Context, u *models.User) error
	SetRefreshTokenHash(ctx context.Context, userID string, tokenHash *string) error
	RotateRefreshTokenHash(ctx context.Context, userID, oldHash, newHash string) error
}

type UserProvider interface {
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByID(ctx context.Context, id string) (*models.User, error)
}

type GuestProvider interface {
	GuestByID(ctx context.Context, id string) (*models.Guest, error)
	GuestByIDForEvent(ctx context.Context, guestID, eventID string) (*models.Guest, error)
}

type LinkPublisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	gstProvider GuestProvider
	publisher   LinkPublisher
	tokens      config.Tokens
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	guestProvider GuestProvider,
	publisher LinkPublisher,
	tokens config.Tokens,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		gstProvider: guestProvider,
		publisher:   publisher,
		tokens:      tokens,
	}
}

// Login checks the credentials and starts a session. A missing user and a
// wrong password produce the same ErrInvalidCredentials.
func (a *Auth) Login(ctx context.Context, username, password string) (TokenPair, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("login for unknown username rejected")
			return TokenPair{}, ErrInvalidCredentials
		}

		log.Error("failed to get user", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if !hash.CheckPassword(user.PassHash, password) {
		log.Info("invalid credentials")
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, err := a.startSession(ctx, user.ID, user.Username)
	if err != nil {
		log.Error("failed to start session", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.String("uid", user.ID))

	return pair, nil
}

// RegisterInput is the candidate user of a registration request.
type RegisterInput struct {
	Username        string
	Email           string
	FirstName       string
	LastName        string
	Password        string
	RetypedPassword string
}

// Register creates the user and starts a session. Uniqueness of username and
// email is detected from the insert's constraint violation, not pre-checked,
// so two concurrent registrations cannot race past an existence check.
func (a *Auth) Register(ctx context.Context, in RegisterInput) (*models.User, TokenPair, error) {
	const op = "auth.Register"

	log := a.log.With(slog.String("op", op))

	if in.Password != in.RetypedPassword {
		return nil, TokenPair{}, ErrPasswordMismatch
	}

	passHash, err := hash.Password(in.Password)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	user := &models.User{
		ID:        uuid.NewString(),
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		PassHash:  passHash,
	}

	if err := a.usrSaver.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			return nil, TokenPair{}, ErrUserExists
		}

		log.Error("failed to save user", sl.Err(err))
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := a.startSession(ctx, user.ID, user.Username)
	if err != nil {
		log.Error("failed to start session", sl.Err(err))
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.String("uid", user.ID))

	return user, pair, nil
}

// Refresh rotates the session tokens. The presented token must match the
// stored hash; the swap is conditional on that hash still being in place,
// so of two concurrent refreshes with the same token at most one wins.
func (a *Auth) Refresh(ctx context.Context, userID, presentedToken string) (TokenPair, error) {
	const op = "auth.Refresh"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return TokenPair{}, ErrSessionExpired
		}

		log.Error("failed to load user", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if user.RefreshTokenHash == nil {
		log.Warn("refresh for logged-out user rejected", slog.String("uid", userID))
		return TokenPair{}, ErrSessionExpired
	}

	ok, err := hash.VerifyToken(*user.RefreshTokenHash, presentedToken)
	if err != nil {
		log.Error("failed to verify refresh token", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		// Possible token theft: a hard rejection, never a retry.
		log.Warn("refresh token does not match stored hash", slog.String("uid", userID))
		return TokenPair{}, ErrRefreshTokenMismatch
	}

	pair, err := a.newTokenPair(user.ID, user.Username)
	if err != nil {
		log.Error("failed to issue tokens", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	newHash, err := hash.Token(pair.RefreshToken)
	if err != nil {
		log.Error("failed to hash refresh token", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	err = a.usrSaver.RotateRefreshTokenHash(ctx, user.ID, *user.RefreshTokenHash, newHash)
	if err != nil {
		if errors.Is(err, storage.ErrStaleRefreshToken) {
			log.Warn("concurrent refresh lost the rotation race", slog.String("uid", userID))
			return TokenPair{}, ErrRefreshTokenMismatch
		}

		log.Error("failed to rotate refresh token", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("refresh successful", slog.String("uid", user.ID))

	return pair, nil
}

// Logout clears the stored refresh-token hash. Logging out an already
// logged-out user, or one that no longer exists, is not an error.
func (a *Auth) Logout(ctx context.Context, userID string) error {
	const op = "auth.Logout"

	log := a.log.With(slog.String("op", op))

	err := a.usrSaver.SetRefreshTokenHash(ctx, userID, nil)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil
		}

		log.Error("failed to clear refresh token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged out successfully", slog.String("uid", userID))

	return nil
}

// GuestMagicLink issues a stateless signed guest token embedded in a URL and,
// when the guest has an email on file, hands the link to the mail queue.
// There is no revocation path and no single-use enforcement.
func (a *Auth) GuestMagicLink(ctx context.Context, guestID, eventID string) (string, error) {
	const op = "auth.GuestMagicLink"

	log := a.log.With(slog.String("op", op))

	guest, err := a.gstProvider.GuestByIDForEvent(ctx, guestID, eventID)
	if err != nil {
		if errors.Is(err, storage.ErrGuestNotFound) {
			return "", ErrGuestNotFound
		}

		log.Error("failed to load guest", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := jwt.NewGuestToken(guest.ID, guest.EventID, a.tokens.GuestTokenSecret, a.tokens.GuestTokenTTL)
	if err != nil {
		log.Error("failed to generate guest token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	link := fmt.Sprintf("%s/auth/guest/verify?token=%s", a.tokens.MagicLinkBaseURL, token)

	if guest.Email != nil {
		msg := models.Message{
			Email:   *guest.Email,
			Link:    link,
			Purpose: "guest_magic_link",
		}
		if err := a.publisher.SendMessage(ctx, msg); err != nil {
			// Delivery is best effort; the link is still returned.
			log.Error("failed to publish magic link", sl.Err(err))
		}
	}

	log.Info("magic link issued", slog.String("guest_id", guest.ID))

	return link, nil
}

// VerifyGuest resolves the guest behind an already-verified guest token.
func (a *Auth) VerifyGuest(ctx context.Context, guestID string) (*models.Guest, error) {
	const op = "auth.VerifyGuest"

	guest, err := a.gstProvider.GuestByID(ctx, guestID)
	if err != nil {
		if errors.Is(err, storage.ErrGuestNotFound) {
			return nil, ErrGuestNotFound
		}

		a.log.Error("failed to load guest", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return guest, nil
}

func (a *Auth) newTokenPair(userID, username string) (TokenPair, error) {
	accessToken, err := jwt.NewSessionToken(userID, username, a.tokens.AccessTokenSecret, a.tokens.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := jwt.NewSessionToken(userID, username, a.tokens.RefreshTokenSecret, a.tokens.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (a *Auth) startSession(ctx context.Context, userID, username string) (TokenPair, error) {
	pair, err := a.newTokenPair(userID, username)
	if err != nil {
		return TokenPair{}, err
	}

	refreshHash, err := hash.Token(pair.RefreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	if err := a.usrSaver.SetRefreshTokenHash(ctx, userID, &refreshHash); err != nil {
		return TokenPair{}, err
	}

	return pair, nil
}
