package guestverify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"event_service/internal/auth"
	"event_service/internal/http_server/middleware/authn"
	resp "event_service/internal/lib/api/response"
	sl "event_service/internal/lib/logger"
	"event_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	GuestID    string             `json:"guest_id"`
	EventID    string             `json:"event_id"`
	FirstName  string             `json:"first_name"`
	LastName   string             `json:"last_name"`
	RSVPStatus *models.RSVPStatus `json:"rsvp_status"`
}

type GuestResolver interface {
	VerifyGuest(ctx context.Context, guestID string) (*models.Guest, error)
}

// New resolves the guest behind a magic-link token. The token itself was
// already verified by the authn.Guest middleware; the guest record may still
// have been deleted since issuance.
func New(
	log *slog.Logger,
	authService GuestResolver,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.guestverify.New"

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

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		guest, err := authService.VerifyGuest(ctx, principal.GuestID)
		if err != nil {
			if errors.Is(err, auth.ErrGuestNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Guest not found"))

				return
			}

			log.Error("failed to verify guest", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Guest verified", slog.String("guest_id", guest.ID))

		render.JSON(w, r, Response{
			Response:   resp.OK(),
			GuestID:    guest.ID,
			EventID:    guest.EventID,
			FirstName:  guest.FirstName,
			LastName:   guest.LastName,
			RSVPStatus: guest.RSVPStatus,
		})
	}
}
