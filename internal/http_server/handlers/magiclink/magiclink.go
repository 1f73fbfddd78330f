package magiclink

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"event_service/internal/auth"
	resp "event_service/internal/lib/api/response"
	sl "event_service/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	GuestID string `json:"guest_id" validate:"required,uuid4"`
	EventID string `json:"event_id" validate:"required,uuid4"`
}

type Response struct {
	resp.Response
	MagicLink string `json:"magic_link"`
}

type LinkIssuer interface {
	GuestMagicLink(ctx context.Context, guestID, eventID string) (string, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService LinkIssuer,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.magiclink.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
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

		link, err := authService.GuestMagicLink(ctx, req.GuestID, req.EventID)
		if err != nil {
			if errors.Is(err, auth.ErrGuestNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Guest not found"))

				return
			}

			log.Error("failed to issue magic link", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Magic link issued")

		render.JSON(w, r, Response{
			Response:  resp.OK(),
			MagicLink: link,
		})
	}
}
