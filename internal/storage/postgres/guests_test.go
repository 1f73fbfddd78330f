package postgres

import (
	"context"
	"testing"
	"time"

	"event_service/internal/lib/pagination"
	"event_service/internal/models"
	"event_service/internal/storage"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guestRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "event_id", "first_name", "last_name", "email", "rsvp_status",
		"created_at", "updated_at",
	})
}

func TestGuestByIDForEvent(t *testing.T) {
	now := time.Now()
	email := "jane@example.com"
	rsvp := models.RSVPAccepted
	want := models.Guest{
		ID:         "guest-1",
		EventID:    "event-1",
		FirstName:  "Jane",
		LastName:   "Doe",
		Email:      &email,
		RSVPStatus: &rsvp,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT (.+) FROM guests g WHERE g.id = \$1 AND g.event_id = \$2`).
			WithArgs("guest-1", "event-1").
			WillReturnRows(guestRows().AddRow(
				want.ID, want.EventID, want.FirstName, want.LastName,
				want.Email, want.RSVPStatus, want.CreatedAt, want.UpdatedAt,
			))

		got, err := NewWithDB(mock).GuestByIDForEvent(context.Background(), "guest-1", "event-1")
		require.NoError(t, err)
		assert.Equal(t, &want, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong event", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT (.+) FROM guests g WHERE g.id = \$1 AND g.event_id = \$2`).
			WithArgs("guest-1", "other-event").
			WillReturnError(pgx.ErrNoRows)

		_, err = NewWithDB(mock).GuestByIDForEvent(context.Background(), "guest-1", "other-event")
		assert.ErrorIs(t, err, storage.ErrGuestNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGuestsByEvent(t *testing.T) {
	now := time.Now()

	t.Run("unfiltered page with total", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := guestRows().
			AddRow("guest-1", "event-1", "Alice", "Adams", nil, nil, now, now).
			AddRow("guest-2", "event-1", "Bob", "Brown", nil, nil, now, now)

		mock.ExpectQuery(`SELECT (.+) FROM guests g, events e`).
			WithArgs("event-1", "user-1", 10, 0).
			WillReturnRows(rows)
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM guests g, events e`).
			WithArgs("event-1", "user-1").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))

		guests, meta, err := NewWithDB(mock).GuestsByEvent(
			context.Background(), "event-1", "user-1",
			GuestFilter{}, pagination.Params{Page: 1, Limit: 10}, true,
		)
		require.NoError(t, err)
		require.Len(t, guests, 2)
		assert.Equal(t, "Alice", guests[0].FirstName)
		require.NotNil(t, meta.Total)
		assert.Equal(t, int64(2), *meta.Total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("name filter is a prefix match", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := guestRows().
			AddRow("guest-1", "event-1", "Alice", "Adams", nil, nil, now, now)

		mock.ExpectQuery(`SELECT (.+) g.first_name ILIKE \$3 (.+)`).
			WithArgs("event-1", "user-1", "Al%", 10, 0).
			WillReturnRows(rows)

		guests, _, err := NewWithDB(mock).GuestsByEvent(
			context.Background(), "event-1", "user-1",
			GuestFilter{FirstName: "Al"}, pagination.Params{Page: 1, Limit: 10}, false,
		)
		require.NoError(t, err)
		require.Len(t, guests, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	// An event the organizer does not own matches no rows at all.
	t.Run("foreign event lists nothing", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT (.+) FROM guests g, events e`).
			WithArgs("event-1", "intruder", 10, 0).
			WillReturnRows(guestRows())

		guests, meta, err := NewWithDB(mock).GuestsByEvent(
			context.Background(), "event-1", "intruder",
			GuestFilter{}, pagination.Params{Page: 1, Limit: 10}, false,
		)
		require.NoError(t, err)
		assert.Empty(t, guests)
		assert.Equal(t, 0, meta.Count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSaveGuest(t *testing.T) {
	guest := &models.Guest{
		ID:        "guest-1",
		EventID:   "event-1",
		FirstName: "Jane",
		LastName:  "Doe",
	}

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "inserted",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO guests`).
					WithArgs(guest.ID, guest.EventID, guest.FirstName, guest.LastName, guest.Email, guest.RSVPStatus, "user-1").
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "event not owned inserts nothing",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO guests`).
					WithArgs(guest.ID, guest.EventID, guest.FirstName, guest.LastName, guest.Email, guest.RSVPStatus, "user-1").
					WillReturnResult(pgxmock.NewResult("INSERT", 0))
			},
			wantErr: storage.ErrEventNotFound,
		},
		{
			name: "duplicate name within the event",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO guests`).
					WithArgs(guest.ID, guest.EventID, guest.FirstName, guest.LastName, guest.Email, guest.RSVPStatus, "user-1").
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "guests_event_id_first_name_last_name_key"})
			},
			wantErr: storage.ErrGuestExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setupMock(mock)

			err = NewWithDB(mock).SaveGuest(context.Background(), guest, "user-1")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateGuest(t *testing.T) {
	rsvp := models.RSVPAccepted
	upd := GuestUpdate{FirstName: "Jane", LastName: "Doe", RSVPStatus: &rsvp}

	t.Run("updated", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE guests g`).
			WithArgs("guest-1", "event-1", "user-1", upd.FirstName, upd.LastName, upd.Email, upd.RSVPStatus).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = NewWithDB(mock).UpdateGuest(context.Background(), "guest-1", "event-1", "user-1", upd)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing or not owned", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE guests g`).
			WithArgs("guest-1", "event-1", "user-1", upd.FirstName, upd.LastName, upd.Email, upd.RSVPStatus).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = NewWithDB(mock).UpdateGuest(context.Background(), "guest-1", "event-1", "user-1", upd)
		assert.ErrorIs(t, err, storage.ErrGuestNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("renamed into an existing guest", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE guests g`).
			WithArgs("guest-1", "event-1", "user-1", upd.FirstName, upd.LastName, upd.Email, upd.RSVPStatus).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		err = NewWithDB(mock).UpdateGuest(context.Background(), "guest-1", "event-1", "user-1", upd)
		assert.ErrorIs(t, err, storage.ErrGuestExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateGuestRSVP(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE guests SET rsvp_status = \$3`).
			WithArgs("guest-1", "event-1", models.RSVPRejected).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = NewWithDB(mock).UpdateGuestRSVP(context.Background(), "guest-1", "event-1", models.RSVPRejected)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("guest gone", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE guests SET rsvp_status = \$3`).
			WithArgs("guest-1", "event-1", models.RSVPAccepted).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = NewWithDB(mock).UpdateGuestRSVP(context.Background(), "guest-1", "event-1", models.RSVPAccepted)
		assert.ErrorIs(t, err, storage.ErrGuestNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteGuest(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM guests g`).
			WithArgs("guest-1", "event-1", "user-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, NewWithDB(mock).DeleteGuest(context.Background(), "guest-1", "event-1", "user-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing or not owned", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM guests g`).
			WithArgs("guest-1", "event-1", "intruder").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err = NewWithDB(mock).DeleteGuest(context.Background(), "guest-1", "event-1", "intruder")
		assert.ErrorIs(t, err, storage.ErrGuestNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
