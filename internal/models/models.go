package models

import "time"

type RSVPStatus string

const (
	RSVPPending  RSVPStatus = "pending"
	RSVPAccepted RSVPStatus = "accepted"
	RSVPRejected RSVPStatus = "rejected"
)

func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPPending, RSVPAccepted, RSVPRejected:
		return true
	}
	return false
}

type User struct {
	ID        string
	Username  string
	Email     string
	FirstName string
	LastName  string
	PassHash  []byte
	// RefreshTokenHash holds the argon2id hash of the current refresh
	// token; nil means the user has no active session.
	RefreshTokenHash *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Event struct {
	ID          string
	OrganizerID string
	Name        string
	Description string
	When        time.Time
	Address     string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Aggregate guest counts, recomputed on every read.
	GuestsCount    int64
	GuestsAccepted int64
	GuestsRejected int64
	GuestsPending  int64
}

type Guest struct {
	ID         string
	EventID    string
	FirstName  string
	LastName   string
	Email      *string
	RSVPStatus *RSVPStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Message is the payload published for the mail sender.
type Message struct {
	Email   string `json:"to"`
	Link    string `json:"link"`
	Purpose string `json:"purpose"`
}
