package domain

import "time"

// SessionState represents the current state of the parking session machine.
type SessionState string

const (
	SessionStateIdle         SessionState = "IDLE"
	SessionStateSpotSelected SessionState = "SPOT_SELECTED"
	SessionStateActive       SessionState = "SESSION_ACTIVE"
	SessionStateEnded        SessionState = "SESSION_ENDED"
)

// EndReason records why a session terminated.
type EndReason string

const (
	EndReasonExpired EndReason = "EXPIRED"
	EndReasonStopped EndReason = "STOPPED"
)

// SelectedSpot identifies the spot chosen on the map.
type SelectedSpot struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// SessionSnapshot is a read-only view of the session machine.
type SessionSnapshot struct {
	State          SessionState
	Selected       *SelectedSpot
	ElapsedSeconds int
	TotalMinutes   int
	StartedAt      time.Time
}

// RemainingSeconds returns the seconds left before auto-expiry.
func (s SessionSnapshot) RemainingSeconds() int {
	if s.State != SessionStateActive {
		return 0
	}
	remaining := s.TotalMinutes*60 - s.ElapsedSeconds
	if remaining < 0 {
		return 0
	}
	return remaining
}

// PendingSettlement is the fare owed for a terminated session. It is
// unresolved for as long as the settlement service holds it.
type PendingSettlement struct {
	ID          string
	TicketID    string
	SpotID      int64
	SpotTitle   string
	MinutesUsed int
	FareAmount  float64
	Reason      EndReason
	StartedAt   time.Time
	EndedAt     time.Time
}
