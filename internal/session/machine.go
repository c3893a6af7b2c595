// Package session implements the parking session state machine and the
// countdown timer that drives it.
package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"campuspark/internal/domain"
	"campuspark/internal/fare"
)

// DefaultAddTimeMinutes is the extension granted by AddTime.
const DefaultAddTimeMinutes = 10

// MaxSessionMinutes bounds the booked time of a single session (one week).
const MaxSessionMinutes = 7 * 24 * 60

// Outcome describes the effect of a transition that may end the session.
type Outcome struct {
	// Ended is true when the transition terminated the session.
	Ended bool

	// Pending is the settlement created when Ended is true.
	Pending *domain.PendingSettlement
}

// Machine owns the state of the single parking session.
//
// Machine is not safe for concurrent use; callers serialize intents and
// timer ticks so that each transition is observed whole.
type Machine struct {
	fare           fare.Calculator
	addTimeMinutes int
	now            func() time.Time

	state     domain.SessionState
	selected  *domain.SelectedSpot
	elapsed   int
	total     int
	startedAt time.Time
	hidden    domain.HiddenSpotSet
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock sets the clock used to timestamp sessions.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithAddTimeMinutes sets the extension granted by AddTime.
func WithAddTimeMinutes(minutes int) Option {
	return func(m *Machine) {
		if minutes > 0 {
			m.addTimeMinutes = minutes
		}
	}
}

// NewMachine creates an idle Machine.
func NewMachine(calc fare.Calculator, opts ...Option) *Machine {
	m := &Machine{
		fare:           calc,
		addTimeMinutes: DefaultAddTimeMinutes,
		now:            time.Now,
		state:          domain.SessionStateIdle,
		hidden:         domain.NewHiddenSpotSet(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore replaces the hidden set, e.g. with the one loaded from the local store.
func (m *Machine) Restore(hidden domain.HiddenSpotSet) {
	m.hidden = hidden.Clone()
	if m.state == domain.SessionStateActive && m.selected != nil {
		m.hidden.Add(m.selected.ID)
	}
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		State:          m.state,
		ElapsedSeconds: m.elapsed,
		TotalMinutes:   m.total,
		StartedAt:      m.startedAt,
	}
	if m.selected != nil {
		sel := *m.selected
		snap.Selected = &sel
	}
	return snap
}

// State returns the current state.
func (m *Machine) State() domain.SessionState {
	return m.state
}

// Active reports whether a session is running.
func (m *Machine) Active() bool {
	return m.state == domain.SessionStateActive
}

// Hidden returns a copy of the hidden-spot set.
func (m *Machine) Hidden() domain.HiddenSpotSet {
	return m.hidden.Clone()
}

// Select toggles the selection of a spot. Selecting the already selected
// spot clears the selection.
func (m *Machine) Select(spot domain.SelectedSpot) error {
	if m.state == domain.SessionStateActive {
		return ErrSessionActive
	}

	if m.selected != nil && m.selected.ID == spot.ID {
		m.selected = nil
		m.state = domain.SessionStateIdle
		return nil
	}

	m.selected = &spot
	m.state = domain.SessionStateSpotSelected
	return nil
}

// Start begins a session on the selected spot for minutesText minutes.
func (m *Machine) Start(minutesText string) error {
	if m.state == domain.SessionStateActive {
		return ErrSessionActive
	}
	if m.selected == nil {
		return ErrNoSelection
	}

	minutes, err := ParseMinutes(minutesText)
	if err != nil {
		return err
	}

	m.elapsed = 0
	m.total = minutes
	m.startedAt = m.now()
	m.hidden.Add(m.selected.ID)
	m.state = domain.SessionStateActive
	return nil
}

// Tick advances the countdown by one second and auto-expires the session
// when the booked time is reached.
func (m *Machine) Tick() (Outcome, error) {
	if m.state != domain.SessionStateActive {
		return Outcome{}, ErrNoActiveSession
	}

	next := m.elapsed + 1
	if next >= m.total*60 {
		m.elapsed = next
		return Outcome{Ended: true, Pending: m.end(domain.EndReasonExpired, ceilMinutes(next))}, nil
	}

	m.elapsed = next
	return Outcome{}, nil
}

// Stop ends the session manually. A session stopped within its first
// minute is billed one minute.
func (m *Machine) Stop() (Outcome, error) {
	if m.state != domain.SessionStateActive {
		return Outcome{}, ErrNoActiveSession
	}

	used := ceilMinutes(m.elapsed)
	if used < 1 {
		used = 1
	}
	return Outcome{Ended: true, Pending: m.end(domain.EndReasonStopped, used)}, nil
}

// AddTime extends the running session.
func (m *Machine) AddTime() (int, error) {
	if m.state != domain.SessionStateActive {
		return 0, ErrNoActiveSession
	}
	if m.total > MaxSessionMinutes-m.addTimeMinutes {
		return m.total, ErrSessionTooLong
	}
	m.total += m.addTimeMinutes
	return m.total, nil
}

// ToggleHidden flips the hidden flag of a spot. The occupied spot stays hidden.
func (m *Machine) ToggleHidden(spotID int64) (bool, error) {
	if m.occupies(spotID) {
		return true, ErrSpotOccupied
	}
	if m.hidden.Has(spotID) {
		m.hidden.Remove(spotID)
		return false, nil
	}
	m.hidden.Add(spotID)
	return true, nil
}

// ShowAll un-hides every spot except the occupied one.
func (m *Machine) ShowAll() {
	m.hidden = domain.NewHiddenSpotSet()
	if m.state == domain.SessionStateActive && m.selected != nil {
		m.hidden.Add(m.selected.ID)
	}
}

func (m *Machine) occupies(spotID int64) bool {
	return m.state == domain.SessionStateActive && m.selected != nil && m.selected.ID == spotID
}

// end passes through SESSION_ENDED and returns to IDLE.
func (m *Machine) end(reason domain.EndReason, minutesUsed int) *domain.PendingSettlement {
	m.state = domain.SessionStateEnded

	spot := *m.selected
	m.hidden.Remove(spot.ID)

	pending := &domain.PendingSettlement{
		ID:          uuid.New().String(),
		SpotID:      spot.ID,
		SpotTitle:   spot.Title,
		MinutesUsed: minutesUsed,
		FareAmount:  m.fare.Calc(minutesUsed),
		Reason:      reason,
		StartedAt:   m.startedAt,
		EndedAt:     m.now(),
	}

	m.selected = nil
	m.elapsed = 0
	m.total = 0
	m.startedAt = time.Time{}
	m.state = domain.SessionStateIdle
	return pending
}

// ParseMinutes parses a whole number of minutes in [1, MaxSessionMinutes].
func ParseMinutes(text string) (int, error) {
	minutes, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || minutes <= 0 || minutes > MaxSessionMinutes {
		return 0, ErrInvalidMinutes
	}
	return minutes, nil
}

func ceilMinutes(seconds int) int {
	return (seconds + 59) / 60
}
