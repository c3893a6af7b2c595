package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"campuspark/internal/domain"
	"campuspark/internal/fare"
	"campuspark/internal/metrics"
	"campuspark/internal/redis"
	"campuspark/internal/repository"
	"campuspark/internal/session"
)

const (
	defaultNearbyRadiusKm = 0.5
	tickPersistTimeout    = 5 * time.Second
)

// SettlementSink receives the settlement of every terminated session.
type SettlementSink interface {
	Open(p *domain.PendingSettlement)
	HasPending() bool
}

// SessionView is the presentation output of the session machine.
type SessionView struct {
	State            domain.SessionState `json:"state"`
	SpotID           *int64              `json:"spot_id"`
	SpotTitle        string              `json:"spot_title,omitempty"`
	ElapsedSeconds   int                 `json:"elapsed_seconds"`
	TotalMinutes     int                 `json:"total_minutes"`
	RemainingSeconds int                 `json:"remaining_seconds"`
	ElapsedDisplay   string              `json:"elapsed_display"`
	TotalDisplay     string              `json:"total_display"`
	// CurrentFare is what stopping now would cost.
	CurrentFare float64    `json:"current_fare"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
}

// SpotList partitions the spots into visible and hidden ones.
type SpotList struct {
	Visible []domain.Spot `json:"visible"`
	Hidden  []domain.Spot `json:"hidden"`
}

// NearbySpot is a visible spot found by a radius search.
type NearbySpot struct {
	domain.Spot
	DistanceKm float64 `json:"distance_km"`
}

// CreateSpotRequest contains the parameters for creating a spot.
type CreateSpotRequest struct {
	Lat   float64
	Lng   float64
	Title string
}

// ParkingService serialises the presentation intents and the countdown
// ticks around the session machine, and owns the spot catalogue.
type ParkingService struct {
	spotStore  redis.SpotStoreInterface
	locations  redis.LocationStoreInterface
	tickets    repository.TicketRepository
	settlement SettlementSink
	notifier   *NotificationService
	calc       fare.Calculator
	log        *logrus.Entry
	now        func() time.Time

	mu      sync.Mutex
	machine *session.Machine
	timer   *session.Timer
	spots   []domain.Spot
}

// NewParkingService creates a new ParkingService.
func NewParkingService(
	machine *session.Machine,
	timer *session.Timer,
	calc fare.Calculator,
	spotStore redis.SpotStoreInterface,
	locations redis.LocationStoreInterface,
	tickets repository.TicketRepository,
	settlement SettlementSink,
	notifier *NotificationService,
	log *logrus.Entry,
) *ParkingService {
	return &ParkingService{
		spotStore:  spotStore,
		locations:  locations,
		tickets:    tickets,
		settlement: settlement,
		notifier:   notifier,
		calc:       calc,
		log:        log,
		now:        time.Now,
		machine:    machine,
		timer:      timer,
	}
}

// Load reads spots and hidden spots from the local cache, seeding the
// default spots on first run.
func (s *ParkingService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	spots, err := s.spotStore.GetSpots(ctx)
	if err != nil {
		return fmt.Errorf("load spots: %w", err)
	}
	if len(spots) == 0 {
		spots = domain.DefaultSpots()
		if err := s.spotStore.SaveSpots(ctx, spots); err != nil {
			s.log.WithError(err).Warn("failed to seed default spots")
		}
	}
	s.spots = spots

	hidden, err := s.spotStore.GetHiddenSpots(ctx)
	if err != nil {
		return fmt.Errorf("load hidden spots: %w", err)
	}
	s.machine.Restore(hidden)

	if s.locations != nil {
		if err := s.locations.IndexSpots(ctx, spots...); err != nil {
			s.log.WithError(err).Warn("failed to index spot locations")
		}
	}

	s.log.WithFields(logrus.Fields{
		"spots":  len(spots),
		"hidden": len(hidden),
	}).Info("spots loaded")
	return nil
}

// Spots returns the visible and hidden spots.
func (s *ParkingService) Spots() SpotList {
	s.mu.Lock()
	defer s.mu.Unlock()

	hidden := s.machine.Hidden()
	list := SpotList{Visible: []domain.Spot{}, Hidden: []domain.Spot{}}
	for _, sp := range s.spots {
		if hidden.Has(sp.ID) {
			list.Hidden = append(list.Hidden, sp)
		} else {
			list.Visible = append(list.Visible, sp)
		}
	}
	return list
}

// CreateSpot adds a spot at the given coordinates. The new spot becomes the
// selection when no session is active.
func (s *ParkingService) CreateSpot(ctx context.Context, req CreateSpotRequest) (*domain.Spot, error) {
	if !validCoordinates(req.Lat, req.Lng) {
		return nil, ErrInvalidLocation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.now().UnixMilli()
	for s.findSpotLocked(id) != nil {
		id++
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("Vaga %d", len(s.spots)+1)
	}

	spot := domain.Spot{
		ID:          id,
		Title:       title,
		Description: "Vaga criada manualmente",
		Latitude:    req.Lat,
		Longitude:   req.Lng,
	}
	s.spots = append(s.spots, spot)

	if err := s.spotStore.SaveSpots(ctx, s.spots); err != nil {
		s.log.WithError(err).WithField("spot_id", id).Warn("failed to persist spots")
	}
	if s.locations != nil {
		if err := s.locations.IndexSpots(ctx, spot); err != nil {
			s.log.WithError(err).WithField("spot_id", id).Warn("failed to index spot location")
		}
	}

	if !s.machine.Active() {
		if err := s.machine.Select(domain.SelectedSpot{ID: spot.ID, Title: spot.Title}); err != nil {
			return nil, err
		}
	}

	return &spot, nil
}

// SelectSpot toggles the selection of a spot.
func (s *ParkingService) SelectSpot(ctx context.Context, spotID int64) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spot := s.findSpotLocked(spotID)
	if spot == nil {
		return SessionView{}, ErrSpotNotFound
	}
	if err := s.machine.Select(domain.SelectedSpot{ID: spot.ID, Title: spot.Title}); err != nil {
		return SessionView{}, err
	}
	return s.viewLocked(), nil
}

// ToggleHidden flips the hidden flag of a spot and returns the new flag.
func (s *ParkingService) ToggleHidden(ctx context.Context, spotID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findSpotLocked(spotID) == nil {
		return false, ErrSpotNotFound
	}
	hidden, err := s.machine.ToggleHidden(spotID)
	if err != nil {
		return hidden, err
	}
	s.persistHiddenLocked(ctx)
	return hidden, nil
}

// ShowAllHidden un-hides every spot except the one in use.
func (s *ParkingService) ShowAllHidden(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.machine.ShowAll()
	s.persistHiddenLocked(ctx)
}

// NearbySpots returns visible spots within radiusKm of (lat, lng), nearest first.
func (s *ParkingService) NearbySpots(ctx context.Context, lat, lng, radiusKm float64) ([]NearbySpot, error) {
	if !validCoordinates(lat, lng) {
		return nil, ErrInvalidLocation
	}
	if radiusKm < 0 {
		return nil, ErrInvalidRadius
	}
	if radiusKm == 0 {
		radiusKm = defaultNearbyRadiusKm
	}
	if s.locations == nil {
		return nil, ErrNearbyUnavailable
	}

	found, err := s.locations.FindNearbySpots(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hidden := s.machine.Hidden()
	result := make([]NearbySpot, 0, len(found))
	for _, f := range found {
		if hidden.Has(f.SpotID) {
			continue
		}
		spot := s.findSpotLocked(f.SpotID)
		if spot == nil {
			continue
		}
		result = append(result, NearbySpot{Spot: *spot, DistanceKm: f.DistanceKm})
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].DistanceKm < result[j].DistanceKm })
	return result, nil
}

// Session returns the current session view.
func (s *ParkingService) Session() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// StartSession starts a session on the selected spot and the countdown.
func (s *ParkingService) StartSession(ctx context.Context, minutesText string) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.Active() {
		return SessionView{}, session.ErrSessionActive
	}
	if s.settlement.HasPending() {
		return SessionView{}, ErrSettlementPending
	}
	if err := s.machine.Start(minutesText); err != nil {
		return SessionView{}, err
	}

	s.timer.Start(s.onTick)
	s.persistHiddenLocked(ctx)

	snap := s.machine.Snapshot()
	metrics.SessionsStarted.Inc()
	s.notifier.NotifySessionStarted(ctx, *snap.Selected, snap.TotalMinutes)
	s.log.WithFields(logrus.Fields{
		"spot_id":       snap.Selected.ID,
		"total_minutes": snap.TotalMinutes,
	}).Info("session started")

	return s.viewLocked(), nil
}

// StopSession ends the running session and opens its settlement.
func (s *ParkingService) StopSession(ctx context.Context) (*domain.PendingSettlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timer.Stop()
	out, err := s.machine.Stop()
	if err != nil {
		return nil, err
	}
	return s.finishLocked(ctx, out), nil
}

// AddTime extends the running session.
func (s *ParkingService) AddTime(ctx context.Context) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.machine.Snapshot().TotalMinutes
	total, err := s.machine.AddTime()
	if err != nil {
		return SessionView{}, err
	}

	s.notifier.NotifyTimeAdded(ctx, total-before, total)
	return s.viewLocked(), nil
}

// Shutdown stops the countdown.
func (s *ParkingService) Shutdown() {
	s.timer.Stop()
}

// onTick is the countdown callback. Ticks of a replaced or stopped
// countdown are ignored.
func (s *ParkingService) onTick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.timer.Current(gen) {
		return
	}

	out, err := s.machine.Tick()
	if err != nil {
		s.timer.Stop()
		return
	}
	if !out.Ended {
		return
	}

	s.timer.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), tickPersistTimeout)
	defer cancel()
	s.finishLocked(ctx, out)
}

// finishLocked records the ticket of a terminated session and hands its
// settlement over.
func (s *ParkingService) finishLocked(ctx context.Context, out session.Outcome) *domain.PendingSettlement {
	p := out.Pending

	ticket := &domain.Ticket{
		ID:          uuid.New().String(),
		SpotID:      p.SpotID,
		SpotTitle:   p.SpotTitle,
		StartedAt:   p.StartedAt,
		EndedAt:     p.EndedAt,
		MinutesUsed: p.MinutesUsed,
		Fare:        p.FareAmount,
		EndReason:   p.Reason,
		Status:      domain.TicketStatusPending,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		s.log.WithError(err).WithField("settlement_id", p.ID).Warn("failed to record ticket")
	} else {
		p.TicketID = ticket.ID
	}

	s.persistHiddenLocked(ctx)
	metrics.SessionsEnded.WithLabelValues(string(p.Reason)).Inc()

	if p.Reason == domain.EndReasonExpired {
		s.notifier.NotifyTimeUp(ctx, p)
	} else {
		s.notifier.NotifySessionStopped(ctx, p)
	}
	s.log.WithFields(logrus.Fields{
		"spot_id":      p.SpotID,
		"minutes_used": p.MinutesUsed,
		"fare":         p.FareAmount,
		"reason":       p.Reason,
	}).Info("session ended")

	s.settlement.Open(p)
	return p
}

func (s *ParkingService) persistHiddenLocked(ctx context.Context) {
	if err := s.spotStore.ReplaceHiddenSpots(ctx, s.machine.Hidden()); err != nil {
		s.log.WithError(err).Warn("failed to persist hidden spots")
	}
}

func (s *ParkingService) findSpotLocked(id int64) *domain.Spot {
	for i := range s.spots {
		if s.spots[i].ID == id {
			return &s.spots[i]
		}
	}
	return nil
}

func (s *ParkingService) viewLocked() SessionView {
	snap := s.machine.Snapshot()
	view := SessionView{
		State:            snap.State,
		ElapsedSeconds:   snap.ElapsedSeconds,
		TotalMinutes:     snap.TotalMinutes,
		RemainingSeconds: snap.RemainingSeconds(),
		ElapsedDisplay:   session.FormatElapsed(snap.ElapsedSeconds),
		TotalDisplay:     session.FormatTotal(snap.TotalMinutes),
	}
	if snap.Selected != nil {
		id := snap.Selected.ID
		view.SpotID = &id
		view.SpotTitle = snap.Selected.Title
	}
	if snap.State == domain.SessionStateActive {
		minutes := (snap.ElapsedSeconds + 59) / 60
		if minutes < 1 {
			minutes = 1
		}
		view.CurrentFare = s.calc.Calc(minutes)
		started := snap.StartedAt
		view.StartedAt = &started
	}
	return view
}

func validCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
