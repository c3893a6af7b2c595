package session

import (
	"fmt"

	"campuspark/internal/domain"
)

var (
	// ErrInvalidMinutes is returned when the requested minutes are not a positive integer.
	ErrInvalidMinutes = fmt.Errorf("%w: minutes must be a positive integer up to %d", domain.ErrInputValidation, MaxSessionMinutes)

	// ErrSessionTooLong is returned when an extension would pass MaxSessionMinutes.
	ErrSessionTooLong = fmt.Errorf("%w: session cannot exceed %d minutes", domain.ErrInputValidation, MaxSessionMinutes)

	// ErrNoSelection is returned when starting without a selected spot.
	ErrNoSelection = fmt.Errorf("%w: select a spot on the map first", domain.ErrNoSelection)

	// ErrNoActiveSession is returned by operations that need a running session.
	ErrNoActiveSession = fmt.Errorf("%w", domain.ErrNoActiveSession)

	// ErrSessionActive is returned when an operation is not allowed while a session runs.
	ErrSessionActive = fmt.Errorf("%w: a parking session is already active", domain.ErrConflict)

	// ErrSpotOccupied is returned when hiding state of the occupied spot would change.
	ErrSpotOccupied = fmt.Errorf("%w: spot is occupied by the active session", domain.ErrConflict)
)
