package services

import "errors"

// Errors shared across services and mapped to HTTP statuses at the edge.
// Each rejected operation leaves the stored record unchanged; the repository
// guarantees no partial write accompanies any of these.
var (
	// Not found
	ErrTournamentNotFound = errors.New("tournament not found")

	// Registration
	ErrPlayerIDRequired   = errors.New("player id is required")
	ErrTournamentFull     = errors.New("tournament is full")
	ErrAlreadyRegistered  = errors.New("player is already registered for this tournament")
	ErrNotRegistered      = errors.New("player is not registered for this tournament")
	ErrRegistrationClosed = errors.New("tournament registration is closed")
	ErrEntryFeeNotPaid    = errors.New("entry fee has not been confirmed")

	// Lifecycle and edits
	ErrInvalidStatusTransition = errors.New("invalid tournament status transition")
	ErrEditNotAllowed          = errors.New("tournament details can only be edited while upcoming")
	ErrTournamentFinalized     = errors.New("tournament is finalized")
	ErrCapacityBelowRoster     = errors.New("max players cannot be reduced below the current roster size")

	// Results
	ErrTournamentNotStarted     = errors.New("tournament has not started yet")
	ErrResultsAlreadySubmitted  = errors.New("results have already been submitted")
	ErrResultsRequired          = errors.New("at least one result entry is required")

	// Collaborators
	ErrPayoutInFlight          = errors.New("payout processing is in flight for this tournament")
	ErrBannerStorageDisabled   = errors.New("banner storage is not configured")
	ErrUnsupportedBannerFormat = errors.New("unsupported banner content type")
)
