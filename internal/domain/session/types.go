package session

import (
	"errors"

	"github.com/astro-web3/mobile-access-gate/internal/domain/access"
)

// State is the workflow position of a single session instance.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateAllowedActive
	StateDeniedRevoked
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateAllowedActive:
		return "allowed_active"
	case StateDeniedRevoked:
		return "denied_revoked"
	default:
		return "unknown"
	}
}

// ErrSubmissionInFlight rejects a duplicate credential submission while one
// is still outstanding. Duplicates are refused, never queued.
var ErrSubmissionInFlight = errors.New("an authentication attempt is already in flight")

// OutcomeKind classifies a completed submission for the caller.
type OutcomeKind int

const (
	// OutcomeProceed signals the caller to enter the guarded surface.
	OutcomeProceed OutcomeKind = iota
	// OutcomeForbidden signals that access was denied and the session revoked;
	// distinct from a credential failure.
	OutcomeForbidden
	// OutcomeCredentialFailure signals rejected credentials; the attempt is
	// over and the workflow is back at idle.
	OutcomeCredentialFailure
)

// Outcome is the user-facing result of a submission. Messages for forbidden
// and credential-failure outcomes are deliberately distinct.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	Profile access.Profile
	Result  access.GateResult
}
