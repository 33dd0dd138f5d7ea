package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/astro-web3/mobile-access-gate/internal/domain/access"
	"github.com/astro-web3/mobile-access-gate/internal/infra/authbackend"
	"github.com/astro-web3/mobile-access-gate/internal/infra/revocation"
	"github.com/astro-web3/mobile-access-gate/pkg/logger"
)

const (
	forbiddenMessage         = "access to the mobile surface is forbidden for privileged accounts"
	credentialFailureMessage = "invalid identifier or secret"
)

type Service interface {
	// SubmitLogin runs one authentication attempt end to end: credential
	// submission, claim inspection, allow-or-deny-and-revoke. A non-nil error
	// means the attempt could not complete (duplicate submission, canceled
	// caller, or transport failure); the workflow is back at idle.
	SubmitLogin(ctx context.Context, identifier, secret string) (*Outcome, error)

	// Register creates an account; it never enters the guarded surface.
	Register(ctx context.Context, identifier, secret, secretConfirmation string) (*Outcome, error)

	// Logout fully clears local session state. Permitted from any state.
	Logout(ctx context.Context) error

	State() State
	Profile() access.Profile
}

type service struct {
	store         authbackend.Store
	gate          *access.Gate
	revocations   revocation.Registry
	revocationTTL time.Duration
	platformTag   string

	mu      sync.Mutex
	state   State
	profile access.Profile
}

// NewService builds a session workflow. revocations may be nil, in which
// case the revoked-token fast path is skipped.
func NewService(
	store authbackend.Store,
	gate *access.Gate,
	revocations revocation.Registry,
	revocationTTL time.Duration,
	platformTag string,
) Service {
	return &service{
		store:         store,
		gate:          gate,
		revocations:   revocations,
		revocationTTL: revocationTTL,
		platformTag:   platformTag,
		state:         StateIdle,
	}
}

func (s *service) SubmitLogin(ctx context.Context, identifier, secret string) (*Outcome, error) {
	if err := s.enterSubmitting(); err != nil {
		return nil, err
	}

	result, err := s.store.Login(ctx, identifier, secret, s.platformTag)
	if err != nil {
		s.setState(StateIdle)
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	// The caller may have been torn down while the call was outstanding;
	// a disposed caller must never be acted upon.
	if ctx.Err() != nil {
		s.setState(StateIdle)
		return nil, ctx.Err()
	}

	if !result.Success {
		s.setState(StateIdle)
		message := credentialFailureMessage
		if result.Message != "" {
			message = result.Message
		}
		return &Outcome{Kind: OutcomeCredentialFailure, Message: message}, nil
	}

	token := result.Token

	if revoked := s.previouslyRevoked(ctx, token); revoked {
		return s.deny(ctx, token, access.GateResult{
			Decision: access.DenyAndRevoke,
			Reason:   "token was previously revoked",
		})
	}

	gateResult := s.gate.Evaluate(ctx, token)

	if ctx.Err() != nil {
		s.setState(StateIdle)
		return nil, ctx.Err()
	}

	if gateResult.Decision == access.DenyAndRevoke {
		return s.deny(ctx, token, gateResult)
	}

	s.mu.Lock()
	s.state = StateAllowedActive
	s.profile = gateResult.Profile
	s.mu.Unlock()

	return &Outcome{
		Kind:    OutcomeProceed,
		Profile: gateResult.Profile,
		Result:  gateResult,
	}, nil
}

// deny revokes before signaling: the session store is invalidated first, the
// token hash is registered, and only then is the forbidden outcome returned.
// Revocation is best-effort but always attempted.
func (s *service) deny(ctx context.Context, token string, gateResult access.GateResult) (*Outcome, error) {
	if err := s.store.Logout(ctx); err != nil {
		logger.WarnContext(ctx, "session revocation failed",
			slog.String("eval_id", gateResult.EvalID),
			slog.String("error", err.Error()),
		)
	}

	if s.revocations != nil && token != "" {
		if err := s.revocations.Revoke(ctx, revocation.HashToken(token), s.revocationTTL); err != nil {
			logger.WarnContext(ctx, "failed to record revoked token",
				slog.String("eval_id", gateResult.EvalID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.mu.Lock()
	s.state = StateDeniedRevoked
	s.profile = access.Profile{}
	s.mu.Unlock()

	return &Outcome{
		Kind:    OutcomeForbidden,
		Message: forbiddenMessage,
		Result:  gateResult,
	}, nil
}

func (s *service) previouslyRevoked(ctx context.Context, token string) bool {
	if s.revocations == nil || token == "" {
		return false
	}

	revoked, err := s.revocations.IsRevoked(ctx, revocation.HashToken(token))
	if err != nil {
		logger.WarnContext(ctx, "revocation registry unavailable, continuing with claim resolution",
			slog.String("error", err.Error()),
		)
		return false
	}
	return revoked
}

func (s *service) Register(ctx context.Context, identifier, secret, secretConfirmation string) (*Outcome, error) {
	if err := s.enterSubmitting(); err != nil {
		return nil, err
	}
	defer s.setState(StateIdle)

	result, err := s.store.Register(ctx, identifier, secret, secretConfirmation)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if !result.Success {
		message := result.Message
		if message == "" {
			message = "registration was rejected"
		}
		return &Outcome{Kind: OutcomeCredentialFailure, Message: message}, nil
	}

	return &Outcome{Kind: OutcomeProceed}, nil
}

func (s *service) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateIdle
	s.profile = access.Profile{}
	s.mu.Unlock()

	if err := s.store.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	return nil
}

func (s *service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *service) Profile() access.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// enterSubmitting is the single-flight guard: at most one submission may be
// outstanding per workflow instance.
func (s *service) enterSubmitting() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return ErrSubmissionInFlight
	}
	s.state = StateSubmitting
	return nil
}

func (s *service) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
