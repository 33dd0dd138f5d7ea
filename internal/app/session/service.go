package session

import (
	"context"

	"github.com/astro-web3/mobile-access-gate/internal/domain/access"
	"github.com/astro-web3/mobile-access-gate/internal/domain/session"
	"github.com/astro-web3/mobile-access-gate/pkg/tracer"
	"go.opentelemetry.io/otel/attribute"
)

type Service interface {
	SubmitLogin(ctx context.Context, identifier, secret string) (*session.Outcome, error)
	Register(ctx context.Context, identifier, secret, secretConfirmation string) (*session.Outcome, error)
	Logout(ctx context.Context) error
	State() session.State
	Profile() access.Profile
}

type service struct {
	workflow session.Service
}

func NewService(workflow session.Service) Service {
	return &service{workflow: workflow}
}

func (s *service) SubmitLogin(ctx context.Context, identifier, secret string) (*session.Outcome, error) {
	ctx, span := tracer.Start(ctx, "app.session.SubmitLogin")
	defer span.End()

	span.SetAttributes(
		attribute.String("auth.identifier", maskIdentifier(identifier)),
	)

	outcome, err := s.workflow.SubmitLogin(ctx, identifier, secret)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("gate.proceed", outcome.Kind == session.OutcomeProceed),
		attribute.String("gate.decision", outcome.Result.Decision.String()),
	)
	if outcome.Result.EvalID != "" {
		span.SetAttributes(attribute.String("gate.eval_id", outcome.Result.EvalID))
	}
	if outcome.Result.Verdict.IsPrivileged {
		span.SetAttributes(
			attribute.String("gate.matched_claim", outcome.Result.Verdict.MatchedClaim),
			attribute.String("gate.strategy", outcome.Result.Verdict.Strategy),
		)
	}

	return outcome, nil
}

func (s *service) Register(ctx context.Context, identifier, secret, secretConfirmation string) (*session.Outcome, error) {
	ctx, span := tracer.Start(ctx, "app.session.Register")
	defer span.End()

	span.SetAttributes(
		attribute.String("auth.identifier", maskIdentifier(identifier)),
	)

	outcome, err := s.workflow.Register(ctx, identifier, secret, secretConfirmation)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Bool("auth.registered", outcome.Kind == session.OutcomeProceed))
	return outcome, nil
}

func (s *service) Logout(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "app.session.Logout")
	defer span.End()

	if err := s.workflow.Logout(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *service) State() session.State {
	return s.workflow.State()
}

func (s *service) Profile() access.Profile {
	return s.workflow.Profile()
}

const identifierPrefixLength = 3

func maskIdentifier(identifier string) string {
	if len(identifier) > identifierPrefixLength {
		return identifier[:identifierPrefixLength] + "..."
	}
	return "***"
}
