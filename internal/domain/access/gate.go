package access

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/astro-web3/mobile-access-gate/internal/domain/claims"
	"github.com/astro-web3/mobile-access-gate/pkg/logger"
	"github.com/google/uuid"
)

// Gate evaluates a bearer token against the configured privileged role.
type Gate struct {
	privilegedRole string
}

func NewGate(privilegedRole string) *Gate {
	return &Gate{privilegedRole: privilegedRole}
}

// Evaluate decodes the token's claims, resolves the privileged role and
// returns the access decision. It always returns a decision.
//
// Policy: when the access check itself cannot be completed (undecodable
// token, or an unanticipated fault inside extraction/resolution), the
// principal is allowed to proceed and a warning is logged. Availability is
// favored over an unverifiable deny; flipping this to deny-by-default
// changes the security posture and must not be done casually.
func (g *Gate) Evaluate(ctx context.Context, token string) (result GateResult) {
	evalID := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			logger.WarnContext(ctx, "access check failed, allowing by fail-open policy",
				slog.String("eval_id", evalID),
				slog.Any("panic", r),
			)
			result = GateResult{
				Decision: AllowWithWarning,
				Profile:  Profile{DisplayName: unknownDisplayName, Initials: unknownInitials},
				EvalID:   evalID,
				Reason:   fmt.Sprintf("access check failed: %v", r),
			}
		}
	}()

	if token == "" {
		return GateResult{
			Decision: Allow,
			Profile:  DeriveProfile(nil),
			EvalID:   evalID,
			Reason:   "no token issued, claims unknown",
		}
	}

	set, err := claims.Extract(ctx, token)
	if err != nil {
		logger.WarnContext(ctx, "token undecodable, allowing by fail-open policy",
			slog.String("eval_id", evalID),
			slog.String("error", err.Error()),
		)
		return GateResult{
			Decision: AllowWithWarning,
			Profile:  DeriveProfile(set),
			EvalID:   evalID,
			Reason:   fmt.Sprintf("claims undecodable: %v", err),
		}
	}

	verdict := ResolvePrivilegedRole(set, g.privilegedRole)
	result = GateResult{
		Decision: Allow,
		Verdict:  verdict,
		Profile:  DeriveProfile(set),
		EvalID:   evalID,
	}

	if verdict.IsPrivileged {
		result.Decision = DenyAndRevoke
		result.Reason = fmt.Sprintf(
			"privileged role %q detected via claim %q", g.privilegedRole, verdict.MatchedClaim,
		)
		logger.InfoContext(ctx, "privileged role detected, denying mobile surface",
			slog.String("eval_id", evalID),
			slog.String("matched_claim", verdict.MatchedClaim),
			slog.String("strategy", verdict.Strategy),
		)
	}

	return result
}
