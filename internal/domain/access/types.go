package access

// AccessDecision is the outcome of one gate evaluation.
//
//nolint:revive // AccessDecision keeps the domain name in the type for clarity
type AccessDecision int

const (
	// Allow lets the principal proceed into the guarded surface.
	Allow AccessDecision = iota
	// AllowWithWarning lets the principal proceed although the access check
	// itself could not be completed; the warning is logged, not user-visible.
	AllowWithWarning
	// DenyAndRevoke blocks the principal and requires the session to be
	// invalidated before any signal is delivered.
	DenyAndRevoke
)

func (d AccessDecision) String() string {
	switch d {
	case Allow:
		return "allow"
	case AllowWithWarning:
		return "allow_with_warning"
	case DenyAndRevoke:
		return "deny_and_revoke"
	default:
		return "unknown"
	}
}

// RoleVerdict records whether a privileged role was detected and, for
// diagnostics, which claim and which detection strategy produced the signal.
type RoleVerdict struct {
	IsPrivileged bool
	MatchedClaim string
	Strategy     string
}

// Profile is the identity derived from the claim set for display purposes.
type Profile struct {
	DisplayName string
	Initials    string
	Email       string
	Subject     string
}

// GateResult bundles the decision with its supporting diagnostics. EvalID
// correlates the decision across logs and spans.
type GateResult struct {
	Decision AccessDecision
	Verdict  RoleVerdict
	Profile  Profile
	EvalID   string
	Reason   string
}
