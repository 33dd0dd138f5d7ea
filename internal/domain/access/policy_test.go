package access_test

import (
	"testing"

	"github.com/astro-web3/mobile-access-gate/internal/domain/access"
	"github.com/astro-web3/mobile-access-gate/internal/domain/claims"
)

func textClaim(s string) claims.Value {
	return claims.Value{Kind: claims.KindText, Text: s}
}

func listClaim(items ...string) claims.Value {
	return claims.Value{Kind: claims.KindTextList, List: items}
}

func TestResolvePrivilegedRole_StringifiedRolesList(t *testing.T) {
	set := claims.NewClaimSet()
	set.Set("roles", textClaim(`["Admin","User"]`))

	verdict := access.ResolvePrivilegedRole(set, "Admin")

	if !verdict.IsPrivileged {
		t.Fatal("expected a privileged match")
	}
	if verdict.MatchedClaim != "roles" {
		t.Errorf("expected matched claim \"roles\", got %q", verdict.MatchedClaim)
	}
	if verdict.Strategy != access.StrategyRolesList {
		t.Errorf("expected strategy %q, got %q", access.StrategyRolesList, verdict.Strategy)
	}
}

func TestResolvePrivilegedRole_ScalarRole(t *testing.T) {
	set := claims.NewClaimSet()
	set.Set("role", textClaim("Admin"))

	verdict := access.ResolvePrivilegedRole(set, "Admin")

	if !verdict.IsPrivileged {
		t.Fatal("expected a privileged match")
	}
	if verdict.MatchedClaim != "role" {
		t.Errorf("expected matched claim \"role\", got %q", verdict.MatchedClaim)
	}
	if verdict.Strategy != access.StrategyRoleScalar {
		t.Errorf("expected strategy %q, got %q", access.StrategyRoleScalar, verdict.Strategy)
	}
}

func TestResolvePrivilegedRole_FallbackScan(t *testing.T) {
	set := claims.NewClaimSet()
	set.Set("sub", textClaim("user-1"))
	set.Set("customRoleField", textClaim("Admin"))

	verdict := access.ResolvePrivilegedRole(set, "Admin")

	if !verdict.IsPrivileged {
		t.Fatal("expected a privileged match")
	}
	if verdict.MatchedClaim != "customRoleField" {
		t.Errorf("expected matched claim \"customRoleField\", got %q", verdict.MatchedClaim)
	}
	if verdict.Strategy != access.StrategyFallbackScan {
		t.Errorf("expected strategy %q, got %q", access.StrategyFallbackScan, verdict.Strategy)
	}
}

func TestResolvePrivilegedRole_FallbackScanListValue(t *testing.T) {
	set := claims.NewClaimSet()
	set.Set("vendor:roleSet", listClaim("User", "Admin"))

	verdict := access.ResolvePrivilegedRole(set, "Admin")

	if !verdict.IsPrivileged {
		t.Fatal("expected a privileged match on a list-valued role-like claim")
	}
	if verdict.MatchedClaim != "vendor:roleSet" {
		t.Errorf("expected matched claim \"vendor:roleSet\", got %q", verdict.MatchedClaim)
	}
}

func TestResolvePrivilegedRole_FallbackFirstMatchWins(t *testing.T) {
	set := claims.NewClaimSet()
	set.Set("aRoleClaim", textClaim("Admin"))
	set.Set("bRoleClaim", textClaim("Admin"))

	verdict := access.ResolvePrivilegedRole(set, "Admin")

	if verdict.MatchedClaim != "aRoleClaim" {
		t.Errorf("expected the first role-like claim in insertion order, got %q", verdict.MatchedClaim)
	}
}

func TestResolvePrivilegedRole_PrecedenceOrder(t *testing.T) {
	// Contradictory signals: the stringified list says User, the scalar says
	// Admin. The list claim is checked first and wins, so no match.
	set := claims.NewClaimSet()
	set.Set("role", textClaim("Admin"))
	set.Set("roles", textClaim(`["User"]`))

	verdict := access.ResolvePrivilegedRole(set, "Admin")

	if !verdict.IsPrivileged {
		t.Fatal("expected the scalar strategy to match after the list strategy found nothing")
	}
	if verdict.Strategy != access.StrategyRoleScalar {
		t.Errorf("expected strategy %q, got %q", access.StrategyRoleScalar, verdict.Strategy)
	}
}

func TestResolvePrivilegedRole_BareStringRolesDoesNotMatch(t *testing.T) {
	// "roles" holding a bare string instead of a JSON array is a wrong shape:
	// strategy 1 must neither fault nor match, and the key is excluded from
	// the fallback scan.
	set := claims.NewClaimSet()
	set.Set("roles", textClaim("Admin"))

	verdict := access.ResolvePrivilegedRole(set, "Admin")

	if verdict.IsPrivileged {
		t.Error("expected no match for a bare-string roles claim")
	}
}

func TestResolvePrivilegedRole_WrongShapesFallThrough(t *testing.T) {
	set := claims.NewClaimSet()
	set.Set("roles", claims.Value{Kind: claims.KindOther, Raw: 42})
	set.Set("role", claims.Value{Kind: claims.KindOther, Raw: true})
	set.Set("roleLevel", claims.Value{Kind: claims.KindOther, Raw: 3.14})
	set.Set("myRole", textClaim("Admin"))

	verdict := access.ResolvePrivilegedRole(set, "Admin")

	if !verdict.IsPrivileged {
		t.Fatal("expected the fallback scan to match past the wrong-shaped claims")
	}
	if verdict.MatchedClaim != "myRole" {
		t.Errorf("expected matched claim \"myRole\", got %q", verdict.MatchedClaim)
	}
}

func TestResolvePrivilegedRole_CaseInsensitiveKeyScan(t *testing.T) {
	set := claims.NewClaimSet()
	set.Set("X-ROLE-NAME", textClaim("Admin"))

	verdict := access.ResolvePrivilegedRole(set, "Admin")

	if !verdict.IsPrivileged {
		t.Error("expected the fallback scan to match an upper-cased role-like key")
	}
}

func TestResolvePrivilegedRole_NoMatch(t *testing.T) {
	set := claims.NewClaimSet()
	set.Set("sub", textClaim("user-1"))
	set.Set("email", textClaim("user@example.com"))
	set.Set("role", textClaim("User"))

	verdict := access.ResolvePrivilegedRole(set, "Admin")

	if verdict.IsPrivileged {
		t.Errorf("expected no match, got claim %q via %q", verdict.MatchedClaim, verdict.Strategy)
	}
}

func TestResolvePrivilegedRole_NilAndEmptyInputs(t *testing.T) {
	if v := access.ResolvePrivilegedRole(nil, "Admin"); v.IsPrivileged {
		t.Error("expected no match for a nil claim set")
	}

	set := claims.NewClaimSet()
	set.Set("role", textClaim(""))
	if v := access.ResolvePrivilegedRole(set, ""); v.IsPrivileged {
		t.Error("expected no match for an empty privileged role name")
	}
}
