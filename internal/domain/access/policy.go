package access

import (
	"encoding/json"
	"strings"

	"github.com/astro-web3/mobile-access-gate/internal/domain/claims"
)

// Detection strategy names recorded on RoleVerdict for diagnostics.
const (
	StrategyRolesList    = "stringified-roles-list"
	StrategyRoleScalar   = "role-scalar"
	StrategyFallbackScan = "fallback-scan"
)

// ResolvePrivilegedRole decides whether the claim set carries privilegedRole.
// Three strategies run in fixed precedence, stopping at the first positive
// match, so the "roles" list claim wins over a scalar "role" claim, which
// wins over any non-standard role-like claim, when a token carries
// contradictory signals:
//
//  1. a "roles" claim whose text value parses as a JSON array of strings
//     containing privilegedRole;
//  2. a "role" claim whose text value equals privilegedRole;
//  3. a scan over the remaining claims, in payload order, matching any key
//     that contains "role" (case-insensitive) with a text value equal to, or
//     a string list containing, privilegedRole.
//
// A value of the wrong shape makes that strategy non-matching and resolution
// falls through; nothing here faults. The fallback scan is deliberately
// permissive so vendor-prefixed claim names are caught, at the cost of
// possible false positives on unrelated claims whose name happens to contain
// "role".
func ResolvePrivilegedRole(set *claims.ClaimSet, privilegedRole string) RoleVerdict {
	if set == nil || privilegedRole == "" {
		return RoleVerdict{}
	}

	if v, ok := set.Get("roles"); ok && v.Kind == claims.KindText {
		var names []string
		if err := json.Unmarshal([]byte(v.Text), &names); err == nil {
			for _, name := range names {
				if name == privilegedRole {
					return RoleVerdict{
						IsPrivileged: true,
						MatchedClaim: "roles",
						Strategy:     StrategyRolesList,
					}
				}
			}
		}
	}

	if v, ok := set.Get("role"); ok && v.Kind == claims.KindText && v.Text == privilegedRole {
		return RoleVerdict{
			IsPrivileged: true,
			MatchedClaim: "role",
			Strategy:     StrategyRoleScalar,
		}
	}

	for _, key := range set.Keys() {
		if key == "roles" || key == "role" {
			continue
		}
		if !strings.Contains(strings.ToLower(key), "role") {
			continue
		}

		v, _ := set.Get(key)
		switch v.Kind {
		case claims.KindText:
			if v.Text == privilegedRole {
				return RoleVerdict{
					IsPrivileged: true,
					MatchedClaim: key,
					Strategy:     StrategyFallbackScan,
				}
			}
		case claims.KindTextList:
			for _, name := range v.List {
				if name == privilegedRole {
					return RoleVerdict{
						IsPrivileged: true,
						MatchedClaim: key,
						Strategy:     StrategyFallbackScan,
					}
				}
			}
		}
	}

	return RoleVerdict{}
}
