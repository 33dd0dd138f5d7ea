package access

import (
	"strings"

	"github.com/astro-web3/mobile-access-gate/internal/domain/claims"
)

const (
	unknownDisplayName = "Unknown User"
	unknownInitials    = "U"

	initialsLength = 2
)

// DeriveProfile builds a display identity from the claim set. A "name" claim
// wins when present; otherwise the local part of the email is used, with its
// first letter capitalized and its first two characters as initials. With no
// usable claims the profile falls back to "Unknown User" / "U".
func DeriveProfile(set *claims.ClaimSet) Profile {
	profile := Profile{
		DisplayName: unknownDisplayName,
		Initials:    unknownInitials,
	}
	if set == nil {
		return profile
	}

	profile.Email = set.Text("email")
	profile.Subject = set.Text("sub")

	if name := strings.TrimSpace(set.Text("name")); name != "" {
		profile.DisplayName = name
		profile.Initials = leadingInitials(name)
		return profile
	}

	local := profile.Email
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}
	if local == "" {
		return profile
	}

	runes := []rune(local)
	profile.DisplayName = strings.ToUpper(string(runes[0])) + string(runes[1:])
	profile.Initials = leadingInitials(local)
	return profile
}

func leadingInitials(s string) string {
	runes := []rune(s)
	if len(runes) > initialsLength {
		runes = runes[:initialsLength]
	}
	return strings.ToUpper(string(runes))
}
