package auth

import (
	"strings"

	masterdata "fuel-dashboard/internal/masterdata/domain"
)

// Role is the role claim carried by a token. Values and their order come
// from the profile roles in masterdata.
type Role string

const (
	RoleUser    Role = masterdata.RoleUser
	RoleManager Role = masterdata.RoleManager
	RoleAdmin   Role = masterdata.RoleAdmin
)

// NormalizeRole trims and validates a role claim.
func NormalizeRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if !masterdata.ValidRole(string(role)) {
		return "", false
	}
	return role, true
}

// RoleAtLeast reports whether role is known and ranks at or above required.
func RoleAtLeast(role Role, required Role) bool {
	rank := masterdata.RoleRank(string(role))
	return rank > 0 && rank >= masterdata.RoleRank(string(required))
}
