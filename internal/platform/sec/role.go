// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// UserRole is the "rol" claim of an access token.
type UserRole string

const (
	// RoleAdmin may edit, retire and merge series and start duplicate scans.
	RoleAdmin UserRole = "admin"

	// RoleMember reads the catalogue only.
	RoleMember UserRole = "member"
)

// roleRank orders the roles; unknown roles rank zero and satisfy nothing.
var roleRank = map[UserRole]int{
	RoleMember: 1,
	RoleAdmin:  2,
}

// AtLeast reports whether role grants everything required grants.
func (role UserRole) AtLeast(required UserRole) bool {
	rank := roleRank[role]
	return rank > 0 && rank >= roleRank[required]
}
