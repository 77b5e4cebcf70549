package auth

import "fmt"

// Role is the access level carried by an API token. Viewers read monitoring
// state, operators manage notifications, admins run exports and compaction.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

var roleRank = map[Role]int{
	RoleViewer:   1,
	RoleOperator: 2,
	RoleAdmin:    3,
}

// ParseRole validates a role claim value.
func ParseRole(value string) (Role, error) {
	role := Role(value)
	if _, ok := roleRank[role]; !ok {
		return "", fmt.Errorf("auth: unknown role %q", value)
	}
	return role, nil
}

// Allows reports whether the role meets the required access level. Unknown
// roles allow nothing.
func (r Role) Allows(required Role) bool {
	rank, ok := roleRank[r]
	if !ok {
		return false
	}
	return rank >= roleRank[required]
}
