package auth

import "strings"

type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleAdmin    Role = "ADMIN"
)

var Roles = []Role{RoleEmployee, RoleManager, RoleAdmin}

// ParseRole normalizes a role name; unknown names return false.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(value)))
	for _, known := range Roles {
		if role == known {
			return role, true
		}
	}
	return "", false
}

// Identity is the acting caller as established by the authentication layer.
// The tracking core trusts it completely.
type Identity struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (i Identity) IsManagerLevel() bool {
	return i.Role == RoleManager || i.Role == RoleAdmin
}
