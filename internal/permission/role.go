package permission

import (
	"fmt"
	"strings"

	"github.com/frahmantamala/travel-backoffice/internal"
)

// Role is one of a closed set of staff roles.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleFinance    Role = "finance"
	RoleCaller     Role = "caller"
	RoleMarketing  Role = "marketing"
	RoleBackOffice Role = "back_office"
)

func AllRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleFinance, RoleCaller, RoleMarketing, RoleBackOffice}
}

func (r Role) IsValid() bool {
	for _, known := range AllRoles() {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole accepts a role name in any letter case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", internal.NewValidationFieldError("role", fmt.Sprintf("unknown role %q", s), internal.ErrCodeInvalidRole)
	}
	return r, nil
}

func RoleNames() []string {
	roles := AllRoles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return names
}
