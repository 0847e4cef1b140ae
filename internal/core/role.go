package core

import (
	"fmt"
	"strings"
)

// Role is the current user's role, supplied by the presentation layer.
type Role string

const (
	RoleAdministrator Role = "administrador"
	RoleFinance       Role = "financeiro"
	RoleSecretary     Role = "secretaria"
)

// ParseRole accepts the role names case-insensitively.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdministrator, RoleFinance, RoleSecretary:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// CanWriteRegistry reports whether the role may change members or the organization.
func (r Role) CanWriteRegistry() bool {
	return r == RoleAdministrator
}

// CanAccessLedger reports whether the role may read or record contributions.
func (r Role) CanAccessLedger() bool {
	return r == RoleAdministrator || r == RoleFinance
}
