// Package authz maps dashboard users to the capabilities the extension
// installer checks before touching the registry.
package authz

import (
	"fmt"

	"github.com/Fimeg/partnernotice/internal/models"
)

// Capability is a named permission checked before install or activation
type Capability int

const (
	// ActivatePlugins allows activating installed extensions on the current site
	ActivatePlugins Capability = iota + 1
	// ManageNetwork allows network-wide operations on a multi-tenant deployment
	ManageNetwork
)

func (c Capability) String() string {
	switch c {
	case ActivatePlugins:
		return "activate_plugins"
	case ManageNetwork:
		return "manage_network"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

// Authorizer answers capability checks for a user
type Authorizer interface {
	Can(user models.User, capability Capability) bool
}

// RoleAuthorizer grants capabilities from a fixed role table
type RoleAuthorizer struct {
	grants map[string]map[Capability]bool
}

// NewRoleAuthorizer creates an authorizer with the default role table
func NewRoleAuthorizer() *RoleAuthorizer {
	return &RoleAuthorizer{
		grants: map[string]map[Capability]bool{
			models.RoleSuperAdmin: {ActivatePlugins: true, ManageNetwork: true},
			models.RoleAdmin:      {ActivatePlugins: true},
			models.RoleEditor:     {},
		},
	}
}

// Can reports whether the user's role grants the capability
func (a *RoleAuthorizer) Can(user models.User, capability Capability) bool {
	return a.grants[user.Role][capability]
}
