// Package rbac decides route and action visibility from the staff role.
// Roles are coarse identifiers issued by the sensus backend, not
// capability sets; the console only compares identifiers.
package rbac

import "strings"

// RoleAll is the wildcard symbolic name granting universal access.
const RoleAll = "all"

// Symbolic role names known to the console. The identifier behind each
// name comes from configuration, never from handler code.
const (
	RoleSuperAdmin    = "super_admin"
	RoleAdminDaerah   = "admin_daerah"
	RoleAdminDesa     = "admin_desa"
	RoleAdminKelompok = "admin_kelompok"
	RoleViewer        = "viewer"
)

// Policy maps symbolic role names to the role identifiers the backend
// issues. Injected at startup from configuration.
type Policy map[string]string

// Evaluator answers access questions for a session role identifier.
type Evaluator struct {
	policy Policy
}

// NewEvaluator constructs an Evaluator over a normalized copy of policy.
func NewEvaluator(policy Policy) *Evaluator {
	normalized := make(Policy, len(policy))
	for name, id := range policy {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}
		normalized[name] = strings.TrimSpace(id)
	}
	return &Evaluator{policy: normalized}
}

// HasAccess reports whether the session role grants any of the required
// symbolic roles (OR semantics). The "all" wildcard always grants, even
// for an empty session role. Unknown symbolic names grant nothing.
func (e *Evaluator) HasAccess(sessionRoleID string, required ...string) bool {
	if len(required) == 0 {
		return true
	}
	for _, name := range required {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == RoleAll {
			return true
		}
		id, ok := e.policy[name]
		if !ok || id == "" {
			continue
		}
		if id == sessionRoleID {
			return true
		}
	}
	return false
}

// RoleName resolves a role identifier back to its symbolic name, for
// display in the user list. Unknown identifiers return "".
func (e *Evaluator) RoleName(roleID string) string {
	if roleID == "" {
		return ""
	}
	for name, id := range e.policy {
		if id == roleID {
			return name
		}
	}
	return ""
}
