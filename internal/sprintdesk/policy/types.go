package policy

import "sprintdesk/internal/sprintdesk/model"

// CheckScope defines how to check the permission
type CheckScope string

const (
	CheckScopeNone          CheckScope = "none"          // No check at all
	CheckScopeAuthenticated CheckScope = "authenticated" // Any logged-in caller
	CheckScopeSystem        CheckScope = "system"        // Caller's system role only
	CheckScopeSelf          CheckScope = "self"          // Caller is the target user, or system role grants it
	// Any other value names a resource type resolved through the parent chain
	CheckScopeProject        CheckScope = model.ResourceTypeProject
	CheckScopeSprint         CheckScope = model.ResourceTypeSprint
	CheckScopeTask           CheckScope = model.ResourceTypeTask
	CheckScopeNode           CheckScope = model.ResourceTypeNode
	CheckScopeInfrastructure CheckScope = model.ResourceTypeInfrastructure
	CheckScopeDeployment     CheckScope = model.ResourceTypeDeployment
	CheckScopeProjectRisk    CheckScope = model.ResourceTypeProjectRisk
)

// IsResource reports whether the scope needs a resource lookup.
func (c CheckScope) IsResource() bool {
	switch c {
	case CheckScopeNone, CheckScopeAuthenticated, CheckScopeSystem, CheckScopeSelf:
		return false
	}
	return true
}

// Route binds an HTTP route to an operation
type Route struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	// Where the checked resource id comes from, e.g. "path.id"
	Resource string `json:"resource,omitempty"`
}

// OperationPolicy defines the permission requirements for an operation
type OperationPolicy struct {
	Permission string     `json:"permission"`
	CheckScope CheckScope `json:"check_scope"`
	Routes     []Route    `json:"routes,omitempty"`
}

// EntityPolicy defines all operations for an entity
type EntityPolicy struct {
	Entity     string                      `json:"entity"`
	Operations map[string]*OperationPolicy `json:"operations"`
}

// RolePermissions maps role names to their permissions
type RolePermissions map[string][]string

// APIConfig is the resolved policy of one route
type APIConfig struct {
	Entity    string
	Operation string
	Policy    *OperationPolicy
	Resource  string
}

// OperationRequest is the input for checking operation permission
type OperationRequest struct {
	Caller     model.Caller
	Entity     string
	Operation  string
	ResourceID string
}
