package policy

import (
	"context"
	"fmt"
	"sort"

	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/repository"
)

// wildcard grants every permission
const wildcard = "*"

// Engine is the central policy engine for permission checking
type Engine struct {
	entityPolicies map[string]*EntityPolicy
	rolePerms      map[string]map[string]bool
	apiConfigs     map[string]*APIConfig
}

// NewEngine creates a new policy Engine from the embedded policy files
func NewEngine() (*Engine, error) {
	loader := NewLoader()

	entityPolicies, err := loader.LoadEntityPolicies()
	if err != nil {
		return nil, fmt.Errorf("failed to load entity policies: %w", err)
	}

	rolePerms, err := loader.LoadRolePermissions()
	if err != nil {
		return nil, fmt.Errorf("failed to load role permissions: %w", err)
	}

	apiConfigs, err := loader.LoadAPIConfigs(entityPolicies)
	if err != nil {
		return nil, fmt.Errorf("failed to load api configs: %w", err)
	}

	index := make(map[string]map[string]bool, len(rolePerms))
	for role, perms := range rolePerms {
		set := make(map[string]bool, len(perms))
		for _, p := range perms {
			set[p] = true
		}
		index[role] = set
	}

	return &Engine{
		entityPolicies: entityPolicies,
		rolePerms:      index,
		apiConfigs:     apiConfigs,
	}, nil
}

// APIConfigs returns the route table keyed by "METHOD:PATH"
func (e *Engine) APIConfigs() map[string]*APIConfig {
	return e.apiConfigs
}

// GetOperationPolicy returns the policy for a specific entity operation
func (e *Engine) GetOperationPolicy(entity, operation string) (*OperationPolicy, error) {
	entityPolicy, ok := e.entityPolicies[entity]
	if !ok {
		return nil, fmt.Errorf("unknown entity: %s", entity)
	}

	opPolicy, ok := entityPolicy.Operations[operation]
	if !ok {
		return nil, fmt.Errorf("unknown operation %s for entity %s", operation, entity)
	}

	return opPolicy, nil
}

// RoleHasPermission checks one role against the table
func (e *Engine) RoleHasPermission(role, permission string) bool {
	perms, ok := e.rolePerms[role]
	if !ok {
		return false
	}
	return perms[wildcard] || perms[permission]
}

// HasPermission reports whether any of the roles grants the permission
func (e *Engine) HasPermission(roles []string, permission string) bool {
	for _, r := range roles {
		if e.RoleHasPermission(r, permission) {
			return true
		}
	}
	return false
}

// GetRolesWithPermission returns roles that have the given permission
func (e *Engine) GetRolesWithPermission(permission string) []string {
	var roles []string
	for role := range e.rolePerms {
		if e.RoleHasPermission(role, permission) {
			roles = append(roles, role)
		}
	}
	sort.Strings(roles)
	return roles
}

// EffectiveRoles collects the caller's roles along a resolved chain: the
// system role, project and sprint memberships, and task assignment.
func (e *Engine) EffectiveRoles(
	ctx context.Context,
	repo repository.AccessRepository,
	caller model.Caller,
	scope *model.ResourceScope,
) ([]string, error) {
	roles := []string{caller.Role}
	if scope == nil {
		return roles, nil
	}

	if scope.AssigneeID != "" && scope.AssigneeID == caller.ID {
		roles = append(roles, model.RoleTaskAssignee)
	}

	memberships, err := repo.FindMemberships(ctx, caller.ID, scope.Refs())
	if err != nil {
		return nil, err
	}
	for _, m := range memberships {
		switch m.ResourceType {
		case model.ResourceTypeProject:
			if m.ResourceID != scope.ProjectID {
				continue
			}
			if m.IsLead() {
				roles = append(roles, model.RoleProjectLead)
			} else {
				roles = append(roles, model.RoleProjectMember)
			}
		case model.ResourceTypeSprint:
			if m.ResourceID != scope.SprintID {
				continue
			}
			if m.IsLead() {
				roles = append(roles, model.RoleSprintLead)
			} else {
				roles = append(roles, model.RoleSprintMember)
			}
		}
	}
	return roles, nil
}

// CheckOperationPermission checks if the caller may perform an operation.
// A resource that cannot be resolved surfaces as repository.ErrNotFound.
func (e *Engine) CheckOperationPermission(
	ctx context.Context,
	repo repository.AccessRepository,
	req OperationRequest,
) (bool, error) {
	policy, err := e.GetOperationPolicy(req.Entity, req.Operation)
	if err != nil {
		// Unknown operations are denied
		return false, nil
	}
	return e.Check(ctx, repo, req.Caller, policy.CheckScope, req.ResourceID, policy.Permission)
}

// Check evaluates one permission at one scope.
func (e *Engine) Check(
	ctx context.Context,
	repo repository.AccessRepository,
	caller model.Caller,
	scope CheckScope,
	resourceID, permission string,
) (bool, error) {
	switch scope {
	case CheckScopeNone:
		return true, nil

	case CheckScopeAuthenticated:
		return caller.ID != "", nil

	case CheckScopeSystem:
		return e.RoleHasPermission(caller.Role, permission), nil

	case CheckScopeSelf:
		if resourceID != "" && resourceID == caller.ID {
			return true, nil
		}
		return e.RoleHasPermission(caller.Role, permission), nil
	}

	// Admins never need the chain, but the resource must still exist.
	resolved, err := repo.ResolveScope(ctx, string(scope), resourceID)
	if err != nil {
		return false, err
	}
	if e.RoleHasPermission(caller.Role, permission) {
		return true, nil
	}

	roles, err := e.EffectiveRoles(ctx, repo, caller, resolved)
	if err != nil {
		return false, err
	}
	return e.HasPermission(roles, permission), nil
}
