package policy

import (
	"embed"
	"encoding/json"
	"fmt"
	"path/filepath"
)

//go:embed policies/operations/*.json policies/roles.json
var policiesFS embed.FS

// Loader loads policy configurations from embedded JSON files
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// LoadEntityPolicies loads all entity operation policies
func (l *Loader) LoadEntityPolicies() (map[string]*EntityPolicy, error) {
	policies := make(map[string]*EntityPolicy)

	entries, err := policiesFS.ReadDir("policies/operations")
	if err != nil {
		return nil, fmt.Errorf("failed to read policies directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := policiesFS.ReadFile("policies/operations/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read policy file %s: %w", entry.Name(), err)
		}

		var policy EntityPolicy
		if err := json.Unmarshal(data, &policy); err != nil {
			return nil, fmt.Errorf("failed to parse policy file %s: %w", entry.Name(), err)
		}
		if policy.Entity == "" {
			return nil, fmt.Errorf("policy file %s has no entity", entry.Name())
		}

		policies[policy.Entity] = &policy
	}

	return policies, nil
}

// LoadRolePermissions loads the role -> permission table
func (l *Loader) LoadRolePermissions() (RolePermissions, error) {
	data, err := policiesFS.ReadFile("policies/roles.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read roles.json: %w", err)
	}

	var perms RolePermissions
	if err := json.Unmarshal(data, &perms); err != nil {
		return nil, fmt.Errorf("failed to parse roles.json: %w", err)
	}
	return perms, nil
}

// LoadAPIConfigs indexes every declared route by "METHOD:PATH"
func (l *Loader) LoadAPIConfigs(entityPolicies map[string]*EntityPolicy) (map[string]*APIConfig, error) {
	configs := make(map[string]*APIConfig)
	for entity, ep := range entityPolicies {
		for opName, op := range ep.Operations {
			for _, route := range op.Routes {
				key := route.Method + ":" + route.Path
				if existing, ok := configs[key]; ok {
					return nil, fmt.Errorf("route %s declared by %s.%s and %s.%s", key, existing.Entity, existing.Operation, entity, opName)
				}
				if op.CheckScope.IsResource() || op.CheckScope == CheckScopeSelf {
					if route.Resource == "" {
						return nil, fmt.Errorf("route %s (%s.%s) needs a resource source", key, entity, opName)
					}
				}
				configs[key] = &APIConfig{
					Entity:    entity,
					Operation: opName,
					Policy:    op,
					Resource:  route.Resource,
				}
			}
		}
	}
	return configs, nil
}
