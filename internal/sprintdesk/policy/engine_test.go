package policy_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/policy"
	"sprintdesk/internal/sprintdesk/repository"
	"sprintdesk/internal/sprintdesk/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *policy.Engine {
	t.Helper()
	engine, err := policy.NewEngine()
	require.NoError(t, err)
	return engine
}

func TestLoadAPIConfigs(t *testing.T) {
	engine := newEngine(t)
	configs := engine.APIConfigs()

	t.Run("every route is versioned and resource scoped routes name a source", func(t *testing.T) {
		require.NotEmpty(t, configs)
		for key, cfg := range configs {
			method, path, ok := strings.Cut(key, ":")
			require.True(t, ok, key)
			assert.Contains(t, []string{"GET", "POST", "PUT", "DELETE"}, method, key)
			assert.True(t, strings.HasPrefix(path, "/api/v1/"), key)
			if cfg.Policy.CheckScope.IsResource() {
				assert.NotEmpty(t, cfg.Resource, key)
			}
		}
	})

	t.Run("known routes resolve to their operation", func(t *testing.T) {
		cases := map[string]string{
			"GET:/api/v1/projects/:id":           "project.read",
			"PUT:/api/v1/sprints/:id/lead":       "sprint.set_lead",
			"PUT:/api/v1/tasks/:id/status":       "task.update_status",
			"GET:/api/v1/users/me/tasks":         "task.list_mine",
			"POST:/api/v1/admin/sweep":           "schedule.run",
			"PUT:/api/v1/notifications/read-all": "notification.mark_all_read",
		}
		for key, want := range cases {
			cfg, ok := configs[key]
			require.True(t, ok, key)
			assert.Equal(t, want, cfg.Entity+"."+cfg.Operation, key)
		}
	})

	t.Run("login is not part of the table", func(t *testing.T) {
		_, ok := configs["POST:/api/v1/auth/login"]
		assert.False(t, ok)
	})
}

func TestRolePermissions(t *testing.T) {
	engine := newEngine(t)

	tests := []struct {
		role       string
		permission string
		want       bool
	}{
		{model.RoleAdmin, "project.delete", true},
		{model.RoleAdmin, "anything.at.all", true},
		{model.RoleUser, "catalog.read", true},
		{model.RoleUser, "catalog.write", false},
		{model.RoleUser, "project.create", false},
		{model.RoleProjectLead, "sprint.set_lead", true},
		{model.RoleSprintLead, "sprint.set_lead", false},
		{model.RoleSprintLead, "task.assign", true},
		{model.RoleSprintMember, "task.update", false},
		{model.RoleTaskAssignee, "task.update_status", true},
		{model.RoleTaskAssignee, "task.extend", false},
		{"ghost", "task.read", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, engine.RoleHasPermission(tt.role, tt.permission), "%s %s", tt.role, tt.permission)
	}

	assert.Equal(t, []string{model.RoleAdmin, model.RoleProjectLead}, engine.GetRolesWithPermission("sprint.set_lead"))
}

func TestEffectiveRoles(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()
	scope := &model.ResourceScope{ProjectID: "p1", SprintID: "s1", TaskID: "t1", AssigneeID: "u1"}

	repo := new(testutil.MockAccessRepository)
	repo.On("FindMemberships", mock.Anything, "u1", scope.Refs()).Return([]*model.Membership{
		{UserID: "u1", ResourceType: model.ResourceTypeProject, ResourceID: "p1", Role: model.MemberRoleMember},
		{UserID: "u1", ResourceType: model.ResourceTypeSprint, ResourceID: "s1", Role: model.MemberRoleLead},
		// A membership outside the chain never counts
		{UserID: "u1", ResourceType: model.ResourceTypeSprint, ResourceID: "s2", Role: model.MemberRoleLead},
	}, nil)

	roles, err := engine.EffectiveRoles(ctx, repo, model.Caller{ID: "u1", Role: model.RoleUser}, scope)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{model.RoleUser, model.RoleTaskAssignee, model.RoleProjectMember, model.RoleSprintLead}, roles)

	roles, err = engine.EffectiveRoles(ctx, repo, model.Caller{ID: "u1", Role: model.RoleUser}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleUser}, roles)
}

func TestCheckOperationPermission(t *testing.T) {
	ctx := context.Background()
	member := model.Caller{ID: "u1", Role: model.RoleUser}

	t.Run("authenticated scope needs only a caller", func(t *testing.T) {
		engine := newEngine(t)
		repo := new(testutil.MockAccessRepository)
		ok, err := engine.CheckOperationPermission(ctx, repo, policy.OperationRequest{Caller: member, Entity: "project", Operation: "list"})
		require.NoError(t, err)
		assert.True(t, ok)
		repo.AssertNotCalled(t, "ResolveScope", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("system scope uses the stored role", func(t *testing.T) {
		engine := newEngine(t)
		repo := new(testutil.MockAccessRepository)
		ok, err := engine.CheckOperationPermission(ctx, repo, policy.OperationRequest{Caller: member, Entity: "project", Operation: "create"})
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = engine.CheckOperationPermission(ctx, repo, policy.OperationRequest{
			Caller: model.Caller{ID: "a1", Role: model.RoleAdmin}, Entity: "project", Operation: "create",
		})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("self scope admits the target user", func(t *testing.T) {
		engine := newEngine(t)
		repo := new(testutil.MockAccessRepository)
		ok, err := engine.CheckOperationPermission(ctx, repo, policy.OperationRequest{Caller: member, Entity: "user", Operation: "update", ResourceID: "u1"})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = engine.CheckOperationPermission(ctx, repo, policy.OperationRequest{Caller: member, Entity: "user", Operation: "update", ResourceID: "u2"})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("sprint lead permissions inherit down to tasks", func(t *testing.T) {
		engine := newEngine(t)
		repo := new(testutil.MockAccessRepository)
		scope := &model.ResourceScope{ProjectID: "p1", SprintID: "s1", TaskID: "t1"}
		repo.On("ResolveScope", mock.Anything, "task", "t1").Return(scope, nil)
		repo.On("FindMemberships", mock.Anything, "u1", mock.Anything).Return([]*model.Membership{
			{UserID: "u1", ResourceType: model.ResourceTypeSprint, ResourceID: "s1", Role: model.MemberRoleLead},
		}, nil)

		ok, err := engine.CheckOperationPermission(ctx, repo, policy.OperationRequest{Caller: member, Entity: "task", Operation: "assign", ResourceID: "t1"})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("assignee may change status but not extend", func(t *testing.T) {
		engine := newEngine(t)
		repo := new(testutil.MockAccessRepository)
		scope := &model.ResourceScope{ProjectID: "p1", SprintID: "s1", TaskID: "t1", AssigneeID: "u1"}
		repo.On("ResolveScope", mock.Anything, "task", "t1").Return(scope, nil)
		repo.On("FindMemberships", mock.Anything, "u1", mock.Anything).Return([]*model.Membership{
			{UserID: "u1", ResourceType: model.ResourceTypeSprint, ResourceID: "s1", Role: model.MemberRoleMember},
		}, nil)

		ok, err := engine.CheckOperationPermission(ctx, repo, policy.OperationRequest{Caller: member, Entity: "task", Operation: "update_status", ResourceID: "t1"})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = engine.CheckOperationPermission(ctx, repo, policy.OperationRequest{Caller: member, Entity: "task", Operation: "extend", ResourceID: "t1"})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("admin still needs an existing resource", func(t *testing.T) {
		engine := newEngine(t)
		repo := new(testutil.MockAccessRepository)
		repo.On("ResolveScope", mock.Anything, "sprint", "gone").Return(nil, repository.ErrNotFound)

		ok, err := engine.CheckOperationPermission(ctx, repo, policy.OperationRequest{
			Caller: model.Caller{ID: "a1", Role: model.RoleAdmin}, Entity: "sprint", Operation: "read", ResourceID: "gone",
		})
		assert.False(t, ok)
		assert.True(t, errors.Is(err, repository.ErrNotFound))
		repo.AssertNotCalled(t, "FindMemberships", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown operation is denied", func(t *testing.T) {
		engine := newEngine(t)
		ok, err := engine.CheckOperationPermission(ctx, new(testutil.MockAccessRepository), policy.OperationRequest{Caller: member, Entity: "project", Operation: "archive"})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
