package repository_test

import (
	"context"
	"testing"

	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/repository"
	"sprintdesk/internal/sprintdesk/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type resolverMocks struct {
	sprints      *testutil.MockStore[model.Sprint]
	tasks        *testutil.MockStore[model.Task]
	nodes        *testutil.MockStore[model.Node]
	infras       *testutil.MockStore[model.Infrastructure]
	deployments  *testutil.MockStore[model.Deployment]
	projectRisks *testutil.MockStore[model.ProjectRisk]
	projects     *testutil.MockStore[model.Project]
	memberships  *testutil.MockMembershipRepository
}

func newResolver() (*repository.ScopeResolver, *resolverMocks) {
	m := &resolverMocks{
		sprints:      new(testutil.MockStore[model.Sprint]),
		tasks:        new(testutil.MockStore[model.Task]),
		nodes:        new(testutil.MockStore[model.Node]),
		infras:       new(testutil.MockStore[model.Infrastructure]),
		deployments:  new(testutil.MockStore[model.Deployment]),
		projectRisks: new(testutil.MockStore[model.ProjectRisk]),
		projects:     new(testutil.MockStore[model.Project]),
		memberships:  new(testutil.MockMembershipRepository),
	}
	return &repository.ScopeResolver{
		Sprints:         m.sprints,
		Tasks:           m.tasks,
		Nodes:           m.nodes,
		Infrastructures: m.infras,
		Deployments:     m.deployments,
		ProjectRisks:    m.projectRisks,
		Projects:        m.projects,
		Memberships:     m.memberships,
	}, m
}

func TestResolveScope(t *testing.T) {
	ctx := context.Background()

	t.Run("project", func(t *testing.T) {
		r, m := newResolver()
		m.projects.On("FindByID", mock.Anything, "p1").Return(&model.Project{}, nil)

		scope, err := r.ResolveScope(ctx, model.ResourceTypeProject, "p1")
		require.NoError(t, err)
		assert.Equal(t, &model.ResourceScope{ProjectID: "p1"}, scope)
	})

	t.Run("task carries the whole chain and its assignee", func(t *testing.T) {
		r, m := newResolver()
		task := &model.Task{ProjectID: "p1", SprintID: "s1", AssigneeID: "u1"}
		task.ID = "t1"
		m.tasks.On("FindByID", mock.Anything, "t1").Return(task, nil)

		scope, err := r.ResolveScope(ctx, model.ResourceTypeTask, "t1")
		require.NoError(t, err)
		assert.Equal(t, &model.ResourceScope{ProjectID: "p1", SprintID: "s1", TaskID: "t1", AssigneeID: "u1"}, scope)
	})

	t.Run("deployment resolves to its node and project", func(t *testing.T) {
		r, m := newResolver()
		m.deployments.On("FindByID", mock.Anything, "d1").Return(&model.Deployment{ProjectID: "p1", NodeID: "n1"}, nil)

		scope, err := r.ResolveScope(ctx, model.ResourceTypeDeployment, "d1")
		require.NoError(t, err)
		assert.Equal(t, "p1", scope.ProjectID)
		assert.Equal(t, "n1", scope.NodeID)
	})

	t.Run("missing resource is not found", func(t *testing.T) {
		r, m := newResolver()
		m.sprints.On("FindByID", mock.Anything, "gone").Return(nil, repository.ErrNotFound)

		_, err := r.ResolveScope(ctx, model.ResourceTypeSprint, "gone")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("empty id is not found without a lookup", func(t *testing.T) {
		r, m := newResolver()
		_, err := r.ResolveScope(ctx, model.ResourceTypeProject, "")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		m.projects.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("unknown scope is an error", func(t *testing.T) {
		r, _ := newResolver()
		_, err := r.ResolveScope(ctx, "galaxy", "x")
		require.Error(t, err)
		assert.NotErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestFindMembershipsDelegates(t *testing.T) {
	r, m := newResolver()
	refs := []model.ResourceRef{model.ProjectRef("p1")}
	want := []*model.Membership{{UserID: "u1", ResourceType: model.ResourceTypeProject, ResourceID: "p1"}}
	m.memberships.On("FindMemberships", mock.Anything, "u1", refs).Return(want, nil)

	got, err := r.FindMemberships(context.Background(), "u1", refs)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
