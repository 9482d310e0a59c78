package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"sprintdesk/internal/sprintdesk/auth"
	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/repository"
	"sprintdesk/internal/sprintdesk/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func day(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }

type mocks struct {
	users         *testutil.MockStore[model.User]
	zones         *testutil.MockStore[model.Zone]
	quartiers     *testutil.MockStore[model.Quartier]
	projects      *testutil.MockStore[model.Project]
	sprints       *testutil.MockTimeboxStore[model.Sprint]
	tasks         *testutil.MockTimeboxStore[model.Task]
	memberships   *testutil.MockMembershipRepository
	notifications *testutil.MockNotificationRepository
	notifier      *testutil.RecordingNotifier

	devStacks     *testutil.MockStore[model.DevStack]
	risks         *testutil.MockStore[model.Risk]
	nodes         *testutil.MockStore[model.Node]
	infras        *testutil.MockStore[model.Infrastructure]
	deployments   *testutil.MockStore[model.Deployment]
	deployHistory *testutil.MockStore[model.DeployHistory]
	projectRisks  *testutil.MockStore[model.ProjectRisk]
}

func newTestService(t *testing.T) (*Service, *mocks) {
	t.Helper()
	m := &mocks{
		users:         new(testutil.MockStore[model.User]),
		zones:         new(testutil.MockStore[model.Zone]),
		quartiers:     new(testutil.MockStore[model.Quartier]),
		projects:      new(testutil.MockStore[model.Project]),
		sprints:       new(testutil.MockTimeboxStore[model.Sprint]),
		tasks:         new(testutil.MockTimeboxStore[model.Task]),
		memberships:   new(testutil.MockMembershipRepository),
		notifications: new(testutil.MockNotificationRepository),
		notifier:      &testutil.RecordingNotifier{},
		devStacks:     new(testutil.MockStore[model.DevStack]),
		risks:         new(testutil.MockStore[model.Risk]),
		nodes:         new(testutil.MockStore[model.Node]),
		infras:        new(testutil.MockStore[model.Infrastructure]),
		deployments:   new(testutil.MockStore[model.Deployment]),
		deployHistory: new(testutil.MockStore[model.DeployHistory]),
		projectRisks:  new(testutil.MockStore[model.ProjectRisk]),
	}
	st := Stores{
		Users:           m.users,
		Zones:           m.zones,
		Quartiers:       m.quartiers,
		NodeTypes:       new(testutil.MockStore[model.NodeType]),
		DevStacks:       m.devStacks,
		Risks:           m.risks,
		Projects:        m.projects,
		Sprints:         m.sprints,
		Tasks:           m.tasks,
		Nodes:           m.nodes,
		Infrastructures: m.infras,
		Deployments:     m.deployments,
		DeployHistory:   m.deployHistory,
		ProjectRisks:    m.projectRisks,
		Memberships:     m.memberships,
		Notifications:   m.notifications,
	}
	tokens := auth.NewTokenManager("test-secret", "sprintdesk", time.Hour)
	s := NewService(st, m.notifier, tokens, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	s.now = func() time.Time { return testNow }
	seq := 0
	s.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return s, m
}

var (
	admin = model.Caller{ID: "admin1", Role: model.RoleAdmin}
	alice = model.Caller{ID: "alice", Role: model.RoleUser}
)

func membership(userID string, ref model.ResourceRef, role string) *model.Membership {
	return &model.Membership{UserID: userID, ResourceType: ref.Type, ResourceID: ref.ID, Role: role}
}

func activeUser(id string) *model.User {
	u := &model.User{Name: id, Email: id + "@example.com", Role: model.RoleUser, Active: true}
	u.ID = id
	return u
}

func TestManualTransition(t *testing.T) {
	tests := []struct {
		from, to model.Status
		ok       bool
	}{
		{model.StatusPending, model.StatusActive, true},
		{model.StatusPending, model.StatusCompleted, true},
		{model.StatusActive, model.StatusCompleted, true},
		{model.StatusCompleted, model.StatusActive, true},
		{model.StatusFinished, model.StatusCompleted, true},
		{model.StatusFinished, model.StatusActive, false},
		{model.StatusActive, model.StatusActive, false},
		{model.StatusActive, model.StatusPending, false},
	}
	for _, tt := range tests {
		err := manualTransition(tt.from, tt.to)
		if tt.ok {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
		} else {
			assert.ErrorIs(t, err, ErrBadRequest, "%s -> %s", tt.from, tt.to)
		}
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)

	t.Run("unknown email is unauthorized", func(t *testing.T) {
		s, m := newTestService(t)
		m.users.On("FindOne", mock.Anything, repository.Filter{"email": "bob@example.com"}).Return(nil, repository.ErrNotFound)

		_, err := s.Login(ctx, model.LoginReq{Email: "bob@example.com", Password: "x"})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("disabled account is unauthorized", func(t *testing.T) {
		s, m := newTestService(t)
		u := activeUser("bob")
		u.PasswordHash = hash
		u.Active = false
		m.users.On("FindOne", mock.Anything, mock.Anything).Return(u, nil)

		_, err := s.Login(ctx, model.LoginReq{Email: "bob@example.com", Password: "correct horse"})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestCreateProject(t *testing.T) {
	ctx := context.Background()
	req := model.CreateProjectReq{Name: "Harbour", LeadID: "alice"}

	t.Run("adds the lead and notifies them", func(t *testing.T) {
		s, m := newTestService(t)
		m.users.On("FindByID", mock.Anything, "alice").Return(activeUser("alice"), nil)
		m.projects.On("Insert", mock.Anything, mock.MatchedBy(func(p *model.Project) bool {
			return p.ID == "id-1" && p.Status == model.StatusActive && p.CreatedBy == "admin1"
		})).Return(nil)
		m.memberships.On("AddMember", mock.Anything, mock.MatchedBy(func(ms *model.Membership) bool {
			return ms.UserID == "alice" && ms.ResourceID == "id-1" && ms.IsLead()
		})).Return(nil)

		detail, err := s.CreateProject(ctx, admin, req)
		require.NoError(t, err)
		assert.Equal(t, "alice", detail.LeadID)

		ev, ok := m.notifier.Last(model.NotifyProjectMemberAdded)
		require.True(t, ok)
		assert.Equal(t, []string{"alice"}, ev.Recipients)
		assert.Equal(t, "Harbour", ev.Params["Name"])
	})

	t.Run("rolls back when the lead cannot be added", func(t *testing.T) {
		s, m := newTestService(t)
		m.users.On("FindByID", mock.Anything, "alice").Return(activeUser("alice"), nil)
		m.projects.On("Insert", mock.Anything, mock.Anything).Return(nil)
		m.memberships.On("AddMember", mock.Anything, mock.Anything).Return(errors.New("write failed"))
		m.projects.On("Delete", mock.Anything, "id-1").Return(nil)

		_, err := s.CreateProject(ctx, admin, req)
		require.Error(t, err)
		m.projects.AssertCalled(t, "Delete", mock.Anything, "id-1")
		assert.Empty(t, m.notifier.Events)
	})

	t.Run("disabled lead is rejected", func(t *testing.T) {
		s, m := newTestService(t)
		u := activeUser("alice")
		u.Active = false
		m.users.On("FindByID", mock.Anything, "alice").Return(u, nil)

		_, err := s.CreateProject(ctx, admin, req)
		assert.ErrorIs(t, err, ErrBadRequest)
		m.projects.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("unknown quartier is rejected", func(t *testing.T) {
		s, m := newTestService(t)
		m.users.On("FindByID", mock.Anything, "alice").Return(activeUser("alice"), nil)
		m.quartiers.On("FindByID", mock.Anything, "q9").Return(nil, repository.ErrNotFound)

		withQuartier := req
		withQuartier.QuartierID = "q9"
		_, err := s.CreateProject(ctx, admin, withQuartier)
		assert.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("future start is pending", func(t *testing.T) {
		s, m := newTestService(t)
		start, end := day(20), day(30)
		m.users.On("FindByID", mock.Anything, "alice").Return(activeUser("alice"), nil)
		m.projects.On("Insert", mock.Anything, mock.MatchedBy(func(p *model.Project) bool {
			return p.Status == model.StatusPending
		})).Return(nil)
		m.memberships.On("AddMember", mock.Anything, mock.Anything).Return(nil)

		future := req
		future.StartDate, future.EndDate = &start, &end
		_, err := s.CreateProject(ctx, admin, future)
		require.NoError(t, err)
		m.projects.AssertExpectations(t)
	})
}

func TestSetProjectLead(t *testing.T) {
	ctx := context.Background()
	project := &model.Project{Name: "Harbour"}
	project.ID = "p1"

	t.Run("same lead is a bad request", func(t *testing.T) {
		s, m := newTestService(t)
		m.projects.On("FindByID", mock.Anything, "p1").Return(project, nil)
		m.users.On("FindByID", mock.Anything, "alice").Return(activeUser("alice"), nil)
		m.memberships.On("GetLead", mock.Anything, model.ProjectRef("p1")).Return(membership("alice", model.ProjectRef("p1"), model.MemberRoleLead), nil)

		_, err := s.SetProjectLead(ctx, admin, "p1", model.MemberReq{UserID: "alice"})
		assert.ErrorIs(t, err, ErrBadRequest)
		m.memberships.AssertNotCalled(t, "TransferLead", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("transfers and notifies both leads", func(t *testing.T) {
		s, m := newTestService(t)
		m.projects.On("FindByID", mock.Anything, "p1").Return(project, nil)
		m.users.On("FindByID", mock.Anything, "bob").Return(activeUser("bob"), nil)
		m.memberships.On("GetLead", mock.Anything, model.ProjectRef("p1")).Return(membership("alice", model.ProjectRef("p1"), model.MemberRoleLead), nil)
		m.memberships.On("TransferLead", mock.Anything, model.ProjectRef("p1"), "bob", "admin1").
			Return(membership("alice", model.ProjectRef("p1"), model.MemberRoleLead), nil)

		detail, err := s.SetProjectLead(ctx, admin, "p1", model.MemberReq{UserID: "bob"})
		require.NoError(t, err)
		assert.Equal(t, "bob", detail.LeadID)

		ev, ok := m.notifier.Last(model.NotifyProjectLeadChanged)
		require.True(t, ok)
		assert.Equal(t, []string{"bob", "alice"}, ev.Recipients)
	})
}

func TestRemoveProjectMember(t *testing.T) {
	ctx := context.Background()
	project := &model.Project{Name: "Harbour"}
	project.ID = "p1"
	sprint := &model.Sprint{ProjectID: "p1", Name: "S1"}
	sprint.ID = "s1"
	pref, sref := model.ProjectRef("p1"), model.SprintRef("s1")

	t.Run("lead cannot be removed", func(t *testing.T) {
		s, m := newTestService(t)
		m.projects.On("FindByID", mock.Anything, "p1").Return(project, nil)
		m.memberships.On("GetMembership", mock.Anything, pref, "alice").Return(membership("alice", pref, model.MemberRoleLead), nil)

		err := s.RemoveProjectMember(ctx, admin, "p1", "alice")
		assert.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("sprint lead cannot be removed", func(t *testing.T) {
		s, m := newTestService(t)
		m.projects.On("FindByID", mock.Anything, "p1").Return(project, nil)
		m.memberships.On("GetMembership", mock.Anything, pref, "bob").Return(membership("bob", pref, model.MemberRoleMember), nil)
		m.sprints.On("FindAll", mock.Anything, repository.Filter{"project_id": "p1"}).Return([]*model.Sprint{sprint}, nil)
		m.memberships.On("GetMembership", mock.Anything, sref, "bob").Return(membership("bob", sref, model.MemberRoleLead), nil)

		err := s.RemoveProjectMember(ctx, admin, "p1", "bob")
		assert.ErrorIs(t, err, ErrBadRequest)
		m.memberships.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cascades to sprints and tasks", func(t *testing.T) {
		s, m := newTestService(t)
		task := &model.Task{ProjectID: "p1", SprintID: "s1", Title: "T", AssigneeID: "bob"}
		task.ID = "t1"

		m.projects.On("FindByID", mock.Anything, "p1").Return(project, nil)
		m.memberships.On("GetMembership", mock.Anything, pref, "bob").Return(membership("bob", pref, model.MemberRoleMember), nil)
		m.sprints.On("FindAll", mock.Anything, repository.Filter{"project_id": "p1"}).Return([]*model.Sprint{sprint}, nil)
		m.memberships.On("GetMembership", mock.Anything, sref, "bob").Return(membership("bob", sref, model.MemberRoleMember), nil)
		m.memberships.On("RemoveMember", mock.Anything, sref, "bob").Return(nil)
		m.tasks.On("FindAll", mock.Anything, repository.Filter{"project_id": "p1", "assignee_id": "bob"}).Return([]*model.Task{task}, nil)
		m.tasks.On("Replace", mock.Anything, "t1", mock.MatchedBy(func(tk *model.Task) bool { return tk.AssigneeID == "" })).Return(nil)
		m.memberships.On("RemoveMember", mock.Anything, pref, "bob").Return(nil)

		require.NoError(t, s.RemoveProjectMember(ctx, admin, "p1", "bob"))
		m.memberships.AssertExpectations(t)
		m.tasks.AssertExpectations(t)
		assert.Equal(t, []string{model.NotifyProjectMemberRemoved}, m.notifier.Kinds())
	})

	t.Run("non member is not found", func(t *testing.T) {
		s, m := newTestService(t)
		m.projects.On("FindByID", mock.Anything, "p1").Return(project, nil)
		m.memberships.On("GetMembership", mock.Anything, pref, "zed").Return(nil, repository.ErrNotFound)

		err := s.RemoveProjectMember(ctx, admin, "p1", "zed")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateSprintStatus(t *testing.T) {
	ctx := context.Background()
	completed := model.StatusCompleted

	newSprint := func() *model.Sprint {
		sp := &model.Sprint{ProjectID: "p1", Name: "S1", Status: model.StatusActive, StartDate: day(10), EndDate: day(20)}
		sp.ID = "s1"
		return sp
	}

	t.Run("lost compare-and-set is a conflict", func(t *testing.T) {
		s, m := newTestService(t)
		m.sprints.On("FindByID", mock.Anything, "s1").Return(newSprint(), nil)
		m.sprints.On("CompareAndSetStatus", mock.Anything, "s1", model.StatusActive, model.StatusCompleted).Return(false, nil)

		_, err := s.UpdateSprintStatus(ctx, alice, "s1", model.UpdateStatusReq{Status: &completed})
		assert.ErrorIs(t, err, ErrConflict)
		assert.Empty(t, m.notifier.Events)
	})

	t.Run("notifies members and the project lead but not the actor", func(t *testing.T) {
		s, m := newTestService(t)
		m.sprints.On("FindByID", mock.Anything, "s1").Return(newSprint(), nil)
		m.sprints.On("CompareAndSetStatus", mock.Anything, "s1", model.StatusActive, model.StatusCompleted).Return(true, nil)
		m.memberships.On("ListMembers", mock.Anything, model.SprintRef("s1")).Return([]*model.Membership{
			membership("alice", model.SprintRef("s1"), model.MemberRoleLead),
			membership("bob", model.SprintRef("s1"), model.MemberRoleMember),
		}, nil)
		m.memberships.On("GetLead", mock.Anything, model.ProjectRef("p1")).Return(membership("carol", model.ProjectRef("p1"), model.MemberRoleLead), nil)

		sprint, err := s.UpdateSprintStatus(ctx, alice, "s1", model.UpdateStatusReq{Status: &completed})
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, sprint.Status)

		ev, ok := m.notifier.Last(model.NotifySprintStatusChanged)
		require.True(t, ok)
		assert.Equal(t, []string{"bob", "carol"}, ev.Recipients)
		assert.Equal(t, "completed", ev.Params["Status"])
	})
}

func TestExtendSprint(t *testing.T) {
	ctx := context.Background()
	projectEnd := day(31)
	project := &model.Project{Name: "Harbour", EndDate: &projectEnd}
	project.ID = "p1"

	finished := func() *model.Sprint {
		sp := &model.Sprint{ProjectID: "p1", Name: "S1", Status: model.StatusFinished, StartDate: day(1), EndDate: day(10)}
		sp.ID = "s1"
		return sp
	}

	t.Run("end must move later", func(t *testing.T) {
		s, m := newTestService(t)
		m.sprints.On("FindByID", mock.Anything, "s1").Return(finished(), nil)

		_, err := s.ExtendSprint(ctx, alice, "s1", model.ExtendReq{EndDate: day(10)})
		assert.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("cannot pass the project end", func(t *testing.T) {
		s, m := newTestService(t)
		m.sprints.On("FindByID", mock.Anything, "s1").Return(finished(), nil)
		m.projects.On("FindByID", mock.Anything, "p1").Return(project, nil)

		_, err := s.ExtendSprint(ctx, alice, "s1", model.ExtendReq{EndDate: projectEnd.AddDate(0, 0, 1)})
		assert.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("reactivates a finished sprint", func(t *testing.T) {
		s, m := newTestService(t)
		m.sprints.On("FindByID", mock.Anything, "s1").Return(finished(), nil)
		m.projects.On("FindByID", mock.Anything, "p1").Return(project, nil)
		m.sprints.On("Replace", mock.Anything, "s1", mock.Anything).Return(nil)
		m.memberships.On("ListMembers", mock.Anything, mock.Anything).Return([]*model.Membership{}, nil)
		m.memberships.On("GetLead", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)

		sprint, err := s.ExtendSprint(ctx, alice, "s1", model.ExtendReq{EndDate: day(25)})
		require.NoError(t, err)
		assert.Equal(t, model.StatusActive, sprint.Status)
		assert.Equal(t, day(25), sprint.EndDate)
		assert.Equal(t, []string{model.NotifySprintExtended}, m.notifier.Kinds())
	})
}

func TestExtendTask(t *testing.T) {
	ctx := context.Background()
	sprint := &model.Sprint{ProjectID: "p1", StartDate: day(1), EndDate: day(20)}
	sprint.ID = "s1"

	newTask := func(end time.Time, status model.Status) *model.Task {
		tk := &model.Task{ProjectID: "p1", SprintID: "s1", Title: "Wire", AssigneeID: "bob", StartDate: day(1), EndDate: end, Status: status}
		tk.ID = "t1"
		return tk
	}

	t.Run("caps the new end at the sprint end", func(t *testing.T) {
		s, m := newTestService(t)
		m.tasks.On("FindByID", mock.Anything, "t1").Return(newTask(day(12), model.StatusFinished), nil)
		m.sprints.On("FindByID", mock.Anything, "s1").Return(sprint, nil)
		m.tasks.On("Replace", mock.Anything, "t1", mock.Anything).Return(nil)
		m.memberships.On("GetLead", mock.Anything, model.SprintRef("s1")).Return(membership("alice", model.SprintRef("s1"), model.MemberRoleLead), nil)

		task, err := s.ExtendTask(ctx, admin, "t1", model.ExtendReq{EndDate: day(28)})
		require.NoError(t, err)
		assert.Equal(t, day(20), task.EndDate)
		assert.Equal(t, model.StatusActive, task.Status)

		ev, ok := m.notifier.Last(model.NotifyTaskExtended)
		require.True(t, ok)
		assert.Equal(t, []string{"bob", "alice"}, ev.Recipients)
		assert.Equal(t, "2026-03-20", ev.Params["EndDate"])
	})

	t.Run("already at the sprint end is a bad request", func(t *testing.T) {
		s, m := newTestService(t)
		m.tasks.On("FindByID", mock.Anything, "t1").Return(newTask(day(20), model.StatusActive), nil)
		m.sprints.On("FindByID", mock.Anything, "s1").Return(sprint, nil)

		_, err := s.ExtendTask(ctx, admin, "t1", model.ExtendReq{EndDate: day(25)})
		assert.ErrorIs(t, err, ErrBadRequest)
		m.tasks.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAssignTask(t *testing.T) {
	ctx := context.Background()
	newTask := func(assignee string) *model.Task {
		tk := &model.Task{ProjectID: "p1", SprintID: "s1", Title: "Wire", AssigneeID: assignee}
		tk.ID = "t1"
		return tk
	}

	t.Run("same assignee is a no-op", func(t *testing.T) {
		s, m := newTestService(t)
		m.tasks.On("FindByID", mock.Anything, "t1").Return(newTask("bob"), nil)

		_, err := s.AssignTask(ctx, alice, "t1", model.AssignTaskReq{AssigneeID: "bob"})
		require.NoError(t, err)
		m.tasks.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, m.notifier.Events)
	})

	t.Run("assignee must be a sprint member", func(t *testing.T) {
		s, m := newTestService(t)
		m.tasks.On("FindByID", mock.Anything, "t1").Return(newTask(""), nil)
		m.memberships.On("GetMembership", mock.Anything, model.SprintRef("s1"), "zed").Return(nil, repository.ErrNotFound)

		_, err := s.AssignTask(ctx, alice, "t1", model.AssignTaskReq{AssigneeID: "zed"})
		assert.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("reassignment notifies both users", func(t *testing.T) {
		s, m := newTestService(t)
		m.tasks.On("FindByID", mock.Anything, "t1").Return(newTask("bob"), nil)
		m.memberships.On("GetMembership", mock.Anything, model.SprintRef("s1"), "carol").
			Return(membership("carol", model.SprintRef("s1"), model.MemberRoleMember), nil)
		m.tasks.On("Replace", mock.Anything, "t1", mock.Anything).Return(nil)

		task, err := s.AssignTask(ctx, alice, "t1", model.AssignTaskReq{AssigneeID: "carol"})
		require.NoError(t, err)
		assert.Equal(t, "carol", task.AssigneeID)
		assert.Equal(t, []string{model.NotifyTaskAssigned, model.NotifyTaskUnassigned}, m.notifier.Kinds())

		ev, _ := m.notifier.Last(model.NotifyTaskUnassigned)
		assert.Equal(t, []string{"bob"}, ev.Recipients)
	})
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	name := "Alice B"
	role := model.RoleAdmin
	off := false

	t.Run("users only edit themselves", func(t *testing.T) {
		s, _ := newTestService(t)
		_, err := s.UpdateUser(ctx, alice, "bob", model.UpdateUserReq{Name: &name})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("users cannot promote themselves", func(t *testing.T) {
		s, _ := newTestService(t)
		_, err := s.UpdateUser(ctx, alice, "alice", model.UpdateUserReq{Role: &role})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admins cannot disable themselves", func(t *testing.T) {
		s, _ := newTestService(t)
		_, err := s.UpdateUser(ctx, admin, "admin1", model.UpdateUserReq{Active: &off})
		assert.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		s, m := newTestService(t)
		email := "taken@example.com"
		m.users.On("FindByID", mock.Anything, "alice").Return(activeUser("alice"), nil)
		m.users.On("Replace", mock.Anything, "alice", mock.Anything).Return(repository.ErrDuplicate)

		_, err := s.UpdateUser(ctx, alice, "alice", model.UpdateUserReq{Email: &email})
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("cannot delete yourself", func(t *testing.T) {
		s, _ := newTestService(t)
		assert.ErrorIs(t, s.DeleteUser(ctx, admin, "admin1"), ErrBadRequest)
	})

	t.Run("a lead must be replaced first", func(t *testing.T) {
		s, m := newTestService(t)
		m.users.On("FindByID", mock.Anything, "bob").Return(activeUser("bob"), nil)
		m.memberships.On("ListResourceIDs", mock.Anything, "bob", model.ResourceTypeProject).Return([]string{"p1"}, nil)
		m.memberships.On("GetMembership", mock.Anything, model.ProjectRef("p1"), "bob").
			Return(membership("bob", model.ProjectRef("p1"), model.MemberRoleLead), nil)

		assert.ErrorIs(t, s.DeleteUser(ctx, admin, "bob"), ErrConflict)
		m.users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("removes memberships and assignments", func(t *testing.T) {
		s, m := newTestService(t)
		m.users.On("FindByID", mock.Anything, "bob").Return(activeUser("bob"), nil)
		m.memberships.On("ListResourceIDs", mock.Anything, "bob", model.ResourceTypeProject).Return([]string{"p1"}, nil)
		m.memberships.On("ListResourceIDs", mock.Anything, "bob", model.ResourceTypeSprint).Return([]string{}, nil)
		m.memberships.On("GetMembership", mock.Anything, model.ProjectRef("p1"), "bob").
			Return(membership("bob", model.ProjectRef("p1"), model.MemberRoleMember), nil)
		m.memberships.On("RemoveMember", mock.Anything, model.ProjectRef("p1"), "bob").Return(nil)
		m.tasks.On("FindAll", mock.Anything, repository.Filter{"assignee_id": "bob"}).Return([]*model.Task{}, nil)
		m.users.On("Delete", mock.Anything, "bob").Return(nil)

		require.NoError(t, s.DeleteUser(ctx, admin, "bob"))
		m.memberships.AssertExpectations(t)
		m.users.AssertExpectations(t)
	})
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("zone in use cannot be deleted", func(t *testing.T) {
		s, m := newTestService(t)
		m.zones.On("FindByID", mock.Anything, "z1").Return(&model.Zone{Name: "North"}, nil)
		m.quartiers.On("Count", mock.Anything, repository.Filter{"zone_id": "z1"}).Return(int64(2), nil)

		assert.ErrorIs(t, s.Zones.Delete(ctx, admin, "z1"), ErrConflict)
		m.zones.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("quartier needs an existing zone", func(t *testing.T) {
		s, m := newTestService(t)
		m.zones.On("FindByID", mock.Anything, "z9").Return(nil, repository.ErrNotFound)

		_, err := s.Quartiers.Create(ctx, admin, &model.Quartier{Name: "Old Town", ZoneID: "z9"})
		assert.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("missing entry is not found", func(t *testing.T) {
		s, m := newTestService(t)
		m.zones.On("FindByID", mock.Anything, "z0").Return(nil, repository.ErrNotFound)

		_, err := s.Zones.Get(ctx, "z0")
		assert.ErrorIs(t, err, ErrNotFound)
		var svcErr *Error
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "zone not found", svcErr.Message)
	})

	t.Run("create ignores a client supplied id", func(t *testing.T) {
		s, m := newTestService(t)
		m.zones.On("Insert", mock.Anything, mock.MatchedBy(func(z *model.Zone) bool {
			return z.ID == "id-1"
		})).Return(nil)

		zone := &model.Zone{Name: "North"}
		zone.ID = "chosen"
		created, err := s.Zones.Create(ctx, admin, zone)
		require.NoError(t, err)
		assert.Equal(t, "id-1", created.ID)
		assert.Equal(t, testNow, created.CreatedAt)
		m.zones.AssertExpectations(t)
	})
}

func TestListProjects(t *testing.T) {
	ctx := context.Background()

	t.Run("user without memberships gets an empty page", func(t *testing.T) {
		s, m := newTestService(t)
		m.memberships.On("ListResourceIDs", mock.Anything, "alice", model.ResourceTypeProject).Return([]string{}, nil)

		page, err := s.ListProjects(ctx, alice, model.PageReq{})
		require.NoError(t, err)
		assert.Empty(t, page.Data)
		m.projects.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("user sees only member projects", func(t *testing.T) {
		s, m := newTestService(t)
		m.memberships.On("ListResourceIDs", mock.Anything, "alice", model.ResourceTypeProject).Return([]string{"p1", "p2"}, nil)
		m.projects.On("Find", mock.Anything, repository.Filter{"_id": map[string]any{"$in": []string{"p1", "p2"}}}, mock.Anything).
			Return([]*model.Project{{Name: "A"}, {Name: "B"}}, int64(2), nil)

		page, err := s.ListProjects(ctx, alice, model.PageReq{})
		require.NoError(t, err)
		assert.Len(t, page.Data, 2)
		assert.Equal(t, int64(2), page.TotalCount)
	})
}

func TestDeployments(t *testing.T) {
	ctx := context.Background()
	node := &model.Node{ProjectID: "p1"}
	node.ID = "n1"

	t.Run("create records history with the default status", func(t *testing.T) {
		s, m := newTestService(t)
		m.nodes.On("FindByID", mock.Anything, "n1").Return(node, nil)
		m.devStacks.On("FindByID", mock.Anything, "ds1").Return(&model.DevStack{Name: "go"}, nil)
		m.deployments.On("Insert", mock.Anything, mock.Anything).Return(nil)
		m.deployHistory.On("Insert", mock.Anything, mock.MatchedBy(func(h *model.DeployHistory) bool {
			return h.DeploymentID == "id-1" && h.Action == model.DeployActionCreated && h.Status == model.DeploymentPending
		})).Return(nil)

		d, err := s.CreateDeployment(ctx, alice, "n1", model.CreateDeploymentReq{DevStackID: "ds1", Version: "v1.2.0"})
		require.NoError(t, err)
		assert.Equal(t, "p1", d.ProjectID)
		assert.Equal(t, "alice", d.DeployedBy)
		assert.Equal(t, testNow, d.DeployedAt)
		m.deployHistory.AssertExpectations(t)
	})

	t.Run("history failure does not fail the create", func(t *testing.T) {
		s, m := newTestService(t)
		m.nodes.On("FindByID", mock.Anything, "n1").Return(node, nil)
		m.devStacks.On("FindByID", mock.Anything, "ds1").Return(&model.DevStack{Name: "go"}, nil)
		m.deployments.On("Insert", mock.Anything, mock.Anything).Return(nil)
		m.deployHistory.On("Insert", mock.Anything, mock.Anything).Return(errors.New("write failed"))

		_, err := s.CreateDeployment(ctx, alice, "n1", model.CreateDeploymentReq{DevStackID: "ds1", Version: "v1.2.0"})
		assert.NoError(t, err)
	})

	t.Run("status change notifies the lead and the deployer", func(t *testing.T) {
		s, m := newTestService(t)
		d := &model.Deployment{NodeID: "n1", ProjectID: "p1", Version: "v1.2.0", Status: model.DeploymentRunning, DeployedBy: "bob"}
		d.ID = "d1"
		m.deployments.On("FindByID", mock.Anything, "d1").Return(d, nil)
		m.deployments.On("Replace", mock.Anything, "d1", mock.Anything).Return(nil)
		m.deployHistory.On("Insert", mock.Anything, mock.MatchedBy(func(h *model.DeployHistory) bool {
			return h.Action == model.DeployActionStatusChanged && h.Status == model.DeploymentFailed
		})).Return(nil)
		m.memberships.On("GetLead", mock.Anything, model.ProjectRef("p1")).Return(membership("carol", model.ProjectRef("p1"), model.MemberRoleLead), nil)

		_, err := s.UpdateDeploymentStatus(ctx, alice, "d1", model.UpdateDeploymentStatusReq{Status: "Failed"})
		require.NoError(t, err)

		ev, ok := m.notifier.Last(model.NotifyDeploymentStatusChanged)
		require.True(t, ok)
		assert.Equal(t, []string{"carol", "bob"}, ev.Recipients)
		assert.Equal(t, "failed", ev.Params["Status"])
	})

	t.Run("same status is a bad request", func(t *testing.T) {
		s, m := newTestService(t)
		d := &model.Deployment{ProjectID: "p1", Status: model.DeploymentRunning}
		d.ID = "d1"
		m.deployments.On("FindByID", mock.Anything, "d1").Return(d, nil)

		_, err := s.UpdateDeploymentStatus(ctx, alice, "d1", model.UpdateDeploymentStatusReq{Status: model.DeploymentRunning})
		assert.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("infrastructure on another node is a bad request", func(t *testing.T) {
		s, m := newTestService(t)
		m.nodes.On("FindByID", mock.Anything, "n1").Return(node, nil)
		m.devStacks.On("FindByID", mock.Anything, "ds1").Return(&model.DevStack{Name: "go"}, nil)
		m.infras.On("FindByID", mock.Anything, "i1").Return(&model.Infrastructure{NodeID: "n2"}, nil)

		_, err := s.CreateDeployment(ctx, alice, "n1", model.CreateDeploymentReq{DevStackID: "ds1", InfrastructureID: "i1", Version: "v1.2.0"})
		assert.ErrorIs(t, err, ErrBadRequest)
		m.deployments.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("missing infrastructure is not found", func(t *testing.T) {
		s, m := newTestService(t)
		m.nodes.On("FindByID", mock.Anything, "n1").Return(node, nil)
		m.devStacks.On("FindByID", mock.Anything, "ds1").Return(&model.DevStack{Name: "go"}, nil)
		m.infras.On("FindByID", mock.Anything, "i9").Return(nil, repository.ErrNotFound)

		_, err := s.CreateDeployment(ctx, alice, "n1", model.CreateDeploymentReq{DevStackID: "ds1", InfrastructureID: "i9", Version: "v1.2.0"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteNode(t *testing.T) {
	ctx := context.Background()
	node := &model.Node{ProjectID: "p1"}
	node.ID = "n1"

	t.Run("cascades through history, deployments and infrastructures", func(t *testing.T) {
		s, m := newTestService(t)
		d1 := &model.Deployment{NodeID: "n1"}
		d1.ID = "d1"
		d2 := &model.Deployment{NodeID: "n1"}
		d2.ID = "d2"
		byNode := repository.Filter{"node_id": "n1"}

		m.nodes.On("FindByID", mock.Anything, "n1").Return(node, nil)
		m.deployments.On("FindAll", mock.Anything, byNode).Return([]*model.Deployment{d1, d2}, nil)
		history := m.deployHistory.On("DeleteMany", mock.Anything,
			repository.Filter{"deployment_id": map[string]any{"$in": []string{"d1", "d2"}}}).Return(int64(5), nil).Once()
		deployments := m.deployments.On("DeleteMany", mock.Anything, byNode).Return(int64(2), nil).Once().NotBefore(history)
		infras := m.infras.On("DeleteMany", mock.Anything, byNode).Return(int64(1), nil).Once().NotBefore(deployments)
		m.nodes.On("Delete", mock.Anything, "n1").Return(nil).Once().NotBefore(infras)

		require.NoError(t, s.DeleteNode(ctx, admin, "n1"))
		m.deployHistory.AssertExpectations(t)
		m.deployments.AssertExpectations(t)
		m.infras.AssertExpectations(t)
		m.nodes.AssertExpectations(t)
	})

	t.Run("node without deployments skips history", func(t *testing.T) {
		s, m := newTestService(t)
		byNode := repository.Filter{"node_id": "n1"}
		m.nodes.On("FindByID", mock.Anything, "n1").Return(node, nil)
		m.deployments.On("FindAll", mock.Anything, byNode).Return([]*model.Deployment{}, nil)
		m.deployments.On("DeleteMany", mock.Anything, byNode).Return(int64(0), nil)
		m.infras.On("DeleteMany", mock.Anything, byNode).Return(int64(0), nil)
		m.nodes.On("Delete", mock.Anything, "n1").Return(nil)

		require.NoError(t, s.DeleteNode(ctx, admin, "n1"))
		m.deployHistory.AssertNotCalled(t, "DeleteMany", mock.Anything, mock.Anything)
	})

	t.Run("history failure stops the cascade", func(t *testing.T) {
		s, m := newTestService(t)
		d1 := &model.Deployment{NodeID: "n1"}
		d1.ID = "d1"
		m.nodes.On("FindByID", mock.Anything, "n1").Return(node, nil)
		m.deployments.On("FindAll", mock.Anything, mock.Anything).Return([]*model.Deployment{d1}, nil)
		m.deployHistory.On("DeleteMany", mock.Anything, mock.Anything).Return(int64(0), errors.New("write failed"))

		require.Error(t, s.DeleteNode(ctx, admin, "n1"))
		m.deployments.AssertNotCalled(t, "DeleteMany", mock.Anything, mock.Anything)
		m.nodes.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("missing node is not found", func(t *testing.T) {
		s, m := newTestService(t)
		m.nodes.On("FindByID", mock.Anything, "n9").Return(nil, repository.ErrNotFound)

		assert.ErrorIs(t, s.DeleteNode(ctx, admin, "n9"), ErrNotFound)
	})
}

func TestDeleteInfrastructure(t *testing.T) {
	ctx := context.Background()

	t.Run("infrastructure with deployments is a conflict", func(t *testing.T) {
		s, m := newTestService(t)
		m.deployments.On("Count", mock.Anything, repository.Filter{"infrastructure_id": "i1"}).Return(int64(1), nil)

		assert.ErrorIs(t, s.DeleteInfrastructure(ctx, admin, "i1"), ErrConflict)
		m.infras.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("unused infrastructure is deleted", func(t *testing.T) {
		s, m := newTestService(t)
		m.deployments.On("Count", mock.Anything, repository.Filter{"infrastructure_id": "i1"}).Return(int64(0), nil)
		m.infras.On("Delete", mock.Anything, "i1").Return(nil)

		require.NoError(t, s.DeleteInfrastructure(ctx, admin, "i1"))
		m.infras.AssertExpectations(t)
	})
}

func TestAddProjectRisk(t *testing.T) {
	ctx := context.Background()
	project := &model.Project{Name: "Harbour"}
	project.ID = "p1"
	req := model.CreateProjectRiskReq{RiskID: "r1", Probability: 4, Impact: 3, OwnerID: "bob"}

	t.Run("duplicate link is a conflict", func(t *testing.T) {
		s, m := newTestService(t)
		m.projects.On("FindByID", mock.Anything, "p1").Return(project, nil)
		m.risks.On("FindByID", mock.Anything, "r1").Return(&model.Risk{Name: "Flood"}, nil)
		m.memberships.On("GetMembership", mock.Anything, model.ProjectRef("p1"), "bob").
			Return(membership("bob", model.ProjectRef("p1"), model.MemberRoleMember), nil)
		m.projectRisks.On("Insert", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

		_, err := s.AddProjectRisk(ctx, alice, "p1", req)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("owner must be a project member", func(t *testing.T) {
		s, m := newTestService(t)
		m.projects.On("FindByID", mock.Anything, "p1").Return(project, nil)
		m.risks.On("FindByID", mock.Anything, "r1").Return(&model.Risk{Name: "Flood"}, nil)
		m.memberships.On("GetMembership", mock.Anything, model.ProjectRef("p1"), "bob").Return(nil, repository.ErrNotFound)

		_, err := s.AddProjectRisk(ctx, alice, "p1", req)
		assert.ErrorIs(t, err, ErrBadRequest)
		m.projectRisks.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})
}
