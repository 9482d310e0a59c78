package service

import (
	"context"
	"errors"
	"time"

	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/notify"
	"sprintdesk/internal/sprintdesk/repository"
)

// openWindowStatus derives a status where either bound may be missing.
func openWindowStatus(start, end *time.Time, now time.Time) model.Status {
	if start != nil && start.After(now) {
		return model.StatusPending
	}
	if end != nil && end.Before(now) {
		return model.StatusFinished
	}
	return model.StatusActive
}

// ListProjects returns every project to admins and the member projects to everyone else.
func (s *Service) ListProjects(ctx context.Context, caller model.Caller, req model.PageReq) (*model.Page[model.Project], error) {
	req.Normalize()

	filter := repository.Filter{}
	if !caller.IsAdmin() {
		ids, err := s.Memberships.ListResourceIDs(ctx, caller.ID, model.ResourceTypeProject)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return model.NewPage[model.Project](nil, req, 0), nil
		}
		filter["_id"] = map[string]any{"$in": ids}
	}

	projects, total, err := s.Projects.Find(ctx, filter, req)
	if err != nil {
		return nil, err
	}
	return model.NewPage(projects, req, total), nil
}

func (s *Service) GetProject(ctx context.Context, id string) (*model.ProjectDetail, error) {
	project, err := lookup(ctx, s.Projects, "project", id)
	if err != nil {
		return nil, err
	}
	return s.projectDetail(ctx, project)
}

func (s *Service) projectDetail(ctx context.Context, project *model.Project) (*model.ProjectDetail, error) {
	leadID, err := s.leadOf(ctx, model.ProjectRef(project.ID))
	if err != nil {
		return nil, err
	}
	return &model.ProjectDetail{Project: project, LeadID: leadID}, nil
}

func (s *Service) CreateProject(ctx context.Context, caller model.Caller, req model.CreateProjectReq) (*model.ProjectDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireActiveUser(ctx, req.LeadID); err != nil {
		return nil, err
	}
	if err := requireRef(ctx, s.Stores.Quartiers, "quartier", req.QuartierID); err != nil {
		return nil, err
	}

	now := s.clock()
	project := &model.Project{
		Name:        req.Name,
		Description: req.Description,
		QuartierID:  req.QuartierID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      openWindowStatus(req.StartDate, req.EndDate, now),
		CreatedBy:   caller.ID,
	}
	project.Init(s.newID(), now)

	if err := s.Projects.Insert(ctx, project); err != nil {
		return nil, conflictOnDuplicate(err, "project already exists")
	}

	lead := &model.Membership{
		UserID:       req.LeadID,
		ResourceType: model.ResourceTypeProject,
		ResourceID:   project.ID,
		Role:         model.MemberRoleLead,
		CreatedBy:    caller.ID,
		UpdatedBy:    caller.ID,
	}
	if err := s.Memberships.AddMember(ctx, lead); err != nil {
		// Leave no lead-less project behind.
		if delErr := s.Projects.Delete(ctx, project.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to roll back project", "project_id", project.ID, "error", delErr)
		}
		return nil, err
	}

	s.audit(ctx, "project.create", caller, "project_id", project.ID, "lead_id", req.LeadID)
	s.notify(ctx, notify.Event{
		Kind:         model.NotifyProjectMemberAdded,
		ActorID:      caller.ID,
		Recipients:   []string{req.LeadID},
		Params:       map[string]string{"Name": project.Name},
		ResourceType: model.ResourceTypeProject,
		ResourceID:   project.ID,
	})
	return &model.ProjectDetail{Project: project, LeadID: req.LeadID}, nil
}

func (s *Service) UpdateProject(ctx context.Context, caller model.Caller, id string, req model.UpdateProjectReq) (*model.ProjectDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	project, err := lookup(ctx, s.Projects, "project", id)
	if err != nil {
		return nil, err
	}
	if err := requireRef(ctx, s.Stores.Quartiers, "quartier", req.QuartierID); err != nil {
		return nil, err
	}

	project.Name = req.Name
	project.Description = req.Description
	project.QuartierID = req.QuartierID
	project.StartDate = req.StartDate
	project.EndDate = req.EndDate

	sprints, err := s.Sprints.FindAll(ctx, repository.Filter{"project_id": id})
	if err != nil {
		return nil, err
	}
	for _, sp := range sprints {
		if !project.Contains(sp.StartDate, sp.EndDate) {
			return nil, newError(ErrBadRequest, "sprint %q falls outside the new project dates", sp.Name)
		}
	}

	now := s.clock()
	if project.Status != model.StatusCompleted {
		project.Status = openWindowStatus(project.StartDate, project.EndDate, now)
	}
	project.UpdatedAt = now

	if err := s.Projects.Replace(ctx, id, project); err != nil {
		return nil, notFoundAs(err, "project")
	}
	s.audit(ctx, "project.update", caller, "project_id", id)
	return s.projectDetail(ctx, project)
}

// DeleteProject removes the project and everything beneath it.
func (s *Service) DeleteProject(ctx context.Context, caller model.Caller, id string) error {
	if _, err := lookup(ctx, s.Projects, "project", id); err != nil {
		return err
	}

	sprints, err := s.Sprints.FindAll(ctx, repository.Filter{"project_id": id})
	if err != nil {
		return err
	}
	refs := []model.ResourceRef{model.ProjectRef(id)}
	for _, sp := range sprints {
		refs = append(refs, model.SprintRef(sp.ID))
	}

	byProject := repository.Filter{"project_id": id}
	cascade := []struct {
		what string
		del  func(context.Context, repository.Filter) (int64, error)
	}{
		{"tasks", s.Tasks.DeleteMany},
		{"sprints", s.Sprints.DeleteMany},
		{"deploy history", s.DeployHistory.DeleteMany},
		{"deployments", s.Deployments.DeleteMany},
		{"infrastructures", s.Infrastructures.DeleteMany},
		{"nodes", s.Nodes.DeleteMany},
		{"project risks", s.ProjectRisks.DeleteMany},
	}
	for _, step := range cascade {
		n, err := step.del(ctx, byProject)
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.DebugContext(ctx, "cascade delete", "project_id", id, "what", step.what, "count", n)
		}
	}

	if err := s.Memberships.DeleteByResource(ctx, refs...); err != nil {
		return err
	}
	if err := s.Projects.Delete(ctx, id); err != nil {
		return notFoundAs(err, "project")
	}

	s.audit(ctx, "project.delete", caller, "project_id", id, "sprints", len(sprints))
	return nil
}

// SetProjectLead hands the project to another user. The old lead stays a member.
func (s *Service) SetProjectLead(ctx context.Context, caller model.Caller, id string, req model.MemberReq) (*model.ProjectDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	project, err := lookup(ctx, s.Projects, "project", id)
	if err != nil {
		return nil, err
	}
	if err := s.requireActiveUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	ref := model.ProjectRef(id)
	currentLead, err := s.leadOf(ctx, ref)
	if err != nil {
		return nil, err
	}
	if currentLead == req.UserID {
		return nil, newError(ErrBadRequest, "user is already the project lead")
	}

	previous, err := s.Memberships.TransferLead(ctx, ref, req.UserID, caller.ID)
	if err != nil {
		return nil, notFoundAs(err, "project lead")
	}

	s.audit(ctx, "project.set_lead", caller, "project_id", id, "lead_id", req.UserID, "previous_lead_id", previous.UserID)
	s.notify(ctx, notify.Event{
		Kind:         model.NotifyProjectLeadChanged,
		ActorID:      caller.ID,
		Recipients:   []string{req.UserID, previous.UserID},
		Params:       map[string]string{"Name": project.Name},
		ResourceType: model.ResourceTypeProject,
		ResourceID:   id,
	})
	return &model.ProjectDetail{Project: project, LeadID: req.UserID}, nil
}

func (s *Service) requireActiveUser(ctx context.Context, id string) error {
	user, err := s.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrBadRequest, "user %s does not exist", id)
		}
		return err
	}
	if !user.Active {
		return newError(ErrBadRequest, "user %s is disabled", id)
	}
	return nil
}

// leadOf returns the lead's user id, or "" when there is none.
func (s *Service) leadOf(ctx context.Context, ref model.ResourceRef) (string, error) {
	lead, err := s.Memberships.GetLead(ctx, ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return lead.UserID, nil
}

func (s *Service) memberIDs(ctx context.Context, ref model.ResourceRef) ([]string, error) {
	members, err := s.Memberships.ListMembers(ctx, ref)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids, nil
}

func (s *Service) isMember(ctx context.Context, ref model.ResourceRef, userID string) (bool, error) {
	if _, err := s.Memberships.GetMembership(ctx, ref, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// unassignTasks clears the assignee of every matching task.
func (s *Service) unassignTasks(ctx context.Context, filter repository.Filter) error {
	tasks, err := s.Tasks.FindAll(ctx, filter)
	if err != nil {
		return err
	}
	now := s.clock()
	for _, t := range tasks {
		t.AssigneeID = ""
		t.UpdatedAt = now
		if err := s.Tasks.Replace(ctx, t.ID, t); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	return nil
}
