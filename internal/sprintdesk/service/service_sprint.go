package service

import (
	"context"

	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/notify"
	"sprintdesk/internal/sprintdesk/repository"
)

// manualTransition checks a user-requested status change on a sprint or task.
// Completed can be reached from any other status; active only from pending or
// completed. Finished items come back through an extension.
func manualTransition(current, target model.Status) error {
	if current == target {
		return newError(ErrBadRequest, "status is already %s", current)
	}
	switch target {
	case model.StatusCompleted:
		return nil
	case model.StatusActive:
		if current == model.StatusPending || current == model.StatusCompleted {
			return nil
		}
		return newError(ErrBadRequest, "a %s item cannot be set back to active; extend it instead", current)
	}
	return newError(ErrBadRequest, "status %s cannot be set manually", target)
}

func (s *Service) ListSprints(ctx context.Context, projectID string, req model.PageReq) (*model.Page[model.Sprint], error) {
	req.Normalize()
	sprints, total, err := s.Sprints.Find(ctx, repository.Filter{"project_id": projectID}, req)
	if err != nil {
		return nil, err
	}
	return model.NewPage(sprints, req, total), nil
}

func (s *Service) GetSprint(ctx context.Context, id string) (*model.SprintDetail, error) {
	sprint, err := lookup(ctx, s.Sprints, "sprint", id)
	if err != nil {
		return nil, err
	}
	leadID, err := s.leadOf(ctx, model.SprintRef(id))
	if err != nil {
		return nil, err
	}
	return &model.SprintDetail{Sprint: sprint, LeadID: leadID}, nil
}

func (s *Service) CreateSprint(ctx context.Context, caller model.Caller, projectID string, req model.CreateSprintReq) (*model.SprintDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	project, err := lookup(ctx, s.Projects, "project", projectID)
	if err != nil {
		return nil, err
	}
	if !project.Contains(req.StartDate, req.EndDate) {
		return nil, newError(ErrBadRequest, "sprint dates must lie within the project dates")
	}
	if err := s.requireProjectMember(ctx, projectID, req.LeadID); err != nil {
		return nil, err
	}

	now := s.clock()
	sprint := &model.Sprint{
		ProjectID: projectID,
		Name:      req.Name,
		Goal:      req.Goal,
		StartDate: req.StartDate.UTC(),
		EndDate:   req.EndDate.UTC(),
		Status:    model.StatusForWindow(req.StartDate, req.EndDate, now),
		CreatedBy: caller.ID,
	}
	sprint.Init(s.newID(), now)

	if err := s.Sprints.Insert(ctx, sprint); err != nil {
		return nil, conflictOnDuplicate(err, "sprint already exists")
	}

	lead := &model.Membership{
		UserID:       req.LeadID,
		ResourceType: model.ResourceTypeSprint,
		ResourceID:   sprint.ID,
		Role:         model.MemberRoleLead,
		CreatedBy:    caller.ID,
		UpdatedBy:    caller.ID,
	}
	if err := s.Memberships.AddMember(ctx, lead); err != nil {
		if delErr := s.Sprints.Delete(ctx, sprint.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to roll back sprint", "sprint_id", sprint.ID, "error", delErr)
		}
		return nil, err
	}

	s.audit(ctx, "sprint.create", caller, "sprint_id", sprint.ID, "project_id", projectID, "lead_id", req.LeadID)
	s.notify(ctx, notify.Event{
		Kind:         model.NotifySprintCreated,
		ActorID:      caller.ID,
		Recipients:   []string{req.LeadID},
		Params:       map[string]string{"Name": sprint.Name},
		ResourceType: model.ResourceTypeSprint,
		ResourceID:   sprint.ID,
	})
	return &model.SprintDetail{Sprint: sprint, LeadID: req.LeadID}, nil
}

func (s *Service) UpdateSprint(ctx context.Context, caller model.Caller, id string, req model.UpdateSprintReq) (*model.Sprint, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sprint, err := lookup(ctx, s.Sprints, "sprint", id)
	if err != nil {
		return nil, err
	}
	project, err := lookup(ctx, s.Projects, "project", sprint.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.Contains(req.StartDate, req.EndDate) {
		return nil, newError(ErrBadRequest, "sprint dates must lie within the project dates")
	}

	tasks, err := s.Tasks.FindAll(ctx, repository.Filter{"sprint_id": id})
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.StartDate.Before(req.StartDate) || t.EndDate.After(req.EndDate) {
			return nil, newError(ErrBadRequest, "task %q falls outside the new sprint dates", t.Title)
		}
	}

	now := s.clock()
	sprint.Name = req.Name
	sprint.Goal = req.Goal
	sprint.StartDate = req.StartDate.UTC()
	sprint.EndDate = req.EndDate.UTC()
	if sprint.Status != model.StatusCompleted {
		sprint.Status = model.StatusForWindow(sprint.StartDate, sprint.EndDate, now)
	}
	sprint.UpdatedAt = now

	if err := s.Sprints.Replace(ctx, id, sprint); err != nil {
		return nil, notFoundAs(err, "sprint")
	}
	s.audit(ctx, "sprint.update", caller, "sprint_id", id)
	return sprint, nil
}

func (s *Service) DeleteSprint(ctx context.Context, caller model.Caller, id string) error {
	if _, err := lookup(ctx, s.Sprints, "sprint", id); err != nil {
		return err
	}

	n, err := s.Tasks.DeleteMany(ctx, repository.Filter{"sprint_id": id})
	if err != nil {
		return err
	}
	if err := s.Memberships.DeleteByResource(ctx, model.SprintRef(id)); err != nil {
		return err
	}
	if err := s.Sprints.Delete(ctx, id); err != nil {
		return notFoundAs(err, "sprint")
	}

	s.audit(ctx, "sprint.delete", caller, "sprint_id", id, "tasks", n)
	return nil
}

func (s *Service) UpdateSprintStatus(ctx context.Context, caller model.Caller, id string, req model.UpdateStatusReq) (*model.Sprint, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sprint, err := lookup(ctx, s.Sprints, "sprint", id)
	if err != nil {
		return nil, err
	}
	target := *req.Status
	if err := manualTransition(sprint.Status, target); err != nil {
		return nil, err
	}

	ok, err := s.Sprints.CompareAndSetStatus(ctx, id, sprint.Status, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newError(ErrConflict, "sprint status changed concurrently; reload and retry")
	}
	previous := sprint.Status
	sprint.Status = target
	sprint.UpdatedAt = s.clock()

	s.audit(ctx, "sprint.update_status", caller, "sprint_id", id, "from", previous.String(), "to", target.String())
	s.notifySprintAudience(ctx, caller, sprint, model.NotifySprintStatusChanged, map[string]string{
		"Name":   sprint.Name,
		"Status": target.String(),
	})
	return sprint, nil
}

// ExtendSprint moves the end date later. A finished sprint whose new end is
// not yet past becomes active again.
func (s *Service) ExtendSprint(ctx context.Context, caller model.Caller, id string, req model.ExtendReq) (*model.Sprint, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sprint, err := lookup(ctx, s.Sprints, "sprint", id)
	if err != nil {
		return nil, err
	}
	newEnd := req.EndDate.UTC()
	if !newEnd.After(sprint.EndDate) {
		return nil, newError(ErrBadRequest, "end_date must be later than the current end date %s", formatDate(sprint.EndDate))
	}

	project, err := lookup(ctx, s.Projects, "project", sprint.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.EndDate != nil && newEnd.After(*project.EndDate) {
		return nil, newError(ErrBadRequest, "end_date exceeds the project end date %s", formatDate(*project.EndDate))
	}

	now := s.clock()
	previousEnd := sprint.EndDate
	sprint.EndDate = newEnd
	if sprint.Status == model.StatusFinished && !newEnd.Before(now) {
		sprint.Status = model.StatusActive
	}
	sprint.UpdatedAt = now

	if err := s.Sprints.Replace(ctx, id, sprint); err != nil {
		return nil, notFoundAs(err, "sprint")
	}

	s.audit(ctx, "sprint.extend", caller, "sprint_id", id, "from", previousEnd, "to", newEnd, "reason", req.Reason)
	s.notifySprintAudience(ctx, caller, sprint, model.NotifySprintExtended, map[string]string{
		"Name":    sprint.Name,
		"EndDate": formatDate(newEnd),
	})
	return sprint, nil
}

// notifySprintAudience notifies the sprint members and the project lead.
func (s *Service) notifySprintAudience(ctx context.Context, caller model.Caller, sprint *model.Sprint, kind string, params map[string]string) {
	recipients, err := s.memberIDs(ctx, model.SprintRef(sprint.ID))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load sprint members", "sprint_id", sprint.ID, "error", err)
	}
	if lead, err := s.leadOf(ctx, model.ProjectRef(sprint.ProjectID)); err == nil {
		recipients = append(recipients, lead)
	}

	s.notify(ctx, notify.Event{
		Kind:         kind,
		ActorID:      caller.ID,
		Recipients:   recipients,
		Params:       params,
		ResourceType: model.ResourceTypeSprint,
		ResourceID:   sprint.ID,
	})
}
