package service

import (
	"context"
	"time"

	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/notify"
	"sprintdesk/internal/sprintdesk/repository"
)

func (s *Service) ListTasks(ctx context.Context, sprintID string, req model.PageReq) (*model.Page[model.Task], error) {
	req.Normalize()
	tasks, total, err := s.Tasks.Find(ctx, repository.Filter{"sprint_id": sprintID}, req)
	if err != nil {
		return nil, err
	}
	return model.NewPage(tasks, req, total), nil
}

// ListMyTasks returns the tasks assigned to the caller across all sprints.
func (s *Service) ListMyTasks(ctx context.Context, caller model.Caller, req model.PageReq) (*model.Page[model.Task], error) {
	req.Normalize()
	tasks, total, err := s.Tasks.Find(ctx, repository.Filter{"assignee_id": caller.ID}, req)
	if err != nil {
		return nil, err
	}
	return model.NewPage(tasks, req, total), nil
}

func (s *Service) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return lookup(ctx, s.Tasks, "task", id)
}

func (s *Service) CreateTask(ctx context.Context, caller model.Caller, sprintID string, req model.CreateTaskReq) (*model.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sprint, err := lookup(ctx, s.Sprints, "sprint", sprintID)
	if err != nil {
		return nil, err
	}
	if err := withinSprint(sprint, req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	if req.AssigneeID != "" {
		if err := s.requireSprintMember(ctx, sprintID, req.AssigneeID); err != nil {
			return nil, err
		}
	}

	now := s.clock()
	task := &model.Task{
		ProjectID:   sprint.ProjectID,
		SprintID:    sprintID,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Priority:    req.Priority,
		StartDate:   req.StartDate.UTC(),
		EndDate:     req.EndDate.UTC(),
		Status:      model.StatusForWindow(req.StartDate, req.EndDate, now),
		CreatedBy:   caller.ID,
	}
	task.Init(s.newID(), now)

	if err := s.Tasks.Insert(ctx, task); err != nil {
		return nil, conflictOnDuplicate(err, "task already exists")
	}

	s.audit(ctx, "task.create", caller, "task_id", task.ID, "sprint_id", sprintID)
	if task.AssigneeID != "" {
		s.notifyTask(ctx, caller, task, model.NotifyTaskAssigned, []string{task.AssigneeID}, nil)
	}
	return task, nil
}

func (s *Service) UpdateTask(ctx context.Context, caller model.Caller, id string, req model.UpdateTaskReq) (*model.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	task, err := lookup(ctx, s.Tasks, "task", id)
	if err != nil {
		return nil, err
	}
	sprint, err := lookup(ctx, s.Sprints, "sprint", task.SprintID)
	if err != nil {
		return nil, err
	}
	if err := withinSprint(sprint, req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	now := s.clock()
	task.Title = req.Title
	task.Description = req.Description
	task.Priority = req.Priority
	task.StartDate = req.StartDate.UTC()
	task.EndDate = req.EndDate.UTC()
	if task.Status != model.StatusCompleted {
		task.Status = model.StatusForWindow(task.StartDate, task.EndDate, now)
	}
	task.UpdatedAt = now

	if err := s.Tasks.Replace(ctx, id, task); err != nil {
		return nil, notFoundAs(err, "task")
	}
	s.audit(ctx, "task.update", caller, "task_id", id)
	return task, nil
}

func (s *Service) DeleteTask(ctx context.Context, caller model.Caller, id string) error {
	if err := s.Tasks.Delete(ctx, id); err != nil {
		return notFoundAs(err, "task")
	}
	s.audit(ctx, "task.delete", caller, "task_id", id)
	return nil
}

func (s *Service) UpdateTaskStatus(ctx context.Context, caller model.Caller, id string, req model.UpdateStatusReq) (*model.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	task, err := lookup(ctx, s.Tasks, "task", id)
	if err != nil {
		return nil, err
	}
	target := *req.Status
	if err := manualTransition(task.Status, target); err != nil {
		return nil, err
	}

	ok, err := s.Tasks.CompareAndSetStatus(ctx, id, task.Status, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newError(ErrConflict, "task status changed concurrently; reload and retry")
	}
	previous := task.Status
	task.Status = target
	task.UpdatedAt = s.clock()

	recipients := []string{task.AssigneeID}
	recipients = append(recipients, s.leadsOf(ctx, task)...)

	s.audit(ctx, "task.update_status", caller, "task_id", id, "from", previous.String(), "to", target.String())
	s.notifyTask(ctx, caller, task, model.NotifyTaskStatusChanged, recipients, map[string]string{"Status": target.String()})
	return task, nil
}

// AssignTask sets or clears the assignee. The assignee must be a sprint member.
func (s *Service) AssignTask(ctx context.Context, caller model.Caller, id string, req model.AssignTaskReq) (*model.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	task, err := lookup(ctx, s.Tasks, "task", id)
	if err != nil {
		return nil, err
	}
	if task.AssigneeID == req.AssigneeID {
		return task, nil
	}
	if req.AssigneeID != "" {
		if err := s.requireSprintMember(ctx, task.SprintID, req.AssigneeID); err != nil {
			return nil, err
		}
	}

	previous := task.AssigneeID
	task.AssigneeID = req.AssigneeID
	task.UpdatedAt = s.clock()
	if err := s.Tasks.Replace(ctx, id, task); err != nil {
		return nil, notFoundAs(err, "task")
	}

	s.audit(ctx, "task.assign", caller, "task_id", id, "assignee_id", req.AssigneeID, "previous_assignee_id", previous)
	if req.AssigneeID != "" {
		s.notifyTask(ctx, caller, task, model.NotifyTaskAssigned, []string{req.AssigneeID}, nil)
	}
	if previous != "" {
		s.notifyTask(ctx, caller, task, model.NotifyTaskUnassigned, []string{previous}, nil)
	}
	return task, nil
}

// ExtendTask moves the end date later, capped at the sprint's end date.
func (s *Service) ExtendTask(ctx context.Context, caller model.Caller, id string, req model.ExtendReq) (*model.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	task, err := lookup(ctx, s.Tasks, "task", id)
	if err != nil {
		return nil, err
	}
	sprint, err := lookup(ctx, s.Sprints, "sprint", task.SprintID)
	if err != nil {
		return nil, err
	}

	newEnd := req.EndDate.UTC()
	if newEnd.After(sprint.EndDate) {
		newEnd = sprint.EndDate
	}
	if !newEnd.After(task.EndDate) {
		return nil, newError(ErrBadRequest, "end_date must be later than the current end date %s and within the sprint", formatDate(task.EndDate))
	}

	now := s.clock()
	previousEnd := task.EndDate
	task.EndDate = newEnd
	if task.Status == model.StatusFinished && !newEnd.Before(now) {
		task.Status = model.StatusActive
	}
	task.UpdatedAt = now

	if err := s.Tasks.Replace(ctx, id, task); err != nil {
		return nil, notFoundAs(err, "task")
	}

	sprintLead, err := s.leadOf(ctx, model.SprintRef(task.SprintID))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load sprint lead", "sprint_id", task.SprintID, "error", err)
	}

	s.audit(ctx, "task.extend", caller, "task_id", id, "from", previousEnd, "to", newEnd, "reason", req.Reason)
	s.notifyTask(ctx, caller, task, model.NotifyTaskExtended, []string{task.AssigneeID, sprintLead},
		map[string]string{"EndDate": formatDate(newEnd)})
	return task, nil
}

// leadsOf returns the sprint lead and project lead of the task, skipping lookups that fail.
func (s *Service) leadsOf(ctx context.Context, task *model.Task) []string {
	var leads []string
	for _, ref := range []model.ResourceRef{model.SprintRef(task.SprintID), model.ProjectRef(task.ProjectID)} {
		lead, err := s.leadOf(ctx, ref)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to load lead", "resource_type", ref.Type, "resource_id", ref.ID, "error", err)
			continue
		}
		leads = append(leads, lead)
	}
	return leads
}

func (s *Service) notifyTask(ctx context.Context, caller model.Caller, task *model.Task, kind string, recipients []string, params map[string]string) {
	if params == nil {
		params = map[string]string{}
	}
	params["Name"] = task.Title
	s.notify(ctx, notify.Event{
		Kind:         kind,
		ActorID:      caller.ID,
		Recipients:   recipients,
		Params:       params,
		ResourceType: model.ResourceTypeTask,
		ResourceID:   task.ID,
	})
}

func (s *Service) requireSprintMember(ctx context.Context, sprintID, userID string) error {
	ok, err := s.isMember(ctx, model.SprintRef(sprintID), userID)
	if err != nil {
		return err
	}
	if !ok {
		return newError(ErrBadRequest, "user %s is not a member of the sprint", userID)
	}
	return nil
}

func withinSprint(sprint *model.Sprint, start, end time.Time) error {
	if start.Before(sprint.StartDate) || end.After(sprint.EndDate) {
		return newError(ErrBadRequest, "task dates must lie within the sprint dates %s to %s",
			formatDate(sprint.StartDate), formatDate(sprint.EndDate))
	}
	return nil
}
