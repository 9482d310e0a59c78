package service

import (
	"context"
	"errors"

	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/notify"
	"sprintdesk/internal/sprintdesk/repository"
)

func (s *Service) ListProjectMembers(ctx context.Context, projectID string) ([]*model.Membership, error) {
	if _, err := lookup(ctx, s.Projects, "project", projectID); err != nil {
		return nil, err
	}
	return s.Memberships.ListMembers(ctx, model.ProjectRef(projectID))
}

func (s *Service) AddProjectMember(ctx context.Context, caller model.Caller, projectID string, req model.MemberReq) (*model.Membership, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	project, err := lookup(ctx, s.Projects, "project", projectID)
	if err != nil {
		return nil, err
	}
	if err := s.requireActiveUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	m, err := s.addMember(ctx, caller, model.ProjectRef(projectID), req.UserID)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "project.add_member", caller, "project_id", projectID, "user_id", req.UserID)
	s.notify(ctx, notify.Event{
		Kind:         model.NotifyProjectMemberAdded,
		ActorID:      caller.ID,
		Recipients:   []string{req.UserID},
		Params:       map[string]string{"Name": project.Name},
		ResourceType: model.ResourceTypeProject,
		ResourceID:   projectID,
	})
	return m, nil
}

// RemoveProjectMember also drops the user from the project's sprints and
// unassigns their tasks there. The project lead and sprint leads cannot be removed.
func (s *Service) RemoveProjectMember(ctx context.Context, caller model.Caller, projectID, userID string) error {
	project, err := lookup(ctx, s.Projects, "project", projectID)
	if err != nil {
		return err
	}

	ref := model.ProjectRef(projectID)
	m, err := s.Memberships.GetMembership(ctx, ref, userID)
	if err != nil {
		return notFoundAs(err, "project member")
	}
	if m.IsLead() {
		return newError(ErrBadRequest, "the project lead cannot be removed; transfer the lead first")
	}

	sprints, err := s.Sprints.FindAll(ctx, repository.Filter{"project_id": projectID})
	if err != nil {
		return err
	}
	var sprintRefs []model.ResourceRef
	for _, sp := range sprints {
		sm, err := s.Memberships.GetMembership(ctx, model.SprintRef(sp.ID), userID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if sm.IsLead() {
			return newError(ErrBadRequest, "user leads sprint %q; change the sprint lead first", sp.Name)
		}
		sprintRefs = append(sprintRefs, model.SprintRef(sp.ID))
	}

	for _, sr := range sprintRefs {
		if err := s.Memberships.RemoveMember(ctx, sr, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	if err := s.unassignTasks(ctx, repository.Filter{"project_id": projectID, "assignee_id": userID}); err != nil {
		return err
	}
	if err := s.Memberships.RemoveMember(ctx, ref, userID); err != nil {
		return notFoundAs(err, "project member")
	}

	s.audit(ctx, "project.remove_member", caller, "project_id", projectID, "user_id", userID, "sprints_left", len(sprintRefs))
	s.notify(ctx, notify.Event{
		Kind:         model.NotifyProjectMemberRemoved,
		ActorID:      caller.ID,
		Recipients:   []string{userID},
		Params:       map[string]string{"Name": project.Name},
		ResourceType: model.ResourceTypeProject,
		ResourceID:   projectID,
	})
	return nil
}

func (s *Service) ListSprintMembers(ctx context.Context, sprintID string) ([]*model.Membership, error) {
	if _, err := lookup(ctx, s.Sprints, "sprint", sprintID); err != nil {
		return nil, err
	}
	return s.Memberships.ListMembers(ctx, model.SprintRef(sprintID))
}

// AddSprintMember requires the user to already belong to the sprint's project.
func (s *Service) AddSprintMember(ctx context.Context, caller model.Caller, sprintID string, req model.MemberReq) (*model.Membership, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sprint, err := lookup(ctx, s.Sprints, "sprint", sprintID)
	if err != nil {
		return nil, err
	}
	if err := s.requireProjectMember(ctx, sprint.ProjectID, req.UserID); err != nil {
		return nil, err
	}

	m, err := s.addMember(ctx, caller, model.SprintRef(sprintID), req.UserID)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "sprint.add_member", caller, "sprint_id", sprintID, "user_id", req.UserID)
	s.notify(ctx, notify.Event{
		Kind:         model.NotifySprintMemberAdded,
		ActorID:      caller.ID,
		Recipients:   []string{req.UserID},
		Params:       map[string]string{"Name": sprint.Name},
		ResourceType: model.ResourceTypeSprint,
		ResourceID:   sprintID,
	})
	return m, nil
}

// RemoveSprintMember unassigns the user's tasks in the sprint.
func (s *Service) RemoveSprintMember(ctx context.Context, caller model.Caller, sprintID, userID string) error {
	sprint, err := lookup(ctx, s.Sprints, "sprint", sprintID)
	if err != nil {
		return err
	}

	ref := model.SprintRef(sprintID)
	m, err := s.Memberships.GetMembership(ctx, ref, userID)
	if err != nil {
		return notFoundAs(err, "sprint member")
	}
	if m.IsLead() {
		return newError(ErrBadRequest, "the sprint lead cannot be removed; change the lead first")
	}

	if err := s.unassignTasks(ctx, repository.Filter{"sprint_id": sprintID, "assignee_id": userID}); err != nil {
		return err
	}
	if err := s.Memberships.RemoveMember(ctx, ref, userID); err != nil {
		return notFoundAs(err, "sprint member")
	}

	s.audit(ctx, "sprint.remove_member", caller, "sprint_id", sprintID, "user_id", userID)
	s.notify(ctx, notify.Event{
		Kind:         model.NotifySprintMemberRemoved,
		ActorID:      caller.ID,
		Recipients:   []string{userID},
		Params:       map[string]string{"Name": sprint.Name},
		ResourceType: model.ResourceTypeSprint,
		ResourceID:   sprintID,
	})
	return nil
}

// SetSprintLead moves the sprint lead to another project member.
func (s *Service) SetSprintLead(ctx context.Context, caller model.Caller, sprintID string, req model.MemberReq) (*model.SprintDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sprint, err := lookup(ctx, s.Sprints, "sprint", sprintID)
	if err != nil {
		return nil, err
	}
	if err := s.requireProjectMember(ctx, sprint.ProjectID, req.UserID); err != nil {
		return nil, err
	}

	ref := model.SprintRef(sprintID)
	currentLead, err := s.leadOf(ctx, ref)
	if err != nil {
		return nil, err
	}
	if currentLead == req.UserID {
		return nil, newError(ErrBadRequest, "user is already the sprint lead")
	}

	previous, err := s.Memberships.TransferLead(ctx, ref, req.UserID, caller.ID)
	if err != nil {
		return nil, notFoundAs(err, "sprint lead")
	}
	projectLead, err := s.leadOf(ctx, model.ProjectRef(sprint.ProjectID))
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "sprint.set_lead", caller, "sprint_id", sprintID, "lead_id", req.UserID, "previous_lead_id", previous.UserID)
	s.notify(ctx, notify.Event{
		Kind:         model.NotifySprintLeadChanged,
		ActorID:      caller.ID,
		Recipients:   []string{req.UserID, previous.UserID, projectLead},
		Params:       map[string]string{"Name": sprint.Name},
		ResourceType: model.ResourceTypeSprint,
		ResourceID:   sprintID,
	})
	return &model.SprintDetail{Sprint: sprint, LeadID: req.UserID}, nil
}

func (s *Service) addMember(ctx context.Context, caller model.Caller, ref model.ResourceRef, userID string) (*model.Membership, error) {
	m := &model.Membership{
		UserID:       userID,
		ResourceType: ref.Type,
		ResourceID:   ref.ID,
		Role:         model.MemberRoleMember,
		CreatedBy:    caller.ID,
		UpdatedBy:    caller.ID,
	}
	if err := s.Memberships.AddMember(ctx, m); err != nil {
		return nil, conflictOnDuplicate(err, "user is already a member of this %s", ref.Type)
	}
	return m, nil
}

func (s *Service) requireProjectMember(ctx context.Context, projectID, userID string) error {
	ok, err := s.isMember(ctx, model.ProjectRef(projectID), userID)
	if err != nil {
		return err
	}
	if !ok {
		return newError(ErrBadRequest, "user %s is not a member of the project", userID)
	}
	return nil
}
