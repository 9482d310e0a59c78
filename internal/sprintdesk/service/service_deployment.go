package service

import (
	"context"

	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/notify"
	"sprintdesk/internal/sprintdesk/repository"
)

func (s *Service) ListDeployments(ctx context.Context, nodeID string, req model.PageReq) (*model.Page[model.Deployment], error) {
	req.Normalize()
	items, total, err := s.Deployments.Find(ctx, repository.Filter{"node_id": nodeID}, req)
	if err != nil {
		return nil, err
	}
	return model.NewPage(items, req, total), nil
}

func (s *Service) GetDeployment(ctx context.Context, id string) (*model.Deployment, error) {
	return lookup(ctx, s.Deployments, "deployment", id)
}

// CreateDeployment records a deployment on a node and opens its history.
func (s *Service) CreateDeployment(ctx context.Context, caller model.Caller, nodeID string, req model.CreateDeploymentReq) (*model.Deployment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	node, err := lookup(ctx, s.Nodes, "node", nodeID)
	if err != nil {
		return nil, err
	}
	if err := requireRef(ctx, s.Stores.DevStacks, "dev stack", req.DevStackID); err != nil {
		return nil, err
	}
	if req.InfrastructureID != "" {
		infra, err := s.Infrastructures.FindByID(ctx, req.InfrastructureID)
		if err != nil {
			return nil, notFoundAs(err, "infrastructure")
		}
		if infra.NodeID != nodeID {
			return nil, newError(ErrBadRequest, "infrastructure %s is not on node %s", req.InfrastructureID, nodeID)
		}
	}

	now := s.clock()
	deployment := &model.Deployment{
		NodeID:           nodeID,
		ProjectID:        node.ProjectID,
		InfrastructureID: req.InfrastructureID,
		DevStackID:       req.DevStackID,
		Version:          req.Version,
		Status:           req.Status,
		DeployedBy:       caller.ID,
		DeployedAt:       now,
	}
	deployment.Init(s.newID(), now)

	if err := s.Deployments.Insert(ctx, deployment); err != nil {
		return nil, conflictOnDuplicate(err, "deployment already exists")
	}
	s.appendHistory(ctx, caller, deployment, model.DeployActionCreated, req.Note)

	s.audit(ctx, "deployment.create", caller, "deployment_id", deployment.ID, "node_id", nodeID, "version", req.Version)
	return deployment, nil
}

func (s *Service) UpdateDeploymentStatus(ctx context.Context, caller model.Caller, id string, req model.UpdateDeploymentStatusReq) (*model.Deployment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	deployment, err := lookup(ctx, s.Deployments, "deployment", id)
	if err != nil {
		return nil, err
	}
	if deployment.Status == req.Status {
		return nil, newError(ErrBadRequest, "deployment is already %s", req.Status)
	}

	previous := deployment.Status
	deployment.Status = req.Status
	deployment.UpdatedAt = s.clock()
	if err := s.Deployments.Replace(ctx, id, deployment); err != nil {
		return nil, notFoundAs(err, "deployment")
	}
	s.appendHistory(ctx, caller, deployment, model.DeployActionStatusChanged, req.Note)

	projectLead, err := s.leadOf(ctx, model.ProjectRef(deployment.ProjectID))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load project lead", "project_id", deployment.ProjectID, "error", err)
	}

	s.audit(ctx, "deployment.update_status", caller, "deployment_id", id, "from", previous, "to", req.Status)
	s.notify(ctx, notify.Event{
		Kind:         model.NotifyDeploymentStatusChanged,
		ActorID:      caller.ID,
		Recipients:   []string{projectLead, deployment.DeployedBy},
		Params:       map[string]string{"Name": deployment.Version, "Status": req.Status},
		ResourceType: model.ResourceTypeDeployment,
		ResourceID:   id,
	})
	return deployment, nil
}

func (s *Service) ListDeployHistory(ctx context.Context, deploymentID string, req model.PageReq) (*model.Page[model.DeployHistory], error) {
	req.Normalize()
	items, total, err := s.DeployHistory.Find(ctx, repository.Filter{"deployment_id": deploymentID}, req)
	if err != nil {
		return nil, err
	}
	return model.NewPage(items, req, total), nil
}

// appendHistory writes a history row. The deployment itself is already saved,
// so a failure here is logged rather than returned.
func (s *Service) appendHistory(ctx context.Context, caller model.Caller, d *model.Deployment, action, note string) {
	entry := &model.DeployHistory{
		DeploymentID: d.ID,
		ProjectID:    d.ProjectID,
		Action:       action,
		Status:       d.Status,
		Version:      d.Version,
		ActorID:      caller.ID,
		Note:         note,
	}
	entry.Init(s.newID(), s.clock())
	if err := s.DeployHistory.Insert(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to append deploy history", "deployment_id", d.ID, "action", action, "error", err)
	}
}
