package service

import (
	"context"

	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/repository"
)

func (s *Service) ListNodes(ctx context.Context, projectID string, req model.PageReq) (*model.Page[model.Node], error) {
	req.Normalize()
	nodes, total, err := s.Nodes.Find(ctx, repository.Filter{"project_id": projectID}, req)
	if err != nil {
		return nil, err
	}
	return model.NewPage(nodes, req, total), nil
}

func (s *Service) GetNode(ctx context.Context, id string) (*model.Node, error) {
	return lookup(ctx, s.Nodes, "node", id)
}

func (s *Service) CreateNode(ctx context.Context, caller model.Caller, projectID string, req model.NodeReq) (*model.Node, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := lookup(ctx, s.Projects, "project", projectID); err != nil {
		return nil, err
	}
	if err := s.checkNodeRefs(ctx, req); err != nil {
		return nil, err
	}

	node := &model.Node{
		ProjectID:   projectID,
		Name:        req.Name,
		NodeTypeID:  req.NodeTypeID,
		QuartierID:  req.QuartierID,
		Address:     req.Address,
		Description: req.Description,
	}
	node.Init(s.newID(), s.clock())

	if err := s.Nodes.Insert(ctx, node); err != nil {
		return nil, conflictOnDuplicate(err, "node %q already exists in the project", req.Name)
	}
	s.audit(ctx, "node.create", caller, "node_id", node.ID, "project_id", projectID)
	return node, nil
}

func (s *Service) UpdateNode(ctx context.Context, caller model.Caller, id string, req model.NodeReq) (*model.Node, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	node, err := lookup(ctx, s.Nodes, "node", id)
	if err != nil {
		return nil, err
	}
	if err := s.checkNodeRefs(ctx, req); err != nil {
		return nil, err
	}

	node.Name = req.Name
	node.NodeTypeID = req.NodeTypeID
	node.QuartierID = req.QuartierID
	node.Address = req.Address
	node.Description = req.Description
	node.UpdatedAt = s.clock()

	if err := s.Nodes.Replace(ctx, id, node); err != nil {
		return nil, notFoundAs(conflictOnDuplicate(err, "node %q already exists in the project", req.Name), "node")
	}
	s.audit(ctx, "node.update", caller, "node_id", id)
	return node, nil
}

// DeleteNode removes the node with its infrastructures and deployments.
func (s *Service) DeleteNode(ctx context.Context, caller model.Caller, id string) error {
	if _, err := lookup(ctx, s.Nodes, "node", id); err != nil {
		return err
	}

	deployments, err := s.Deployments.FindAll(ctx, repository.Filter{"node_id": id})
	if err != nil {
		return err
	}
	if len(deployments) > 0 {
		ids := make([]string, 0, len(deployments))
		for _, d := range deployments {
			ids = append(ids, d.ID)
		}
		if _, err := s.DeployHistory.DeleteMany(ctx, repository.Filter{"deployment_id": map[string]any{"$in": ids}}); err != nil {
			return err
		}
	}

	if _, err := s.Deployments.DeleteMany(ctx, repository.Filter{"node_id": id}); err != nil {
		return err
	}
	if _, err := s.Infrastructures.DeleteMany(ctx, repository.Filter{"node_id": id}); err != nil {
		return err
	}
	if err := s.Nodes.Delete(ctx, id); err != nil {
		return notFoundAs(err, "node")
	}
	s.audit(ctx, "node.delete", caller, "node_id", id, "deployments", len(deployments))
	return nil
}

func (s *Service) checkNodeRefs(ctx context.Context, req model.NodeReq) error {
	if err := requireRef(ctx, s.Stores.NodeTypes, "node type", req.NodeTypeID); err != nil {
		return err
	}
	return requireRef(ctx, s.Stores.Quartiers, "quartier", req.QuartierID)
}

func (s *Service) ListInfrastructures(ctx context.Context, nodeID string, req model.PageReq) (*model.Page[model.Infrastructure], error) {
	req.Normalize()
	items, total, err := s.Infrastructures.Find(ctx, repository.Filter{"node_id": nodeID}, req)
	if err != nil {
		return nil, err
	}
	return model.NewPage(items, req, total), nil
}

func (s *Service) GetInfrastructure(ctx context.Context, id string) (*model.Infrastructure, error) {
	return lookup(ctx, s.Infrastructures, "infrastructure", id)
}

func (s *Service) CreateInfrastructure(ctx context.Context, caller model.Caller, nodeID string, req model.InfrastructureReq) (*model.Infrastructure, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	node, err := lookup(ctx, s.Nodes, "node", nodeID)
	if err != nil {
		return nil, err
	}

	infra := &model.Infrastructure{
		NodeID:      nodeID,
		ProjectID:   node.ProjectID,
		Name:        req.Name,
		Kind:        req.Kind,
		Host:        req.Host,
		Description: req.Description,
	}
	infra.Init(s.newID(), s.clock())

	if err := s.Infrastructures.Insert(ctx, infra); err != nil {
		return nil, conflictOnDuplicate(err, "infrastructure %q already exists on the node", req.Name)
	}
	s.audit(ctx, "infrastructure.create", caller, "infrastructure_id", infra.ID, "node_id", nodeID)
	return infra, nil
}

func (s *Service) UpdateInfrastructure(ctx context.Context, caller model.Caller, id string, req model.InfrastructureReq) (*model.Infrastructure, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	infra, err := lookup(ctx, s.Infrastructures, "infrastructure", id)
	if err != nil {
		return nil, err
	}

	infra.Name = req.Name
	infra.Kind = req.Kind
	infra.Host = req.Host
	infra.Description = req.Description
	infra.UpdatedAt = s.clock()

	if err := s.Infrastructures.Replace(ctx, id, infra); err != nil {
		return nil, notFoundAs(conflictOnDuplicate(err, "infrastructure %q already exists on the node", req.Name), "infrastructure")
	}
	s.audit(ctx, "infrastructure.update", caller, "infrastructure_id", id)
	return infra, nil
}

func (s *Service) DeleteInfrastructure(ctx context.Context, caller model.Caller, id string) error {
	used, err := exists(ctx, s.Deployments, repository.Filter{"infrastructure_id": id})
	if err != nil {
		return err
	}
	if used {
		return newError(ErrConflict, "infrastructure still has deployments")
	}
	if err := s.Infrastructures.Delete(ctx, id); err != nil {
		return notFoundAs(err, "infrastructure")
	}
	s.audit(ctx, "infrastructure.delete", caller, "infrastructure_id", id)
	return nil
}
