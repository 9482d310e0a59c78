package repository

import (
	"context"
	"fmt"

	"sprintdesk/internal/sprintdesk/model"
)

// ScopeResolver walks a resource up to its project so the policy engine can
// collect the caller's memberships along the chain.
type ScopeResolver struct {
	Sprints         EntityStore[model.Sprint]
	Tasks           EntityStore[model.Task]
	Nodes           EntityStore[model.Node]
	Infrastructures EntityStore[model.Infrastructure]
	Deployments     EntityStore[model.Deployment]
	ProjectRisks    EntityStore[model.ProjectRisk]
	Projects        EntityStore[model.Project]
	Memberships     MembershipRepository
}

func (r *ScopeResolver) ResolveScope(ctx context.Context, scope, id string) (*model.ResourceScope, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	switch scope {
	case model.ResourceTypeProject:
		if _, err := r.Projects.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return &model.ResourceScope{ProjectID: id}, nil

	case model.ResourceTypeSprint:
		sprint, err := r.Sprints.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &model.ResourceScope{ProjectID: sprint.ProjectID, SprintID: sprint.ID}, nil

	case model.ResourceTypeTask:
		task, err := r.Tasks.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &model.ResourceScope{
			ProjectID:  task.ProjectID,
			SprintID:   task.SprintID,
			TaskID:     task.ID,
			AssigneeID: task.AssigneeID,
		}, nil

	case model.ResourceTypeNode:
		node, err := r.Nodes.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &model.ResourceScope{ProjectID: node.ProjectID, NodeID: node.ID}, nil

	case model.ResourceTypeInfrastructure:
		infra, err := r.Infrastructures.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &model.ResourceScope{ProjectID: infra.ProjectID, NodeID: infra.NodeID}, nil

	case model.ResourceTypeDeployment:
		d, err := r.Deployments.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &model.ResourceScope{ProjectID: d.ProjectID, NodeID: d.NodeID}, nil

	case model.ResourceTypeProjectRisk:
		pr, err := r.ProjectRisks.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &model.ResourceScope{ProjectID: pr.ProjectID}, nil
	}

	return nil, fmt.Errorf("unknown scope: %s", scope)
}

func (r *ScopeResolver) FindMemberships(ctx context.Context, userID string, refs []model.ResourceRef) ([]*model.Membership, error) {
	return r.Memberships.FindMemberships(ctx, userID, refs)
}
