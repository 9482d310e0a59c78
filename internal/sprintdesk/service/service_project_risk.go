package service

import (
	"context"

	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/repository"
)

func (s *Service) ListProjectRisks(ctx context.Context, projectID string, req model.PageReq) (*model.Page[model.ProjectRisk], error) {
	req.Normalize()
	items, total, err := s.ProjectRisks.Find(ctx, repository.Filter{"project_id": projectID}, req)
	if err != nil {
		return nil, err
	}
	return model.NewPage(items, req, total), nil
}

// AddProjectRisk links a catalog risk to a project. A risk appears once per project.
func (s *Service) AddProjectRisk(ctx context.Context, caller model.Caller, projectID string, req model.CreateProjectRiskReq) (*model.ProjectRisk, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := lookup(ctx, s.Projects, "project", projectID); err != nil {
		return nil, err
	}
	if err := requireRef(ctx, s.Stores.Risks, "risk", req.RiskID); err != nil {
		return nil, err
	}
	if err := s.checkRiskOwner(ctx, projectID, req.OwnerID); err != nil {
		return nil, err
	}

	risk := &model.ProjectRisk{
		ProjectID:   projectID,
		RiskID:      req.RiskID,
		Probability: req.Probability,
		Impact:      req.Impact,
		Mitigation:  req.Mitigation,
		OwnerID:     req.OwnerID,
	}
	risk.Init(s.newID(), s.clock())

	if err := s.ProjectRisks.Insert(ctx, risk); err != nil {
		return nil, conflictOnDuplicate(err, "risk %s is already linked to the project", req.RiskID)
	}
	s.audit(ctx, "project_risk.create", caller, "project_risk_id", risk.ID, "project_id", projectID, "score", risk.Score())
	return risk, nil
}

func (s *Service) UpdateProjectRisk(ctx context.Context, caller model.Caller, id string, req model.UpdateProjectRiskReq) (*model.ProjectRisk, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	risk, err := lookup(ctx, s.ProjectRisks, "project risk", id)
	if err != nil {
		return nil, err
	}
	if err := s.checkRiskOwner(ctx, risk.ProjectID, req.OwnerID); err != nil {
		return nil, err
	}

	risk.Probability = req.Probability
	risk.Impact = req.Impact
	risk.Mitigation = req.Mitigation
	risk.OwnerID = req.OwnerID
	risk.UpdatedAt = s.clock()

	if err := s.ProjectRisks.Replace(ctx, id, risk); err != nil {
		return nil, notFoundAs(err, "project risk")
	}
	s.audit(ctx, "project_risk.update", caller, "project_risk_id", id, "score", risk.Score())
	return risk, nil
}

func (s *Service) DeleteProjectRisk(ctx context.Context, caller model.Caller, id string) error {
	if err := s.ProjectRisks.Delete(ctx, id); err != nil {
		return notFoundAs(err, "project risk")
	}
	s.audit(ctx, "project_risk.delete", caller, "project_risk_id", id)
	return nil
}

func (s *Service) checkRiskOwner(ctx context.Context, projectID, ownerID string) error {
	if ownerID == "" {
		return nil
	}
	return s.requireProjectMember(ctx, projectID, ownerID)
}
