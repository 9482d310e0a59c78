package model

import "strings"

type CreateDeploymentReq struct {
	InfrastructureID string `json:"infrastructure_id" validate:"omitempty,max=64"`
	DevStackID       string `json:"dev_stack_id" validate:"required,max=64"`
	Version          string `json:"version" validate:"required,min=1,max=50"`
	Status           string `json:"status" validate:"omitempty,max=20"` // Optional, defaults to pending
	Note             string `json:"note" validate:"max=1000"`
}

func (r *CreateDeploymentReq) Validate() error {
	r.InfrastructureID = strings.TrimSpace(r.InfrastructureID)
	r.DevStackID = strings.TrimSpace(r.DevStackID)
	r.Version = strings.TrimSpace(r.Version)
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
	r.Note = strings.TrimSpace(r.Note)
	if r.Status == "" {
		r.Status = DeploymentPending
	}

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	if !AllowedDeploymentStatuses[r.Status] {
		return badRequest("invalid deployment status")
	}
	return nil
}

type UpdateDeploymentStatusReq struct {
	Status string `json:"status" validate:"required,max=20"`
	Note   string `json:"note" validate:"max=1000"`
}

func (r *UpdateDeploymentStatusReq) Validate() error {
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
	r.Note = strings.TrimSpace(r.Note)
	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	if !AllowedDeploymentStatuses[r.Status] {
		return badRequest("invalid deployment status")
	}
	return nil
}
