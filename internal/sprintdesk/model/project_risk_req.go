package model

import "strings"

type CreateProjectRiskReq struct {
	RiskID      string `json:"risk_id" validate:"required,max=64"`
	Probability int    `json:"probability" validate:"required,min=1,max=5"`
	Impact      int    `json:"impact" validate:"required,min=1,max=5"`
	Mitigation  string `json:"mitigation" validate:"max=2000"`
	OwnerID     string `json:"owner_id" validate:"omitempty,max=64"`
}

func (r *CreateProjectRiskReq) Validate() error {
	r.RiskID = strings.TrimSpace(r.RiskID)
	r.Mitigation = strings.TrimSpace(r.Mitigation)
	r.OwnerID = strings.TrimSpace(r.OwnerID)
	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

type UpdateProjectRiskReq struct {
	Probability int    `json:"probability" validate:"required,min=1,max=5"`
	Impact      int    `json:"impact" validate:"required,min=1,max=5"`
	Mitigation  string `json:"mitigation" validate:"max=2000"`
	OwnerID     string `json:"owner_id" validate:"omitempty,max=64"`
}

func (r *UpdateProjectRiskReq) Validate() error {
	r.Mitigation = strings.TrimSpace(r.Mitigation)
	r.OwnerID = strings.TrimSpace(r.OwnerID)
	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}
