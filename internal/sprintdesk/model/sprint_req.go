package model

import (
	"strings"
	"time"
)

type CreateSprintReq struct {
	Name      string    `json:"name" validate:"required,min=1,max=150"`
	Goal      string    `json:"goal" validate:"max=2000"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	LeadID    string    `json:"lead_id" validate:"required,max=64"`
}

func (r *CreateSprintReq) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Goal = strings.TrimSpace(r.Goal)
	r.LeadID = strings.TrimSpace(r.LeadID)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return validateWindow(r.StartDate, r.EndDate)
}

type UpdateSprintReq struct {
	Name      string    `json:"name" validate:"required,min=1,max=150"`
	Goal      string    `json:"goal" validate:"max=2000"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

func (r *UpdateSprintReq) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Goal = strings.TrimSpace(r.Goal)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return validateWindow(r.StartDate, r.EndDate)
}

// ExtendReq pushes the end date of a sprint or task later.
type ExtendReq struct {
	EndDate time.Time `json:"end_date"`
	Reason  string    `json:"reason" validate:"max=500"`
}

func (r *ExtendReq) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	if r.EndDate.IsZero() {
		return badRequest("end_date is required")
	}
	return nil
}

type UpdateStatusReq struct {
	Status *Status `json:"status"`
}

func (r *UpdateStatusReq) Validate() error {
	if r.Status == nil {
		return badRequest("status is required")
	}
	if !r.Status.Valid() {
		return badRequest("invalid status: must be one of [0, 1, 2, 3]")
	}
	if !r.Status.ManuallySettable() {
		return badRequest("status can only be set to active (1) or completed (2)")
	}
	return nil
}
