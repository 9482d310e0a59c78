package model

import (
	"strings"
	"time"
)

type CreateProjectReq struct {
	Name        string     `json:"name" validate:"required,min=1,max=150"`
	Description string     `json:"description" validate:"max=5000"`
	QuartierID  string     `json:"quartier_id" validate:"omitempty,max=64"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	LeadID      string     `json:"lead_id" validate:"required,max=64"`
}

func (r *CreateProjectReq) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.QuartierID = strings.TrimSpace(r.QuartierID)
	r.LeadID = strings.TrimSpace(r.LeadID)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return validateOptionalWindow(r.StartDate, r.EndDate)
}

type UpdateProjectReq struct {
	Name        string     `json:"name" validate:"required,min=1,max=150"`
	Description string     `json:"description" validate:"max=5000"`
	QuartierID  string     `json:"quartier_id" validate:"omitempty,max=64"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

func (r *UpdateProjectReq) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.QuartierID = strings.TrimSpace(r.QuartierID)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return validateOptionalWindow(r.StartDate, r.EndDate)
}

// MemberReq adds a member or names a new lead.
type MemberReq struct {
	UserID string `json:"user_id" validate:"required,min=1,max=64"`
}

func (r *MemberReq) Validate() error {
	r.UserID = strings.TrimSpace(r.UserID)
	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

func validateOptionalWindow(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return badRequest("end_date must not be before start_date")
	}
	return nil
}

func validateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return badRequest("start_date and end_date are required")
	}
	if end.Before(start) {
		return badRequest("end_date must not be before start_date")
	}
	return nil
}
