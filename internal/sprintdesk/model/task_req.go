package model

import (
	"strings"
	"time"
)

type CreateTaskReq struct {
	Title       string    `json:"title" validate:"required,min=1,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	AssigneeID  string    `json:"assignee_id" validate:"omitempty,max=64"`
	Priority    int       `json:"priority" validate:"min=0,max=5"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

func (r *CreateTaskReq) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.AssigneeID = strings.TrimSpace(r.AssigneeID)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return validateWindow(r.StartDate, r.EndDate)
}

type UpdateTaskReq struct {
	Title       string    `json:"title" validate:"required,min=1,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	Priority    int       `json:"priority" validate:"min=0,max=5"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

func (r *UpdateTaskReq) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return validateWindow(r.StartDate, r.EndDate)
}

// AssignTaskReq sets the assignee. An empty id unassigns the task.
type AssignTaskReq struct {
	AssigneeID string `json:"assignee_id" validate:"omitempty,max=64"`
}

func (r *AssignTaskReq) Validate() error {
	r.AssigneeID = strings.TrimSpace(r.AssigneeID)
	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}
