package model

import "strings"

type CreateUserReq struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"omitempty,max=20"` // Optional, defaults to user
}

func (r *CreateUserReq) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	if r.Role == "" {
		r.Role = RoleUser
	}

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}

	if !AllowedSystemRoles[r.Role] {
		return badRequest("invalid role: must be one of [admin, user]")
	}
	return nil
}

// UpdateUserReq carries a partial update. Role and Active are admin-only.
type UpdateUserReq struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email  *string `json:"email" validate:"omitempty,email,max=254"`
	Role   *string `json:"role" validate:"omitempty,max=20"`
	Active *bool   `json:"active"`
}

func (r *UpdateUserReq) Validate() error {
	if r.Name != nil {
		v := strings.TrimSpace(*r.Name)
		r.Name = &v
	}
	if r.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &v
	}
	if r.Role != nil {
		v := strings.ToLower(strings.TrimSpace(*r.Role))
		r.Role = &v
	}

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}

	if r.Role != nil && !AllowedSystemRoles[*r.Role] {
		return badRequest("invalid role: must be one of [admin, user]")
	}
	if r.Name == nil && r.Email == nil && r.Role == nil && r.Active == nil {
		return badRequest("nothing to update")
	}
	return nil
}

type ChangePasswordReq struct {
	CurrentPassword string `json:"current_password" validate:"omitempty,max=128"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

func (r *ChangePasswordReq) Validate() error {
	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

type ListUsersReq struct {
	PageReq
	Role  string `query:"role" validate:"omitempty,max=20"`
	Query string `query:"q" validate:"omitempty,max=100"`
}

func (r *ListUsersReq) Validate() error {
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	r.Query = strings.TrimSpace(r.Query)
	r.Normalize()
	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}
