package model

import "strings"

type NodeReq struct {
	Name        string `json:"name" validate:"required,min=1,max=150"`
	NodeTypeID  string `json:"node_type_id" validate:"omitempty,max=64"`
	QuartierID  string `json:"quartier_id" validate:"omitempty,max=64"`
	Address     string `json:"address" validate:"max=300"`
	Description string `json:"description" validate:"max=2000"`
}

func (r *NodeReq) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.NodeTypeID = strings.TrimSpace(r.NodeTypeID)
	r.QuartierID = strings.TrimSpace(r.QuartierID)
	r.Address = strings.TrimSpace(r.Address)
	r.Description = strings.TrimSpace(r.Description)
	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

type InfrastructureReq struct {
	Name        string `json:"name" validate:"required,min=1,max=150"`
	Kind        string `json:"kind" validate:"max=50"`
	Host        string `json:"host" validate:"max=255"`
	Description string `json:"description" validate:"max=2000"`
}

func (r *InfrastructureReq) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Kind = strings.ToLower(strings.TrimSpace(r.Kind))
	r.Host = strings.TrimSpace(r.Host)
	r.Description = strings.TrimSpace(r.Description)
	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}
