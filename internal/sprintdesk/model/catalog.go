package model

import "strings"

// Zone is a geographical area grouping quartiers.
type Zone struct {
	Base        `bson:",inline"`
	Name        string `bson:"name" json:"name" validate:"required,min=1,max=100"`
	Description string `bson:"description,omitempty" json:"description,omitempty" validate:"max=1000"`
}

func (z *Zone) Validate() error {
	z.Name = strings.TrimSpace(z.Name)
	z.Description = strings.TrimSpace(z.Description)
	if err := GetValidator().Struct(z); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

// Quartier is a neighbourhood inside a zone.
type Quartier struct {
	Base        `bson:",inline"`
	Name        string `bson:"name" json:"name" validate:"required,min=1,max=100"`
	ZoneID      string `bson:"zone_id" json:"zone_id" validate:"required,max=64"`
	Description string `bson:"description,omitempty" json:"description,omitempty" validate:"max=1000"`
}

func (q *Quartier) Validate() error {
	q.Name = strings.TrimSpace(q.Name)
	q.ZoneID = strings.TrimSpace(q.ZoneID)
	q.Description = strings.TrimSpace(q.Description)
	if err := GetValidator().Struct(q); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

type NodeType struct {
	Base        `bson:",inline"`
	Name        string `bson:"name" json:"name" validate:"required,min=1,max=100"`
	Description string `bson:"description,omitempty" json:"description,omitempty" validate:"max=1000"`
}

func (n *NodeType) Validate() error {
	n.Name = strings.TrimSpace(n.Name)
	n.Description = strings.TrimSpace(n.Description)
	if err := GetValidator().Struct(n); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

// DevStack is a technology stack that can be deployed on a node.
type DevStack struct {
	Base        `bson:",inline"`
	Name        string `bson:"name" json:"name" validate:"required,min=1,max=100"`
	Version     string `bson:"version,omitempty" json:"version,omitempty" validate:"max=50"`
	Description string `bson:"description,omitempty" json:"description,omitempty" validate:"max=1000"`
}

func (d *DevStack) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Version = strings.TrimSpace(d.Version)
	d.Description = strings.TrimSpace(d.Description)
	if err := GetValidator().Struct(d); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

// Risk is a catalog entry that projects can link and score.
type Risk struct {
	Base        `bson:",inline"`
	Name        string `bson:"name" json:"name" validate:"required,min=1,max=100"`
	Category    string `bson:"category,omitempty" json:"category,omitempty" validate:"max=50"`
	Description string `bson:"description,omitempty" json:"description,omitempty" validate:"max=1000"`
}

func (r *Risk) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Category = strings.ToLower(strings.TrimSpace(r.Category))
	r.Description = strings.TrimSpace(r.Description)
	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}
