package model

import "time"

type Project struct {
	Base        `bson:",inline"`
	Name        string     `bson:"name" json:"name"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	QuartierID  string     `bson:"quartier_id,omitempty" json:"quartier_id,omitempty"`
	StartDate   *time.Time `bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate     *time.Time `bson:"end_date,omitempty" json:"end_date,omitempty"`
	Status      Status     `bson:"status" json:"status"`
	CreatedBy   string     `bson:"created_by,omitempty" json:"created_by,omitempty"`
}

// Contains reports whether [start, end] lies inside the project's dates.
// Open project bounds accept anything on that side.
func (p *Project) Contains(start, end time.Time) bool {
	if p.StartDate != nil && start.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && end.After(*p.EndDate) {
		return false
	}
	return true
}

// ProjectDetail is a project with its lead resolved.
type ProjectDetail struct {
	*Project
	LeadID string `json:"lead_id"`
}
