package model

import "time"

type Sprint struct {
	Base      `bson:",inline"`
	ProjectID string    `bson:"project_id" json:"project_id"`
	Name      string    `bson:"name" json:"name"`
	Goal      string    `bson:"goal,omitempty" json:"goal,omitempty"`
	StartDate time.Time `bson:"start_date" json:"start_date"`
	EndDate   time.Time `bson:"end_date" json:"end_date"`
	Status    Status    `bson:"status" json:"status"`
	CreatedBy string    `bson:"created_by,omitempty" json:"created_by,omitempty"`
}

type SprintDetail struct {
	*Sprint
	LeadID string `json:"lead_id"`
}
