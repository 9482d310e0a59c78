package model

import "time"

type Task struct {
	Base        `bson:",inline"`
	ProjectID   string    `bson:"project_id" json:"project_id"`
	SprintID    string    `bson:"sprint_id" json:"sprint_id"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	AssigneeID  string    `bson:"assignee_id,omitempty" json:"assignee_id,omitempty"`
	Priority    int       `bson:"priority" json:"priority"`
	StartDate   time.Time `bson:"start_date" json:"start_date"`
	EndDate     time.Time `bson:"end_date" json:"end_date"`
	Status      Status    `bson:"status" json:"status"`
	CreatedBy   string    `bson:"created_by,omitempty" json:"created_by,omitempty"`
}
