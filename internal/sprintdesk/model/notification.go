package model

import "time"

// Notification kinds
const (
	NotifyProjectMemberAdded      = "project_member_added"
	NotifyProjectMemberRemoved    = "project_member_removed"
	NotifyProjectLeadChanged      = "project_lead_changed"
	NotifySprintCreated           = "sprint_created"
	NotifySprintMemberAdded       = "sprint_member_added"
	NotifySprintMemberRemoved     = "sprint_member_removed"
	NotifySprintLeadChanged       = "sprint_lead_changed"
	NotifySprintStatusChanged     = "sprint_status_changed"
	NotifySprintExtended          = "sprint_extended"
	NotifySprintActivated         = "sprint_activated"
	NotifySprintFinished          = "sprint_finished"
	NotifyTaskAssigned            = "task_assigned"
	NotifyTaskUnassigned          = "task_unassigned"
	NotifyTaskStatusChanged       = "task_status_changed"
	NotifyTaskExtended            = "task_extended"
	NotifyTaskActivated           = "task_activated"
	NotifyTaskFinished            = "task_finished"
	NotifyDeploymentStatusChanged = "deployment_status_changed"
)

type Notification struct {
	ID           string     `bson:"_id" json:"id"`
	UserID       string     `bson:"user_id" json:"user_id"`
	Kind         string     `bson:"kind" json:"kind"`
	Message      string     `bson:"message" json:"message"`
	ResourceType string     `bson:"resource_type,omitempty" json:"resource_type,omitempty"`
	ResourceID   string     `bson:"resource_id,omitempty" json:"resource_id,omitempty"`
	ActorID      string     `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	Read         bool       `bson:"read" json:"read"`
	ReadAt       *time.Time `bson:"read_at,omitempty" json:"read_at,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
}

type UnreadCount struct {
	Unread int64 `json:"unread"`
}
