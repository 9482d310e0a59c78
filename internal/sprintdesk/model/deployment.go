package model

import "time"

type Deployment struct {
	Base             `bson:",inline"`
	NodeID           string    `bson:"node_id" json:"node_id"`
	ProjectID        string    `bson:"project_id" json:"project_id"`
	InfrastructureID string    `bson:"infrastructure_id,omitempty" json:"infrastructure_id,omitempty"`
	DevStackID       string    `bson:"dev_stack_id" json:"dev_stack_id"`
	Version          string    `bson:"version" json:"version"`
	Status           string    `bson:"status" json:"status"`
	DeployedBy       string    `bson:"deployed_by" json:"deployed_by"`
	DeployedAt       time.Time `bson:"deployed_at" json:"deployed_at"`
}

// DeployHistory is an append-only record of a deployment change.
type DeployHistory struct {
	Base         `bson:",inline"`
	DeploymentID string `bson:"deployment_id" json:"deployment_id"`
	ProjectID    string `bson:"project_id" json:"project_id"`
	Action       string `bson:"action" json:"action"`
	Status       string `bson:"status" json:"status"`
	Version      string `bson:"version" json:"version"`
	ActorID      string `bson:"actor_id" json:"actor_id"`
	Note         string `bson:"note,omitempty" json:"note,omitempty"`
}
