package model

// System roles stored on the user record
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// AllowedSystemRoles defines which roles can be stored on a user
var AllowedSystemRoles = map[string]bool{
	RoleAdmin: true,
	RoleUser:  true,
}

// Membership roles stored on a project or sprint membership
const (
	MemberRoleLead   = "lead"
	MemberRoleMember = "member"
)

// Effective roles resolved by the policy engine for a given resource chain
const (
	RoleProjectLead   = "project_lead"
	RoleProjectMember = "project_member"
	RoleSprintLead    = "sprint_lead"
	RoleSprintMember  = "sprint_member"
	RoleTaskAssignee  = "task_assignee"
)

// Resource types
const (
	ResourceTypeProject        = "project"
	ResourceTypeSprint         = "sprint"
	ResourceTypeTask           = "task"
	ResourceTypeNode           = "node"
	ResourceTypeInfrastructure = "infrastructure"
	ResourceTypeDeployment     = "deployment"
	ResourceTypeProjectRisk    = "project_risk"
	ResourceTypeUser           = "user"
)

// Deployment statuses
const (
	DeploymentPending    = "pending"
	DeploymentRunning    = "running"
	DeploymentSucceeded  = "succeeded"
	DeploymentFailed     = "failed"
	DeploymentRolledBack = "rolled_back"
)

// AllowedDeploymentStatuses lists the values accepted for a deployment status
var AllowedDeploymentStatuses = map[string]bool{
	DeploymentPending:    true,
	DeploymentRunning:    true,
	DeploymentSucceeded:  true,
	DeploymentFailed:     true,
	DeploymentRolledBack: true,
}

// Deploy history actions
const (
	DeployActionCreated       = "created"
	DeployActionStatusChanged = "status_changed"
)
