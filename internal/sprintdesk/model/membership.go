package model

import "time"

// Membership links a user to a project or sprint, as lead or member.
type Membership struct {
	ID           string    `bson:"_id" json:"id"`
	UserID       string    `bson:"user_id" json:"user_id"`
	ResourceType string    `bson:"resource_type" json:"resource_type"`
	ResourceID   string    `bson:"resource_id" json:"resource_id"`
	Role         string    `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
	CreatedBy    string    `bson:"created_by,omitempty" json:"created_by,omitempty"`
	UpdatedBy    string    `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
}

func (m *Membership) IsLead() bool {
	return m.Role == MemberRoleLead
}

// ResourceRef points at a project or sprint
type ResourceRef struct {
	Type string
	ID   string
}

func ProjectRef(id string) ResourceRef {
	return ResourceRef{Type: ResourceTypeProject, ID: id}
}

func SprintRef(id string) ResourceRef {
	return ResourceRef{Type: ResourceTypeSprint, ID: id}
}

// ResourceScope is the parent chain of a resource, resolved for authorization.
type ResourceScope struct {
	ProjectID  string
	SprintID   string
	TaskID     string
	NodeID     string
	AssigneeID string
}

// Refs returns the membership-bearing resources of the chain.
func (s *ResourceScope) Refs() []ResourceRef {
	var refs []ResourceRef
	if s.ProjectID != "" {
		refs = append(refs, ProjectRef(s.ProjectID))
	}
	if s.SprintID != "" {
		refs = append(refs, SprintRef(s.SprintID))
	}
	return refs
}
