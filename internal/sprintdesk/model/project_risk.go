package model

// ProjectRisk links a catalog risk to a project with its assessment.
type ProjectRisk struct {
	Base        `bson:",inline"`
	ProjectID   string `bson:"project_id" json:"project_id"`
	RiskID      string `bson:"risk_id" json:"risk_id"`
	Probability int    `bson:"probability" json:"probability"`
	Impact      int    `bson:"impact" json:"impact"`
	Mitigation  string `bson:"mitigation,omitempty" json:"mitigation,omitempty"`
	OwnerID     string `bson:"owner_id,omitempty" json:"owner_id,omitempty"`
}

// Score is probability times impact.
func (r *ProjectRisk) Score() int {
	return r.Probability * r.Impact
}
