package model

// Node ("noeud") is a site of a project where infrastructure is installed.
type Node struct {
	Base        `bson:",inline"`
	ProjectID   string `bson:"project_id" json:"project_id"`
	Name        string `bson:"name" json:"name"`
	NodeTypeID  string `bson:"node_type_id,omitempty" json:"node_type_id,omitempty"`
	QuartierID  string `bson:"quartier_id,omitempty" json:"quartier_id,omitempty"`
	Address     string `bson:"address,omitempty" json:"address,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

type Infrastructure struct {
	Base        `bson:",inline"`
	NodeID      string `bson:"node_id" json:"node_id"`
	ProjectID   string `bson:"project_id" json:"project_id"`
	Name        string `bson:"name" json:"name"`
	Kind        string `bson:"kind,omitempty" json:"kind,omitempty"`
	Host        string `bson:"host,omitempty" json:"host,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}
