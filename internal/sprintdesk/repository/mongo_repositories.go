package repository

import (
	"context"
	"fmt"
	"time"

	"sprintdesk/internal/sprintdesk/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	CollUsers           = "users"
	CollZones           = "zones"
	CollQuartiers       = "quartiers"
	CollNodeTypes       = "node_types"
	CollDevStacks       = "dev_stacks"
	CollRisks           = "risks"
	CollProjects        = "projects"
	CollMemberships     = "memberships"
	CollSprints         = "sprints"
	CollTasks           = "tasks"
	CollNodes           = "nodes"
	CollInfrastructures = "infrastructures"
	CollDeployments     = "deployments"
	CollDeployHistory   = "deploy_history"
	CollProjectRisks    = "project_risks"
	CollNotifications   = "notifications"
)

// Repositories groups every store backed by one Mongo database.
type Repositories struct {
	Users           *MongoStore[model.User]
	Zones           *MongoStore[model.Zone]
	Quartiers       *MongoStore[model.Quartier]
	NodeTypes       *MongoStore[model.NodeType]
	DevStacks       *MongoStore[model.DevStack]
	Risks           *MongoStore[model.Risk]
	Projects        *MongoStore[model.Project]
	Sprints         *MongoTimeboxStore[model.Sprint]
	Tasks           *MongoTimeboxStore[model.Task]
	Nodes           *MongoStore[model.Node]
	Infrastructures *MongoStore[model.Infrastructure]
	Deployments     *MongoStore[model.Deployment]
	DeployHistory   *MongoStore[model.DeployHistory]
	ProjectRisks    *MongoStore[model.ProjectRisk]
	Memberships     *MongoMembershipRepository
	Notifications   *MongoNotificationRepository
	Access          *ScopeResolver
}

func NewRepositories(db *mongo.Database) *Repositories {
	byName := bson.D{{Key: "name", Value: 1}}
	byStart := bson.D{{Key: "start_date", Value: 1}, {Key: "created_at", Value: 1}}

	r := &Repositories{
		Users:           NewMongoStore[model.User](db.Collection(CollUsers), byName),
		Zones:           NewMongoStore[model.Zone](db.Collection(CollZones), byName),
		Quartiers:       NewMongoStore[model.Quartier](db.Collection(CollQuartiers), byName),
		NodeTypes:       NewMongoStore[model.NodeType](db.Collection(CollNodeTypes), byName),
		DevStacks:       NewMongoStore[model.DevStack](db.Collection(CollDevStacks), byName),
		Risks:           NewMongoStore[model.Risk](db.Collection(CollRisks), byName),
		Projects:        NewMongoStore[model.Project](db.Collection(CollProjects), nil),
		Sprints:         NewMongoTimeboxStore[model.Sprint](db.Collection(CollSprints), byStart, time.Now),
		Tasks:           NewMongoTimeboxStore[model.Task](db.Collection(CollTasks), byStart, time.Now),
		Nodes:           NewMongoStore[model.Node](db.Collection(CollNodes), byName),
		Infrastructures: NewMongoStore[model.Infrastructure](db.Collection(CollInfrastructures), byName),
		Deployments:     NewMongoStore[model.Deployment](db.Collection(CollDeployments), bson.D{{Key: "deployed_at", Value: -1}}),
		DeployHistory:   NewMongoStore[model.DeployHistory](db.Collection(CollDeployHistory), nil),
		ProjectRisks:    NewMongoStore[model.ProjectRisk](db.Collection(CollProjectRisks), nil),
		Memberships:     NewMongoMembershipRepository(db, CollMemberships),
		Notifications:   NewMongoNotificationRepository(db, CollNotifications),
	}
	r.Access = &ScopeResolver{
		Sprints:         r.Sprints,
		Tasks:           r.Tasks,
		Nodes:           r.Nodes,
		Infrastructures: r.Infrastructures,
		Deployments:     r.Deployments,
		ProjectRisks:    r.ProjectRisks,
		Projects:        r.Projects,
		Memberships:     r.Memberships,
	}
	return r
}

// EnsureIndexes creates the unique and lookup indexes of every collection.
func (r *Repositories) EnsureIndexes(ctx context.Context) error {
	unique := func(name string, keys ...string) mongo.IndexModel {
		d := bson.D{}
		for _, k := range keys {
			d = append(d, bson.E{Key: k, Value: 1})
		}
		return mongo.IndexModel{Keys: d, Options: options.Index().SetUnique(true).SetName(name)}
	}
	lookup := func(name string, keys ...string) mongo.IndexModel {
		d := bson.D{}
		for _, k := range keys {
			d = append(d, bson.E{Key: k, Value: 1})
		}
		return mongo.IndexModel{Keys: d, Options: options.Index().SetName(name)}
	}

	plan := map[*mongo.Collection][]mongo.IndexModel{
		r.Users.Collection:           {unique("uniq_user_email", "email")},
		r.Zones.Collection:           {unique("uniq_zone_name", "name")},
		r.Quartiers.Collection:       {unique("uniq_quartier_per_zone", "zone_id", "name")},
		r.NodeTypes.Collection:       {unique("uniq_node_type_name", "name")},
		r.DevStacks.Collection:       {unique("uniq_dev_stack", "name", "version")},
		r.Risks.Collection:           {unique("uniq_risk_name", "name")},
		r.Sprints.Collection:         {lookup("idx_sprint_project", "project_id"), lookup("idx_sprint_sweep", "status", "start_date", "end_date")},
		r.Tasks.Collection:           {lookup("idx_task_sprint", "sprint_id"), lookup("idx_task_assignee", "assignee_id"), lookup("idx_task_sweep", "status", "start_date", "end_date")},
		r.Nodes.Collection:           {lookup("idx_node_project", "project_id")},
		r.Infrastructures.Collection: {lookup("idx_infra_node", "node_id")},
		r.Deployments.Collection:     {lookup("idx_deployment_node", "node_id")},
		r.DeployHistory.Collection:   {lookup("idx_history_deployment", "deployment_id", "created_at")},
		r.ProjectRisks.Collection:    {unique("uniq_project_risk", "project_id", "risk_id")},
	}
	for coll, indexes := range plan {
		if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("indexes on %s: %w", coll.Name(), err)
		}
	}

	if err := r.Memberships.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("indexes on %s: %w", CollMemberships, err)
	}
	if err := r.Notifications.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("indexes on %s: %w", CollNotifications, err)
	}
	return nil
}
