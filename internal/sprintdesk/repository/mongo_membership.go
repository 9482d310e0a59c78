package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sprintdesk/internal/sprintdesk/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoMembershipRepository struct {
	Memberships *mongo.Collection
	Client      *mongo.Client // for transactions
}

func NewMongoMembershipRepository(db *mongo.Database, collectionName string) *MongoMembershipRepository {
	return &MongoMembershipRepository{
		Memberships: db.Collection(collectionName),
		Client:      db.Client(),
	}
}

func (r *MongoMembershipRepository) EnsureIndexes(ctx context.Context) error {
	// 1. One membership per (user, resource)
	idxUnique := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "resource_type", Value: 1},
			{Key: "resource_id", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("uniq_user_per_resource"),
	}

	// 2. Exactly one lead per resource
	idxLead := mongo.IndexModel{
		Keys: bson.D{
			{Key: "resource_type", Value: 1},
			{Key: "resource_id", Value: 1},
		},
		Options: options.Index().
			SetUnique(true).
			SetName("unique_resource_lead").
			SetPartialFilterExpression(bson.M{"role": model.MemberRoleLead}),
	}

	// 3. Reverse lookup: resources of a user
	idxUser := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "resource_type", Value: 1},
		},
		Options: options.Index().SetName("idx_user_resources"),
	}

	_, err := r.Memberships.Indexes().CreateMany(ctx, []mongo.IndexModel{idxUnique, idxLead, idxUser})
	return err
}

func (r *MongoMembershipRepository) AddMember(ctx context.Context, m *model.Membership) error {
	now := time.Now()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := r.Memberships.InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

func (r *MongoMembershipRepository) RemoveMember(ctx context.Context, ref model.ResourceRef, userID string) error {
	res, err := r.Memberships.DeleteOne(ctx, refFilter(ref, bson.M{"user_id": userID}))
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoMembershipRepository) GetMembership(ctx context.Context, ref model.ResourceRef, userID string) (*model.Membership, error) {
	return r.findOne(ctx, refFilter(ref, bson.M{"user_id": userID}))
}

func (r *MongoMembershipRepository) GetLead(ctx context.Context, ref model.ResourceRef) (*model.Membership, error) {
	return r.findOne(ctx, refFilter(ref, bson.M{"role": model.MemberRoleLead}))
}

func (r *MongoMembershipRepository) findOne(ctx context.Context, filter bson.M) (*model.Membership, error) {
	var m model.Membership
	if err := r.Memberships.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find membership: %w", err)
	}
	return &m, nil
}

func (r *MongoMembershipRepository) ListMembers(ctx context.Context, ref model.ResourceRef) ([]*model.Membership, error) {
	// Lead first, then by join date
	opts := options.Find().SetSort(bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: 1}})
	return r.find(ctx, refFilter(ref, nil), opts)
}

func (r *MongoMembershipRepository) FindMemberships(ctx context.Context, userID string, refs []model.ResourceRef) ([]*model.Membership, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	or := make(bson.A, 0, len(refs))
	for _, ref := range refs {
		or = append(or, bson.M{"resource_type": ref.Type, "resource_id": ref.ID})
	}
	return r.find(ctx, bson.M{"user_id": userID, "$or": or}, nil)
}

func (r *MongoMembershipRepository) ListResourceIDs(ctx context.Context, userID, resourceType string) ([]string, error) {
	memberships, err := r.find(ctx, bson.M{"user_id": userID, "resource_type": resourceType}, nil)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.ResourceID)
	}
	return ids, nil
}

func (r *MongoMembershipRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Membership, error) {
	cursor, err := r.Memberships.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find memberships: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*model.Membership
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *MongoMembershipRepository) TransferLead(ctx context.Context, ref model.ResourceRef, newLeadID, updatedBy string) (*model.Membership, error) {
	session, err := r.Client.StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	var previous model.Membership
	callback := func(sessCtx mongo.SessionContext) (interface{}, error) {
		now := time.Now()

		// 1. Demote current lead to member
		filterOld := refFilter(ref, bson.M{"role": model.MemberRoleLead})
		updateOld := bson.M{
			"$set": bson.M{
				"role":       model.MemberRoleMember,
				"updated_at": now,
				"updated_by": updatedBy,
			},
		}
		err := r.Memberships.FindOneAndUpdate(sessCtx, filterOld, updateOld).Decode(&previous)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrNotFound
			}
			return nil, err
		}

		// 2. Promote new lead, adding the membership when missing
		filterNew := refFilter(ref, bson.M{"user_id": newLeadID})
		updateNew := bson.M{
			"$set": bson.M{
				"role":       model.MemberRoleLead,
				"updated_at": now,
				"updated_by": updatedBy,
			},
			"$setOnInsert": bson.M{
				"_id":        uuid.NewString(),
				"created_at": now,
				"created_by": updatedBy,
			},
		}
		if _, err := r.Memberships.UpdateOne(sessCtx, filterNew, updateNew, options.Update().SetUpsert(true)); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if _, err := session.WithTransaction(ctx, callback); err != nil {
		if isTransactionUnsupported(err) {
			return nil, ErrTransactionsUnsupported
		}
		return nil, err
	}
	return &previous, nil
}

// isTransactionUnsupported matches the IllegalOperation a standalone server
// returns for commands carrying a transaction number.
func isTransactionUnsupported(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(20) && se.HasErrorMessage("Transaction numbers are only allowed")
}

func (r *MongoMembershipRepository) DeleteByResource(ctx context.Context, refs ...model.ResourceRef) error {
	if len(refs) == 0 {
		return nil
	}
	or := make(bson.A, 0, len(refs))
	for _, ref := range refs {
		or = append(or, bson.M{"resource_type": ref.Type, "resource_id": ref.ID})
	}
	_, err := r.Memberships.DeleteMany(ctx, bson.M{"$or": or})
	return err
}

func refFilter(ref model.ResourceRef, extra bson.M) bson.M {
	filter := bson.M{
		"resource_type": ref.Type,
		"resource_id":   ref.ID,
	}
	for k, v := range extra {
		filter[k] = v
	}
	return filter
}
