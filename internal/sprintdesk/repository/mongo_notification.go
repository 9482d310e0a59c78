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

// MongoNotificationRepository implements NotificationRepository using MongoDB
type MongoNotificationRepository struct {
	Collection *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database, collectionName string) *MongoNotificationRepository {
	return &MongoNotificationRepository{Collection: db.Collection(collectionName)}
}

func (r *MongoNotificationRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Inbox query: user + read + created_at
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "read", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_user_inbox"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_created_at"),
		},
	}
	_, err := r.Collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *MongoNotificationRepository) CreateMany(ctx context.Context, notifications []*model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(notifications))
	for _, n := range notifications {
		docs = append(docs, n)
	}
	if _, err := r.Collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert notifications: %w", err)
	}
	return nil
}

func (r *MongoNotificationRepository) ListForUser(ctx context.Context, userID string, req model.ListNotificationsReq) ([]*model.Notification, int64, error) {
	req.Normalize()
	filter := bson.M{"user_id": userID}
	if req.UnreadOnly {
		filter["read"] = false
	}

	total, err := r.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(req.Skip()).
		SetLimit(int64(req.Size))

	cursor, err := r.Collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var results []*model.Notification
	if err := cursor.All(ctx, &results); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *MongoNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	return r.Collection.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
}

func (r *MongoNotificationRepository) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true, "read_at": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoNotificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	res, err := r.Collection.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": at}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoNotificationRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
