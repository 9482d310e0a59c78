package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sprintdesk/internal/sprintdesk/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements EntityStore over one collection.
type MongoStore[T any] struct {
	Collection *mongo.Collection
	// sort applied to list queries
	sort bson.D
}

func NewMongoStore[T any](coll *mongo.Collection, sort bson.D) *MongoStore[T] {
	if sort == nil {
		sort = bson.D{{Key: "created_at", Value: -1}}
	}
	return &MongoStore[T]{Collection: coll, sort: sort}
}

func (s *MongoStore[T]) Insert(ctx context.Context, doc *T) error {
	_, err := s.Collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert into %s: %w", s.Collection.Name(), err)
	}
	return nil
}

func (s *MongoStore[T]) FindByID(ctx context.Context, id string) (*T, error) {
	return s.FindOne(ctx, Filter{"_id": id})
}

func (s *MongoStore[T]) FindOne(ctx context.Context, filter Filter) (*T, error) {
	var doc T
	err := s.Collection.FindOne(ctx, bson.M(filter)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find in %s: %w", s.Collection.Name(), err)
	}
	return &doc, nil
}

func (s *MongoStore[T]) Find(ctx context.Context, filter Filter, page model.PageReq) ([]*T, int64, error) {
	page.Normalize()
	query := bson.M(filter)
	if query == nil {
		query = bson.M{}
	}

	total, err := s.Collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count in %s: %w", s.Collection.Name(), err)
	}

	findOptions := options.Find().
		SetSort(s.sort).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Size))

	cursor, err := s.Collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("find in %s: %w", s.Collection.Name(), err)
	}
	defer cursor.Close(ctx)

	var results []*T
	if err := cursor.All(ctx, &results); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (s *MongoStore[T]) FindAll(ctx context.Context, filter Filter) ([]*T, error) {
	query := bson.M(filter)
	if query == nil {
		query = bson.M{}
	}
	cursor, err := s.Collection.Find(ctx, query, options.Find().SetSort(s.sort))
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", s.Collection.Name(), err)
	}
	defer cursor.Close(ctx)

	var results []*T
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *MongoStore[T]) Replace(ctx context.Context, id string, doc *T) error {
	res, err := s.Collection.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("replace in %s: %w", s.Collection.Name(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore[T]) Delete(ctx context.Context, id string) error {
	res, err := s.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete in %s: %w", s.Collection.Name(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore[T]) DeleteMany(ctx context.Context, filter Filter) (int64, error) {
	res, err := s.Collection.DeleteMany(ctx, bson.M(filter))
	if err != nil {
		return 0, fmt.Errorf("delete in %s: %w", s.Collection.Name(), err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	query := bson.M(filter)
	if query == nil {
		query = bson.M{}
	}
	return s.Collection.CountDocuments(ctx, query)
}

// MongoTimeboxStore is a MongoStore for documents carrying status and date fields.
type MongoTimeboxStore[T any] struct {
	*MongoStore[T]
	// now stamps updated_at on status transitions
	now func() time.Time
}

func NewMongoTimeboxStore[T any](coll *mongo.Collection, sort bson.D, now func() time.Time) *MongoTimeboxStore[T] {
	if now == nil {
		now = time.Now
	}
	return &MongoTimeboxStore[T]{MongoStore: NewMongoStore[T](coll, sort), now: now}
}

func (s *MongoTimeboxStore[T]) FindDue(ctx context.Context, status model.Status, dateField string, t time.Time, inclusive bool) ([]*T, error) {
	op := "$lt"
	if inclusive {
		op = "$lte"
	}
	return s.FindAll(ctx, Filter{
		"status":  status,
		dateField: bson.M{op: t},
	})
}

func (s *MongoTimeboxStore[T]) CompareAndSetStatus(ctx context.Context, id string, from, to model.Status) (bool, error) {
	res, err := s.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": s.now()}},
	)
	if err != nil {
		return false, fmt.Errorf("update status in %s: %w", s.Collection.Name(), err)
	}
	return res.ModifiedCount == 1, nil
}
