package repository

import (
	"context"
	"errors"
	"time"

	"sprintdesk/internal/sprintdesk/model"
)

var (
	ErrDuplicate = errors.New("duplicate record")
	ErrNotFound  = errors.New("record not found")

	// ErrTransactionsUnsupported is returned when MongoDB runs standalone.
	ErrTransactionsUnsupported = errors.New("transactions require a replica set or sharded cluster")
)

// Filter is a field-equality query. Values may carry Mongo operators.
type Filter map[string]any

// EntityStore is the CRUD contract shared by every document collection.
type EntityStore[T any] interface {
	Insert(ctx context.Context, doc *T) error
	FindByID(ctx context.Context, id string) (*T, error)
	FindOne(ctx context.Context, filter Filter) (*T, error)
	Find(ctx context.Context, filter Filter, page model.PageReq) ([]*T, int64, error)
	FindAll(ctx context.Context, filter Filter) ([]*T, error)
	Replace(ctx context.Context, id string, doc *T) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, filter Filter) (int64, error)
	Count(ctx context.Context, filter Filter) (int64, error)
}

// TimeboxStore adds the status-sweep primitives for sprints and tasks.
type TimeboxStore[T any] interface {
	EntityStore[T]
	// FindDue returns documents in status whose dateField is before (or at, when inclusive) t.
	FindDue(ctx context.Context, status model.Status, dateField string, t time.Time, inclusive bool) ([]*T, error)
	// CompareAndSetStatus moves a document from one status to another.
	// It reports false when the document was no longer in `from`.
	CompareAndSetStatus(ctx context.Context, id string, from, to model.Status) (bool, error)
}

type MembershipRepository interface {
	// Add a membership; ErrDuplicate when the user already belongs or a second lead is added
	AddMember(ctx context.Context, m *model.Membership) error
	RemoveMember(ctx context.Context, ref model.ResourceRef, userID string) error
	GetMembership(ctx context.Context, ref model.ResourceRef, userID string) (*model.Membership, error)
	GetLead(ctx context.Context, ref model.ResourceRef) (*model.Membership, error)
	ListMembers(ctx context.Context, ref model.ResourceRef) ([]*model.Membership, error)
	// Memberships of one user across the given resources
	FindMemberships(ctx context.Context, userID string, refs []model.ResourceRef) ([]*model.Membership, error)
	// IDs of resources of a type the user belongs to
	ListResourceIDs(ctx context.Context, userID, resourceType string) ([]string, error)
	// Transfer lead safely using transaction; the old lead stays as member
	TransferLead(ctx context.Context, ref model.ResourceRef, newLeadID, updatedBy string) (*model.Membership, error)
	DeleteByResource(ctx context.Context, refs ...model.ResourceRef) error
	EnsureIndexes(ctx context.Context) error
}

type NotificationRepository interface {
	CreateMany(ctx context.Context, notifications []*model.Notification) error
	ListForUser(ctx context.Context, userID string, req model.ListNotificationsReq) ([]*model.Notification, int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, id string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	Delete(ctx context.Context, userID, id string) error
	EnsureIndexes(ctx context.Context) error
}

// AccessRepository is what the policy engine needs to evaluate a request.
type AccessRepository interface {
	ResolveScope(ctx context.Context, scope, id string) (*model.ResourceScope, error)
	FindMemberships(ctx context.Context, userID string, refs []model.ResourceRef) ([]*model.Membership, error)
}
