package testutil

import (
	"context"
	"sync"
	"time"

	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/notify"
	"sprintdesk/internal/sprintdesk/repository"

	"github.com/stretchr/testify/mock"
)

// MockStore is a testify mock of repository.EntityStore.
type MockStore[T any] struct {
	mock.Mock
}

func (m *MockStore[T]) Insert(ctx context.Context, doc *T) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockStore[T]) FindByID(ctx context.Context, id string) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockStore[T]) FindOne(ctx context.Context, filter repository.Filter) (*T, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockStore[T]) Find(ctx context.Context, filter repository.Filter, page model.PageReq) ([]*T, int64, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*T), args.Get(1).(int64), args.Error(2)
}

func (m *MockStore[T]) FindAll(ctx context.Context, filter repository.Filter) ([]*T, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*T), args.Error(1)
}

func (m *MockStore[T]) Replace(ctx context.Context, id string, doc *T) error {
	args := m.Called(ctx, id, doc)
	return args.Error(0)
}

func (m *MockStore[T]) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore[T]) DeleteMany(ctx context.Context, filter repository.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore[T]) Count(ctx context.Context, filter repository.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockTimeboxStore adds the sweep primitives to MockStore.
type MockTimeboxStore[T any] struct {
	MockStore[T]
}

func (m *MockTimeboxStore[T]) FindDue(ctx context.Context, status model.Status, dateField string, t time.Time, inclusive bool) ([]*T, error) {
	args := m.Called(ctx, status, dateField, t, inclusive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*T), args.Error(1)
}

func (m *MockTimeboxStore[T]) CompareAndSetStatus(ctx context.Context, id string, from, to model.Status) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) AddMember(ctx context.Context, membership *model.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipRepository) RemoveMember(ctx context.Context, ref model.ResourceRef, userID string) error {
	args := m.Called(ctx, ref, userID)
	return args.Error(0)
}

func (m *MockMembershipRepository) GetMembership(ctx context.Context, ref model.ResourceRef, userID string) (*model.Membership, error) {
	args := m.Called(ctx, ref, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Membership), args.Error(1)
}

func (m *MockMembershipRepository) GetLead(ctx context.Context, ref model.ResourceRef) (*model.Membership, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Membership), args.Error(1)
}

func (m *MockMembershipRepository) ListMembers(ctx context.Context, ref model.ResourceRef) ([]*model.Membership, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Membership), args.Error(1)
}

func (m *MockMembershipRepository) FindMemberships(ctx context.Context, userID string, refs []model.ResourceRef) ([]*model.Membership, error) {
	args := m.Called(ctx, userID, refs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Membership), args.Error(1)
}

func (m *MockMembershipRepository) ListResourceIDs(ctx context.Context, userID, resourceType string) ([]string, error) {
	args := m.Called(ctx, userID, resourceType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMembershipRepository) TransferLead(ctx context.Context, ref model.ResourceRef, newLeadID, updatedBy string) (*model.Membership, error) {
	args := m.Called(ctx, ref, newLeadID, updatedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Membership), args.Error(1)
}

func (m *MockMembershipRepository) DeleteByResource(ctx context.Context, refs ...model.ResourceRef) error {
	args := m.Called(ctx, refs)
	return args.Error(0)
}

func (m *MockMembershipRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) CreateMany(ctx context.Context, notifications []*model.Notification) error {
	args := m.Called(ctx, notifications)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListForUser(ctx context.Context, userID string, req model.ListNotificationsReq) ([]*model.Notification, int64, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*model.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	args := m.Called(ctx, userID, id, at)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	args := m.Called(ctx, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockNotificationRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockAccessRepository struct {
	mock.Mock
}

func (m *MockAccessRepository) ResolveScope(ctx context.Context, scope, id string) (*model.ResourceScope, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ResourceScope), args.Error(1)
}

func (m *MockAccessRepository) FindMemberships(ctx context.Context, userID string, refs []model.ResourceRef) ([]*model.Membership, error) {
	args := m.Called(ctx, userID, refs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Membership), args.Error(1)
}

// RecordingNotifier captures events instead of dispatching them.
type RecordingNotifier struct {
	mu     sync.Mutex
	Events []notify.Event
}

func (r *RecordingNotifier) Notify(_ context.Context, ev notify.Event) []*model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.Recipients = notify.Recipients(ev.ActorID, ev.Recipients...)
	r.Events = append(r.Events, ev)
	return nil
}

// Kinds lists recorded event kinds in order.
func (r *RecordingNotifier) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]string, 0, len(r.Events))
	for _, ev := range r.Events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

// Last returns the most recent event of the kind.
func (r *RecordingNotifier) Last(kind string) (notify.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.Events) - 1; i >= 0; i-- {
		if r.Events[i].Kind == kind {
			return r.Events[i], true
		}
	}
	return notify.Event{}, false
}
