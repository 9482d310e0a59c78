package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sprintdesk/internal/sprintdesk/auth"
	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/notify"
	"sprintdesk/internal/sprintdesk/repository"

	"github.com/google/uuid"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")
)

// Error carries a client-facing message for one of the sentinel errors.
type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind error, format string, args ...any) error {
	return &Error{Err: kind, Message: fmt.Sprintf(format, args...)}
}

// Stores is every persistence dependency of the service.
type Stores struct {
	Users           repository.EntityStore[model.User]
	Zones           repository.EntityStore[model.Zone]
	Quartiers       repository.EntityStore[model.Quartier]
	NodeTypes       repository.EntityStore[model.NodeType]
	DevStacks       repository.EntityStore[model.DevStack]
	Risks           repository.EntityStore[model.Risk]
	Projects        repository.EntityStore[model.Project]
	Sprints         repository.TimeboxStore[model.Sprint]
	Tasks           repository.TimeboxStore[model.Task]
	Nodes           repository.EntityStore[model.Node]
	Infrastructures repository.EntityStore[model.Infrastructure]
	Deployments     repository.EntityStore[model.Deployment]
	DeployHistory   repository.EntityStore[model.DeployHistory]
	ProjectRisks    repository.EntityStore[model.ProjectRisk]
	Memberships     repository.MembershipRepository
	Notifications   repository.NotificationRepository
}

// StoresFrom adapts the Mongo repositories.
func StoresFrom(r *repository.Repositories) Stores {
	return Stores{
		Users:           r.Users,
		Zones:           r.Zones,
		Quartiers:       r.Quartiers,
		NodeTypes:       r.NodeTypes,
		DevStacks:       r.DevStacks,
		Risks:           r.Risks,
		Projects:        r.Projects,
		Sprints:         r.Sprints,
		Tasks:           r.Tasks,
		Nodes:           r.Nodes,
		Infrastructures: r.Infrastructures,
		Deployments:     r.Deployments,
		DeployHistory:   r.DeployHistory,
		ProjectRisks:    r.ProjectRisks,
		Memberships:     r.Memberships,
		Notifications:   r.Notifications,
	}
}

type Service struct {
	Stores

	Zones     *Catalog[model.Zone, *model.Zone]
	Quartiers *Catalog[model.Quartier, *model.Quartier]
	NodeTypes *Catalog[model.NodeType, *model.NodeType]
	DevStacks *Catalog[model.DevStack, *model.DevStack]
	Risks     *Catalog[model.Risk, *model.Risk]

	notifier notify.Notifier
	tokens   *auth.TokenManager
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

func NewService(st Stores, notifier notify.Notifier, tokens *auth.TokenManager, logger *slog.Logger) *Service {
	s := &Service{
		Stores:   st,
		notifier: notifier,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}

	s.Zones = newCatalog(s, "zone", st.Zones)
	s.Zones.inUse = func(ctx context.Context, id string) (bool, error) {
		return exists(ctx, st.Quartiers, repository.Filter{"zone_id": id})
	}

	s.Quartiers = newCatalog(s, "quartier", st.Quartiers)
	s.Quartiers.check = func(ctx context.Context, q *model.Quartier) error {
		return requireRef(ctx, st.Zones, "zone", q.ZoneID)
	}
	s.Quartiers.inUse = func(ctx context.Context, id string) (bool, error) {
		if used, err := exists(ctx, st.Projects, repository.Filter{"quartier_id": id}); err != nil || used {
			return used, err
		}
		return exists(ctx, st.Nodes, repository.Filter{"quartier_id": id})
	}

	s.NodeTypes = newCatalog(s, "node type", st.NodeTypes)
	s.NodeTypes.inUse = func(ctx context.Context, id string) (bool, error) {
		return exists(ctx, st.Nodes, repository.Filter{"node_type_id": id})
	}

	s.DevStacks = newCatalog(s, "dev stack", st.DevStacks)
	s.DevStacks.inUse = func(ctx context.Context, id string) (bool, error) {
		return exists(ctx, st.Deployments, repository.Filter{"dev_stack_id": id})
	}

	s.Risks = newCatalog(s, "risk", st.Risks)
	s.Risks.inUse = func(ctx context.Context, id string) (bool, error) {
		return exists(ctx, st.ProjectRisks, repository.Filter{"risk_id": id})
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// audit logs a state change made by caller.
func (s *Service) audit(ctx context.Context, action string, caller model.Caller, args ...any) {
	attrs := append([]any{"action", action, "caller_id", caller.ID}, args...)
	s.logger.InfoContext(ctx, "audit", attrs...)
}

func (s *Service) notify(ctx context.Context, ev notify.Event) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, ev)
}

// lookup loads a document by id, turning a miss into ErrNotFound.
func lookup[T any](ctx context.Context, store repository.EntityStore[T], what, id string) (*T, error) {
	doc, err := store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "%s not found", what)
		}
		return nil, err
	}
	return doc, nil
}

// requireRef rejects a request naming a referenced document that does not exist.
func requireRef[T any](ctx context.Context, store repository.EntityStore[T], what, id string) error {
	if id == "" {
		return nil
	}
	if _, err := store.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrBadRequest, "%s %s does not exist", what, id)
		}
		return err
	}
	return nil
}

func exists[T any](ctx context.Context, store repository.EntityStore[T], filter repository.Filter) (bool, error) {
	n, err := store.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// conflictOnDuplicate maps a unique index violation to ErrConflict.
func conflictOnDuplicate(err error, format string, args ...any) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return newError(ErrConflict, format, args...)
	}
	return err
}

func notFoundAs(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrNotFound, "%s not found", what)
	}
	return err
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
