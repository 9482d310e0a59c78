package notify

import (
	"context"
	"log/slog"
	"time"

	"sprintdesk/internal/sprintdesk/metrics"
	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/repository"

	"github.com/google/uuid"
)

// Event is a state change to announce.
type Event struct {
	Kind         string
	ActorID      string
	Recipients   []string
	Params       map[string]string
	ResourceType string
	ResourceID   string
}

type Publisher interface {
	Publish(n *model.Notification) int
}

// Notifier is what the service and sweeper depend on.
type Notifier interface {
	Notify(ctx context.Context, ev Event) []*model.Notification
}

type Dispatcher struct {
	repo     repository.NotificationRepository
	hub      Publisher
	renderer *Renderer
	logger   *slog.Logger
	now      func() time.Time
}

func NewDispatcher(repo repository.NotificationRepository, hub Publisher, renderer *Renderer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{repo: repo, hub: hub, renderer: renderer, logger: logger, now: time.Now}
}

// Notify persists one notification per distinct recipient, then relays them.
// Failures are logged, never returned: the change being announced already happened.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) []*model.Notification {
	recipients := Recipients(ev.ActorID, ev.Recipients...)
	if len(recipients) == 0 {
		return nil
	}

	message := d.renderer.Render(ev.Kind, ev.Params)
	now := d.now().UTC()

	notifications := make([]*model.Notification, 0, len(recipients))
	for _, userID := range recipients {
		notifications = append(notifications, &model.Notification{
			ID:           uuid.NewString(),
			UserID:       userID,
			Kind:         ev.Kind,
			Message:      message,
			ResourceType: ev.ResourceType,
			ResourceID:   ev.ResourceID,
			ActorID:      ev.ActorID,
			CreatedAt:    now,
		})
	}

	if err := d.repo.CreateMany(ctx, notifications); err != nil {
		d.logger.Error("failed to persist notifications",
			"kind", ev.Kind, "resource_id", ev.ResourceID, "recipients", len(recipients), "error", err)
		return nil
	}
	metrics.NotificationsCreated.WithLabelValues(ev.Kind).Add(float64(len(notifications)))

	for _, n := range notifications {
		if d.hub != nil && d.hub.Publish(n) > 0 {
			metrics.NotificationsDelivered.Inc()
		}
	}

	d.logger.Info("notifications dispatched",
		"kind", ev.Kind, "resource_type", ev.ResourceType, "resource_id", ev.ResourceID, "recipients", len(notifications))
	return notifications
}

// Recipients de-duplicates ids in order, dropping empty ones and the actor.
func Recipients(actorID string, ids ...string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == actorID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
