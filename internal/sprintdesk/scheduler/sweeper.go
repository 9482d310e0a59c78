package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sprintdesk/internal/sprintdesk/metrics"
	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/notify"
	"sprintdesk/internal/sprintdesk/repository"
)

// transition is one clock-driven status move.
type transition struct {
	from      model.Status
	to        model.Status
	dateField string
	inclusive bool
}

var (
	// start_date <= now
	activate = transition{from: model.StatusPending, to: model.StatusActive, dateField: "start_date", inclusive: true}
	// end_date < now
	finish = transition{from: model.StatusActive, to: model.StatusFinished, dateField: "end_date", inclusive: false}
)

// Result counts the transitions applied by one sweep.
type Result struct {
	SprintsActivated int `json:"sprints_activated"`
	SprintsFinished  int `json:"sprints_finished"`
	TasksActivated   int `json:"tasks_activated"`
	TasksFinished    int `json:"tasks_finished"`
}

func (r Result) Total() int {
	return r.SprintsActivated + r.SprintsFinished + r.TasksActivated + r.TasksFinished
}

type Sweeper struct {
	sprints     repository.TimeboxStore[model.Sprint]
	tasks       repository.TimeboxStore[model.Task]
	memberships repository.MembershipRepository
	notifier    notify.Notifier
	interval    time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

func NewSweeper(
	sprints repository.TimeboxStore[model.Sprint],
	tasks repository.TimeboxStore[model.Task],
	memberships repository.MembershipRepository,
	notifier notify.Notifier,
	interval time.Duration,
	logger *slog.Logger,
) *Sweeper {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Sweeper{
		sprints:     sprints,
		tasks:       tasks,
		memberships: memberships,
		notifier:    notifier,
		interval:    interval,
		logger:      logger,
		now:         time.Now,
	}
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.Info("status sweeper started", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("status sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("status sweeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce applies every due transition. A failure on one item does not stop the others.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	now := s.now().UTC()
	var (
		res  Result
		errs []error
		err  error
	)

	res.SprintsActivated, err = sweep(ctx, s, s.sprints, model.ResourceTypeSprint, activate, now,
		func(sp *model.Sprint) string { return sp.ID },
		func(ctx context.Context, sp *model.Sprint) { s.notifySprint(ctx, sp, model.NotifySprintActivated, false) })
	errs = append(errs, err)

	res.SprintsFinished, err = sweep(ctx, s, s.sprints, model.ResourceTypeSprint, finish, now,
		func(sp *model.Sprint) string { return sp.ID },
		func(ctx context.Context, sp *model.Sprint) { s.notifySprint(ctx, sp, model.NotifySprintFinished, true) })
	errs = append(errs, err)

	res.TasksActivated, err = sweep(ctx, s, s.tasks, model.ResourceTypeTask, activate, now,
		func(t *model.Task) string { return t.ID },
		func(ctx context.Context, t *model.Task) { s.notifyTask(ctx, t, model.NotifyTaskActivated, false) })
	errs = append(errs, err)

	res.TasksFinished, err = sweep(ctx, s, s.tasks, model.ResourceTypeTask, finish, now,
		func(t *model.Task) string { return t.ID },
		func(ctx context.Context, t *model.Task) { s.notifyTask(ctx, t, model.NotifyTaskFinished, true) })
	errs = append(errs, err)

	s.logger.Info("status sweep finished",
		"sprints_activated", res.SprintsActivated,
		"sprints_finished", res.SprintsFinished,
		"tasks_activated", res.TasksActivated,
		"tasks_finished", res.TasksFinished,
		"duration", time.Since(start).String(),
	)
	return res, errors.Join(errs...)
}

// sweep moves every due document of one store and notifies only for the
// documents this call actually moved.
func sweep[T any](
	ctx context.Context,
	s *Sweeper,
	store repository.TimeboxStore[T],
	entity string,
	tr transition,
	now time.Time,
	idOf func(*T) string,
	onMoved func(context.Context, *T),
) (int, error) {
	due, err := store.FindDue(ctx, tr.from, tr.dateField, now, tr.inclusive)
	if err != nil {
		return 0, fmt.Errorf("find due %s %s: %w", entity, tr.from, err)
	}

	moved := 0
	var errs []error
	for _, doc := range due {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		id := idOf(doc)
		ok, err := store.CompareAndSetStatus(ctx, id, tr.from, tr.to)
		if err != nil {
			s.logger.Error("status transition failed", "entity", entity, "id", id, "from", tr.from.String(), "to", tr.to.String(), "error", err)
			errs = append(errs, fmt.Errorf("%s %s: %w", entity, id, err))
			continue
		}
		if !ok {
			// Moved by a concurrent sweep or a user since FindDue.
			continue
		}

		moved++
		metrics.SweepTransitions.WithLabelValues(entity, tr.from.String(), tr.to.String()).Inc()
		onMoved(ctx, doc)
	}

	if moved > 0 {
		s.logger.Info("status transitions applied", "entity", entity, "from", tr.from.String(), "to", tr.to.String(), "count", moved)
	}
	return moved, errors.Join(errs...)
}

func (s *Sweeper) notifySprint(ctx context.Context, sprint *model.Sprint, kind string, withProjectLead bool) {
	members, err := s.memberships.ListMembers(ctx, model.SprintRef(sprint.ID))
	if err != nil {
		s.logger.Error("failed to load sprint members for notification", "sprint_id", sprint.ID, "error", err)
	}

	recipients := make([]string, 0, len(members)+1)
	for _, m := range members {
		recipients = append(recipients, m.UserID)
	}
	if withProjectLead {
		if lead, err := s.memberships.GetLead(ctx, model.ProjectRef(sprint.ProjectID)); err == nil {
			recipients = append(recipients, lead.UserID)
		}
	}

	s.notifier.Notify(ctx, notify.Event{
		Kind:         kind,
		Recipients:   recipients,
		Params:       map[string]string{"Name": sprint.Name},
		ResourceType: model.ResourceTypeSprint,
		ResourceID:   sprint.ID,
	})
}

func (s *Sweeper) notifyTask(ctx context.Context, task *model.Task, kind string, withSprintLead bool) {
	recipients := []string{task.AssigneeID}
	if withSprintLead {
		if lead, err := s.memberships.GetLead(ctx, model.SprintRef(task.SprintID)); err == nil {
			recipients = append(recipients, lead.UserID)
		}
	}

	s.notifier.Notify(ctx, notify.Event{
		Kind:         kind,
		Recipients:   recipients,
		Params:       map[string]string{"Name": task.Title},
		ResourceType: model.ResourceTypeTask,
		ResourceID:   task.ID,
	})
}
