package model

import "time"

// Status is the lifecycle state shared by projects, sprints and tasks.
type Status int

const (
	StatusPending Status = iota
	StatusActive
	StatusCompleted
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

func (s Status) Valid() bool {
	return s >= StatusPending && s <= StatusFinished
}

// ManuallySettable reports whether a user may move an item into s.
// Pending and finished are driven by the clock only.
func (s Status) ManuallySettable() bool {
	return s == StatusActive || s == StatusCompleted
}

// StatusForWindow derives the status of a timeboxed item from its dates.
func StatusForWindow(start, end, now time.Time) Status {
	if start.After(now) {
		return StatusPending
	}
	if end.Before(now) {
		return StatusFinished
	}
	return StatusActive
}
