package shared

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a persisted status change is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// JobStatus is the lifecycle of a background generation job (recipe, shopping list, plan).
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobInProgress JobStatus = "in_progress"
	JobDone       JobStatus = "done"
	JobFailed     JobStatus = "failed"
)

var jobTransitions = map[JobStatus][]JobStatus{
	JobPending:    {JobInProgress},
	JobFailed:     {JobInProgress},
	JobInProgress: {JobDone, JobFailed},
}

// ParseJobStatus validates a stored status string. The empty string reads as pending.
func ParseJobStatus(s string) (JobStatus, error) {
	switch JobStatus(s) {
	case "":
		return JobPending, nil
	case JobPending, JobInProgress, JobDone, JobFailed:
		return JobStatus(s), nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// CanTransitionTo reports whether s may move to next.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s == "" {
		s = JobPending
	}
	for _, allowed := range jobTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Predecessors lists the statuses allowed to move to next, in a stable order.
// Pending also matches the empty stored status.
func Predecessors(next JobStatus) []JobStatus {
	var from []JobStatus
	for _, s := range []JobStatus{JobPending, JobInProgress, JobDone, JobFailed} {
		if s.CanTransitionTo(next) {
			from = append(from, s)
			if s == JobPending {
				from = append(from, "")
			}
		}
	}
	return from
}

// TransitionError describes why current may not move to next.
func TransitionError(current, next JobStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
}

// Transition returns next, or an error wrapping ErrInvalidTransition.
func (s JobStatus) Transition(next JobStatus) (JobStatus, error) {
	if !s.CanTransitionTo(next) {
		return s, TransitionError(s, next)
	}
	return next, nil
}

// PlanState tells whether a meal plan is the user's current one.
type PlanState string

const (
	PlanNone     PlanState = ""
	PlanActive   PlanState = "active"
	PlanArchived PlanState = "archived"
)

// CanTransitionTo reports whether s may move to next.
func (s PlanState) CanTransitionTo(next PlanState) bool {
	switch s {
	case PlanNone:
		return next == PlanActive
	case PlanActive:
		return next == PlanArchived
	}
	return false
}
