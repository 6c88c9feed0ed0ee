package shared

import (
	"errors"
	"testing"
)

func TestJobStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to JobStatus
		ok       bool
	}{
		{JobPending, JobInProgress, true},
		{"", JobInProgress, true},
		{JobInProgress, JobDone, true},
		{JobInProgress, JobFailed, true},
		{JobFailed, JobInProgress, true},
		{JobPending, JobDone, false},
		{JobDone, JobInProgress, false},
		{JobDone, JobFailed, false},
		{JobInProgress, JobPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.ok {
				t.Errorf("CanTransitionTo = %v, want %v", got, tt.ok)
			}
			_, err := tt.from.Transition(tt.to)
			if tt.ok && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestParseJobStatus(t *testing.T) {
	if s, err := ParseJobStatus(""); err != nil || s != JobPending {
		t.Errorf("Expected empty status to read as pending, got %q (%v)", s, err)
	}
	if _, err := ParseJobStatus("queued"); err == nil {
		t.Error("Expected an error for an unknown status")
	}
}

func TestPlanStateTransitions(t *testing.T) {
	if !PlanNone.CanTransitionTo(PlanActive) {
		t.Error("A new plan should be activatable")
	}
	if !PlanActive.CanTransitionTo(PlanArchived) {
		t.Error("An active plan should be archivable")
	}
	if PlanArchived.CanTransitionTo(PlanActive) {
		t.Error("An archived plan must not be reactivated")
	}
	if PlanNone.CanTransitionTo(PlanArchived) {
		t.Error("A plan that was never active must not be archived")
	}
}

func TestPredecessors(t *testing.T) {
	tests := []struct {
		next JobStatus
		want []JobStatus
	}{
		{JobInProgress, []JobStatus{JobPending, "", JobFailed}},
		{JobDone, []JobStatus{JobInProgress}},
		{JobFailed, []JobStatus{JobInProgress}},
		{JobPending, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.next), func(t *testing.T) {
			got := Predecessors(tt.next)
			if len(got) != len(tt.want) {
				t.Fatalf("Predecessors(%s) = %v, want %v", tt.next, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Predecessors(%s) = %v, want %v", tt.next, got, tt.want)
				}
			}
		})
	}
}
