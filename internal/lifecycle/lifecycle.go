// Package lifecycle holds the task rules: completion transitions, due-date
// priority and the per-member assignment capacity. Nothing here touches
// storage.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/hasisahr/csmt/internal/models"
)

// MaxOpenTasks is how many open tasks a team member may hold at once
const MaxOpenTasks = 3

var (
	// ErrInvalidTransition rejects any completion change outside
	// WAITING_ASSIGNMENT -> IN_PROGRESS -> COMPLETED.
	ErrInvalidTransition = errors.New("invalid task transition")

	// ErrNotEligible rejects an assignee that cannot take the task.
	ErrNotEligible = errors.New("employee not eligible for assignment")
)

// Priority is derived from how soon a task is due
type Priority int

const (
	Low Priority = iota
	Medium
	High
)

func (p Priority) String() string {
	switch p {
	case High:
		return "HIGH"
	case Low:
		return "LOW"
	default:
		return "MEDIUM"
	}
}

// DaysUntil counts calendar days from now to due, ignoring time of day.
// Negative when overdue.
func DaysUntil(due, now time.Time) int {
	d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(n).Hours() / 24)
}

// Classify returns HIGH for fewer than 3 days left, LOW for 10 or more,
// MEDIUM otherwise.
func Classify(due, now time.Time) Priority {
	days := DaysUntil(due, now)
	switch {
	case days < 3:
		return High
	case days >= 10:
		return Low
	default:
		return Medium
	}
}

// CanTransition reports whether a task may move from one state to the next
func CanTransition(from, to models.Completion) bool {
	switch from {
	case models.WaitingAssignment:
		return to == models.InProgress
	case models.InProgress:
		return to == models.Completed
	default:
		return false
	}
}

// Assign hands a waiting task to employeeID. It is the only way a task
// gets an employee.
func Assign(task *models.Task, employeeID int64) error {
	if !CanTransition(task.Completion, models.InProgress) {
		return fmt.Errorf("assign task %d in state %s: %w", task.ID, task.Completion, ErrInvalidTransition)
	}
	id := employeeID
	task.EmployeeID = &id
	task.Completion = models.InProgress
	return nil
}

// Complete marks an in-progress task as done
func Complete(task *models.Task) error {
	if !CanTransition(task.Completion, models.Completed) {
		return fmt.Errorf("complete task %d in state %s: %w", task.ID, task.Completion, ErrInvalidTransition)
	}
	task.Completion = models.Completed
	return nil
}

// OpenTasks counts the member's tasks that are not completed
func OpenTasks(member *models.TeamMember) int {
	n := 0
	for _, t := range member.Tasks {
		if t.Completion != models.Completed {
			n++
		}
	}
	return n
}

// Eligible reports whether member can take another task. The member's task
// collection must be refreshed first or the count may be stale.
func Eligible(member *models.TeamMember) bool {
	return OpenTasks(member) < MaxOpenTasks
}

// EligibleMembers filters members down to those below capacity
func EligibleMembers(members []*models.TeamMember) []*models.TeamMember {
	var out []*models.TeamMember
	for _, m := range members {
		if Eligible(m) {
			out = append(out, m)
		}
	}
	return out
}

// NearCapacity returns the members with exactly one free slot left
func NearCapacity(members []*models.TeamMember) []*models.TeamMember {
	var out []*models.TeamMember
	for _, m := range members {
		if OpenTasks(m) == MaxOpenTasks-1 {
			out = append(out, m)
		}
	}
	return out
}
