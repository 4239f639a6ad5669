package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasisahr/csmt/internal/models"
)

func TestClassify(t *testing.T) {
	now := time.Date(2026, 3, 14, 16, 45, 0, 0, time.Local)
	day := func(n int) time.Time { return now.AddDate(0, 0, n) }

	tests := []struct {
		name string
		due  time.Time
		want Priority
	}{
		{"overdue", day(-2), High},
		{"today", day(0), High},
		{"tomorrow", day(1), High},
		{"two days", day(2), High},
		{"three days is not high", day(3), Medium},
		{"five days", day(5), Medium},
		{"nine days is not low", day(9), Medium},
		{"ten days", day(10), Low},
		{"far out", day(40), Low},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.due, now))
		})
	}
}

func TestClassify_IgnoresTimeOfDay(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	due := time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, DaysUntil(due, now))
	assert.Equal(t, Medium, Classify(due, now))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.WaitingAssignment, models.InProgress))
	assert.True(t, CanTransition(models.InProgress, models.Completed))

	assert.False(t, CanTransition(models.WaitingAssignment, models.Completed))
	assert.False(t, CanTransition(models.InProgress, models.WaitingAssignment))
	assert.False(t, CanTransition(models.Completed, models.InProgress))
	assert.False(t, CanTransition(models.InProgress, models.InProgress))
}

func TestAssign(t *testing.T) {
	task := models.Task{ID: 7, Completion: models.WaitingAssignment}

	require.NoError(t, Assign(&task, 42))
	assert.Equal(t, models.InProgress, task.Completion)
	require.NotNil(t, task.EmployeeID)
	assert.Equal(t, int64(42), *task.EmployeeID)

	// A task already in progress is rejected, not reassigned.
	err := Assign(&task, 43)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, int64(42), *task.EmployeeID)
}

func TestComplete(t *testing.T) {
	waiting := models.Task{ID: 1, Completion: models.WaitingAssignment}
	assert.ErrorIs(t, Complete(&waiting), ErrInvalidTransition)

	running := models.Task{ID: 2, Completion: models.InProgress}
	require.NoError(t, Complete(&running))
	assert.Equal(t, models.Completed, running.Completion)
	assert.ErrorIs(t, Complete(&running), ErrInvalidTransition)
}

func memberWith(name string, open int) *models.TeamMember {
	m := &models.TeamMember{EmployeeInfo: models.EmployeeInfo{Name: name, Role: models.RoleTeamMember}}
	for i := 0; i < open; i++ {
		m.Tasks = append(m.Tasks, models.Task{ID: int64(i + 1), Completion: models.InProgress})
	}
	return m
}

func TestEligible(t *testing.T) {
	assert.True(t, Eligible(memberWith("two", 2)))
	assert.False(t, Eligible(memberWith("three", 3)))

	done := memberWith("done", 3)
	done.Tasks[0].Completion = models.Completed
	assert.True(t, Eligible(done), "completed tasks do not count")
}

func TestEligibleMembersAndNearCapacity(t *testing.T) {
	members := []*models.TeamMember{
		memberWith("ana", 0),
		memberWith("ivo", 2),
		memberWith("mia", 3),
	}

	eligible := EligibleMembers(members)
	require.Len(t, eligible, 2)
	assert.Equal(t, "ana", eligible[0].Name)
	assert.Equal(t, "ivo", eligible[1].Name)

	near := NearCapacity(members)
	require.Len(t, near, 1)
	assert.Equal(t, "ivo", near[0].Name)
}

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "HIGH", High.String())
	assert.Equal(t, "MEDIUM", Medium.String())
	assert.Equal(t, "LOW", Low.String())
}
