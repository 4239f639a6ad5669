package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hasisahr/csmt/internal/db"
	"github.com/hasisahr/csmt/internal/lifecycle"
	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/store"
)

// TaskView is a task with the priority it has today and the name of the
// member working on it. Assignee is empty while the task is unassigned.
type TaskView struct {
	models.Task
	Priority lifecycle.Priority
	Assignee string
}

func (s *Service) views(tasks []models.Task) []TaskView {
	now := s.now()
	out := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, TaskView{Task: t, Priority: lifecycle.Classify(t.Due, now)})
	}
	return out
}

// CreateTask stores a new WAITING_ASSIGNMENT task in the manager's company
func (s *Service) CreateTask(pm *models.ProjectManager, name, description string, due time.Time) (models.Task, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)

	var p problems
	p.addIf(name == "", "task name is required")
	p.addIf(description == "", "task description is required")
	p.addIf(due.IsZero(), "due date is required")
	if err := p.err(); err != nil {
		return models.Task{}, err
	}

	id, err := s.db.NextID(db.FamilyTask)
	if err != nil {
		return models.Task{}, err
	}
	t := models.Task{
		ID:          id,
		Name:        name,
		Description: description,
		Due:         due,
		Completion:  models.WaitingAssignment,
		CreatedBy:   pm.Name,
		CompanyID:   pm.Employer.ID,
	}
	if err := s.db.Tasks().Save(t); err != nil {
		return models.Task{}, err
	}

	s.record(FieldTaskCreated, "", fmt.Sprintf("Task:%d %s %s", t.ID, t.Name, t.Description), pm.Role, pm.Name)
	if err := s.db.Companies().RefreshTasks(pm.Employer); err != nil {
		return t, err
	}
	return t, nil
}

// Assignable is what a manager chooses from when assigning work
type Assignable struct {
	Waiting      []TaskView
	Eligible     []*models.TeamMember
	NearCapacity []*models.TeamMember // eligible members with one slot left
}

// AssignableView refreshes the manager's company and lists the waiting
// tasks and the members who can still take one.
func (s *Service) AssignableView(pm *models.ProjectManager) (Assignable, error) {
	c := pm.Employer
	if err := s.db.Companies().LoadAssociations(c); err != nil {
		return Assignable{}, err
	}

	var waiting []models.Task
	for _, t := range c.Tasks {
		if t.Completion == models.WaitingAssignment {
			waiting = append(waiting, t)
		}
	}
	eligible := lifecycle.EligibleMembers(c.TeamMembers())
	return Assignable{
		Waiting:      s.views(waiting),
		Eligible:     eligible,
		NearCapacity: lifecycle.NearCapacity(eligible),
	}, nil
}

// AssignTask gives a waiting task of the manager's company to one of its
// team members below capacity.
func (s *Service) AssignTask(pm *models.ProjectManager, taskID, memberID int64) error {
	c := pm.Employer
	if err := s.db.Companies().RefreshEmployees(c); err != nil {
		return err
	}

	e, ok := c.Employee(memberID)
	tm, isMember := e.(*models.TeamMember)
	if !ok || !isMember {
		return fmt.Errorf("employee %d in company %d: %w", memberID, c.ID, lifecycle.ErrNotEligible)
	}
	if !lifecycle.Eligible(tm) {
		return fmt.Errorf("%s already has %d open tasks: %w", tm.Name, lifecycle.OpenTasks(tm), lifecycle.ErrNotEligible)
	}

	t, err := s.companyTask(c, taskID)
	if err != nil {
		return err
	}
	if err := lifecycle.Assign(&t, tm.ID); err != nil {
		return err
	}
	if err := s.db.Tasks().Assign(t.ID, tm.ID); err != nil {
		return err
	}

	s.record(FieldTaskAssigned,
		fmt.Sprintf("EMPLOYEE_ID = null TaskCompletion = %s", models.WaitingAssignment),
		fmt.Sprintf("EMPLOYEE_ID = %d TaskCompletion = %s", tm.ID, models.InProgress),
		pm.Role, pm.Name)

	if err := s.db.Employees().RefreshMemberTasks(tm); err != nil {
		return err
	}
	return s.db.Companies().RefreshTasks(c)
}

func (s *Service) companyTask(c *models.Company, taskID int64) (models.Task, error) {
	t, err := s.db.Tasks().FindByID(taskID)
	if err != nil {
		return models.Task{}, err
	}
	if t.CompanyID != c.ID {
		return models.Task{}, fmt.Errorf("task %d in company %d: %w", taskID, c.ID, store.ErrNotFound)
	}
	return t, nil
}

// CompleteTask marks one of the member's own in-progress tasks as done
func (s *Service) CompleteTask(tm *models.TeamMember, taskID int64) error {
	t, err := s.db.Tasks().FindByID(taskID)
	if err != nil {
		return err
	}
	if t.EmployeeID == nil || *t.EmployeeID != tm.ID {
		return fmt.Errorf("task %d is not assigned to %s: %w", taskID, tm.Name, lifecycle.ErrNotEligible)
	}
	if err := lifecycle.Complete(&t); err != nil {
		return err
	}
	if err := s.db.Tasks().Complete(t.ID); err != nil {
		return err
	}

	s.record(FieldTaskCompleted,
		fmt.Sprintf("Task:%d TaskCompletion = %s", t.ID, models.InProgress),
		fmt.Sprintf("Task:%d TaskCompletion = %s", t.ID, models.Completed),
		tm.Role, tm.Name)
	return s.db.Employees().RefreshMemberTasks(tm)
}

// MemberTasks returns the member's open tasks with their priority
func (s *Service) MemberTasks(tm *models.TeamMember) ([]TaskView, error) {
	if err := s.db.Employees().RefreshMemberTasks(tm); err != nil {
		return nil, err
	}
	out := s.views(tm.Tasks)
	for i := range out {
		out[i].Assignee = tm.Name
	}
	return out, nil
}

// CompanyTasks returns the open tasks of the employee's company with the
// assignee resolved against the refreshed staff.
func (s *Service) CompanyTasks(e models.Employee) ([]TaskView, error) {
	c := e.Info().Employer
	tasks, err := s.db.Tasks().Open(db.ByCompany, c.ID)
	if errors.Is(err, store.ErrEmptyResult) {
		return []TaskView{}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.db.Companies().RefreshEmployees(c); err != nil {
		return nil, err
	}

	out := s.views(tasks)
	for i, t := range out {
		if t.EmployeeID == nil {
			continue
		}
		if a, ok := c.Employee(*t.EmployeeID); ok {
			out[i].Assignee = a.Info().Name
		} else {
			s.log.Warn("task assignee not in company", "task_id", t.ID, "employee_id", *t.EmployeeID)
		}
	}
	return out, nil
}
