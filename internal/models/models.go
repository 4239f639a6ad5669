package models

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the on-disk format of due dates and message dates
const DateLayout = "2006-01-02"

// Role distinguishes the two kinds of employee
type Role string

const (
	RoleProjectManager Role = "PROJECT_MANAGER"
	RoleTeamMember     Role = "TEAM_MEMBER"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleProjectManager || r == RoleTeamMember
}

// Completion is the lifecycle state of a task
type Completion string

const (
	WaitingAssignment Completion = "WAITING_ASSIGNMENT"
	InProgress        Completion = "IN_PROGRESS"
	Completed         Completion = "COMPLETED"
)

// Company represents an organization and its lazily loaded collections.
// Employees and Tasks reflect the store only as of LoadedAt.
type Company struct {
	ID        int64
	Name      string
	Employees []Employee // populated by an explicit load step
	Tasks     []Task     // open tasks, populated by an explicit load step
	LoadedAt  time.Time  // zero until associations are loaded
}

// TeamMembers returns the team members among the loaded employees
func (c *Company) TeamMembers() []*TeamMember {
	var members []*TeamMember
	for _, e := range c.Employees {
		if tm, ok := e.(*TeamMember); ok {
			members = append(members, tm)
		}
	}
	return members
}

// Employee finds a loaded employee by ID
func (c *Company) Employee(id int64) (Employee, bool) {
	for _, e := range c.Employees {
		if e.Info().ID == id {
			return e, true
		}
	}
	return nil, false
}

// Task finds a loaded open task by ID
func (c *Company) Task(id int64) (Task, bool) {
	for _, t := range c.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// EmployeeInfo holds the fields every employee kind shares
type EmployeeInfo struct {
	ID       int64
	Name     string
	Role     Role
	Employer *Company // non-owning
}

// Info gives access to the shared employee fields
func (e *EmployeeInfo) Info() *EmployeeInfo { return e }

// Employee is implemented by *ProjectManager and *TeamMember
type Employee interface {
	Info() *EmployeeInfo
}

// ProjectManager creates tasks and messages and assigns work
type ProjectManager struct {
	EmployeeInfo
}

// TeamMember receives tasks. Tasks holds the open assigned tasks as of the
// last load and is not refreshed automatically.
type TeamMember struct {
	EmployeeInfo
	Tasks []Task
}

// Task represents a single unit of work owned by a company
type Task struct {
	ID          int64
	Name        string
	Description string
	Due         time.Time
	Completion  Completion
	CreatedBy   string
	CompanyID   int64
	EmployeeID  *int64 // nil until assigned
}

// NoTaskID is stored in place of a message's task link when there is none
const NoTaskID int64 = -1

// RelatedTask is the optional task a message refers to
type RelatedTask struct {
	id   int64
	task *Task
}

// NoRelatedTask is the absent task link
func NoRelatedTask() RelatedTask {
	return RelatedTask{id: NoTaskID}
}

// RelatedTo links a message to t
func RelatedTo(t Task) RelatedTask {
	return RelatedTask{id: t.ID, task: &t}
}

// RelatedID links a message to a task known only by ID. IDs <= 0 mean no link.
func RelatedID(id int64) RelatedTask {
	if id <= 0 {
		return NoRelatedTask()
	}
	return RelatedTask{id: id}
}

// ID returns the linked task ID, or NoTaskID
func (r RelatedTask) ID() int64 {
	if r.id == 0 {
		return NoTaskID
	}
	return r.id
}

// Present reports whether the message refers to a task at all
func (r RelatedTask) Present() bool { return r.ID() != NoTaskID }

// Task returns the resolved task. ok is false when the link is absent or
// was not resolved.
func (r RelatedTask) Task() (Task, bool) {
	if r.task == nil {
		return Task{}, false
	}
	return *r.task, true
}

// Message is a note from a project manager, optionally about a task
type Message struct {
	ID        int64
	Title     string
	Content   string
	CreatedOn time.Time
	CompanyID int64
	Author    *ProjectManager
	Related   RelatedTask
}

// Change is one entry of the audit log. Values are fixed at construction.
type Change struct {
	ID        uuid.UUID
	Field     string
	Before    string
	After     string
	ActorRole Role
	ActorName string
	At        time.Time
}

// NewChange stamps a change record with a fresh ID and the current time
func NewChange(field, before, after string, role Role, actor string) Change {
	return Change{
		ID:        uuid.New(),
		Field:     field,
		Before:    before,
		After:     after,
		ActorRole: role,
		ActorName: actor,
		At:        time.Now(),
	}
}

// LoginCredential maps a username to an employee ID
type LoginCredential struct {
	ID           int64
	Username     string
	PasswordHash string
}

// CompanyCredential maps a business identifier hash to a company ID
type CompanyCredential struct {
	ID             int64
	IdentifierHash string
}
