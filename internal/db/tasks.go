package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hasisahr/csmt/internal/lifecycle"
	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/store"
)

const taskColumns = `id, name, description, date_due, completion, created_by, company_id, employee_id`

var _ store.Repository[models.Task] = (*TaskRepo)(nil)

// OwnerColumn selects whose open tasks Open returns
type OwnerColumn string

const (
	ByCompany  OwnerColumn = "company_id"
	ByEmployee OwnerColumn = "employee_id"
)

type taskRow struct {
	ID          int64         `db:"id"`
	Name        string        `db:"name"`
	Description string        `db:"description"`
	DateDue     string        `db:"date_due"`
	Completion  string        `db:"completion"`
	CreatedBy   string        `db:"created_by"`
	CompanyID   int64         `db:"company_id"`
	EmployeeID  sql.NullInt64 `db:"employee_id"`
}

func (r taskRow) task() (models.Task, error) {
	due, err := time.Parse(models.DateLayout, r.DateDue)
	if err != nil {
		return models.Task{}, fmt.Errorf("task %d due date: %w", r.ID, err)
	}
	t := models.Task{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Due:         due,
		Completion:  models.Completion(r.Completion),
		CreatedBy:   r.CreatedBy,
		CompanyID:   r.CompanyID,
	}
	if r.EmployeeID.Valid {
		id := r.EmployeeID.Int64
		t.EmployeeID = &id
	}
	return t, nil
}

func toTasks(rows []taskRow) ([]models.Task, error) {
	tasks := make([]models.Task, 0, len(rows))
	for _, r := range rows {
		t, err := r.task()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// TaskRepo reads and writes the task table
type TaskRepo struct {
	db *DB
}

// Tasks returns the task repository
func (db *DB) Tasks() *TaskRepo { return &TaskRepo{db: db} }

// FindAll returns every task in every completion state
func (r *TaskRepo) FindAll() ([]models.Task, error) {
	var rows []taskRow
	if err := r.db.Select(&rows, `SELECT `+taskColumns+` FROM task ORDER BY id`); err != nil {
		return nil, store.Wrap("list tasks", err)
	}
	tasks, err := toTasks(rows)
	return tasks, store.Wrap("list tasks", err)
}

// FindByID retrieves a task by ID
func (r *TaskRepo) FindByID(id int64) (models.Task, error) {
	var row taskRow
	err := r.db.Get(&row, r.db.Rebind(`SELECT `+taskColumns+` FROM task WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return models.Task{}, store.Wrap("get task", err)
	}
	t, err := row.task()
	return t, store.Wrap("get task", err)
}

// Save inserts t with its preassigned ID as a new WAITING_ASSIGNMENT task.
// Tasks enter the store unassigned; Assign and Complete move them on.
func (r *TaskRepo) Save(t models.Task) error {
	if t.ID <= 0 || t.Name == "" || t.CompanyID <= 0 || t.Due.IsZero() {
		return fmt.Errorf("task %d: %w", t.ID, store.ErrInvalidRecord)
	}
	if t.EmployeeID != nil {
		return fmt.Errorf("task %d saved with employee %d: %w", t.ID, *t.EmployeeID, store.ErrInvalidRecord)
	}
	switch t.Completion {
	case "", models.WaitingAssignment:
		t.Completion = models.WaitingAssignment
	default:
		return fmt.Errorf("task %d saved as %s: %w", t.ID, t.Completion, store.ErrInvalidRecord)
	}

	_, err := r.db.Exec(r.db.Rebind(`
		INSERT INTO task (id, name, description, date_due, completion, created_by, company_id, employee_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL)
	`), t.ID, t.Name, t.Description, t.Due.Format(models.DateLayout), string(t.Completion), t.CreatedBy, t.CompanyID)
	if err != nil {
		return store.Wrap("insert task", err)
	}

	r.db.log.Debug("task saved", "task_id", t.ID, "company_id", t.CompanyID)
	return nil
}

// Open returns the tasks of one company or employee that are not
// COMPLETED, soonest due first. When none remain it returns
// store.ErrEmptyResult.
func (r *TaskRepo) Open(column OwnerColumn, id int64) ([]models.Task, error) {
	if column != ByCompany && column != ByEmployee {
		return nil, store.Wrap("open tasks", fmt.Errorf("unknown owner column %q", string(column)))
	}

	var rows []taskRow
	q := `SELECT ` + taskColumns + ` FROM task WHERE ` + string(column) + ` = ? ORDER BY date_due, id`
	if err := r.db.Select(&rows, r.db.Rebind(q), id); err != nil {
		return nil, store.Wrap("open tasks", err)
	}

	all, err := toTasks(rows)
	if err != nil {
		return nil, store.Wrap("open tasks", err)
	}

	var open []models.Task
	for _, t := range all {
		if t.Completion != models.Completed {
			open = append(open, t)
		}
	}
	if len(open) == 0 {
		return nil, fmt.Errorf("open tasks by %s %d: %w", column, id, store.ErrEmptyResult)
	}
	return open, nil
}

// Assign hands a waiting task to a team member of the same company and
// moves it to IN_PROGRESS in one statement.
func (r *TaskRepo) Assign(taskID, employeeID int64) error {
	res, err := r.db.Exec(r.db.Rebind(`
		UPDATE task SET employee_id = ?, completion = ?
		WHERE id = ? AND completion = ?
		  AND EXISTS (
			SELECT 1 FROM employee e
			WHERE e.id = ? AND e.company_id = task.company_id AND e.role = ?
		  )
	`), employeeID, string(models.InProgress), taskID, string(models.WaitingAssignment), employeeID, string(models.RoleTeamMember))
	if err != nil {
		return store.Wrap("assign task", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return store.Wrap("assign task", err)
	} else if n == 0 {
		return r.rejected(taskID, models.InProgress)
	}

	r.db.log.Debug("task assigned", "task_id", taskID, "employee_id", employeeID)
	return nil
}

// Complete moves an IN_PROGRESS task to COMPLETED
func (r *TaskRepo) Complete(taskID int64) error {
	res, err := r.db.Exec(r.db.Rebind(`
		UPDATE task SET completion = ? WHERE id = ? AND completion = ?
	`), string(models.Completed), taskID, string(models.InProgress))
	if err != nil {
		return store.Wrap("complete task", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return store.Wrap("complete task", err)
	} else if n == 0 {
		return r.rejected(taskID, models.Completed)
	}

	r.db.log.Debug("task completed", "task_id", taskID)
	return nil
}

// rejected explains why an update guarded on the task state touched nothing
func (r *TaskRepo) rejected(taskID int64, to models.Completion) error {
	t, err := r.FindByID(taskID)
	if err != nil {
		return err
	}
	if !lifecycle.CanTransition(t.Completion, to) {
		return fmt.Errorf("task %d %s -> %s: %w", taskID, t.Completion, to, lifecycle.ErrInvalidTransition)
	}
	return fmt.Errorf("task %d: %w", taskID, lifecycle.ErrNotEligible)
}
