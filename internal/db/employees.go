package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/store"
)

var _ store.Repository[models.Employee] = (*EmployeeRepo)(nil)

type employeeRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Role      string `db:"role"`
	CompanyID int64  `db:"company_id"`
}

// employee builds the concrete employee kind the role column names
func (r employeeRow) employee(employer *models.Company) (models.Employee, error) {
	info := models.EmployeeInfo{
		ID:       r.ID,
		Name:     r.Name,
		Role:     models.Role(r.Role),
		Employer: employer,
	}
	switch info.Role {
	case models.RoleProjectManager:
		return &models.ProjectManager{EmployeeInfo: info}, nil
	case models.RoleTeamMember:
		return &models.TeamMember{EmployeeInfo: info, Tasks: []models.Task{}}, nil
	default:
		return nil, fmt.Errorf("employee %d has unknown role %q", r.ID, r.Role)
	}
}

// EmployeeRepo reads and writes employees
type EmployeeRepo struct {
	db *DB
}

// Employees returns the employee repository
func (db *DB) Employees() *EmployeeRepo { return &EmployeeRepo{db: db} }

// FindAll returns every employee. Each is taken from its employer's loaded
// graph, so Employer points at a company whose collections include it.
func (r *EmployeeRepo) FindAll() ([]models.Employee, error) {
	var rows []employeeRow
	if err := r.db.Select(&rows, `SELECT id, name, role, company_id FROM employee ORDER BY id`); err != nil {
		return nil, store.Wrap("list employees", err)
	}

	companies := make(map[int64]*models.Company)
	employees := make([]models.Employee, 0, len(rows))
	for _, row := range rows {
		e, err := r.resolve(row, companies)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, nil
}

// FindByID retrieves an employee by ID with its employer loaded
func (r *EmployeeRepo) FindByID(id int64) (models.Employee, error) {
	var row employeeRow
	err := r.db.Get(&row, r.db.Rebind(`SELECT id, name, role, company_id FROM employee WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("employee %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, store.Wrap("get employee", err)
	}
	return r.resolve(row, make(map[int64]*models.Company))
}

// resolve turns the company id of row into a live company, loading each
// company at most once per call
func (r *EmployeeRepo) resolve(row employeeRow, companies map[int64]*models.Company) (models.Employee, error) {
	c, ok := companies[row.CompanyID]
	if !ok {
		var err error
		c, err = r.db.Companies().FindByID(row.CompanyID)
		if err != nil {
			return nil, store.Wrap("resolve employer", err)
		}
		companies[row.CompanyID] = c
	}

	if e, ok := c.Employee(row.ID); ok {
		return e, nil
	}
	e, err := row.employee(c)
	if err != nil {
		return nil, store.Wrap("get employee", err)
	}
	return e, nil
}

// Save inserts e with its preassigned ID. The role is taken from the
// concrete kind of e.
func (r *EmployeeRepo) Save(e models.Employee) error {
	if e == nil {
		return fmt.Errorf("employee: %w", store.ErrInvalidRecord)
	}
	info := e.Info()
	if info.ID <= 0 || info.Name == "" || info.Employer == nil {
		return fmt.Errorf("employee %d: %w", info.ID, store.ErrInvalidRecord)
	}

	var role models.Role
	switch e.(type) {
	case *models.ProjectManager:
		role = models.RoleProjectManager
	case *models.TeamMember:
		role = models.RoleTeamMember
	default:
		return fmt.Errorf("employee %d kind %T: %w", info.ID, e, store.ErrInvalidRecord)
	}
	info.Role = role

	_, err := r.db.Exec(r.db.Rebind(`
		INSERT INTO employee (id, name, role, company_id) VALUES (?, ?, ?, ?)
	`), info.ID, info.Name, string(role), info.Employer.ID)
	if err != nil {
		return store.Wrap("insert employee", err)
	}

	r.db.log.Debug("employee saved", "employee_id", info.ID, "role", role)
	return nil
}

// RefreshMemberTasks reloads the open tasks assigned to tm
func (r *EmployeeRepo) RefreshMemberTasks(tm *models.TeamMember) error {
	tasks, err := r.db.Tasks().Open(ByEmployee, tm.ID)
	if errors.Is(err, store.ErrEmptyResult) {
		tasks, err = []models.Task{}, nil
	}
	if err != nil {
		return err
	}
	tm.Tasks = tasks
	return nil
}
