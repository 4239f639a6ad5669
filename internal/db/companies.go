package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/store"
)

var _ store.Repository[*models.Company] = (*CompanyRepo)(nil)

type companyRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// CompanyRepo reads and writes companies and rebuilds their object graph
type CompanyRepo struct {
	db *DB
}

// Companies returns the company repository
func (db *DB) Companies() *CompanyRepo { return &CompanyRepo{db: db} }

// FindAll returns every company with its employees and open tasks loaded
func (r *CompanyRepo) FindAll() ([]*models.Company, error) {
	var rows []companyRow
	if err := r.db.Select(&rows, `SELECT id, name FROM company ORDER BY id`); err != nil {
		return nil, store.Wrap("list companies", err)
	}

	companies := make([]*models.Company, 0, len(rows))
	for _, row := range rows {
		c := &models.Company{ID: row.ID, Name: row.Name}
		if err := r.LoadAssociations(c); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, nil
}

// FindByID retrieves a company by ID with its associations loaded
func (r *CompanyRepo) FindByID(id int64) (*models.Company, error) {
	var row companyRow
	err := r.db.Get(&row, r.db.Rebind(`SELECT id, name FROM company WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("company %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, store.Wrap("get company", err)
	}

	c := &models.Company{ID: row.ID, Name: row.Name}
	if err := r.LoadAssociations(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Save inserts c with its preassigned ID. Collections are not written.
func (r *CompanyRepo) Save(c *models.Company) error {
	if c == nil || c.ID <= 0 || c.Name == "" {
		return fmt.Errorf("company: %w", store.ErrInvalidRecord)
	}
	if _, err := r.db.Exec(r.db.Rebind(`INSERT INTO company (id, name) VALUES (?, ?)`), c.ID, c.Name); err != nil {
		return store.Wrap("insert company", err)
	}
	r.db.log.Debug("company saved", "company_id", c.ID)
	return nil
}

// LoadAssociations fills in the employees and open tasks of c and stamps
// the load time. Nothing refreshes them afterwards.
func (r *CompanyRepo) LoadAssociations(c *models.Company) error {
	if err := r.RefreshEmployees(c); err != nil {
		return err
	}
	if err := r.RefreshTasks(c); err != nil {
		return err
	}
	c.LoadedAt = time.Now()
	return nil
}

// RefreshEmployees reloads the employees of c. Team members come back with
// their open tasks.
func (r *CompanyRepo) RefreshEmployees(c *models.Company) error {
	var rows []employeeRow
	err := r.db.Select(&rows, r.db.Rebind(`
		SELECT id, name, role, company_id FROM employee WHERE company_id = ? ORDER BY id
	`), c.ID)
	if err != nil {
		return store.Wrap("list employees", err)
	}

	employees := make([]models.Employee, 0, len(rows))
	for _, row := range rows {
		e, err := row.employee(c)
		if err != nil {
			return store.Wrap("list employees", err)
		}
		if tm, ok := e.(*models.TeamMember); ok {
			if err := r.db.Employees().RefreshMemberTasks(tm); err != nil {
				return err
			}
		}
		employees = append(employees, e)
	}
	c.Employees = employees
	return nil
}

// RefreshTasks reloads the open tasks of c
func (r *CompanyRepo) RefreshTasks(c *models.Company) error {
	tasks, err := r.db.Tasks().Open(ByCompany, c.ID)
	if errors.Is(err, store.ErrEmptyResult) {
		tasks, err = []models.Task{}, nil
	}
	if err != nil {
		return err
	}
	c.Tasks = tasks
	return nil
}
