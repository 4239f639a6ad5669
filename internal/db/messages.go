package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/store"
)

const messageColumns = `id, name, description, date_created, task_id, project_manager_id, company_id`

var _ store.Repository[models.Message] = (*MessageRepo)(nil)

type messageRow struct {
	ID               int64  `db:"id"`
	Name             string `db:"name"`
	Description      string `db:"description"`
	DateCreated      string `db:"date_created"`
	TaskID           int64  `db:"task_id"`
	ProjectManagerID int64  `db:"project_manager_id"`
	CompanyID        int64  `db:"company_id"`
}

// MessageRepo reads and writes manager messages
type MessageRepo struct {
	db *DB
}

// Messages returns the message repository
func (db *DB) Messages() *MessageRepo { return &MessageRepo{db: db} }

// FindAll returns every message with its author and related task resolved
func (r *MessageRepo) FindAll() ([]models.Message, error) {
	var rows []messageRow
	if err := r.db.Select(&rows, `SELECT `+messageColumns+` FROM message ORDER BY id`); err != nil {
		return nil, store.Wrap("list messages", err)
	}
	return r.toMessages(rows)
}

// FindByID retrieves a message by ID
func (r *MessageRepo) FindByID(id int64) (models.Message, error) {
	var row messageRow
	err := r.db.Get(&row, r.db.Rebind(`SELECT `+messageColumns+` FROM message WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return models.Message{}, store.Wrap("get message", err)
	}

	msgs, err := r.toMessages([]messageRow{row})
	if err != nil {
		return models.Message{}, err
	}
	return msgs[0], nil
}

// ForCompany returns the messages of one company, oldest first. A company
// without messages yields store.ErrEmptyResult.
func (r *MessageRepo) ForCompany(companyID int64) ([]models.Message, error) {
	var rows []messageRow
	err := r.db.Select(&rows, r.db.Rebind(`
		SELECT `+messageColumns+` FROM message WHERE company_id = ? ORDER BY date_created, id
	`), companyID)
	if err != nil {
		return nil, store.Wrap("list company messages", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("messages of company %d: %w", companyID, store.ErrEmptyResult)
	}
	return r.toMessages(rows)
}

// Save inserts m with its preassigned ID. An absent task link is stored as
// models.NoTaskID.
func (r *MessageRepo) Save(m models.Message) error {
	if m.ID <= 0 || m.Title == "" || m.Author == nil || m.CompanyID <= 0 {
		return fmt.Errorf("message %d: %w", m.ID, store.ErrInvalidRecord)
	}
	created := m.CreatedOn
	if created.IsZero() {
		created = time.Now()
	}

	_, err := r.db.Exec(r.db.Rebind(`
		INSERT INTO message (id, name, description, date_created, task_id, project_manager_id, company_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), m.ID, m.Title, m.Content, created.Format(models.DateLayout), m.Related.ID(), m.Author.ID, m.CompanyID)
	if err != nil {
		return store.Wrap("insert message", err)
	}

	r.db.log.Debug("message saved", "message_id", m.ID, "task_id", m.Related.ID())
	return nil
}

func (r *MessageRepo) toMessages(rows []messageRow) ([]models.Message, error) {
	authors := make(map[int64]*models.ProjectManager)
	msgs := make([]models.Message, 0, len(rows))

	for _, row := range rows {
		created, err := time.Parse(models.DateLayout, row.DateCreated)
		if err != nil {
			return nil, store.Wrap("read message", fmt.Errorf("message %d date: %w", row.ID, err))
		}

		author, ok := authors[row.ProjectManagerID]
		if !ok {
			author, err = r.author(row.ProjectManagerID)
			if err != nil {
				return nil, err
			}
			authors[row.ProjectManagerID] = author
		}

		msgs = append(msgs, models.Message{
			ID:        row.ID,
			Title:     row.Name,
			Content:   row.Description,
			CreatedOn: created,
			CompanyID: row.CompanyID,
			Author:    author,
			Related:   r.related(row),
		})
	}
	return msgs, nil
}

func (r *MessageRepo) author(id int64) (*models.ProjectManager, error) {
	e, err := r.db.Employees().FindByID(id)
	if err != nil {
		return nil, store.Wrap("resolve message author", err)
	}
	pm, ok := e.(*models.ProjectManager)
	if !ok {
		return nil, store.Wrap("resolve message author",
			fmt.Errorf("employee %d is not a project manager: %w", id, store.ErrInvalidRecord))
	}
	return pm, nil
}

// related resolves the task link of row. A link that cannot be resolved
// stays present by ID and is logged.
func (r *MessageRepo) related(row messageRow) models.RelatedTask {
	link := models.RelatedID(row.TaskID)
	if !link.Present() {
		return link
	}
	t, err := r.db.Tasks().FindByID(row.TaskID)
	if err != nil {
		r.db.log.Warn("message refers to a task that cannot be loaded",
			"message_id", row.ID,
			"task_id", row.TaskID,
			"error", err,
		)
		return link
	}
	return models.RelatedTo(t)
}
