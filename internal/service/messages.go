package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hasisahr/csmt/internal/db"
	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/store"
)

// CreateMessage posts a message to the manager's company. A taskID of zero
// or less means the message is not about a task.
func (s *Service) CreateMessage(pm *models.ProjectManager, title, content string, taskID int64) (models.Message, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)

	var p problems
	p.addIf(title == "", "message name is required")
	p.addIf(content == "", "message description is required")

	related := models.NoRelatedTask()
	if taskID > 0 {
		t, err := s.companyTask(pm.Employer, taskID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			p.addIf(true, fmt.Sprintf("task %d not found", taskID))
		case err != nil:
			return models.Message{}, err
		default:
			related = models.RelatedTo(t)
		}
	}
	if err := p.err(); err != nil {
		return models.Message{}, err
	}

	id, err := s.db.NextID(db.FamilyMessage)
	if err != nil {
		return models.Message{}, err
	}
	m := models.Message{
		ID:        id,
		Title:     title,
		Content:   content,
		CreatedOn: s.now(),
		CompanyID: pm.Employer.ID,
		Author:    pm,
		Related:   related,
	}
	if err := s.db.Messages().Save(m); err != nil {
		return models.Message{}, err
	}

	s.record(FieldMessageCreated, "", fmt.Sprintf("Message:%d %s %s", m.ID, m.Title, m.Content), pm.Role, pm.Name)
	return m, nil
}

// Messages lists the messages of the employee's company. None is an empty
// list.
func (s *Service) Messages(e models.Employee) ([]models.Message, error) {
	msgs, err := s.db.Messages().ForCompany(e.Info().Employer.ID)
	if errors.Is(err, store.ErrEmptyResult) {
		return []models.Message{}, nil
	}
	return msgs, err
}
