// Package service runs the user-facing workflows over the stores: company
// and employee registration, login, and the task and message operations of
// managers and team members. Every state change is followed by an entry in
// the audit log.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hasisahr/csmt/internal/audit"
	"github.com/hasisahr/csmt/internal/auth"
	"github.com/hasisahr/csmt/internal/db"
	"github.com/hasisahr/csmt/internal/files"
	"github.com/hasisahr/csmt/internal/models"
)

// Audit log field names
const (
	FieldCompanyRegistered  = "Company registered"
	FieldEmployeeRegistered = "Employee registered"
	FieldTaskCreated        = "Task created"
	FieldTaskAssigned       = "Task assigned"
	FieldTaskCompleted      = "Task completed"
	FieldMessageCreated     = "Message created"
)

// registrationActor signs audit entries made before anyone can log in
const registrationActor = "registration"

// ValidationError collects every problem found in one request
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Problems, "; ")
}

// problems accumulates validation failures
type problems []string

func (p *problems) addIf(cond bool, msg string) {
	if cond {
		*p = append(*p, msg)
	}
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return &ValidationError{Problems: p}
}

// Deps are the collaborators of a Service. Hash and Now default to
// auth.SHA256Hex and time.Now.
type Deps struct {
	DB        *db.DB
	Companies *files.CompanyCredentials
	Logins    *files.Logins
	Changes   *audit.Log
	Log       *slog.Logger
	Hash      auth.Hasher
	Now       func() time.Time
}

type Service struct {
	db        *db.DB
	companies *files.CompanyCredentials
	logins    *files.Logins
	changes   *audit.Log
	log       *slog.Logger
	hash      auth.Hasher
	now       func() time.Time
}

func New(d Deps) *Service {
	s := &Service{
		db:        d.DB,
		companies: d.Companies,
		logins:    d.Logins,
		changes:   d.Changes,
		log:       d.Log,
		hash:      d.Hash,
		now:       d.Now,
	}
	if s.hash == nil {
		s.hash = auth.SHA256Hex
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// record appends to the audit log. The change it describes has already
// happened, so a failure is logged and not returned.
func (s *Service) record(field, before, after string, role models.Role, actor string) {
	if err := s.changes.Record(field, before, after, role, actor); err != nil {
		s.log.Warn("change not recorded", "field", field, "actor", actor, "error", err)
	}
}

// Changes returns the whole audit log, oldest first
func (s *Service) Changes() ([]models.Change, error) {
	return s.changes.ReadAll()
}

// RegisterCompany creates a company and stores the hash of its business
// identifier, which employees later use to join it.
func (s *Service) RegisterCompany(name, identifier, repeated string) (*models.Company, error) {
	name = strings.TrimSpace(name)

	var p problems
	p.addIf(name == "", "business name is required")
	p.addIf(identifier == "", "business identifier is required")
	p.addIf(repeated == "", "repeated business identifier is required")
	p.addIf(identifier != repeated, "business identifiers do not match")

	hash := s.hash(identifier)
	if identifier != "" {
		taken, err := s.companies.HashExists(hash)
		if err != nil {
			return nil, err
		}
		p.addIf(taken, "business identifier is already in use")
	}
	if err := p.err(); err != nil {
		return nil, err
	}

	id, err := s.db.NextID(db.FamilyCompany)
	if err != nil {
		return nil, err
	}
	c := &models.Company{ID: id, Name: name, Employees: []models.Employee{}, Tasks: []models.Task{}}
	if err := s.db.Companies().Save(c); err != nil {
		return nil, err
	}
	if err := s.companies.Save(models.CompanyCredential{ID: id, IdentifierHash: hash}); err != nil {
		s.log.Error("company stored without credential", "company_id", id, "error", err)
		return nil, err
	}

	s.log.Info("company registered", "company_id", id, "name", name)
	s.record(FieldCompanyRegistered, "", fmt.Sprintf("Company:%d %s", id, name), "", registrationActor)
	return c, nil
}

// EmployeeRegistration is the sign-up form of a new employee
type EmployeeRegistration struct {
	Name               string
	Username           string
	Password           string
	ConfirmPassword    string
	BusinessIdentifier string
	Role               models.Role
}

// RegisterEmployee creates an employee in the company the business
// identifier belongs to, and stores the login.
func (s *Service) RegisterEmployee(r EmployeeRegistration) (models.Employee, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Username = strings.TrimSpace(r.Username)

	var p problems
	p.addIf(r.Name == "" || r.Username == "" || r.Password == "" || r.ConfirmPassword == "" || r.BusinessIdentifier == "",
		"all fields are required")
	p.addIf(!r.Role.Valid(), "role must be PROJECT_MANAGER or TEAM_MEMBER")
	p.addIf(r.Password != r.ConfirmPassword, "passwords do not match")

	if r.Username != "" {
		taken, err := s.logins.UsernameExists(r.Username)
		if err != nil {
			return nil, err
		}
		p.addIf(taken, "username already exists")
	}

	var company *models.Company
	if r.BusinessIdentifier != "" {
		cred, ok, err := s.companies.FindByHash(s.hash(r.BusinessIdentifier))
		if err != nil {
			return nil, err
		}
		if ok {
			company, err = s.db.Companies().FindByID(cred.ID)
			if err != nil {
				return nil, err
			}
		}
	}
	p.addIf(company == nil, "business not found")

	if err := p.err(); err != nil {
		return nil, err
	}

	id, err := s.db.NextID(db.FamilyEmployee)
	if err != nil {
		return nil, err
	}
	info := models.EmployeeInfo{ID: id, Name: r.Name, Role: r.Role, Employer: company}
	var e models.Employee
	if r.Role == models.RoleProjectManager {
		e = &models.ProjectManager{EmployeeInfo: info}
	} else {
		e = &models.TeamMember{EmployeeInfo: info, Tasks: []models.Task{}}
	}
	if err := s.db.Employees().Save(e); err != nil {
		return nil, err
	}

	login := models.LoginCredential{ID: id, Username: r.Username, PasswordHash: s.hash(r.Password)}
	if err := s.logins.Save(login); err != nil {
		s.log.Error("employee stored without login", "employee_id", id, "error", err)
		return nil, err
	}
	company.Employees = append(company.Employees, e)

	s.log.Info("employee registered", "employee_id", id, "username", r.Username, "role", r.Role)
	s.record(FieldEmployeeRegistered, "",
		fmt.Sprintf("Employee:%d %s %s company=%d", id, r.Name, r.Role, company.ID),
		"", registrationActor)
	return e, nil
}

// Login checks the credentials and returns the employee they belong to,
// with the employer graph loaded.
func (s *Service) Login(username, password string) (models.Employee, error) {
	var p problems
	p.addIf(username == "", "username is required")
	p.addIf(password == "", "password is required")
	if err := p.err(); err != nil {
		return nil, err
	}

	cred, err := auth.Authenticate(s.logins, s.hash, username, password)
	if err != nil {
		if errors.Is(err, auth.ErrCredentialMismatch) {
			s.log.Info("login rejected", "username", username)
		}
		return nil, err
	}

	e, err := s.db.Employees().FindByID(cred.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info("user logged in", "username", username, "employee_id", cred.ID)
	return e, nil
}
