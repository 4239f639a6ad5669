package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/service"
	"github.com/hasisahr/csmt/internal/ui/keys"
	"github.com/hasisahr/csmt/internal/ui/styles"
	"github.com/hasisahr/csmt/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewTasks View = iota
	ViewMessages
	ViewChanges
	viewCount
)

var viewNames = [viewCount]string{"Tasks", "Messages", "Changes"}

// Sources feeds the views. Every call reads fresh data.
type Sources struct {
	Tasks    views.TaskLoader
	Messages views.MessageLoader
	Changes  views.ChangeLoader
}

// App is a read-only browser over one employee's tasks, their company's
// messages and the audit log.
type App struct {
	title       string
	currentView View
	taskList    *views.TaskListView
	messageList *views.MessageListView
	changeLog   *views.ChangeLogView
	styles      *styles.Styles
	keys        keys.KeyMap
	showHelp    bool
	width       int
	height      int
}

// NewApp creates the browser for employee e. Team members see their own
// open tasks, project managers every open task of the company.
func NewApp(svc *service.Service, e models.Employee) *App {
	info := e.Info()
	tasks := func() ([]service.TaskView, error) { return svc.CompanyTasks(e) }
	if tm, ok := e.(*models.TeamMember); ok {
		tasks = func() ([]service.TaskView, error) { return svc.MemberTasks(tm) }
	}

	return newApp(
		fmt.Sprintf("%s (%s) at %s", info.Name, info.Role, info.Employer.Name),
		Sources{
			Tasks:    tasks,
			Messages: func() ([]models.Message, error) { return svc.Messages(e) },
			Changes:  svc.Changes,
		},
	)
}

func newApp(title string, src Sources) *App {
	return &App{
		title:       title,
		currentView: ViewTasks,
		taskList:    views.NewTaskListView(src.Tasks),
		messageList: views.NewMessageListView(src.Messages),
		changeLog:   views.NewChangeLogView(src.Changes),
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.taskList.Init(),
		a.messageList.Init(),
		a.changeLog.Init(),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// the header takes two lines
		inner := tea.WindowSizeMsg{Width: msg.Width, Height: max(msg.Height-2, 0)}
		a.taskList.Update(inner)
		a.messageList.Update(inner)
		a.changeLog.Update(inner)
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}
		if a.currentView == ViewMessages && a.messageList.Filtering() {
			break
		}

		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Help):
			a.showHelp = true
			return a, nil
		case key.Matches(msg, a.keys.Tab):
			a.currentView = (a.currentView + 1) % viewCount
			return a, nil
		case key.Matches(msg, a.keys.BackTab):
			a.currentView = (a.currentView + viewCount - 1) % viewCount
			return a, nil
		case key.Matches(msg, a.keys.Refresh) && a.currentView == ViewMessages:
			return a, a.messageList.Reload()
		}

	default:
		// load results are routed to whichever view understands them
		_, c1 := a.taskList.Update(msg)
		_, c2 := a.messageList.Update(msg)
		_, c3 := a.changeLog.Update(msg)
		return a, tea.Batch(c1, c2, c3)
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewTasks:
		_, cmd = a.taskList.Update(msg)
	case ViewMessages:
		_, cmd = a.messageList.Update(msg)
	case ViewChanges:
		_, cmd = a.changeLog.Update(msg)
	}
	return a, cmd
}

func (a *App) View() string {
	if a.showHelp {
		return a.renderHelpPopup()
	}

	var body string
	switch a.currentView {
	case ViewMessages:
		body = a.messageList.View()
	case ViewChanges:
		body = a.changeLog.View()
	default:
		body = a.taskList.View()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		a.renderHeader(),
		"",
		body,
		a.renderHelp(),
	)
	return styles.CenterView(content, a.width, a.height)
}

func (a *App) renderHeader() string {
	s := a.styles
	tabs := make([]string, 0, viewCount)
	for i, name := range viewNames {
		style := s.Tab
		if View(i) == a.currentView {
			style = s.TabActive
		}
		tabs = append(tabs, style.Render(name))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(a.title),
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
	)
}

func (a *App) renderHelp() string {
	s := a.styles
	if w := styles.ContentWidth(a.width); w > 0 && w < 50 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}
	return s.Help.Render(fmt.Sprintf("%s view • %s move • %s reload • %s quit",
		s.HelpKey.Render("tab"),
		s.HelpKey.Render("↑↓"),
		s.HelpKey.Render("r"),
		s.HelpKey.Render("q"),
	))
}

func (a *App) renderHelpPopup() string {
	s := a.styles
	bindings := []key.Binding{a.keys.Tab, a.keys.BackTab, a.keys.Up, a.keys.Down, a.keys.Refresh, a.keys.Quit}

	lines := []string{s.Title.Render("Keyboard Shortcuts"), ""}
	for _, b := range bindings {
		h := b.Help()
		lines = append(lines, s.HelpKey.Render(fmt.Sprintf("%-10s", h.Key))+" "+h.Desc)
	}
	lines = append(lines, "", s.TitleMuted.Render("/ filters messages"), s.TitleMuted.Render("Press any key to close"))

	box := s.Frame.Render(strings.Join(lines, "\n"))
	return lipgloss.Place(styles.ContentWidth(a.width), a.height,
		lipgloss.Center, lipgloss.Center, box)
}
