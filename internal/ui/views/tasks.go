package views

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
)

func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// TaskLoader fetches the open tasks shown by a TaskListView
type TaskLoader func() ([]service.TaskView, error)

type tasksLoadedMsg struct {
	tasks []service.TaskView
	err   error
}

// TaskListView lists open tasks with their priority, most urgent first
type TaskListView struct {
	load    TaskLoader
	styles  *styles.Styles
	keys    keys.KeyMap
	tasks   []service.TaskView
	err     error
	loaded  bool
	cursor  int
	scrollY int
	width   int
	height  int
}

func NewTaskListView(load TaskLoader) *TaskListView {
	return &TaskListView{
		load:   load,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
	}
}

func (v *TaskListView) Init() tea.Cmd {
	return v.loadTasks
}

func (v *TaskListView) loadTasks() tea.Msg {
	tasks, err := v.load()
	return tasksLoadedMsg{tasks: tasks, err: err}
}

// Selected returns the task under the cursor
func (v *TaskListView) Selected() (service.TaskView, bool) {
	if v.cursor < 0 || v.cursor >= len(v.tasks) {
		return service.TaskView{}, false
	}
	return v.tasks[v.cursor], true
}

func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ensureVisible()
		return v, nil

	case tasksLoadedMsg:
		v.loaded = true
		v.err = msg.err
		if msg.err == nil {
			v.tasks = msg.tasks
		}
		v.cursor = clamp(v.cursor, 0, max(len(v.tasks)-1, 0))
		v.ensureVisible()
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Up):
			if v.cursor > 0 {
				v.cursor--
				v.ensureVisible()
			}
		case key.Matches(msg, v.keys.Down):
			if v.cursor < len(v.tasks)-1 {
				v.cursor++
				v.ensureVisible()
			}
		case key.Matches(msg, v.keys.Refresh):
			return v, v.loadTasks
		}
	}
	return v, nil
}

// visibleItems is how many single-line rows fit above the detail pane
func (v *TaskListView) visibleItems() int {
	return max(v.height-14, 1)
}

func (v *TaskListView) ensureVisible() {
	visible := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	}
	if v.cursor >= v.scrollY+visible {
		v.scrollY = v.cursor - visible + 1
	}
	v.scrollY = clamp(v.scrollY, 0, max(len(v.tasks)-visible, 0))
}

func (v *TaskListView) View() string {
	s := v.styles
	if !v.loaded {
		return s.TitleMuted.Render("Loading...")
	}

	var b strings.Builder
	if v.err != nil {
		b.WriteString(s.Error.Render("Could not load tasks: " + v.err.Error()))
		b.WriteString("\n\n")
	}
	if len(v.tasks) == 0 {
		b.WriteString(s.TitleMuted.Render("No open tasks."))
		return b.String()
	}

	end := min(v.scrollY+v.visibleItems(), len(v.tasks))
	rows := make([]string, 0, end-v.scrollY)
	for i := v.scrollY; i < end; i++ {
		rows = append(rows, v.renderTaskItem(v.tasks[i], i == v.cursor))
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))

	if t, ok := v.Selected(); ok {
		b.WriteString("\n\n")
		b.WriteString(v.renderDetail(t))
	}
	return b.String()
}

func (v *TaskListView) renderTaskItem(t service.TaskView, selected bool) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-12, 20)

	line := fmt.Sprintf("%s  #%d %s", t.Due.Format(models.DateLayout), t.ID, t.Name)
	style := s.ListItem
	if selected {
		style = s.ListSelected
	}
	return s.Badge(t.Priority) + style.Width(width).Render(line)
}

func (v *TaskListView) renderDetail(t service.TaskView) string {
	s := v.styles
	assignee := "unassigned"
	switch {
	case t.Assignee != "":
		assignee = "assigned to " + t.Assignee
	case t.EmployeeID != nil:
		assignee = fmt.Sprintf("assigned to employee %d", *t.EmployeeID)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(t.Name),
		t.Description,
		"",
		s.TitleMuted.Render(fmt.Sprintf("%s • %s • created by %s", t.Completion, assignee, t.CreatedBy)),
	)
	return s.Frame.Width(clamp(styles.ContentWidth(v.width)-4, 20, styles.MaxWidth)).Render(content)
}
