package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/ui/keys"
	"github.com/hasisahr/csmt/internal/ui/styles"
)

// ChangeLoader fetches the audit log
type ChangeLoader func() ([]models.Change, error)

type changesLoadedMsg struct {
	changes []models.Change
	err     error
}

// linesPerChange is the rendered height of one entry including its gap
const linesPerChange = 4

// ChangeLogView pages through the audit log, newest entry first
type ChangeLogView struct {
	load    ChangeLoader
	styles  *styles.Styles
	keys    keys.KeyMap
	changes []models.Change
	err     error
	loaded  bool
	offset  int
	width   int
	height  int
}

func NewChangeLogView(load ChangeLoader) *ChangeLogView {
	return &ChangeLogView{
		load:   load,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
	}
}

func (v *ChangeLogView) Init() tea.Cmd {
	return v.loadChanges
}

func (v *ChangeLogView) loadChanges() tea.Msg {
	changes, err := v.load()
	return changesLoadedMsg{changes: changes, err: err}
}

func (v *ChangeLogView) pageSize() int {
	return max((v.height-6)/linesPerChange, 1)
}

func (v *ChangeLogView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case changesLoadedMsg:
		v.loaded = true
		v.err = msg.err
		// a failed read still yields whatever the log held
		v.changes = make([]models.Change, 0, len(msg.changes))
		for i := len(msg.changes) - 1; i >= 0; i-- {
			v.changes = append(v.changes, msg.changes[i])
		}
		v.offset = clamp(v.offset, 0, max(len(v.changes)-1, 0))
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Up):
			if v.offset > 0 {
				v.offset--
			}
		case key.Matches(msg, v.keys.Down):
			if v.offset < len(v.changes)-1 {
				v.offset++
			}
		case key.Matches(msg, v.keys.Refresh):
			return v, v.loadChanges
		}
	}
	return v, nil
}

func (v *ChangeLogView) View() string {
	s := v.styles
	if !v.loaded {
		return s.TitleMuted.Render("Loading...")
	}

	var b strings.Builder
	if v.err != nil {
		b.WriteString(s.Error.Render("Audit log unreadable: " + v.err.Error()))
		b.WriteString("\n\n")
	}
	if len(v.changes) == 0 {
		b.WriteString(s.TitleMuted.Render("No changes recorded."))
		return b.String()
	}

	end := min(v.offset+v.pageSize(), len(v.changes))
	entries := make([]string, 0, end-v.offset)
	for _, c := range v.changes[v.offset:end] {
		entries = append(entries, v.renderChange(c))
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, entries...))
	b.WriteString(s.TitleMuted.Render(fmt.Sprintf("%d-%d of %d", v.offset+1, end, len(v.changes))))
	return b.String()
}

func (v *ChangeLogView) renderChange(c models.Change) string {
	s := v.styles
	actor := c.ActorName
	if c.ActorRole != "" {
		actor = fmt.Sprintf("%s (%s)", c.ActorName, c.ActorRole)
	}

	head := s.ChangeField.Render(c.Field) + "  " +
		s.TitleMuted.Render(c.At.UTC().Format("2006-01-02 15:04")+" by "+actor)
	return lipgloss.JoinVertical(lipgloss.Left,
		head,
		"  "+s.Before.Render("- "+orNone(c.Before)),
		"  "+s.After.Render("+ "+orNone(c.After)),
		"",
	)
}

func orNone(v string) string {
	if v == "" {
		return "(none)"
	}
	return v
}
