package views

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/ui/styles"
)

type messageItem struct {
	message models.Message
}

func (i messageItem) Title() string { return i.message.Title }

func (i messageItem) Description() string {
	m := i.message
	author := "unknown"
	if m.Author != nil {
		author = m.Author.Name
	}
	desc := fmt.Sprintf("%s by %s: %s", m.CreatedOn.Format(models.DateLayout), author, m.Content)
	if t, ok := m.Related.Task(); ok {
		desc += fmt.Sprintf(" (task #%d %s)", t.ID, t.Name)
	}
	return desc
}

func (i messageItem) FilterValue() string { return i.message.Title + " " + i.message.Content }

type messageDelegate struct {
	styles *styles.Styles
	width  int
}

func (d messageDelegate) Height() int                               { return 2 }
func (d messageDelegate) Spacing() int                              { return 1 }
func (d messageDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d messageDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(messageItem)
	if !ok {
		return
	}

	width := max(d.width-4, 20)

	var titleStyle, descStyle lipgloss.Style
	if index == m.Index() {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	// one line each so the delegate height holds
	title := titleStyle.MaxHeight(1).Render(it.Title())
	desc := descStyle.MaxHeight(1).Render(it.Description())
	fmt.Fprintf(w, "%s\n%s", title, desc)
}

// MessageLoader fetches the messages shown by a MessageListView
type MessageLoader func() ([]models.Message, error)

type messagesLoadedMsg struct {
	messages []models.Message
	err      error
}

// MessageListView shows the company's messages with filtering
type MessageListView struct {
	load     MessageLoader
	list     list.Model
	delegate *messageDelegate
	styles   *styles.Styles
	err      error
	loaded   bool
	width    int
	height   int
}

func NewMessageListView(load MessageLoader) *MessageListView {
	s := styles.NewStyles()

	delegate := &messageDelegate{styles: s, width: styles.MaxWidth}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Messages"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)
	// quitting belongs to the app
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)

	return &MessageListView{
		load:     load,
		list:     l,
		delegate: delegate,
		styles:   s,
	}
}

func (v *MessageListView) Init() tea.Cmd {
	return v.loadMessages
}

func (v *MessageListView) loadMessages() tea.Msg {
	msgs, err := v.load()
	return messagesLoadedMsg{messages: msgs, err: err}
}

// Filtering reports whether keystrokes are going to the filter input
func (v *MessageListView) Filtering() bool {
	return v.list.FilterState() == list.Filtering
}

// Reload fetches the messages again
func (v *MessageListView) Reload() tea.Cmd {
	return v.loadMessages
}

func (v *MessageListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, max(msg.Height-6, 3))
		return v, nil

	case messagesLoadedMsg:
		v.loaded = true
		v.err = msg.err
		if msg.err != nil {
			return v, nil
		}
		items := make([]list.Item, len(msg.messages))
		for i, m := range msg.messages {
			items[i] = messageItem{message: m}
		}
		return v, v.list.SetItems(items)
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *MessageListView) View() string {
	s := v.styles
	if !v.loaded {
		return s.TitleMuted.Render("Loading...")
	}
	if v.err != nil {
		return s.Error.Render("Could not load messages: " + v.err.Error())
	}
	if len(v.list.Items()) == 0 {
		return s.TitleMuted.Render("No messages.")
	}
	return v.list.View()
}
