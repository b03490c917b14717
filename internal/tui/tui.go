// Package tui is the interactive list. Toggles are optimistic: the
// keypress submits the mutation in the background and the visible
// list is the overlay of pending submissions on the last confirmed
// snapshot, with a marker on in-flight rows.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/optodo/internal/action"
	"github.com/idilsaglam/optodo/internal/model"
	"github.com/idilsaglam/optodo/internal/query"
	"github.com/idilsaglam/optodo/internal/store"
	"github.com/idilsaglam/optodo/internal/submission"
	"github.com/idilsaglam/optodo/internal/ui"
	"github.com/idilsaglam/optodo/internal/view"
)

type Deps struct {
	Actions *action.Actions
	Todos   *query.TodoCache
	Tracker *submission.Tracker
	Store   store.Store
}

// listItem adapts a todo row to bubbles/list.Item. Done reflects the
// overlaid (predicted) state; Pending marks an in-flight prediction.
type listItem struct {
	ID      model.ID
	Text    string
	Done    bool
	Pending bool
}

func (i listItem) Title() string       { return i.Text }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.Text }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)

	box := ui.MutedStyle.Render(ui.BoxUnchecked)
	text := it.Text
	if it.Done {
		box = ui.SuccessStyle.Render(ui.BoxChecked)
		text = ui.DoneStyle.Render(text)
	}
	if it.Pending {
		box = ui.SyncStyle.Render(ui.SymSyncing)
		text = ui.SyncStyle.Render(it.Text)
	}

	line := fmt.Sprintf("%s %s", box, text)
	prefix := "  "
	if index == m.Index() {
		prefix = ui.SelectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+line)
}

type (
	todosMsg   []model.Todo
	settledMsg struct{ err error }
	changedMsg struct{}
	fetchErr   struct{ err error }
)

type modelTUI struct {
	deps    Deps
	changes chan struct{}

	list     list.Model
	snapshot []model.Todo

	// Inline add
	adding bool
	ti     textinput.Model
	addErr string

	status string

	// Undo support (single-level). The restored item gets a fresh id
	// and lands at the end of the list.
	canUndo  bool
	undoText string
	undoDone bool

	width, height int
}

// Run starts the Bubble Tea program and blocks until quit.
func Run(d Deps) error {
	changes := make(chan struct{}, 1)
	cancel := d.Tracker.Subscribe(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	defer cancel()

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = ui.TitleStyle.Render("Todos")
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = ui.TitleStyle
	l.Styles.HelpStyle = ui.HelpStyle
	l.Styles.PaginationStyle = ui.HelpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")

	addBind := key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	delBind := key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	undoBind := key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo"))
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{addBind, delBind, undoBind} }
	l.AdditionalFullHelpKeys = func() []key.Binding { return []key.Binding{addBind, delBind, undoBind} }

	m := modelTUI{deps: d, changes: changes, list: l, width: 80, height: 24}
	m.ti = textinput.New()
	m.ti.Prompt = "> "
	m.ti.Placeholder = "New item..."
	m.ti.CharLimit = 200

	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m modelTUI) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.waitChange())
}

func (m modelTUI) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		todos, err := m.deps.Todos.Get(context.Background(), query.TodosKey)
		if err != nil {
			return fetchErr{err}
		}
		return todosMsg(todos)
	}
}

func (m modelTUI) waitChange() tea.Cmd {
	return func() tea.Msg {
		<-m.changes
		return changedMsg{}
	}
}

// syncItems rebuilds the visible rows from the confirmed snapshot plus
// the pending overlay.
func (m *modelTUI) syncItems() {
	overlaid := view.Overlay(m.snapshot, m.deps.Tracker.Snapshot())

	inFlight := map[model.ID]bool{}
	for _, s := range m.deps.Tracker.Pending(submission.KindSetCompleted) {
		if in, ok := s.Input.(submission.SetCompletedInput); ok {
			inFlight[in.ID] = true
		}
	}

	items := make([]list.Item, 0, len(overlaid))
	dn, pn := 0, 0
	for _, t := range overlaid {
		if t.Completed {
			dn++
		} else {
			pn++
		}
		items = append(items, listItem{
			ID:      t.ID,
			Text:    t.Text,
			Done:    t.Completed,
			Pending: inFlight[t.ID],
		})
	}
	m.list.SetItems(items)
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		ui.TitleStyle.Render("Todos"),
		ui.SuccessStyle.Render("✔"), dn,
		ui.PendingStyle.Render("•"), pn,
		ui.AccentStyle.Render("Total"), len(overlaid),
	)
}

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case todosMsg:
		m.snapshot = msg
		m.syncItems()
		return m, nil

	case fetchErr:
		m.status = msg.err.Error()
		return m, nil

	case changedMsg:
		// a submission was submitted or settled; re-render the
		// overlay and keep listening
		m.syncItems()
		return m, m.waitChange()

	case settledMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		m.deps.Tracker.Prune()
		return m, m.fetchCmd()
	}

	// add mode
	if m.adding {
		var cmd tea.Cmd
		if x, ok := msg.(tea.KeyMsg); ok {
			switch x.String() {
			case "enter":
				text := strings.TrimSpace(m.ti.Value())
				if text == "" {
					m.addErr = "Text cannot be empty"
					return m, nil
				}
				m.ti.SetValue("")
				m.ti.Blur()
				m.adding = false
				m.addErr = ""
				return m, m.createCmd(text)
			case "esc":
				m.adding = false
				m.ti.SetValue("")
				m.ti.Blur()
				return m, nil
			}
		}
		m.ti, cmd = m.ti.Update(msg)
		return m, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case " ":
			it, ok := m.list.SelectedItem().(listItem)
			if !ok || it.Pending {
				// control stays disabled while a toggle is in flight
				return m, nil
			}
			m.status = ""
			return m, m.toggleCmd(it.ID, !it.Done)
		case "a":
			m.adding = true
			m.ti.SetValue("")
			m.ti.Focus()
			return m, nil
		case "d":
			it, ok := m.list.SelectedItem().(listItem)
			if !ok || it.Pending {
				return m, nil
			}
			m.canUndo = true
			m.undoText = it.Text
			m.undoDone = it.Done
			return m, m.deleteCmd(it.ID)
		case "u":
			if !m.canUndo {
				return m, nil
			}
			m.canUndo = false
			return m, m.restoreCmd(m.undoText, m.undoDone)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) toggleCmd(id model.ID, completed bool) tea.Cmd {
	return func() tea.Msg {
		_, err := m.deps.Actions.SetCompleted(context.Background(), id, completed)
		return settledMsg{err}
	}
}

func (m modelTUI) createCmd(text string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.deps.Actions.Create(context.Background(), text)
		return settledMsg{err}
	}
}

func (m modelTUI) deleteCmd(id model.ID) tea.Cmd {
	return func() tea.Msg {
		_, err := m.deps.Store.Delete(context.Background(), id)
		if err == nil {
			m.deps.Todos.Invalidate(query.TodosKey)
		}
		return settledMsg{err}
	}
}

func (m modelTUI) restoreCmd(text string, done bool) tea.Cmd {
	return func() tea.Msg {
		t, err := m.deps.Store.Insert(context.Background(), text)
		if err == nil && done {
			_, err = m.deps.Store.UpdateCompleted(context.Background(), t.ID, true)
		}
		if err == nil {
			m.deps.Todos.Invalidate(query.TodosKey)
		}
		return settledMsg{err}
	}
}

func (m modelTUI) View() string {
	listHeight := m.height - 4
	if m.adding {
		listHeight = m.height - 6
	}
	m.list.SetSize(m.width-2, listHeight)

	content := m.list.View()
	if m.status != "" {
		content += "\n" + ui.ErrorStyle.Render(m.status)
	}
	if m.adding {
		bar := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
		title := "Add new item"
		if m.addErr != "" {
			title += " — " + ui.ErrorStyle.Render(m.addErr)
		}
		content += "\n" + bar.Render(title+"\n"+m.ti.View())
	}
	return panelString(content)
}

func panelString(inner string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)
	return border.Render(inner)
}
