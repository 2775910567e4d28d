// Package ui is the terminal front end of the task list. It renders the
// store's collection and turns key presses into store operations.
//
// Store operations run as bubbletea commands, so the UI stays responsive
// while a request is outstanding. The view reads the store on every render;
// the store's subscription only nudges the program to redraw.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tasklist/internal/service"
	"tasklist/internal/store"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
)

// statusFadeDelay is how long a status line stays before it is cleared.
const statusFadeDelay = 5 * time.Second

// storeChangedMsg is sent by the store subscription after every change.
type storeChangedMsg struct{}

// opDoneMsg reports the outcome of one store operation.
type opDoneMsg struct {
	op  string
	err error
}

// statusFadeMsg clears the status line if nothing newer replaced it.
type statusFadeMsg struct {
	seq int
}

// Model is the bubbletea model of the task list.
type Model struct {
	ctx    context.Context
	store  *store.Store
	keys   KeyMap
	styles Styles

	cursor int
	mode   mode
	input  textinput.Model

	status      string
	statusIsErr bool
	statusSeq   int
	fadeDelay   time.Duration
}

// NewModel creates a model over st. ctx bounds every store operation the
// model starts.
func NewModel(ctx context.Context, st *store.Store) Model {
	ti := textinput.New()
	ti.Placeholder = "Add a new task"
	ti.CharLimit = 256
	ti.Width = 40

	return Model{
		ctx:       ctx,
		store:     st,
		keys:      DefaultKeyMap,
		styles:    DefaultStyles(),
		input:     ti,
		mode:      modeList,
		fadeDelay: statusFadeDelay,
	}
}

// Init loads the task list.
func (m Model) Init() tea.Cmd {
	return m.run("load", m.store.Load)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 10 {
			m.input.Width = msg.Width - 10
		}
		return m, nil

	case storeChangedMsg:
		m = m.syncWithStore()
		return m, nil

	case opDoneMsg:
		m = m.syncWithStore()
		return m.setStatus(opStatus(msg), msg.err != nil)

	case logRecordMsg:
		return m.setStatus(msg.Summary, msg.Level >= slog.LevelError)

	case statusFadeMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusIsErr = false
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m.updateAddMode(msg)
		case modeEdit:
			return m.updateEditMode(msg)
		default:
			return m.updateListMode(msg)
		}
	}
	return m, nil
}

func (m Model) updateListMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tasks := m.store.Tasks()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.cursor = clampCursor(m.cursor-1, len(tasks))
	case key.Matches(msg, m.keys.Down):
		m.cursor = clampCursor(m.cursor+1, len(tasks))
	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.input.SetValue("")
		m.input.Placeholder = "Add a new task"
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Reload):
		return m, m.run("reload", m.store.Load)
	case key.Matches(msg, m.keys.Toggle):
		if len(tasks) == 0 {
			return m, nil
		}
		id := tasks[m.cursor].ID
		return m, m.run("toggle", func(ctx context.Context) error {
			return m.store.Toggle(ctx, id)
		})
	case key.Matches(msg, m.keys.Delete):
		if len(tasks) == 0 {
			return m, nil
		}
		id := tasks[m.cursor].ID
		return m, m.run("delete", func(ctx context.Context) error {
			return m.store.Remove(ctx, id)
		})
	case key.Matches(msg, m.keys.Edit):
		if len(tasks) == 0 {
			return m, nil
		}
		if err := m.store.BeginEdit(tasks[m.cursor].ID); err != nil {
			return m.setStatus(err.Error(), true)
		}
		return m.enterEditMode()
	}
	return m, nil
}

func (m Model) updateAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		title := m.input.Value()
		if strings.TrimSpace(title) == "" {
			return m.setStatus("Title cannot be empty", true)
		}
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		return m, m.run("add", func(ctx context.Context) error {
			return m.store.Add(ctx, title)
		})
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.store.CancelEdit()
		m.mode = modeList
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		if strings.TrimSpace(m.input.Value()) == "" {
			return m.setStatus("Title cannot be empty", true)
		}
		// Stay in edit mode until the store confirms; a failed rename keeps
		// the draft so the text can be retried.
		return m, m.run("rename", m.store.CommitEdit)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.store.UpdateDraftText(m.input.Value())
		return m, cmd
	}
}

func (m Model) enterEditMode() (tea.Model, tea.Cmd) {
	d, ok := m.store.Draft()
	if !ok {
		return m, nil
	}
	m.mode = modeEdit
	m.input.Placeholder = "Task title"
	m.input.SetValue(d.Text)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

// syncWithStore keeps the cursor in range and leaves edit mode once the
// store no longer holds a draft.
func (m Model) syncWithStore() Model {
	m.cursor = clampCursor(m.cursor, len(m.store.Tasks()))
	if m.mode == modeEdit {
		if _, ok := m.store.Draft(); !ok {
			m.mode = modeList
			m.input.SetValue("")
			m.input.Blur()
		}
	}
	return m
}

// run wraps a store operation as a command reporting its outcome.
func (m Model) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) setStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.statusSeq++
	m.status = text
	m.statusIsErr = isErr
	if text == "" {
		return m, nil
	}
	seq := m.statusSeq
	return m, tea.Tick(m.fadeDelay, func(time.Time) tea.Msg {
		return statusFadeMsg{seq: seq}
	})
}

func opStatus(msg opDoneMsg) string {
	if msg.err != nil {
		if errors.Is(msg.err, store.ErrSuperseded) {
			return ""
		}
		return fmt.Sprintf("%s failed: %v", msg.op, msg.err)
	}
	switch msg.op {
	case "load":
		return ""
	case "reload":
		return "Reloaded"
	case "add":
		return "Added task"
	case "toggle":
		return "Toggled task"
	case "delete":
		return "Deleted task"
	case "rename":
		return "Renamed task"
	default:
		return ""
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render("Task Manager"))
	b.WriteString("\n")

	if m.mode == modeAdd {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}

	tasks := m.store.Tasks()
	if len(tasks) == 0 {
		b.WriteString(m.styles.Faint.Render("No tasks yet. Press 'a' to add one."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderTaskList(tasks))
	}

	b.WriteString("\n")
	if m.status != "" {
		style := m.styles.Status
		if m.statusIsErr {
			style = m.styles.Error
		}
		b.WriteString(style.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderTaskList(tasks []service.Task) string {
	draft, editing := m.store.Draft()

	var b strings.Builder
	for i, t := range tasks {
		cursor := "  "
		if i == m.cursor && m.mode != modeAdd {
			cursor = m.styles.Cursor.Render("> ")
		}
		b.WriteString(cursor)

		if editing && m.mode == modeEdit && draft.TaskID == t.ID {
			b.WriteString(m.styles.Editing.Render("✎ "))
			b.WriteString(m.input.View())
			b.WriteString("\n")
			continue
		}

		checkbox := "[ ] "
		style := m.styles.Open
		if t.Completed {
			checkbox = "[x] "
			style = m.styles.Completed
		}
		b.WriteString(checkbox)
		b.WriteString(style.Render(t.Title))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderHelp() string {
	bindings := m.keys.listHelp()
	if m.mode != modeList {
		bindings = m.keys.inputHelp()
	}
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return m.styles.Help.Render(strings.Join(parts, " • "))
}

func clampCursor(cursor, n int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}
