// Package tui renders the task list view as a bubbletea program.
package tui

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	xerrors "TodoList/internal/errors"
	"TodoList/internal/task"
	"TodoList/internal/view"
	"TodoList/pkg/logger"
)

type focus int

const (
	focusList focus = iota
	focusSearch
	focusCreate
	focusEdit
	focusPicker
	focusNotice
)

// Messages produced by the asynchronous commands below.
type (
	loadedMsg  struct{ err error }
	createdMsg struct{ err error }
	toggledMsg struct {
		id  int64
		err error
	}
	deletedMsg struct {
		id  int64
		err error
	}
	savedMsg struct{ err error }
)

// Options configures a Model.
type Options struct {
	// AllowedTypes limits the attachment picker; empty means task.DefaultAttachmentTypes.
	AllowedTypes []string
	// StartDir is where the attachment picker opens.
	StartDir string
	Logger   *slog.Logger
}

// Model is the bubbletea model for the task list screen.
type Model struct {
	ctx      context.Context
	view     *view.View
	log      *slog.Logger
	keys     keyMap
	help     help.Model
	allowed  []string
	startDir string

	focus        focus
	pickerReturn focus
	noticeReturn focus

	cursor      int
	search      textinput.Model
	create      taskForm
	edit        taskForm
	picker      filepicker.Model
	notice      string
	status      string
	width       int
	loading     bool
	pendingAdd  bool
	pendingSave bool
}

// New builds the model. ctx bounds every store and upload call.
func New(ctx context.Context, v *view.View, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	allowed := opts.AllowedTypes
	if len(allowed) == 0 {
		allowed = task.DefaultAttachmentTypes
	}
	startDir := opts.StartDir
	if startDir == "" {
		startDir = "."
	}
	log := opts.Logger
	if log == nil {
		log = logger.Named("tui")
	}

	search := newTextInput("Search tasks...", 128)
	search.Prompt = "/ "

	picker := filepicker.New()
	picker.AllowedTypes = allowed
	picker.CurrentDirectory = startDir

	return Model{
		ctx:      ctx,
		view:     v,
		log:      log,
		keys:     defaultKeyMap(),
		help:     help.New(),
		allowed:  allowed,
		startDir: startDir,
		search:   search,
		create:   newTaskForm(),
		edit:     newTaskForm(),
		picker:   picker,
		loading:  true,
	}
}

// Init loads the task list.
func (m Model) Init() tea.Cmd {
	return m.refreshCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = "Could not load tasks: " + describe(msg.err)
		}
		m.closeStaleEdit()
		m.clampCursor()
		return m, nil
	case createdMsg:
		m.pendingAdd = false
		// failures were logged by the view; the create path stays silent
		if msg.err == nil {
			m.status = "Task added"
		}
		m.clampCursor()
		return m, nil
	case toggledMsg:
		if msg.err != nil {
			m.status = "Could not update task: " + describe(msg.err)
		}
		return m, nil
	case deletedMsg:
		if msg.err != nil {
			m.status = "Could not delete task: " + describe(msg.err)
		} else {
			m.status = "Task deleted"
		}
		m.closeStaleEdit()
		m.clampCursor()
		return m, nil
	case savedMsg:
		m.pendingSave = false
		m.onSaved(msg.err)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// remaining messages belong to the file picker (directory reads and the like)
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.focus {
	case focusNotice:
		if key.Matches(msg, m.keys.Submit, m.keys.Cancel) {
			m.notice = ""
			m.focus = m.noticeReturn
		}
		return m, nil
	case focusPicker:
		return m.updatePicker(msg)
	case focusSearch:
		return m.updateSearch(msg)
	case focusCreate:
		return m.updateCreate(msg)
	case focusEdit:
		return m.updateEdit(msg)
	default:
		return m.updateList(msg)
	}
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		m.cursor++
		m.clampCursor()
	case key.Matches(msg, m.keys.PrevPage):
		m.view.PrevPage()
		m.cursor = 0
	case key.Matches(msg, m.keys.NextPage):
		m.view.NextPage()
		m.cursor = 0
	case key.Matches(msg, m.keys.New):
		m.status = ""
		m.focus = focusCreate
		m.create.focusField(fieldDescription)
	case key.Matches(msg, m.keys.Edit):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		draft, err := m.view.BeginEdit(t.ID)
		if err != nil {
			m.status = describe(err)
			return m, nil
		}
		m.status = ""
		m.edit.fill(draft)
		m.edit.focusField(fieldDescription)
		m.focus = focusEdit
	case key.Matches(msg, m.keys.Toggle):
		if t, ok := m.selected(); ok {
			return m, m.toggleCmd(t.ID)
		}
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok {
			return m, m.deleteCmd(t.ID)
		}
	case key.Matches(msg, m.keys.Search):
		m.focus = focusSearch
		m.search.Focus()
	case key.Matches(msg, m.keys.Filter):
		m.view.CycleStatus()
		m.cursor = 0
	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		return m, m.refreshCmd()
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		m.search.Blur()
		m.focus = focusList
		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		m.search.SetValue("")
		m.search.Blur()
		m.view.SetSearch("")
		m.focus = focusList
		m.cursor = 0
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.view.SetSearch(m.search.Value())
	m.clampCursor()
	return m, cmd
}

func (m Model) updateCreate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.create.blur()
		m.focus = focusList
		return m, nil
	case key.Matches(msg, m.keys.NextEdit):
		m.create.next()
		return m, nil
	case key.Matches(msg, m.keys.PrevEdit):
		m.create.prev()
		return m, nil
	case key.Matches(msg, m.keys.Browse):
		return m, m.openPicker(focusCreate, m.create.draft().File)
	case key.Matches(msg, m.keys.Submit):
		return m.submitCreate()
	}
	return m, m.create.update(msg)
}

func (m Model) submitCreate() (tea.Model, tea.Cmd) {
	if m.pendingAdd || m.view.Snapshot().Posting {
		return m, nil
	}
	draft, ok := m.prepareDraft(m.create.draft())
	if !ok {
		return m, nil
	}
	m.create.reset()
	m.create.focusField(fieldDescription)
	m.pendingAdd = true
	m.status = ""
	return m, m.createCmd(draft)
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pendingSave {
		return m, nil
	}
	if m.closeStaleEdit() {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.view.CancelEdit() {
			m.edit.blur()
			m.focus = focusList
		}
		return m, nil
	case key.Matches(msg, m.keys.NextEdit):
		m.edit.next()
		return m, nil
	case key.Matches(msg, m.keys.PrevEdit):
		m.edit.prev()
		return m, nil
	case key.Matches(msg, m.keys.Browse):
		return m, m.openPicker(focusEdit, m.edit.draft().File)
	case key.Matches(msg, m.keys.Submit):
		return m.submitEdit()
	}
	return m, m.edit.update(msg)
}

func (m Model) submitEdit() (tea.Model, tea.Cmd) {
	draft, ok := m.prepareDraft(m.edit.draft())
	if !ok {
		return m, nil
	}
	if err := m.view.UpdateDraft(draft); err != nil {
		m.status = describe(err)
		return m, nil
	}
	m.pendingSave = true
	m.status = ""
	return m, m.saveCmd()
}

func (m *Model) onSaved(err error) {
	switch {
	case err == nil:
		m.edit.blur()
		m.edit.reset()
		if m.focus == focusEdit {
			m.focus = focusList
		}
		m.status = "Task saved"
		m.clampCursor()
	case xerrors.ShouldNotify(err):
		m.openNotice("Error updating task. Please try again.\n\n" + describe(err))
	default:
		m.status = describe(err)
	}
	m.closeStaleEdit()
}

// closeStaleEdit leaves the edit modal once the view has dropped the edit
// session, which happens when the task is deleted or a save finds it gone.
func (m *Model) closeStaleEdit() bool {
	if m.view.Snapshot().Editing != nil {
		return false
	}
	switch {
	case m.focus == focusEdit:
		m.focus = focusList
	case m.focus == focusPicker && m.pickerReturn == focusEdit:
		m.focus = focusList
	case m.focus == focusNotice && m.noticeReturn == focusEdit:
		m.noticeReturn = focusList
	default:
		return false
	}
	m.edit.blur()
	m.edit.reset()
	return true
}

// prepareDraft validates the form before anything is sent. Problems are
// reported on the status line and the draft is rejected.
func (m *Model) prepareDraft(draft task.Draft) (task.Draft, bool) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		m.status = "Please enter a task"
		return draft, false
	}
	date, err := task.ParseDate(string(draft.Date))
	if err != nil {
		m.status = "Date must look like " + task.DateLayout
		return draft, false
	}
	draft.Date = date
	if draft.File != "" && !task.AcceptsAttachment(draft.File, m.allowed) {
		m.status = "Unsupported attachment type: " + filepath.Base(draft.File)
		return draft, false
	}
	return draft, true
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel) {
		m.focus = m.pickerReturn
		return m, nil
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.formFor(m.pickerReturn).setFile(path)
		m.focus = m.pickerReturn
		m.status = ""
		return m, nil
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.status = "Unsupported attachment type: " + filepath.Base(path)
	}
	return m, cmd
}

func (m *Model) openPicker(from focus, current string) tea.Cmd {
	dir := m.startDir
	if current != "" {
		if info, err := os.Stat(filepath.Dir(current)); err == nil && info.IsDir() {
			dir = filepath.Dir(current)
		}
	}
	m.picker.CurrentDirectory = dir
	m.pickerReturn = from
	m.focus = focusPicker
	return m.picker.Init()
}

func (m *Model) formFor(f focus) *taskForm {
	if f == focusEdit {
		return &m.edit
	}
	return &m.create
}

func (m *Model) openNotice(text string) {
	if m.focus != focusNotice {
		m.noticeReturn = m.focus
	}
	m.notice = text
	m.focus = focusNotice
}

func (m Model) selected() (task.Task, bool) {
	items := m.view.Snapshot().Page.Items
	if m.cursor < 0 || m.cursor >= len(items) {
		return task.Task{}, false
	}
	return items[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.view.Snapshot().Page.Items)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) refreshCmd() tea.Cmd {
	v, ctx := m.view, m.ctx
	return func() tea.Msg {
		return loadedMsg{err: v.Refresh(ctx)}
	}
}

func (m Model) createCmd(draft task.Draft) tea.Cmd {
	v, ctx, log := m.view, m.ctx, m.log
	return func() tea.Msg {
		err := v.Create(ctx, draft)
		if err != nil {
			log.Debug("create command finished with error", slog.String("code", string(xerrors.CodeOf(err))))
		}
		return createdMsg{err: err}
	}
}

func (m Model) toggleCmd(id int64) tea.Cmd {
	v, ctx := m.view, m.ctx
	return func() tea.Msg {
		return toggledMsg{id: id, err: v.Toggle(ctx, id)}
	}
}

func (m Model) deleteCmd(id int64) tea.Cmd {
	v, ctx := m.view, m.ctx
	return func() tea.Msg {
		return deletedMsg{id: id, err: v.Delete(ctx, id)}
	}
}

func (m Model) saveCmd() tea.Cmd {
	v, ctx := m.view, m.ctx
	return func() tea.Msg {
		return savedMsg{err: v.SaveEdit(ctx)}
	}
}

func describe(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := xerrors.From(err); ok {
		msg := e.Message()
		if cause := e.Unwrap(); cause != nil {
			msg += ": " + strings.TrimSpace(cause.Error())
		}
		return msg
	}
	return err.Error()
}
