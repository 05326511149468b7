package tui

import (
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"TodoList/internal/task"
)

const (
	fieldDescription = iota
	fieldDate
	fieldFile
	fieldCount
)

var fieldLabels = [fieldCount]string{"Task", "Date", "File"}

// taskForm holds the description, date and file inputs shared by the create
// form and the edit modal.
type taskForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
}

func newTextInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 40
	ti.Prompt = ""
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func newTaskForm() taskForm {
	return taskForm{
		inputs: [fieldCount]textinput.Model{
			newTextInput("What needs doing?", 256),
			newTextInput(task.DateLayout, len(task.DateLayout)),
			newTextInput("path to image, .pdf, .docx or .xlsx", 1024),
		},
	}
}

func (f *taskForm) focusField(idx int) {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	f.focus = (idx%fieldCount + fieldCount) % fieldCount
	f.inputs[f.focus].Focus()
}

func (f *taskForm) blur() {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

func (f *taskForm) next() { f.focusField(f.focus + 1) }
func (f *taskForm) prev() { f.focusField(f.focus - 1) }

func (f *taskForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f taskForm) draft() task.Draft {
	return task.Draft{
		Description: f.inputs[fieldDescription].Value(),
		Date:        task.Date(f.inputs[fieldDate].Value()),
		File:        f.inputs[fieldFile].Value(),
	}
}

func (f *taskForm) fill(d task.Draft) {
	f.inputs[fieldDescription].SetValue(d.Description)
	f.inputs[fieldDate].SetValue(d.Date.String())
	f.inputs[fieldFile].SetValue(d.File)
}

func (f *taskForm) setFile(path string) {
	f.inputs[fieldFile].SetValue(path)
}

func (f *taskForm) reset() {
	f.fill(task.Draft{})
}
