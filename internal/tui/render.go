package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"TodoList/internal/task"
	"TodoList/internal/view"
)

const progressWidth = 24

// View implements tea.Model.
func (m Model) View() string {
	snap := m.view.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render("✓ My Todo List"))
	b.WriteString("\n")
	b.WriteString(m.renderSearch(snap))
	b.WriteString("\n\n")
	b.WriteString(m.renderCreateForm(snap))
	b.WriteString("\n\n")
	b.WriteString(m.renderList(snap))

	if snap.FilteredCount > 0 {
		b.WriteString("\n")
		b.WriteString(renderPagination(snap.Page))
		b.WriteString("\n\n")
		b.WriteString(renderProgress(snap.Progress))
	}

	switch m.focus {
	case focusEdit:
		b.WriteString("\n\n")
		b.WriteString(m.renderEditModal(snap))
	case focusPicker:
		b.WriteString("\n\n")
		b.WriteString(modalStyle.Render(labelStyle.Render("Attach a file (esc to cancel)") + "\n\n" + m.picker.View()))
	case focusNotice:
		b.WriteString("\n\n")
		b.WriteString(noticeStyle.Render(errorStyle.Render(m.notice) + "\n\n" + labelStyle.Render("press enter to continue")))
	}

	b.WriteString("\n\n")
	if status := m.statusLine(); status != "" {
		b.WriteString(statusStyle.Render(status))
		b.WriteString("\n")
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) statusLine() string {
	if m.loading {
		return "Loading tasks…"
	}
	return m.status
}

func (m Model) renderSearch(snap view.Snapshot) string {
	filter := labelStyle.Render("Filter: ") + selectedStyle.Render(snap.Status.Label())
	return m.search.View() + "   " + filter
}

func (m Model) renderCreateForm(snap view.Snapshot) string {
	draft := m.create.draft()
	posting := m.pendingAdd || snap.Posting

	label, style := "+ Add Task", buttonStyle
	switch {
	case posting:
		label, style = "Posting…", buttonDisabledStyle
	case strings.TrimSpace(draft.Description) == "":
		style = buttonDisabledStyle
	}
	return renderForm(m.create, m.focus == focusCreate) + "\n" + style.Render(label)
}

func (m Model) renderEditModal(snap view.Snapshot) string {
	var b strings.Builder
	b.WriteString(selectedStyle.Render("✏️ Edit Task"))
	b.WriteString("\n\n")
	b.WriteString(renderForm(m.edit, true))
	if snap.Editing != nil && snap.Editing.Attachment != "" {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Current: "))
		b.WriteString(renderAttachment(snap.Editing.Attachment))
	}

	saving := m.pendingSave || snap.Updating
	label, style := "Save Changes", buttonStyle
	if saving {
		label, style = "Saving…", buttonDisabledStyle
	}
	b.WriteString("\n\n")
	b.WriteString(style.Render(label))
	return modalStyle.Render(b.String())
}

func renderForm(f taskForm, active bool) string {
	rows := make([]string, 0, fieldCount)
	for i := range f.inputs {
		marker := "  "
		if active && f.focus == i {
			marker = selectedStyle.Render("› ")
		}
		rows = append(rows, marker+labelStyle.Width(6).Render(fieldLabels[i])+f.inputs[i].View())
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderList(snap view.Snapshot) string {
	if snap.EmptyMessage != "" {
		return emptyStyle.Render(snap.EmptyMessage)
	}
	rows := make([]string, 0, len(snap.Page.Items))
	for i, t := range snap.Page.Items {
		rows = append(rows, renderTask(t, m.focus == focusList && i == m.cursor))
	}
	return strings.Join(rows, "\n")
}

func renderTask(t task.Task, selected bool) string {
	check := "[ ]"
	desc := t.Description
	if t.Completed {
		check = "[x]"
		desc = doneStyle.Render(desc)
	}
	line := check + " " + desc
	if !t.Date.IsZero() {
		line += "  " + dateStyle.Render("📅 "+t.Date.String())
	}
	if selected {
		line = selectedStyle.Render("›") + " " + line
	} else {
		line = "  " + line
	}
	if t.Attachment != "" {
		line += "\n      " + renderAttachment(t.Attachment)
	}
	return line
}

func renderAttachment(ref string) string {
	if task.IsPDF(ref) {
		return "📄 " + linkStyle.Render(ref)
	}
	return "🖼  " + linkStyle.Render(ref)
}

func renderPagination(p task.Page) string {
	prev, next := "← Prev", "Next →"
	prevStyle, nextStyle := labelStyle, labelStyle
	if p.HasPrev() {
		prevStyle = selectedStyle
	}
	if p.HasNext() {
		nextStyle = selectedStyle
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		prevStyle.Render(prev),
		labelStyle.Render(fmt.Sprintf("   Page %d of %d   ", p.Number, p.TotalPages)),
		nextStyle.Render(next),
	)
}

func renderProgress(p task.Progress) string {
	filled := int(math.Round(p.Percentage / 100 * progressWidth))
	bar := progressFull.Render(strings.Repeat("█", filled)) +
		progressEmpty.Render(strings.Repeat("░", progressWidth-filled))
	return labelStyle.Render("Progress ") + bar + fmt.Sprintf(" %d / %d", p.Completed, p.Total)
}

func (m Model) renderHelp() string {
	switch m.focus {
	case focusCreate, focusEdit:
		return m.help.ShortHelpView(m.keys.formHelp())
	case focusSearch:
		return m.help.ShortHelpView([]key.Binding{m.keys.Submit, m.keys.Cancel})
	case focusList:
		return m.help.ShortHelpView(m.keys.listHelp())
	}
	return ""
}
