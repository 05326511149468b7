// Package view holds the state of the task list screen: the task set fetched
// from the store, the search/status/page filter state, the submission flags
// and the edit flow. It has no terminal dependencies.
package view

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	xerrors "TodoList/internal/errors"
	"TodoList/internal/task"
	"TodoList/pkg/logger"
)

// Empty-state messages shown when the filtered list has no items.
const (
	MessageNoTasks   = "No tasks yet!"
	MessageNoMatches = "No tasks match your search."
)

// EditState is the phase of the edit flow.
type EditState int

const (
	EditIdle EditState = iota
	EditEditing
	EditSaving
)

func (s EditState) String() string {
	switch s {
	case EditEditing:
		return "editing"
	case EditSaving:
		return "saving"
	default:
		return "idle"
	}
}

type editSession struct {
	taskID   int64
	original task.Task
	draft    task.Draft
	state    EditState
}

// EditSnapshot describes an open edit session.
type EditSnapshot struct {
	TaskID     int64
	Draft      task.Draft
	Attachment string
	State      EditState
}

// Snapshot is everything a renderer needs for one frame.
type Snapshot struct {
	Page          task.Page
	Progress      task.Progress
	Search        string
	Status        task.StatusFilter
	TotalTasks    int
	FilteredCount int
	EmptyMessage  string
	Posting       bool
	Updating      bool
	Editing       *EditSnapshot
}

// View is the task list controller. All methods are safe for concurrent use;
// store and upload calls run outside the lock.
type View struct {
	mu       sync.Mutex
	store    task.Store
	uploader task.Uploader
	log      *slog.Logger
	pageSize int

	tasks    []task.Task
	search   string
	status   task.StatusFilter
	page     int
	posting  bool
	updating bool
	edit     *editSession
}

// Option configures a View.
type Option func(*View)

// WithPageSize overrides the default of three tasks per page.
func WithPageSize(size int) Option {
	return func(v *View) {
		if size > 0 {
			v.pageSize = size
		}
	}
}

// WithLogger sets the logger used for failed store and upload calls.
func WithLogger(l *slog.Logger) Option {
	return func(v *View) {
		if l != nil {
			v.log = l
		}
	}
}

// New creates a View backed by store. uploader may be nil, in which case
// drafts carrying a file fail with an upload error.
func New(store task.Store, uploader task.Uploader, opts ...Option) *View {
	v := &View{
		store:    store,
		uploader: uploader,
		pageSize: task.DefaultPageSize,
		status:   task.StatusAll,
		page:     1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	if v.log == nil {
		v.log = logger.Named("view")
	}
	return v
}

// Refresh replaces the local task set with the store's copy.
func (v *View) Refresh(ctx context.Context) error {
	tasks, err := v.store.List(ctx)
	if err != nil {
		v.log.Error("failed to load tasks", slog.Any("error", err))
		return err
	}
	v.mu.Lock()
	v.tasks = tasks
	v.clampPageLocked()
	v.mu.Unlock()
	v.log.Debug("tasks loaded", slog.Int("count", len(tasks)))
	return nil
}

// Create validates and submits a new task. An empty description is a no-op
// returning task.ErrTaskValidation without touching the store. A file in the
// draft is uploaded first; an upload failure aborts the creation.
func (v *View) Create(ctx context.Context, draft task.Draft) error {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return err
	}

	v.mu.Lock()
	if v.posting {
		v.mu.Unlock()
		return task.ErrTaskBusy
	}
	v.posting = true
	v.mu.Unlock()
	defer func() {
		v.mu.Lock()
		v.posting = false
		v.mu.Unlock()
	}()

	ref, err := v.upload(ctx, draft.File)
	if err != nil {
		v.log.Error("failed to upload attachment for new task", slog.String("file", draft.File), slog.Any("error", err))
		return err
	}

	created, err := v.store.Create(ctx, task.Task{
		Description: draft.Description,
		Completed:   false,
		Date:        draft.Date,
		Attachment:  ref,
	})
	if err != nil {
		v.log.Error("failed to create task", slog.Any("error", err))
		return err
	}

	v.mu.Lock()
	v.tasks = append(v.tasks, created)
	v.mu.Unlock()
	v.log.Info("task created", slog.Int64("task_id", created.ID))

	v.refreshAfterWrite(ctx)
	return nil
}

// Toggle flips the completion flag of the task with the given id.
func (v *View) Toggle(ctx context.Context, id int64) error {
	current, ok := v.Task(id)
	if !ok {
		return notFound(id)
	}
	current.Completed = !current.Completed
	updated, err := v.store.Update(ctx, current)
	if err != nil {
		v.log.Error("failed to toggle task", slog.Int64("task_id", id), slog.Any("error", err))
		return err
	}
	v.replace(updated)
	v.refreshAfterWrite(ctx)
	return nil
}

// Edit updates description and date of the task with the given id. A file in
// the draft replaces the attachment; otherwise the existing one is kept.
func (v *View) Edit(ctx context.Context, id int64, draft task.Draft) error {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return err
	}
	current, ok := v.Task(id)
	if !ok {
		return notFound(id)
	}

	v.mu.Lock()
	if v.updating {
		v.mu.Unlock()
		return task.ErrTaskBusy
	}
	v.updating = true
	v.mu.Unlock()
	defer func() {
		v.mu.Lock()
		v.updating = false
		v.mu.Unlock()
	}()

	return v.applyEdit(ctx, current, draft)
}

func (v *View) applyEdit(ctx context.Context, current task.Task, draft task.Draft) error {
	if draft.File != "" {
		ref, err := v.upload(ctx, draft.File)
		if err != nil {
			v.log.Error("failed to upload replacement attachment",
				slog.Int64("task_id", current.ID), slog.String("file", draft.File), slog.Any("error", err))
			return err
		}
		current.Attachment = ref
	}
	current.Description = draft.Description
	current.Date = draft.Date

	updated, err := v.store.Update(ctx, current)
	if err != nil {
		v.log.Error("failed to update task", slog.Int64("task_id", current.ID), slog.Any("error", err))
		return err
	}
	v.replace(updated)
	v.log.Info("task updated", slog.Int64("task_id", updated.ID))
	v.refreshAfterWrite(ctx)
	return nil
}

// Delete removes the task with the given id and clamps the current page.
func (v *View) Delete(ctx context.Context, id int64) error {
	if _, ok := v.Task(id); !ok {
		return notFound(id)
	}
	if err := v.store.Delete(ctx, id); err != nil {
		v.log.Error("failed to delete task", slog.Int64("task_id", id), slog.Any("error", err))
		return err
	}

	v.mu.Lock()
	for i, t := range v.tasks {
		if t.ID == id {
			v.tasks = append(v.tasks[:i:i], v.tasks[i+1:]...)
			break
		}
	}
	if v.edit != nil && v.edit.taskID == id && v.edit.state == EditEditing {
		v.edit = nil
	}
	v.clampPageLocked()
	v.mu.Unlock()
	v.log.Info("task deleted", slog.Int64("task_id", id))

	v.refreshAfterWrite(ctx)
	return nil
}

// BeginEdit enters the edit flow for id and snapshots its fields as the draft.
func (v *View) BeginEdit(id int64) (task.Draft, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.edit != nil && v.edit.state == EditSaving {
		return task.Draft{}, task.ErrTaskBusy
	}
	current, ok := v.findLocked(id)
	if !ok {
		return task.Draft{}, notFound(id)
	}
	draft := task.DraftOf(current)
	v.edit = &editSession{taskID: id, original: current, draft: draft, state: EditEditing}
	return draft, nil
}

// UpdateDraft replaces the draft of the open edit session.
func (v *View) UpdateDraft(draft task.Draft) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.edit == nil || v.edit.state != EditEditing {
		return errNotEditing
	}
	v.edit.draft = draft
	return nil
}

// CancelEdit discards the draft. It reports false when nothing was
// cancelled, including while a save is in flight.
func (v *View) CancelEdit() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.edit == nil || v.edit.state != EditEditing {
		return false
	}
	v.edit = nil
	return true
}

// SaveEdit validates and commits the draft. On failure the session returns to
// the editing state with the draft intact.
func (v *View) SaveEdit(ctx context.Context) error {
	v.mu.Lock()
	session := v.edit
	if session == nil || session.state != EditEditing {
		v.mu.Unlock()
		return errNotEditing
	}
	draft := session.draft.Normalize()
	if err := draft.Validate(); err != nil {
		v.mu.Unlock()
		return err
	}
	if v.updating {
		v.mu.Unlock()
		return task.ErrTaskBusy
	}
	current, ok := v.findLocked(session.taskID)
	if !ok {
		v.edit = nil
		v.mu.Unlock()
		return notFound(session.taskID)
	}
	session.state = EditSaving
	v.updating = true
	v.mu.Unlock()

	err := v.applyEdit(ctx, current, draft)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.updating = false
	if err != nil {
		session.state = EditEditing
		return err
	}
	if v.edit == session {
		v.edit = nil
	}
	return nil
}

// SetSearch changes the search term and resets to the first page.
func (v *View) SetSearch(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if term == v.search {
		return
	}
	v.search = term
	v.page = 1
}

// SetStatus changes the status filter and resets to the first page.
func (v *View) SetStatus(status task.StatusFilter) {
	status, _ = task.ParseStatusFilter(string(status))
	v.mu.Lock()
	defer v.mu.Unlock()
	if status == v.status {
		return
	}
	v.status = status
	v.page = 1
}

// CycleStatus advances all → active → completed → all.
func (v *View) CycleStatus() task.StatusFilter {
	v.mu.Lock()
	next := v.status.Next()
	v.mu.Unlock()
	v.SetStatus(next)
	return next
}

// SetPage jumps to page, clamped to the available range.
func (v *View) SetPage(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = page
	v.clampPageLocked()
}

// NextPage moves forward one page if possible.
func (v *View) NextPage() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page++
	v.clampPageLocked()
}

// PrevPage moves back one page if possible.
func (v *View) PrevPage() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page--
	v.clampPageLocked()
}

// Task returns a copy of the task with the given id.
func (v *View) Task(id int64) (task.Task, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.findLocked(id)
}

// Tasks returns a copy of the full task set.
func (v *View) Tasks() []task.Task {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]task.Task, len(v.tasks))
	copy(out, v.tasks)
	return out
}

// Snapshot derives the current frame.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	result := task.Query(v.tasks,
		task.WithSearch(v.search),
		task.WithStatus(v.status),
		task.WithPage(v.page),
		task.WithPageSize(v.pageSize),
	)
	snap := Snapshot{
		Page:          result.Page,
		Progress:      result.Progress,
		Search:        v.search,
		Status:        v.status,
		TotalTasks:    len(v.tasks),
		FilteredCount: len(result.Filtered),
		Posting:       v.posting,
		Updating:      v.updating,
	}
	if len(result.Filtered) == 0 {
		snap.EmptyMessage = MessageNoMatches
		if len(v.tasks) == 0 {
			snap.EmptyMessage = MessageNoTasks
		}
	}
	if v.edit != nil {
		snap.Editing = &EditSnapshot{
			TaskID:     v.edit.taskID,
			Draft:      v.edit.draft,
			Attachment: v.edit.original.Attachment,
			State:      v.edit.state,
		}
	}
	return snap
}

func (v *View) upload(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if v.uploader == nil {
		return "", xerrors.New(xerrors.CodeUploadFailure, "no uploader configured")
	}
	return v.uploader.Upload(ctx, path)
}

// refreshAfterWrite reloads the task set; a failed reload keeps the locally
// applied change.
func (v *View) refreshAfterWrite(ctx context.Context) {
	if err := v.Refresh(ctx); err != nil {
		v.log.Warn("reload after write failed, keeping local copy", slog.Any("error", err))
	}
}

func (v *View) replace(updated task.Task) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.tasks {
		if v.tasks[i].ID == updated.ID {
			v.tasks[i] = updated
			return
		}
	}
}

func (v *View) findLocked(id int64) (task.Task, bool) {
	for _, t := range v.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return task.Task{}, false
}

func (v *View) clampPageLocked() {
	filtered := task.Filter(v.tasks, v.search, v.status)
	v.page = task.ClampPage(v.page, task.TotalPages(len(filtered), v.pageSize))
}

var errNotEditing = xerrors.New(xerrors.CodeInvalidArgument, "no edit in progress")

func notFound(id int64) error {
	return xerrors.New(task.CodeTaskNotFound, "task not found",
		xerrors.WithMetadata("task_id", strconv.FormatInt(id, 10)))
}
