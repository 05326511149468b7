package task

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	xerrors "TodoList/internal/errors"
)

// MemoryStore 以内存方式保存任务，即独立模式下的数据来源。
type MemoryStore struct {
	mu     sync.RWMutex
	tasks  []Task
	index  map[int64]int
	lastID int64
	now    func() time.Time
}

// MemoryOption 配置 MemoryStore。
type MemoryOption func(*MemoryStore)

// WithClock 替换生成 ID 时使用的时钟，主要用于测试。
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSeed 预先放入任务。
func WithSeed(tasks ...Task) MemoryOption {
	return func(m *MemoryStore) {
		for _, t := range tasks {
			if _, ok := m.index[t.ID]; ok {
				continue
			}
			m.index[t.ID] = len(m.tasks)
			m.tasks = append(m.tasks, t)
			if t.ID > m.lastID {
				m.lastID = t.ID
			}
		}
	}
}

// NewMemoryStore 创建 MemoryStore。
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		index: make(map[int64]int),
		now:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// List 按创建顺序返回全部任务的副本。
func (m *MemoryStore) List(_ context.Context) ([]Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := cloneTasks(m.tasks)
	if out == nil {
		out = []Task{}
	}
	return out, nil
}

// Create 以毫秒时间戳作为 ID 追加任务，时间戳冲突时顺延。
func (m *MemoryStore) Create(_ context.Context, task Task) (Task, error) {
	if strings.TrimSpace(task.Description) == "" {
		return Task{}, ErrTaskValidation
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.now().UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id
	task.ID = id

	m.index[id] = len(m.tasks)
	m.tasks = append(m.tasks, task)
	return task, nil
}

// Update 按 ID 原地替换任务。
func (m *MemoryStore) Update(_ context.Context, task Task) (Task, error) {
	if strings.TrimSpace(task.Description) == "" {
		return Task{}, ErrTaskValidation
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := m.index[task.ID]
	if !ok {
		return Task{}, notFound(task.ID)
	}
	m.tasks[pos] = task
	return task, nil
}

// Delete 删除任务并保持其余任务的顺序。
func (m *MemoryStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := m.index[id]
	if !ok {
		return notFound(id)
	}
	m.tasks = append(m.tasks[:pos], m.tasks[pos+1:]...)
	delete(m.index, id)
	for i := pos; i < len(m.tasks); i++ {
		m.index[m.tasks[i].ID] = i
	}
	return nil
}

// Close 对内存存储无需操作。
func (m *MemoryStore) Close() error {
	return nil
}

func notFound(id int64) error {
	return xerrors.New(CodeTaskNotFound, "task not found",
		xerrors.WithMetadata("task_id", strconv.FormatInt(id, 10)))
}

// ensure interface compliance at compile time
var _ Store = (*MemoryStore)(nil)
