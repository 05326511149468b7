package task

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	xerrors "TodoList/internal/errors"
	"TodoList/sdk/go/taskstore"
)

// API 是 RemoteStore 依赖的远端接口，*taskstore.Client 实现了它。
type API interface {
	ListTasks(ctx context.Context) ([]taskstore.Task, error)
	CreateTask(ctx context.Context, payload taskstore.TaskPayload) (taskstore.Task, error)
	UpdateTask(ctx context.Context, id int64, payload taskstore.TaskPayload) (taskstore.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	Upload(ctx context.Context, filename string, content io.Reader) (string, error)
}

// RemoteStore 通过任务服务的 REST 接口读写任务，即联网模式下的数据来源。
type RemoteStore struct {
	api     API
	breaker *gobreaker.CircuitBreaker
}

// RemoteOption 配置 RemoteStore。
type RemoteOption func(*RemoteStore)

// WithBreaker 让所有请求经过熔断器，服务持续失败时直接返回错误而不再发起请求。
func WithBreaker(cb *gobreaker.CircuitBreaker) RemoteOption {
	return func(s *RemoteStore) {
		s.breaker = cb
	}
}

// NewBreaker 返回默认参数的熔断器：至少 3 次请求且失败率达到 60% 时打开，
// openFor 之后进入半开状态试探。4xx 响应不计为失败。
func NewBreaker(name string, openFor time.Duration) *gobreaker.CircuitBreaker {
	if openFor <= 0 {
		openFor = 10 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			var apiErr *taskstore.APIError
			if stdErrors.As(err, &apiErr) {
				return apiErr.StatusCode < 500
			}
			return err == nil
		},
	})
}

// NewRemoteStore 创建 RemoteStore。
func NewRemoteStore(api API, opts ...RemoteOption) *RemoteStore {
	s := &RemoteStore{api: api}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	if cb == nil {
		return fn()
	}
	out, err := cb.Execute(func() (interface{}, error) {
		v, err := fn()
		return v, err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

// List 拉取全部任务。
func (s *RemoteStore) List(ctx context.Context) ([]Task, error) {
	if s.api == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "任务服务客户端未初始化")
	}
	wire, err := execute(s.breaker, func() ([]taskstore.Task, error) { return s.api.ListTasks(ctx) })
	if err != nil {
		return nil, remoteError(err, "list tasks", 0)
	}
	tasks := make([]Task, 0, len(wire))
	for _, w := range wire {
		tasks = append(tasks, fromWire(w))
	}
	return tasks, nil
}

// Create 提交新任务，ID 由远端分配。
func (s *RemoteStore) Create(ctx context.Context, task Task) (Task, error) {
	if s.api == nil {
		return Task{}, xerrors.New(xerrors.CodeInitializationFailure, "任务服务客户端未初始化")
	}
	created, err := execute(s.breaker, func() (taskstore.Task, error) { return s.api.CreateTask(ctx, toWire(task)) })
	if err != nil {
		return Task{}, remoteError(err, "create task", 0)
	}
	return fromWire(created), nil
}

// Update 以完整字段覆盖远端任务。
func (s *RemoteStore) Update(ctx context.Context, task Task) (Task, error) {
	if s.api == nil {
		return Task{}, xerrors.New(xerrors.CodeInitializationFailure, "任务服务客户端未初始化")
	}
	updated, err := execute(s.breaker, func() (taskstore.Task, error) { return s.api.UpdateTask(ctx, task.ID, toWire(task)) })
	if err != nil {
		return Task{}, remoteError(err, "update task", task.ID)
	}
	return fromWire(updated), nil
}

// Delete 删除远端任务。
func (s *RemoteStore) Delete(ctx context.Context, id int64) error {
	if s.api == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "任务服务客户端未初始化")
	}
	_, err := execute(s.breaker, func() (struct{}, error) { return struct{}{}, s.api.DeleteTask(ctx, id) })
	if err != nil {
		return remoteError(err, "delete task", id)
	}
	return nil
}

// Close 无需释放资源。
func (s *RemoteStore) Close() error {
	return nil
}

// RemoteUploader 把文件上传到附件服务。
type RemoteUploader struct {
	api     API
	breaker *gobreaker.CircuitBreaker
}

// UploaderOption 配置 RemoteUploader。
type UploaderOption func(*RemoteUploader)

// WithUploadBreaker 让上传经过熔断器，可与 RemoteStore 共用同一个实例。
func WithUploadBreaker(cb *gobreaker.CircuitBreaker) UploaderOption {
	return func(u *RemoteUploader) {
		u.breaker = cb
	}
}

// NewRemoteUploader 创建 RemoteUploader。
func NewRemoteUploader(api API, opts ...UploaderOption) *RemoteUploader {
	u := &RemoteUploader{api: api}
	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}
	return u
}

// Upload 读取本地文件并上传，返回远端地址。
func (u *RemoteUploader) Upload(ctx context.Context, path string) (string, error) {
	if u.api == nil {
		return "", xerrors.New(xerrors.CodeInitializationFailure, "附件服务客户端未初始化")
	}
	file, err := os.Open(path)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeUploadFailure, err, "打开附件失败",
			xerrors.WithMetadata("path", path))
	}
	defer file.Close()

	url, err := execute(u.breaker, func() (string, error) { return u.api.Upload(ctx, filepath.Base(path), file) })
	if stdErrors.Is(err, gobreaker.ErrOpenState) || stdErrors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", xerrors.Wrap(xerrors.CodeUploadFailure, err, "upload service unavailable",
			xerrors.WithMetadata("path", path))
	}
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeUploadFailure, err, "上传附件失败",
			xerrors.WithMetadata("path", path))
	}
	return url, nil
}

func remoteError(err error, op string, id int64) error {
	var opts []xerrors.Option
	if id != 0 {
		opts = append(opts, xerrors.WithMetadata("task_id", strconv.FormatInt(id, 10)))
	}
	var apiErr *taskstore.APIError
	if stdErrors.As(err, &apiErr) && apiErr.NotFound() {
		return xerrors.Wrap(CodeTaskNotFound, err, op, opts...)
	}
	if stdErrors.Is(err, gobreaker.ErrOpenState) || stdErrors.Is(err, gobreaker.ErrTooManyRequests) {
		return xerrors.Wrap(xerrors.CodeNetworkFailure, err, "task store unavailable", opts...)
	}
	if stdErrors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return xerrors.Wrap(xerrors.CodeTimeout, err, op, opts...)
	}
	return xerrors.Wrap(xerrors.CodeNetworkFailure, err, fmt.Sprintf("%s failed", op), opts...)
}

func isTimeout(err error) bool {
	var timeout interface{ Timeout() bool }
	return stdErrors.As(err, &timeout) && timeout.Timeout()
}

func fromWire(w taskstore.Task) Task {
	t := Task{ID: w.ID, Description: w.Task, Completed: w.IsDone}
	if w.Date != nil {
		t.Date = Date(*w.Date)
	}
	if w.Pic != nil {
		t.Attachment = *w.Pic
	}
	return t
}

func toWire(t Task) taskstore.TaskPayload {
	payload := taskstore.TaskPayload{Task: t.Description, IsDone: t.Completed}
	if !t.Date.IsZero() {
		date := t.Date.String()
		payload.Date = &date
	}
	if t.Attachment != "" {
		pic := t.Attachment
		payload.Pic = &pic
	}
	return payload
}

var (
	_ Store    = (*RemoteStore)(nil)
	_ Uploader = (*RemoteUploader)(nil)
	_ API      = (*taskstore.Client)(nil)
)
