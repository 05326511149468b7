package task

import "context"

// Store 抽象了任务集合的权威来源。联网模式下为远端任务服务，独立模式下为内存。
type Store interface {
	List(ctx context.Context) ([]Task, error)
	Create(ctx context.Context, task Task) (Task, error)
	Update(ctx context.Context, task Task) (Task, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}

// Uploader 把本地文件上传为附件，返回可保存在任务上的引用地址。
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}
