package task

import (
	"strings"
	"time"

	xerrors "TodoList/internal/errors"
)

// DateLayout 是截止日期的格式，只包含日历日期。
const DateLayout = "2006-01-02"

// Date 表示不含时间的日历日期，空值表示未设置。
type Date string

// ParseDate 校验并规范化用户输入的日期。空字符串表示清空日期。
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	parsed, err := time.Parse(DateLayout, raw)
	if err != nil {
		return "", xerrors.Wrap(CodeTaskValidation, err, "日期格式应为 YYYY-MM-DD",
			xerrors.WithMetadata("date", raw))
	}
	return Date(parsed.Format(DateLayout)), nil
}

// IsZero 判断日期是否未设置。
func (d Date) IsZero() bool { return d == "" }

// String 返回日期文本。
func (d Date) String() string { return string(d) }

// Task 描述一条待办事项。
type Task struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Date        Date   `json:"date,omitempty"`
	// Attachment 为上传后得到的附件地址。
	Attachment string `json:"attachment,omitempty"`
}

// Draft 是创建或编辑表单中的输入。File 为尚未上传的本地文件路径。
type Draft struct {
	Description string
	Date        Date
	File        string
}

// Validate 检查草稿是否可以提交。
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Description) == "" {
		return ErrTaskValidation
	}
	return nil
}

// Normalize 去掉描述两端的空白。
func (d Draft) Normalize() Draft {
	d.Description = strings.TrimSpace(d.Description)
	d.File = strings.TrimSpace(d.File)
	return d
}

// DraftOf 把已有任务快照为编辑草稿。
func DraftOf(t Task) Draft {
	return Draft{Description: t.Description, Date: t.Date}
}

var (
	// ErrTaskNotFound 表示指定的任务不存在。
	ErrTaskNotFound = xerrors.New(CodeTaskNotFound, "task not found")
	// ErrTaskValidation 表示任务描述为空。
	ErrTaskValidation = xerrors.New(CodeTaskValidation, "task description is required")
	// ErrTaskBusy 表示同一个表单已有请求在进行中。
	ErrTaskBusy = xerrors.New(CodeTaskBusy, "a submission is already in flight")
)

const (
	CodeTaskNotFound   xerrors.Code = "TASK_NOT_FOUND"
	CodeTaskValidation xerrors.Code = "TASK_VALIDATION_FAILED"
	CodeTaskBusy       xerrors.Code = "TASK_BUSY"
)

func init() {
	xerrors.Register(CodeTaskNotFound, xerrors.Attributes{
		Message:  "task not found",
		Severity: xerrors.SeverityInfo,
		Notify:   false,
	})
	xerrors.Register(CodeTaskValidation, xerrors.Attributes{
		Message:  "task validation failed",
		Severity: xerrors.SeverityInfo,
		Notify:   false,
	})
	xerrors.Register(CodeTaskBusy, xerrors.Attributes{
		Message:  "a submission is already in flight",
		Severity: xerrors.SeverityInfo,
		Notify:   false,
	})
}

// IsTaskError 判断错误是否为指定的任务错误码。
func IsTaskError(err error, target xerrors.Code) bool {
	if err == nil {
		return false
	}
	return xerrors.CodeOf(err) == target
}

func cloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}
