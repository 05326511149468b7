package task

import "strings"

// StatusFilter 选择按完成状态展示哪些任务。
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusActive    StatusFilter = "active"
	StatusCompleted StatusFilter = "completed"
)

// ParseStatusFilter 解析状态过滤条件，未知值回退为 all。
func ParseStatusFilter(raw string) (StatusFilter, bool) {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusAll, "":
		return StatusAll, true
	case StatusActive:
		return StatusActive, true
	case StatusCompleted:
		return StatusCompleted, true
	default:
		return StatusAll, false
	}
}

// Next 按 all → active → completed 的顺序循环切换。
func (s StatusFilter) Next() StatusFilter {
	switch s {
	case StatusAll:
		return StatusActive
	case StatusActive:
		return StatusCompleted
	default:
		return StatusAll
	}
}

// Label 返回展示用的名称。
func (s StatusFilter) Label() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusCompleted:
		return "Completed"
	default:
		return "All Tasks"
	}
}

// Matches 判断任务是否同时满足搜索词与状态条件。空搜索词匹配所有任务。
func Matches(t Task, search string, status StatusFilter) bool {
	if search != "" && !strings.Contains(strings.ToLower(t.Description), strings.ToLower(search)) {
		return false
	}
	switch status {
	case StatusActive:
		return !t.Completed
	case StatusCompleted:
		return t.Completed
	default:
		return true
	}
}

// Filter 返回满足条件的任务，保持输入顺序。
func Filter(tasks []Task, search string, status StatusFilter) []Task {
	result := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, search, status) {
			result = append(result, t)
		}
	}
	return result
}

// DefaultPageSize 是每页展示的任务数量。
const DefaultPageSize = 3

// Page 是过滤结果中当前页的窗口。
type Page struct {
	Items      []Task `json:"items"`
	Number     int    `json:"number"`
	TotalPages int    `json:"total_pages"`
	PageSize   int    `json:"page_size"`
	TotalItems int    `json:"total_items"`
}

// HasPrev 判断是否存在上一页。
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext 判断是否存在下一页。
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// TotalPages 计算页数，空列表也视为一页。
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pages := (count + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage 把请求的页码限制在 [1, totalPages] 内。
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Paginate 截取第 page 页。超出范围的页码向下收敛到最后一页，不会报错。
func Paginate(filtered []Task, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	totalPages := TotalPages(len(filtered), pageSize)
	number := ClampPage(page, totalPages)

	start := (number - 1) * pageSize
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	items := make([]Task, 0, end-start)
	items = append(items, filtered[start:end]...)

	return Page{
		Items:      items,
		Number:     number,
		TotalPages: totalPages,
		PageSize:   pageSize,
		TotalItems: len(filtered),
	}
}
