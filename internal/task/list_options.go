package task

// ListOptions controls how the derived view of a task set is computed.
type ListOptions struct {
	Search   string
	Status   StatusFilter
	Page     int
	PageSize int
}

// applyDefaults sanitizes the options and fills in default values.
func (opts *ListOptions) applyDefaults() {
	opts.Status, _ = ParseStatusFilter(string(opts.Status))
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
}

// ListOption mutates ListOptions.
type ListOption func(*ListOptions)

// WithSearch keeps tasks whose description contains term, ignoring case.
func WithSearch(term string) ListOption {
	return func(opts *ListOptions) {
		opts.Search = term
	}
}

// WithStatus keeps tasks matching the completion filter.
func WithStatus(status StatusFilter) ListOption {
	return func(opts *ListOptions) {
		opts.Status = status
	}
}

// WithPage selects the 1-based page to return.
func WithPage(page int) ListOption {
	return func(opts *ListOptions) {
		opts.Page = page
	}
}

// WithPageSize changes how many tasks a page holds.
func WithPageSize(size int) ListOption {
	return func(opts *ListOptions) {
		opts.PageSize = size
	}
}

// buildListOptions applies option functions on top of defaults.
func buildListOptions(opts []ListOption) ListOptions {
	options := ListOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	options.applyDefaults()
	return options
}

// Result is the derived view: filter, then paginate, then progress of the
// whole filtered list.
type Result struct {
	Options  ListOptions `json:"-"`
	Filtered []Task      `json:"-"`
	Page     Page        `json:"page"`
	Progress Progress    `json:"progress"`
}

// Query derives the visible page of tasks.
func Query(tasks []Task, opts ...ListOption) Result {
	options := buildListOptions(opts)
	filtered := Filter(tasks, options.Search, options.Status)
	return Result{
		Options:  options,
		Filtered: filtered,
		Page:     Paginate(filtered, options.Page, options.PageSize),
		Progress: ComputeProgress(filtered),
	}
}
