package domain

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination параметры пагинации
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPagination нормализует параметры из запроса
func NewPagination(page, pageSize int) Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func (p Pagination) Limit() int {
	return p.PageSize
}

// TotalPages считает число страниц для total записей
func (p Pagination) TotalPages(total int) int {
	pages := total / p.PageSize
	if total%p.PageSize > 0 {
		pages++
	}
	return pages
}

// TaskFilter фильтры для списка задач
type TaskFilter struct {
	Status *TaskStatus
}

// TaskListResult страница задач
type TaskListResult struct {
	Tasks      []*Task
	Total      int
	Pagination Pagination
}
