package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Paginate slices items for the requested page, normalising page and size.
func Paginate[T any](items []T, page, size int) ([]T, *Pagination) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	total := len(items)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return items[start:end], &Pagination{Page: page, PageSize: size, TotalCount: total}
}
