package pagination

const (
	// DefaultPerPage is the catalog page size when none is requested.
	DefaultPerPage = 4
	// MaxPerPage caps how many items one page may carry.
	MaxPerPage = 100
)

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page    int
	PerPage int
}

// Window describes one resolved page over a collection of Total items.
type Window struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
	Start      int
	End        int
}

// HasPrev reports whether a page precedes this one.
func (w Window) HasPrev() bool {
	return w.Page > 1
}

// HasNext reports whether a page follows this one.
func (w Window) HasNext() bool {
	return w.Page < w.TotalPages
}

// NormalizePerPage enforces the default and maximum page sizes.
func NormalizePerPage(perPage int) int {
	if perPage <= 0 {
		return DefaultPerPage
	}
	if perPage > MaxPerPage {
		return MaxPerPage
	}
	return perPage
}

// TotalPages returns ceil(total/perPage) for a normalized page size.
func TotalPages(total, perPage int) int {
	if total <= 0 {
		return 0
	}
	perPage = NormalizePerPage(perPage)
	return (total + perPage - 1) / perPage
}

// Resolve clamps the requested page into [1, TotalPages] and returns the slice bounds.
func Resolve(p Params, total int) Window {
	if total < 0 {
		total = 0
	}
	perPage := NormalizePerPage(p.PerPage)
	pages := TotalPages(total, perPage)

	page := p.Page
	if page < 1 {
		page = 1
	}
	switch {
	case pages == 0:
		page = 1
	case page > pages:
		page = pages
	}

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return Window{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
		Start:      start,
		End:        end,
	}
}
