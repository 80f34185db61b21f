// Package pagination provides the shared page/limit request parameters and
// response envelope used by list endpoints.
package pagination

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Request carries 1-based page parameters as supplied by the caller.
type Request struct {
	Page  int
	Limit int
}

// Normalize applies defaults and caps so stores never see invalid ranges.
func (r Request) Normalize() Request {
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	return r
}

// Offset returns the zero-based item offset for the normalized request.
func (r Request) Offset() int {
	return (r.Page - 1) * r.Limit
}

// Page is the envelope returned by paginated queries. Pages is
// ceil(Total/Limit) so callers can render page controls without re-counting.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// NewPage builds a response envelope from a normalized request.
func NewPage[T any](items []T, total int, req Request) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if total > 0 {
		pages = (total + req.Limit - 1) / req.Limit
	}
	return Page[T]{
		Items: items,
		Total: total,
		Page:  req.Page,
		Limit: req.Limit,
		Pages: pages,
	}
}
