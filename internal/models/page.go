package models

// Page is one slice of an ordered collection together with its position.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Number     int   `json:"page"`
	Size       int   `json:"page_size"`
	NumPages   int   `json:"num_pages"`
	TotalCount int64 `json:"total"`
}

// HasPrevious reports whether a page precedes this one.
func (p Page[T]) HasPrevious() bool { return p.Number > 1 }

// HasNext reports whether a page follows this one.
func (p Page[T]) HasNext() bool { return p.Number < p.NumPages }

// PreviousNumber is the number of the preceding page.
func (p Page[T]) PreviousNumber() int { return p.Number - 1 }

// NextNumber is the number of the following page.
func (p Page[T]) NextNumber() int { return p.Number + 1 }

// Pages lists every page number, for rendering pagination links.
func (p Page[T]) Pages() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// PageWindow resolves a requested page number against a collection of total
// items. Requests below 1 resolve to the first page, requests past the end to
// the last page. An empty collection still has a single, empty page.
type PageWindow struct {
	Number   int
	NumPages int
	Offset   int
	Limit    int
}

// ResolvePage clamps requested into [1, numPages] for total items of the given size.
func ResolvePage(total int64, requested, size int) PageWindow {
	if size <= 0 {
		size = 1
	}
	numPages := int((total + int64(size) - 1) / int64(size))
	if numPages < 1 {
		numPages = 1
	}
	number := requested
	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}
	return PageWindow{
		Number:   number,
		NumPages: numPages,
		Offset:   (number - 1) * size,
		Limit:    size,
	}
}

// NewPage assembles a Page from a resolved window and the items read for it.
func NewPage[T any](items []T, w PageWindow, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Number:     w.Number,
		Size:       w.Limit,
		NumPages:   w.NumPages,
		TotalCount: total,
	}
}
