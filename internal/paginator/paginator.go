// Package paginator slices ordered result sets into fixed-size pages.
package paginator

import "strconv"

// DefaultPerPage is the number of posts shown on a listing page.
const DefaultPerPage = 10

// Page is one page of items plus the numbers needed to link its neighbours.
type Page[T any] struct {
	Items    []T
	Number   int
	PerPage  int
	Total    int
	NumPages int
}

// Number resolves the requested page against total items. A missing,
// malformed or non-positive page yields 1; a page past the end yields the
// last page. An empty result still has one page.
func Number(raw string, total, perPage int) (number, numPages int) {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	numPages = (total + perPage - 1) / perPage
	if numPages < 1 {
		numPages = 1
	}
	number, err := strconv.Atoi(raw)
	if err != nil || number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}
	return number, numPages
}

// Paginate counts the result set, resolves raw to a page number and fetches
// that page's items with limit/offset.
func Paginate[T any](raw string, perPage int, count func() (int, error), fetch func(limit, offset int) ([]T, error)) (*Page[T], error) {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	total, err := count()
	if err != nil {
		return nil, err
	}
	number, numPages := Number(raw, total, perPage)
	p := &Page[T]{Number: number, PerPage: perPage, Total: total, NumPages: numPages}
	if total == 0 {
		return p, nil
	}
	p.Items, err = fetch(perPage, p.Offset())
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Page[T]) Offset() int {
	return (p.Number - 1) * p.PerPage
}

func (p *Page[T]) Len() int {
	return len(p.Items)
}

func (p *Page[T]) HasNext() bool {
	return p.Number < p.NumPages
}

func (p *Page[T]) HasPrevious() bool {
	return p.Number > 1
}

func (p *Page[T]) HasOtherPages() bool {
	return p.HasNext() || p.HasPrevious()
}

func (p *Page[T]) NextNumber() int {
	return p.Number + 1
}

func (p *Page[T]) PreviousNumber() int {
	return p.Number - 1
}

// Range lists every page number, for rendering page links.
func (p *Page[T]) Range() []int {
	nums := make([]int, p.NumPages)
	for i := range nums {
		nums[i] = i + 1
	}
	return nums
}
