package paginator

import (
	"errors"
	"testing"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		raw          string
		total        int
		wantNumber   int
		wantNumPages int
	}{
		{"", 13, 1, 2},
		{"1", 13, 1, 2},
		{"2", 13, 2, 2},
		{"3", 13, 2, 2},
		{"0", 13, 1, 2},
		{"-4", 13, 1, 2},
		{"abc", 13, 1, 2},
		{"1", 0, 1, 1},
		{"5", 0, 1, 1},
		{"2", 20, 2, 2},
		{"3", 21, 3, 3},
	}
	for _, tt := range tests {
		number, numPages := Number(tt.raw, tt.total, 10)
		if number != tt.wantNumber || numPages != tt.wantNumPages {
			t.Errorf("Number(%q, %d) = %d/%d, want %d/%d", tt.raw, tt.total, number, numPages, tt.wantNumber, tt.wantNumPages)
		}
	}
}

func items(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func paginateSlice(t *testing.T, all []int, raw string) *Page[int] {
	t.Helper()
	p, err := Paginate(raw, DefaultPerPage,
		func() (int, error) { return len(all), nil },
		func(limit, offset int) ([]int, error) {
			end := offset + limit
			if end > len(all) {
				end = len(all)
			}
			return all[offset:end], nil
		})
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	return p
}

func TestPaginateFirstAndLastPage(t *testing.T) {
	all := items(13)

	first := paginateSlice(t, all, "")
	if first.Len() != DefaultPerPage {
		t.Fatalf("first page has %d items, want %d", first.Len(), DefaultPerPage)
	}
	if !first.HasNext() || first.HasPrevious() || first.NextNumber() != 2 {
		t.Fatalf("first page navigation wrong: %+v", first)
	}

	last := paginateSlice(t, all, "2")
	if last.Len() != 13%DefaultPerPage {
		t.Fatalf("last page has %d items, want %d", last.Len(), 13%DefaultPerPage)
	}
	if last.HasNext() || !last.HasPrevious() || last.PreviousNumber() != 1 {
		t.Fatalf("last page navigation wrong: %+v", last)
	}
	if last.Items[0] != 10 {
		t.Fatalf("last page starts at %d, want 10", last.Items[0])
	}
	if got := last.Range(); len(got) != 2 || got[1] != 2 {
		t.Fatalf("range %v", got)
	}
}

func TestPaginateEmpty(t *testing.T) {
	fetched := false
	p, err := Paginate("3", 10,
		func() (int, error) { return 0, nil },
		func(limit, offset int) ([]string, error) {
			fetched = true
			return nil, nil
		})
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if fetched {
		t.Fatal("fetch called for empty result")
	}
	if p.Number != 1 || p.NumPages != 1 || p.Len() != 0 || p.HasOtherPages() {
		t.Fatalf("empty page: %+v", p)
	}
}

func TestPaginatePropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := Paginate("1", 10,
		func() (int, error) { return 0, boom },
		func(limit, offset int) ([]int, error) { return nil, nil })
	if !errors.Is(err, boom) {
		t.Fatalf("count error: got %v", err)
	}
	_, err = Paginate("1", 10,
		func() (int, error) { return 5, nil },
		func(limit, offset int) ([]int, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("fetch error: got %v", err)
	}
}
