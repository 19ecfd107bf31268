package sitegen

import "strconv"

// DefaultPerPage is the number of articles on a listing page.
const DefaultPerPage = 5

// Pagination describes where a listing page sits among its siblings.
type Pagination struct {
	CurrentPage  int
	TotalPages   int
	HasPrevious  bool
	HasNext      bool
	PreviousPage int // 0 when HasPrevious is false
	NextPage     int // 0 when HasNext is false
}

// PlanPage computes navigation for page current of totalCount articles.
// An empty corpus yields zero pages and no error for page 1 so that an empty
// index can still be rendered; any page past the last one is ErrNotFound.
func PlanPage(current, totalCount, perPage int) (Pagination, error) {
	if current < 1 || perPage < 1 || totalCount < 0 {
		return Pagination{}, ErrNotFound
	}
	total := (totalCount + perPage - 1) / perPage
	if total == 0 {
		if current > 1 {
			return Pagination{}, ErrNotFound
		}
		return Pagination{CurrentPage: current}, nil
	}
	if current > total {
		return Pagination{}, ErrNotFound
	}
	p := Pagination{
		CurrentPage: current,
		TotalPages:  total,
		HasPrevious: current > 1,
		HasNext:     current < total,
	}
	if p.HasPrevious {
		p.PreviousPage = current - 1
	}
	if p.HasNext {
		p.NextPage = current + 1
	}
	return p, nil
}

// PagePath returns the site-relative path of listing page n.
// Page 1 is the site root.
func PagePath(n int) string {
	if n <= 1 {
		return "/"
	}
	return "/page/" + strconv.Itoa(n)
}
