package batch

import (
	"arefa/internal/export/filter"
)

// Listing ties the source list, the active criteria and the planner
// together. Any change of source or criteria re-filters and resets the
// selected lot to the first one.
type Listing[T filter.Record] struct {
	source   []T
	criteria filter.Criteria
	filtered []T
	planner  *Planner[T]
}

// NewListing returns an empty listing with the given page size.
func NewListing[T filter.Record](size int) *Listing[T] {
	l := &Listing[T]{planner: NewPlanner[T](size)}
	l.refresh()
	return l
}

// SetRecords replaces the source list.
func (l *Listing[T]) SetRecords(records []T) {
	l.source = records
	l.refresh()
}

// SetCriteria replaces the criteria.
func (l *Listing[T]) SetCriteria(c filter.Criteria) {
	l.criteria = c
	l.refresh()
}

func (l *Listing[T]) refresh() {
	l.filtered = filter.Apply(l.source, l.criteria)
	l.planner.Load(l.filtered)
}

// Criteria returns the active criteria.
func (l *Listing[T]) Criteria() filter.Criteria { return l.criteria }

// Filtered returns the filtered list in source order.
func (l *Listing[T]) Filtered() []T { return l.filtered }

// Planner exposes the pager over the filtered list.
func (l *Listing[T]) Planner() *Planner[T] { return l.planner }

// Export returns the selected lot, or ErrNoMatches when the filtered list
// is empty.
func (l *Listing[T]) Export() (index int, page []T, err error) {
	if len(l.filtered) == 0 {
		return 0, nil, ErrNoMatches
	}
	return l.planner.Current(), l.planner.CurrentPage(), nil
}
