// Package batch splits a filtered record list into fixed-size pages
// ("lots") that are exported one at a time.
package batch

import (
	"errors"
	"fmt"
)

// DefaultSize is the number of records per lot.
const DefaultSize = 20

var (
	// ErrNoMatches is returned when an export is requested on an empty list.
	ErrNoMatches = errors.New("Aucune fiche ne correspond aux critères.")
	// ErrOutOfRange is returned for a page index outside [0, PageCount).
	ErrOutOfRange = errors.New("batch index out of range")
)

// Planner pages a list. It holds the current selection for callers that
// drive it interactively; the zero value is not usable, use NewPlanner.
type Planner[T any] struct {
	size    int
	items   []T
	current int
}

// NewPlanner returns a planner with the given page size. Non-positive sizes
// fall back to DefaultSize.
func NewPlanner[T any](size int) *Planner[T] {
	if size <= 0 {
		size = DefaultSize
	}
	return &Planner[T]{size: size}
}

// Load replaces the list and resets the current page to 0.
func (p *Planner[T]) Load(items []T) {
	p.items = items
	p.current = 0
}

// Size is the page size.
func (p *Planner[T]) Size() int { return p.size }

// Count is the number of loaded items.
func (p *Planner[T]) Count() int { return len(p.items) }

// PageCount is ceil(Count/Size).
func (p *Planner[T]) PageCount() int {
	return (len(p.items) + p.size - 1) / p.size
}

// Current is the selected page index.
func (p *Planner[T]) Current() int { return p.current }

// Select makes page i current.
func (p *Planner[T]) Select(i int) error {
	if i < 0 || i >= p.PageCount() {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, p.PageCount())
	}
	p.current = i
	return nil
}

// Page returns items [i*Size, min((i+1)*Size, Count)).
func (p *Planner[T]) Page(i int) ([]T, error) {
	if i < 0 || i >= p.PageCount() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, p.PageCount())
	}
	start := i * p.size
	end := min(start+p.size, len(p.items))
	return p.items[start:end], nil
}

// CurrentPage returns the selected page, or an empty slice when nothing is
// loaded.
func (p *Planner[T]) CurrentPage() []T {
	if p.PageCount() == 0 {
		return []T{}
	}
	page, _ := p.Page(p.current)
	return page
}

// Range describes one page for display.
type Range struct {
	Index  int    `json:"index"`
	Number int    `json:"number"`
	First  int    `json:"first"`
	Last   int    `json:"last"`
	Label  string `json:"label"`
}

// Ranges lists every page with 1-based positions, e.g. "Lot 1 (1 - 20)".
func (p *Planner[T]) Ranges() []Range {
	out := make([]Range, 0, p.PageCount())
	for i := range p.PageCount() {
		first := i*p.size + 1
		last := min((i+1)*p.size, len(p.items))
		out = append(out, Range{
			Index:  i,
			Number: i + 1,
			First:  first,
			Last:   last,
			Label:  fmt.Sprintf("Lot %d (%d - %d)", i+1, first, last),
		})
	}
	return out
}
