package purchasing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PriorityAll disables priority filtering in a Filter.
const PriorityAll = "all"

// Filter narrows the visible slice of the pool. The zero value shows
// everything.
type Filter struct {
	Search   string
	Priority string
}

func (f Filter) matches(c Candidate) bool {
	if f.Priority != "" && f.Priority != PriorityAll && !strings.EqualFold(f.Priority, string(c.Priority)) {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), term) ||
		strings.Contains(strings.ToLower(c.SKU), term) ||
		strings.Contains(strings.ToLower(c.Category), term)
}

// SelectionStore holds the working copy of the candidate pool. Keys
// index into an id map for O(1) mutation while the order slice keeps
// the reconciled ordering intact. Mutations always target canonical
// state, so toggling a filter never loses in-progress edits.
type SelectionStore struct {
	order  []string
	byKey  map[string]*Candidate
	filter Filter
	agg    Aggregate
}

// NewSelectionStore indexes a reconciled pool.
func NewSelectionStore(pool []Candidate) *SelectionStore {
	s := &SelectionStore{
		order: make([]string, 0, len(pool)),
		byKey: make(map[string]*Candidate, len(pool)),
	}
	for i := range pool {
		c := pool[i]
		if _, dup := s.byKey[c.Key]; dup {
			continue
		}
		s.order = append(s.order, c.Key)
		s.byKey[c.Key] = &c
	}
	s.agg = computeAggregate(s.snapshot())
	return s
}

// SetIncluded flips inclusion for one candidate. Re-including restores
// the last entered quantity, price and priority; they are never reset.
func (s *SelectionStore) SetIncluded(key string, included bool) {
	c, ok := s.byKey[key]
	if !ok || c.Included == included {
		return
	}
	c.Included = included
	s.agg = computeAggregate(s.snapshot())
}

// SetQuantity sets the order quantity, clamped to at least 1.
// Unknown keys are a no-op.
func (s *SelectionStore) SetQuantity(key string, qty int) {
	c, ok := s.byKey[key]
	if !ok {
		return
	}
	if qty < 1 {
		qty = 1
	}
	c.Qty = qty
	s.agg = computeAggregate(s.snapshot())
}

// SetPrice sets the unit price, clamped to zero or above.
func (s *SelectionStore) SetPrice(key string, price decimal.Decimal) {
	c, ok := s.byKey[key]
	if !ok {
		return
	}
	if price.IsNegative() {
		price = decimal.Zero
	}
	c.UnitPrice = price
	s.agg = computeAggregate(s.snapshot())
}

// SetPriority overrides the derived priority. Overrides stick: nothing
// recomputes the priority afterwards within the session.
func (s *SelectionStore) SetPriority(key string, p Priority) {
	c, ok := s.byKey[key]
	if !ok || !ValidPriority(p) {
		return
	}
	c.Priority = p
	s.agg = computeAggregate(s.snapshot())
}

// SetFilter replaces the active filter. Pure view state: aggregates
// are not recomputed.
func (s *SelectionStore) SetFilter(f Filter) {
	s.filter = f
}

// ActiveFilter returns the filter currently scoping Visible and SelectAll.
func (s *SelectionStore) ActiveFilter() Filter {
	return s.filter
}

// Visible projects the candidates matching the active filter, in pool
// order. The returned slice is a copy; mutating it has no effect.
func (s *SelectionStore) Visible() []Candidate {
	out := make([]Candidate, 0, len(s.order))
	for _, key := range s.order {
		c := s.byKey[key]
		if s.filter.matches(*c) {
			out = append(out, *c)
		}
	}
	return out
}

// SelectAll sets inclusion for exactly the candidates visible under the
// active filter; everything outside the filter is untouched.
func (s *SelectionStore) SelectAll(included bool) {
	changed := false
	for _, key := range s.order {
		c := s.byKey[key]
		if !s.filter.matches(*c) {
			continue
		}
		if c.Included != included {
			c.Included = included
			changed = true
		}
	}
	if changed {
		s.agg = computeAggregate(s.snapshot())
	}
}

// Pool returns a copy of the full canonical pool in order.
func (s *SelectionStore) Pool() []Candidate {
	return s.snapshot()
}

// Selected returns the included candidates in pool order.
func (s *SelectionStore) Selected() []Candidate {
	out := make([]Candidate, 0, len(s.order))
	for _, key := range s.order {
		if c := s.byKey[key]; c.Included {
			out = append(out, *c)
		}
	}
	return out
}

// Aggregate returns the cached projection over canonical state.
func (s *SelectionStore) Aggregate() Aggregate {
	return s.agg
}

func (s *SelectionStore) snapshot() []Candidate {
	out := make([]Candidate, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, *s.byKey[key])
	}
	return out
}
