// Package iter implements the lazy query-iterator algebra: Vector leaves
// over decoded posting lists, and Or/And/Phrase combinators that compose
// them into a single ascending stream of document ids without ever
// materializing an intermediate result set. The cursor shape (DocID/Next/
// SkipTo, 0 as the exhausted sentinel) follows the same convention as a
// forward-only bbolt cursor: a call returns the element it left the
// iterator positioned on, and 0 means "nothing left".
package iter

import "sort"

// DocIterator yields a strictly ascending, non-zero stream of document
// ids, terminated by 0.
type DocIterator interface {
	// DocID returns the id the iterator is currently positioned on, or 0
	// if exhausted.
	DocID() uint64
	// Next advances to the next id and returns it, or 0 if exhausted.
	Next() uint64
	// SkipTo advances forward to the first id >= target and returns it,
	// or 0 if none exists. target must not be less than DocID().
	SkipTo(target uint64) uint64
}

// Vector is a leaf iterator over an in-memory sorted, unique id slice,
// the decoded form of a single PostingList record.
type Vector struct {
	ids []uint64
	pos int
}

// NewVector wraps a sorted, duplicate-free id slice. Callers own ids and
// must not mutate it afterward.
func NewVector(ids []uint64) *Vector {
	return &Vector{ids: ids}
}

func (v *Vector) DocID() uint64 {
	if v.pos >= len(v.ids) {
		return 0
	}
	return v.ids[v.pos]
}

func (v *Vector) Next() uint64 {
	if v.pos < len(v.ids) {
		v.pos++
	}
	return v.DocID()
}

func (v *Vector) SkipTo(target uint64) uint64 {
	if v.pos < len(v.ids) && v.ids[v.pos] >= target {
		return v.DocID()
	}
	v.pos += sort.Search(len(v.ids)-v.pos, func(i int) bool { return v.ids[v.pos+i] >= target })
	return v.DocID()
}

// Or yields the union of its children's ids in ascending order, each id
// exactly once regardless of how many children contain it.
type Or struct {
	children []DocIterator
}

// NewOr builds a union iterator over children. Children are assumed to
// already be positioned at their first element. A nil child is treated
// as an always-exhausted iterator and simply skipped, the same as any
// child whose DocID() is 0.
func NewOr(children ...DocIterator) *Or {
	return &Or{children: children}
}

func (o *Or) current() uint64 {
	min := uint64(0)
	for _, c := range o.children {
		if c == nil {
			continue
		}
		id := c.DocID()
		if id == 0 {
			continue
		}
		if min == 0 || id < min {
			min = id
		}
	}
	return min
}

func (o *Or) DocID() uint64 {
	return o.current()
}

func (o *Or) Next() uint64 {
	cur := o.current()
	if cur == 0 {
		return 0
	}
	for _, c := range o.children {
		if c != nil && c.DocID() == cur {
			c.Next()
		}
	}
	return o.current()
}

func (o *Or) SkipTo(target uint64) uint64 {
	for _, c := range o.children {
		if c != nil && c.DocID() != 0 && c.DocID() < target {
			c.SkipTo(target)
		}
	}
	return o.current()
}

// And yields the intersection of its children's ids in ascending order.
type And struct {
	children []DocIterator
	cur      uint64
}

// NewAnd builds an intersection iterator over children, immediately
// aligning them on their first common id.
func NewAnd(children ...DocIterator) *And {
	a := &And{children: children}
	a.cur = a.align()
	return a
}

// align advances every child forward (never backward) until all children
// share the same current id, or one is exhausted.
func (a *And) align() uint64 {
	if len(a.children) == 0 {
		return 0
	}
	for {
		target := uint64(0)
		for _, c := range a.children {
			id := c.DocID()
			if id == 0 {
				return 0
			}
			if id > target {
				target = id
			}
		}
		allEqual := true
		for _, c := range a.children {
			if c.DocID() != target {
				if c.SkipTo(target) == 0 {
					return 0
				}
				allEqual = false
			}
		}
		if allEqual {
			return target
		}
	}
}

func (a *And) DocID() uint64 {
	return a.cur
}

func (a *And) Next() uint64 {
	if a.cur == 0 {
		return 0
	}
	next := a.cur + 1
	for _, c := range a.children {
		c.SkipTo(next)
	}
	a.cur = a.align()
	return a.cur
}

func (a *And) SkipTo(target uint64) uint64 {
	if a.cur >= target {
		return a.cur
	}
	for _, c := range a.children {
		c.SkipTo(target)
	}
	a.cur = a.align()
	return a.cur
}

// PositionsFetcher resolves the sorted, unique occurrence positions of a
// term within a document, the same record a PositionDB lookup decodes.
type PositionsFetcher func(term string, id uint64) ([]uint32, error)

// Phrase yields ids where every term in terms occurs at consecutive
// positions in the given order, built over an And of each term's posting
// iterator. The i-th term is required to occur at some base position p+i
// relative to a shared base p.
type Phrase struct {
	terms []string
	and   *And
	fetch PositionsFetcher
	cur   uint64
	err   error
}

// NewPhrase builds a phrase iterator. len(terms) must equal len(children).
func NewPhrase(terms []string, children []DocIterator, fetch PositionsFetcher) *Phrase {
	p := &Phrase{terms: terms, and: NewAnd(children...), fetch: fetch}
	p.cur = p.advanceToMatch(p.and.DocID())
	return p
}

// Err returns the first error encountered while resolving positions, if
// any. Once set, the iterator reports itself exhausted.
func (p *Phrase) Err() error {
	return p.err
}

func (p *Phrase) matches(id uint64) (bool, error) {
	if id == 0 {
		return false, nil
	}
	perTerm := make([][]uint32, len(p.terms))
	for i, term := range p.terms {
		positions, err := p.fetch(term, id)
		if err != nil {
			return false, err
		}
		perTerm[i] = positions
	}
	for _, base := range perTerm[0] {
		ok := true
		for i := 1; i < len(perTerm); i++ {
			if !containsUint32(perTerm[i], base+uint32(i)) {
				ok = false
				break
			}
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func containsUint32(s []uint32, v uint32) bool {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	return i < len(s) && s[i] == v
}

func (p *Phrase) advanceToMatch(id uint64) uint64 {
	if p.err != nil {
		return 0
	}
	for id != 0 {
		ok, err := p.matches(id)
		if err != nil {
			p.err = err
			return 0
		}
		if ok {
			return id
		}
		id = p.and.Next()
	}
	return 0
}

func (p *Phrase) DocID() uint64 {
	return p.cur
}

func (p *Phrase) Next() uint64 {
	p.cur = p.advanceToMatch(p.and.Next())
	return p.cur
}

func (p *Phrase) SkipTo(target uint64) uint64 {
	p.cur = p.advanceToMatch(p.and.SkipTo(target))
	return p.cur
}
