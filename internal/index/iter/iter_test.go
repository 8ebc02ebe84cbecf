package iter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(it DocIterator) []uint64 {
	var out []uint64
	for id := it.DocID(); id != 0; id = it.Next() {
		out = append(out, id)
	}
	return out
}

func TestVectorDrain(t *testing.T) {
	v := NewVector([]uint64{1, 2, 5, 9})
	assert.Equal(t, []uint64{1, 2, 5, 9}, drain(v))
}

func TestVectorSkipTo(t *testing.T) {
	v := NewVector([]uint64{1, 2, 5, 9, 20})
	assert.Equal(t, uint64(9), v.SkipTo(7))
	assert.Equal(t, uint64(20), v.Next())
	assert.Equal(t, uint64(0), v.Next())
}

func TestVectorSkipToPastEnd(t *testing.T) {
	v := NewVector([]uint64{1, 2})
	assert.Equal(t, uint64(0), v.SkipTo(100))
	assert.Equal(t, uint64(0), v.DocID())
}

func TestOrUnion(t *testing.T) {
	a := NewVector([]uint64{1, 3, 5})
	b := NewVector([]uint64{2, 3, 7})
	or := NewOr(a, b)
	assert.Equal(t, []uint64{1, 2, 3, 5, 7}, drain(or))
}

func TestOrUnionThreeLeaves(t *testing.T) {
	a := NewVector([]uint64{1, 3, 5, 7})
	b := NewVector([]uint64{3, 4, 5, 7, 9, 11})
	c := NewVector([]uint64{1, 3, 7})
	or := NewOr(a, b, c)
	assert.Equal(t, []uint64{1, 3, 4, 5, 7, 9, 11}, drain(or))
}

func TestOrUnionWithNilChildUnchanged(t *testing.T) {
	a := NewVector([]uint64{1, 3, 5, 7})
	b := NewVector([]uint64{3, 4, 5, 7, 9, 11})
	c := NewVector([]uint64{1, 3, 7})
	or := NewOr(a, b, nil, c)
	assert.Equal(t, []uint64{1, 3, 4, 5, 7, 9, 11}, drain(or))
}

func TestOrEmptyChildren(t *testing.T) {
	or := NewOr(NewVector(nil), NewVector(nil))
	assert.Equal(t, uint64(0), or.DocID())
}

func TestAndIntersection(t *testing.T) {
	a := NewVector([]uint64{1, 2, 3, 5, 8})
	b := NewVector([]uint64{2, 3, 4, 8, 9})
	c := NewVector([]uint64{2, 3, 8, 10})
	and := NewAnd(a, b, c)
	assert.Equal(t, []uint64{2, 3, 8}, drain(and))
}

func TestAndIntersectionTwoLeaves(t *testing.T) {
	a := NewVector([]uint64{1, 3, 5, 7})
	b := NewVector([]uint64{3, 4, 5, 9})
	and := NewAnd(a, b)
	assert.Equal(t, []uint64{3, 5}, drain(and))
}

func TestAndNoOverlap(t *testing.T) {
	a := NewVector([]uint64{1, 2})
	b := NewVector([]uint64{3, 4})
	and := NewAnd(a, b)
	assert.Equal(t, uint64(0), and.DocID())
}

func TestAndSkipTo(t *testing.T) {
	a := NewVector([]uint64{1, 5, 10, 20})
	b := NewVector([]uint64{1, 5, 10, 20})
	and := NewAnd(a, b)
	assert.Equal(t, uint64(10), and.SkipTo(8))
	assert.Equal(t, uint64(20), and.Next())
}

func TestPhraseMatchesConsecutivePositions(t *testing.T) {
	positions := map[string]map[uint64][]uint32{
		"quick": {1: {0, 10}, 2: {3}},
		"brown": {1: {1}, 2: {3}},
		"fox":   {1: {2}, 2: {9}},
	}
	fetch := func(term string, id uint64) ([]uint32, error) {
		return positions[term][id], nil
	}
	children := []DocIterator{
		NewVector([]uint64{1, 2}),
		NewVector([]uint64{1, 2}),
		NewVector([]uint64{1, 2}),
	}
	p := NewPhrase([]string{"quick", "brown", "fox"}, children, fetch)
	assert.Equal(t, []uint64{1}, drain(p))
	require.NoError(t, p.Err())
}

func TestPhraseNoMatchWhenOutOfOrder(t *testing.T) {
	positions := map[string]map[uint64][]uint32{
		"brown": {1: {0}},
		"quick": {1: {1}},
	}
	fetch := func(term string, id uint64) ([]uint32, error) {
		return positions[term][id], nil
	}
	children := []DocIterator{NewVector([]uint64{1}), NewVector([]uint64{1})}
	p := NewPhrase([]string{"quick", "brown"}, children, fetch)
	assert.Equal(t, uint64(0), p.DocID())
}
