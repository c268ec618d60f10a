package container

import (
	"math/rand"
	"sort"
	"testing"
)

func TestSortedMapInsertUnique(t *testing.T) {
	var m SortedMap[uint32, string]

	if !m.Insert(5, "five") {
		t.Fatalf("Insert(5) = false, want true")
	}
	if !m.Insert(1, "one") {
		t.Fatalf("Insert(1) = false, want true")
	}
	if m.Insert(5, "other") {
		t.Errorf("duplicate Insert(5) = true, want false")
	}
	if got, _ := m.Get(5); got != "five" {
		t.Errorf("Get(5) = %q, want %q after duplicate insert", got, "five")
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}

func TestSortedMapOrderedIteration(t *testing.T) {
	var m SortedMap[int, int]
	for _, k := range []int{9, 3, 7, 1, 5} {
		m.Insert(k, k*10)
	}

	prev := -1
	for i := 0; i < m.Len(); i++ {
		k := m.KeyAt(i)
		if k <= prev {
			t.Fatalf("keys not strictly increasing: %d after %d", k, prev)
		}
		if m.ValueAt(i) != k*10 {
			t.Errorf("ValueAt(%d) = %d, want %d", i, m.ValueAt(i), k*10)
		}
		prev = k
	}
}

// TestSortedMapBoundsAgainstReference checks LowerBound/UpperBound/EqualRange
// against a reference sorted-array specification on random data.
func TestSortedMapBoundsAgainstReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var m SortedMap[int, struct{}]
	var ref []int
	for i := 0; i < 200; i++ {
		k := rng.Intn(50)
		if m.Insert(k, struct{}{}) {
			ref = append(ref, k)
		}
	}
	sort.Ints(ref)

	for k := -1; k <= 51; k++ {
		wantLo := sort.SearchInts(ref, k)
		wantHi := sort.Search(len(ref), func(i int) bool { return ref[i] > k })

		if got := m.LowerBound(k); got != wantLo {
			t.Errorf("LowerBound(%d) = %d, want %d", k, got, wantLo)
		}
		if got := m.UpperBound(k); got != wantHi {
			t.Errorf("UpperBound(%d) = %d, want %d", k, got, wantHi)
		}
		lo, hi := m.EqualRange(k)
		if lo != wantLo || hi != wantHi {
			t.Errorf("EqualRange(%d) = (%d,%d), want (%d,%d)", k, lo, hi, wantLo, wantHi)
		}
	}
}

func TestSortedMapDelete(t *testing.T) {
	var m SortedMap[uint32, int]
	for i := uint32(0); i < 10; i++ {
		m.Insert(i, int(i))
	}

	if !m.Delete(4) {
		t.Fatalf("Delete(4) = false, want true")
	}
	if m.Delete(4) {
		t.Errorf("second Delete(4) = true, want false")
	}
	if m.Find(4) >= 0 {
		t.Errorf("Find(4) found deleted key")
	}
	if m.Len() != 9 {
		t.Errorf("Len() = %d, want 9", m.Len())
	}
}

func TestSortedMapDeleteAtDuringScan(t *testing.T) {
	var m SortedMap[int, bool]
	for i := 0; i < 6; i++ {
		m.Insert(i, i%2 == 0)
	}

	// Remove entries flagged true, walking by index.
	i := 0
	for i < m.Len() {
		if m.ValueAt(i) {
			m.DeleteAt(i)
		} else {
			i++
		}
	}

	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", m.Len())
	}
	for i := 0; i < m.Len(); i++ {
		if m.KeyAt(i)%2 != 1 {
			t.Errorf("unexpected surviving key %d", m.KeyAt(i))
		}
	}
}

func TestSortedMapGetOrZero(t *testing.T) {
	var m SortedMap[string, int]
	m.Set("a", 1)

	if got := m.GetOrZero("a"); got != 1 {
		t.Errorf("GetOrZero(a) = %d, want 1", got)
	}
	if got := m.GetOrZero("missing"); got != 0 {
		t.Errorf("GetOrZero(missing) = %d, want 0", got)
	}
}

func TestSortedSet(t *testing.T) {
	var s SortedSet[string]

	for _, k := range []string{"b", "a", "c", "a"} {
		s.Insert(k)
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	for i, want := range []string{"a", "b", "c"} {
		if got := s.At(i); got != want {
			t.Errorf("At(%d) = %q, want %q", i, got, want)
		}
	}
	if !s.Has("b") {
		t.Errorf("Has(b) = false, want true")
	}
	if !s.Delete("b") || s.Has("b") {
		t.Errorf("Delete(b) did not remove element")
	}
	if s.Delete("zz") {
		t.Errorf("Delete(zz) = true, want false")
	}
}
