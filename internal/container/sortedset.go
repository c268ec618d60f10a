package container

import (
	"cmp"
	"sort"
)

// SortedSet is a flat set of unique ordered elements.
// The zero value is an empty set ready for use.
type SortedSet[K cmp.Ordered] struct {
	keys []K
}

// Len returns the number of elements.
func (s *SortedSet[K]) Len() int { return len(s.keys) }

// LowerBound returns the index of the first element >= k.
func (s *SortedSet[K]) LowerBound(k K) int {
	return sort.Search(len(s.keys), func(i int) bool { return s.keys[i] >= k })
}

// UpperBound returns the index of the first element > k.
func (s *SortedSet[K]) UpperBound(k K) int {
	return sort.Search(len(s.keys), func(i int) bool { return s.keys[i] > k })
}

// Has reports whether k is in the set.
func (s *SortedSet[K]) Has(k K) bool {
	i := s.LowerBound(k)
	return i < len(s.keys) && s.keys[i] == k
}

// Insert adds k. Returns false without modification when already present.
func (s *SortedSet[K]) Insert(k K) bool {
	i := s.LowerBound(k)
	if i < len(s.keys) && s.keys[i] == k {
		return false
	}
	var zero K
	s.keys = append(s.keys, zero)
	copy(s.keys[i+1:], s.keys[i:])
	s.keys[i] = k
	return true
}

// Delete removes k. Reports whether it existed.
func (s *SortedSet[K]) Delete(k K) bool {
	i := s.LowerBound(k)
	if i >= len(s.keys) || s.keys[i] != k {
		return false
	}
	copy(s.keys[i:], s.keys[i+1:])
	s.keys = s.keys[:len(s.keys)-1]
	return true
}

// At returns the element at index i.
func (s *SortedSet[K]) At(i int) K { return s.keys[i] }

// Clear removes all elements, keeping the backing storage.
func (s *SortedSet[K]) Clear() { s.keys = s.keys[:0] }
