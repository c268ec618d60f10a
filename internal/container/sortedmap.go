// Package container provides flat, binary-searched ordered containers.
//
// Both containers store their elements in contiguous sorted slices. Lookups
// are O(log n) binary searches, insertion and deletion shift the tail.
// Positions are plain indices into the backing array and are invalidated by
// any insert or delete.
package container

import (
	"cmp"
	"sort"
)

// SortedMap is a flat map ordered by key. Keys are unique.
// The zero value is an empty map ready for use.
type SortedMap[K cmp.Ordered, V any] struct {
	keys []K
	vals []V
}

// Len returns the number of entries.
func (m *SortedMap[K, V]) Len() int { return len(m.keys) }

// LowerBound returns the index of the first entry whose key is >= k.
// Returns Len() when no such entry exists.
func (m *SortedMap[K, V]) LowerBound(k K) int {
	return sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= k })
}

// UpperBound returns the index of the first entry whose key is > k.
// Returns Len() when no such entry exists.
func (m *SortedMap[K, V]) UpperBound(k K) int {
	return sort.Search(len(m.keys), func(i int) bool { return m.keys[i] > k })
}

// EqualRange returns the half-open index range of entries with key k.
// The range is empty (lo == hi) when the key is absent.
func (m *SortedMap[K, V]) EqualRange(k K) (lo, hi int) {
	lo = m.LowerBound(k)
	hi = lo
	if hi < len(m.keys) && m.keys[hi] == k {
		hi++
	}
	return lo, hi
}

// Find returns the index of the entry with key k, or -1.
func (m *SortedMap[K, V]) Find(k K) int {
	i := m.LowerBound(k)
	if i < len(m.keys) && m.keys[i] == k {
		return i
	}
	return -1
}

// Get returns the value mapped to k.
func (m *SortedMap[K, V]) Get(k K) (V, bool) {
	if i := m.Find(k); i >= 0 {
		return m.vals[i], true
	}
	var zero V
	return zero, false
}

// GetOrZero returns the value mapped to k, or the zero value when absent.
func (m *SortedMap[K, V]) GetOrZero(k K) V {
	v, _ := m.Get(k)
	return v
}

// Insert adds an entry, preserving key uniqueness.
// Returns false without modification when the key already exists.
func (m *SortedMap[K, V]) Insert(k K, v V) bool {
	i := m.LowerBound(k)
	if i < len(m.keys) && m.keys[i] == k {
		return false
	}
	m.insertAt(i, k, v)
	return true
}

// Set inserts or replaces the value for k.
func (m *SortedMap[K, V]) Set(k K, v V) {
	i := m.LowerBound(k)
	if i < len(m.keys) && m.keys[i] == k {
		m.vals[i] = v
		return
	}
	m.insertAt(i, k, v)
}

func (m *SortedMap[K, V]) insertAt(i int, k K, v V) {
	var zk K
	var zv V
	m.keys = append(m.keys, zk)
	m.vals = append(m.vals, zv)
	copy(m.keys[i+1:], m.keys[i:])
	copy(m.vals[i+1:], m.vals[i:])
	m.keys[i] = k
	m.vals[i] = v
}

// Delete removes the entry with key k. Reports whether it existed.
func (m *SortedMap[K, V]) Delete(k K) bool {
	i := m.Find(k)
	if i < 0 {
		return false
	}
	m.DeleteAt(i)
	return true
}

// DeleteAt removes the entry at index i.
func (m *SortedMap[K, V]) DeleteAt(i int) {
	copy(m.keys[i:], m.keys[i+1:])
	copy(m.vals[i:], m.vals[i+1:])
	m.keys = m.keys[:len(m.keys)-1]
	m.vals = m.vals[:len(m.vals)-1]
}

// KeyAt returns the key at index i.
func (m *SortedMap[K, V]) KeyAt(i int) K { return m.keys[i] }

// ValueAt returns the value at index i.
func (m *SortedMap[K, V]) ValueAt(i int) V { return m.vals[i] }

// SetValueAt replaces the value at index i.
func (m *SortedMap[K, V]) SetValueAt(i int, v V) { m.vals[i] = v }

// Clear removes all entries, keeping the backing storage.
func (m *SortedMap[K, V]) Clear() {
	m.keys = m.keys[:0]
	m.vals = m.vals[:0]
}
