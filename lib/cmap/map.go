package cmap

import "sync"

// Map is a typed wrapper around sync.Map.
type Map[K, V any] struct {
	m sync.Map
}

func NewMap[K, V any]() *Map[K, V] {
	return &Map[K, V]{}
}

func (m *Map[K, V]) Set(k K, v V) {
	m.m.Store(k, v)
}

func (m *Map[K, V]) Delete(k K) {
	m.m.Delete(k)
}

// Range calls f for every entry until f returns false.
func (m *Map[K, V]) Range(f func(k K, v V) bool) {
	m.m.Range(func(k, v any) bool {
		return f(k.(K), v.(V))
	})
}

func (m *Map[K, V]) Len() int {
	n := 0
	m.m.Range(func(_, _ any) bool {
		n++
		return true
	})

	return n
}
