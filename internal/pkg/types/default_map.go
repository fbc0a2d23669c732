package types

// DefaultMap is a map that creates missing entries on read with a
// user-supplied constructor and remembers the order keys were first seen.
//
//	groups := NewDefaultMap[string, []int](func() []int { return nil })
//	groups.Set("a", append(groups.Get("a"), 1))
//	for _, k := range groups.Keys() { ... } // first-seen order
type DefaultMap[K comparable, V any] struct {
	data        map[K]V
	order       []K
	defaultFunc func() V
}

// NewDefaultMap returns an empty DefaultMap that fills gaps with defaultFunc.
func NewDefaultMap[K comparable, V any](defaultFunc func() V) DefaultMap[K, V] {
	return DefaultMap[K, V]{
		data:        make(map[K]V),
		defaultFunc: defaultFunc,
	}
}

// Get returns the value stored under key, storing and returning a fresh
// default when key is absent.
func (d *DefaultMap[K, V]) Get(key K) V {
	val, ok := d.data[key]
	if ok {
		return val
	}

	val = d.defaultFunc()
	d.Set(key, val)
	return val
}

// Set stores val under key.
func (d *DefaultMap[K, V]) Set(key K, val V) {
	if _, ok := d.data[key]; !ok {
		d.order = append(d.order, key)
	}
	d.data[key] = val
}

// Keys returns the keys in the order they were first stored.
func (d *DefaultMap[K, V]) Keys() []K {
	return append([]K(nil), d.order...)
}

// Len returns the number of keys.
func (d *DefaultMap[K, V]) Len() int {
	return len(d.data)
}

// ToMap exposes the underlying map.
func (d *DefaultMap[K, V]) ToMap() map[K]V {
	return d.data
}
