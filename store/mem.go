package store

import (
	"bytes"
	"sort"
	"sync"
)

type memEntry struct {
	key   []byte
	value string
}

// MemStore is an in-memory Store. Each variable is a slice of entries
// sorted by encoded key.
type MemStore struct {
	vars map[string][]memEntry
	mu   sync.RWMutex
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{vars: make(map[string][]memEntry)}
}

func (m *MemStore) search(entries []memEntry, key []byte) int {
	return sort.Search(len(entries), func(i int) bool {
		return bytes.Compare(entries[i].key, key) >= 0
	})
}

func (m *MemStore) Get(ref Ref) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.vars[ref.Name]
	key := EncodeKey(ref.Subs)
	i := m.search(entries, key)
	if i < len(entries) && bytes.Equal(entries[i].key, key) {
		return entries[i].value, true, nil
	}
	return "", false, nil
}

func (m *MemStore) Set(ref Ref, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.vars[ref.Name]
	key := EncodeKey(ref.Subs)
	i := m.search(entries, key)
	if i < len(entries) && bytes.Equal(entries[i].key, key) {
		entries[i].value = value
		return nil
	}
	entries = append(entries, memEntry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = memEntry{key: key, value: value}
	m.vars[ref.Name] = entries
	return nil
}

func (m *MemStore) Kill(ref Ref) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.vars[ref.Name]
	key := EncodeKey(ref.Subs)
	lo := m.search(entries, key)
	hi := m.search(entries, subtreeEnd(key))
	if lo == hi {
		return nil
	}
	entries = append(entries[:lo], entries[hi:]...)
	if len(entries) == 0 {
		delete(m.vars, ref.Name)
		return nil
	}
	m.vars[ref.Name] = entries
	return nil
}

func (m *MemStore) Unset(ref Ref) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.vars[ref.Name]
	key := EncodeKey(ref.Subs)
	i := m.search(entries, key)
	if i == len(entries) || !bytes.Equal(entries[i].key, key) {
		return nil
	}
	entries = append(entries[:i], entries[i+1:]...)
	if len(entries) == 0 {
		delete(m.vars, ref.Name)
		return nil
	}
	m.vars[ref.Name] = entries
	return nil
}

func (m *MemStore) Data(ref Ref) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.vars[ref.Name]
	key := EncodeKey(ref.Subs)
	i := m.search(entries, key)
	d := DataNone
	if i < len(entries) && bytes.Equal(entries[i].key, key) {
		d += DataValue
		i++
	}
	if i < len(entries) && bytes.Compare(entries[i].key, subtreeEnd(key)) < 0 {
		d += DataChildren
	}
	return d, nil
}

func (m *MemStore) Order(ref Ref, dir int) (string, error) {
	if err := checkOrder(ref, dir); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.vars[ref.Name]
	prefix, seed, fromEdge := orderBounds(ref)
	end := subtreeEnd(prefix)

	if dir > 0 {
		from := append(append([]byte(nil), prefix...), 0)
		if !fromEdge {
			from = subtreeEnd(seed)
		}
		i := m.search(entries, from)
		if i < len(entries) && bytes.Compare(entries[i].key, end) < 0 {
			return firstSubscript(entries[i].key, prefix)
		}
		return "", nil
	}

	before := end
	if !fromEdge {
		before = seed
	}
	i := m.search(entries, before) - 1
	if i >= 0 && len(entries[i].key) > len(prefix) && bytes.HasPrefix(entries[i].key, prefix) {
		return firstSubscript(entries[i].key, prefix)
	}
	return "", nil
}

func (m *MemStore) Names() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.vars))
	for n := range m.vars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Stash is a detached copy of one variable's nodes.
type Stash struct {
	entries []memEntry
}

// Empty reports whether the variable was undefined when stashed.
func (s Stash) Empty() bool { return len(s.entries) == 0 }

// Stash detaches the named variable, leaving it undefined.
func (m *MemStore) Stash(name string) Stash {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stash{entries: m.vars[name]}
	delete(m.vars, name)
	return s
}

// Snapshot copies the named variable without detaching it.
func (m *MemStore) Snapshot(name string) Stash {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stash{entries: append([]memEntry(nil), m.vars[name]...)}
}

// Restore replaces the named variable with a stash.
func (m *MemStore) Restore(name string, s Stash) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(s.entries) == 0 {
		delete(m.vars, name)
		return
	}
	m.vars[name] = append([]memEntry(nil), s.entries...)
}

// Clear removes every variable.
func (m *MemStore) Clear() {
	m.mu.Lock()
	m.vars = make(map[string][]memEntry)
	m.mu.Unlock()
}

func (m *MemStore) Close() error { return nil }
