package history

// Set is the ordered collection of used candidate keys.
type Set struct {
	keys  []string
	index map[string]struct{}
}

// NewSet builds a set from keys, dropping duplicates while keeping first occurrence order.
func NewSet(keys ...string) *Set {
	s := &Set{index: make(map[string]struct{}, len(keys))}
	for _, key := range keys {
		s.Add(key)
	}
	return s
}

// Contains reports whether key was used.
func (s *Set) Contains(key string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[key]
	return ok
}

// Add appends key and reports whether the set changed.
func (s *Set) Add(key string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = struct{}{}
	s.keys = append(s.keys, key)
	return true
}

// Remove deletes key and reports whether it was present.
func (s *Set) Remove(key string) bool {
	if _, ok := s.index[key]; !ok {
		return false
	}
	delete(s.index, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of keys.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the keys in insertion order.
func (s *Set) Keys() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.keys...)
}
