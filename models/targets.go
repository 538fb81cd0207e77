package models

// TargetSet is the ordered set of exemplar names already emitted
type TargetSet struct {
	names []string
	index map[string]int
}

// NewTargetSet creates an empty set
func NewTargetSet() *TargetSet {
	return &TargetSet{index: make(map[string]int)}
}

// Add inserts name and reports whether it was new
func (s *TargetSet) Add(name string) bool {
	if _, ok := s.index[name]; ok {
		return false
	}
	s.index[name] = len(s.names)
	s.names = append(s.names, name)
	return true
}

// Contains reports whether name was added
func (s *TargetSet) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// IndexOf returns the insertion position of name, or -1
func (s *TargetSet) IndexOf(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Len returns the number of names
func (s *TargetSet) Len() int {
	return len(s.names)
}

// Names returns a copy of the names in insertion order
func (s *TargetSet) Names() []string {
	return append([]string(nil), s.names...)
}

// Reset empties the set
func (s *TargetSet) Reset() {
	s.names = s.names[:0]
	s.index = make(map[string]int)
}
