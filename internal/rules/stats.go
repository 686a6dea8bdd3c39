package rules

// Stats accumulates failure counts per rule name. A name is present only
// once it has failed at least once; iteration order is first-insertion
// order, which for a single tool matches rule registration order.
type Stats struct {
	counts map[string]int
	order  []string
}

// NewStats returns an empty counter.
func NewStats() *Stats {
	return &Stats{counts: make(map[string]int)}
}

// Add increments the count for a rule name.
func (s *Stats) Add(name string) {
	if _, seen := s.counts[name]; !seen {
		s.order = append(s.order, name)
	}
	s.counts[name]++
}

// Update merges other into s additively. Order of processing does not
// affect the final counts.
func (s *Stats) Update(other *Stats) {
	if other == nil {
		return
	}
	for _, name := range other.order {
		if _, seen := s.counts[name]; !seen {
			s.order = append(s.order, name)
		}
		s.counts[name] += other.counts[name]
	}
}

// Count returns the failure count recorded for name.
func (s *Stats) Count(name string) int {
	return s.counts[name]
}

// Names returns the recorded rule names in insertion order.
func (s *Stats) Names() []string {
	return s.order
}

// Empty reports whether no failure has been recorded.
func (s *Stats) Empty() bool {
	return len(s.counts) == 0
}

// Total returns the sum of all recorded counts.
func (s *Stats) Total() int {
	total := 0
	for _, n := range s.counts {
		total += n
	}
	return total
}
