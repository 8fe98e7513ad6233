package credential

import (
	"bufio"
	"io"
	"sort"
	"strings"
)

// Set holds canonical forms. The zero value is not usable; use NewSet.
type Set map[string]struct{}

func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, item := range items {
		s.Add(item)
	}
	return s
}

func (s Set) Add(item string) {
	s[item] = struct{}{}
}

func (s Set) Contains(item string) bool {
	_, ok := s[item]
	return ok
}

func (s Set) Len() int {
	return len(s)
}

// Sorted returns the members in lexicographic byte order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for item := range s {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// Union returns a new set with the members of s and every other set.
func (s Set) Union(others ...Set) Set {
	out := make(Set, len(s))
	for item := range s {
		out.Add(item)
	}
	for _, other := range others {
		for item := range other {
			out.Add(item)
		}
	}
	return out
}

// Difference returns the members of s that are not in other.
func (s Set) Difference(other Set) Set {
	out := make(Set)
	for item := range s {
		if !other.Contains(item) {
			out.Add(item)
		}
	}
	return out
}

// IsSubsetOf reports whether every member of s is in other.
func (s Set) IsSubsetOf(other Set) bool {
	for item := range s {
		if !other.Contains(item) {
			return false
		}
	}
	return true
}

// Encode renders the set in its on-disk form: sorted, one entry per line,
// newline terminated, no blank lines.
func (s Set) Encode() []byte {
	var b strings.Builder
	for _, item := range s.Sorted() {
		b.WriteString(item)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// DecodeSet reads a persisted set. Surrounding whitespace is trimmed and blank
// lines are skipped; lines are otherwise taken verbatim.
func DecodeSet(r io.Reader) (Set, error) {
	s := NewSet()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		s.Add(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return s, nil
}
