// Package memory is the retrieval capability: a pre-populated document
// store the planner queries for contextual snippets. Ranking is a simple
// lexical overlap; quality of ranking is explicitly out of scope.
package memory

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Snippet is one indexed chunk of a source document.
type Snippet struct {
	Content  string
	Source   string
	Section  int
	Chunk    int
	Metadata map[string]string
}

type Store struct {
	mu       sync.RWMutex
	snippets []Snippet
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Add(sn Snippet) {
	s.mu.Lock()
	s.snippets = append(s.snippets, sn)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snippets)
}

var wordPattern = regexp.MustCompile(`[a-z0-9]+`)

// Query returns up to k snippets ranked by how many distinct query terms
// they contain. Snippets matching nothing are omitted.
func (s *Store) Query(text string, k int) []Snippet {
	terms := map[string]struct{}{}
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(w) > 2 {
			terms[w] = struct{}{}
		}
	}
	if len(terms) == 0 || k <= 0 {
		return nil
	}

	type scored struct {
		snippet Snippet
		score   int
	}

	s.mu.RLock()
	ranked := make([]scored, 0, len(s.snippets))
	for _, sn := range s.snippets {
		lower := strings.ToLower(sn.Content)
		score := 0
		for term := range terms {
			if strings.Contains(lower, term) {
				score++
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{snippet: sn, score: score})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	out := make([]Snippet, len(ranked))
	for i, r := range ranked {
		out[i] = r.snippet
	}
	return out
}
