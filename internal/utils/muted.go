package utils

import (
	"bufio"
	"os"
	"strings"
)

// MutedTerms holds terms that keep a post out of the store
type MutedTerms struct {
	terms []string
}

// NewMutedTerms builds a list from in-memory terms
func NewMutedTerms(terms ...string) *MutedTerms {
	m := &MutedTerms{}
	for _, term := range terms {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			m.terms = append(m.terms, term)
		}
	}
	return m
}

// LoadMutedTerms loads one term per line from path. Blank lines and lines
// starting with # are skipped. A missing file yields an empty list.
func LoadMutedTerms(path string) (*MutedTerms, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &MutedTerms{}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var terms []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		term := strings.TrimSpace(scanner.Text())
		if term != "" && !strings.HasPrefix(term, "#") {
			terms = append(terms, term)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return NewMutedTerms(terms...), nil
}

// Match reports whether text contains a muted term, case-insensitively
func (m *MutedTerms) Match(text string) (bool, string) {
	if m == nil || len(m.terms) == 0 {
		return false, ""
	}

	lower := strings.ToLower(text)
	for _, term := range m.terms {
		if strings.Contains(lower, term) {
			return true, term
		}
	}

	return false, ""
}

// Len returns the number of loaded terms
func (m *MutedTerms) Len() int {
	if m == nil {
		return 0
	}
	return len(m.terms)
}
