// Package classifier turns free-form post text into a structured movie
// update annotation using ordered keyword and alias tables.
package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/amaumene/reelwatch/internal/models"
	"golang.org/x/text/cases"
)

// Annotation is the structured result of classifying one post
type Annotation struct {
	MovieName       string            `json:"movie_name"`
	ActorName       string            `json:"actor_name"`
	DirectorName    string            `json:"director_name"`
	ProductionHouse string            `json:"production_house"`
	UpdateType      models.UpdateType `json:"update_type"`
	Language        models.Language   `json:"language"`
}

// Classifier holds compiled rules. It is immutable and safe for concurrent use.
type Classifier struct {
	actors    []Alias
	directors []Alias
	houses    []Alias
	types     []TypeRule
	languages []LanguageRule
	patterns  []*regexp.Regexp
}

// New compiles rules into a Classifier
func New(rules Rules) (*Classifier, error) {
	if err := rules.validate(); err != nil {
		return nil, err
	}

	c := &Classifier{
		actors:    foldAliases(rules.Actors),
		directors: foldAliases(rules.Directors),
		houses:    foldAliases(rules.ProductionHouses),
	}
	for _, rule := range rules.UpdateTypes {
		c.types = append(c.types, TypeRule{Type: rule.Type, Keywords: foldAll(rule.Keywords)})
	}
	for _, rule := range rules.Languages {
		c.languages = append(c.languages, LanguageRule{Language: rule.Language, Keywords: foldAll(rule.Keywords)})
	}
	for _, pattern := range rules.MoviePatterns {
		if !strings.HasPrefix(pattern, "(?i)") {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid movie pattern %q: %w", pattern, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("movie pattern %q needs a capture group", pattern)
		}
		c.patterns = append(c.patterns, re)
	}

	return c, nil
}

// MustDefault returns a Classifier over DefaultRules
func MustDefault() *Classifier {
	c, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return c
}

// Classify annotates text. fallback is used when no language keyword matches;
// an invalid fallback yields models.LanguageUnknown.
func (c *Classifier) Classify(text string, fallback models.Language) Annotation {
	folded := fold(text)

	a := Annotation{
		ActorName:       firstAlias(c.actors, folded),
		DirectorName:    firstAlias(c.directors, folded),
		ProductionHouse: firstAlias(c.houses, folded),
		UpdateType:      models.UpdateTypeNews,
		Language:        models.LanguageUnknown,
		MovieName:       c.movieName(text),
	}

	for _, rule := range c.types {
		if containsAny(folded, rule.Keywords) {
			a.UpdateType = rule.Type
			break
		}
	}

	matched := false
	for _, rule := range c.languages {
		if containsAny(folded, rule.Keywords) {
			a.Language = rule.Language
			matched = true
			break
		}
	}
	if !matched && fallback.Valid() {
		a.Language = fallback
	}

	return a
}

// movieName applies the patterns in order and keeps the first match of the
// first pattern that matches at all
func (c *Classifier) movieName(text string) string {
	for _, re := range c.patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

func firstAlias(table []Alias, folded string) string {
	for _, a := range table {
		if strings.Contains(folded, a.Phrase) {
			return a.Name
		}
	}
	return ""
}

func containsAny(folded string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(folded, k) {
			return true
		}
	}
	return false
}

// fold builds a fresh Caser per call since a Caser must not be shared
func fold(s string) string {
	return cases.Fold().String(s)
}

func foldAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = fold(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func foldAliases(table []Alias) []Alias {
	out := make([]Alias, 0, len(table))
	for _, a := range table {
		out = append(out, Alias{Phrase: fold(strings.TrimSpace(a.Phrase)), Name: a.Name})
	}
	return out
}
