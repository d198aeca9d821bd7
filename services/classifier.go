package services

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// separator splits a raw label into a candidate author and a title.
const separator = ":"

// seriesTerms mark a candidate as a collection or series title.
var seriesTerms = []string{
	"The American Short Story",
	"The Best American",
	"American Poetry",
	"Collected Works",
	"Complete Works",
	"Selected Works",
	"Early Works",
	"Later Works",
	"Writings",
	"Letters",
	"Speeches",
	"Documents",
	"Chronicles",
	"Anthology",
	"Collection",
}

// placeTerms mark a two-word candidate as a place or event ("Civil War", "New England").
var placeTerms = []string{"War", "American", "New ", "Old "}

// Candidate is the text before the separator, with its words pre-split.
type Candidate struct {
	Text  string
	Words []string
}

// Rule is one entry of the author decision table.
type Rule struct {
	Name   string
	Match  func(c Candidate) bool
	IsName bool
}

// DefaultRules is evaluated in order; the first matching rule decides.
// The table favours keeping a label whole over inventing an author.
var DefaultRules = []Rule{
	{
		Name:   "definite-article",
		Match:  func(c Candidate) bool { return strings.HasPrefix(c.Text, "The ") },
		IsName: false,
	},
	{
		Name:   "series-term",
		Match:  func(c Candidate) bool { return containsAny(c.Text, seriesTerms) },
		IsName: false,
	},
	{
		Name:   "single-word-mixed-case",
		Match:  func(c Candidate) bool { return len(c.Words) == 1 && strings.IndexFunc(c.Text, unicode.IsLower) >= 0 },
		IsName: true,
	},
	{
		Name:   "single-word",
		Match:  func(c Candidate) bool { return len(c.Words) == 1 },
		IsName: false,
	},
	{
		Name:   "two-word-place-or-event",
		Match:  func(c Candidate) bool { return len(c.Words) == 2 && containsAny(c.Text, placeTerms) },
		IsName: false,
	},
	{
		Name: "capitalized-first-and-last",
		Match: func(c Candidate) bool {
			return len(c.Words) >= 2 && startsUpper(c.Words[0]) && startsUpper(c.Words[len(c.Words)-1])
		},
		IsName: true,
	},
}

// Classifier splits raw listing labels into author and title. It is a
// best-effort heuristic: unrecognised labels are kept whole as the title.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a Classifier using DefaultRules.
func NewClassifier() *Classifier {
	return &Classifier{rules: DefaultRules}
}

// NewClassifierWithRules creates a Classifier over a custom rule table.
func NewClassifierWithRules(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns the author and title for a raw label. An empty author
// means the label did not start with a recognisable personal name.
func (c *Classifier) Classify(rawLabel string) (author, title string) {
	before, after, found := strings.Cut(rawLabel, separator)
	if !found {
		return "", rawLabel
	}

	candidate := strings.TrimSpace(before)
	remainder := strings.TrimSpace(after)

	if remainder == "" || !c.IsLikelyAuthor(candidate) {
		return "", rawLabel
	}
	return candidate, remainder
}

// IsLikelyAuthor reports whether text reads as a personal name.
func (c *Classifier) IsLikelyAuthor(text string) bool {
	_, isName := c.Decide(text)
	return isName
}

// Decide returns the name of the deciding rule and its verdict. When no rule
// matches, the rule name is empty and the verdict is false.
func (c *Classifier) Decide(text string) (rule string, isName bool) {
	cand := Candidate{Text: text, Words: strings.Fields(text)}
	for _, r := range c.rules {
		if r.Match(cand) {
			return r.Name, r.IsName
		}
	}
	return "", false
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func startsUpper(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return r != utf8.RuneError && unicode.IsUpper(r)
}
