// ABOUTME: Keyword retrieval over indexed chunks
// ABOUTME: Ranks chunks by how many distinct question terms they contain

package devserver

import (
	"sort"
	"strings"
	"unicode"

	"github.com/2389/genia/internal/store"
)

// retrievalK is how many passages an answer draws on.
const retrievalK = 5

// Passage is a retrieved chunk with the file it came from.
type Passage struct {
	Source string
	Text   string
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true, "what": true,
	"who": true, "how": true, "why": true, "when": true, "where": true, "which": true,
	"does": true, "did": true, "can": true, "you": true, "your": true, "our": true,
	"this": true, "that": true, "with": true, "from": true, "about": true, "there": true,
	"have": true, "has": true, "tell": true, "into": true, "its": true, "any": true,
}

// terms returns the distinct lowercase search terms of s.
func terms(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(w)) < 3 && !isNumber(w) {
			continue
		}
		if stopwords[w] {
			continue
		}
		out[w] = true
	}
	return out
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// retrieve returns up to k chunks sharing at least one term with question,
// best first. Ties keep index order.
func retrieve(chunks []*store.Chunk, question string, k int) []Passage {
	want := terms(question)
	if len(want) == 0 {
		return nil
	}

	type scored struct {
		chunk *store.Chunk
		score int
	}
	var hits []scored
	for _, c := range chunks {
		have := terms(c.Text)
		score := 0
		for t := range want {
			if have[t] {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{chunk: c, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > k {
		hits = hits[:k]
	}

	passages := make([]Passage, len(hits))
	for i, h := range hits {
		passages[i] = Passage{Source: h.chunk.Source, Text: h.chunk.Text}
	}
	return passages
}

// sourcesOf lists the distinct passage sources in rank order.
func sourcesOf(passages []Passage) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range passages {
		if !seen[p.Source] {
			seen[p.Source] = true
			out = append(out, p.Source)
		}
	}
	return out
}
