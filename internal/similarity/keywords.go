package similarity

import (
	"math"
	"strings"
	"unicode"
)

// stopWords are dropped during keyword extraction
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true,
	"has": true, "have": true, "this": true, "that": true, "with": true,
	"from": true, "they": true, "been": true, "were": true, "their": true,
	"there": true, "when": true, "will": true, "would": true, "what": true,
	"which": true, "your": true, "about": true, "into": true, "after": true,
	"than": true, "then": true, "them": true, "these": true, "some": true,
	"could": true, "other": true, "very": true, "just": true, "also": true,
	"being": true, "does": true, "doing": true, "cannot": true, "while": true,
	"please": true, "getting": true, "issue": true, "problem": true,
}

// ExtractKeywords tokenizes text into a keyword set: lowercase, punctuation
// stripped, tokens of length <= 2 dropped, stop words dropped, alphabetic
// tokens only.
func ExtractKeywords(text string) map[string]bool {
	keywords := make(map[string]bool)
	if text == "" {
		return keywords
	}

	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	for _, token := range strings.Fields(b.String()) {
		if len(token) <= 2 || stopWords[token] {
			continue
		}
		keywords[token] = true
	}

	return keywords
}

// Jaccard computes the Jaccard similarity between two keyword sets.
// Two empty sets score 0, not 1: no evidence is not a match.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Cosine computes cosine similarity between two vectors, clamped to [0, 1].
// Mismatched lengths or zero vectors score 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
