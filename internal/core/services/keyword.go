package services

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

// keywordScorer implements the heuristic scoring used by the full-text and
// keyword tiers.
type keywordScorer struct {
	weights domain.ScoringWeights
}

// keywordQuery is a query prepared for scoring.
type keywordQuery struct {
	words  []string
	phrase string
}

func newKeywordScorer(weights domain.ScoringWeights) keywordScorer {
	return keywordScorer{weights: weights}
}

// prepare lowercases and tokenises the query, keeping unique words longer
// than MinWordLength runes.
func (k keywordScorer) prepare(query string) keywordQuery {
	phrase := strings.ToLower(strings.TrimSpace(query))

	seen := make(map[string]bool)
	var words []string
	for _, w := range tokenize(phrase) {
		if utf8.RuneCountInString(w) <= k.weights.MinWordLength || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}

	return keywordQuery{words: words, phrase: phrase}
}

// score returns the relevance of doc and whether any query word matched.
func (k keywordScorer) score(q keywordQuery, doc *domain.Document) (float64, bool) {
	if len(q.words) == 0 {
		return 0, false
	}

	title := strings.ToLower(doc.Title)
	summary := strings.ToLower(doc.Summary)
	body := strings.ToLower(doc.Body)
	combined := title + " " + summary + " " + body

	var anyMatch, titleMatch, summaryMatch, bodyMatch int
	for _, w := range q.words {
		if strings.Contains(combined, w) {
			anyMatch++
		}
		if strings.Contains(title, w) {
			titleMatch++
		}
		if strings.Contains(summary, w) {
			summaryMatch++
		}
		if strings.Contains(body, w) {
			bodyMatch++
		}
	}
	if anyMatch == 0 {
		return 0, false
	}

	n := float64(len(q.words))
	w := k.weights
	score := w.WordMatch*float64(anyMatch)/n +
		w.TitleMatch*float64(titleMatch)/n +
		w.SummaryMatch*float64(summaryMatch)/n +
		w.BodyMatch*float64(bodyMatch)/n

	switch {
	case q.phrase == "":
	case strings.Contains(title, q.phrase):
		score += w.PhraseInTitle
	case strings.Contains(summary, q.phrase):
		score += w.PhraseInSummary
	case strings.Contains(body, q.phrase):
		score += w.PhraseInBody
	}

	return clamp01(score), true
}

// rankDecay is the penalty applied to the full-text hit at rank (0-based).
func (k keywordScorer) rankDecay(rank int) float64 {
	if k.weights.RankDecayDivisor <= 0 {
		return 1
	}
	return math.Max(k.weights.RankDecayFloor, 1-float64(rank)/k.weights.RankDecayDivisor)
}

// rescoreFullText scores a full-text hit. The store already matched it, so
// the result never drops below MatchFloor.
func (k keywordScorer) rescoreFullText(q keywordQuery, doc *domain.Document, rank int) float64 {
	score, _ := k.score(q, doc)
	score *= k.rankDecay(rank)
	return clamp01(math.Max(score, k.weights.MatchFloor))
}

// sanitizeTerms splits a query into bare lowercase terms safe to hand to a
// text-search operator. Punctuation and operator characters are dropped.
func sanitizeTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, t := range tokenize(strings.ToLower(query)) {
		if seen[t] {
			continue
		}
		seen[t] = true
		terms = append(terms, t)
	}
	return terms
}

// tokenize splits on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
