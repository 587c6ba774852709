package services

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/projctx/internal/core/domain"
	"github.com/custodia-labs/projctx/internal/core/ports/driving"
	"github.com/custodia-labs/projctx/internal/logger"
)

// Ensure ContextAssembler implements the interface.
var _ driving.ContextAssembler = (*ContextAssembler)(nil)

// Budget margins in characters.
const (
	bodySafetyMargin     = 200
	overflowSafetyMargin = 50
	blockSeparator       = "\n\n---\n\n"
	ellipsis             = "..."
)

// ContextAssembler packs retrieval candidates into a bounded prompt context.
type ContextAssembler struct {
	defaultMaxChars int
}

// NewContextAssembler creates an assembler. defaultMaxChars applies when
// Build is called without a budget.
func NewContextAssembler(defaultMaxChars int) *ContextAssembler {
	if defaultMaxChars <= 0 {
		defaultMaxChars = domain.DefaultContextMaxChars
	}
	return &ContextAssembler{defaultMaxChars: defaultMaxChars}
}

// Build packs candidates in descending score order until the budget runs
// out. The block that overflows is cut short with an ellipsis and nothing
// after it is considered. Articles always lists every candidate.
func (a *ContextAssembler) Build(candidates []domain.RetrievalCandidate, maxChars int) domain.RAGContext {
	if maxChars <= 0 {
		maxChars = a.defaultMaxChars
	}

	sorted := make([]domain.RetrievalCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	articles := make([]domain.ContextArticle, len(sorted))
	for i, c := range sorted {
		articles[i] = domain.ContextArticle{
			ID:      c.Document.ID,
			Title:   c.Document.Title,
			Summary: c.Document.Summary,
			Tags:    c.Document.Tags,
			Score:   c.Score,
		}
	}

	var sb strings.Builder
	remaining := maxChars
	for i := range sorted {
		block := formatContextBlock(&sorted[i].Document, remaining)
		size := utf8.RuneCountInString(block)

		if size <= remaining {
			sb.WriteString(block)
			remaining -= size
			articles[i].Included = true
			continue
		}

		if cut := remaining - overflowSafetyMargin; cut > 0 {
			sb.WriteString(truncateRunes(block, cut))
			sb.WriteString(ellipsis)
			articles[i].Included = true
		}
		logger.Debug("Context budget reached after %d of %d documents", i+1, len(sorted))
		break
	}

	return domain.RAGContext{
		Articles: articles,
		Text:     sb.String(),
	}
}

// formatContextBlock renders one document, cutting the body to the space
// left after the safety margin.
func formatContextBlock(doc *domain.Document, remaining int) string {
	var sb strings.Builder
	sb.WriteString("## ")
	sb.WriteString(doc.Title)
	sb.WriteString("\n")
	if doc.Summary != "" {
		sb.WriteString("Summary: ")
		sb.WriteString(doc.Summary)
		sb.WriteString("\n")
	}
	sb.WriteString("Content: ")
	sb.WriteString(truncateRunes(doc.Body, max(0, remaining-bodySafetyMargin)))
	sb.WriteString(blockSeparator)
	return sb.String()
}
