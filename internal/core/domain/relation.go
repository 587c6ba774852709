package domain

// RelationKind identifies the entity type a relation points at.
type RelationKind string

// Relation kinds.
const (
	RelationDocument  RelationKind = "document"
	RelationTask      RelationKind = "task"
	RelationPhase     RelationKind = "phase"
	RelationDashboard RelationKind = "dashboard"
)

// IsValid returns true if the relation kind is recognised.
func (k RelationKind) IsValid() bool {
	switch k {
	case RelationDocument, RelationTask, RelationPhase, RelationDashboard:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k RelationKind) String() string {
	return string(k)
}

// RelationTarget is a non-document entity a document may relate to.
// Text holds every searchable field, already concatenated.
type RelationTarget struct {
	Kind  RelationKind
	ID    string
	Title string
	Text  string
}

// RelatedDocument is a document ranked by embedding similarity.
type RelatedDocument struct {
	Document   Document
	Similarity float64
}

// RelatedItem is a cross-domain entity ranked by shared keywords.
type RelatedItem struct {
	Target RelationTarget

	// MatchedKeywords explains the match.
	MatchedKeywords []string
}
