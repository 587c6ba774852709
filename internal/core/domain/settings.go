package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// AllEmbeddingProviders returns the supported providers, local first.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI}
}

// ProviderSettings configures one embedding provider.
type ProviderSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the provider is set up.
func (p ProviderSettings) IsConfigured() bool {
	if !p.Provider.IsValid() {
		return false
	}
	if p.Provider.RequiresAPIKey() && p.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingSettings holds embedding configuration.
type EmbeddingSettings struct {
	// Primary is tried first, typically a local model. Optional.
	Primary ProviderSettings

	// Remote is called when Primary is absent or returns a vector of the
	// wrong size. Optional.
	Remote ProviderSettings

	// Dimensions is the vector size documents are stored with.
	Dimensions int

	// MaxInputChars is the provider input limit. Longer text is truncated.
	MaxInputChars int
}

// IsConfigured returns true if at least one provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Primary.IsConfigured() || e.Remote.IsConfigured()
}

// ScoringWeights are the tuning constants of the keyword scoring pass.
// They are empirically chosen, not correctness requirements.
type ScoringWeights struct {
	// WordMatch weights the ratio of query words found anywhere.
	WordMatch float64

	// TitleMatch, SummaryMatch and BodyMatch weight per-field match ratios.
	TitleMatch   float64
	SummaryMatch float64
	BodyMatch    float64

	// PhraseInTitle, PhraseInSummary and PhraseInBody are the mutually
	// exclusive exact-phrase bonuses, checked in that order.
	PhraseInTitle   float64
	PhraseInSummary float64
	PhraseInBody    float64

	// MinWordLength is the exclusive lower bound on query word length.
	MinWordLength int

	// RankDecayDivisor and RankDecayFloor shape the full-text rank penalty
	// max(RankDecayFloor, 1 - rank/RankDecayDivisor).
	RankDecayDivisor float64
	RankDecayFloor   float64

	// MatchFloor is the minimum score of a full-text hit.
	MatchFloor float64
}

// DefaultScoringWeights returns the stock tuning.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		WordMatch:        0.4,
		TitleMatch:       0.3,
		SummaryMatch:     0.2,
		BodyMatch:        0.1,
		PhraseInTitle:    0.2,
		PhraseInSummary:  0.15,
		PhraseInBody:     0.1,
		MinWordLength:    2,
		RankDecayDivisor: 20,
		RankDecayFloor:   0.5,
		MatchFloor:       0.1,
	}
}

// RetrievalSettings configures the retrieval cascade and context assembly.
type RetrievalSettings struct {
	// TopK is the default number of candidates returned.
	TopK int

	// VectorCandidateLimit caps rows fetched for the vector tier. Beyond the
	// cap only the most recently updated documents are vector-ranked; older
	// ones are still reachable through the text tiers.
	VectorCandidateLimit int

	// KeywordCandidateLimit caps rows fetched for the keyword tier.
	KeywordCandidateLimit int

	// ContextMaxChars is the default context budget.
	ContextMaxChars int

	// Weights tune the keyword scoring pass.
	Weights ScoringWeights
}

// WorkspaceSettings configures the workspace context builder.
type WorkspaceSettings struct {
	// QueryTimeout bounds each domain query individually.
	QueryTimeout time.Duration

	// MaxConcurrency limits in-flight domain queries. Zero means unlimited.
	MaxConcurrency int

	// PreviewChars caps extracted field previews.
	PreviewChars int

	// RecentItems is the number of recent items kept per domain.
	RecentItems int
}

// Settings holds all resolved configuration. It is resolved once and passed
// explicitly to services.
type Settings struct {
	Embedding EmbeddingSettings
	Retrieval RetrievalSettings
	Workspace WorkspaceSettings
	Scheduler SchedulerConfig
}

// Default configuration values.
const (
	DefaultTopK                  = 5
	DefaultVectorCandidateLimit  = 200
	DefaultKeywordCandidateLimit = 100
	DefaultContextMaxChars       = 8000
	DefaultMaxInputChars         = 8000
	DefaultQueryTimeout          = 5 * time.Second
	DefaultMaxConcurrency        = 8
	DefaultPreviewChars          = 500
	DefaultRecentItems           = 5
)

// DefaultSettings returns settings with every default applied.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			Dimensions:    DefaultEmbeddingDimensions,
			MaxInputChars: DefaultMaxInputChars,
		},
		Retrieval: RetrievalSettings{
			TopK:                  DefaultTopK,
			VectorCandidateLimit:  DefaultVectorCandidateLimit,
			KeywordCandidateLimit: DefaultKeywordCandidateLimit,
			ContextMaxChars:       DefaultContextMaxChars,
			Weights:               DefaultScoringWeights(),
		},
		Workspace: WorkspaceSettings{
			QueryTimeout:   DefaultQueryTimeout,
			MaxConcurrency: DefaultMaxConcurrency,
			PreviewChars:   DefaultPreviewChars,
			RecentItems:    DefaultRecentItems,
		},
		Scheduler: DefaultSchedulerConfig(),
	}
}

// EmbeddingRole selects which embedding provider slot a setting applies to.
type EmbeddingRole string

// Embedding provider slots.
const (
	EmbeddingRolePrimary EmbeddingRole = "primary"
	EmbeddingRoleRemote  EmbeddingRole = "remote"
)

// IsValid returns true if the role is recognised.
func (r EmbeddingRole) IsValid() bool {
	return r == EmbeddingRolePrimary || r == EmbeddingRoleRemote
}

// DefaultEmbeddingModels returns the default model per provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}
