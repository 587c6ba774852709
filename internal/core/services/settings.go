package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/projctx/internal/core/domain"
	"github.com/custodia-labs/projctx/internal/core/ports/driven"
	"github.com/custodia-labs/projctx/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedDimensions    = "embedding.dimensions"
	keyEmbedMaxInputChars = "embedding.max_input_chars"
	keyEmbedProvider      = "embedding.%s.provider"
	keyEmbedModel         = "embedding.%s.model"
	keyEmbedBaseURL       = "embedding.%s.base_url"
	keyEmbedAPIKey        = "embedding.%s.api_key"

	keyTopK              = "retrieval.top_k"
	keyVectorCandidates  = "retrieval.vector_candidates"
	keyKeywordCandidates = "retrieval.keyword_candidates"
	keyContextMaxChars   = "retrieval.context_max_chars"
	keyWeightsPrefix     = "retrieval.weights."

	keyQueryTimeout   = "workspace.query_timeout"
	keyMaxConcurrency = "workspace.max_concurrency"
	keyPreviewChars   = "workspace.preview_chars"
	keyRecentItems    = "workspace.recent_items"

	keySchedulerEnabled = "scheduler.enabled"
	keyReembedInterval  = "scheduler.reembed_interval"
	keyReembedBatchSize = "scheduler.reembed_batch_size"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get resolves current application settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()
	dw := defaults.Retrieval.Weights

	settings := &domain.Settings{
		Embedding: domain.EmbeddingSettings{
			Primary:       s.getProviderSettings(domain.EmbeddingRolePrimary),
			Remote:        s.getProviderSettings(domain.EmbeddingRoleRemote),
			Dimensions:    s.getInt(keyEmbedDimensions, defaults.Embedding.Dimensions),
			MaxInputChars: s.getInt(keyEmbedMaxInputChars, defaults.Embedding.MaxInputChars),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:                  s.getInt(keyTopK, defaults.Retrieval.TopK),
			VectorCandidateLimit:  s.getInt(keyVectorCandidates, defaults.Retrieval.VectorCandidateLimit),
			KeywordCandidateLimit: s.getInt(keyKeywordCandidates, defaults.Retrieval.KeywordCandidateLimit),
			ContextMaxChars:       s.getInt(keyContextMaxChars, defaults.Retrieval.ContextMaxChars),
			Weights: domain.ScoringWeights{
				WordMatch:        s.getFloat(keyWeightsPrefix+"word_match", dw.WordMatch),
				TitleMatch:       s.getFloat(keyWeightsPrefix+"title_match", dw.TitleMatch),
				SummaryMatch:     s.getFloat(keyWeightsPrefix+"summary_match", dw.SummaryMatch),
				BodyMatch:        s.getFloat(keyWeightsPrefix+"body_match", dw.BodyMatch),
				PhraseInTitle:    s.getFloat(keyWeightsPrefix+"phrase_title", dw.PhraseInTitle),
				PhraseInSummary:  s.getFloat(keyWeightsPrefix+"phrase_summary", dw.PhraseInSummary),
				PhraseInBody:     s.getFloat(keyWeightsPrefix+"phrase_body", dw.PhraseInBody),
				MinWordLength:    s.getInt(keyWeightsPrefix+"min_word_length", dw.MinWordLength),
				RankDecayDivisor: s.getFloat(keyWeightsPrefix+"rank_decay_divisor", dw.RankDecayDivisor),
				RankDecayFloor:   s.getFloat(keyWeightsPrefix+"rank_decay_floor", dw.RankDecayFloor),
				MatchFloor:       s.getFloat(keyWeightsPrefix+"match_floor", dw.MatchFloor),
			},
		},
		Workspace: domain.WorkspaceSettings{
			QueryTimeout:   s.getDuration(keyQueryTimeout, defaults.Workspace.QueryTimeout),
			MaxConcurrency: s.getInt(keyMaxConcurrency, defaults.Workspace.MaxConcurrency),
			PreviewChars:   s.getInt(keyPreviewChars, defaults.Workspace.PreviewChars),
			RecentItems:    s.getInt(keyRecentItems, defaults.Workspace.RecentItems),
		},
		Scheduler: s.getSchedulerConfig(defaults.Scheduler),
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.Settings) error {
	for _, role := range []domain.EmbeddingRole{domain.EmbeddingRolePrimary, domain.EmbeddingRoleRemote} {
		p := settings.Embedding.Primary
		if role == domain.EmbeddingRoleRemote {
			p = settings.Embedding.Remote
		}
		if err := s.saveProviderSettings(role, p); err != nil {
			return err
		}
	}

	values := []struct {
		key   string
		value any
	}{
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyEmbedMaxInputChars, settings.Embedding.MaxInputChars},
		{keyTopK, settings.Retrieval.TopK},
		{keyVectorCandidates, settings.Retrieval.VectorCandidateLimit},
		{keyKeywordCandidates, settings.Retrieval.KeywordCandidateLimit},
		{keyContextMaxChars, settings.Retrieval.ContextMaxChars},
		{keyQueryTimeout, settings.Workspace.QueryTimeout.String()},
		{keyMaxConcurrency, settings.Workspace.MaxConcurrency},
		{keyPreviewChars, settings.Workspace.PreviewChars},
		{keyRecentItems, settings.Workspace.RecentItems},
		{keySchedulerEnabled, settings.Scheduler.Enabled},
		{keyReembedInterval, settings.Scheduler.GetTaskConfig(domain.TaskIDReembed).Interval.String()},
		{keyReembedBatchSize, settings.Scheduler.GetTaskConfig(domain.TaskIDReembed).BatchSize},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the primary or remote embedding provider.
func (s *SettingsService) SetEmbeddingProvider(
	role domain.EmbeddingRole, provider domain.AIProvider, model, apiKey string,
) error {
	if !role.IsValid() {
		return fmt.Errorf("invalid embedding role: %s", role)
	}
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	p := domain.ProviderSettings{
		Provider: provider,
		Model:    model,
		APIKey:   apiKey,
	}
	if p.Model == "" {
		p.Model = domain.DefaultEmbeddingModels()[provider]
	}
	if provider.IsLocal() {
		p.BaseURL = "http://localhost:11434"
	}

	return s.saveProviderSettings(role, p)
}

// Validate checks that the current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	if settings.Embedding.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("embedding dimensions must be positive, got %d", settings.Embedding.Dimensions))
	}
	for _, p := range []domain.ProviderSettings{settings.Embedding.Primary, settings.Embedding.Remote} {
		if p.Provider != "" && !p.IsConfigured() {
			errs = append(errs, fmt.Errorf("embedding provider %s is incomplete", p.Provider))
		}
	}
	if settings.Retrieval.ContextMaxChars <= 0 {
		errs = append(errs, errors.New("context budget must be positive"))
	}
	if settings.Workspace.QueryTimeout <= 0 {
		errs = append(errs, errors.New("workspace query timeout must be positive"))
	}

	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// getSchedulerConfig resolves the scheduler section. scheduler.enabled
// switches every task off at once.
func (s *SettingsService) getSchedulerConfig(defaults domain.SchedulerConfig) domain.SchedulerConfig {
	reembed := defaults.GetTaskConfig(domain.TaskIDReembed)
	return domain.SchedulerConfig{
		Enabled: s.getBool(keySchedulerEnabled, defaults.Enabled),
		TaskConfigs: map[string]domain.TaskConfig{
			domain.TaskIDReembed: {
				Enabled:   true,
				Interval:  s.getDuration(keyReembedInterval, reembed.Interval),
				BatchSize: s.getInt(keyReembedBatchSize, reembed.BatchSize),
			},
		},
	}
}

func (s *SettingsService) getProviderSettings(role domain.EmbeddingRole) domain.ProviderSettings {
	provider := domain.AIProvider(s.configStore.GetString(fmt.Sprintf(keyEmbedProvider, role)))
	if !provider.IsValid() {
		return domain.ProviderSettings{}
	}
	return domain.ProviderSettings{
		Provider: provider,
		Model:    s.getString(fmt.Sprintf(keyEmbedModel, role), domain.DefaultEmbeddingModels()[provider]),
		BaseURL:  s.configStore.GetString(fmt.Sprintf(keyEmbedBaseURL, role)),
		APIKey:   s.configStore.GetString(fmt.Sprintf(keyEmbedAPIKey, role)),
	}
}

func (s *SettingsService) saveProviderSettings(role domain.EmbeddingRole, p domain.ProviderSettings) error {
	if err := s.configStore.Set(fmt.Sprintf(keyEmbedProvider, role), p.Provider.String()); err != nil {
		return fmt.Errorf("save %s embedding provider: %w", role, err)
	}
	if err := s.configStore.Set(fmt.Sprintf(keyEmbedModel, role), p.Model); err != nil {
		return fmt.Errorf("save %s embedding model: %w", role, err)
	}
	if err := s.configStore.Set(fmt.Sprintf(keyEmbedBaseURL, role), p.BaseURL); err != nil {
		return fmt.Errorf("save %s embedding base_url: %w", role, err)
	}
	if p.APIKey != "" {
		if err := s.configStore.Set(fmt.Sprintf(keyEmbedAPIKey, role), p.APIKey); err != nil {
			return fmt.Errorf("save %s embedding api_key: %w", role, err)
		}
	}
	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, ok := s.configStore.Get(key)
	if !ok {
		return defaultVal
	}
	// TOML numbers are parsed as float64 or int64
	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return defaultVal
		}
		return f
	default:
		return defaultVal
	}
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	str := s.configStore.GetString(key)
	if str == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(str)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
