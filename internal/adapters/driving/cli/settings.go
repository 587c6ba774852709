package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure embedding providers, retrieval and workspace options.

Settings live in ~/.projctx/config.toml. Any key can be overridden with an
environment variable, e.g. PROJCTX_EMBEDDING_REMOTE_API_KEY, or from a .env
file in the same directory.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure an embedding provider",
	Long: `Configure the primary (usually local) or remote embedding provider.

Without --provider the command asks interactively. The provider is pinged
after saving unless --skip-validate is given.`,
	RunE: runSettingsEmbedding,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Sets one dot-notation key, for example:

  projctx settings set retrieval.top_k 8
  projctx settings set retrieval.weights.title_match 0.5
  projctx settings set workspace.query_timeout 3s`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var (
	embeddingRole         string
	embeddingProvider     string
	embeddingModel        string
	embeddingAPIKey       string
	embeddingSkipValidate bool
)

func init() {
	settingsEmbeddingCmd.Flags().StringVar(&embeddingRole, "role", string(domain.EmbeddingRolePrimary), "primary or remote")
	settingsEmbeddingCmd.Flags().StringVar(&embeddingProvider, "provider", "", "ollama or openai")
	settingsEmbeddingCmd.Flags().StringVar(&embeddingModel, "model", "", "model name (default per provider)")
	settingsEmbeddingCmd.Flags().StringVar(&embeddingAPIKey, "api-key", "", "API key (openai)")
	settingsEmbeddingCmd.Flags().BoolVar(&embeddingSkipValidate, "skip-validate", false, "do not ping the provider")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	s, err := requireServices()
	if err != nil {
		return err
	}

	settings, err := s.Settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, "Primary", settings.Embedding.Primary)
	printProvider(cmd, "Remote", settings.Embedding.Remote)
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	cmd.Printf("  Max input: %d chars\n", settings.Embedding.MaxInputChars)
	cmd.Println()

	r := settings.Retrieval
	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", r.TopK)
	cmd.Printf("  Vector candidates: %d\n", r.VectorCandidateLimit)
	cmd.Printf("  Keyword candidates: %d\n", r.KeywordCandidateLimit)
	cmd.Printf("  Context budget: %d chars\n", r.ContextMaxChars)
	cmd.Println()

	w := settings.Workspace
	cmd.Println("[Workspace]")
	cmd.Printf("  Query timeout: %s\n", w.QueryTimeout)
	cmd.Printf("  Max concurrency: %d\n", w.MaxConcurrency)
	cmd.Printf("  Preview: %d chars\n", w.PreviewChars)
	cmd.Printf("  Recent items: %d\n", w.RecentItems)
	cmd.Println()

	if err := s.Settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'projctx settings embedding' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProvider(cmd *cobra.Command, label string, p domain.ProviderSettings) {
	if !p.IsConfigured() {
		cmd.Printf("  %s: not configured\n", label)
		return
	}
	cmd.Printf("  %s: %s, %s\n", label, p.Provider.Description(), p.Model)
	if p.Provider.IsLocal() {
		cmd.Printf("    Base URL: %s\n", p.BaseURL)
	}
	if p.Provider.RequiresAPIKey() {
		if p.APIKey != "" {
			cmd.Printf("    API Key: %s\n", maskAPIKey(p.APIKey))
		} else {
			cmd.Printf("    API Key: (not set)\n")
		}
	}
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	s, err := requireServices()
	if err != nil {
		return err
	}

	role := domain.EmbeddingRole(embeddingRole)
	if !role.IsValid() {
		return fmt.Errorf("invalid role %q: %w", embeddingRole, domain.ErrInvalidInput)
	}

	provider := domain.AIProvider(embeddingProvider)
	model, apiKey := embeddingModel, embeddingAPIKey
	if embeddingProvider == "" {
		provider, model, apiKey, err = promptEmbeddingProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
		if err != nil {
			return err
		}
	}

	if err := s.Settings.SetEmbeddingProvider(role, provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	settings, err := s.Settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	configured := settings.Embedding.Primary
	if role == domain.EmbeddingRoleRemote {
		configured = settings.Embedding.Remote
	}

	if !embeddingSkipValidate {
		// Validate the configuration by pinging the service
		cmd.Print("Validating configuration... ")
		if err := s.Validator.ValidateEmbedding(&configured); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("embedding configuration validation failed: %w", err)
		}
		cmd.Println("OK")
	}

	cmd.Printf("%s embedding provider configured: %s (%s)\n", role, configured.Provider.Description(), configured.Model)
	return nil
}

func promptEmbeddingProvider(
	cmd *cobra.Command, reader *bufio.Reader,
) (domain.AIProvider, string, string, error) {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	provider := providers[idx-1]

	defaultModel := domain.DefaultEmbeddingModels()[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return "", "", "", errors.New("API key is required for this provider")
		}
	}

	return provider, model, apiKey, nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	s, err := requireServices()
	if err != nil {
		return err
	}

	key, value := args[0], parseSettingValue(args[1])
	if err := s.Config.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	if err := s.Settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	}

	cmd.Printf("%s = %v\n", key, value)
	return nil
}

// parseSettingValue stores numbers and booleans with their TOML types.
// Durations such as "3s" stay strings.
func parseSettingValue(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
