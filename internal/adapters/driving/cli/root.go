// Package cli provides the cobra command tree driving the core
// services. Services are package-level and injected either by Init
// (production wiring) or directly by tests.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/lectern/internal/adapters/driven/config/file"
	"github.com/custodia-labs/lectern/internal/adapters/driven/embedding/ollama"
	embopenai "github.com/custodia-labs/lectern/internal/adapters/driven/embedding/openai"
	indexsqlite "github.com/custodia-labs/lectern/internal/adapters/driven/index/sqlite"
	llmopenai "github.com/custodia-labs/lectern/internal/adapters/driven/llm/openai"
	storesqlite "github.com/custodia-labs/lectern/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/lectern/internal/chunker"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
	"github.com/custodia-labs/lectern/internal/core/services"
	"github.com/custodia-labs/lectern/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Injected services. Nil until Init or a test sets them.
var (
	ingestService    driving.Ingestor
	retrieveService  driving.Retriever
	assistantService driving.Assistant
	documentStore    driven.DocumentStore
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	llmService       driven.LLMService
)

var (
	flagVerbose bool
	flagDataDir string
)

var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "Document-grounded retrieval for course material",
	Long: `Lectern ingests course documents into per-collection vector indexes
and answers questions grounded in the indexed content.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.lectern)")
}

// Execute builds the production wiring and runs the command tree.
func Execute() {
	if err := Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Init constructs adapters from configuration and wires the services.
// Already-set services (tests) are left untouched.
func Init() error {
	if ingestService != nil {
		return nil
	}

	dataDir := flagDataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".lectern")
	}

	cfg, err := configfile.NewConfigStore(dataDir)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	store, err := storesqlite.Open(filepath.Join(dataDir, "documents.db"))
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}
	documentStore = store

	embeddingService, err = buildEmbedder(cfg)
	if err != nil {
		return err
	}

	metric := domain.Metric(cfg.GetString("index.metric"))
	if metric == "" {
		metric = embeddingService.Identity().Metric
	}
	index, err := indexsqlite.Open(
		filepath.Join(dataDir, "vectors.db"), indexsqlite.WithMetric(metric))
	if err != nil {
		return fmt.Errorf("opening vector index: %w", err)
	}
	vectorIndex = index

	ch, err := buildChunker(cfg)
	if err != nil {
		return err
	}

	ingestService = services.NewIngestService(
		documentStore, vectorIndex, ch, embeddingService, domain.DefaultRetryPolicy())
	retrieveService = services.NewRetrieveService(vectorIndex, embeddingService)

	// The assistant is optional: it needs an LLM API key.
	if key := llmAPIKey(cfg); key != "" {
		llmService, err = llmopenai.NewLLMService(llmopenai.Config{
			APIKey:  key,
			BaseURL: cfg.GetString("llm.base_url"),
			Model:   cfg.GetString("llm.model"),
		})
		if err != nil {
			return fmt.Errorf("configuring LLM: %w", err)
		}
		assistantService = services.NewAssistantService(
			retrieveService, vectorIndex, documentStore, llmService)
	}

	return nil
}

// buildEmbedder selects the embedding provider from configuration.
// Defaults to local Ollama.
func buildEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	switch provider := cfg.GetString("embedding.provider"); provider {
	case "", "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:           cfg.GetString("embedding.base_url"),
			Model:             cfg.GetString("embedding.model"),
			Dimensions:        cfg.GetInt("embedding.dimensions"),
			RequestsPerSecond: cfg.GetFloat("embedding.requests_per_second"),
		}), nil
	case "openai":
		key := cfg.GetString("embedding.api_key")
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		return embopenai.NewEmbeddingService(embopenai.Config{
			APIKey:            key,
			BaseURL:           cfg.GetString("embedding.base_url"),
			Model:             cfg.GetString("embedding.model"),
			Dimensions:        cfg.GetInt("embedding.dimensions"),
			MaxBatchSize:      cfg.GetInt("embedding.max_batch_size"),
			RequestsPerSecond: cfg.GetFloat("embedding.requests_per_second"),
		})
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidConfig, provider)
	}
}

// buildChunker reads chunking parameters from configuration, falling
// back to the defaults.
func buildChunker(cfg driven.ConfigStore) (driven.Chunker, error) {
	chunkCfg := chunker.Config{
		ChunkSize:    cfg.GetInt("chunk.size"),
		Overlap:      cfg.GetInt("chunk.overlap"),
		MinChunkSize: cfg.GetInt("chunk.min_size"),
	}
	if chunkCfg.ChunkSize == 0 {
		chunkCfg.ChunkSize = chunker.DefaultChunkSize
		if chunkCfg.Overlap == 0 {
			chunkCfg.Overlap = chunker.DefaultOverlap
		}
	}
	return chunker.New(chunkCfg)
}

// llmAPIKey resolves the LLM key from config or environment.
func llmAPIKey(cfg driven.ConfigStore) string {
	if key := cfg.GetString("llm.api_key"); key != "" {
		return key
	}
	if key := os.Getenv("LECTERN_LLM_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("OPENAI_API_KEY")
}
