package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/jonathan/profile-engine/internal/checkpoint"
	"github.com/jonathan/profile-engine/internal/config"
	"github.com/jonathan/profile-engine/internal/embedding"
	"github.com/jonathan/profile-engine/internal/llm"
	"github.com/jonathan/profile-engine/internal/logger"
	"github.com/jonathan/profile-engine/internal/merge"
	"github.com/jonathan/profile-engine/internal/pipeline"
	"github.com/jonathan/profile-engine/internal/profile"
	"github.com/jonathan/profile-engine/internal/rendering"
	"github.com/jonathan/profile-engine/internal/stages"
	"github.com/jonathan/profile-engine/internal/types"
)

// engine bundles the wired components shared by the run and resume commands.
type engine struct {
	cfg      config.Config
	log      zerolog.Logger
	embedder embedding.Embedder
	llm      llm.Client
	store    checkpoint.Store
	orch     *pipeline.Orchestrator
}

// resolveConfig loads the optional config file and applies defaults.
func resolveConfig(configPath string) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	cfg = cfg.MergeWithDefaults(config.Config{
		ExperienceThreshold: merge.DefaultExperienceThreshold,
		SkillThreshold:      merge.DefaultSkillThreshold,
		Template:            stages.DefaultTemplate,
		OutputDir:           "output",
		Stages:              stages.DefaultOrder(),
	})

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.DatabaseURL == "" && cfg.SQLitePath == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

// newEmbedder builds the Gemini backend, or the offline fallback when no API
// key is configured.
func newEmbedder(ctx context.Context, cfg config.Config, log zerolog.Logger) (embedding.Embedder, error) {
	if cfg.APIKey == "" {
		log.Warn().Msg("no API key configured, duplicate detection degrades to exact matching")
		return embedding.OfflineEmbedder{}, nil
	}
	return embedding.NewGeminiEmbedder(ctx, cfg.APIKey, cfg.EmbeddingModel, log)
}

// openStore selects the checkpoint backend: Postgres when a database URL is
// configured, SQLite when a file path is, in-memory otherwise.
func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (checkpoint.Store, error) {
	switch {
	case cfg.DatabaseURL != "":
		return checkpoint.ConnectPostgres(ctx, cfg.DatabaseURL)
	case cfg.SQLitePath != "":
		return checkpoint.OpenSQLite(cfg.SQLitePath)
	default:
		log.Warn().Msg("no persistence configured, checkpoints live in memory only")
		return checkpoint.NewMemoryStore(), nil
	}
}

// buildEngine wires the full pipeline from configuration.
func buildEngine(ctx context.Context, cfg config.Config, verbose bool) (*engine, error) {
	log := logger.New(verbose)

	embedder, err := newEmbedder(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		embedder.Close()
		return nil, err
	}

	renderer, err := rendering.NewPDFRenderer(cfg.OutputDir, log)
	if err != nil {
		embedder.Close()
		store.Close()
		return nil, err
	}

	manager := merge.NewManager(embedder, merge.Thresholds{
		Experience: cfg.ExperienceThreshold,
		Skill:      cfg.SkillThreshold,
	}, log)

	deps := stages.Deps{
		Merger:   manager,
		Renderer: renderer,
		Store:    &fileProfileStore{dir: cfg.OutputDir},
		Template: cfg.Template,
		Log:      log,
	}

	// LLM-backed stages run only when a key is configured; without one they
	// become recorded no-ops.
	var llmClient llm.Client
	if cfg.APIKey != "" {
		llmClient, err = llm.NewClient(ctx, nil, cfg.APIKey)
		if err != nil {
			embedder.Close()
			store.Close()
			return nil, err
		}
		deps.Extractor = llm.NewFragmentExtractor(llmClient, log)
		deps.Enhancer = llm.NewProfileEnhancer(llmClient, log)
		deps.Optimizer = llm.NewProfileOptimizer(llmClient, log)
	} else {
		log.Warn().Msg("no API key configured, extract/enhance/optimize stages are skipped")
	}

	registry := pipeline.NewRegistry()
	stages.Register(registry, deps)

	orch, err := pipeline.New(registry, store, pipeline.Options{
		Stages:       cfg.Stages,
		StageTimeout: cfg.StageTimeout(),
		Log:          log,
	})
	if err != nil {
		embedder.Close()
		if llmClient != nil {
			llmClient.Close()
		}
		store.Close()
		return nil, err
	}

	return &engine{cfg: cfg, log: log, embedder: embedder, llm: llmClient, store: store, orch: orch}, nil
}

func (e *engine) close() {
	if e.embedder != nil {
		_ = e.embedder.Close()
	}
	if e.llm != nil {
		_ = e.llm.Close()
	}
	if e.store != nil {
		_ = e.store.Close()
	}
}

// fileProfileStore backs the persist stage with JSON files next to the
// rendered output.
type fileProfileStore struct {
	dir string
}

func (s *fileProfileStore) SaveProfile(_ context.Context, workflowID string, p *types.Profile) error {
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("profile-%s.json", workflowID))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// readProfileFile loads and migrates a profile document from disk. An empty
// path yields a fresh empty profile.
func readProfileFile(path string) (*types.Profile, error) {
	if path == "" {
		return profile.Empty(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}
	p, err := profile.Migrate(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate profile document: %w", err)
	}
	return p, nil
}

// readFragmentsFile loads a JSON array of fragments from disk.
func readFragmentsFile(path string) ([]types.Fragment, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fragments file: %w", err)
	}
	var fragments []types.Fragment
	if err := json.Unmarshal(raw, &fragments); err != nil {
		return nil, fmt.Errorf("failed to parse fragments JSON: %w", err)
	}
	return fragments, nil
}

// writeProfileFile writes a profile as indented JSON.
func writeProfileFile(path string, p *types.Profile) error {
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write profile file: %w", err)
	}
	return nil
}
