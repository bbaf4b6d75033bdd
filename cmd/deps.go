package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizdoc/internal/cache"
	"github.com/abhisek/quizdoc/internal/config"
	"github.com/abhisek/quizdoc/internal/llm"
	"github.com/abhisek/quizdoc/internal/logger"
	"github.com/abhisek/quizdoc/internal/quizdoc"
	"github.com/abhisek/quizdoc/internal/quizgen"
	"github.com/abhisek/quizdoc/internal/service"
	"github.com/abhisek/quizdoc/internal/store"
)

// loadConfig reads --config (or QUIZDOC_CONFIG) and applies the global
// flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("QUIZDOC_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if mode, _ := cmd.Flags().GetString("log"); mode != "" {
		cfg.Log.Mode = mode
	}
	return cfg, nil
}

// resolveDBPath returns the database DSN using --db flag (highest priority),
// then the config file or QUIZDOC_DB_DSN, then for sqlite the default XDG
// path.
func resolveDBPath(cmd *cobra.Command, cfg config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if cfg.DB.Driver == store.DriverPostgres {
			return p, nil
		}
		return p, store.EnsureDir(p)
	}
	if cfg.DB.DSN != "" || cfg.DB.Driver == store.DriverPostgres {
		return cfg.DB.DSN, nil
	}
	return store.DefaultDBPath()
}

// deps holds what the commands share. close releases everything.
type deps struct {
	cfg      config.Config
	log      *logger.Logger
	store    *store.Store
	cache    cache.Cache
	provider llm.Provider
	importer *service.Importer
}

func (d *deps) close() {
	if d.cache != nil {
		_ = d.cache.Close()
	}
	if d.store != nil {
		_ = d.store.Close()
	}
	if d.log != nil {
		d.log.Sync()
	}
}

// openDeps loads configuration and opens the store, cache and, when one
// is configured, the LLM provider. A missing provider only disables
// generation.
func openDeps(ctx context.Context, cmd *cobra.Command) (*deps, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, err
	}
	d := &deps{cfg: cfg, log: log}

	dsn, err := resolveDBPath(cmd, cfg)
	if err != nil {
		d.close()
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	d.store, err = store.Open(ctx, store.Options{Driver: cfg.DB.Driver, DSN: dsn})
	if err != nil {
		d.close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	d.cache, err = openCache(ctx, cfg.Cache)
	if err != nil {
		d.close()
		return nil, err
	}

	d.provider, err = openProvider(ctx, cfg.LLM, d.store.EventRepo(), log)
	if err != nil {
		log.Warn("LLM provider not configured; generation is unavailable", "error", err)
	}

	var gen *quizgen.Generator
	if d.provider != nil {
		gen = quizgen.New(d.provider, generatorConfig(cfg), log)
	}
	d.importer = service.New(service.Options{
		Quizzes:   d.store.QuizRepo(),
		Cache:     d.cache,
		CacheTTL:  cfg.Cache.TTL,
		Parser:    parserConfig(cfg),
		Generator: gen,
		Log:       log,
	})
	return d, nil
}

func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Driver {
	case "redis":
		r, err := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		return r, nil
	case "none":
		return cache.Nop{}, nil
	default:
		return cache.NewMemory(cfg.MemoryEntries, cfg.TTL), nil
	}
}

// openProvider builds the configured provider. When the configured one
// has no key, a provider is discovered from the vendors' own API key
// variables, keeping the configured retry and timeout settings.
func openProvider(ctx context.Context, cfg llm.Config, events store.EventRepo, log *logger.Logger) (llm.Provider, error) {
	if err := cfg.Validate(); err != nil {
		found, ok := llm.DiscoverConfig()
		if !ok {
			return nil, err
		}
		found.Retry = cfg.Retry
		found.Timeout = cfg.Timeout
		cfg = found
	}
	return llm.NewProvider(ctx, cfg, events, log)
}

func parserConfig(cfg config.Config) quizdoc.Config {
	pc := quizdoc.DefaultConfig()
	pc.MaxInputBytes = cfg.Parser.MaxInputBytes
	pc.RepairMissingCorrect = cfg.Parser.RepairMissingCorrect
	return pc
}

func generatorConfig(cfg config.Config) quizgen.Config {
	gc := quizgen.DefaultConfig()
	gc.MaxTokens = cfg.Generation.MaxTokens
	gc.Temperature = cfg.Generation.Temperature
	gc.MaxContentChars = cfg.Generation.MaxContentChars
	gc.LessonQuestions = cfg.Generation.LessonQuestions
	gc.AssessmentQuestions = cfg.Generation.AssessmentQuestions
	gc.RepairMissingCorrect = cfg.Parser.RepairMissingCorrect
	gc.Structured = cfg.Generation.Structured
	return gc
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// openStore opens only the database, for commands that just read or
// delete stored rows.
func openStore(ctx context.Context, cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dsn, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(ctx, store.Options{Driver: cfg.DB.Driver, DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
