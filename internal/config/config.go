// Package config loads quizdoc settings from an optional YAML file and
// QUIZDOC_* environment variables. Environment values win.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/quizdoc/internal/llm"
)

type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	DB         DBConfig         `yaml:"db"`
	Cache      CacheConfig      `yaml:"cache"`
	Log        LogConfig        `yaml:"log"`
	Parser     ParserConfig     `yaml:"parser"`
	Generation GenerationConfig `yaml:"generation"`
	LLM        llm.Config       `yaml:"llm"`
}

type HTTPConfig struct {
	Addr           string        `yaml:"addr"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	JWTSecret      string        `yaml:"jwt_secret"`
	RequireAuth    bool          `yaml:"require_auth"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type DBConfig struct {
	Driver string `yaml:"driver"` // sqlite | postgres
	// DSN is a sqlite file path or a postgres URL. Empty sqlite DSN means
	// the default data-dir path.
	DSN string `yaml:"dsn"`
}

type CacheConfig struct {
	Driver        string        `yaml:"driver"` // memory | redis | none
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	MemoryEntries int           `yaml:"memory_entries"`
	TTL           time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Mode string `yaml:"mode"` // dev | prod
}

type ParserConfig struct {
	MaxInputBytes        int  `yaml:"max_input_bytes"`
	RepairMissingCorrect bool `yaml:"repair_missing_correct"`
}

type GenerationConfig struct {
	LessonQuestions     int     `yaml:"lesson_questions"`
	AssessmentQuestions int     `yaml:"assessment_questions"`
	MaxContentChars     int     `yaml:"max_content_chars"`
	MaxTokens           int     `yaml:"max_tokens"`
	Temperature         float64 `yaml:"temperature"`
	// Structured sends the question-list JSON schema to the provider.
	Structured bool `yaml:"structured"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:           ":8080",
			CORSOrigins:    []string{"http://localhost:3000"},
			RequestTimeout: 2 * time.Minute,
		},
		DB:    DBConfig{Driver: "sqlite"},
		Cache: CacheConfig{Driver: "memory", MemoryEntries: 1024, TTL: time.Hour},
		Log:   LogConfig{Mode: "dev"},
		Parser: ParserConfig{
			MaxInputBytes:        1 << 20,
			RepairMissingCorrect: true,
		},
		Generation: GenerationConfig{
			LessonQuestions:     5,
			AssessmentQuestions: 25,
			MaxContentChars:     24000,
			MaxTokens:           8192,
			Temperature:         0.4,
		},
		LLM: llm.DefaultConfig(),
	}
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decodeInto(data, &cfg); err != nil {
			return Config{}, err
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes a YAML document over the defaults without consulting
// the environment.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := decodeInto(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeInto(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		if err == io.EOF {
			return nil // empty file
		}
		return fmt.Errorf("parse config: %w", err)
	}
	if err := decoder.Decode(new(yaml.Node)); err != io.EOF {
		if err == nil {
			return fmt.Errorf("parse config: multiple YAML documents are not supported")
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from QUIZDOC_* environment variables.
func (c *Config) ApplyEnv() {
	c.HTTP.Addr = envOr("QUIZDOC_HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.CORSOrigins = csvOr("QUIZDOC_CORS_ORIGINS", c.HTTP.CORSOrigins)
	c.HTTP.JWTSecret = envOr("QUIZDOC_JWT_SECRET", c.HTTP.JWTSecret)
	c.HTTP.RequireAuth = envBool("QUIZDOC_REQUIRE_AUTH", c.HTTP.RequireAuth)
	c.HTTP.RequestTimeout = envDuration("QUIZDOC_REQUEST_TIMEOUT", c.HTTP.RequestTimeout)

	c.DB.Driver = envOr("QUIZDOC_DB_DRIVER", c.DB.Driver)
	c.DB.DSN = envOr("QUIZDOC_DB_DSN", c.DB.DSN)

	c.Cache.Driver = envOr("QUIZDOC_CACHE_DRIVER", c.Cache.Driver)
	c.Cache.RedisAddr = envOr("QUIZDOC_REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisPassword = envOr("QUIZDOC_REDIS_PASSWORD", c.Cache.RedisPassword)
	c.Cache.TTL = envDuration("QUIZDOC_CACHE_TTL", c.Cache.TTL)

	c.Log.Mode = envOr("QUIZDOC_LOG_MODE", c.Log.Mode)

	c.Parser.MaxInputBytes = envInt("QUIZDOC_MAX_INPUT_BYTES", c.Parser.MaxInputBytes)
	c.Parser.RepairMissingCorrect = envBool("QUIZDOC_REPAIR_MISSING_CORRECT", c.Parser.RepairMissingCorrect)

	c.Generation.LessonQuestions = envInt("QUIZDOC_LESSON_QUESTIONS", c.Generation.LessonQuestions)
	c.Generation.AssessmentQuestions = envInt("QUIZDOC_ASSESSMENT_QUESTIONS", c.Generation.AssessmentQuestions)
	c.Generation.MaxContentChars = envInt("QUIZDOC_MAX_CONTENT_CHARS", c.Generation.MaxContentChars)
	c.Generation.Structured = envBool("QUIZDOC_STRUCTURED_OUTPUT", c.Generation.Structured)

	c.LLM.ApplyEnv()
}

// Validate returns the first configuration error. The LLM section is not
// checked here; generation reports a missing key when it is used.
func (c Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite":
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown db driver: %q", c.DB.Driver)
	}

	switch c.Cache.Driver {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis cache")
		}
	default:
		return fmt.Errorf("unknown cache driver: %q", c.Cache.Driver)
	}

	if c.HTTP.RequireAuth && c.HTTP.JWTSecret == "" {
		return fmt.Errorf("http.jwt_secret is required when require_auth is set")
	}
	if c.Parser.MaxInputBytes <= 0 {
		return fmt.Errorf("parser.max_input_bytes must be positive")
	}
	if c.Generation.LessonQuestions <= 0 || c.Generation.AssessmentQuestions <= 0 {
		return fmt.Errorf("generation question counts must be positive")
	}
	if c.Generation.MaxContentChars <= 0 {
		return fmt.Errorf("generation.max_content_chars must be positive")
	}
	return nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return n
}

func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil {
		return def
	}
	return d
}

func csvOr(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
