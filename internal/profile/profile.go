package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol)
	// All providers (zai, deepseek, openai, siliconflow, ollama) use the same config
	LLMProvider string // Provider identifier: zai, deepseek, openai, siliconflow, dashscope, openrouter, ollama
	LLMAPIKey   string // Unified LLM API key
	LLMBaseURL  string // Unified LLM base URL (optional, has default per provider)
	LLMModel    string // Model name: glm-4.7, deepseek-chat, gpt-4o, etc.
	LLMTimeout  int    // LLM request timeout in seconds (default: 120)

	// Embedding configuration
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingDimensions int

	// Search tuning. Zero values mean "use the built-in default";
	// see the search package for the effective defaults.
	SearchSimilarityThreshold float64
	SearchKeywordThreshold    float64
	SearchResultLimit         int
	SearchKeywordFilter       bool
	SearchSummaryEnabled      bool
	SearchSummaryMaxResults   int

	// Server configurations
	Mode        string
	Addr        string
	Data        string
	Driver      string
	DSN         string
	InstanceURL string
	Version     string
	Port        int
	AIEnabled   bool
}

// Provider default configurations for LLM.
// Used when LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"zai": {
		BaseURL: "https://open.bigmodel.cn/api/paas/v4",
		Model:   "glm-4.7",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-5.2",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"dashscope": {
		BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
		Model:   "qwen-max-latest",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "deepseek/deepseek-chat",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if the LLM API key is configured.
// Search still works without it; summaries and content analysis are skipped.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != ""
}

// IsEmbeddingEnabled returns true if the embedding API key is configured.
// Semantic search requires embeddings; without them only CRUD endpoints work.
func (p *Profile) IsEmbeddingEnabled() bool {
	return p.EmbeddingAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvOrDefaultFloat returns environment variable value as float64 or default value.
func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	// Unified LLM configuration
	p.LLMProvider = getEnvOrDefault("VOUCH_AI_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("VOUCH_AI_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("VOUCH_AI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("VOUCH_AI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("VOUCH_AI_LLM_TIMEOUT_SECONDS", 120)

	// AI is enabled if API key is configured
	p.AIEnabled = p.LLMAPIKey != ""

	// Validate and apply provider defaults if not explicitly set
	if p.LLMProvider != "" {
		if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
			slog.Warn("Unknown LLM provider, using default: openai", "provider", p.LLMProvider)
			p.LLMProvider = "openai"
		}
	}
	if p.LLMBaseURL == "" || p.LLMModel == "" {
		if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
			if p.LLMBaseURL == "" {
				p.LLMBaseURL = defaults.BaseURL
			}
			if p.LLMModel == "" {
				p.LLMModel = defaults.Model
			}
		}
	}

	// Embedding configuration
	p.EmbeddingProvider = getEnvOrDefault("VOUCH_AI_EMBEDDING_PROVIDER", "siliconflow")
	p.EmbeddingModel = getEnvOrDefault("VOUCH_AI_EMBEDDING_MODEL", "BAAI/bge-m3")
	p.EmbeddingAPIKey = getEnvOrDefault("VOUCH_AI_EMBEDDING_API_KEY", "")
	p.EmbeddingBaseURL = getEnvOrDefault("VOUCH_AI_EMBEDDING_BASE_URL", "https://api.siliconflow.cn/v1")
	p.EmbeddingDimensions = getEnvOrDefaultInt("VOUCH_AI_EMBEDDING_DIMENSIONS", 1024)

	// Search tuning
	p.SearchSimilarityThreshold = getEnvOrDefaultFloat("VOUCH_SEARCH_SIMILARITY_THRESHOLD", 0.7)
	p.SearchKeywordThreshold = getEnvOrDefaultFloat("VOUCH_SEARCH_KEYWORD_THRESHOLD", 0.5)
	p.SearchResultLimit = getEnvOrDefaultInt("VOUCH_SEARCH_RESULT_LIMIT", 10)
	p.SearchKeywordFilter = getEnvOrDefault("VOUCH_SEARCH_KEYWORD_FILTER", "true") == "true"
	p.SearchSummaryEnabled = getEnvOrDefault("VOUCH_SEARCH_SUMMARY_ENABLED", "true") == "true"
	p.SearchSummaryMaxResults = getEnvOrDefaultInt("VOUCH_SEARCH_SUMMARY_MAX_RESULTS", 10)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "vouch")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/vouch"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("vouch_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver: %s", p.Driver)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn required for postgres driver")
	}

	return nil
}
