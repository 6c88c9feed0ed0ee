package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	StorageGCS = "gcs"
	StorageFS  = "fs"

	FailurePolicyFailFast = "fail_fast"
	FailurePolicyTolerate = "tolerate"
)

// Config holds the configuration for the application.
type Config struct {
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	OpenAIImageSize string

	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string

	DatabasePath string

	StorageBackend    string
	StorageFSRoot     string
	DestinationBucket string
	ThumbnailBucket   string
	ThumbnailDir      string
	CDNURLPrefix      string

	PlanVariants      int
	PlanLength        int
	PlanFailurePolicy string
	CompletionTries   int
	CompletionSleep   time.Duration
	ImageBatchSize    int

	TriggerSigningKey string
	Port              string
	LogMode           string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	openAIModel := os.Getenv("OPENAI_GPT_MODEL_VERSION")
	if openAIModel == "" {
		return nil, fmt.Errorf("OPENAI_GPT_MODEL_VERSION environment variable not set")
	}

	provider := strings.ToLower(envOr("LLM_PROVIDER", ProviderOpenAI))
	if provider != ProviderOpenAI && provider != ProviderGemini {
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", provider)
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if provider == ProviderGemini && geminiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	destinationBucket := os.Getenv("DESTINATION_BUCKET")
	if destinationBucket == "" {
		return nil, fmt.Errorf("DESTINATION_BUCKET environment variable not set")
	}

	backend := strings.ToLower(envOr("STORAGE_BACKEND", StorageGCS))
	if backend != StorageGCS && backend != StorageFS {
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", backend)
	}

	policy := strings.ToLower(envOr("PLAN_FAILURE_POLICY", FailurePolicyFailFast))
	if policy != FailurePolicyFailFast && policy != FailurePolicyTolerate {
		return nil, fmt.Errorf("unsupported PLAN_FAILURE_POLICY %q", policy)
	}

	ints := map[string]int{
		"PLAN_VARIANTS":            3,
		"PLAN_LENGTH":              7,
		"COMPLETION_MAX_TRIES":     10,
		"COMPLETION_SLEEP_SECONDS": 3,
		"IMAGE_BATCH_SIZE":         5,
	}
	for name, def := range ints {
		v, err := envInt(name, def)
		if err != nil {
			return nil, err
		}
		ints[name] = v
	}

	allowed, err := parseUserIDs(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, err
	}

	return &Config{
		OpenAIAPIKey:           openAIKey,
		OpenAIBaseURL:          strings.TrimRight(envOr("OPENAI_BASE_URL", "https://api.openai.com"), "/"),
		OpenAIModel:            openAIModel,
		OpenAIImageSize:        envOr("OPENAI_IMAGE_SIZE", "1024x1024"),
		LLMProvider:            provider,
		GeminiAPIKey:           geminiKey,
		GeminiModel:            envOr("GEMINI_MODEL", "gemini-1.5-flash"),
		DatabasePath:           envOr("DATABASE_PATH", "data/mealhow.db"),
		StorageBackend:         backend,
		StorageFSRoot:          envOr("STORAGE_FS_ROOT", "data/objects"),
		DestinationBucket:      destinationBucket,
		ThumbnailBucket:        envOr("THUMBNAIL_BUCKET", destinationBucket),
		ThumbnailDir:           strings.Trim(envOr("DESTINATION_DIR", "meal-images"), "/"),
		CDNURLPrefix:           envOr("CDN_URL_PREFIX", "https://static.mealhow.ai/meal-images/"),
		PlanVariants:           ints["PLAN_VARIANTS"],
		PlanLength:             ints["PLAN_LENGTH"],
		PlanFailurePolicy:      policy,
		CompletionTries:        ints["COMPLETION_MAX_TRIES"],
		CompletionSleep:        time.Duration(ints["COMPLETION_SLEEP_SECONDS"]) * time.Second,
		ImageBatchSize:         ints["IMAGE_BATCH_SIZE"],
		TriggerSigningKey:      os.Getenv("TRIGGER_SIGNING_KEY"),
		Port:                   envOr("PORT", "8080"),
		LogMode:                envOr("LOG_MODE", "dev"),
		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowed,
	}, nil
}

func envOr(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, raw)
	}
	return v, nil
}

func parseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
