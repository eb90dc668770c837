package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Weather   WeatherConfig   `yaml:"weather"`
	LLM       LLMConfig       `yaml:"llm"`
	ImageEdit ImageEditConfig `yaml:"imageEdit"`
	Upload    UploadConfig    `yaml:"upload"`
	Stages    StageConfig     `yaml:"stages"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	StaticDir    string          `yaml:"staticDir"`
	CORSOrigins  []string        `yaml:"corsOrigins"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// WeatherConfig points at the Open-Meteo APIs.
type WeatherConfig struct {
	GeocodingURL   string        `yaml:"geocodingUrl"`
	ForecastURL    string        `yaml:"forecastUrl"`
	ArchiveURL     string        `yaml:"archiveUrl"`
	Language       string        `yaml:"language"`
	ForecastWindow time.Duration `yaml:"forecastWindow"`
	HTTPTimeout    time.Duration `yaml:"httpTimeout"`
}

// LLMConfig selects the text model used for prompt synthesis.
type LLMConfig struct {
	Provider     string  `yaml:"provider"`
	GeminiAPIKey string  `yaml:"geminiApiKey"`
	APIKey       string  `yaml:"apiKey"`
	BaseURL      string  `yaml:"baseUrl"`
	Model        string  `yaml:"model"`
	Temperature  float32 `yaml:"temperature"`
}

// ImageEditConfig controls the hosted image model.
type ImageEditConfig struct {
	ReplicateToken   string `yaml:"replicateToken"`
	ReplicateBaseURL string `yaml:"replicateBaseUrl"`
	Model            string `yaml:"model"`
	MaxDimension     int    `yaml:"maxDimension"`
	MaxPixels        int64  `yaml:"maxPixels"`
}

// UploadConfig controls where uploads live while a request is processed.
type UploadConfig struct {
	Backend  string   `yaml:"backend"`
	Dir      string   `yaml:"dir"`
	MaxBytes int64    `yaml:"maxBytes"`
	S3       S3Config `yaml:"s3"`
}

// S3Config addresses an S3 compatible bucket such as Cloudflare R2.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
}

// StageConfig bounds each pipeline stage.
type StageConfig struct {
	WeatherTimeout time.Duration `yaml:"weatherTimeout"`
	PromptTimeout  time.Duration `yaml:"promptTimeout"`
	EditTimeout    time.Duration `yaml:"editTimeout"`
}

// Provider names accepted in llm.provider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// defaultModels applies when llm.model is left empty.
var defaultModels = map[string]string{
	ProviderGemini: "gemini-2.5-pro",
	ProviderOpenAI: "gpt-4o-mini",
}

// Load reads configuration from a YAML file, an optional .env file and
// environment variables, in increasing precedence.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables already present in the process env.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	applyEnvOverrides(cfg)
	if strings.TrimSpace(cfg.LLM.Model) == "" {
		cfg.LLM.Model = defaultModels[cfg.LLM.Provider]
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.HTTP.Address = ":" + strings.TrimPrefix(v, ":")
	}
	setDuration(&cfg.HTTP.ReadTimeout, "HTTP_READ_TIMEOUT")
	setDuration(&cfg.HTTP.WriteTimeout, "HTTP_WRITE_TIMEOUT")
	if v := os.Getenv("HTTP_STATIC_DIR"); v != "" {
		cfg.HTTP.StaticDir = v
	}
	if v := os.Getenv("HTTP_CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	setInt(&cfg.HTTP.RateLimit.RequestsPerMinute, "HTTP_RATE_LIMIT_RPM")
	setInt(&cfg.HTTP.RateLimit.Burst, "HTTP_RATE_LIMIT_BURST")

	setString(&cfg.Weather.GeocodingURL, "WEATHER_GEOCODING_URL")
	setString(&cfg.Weather.ForecastURL, "WEATHER_FORECAST_URL")
	setString(&cfg.Weather.ArchiveURL, "WEATHER_ARCHIVE_URL")
	setString(&cfg.Weather.Language, "WEATHER_LANGUAGE")
	setDuration(&cfg.Weather.ForecastWindow, "WEATHER_FORECAST_WINDOW")
	setDuration(&cfg.Weather.HTTPTimeout, "WEATHER_HTTP_TIMEOUT")

	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	setString(&cfg.LLM.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}

	setString(&cfg.ImageEdit.ReplicateToken, "REPLICATE_API_TOKEN")
	setString(&cfg.ImageEdit.ReplicateBaseURL, "REPLICATE_BASE_URL")
	setString(&cfg.ImageEdit.Model, "IMAGE_EDIT_MODEL")
	setInt(&cfg.ImageEdit.MaxDimension, "IMAGE_EDIT_MAX_DIMENSION")
	if v := os.Getenv("IMAGE_EDIT_MAX_PIXELS"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.ImageEdit.MaxPixels = parsed
		}
	}

	if v := os.Getenv("VERCEL"); v != "" {
		cfg.Upload.Dir = os.TempDir()
	}
	setString(&cfg.Upload.Backend, "UPLOAD_BACKEND")
	setString(&cfg.Upload.Dir, "UPLOAD_DIR")
	if v := os.Getenv("UPLOAD_MAX_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Upload.MaxBytes = parsed
		}
	}
	setString(&cfg.Upload.S3.Endpoint, "UPLOAD_S3_ENDPOINT")
	setString(&cfg.Upload.S3.AccessKey, "UPLOAD_S3_ACCESS_KEY")
	setString(&cfg.Upload.S3.SecretKey, "UPLOAD_S3_SECRET_KEY")
	setString(&cfg.Upload.S3.Bucket, "UPLOAD_S3_BUCKET")
	setString(&cfg.Upload.S3.Region, "UPLOAD_S3_REGION")
	setString(&cfg.Upload.S3.Prefix, "UPLOAD_S3_PREFIX")

	setDuration(&cfg.Stages.WeatherTimeout, "STAGE_WEATHER_TIMEOUT")
	setDuration(&cfg.Stages.PromptTimeout, "STAGE_PROMPT_TIMEOUT")
	setDuration(&cfg.Stages.EditTimeout, "STAGE_EDIT_TIMEOUT")
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":3000",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 180 * time.Second,
			CORSOrigins:  []string{"*"},
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		Weather: WeatherConfig{
			GeocodingURL:   "https://geocoding-api.open-meteo.com/v1/search",
			ForecastURL:    "https://api.open-meteo.com/v1/forecast",
			ArchiveURL:     "https://archive-api.open-meteo.com/v1/archive",
			Language:       "en",
			ForecastWindow: 90 * 24 * time.Hour,
			HTTPTimeout:    15 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    ProviderGemini,
			Temperature: 0.7,
		},
		ImageEdit: ImageEditConfig{
			Model:        "google/nano-banana",
			MaxDimension: 2048,
			MaxPixels:    50_000_000,
		},
		Upload: UploadConfig{
			Backend:  "disk",
			Dir:      "uploads",
			MaxBytes: 10 << 20,
		},
		Stages: StageConfig{
			WeatherTimeout: 30 * time.Second,
			PromptTimeout:  30 * time.Second,
			EditTimeout:    120 * time.Second,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.Weather.ForecastWindow < 0 {
		return errors.New("weather.forecastWindow cannot be negative")
	}
	switch c.LLM.Provider {
	case ProviderGemini:
		if strings.TrimSpace(c.LLM.GeminiAPIKey) == "" {
			return errors.New("GEMINI_API_KEY is required when llm.provider is gemini")
		}
	case ProviderOpenAI:
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			return errors.New("llm.apiKey is required when llm.provider is openai")
		}
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}
	if strings.TrimSpace(c.ImageEdit.ReplicateToken) == "" {
		return errors.New("REPLICATE_API_TOKEN is required")
	}
	if strings.TrimSpace(c.ImageEdit.Model) == "" {
		return errors.New("imageEdit.model cannot be empty")
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload.maxBytes must be positive")
	}
	switch c.Upload.Backend {
	case "disk":
		if strings.TrimSpace(c.Upload.Dir) == "" {
			return errors.New("upload.dir cannot be empty for the disk backend")
		}
	case "memory":
	case "s3", "r2":
		if c.Upload.S3.Endpoint == "" || c.Upload.S3.Bucket == "" {
			return errors.New("upload.s3.endpoint and upload.s3.bucket are required for the s3 backend")
		}
	default:
		return fmt.Errorf("upload.backend %q is not supported", c.Upload.Backend)
	}
	if c.Stages.WeatherTimeout <= 0 || c.Stages.PromptTimeout <= 0 || c.Stages.EditTimeout <= 0 {
		return errors.New("stage timeouts must be positive")
	}
	// The server write deadline covers the whole process-image response.
	if c.HTTP.WriteTimeout > 0 && c.HTTP.WriteTimeout <= c.Stages.EditTimeout {
		return fmt.Errorf("http.writeTimeout (%s) must exceed stages.editTimeout (%s)", c.HTTP.WriteTimeout, c.Stages.EditTimeout)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
