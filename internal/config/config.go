// Package config handles application configuration using Viper.
// Defaults, an optional YAML file and THUMBGEN_ environment variables are
// merged in that priority order and unmarshaled into structs.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fleveque/thumbnail-service/internal/model"
)

// EnvPrefix is prepended to every environment variable:
// THUMBGEN_CONTENT_API_HOST -> content.api_host.
const EnvPrefix = "THUMBGEN"

// Config is the root configuration struct. `mapstructure` tags tell Viper
// how to map YAML/env keys to struct fields.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Content   ContentConfig   `mapstructure:"content"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Imagen    ImagenConfig    `mapstructure:"imagen"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Summary   SummaryConfig   `mapstructure:"summary"`
	Image     ImageConfig     `mapstructure:"image"`
	Vendor    VendorConfig    `mapstructure:"vendor"`
	Timeouts  TimeoutsConfig  `mapstructure:"timeouts"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// ContentConfig points at the content platform that owns course metadata
// and serves generated images back through its proxy.
type ContentConfig struct {
	APIHost     string `mapstructure:"api_host"`
	ProxyPath   string `mapstructure:"proxy_path"`
	AssetPrefix string `mapstructure:"asset_prefix"`
}

// Storage providers.
const (
	ProviderGCS        = "gcs"
	ProviderS3         = "s3"
	ProviderFileSystem = "filesystem"
	ProviderMemory     = "memory"
)

type StorageConfig struct {
	Provider        string   `mapstructure:"provider"`
	Bucket          string   `mapstructure:"bucket"`
	CredentialsFile string   `mapstructure:"credentials_file"`
	ThumbnailFolder string   `mapstructure:"thumbnail_folder"`
	PublicURLs      bool     `mapstructure:"public_urls"`
	BaseDir         string   `mapstructure:"base_dir"`
	PublicBaseURL   string   `mapstructure:"public_base_url"`
	DatabasePath    string   `mapstructure:"database_path"`
	S3              S3Config `mapstructure:"s3"`
}

// S3Config is used when storage.provider is "s3". The bucket is
// storage.bucket.
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// GeminiConfig selects the Gemini API (APIKey) or Vertex AI (Project).
type GeminiConfig struct {
	APIKey          string `mapstructure:"api_key"`
	Project         string `mapstructure:"project"`
	Location        string `mapstructure:"location"`
	CredentialsFile string `mapstructure:"credentials_file"`
	VisionModel     string `mapstructure:"vision_model"`
	ImageModel      string `mapstructure:"image_model"`
	DescribePrompt  string `mapstructure:"describe_prompt"`
	MaxOutputTokens int32  `mapstructure:"max_output_tokens"`
}

type ImagenConfig struct {
	NumberOfImages    int32  `mapstructure:"number_of_images"`
	AspectRatio       string `mapstructure:"aspect_ratio"`
	SafetyFilterLevel string `mapstructure:"safety_filter_level"`
	PersonGeneration  string `mapstructure:"person_generation"`
	NegativePrompt    string `mapstructure:"negative_prompt"`
}

type OpenAIConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	SummaryModel string `mapstructure:"summary_model"`
	PromptModel  string `mapstructure:"prompt_model"`
	ImageModel   string `mapstructure:"image_model"`
}

type SummaryConfig struct {
	TokenMax int `mapstructure:"token_max"`
}

type ImageConfig struct {
	JPEGQuality int `mapstructure:"jpeg_quality"`
}

type VendorConfig struct {
	RatePerMinute int `mapstructure:"rate_per_minute"`
}

// TimeoutsConfig bounds each kind of outbound call. Viper decodes
// duration strings such as "30s".
type TimeoutsConfig struct {
	Content  time.Duration `mapstructure:"content"`
	Download time.Duration `mapstructure:"download"`
	Model    time.Duration `mapstructure:"model"`
	Storage  time.Duration `mapstructure:"storage"`
}

type AuthConfig struct {
	APIKeys   []string `mapstructure:"api_keys"`
	AdminKeys []string `mapstructure:"admin_keys"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Read config file (ignore "not found", defaults + env are enough)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Environment variables override everything.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("content.api_host", "")
	v.SetDefault("content.proxy_path", "/content-store/thumbnails")
	v.SetDefault("content.asset_prefix", "/assets/public/")

	v.SetDefault("storage.provider", ProviderGCS)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.credentials_file", "")
	v.SetDefault("storage.thumbnail_folder", "thumbnails")
	v.SetDefault("storage.public_urls", false)
	v.SetDefault("storage.base_dir", "./storage/images")
	v.SetDefault("storage.public_base_url", "http://localhost:8080/files")
	v.SetDefault("storage.database_path", "./storage/thumbnail-service.db")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.use_ssl", true)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.project", "")
	v.SetDefault("gemini.location", "us-central1")
	v.SetDefault("gemini.credentials_file", "")
	v.SetDefault("gemini.vision_model", "gemini-1.5-pro")
	v.SetDefault("gemini.image_model", "imagen-3.0-generate-001")
	v.SetDefault("gemini.describe_prompt", "")
	v.SetDefault("gemini.max_output_tokens", 512)

	v.SetDefault("imagen.number_of_images", 1)
	v.SetDefault("imagen.aspect_ratio", "4:3")
	v.SetDefault("imagen.safety_filter_level", "block_some")
	v.SetDefault("imagen.person_generation", "allow_adult")
	// Empty means llm.DefaultNegativePrompt.
	v.SetDefault("imagen.negative_prompt", "")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.summary_model", "gpt-4o-mini")
	v.SetDefault("openai.prompt_model", "gpt-4o")
	v.SetDefault("openai.image_model", "dall-e-3")

	v.SetDefault("summary.token_max", 1000)
	v.SetDefault("image.jpeg_quality", 80)
	v.SetDefault("vendor.rate_per_minute", 0)

	v.SetDefault("timeouts.content", "15s")
	v.SetDefault("timeouts.download", "30s")
	v.SetDefault("timeouts.model", "120s")
	v.SetDefault("timeouts.storage", "30s")

	v.SetDefault("auth.api_keys", []string{})
	v.SetDefault("auth.admin_keys", []string{})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("rate_limit.requests_per_second", 5)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("log.level", "info")
}

// Validate checks the settings every pipeline depends on. Vendor
// credentials are checked when the clients are built.
func (c *Config) Validate() error {
	if c.Content.APIHost == "" {
		return fmt.Errorf("%w: content.api_host is required", model.ErrConfiguration)
	}
	switch c.Storage.Provider {
	case ProviderGCS:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("%w: storage.bucket is required for the gcs provider", model.ErrConfiguration)
		}
	case ProviderS3:
		if c.Storage.Bucket == "" || c.Storage.S3.Endpoint == "" {
			return fmt.Errorf("%w: storage.bucket and storage.s3.endpoint are required for the s3 provider", model.ErrConfiguration)
		}
	case ProviderFileSystem, ProviderMemory:
	default:
		return fmt.Errorf("%w: unknown storage.provider %q", model.ErrConfiguration, c.Storage.Provider)
	}
	return nil
}

// Address returns the listen address string like "0.0.0.0:8080".
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
