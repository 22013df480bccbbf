package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Google   GoogleConfig   `yaml:"google"`
	Vision   VisionConfig   `yaml:"vision"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Storage  StorageConfig  `yaml:"storage"`
	Queue    QueueConfig    `yaml:"queue"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
	FrontendURL string `yaml:"frontend_url"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

type DatabaseConfig struct {
	URL         string `yaml:"url"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// VisionConfig selects the extraction provider and its policy.
type VisionConfig struct {
	Provider     string        `yaml:"provider"` // gemini, openai
	Policy       string        `yaml:"policy"`   // retrying, single
	GeminiAPIKey string        `yaml:"gemini_api_key"`
	GeminiModel  string        `yaml:"gemini_model"`
	OpenAIAPIKey string        `yaml:"openai_api_key"`
	OpenAIModel  string        `yaml:"openai_model"`
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

// DispatchConfig holds the fixed pacing between outbound calls.
type DispatchConfig struct {
	EmailPacing       time.Duration `yaml:"email_pacing"`
	ContactSyncPacing time.Duration `yaml:"contact_sync_pacing"`
}

type StorageConfig struct {
	Driver    string      `yaml:"driver"` // local, minio
	UploadDir string      `yaml:"upload_dir"`
	Minio     MinioConfig `yaml:"minio"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type QueueConfig struct {
	AMQPURL       string `yaml:"amqp_url"`
	CampaignQueue string `yaml:"campaign_queue"`
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	PolicyRetrying = "retrying"
	PolicySingle   = "single"

	StorageLocal = "local"
	StorageMinio = "minio"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080", MaxUploadMB: 10},
		Log:      LogConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{AutoMigrate: true},
		Auth:     AuthConfig{TokenTTL: 7 * 24 * time.Hour},
		Vision: VisionConfig{
			Provider:    ProviderGemini,
			Policy:      PolicyRetrying,
			GeminiModel: "gemini-1.5-flash",
			OpenAIModel: "gpt-4o-mini",
			Timeout:     30 * time.Second,
		},
		Dispatch: DispatchConfig{
			EmailPacing:       1000 * time.Millisecond,
			ContactSyncPacing: 500 * time.Millisecond,
		},
		Storage: StorageConfig{
			Driver:    StorageLocal,
			UploadDir: "./uploads",
			Minio:     MinioConfig{Bucket: "cards"},
		},
		Queue: QueueConfig{CampaignQueue: "campaign_sends"},
	}
}

// Load reads defaults, then the YAML file named by CONFIG_FILE, then .env and
// the process environment. Later sources win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on OS environment variables")
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Addr = getEnv("HTTP_ADDR", c.Server.Addr)
	c.Server.MaxUploadMB = getEnvAsInt("MAX_UPLOAD_MB", c.Server.MaxUploadMB)
	c.Server.FrontendURL = getEnv("FRONTEND_URL", c.Server.FrontendURL)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	if c.Database.URL == "" && os.Getenv("DB_HOST") != "" {
		c.Database.URL = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"), getEnv("DB_PORT", "5432"), os.Getenv("DB_NAME"),
		)
	}
	c.Database.AutoMigrate = getEnvAsBool("DB_AUTO_MIGRATE", c.Database.AutoMigrate)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.TokenTTL = getEnvAsDuration("JWT_TTL", c.Auth.TokenTTL)

	c.Google.ClientID = getEnv("GOOGLE_CLIENT_ID", c.Google.ClientID)
	c.Google.ClientSecret = getEnv("GOOGLE_CLIENT_SECRET", c.Google.ClientSecret)
	c.Google.RedirectURL = getEnv("GOOGLE_REDIRECT_URL", c.Google.RedirectURL)

	c.Vision.Provider = getEnv("VISION_PROVIDER", c.Vision.Provider)
	c.Vision.Policy = getEnv("VISION_POLICY", c.Vision.Policy)
	c.Vision.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.Vision.GeminiAPIKey)
	c.Vision.GeminiModel = getEnv("GEMINI_MODEL", c.Vision.GeminiModel)
	c.Vision.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.Vision.OpenAIAPIKey)
	c.Vision.OpenAIModel = getEnv("OPENAI_MODEL", c.Vision.OpenAIModel)
	c.Vision.BaseURL = getEnv("VISION_BASE_URL", c.Vision.BaseURL)
	c.Vision.Timeout = getEnvAsDuration("VISION_TIMEOUT", c.Vision.Timeout)

	c.Dispatch.EmailPacing = getEnvAsDuration("DISPATCH_PACING", c.Dispatch.EmailPacing)
	c.Dispatch.ContactSyncPacing = getEnvAsDuration("CONTACT_SYNC_PACING", c.Dispatch.ContactSyncPacing)

	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.UploadDir = getEnv("UPLOAD_DIR", c.Storage.UploadDir)
	c.Storage.Minio.Endpoint = getEnv("MINIO_ENDPOINT", c.Storage.Minio.Endpoint)
	c.Storage.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", c.Storage.Minio.AccessKey)
	c.Storage.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", c.Storage.Minio.SecretKey)
	c.Storage.Minio.Bucket = getEnv("MINIO_BUCKET", c.Storage.Minio.Bucket)
	c.Storage.Minio.UseSSL = getEnvAsBool("MINIO_USE_SSL", c.Storage.Minio.UseSSL)

	c.Queue.AMQPURL = getEnv("AMQP_URL", c.Queue.AMQPURL)
	c.Queue.CampaignQueue = getEnv("CAMPAIGN_QUEUE", c.Queue.CampaignQueue)
}

// Validate validates the loaded configuration. Vision API keys are checked per
// request instead so the server can still start and serve stored cards.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Vision.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown VISION_PROVIDER %q", c.Vision.Provider)
	}
	switch c.Vision.Policy {
	case PolicyRetrying, PolicySingle:
	default:
		return fmt.Errorf("unknown VISION_POLICY %q", c.Vision.Policy)
	}
	switch c.Storage.Driver {
	case StorageLocal:
	case StorageMinio:
		if c.Storage.Minio.Endpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT is required for the minio storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
