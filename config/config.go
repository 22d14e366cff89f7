package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Gemini   GeminiConfig
	OCR      OCRConfig
	Catalog  CatalogConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Storage  StorageConfig
	AWS      AWSConfig
	Analysis AnalysisConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadMB    int64    `mapstructure:"max_upload_mb"`
}

// GeminiConfig holds configuration for the reasoning and vision model
type GeminiConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OCRConfig selects and configures the text recognition providers
type OCRConfig struct {
	IngredientsProvider string        `mapstructure:"ingredients_provider"`
	BarcodeProvider     string        `mapstructure:"barcode_provider"`
	TesseractPath       string        `mapstructure:"tesseract_path"`
	Language            string        `mapstructure:"language"`
	Timeout             time.Duration `mapstructure:"timeout"`
}

// CatalogConfig holds Open Food Facts client configuration
type CatalogConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerMinute int           `mapstructure:"rate_per_minute"`
	UserAgent     string        `mapstructure:"user_agent"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// DatabaseConfig holds SQLite configuration
type DatabaseConfig struct {
	Path  string `mapstructure:"path"`
	Debug bool   `mapstructure:"debug"`
}

// StorageConfig selects where uploaded images are kept
type StorageConfig struct {
	Type     string `mapstructure:"type"` // "local" or "s3"
	LocalDir string `mapstructure:"local_dir"`
	S3Bucket string `mapstructure:"s3_bucket"`
	S3Prefix string `mapstructure:"s3_prefix"`
}

// AWSConfig holds AWS SDK configuration
type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// AnalysisConfig tunes the ingredient analysis pipeline
type AnalysisConfig struct {
	StripOCRPreamble   bool `mapstructure:"strip_ocr_preamble"`
	EnableDebugLogging bool `mapstructure:"enable_debug_logging"`
}

var ocrProviders = map[string]bool{"tesseract": true, "gemini": true, "rekognition": true}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/nutriscan/")

	// Environment variable settings: server.port -> NUTRISCAN_SERVER_PORT
	v.SetEnvPrefix("NUTRISCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile exports the variables of a dotenv file that are not already
// set. A missing file is not an error.
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	log.Printf("[CONFIG] Loaded environment from %s", path)
	return nil
}

// setDefaults sets default configuration values. Every key has a default so
// AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.max_upload_mb", 10)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.timeout", "60s")

	// OCR defaults
	v.SetDefault("ocr.ingredients_provider", "gemini")
	v.SetDefault("ocr.barcode_provider", "gemini")
	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.timeout", "30s")

	// Catalog defaults
	v.SetDefault("catalog.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("catalog.timeout", "10s")
	v.SetDefault("catalog.rate_per_minute", 100)
	v.SetDefault("catalog.user_agent", "NutriScan/1.0")

	// Cache defaults
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// Database defaults
	v.SetDefault("database.path", "nutriscan.db")
	v.SetDefault("database.debug", false)

	// Storage defaults
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_dir", "uploads")
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_prefix", "")

	// AWS defaults
	v.SetDefault("aws.region", "")

	// Analysis defaults
	v.SetDefault("analysis.strip_ocr_preamble", true)
	v.SetDefault("analysis.enable_debug_logging", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Gemini.APIKey == "" {
		return fmt.Errorf("Gemini API key is required (set NUTRISCAN_GEMINI_API_KEY)")
	}

	for name, provider := range map[string]string{
		"ingredients": config.OCR.IngredientsProvider,
		"barcode":     config.OCR.BarcodeProvider,
	} {
		if !ocrProviders[provider] {
			return fmt.Errorf("%s OCR provider must be 'tesseract', 'gemini' or 'rekognition', got: %s", name, provider)
		}
	}

	if config.Storage.Type != "local" && config.Storage.Type != "s3" {
		return fmt.Errorf("storage type must be 'local' or 's3', got: %s", config.Storage.Type)
	}

	if config.Storage.Type == "s3" && config.Storage.S3Bucket == "" {
		return fmt.Errorf("S3 bucket is required when storage type is 's3'")
	}

	if config.UsesAWS() && config.AWS.Region == "" {
		return fmt.Errorf("AWS region is required for S3 storage or Rekognition OCR (set NUTRISCAN_AWS_REGION)")
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %s", config.Cache.TTL)
	}

	return nil
}

// UsesAWS reports whether any configured component talks to AWS
func (c *Config) UsesAWS() bool {
	return c.Storage.Type == "s3" ||
		c.OCR.IngredientsProvider == "rekognition" ||
		c.OCR.BarcodeProvider == "rekognition"
}

// UsesProvider reports whether name serves either OCR role
func (c *Config) UsesProvider(name string) bool {
	return c.OCR.IngredientsProvider == name || c.OCR.BarcodeProvider == name
}
