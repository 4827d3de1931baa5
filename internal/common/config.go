package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	Pipeline PipelineConfig
	Storage  StorageConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract     string
	Pdftoppm      string
	DocConverter  string // binary used to render non-PDF documents for OCR, e.g. "soffice"
	TesseractLang string
	TessdataDir   string
	DPI           int
	MaxPages      int
	SecondaryURL  string // HTTP OCR engine endpoint; empty disables the secondary
}

// PipelineConfig holds orchestration thresholds and timeouts.
type PipelineConfig struct {
	Workers            int
	QueueSize          int
	MinConfidence      float32
	DefaultCountryCode string
	StageTimeout       time.Duration
	ExtractTimeout     time.Duration
	RunTimeout         time.Duration
	TempDir            string
}

// StorageConfig selects the storage backend documents are fetched from.
type StorageConfig struct {
	Backend   string // "fs" | "object"
	RootDir   string
	ObjectURL string
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is honored when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			DocConverter:  getEnv("DOC_CONVERTER_BIN", ""),
			TesseractLang: getEnv("TESSERACT_LANG", "eng+spa"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 5),
			SecondaryURL:  getEnv("OCR_SECONDARY_URL", ""),
		},
		Pipeline: PipelineConfig{
			Workers:            getEnvAsInt("PIPELINE_WORKERS", 4),
			QueueSize:          getEnvAsInt("PIPELINE_QUEUE_SIZE", 256),
			MinConfidence:      getEnvAsFloat32("PIPELINE_MIN_CONFIDENCE", 0.60),
			DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "57"),
			StageTimeout:       getEnvAsDuration("PIPELINE_STAGE_TIMEOUT", 30*time.Second),
			ExtractTimeout:     getEnvAsDuration("PIPELINE_EXTRACT_TIMEOUT", 2*time.Minute),
			RunTimeout:         getEnvAsDuration("PIPELINE_RUN_TIMEOUT", 5*time.Minute),
			TempDir:            getEnv("PIPELINE_TEMP_DIR", ""),
		},
		Storage: StorageConfig{
			Backend:   getEnv("STORAGE_BACKEND", "fs"),
			RootDir:   getEnv("STORAGE_ROOT", ""),
			ObjectURL: getEnv("STORAGE_OBJECT_URL", ""),
		},
	}
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.Storage.Backend == "object" && c.Storage.ObjectURL == "" {
		return NewAppError("CONFIG_ERROR", "STORAGE_OBJECT_URL is required for the object backend", ErrInvalidInput)
	}
	return nil
}
