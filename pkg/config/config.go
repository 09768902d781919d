package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Storage       StorageConfig
	Transcription TranscriptionConfig
	Summarization SummarizationConfig
	Pipeline      PipelineConfig
	Dispatch      DispatchConfig
	Kafka         KafkaConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
	// UploadMaxBytes bounds multipart recording uploads.
	UploadMaxBytes int64 `envconfig:"UPLOAD_MAX_BYTES" default:"104857600"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host          string `envconfig:"DB_HOST" default:"localhost"`
	Port          string `envconfig:"DB_PORT" default:"5432"`
	User          string `envconfig:"DB_USER" default:"postgres"`
	Password      string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name          string `envconfig:"DB_NAME" default:"meeting_pipeline"`
	SSLMode       string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns      int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns      int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate   bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
	MigrationsDir string `envconfig:"DB_MIGRATIONS_DIR" default:"migrations"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret string        `envconfig:"JWT_ACCESS_SECRET" default:"your-access-secret-change-in-production"`
	AccessExpiry time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"15m"`
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Backend   string      `envconfig:"STORAGE_BACKEND" default:"local"` // "local", "minio" or "s3"
	Folder    string      `envconfig:"STORAGE_FOLDER" default:"meetings"`
	LocalRoot string      `envconfig:"STORAGE_LOCAL_ROOT" default:"./uploads"`
	MinIO     MinIOConfig `ignored:"true"`
	S3        S3Config    `ignored:"true"`
}

// MinIOConfig holds MinIO connection settings
type MinIOConfig struct {
	Endpoint        string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"MINIO_BUCKET" default:"meeting-recordings"`
	UseSSL          bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	Region          string `envconfig:"MINIO_REGION" default:"us-east-1"`
}

// S3Config holds AWS S3 connection settings
type S3Config struct {
	Region          string `envconfig:"S3_REGION" default:"us-east-1"`
	Bucket          string `envconfig:"S3_BUCKET"`
	Endpoint        string `envconfig:"S3_ENDPOINT"` // optional override for S3-compatible endpoints
	AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `envconfig:"S3_USE_PATH_STYLE" default:"false"`
}

// TranscriptionConfig lists transcription providers in preference order.
// The first configured provider is used.
type TranscriptionConfig struct {
	Providers []string `envconfig:"TRANSCRIPTION_PROVIDERS" default:"groq,openai,assemblyai,local"`
	// HostedMaxBytes is the input ceiling for hosted Whisper endpoints.
	HostedMaxBytes int64            `envconfig:"TRANSCRIPTION_HOSTED_MAX_BYTES" default:"26214400"`
	Groq           GroqConfig       `ignored:"true"`
	OpenAI         OpenAIConfig     `ignored:"true"`
	AssemblyAI     AssemblyAIConfig `ignored:"true"`
	Whisper        WhisperConfig    `ignored:"true"`
}

// GroqConfig holds Groq API settings (OpenAI-compatible endpoints)
type GroqConfig struct {
	APIKey             string `envconfig:"GROQ_API_KEY"`
	BaseURL            string `envconfig:"GROQ_BASE_URL" default:"https://api.groq.com/openai/v1"`
	TranscriptionModel string `envconfig:"GROQ_TRANSCRIPTION_MODEL" default:"whisper-large-v3-turbo"`
	ChatModel          string `envconfig:"GROQ_CHAT_MODEL" default:"llama-3.3-70b-versatile"`
}

// OpenAIConfig holds OpenAI API settings
type OpenAIConfig struct {
	APIKey             string `envconfig:"OPENAI_API_KEY"`
	BaseURL            string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	TranscriptionModel string `envconfig:"OPENAI_TRANSCRIPTION_MODEL" default:"whisper-1"`
	ChatModel          string `envconfig:"OPENAI_CHAT_MODEL" default:"gpt-4"`
}

// AssemblyAIConfig holds AssemblyAI settings
type AssemblyAIConfig struct {
	APIKey        string `envconfig:"ASSEMBLYAI_API_KEY"`
	LanguageCode  string `envconfig:"ASSEMBLYAI_LANGUAGE_CODE"`
	SpeakerLabels bool   `envconfig:"ASSEMBLYAI_SPEAKER_LABELS" default:"true"`
	MaxBytes      int64  `envconfig:"ASSEMBLYAI_MAX_BYTES" default:"0"`
}

// WhisperConfig holds settings for the local whisper.cpp model
type WhisperConfig struct {
	Binary    string `envconfig:"WHISPER_BINARY"`
	ModelDir  string `envconfig:"WHISPER_MODEL_DIR" default:"./models"`
	ModelSize string `envconfig:"WHISPER_MODEL_SIZE" default:"base"`
	UseGPU    bool   `envconfig:"WHISPER_USE_GPU" default:"false"`
	Threads   int    `envconfig:"WHISPER_THREADS" default:"4"`
	Language  string `envconfig:"WHISPER_LANGUAGE" default:"auto"`
}

// SummarizationConfig lists chat providers in preference order
type SummarizationConfig struct {
	Providers   []string      `envconfig:"SUMMARIZATION_PROVIDERS" default:"groq,openai"`
	Temperature float64       `envconfig:"SUMMARIZATION_TEMPERATURE" default:"0.3"`
	MaxTokens   int           `envconfig:"SUMMARIZATION_MAX_TOKENS" default:"1024"`
	Timeout     time.Duration `envconfig:"SUMMARIZATION_TIMEOUT" default:"2m"`
}

// PipelineConfig holds meeting processing settings
type PipelineConfig struct {
	MinConfidence       float64       `envconfig:"PIPELINE_MIN_CONFIDENCE" default:"0.6"`
	TempDir             string        `envconfig:"PIPELINE_TEMP_DIR"`
	StatusUpdateTimeout time.Duration `envconfig:"PIPELINE_STATUS_UPDATE_TIMEOUT" default:"10s"`
}

// DispatchConfig selects how pipeline runs are scheduled
type DispatchConfig struct {
	Mode              string        `envconfig:"DISPATCH_MODE" default:"background"` // "background" or "queue"
	Workers           int           `envconfig:"DISPATCH_WORKERS" default:"2"`
	QueueSize         int           `envconfig:"DISPATCH_QUEUE_SIZE" default:"64"`
	QueueName         string        `envconfig:"DISPATCH_QUEUE_NAME" default:"meetings"`
	JobTimeout        time.Duration `envconfig:"DISPATCH_JOB_TIMEOUT" default:"30m"`
	LeaseGrace        time.Duration `envconfig:"DISPATCH_LEASE_GRACE" default:"5m"`
	ReapInterval      time.Duration `envconfig:"DISPATCH_REAP_INTERVAL" default:"1m"`
	EnqueueMaxElapsed time.Duration `envconfig:"DISPATCH_ENQUEUE_MAX_ELAPSED" default:"30s"`
	InFlightTTL       time.Duration `envconfig:"DISPATCH_INFLIGHT_TTL" default:"35m"`
}

// KafkaConfig holds event publishing settings. No brokers disables publishing.
type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"meeting.processed"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv decodes every section from the process environment without validating
func FromEnv() (*Config, error) {
	cfg := &Config{}

	// Tags carry the full variable name; envconfig also falls back to the
	// bare tag, so section prefixes must not be applied here.
	sections := []interface{}{
		&cfg.Server,
		&cfg.Database,
		&cfg.Redis,
		&cfg.JWT,
		&cfg.Storage,
		&cfg.Storage.MinIO,
		&cfg.Storage.S3,
		&cfg.Transcription,
		&cfg.Transcription.Groq,
		&cfg.Transcription.OpenAI,
		&cfg.Transcription.AssemblyAI,
		&cfg.Transcription.Whisper,
		&cfg.Summarization,
		&cfg.Pipeline,
		&cfg.Dispatch,
		&cfg.Kafka,
	}

	for _, s := range sections {
		if err := envconfig.Process("", s); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "local", "minio", "s3":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of local, minio, s3 (got %q)", c.Storage.Backend)
	}
	if c.Storage.Backend == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=s3")
	}

	switch c.Dispatch.Mode {
	case "background", "queue":
	default:
		return fmt.Errorf("DISPATCH_MODE must be background or queue (got %q)", c.Dispatch.Mode)
	}
	if c.Dispatch.Workers < 1 {
		return fmt.Errorf("DISPATCH_WORKERS must be at least 1")
	}
	if c.Dispatch.JobTimeout <= 0 {
		return fmt.Errorf("DISPATCH_JOB_TIMEOUT must be positive")
	}

	if c.Pipeline.MinConfidence < 0 || c.Pipeline.MinConfidence > 1 {
		return fmt.Errorf("PIPELINE_MIN_CONFIDENCE must be within [0, 1] (got %v)", c.Pipeline.MinConfidence)
	}

	if c.Server.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	if c.JWT.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	return nil
}

// Warnings reports settings that are valid but likely to fail at runtime
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Server.UploadMaxBytes > c.Transcription.HostedMaxBytes && c.Transcription.HostedMaxBytes > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"UPLOAD_MAX_BYTES (%d) exceeds TRANSCRIPTION_HOSTED_MAX_BYTES (%d); large uploads will fail with hosted Whisper providers",
			c.Server.UploadMaxBytes, c.Transcription.HostedMaxBytes))
	}
	if c.Server.Environment == "production" && c.JWT.AccessSecret == "your-access-secret-change-in-production" {
		warnings = append(warnings, "JWT_ACCESS_SECRET is using the development default")
	}
	return warnings
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
