package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Embedding modes. Exactly one is active per deployment.
const (
	EmbeddingModeNone   = "none"
	EmbeddingModeDense  = "dense"
	EmbeddingModeSparse = "sparse"
)

// Extraction policies for PDFs where some pages cannot be read.
const (
	ExtractionStrict  = "strict"
	ExtractionLenient = "lenient"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string
	MaxFileSize int64

	// Elasticsearch (slide index)
	ElasticsearchURL    string
	ElasticsearchAPIKey string
	SlidesIndex         string
	SearchMaxResults    int
	IndexRefresh        string

	// MongoDB (courses, notes, folders)
	MongoURI string
	DBName   string

	// Embeddings
	EmbeddingMode         string // "none" (default), "dense", "sparse"
	ELSERPipeline         string // ingest pipeline used in sparse mode
	GeminiAPIKey          string
	GoogleEmbeddingsModel string
	VectorDimensions      int
	EmbeddingsRPM         int

	// Ingestion
	StorePDFBinary   bool
	ExtractionPolicy string
	ValidatePDF      bool
	RequestTimeout   time.Duration

	// Rate limiting
	RateLimitEnabled bool
	RedisURL         string
	RedisPassword    string
	RedisDB          int
	RateLimitReqs    int
	RateLimitWindow  int

	// OpenTelemetry
	OTelEnabled     bool
	OTelEndpoint    string
	OTelSampleRatio float64
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		MaxFileSize: getEnvInt64("MAX_FILE_SIZE", 52428800), // 50MB

		ElasticsearchURL:    getEnv("ELASTICSEARCH_URL", ""),
		ElasticsearchAPIKey: getEnv("ELASTICSEARCH_API_KEY", ""),
		SlidesIndex:         getEnv("SLIDES_INDEX", "lecture-slides-index"),
		SearchMaxResults:    getEnvInt("SEARCH_MAX_RESULTS", 10000),
		IndexRefresh:        getEnv("INDEX_REFRESH", "wait_for"),

		MongoURI: getEnv("MONGODB_URL", "mongodb://localhost:27017"),
		DBName:   getEnv("DB_NAME", "slides_db"),

		EmbeddingMode:         strings.ToLower(getEnv("EMBEDDING_MODE", EmbeddingModeNone)),
		ELSERPipeline:         getEnv("ELSER_PIPELINE", ""),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		VectorDimensions:      getEnvInt("VECTOR_DIM", 768),
		EmbeddingsRPM:         getEnvInt("EMBEDDINGS_RPM", 1500),

		StorePDFBinary:   getEnvBool("STORE_PDF_BINARY", true),
		ExtractionPolicy: strings.ToLower(getEnv("EXTRACTION_POLICY", ExtractionStrict)),
		ValidatePDF:      getEnvBool("PDF_VALIDATE", true),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", false),
		RedisURL:         getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RateLimitReqs:    getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:  getEnvInt("RATE_LIMIT_WINDOW", 60),

		OTelEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio: getEnvFloat64("OTEL_SAMPLE_RATIO", 0.1),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the combinations LoadConfig cannot default its way out of.
func (c *Config) Validate() error {
	if c.ElasticsearchURL == "" {
		return fmt.Errorf("ELASTICSEARCH_URL is required - set it in .env file")
	}

	switch c.EmbeddingMode {
	case EmbeddingModeNone:
	case EmbeddingModeDense:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when EMBEDDING_MODE=dense")
		}
		if c.VectorDimensions <= 0 {
			return fmt.Errorf("VECTOR_DIM must be positive, got %d", c.VectorDimensions)
		}
	case EmbeddingModeSparse:
		if c.ELSERPipeline == "" {
			return fmt.Errorf("ELSER_PIPELINE is required when EMBEDDING_MODE=sparse")
		}
	default:
		return fmt.Errorf("unknown EMBEDDING_MODE %q (want none, dense or sparse)", c.EmbeddingMode)
	}

	switch c.ExtractionPolicy {
	case ExtractionStrict, ExtractionLenient:
	default:
		return fmt.Errorf("unknown EXTRACTION_POLICY %q (want strict or lenient)", c.ExtractionPolicy)
	}

	if c.SearchMaxResults <= 0 {
		return fmt.Errorf("SEARCH_MAX_RESULTS must be positive, got %d", c.SearchMaxResults)
	}

	return nil
}

// IndexPipeline returns the ingest pipeline to thread through index calls, if any.
func (c *Config) IndexPipeline() string {
	if c.EmbeddingMode == EmbeddingModeSparse {
		return c.ELSERPipeline
	}
	return ""
}
