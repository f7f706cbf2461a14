// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout bounds a whole gateway call, retries included (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-library/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// LibraryProfile selects a preset library size policy.
type LibraryProfile string

const (
	ProfileStandard    LibraryProfile = "standard"
	ProfileLightweight LibraryProfile = "lightweight"
)

// LightweightMaxPapers is the library cap of the lightweight profile.
const LightweightMaxPapers = 5

// LibraryConfig holds size and retention policy for the library store.
type LibraryConfig struct {
	// Profile selects a preset; lightweight caps the library at 5 papers.
	Profile LibraryProfile `json:"profile" yaml:"profile" mapstructure:"profile"`

	// MaxPapers caps the library; 0 means unbounded. Oldest papers are
	// evicted first.
	MaxPapers int `json:"max_papers" yaml:"max_papers" mapstructure:"max_papers"`

	// HighWaterMark is the paper count above which PurgeStale evicts
	// papers older than LongTermRetention (default 100).
	HighWaterMark int `json:"high_water_mark" yaml:"high_water_mark" mapstructure:"high_water_mark"`

	// LongTermRetention is the paper age eligible for purge (default one year).
	LongTermRetention time.Duration `json:"long_term_retention" yaml:"long_term_retention" mapstructure:"long_term_retention"`

	// RelatedWorkRetention is the related-work cache lifetime (default 7 days).
	RelatedWorkRetention time.Duration `json:"related_work_retention" yaml:"related_work_retention" mapstructure:"related_work_retention"`
}

// EffectiveMaxPapers resolves the cap after applying the profile.
func (c LibraryConfig) EffectiveMaxPapers() int {
	if c.Profile == ProfileLightweight && (c.MaxPapers <= 0 || c.MaxPapers > LightweightMaxPapers) {
		return LightweightMaxPapers
	}
	if c.MaxPapers < 0 {
		return 0
	}
	return c.MaxPapers
}

// StorageBackend identifies the key-value backend.
type StorageBackend string

const (
	StorageSQLite StorageBackend = "sqlite"
	StorageRedis  StorageBackend = "redis"
	StorageMemory StorageBackend = "memory"
)

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend StorageBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// QuotaBytes bounds the total stored bytes; 0 means unbounded.
	QuotaBytes int64 `json:"quota_bytes" yaml:"quota_bytes" mapstructure:"quota_bytes"`

	RedisAddr     string `json:"redis_addr" yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty" mapstructure:"redis_password"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db" mapstructure:"redis_db"`

	// RedisPrefix namespaces keys (default "paper-library:").
	RedisPrefix string `json:"redis_prefix" yaml:"redis_prefix" mapstructure:"redis_prefix"`
}

// AnalysisBackend identifies the analysis gateway implementation.
type AnalysisBackend string

const (
	AnalysisNone       AnalysisBackend = "none"
	AnalysisHTTP       AnalysisBackend = "http"
	AnalysisDocumentAI AnalysisBackend = "documentai"
)

// DocumentAIConfig locates a Google Cloud Document AI processor.
type DocumentAIConfig struct {
	ProjectID   string `json:"project_id" yaml:"project_id" mapstructure:"project_id"`
	Location    string `json:"location" yaml:"location" mapstructure:"location"`
	ProcessorID string `json:"processor_id" yaml:"processor_id" mapstructure:"processor_id"`

	// CredentialsFile is a service account JSON file; empty uses ADC.
	CredentialsFile string `json:"credentials_file,omitempty" yaml:"credentials_file,omitempty" mapstructure:"credentials_file"`
}

// AnalysisConfig configures the analysis gateway.
type AnalysisConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	Backend AnalysisBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Endpoint is the base URL of the HTTP analysis API.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of retry attempts for failed calls (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	DocumentAI DocumentAIConfig `json:"documentai" yaml:"documentai" mapstructure:"documentai"`
}

// ClusteringConfig configures the clustering gateway.
type ClusteringConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Endpoint is the base URL of the clustering API; empty means always fall back.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// RelatedWorkConfig holds settings for related-work discovery.
type RelatedWorkConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxResults is the maximum number of results kept (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// MaxKeywords bounds the keywords derived from the library (default 5).
	MaxKeywords int `json:"max_keywords" yaml:"max_keywords" mapstructure:"max_keywords"`

	EnableArxiv           bool `json:"enable_arxiv" yaml:"enable_arxiv" mapstructure:"enable_arxiv"`
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar" mapstructure:"enable_semantic_scholar"`
	EnableOpenAlex        bool `json:"enable_openalex" yaml:"enable_openalex" mapstructure:"enable_openalex"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// OpenAlexEmail is sent as mailto for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	// Addr is the listen address (default "127.0.0.1:8787").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// AllowedOrigins are CORS origins; "*" wildcards are allowed
	// (default "chrome-extension://*").
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" mapstructure:"allowed_origins"`

	// MaxBodyBytes bounds request bodies; uploads arrive base64 encoded
	// (default 32 MiB).
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" mapstructure:"max_body_bytes"`

	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// SchedulerConfig configures the periodic tasks.
type SchedulerConfig struct {
	TickInterval  time.Duration `json:"tick_interval" yaml:"tick_interval" mapstructure:"tick_interval"`
	PurgeInterval time.Duration `json:"purge_interval" yaml:"purge_interval" mapstructure:"purge_interval"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Mode is "dev" or "prod".
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode"`
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Endpoint is an OTLP/HTTP endpoint; empty exports to stdout.
	Endpoint    string  `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	Insecure    bool    `json:"insecure" yaml:"insecure" mapstructure:"insecure"`
	SampleRatio float64 `json:"sample_ratio" yaml:"sample_ratio" mapstructure:"sample_ratio"`
}

// Config groups all component configurations.
type Config struct {
	Library     LibraryConfig     `json:"library" yaml:"library" mapstructure:"library"`
	Storage     StorageConfig     `json:"storage" yaml:"storage" mapstructure:"storage"`
	Analysis    AnalysisConfig    `json:"analysis" yaml:"analysis" mapstructure:"analysis"`
	Clustering  ClusteringConfig  `json:"clustering" yaml:"clustering" mapstructure:"clustering"`
	RelatedWork RelatedWorkConfig `json:"related_work" yaml:"related_work" mapstructure:"related_work"`
	Server      ServerConfig      `json:"server" yaml:"server" mapstructure:"server"`
	Scheduler   SchedulerConfig   `json:"scheduler" yaml:"scheduler" mapstructure:"scheduler"`
	Log         LogConfig         `json:"log" yaml:"log" mapstructure:"log"`
	Telemetry   TelemetryConfig   `json:"telemetry" yaml:"telemetry" mapstructure:"telemetry"`
}
