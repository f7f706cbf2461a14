// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/paper-library/internal/kv"
	"github.com/pdiddy/paper-library/internal/server"
	"github.com/pdiddy/paper-library/pkg/types"
)

const defaultUserAgent = "paper-library/0.1"

// setDefaults registers every configuration default so that environment
// variables bind to nested keys.
func setDefaults(v *viper.Viper) {
	v.SetDefault("library.profile", string(types.ProfileStandard))
	v.SetDefault("library.max_papers", 0)
	v.SetDefault("library.high_water_mark", 100)
	v.SetDefault("library.long_term_retention", 365*24*time.Hour)
	v.SetDefault("library.related_work_retention", 7*24*time.Hour)

	v.SetDefault("storage.backend", string(types.StorageSQLite))
	v.SetDefault("storage.path", "paper-library.db")
	v.SetDefault("storage.quota_bytes", kv.DefaultQuotaBytes)
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.redis_prefix", "paper-library:")

	v.SetDefault("analysis.backend", "")
	v.SetDefault("analysis.endpoint", "")
	v.SetDefault("analysis.api_key", "")
	v.SetDefault("analysis.timeout", 30*time.Second)
	v.SetDefault("analysis.user_agent", defaultUserAgent)
	v.SetDefault("analysis.max_retries", 2)
	v.SetDefault("analysis.documentai.project_id", "")
	v.SetDefault("analysis.documentai.location", "us")
	v.SetDefault("analysis.documentai.processor_id", "")
	v.SetDefault("analysis.documentai.credentials_file", "")

	v.SetDefault("clustering.endpoint", "")
	v.SetDefault("clustering.api_key", "")
	v.SetDefault("clustering.timeout", 30*time.Second)
	v.SetDefault("clustering.user_agent", defaultUserAgent)

	v.SetDefault("related_work.timeout", 30*time.Second)
	v.SetDefault("related_work.user_agent", defaultUserAgent)
	v.SetDefault("related_work.max_results", 20)
	v.SetDefault("related_work.max_keywords", 5)
	v.SetDefault("related_work.enable_arxiv", true)
	v.SetDefault("related_work.enable_semantic_scholar", true)
	v.SetDefault("related_work.enable_openalex", true)
	v.SetDefault("related_work.semantic_scholar_api_key", "")
	v.SetDefault("related_work.openalex_email", "")

	v.SetDefault("server.addr", server.DefaultAddr)
	v.SetDefault("server.allowed_origins", server.DefaultAllowedOrigins)
	v.SetDefault("server.max_body_bytes", server.DefaultMaxBodyBytes)
	v.SetDefault("server.shutdown_timeout", server.DefaultShutdownTimeout)

	v.SetDefault("scheduler.tick_interval", time.Hour)
	v.SetDefault("scheduler.purge_interval", 24*time.Hour)

	v.SetDefault("log.mode", "prod")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("telemetry.sample_ratio", 1.0)
}
