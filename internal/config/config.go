// Package config provides the configuration structure for the audio-service.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL            string `toml:"url"`
	ProcessSubject string `toml:"process_subject"`
	AudioBucket    string `toml:"audio_bucket"`
	JobsBucket     string `toml:"jobs_bucket"`
	LeasesBucket   string `toml:"leases_bucket"`
	AssetsBucket   string `toml:"assets_bucket"`
	PostsBucket    string `toml:"posts_bucket"`
}

// ProviderConfig holds the connection settings for one remote provider.
type ProviderConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StorageConfig holds the public serving settings for archived audio.
type StorageConfig struct {
	PublicURLBase      string `toml:"public_url_base"`
	CacheMaxAgeSeconds int    `toml:"cache_max_age_seconds"`
}

// PipelineConfig holds the processing knobs of the generation pipeline.
type PipelineConfig struct {
	MaxChunkSize    int    `toml:"max_chunk_size"`
	LeaseTTLMinutes int    `toml:"lease_ttl_minutes"`
	Engine          string `toml:"engine"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS        NATSConfig     `toml:"nats"`
	Translation ProviderConfig `toml:"translation"`
	TTS         ProviderConfig `toml:"tts"`
	Storage     StorageConfig  `toml:"storage"`
	Pipeline    PipelineConfig `toml:"pipeline"`
	Paths       PathsConfig    `toml:"paths"`
}

// Load loads the configuration for the audio-service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return &cfg, nil
}
