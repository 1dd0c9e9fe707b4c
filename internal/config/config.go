// Package config provides configuration management for tapedeck using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultServerPort      = 8080
	defaultServerTimeout   = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxIdleTime = 30 * time.Minute

	defaultCacheRetention = 14 * 24 * time.Hour
	defaultMaxCacheSize   = 10 * 1024 * 1024 * 1024 // 10GB

	defaultShortClipThreshold = 6 * time.Second
	defaultShortClipCap       = 500 * time.Millisecond
	defaultEstimatedDuration  = 5 * time.Second
	defaultKeepWindow         = 2
	defaultPrefetchDepth      = 2
	defaultResolveTimeout     = 30 * time.Second
	defaultTickInterval       = 33 * time.Millisecond
	defaultFetchTimeout       = 60 * time.Second
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Engine   EngineConfig   `mapstructure:"engine"`
	FFmpeg   FFmpegConfig   `mapstructure:"ffmpeg"`
	Export   ExportConfig   `mapstructure:"export"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres, mysql
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

// StorageConfig holds file storage configuration. Asset, synthesis, and
// export directories are resolved relative to BaseDir.
type StorageConfig struct {
	BaseDir      string `mapstructure:"base_dir"`
	AssetDir     string `mapstructure:"asset_dir"`
	SynthesisDir string `mapstructure:"synthesis_dir"`
	ExportDir    string `mapstructure:"export_dir"`
	TempDir      string `mapstructure:"temp_dir"`
	// CacheRetention bounds how long unused cached assets and synthesized
	// clips survive. Supports human-readable values like "14d" or "2w".
	CacheRetention Duration `mapstructure:"cache_retention"`
	// MaxCacheSize bounds the combined cache size. Supports human-readable
	// values like "10GB", or raw byte counts.
	MaxCacheSize ByteSize `mapstructure:"max_cache_size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// EngineConfig holds timeline build and playback tuning.
type EngineConfig struct {
	// ShortClipThreshold marks neighboring clips below this duration as
	// short, triggering the tighter transition overlap cap.
	ShortClipThreshold time.Duration `mapstructure:"short_clip_threshold"`
	// ShortClipCap bounds the overlap at boundaries touching a short clip.
	ShortClipCap time.Duration `mapstructure:"short_clip_cap"`
	// EstimatedDuration stands in for video clips not yet probed.
	EstimatedDuration time.Duration `mapstructure:"estimated_duration"`
	// KeepWindow keeps resolved compositions for the playing index +/- N.
	KeepWindow int `mapstructure:"keep_window"`
	// PrefetchDepth resolves N upcoming segments ahead of playback.
	PrefetchDepth int `mapstructure:"prefetch_depth"`
	// ResolveTimeout bounds a single asset resolution.
	ResolveTimeout time.Duration `mapstructure:"resolve_timeout"`
	// TickInterval drives the playback engine when no host render loop does.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// FetchTimeout bounds remote asset downloads.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// FFmpegConfig holds FFmpeg binary configuration.
type FFmpegConfig struct {
	BinaryPath string `mapstructure:"binary_path"` // Path to ffmpeg binary (empty = auto-detect)
	ProbePath  string `mapstructure:"probe_path"`  // Path to ffprobe binary (empty = auto-detect)
}

// ExportConfig holds default export encode settings.
type ExportConfig struct {
	Tier      string `mapstructure:"tier"`      // 720p, 1080p, 2160p
	Container string `mapstructure:"container"` // mp4, mov
	FrameRate int    `mapstructure:"frame_rate"`
}

// CleanupConfig holds scheduled cache cleanup configuration.
type CleanupConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"` // 5-field cron expression
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with TAPEDECK_ and use underscores for
// nesting. Example: TAPEDECK_SERVER_PORT=8080.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	SetDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/tapedeck")
		v.AddConfigPath("$HOME/.tapedeck")
	}

	// Environment variable settings
	v.SetEnvPrefix("TAPEDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found is OK - we'll use defaults and env vars
	}

	return FromViper(v)
}

// FromViper decodes and validates a Config from an already-initialized Viper
// instance. Callers that manage their own viper (the CLI root command) use
// this instead of Load.
func FromViper(v *viper.Viper) (*Config, error) {
	// Decode with the TextUnmarshaller hook so ByteSize and Duration accept
	// their human-readable string forms from files and environment.
	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file so defaults are in
// place.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "tapedeck.db")
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", defaultConnMaxIdleTime)
	v.SetDefault("database.log_level", "warn")

	// Storage defaults
	v.SetDefault("storage.base_dir", "./data")
	v.SetDefault("storage.asset_dir", "assets")
	v.SetDefault("storage.synthesis_dir", "synthesis")
	v.SetDefault("storage.export_dir", "exports")
	v.SetDefault("storage.temp_dir", "temp")
	v.SetDefault("storage.cache_retention", defaultCacheRetention)
	v.SetDefault("storage.max_cache_size", defaultMaxCacheSize)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Engine defaults
	v.SetDefault("engine.short_clip_threshold", defaultShortClipThreshold)
	v.SetDefault("engine.short_clip_cap", defaultShortClipCap)
	v.SetDefault("engine.estimated_duration", defaultEstimatedDuration)
	v.SetDefault("engine.keep_window", defaultKeepWindow)
	v.SetDefault("engine.prefetch_depth", defaultPrefetchDepth)
	v.SetDefault("engine.resolve_timeout", defaultResolveTimeout)
	v.SetDefault("engine.tick_interval", defaultTickInterval)
	v.SetDefault("engine.fetch_timeout", defaultFetchTimeout)

	// FFmpeg defaults
	v.SetDefault("ffmpeg.binary_path", "")
	v.SetDefault("ffmpeg.probe_path", "")

	// Export defaults
	v.SetDefault("export.tier", "1080p")
	v.SetDefault("export.container", "mp4")
	v.SetDefault("export.frame_rate", 30)

	// Cleanup defaults
	v.SetDefault("cleanup.enabled", true)
	v.SetDefault("cleanup.cron", "0 3 * * *") // Daily at 3 AM
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
	}

	// Database validation
	validDrivers := map[string]bool{"sqlite": true, "postgres": true, "mysql": true}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("database.driver must be one of: sqlite, postgres, mysql")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	// Storage validation
	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	// Engine validation
	if c.Engine.KeepWindow < 0 {
		return fmt.Errorf("engine.keep_window must not be negative")
	}
	if c.Engine.PrefetchDepth < 0 {
		return fmt.Errorf("engine.prefetch_depth must not be negative")
	}

	// Export validation
	validTiers := map[string]bool{"720p": true, "1080p": true, "2160p": true}
	if !validTiers[c.Export.Tier] {
		return fmt.Errorf("export.tier must be one of: 720p, 1080p, 2160p")
	}
	validContainers := map[string]bool{"mp4": true, "mov": true}
	if !validContainers[c.Export.Container] {
		return fmt.Errorf("export.container must be one of: mp4, mov")
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AssetPath returns the full path to the remote-asset cache directory.
func (c *StorageConfig) AssetPath() string {
	return fmt.Sprintf("%s/%s", c.BaseDir, c.AssetDir)
}

// SynthesisPath returns the full path to the synthesized-clip cache.
func (c *StorageConfig) SynthesisPath() string {
	return fmt.Sprintf("%s/%s", c.BaseDir, c.SynthesisDir)
}

// ExportPath returns the full path to the export output directory.
func (c *StorageConfig) ExportPath() string {
	return fmt.Sprintf("%s/%s", c.BaseDir, c.ExportDir)
}

// TempPath returns the full path to the temp directory.
func (c *StorageConfig) TempPath() string {
	return fmt.Sprintf("%s/%s", c.BaseDir, c.TempDir)
}
