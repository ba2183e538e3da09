// This file defines the configuration structure for the application.
package config

import (
	// use Viper for loading the config.yml file.
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// PathMapping translates a path prefix reported by a download client into
// this process's filesystem view.
type PathMapping struct {
	Remote string `mapstructure:"remote"`
	Local  string `mapstructure:"local"`
}

// ClientConfig describes one configured download client. Clients are
// read-only configuration from the pipeline's perspective.
type ClientConfig struct {
	Name        string       `mapstructure:"name" validate:"required"`
	Type        string       `mapstructure:"type" validate:"required,oneof=qbittorrent sabnzbd"`
	Transport   string       `mapstructure:"transport" validate:"required,oneof=torrent usenet"`
	URL         string       `mapstructure:"url" validate:"required,url"`
	Username    string       `mapstructure:"username"`
	Password    string       `mapstructure:"password"`
	APIKey      string       `mapstructure:"api_key"`
	Priority    int          `mapstructure:"priority"` // Lower number = higher priority
	Enabled     bool         `mapstructure:"enabled"`
	PathMapping *PathMapping `mapstructure:"path_mapping"`
}

// SourceConfig enables a registered indexer source and carries its
// credentials. The concrete wire protocol lives in the source adapter.
type SourceConfig struct {
	ID      string `mapstructure:"id" validate:"required"`
	APIKey  string `mapstructure:"api_key"`
	Enabled bool   `mapstructure:"enabled"`
}

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port     int `mapstructure:"port" validate:"min=1,max=65535"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Library struct {
		EbookPath     string `mapstructure:"ebook_path"`
		AudiobookPath string `mapstructure:"audiobook_path"`
	} `mapstructure:"library"`
	Search struct {
		AutoSelect          bool   `mapstructure:"auto_select"`
		Threshold           int    `mapstructure:"threshold" validate:"min=0,max=100"`
		MaxRetries          int    `mapstructure:"max_retries" validate:"min=0"`
		RetryBackoffMinutes int    `mapstructure:"retry_backoff_minutes" validate:"min=1"`
		PreferredTransport  string `mapstructure:"preferred_transport" validate:"oneof=torrent usenet"`
	} `mapstructure:"search"`
	Downloads struct {
		CompletedDir     string `mapstructure:"completed_dir"`
		RemotePathPrefix string `mapstructure:"remote_path_prefix"`
		LocalPathPrefix  string `mapstructure:"local_path_prefix"`
	} `mapstructure:"downloads"`
	Sources []SourceConfig `mapstructure:"sources" validate:"dive"`
	Clients []ClientConfig `mapstructure:"clients" validate:"dive"`
}

// LibraryRoot returns the configured output root for a medium.
func (c *Config) LibraryRoot(medium string) string {
	if medium == "audiobook" {
		return c.Library.AudiobookPath
	}
	return c.Library.EbookPath
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")

	// Environment variable overrides, e.g. SHELFARR_DATABASE_PATH
	// overrides the `database.path` key.
	viper.SetEnvPrefix("SHELFARR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("port", 8585)
	viper.SetDefault("database.path", "./shelfarr.db")
	viper.SetDefault("library.ebook_path", "./books")
	viper.SetDefault("library.audiobook_path", "./audiobooks")
	viper.SetDefault("search.auto_select", true)
	viper.SetDefault("search.threshold", 70)
	viper.SetDefault("search.max_retries", 5)
	viper.SetDefault("search.retry_backoff_minutes", 30)
	viper.SetDefault("search.preferred_transport", "torrent")
	viper.SetDefault("downloads.completed_dir", "./downloads/complete")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error and use defaults
		} else {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
