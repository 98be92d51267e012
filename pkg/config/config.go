/*
Package config manages TOML config for lzwseg.

A config file has one section per command:

	[learn]
	max_len = 10
	symbols = 10000
	encoding = "utf-8"

	[apply]
	top_k = 5
	alpha = 0.1
	workers = 1

	[server]
	max_text_length = 4096

Values set explicitly on the command line override the file.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/lzwseg/internal/utils"
	"github.com/bastiangx/lzwseg/pkg/pipeline"
	"github.com/bastiangx/lzwseg/pkg/segment"
	"github.com/bastiangx/lzwseg/pkg/vocab"
)

// Config holds the entire config structure
type Config struct {
	Learn  LearnConfig  `toml:"learn"`
	Apply  ApplyConfig  `toml:"apply"`
	Server ServerConfig `toml:"server"`
}

// LearnConfig holds vocabulary learning options.
type LearnConfig struct {
	MaxLen        int    `toml:"max_len"`
	Symbols       int    `toml:"symbols"`
	Normalize     bool   `toml:"normalize"`
	ProgressEvery int    `toml:"progress_every"`
	Encoding      string `toml:"encoding"`
}

// ApplyConfig holds segmentation options.
type ApplyConfig struct {
	TopK              int     `toml:"top_k"`
	Alpha             float64 `toml:"alpha"`
	Seed              uint64  `toml:"seed"`
	LongWordThreshold int     `toml:"long_word_threshold"`
	Workers           int     `toml:"workers"`
	ShardSize         int     `toml:"shard_size"`
	Encoding          string  `toml:"encoding"`
	Normalize         bool    `toml:"normalize"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxTextLength int `toml:"max_text_length"`
	MaxTopK       int `toml:"max_top_k"`
}

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// GetConfigDir returns the config directory with fallback priority:
// 1. platform config dir (~/.config/lzwseg, %APPDATA%\lzwseg)
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := utils.PlatformConfigDir(homeDir)
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", utils.AppName)
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/lzwseg/config.toml
// 3. Builtin defaults
//
// A custom path that exists but fails validation is an error; everything
// else falls back with a warning.
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				return nil, "", err
			}
			if err := config.Validate(); err != nil {
				return nil, "", fmt.Errorf("%s: %w", customConfigPath, err)
			}
			log.Debugf("Loaded config from custom path: %s", customConfigPath)
			return config, customConfigPath, nil
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	if err := config.Validate(); err != nil {
		log.Warnf("Config at %s is invalid: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Learn: LearnConfig{
			MaxLen:        10,
			Symbols:       10000,
			Normalize:     false,
			ProgressEvery: 100000,
			Encoding:      "utf-8",
		},
		Apply: ApplyConfig{
			TopK:              5,
			Alpha:             0.1,
			Seed:              0,
			LongWordThreshold: segment.DefaultLongWordThreshold,
			Workers:           1,
			ShardSize:         pipeline.DefaultShardSize,
			Encoding:          "utf-8",
			Normalize:         false,
		},
		Server: ServerConfig{
			MaxTextLength: 4096,
			MaxTopK:       64,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file. Sections that decode cleanly keep their
// values when another part of the file has the wrong type.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse attempts to parse a TOML file
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "learn"); ok {
		extractLearnConfig(section, &config.Learn)
	}
	if section, ok := utils.ExtractSection(tempConfig, "apply"); ok {
		extractApplyConfig(section, &config.Apply)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	return config, nil
}

func extractLearnConfig(data map[string]any, learn *LearnConfig) {
	if val, ok := utils.ExtractInt64(data, "max_len"); ok {
		learn.MaxLen = val
	}
	if val, ok := utils.ExtractInt64(data, "symbols"); ok {
		learn.Symbols = val
	}
	if val, ok := utils.ExtractBool(data, "normalize"); ok {
		learn.Normalize = val
	}
	if val, ok := utils.ExtractInt64(data, "progress_every"); ok {
		learn.ProgressEvery = val
	}
	if val, ok := utils.ExtractString(data, "encoding"); ok {
		learn.Encoding = val
	}
}

func extractApplyConfig(data map[string]any, apply *ApplyConfig) {
	if val, ok := utils.ExtractInt64(data, "top_k"); ok {
		apply.TopK = val
	}
	if val, ok := utils.ExtractFloat64(data, "alpha"); ok {
		apply.Alpha = val
	}
	if val, ok := utils.ExtractInt64(data, "seed"); ok && val >= 0 {
		apply.Seed = uint64(val)
	}
	if val, ok := utils.ExtractInt64(data, "long_word_threshold"); ok {
		apply.LongWordThreshold = val
	}
	if val, ok := utils.ExtractInt64(data, "workers"); ok {
		apply.Workers = val
	}
	if val, ok := utils.ExtractInt64(data, "shard_size"); ok {
		apply.ShardSize = val
	}
	if val, ok := utils.ExtractString(data, "encoding"); ok {
		apply.Encoding = val
	}
	if val, ok := utils.ExtractBool(data, "normalize"); ok {
		apply.Normalize = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_text_length"); ok {
		server.MaxTextLength = val
	}
	if val, ok := utils.ExtractInt64(data, "max_top_k"); ok {
		server.MaxTopK = val
	}
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return "builtin defaults"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// SegmentOptions returns the segmenter options of the apply section.
func (c *Config) SegmentOptions() segment.Options {
	return segment.Options{
		TopK:              c.Apply.TopK,
		Alpha:             c.Apply.Alpha,
		LongWordThreshold: c.Apply.LongWordThreshold,
	}
}

// Driver returns the pipeline settings of the apply section.
func (c *Config) Driver() pipeline.Driver {
	return pipeline.Driver{
		Workers:   c.Apply.Workers,
		ShardSize: c.Apply.ShardSize,
		Encoding:  c.Apply.Encoding,
		Normalize: c.Apply.Normalize,
	}
}

// LearnOptions returns the learner options of the learn section.
func (c *Config) LearnOptions() vocab.Options {
	return vocab.Options{
		MaxLen:        c.Learn.MaxLen,
		Symbols:       c.Learn.Symbols,
		Normalize:     c.Learn.Normalize,
		ProgressEvery: c.Learn.ProgressEvery,
	}
}

// Validate reports the first unusable value.
func (c *Config) Validate() error {
	if c.Learn.MaxLen < 1 || c.Learn.MaxLen > vocab.MaxSubwordLen {
		return fmt.Errorf("%w: learn.max_len must be between 1 and %d, got %d", ErrInvalidConfig, vocab.MaxSubwordLen, c.Learn.MaxLen)
	}
	if c.Learn.ProgressEvery < 0 {
		return fmt.Errorf("%w: learn.progress_every must not be negative", ErrInvalidConfig)
	}
	if _, err := pipeline.LookupEncoding(c.Learn.Encoding); err != nil {
		return fmt.Errorf("%w: learn: %w", ErrInvalidConfig, err)
	}
	if c.Apply.LongWordThreshold < 1 {
		return fmt.Errorf("%w: apply.long_word_threshold must be at least 1, got %d", ErrInvalidConfig, c.Apply.LongWordThreshold)
	}
	if err := c.SegmentOptions().Validate(); err != nil {
		return fmt.Errorf("%w: apply: %w", ErrInvalidConfig, err)
	}
	if err := c.Driver().Validate(); err != nil {
		return fmt.Errorf("%w: apply: %w", ErrInvalidConfig, err)
	}
	if c.Server.MaxTextLength < 1 {
		return fmt.Errorf("%w: server.max_text_length must be at least 1", ErrInvalidConfig)
	}
	if c.Server.MaxTopK < 1 {
		return fmt.Errorf("%w: server.max_top_k must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// ValidateServer checks the settings serve needs on top of Validate.
// The configured top-K is the default for requests, so it must be one
// the server accepts.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Server.MaxTopK < c.Apply.TopK {
		return fmt.Errorf("%w: server.max_top_k %d is below apply.top_k %d", ErrInvalidConfig, c.Server.MaxTopK, c.Apply.TopK)
	}
	return nil
}
