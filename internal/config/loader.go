package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Defaults applied by ApplyDefaults when corresponding Config fields are unset.
const (
	DefaultAddr         = ":8080"
	DefaultModelsDir    = "~/nam"
	DefaultSampleRate   = 48000
	DefaultMaxBlock     = 2048
	DefaultBlockSize    = 256
	DefaultMaxModelSize = "64MiB"
	DefaultLogLevel     = "info"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	// Audio
	SampleRate int     `json:"sample_rate" yaml:"sample_rate" toml:"sample_rate"`
	MaxBlock   int     `json:"max_block" yaml:"max_block" toml:"max_block"`
	BlockSize  int     `json:"block_size" yaml:"block_size" toml:"block_size"`
	InputDB    float32 `json:"input_db" yaml:"input_db" toml:"input_db"`
	OutputDB   float32 `json:"output_db" yaml:"output_db" toml:"output_db"`
	// Models
	MaxModelSize string `json:"max_model_size" yaml:"max_model_size" toml:"max_model_size"`
	DefaultModel string `json:"default_model" yaml:"default_model" toml:"default_model"`
	WatchModel   bool   `json:"watch_model" yaml:"watch_model" toml:"watch_model"`
	// State
	StateFile string `json:"state_file" yaml:"state_file" toml:"state_file"`
	StateDir  string `json:"state_dir" yaml:"state_dir" toml:"state_dir"`
	// Service
	LogLevel    string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ModelsDir == "" {
		c.ModelsDir = DefaultModelsDir
	}
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.MaxBlock <= 0 {
		c.MaxBlock = DefaultMaxBlock
	}
	if c.BlockSize <= 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.MaxModelSize == "" {
		c.MaxModelSize = DefaultMaxModelSize
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.StateDir == "" {
		c.StateDir = c.ModelsDir
	}
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	if c.BlockSize > c.MaxBlock {
		return fmt.Errorf("block_size %d exceeds max_block %d", c.BlockSize, c.MaxBlock)
	}
	if _, err := c.MaxModelSizeBytes(); err != nil {
		return err
	}
	return nil
}

// MaxModelSizeBytes parses MaxModelSize ("64MiB", "512k", "1g"). Units are
// binary.
func (c Config) MaxModelSizeBytes() (int64, error) {
	if c.MaxModelSize == "" {
		return 0, nil
	}
	n, err := units.RAMInBytes(c.MaxModelSize)
	if err != nil {
		return 0, fmt.Errorf("max_model_size: %w", err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("max_model_size must be positive: %q", c.MaxModelSize)
	}
	return n, nil
}
