package taskpool

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/example/taskpool/internal/logging"
	"gopkg.in/yaml.v3"
)

// ErrInvalidFileConfig is returned when a loaded configuration file fails
// validation.
var ErrInvalidFileConfig = errors.New("taskpool: invalid configuration")

// ErrFileConfigNotFound is returned when LoadFileConfig is pointed at a
// path that does not exist.
var ErrFileConfigNotFound = errors.New("taskpool: configuration file not found")

// FileConfig is the YAML-loadable description of a pool, its auto-adjust
// controller, its metrics exporter, and its logger — everything a
// standalone process needs to stand a pool up from a single file. It is
// distinct from Config (the direct, in-process constructor argument to
// New) because a file has ambient concerns (metrics address, log level)
// that an embedder constructing a Pool in-process supplies its own way.
type FileConfig struct {
	// Name identifies the pool in logs and metrics.
	Name string `yaml:"name" json:"name"`

	// InitialCount is the number of workers spawned at startup. Required.
	InitialCount int `yaml:"initialCount" json:"initialCount"`

	// MinThreads is the lower resize bound. Default: 1.
	MinThreads int `yaml:"minThreads,omitempty" json:"minThreads,omitempty"`

	// MaxThreads is the upper resize bound. Default: 2 * InitialCount.
	MaxThreads int `yaml:"maxThreads,omitempty" json:"maxThreads,omitempty"`

	// AutoAdjust configures the load-driven auto-adjust controller.
	AutoAdjust AutoAdjustFileConfig `yaml:"autoAdjust,omitempty" json:"autoAdjust,omitempty"`

	// Metrics configures the Prometheus exporter.
	Metrics MetricsFileConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`

	// Logging configures the structured logger.
	Logging LoggingFileConfig `yaml:"logging,omitempty" json:"logging,omitempty"`
}

// AutoAdjustFileConfig configures the auto-adjust controller from a file.
type AutoAdjustFileConfig struct {
	Enabled       bool          `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	HighWatermark int           `yaml:"highWatermark,omitempty" json:"highWatermark,omitempty"`
	LowWatermark  int           `yaml:"lowWatermark,omitempty" json:"lowWatermark,omitempty"`
	Interval      time.Duration `yaml:"interval,omitempty" json:"interval,omitempty"`
}

// MetricsFileConfig configures the Prometheus exporter from a file.
type MetricsFileConfig struct {
	Enabled bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Addr    string `yaml:"addr,omitempty" json:"addr,omitempty"`
}

// LoggingFileConfig configures the structured logger from a file.
type LoggingFileConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// LoadFileConfig loads and validates a FileConfig from a YAML file.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileConfigNotFound, path)
		}
		return nil, fmt.Errorf("taskpool: reading config file: %w", err)
	}
	return LoadFileConfigBytes(data)
}

// LoadFileConfigBytes loads and validates a FileConfig from YAML bytes.
func LoadFileConfigBytes(data []byte) (*FileConfig, error) {
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("taskpool: parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Validate checks the configuration's required fields and internal
// consistency.
func (c *FileConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidFileConfig)
	}
	if c.InitialCount < 1 {
		return fmt.Errorf("%w: initialCount must be >= 1", ErrInvalidFileConfig)
	}
	if c.MaxThreads != 0 && c.MinThreads != 0 && c.MaxThreads < c.MinThreads {
		return fmt.Errorf("%w: maxThreads %d < minThreads %d", ErrInvalidFileConfig, c.MaxThreads, c.MinThreads)
	}
	if c.AutoAdjust.Enabled {
		if c.AutoAdjust.HighWatermark <= 0 {
			return fmt.Errorf("%w: autoAdjust.highWatermark must be > 0 when enabled", ErrInvalidFileConfig)
		}
		if c.AutoAdjust.LowWatermark < 0 {
			return fmt.Errorf("%w: autoAdjust.lowWatermark must be >= 0", ErrInvalidFileConfig)
		}
	}
	return nil
}

// ApplyDefaults fills unset fields with the same defaults New applies, plus
// the file-only ambient concerns (logging level, auto-adjust interval).
func (c *FileConfig) ApplyDefaults() {
	if c.MinThreads == 0 {
		c.MinThreads = 1
	}
	if c.MaxThreads == 0 {
		c.MaxThreads = 2 * c.InitialCount
	}
	if c.AutoAdjust.Enabled && c.AutoAdjust.Interval == 0 {
		c.AutoAdjust.Interval = time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// NewFromFileConfig builds and starts a Pool from a FileConfig, wiring its
// logger and, if configured, enabling its auto-adjust controller.
func NewFromFileConfig(fc *FileConfig) (*Pool, error) {
	logger, err := logging.New(&logging.Config{
		Level:  fc.Logging.Level,
		Format: fc.Logging.Format,
		Output: fc.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("taskpool: building logger: %w", err)
	}

	p, err := New(Config{
		InitialCount: fc.InitialCount,
		MinThreads:   fc.MinThreads,
		MaxThreads:   fc.MaxThreads,
		Name:         fc.Name,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	if fc.AutoAdjust.Enabled {
		if err := p.EnableAutoAdjust(fc.AutoAdjust.HighWatermark, fc.AutoAdjust.LowWatermark, fc.AutoAdjust.Interval); err != nil {
			return nil, err
		}
	}

	return p, nil
}
