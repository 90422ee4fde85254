package bitflip

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// Config holds the harness, pool and sampler settings.
type Config struct {
	Shots             int           `mapstructure:"shots"`
	Workers           int           `mapstructure:"workers"`
	SchedulingTimeout time.Duration `mapstructure:"scheduling_timeout"`
	TrialTimeout      time.Duration `mapstructure:"trial_timeout"`
	ResultTTL         time.Duration `mapstructure:"result_ttl"`
	RetryAttempts     int           `mapstructure:"retry_attempts"`
	RetryInitial      time.Duration `mapstructure:"retry_initial"`
	BreakerFailures   int           `mapstructure:"breaker_failures"`
	BreakerReset      time.Duration `mapstructure:"breaker_reset"`
	SampleInterval    time.Duration `mapstructure:"sample_interval"`
	SampleBurst       int           `mapstructure:"sample_burst"`
	ReadoutError      float64       `mapstructure:"readout_error"`
	LogicalInput      float64       `mapstructure:"logical_input"`
	Seed              uint64        `mapstructure:"seed"`
	Strict            bool          `mapstructure:"strict"`
	LogLevel          string        `mapstructure:"log_level"`
}

func NewConfig() *Config {
	return &Config{
		Shots:             1024,
		Workers:           4,
		SchedulingTimeout: 10 * time.Second,
		TrialTimeout:      30 * time.Second,
		ResultTTL:         10 * time.Minute,
		RetryAttempts:     3,
		RetryInitial:      10 * time.Millisecond,
		BreakerFailures:   5,
		BreakerReset:      time.Second,
		SampleBurst:       1,
		LogLevel:          "info",
	}
}

/*
LoadConfig layers an optional YAML file and BITFLIP_* environment
variables over NewConfig's defaults. An empty path skips the file.
*/
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BITFLIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	defaults := NewConfig()
	v.SetDefault("shots", defaults.Shots)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("scheduling_timeout", defaults.SchedulingTimeout)
	v.SetDefault("trial_timeout", defaults.TrialTimeout)
	v.SetDefault("result_ttl", defaults.ResultTTL)
	v.SetDefault("retry_attempts", defaults.RetryAttempts)
	v.SetDefault("retry_initial", defaults.RetryInitial)
	v.SetDefault("breaker_failures", defaults.BreakerFailures)
	v.SetDefault("breaker_reset", defaults.BreakerReset)
	v.SetDefault("sample_interval", defaults.SampleInterval)
	v.SetDefault("sample_burst", defaults.SampleBurst)
	v.SetDefault("readout_error", defaults.ReadoutError)
	v.SetDefault("logical_input", defaults.LogicalInput)
	v.SetDefault("seed", defaults.Seed)
	v.SetDefault("strict", defaults.Strict)
	v.SetDefault("log_level", defaults.LogLevel)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the pool or sampler cannot honor.
func (c *Config) Validate() error {
	switch {
	case c.Shots <= 0:
		return fmt.Errorf("%w: %d", ErrInvalidShots, c.Shots)
	case c.Workers <= 0:
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	case c.SampleInterval < 0:
		return fmt.Errorf("sample_interval must not be negative, got %s", c.SampleInterval)
	case c.ReadoutError < 0 || c.ReadoutError > 1:
		return fmt.Errorf("readout_error must be within [0,1], got %g", c.ReadoutError)
	case c.LogicalInput < 0 || c.LogicalInput > 1:
		return fmt.Errorf("logical_input must be within [0,1], got %g", c.LogicalInput)
	}
	return nil
}

// ApplyLogLevel sets the process-wide log level from LogLevel.
func (c *Config) ApplyLogLevel() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	log.SetLevel(level)
	return nil
}

// Sampler builds the default frame sampler for this configuration.
func (c *Config) Sampler() *FrameSampler {
	opts := []FrameOption{
		WithReadoutError(c.ReadoutError),
		WithLogicalInput(c.LogicalInput),
	}
	if c.Seed != 0 {
		opts = append(opts, WithSeed(c.Seed))
	}
	return NewFrameSampler(opts...)
}

func (c *Config) schedulingTimeout() time.Duration {
	if c != nil && c.SchedulingTimeout > 0 {
		return c.SchedulingTimeout
	}
	return 5 * time.Second
}
