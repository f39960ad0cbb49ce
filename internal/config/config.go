// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration. Each section maps to a
// block in the YAML config file and to a group of viper defaults below.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Inference InferenceConfig `mapstructure:"inference" yaml:"inference"`
	Commands  CommandsConfig  `mapstructure:"commands" yaml:"commands"`
	Safety    SafetyConfig    `mapstructure:"safety" yaml:"safety"`
	Executor  ExecutorConfig  `mapstructure:"executor" yaml:"executor"`
	Agent     AgentConfig     `mapstructure:"agent" yaml:"agent"`
	Network   NetworkConfig   `mapstructure:"network" yaml:"network"`
	Driver    DriverConfig    `mapstructure:"driver" yaml:"driver"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// InferenceConfig describes the Ollama endpoint and generation parameters.
type InferenceConfig struct {
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	Model       string        `mapstructure:"model" yaml:"model"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	TopP        float64       `mapstructure:"top_p" yaml:"top_p"`
	// ReadyRetries bounds the startup readiness probe. Zero disables it.
	ReadyRetries  int           `mapstructure:"ready_retries" yaml:"ready_retries"`
	ReadyInterval time.Duration `mapstructure:"ready_interval" yaml:"ready_interval"`
}

// CommandsConfig describes the file-backed instruction queue.
type CommandsConfig struct {
	File          string `mapstructure:"file" yaml:"file"`
	AttemptedFile string `mapstructure:"attempted_file" yaml:"attempted_file"`
	RulesFile     string `mapstructure:"rules_file" yaml:"rules_file"`
	// MaxLength rejects instructions longer than this many characters.
	MaxLength int `mapstructure:"max_length" yaml:"max_length"`
	// MinTokens rejects instructions with fewer whitespace tokens.
	MinTokens int `mapstructure:"min_tokens" yaml:"min_tokens"`
}

// ExclusionRect is a screen region clicks must not land in, boundaries
// included.
type ExclusionRect struct {
	MinX int `mapstructure:"min_x" yaml:"min_x"`
	MinY int `mapstructure:"min_y" yaml:"min_y"`
	MaxX int `mapstructure:"max_x" yaml:"max_x"`
	MaxY int `mapstructure:"max_y" yaml:"max_y"`
}

// SafetyConfig parameterizes the action gate.
type SafetyConfig struct {
	// BottomBandHeight is the strip above the bottom edge where clicks are
	// refused, in pixels. The OS taskbar usually lives there.
	BottomBandHeight int             `mapstructure:"bottom_band_height" yaml:"bottom_band_height"`
	Exclusions       []ExclusionRect `mapstructure:"exclusions" yaml:"exclusions"`
	MaxTextLength    int             `mapstructure:"max_text_length" yaml:"max_text_length"`
	// ForbiddenText entries are refused as case-insensitive substrings of
	// text to be typed.
	ForbiddenText []string `mapstructure:"forbidden_text" yaml:"forbidden_text"`
	// DeniedKeys entries are refused as exact, case-insensitive matches of
	// the whole key string.
	DeniedKeys  []string `mapstructure:"denied_keys" yaml:"denied_keys"`
	MaxWaitSecs float64  `mapstructure:"max_wait_secs" yaml:"max_wait_secs"`
}

// ExecutorConfig tunes the physical action dispatch.
type ExecutorConfig struct {
	// MinActionSpacing is the smallest pause between the completion of one
	// action and the start of the next.
	MinActionSpacing time.Duration `mapstructure:"min_action_spacing" yaml:"min_action_spacing"`
	// SettleDelay is the pause appended after every action so the screen
	// can catch up before the next capture.
	SettleDelay time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
}

// AgentConfig tunes the main perceive-decide-act loop.
type AgentConfig struct {
	// CommandDelay separates consecutive instructions from one batch.
	CommandDelay time.Duration `mapstructure:"command_delay" yaml:"command_delay"`
	// PollingInterval separates consecutive idle polls of the queue.
	PollingInterval time.Duration `mapstructure:"polling_interval" yaml:"polling_interval"`
	// ErrorBackoff is how long the loop sleeps after an unexpected burst
	// of failures before polling again.
	ErrorBackoff time.Duration `mapstructure:"error_backoff" yaml:"error_backoff"`
}

// NetworkConfig tunes the connectivity probe.
type NetworkConfig struct {
	CheckURL     string        `mapstructure:"check_url" yaml:"check_url"`
	CheckTimeout time.Duration `mapstructure:"check_timeout" yaml:"check_timeout"`
	// MaxWait bounds the blocking wait for connectivity during startup.
	MaxWait time.Duration `mapstructure:"max_wait" yaml:"max_wait"`
}

// DriverConfig holds settings for the Chromium-backed screen driver.
type DriverConfig struct {
	Headless bool `mapstructure:"headless" yaml:"headless"`
	Width    int  `mapstructure:"width" yaml:"width"`
	Height   int  `mapstructure:"height" yaml:"height"`
	// StartURL is loaded into the driver surface on startup.
	StartURL string   `mapstructure:"start_url" yaml:"start_url"`
	Args     []string `mapstructure:"args" yaml:"args"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "deskpilot")
	v.SetDefault("logger.log_file", "deskpilot.log")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// Inference defaults
	v.SetDefault("inference.endpoint", "http://localhost:11434")
	v.SetDefault("inference.model", "llava")
	v.SetDefault("inference.timeout", "60s")
	v.SetDefault("inference.temperature", 0.1)
	v.SetDefault("inference.top_p", 0.9)
	v.SetDefault("inference.ready_retries", 5)
	v.SetDefault("inference.ready_interval", "2s")

	// Commands defaults
	v.SetDefault("commands.file", "commands.txt")
	v.SetDefault("commands.attempted_file", "attempted_commands.txt")
	v.SetDefault("commands.rules_file", "rules.txt")
	v.SetDefault("commands.max_length", 500)
	v.SetDefault("commands.min_tokens", 2)

	// Safety defaults
	v.SetDefault("safety.bottom_band_height", 50)
	v.SetDefault("safety.max_text_length", 10000)
	v.SetDefault("safety.forbidden_text", defaultForbiddenText())
	v.SetDefault("safety.denied_keys", defaultDeniedKeys())
	v.SetDefault("safety.max_wait_secs", 30.0)

	// Executor defaults
	v.SetDefault("executor.min_action_spacing", "100ms")
	v.SetDefault("executor.settle_delay", "100ms")

	// Agent defaults
	v.SetDefault("agent.command_delay", "2s")
	v.SetDefault("agent.polling_interval", "1s")
	v.SetDefault("agent.error_backoff", "5s")

	// Network defaults
	v.SetDefault("network.check_url", "http://www.google.com")
	v.SetDefault("network.check_timeout", "5s")
	v.SetDefault("network.max_wait", "300s")

	// Driver defaults
	v.SetDefault("driver.headless", true)
	v.SetDefault("driver.width", 1280)
	v.SetDefault("driver.height", 800)
	v.SetDefault("driver.start_url", "about:blank")
}

// defaultForbiddenText mirrors the destructive shell and SQL fragments the
// command validator also refuses. Typing one of these through the UI is no
// safer than queueing it as an instruction. Shutdown and reboot are blocked
// as bare words here, catching every flag spelling.
func defaultForbiddenText() []string {
	return []string{
		"rm -rf",
		"del /f /s /q",
		"format c:",
		"shutdown",
		"reboot",
		"reg delete",
		"rd /s /q",
		"drop database",
		"drop table",
		"kill -9",
		"taskkill /f",
	}
}

// defaultDeniedKeys lists key combinations refused as whole strings. Matching
// is exact so "ctrl+alt+delete+x" stays allowed.
func defaultDeniedKeys() []string {
	return []string{
		"alt+f4",
		"ctrl+alt+del",
		"win+r",
		"f10",
	}
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Inference.Endpoint == "" {
		return fmt.Errorf("inference.endpoint is a required configuration field")
	}
	if c.Inference.Model == "" {
		return fmt.Errorf("inference.model is a required configuration field")
	}
	if c.Inference.Timeout <= 0 {
		return fmt.Errorf("inference.timeout must be a positive duration")
	}
	if c.Commands.File == "" {
		return fmt.Errorf("commands.file is a required configuration field")
	}
	if c.Commands.AttemptedFile == "" {
		return fmt.Errorf("commands.attempted_file is a required configuration field")
	}
	if c.Commands.MaxLength <= 0 {
		return fmt.Errorf("commands.max_length must be a positive integer")
	}
	if c.Safety.MaxWaitSecs <= 0 {
		return fmt.Errorf("safety.max_wait_secs must be positive")
	}
	for i, r := range c.Safety.Exclusions {
		if r.MaxX < r.MinX || r.MaxY < r.MinY {
			return fmt.Errorf("safety.exclusions[%d] is inverted", i)
		}
	}
	if c.Agent.PollingInterval <= 0 {
		return fmt.Errorf("agent.polling_interval must be a positive duration")
	}
	if c.Driver.Width <= 0 || c.Driver.Height <= 0 {
		return fmt.Errorf("driver.width and driver.height must be positive")
	}
	return nil
}
