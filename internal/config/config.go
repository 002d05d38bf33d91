package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/catprofile/internal/profile"
)

// Global configuration structure.
type Global struct {
	ReportDir     string   `mapstructure:"report_dir" yaml:"report_dir"`
	CatLimit      int      `mapstructure:"cat_limit" yaml:"cat_limit"`
	MissingValues []string `mapstructure:"missing_values" yaml:"missing_values"`
	// Auto preparation defaults per report mode
	AutoPrepareDefault     bool `mapstructure:"auto_prepare_default" yaml:"auto_prepare_default"`
	AutoPrepareInteractive bool `mapstructure:"auto_prepare_interactive" yaml:"auto_prepare_interactive"`
	Workers                int  `mapstructure:"workers" yaml:"workers"`

	// Loading
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`

	// Metrics
	MetricsBackend string   `mapstructure:"metrics_backend" yaml:"metrics_backend"`
	MetricsTags    []string `mapstructure:"metrics_tags" yaml:"metrics_tags"`

	// HTTP front-end
	ServeAddr string `mapstructure:"serve_addr" yaml:"serve_addr"`
}

// Keys lists the settable configuration keys.
var Keys = []string{
	"report_dir", "cat_limit", "missing_values", "auto_prepare_default", "auto_prepare_interactive",
	"workers", "delimiter", "metrics_backend", "metrics_tags", "serve_addr",
}

// DefaultPath is ~/.catprofile/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".catprofile", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.catprofile/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults; flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CATPROFILE")
	v.AutomaticEnv()

	v.SetDefault("report_dir", "report")
	v.SetDefault("cat_limit", profile.DefaultCatLimit)
	v.SetDefault("missing_values", []string{})
	v.SetDefault("auto_prepare_default", false)
	v.SetDefault("auto_prepare_interactive", true)
	v.SetDefault("workers", 0)
	v.SetDefault("delimiter", "")
	v.SetDefault("metrics_backend", "")
	v.SetDefault("metrics_tags", []string{})
	v.SetDefault("serve_addr", ":8080")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".catprofile"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.CatLimit <= 0 {
		c.CatLimit = profile.DefaultCatLimit
	}
	return &c, nil
}

// Options returns the profiling options of a mode under this configuration.
func (c *Global) Options(mode profile.Mode) profile.Options {
	opt := profile.DefaultOptions(mode)
	opt.CatLimit = c.CatLimit
	opt.MissingValues = append([]string(nil), c.MissingValues...)
	opt.Workers = c.Workers
	if mode == profile.ModeInteractive {
		opt.AutoPrepare = c.AutoPrepareInteractive
	} else {
		opt.AutoPrepare = c.AutoPrepareDefault
	}
	return opt
}
