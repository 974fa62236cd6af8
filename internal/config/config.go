package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"github.com/spf13/viper"

	"salarydash/internal/engine"
)

// EnvPrefix is prepended to every environment override, e.g. SALARYDASH_TOP_N.
const EnvPrefix = "SALARYDASH"

type Config struct {
	SourceURL      string  `mapstructure:"source_url" yaml:"source_url"`
	ListenAddr     string  `mapstructure:"listen_addr" yaml:"listen_addr"`
	HTTPTimeoutSec int     `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	LogLevel       string  `mapstructure:"log_level" yaml:"log_level"`
	AccessLog      bool    `mapstructure:"access_log" yaml:"access_log"`
	FocusRole      string  `mapstructure:"focus_role" yaml:"focus_role"`
	TopN           int     `mapstructure:"top_n" yaml:"top_n"`
	HistogramBins  int     `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	TablePageSize  int     `mapstructure:"table_page_size" yaml:"table_page_size"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
}

func setDefaults(v *viper.Viper) {
	d := engine.DefaultRenderOptions()
	v.SetDefault("source_url", engine.DefaultSourceURL)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("http_timeout_sec", 30)
	v.SetDefault("log_level", "info")
	v.SetDefault("access_log", true)
	v.SetDefault("focus_role", d.FocusRole)
	v.SetDefault("top_n", d.TopN)
	v.SetDefault("histogram_bins", d.HistogramBins)
	v.SetDefault("table_page_size", d.Limit)
	v.SetDefault("rate_limit_rps", 0)
}

// Load reads configuration from defaults, an optional YAML file, a .env
// file and SALARYDASH_* environment variables. Precedence: env > file > defaults.
// An empty cfgFile looks for ./salarydash.yaml and tolerates its absence.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("salarydash")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.SourceURL) == "":
		return errors.New("source_url is required")
	case c.TopN < 1:
		return fmt.Errorf("top_n must be positive, got %d", c.TopN)
	case c.HistogramBins < 1:
		return fmt.Errorf("histogram_bins must be positive, got %d", c.HistogramBins)
	case c.TablePageSize < 1:
		return fmt.Errorf("table_page_size must be positive, got %d", c.TablePageSize)
	case c.HTTPTimeoutSec < 1:
		return fmt.Errorf("http_timeout_sec must be positive, got %d", c.HTTPTimeoutSec)
	case c.RateLimitRPS < 0:
		return fmt.Errorf("rate_limit_rps must not be negative, got %v", c.RateLimitRPS)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// RenderOptions maps the dashboard settings onto engine options.
func (c *Config) RenderOptions() engine.RenderOptions {
	return engine.RenderOptions{
		FocusRole:     c.FocusRole,
		TopN:          c.TopN,
		HistogramBins: c.HistogramBins,
		Limit:         c.TablePageSize,
	}
}

// ParseLogLevel maps a level name onto gommon levels.
func ParseLogLevel(s string) (log.Lvl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG, nil
	case "", "info":
		return log.INFO, nil
	case "warn", "warning":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	}
	return log.INFO, fmt.Errorf("unknown log_level %q", s)
}

// NewLogger returns a gommon logger at the configured level.
func (c *Config) NewLogger(prefix string) *log.Logger {
	l := log.New(prefix)
	lvl, _ := ParseLogLevel(c.LogLevel)
	l.SetLevel(lvl)
	l.SetHeader(`${time_rfc3339} ${level} ${prefix}`)
	return l
}
