package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the resolved reqguard configuration
type Config struct {
	Addr         string  `mapstructure:"addr"`
	Rules        string  `mapstructure:"rules"`
	LogLevel     string  `mapstructure:"log-level"`
	Dev          bool    `mapstructure:"dev"`
	MaxBodyBytes int64   `mapstructure:"max-body-bytes"`
	RateLimit    float64 `mapstructure:"rate-limit"`
	RateBurst    int     `mapstructure:"rate-burst"`
	MetricsPath  string  `mapstructure:"metrics-path"`
	Watch        bool    `mapstructure:"watch"`
	LogSampling  float64 `mapstructure:"log-sampling"`
}

// configLoader layers flags over REQGUARD_* environment variables over an
// optional config file over defaults
type configLoader struct {
	v          *viper.Viper
	configFile string
}

func newConfigLoader() *configLoader {
	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("rules", "rules.yaml")
	v.SetDefault("log-level", "info")
	v.SetDefault("dev", false)
	v.SetDefault("max-body-bytes", 1<<20)
	v.SetDefault("rate-limit", 0)
	v.SetDefault("rate-burst", 20)
	v.SetDefault("metrics-path", "/metrics")
	v.SetDefault("watch", true)
	v.SetDefault("log-sampling", 0)

	v.SetEnvPrefix("reqguard")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &configLoader{v: v}
}

func (l *configLoader) bindPersistent(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&l.configFile, "config", "", "config file (yaml, json or toml)")
	flags.String("rules", "rules.yaml", "rule file")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.Bool("dev", false, "human readable console logs")
	_ = l.v.BindPFlag("rules", flags.Lookup("rules"))
	_ = l.v.BindPFlag("log-level", flags.Lookup("log-level"))
	_ = l.v.BindPFlag("dev", flags.Lookup("dev"))
}

func (l *configLoader) bind(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		_ = l.v.BindPFlag(name, cmd.Flags().Lookup(name))
	}
}

// Load resolves the configuration
func (l *configLoader) Load() (*Config, error) {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "failed to read config")
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}
