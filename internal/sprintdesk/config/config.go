package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "SPRINTDESK"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Notify    NotifyConfig    `mapstructure:"notify"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type MongoConfig struct {
	// URI must reach a replica set; lead transfers run in a transaction.
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Issuer    string        `mapstructure:"issuer"`
	// LoginRate is the allowed login attempts per second per client IP.
	LoginRate float64 `mapstructure:"login_rate"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Output     string `mapstructure:"output"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type SchedulerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type NotifyConfig struct {
	Language string `mapstructure:"language"`
	// Buffer is the per-connection websocket send queue length.
	Buffer int `mapstructure:"buffer"`
}

// Defaults returns the value used for every key not set elsewhere.
func Defaults() map[string]any {
	return map[string]any{
		"server.port":          "8080",
		"server.read_timeout":  10 * time.Second,
		"server.write_timeout": 10 * time.Second,
		"mongo.uri":            "mongodb://localhost:27017",
		"mongo.database":       "sprintdesk",
		"auth.jwt_secret":      "",
		"auth.token_ttl":       24 * time.Hour,
		"auth.issuer":          "sprintdesk",
		"auth.login_rate":      5.0,
		"log.level":            "info",
		"log.output":           "console",
		"log.file":             "sprintdesk.log",
		"log.max_size_mb":      100,
		"log.max_backups":      5,
		"log.max_age_days":     30,
		"scheduler.enabled":    true,
		"scheduler.interval":   24 * time.Hour,
		"notify.language":      "en",
		"notify.buffer":        32,
	}
}

// Load merges defaults, an optional YAML file, SPRINTDESK_* env vars and flags,
// in increasing order of precedence. An empty path skips the file.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
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

// bindFlags maps flags such as --port or --mongo-uri on to their config keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"port":      "server.port",
		"mongo-uri": "mongo.uri",
		"database":  "mongo.database",
		"log-level": "log.level",
	}
	for flag, key := range bindings {
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("mongo.uri is required"))
	}
	if c.Mongo.Database == "" {
		errs = append(errs, errors.New("mongo.database is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		errs = append(errs, errors.New("scheduler.interval must be positive"))
	}
	switch c.Log.Output {
	case "console", "file":
	default:
		errs = append(errs, fmt.Errorf("log.output must be console or file, got %q", c.Log.Output))
	}
	if c.Notify.Buffer <= 0 {
		c.Notify.Buffer = 32
	}
	return errors.Join(errs...)
}
