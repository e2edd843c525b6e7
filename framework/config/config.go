package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable: app.name → BEANS_APP_NAME.
const EnvPrefix = "BEANS"

// Config is the central typed configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Container ContainerConfig `mapstructure:"container"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"` // local | production | testing
	Debug bool   `mapstructure:"debug"`
}

// ContainerConfig maps onto container options.
type ContainerConfig struct {
	AllowCircularReferences   bool `mapstructure:"allow_circular_references"`
	AllowDefinitionOverriding bool `mapstructure:"allow_definition_overriding"`
	AllowRawInjection         bool `mapstructure:"allow_raw_injection"`
	PreInstantiate            bool `mapstructure:"pre_instantiate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // json | console
}

type HTTPConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns host:port for net/http.
func (h HTTPConfig) Addr() string { return h.Host + ":" + h.Port }

type TracingConfig struct {
	Exporter    string `mapstructure:"exporter"` // none | stdout | otlp
	Endpoint    string `mapstructure:"endpoint"`
	Insecure    bool   `mapstructure:"insecure"`
	ServiceName string `mapstructure:"service_name"`
}

// Options selects where configuration is read from.
type Options struct {
	// EnvFiles are loaded into the process environment first. Missing files
	// are ignored. Default: .env
	EnvFiles []string
	// ConfigFile is an optional YAML/JSON/TOML file. Missing is an error.
	ConfigFile string
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		App: AppConfig{Name: "go-beans", Env: "local", Debug: true},
		Container: ContainerConfig{
			AllowCircularReferences: true,
			PreInstantiate:          true,
		},
		Log:  LogConfig{Level: "info", Format: "console"},
		HTTP: HTTPConfig{Host: "", Port: "8000", ReadTimeout: 10 * time.Second, ShutdownTimeout: 5 * time.Second},
		Tracing: TracingConfig{
			Exporter:    "none",
			Endpoint:    "localhost:4317",
			Insecure:    true,
			ServiceName: "go-beans",
		},
	}
}

// Load reads .env files (if present), then an optional config file, then
// BEANS_* environment variables, over Defaults().
//
//	cfg, err := config.Load(config.Options{ConfigFile: "beans.yaml"})
func Load(opts Options) (*Config, error) {
	files := opts.EnvFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// Non-fatal: .env may not exist in production
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := NewViper()
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Defaults()

	v.SetDefault("app.name", d.App.Name)
	v.SetDefault("app.env", d.App.Env)
	v.SetDefault("app.debug", d.App.Debug)

	v.SetDefault("container.allow_circular_references", d.Container.AllowCircularReferences)
	v.SetDefault("container.allow_definition_overriding", d.Container.AllowDefinitionOverriding)
	v.SetDefault("container.allow_raw_injection", d.Container.AllowRawInjection)
	v.SetDefault("container.pre_instantiate", d.Container.PreInstantiate)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("http.host", d.HTTP.Host)
	v.SetDefault("http.port", d.HTTP.Port)
	v.SetDefault("http.read_timeout", d.HTTP.ReadTimeout)
	v.SetDefault("http.shutdown_timeout", d.HTTP.ShutdownTimeout)

	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.insecure", d.Tracing.Insecure)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func (c *Config) IsLocal() bool      { return c.App.Env == "local" }
func (c *Config) IsProduction() bool { return c.App.Env == "production" }
func (c *Config) IsTesting() bool    { return c.App.Env == "testing" }
