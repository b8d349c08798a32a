package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "LANDER"

type Config struct {
	App     AppConfig
	Log     LogConfig
	Export  ExportConfig
	Render  RenderConfig
	Browser BrowserConfig
	Server  ServerConfig
}

type AppConfig struct {
	Version string
}

type LogConfig struct {
	Level       string
	Development bool
}

type ExportConfig struct {
	FetchTimeout    time.Duration
	RenderTimeout   time.Duration
	LiveTimeout     time.Duration
	ArchiveTimeout  time.Duration
	Concurrency     int
	BaseURL         string
	PathPrefixes    []string
	MaxAssetBytes   int64
	MaxArchiveBytes int64
}

type RenderConfig struct {
	// ServiceURL is an http(s) URL or unix:///path/to.sock.
	ServiceURL string
	// Command starts a local render service listening on LANDER_SOCKET.
	Command []string
}

type BrowserConfig struct {
	PreviewURL   string
	RemoteURL    string
	RootSelector string
}

type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Load reads, in increasing precedence: defaults, the config file (path,
// or lander.yaml in . and ./config), .env, and LANDER_* variables.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("lander")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.version", "dev")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("export.fetch_timeout", "8s")
	v.SetDefault("export.render_timeout", "10s")
	v.SetDefault("export.live_timeout", "10s")
	v.SetDefault("export.archive_timeout", "30s")
	v.SetDefault("export.concurrency", 4)
	v.SetDefault("export.base_url", "")
	v.SetDefault("export.path_prefixes", []string{"/uploads/", "/assets/", "/static/", "/images/", "/media/", "/fonts/"})
	v.SetDefault("export.max_asset_bytes", 50<<20)
	v.SetDefault("export.max_archive_bytes", 512<<20)

	v.SetDefault("render.service_url", "")
	v.SetDefault("render.command", []string{})

	v.SetDefault("browser.preview_url", "")
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.root_selector", "#lp-preview")

	v.SetDefault("server.address", ":8090")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{Version: v.GetString("app.version")},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
		},
		Export: ExportConfig{
			FetchTimeout:    v.GetDuration("export.fetch_timeout"),
			RenderTimeout:   v.GetDuration("export.render_timeout"),
			LiveTimeout:     v.GetDuration("export.live_timeout"),
			ArchiveTimeout:  v.GetDuration("export.archive_timeout"),
			Concurrency:     v.GetInt("export.concurrency"),
			BaseURL:         v.GetString("export.base_url"),
			PathPrefixes:    v.GetStringSlice("export.path_prefixes"),
			MaxAssetBytes:   v.GetInt64("export.max_asset_bytes"),
			MaxArchiveBytes: v.GetInt64("export.max_archive_bytes"),
		},
		Render: RenderConfig{
			ServiceURL: v.GetString("render.service_url"),
			Command:    v.GetStringSlice("render.command"),
		},
		Browser: BrowserConfig{
			PreviewURL:   v.GetString("browser.preview_url"),
			RemoteURL:    v.GetString("browser.remote_url"),
			RootSelector: v.GetString("browser.root_selector"),
		},
		Server: ServerConfig{
			Address:      v.GetString("server.address"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
	}
}

func (c *Config) Validate() error {
	if c.Export.Concurrency <= 0 {
		return fmt.Errorf("export.concurrency must be positive, got %d", c.Export.Concurrency)
	}
	for key, d := range map[string]time.Duration{
		"export.fetch_timeout":   c.Export.FetchTimeout,
		"export.render_timeout":  c.Export.RenderTimeout,
		"export.live_timeout":    c.Export.LiveTimeout,
		"export.archive_timeout": c.Export.ArchiveTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	for _, prefix := range c.Export.PathPrefixes {
		if !strings.HasPrefix(prefix, "/") {
			return fmt.Errorf("export.path_prefixes entries must start with /: %q", prefix)
		}
	}
	return nil
}
