package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr           string
		RequestTimeout time.Duration
	}
	Database struct {
		Path string
	}
	Session struct {
		TTLSeconds    int
		SweepInterval time.Duration
	}
	Log struct {
		Level  string
		Format string
	}
	Metrics struct {
		Enabled bool
	}
	Telemetry struct {
		OTLPEndpoint string
		Insecure     bool
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
}

// SessionTTL returns the configured sliding session lifetime.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLSeconds) * time.Second
}

// ExportsEnabled reports whether an export bucket is configured.
func (c Config) ExportsEnabled() bool {
	return strings.TrimSpace(c.Storage.Bucket) != ""
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("NOTES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("server.requesttimeout", 5*time.Second)
	v.SetDefault("database.path", "data/notes.db")
	v.SetDefault("session.ttlseconds", 3600)
	v.SetDefault("session.sweepinterval", time.Duration(0))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("telemetry.otlpendpoint", "")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "notes-exports")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")

	// SESSION_EXPIRATION predates the NOTES_ prefix.
	if err := v.BindEnv("session.ttlseconds", "NOTES_SESSION_TTLSECONDS", "SESSION_EXPIRATION"); err != nil {
		return Config{}, fmt.Errorf("bind session env: %w", err)
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Session.TTLSeconds <= 0 {
		return Config{}, fmt.Errorf("session ttl must be positive, got %d", cfg.Session.TTLSeconds)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("request timeout must be positive, got %s", cfg.Server.RequestTimeout)
	}

	return cfg, nil
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
