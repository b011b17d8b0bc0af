package core

import (
	"fmt"
	"strings"
)

const (
	DefaultUserAgent        = "go-webmention (+https://github.com/goliatone/go-webmention)"
	DefaultTimeoutSeconds   = 10
	DefaultMaxResponseBytes = int64(5 << 20) // 5 MiB
	DefaultMaxRedirects     = 10
	DefaultReceiverPath     = "/webmention"
	DefaultServerAddress    = ":8080"
	DefaultMetricsPath      = "/metrics"
)

type TransportConfig struct {
	TimeoutSeconds   int   `koanf:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxResponseBytes int64 `koanf:"max_response_bytes" mapstructure:"max_response_bytes"`
	MaxRedirects     int   `koanf:"max_redirects" mapstructure:"max_redirects"`
}

type ReceiverConfig struct {
	Path string `koanf:"path" mapstructure:"path"`
	// AllowedTargetHosts restricts accepted targets. Empty accepts any host.
	AllowedTargetHosts []string `koanf:"allowed_target_hosts" mapstructure:"allowed_target_hosts"`
}

type ServerConfig struct {
	Address     string `koanf:"address" mapstructure:"address"`
	MetricsPath string `koanf:"metrics_path" mapstructure:"metrics_path"`
}

type Config struct {
	ServiceName string          `koanf:"service_name" mapstructure:"service_name"`
	UserAgent   string          `koanf:"user_agent" mapstructure:"user_agent"`
	LogLevel    string          `koanf:"log_level" mapstructure:"log_level"`
	Transport   TransportConfig `koanf:"transport" mapstructure:"transport"`
	Receiver    ReceiverConfig  `koanf:"receiver" mapstructure:"receiver"`
	Server      ServerConfig    `koanf:"server" mapstructure:"server"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "webmention",
		UserAgent:   DefaultUserAgent,
		LogLevel:    "info",
		Transport: TransportConfig{
			TimeoutSeconds:   DefaultTimeoutSeconds,
			MaxResponseBytes: DefaultMaxResponseBytes,
			MaxRedirects:     DefaultMaxRedirects,
		},
		Receiver: ReceiverConfig{
			Path: DefaultReceiverPath,
		},
		Server: ServerConfig{
			Address:     DefaultServerAddress,
			MetricsPath: DefaultMetricsPath,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Transport.TimeoutSeconds < 0 {
		return fmt.Errorf("core: transport.timeout_seconds must not be negative")
	}
	if c.Transport.MaxResponseBytes < 0 {
		return fmt.Errorf("core: transport.max_response_bytes must not be negative")
	}
	if c.Transport.MaxRedirects < 0 {
		return fmt.Errorf("core: transport.max_redirects must not be negative")
	}
	if path := strings.TrimSpace(c.Receiver.Path); path != "" && !strings.HasPrefix(path, "/") {
		return fmt.Errorf("core: receiver.path must start with '/'")
	}
	for _, host := range c.Receiver.AllowedTargetHosts {
		if strings.TrimSpace(host) == "" {
			return fmt.Errorf("core: receiver.allowed_target_hosts must not contain empty entries")
		}
	}
	return nil
}
