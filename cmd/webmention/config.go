package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-webmention/core"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// yamlConfigLoader reads the raw config layer from a YAML file. An empty
// path yields an empty layer.
type yamlConfigLoader struct {
	path string
}

func (l yamlConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	path := strings.TrimSpace(l.path)
	if path == "" {
		return map[string]any{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return raw, nil
}

// globalFlags are accepted by every subcommand and form the runtime layer.
type globalFlags struct {
	configPath string
	userAgent  string
	timeout    time.Duration
	logLevel   string
	jsonLogs   bool
}

func bindGlobalFlags(fs *pflag.FlagSet, g *globalFlags) {
	fs.StringVarP(&g.configPath, "config", "c", os.Getenv("WEBMENTION_CONFIG"), "Path to a YAML config file")
	fs.StringVar(&g.userAgent, "user-agent", "", "User-Agent header for outbound requests")
	fs.DurationVar(&g.timeout, "timeout", 0, "Timeout for each outbound request")
	fs.StringVar(&g.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	fs.BoolVar(&g.jsonLogs, "json-logs", false, "Write logs as JSON")
}

func (g globalFlags) runtime() core.Config {
	cfg := core.Config{
		UserAgent: strings.TrimSpace(g.userAgent),
		LogLevel:  strings.TrimSpace(g.logLevel),
	}
	if g.timeout > 0 {
		cfg.Transport.TimeoutSeconds = int((g.timeout + time.Second - 1) / time.Second)
	}
	return cfg
}

func resolveConfig(ctx context.Context, g globalFlags, runtime core.Config) (core.Config, error) {
	provider := core.NewCfgxConfigProvider(yamlConfigLoader{path: g.configPath})
	return core.ResolveConfig(ctx, provider, core.GoOptionsResolver{}, runtime)
}
