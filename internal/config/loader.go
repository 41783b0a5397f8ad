package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"rsa/internal/apperr"
	"rsa/internal/config/flatkv"
)

const envPrefix = "RSA_"

// Loader resolves a Config from the parameter file plus environment
// overrides, the way pkg/config.Loader resolved a service's Config from
// a YAML file plus environment overrides.
type Loader struct {
	k             *koanf.Koanf
	parameterFile string
	envPrefix     string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithEnvPrefix overrides the default "RSA_" environment prefix.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) { l.envPrefix = prefix }
}

// NewLoader builds a Loader that reads domain parameters from
// parameterFile (the routing tool's "key=value;" file).
func NewLoader(parameterFile string, opts ...LoaderOption) *Loader {
	l := &Loader{
		k:             koanf.New("."),
		parameterFile: parameterFile,
		envPrefix:     envPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves the configuration with priority, lowest first:
//  1. ambient-stack defaults
//  2. the parameter file
//  3. environment variables
func (l *Loader) Load() (*Config, error) {
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if err := l.loadParameterFile(); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeIOFailed, "failed to read parameter file").WithField("parameterFile").WithDetails("path", l.parameterFile)
	}

	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *Loader) loadDefaults() error {
	defaults := map[string]any{
		"app.name":        "rsa",
		"app.environment": "development",
		"app.debug":       false,

		"nbdemandsatonce":      1,
		"nbslicesinoutputfile": 20,
		"preprocessinglevel":   "2",

		"lagrangianmultiplier_zero":      0.0,
		"lagrangianlambda_zero":          2.0,
		"nbiterationswithoutimprovement": 10,
		"maxnbiterations":                1000,

		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		"metrics.enabled":   true,
		"metrics.port":      9090,
		"metrics.path":      "/metrics",
		"metrics.namespace": "rsa",

		"audit.enabled":      true,
		"audit.backend":      "stdout",
		"audit.buffer_size":  1000,
		"audit.flush_period": 5 * time.Second,

		"report.enabled":           false,
		"report.default_theme":     "light",
		"report.max_edges_in_file": 50,
	}
	return l.k.Load(confmap.Provider(defaults, "."), nil)
}

func (l *Loader) loadParameterFile() error {
	if l.parameterFile == "" {
		return apperr.New(apperr.CodeInvalidArgument, "parameter file path is empty")
	}
	return l.k.Load(file.Provider(l.parameterFile), flatkv.New())
}

func (l *Loader) loadEnv() error {
	return l.k.Load(env.Provider(l.envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
}

// Load is a convenience wrapper around NewLoader(parameterFile).Load().
func Load(parameterFile string) (*Config, error) {
	return NewLoader(parameterFile).Load()
}

// MustLoad loads the configuration or panics, for use in command
// bootstrapping where a misconfigured run should fail immediately.
func MustLoad(parameterFile string, opts ...LoaderOption) *Config {
	cfg, err := NewLoader(parameterFile, opts...).Load()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}
