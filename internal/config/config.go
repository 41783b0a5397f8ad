// Package config loads the routing tool's configuration: the domain
// parameters that used to live in a single key=value parameter file,
// and the ambient logging/metrics/audit/report settings the teacher
// codebase keeps alongside them.
package config

import (
	"fmt"
	"strings"
	"time"

	"rsa/internal/apperr"
	"rsa/internal/milp"
	"rsa/internal/preprocess"
)

// Method selects which algorithm resolves each batch of demands.
type Method int

const (
	MethodMILP Method = iota
	MethodSubgradient
)

func (m Method) String() string {
	switch m {
	case MethodMILP:
		return "milp"
	case MethodSubgradient:
		return "subgradient"
	default:
		return "unknown"
	}
}

// ParseMethod accepts the numeric values the original parameter file
// used ("0", "1") as well as their names.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "cplex", "milp":
		return MethodMILP, nil
	case "1", "subgradient":
		return MethodSubgradient, nil
	default:
		return 0, apperr.NewWithField(apperr.CodeInvalidArgument, "unknown method", "method").WithDetails("value", s)
	}
}

// ParsePreprocessingLevel accepts the numeric values the original
// parameter file used ("0", "1", "2") as well as their names.
func ParsePreprocessingLevel(s string) (preprocess.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "no", "none":
		return preprocess.LevelNone, nil
	case "1", "partial":
		return preprocess.LevelPartial, nil
	case "2", "full":
		return preprocess.LevelFull, nil
	default:
		return 0, apperr.NewWithField(apperr.CodeInvalidArgument, "unknown preprocessing level", "preprocessingLevel").WithDetails("value", s)
	}
}

var validMetrics = map[milp.ObjectiveMetric]bool{
	milp.Metric1:  true,
	milp.Metric1p: true,
	milp.Metric2:  true,
	milp.Metric4:  true,
	milp.Metric8:  true,
}

// ParseObjectiveMetric validates s against the known objective metrics.
func ParseObjectiveMetric(s string) (milp.ObjectiveMetric, error) {
	metric := milp.ObjectiveMetric(strings.TrimSpace(s))
	if !validMetrics[metric] {
		return "", apperr.NewWithField(apperr.CodeInvalidArgument, "unknown objective metric", "obj").WithDetails("value", s)
	}
	return metric, nil
}

// AppConfig holds general application identity settings.
type AppConfig struct {
	Name        string `koanf:"name"`
	Environment string `koanf:"environment"`
	Debug       bool   `koanf:"debug"`
}

// LogConfig mirrors the teacher's logging settings.
type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	Output     string `koanf:"output"`
	FilePath   string `koanf:"file_path"`
	MaxSize    int    `koanf:"max_size"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAge     int    `koanf:"max_age"`
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig mirrors the teacher's Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// AuditConfig mirrors the teacher's audit log settings.
type AuditConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Backend     string        `koanf:"backend"`
	FilePath    string        `koanf:"file_path"`
	BufferSize  int           `koanf:"buffer_size"`
	FlushPeriod time.Duration `koanf:"flush_period"`
}

// ReportConfig controls the end-of-run summary workbook.
type ReportConfig struct {
	Enabled        bool   `koanf:"enabled"`
	OutputPath     string `koanf:"output_path"`
	DefaultTheme   string `koanf:"default_theme"`
	MaxEdgesInFile int    `koanf:"max_edges_in_file"`
}

// Config is the fully resolved configuration for one routing run. The
// fields with no koanf nesting correspond one-to-one to the keys the
// original parameter file used; the nested sections are the teacher's
// ambient stack, carried over even though the spectrum-allocation
// parameters never had an equivalent in the original tool.
type Config struct {
	App AppConfig `koanf:"app"`

	LinkFile           string `koanf:"linkfile"`
	DemandFile         string `koanf:"demandfile"`
	AssignmentFile     string `koanf:"assignmentfile"`
	OnlineDemandFolder string `koanf:"onlinedemandfolder"`
	OutputPath         string `koanf:"outputpath"`

	NbDemandsAtOnce      int `koanf:"nbdemandsatonce"`
	NbSlicesInOutputFile int `koanf:"nbslicesinoutputfile"`

	Method             string `koanf:"method"`
	PreprocessingLevel string `koanf:"preprocessinglevel"`
	Objective          string `koanf:"obj"`

	LagrangianMultiplierZero       float64 `koanf:"lagrangianmultiplier_zero"`
	LagrangianLambdaZero           float64 `koanf:"lagrangianlambda_zero"`
	NbIterationsWithoutImprovement int     `koanf:"nbiterationswithoutimprovement"`
	MaxNbIterations                int     `koanf:"maxnbiterations"`

	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
	Audit   AuditConfig   `koanf:"audit"`
	Report  ReportConfig  `koanf:"report"`
}

// ResolvedMethod parses the Method field.
func (c *Config) ResolvedMethod() (Method, error) {
	return ParseMethod(c.Method)
}

// ResolvedPreprocessingLevel parses the PreprocessingLevel field.
func (c *Config) ResolvedPreprocessingLevel() (preprocess.Level, error) {
	return ParsePreprocessingLevel(c.PreprocessingLevel)
}

// ResolvedObjective parses the Objective field.
func (c *Config) ResolvedObjective() (milp.ObjectiveMetric, error) {
	return ParseObjectiveMetric(c.Objective)
}

// Validate checks that the configuration is complete and internally
// consistent enough to start a routing run.
func (c *Config) Validate() error {
	var errs []string

	if c.LinkFile == "" {
		errs = append(errs, "linkfile is required")
	}
	if c.DemandFile == "" {
		errs = append(errs, "demandfile is required")
	}
	if c.AssignmentFile == "" {
		errs = append(errs, "assignmentfile is required")
	}
	if c.NbDemandsAtOnce <= 0 {
		errs = append(errs, "nbdemandsatonce must be positive")
	}
	if c.NbSlicesInOutputFile <= 0 {
		errs = append(errs, "nbslicesinoutputfile must be positive")
	}

	if _, err := c.ResolvedMethod(); err != nil {
		errs = append(errs, err.Error())
	}
	if _, err := c.ResolvedPreprocessingLevel(); err != nil {
		errs = append(errs, err.Error())
	}
	if _, err := c.ResolvedObjective(); err != nil {
		errs = append(errs, err.Error())
	}

	if method, err := c.ResolvedMethod(); err == nil && method == MethodSubgradient {
		if c.NbIterationsWithoutImprovement <= 0 {
			errs = append(errs, "nbiterationswithoutimprovement must be positive for the subgradient method")
		}
		if c.MaxNbIterations <= 0 {
			errs = append(errs, "maxnbiterations must be positive for the subgradient method")
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if c.Log.Level != "" && !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if len(errs) > 0 {
		return apperr.New(apperr.CodeInvalidArgument, strings.Join(errs, "; "))
	}
	return nil
}

// IsDevelopment reports whether App.Environment names a development-like
// environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}
