package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeParamFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "parameters.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

const minimalParams = `linkFile=links.csv;
demandFile=demands.csv;
assignmentFile=assignment.csv;
onlineDemandFolder=online/;
outputPath=out/;
nbDemandsAtOnce=5;
nbSlicesInOutputFile=30;
method=1;
preprocessingLevel=2;
obj=2;
lagrangianMultiplier_zero=0;
lagrangianLambda_zero=2;
nbIterationsWithoutImprovement=10;
maxNbIterations=100;
`

func TestLoaderLoadsParameterFile(t *testing.T) {
	path := writeParamFile(t, minimalParams)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LinkFile != "links.csv" {
		t.Errorf("LinkFile = %q, want links.csv", cfg.LinkFile)
	}
	if cfg.NbDemandsAtOnce != 5 {
		t.Errorf("NbDemandsAtOnce = %d, want 5", cfg.NbDemandsAtOnce)
	}
	method, err := cfg.ResolvedMethod()
	if err != nil || method != MethodSubgradient {
		t.Errorf("ResolvedMethod = %v, %v, want MethodSubgradient", method, err)
	}
	if _, err := cfg.ResolvedPreprocessingLevel(); err != nil {
		t.Fatalf("ResolvedPreprocessingLevel: %v", err)
	}
}

func TestLoaderDefaultsFillAmbientSettings(t *testing.T) {
	path := writeParamFile(t, minimalParams)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Metrics.Port = %d, want 9090", cfg.Metrics.Port)
	}
}

func TestLoaderEnvOverridesAmbientDefaults(t *testing.T) {
	path := writeParamFile(t, minimalParams)
	t.Setenv("RSA_LOG__LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug (env override)", cfg.Log.Level)
	}
}

func TestLoaderEnvPreservesSingleUnderscoreKeys(t *testing.T) {
	path := writeParamFile(t, minimalParams)
	t.Setenv("RSA_LAGRANGIANMULTIPLIER_ZERO", "1.5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LagrangianMultiplierZero != 1.5 {
		t.Errorf("LagrangianMultiplierZero = %v, want 1.5", cfg.LagrangianMultiplierZero)
	}
}

func TestLoaderRejectsMissingRequiredFields(t *testing.T) {
	path := writeParamFile(t, "method=0;\npreprocessingLevel=0;\nobj=2;\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a parameter file missing required paths")
	}
}

func TestLoaderRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected an error for a nonexistent parameter file")
	}
}
