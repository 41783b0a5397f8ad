package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"rsa/internal/config"
	"rsa/internal/milp"
	"rsa/internal/rsalog"
)

func init() {
	rsalog.Init("error")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

// baseConfig builds a small triangle topology (3 nodes, 3 links, 4
// slices each) with one initial demand and one online demand file
// carrying a second demand.
func baseConfig(t *testing.T, method string) *config.Config {
	t.Helper()
	dir := t.TempDir()

	linkFile := filepath.Join(dir, "links.csv")
	writeFile(t, linkFile, "id;source;target;length;nbSlices;cost\n"+
		"1;1;2;100;4;1\n2;2;3;100;4;1\n3;1;3;100;4;1\n")

	demandFile := filepath.Join(dir, "demands.csv")
	writeFile(t, demandFile, "id;source;target;load;maxLength\n1;1;3;1;150\n")

	onlineDir := filepath.Join(dir, "online")
	if err := os.MkdirAll(onlineDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	writeFile(t, filepath.Join(onlineDir, "batch1.csv"),
		"id;source;target;load;maxLength\n1;1;3;1;150\n")

	outputDir := filepath.Join(dir, "output")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	return &config.Config{
		LinkFile:                       linkFile,
		DemandFile:                     demandFile,
		AssignmentFile:                 "",
		OnlineDemandFolder:             onlineDir,
		OutputPath:                     outputDir,
		NbDemandsAtOnce:                5,
		NbSlicesInOutputFile:           4,
		Method:                         method,
		PreprocessingLevel:             "2",
		Objective:                      string(milp.Metric2),
		LagrangianMultiplierZero:       0,
		LagrangianLambdaZero:           2,
		NbIterationsWithoutImprovement: 5,
		MaxNbIterations:                100,
	}
}

func TestRunMILPRoutesEveryDemand(t *testing.T) {
	cfg := baseConfig(t, "milp")
	dr := New(cfg, nil, nil)

	inst, batches, err := dr.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(batches) == 0 {
		t.Fatal("expected at least one batch summary")
	}
	if inst.NbRoutedDemands() != len(inst.Demands) {
		t.Errorf("routed %d of %d demands", inst.NbRoutedDemands(), len(inst.Demands))
	}

	if _, err := os.Stat(filepath.Join(cfg.OutputPath, "results.csv")); err != nil {
		t.Errorf("expected results.csv: %v", err)
	}
}

func TestRunSubgradientRoutesOneDemandPerRound(t *testing.T) {
	cfg := baseConfig(t, "subgradient")
	dr := New(cfg, nil, nil)

	inst, batches, err := dr.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if inst.NbRoutedDemands() != len(inst.Demands) {
		t.Errorf("routed %d of %d demands", inst.NbRoutedDemands(), len(inst.Demands))
	}
	for _, b := range batches {
		if b.Method == "subgradient" && b.Attempted > 1 {
			t.Errorf("subgradient round attempted %d demands, want at most 1", b.Attempted)
		}
	}
}

func TestRunID(t *testing.T) {
	cfg := baseConfig(t, "milp")
	d1 := New(cfg, nil, nil)
	d2 := New(cfg, nil, nil)
	if d1.RunID() == d2.RunID() {
		t.Error("expected distinct run IDs across Driver instances")
	}
}

func TestFileTag(t *testing.T) {
	cases := map[string]string{
		"/a/b/demands.csv":  "demands",
		"online/batch1.csv": "batch1",
		"noext":             "noext",
	}
	for path, want := range cases {
		if got := fileTag(path); got != want {
			t.Errorf("fileTag(%q) = %q, want %q", path, got, want)
		}
	}
}
