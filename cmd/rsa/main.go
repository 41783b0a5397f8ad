// Command rsa runs one online routing and spectrum allocation session:
// it loads a topology and an initial demand mapping, then feeds the
// initial demand file and every file in the online demand folder
// through repeated routing rounds, writing per-round CSV snapshots, a
// results log, and (optionally) a Prometheus textfile and a summary
// workbook.
//
// Usage:
//
//	rsa <parameter-file>
//
// The parameter file is the routing tool's own "key=value;" format
// (linkfile, demandfile, onlinedemandfolder, method, ...); see
// internal/config for the full key list and defaults.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"rsa/internal/audit"
	"rsa/internal/config"
	"rsa/internal/driver"
	"rsa/internal/report"
	"rsa/internal/rsalog"
	"rsa/internal/rsametrics"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <parameter-file>\n", filepath.Base(os.Args[0]))
		os.Exit(1)
	}

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	rsalog.InitWithConfig(cfg.Log)

	if err := os.MkdirAll(cfg.OutputPath, 0o755); err != nil {
		rsalog.Fatal("failed to create output directory", "path", cfg.OutputPath, "error", err)
	}

	var metrics *rsametrics.Metrics
	if cfg.Metrics.Enabled {
		metrics = rsametrics.New(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	}

	auditLogger, err := audit.New(&audit.Config{
		Enabled:     cfg.Audit.Enabled,
		Backend:     cfg.Audit.Backend,
		FilePath:    cfg.Audit.FilePath,
		BufferSize:  cfg.Audit.BufferSize,
		FlushPeriod: cfg.Audit.FlushPeriod,
	})
	if err != nil {
		rsalog.Fatal("failed to init audit logger", "error", err)
	}
	defer func() {
		if err := auditLogger.Close(); err != nil {
			rsalog.Warn("failed to close audit logger", "error", err)
		}
	}()

	dr := driver.New(cfg, metrics, auditLogger)

	rsalog.Info("starting routing run",
		"run_id", dr.RunID(),
		"method", cfg.Method,
		"linkfile", cfg.LinkFile,
		"demandfile", cfg.DemandFile,
	)

	if metrics != nil {
		metrics.SetRunInfo(cfg.Method, cfg.Objective)
	}

	ctx := context.Background()
	inst, batches, runErr := dr.Run(ctx)

	if metrics != nil {
		var routed, infeasible int
		for _, b := range batches {
			routed += b.Routed
			if b.Infeasible {
				infeasible += b.Abandoned
			}
		}
		metrics.DemandsRoutedTotal.Add(float64(routed))
		metrics.DemandsInfeasible.Add(float64(infeasible))
		if inst != nil {
			metrics.DemandsPending.Set(float64(len(inst.Demands) - inst.NbRoutedDemands()))
			maxPos := 0
			for i := range inst.Links {
				if p := inst.Links[i].MaxUsedSlicePosition(); p > maxPos {
					maxPos = p
				}
			}
			metrics.MaxUsedSlicePosition.Set(float64(maxPos))
		}

		textfilePath := filepath.Join(cfg.OutputPath, "metrics.prom")
		if err := metrics.WriteToTextfile(textfilePath); err != nil {
			rsalog.Warn("failed to write metrics textfile", "error", err)
		}
	}

	if cfg.Report.Enabled && inst != nil {
		data := &report.Data{Tag: dr.RunID(), Batches: batches, Final: inst}
		reportPath := cfg.Report.OutputPath
		if reportPath == "" {
			reportPath = filepath.Join(cfg.OutputPath, fmt.Sprintf("summary_%s.xlsx", dr.RunID()))
		}
		if err := report.NewGenerator().WriteFile(data, reportPath); err != nil {
			rsalog.Warn("failed to write summary workbook", "error", err)
		} else {
			rsalog.Info("summary workbook written", "path", reportPath)
		}
	}

	if runErr != nil {
		// Fatal exits the process, so the deferred close above would not run.
		if err := auditLogger.Close(); err != nil {
			rsalog.Warn("failed to close audit logger", "error", err)
		}
		rsalog.Fatal("routing run failed", "run_id", dr.RunID(), "error", runErr)
	}

	routedTotal := 0
	if inst != nil {
		routedTotal = inst.NbRoutedDemands()
	}
	rsalog.Info("routing run complete",
		"run_id", dr.RunID(),
		"rounds", len(batches),
		"routed", routedTotal,
	)
}
