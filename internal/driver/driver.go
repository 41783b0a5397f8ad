// Package driver sequences a routing run: it loads the initial
// instance, then feeds the initial demand file and every online demand
// file through repeated routing rounds until each file's demands are
// routed or a round reports infeasibility. This is the Go counterpart
// of original_source/main.cpp's outer for-loop over online demand
// files plus its inner while-loop over routing rounds.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"rsa/internal/apperr"
	"rsa/internal/audit"
	"rsa/internal/config"
	"rsa/internal/csvio"
	"rsa/internal/layeredgraph"
	"rsa/internal/milp"
	"rsa/internal/preprocess"
	"rsa/internal/report"
	"rsa/internal/rsa"
	"rsa/internal/rsalog"
	"rsa/internal/rsametrics"
	"rsa/internal/subgradient"
	"rsa/internal/writer"
)

// Driver owns the state that spans the whole run: the solve index
// stamped on every emitted artifact, and the run ID shared by the audit
// trail and the report workbook filename.
type Driver struct {
	cfg     *config.Config
	metrics *rsametrics.Metrics
	audit   audit.Logger

	runID      string
	solveIndex int
}

// New constructs a Driver. metrics and auditLogger may be nil, in which
// case the corresponding instrumentation is skipped.
func New(cfg *config.Config, metrics *rsametrics.Metrics, auditLogger audit.Logger) *Driver {
	return &Driver{
		cfg:     cfg,
		metrics: metrics,
		audit:   auditLogger,
		runID:   uuid.NewString(),
	}
}

// RunID returns the run's unique identifier.
func (dr *Driver) RunID() string { return dr.runID }

// Run loads the initial instance and processes the initial demand file
// followed by every file in the online demand folder, returning the
// final instance state and the summary of every round processed.
func (dr *Driver) Run(ctx context.Context) (*rsa.Instance, []report.BatchSummary, error) {
	inst := rsa.NewInstance()
	if err := csvio.LoadTopology(inst, dr.cfg.LinkFile); err != nil {
		return nil, nil, apperr.Wrap(err, apperr.CodeInvalidGraph, "failed to load topology").WithDetails("file", dr.cfg.LinkFile)
	}
	if err := csvio.LoadDemands(inst, dr.cfg.DemandFile); err != nil {
		return nil, nil, apperr.Wrap(err, apperr.CodeInvalidDemand, "failed to load demands").WithDetails("file", dr.cfg.DemandFile)
	}
	if dr.cfg.AssignmentFile != "" {
		validation, err := csvio.LoadAssignment(inst, dr.cfg.AssignmentFile)
		if err != nil {
			return nil, nil, apperr.Wrap(err, apperr.CodeIOFailed, "failed to load initial assignment").WithDetails("file", dr.cfg.AssignmentFile)
		}
		dr.auditValidationWarnings(ctx, validation)
	}
	inst.NumInitialDemands = inst.NbRoutedDemands()

	rsalog.Info("initial mapping loaded",
		"routed", inst.NumInitialDemands,
		"pending", len(inst.Demands)-inst.NumInitialDemands)
	dr.auditLoad(ctx, inst)

	files, err := dr.onlineDemandFiles()
	if err != nil {
		return inst, nil, err
	}

	var batches []report.BatchSummary

	summaries, err := dr.processFile(ctx, inst, fileTag(dr.cfg.DemandFile))
	batches = append(batches, summaries...)
	if err != nil {
		return inst, batches, err
	}

	for _, file := range files {
		appended, err := csvio.LoadOnlineDemands(inst, file)
		if err != nil {
			return inst, batches, apperr.Wrap(err, apperr.CodeInvalidDemand, "failed to load online demands").WithDetails("file", file)
		}
		rsalog.Info("loaded online demand file", "file", file, "appended", appended)

		summaries, err := dr.processFile(ctx, inst, fileTag(file))
		batches = append(batches, summaries...)
		if err != nil {
			return inst, batches, err
		}
	}

	return inst, batches, nil
}

// onlineDemandFiles lists the online demand folder's entries in
// directory order, skipping dotfiles and subdirectories.
func (dr *Driver) onlineDemandFiles() ([]string, error) {
	entries, err := os.ReadDir(dr.cfg.OnlineDemandFolder)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeIOFailed, "failed to list online demand folder").WithDetails("folder", dr.cfg.OnlineDemandFolder)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(dr.cfg.OnlineDemandFolder, e.Name()))
	}
	return files, nil
}

// roundResult is what one routing round (a MILP batch or a single
// subgradient demand) produced.
type roundResult struct {
	attempted  int
	routed     int
	infeasible bool
	demandID   int // -1 when the round has no single associated demand
}

// processFile runs the while(routed < total && feasible) loop for one
// demand-batch file's worth of demands, writing a round-0 snapshot
// before any routing and one snapshot per successful round after.
func (dr *Driver) processFile(ctx context.Context, inst *rsa.Instance, tag string) ([]report.BatchSummary, error) {
	counter := 0
	if err := dr.writeRound(inst, roundCode(tag, counter)); err != nil {
		return nil, err
	}

	var summaries []report.BatchSummary
	feasible := true
	for inst.NbRoutedDemands() < len(inst.Demands) && feasible {
		counter++
		dr.solveIndex++
		outputCode := roundCode(tag, counter)

		method, err := dr.cfg.ResolvedMethod()
		if err != nil {
			return summaries, apperr.Wrap(err, apperr.CodeInvalidAlgorithm, "invalid method")
		}

		start := time.Now()
		var res roundResult
		switch method {
		case config.MethodMILP:
			res, err = dr.solveMILPBatch(ctx, inst)
		case config.MethodSubgradient:
			res, err = dr.solveSubgradientDemand(ctx, inst)
		default:
			return summaries, apperr.New(apperr.CodeInvalidAlgorithm, "unsupported method").WithDetails("method", method.String())
		}
		duration := time.Since(start)

		outcome := audit.OutcomeSuccess
		if err != nil {
			outcome = audit.OutcomeFailure
		} else if res.infeasible {
			outcome = audit.OutcomeInfeasible
		}

		dr.recordRound(ctx, method, res, outcome, duration, outputCode, err)

		if err != nil {
			return summaries, err
		}

		summaries = append(summaries, report.BatchSummary{
			Round:      dr.solveIndex,
			Method:     method.String(),
			Attempted:  res.attempted,
			Routed:     res.routed,
			Abandoned:  res.attempted - res.routed,
			DurationMs: duration.Milliseconds(),
			Infeasible: res.infeasible,
		})

		if res.routed > 0 {
			if err := dr.writeRound(inst, outputCode); err != nil {
				return summaries, err
			}
		}
		if err := csvio.AppendResultsLog(dr.resultsLogPath(), outputCode, res.routed, inst.NbRoutedDemands()); err != nil {
			return summaries, err
		}

		if res.infeasible {
			feasible = false
			rsalog.Warn("routing round abandoned", "round", outputCode, "method", method.String())
		}
	}

	return summaries, nil
}

// solveMILPBatch pulls up to NbDemandsAtOnce pending demands, builds and
// solves their joint formulation, and commits whatever the solver routed.
func (dr *Driver) solveMILPBatch(ctx context.Context, inst *rsa.Instance) (roundResult, error) {
	indices := inst.NextBatch(dr.cfg.NbDemandsAtOnce)
	res := roundResult{attempted: len(indices), demandID: -1}
	if len(indices) == 0 {
		return res, nil
	}

	level, err := dr.cfg.ResolvedPreprocessingLevel()
	if err != nil {
		return res, apperr.Wrap(err, apperr.CodeInvalidArgument, "invalid preprocessing level")
	}
	metric, err := dr.cfg.ResolvedObjective()
	if err != nil {
		return res, apperr.Wrap(err, apperr.CodeInvalidArgument, "invalid objective metric")
	}

	demands := make([]rsa.Demand, len(indices))
	for i, idx := range indices {
		demands[i] = inst.Demands[idx]
	}

	graphs := layeredgraph.BuildBatch(inst, indices)
	for i, g := range graphs {
		preprocess.Run(ctx, g, inst, demands[i], level)
		dr.recordGraphSize(level, g)
	}

	problem := milp.Build(inst, demands, graphs, metric)
	solver := &milp.SequentialSolver{Instance: inst}
	sol, err := solver.Solve(ctx, problem)
	if err != nil {
		return res, apperr.Wrap(err, apperr.CodeInternal, "milp solve failed")
	}

	if sol.Status != milp.StatusOptimal {
		res.infeasible = true
		return res, nil
	}

	committed, err := writer.CommitMILP(inst, problem, sol, indices)
	if err != nil {
		return res, apperr.Wrap(err, apperr.CodeInternal, "failed to commit milp solution")
	}
	res.routed = committed
	return res, nil
}

// solveSubgradientDemand routes exactly one pending demand per call, per
// the original tool's asymmetry between the batched CPLEX method and the
// one-demand-at-a-time subgradient method.
func (dr *Driver) solveSubgradientDemand(ctx context.Context, inst *rsa.Instance) (roundResult, error) {
	pending := inst.PendingDemandIndices()
	if len(pending) == 0 {
		return roundResult{demandID: -1}, nil
	}
	idx := pending[0]
	d := inst.Demands[idx]
	res := roundResult{attempted: 1, demandID: d.ID}

	level, err := dr.cfg.ResolvedPreprocessingLevel()
	if err != nil {
		return res, apperr.Wrap(err, apperr.CodeInvalidArgument, "invalid preprocessing level")
	}
	metric, err := dr.cfg.ResolvedObjective()
	if err != nil {
		return res, apperr.Wrap(err, apperr.CodeInvalidArgument, "invalid objective metric")
	}

	g := layeredgraph.Build(inst, d)
	preprocess.Run(ctx, g, inst, d, level)
	dr.recordGraphSize(level, g)

	solver := subgradient.New(inst, g, d, metric,
		dr.cfg.LagrangianMultiplierZero, dr.cfg.LagrangianLambdaZero,
		dr.cfg.NbIterationsWithoutImprovement, dr.cfg.MaxNbIterations)

	state, err := solver.Run(ctx)
	if dr.metrics != nil {
		dr.metrics.SubgradientIterations.Observe(float64(solver.Iteration()))
	}
	if err != nil {
		// CSP infeasibility: fatal for the demand file currently being
		// processed, propagated all the way up through Run.
		return res, err
	}
	if state != subgradient.StateOptimal && state != subgradient.StateExhausted {
		res.infeasible = true
		return res, nil
	}

	arcs := solver.PathArcs()
	if err := writer.CommitSubgradient(inst, g, d, arcs, idx); err != nil {
		return res, apperr.Wrap(err, apperr.CodeInternal, "failed to commit subgradient solution")
	}
	res.routed = 1
	return res, nil
}

func (dr *Driver) recordGraphSize(level preprocess.Level, g *layeredgraph.Graph) {
	if dr.metrics == nil {
		return
	}
	dr.metrics.RecordGraphSize(fmt.Sprintf("%d", level), len(g.Nodes()), g.NbArcs())
}

func (dr *Driver) recordRound(ctx context.Context, method config.Method, res roundResult, outcome audit.Outcome, duration time.Duration, outputCode string, roundErr error) {
	if dr.metrics != nil {
		dr.metrics.RecordRound(method.String(), string(outcome), duration)
	}
	if dr.audit == nil {
		return
	}

	action := audit.ActionRouteBatch
	if method == config.MethodSubgradient {
		action = audit.ActionRouteDemand
	}

	entry := audit.NewEntry().
		Round(dr.solveIndex).
		Action(action).
		Outcome(outcome).
		Duration(duration).
		Meta("tag", outputCode).
		Meta("attempted", res.attempted).
		Meta("routed", res.routed)
	if res.demandID >= 0 {
		entry = entry.Demand(res.demandID)
	}
	if roundErr != nil {
		if appErr, ok := roundErr.(*apperr.Error); ok {
			entry = entry.Error(string(appErr.Code), appErr.Message)
		} else {
			entry = entry.Error(string(apperr.CodeInternal), roundErr.Error())
		}
	}
	if err := dr.audit.Log(ctx, entry.Build()); err != nil {
		rsalog.Warn("failed to write audit entry", "error", err)
	}
}

func (dr *Driver) auditLoad(ctx context.Context, inst *rsa.Instance) {
	if dr.audit == nil {
		return
	}
	entry := audit.NewEntry().
		Action(audit.ActionLoadInstance).
		Outcome(audit.OutcomeSuccess).
		Meta("runId", dr.runID).
		Meta("initialRouted", inst.NumInitialDemands).
		Meta("initialPending", len(inst.Demands)-inst.NumInitialDemands).
		Build()
	if err := dr.audit.Log(ctx, entry); err != nil {
		rsalog.Warn("failed to write audit entry", "error", err)
	}
}

// auditValidationWarnings logs and audits every warning collected while
// replaying the assignment file, without affecting the run's outcome:
// each one names a demand slot that was left untrusted, not a reason to
// abort.
func (dr *Driver) auditValidationWarnings(ctx context.Context, v *apperr.ValidationErrors) {
	if v == nil || !v.HasWarnings() {
		return
	}
	for _, w := range v.Warnings {
		rsalog.Warn("assignment file consistency warning", "code", string(w.Code), "message", w.Message)
		if dr.audit == nil {
			continue
		}
		entry := audit.NewEntry().
			Action(audit.ActionLoadInstance).
			Outcome(audit.OutcomeFailure).
			Error(string(w.Code), w.Message).
			Build()
		if err := dr.audit.Log(ctx, entry); err != nil {
			rsalog.Warn("failed to write audit entry", "error", err)
		}
	}
}

func (dr *Driver) writeRound(inst *rsa.Instance, outputCode string) error {
	holesPath := filepath.Join(dr.cfg.OutputPath, fmt.Sprintf("Edge_Slice_Holes_%s.csv", outputCode))
	if err := csvio.WriteEdgeSliceHoles(inst, dr.cfg.NbSlicesInOutputFile, holesPath); err != nil {
		return apperr.Wrap(err, apperr.CodeIOFailed, "failed to write edge slice holes").WithDetails("file", holesPath)
	}

	demandsPath := filepath.Join(dr.cfg.OutputPath, fmt.Sprintf("Demand_edges_slices_%s.csv", outputCode))
	if err := csvio.WriteDemandEdgeSlices(inst, demandsPath); err != nil {
		return apperr.Wrap(err, apperr.CodeIOFailed, "failed to write demand edge slices").WithDetails("file", demandsPath)
	}
	return nil
}

func (dr *Driver) resultsLogPath() string {
	return filepath.Join(dr.cfg.OutputPath, "results.csv")
}

func roundCode(tag string, counter int) string {
	return fmt.Sprintf("%s_%d", tag, counter)
}

// fileTag extracts the base filename without its extension, matching
// the original tool's getInBetweenString(path, "/", ".") convention.
func fileTag(path string) string {
	base := filepath.Base(path)
	if idx := strings.Index(base, "."); idx >= 0 {
		return base[:idx]
	}
	return base
}
