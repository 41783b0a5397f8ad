package audit

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewEntry(t *testing.T) {
	entry := NewEntry().
		Round(3).
		Demand(12).
		Action(ActionRouteDemand).
		Outcome(OutcomeSuccess).
		Duration(100 * time.Millisecond).
		Meta("key1", "value1").
		Build()

	if entry.Round != 3 {
		t.Errorf("Round = %d, want 3", entry.Round)
	}
	if entry.DemandID != 12 {
		t.Errorf("DemandID = %d, want 12", entry.DemandID)
	}
	if entry.Action != ActionRouteDemand {
		t.Errorf("Action = %s, want ROUTE_DEMAND", entry.Action)
	}
	if entry.Outcome != OutcomeSuccess {
		t.Errorf("Outcome = %s, want SUCCESS", entry.Outcome)
	}
	if entry.DurationMs != 100 {
		t.Errorf("DurationMs = %d, want 100", entry.DurationMs)
	}
	if entry.Metadata["key1"] != "value1" {
		t.Errorf("Metadata[key1] = %v, want value1", entry.Metadata["key1"])
	}
	if entry.ID == "" {
		t.Error("expected ID to be generated")
	}
}

func TestBuilderError(t *testing.T) {
	entry := NewEntry().
		Action(ActionRouteBatch).
		Outcome(OutcomeInfeasible).
		Error("INFEASIBLE", "no feasible path for demand").
		Build()

	if entry.ErrorCode != "INFEASIBLE" {
		t.Errorf("ErrorCode = %s, want INFEASIBLE", entry.ErrorCode)
	}
	if entry.ErrorMessage != "no feasible path for demand" {
		t.Errorf("ErrorMessage = %q", entry.ErrorMessage)
	}
}

func TestEntryMarshalJSON(t *testing.T) {
	entry := NewEntry().Action(ActionCommit).Outcome(OutcomeSuccess).Build()

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded Entry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Action != entry.Action {
		t.Errorf("Action = %s, want %s", decoded.Action, entry.Action)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Enabled {
		t.Error("expected enabled to be true by default")
	}
	if cfg.Backend != "stdout" {
		t.Errorf("Backend = %s, want stdout", cfg.Backend)
	}
	if cfg.BufferSize != 1000 {
		t.Errorf("BufferSize = %d, want 1000", cfg.BufferSize)
	}
}

func TestBuilderGeneratesUniqueIDs(t *testing.T) {
	first := NewEntry().Build().ID
	second := NewEntry().Build().ID
	if first == "" || second == "" {
		t.Fatal("expected non-empty IDs")
	}
	if first == second {
		t.Error("expected distinct IDs across builds")
	}
}
