// Package audit records a structured trail of what happened during a
// routing run: which round processed which demand, with what outcome,
// so an operator can reconstruct a run after the fact from its logs
// alone.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action identifies the kind of event an Entry records.
type Action string

const (
	// ActionLoadInstance marks reading the topology/demand/assignment
	// files into an Instance.
	ActionLoadInstance Action = "LOAD_INSTANCE"
	// ActionRouteBatch marks one MILP batch-solving round.
	ActionRouteBatch Action = "ROUTE_BATCH"
	// ActionRouteDemand marks one subgradient single-demand round.
	ActionRouteDemand Action = "ROUTE_DEMAND"
	// ActionCommit marks a Solution Writer commit.
	ActionCommit Action = "COMMIT"
	// ActionWriteOutput marks writing a per-round output file.
	ActionWriteOutput Action = "WRITE_OUTPUT"
)

// Outcome represents the result of an audited action.
type Outcome string

const (
	OutcomeSuccess    Outcome = "SUCCESS"
	OutcomeFailure    Outcome = "FAILURE"
	OutcomeInfeasible Outcome = "INFEASIBLE"
)

// Entry is a single audit log record.
type Entry struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Round        int            `json:"round"`
	DemandID     int            `json:"demand_id,omitempty"`
	Action       Action         `json:"action"`
	Outcome      Outcome        `json:"outcome"`
	DurationMs   int64          `json:"duration_ms"`
	ErrorCode    string         `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Logger is the interface audit backends implement.
type Logger interface {
	Log(ctx context.Context, entry *Entry) error
	Close() error
}

// Config controls which audit backend is used.
type Config struct {
	Enabled     bool          `koanf:"enabled"`
	Backend     string        `koanf:"backend"`
	FilePath    string        `koanf:"file_path"`
	BufferSize  int           `koanf:"buffer_size"`
	FlushPeriod time.Duration `koanf:"flush_period"`
}

// DefaultConfig returns sane defaults for a standalone CLI run.
func DefaultConfig() *Config {
	return &Config{
		Enabled:     true,
		Backend:     "stdout",
		BufferSize:  1000,
		FlushPeriod: 5 * time.Second,
	}
}

// Builder provides a fluent API for constructing an Entry.
type Builder struct {
	entry *Entry
}

// NewEntry starts building an Entry stamped with the current time.
func NewEntry() *Builder {
	return &Builder{entry: &Entry{Timestamp: time.Now(), Metadata: make(map[string]any)}}
}

func (b *Builder) Round(round int) *Builder {
	b.entry.Round = round
	return b
}

func (b *Builder) Demand(demandID int) *Builder {
	b.entry.DemandID = demandID
	return b
}

func (b *Builder) Action(a Action) *Builder {
	b.entry.Action = a
	return b
}

func (b *Builder) Outcome(o Outcome) *Builder {
	b.entry.Outcome = o
	return b
}

func (b *Builder) Duration(d time.Duration) *Builder {
	b.entry.DurationMs = d.Milliseconds()
	return b
}

func (b *Builder) Error(code, message string) *Builder {
	b.entry.ErrorCode = code
	b.entry.ErrorMessage = message
	return b
}

func (b *Builder) Meta(key string, value any) *Builder {
	b.entry.Metadata[key] = value
	return b
}

// Build finalizes the Entry, stamping a unique ID if one isn't set.
func (b *Builder) Build() *Entry {
	if b.entry.ID == "" {
		b.entry.ID = uuid.NewString()
	}
	return b.entry
}
