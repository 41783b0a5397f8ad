package rsa

import "fmt"

// Demand is a traffic request for a contiguous block of slices between two
// nodes, subject to a maximum path length.
type Demand struct {
	ID              int
	Source          int
	Target          int
	Load            int
	MaxLength       float64
	Routed          bool
	SliceAllocation int // index of the last slice of the assigned window, or Unassigned
}

// NewDemand constructs a pending (unrouted) demand.
func NewDemand(id, source, target, load int, maxLength float64) Demand {
	return Demand{
		ID:              id,
		Source:          source,
		Target:          target,
		Load:            load,
		MaxLength:       maxLength,
		Routed:          false,
		SliceAllocation: Unassigned,
	}
}

// String renders the compact "(source,target,load)" form used in CSV
// assignment headers, with 1-based endpoints as written on disk.
func (d Demand) String() string {
	return fmt.Sprintf("(%d,%d,%d)", d.Source+1, d.Target+1, d.Load)
}

// Matches reports whether the given (source, target, load) triple agrees
// with this demand's declared values. Used to validate assignment-file
// entries against the demand file at load time.
func (d Demand) Matches(source, target, load int) bool {
	return d.Source == source && d.Target == target && d.Load == load
}
