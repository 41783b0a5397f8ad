package csvio

import (
	"fmt"
	"os"

	"rsa/internal/rsa"
)

// WriteEdgeSliceHoles writes the per-round "which slices are occupied on
// which link" snapshot: one header row of edge labels, one row per slice
// position (up to nbSlicesInOutput, regardless of a link's actual
// capacity), and a trailing count of demands newly routed this run.
func WriteEdgeSliceHoles(inst *rsa.Instance, nbSlicesInOutput int, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csvio: create %s: %w", path, err)
	}
	defer f.Close()

	w := newWriter(f)
	w.field(" Slice-Edge ")
	for i := range inst.Links {
		w.fieldf("e_%d", i+1)
	}
	w.newline()

	for s := 0; s < nbSlicesInOutput; s++ {
		w.fieldf("s_%d", s+1)
		for i := range inst.Links {
			link := &inst.Links[i]
			if s < link.NbSlices() && link.Spectrum[s].IsUsed() {
				w.field("1")
			} else {
				w.field("0")
			}
		}
		w.newline()
	}

	w.field("Nb_New_Demands:")
	w.raw(fmt.Sprintf("%d", inst.NbRoutedDemands()-inst.NumInitialDemands))
	w.newline()

	return w.flush()
}

// WriteDemandEdgeSlices writes the per-round assignment snapshot: one
// header column per routed demand, one row per link marking "1" where
// that demand crosses it (a literal space otherwise), and a trailing row
// of each routed demand's slice allocation.
func WriteDemandEdgeSlices(inst *rsa.Instance, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csvio: create %s: %w", path, err)
	}
	defer f.Close()

	w := newWriter(f)
	w.field("edge_slice_demand")
	for i := range inst.Demands {
		d := &inst.Demands[i]
		if d.Routed {
			w.fieldf("k_%d= %s", d.ID+1, d.String())
		}
	}
	w.newline()

	for i := range inst.Links {
		link := &inst.Links[i]
		w.field(link.String())
		for j := range inst.Demands {
			d := &inst.Demands[j]
			if !d.Routed {
				continue
			}
			if link.Contains(d.ID) {
				w.field("1")
			} else {
				w.field(" ")
			}
		}
		w.newline()
	}

	w.field(" slice allocation ")
	for i := range inst.Demands {
		d := &inst.Demands[i]
		if d.Routed {
			w.fieldf("%d", d.SliceAllocation+1)
		}
	}
	w.newline()

	return w.flush()
}

// AppendResultsLog appends one summary row to the shared results log:
// the round label, the number of demands routed this run, and the total
// number routed so far.
func AppendResultsLog(path, label string, nbNewlyRouted, nbRoutedTotal int) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("csvio: open %s: %w", path, err)
	}
	defer f.Close()

	w := newWriter(f)
	w.field(label)
	w.fieldf("%d", nbNewlyRouted)
	w.raw(fmt.Sprintf("%d", nbRoutedTotal))
	w.newline()

	return w.flush()
}
