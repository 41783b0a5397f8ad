package csvio

import (
	"fmt"
	"strconv"
	"strings"

	"rsa/internal/apperr"
	"rsa/internal/rsa"
)

// LoadTopology populates inst.Links and inst.NumNodes from a link file.
// Column layout: id;source;target;length;nbSlices;cost. The first row is
// a header and is skipped; node/link ids on disk are 1-based.
func LoadTopology(inst *rsa.Instance, path string) error {
	rows, err := readRows(path)
	if err != nil {
		return err
	}
	maxNode := -1
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) < 6 {
			continue
		}
		id, err := atoiMinusOne(row[0])
		if err != nil {
			return apperr.Wrap(err, apperr.CodeIOFailed, "invalid link id").WithDetails("row", i)
		}
		source, err := atoiMinusOne(row[1])
		if err != nil {
			return apperr.Wrap(err, apperr.CodeIOFailed, "invalid link source").WithDetails("row", i)
		}
		target, err := atoiMinusOne(row[2])
		if err != nil {
			return apperr.Wrap(err, apperr.CodeIOFailed, "invalid link target").WithDetails("row", i)
		}
		length, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil {
			return apperr.Wrap(err, apperr.CodeIOFailed, "invalid link length").WithDetails("row", i)
		}
		nbSlices, err := strconv.Atoi(strings.TrimSpace(row[4]))
		if err != nil {
			return apperr.Wrap(err, apperr.CodeIOFailed, "invalid link slice count").WithDetails("row", i)
		}
		cost, err := strconv.ParseFloat(strings.TrimSpace(row[5]), 64)
		if err != nil {
			return apperr.Wrap(err, apperr.CodeIOFailed, "invalid link cost").WithDetails("row", i)
		}

		inst.Links = append(inst.Links, rsa.NewPhysicalLink(id, source, target, length, cost, nbSlices))
		if source > maxNode {
			maxNode = source
		}
		if target > maxNode {
			maxNode = target
		}
	}
	inst.NumNodes = maxNode + 1
	return nil
}

// LoadDemands populates inst.Demands from a demand file. Column layout:
// id;source;target;load;maxLength.
func LoadDemands(inst *rsa.Instance, path string) error {
	rows, err := readRows(path)
	if err != nil {
		return err
	}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) < 5 {
			continue
		}
		id, err := atoiMinusOne(row[0])
		if err != nil {
			return apperr.Wrap(err, apperr.CodeIOFailed, "invalid demand id").WithDetails("row", i)
		}
		source, err := atoiMinusOne(row[1])
		if err != nil {
			return apperr.Wrap(err, apperr.CodeIOFailed, "invalid demand source").WithDetails("row", i)
		}
		target, err := atoiMinusOne(row[2])
		if err != nil {
			return apperr.Wrap(err, apperr.CodeIOFailed, "invalid demand target").WithDetails("row", i)
		}
		load, err := strconv.Atoi(strings.TrimSpace(row[3]))
		if err != nil {
			return apperr.Wrap(err, apperr.CodeIOFailed, "invalid demand load").WithDetails("row", i)
		}
		maxLength, err := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
		if err != nil {
			return apperr.Wrap(err, apperr.CodeIOFailed, "invalid demand max length").WithDetails("row", i)
		}
		if source == target {
			return apperr.NewWithField(apperr.CodeIOFailed, "demand source and target must differ", "source").WithDetails("row", i)
		}

		inst.Demands = append(inst.Demands, rsa.NewDemand(id, source, target, load, maxLength))
	}
	return nil
}

// LoadOnlineDemands appends the demands found in an online-demand file to
// inst.Demands, offsetting their ids by the number of already-routed
// demands, and returns how many were appended.
func LoadOnlineDemands(inst *rsa.Instance, path string) (int, error) {
	rows, err := readRows(path)
	if err != nil {
		return 0, err
	}
	offset := inst.NbRoutedDemands()
	appended := 0
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) < 5 {
			continue
		}
		rawID, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			return appended, apperr.Wrap(err, apperr.CodeIOFailed, "invalid online demand id").WithDetails("row", i)
		}
		id := rawID - 1 + offset
		source, err := atoiMinusOne(row[1])
		if err != nil {
			return appended, apperr.Wrap(err, apperr.CodeIOFailed, "invalid online demand source").WithDetails("row", i)
		}
		target, err := atoiMinusOne(row[2])
		if err != nil {
			return appended, apperr.Wrap(err, apperr.CodeIOFailed, "invalid online demand target").WithDetails("row", i)
		}
		load, err := strconv.Atoi(strings.TrimSpace(row[3]))
		if err != nil {
			return appended, apperr.Wrap(err, apperr.CodeIOFailed, "invalid online demand load").WithDetails("row", i)
		}
		maxLength, err := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
		if err != nil {
			return appended, apperr.Wrap(err, apperr.CodeIOFailed, "invalid online demand max length").WithDetails("row", i)
		}
		if source == target {
			return appended, apperr.NewWithField(apperr.CodeIOFailed, "demand source and target must differ", "source").WithDetails("row", i)
		}

		inst.Demands = append(inst.Demands, rsa.NewDemand(id, source, target, load, maxLength))
		appended++
	}
	return appended, nil
}

// LoadAssignment replays a previously written assignment file against
// inst: it checks every demand header against the demand pool already
// loaded, then marks each demand routed and commits its slice window on
// every edge the file records as "1". A demand header that doesn't match
// the demand pool is a consistency violation, not a structural one: it
// is collected into the returned ValidationErrors as a warning and its
// column is skipped rather than aborting the whole file, mirroring
// Instance.cpp's readDemandAssignment, which never aborts on a mismatch.
// Malformed rows (unparsable ids, truncated tuples) remain hard errors.
func LoadAssignment(inst *rsa.Instance, path string) (*apperr.ValidationErrors, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.New(apperr.CodeIOFailed, "assignment file is empty")
	}

	validation := apperr.NewValidationErrors()

	header := rows[0]
	// demandCols[col] holds the demand id backing that column, or -1 if
	// the column's slot was deemed untrusted and should be skipped.
	demandCols := make([]int, 0, len(header)-2)
	for col := 1; col < len(header)-1; col++ {
		cell := header[col]
		idStr := betweenLast(cell, "_", "=")
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.CodeIOFailed, "invalid assignment header id").WithDetails("col", col)
		}
		id--
		demandStr := betweenLast(cell, "(", ")")
		parts := strings.Split(demandStr, ",")
		if len(parts) != 3 {
			return nil, apperr.NewWithField(apperr.CodeIOFailed, "malformed assignment header demand tuple", "header").WithDetails("col", col)
		}
		source, err1 := atoiMinusOne(parts[0])
		target, err2 := atoiMinusOne(parts[1])
		load, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, apperr.NewWithField(apperr.CodeIOFailed, "malformed assignment header demand tuple", "header").WithDetails("col", col)
		}

		d := inst.DemandByID(id)
		switch {
		case d == nil:
			validation.AddWarning(apperr.CodeFlowImbalance, fmt.Sprintf("assignment file references unknown demand %d, slot not trusted", id))
			demandCols = append(demandCols, -1)
		case !d.Matches(source, target, load):
			validation.AddWarning(apperr.CodeFlowImbalance, fmt.Sprintf("assignment file demand %d does not match the demand file, slot not trusted", id))
			demandCols = append(demandCols, -1)
		default:
			demandCols = append(demandCols, id)
		}
	}

	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if strings.Contains(row[0], "slice allocation") {
			for col, id := range demandCols {
				if id < 0 {
					continue
				}
				sliceStr := strings.TrimSpace(row[col+1])
				maxSlice, err := strconv.Atoi(sliceStr)
				if err != nil {
					return validation, apperr.Wrap(err, apperr.CodeIOFailed, "invalid slice allocation value").WithDetails("demandId", id)
				}
				maxSlice--

				d := inst.DemandByID(id)
				d.Routed = true
				d.SliceAllocation = maxSlice

				for e := 0; e < len(inst.Links); e++ {
					edgeRow := rows[e+1]
					if col+1 >= len(edgeRow) {
						continue
					}
					if strings.TrimSpace(edgeRow[col+1]) == "1" {
						inst.Links[e].AssignSlices(d.ID, d.Load, maxSlice)
					}
				}
			}
		}
	}

	return validation, nil
}

func atoiMinusOne(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("atoi: %w", err)
	}
	return v - 1, nil
}
