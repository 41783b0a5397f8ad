// Package report builds the optional human-readable summary workbook for
// a routing run: one row per batch processed, plus a final snapshot of
// spectrum utilization across the physical topology. It is additive to
// the required CSV outputs, never a replacement for them.
package report

import (
	"bytes"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"rsa/internal/rsa"
)

// BatchSummary records the outcome of one routing round (one MILP batch,
// or one subgradient demand) for the summary sheet.
type BatchSummary struct {
	Round      int
	Method     string
	Attempted  int
	Routed     int
	Abandoned  int
	DurationMs int64
	Infeasible bool
}

// Data is everything the workbook needs: the final instance state plus
// the sequence of batch outcomes observed while routing it.
type Data struct {
	Tag     string
	Batches []BatchSummary
	Final   *rsa.Instance
}

// Generator renders Data into an xlsx workbook.
type Generator struct{}

// NewGenerator constructs a report Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate builds the workbook and returns its bytes.
func (g *Generator) Generate(data *Data) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("report: new style: %w", err)
	}

	g.writeBatchesSheet(f, data, headerStyle)
	g.writeLinksSheet(f, data, headerStyle)
	g.writeDemandsSheet(f, data, headerStyle)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("report: write: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile generates the workbook and writes it to path.
func (g *Generator) WriteFile(data *Data, path string) error {
	b, err := g.Generate(data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func (g *Generator) writeBatchesSheet(f *excelize.File, data *Data, headerStyle int) {
	sheetName := "Batches"
	f.NewSheet(sheetName)

	f.SetCellValue(sheetName, cellAddr("A", 1), fmt.Sprintf("Routing run: %s", data.Tag))
	f.MergeCell(sheetName, cellAddr("A", 1), cellAddr("F", 1))

	headers := []string{"Round", "Method", "Attempted", "Routed", "Abandoned", "Duration (ms)"}
	headerRow := 3
	for i, h := range headers {
		f.SetCellValue(sheetName, cellAddr(string(rune('A'+i)), headerRow), h)
	}
	f.SetCellStyle(sheetName, cellAddr("A", headerRow), cellAddr("F", headerRow), headerStyle)

	totalRouted, totalAbandoned := 0, 0
	for i, b := range data.Batches {
		row := headerRow + 1 + i
		f.SetCellValue(sheetName, cellAddr("A", row), b.Round)
		f.SetCellValue(sheetName, cellAddr("B", row), b.Method)
		f.SetCellValue(sheetName, cellAddr("C", row), b.Attempted)
		f.SetCellValue(sheetName, cellAddr("D", row), b.Routed)
		f.SetCellValue(sheetName, cellAddr("E", row), b.Abandoned)
		f.SetCellValue(sheetName, cellAddr("F", row), b.DurationMs)
		totalRouted += b.Routed
		totalAbandoned += b.Abandoned
	}

	totalsRow := headerRow + len(data.Batches) + 2
	f.SetCellValue(sheetName, cellAddr("A", totalsRow), "Total routed")
	f.SetCellValue(sheetName, cellAddr("B", totalsRow), totalRouted)
	f.SetCellValue(sheetName, cellAddr("A", totalsRow+1), "Total abandoned")
	f.SetCellValue(sheetName, cellAddr("B", totalsRow+1), totalAbandoned)

	f.SetColWidth(sheetName, "A", "F", 16)
}

func (g *Generator) writeLinksSheet(f *excelize.File, data *Data, headerStyle int) {
	sheetName := "Spectrum Utilization"
	f.NewSheet(sheetName)

	headers := []string{"Link", "Slices", "Used", "Utilization", "Max Used Position"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cellAddr(string(rune('A'+i)), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", "E1", headerStyle)

	if data.Final == nil {
		return
	}

	for i := range data.Final.Links {
		link := &data.Final.Links[i]
		row := i + 2
		used := occupiedCount(link)
		utilization := 0.0
		if link.NbSlices() > 0 {
			utilization = float64(used) / float64(link.NbSlices())
		}
		f.SetCellValue(sheetName, cellAddr("A", row), link.String())
		f.SetCellValue(sheetName, cellAddr("B", row), link.NbSlices())
		f.SetCellValue(sheetName, cellAddr("C", row), used)
		f.SetCellValue(sheetName, cellAddr("D", row), utilization)
		f.SetCellValue(sheetName, cellAddr("E", row), link.MaxUsedSlicePosition())
	}

	f.SetColWidth(sheetName, "A", "E", 18)
}

func (g *Generator) writeDemandsSheet(f *excelize.File, data *Data, headerStyle int) {
	sheetName := "Demands"
	f.NewSheet(sheetName)

	headers := []string{"ID", "Source", "Target", "Load", "Routed", "Slice Allocation"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cellAddr(string(rune('A'+i)), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", "F1", headerStyle)

	if data.Final == nil {
		return
	}

	for i, d := range data.Final.Demands {
		row := i + 2
		f.SetCellValue(sheetName, cellAddr("A", row), d.ID)
		f.SetCellValue(sheetName, cellAddr("B", row), d.Source+1)
		f.SetCellValue(sheetName, cellAddr("C", row), d.Target+1)
		f.SetCellValue(sheetName, cellAddr("D", row), d.Load)
		f.SetCellValue(sheetName, cellAddr("E", row), d.Routed)
		f.SetCellValue(sheetName, cellAddr("F", row), d.SliceAllocation)
	}

	f.SetColWidth(sheetName, "A", "F", 14)
}

func occupiedCount(link *rsa.PhysicalLink) int {
	count := 0
	for _, s := range link.Spectrum {
		if s.IsUsed() {
			count++
		}
	}
	return count
}

func cellAddr(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
