// internal/export/excel.go
package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"clinkerplan/pkg/domain"
)

// ExcelExporter выгрузка плана в Excel
type ExcelExporter struct {
	baseExporter
}

// NewExcelExporter создаёт новый экспортёр
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// Format возвращает формат экспортёра
func (g *ExcelExporter) Format() Format {
	return FormatExcel
}

// Export собирает Excel-книгу с листами Summary, Production, Transport,
// Inventory, Costs и Analytics
func (g *ExcelExporter) Export(ctx context.Context, run *domain.SolvedRun) ([]byte, error) {
	if err := validateRun(run); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	g.writeSummarySheet(f, run, headerStyle)
	g.writeProductionSheet(f, run, headerStyle)
	g.writeTransportSheet(f, run, headerStyle)
	g.writeInventorySheet(f, run, headerStyle)
	if len(run.SlackRows) > 0 {
		g.writeSlackSheet(f, run, headerStyle)
	}
	g.writeCostSheet(f, run, headerStyle)
	if run.Analytics != nil {
		g.writeAnalyticsSheet(f, run.Analytics, headerStyle)
	}

	// Удаляем дефолтный лист
	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (g *ExcelExporter) writeSummarySheet(f *excelize.File, run *domain.SolvedRun, headerStyle int) {
	sheetName := "Summary"
	f.NewSheet(sheetName)

	row := 1

	f.SetCellValue(sheetName, cellAddr("A", row), "Production Plan")
	f.MergeCell(sheetName, cellAddr("A", row), cellAddr("B", row))
	row += 2

	f.SetCellValue(sheetName, cellAddr("A", row), "Run Information")
	f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("B", row), headerStyle)
	row++

	pairs := []struct {
		label string
		value any
	}{
		{"Run ID", run.ID},
		{"Optimization Type", string(run.OptimizationType)},
		{"Feasibility Relaxation", run.FeasibilityRelax},
		{"Termination", string(run.Termination)},
		{"Solver", run.Solver},
		{"Runtime (s)", run.Runtime},
		{"Objective Value", run.ObjectiveValue},
		{"Periods", len(run.Periods)},
	}
	for _, p := range pairs {
		f.SetCellValue(sheetName, cellAddr("A", row), p.label)
		f.SetCellValue(sheetName, cellAddr("B", row), p.value)
		row++
	}

	if len(run.Scenarios) > 0 {
		row++
		f.SetCellValue(sheetName, cellAddr("A", row), "Scenarios")
		f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("B", row), headerStyle)
		row++

		for _, name := range run.Scenarios {
			f.SetCellValue(sheetName, cellAddr("A", row), name)
			f.SetCellValue(sheetName, cellAddr("B", row), run.ScenarioProbability(name))
			row++
		}
	}

	f.SetColWidth(sheetName, "A", "B", 24)
}

func (g *ExcelExporter) writeProductionSheet(f *excelize.File, run *domain.SolvedRun, headerStyle int) {
	sheetName := "Production"
	f.NewSheet(sheetName)

	headers := []string{"Plant", "Period", "Quantity"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cellAddr(string(rune('A'+i)), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", "C1", headerStyle)

	for i, r := range run.ProductionRows {
		row := i + 2
		f.SetCellValue(sheetName, cellAddr("A", row), r.PlantID)
		f.SetCellValue(sheetName, cellAddr("B", row), r.Period)
		f.SetCellValue(sheetName, cellAddr("C", row), r.Quantity)
	}

	f.SetColWidth(sheetName, "A", "C", 15)
}

func (g *ExcelExporter) writeTransportSheet(f *excelize.File, run *domain.SolvedRun, headerStyle int) {
	sheetName := "Transport"
	f.NewSheet(sheetName)

	headers := []string{"From", "To", "Mode", "Period", "Quantity", "Trips"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cellAddr(string(rune('A'+i)), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", "F1", headerStyle)

	for i, r := range run.TransportRows {
		row := i + 2
		f.SetCellValue(sheetName, cellAddr("A", row), r.From)
		f.SetCellValue(sheetName, cellAddr("B", row), r.To)
		f.SetCellValue(sheetName, cellAddr("C", row), r.Mode)
		f.SetCellValue(sheetName, cellAddr("D", row), r.Period)
		f.SetCellValue(sheetName, cellAddr("E", row), r.Quantity)
		f.SetCellValue(sheetName, cellAddr("F", row), r.Trips)
	}

	f.SetColWidth(sheetName, "A", "F", 15)
}

func (g *ExcelExporter) writeInventorySheet(f *excelize.File, run *domain.SolvedRun, headerStyle int) {
	sheetName := inventorySheetName(run)
	f.NewSheet(sheetName)

	withScenario := sheetName != "Inventory"

	headers := []string{"Plant", "Period", "Level"}
	if withScenario {
		headers = []string{"Scenario", "Plant", "Period", "Level"}
	}
	for i, h := range headers {
		f.SetCellValue(sheetName, cellAddr(string(rune('A'+i)), 1), h)
	}
	lastCol := string(rune('A' + len(headers) - 1))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle)

	for i, r := range run.InventoryRows {
		row := i + 2
		col := 0
		if withScenario {
			f.SetCellValue(sheetName, cellAddr("A", row), r.Scenario)
			col = 1
		}
		f.SetCellValue(sheetName, cellAddr(string(rune('A'+col)), row), r.PlantID)
		f.SetCellValue(sheetName, cellAddr(string(rune('B'+col)), row), r.Period)
		f.SetCellValue(sheetName, cellAddr(string(rune('C'+col)), row), r.Level)
	}

	f.SetColWidth(sheetName, "A", lastCol, 15)
}

func (g *ExcelExporter) writeSlackSheet(f *excelize.File, run *domain.SolvedRun, headerStyle int) {
	sheetName := "Unmet Demand"
	f.NewSheet(sheetName)

	headers := []string{"Scenario", "Plant", "Period", "Quantity"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cellAddr(string(rune('A'+i)), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", "D1", headerStyle)

	for i, r := range run.SlackRows {
		row := i + 2
		f.SetCellValue(sheetName, cellAddr("A", row), r.Scenario)
		f.SetCellValue(sheetName, cellAddr("B", row), r.PlantID)
		f.SetCellValue(sheetName, cellAddr("C", row), r.Period)
		f.SetCellValue(sheetName, cellAddr("D", row), r.Quantity)
	}

	f.SetColWidth(sheetName, "A", "D", 15)
}

func (g *ExcelExporter) writeCostSheet(f *excelize.File, run *domain.SolvedRun, headerStyle int) {
	sheetName := "Costs"
	f.NewSheet(sheetName)

	f.SetCellValue(sheetName, "A1", "Component")
	f.SetCellValue(sheetName, "B1", "Cost")
	f.SetCellStyle(sheetName, "A1", "B1", headerStyle)

	bd := run.CostBreakdown
	rows := []struct {
		label string
		value float64
	}{
		{"Production", bd.Production},
		{"Transport", bd.Transport},
		{"Holding", bd.Holding},
	}
	if bd.Penalty > 0 {
		rows = append(rows, struct {
			label string
			value float64
		}{"Penalty", bd.Penalty})
	}
	rows = append(rows, struct {
		label string
		value float64
	}{"Total", bd.Total()})

	for i, r := range rows {
		f.SetCellValue(sheetName, cellAddr("A", i+2), r.label)
		f.SetCellValue(sheetName, cellAddr("B", i+2), r.value)
	}

	f.SetColWidth(sheetName, "A", "B", 18)
}

func (g *ExcelExporter) writeAnalyticsSheet(f *excelize.File, a *domain.Analytics, headerStyle int) {
	sheetName := "Analytics"
	f.NewSheet(sheetName)

	row := 1

	if a.KPIs != nil {
		f.SetCellValue(sheetName, cellAddr("A", row), "KPIs")
		f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("B", row), headerStyle)
		row++

		kpis := []struct {
			label string
			value float64
		}{
			{"Total Cost", a.KPIs.TotalCost},
			{"Total Demand", a.KPIs.TotalDemand},
			{"Cost per Ton", a.KPIs.CostPerTon},
			{"Service Level (%)", a.KPIs.ServiceLevel},
			{"Average Inventory", a.KPIs.AverageInventory},
			{"Inventory Turns", a.KPIs.InventoryTurns},
			{"Average Buffer", a.KPIs.AverageBuffer},
		}
		for _, k := range kpis {
			f.SetCellValue(sheetName, cellAddr("A", row), k.label)
			f.SetCellValue(sheetName, cellAddr("B", row), k.value)
			row++
		}
		row++
	}

	if a.Resilience != nil {
		f.SetCellValue(sheetName, cellAddr("A", row), "Resilience")
		f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("B", row), headerStyle)
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Score")
		f.SetCellValue(sheetName, cellAddr("B", row), a.Resilience.Score)
		row++
		f.SetCellValue(sheetName, cellAddr("A", row), "Classification")
		f.SetCellValue(sheetName, cellAddr("B", row), string(a.Resilience.Classification))
		row++

		for _, alert := range a.Resilience.Alerts {
			f.SetCellValue(sheetName, cellAddr("A", row), "Alert")
			f.SetCellValue(sheetName, cellAddr("B", row), alert)
			row++
		}
		for _, rec := range a.Resilience.Recommendations {
			f.SetCellValue(sheetName, cellAddr("A", row), "Recommendation")
			f.SetCellValue(sheetName, cellAddr("B", row), rec)
			row++
		}
		row++
	}

	if a.Utilization != nil && len(a.Utilization.Production) > 0 {
		f.SetCellValue(sheetName, cellAddr("A", row), "Plant Utilization")
		f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("D", row), headerStyle)
		row++

		headers := []string{"Plant", "Produced", "Available", "Utilization (%)"}
		for i, h := range headers {
			f.SetCellValue(sheetName, cellAddr(string(rune('A'+i)), row), h)
		}
		row++

		for _, u := range a.Utilization.Production {
			f.SetCellValue(sheetName, cellAddr("A", row), u.PlantID)
			f.SetCellValue(sheetName, cellAddr("B", row), u.Produced)
			f.SetCellValue(sheetName, cellAddr("C", row), u.Available)
			f.SetCellValue(sheetName, cellAddr("D", row), u.Utilization)
			row++
		}
	}

	f.SetColWidth(sheetName, "A", "D", 20)
}

func cellAddr(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
