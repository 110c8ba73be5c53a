// internal/export/csv.go
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"clinkerplan/pkg/domain"
)

// CSVExporter выгрузка плана в CSV
type CSVExporter struct {
	baseExporter
}

// NewCSVExporter создаёт новый экспортёр
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Format возвращает формат экспортёра
func (g *CSVExporter) Format() Format {
	return FormatCSV
}

// csvWriter обёртка для отслеживания ошибок
type csvWriter struct {
	w   *csv.Writer
	err error
}

func (cw *csvWriter) Write(record []string) {
	if cw.err != nil {
		return
	}
	cw.err = cw.w.Write(record)
}

func (cw *csvWriter) Flush() {
	if cw.err != nil {
		return
	}
	cw.w.Flush()
	cw.err = cw.w.Error()
}

func (cw *csvWriter) Error() error {
	return cw.err
}

// Export пишет единый CSV с секциями, разделёнными пустой строкой
func (g *CSVExporter) Export(ctx context.Context, run *domain.SolvedRun) ([]byte, error) {
	if err := validateRun(run); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	cw := &csvWriter{w: csv.NewWriter(&buf)}

	g.writeSummary(cw, run)
	g.writeProduction(cw, run)
	g.writeTransport(cw, run)
	g.writeInventory(cw, run)
	if len(run.SlackRows) > 0 {
		g.writeSlack(cw, run)
	}
	g.writeCosts(cw, run)

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("csv write error: %w", err)
	}

	return buf.Bytes(), nil
}

func (g *CSVExporter) writeSummary(w *csvWriter, run *domain.SolvedRun) {
	w.Write([]string{"Production Plan"})
	w.Write([]string{"Run ID", run.ID})
	w.Write([]string{"Optimization Type", string(run.OptimizationType)})
	w.Write([]string{"Feasibility Relaxation", strconv.FormatBool(run.FeasibilityRelax)})
	w.Write([]string{"Termination", string(run.Termination)})
	w.Write([]string{"Solver", run.Solver})
	w.Write([]string{"Objective Value", g.FormatFloat(run.ObjectiveValue, 4)})
	w.Write([]string{})
}

func (g *CSVExporter) writeProduction(w *csvWriter, run *domain.SolvedRun) {
	w.Write([]string{"Production"})
	w.Write([]string{"Plant", "Period", "Quantity"})
	for _, r := range run.ProductionRows {
		w.Write([]string{r.PlantID, r.Period, g.FormatFloat(r.Quantity, 4)})
	}
	w.Write([]string{})
}

func (g *CSVExporter) writeTransport(w *csvWriter, run *domain.SolvedRun) {
	w.Write([]string{"Transport"})
	w.Write([]string{"From", "To", "Mode", "Period", "Quantity", "Trips"})
	for _, r := range run.TransportRows {
		w.Write([]string{
			r.From, r.To, r.Mode, r.Period,
			g.FormatFloat(r.Quantity, 4),
			strconv.Itoa(r.Trips),
		})
	}
	w.Write([]string{})
}

func (g *CSVExporter) writeInventory(w *csvWriter, run *domain.SolvedRun) {
	w.Write([]string{inventorySheetName(run)})
	withScenario := false
	for _, r := range run.InventoryRows {
		if r.Scenario != "" {
			withScenario = true
			break
		}
	}
	if withScenario {
		w.Write([]string{"Scenario", "Plant", "Period", "Level"})
	} else {
		w.Write([]string{"Plant", "Period", "Level"})
	}
	for _, r := range run.InventoryRows {
		if withScenario {
			w.Write([]string{r.Scenario, r.PlantID, r.Period, g.FormatFloat(r.Level, 4)})
		} else {
			w.Write([]string{r.PlantID, r.Period, g.FormatFloat(r.Level, 4)})
		}
	}
	w.Write([]string{})
}

func (g *CSVExporter) writeSlack(w *csvWriter, run *domain.SolvedRun) {
	w.Write([]string{"Unmet Demand"})
	w.Write([]string{"Scenario", "Plant", "Period", "Quantity"})
	for _, r := range run.SlackRows {
		w.Write([]string{r.Scenario, r.PlantID, r.Period, g.FormatFloat(r.Quantity, 4)})
	}
	w.Write([]string{})
}

func (g *CSVExporter) writeCosts(w *csvWriter, run *domain.SolvedRun) {
	w.Write([]string{"Costs"})
	w.Write([]string{"Component", "Cost"})
	bd := run.CostBreakdown
	w.Write([]string{"Production", g.FormatFloat(bd.Production, 4)})
	w.Write([]string{"Transport", g.FormatFloat(bd.Transport, 4)})
	w.Write([]string{"Holding", g.FormatFloat(bd.Holding, 4)})
	if bd.Penalty > 0 {
		w.Write([]string{"Penalty", g.FormatFloat(bd.Penalty, 4)})
	}
	w.Write([]string{"Total", g.FormatFloat(bd.Total(), 4)})
}
