// internal/export/export.go
package export

import (
	"context"
	"fmt"

	"clinkerplan/pkg/domain"
)

// Format формат выгрузки плана
type Format string

const (
	FormatExcel Format = "excel"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// Exporter интерфейс выгрузки решённого плана
type Exporter interface {
	Export(ctx context.Context, run *domain.SolvedRun) ([]byte, error)
	Format() Format
}

// ForFormat возвращает экспортёр для формата
func ForFormat(format Format) (Exporter, error) {
	switch format {
	case FormatExcel:
		return NewExcelExporter(), nil
	case FormatCSV:
		return NewCSVExporter(), nil
	case FormatJSON:
		return NewJSONExporter(), nil
	default:
		return nil, fmt.Errorf("unknown export format: %q", format)
	}
}

// baseExporter базовые утилиты для экспортёров
type baseExporter struct{}

// FormatFloat форматирует число с заданной точностью
func (b *baseExporter) FormatFloat(v float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, v)
}

// FormatPercent форматирует процент
func (b *baseExporter) FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func validateRun(run *domain.SolvedRun) error {
	if run == nil {
		return fmt.Errorf("nil run")
	}
	return nil
}

// inventorySheetName лист остатков переименовывается, когда заполнены
// сценарные строки
func inventorySheetName(run *domain.SolvedRun) string {
	for _, row := range run.InventoryRows {
		if row.Scenario != "" {
			return "Inventory (Scenarios)"
		}
	}
	return "Inventory"
}
