// internal/export/json.go
package export

import (
	"context"
	"encoding/json"
	"time"

	"clinkerplan/pkg/domain"
)

// JSONExporter выгрузка плана в JSON
type JSONExporter struct {
	baseExporter
}

// NewJSONExporter создаёт новый экспортёр
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Format возвращает формат экспортёра
func (g *JSONExporter) Format() Format {
	return FormatJSON
}

// jsonDocument конверт вокруг решённого плана
type jsonDocument struct {
	Metadata jsonMetadata      `json:"metadata"`
	Run      *domain.SolvedRun `json:"run"`
}

type jsonMetadata struct {
	GeneratedAt string `json:"generated_at"`
	Format      string `json:"format"`
	Version     string `json:"version"`
}

// Export сериализует план с конвертом метаданных
func (g *JSONExporter) Export(ctx context.Context, run *domain.SolvedRun) ([]byte, error) {
	if err := validateRun(run); err != nil {
		return nil, err
	}

	doc := jsonDocument{
		Metadata: jsonMetadata{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			Format:      string(FormatJSON),
			Version:     "1.0",
		},
		Run: run,
	}

	return json.MarshalIndent(doc, "", "  ")
}
