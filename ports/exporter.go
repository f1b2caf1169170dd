package ports

import (
	"context"

	"gomaic/domain/scan"
)

// ReportWriter persists a finished scan report for downstream tabulation.
type ReportWriter interface {
	Write(ctx context.Context, report *scan.Report, path string) error
}
