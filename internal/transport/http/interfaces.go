package http

import (
	"context"

	"insightreport/internal/services"
	"insightreport/pkg/contracts/domain"
)

// ReportService is the report workflow used by ReportHandler
type ReportService interface {
	Analyze(ctx context.Context, key string, uploads []services.Upload, cpmRaw string) (*domain.Dashboard, error)
	Share(ctx context.Context, req services.ShareRequest) (*services.ShareResult, error)
	Open(ctx context.Context, id, password string) (*services.SharedReport, error)
	List(ctx context.Context) ([]services.ReportView, error)
	Delete(ctx context.Context, id, password string) error
	Export(ctx context.Context, id, password, format, series string) (*services.ExportResult, error)
}

// HealthChecker reports liveness, readiness and build information
type HealthChecker interface {
	LivenessCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
