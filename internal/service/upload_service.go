// internal/service/upload_service.go
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sirjoon/azure-s3-uploader/internal/cost"
	"github.com/sirjoon/azure-s3-uploader/internal/domain"
	"github.com/sirjoon/azure-s3-uploader/internal/metrics"
)

// Relayer sends one upload upstream.
type Relayer interface {
	Relay(ctx context.Context, upload domain.UploadRequest) (*domain.UploadOutcome, error)
}

type UploadService struct {
	relay Relayer
}

func NewUploadService(relay Relayer) *UploadService {
	return &UploadService{relay: relay}
}

// Upload relays the file and prepares the outcome for display.
func (s *UploadService) Upload(ctx context.Context, upload domain.UploadRequest) (*domain.UploadReport, error) {
	outcome, err := s.relay.Relay(ctx, upload)
	if err != nil {
		return nil, fmt.Errorf("%s upload failed: %w", upload.Strategy, err)
	}

	log.Info().
		Str("strategy", string(outcome.Strategy)).
		Str("key", outcome.ObjectKey).
		Str("file", outcome.FileName).
		Int64("size", outcome.FileSizeBytes).
		Int64("elapsed_ms", outcome.TotalElapsedMs).
		Str("cost", outcome.Cost.Total.StringFixed(8)).
		Msg("upload complete")

	return BuildReport(outcome), nil
}

// BuildReport formats an outcome's sizes, timings and costs.
func BuildReport(outcome *domain.UploadOutcome) *domain.UploadReport {
	report := &domain.UploadReport{
		Outcome:       outcome,
		StrategyLabel: outcome.Strategy.Label(),
		FileSize:      metrics.FormatSize(outcome.FileSizeBytes),
		TotalElapsed:  metrics.FormatMs(outcome.TotalElapsedMs),
		Throughput:    metrics.Throughput(outcome.FileSizeBytes, outcome.TotalElapsedMs),
		TotalCost:     cost.Format(outcome.Cost.Total),
	}

	for _, stage := range outcome.Stages {
		report.Stages = append(report.Stages, domain.StageLine{
			Stage:   stageLabels[stage.Stage],
			Elapsed: metrics.FormatMs(stage.ElapsedMs),
		})
	}

	report.Costs = []domain.CostLine{
		{Label: "API Gateway", Amount: cost.Format(outcome.Cost.APIGateway)},
		{Label: "Lambda compute", Amount: cost.Format(outcome.Cost.Compute)},
		{Label: "S3 write", Amount: cost.Format(outcome.Cost.StorageWrite)},
		{Label: "Data transfer", Amount: cost.Format(outcome.Cost.DataTransfer)},
	}

	return report
}

var stageLabels = map[string]string{
	domain.StagePresign:      "Get presigned URL",
	domain.StageStoragePut:   "PUT to S3",
	domain.StageDirectUpload: "Upload via Lambda",
}
