package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirjoon/azure-s3-uploader/internal/cost"
	"github.com/sirjoon/azure-s3-uploader/internal/domain"
	"github.com/sirjoon/azure-s3-uploader/internal/relay"
)

type stubRelay struct {
	outcome *domain.UploadOutcome
	err     error
	got     domain.UploadRequest
}

func (s *stubRelay) Relay(_ context.Context, upload domain.UploadRequest) (*domain.UploadOutcome, error) {
	s.got = upload
	return s.outcome, s.err
}

func TestUploadService_Upload(t *testing.T) {
	stub := &stubRelay{outcome: &domain.UploadOutcome{
		Strategy:       domain.StrategyPresign,
		ObjectKey:      "uploads/k1.pdf",
		FileName:       "report.pdf",
		FileSizeBytes:  1536,
		TotalElapsedMs: 1250,
		Stages: []domain.StageTiming{
			{Stage: domain.StagePresign, ElapsedMs: 250},
			{Stage: domain.StageStoragePut, ElapsedMs: 1000},
		},
		Cost: cost.Estimate(domain.StrategyPresign, 1536),
	}}

	svc := NewUploadService(stub)
	report, err := svc.Upload(context.Background(), domain.UploadRequest{
		FileBytes: []byte("%PDF"),
		FileName:  "report.pdf",
		Strategy:  domain.StrategyPresign,
	})
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", stub.got.FileName)
	assert.Equal(t, "Presigned URL", report.StrategyLabel)
	assert.Equal(t, "1.5 KB", report.FileSize)
	assert.Equal(t, "1,250 ms", report.TotalElapsed)
	assert.Equal(t, "$0.00001037", report.TotalCost)
	require.Len(t, report.Stages, 2)
	assert.Equal(t, "Get presigned URL", report.Stages[0].Stage)
	assert.Equal(t, "1,000 ms", report.Stages[1].Elapsed)
	require.Len(t, report.Costs, 4)
	assert.Equal(t, "$0.00000000", report.Costs[3].Amount)
}

func TestUploadService_UploadError(t *testing.T) {
	upstreamErr := &relay.UpstreamError{Stage: domain.StageStoragePut, Status: 403}
	svc := NewUploadService(&stubRelay{err: upstreamErr})

	report, err := svc.Upload(context.Background(), domain.UploadRequest{Strategy: domain.StrategyPresign})
	assert.Nil(t, report)

	var got *relay.UpstreamError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, 403, got.Status)
	assert.Contains(t, err.Error(), "presign upload failed")
}

func TestBuildReport_ZeroElapsed(t *testing.T) {
	report := BuildReport(&domain.UploadOutcome{Strategy: domain.StrategyDirect, FileSizeBytes: 10})
	assert.Equal(t, "N/A", report.Throughput)
	assert.Equal(t, "Direct Upload", report.StrategyLabel)
}
