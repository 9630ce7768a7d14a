// Package cost estimates what a single upload costs on the serverless path it takes.
// The figures are a model, not a bill: rates are fixed and all arithmetic is
// fixed-point so the sum shown to 8 decimal places never drifts.
package cost

import (
	"github.com/shopspring/decimal"

	"github.com/sirjoon/azure-s3-uploader/internal/domain"
)

var (
	// GatewayRequestRate is charged per API gateway request.
	GatewayRequestRate = decimal.RequireFromString("0.0000035")
	// InvocationRate is charged per function invocation.
	InvocationRate = decimal.RequireFromString("0.0000002")
	// ComputeRatePerMs is charged per millisecond of function time at the fixed memory tier.
	ComputeRatePerMs = decimal.RequireFromString("0.0000000167")
	// StorageWriteRate is charged per object write.
	StorageWriteRate = decimal.RequireFromString("0.000005")
)

var (
	presignDurationMs    = decimal.NewFromInt(100)
	directMinDurationMs  = decimal.NewFromInt(500)
	directBytesPerMs     = decimal.NewFromInt(10000)
	displayDecimalPlaces = int32(8)
)

// Estimate returns the cost breakdown for uploading fileSizeBytes with strategy.
func Estimate(strategy domain.Strategy, fileSizeBytes int64) domain.CostBreakdown {
	if fileSizeBytes < 0 {
		fileSizeBytes = 0
	}

	// 1. Function duration. The presign function only signs a URL; the direct
	// function streams the payload, so its time grows with size above a 500 ms floor.
	duration := presignDurationMs
	if strategy == domain.StrategyDirect {
		duration = decimal.Max(directMinDurationMs, decimal.NewFromInt(fileSizeBytes).Div(directBytesPerMs))
	}

	// 2. Compute = invocation + duration × rate
	compute := InvocationRate.Add(ComputeRatePerMs.Mul(duration))

	// 3. Data transfer stays in-region for both strategies.
	breakdown := domain.CostBreakdown{
		APIGateway:        GatewayRequestRate,
		Compute:           compute,
		StorageWrite:      StorageWriteRate,
		DataTransfer:      decimal.Zero,
		ComputeDurationMs: duration,
	}
	breakdown.Total = Sum(breakdown)

	return breakdown
}

// Sum adds the component fields of b.
func Sum(b domain.CostBreakdown) decimal.Decimal {
	return decimal.Sum(b.APIGateway, b.Compute, b.StorageWrite, b.DataTransfer)
}

// Format renders an amount the way results are displayed.
func Format(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(displayDecimalPlaces)
}
