package cost

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/sirjoon/azure-s3-uploader/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEstimate_TotalIsSumOfComponents(t *testing.T) {
	sizes := []int64{0, 1, 1023, 999_999, 4_999_999, 5_000_000, 5_000_001, 6 * 1024 * 1024, 123_456_789}

	for _, strategy := range []domain.Strategy{domain.StrategyPresign, domain.StrategyDirect} {
		for _, size := range sizes {
			b := Estimate(strategy, size)
			want := b.APIGateway.Add(b.Compute).Add(b.StorageWrite).Add(b.DataTransfer)
			assert.Truef(t, want.Equal(b.Total), "%s/%d: total %s != sum %s", strategy, size, b.Total, want)
			assert.Equal(t, want.StringFixed(8), b.Total.StringFixed(8))
		}
	}
}

func TestEstimate_Presign(t *testing.T) {
	b := Estimate(domain.StrategyPresign, 5_000_000)

	assert.True(t, dec("0.0000035").Equal(b.APIGateway))
	assert.True(t, dec("0.00000187").Equal(b.Compute), b.Compute.String())
	assert.True(t, dec("0.000005").Equal(b.StorageWrite))
	assert.True(t, b.DataTransfer.IsZero())
	assert.True(t, dec("100").Equal(b.ComputeDurationMs))
	assert.Equal(t, "0.00001037", b.Total.StringFixed(8))
}

func TestEstimate_DirectDuration(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		duration string
	}{
		{"empty file uses floor", 0, "500"},
		{"just under threshold uses floor", 4_999_999, "500"},
		{"exact threshold", 5_000_000, "500"},
		{"just over threshold", 5_000_001, "500.0001"},
		{"ten megabytes", 10_000_000, "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Estimate(domain.StrategyDirect, tt.size)
			assert.True(t, dec(tt.duration).Equal(b.ComputeDurationMs), b.ComputeDurationMs.String())
			assert.True(t, b.ComputeDurationMs.GreaterThanOrEqual(decimal.NewFromInt(500)))

			wantCompute := InvocationRate.Add(ComputeRatePerMs.Mul(dec(tt.duration)))
			assert.True(t, wantCompute.Equal(b.Compute))
		})
	}
}

func TestEstimate_DirectAmounts(t *testing.T) {
	b := Estimate(domain.StrategyDirect, 0)
	assert.True(t, dec("0.00000855").Equal(b.Compute), b.Compute.String())
	assert.Equal(t, "0.00001705", b.Total.StringFixed(8))

	b = Estimate(domain.StrategyDirect, 5_000_001)
	assert.True(t, dec("0.00000855000167").Equal(b.Compute), b.Compute.String())

	b = Estimate(domain.StrategyDirect, 10_000_000)
	assert.Equal(t, "0.00002540", b.Total.StringFixed(8))
}

func TestEstimate_NegativeSizeTreatedAsEmpty(t *testing.T) {
	assert.True(t, Estimate(domain.StrategyDirect, -10).Total.Equal(Estimate(domain.StrategyDirect, 0).Total))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$0.00001037", Format(Estimate(domain.StrategyPresign, 0).Total))
	assert.Equal(t, "$0.00000000", Format(decimal.Zero))
}
