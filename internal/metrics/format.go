package metrics

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// NotAvailable is returned when a rate cannot be computed.
const NotAvailable = "N/A"

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatSize renders a byte count in the largest binary unit that keeps the value
// at or above 1, with at most two fractional digits: 1536 -> "1.5 KB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}

	value := float64(bytes)
	order := 0
	for value >= 1024 && order < len(sizeUnits)-1 {
		value /= 1024
		order++
	}

	return humanize.FtoaWithDigits(math.Round(value*100)/100, 2) + " " + sizeUnits[order]
}

// Throughput returns megabytes per second for bytes moved in ms milliseconds.
func Throughput(bytes, ms int64) string {
	if ms <= 0 {
		return NotAvailable
	}

	megabytes := float64(bytes) / 1024 / 1024
	seconds := float64(ms) / 1000

	return fmt.Sprintf("%.2f MB/s", megabytes/seconds)
}

// FormatMs renders a millisecond duration with thousands separators.
func FormatMs(ms int64) string {
	return humanize.Comma(ms) + " ms"
}
