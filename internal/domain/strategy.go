package domain

import "strings"

// Strategy selects how an upload reaches object storage.
type Strategy string

const (
	// StrategyPresign fetches a presigned URL first and PUTs the file to storage directly.
	StrategyPresign Strategy = "presign"
	// StrategyDirect POSTs the file to a function that writes it to storage.
	StrategyDirect Strategy = "direct"
)

var strategyLabels = map[Strategy]string{
	StrategyPresign: "Presigned URL",
	StrategyDirect:  "Direct Upload",
}

// ParseStrategy returns the strategy for a form value (case-insensitive).
// Absent or unrecognized values fall back to StrategyPresign.
func ParseStrategy(value string) Strategy {
	switch Strategy(strings.ToLower(strings.TrimSpace(value))) {
	case StrategyDirect:
		return StrategyDirect
	default:
		return StrategyPresign
	}
}

// Label returns a human-readable name for the strategy.
func (s Strategy) Label() string {
	if label, ok := strategyLabels[s]; ok {
		return label
	}

	return string(s)
}

func (s Strategy) String() string {
	return string(s)
}
