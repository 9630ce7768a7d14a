package domain

// CostLine is one formatted row of a cost breakdown.
type CostLine struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

// StageLine is one formatted stage timing.
type StageLine struct {
	Stage   string `json:"stage"`
	Elapsed string `json:"elapsed"`
}

// UploadReport is an UploadOutcome prepared for display.
type UploadReport struct {
	Outcome       *UploadOutcome `json:"outcome"`
	StrategyLabel string         `json:"strategyLabel"`
	FileSize      string         `json:"fileSize"`
	TotalElapsed  string         `json:"totalElapsed"`
	Throughput    string         `json:"throughput"`
	Stages        []StageLine    `json:"stageTimings"`
	Costs         []CostLine     `json:"costs"`
	TotalCost     string         `json:"totalCost"`
}
