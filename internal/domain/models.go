// internal/domain/models.go
package domain

import "github.com/shopspring/decimal"

const (
	// ContentTypePDF is sent with every upstream write.
	ContentTypePDF = "application/pdf"

	// UnknownObjectKey stands in when the direct-upload response names no key.
	UnknownObjectKey = "unknown"

	// DirectUploadLimitBytes is the request payload ceiling of the direct-upload
	// function. Larger files must use the presigned strategy.
	DirectUploadLimitBytes = int64(6 * 1024 * 1024)
)

// Stage names reported on an UploadOutcome and carried by upstream errors.
const (
	StagePresign      = "presign"
	StageStoragePut   = "storage-put"
	StageDirectUpload = "direct-upload"
)

// UploadRequest is one file to relay, built per incoming request.
type UploadRequest struct {
	FileBytes []byte
	FileName  string
	Strategy  Strategy
}

// PresignEnvelope is the outer response of the presign endpoint. Body holds a
// serialized PresignGrant.
type PresignEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// PresignGrant is a time-limited URL that accepts one object write.
type PresignGrant struct {
	UploadURL        string `json:"url"`
	ObjectKey        string `json:"key"`
	ExpiresInSeconds int    `json:"expiresIn"`
}

// DirectUploadResult is returned by the direct-upload endpoint.
type DirectUploadResult struct {
	Success   bool   `json:"success"`
	ObjectKey string `json:"key"`
	Bucket    string `json:"bucket"`
	SizeBytes int64  `json:"size"`
	URL       string `json:"url"`
}

// CostBreakdown is an estimated per-upload cost. Total is always the exact sum of
// the four component fields.
type CostBreakdown struct {
	APIGateway        decimal.Decimal `json:"apiGatewayCost"`
	Compute           decimal.Decimal `json:"computeCost"`
	StorageWrite      decimal.Decimal `json:"storageWriteCost"`
	DataTransfer      decimal.Decimal `json:"dataTransferCost"`
	Total             decimal.Decimal `json:"totalCost"`
	ComputeDurationMs decimal.Decimal `json:"computeDurationMs"`
}

// StageTiming is the wall-clock time spent on one outbound call.
type StageTiming struct {
	Stage     string `json:"stage"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// UploadOutcome is the result of one relayed upload. Exactly one of Presign and
// Direct is set, matching Strategy.
type UploadOutcome struct {
	Strategy       Strategy            `json:"strategy"`
	ObjectKey      string              `json:"objectKey"`
	FileName       string              `json:"fileName"`
	FileSizeBytes  int64               `json:"fileSizeBytes"`
	TotalElapsedMs int64               `json:"totalElapsedMs"`
	Stages         []StageTiming       `json:"stages"`
	Cost           CostBreakdown       `json:"cost"`
	Presign        *PresignGrant       `json:"presign,omitempty"`
	Direct         *DirectUploadResult `json:"direct,omitempty"`
}

// Stage returns the timing recorded for the named stage.
func (o *UploadOutcome) Stage(name string) (StageTiming, bool) {
	for _, s := range o.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return StageTiming{}, false
}
