// Package relay forwards an uploaded file to object storage using one of two
// upstream strategies and measures how long each outbound call takes.
package relay

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/imroc/req/v3"
	"github.com/rs/zerolog/log"

	"github.com/sirjoon/azure-s3-uploader/internal/config"
	"github.com/sirjoon/azure-s3-uploader/internal/cost"
	"github.com/sirjoon/azure-s3-uploader/internal/domain"
)

const (
	HeaderAPIKey   = "x-api-key"
	HeaderFileName = "x-filename"

	userAgent = "azure-s3-uploader/1.0"
)

// Relay sends uploads to the configured upstream endpoints. It is safe for
// concurrent use; each call is independent.
type Relay struct {
	cfg    config.UpstreamConfig
	client *req.Client
	now    func() time.Time
}

// New creates a Relay for cfg. cfg.Timeout bounds each outbound call; zero leaves
// it to the transport. Retries are never attempted.
func New(cfg config.UpstreamConfig) *Relay {
	client := req.C().
		SetUserAgent(userAgent).
		SetCommonRetryCount(0).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Relay{
		cfg:    cfg,
		client: client,
		now:    time.Now,
	}
}

// Relay uploads the file with the requested strategy and returns the outcome with
// per-stage timings and an estimated cost. No network call is made when the
// credential or the payload is missing.
func (r *Relay) Relay(ctx context.Context, upload domain.UploadRequest) (*domain.UploadOutcome, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, ErrMissingAPIKey
	}
	if len(upload.FileBytes) == 0 {
		return nil, ErrEmptyPayload
	}

	var (
		outcome *domain.UploadOutcome
		err     error
	)
	switch upload.Strategy {
	case domain.StrategyDirect:
		outcome, err = r.relayDirect(ctx, upload)
	default:
		upload.Strategy = domain.StrategyPresign
		outcome, err = r.relayPresigned(ctx, upload)
	}
	if err != nil {
		return nil, err
	}

	outcome.Strategy = upload.Strategy
	outcome.FileSizeBytes = int64(len(upload.FileBytes))
	outcome.Cost = cost.Estimate(upload.Strategy, outcome.FileSizeBytes)
	for _, s := range outcome.Stages {
		outcome.TotalElapsedMs += s.ElapsedMs
	}

	log.Debug().
		Str("strategy", string(upload.Strategy)).
		Str("key", outcome.ObjectKey).
		Int64("size", outcome.FileSizeBytes).
		Int64("elapsed_ms", outcome.TotalElapsedMs).
		Msg("upload relayed")

	return outcome, nil
}

// relayPresigned fetches a presigned URL, then PUTs the file to it.
func (r *Relay) relayPresigned(ctx context.Context, upload domain.UploadRequest) (*domain.UploadOutcome, error) {
	// 1. Ask the presign endpoint for a grant
	start := r.now()
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader(HeaderAPIKey, r.cfg.APIKey).
		Get(r.cfg.PresignURL)
	presignMs := r.since(start)
	if err := checkResponse(domain.StagePresign, resp, err); err != nil {
		return nil, err
	}

	// 2. Unwrap the envelope and decode the grant inside it
	grant, err := decodePresignGrant(resp.Bytes())
	if err != nil {
		return nil, err
	}

	// 3. PUT the file to storage. The presigned URL carries its own authorization.
	start = r.now()
	resp, err = r.client.R().
		SetContext(ctx).
		SetContentType(domain.ContentTypePDF).
		SetBodyBytes(upload.FileBytes).
		Put(grant.UploadURL)
	putMs := r.since(start)
	if err := checkResponse(domain.StageStoragePut, resp, err); err != nil {
		return nil, err
	}

	return &domain.UploadOutcome{
		ObjectKey: grant.ObjectKey,
		FileName:  cleanFileName(upload.FileName),
		Stages: []domain.StageTiming{
			{Stage: domain.StagePresign, ElapsedMs: presignMs},
			{Stage: domain.StageStoragePut, ElapsedMs: putMs},
		},
		Presign: grant,
	}, nil
}

// relayDirect POSTs the file to the direct-upload function in one round trip.
func (r *Relay) relayDirect(ctx context.Context, upload domain.UploadRequest) (*domain.UploadOutcome, error) {
	name := r.uploadName(upload.FileName)

	start := r.now()
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader(HeaderAPIKey, r.cfg.APIKey).
		SetHeader(HeaderFileName, name).
		SetContentType(domain.ContentTypePDF).
		SetBodyBytes(upload.FileBytes).
		Post(r.cfg.DirectUploadURL)
	elapsedMs := r.since(start)
	if err := checkResponse(domain.StageDirectUpload, resp, err); err != nil {
		return nil, err
	}

	// The object is already written; an unreadable response only loses the key.
	result := decodeDirectResult(resp.Bytes())

	return &domain.UploadOutcome{
		ObjectKey: result.ObjectKey,
		FileName:  name,
		Stages: []domain.StageTiming{
			{Stage: domain.StageDirectUpload, ElapsedMs: elapsedMs},
		},
		Direct: result,
	}, nil
}

// uploadName returns the name sent with a direct upload, or a synthetic one when
// the browser supplied none.
func (r *Relay) uploadName(fileName string) string {
	if name := cleanFileName(fileName); name != "" {
		return name
	}
	return fmt.Sprintf("upload-%d-%s.pdf", r.now().UnixMilli(), uuid.NewString()[:8])
}

func (r *Relay) since(start time.Time) int64 {
	elapsed := r.now().Sub(start).Milliseconds()
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

func checkResponse(stage string, resp *req.Response, err error) error {
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.GetStatusCode()
		}
		return &UpstreamError{Stage: stage, Status: status, Err: err}
	}
	if !resp.IsSuccessState() {
		return &UpstreamError{
			Stage:  stage,
			Status: resp.GetStatusCode(),
			Body:   truncateBody(resp.String()),
		}
	}
	return nil
}

// cleanFileName strips any client-side directory and characters that cannot be
// sent in a header.
func cleanFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(path.Base(name))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
