package relay

import (
	"errors"
	"fmt"

	"github.com/sirjoon/azure-s3-uploader/internal/config"
)

// ErrEmptyPayload is returned when an upload carries no file bytes.
var ErrEmptyPayload = errors.New("relay: no file bytes to upload")

// ErrMissingAPIKey is returned when the upstream credential is not configured.
var ErrMissingAPIKey = &ConfigurationError{Setting: "AWS_API_KEY", Err: config.ErrMissingAPIKey}

var errMissingUploadURL = errors.New("url is empty")

// Layers of the presign response a MalformedResponseError can point at.
const (
	LayerEnvelope = "envelope"
	LayerBody     = "body"
	LayerResult   = "result"
)

// maxErrorBody bounds how much of an upstream body is kept on an UpstreamError.
const maxErrorBody = 1024

// ConfigurationError reports a setting the relay cannot run without.
type ConfigurationError struct {
	Setting string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %v", e.Setting, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// UpstreamError reports a failed call to one of the upstream endpoints. Status is
// zero when no response was received, in which case Err holds the transport error.
type UpstreamError struct {
	Stage  string
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream %s request failed: %v", e.Stage, e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("upstream %s returned status %d", e.Stage, e.Status)
	}
	return fmt.Sprintf("upstream %s returned status %d: %s", e.Stage, e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// MalformedResponseError reports an upstream response that does not match its
// contract. Layer tells which decode failed.
type MalformedResponseError struct {
	Stage string
	Layer string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed %s response (%s): %v", e.Stage, e.Layer, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func truncateBody(body string) string {
	if len(body) <= maxErrorBody {
		return body
	}
	return body[:maxErrorBody] + "..."
}
