package relay

import (
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/sirjoon/azure-s3-uploader/internal/domain"
)

var jsonMarshal = json.Marshal
var jsonUnmarshal = json.Unmarshal

// decodePresignGrant unwraps the presign envelope. The outer object and the JSON
// document in its body are decoded separately so a broken wrapper and a broken
// grant are reported as different layers.
func decodePresignGrant(data []byte) (*domain.PresignGrant, error) {
	var envelope domain.PresignEnvelope
	if err := jsonUnmarshal(data, &envelope); err != nil {
		return nil, &MalformedResponseError{Stage: domain.StagePresign, Layer: LayerEnvelope, Err: err}
	}

	// zero means the wrapper did not report a status
	if envelope.StatusCode != 0 && (envelope.StatusCode < 200 || envelope.StatusCode > 299) {
		return nil, &UpstreamError{
			Stage:  domain.StagePresign,
			Status: envelope.StatusCode,
			Body:   truncateBody(envelope.Body),
		}
	}

	var grant domain.PresignGrant
	if err := jsonUnmarshal([]byte(envelope.Body), &grant); err != nil {
		return nil, &MalformedResponseError{Stage: domain.StagePresign, Layer: LayerBody, Err: err}
	}
	if grant.UploadURL == "" {
		return nil, &MalformedResponseError{Stage: domain.StagePresign, Layer: LayerBody, Err: errMissingUploadURL}
	}

	return &grant, nil
}

// decodeDirectResult never fails: a missing or unreadable key becomes
// domain.UnknownObjectKey.
func decodeDirectResult(data []byte) *domain.DirectUploadResult {
	var result domain.DirectUploadResult
	if err := jsonUnmarshal(data, &result); err != nil {
		log.Warn().Err(err).Msg("direct upload response is not JSON, key unknown")
		result = domain.DirectUploadResult{}
	}
	if result.ObjectKey == "" {
		result.ObjectKey = domain.UnknownObjectKey
	}
	return &result
}
