package upstream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirjoon/azure-s3-uploader/internal/domain"
	"github.com/sirjoon/azure-s3-uploader/internal/relay"
	"github.com/sirjoon/azure-s3-uploader/internal/storage"
)

const testKey = "local-key"

// memStore keeps objects in memory. Presigned URLs point at an httptest server
// that accepts PUTs into the same map.
type memStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	server     *httptest.Server
	presignErr error
}

func newMemStore(t *testing.T) *memStore {
	t.Helper()

	m := &memStore{objects: map[string][]byte{}}
	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Query().Get("sig") != "ok" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		data, _ := io.ReadAll(r.Body)
		m.mu.Lock()
		m.objects[strings.TrimPrefix(r.URL.Path, "/bucket/")] = data
		m.mu.Unlock()
	}))
	t.Cleanup(m.server.Close)
	return m
}

func (m *memStore) PresignPut(_ context.Context, key string, _ time.Duration) (string, error) {
	if m.presignErr != nil {
		return "", m.presignErr
	}
	return m.server.URL + "/bucket/" + key + "?sig=ok", nil
}

func (m *memStore) PutObject(_ context.Context, key string, data []byte, _ string) (storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return storage.ObjectInfo{Bucket: "bucket", Key: key, Size: int64(len(data))}, nil
}

func (m *memStore) ObjectURL(key string) string {
	return m.server.URL + "/bucket/" + key
}

func (m *memStore) Bucket() string { return "bucket" }

func (m *memStore) object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, ok
}

var _ storage.ObjectStorage = (*memStore)(nil)

func newTestServer(t *testing.T, store *memStore) *Server {
	t.Helper()
	s := NewServer(store, Config{APIKey: testKey, MaxDirectBytes: 64})
	s.now = func() time.Time { return time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC) }
	return s
}

func do(t *testing.T, s *Server, method, path, apiKey string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if apiKey != "" {
		req.Header.Set(relay.HeaderAPIKey, apiKey)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestPresign(t *testing.T) {
	store := newMemStore(t)
	s := newTestServer(t, store)

	w := do(t, s, http.MethodGet, "/presign", testKey, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope domain.PresignEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, http.StatusOK, envelope.StatusCode)

	var grant domain.PresignGrant
	require.NoError(t, json.Unmarshal([]byte(envelope.Body), &grant))
	assert.Regexp(t, `^uploads/20261017-093000-[0-9a-f-]{36}\.pdf$`, grant.ObjectKey)
	assert.Contains(t, grant.UploadURL, grant.ObjectKey)
	assert.Equal(t, 900, grant.ExpiresInSeconds)
}

func TestPresign_StoreError(t *testing.T) {
	store := newMemStore(t)
	store.presignErr = errors.New("no credentials")

	w := do(t, newTestServer(t, store), http.MethodGet, "/presign", testKey, nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireAPIKey(t *testing.T) {
	s := newTestServer(t, newMemStore(t))

	assert.Equal(t, http.StatusForbidden, do(t, s, http.MethodGet, "/presign", "", nil, nil).Code)
	assert.Equal(t, http.StatusForbidden, do(t, s, http.MethodGet, "/presign", "wrong", nil, nil).Code)
	assert.Equal(t, http.StatusForbidden, do(t, s, http.MethodPost, "/upload", "", []byte("%PDF"), nil).Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health", "", nil, nil).Code)
}

func TestDirectUpload(t *testing.T) {
	store := newMemStore(t)
	s := newTestServer(t, store)

	w := do(t, s, http.MethodPost, "/upload", testKey, []byte("%PDF-1.4"), map[string]string{
		relay.HeaderFileName: "my report (1).pdf",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result domain.DirectUploadResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "uploads/20261017-093000-my_report_1_.pdf", result.ObjectKey)
	assert.Equal(t, "bucket", result.Bucket)
	assert.Equal(t, int64(8), result.SizeBytes)
	assert.Equal(t, store.ObjectURL(result.ObjectKey), result.URL)

	data, ok := store.object(result.ObjectKey)
	require.True(t, ok)
	assert.Equal(t, []byte("%PDF-1.4"), data)
}

func TestDirectUpload_Limits(t *testing.T) {
	s := newTestServer(t, newMemStore(t))

	w := do(t, s, http.MethodPost, "/upload", testKey, bytes.Repeat([]byte("x"), 65), nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = do(t, s, http.MethodPost, "/upload", testKey, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"report.pdf":        "report.pdf",
		"../../etc/passwd":  "etc_passwd.pdf",
		"":                  "upload.pdf",
		"Quarterly Summary": "Quarterly_Summary.pdf",
		"scan.PDF":          "scan.PDF",
	}
	for input, want := range tests {
		assert.Equal(t, want, sanitizeFileName(input), input)
	}
}
