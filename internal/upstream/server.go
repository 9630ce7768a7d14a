// Package upstream serves the presign and direct-upload endpoints that the relay
// talks to, backed by any S3-compatible store. It stands in for the API gateway
// and functions when running the uploader locally.
package upstream

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/sirjoon/azure-s3-uploader/internal/domain"
	"github.com/sirjoon/azure-s3-uploader/internal/relay"
	"github.com/sirjoon/azure-s3-uploader/internal/storage"
)

const (
	DefaultPresignExpiry = 15 * time.Minute
	DefaultKeyPrefix     = "uploads/"
	keyTimeLayout        = "20060102-150405"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type Config struct {
	APIKey         string
	PresignExpiry  time.Duration
	MaxDirectBytes int64
	KeyPrefix      string
}

type Server struct {
	store storage.ObjectStorage
	cfg   Config
	now   func() time.Time
}

func NewServer(store storage.ObjectStorage, cfg Config) *Server {
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = DefaultPresignExpiry
	}
	if cfg.MaxDirectBytes <= 0 {
		cfg.MaxDirectBytes = domain.DirectUploadLimitBytes
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}

	return &Server{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Router returns a router with all endpoints registered.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	s.RegisterRoutes(r)
	return r
}

func (s *Server) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", s.Health).Methods("GET")

	api := router.NewRoute().Subrouter()
	api.Use(s.requireAPIKey)
	api.HandleFunc("/presign", s.Presign).Methods("GET")
	api.HandleFunc("/upload", s.DirectUpload).Methods("POST")
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Presign issues a presigned PUT URL wrapped the way a proxied function
// response is: the grant is a JSON string inside the envelope body.
func (s *Server) Presign(w http.ResponseWriter, r *http.Request) {
	key := fmt.Sprintf("%s%s-%s.pdf", s.cfg.KeyPrefix, s.now().UTC().Format(keyTimeLayout), uuid.NewString())

	uploadURL, err := s.store.PresignPut(r.Context(), key, s.cfg.PresignExpiry)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("presign failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "could not generate upload url"})
		return
	}

	body, err := json.Marshal(domain.PresignGrant{
		UploadURL:        uploadURL,
		ObjectKey:        key,
		ExpiresInSeconds: int(s.cfg.PresignExpiry / time.Second),
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, domain.PresignEnvelope{
		StatusCode: http.StatusOK,
		Body:       string(body),
	})
}

// DirectUpload stores the request body as a PDF named after the x-filename header.
func (s *Server) DirectUpload(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxDirectBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"message": "Request Entity Too Large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "could not read body"})
		return
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "empty body"})
		return
	}

	key := s.cfg.KeyPrefix + s.now().UTC().Format(keyTimeLayout) + "-" + sanitizeFileName(r.Header.Get(relay.HeaderFileName))

	info, err := s.store.PutObject(r.Context(), key, data, domain.ContentTypePDF)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("direct upload failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "could not store object"})
		return
	}

	log.Info().Str("key", info.Key).Int64("size", info.Size).Msg("object stored")

	writeJSON(w, http.StatusOK, domain.DirectUploadResult{
		Success:   true,
		ObjectKey: info.Key,
		Bucket:    info.Bucket,
		SizeBytes: info.Size,
		URL:       s.store.ObjectURL(info.Key),
	})
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(relay.HeaderAPIKey)
		if s.cfg.APIKey == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.APIKey)) != 1 {
			writeJSON(w, http.StatusForbidden, map[string]string{"message": "Forbidden"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sanitizeFileName(name string) string {
	name = strings.Trim(unsafeNameChars.ReplaceAllString(strings.TrimSpace(name), "_"), "._")
	if name == "" {
		return "upload.pdf"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}
