// Package supabase talks to the hosted object storage REST API.
package supabase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/utafrali/quecomemoshoy/internal/domain"
	"github.com/utafrali/quecomemoshoy/internal/storage"
	"github.com/utafrali/quecomemoshoy/pkg/httpclient"
)

// Config holds the storage endpoint and credentials.
type Config struct {
	BaseURL string
	APIKey  string
}

// doer is the subset of httpclient.CircuitBreakerClient used here.
type doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Storage implements storage.Storage against the hosted storage API.
type Storage struct {
	client  doer
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewClient builds the HTTP client used for uploads: no retries, since an
// upload that reached the server may have been stored, behind a circuit
// breaker named "storage".
func NewClient(logger *slog.Logger) *httpclient.CircuitBreakerClient {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	return httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg),
		httpclient.DefaultCircuitBreakerConfig("storage"),
		logger,
	)
}

// New creates a storage client. client is usually the result of NewClient.
func New(cfg Config, client doer, logger *slog.Logger) *Storage {
	return &Storage{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

func (s *Storage) objectURL(bucket, key string) string {
	segments := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, url.PathEscape(bucket), strings.Join(segments, "/"))
}

func (s *Storage) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("apikey", s.apiKey)
}

// Upload stores the object without overwriting an existing one.
func (s *Storage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.objectURL(input.Bucket, input.Key), input.Data)
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	s.authorize(req)
	req.Header.Set("Content-Type", input.ContentType)
	req.Header.Set("Cache-Control", "max-age=3600")
	req.Header.Set("x-upsert", "false")
	if input.Size > 0 {
		req.ContentLength = input.Size
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, s.responseError(ctx, resp, input.Bucket, input.Key)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	s.logger.InfoContext(ctx, "object uploaded",
		slog.String("bucket", input.Bucket),
		slog.String("key", input.Key),
	)

	return &storage.UploadResult{
		Bucket: input.Bucket,
		Key:    input.Key,
		URL:    s.PublicURL(input.Bucket, input.Key),
	}, nil
}

// Delete removes an object.
func (s *Storage) Delete(ctx context.Context, bucket, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.objectURL(bucket, key), http.NoBody)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}
	s.authorize(req)

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return s.responseError(ctx, resp, bucket, key)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}

// responseError parses a failed response. Requests the API rejected are
// logged as warnings; anything else is an error.
func (s *Storage) responseError(ctx context.Context, resp *http.Response, bucket, key string) error {
	status := resp.StatusCode
	err := httpclient.ParseResponseError(resp, "storage")
	level := slog.LevelError
	if httpclient.IsClientError(status) {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "storage request failed",
		slog.String("bucket", bucket),
		slog.String("key", key),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)
	return err
}

// PublicURL returns the public object URL.
func (s *Storage) PublicURL(bucket, key string) string {
	return domain.PublicObjectURL(s.baseURL, bucket, key)
}
