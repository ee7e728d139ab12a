package bucket

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const apiKeyHeader = "x-api-key"

// HTTPStore talks to a bucket-like HTTP service: objects are uploaded
// with a multipart PUT to /{bucket} and removed with DELETE
// /{bucket}/{key}, authenticated by a static key header.
type HTTPStore struct {
	endpoint string
	bucket   string
	apiKey   string
	client   *http.Client
}

var _ Store = (*HTTPStore)(nil)

type HTTPOptions struct {
	Endpoint string
	Bucket   string
	APIKey   string
	Timeout  time.Duration
	Client   *http.Client // optional, overrides Timeout
}

func NewHTTPStore(opts HTTPOptions) *HTTPStore {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPStore{
		endpoint: strings.TrimSuffix(opts.Endpoint, "/"),
		bucket:   opts.Bucket,
		apiKey:   opts.APIKey,
		client:   client,
	}
}

func (s *HTTPStore) Upload(ctx context.Context, key string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	url := fmt.Sprintf("%s/%s", s.endpoint, s.bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	req.Header.Set(apiKeyHeader, s.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	if err := s.send(req); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	return fmt.Sprintf("%s/%s", s.endpoint, key), nil
}

func (s *HTTPStore) Delete(ctx context.Context, key string) error {
	url := fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelete, err)
	}
	req.Header.Set(apiKeyHeader, s.apiKey)

	if err := s.send(req); err != nil {
		return fmt.Errorf("%w: %v", ErrDelete, err)
	}
	return nil
}

func (s *HTTPStore) send(req *http.Request) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
