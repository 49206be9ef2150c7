package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseBackend talks to the Supabase Storage REST API. Objects are
// served from the bucket's public URL, which is what Put returns.
type SupabaseBackend struct {
	baseURL    string
	apiKey     string
	bucket     string
	httpClient *http.Client
}

func NewSupabaseBackend(baseURL, apiKey, bucket string, timeout time.Duration) *SupabaseBackend {
	return &SupabaseBackend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		bucket:     bucket,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// PublicBaseURL is the locator prefix of every object in the bucket
func (b *SupabaseBackend) PublicBaseURL() string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s", b.baseURL, b.bucket)
}

func (b *SupabaseBackend) objectURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", b.baseURL, b.bucket, escapeKey(key))
}

func (b *SupabaseBackend) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.objectURL(key), bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	b.authorize(req)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("supabase upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("supabase upload returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return b.PublicBaseURL() + "/" + escapeKey(key), nil
}

func (b *SupabaseBackend) Get(ctx context.Context, key string) (*Object, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.objectURL(key), nil)
	if err != nil {
		return nil, err
	}
	b.authorize(req)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase download failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("supabase read failed: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrObjectNotFound
	// storage API reports missing objects as 400 with a not_found body
	case resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(string(body)), "not_found"):
		return nil, ErrObjectNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("supabase download returned %d", resp.StatusCode)
	}

	return &Object{Data: body, ContentType: resp.Header.Get("Content-Type")}, nil
}

func (b *SupabaseBackend) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("apikey", b.apiKey)
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
