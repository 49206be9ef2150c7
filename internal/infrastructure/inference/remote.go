package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const maxResponseBytes = 32 << 20

// RemoteGateway posts the image as a multipart "file" part to a model
// service and parses its JSON answer.
type RemoteGateway struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
}

func NewRemoteGateway(url string, timeout time.Duration) *RemoteGateway {
	return &RemoteGateway{
		url:        url,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

func (g *RemoteGateway) Classify(ctx context.Context, image []byte, filename, contentType string) (*Result, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	body, boundary, err := multipartBody(image, filename, contentType)
	if err != nil {
		return nil, newError(KindServiceUnavailable, "failed to build request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, body)
	if err != nil {
		return nil, newError(KindServiceUnavailable, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classifyTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newError(KindServiceUnavailable, fmt.Sprintf("model service returned %d", resp.StatusCode), nil)
	}

	return decodeResponse(raw)
}

func multipartBody(image []byte, filename, contentType string) (*bytes.Buffer, string, error) {
	if filename == "" {
		filename = "scan"
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return buf, writer.Boundary(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
