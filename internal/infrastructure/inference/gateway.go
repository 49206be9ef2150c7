// Package inference talks to the tumor classification model. Every adapter
// returns either a validated Result or a *ClassificationError.
package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
)

// Gateway classifies a scan image. Implementations do not retry.
type Gateway interface {
	Classify(ctx context.Context, image []byte, filename, contentType string) (*Result, error)
}

// Classification labels
const (
	LabelGlioma     = "Glioma"
	LabelMeningioma = "Meningioma"
	LabelNoTumor    = "No Tumor"
	LabelPituitary  = "Pituitary"
)

// Labels is the closed label vocabulary in model output order
var Labels = []string{LabelGlioma, LabelMeningioma, LabelNoTumor, LabelPituitary}

var labelAliases = map[string]string{
	"glioma":     LabelGlioma,
	"meningioma": LabelMeningioma,
	"notumor":    LabelNoTumor,
	"pituitary":  LabelPituitary,
}

type Result struct {
	Label      string
	Confidence *float64
	Overlay    []byte
}

// HasOverlay reports whether the model returned an explanation overlay
func (r *Result) HasOverlay() bool {
	return len(r.Overlay) > 0
}

type ErrorKind string

const (
	KindTimeout            ErrorKind = "timeout"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindInvalidResponse    ErrorKind = "invalid_response"
	KindRejected           ErrorKind = "rejected"
)

type ClassificationError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ClassificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classification %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("classification %s: %s", e.Kind, e.Message)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, message string, err error) *ClassificationError {
	return &ClassificationError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of a classification failure, or "" for other errors
func KindOf(err error) ErrorKind {
	var ce *ClassificationError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsRetryable reports whether another attempt could succeed
func IsRetryable(err error) bool {
	return KindOf(err) == KindServiceUnavailable
}

// NormalizeLabel maps a model label onto the vocabulary, ignoring case, spaces,
// underscores and hyphens.
func NormalizeLabel(raw string) (string, bool) {
	folded := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(raw)))

	label, ok := labelAliases[folded]
	return label, ok
}

func validateConfidence(c *float64) error {
	if c == nil {
		return nil
	}
	if math.IsNaN(*c) || *c < 0 || *c > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", *c)
	}
	return nil
}

// wireResponse is the JSON contract shared by the remote and local model backends
type wireResponse struct {
	Success        *bool    `json:"success"`
	PredictedClass string   `json:"predicted_class"`
	Confidence     *float64 `json:"confidence"`
	Gradcam        string   `json:"gradcam"`
	Error          string   `json:"error"`
}

func decodeResponse(body []byte) (*Result, error) {
	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, newError(KindInvalidResponse, "undecodable model response", err)
	}

	if wire.Success != nil && !*wire.Success {
		msg := wire.Error
		if msg == "" {
			msg = "model rejected the image"
		}
		return nil, newError(KindRejected, msg, nil)
	}

	label, ok := NormalizeLabel(wire.PredictedClass)
	if !ok {
		return nil, newError(KindInvalidResponse, fmt.Sprintf("unknown label %q", wire.PredictedClass), nil)
	}

	if err := validateConfidence(wire.Confidence); err != nil {
		return nil, newError(KindInvalidResponse, "bad confidence", err)
	}

	result := &Result{Label: label, Confidence: wire.Confidence}
	if strings.TrimSpace(wire.Gradcam) != "" {
		overlay, err := DecodeOverlay(wire.Gradcam)
		if err != nil {
			return nil, newError(KindInvalidResponse, "bad overlay encoding", err)
		}
		result.Overlay = overlay
	}

	return result, nil
}

// classifyTransportError maps a failed call to Timeout when any deadline expired
func classifyTransportError(err error) *ClassificationError {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, "model did not answer in time", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(KindTimeout, "model did not answer in time", err)
	}
	return newError(KindServiceUnavailable, "model service unreachable", err)
}
