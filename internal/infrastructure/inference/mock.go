package inference

import (
	"context"
	"fmt"
	"hash/fnv"
)

// MockGateway classifies without a model. The label is fixed when configured,
// otherwise derived from a hash of the image so equal inputs agree.
type MockGateway struct {
	label   string
	overlay []byte
}

func NewMockGateway(label string, overlay []byte) (*MockGateway, error) {
	g := &MockGateway{overlay: overlay}
	if label != "" {
		canonical, ok := NormalizeLabel(label)
		if !ok {
			return nil, fmt.Errorf("unknown mock label %q", label)
		}
		g.label = canonical
	}
	return g, nil
}

func (g *MockGateway) Classify(ctx context.Context, image []byte, filename, contentType string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, classifyTransportError(err)
	}
	if len(image) == 0 {
		return nil, newError(KindRejected, "empty image", nil)
	}

	h := fnv.New32a()
	h.Write(image)
	sum := h.Sum32()

	label := g.label
	if label == "" {
		label = Labels[sum%uint32(len(Labels))]
	}
	confidence := 0.5 + float64(sum%50)/100

	result := &Result{Label: label, Confidence: &confidence}
	if len(g.overlay) > 0 {
		result.Overlay = append([]byte(nil), g.overlay...)
	}
	return result, nil
}
