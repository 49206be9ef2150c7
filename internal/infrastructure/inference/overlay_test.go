package inference

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOverlay(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0xfb, 0xff, 0xfe, 0x00}
	std := base64.StdEncoding.EncodeToString(payload)
	urlSafe := base64.RawURLEncoding.EncodeToString(payload)

	inputs := map[string]string{
		"standard":        std,
		"unpadded":        base64.RawStdEncoding.EncodeToString(payload),
		"url safe":        urlSafe,
		"data uri":        "data:image/png;base64," + std,
		"line wrapped":    std[:4] + "\n" + std[4:8] + "\r\n " + std[8:],
		"data uri spaced": "  data:image/png;base64," + urlSafe + "\n",
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			got, err := DecodeOverlay(in)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestDecodeOverlay_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "data:image/png;base64", "data:image/png;base64,", "a", "@@@@"} {
		_, err := DecodeOverlay(in)
		assert.Error(t, err, "%q", in)
	}
}
