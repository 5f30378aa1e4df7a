package chat

import (
	"encoding/base64"
	"strings"
)

// DefaultImageMime is used for stored images, which are JPEG captures.
const DefaultImageMime = "image/jpeg"

// EncodeImage returns the standard base64 encoding of data.
func EncodeImage(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeImage reverses EncodeImage. A data URL prefix is accepted.
func DecodeImage(encoded string) ([]byte, error) {
	if strings.HasPrefix(encoded, "data:") {
		if idx := strings.Index(encoded, ","); idx >= 0 {
			encoded = encoded[idx+1:]
		}
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// DataURL embeds data as a data: URL.
func DataURL(mime string, data []byte) string {
	if mime == "" {
		mime = DefaultImageMime
	}
	return "data:" + mime + ";base64," + EncodeImage(data)
}
