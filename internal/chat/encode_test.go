package chat

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncodeImageRoundTrip(t *testing.T) {
	t.Parallel()

	payloads := [][]byte{
		{},
		{0x00},
		{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'},
		bytes.Repeat([]byte{0x00, 0x7f, 0x80, 0xff}, 1024),
	}
	for _, payload := range payloads {
		encoded := EncodeImage(payload)
		decoded, err := DecodeImage(encoded)
		if err != nil {
			t.Fatalf("DecodeImage: %v", err)
		}
		if !bytes.Equal(decoded, payload) {
			t.Fatalf("round trip mismatch for %d bytes", len(payload))
		}
	}
}

func TestDataURL(t *testing.T) {
	t.Parallel()

	url := DataURL("", []byte("abc"))
	if url != "data:image/jpeg;base64,YWJj" {
		t.Fatalf("DataURL = %q", url)
	}
	decoded, err := DecodeImage(url)
	if err != nil || string(decoded) != "abc" {
		t.Fatalf("DecodeImage(data url) = %q, %v", decoded, err)
	}
	if !strings.HasPrefix(DataURL("image/png", nil), "data:image/png;base64,") {
		t.Fatal("mime not honored")
	}
}
