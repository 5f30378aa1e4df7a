package media

import (
	"fmt"
	"io"
)

// MaxImageBytes caps a stored capture. Images travel base64-encoded inside
// model requests.
const MaxImageBytes int64 = 20 << 20

// readImage reads a whole object, failing with ErrImageTooLarge past limit.
func readImage(r io.Reader, limit int64) ([]byte, error) {
	if r == nil {
		return nil, io.ErrUnexpectedEOF
	}
	if limit <= 0 {
		limit = MaxImageBytes
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrImageTooLarge, limit)
	}
	return body, nil
}
