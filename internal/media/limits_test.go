package media

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadImageAcceptsUpToLimit(t *testing.T) {
	t.Parallel()

	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0xFF, 0xD9}
	body, err := readImage(bytes.NewReader(jpeg), int64(len(jpeg)))
	require.NoError(t, err)
	assert.Equal(t, jpeg, body)
}

func TestReadImageRejectsOversized(t *testing.T) {
	t.Parallel()

	_, err := readImage(bytes.NewReader(make([]byte, 11)), 10)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestReadImageDefaultsLimitAndRejectsNil(t *testing.T) {
	t.Parallel()

	body, err := readImage(bytes.NewReader([]byte("sprout")), 0)
	require.NoError(t, err)
	assert.Equal(t, "sprout", string(body))

	_, err = readImage(nil, 10)
	assert.Error(t, err)
}
