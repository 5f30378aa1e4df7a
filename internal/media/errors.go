package media

import "errors"

var (
	// ErrNoImages indicates the store holds no selectable image.
	ErrNoImages = errors.New("no images available")
	// ErrInsufficientImages indicates fewer than two selectable images exist.
	ErrInsufficientImages = errors.New("at least two images are required")
	// ErrProviderUnavailable indicates the storage provider is not configured or reachable.
	ErrProviderUnavailable = errors.New("storage provider unavailable")
	// ErrImageTooLarge indicates the payload exceeds the configured max image size.
	ErrImageTooLarge = errors.New("image too large")
	// ErrPathTraversal indicates a storage key attempted directory traversal.
	ErrPathTraversal = errors.New("path traversal is forbidden")
)
