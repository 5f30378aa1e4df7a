package media

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Service selects and loads captured images from a storage provider.
type Service struct {
	provider  StorageProvider
	rawMarker string
	maxBytes  int64
	logger    *slog.Logger
}

// NewService creates a media service. Keys containing rawMarker are never
// selected; an empty marker disables the filter.
func NewService(log *slog.Logger, provider StorageProvider, rawMarker string) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		provider:  provider,
		rawMarker: rawMarker,
		maxBytes:  MaxImageBytes,
		logger:    log.With(slog.String("service", "media")),
	}
}

// SelectKeys drops keys containing the raw marker and sorts the rest
// ascending, which is capture order for this store's naming scheme.
func SelectKeys(keys []string, rawMarker string) []string {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if rawMarker != "" && strings.Contains(key, rawMarker) {
			continue
		}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Keys lists the selectable keys, oldest first.
func (s *Service) Keys(ctx context.Context) ([]string, error) {
	if s.provider == nil {
		return nil, ErrProviderUnavailable
	}
	keys, err := s.provider.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return SelectKeys(keys, s.rawMarker), nil
}

// LatestImage loads the most recent selectable image.
func (s *Service) LatestImage(ctx context.Context) (Image, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return Image{}, err
	}
	if len(keys) == 0 {
		return Image{}, ErrNoImages
	}
	return s.Load(ctx, keys[len(keys)-1])
}

// LatestPair loads the second most recent and the most recent selectable
// images. It fails with ErrInsufficientImages before reading any object when
// fewer than two are available.
func (s *Service) LatestPair(ctx context.Context) (previous Image, current Image, err error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return Image{}, Image{}, err
	}
	if len(keys) < 2 {
		return Image{}, Image{}, fmt.Errorf("%w: found %d", ErrInsufficientImages, len(keys))
	}
	previous, err = s.Load(ctx, keys[len(keys)-2])
	if err != nil {
		return Image{}, Image{}, err
	}
	current, err = s.Load(ctx, keys[len(keys)-1])
	if err != nil {
		return Image{}, Image{}, err
	}
	return previous, current, nil
}

// Load reads one image by key.
func (s *Service) Load(ctx context.Context, key string) (Image, error) {
	if s.provider == nil {
		return Image{}, ErrProviderUnavailable
	}
	reader, err := s.provider.Open(ctx, key)
	if err != nil {
		return Image{}, fmt.Errorf("open %s: %w", key, err)
	}
	defer func() {
		_ = reader.Close()
	}()
	body, err := readImage(reader, s.maxBytes)
	if err != nil {
		return Image{}, fmt.Errorf("read %s: %w", key, err)
	}
	s.logger.Info("loaded image", slog.String("key", key), slog.Int("bytes", len(body)))
	return Image{Key: key, Body: body}, nil
}

// AccessPath returns the public reference for a key.
func (s *Service) AccessPath(key string) string {
	if s.provider == nil {
		return ""
	}
	return s.provider.AccessPath(key)
}
