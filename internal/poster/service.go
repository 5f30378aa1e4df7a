// Package poster runs the periodic growth report: compare the two latest
// images, ask the model for a report, broadcast it and record it.
package poster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/memohai/sprout/internal/chat"
	"github.com/memohai/sprout/internal/line"
	"github.com/memohai/sprout/internal/media"
	"github.com/memohai/sprout/internal/record"
	"github.com/memohai/sprout/internal/weather"
)

// ErrInsufficientImages is returned when fewer than two selectable images
// exist. Nothing is broadcast or recorded in that case.
var ErrInsufficientImages = errors.New("not enough images for a daily report")

// Result is the business outcome reported to the trigger.
type Result string

const (
	ResultOK Result = "OK"
	// ResultNG means the broadcast went out but the record write failed.
	ResultNG Result = "NG"
)

type imageSource interface {
	LatestPair(ctx context.Context) (previous media.Image, current media.Image, err error)
	AccessPath(key string) string
}

type weatherSource interface {
	Current(ctx context.Context) (weather.Condition, error)
	IconURL(icon string) string
}

type reporter interface {
	DailyReport(ctx context.Context, previous, current []byte) (string, error)
}

type broadcaster interface {
	Broadcast(ctx context.Context, text, imageURL string) line.BestEffort
}

var (
	_ imageSource   = (*media.Service)(nil)
	_ weatherSource = (*weather.Client)(nil)
	_ reporter      = (*chat.Responder)(nil)
	_ broadcaster   = (*line.Client)(nil)
)

// Service runs one report per Run call. Runs are not idempotent: each
// successful call broadcasts and appends a record.
type Service struct {
	images      imageSource
	weather     weatherSource
	reporter    reporter
	broadcaster broadcaster
	records     record.Store
	publisherID string
	now         func() time.Time
	logger      *slog.Logger
}

// NewService creates a poster.
func NewService(log *slog.Logger, images imageSource, weatherSrc weatherSource, reporter reporter, broadcaster broadcaster, records record.Store, publisherID string) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		images:      images,
		weather:     weatherSrc,
		reporter:    reporter,
		broadcaster: broadcaster,
		records:     records,
		publisherID: publisherID,
		now:         time.Now,
		logger:      log.With(slog.String("service", "poster")),
	}
}

// Run performs one report. An error means nothing was broadcast; ResultNG
// means the broadcast was sent but could not be recorded.
func (s *Service) Run(ctx context.Context) (Result, error) {
	s.logger.Info("post started")

	previous, current, err := s.images.LatestPair(ctx)
	if err != nil {
		if errors.Is(err, media.ErrInsufficientImages) {
			return "", fmt.Errorf("%w: %w", ErrInsufficientImages, err)
		}
		return "", fmt.Errorf("load images: %w", err)
	}
	s.logger.Info("images loaded", slog.String("previous", previous.Key), slog.String("current", current.Key))

	iconURL := s.weatherIcon(ctx)

	text, err := s.reporter.DailyReport(ctx, previous.Body, current.Body)
	if err != nil {
		return "", fmt.Errorf("daily report: %w", err)
	}

	imageURL := s.images.AccessPath(current.Key)
	// Best effort: the outcome is logged by the publisher and the record is
	// written regardless.
	_ = s.broadcaster.Broadcast(ctx, text, imageURL)

	rec := record.Record{
		PublisherID:      s.publisherID,
		Timestamp:        s.now().Unix(),
		GeneratedMessage: text,
		ImgURL:           imageURL,
		WeatherIconURL:   iconURL,
	}
	if err := s.records.Append(ctx, rec); err != nil {
		s.logger.Error("record write failed", slog.Any("error", err))
		return ResultNG, nil
	}
	s.logger.Info("post finished", slog.Int64("timestamp", rec.Timestamp))
	return ResultOK, nil
}

// weatherIcon returns the current icon URL, or "" when the lookup fails.
func (s *Service) weatherIcon(ctx context.Context) string {
	if s.weather == nil {
		return ""
	}
	cond, err := s.weather.Current(ctx)
	if err != nil {
		s.logger.Warn("weather lookup failed", slog.Any("error", err))
		return ""
	}
	return s.weather.IconURL(cond.Icon)
}
