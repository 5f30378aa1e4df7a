// Package inbound verifies LINE webhook callbacks and routes their events.
package inbound

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/memohai/sprout/internal/chat"
	"github.com/memohai/sprout/internal/line"
	"github.com/memohai/sprout/internal/media"
	"github.com/memohai/sprout/internal/record"
)

const loadingSeconds = 10

type imageSource interface {
	LatestImage(ctx context.Context) (media.Image, error)
}

type responder interface {
	Reply(ctx context.Context, userText string, current []byte) (string, error)
}

type recordReader interface {
	Latest(ctx context.Context, publisherID string, limit int) ([]record.Record, error)
}

type messenger interface {
	ReplyText(ctx context.Context, replyToken, text string) error
	ReplyCarousel(ctx context.Context, replyToken, altText string, carousel line.Carousel) error
	ShowLoading(ctx context.Context, chatID string, seconds int) line.BestEffort
}

var (
	_ imageSource  = (*media.Service)(nil)
	_ responder    = (*chat.Responder)(nil)
	_ recordReader = (record.Store)(nil)
	_ messenger    = (*line.Client)(nil)
)

// Options configures the router.
type Options struct {
	ChannelSecret string
	PublisherID   string
	CarouselLimit int
	AltText       string
	Location      *time.Location
}

// Router handles verified webhook events.
type Router struct {
	images    imageSource
	responder responder
	records   recordReader
	messenger messenger
	opts      Options
	logger    *slog.Logger
}

// NewRouter creates an event router.
func NewRouter(log *slog.Logger, images imageSource, responder responder, records recordReader, messenger messenger, opts Options) *Router {
	if log == nil {
		log = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.CarouselLimit <= 0 {
		opts.CarouselLimit = 5
	}
	return &Router{
		images:    images,
		responder: responder,
		records:   records,
		messenger: messenger,
		opts:      opts,
		logger:    log.With(slog.String("service", "inbound")),
	}
}

// Handle verifies and dispatches one webhook body. Only a signature or
// decoding failure is returned; handler failures are logged and dropped so
// the platform never retries because of them.
func (r *Router) Handle(ctx context.Context, body []byte, signature string) error {
	events, err := Parse(r.opts.ChannelSecret, signature, body)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if err := r.Dispatch(ctx, ev); err != nil {
			r.logger.Error("event handling failed",
				slog.String("event", fmt.Sprintf("%T", ev)),
				slog.String("source", ev.envelope().SourceID),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

// Dispatch runs the handler for the event's variant.
func (r *Router) Dispatch(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case TextMessageEvent:
		return r.HandleText(ctx, e)
	case PostbackEvent:
		return r.HandlePostback(ctx, e)
	default:
		return fmt.Errorf("unhandled event type %T", ev)
	}
}

// HandleText answers a text message with a reply about the latest image.
func (r *Router) HandleText(ctx context.Context, ev TextMessageEvent) error {
	r.logger.Info("text message received", slog.String("source", ev.SourceID), slog.String("text", ev.Text))

	// Best effort: the reply still goes out without the indicator.
	_ = r.messenger.ShowLoading(ctx, ev.SourceID, loadingSeconds)

	img, err := r.images.LatestImage(ctx)
	if err != nil {
		return fmt.Errorf("load latest image: %w", err)
	}
	text, err := r.responder.Reply(ctx, ev.Text, img.Body)
	if err != nil {
		return err
	}
	if err := r.messenger.ReplyText(ctx, ev.ReplyToken, text); err != nil {
		return err
	}
	r.logger.Info("reply sent", slog.String("source", ev.SourceID), slog.String("image", img.Key))
	return nil
}

// HandlePostback replies with a carousel of the latest reports, oldest first.
func (r *Router) HandlePostback(ctx context.Context, ev PostbackEvent) error {
	records, err := r.records.Latest(ctx, r.opts.PublisherID, r.opts.CarouselLimit)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no records for publisher %s", r.opts.PublisherID)
	}
	r.logger.Info("records loaded", slog.Int("count", len(records)))

	cards := Cards(records, r.opts.Location)
	if err := r.messenger.ReplyCarousel(ctx, ev.ReplyToken, r.opts.AltText, line.NewCarousel(cards)); err != nil {
		return err
	}
	r.logger.Info("carousel sent", slog.Int("cards", len(cards)))
	return nil
}

// Cards reverses newest-first records into chronological cards dated in loc.
func Cards(records []record.Record, loc *time.Location) []line.Card {
	ordered := slices.Clone(records)
	slices.Reverse(ordered)
	cards := make([]line.Card, 0, len(ordered))
	for _, rec := range ordered {
		cards = append(cards, line.Card{
			Date:     time.Unix(rec.Timestamp, 0).In(loc).Format(time.DateOnly),
			IconURL:  rec.WeatherIconURL,
			ImageURL: rec.ImgURL,
			Message:  rec.GeneratedMessage,
		})
	}
	return cards
}
