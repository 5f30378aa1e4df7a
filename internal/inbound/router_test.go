package inbound

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/memohai/sprout/internal/line"
	"github.com/memohai/sprout/internal/media"
	"github.com/memohai/sprout/internal/record"
)

const testSecret = "channel-secret"

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

const textBody = `{"destination":"Ubot","events":[{"type":"message","mode":"active","timestamp":1715000000000,` +
	`"source":{"type":"user","userId":"U123"},"webhookEventId":"01HX","deliveryContext":{"isRedelivery":false},` +
	`"replyToken":"reply-1","message":{"id":"444","type":"text","text":"元気？","quoteToken":"q1"}}]}`

const postbackBody = `{"destination":"Ubot","events":[{"type":"postback","mode":"active","timestamp":1715000000000,` +
	`"source":{"type":"user","userId":"U123"},"webhookEventId":"01HY","deliveryContext":{"isRedelivery":false},` +
	`"replyToken":"reply-2","postback":{"data":"action=list"}}]}`

type fakeImages struct {
	img   media.Image
	err   error
	calls int
}

func (f *fakeImages) LatestImage(context.Context) (media.Image, error) {
	f.calls++
	return f.img, f.err
}

type fakeResponder struct {
	gotText  string
	gotImage []byte
	text     string
	err      error
}

func (f *fakeResponder) Reply(_ context.Context, userText string, current []byte) (string, error) {
	f.gotText = userText
	f.gotImage = current
	return f.text, f.err
}

type fakeRecords struct {
	records      []record.Record
	err          error
	gotPublisher string
	gotLimit     int
}

func (f *fakeRecords) Latest(_ context.Context, publisherID string, limit int) ([]record.Record, error) {
	f.gotPublisher = publisherID
	f.gotLimit = limit
	return f.records, f.err
}

type textReply struct {
	token string
	text  string
}

type fakeMessenger struct {
	texts      []textReply
	carousels  []line.Carousel
	tokens     []string
	loading    []string
	replyErr   error
	loadingErr error
}

func (f *fakeMessenger) ReplyText(_ context.Context, replyToken, text string) error {
	if f.replyErr != nil {
		return f.replyErr
	}
	f.texts = append(f.texts, textReply{token: replyToken, text: text})
	return nil
}

func (f *fakeMessenger) ReplyCarousel(_ context.Context, replyToken, _ string, carousel line.Carousel) error {
	if f.replyErr != nil {
		return f.replyErr
	}
	f.tokens = append(f.tokens, replyToken)
	f.carousels = append(f.carousels, carousel)
	return nil
}

func (f *fakeMessenger) ShowLoading(_ context.Context, chatID string, _ int) line.BestEffort {
	f.loading = append(f.loading, chatID)
	return line.BestEffort{Err: f.loadingErr}
}

type fixture struct {
	images    *fakeImages
	responder *fakeResponder
	records   *fakeRecords
	messenger *fakeMessenger
	router    *Router
}

func newFixture() *fixture {
	f := &fixture{
		images:    &fakeImages{img: media.Image{Key: "0003.jpg", Body: []byte("img-3")}},
		responder: &fakeResponder{text: "げんきだよ"},
		records:   &fakeRecords{},
		messenger: &fakeMessenger{},
	}
	f.router = NewRouter(nil, f.images, f.responder, f.records, f.messenger, Options{
		ChannelSecret: testSecret,
		PublisherID:   "o0001",
		CarouselLimit: 5,
		AltText:       "bean-sprouts-list",
		Location:      time.UTC,
	})
	return f
}

func TestHandleTextRepliesOnceWithEventToken(t *testing.T) {
	t.Parallel()

	f := newFixture()
	if err := f.router.Handle(context.Background(), []byte(textBody), sign(textBody)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(f.messenger.texts) != 1 {
		t.Fatalf("expected exactly one reply, got %d", len(f.messenger.texts))
	}
	if got := f.messenger.texts[0]; got.token != "reply-1" || got.text != "げんきだよ" {
		t.Fatalf("unexpected reply: %+v", got)
	}
	if f.responder.gotText != "元気？" || string(f.responder.gotImage) != "img-3" {
		t.Fatalf("responder got text=%q image=%q", f.responder.gotText, f.responder.gotImage)
	}
	if len(f.messenger.loading) != 1 || f.messenger.loading[0] != "U123" {
		t.Fatalf("loading indicator calls: %v", f.messenger.loading)
	}
}

func TestHandleRejectsBadSignature(t *testing.T) {
	t.Parallel()

	f := newFixture()
	err := f.router.Handle(context.Background(), []byte(textBody), sign(textBody+"tampered"))
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if len(f.messenger.texts) != 0 || f.images.calls != 0 {
		t.Fatal("no work should happen on a bad signature")
	}

	if err := f.router.Handle(context.Background(), []byte(textBody), ""); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("missing signature: expected ErrInvalidSignature, got %v", err)
	}
}

func TestHandleTextLoadingFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.messenger.loadingErr = errors.New("loading not supported")
	if err := f.router.HandleText(context.Background(), TextMessageEvent{Envelope: Envelope{ReplyToken: "t", SourceID: "U1"}, Text: "hi"}); err != nil {
		t.Fatalf("HandleText: %v", err)
	}
	if len(f.messenger.texts) != 1 {
		t.Fatalf("expected reply despite loading failure")
	}
}

func TestHandleSwallowsHandlerFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]func(f *fixture){
		"image": func(f *fixture) { f.images.err = errors.New("s3 down") },
		"model": func(f *fixture) { f.responder.err = errors.New("429") },
		"reply": func(f *fixture) { f.messenger.replyErr = errors.New("invalid reply token") },
	}
	for name, breakIt := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			f := newFixture()
			breakIt(f)
			if err := f.router.Handle(context.Background(), []byte(textBody), sign(textBody)); err != nil {
				t.Fatalf("Handle should swallow handler errors, got %v", err)
			}
			if len(f.messenger.texts) != 0 {
				t.Fatalf("no reply expected on failure, got %v", f.messenger.texts)
			}
		})
	}
}

func TestHandlePostbackSendsChronologicalCarousel(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.records.records = []record.Record{
		{PublisherID: "o0001", Timestamp: 1715040000, GeneratedMessage: "newest", ImgURL: "c", WeatherIconURL: "https://openweathermap.org/img/wn/01d.png"},
		{PublisherID: "o0001", Timestamp: 1714953600, GeneratedMessage: "middle", ImgURL: "b"},
		{PublisherID: "o0001", Timestamp: 1714867200, GeneratedMessage: "oldest", ImgURL: "a"},
	}
	if err := f.router.Handle(context.Background(), []byte(postbackBody), sign(postbackBody)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if f.records.gotPublisher != "o0001" || f.records.gotLimit != 5 {
		t.Fatalf("query publisher=%q limit=%d", f.records.gotPublisher, f.records.gotLimit)
	}
	if len(f.messenger.carousels) != 1 || f.messenger.tokens[0] != "reply-2" {
		t.Fatalf("expected one carousel reply with the event token")
	}
	bubbles := f.messenger.carousels[0].Contents
	if len(bubbles) != 3 {
		t.Fatalf("expected 3 bubbles, got %d", len(bubbles))
	}
	for i, want := range []string{"a", "b", "c"} {
		if bubbles[i].Hero.URL != want {
			t.Fatalf("bubble %d hero = %q, want %q", i, bubbles[i].Hero.URL, want)
		}
	}
}

func TestHandlePostbackFailureSendsNothing(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.records.err = errors.New("table not found")
	if err := f.router.Handle(context.Background(), []byte(postbackBody), sign(postbackBody)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(f.messenger.carousels) != 0 {
		t.Fatal("no reply expected")
	}

	empty := newFixture()
	if err := empty.router.HandlePostback(context.Background(), PostbackEvent{Envelope: Envelope{ReplyToken: "t"}}); err == nil {
		t.Fatal("expected error when there is nothing to show")
	}
	if len(empty.messenger.carousels) != 0 {
		t.Fatal("no reply expected for an empty history")
	}
}

func TestCards(t *testing.T) {
	t.Parallel()

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	cards := Cards([]record.Record{
		{Timestamp: 1714921200, ImgURL: "new", WeatherIconURL: "icon"}, // 2024-05-06 00:00 JST
		{Timestamp: 1714834799, ImgURL: "old"},                         // 2024-05-04 23:59:59 JST
	}, tokyo)
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	if cards[0].ImageURL != "old" || cards[0].Date != "2024-05-04" || cards[0].IconURL != "" {
		t.Fatalf("unexpected first card: %+v", cards[0])
	}
	if cards[1].ImageURL != "new" || cards[1].Date != "2024-05-06" || cards[1].IconURL != "icon" {
		t.Fatalf("unexpected second card: %+v", cards[1])
	}
}

func TestParseDropsUnsupportedEvents(t *testing.T) {
	t.Parallel()

	body := `{"destination":"Ubot","events":[` +
		`{"type":"follow","mode":"active","timestamp":1,"source":{"type":"user","userId":"U1"},"webhookEventId":"a","deliveryContext":{"isRedelivery":false},"replyToken":"r0","follow":{"isUnblocked":false}},` +
		`{"type":"message","mode":"active","timestamp":1,"source":{"type":"group","groupId":"G1","userId":"U1"},"webhookEventId":"b","deliveryContext":{"isRedelivery":false},"replyToken":"r1","message":{"id":"1","type":"sticker","packageId":"1","stickerId":"1","stickerResourceType":"STATIC","quoteToken":"q"}},` +
		`{"type":"message","mode":"active","timestamp":1,"source":{"type":"group","groupId":"G1","userId":"U1"},"webhookEventId":"c","deliveryContext":{"isRedelivery":false},"replyToken":"r2","message":{"id":"2","type":"text","text":"hi","quoteToken":"q"}}` +
		`]}`
	events, err := Parse(testSecret, sign(body), []byte(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected only the text event, got %d", len(events))
	}
	text, ok := events[0].(TextMessageEvent)
	if !ok {
		t.Fatalf("unexpected event %T", events[0])
	}
	if text.ReplyToken != "r2" || text.SourceID != "G1" || text.Text != "hi" {
		t.Fatalf("unexpected text event: %+v", text)
	}
}
