// Package line wraps the LINE Messaging API calls the bot makes: replies,
// the loading indicator and broadcasts.
package line

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Client sends messages through the Messaging API.
type Client struct {
	channelToken string
	opts         []messaging_api.MessagingApiAPIOption
	logger       *slog.Logger
}

// NewClient creates a Messaging API client. endpoint overrides the API base
// URL when non-empty. A missing token is not an error here; calls fail when
// the platform rejects them.
func NewClient(log *slog.Logger, channelToken, endpoint string, httpClient *http.Client) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	opts := []messaging_api.MessagingApiAPIOption{}
	if httpClient != nil {
		opts = append(opts, messaging_api.WithHTTPClient(httpClient))
	}
	if strings.TrimSpace(endpoint) != "" {
		opts = append(opts, messaging_api.WithEndpoint(endpoint))
	}
	if _, err := messaging_api.NewMessagingApiAPI(channelToken, opts...); err != nil {
		return nil, fmt.Errorf("create messaging api client: %w", err)
	}
	return &Client{
		channelToken: channelToken,
		opts:         opts,
		logger:       log.With(slog.String("service", "line")),
	}, nil
}

// api returns a client bound to ctx. The SDK keeps the context on the client
// itself, so a shared instance cannot carry per-call contexts.
func (c *Client) api(ctx context.Context) (*messaging_api.MessagingApiAPI, error) {
	api, err := messaging_api.NewMessagingApiAPI(c.channelToken, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("create messaging api client: %w", err)
	}
	return api.WithContext(ctx), nil
}

// ReplyText replies to an event with one text message.
func (c *Client) ReplyText(ctx context.Context, replyToken, text string) error {
	api, err := c.api(ctx)
	if err != nil {
		return err
	}
	_, err = api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: Truncate(text, MaxTextRunes)},
		},
	})
	if err != nil {
		return fmt.Errorf("reply text: %w", err)
	}
	return nil
}

// ReplyCarousel replies to an event with one flex carousel message.
func (c *Client) ReplyCarousel(ctx context.Context, replyToken, altText string, carousel Carousel) error {
	data, err := json.Marshal(carousel)
	if err != nil {
		return fmt.Errorf("marshal carousel: %w", err)
	}
	container, err := messaging_api.UnmarshalFlexContainer(data)
	if err != nil {
		return fmt.Errorf("decode carousel: %w", err)
	}
	api, err := c.api(ctx)
	if err != nil {
		return err
	}
	_, err = api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages: []messaging_api.MessageInterface{
			messaging_api.FlexMessage{AltText: Truncate(altText, MaxAltTextRunes), Contents: container},
		},
	})
	if err != nil {
		return fmt.Errorf("reply carousel: %w", err)
	}
	return nil
}

// ShowLoading starts the chat loading indicator for a user.
func (c *Client) ShowLoading(ctx context.Context, chatID string, seconds int) BestEffort {
	api, err := c.api(ctx)
	if err != nil {
		return BestEffort{Err: err}
	}
	_, err = api.ShowLoadingAnimation(&messaging_api.ShowLoadingAnimationRequest{
		ChatId:         chatID,
		LoadingSeconds: int32(seconds),
	})
	if err != nil {
		c.logger.Warn("show loading failed", slog.String("chat_id", chatID), slog.Any("error", err))
		return BestEffort{Err: err}
	}
	return BestEffort{Status: http.StatusOK}
}

// Broadcast sends a text and an image to every subscriber with
// notifications disabled. The platform's answer is logged and returned,
// never raised.
func (c *Client) Broadcast(ctx context.Context, text, imageURL string) BestEffort {
	api, err := c.api(ctx)
	if err != nil {
		return BestEffort{Err: err}
	}
	retryKey := uuid.NewString()
	resp, body, err := api.BroadcastWithHttpInfo(&messaging_api.BroadcastRequest{
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: Truncate(text, MaxTextRunes)},
			messaging_api.ImageMessage{
				OriginalContentUrl: imageURL,
				PreviewImageUrl:    imageURL,
			},
		},
		NotificationDisabled: true,
	}, retryKey)

	result := BestEffort{Err: err}
	if resp != nil {
		result.Status = resp.StatusCode
	}
	if body != nil {
		if encoded, mErr := json.Marshal(body); mErr == nil {
			result.Body = string(encoded)
		}
	}
	c.logger.Info("broadcast sent",
		slog.String("retry_key", retryKey),
		slog.Int("status", result.Status),
		slog.String("body", result.Body),
		slog.Any("error", err),
	)
	return result
}
