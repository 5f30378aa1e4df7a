package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/sprout/internal/inbound"
)

const (
	callbackMaxBodyBytes int64 = 1 << 20 // 1 MiB
	signatureHeader            = "X-Line-Signature"
)

type webhookRouter interface {
	Handle(ctx context.Context, body []byte, signature string) error
}

// CallbackHandler receives LINE webhook callbacks.
type CallbackHandler struct {
	logger *slog.Logger
	router webhookRouter
}

// NewCallbackHandler creates the webhook handler.
func NewCallbackHandler(log *slog.Logger, router *inbound.Router) *CallbackHandler {
	return newCallbackHandler(log, router)
}

func newCallbackHandler(log *slog.Logger, router webhookRouter) *CallbackHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CallbackHandler{
		logger: log.With(slog.String("handler", "callback")),
		router: router,
	}
}

func (h *CallbackHandler) Register(e *echo.Echo) {
	e.POST("/callback", h.Handle)
}

// Handle verifies the signature and processes events before answering. Once
// the signature is accepted the answer is always 200 "OK".
func (h *CallbackHandler) Handle(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, callbackMaxBodyBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
	}
	if int64(len(payload)) > callbackMaxBodyBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("payload too large: max %d bytes", callbackMaxBodyBytes))
	}
	h.logger.Info("callback received", slog.String("body", string(payload)))

	err = h.router.Handle(context.WithoutCancel(c.Request().Context()), payload, c.Request().Header.Get(signatureHeader))
	if errors.Is(err, inbound.ErrInvalidSignature) {
		h.logger.Info("invalid signature, check the channel access token and channel secret")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid signature")
	}
	if err != nil {
		// Verified callbacks are always acknowledged.
		h.logger.Warn("callback not handled", slog.Any("error", err))
	}
	return c.String(http.StatusOK, "OK")
}
