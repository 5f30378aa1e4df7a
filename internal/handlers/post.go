package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/memohai/sprout/internal/config"
	"github.com/memohai/sprout/internal/poster"
)

type postRunner interface {
	Run(ctx context.Context) (poster.Result, error)
}

// PostHandler triggers the scheduled poster over HTTP.
type PostHandler struct {
	logger *slog.Logger
	runner postRunner
	token  string
}

// NewPostHandler creates the /post trigger handler.
func NewPostHandler(log *slog.Logger, runner *poster.Service, cfg config.Config) *PostHandler {
	return newPostHandler(log, runner, cfg.Server.PostToken)
}

func newPostHandler(log *slog.Logger, runner postRunner, token string) *PostHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PostHandler{
		logger: log.With(slog.String("handler", "post")),
		runner: runner,
		token:  strings.TrimSpace(token),
	}
}

func (h *PostHandler) Register(e *echo.Echo) {
	e.GET("/post", h.Post)
}

// Post runs one report. The body is "OK" or "NG" with status 200; any
// failure before the broadcast is a 500.
func (h *PostHandler) Post(c echo.Context) error {
	if h.token != "" {
		got := strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
	}
	result, err := h.runner.Run(c.Request().Context())
	if err != nil {
		h.logger.Error("post failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.String(http.StatusOK, string(result))
}
