package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/memohai/sprout/internal/chat"
	"github.com/memohai/sprout/internal/config"
	"github.com/memohai/sprout/internal/handlers"
	"github.com/memohai/sprout/internal/inbound"
	"github.com/memohai/sprout/internal/line"
	"github.com/memohai/sprout/internal/logger"
	"github.com/memohai/sprout/internal/media"
	"github.com/memohai/sprout/internal/media/providers/localfs"
	s3provider "github.com/memohai/sprout/internal/media/providers/s3"
	"github.com/memohai/sprout/internal/poster"
	"github.com/memohai/sprout/internal/record"
	"github.com/memohai/sprout/internal/schedule"
	"github.com/memohai/sprout/internal/server"
	"github.com/memohai/sprout/internal/weather"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		RunE: func(_ *cobra.Command, _ []string) error {
			app := fx.New(
				coreOptions(),
				fx.Provide(
					provideServerHandler(handlers.NewPingHandler),
					provideServerHandler(handlers.NewCallbackHandler),
					provideServerHandler(handlers.NewPostHandler),
					provideServer,
					provideSchedule,
				),
				fx.Invoke(
					startScheduleService,
					startServer,
				),
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

// coreOptions wires everything the poster and the router need.
func coreOptions() fx.Option {
	return fx.Options(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideHTTPClient,
			provideAWSConfig,
			provideMediaService,
			provideRecordStore,
			provideChatProvider,
			provideResponder,
			provideWeather,
			provideLineClient,
			providePoster,
			provideRouter,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	)
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideHTTPClient(cfg config.Config) *http.Client {
	return &http.Client{Timeout: cfg.HTTP.Timeout()}
}

func provideAWSConfig(cfg config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWS.Region),
	}
	if cfg.AWS.AccessKeyID != "" && cfg.AWS.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

func provideMediaService(log *slog.Logger, cfg config.Config, awsCfg aws.Config) (*media.Service, error) {
	var provider media.StorageProvider
	switch strings.ToLower(strings.TrimSpace(cfg.Media.Provider)) {
	case "local":
		p, err := localfs.New(cfg.Media.LocalRoot, cfg.Media.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("init media provider: %w", err)
		}
		provider = p
	case "", "s3":
		client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
			if cfg.AWS.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
				o.UsePathStyle = true
			}
		})
		p, err := s3provider.New(client, cfg.Media.Bucket, cfg.AWS.Region, cfg.Media.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("init media provider: %w", err)
		}
		provider = p
	default:
		return nil, fmt.Errorf("unknown media provider %q", cfg.Media.Provider)
	}
	return media.NewService(log, provider, cfg.Media.RawMarker), nil
}

func provideRecordStore(lc fx.Lifecycle, cfg config.Config, awsCfg aws.Config) (record.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Record.Backend)) {
	case "", "dynamodb":
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.AWS.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
			}
		})
		return record.NewDynamoStore(client, cfg.Record.Table)
	case "postgres":
		store, err := record.NewPostgresStore(context.Background(), cfg.Record.PostgresDSN)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error {
			store.Close()
			return nil
		}})
		return store, nil
	case "sqlite":
		store, err := record.OpenSQLite(cfg.Record.SQLitePath)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return store.Close() }})
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", record.ErrUnknownBackend, cfg.Record.Backend)
	}
}

func provideChatProvider(cfg config.Config, httpClient *http.Client) (chat.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Chat.Provider)) {
	case "", "azure":
		return chat.NewAzureProvider(cfg.Chat.APIKey, cfg.Chat.Endpoint, cfg.Chat.Deployment, cfg.Chat.APIVersion, httpClient), nil
	case "openai":
		return chat.NewOpenAIProvider(cfg.Chat.APIKey, cfg.Chat.BaseURL, httpClient), nil
	case "gemini":
		model := cfg.Chat.Model
		if model == "" {
			model = config.DefaultGeminiModel
		}
		return chat.NewGeminiProvider(cfg.Chat.APIKey, model), nil
	default:
		return nil, fmt.Errorf("unknown chat provider %q", cfg.Chat.Provider)
	}
}

func provideResponder(log *slog.Logger, cfg config.Config, provider chat.Provider) (*chat.Responder, error) {
	prompts, err := chat.LoadPrompts(cfg.Chat.PromptsFile)
	if err != nil {
		return nil, err
	}
	return chat.NewResponder(log, provider, prompts, chat.ResponderOptions{
		Model:       cfg.Chat.Model,
		MaxTokens:   cfg.Chat.MaxTokens,
		Temperature: cfg.Chat.Temperature,
	}), nil
}

func provideWeather(cfg config.Config, httpClient *http.Client) *weather.Client {
	return &weather.Client{
		BaseURL:    cfg.Weather.BaseURL,
		IconFormat: cfg.Weather.IconURL,
		APIKey:     cfg.Weather.APIKey,
		Latitude:   cfg.Weather.Latitude,
		Longitude:  cfg.Weather.Longitude,
		Client:     httpClient,
	}
}

func provideLineClient(log *slog.Logger, cfg config.Config, httpClient *http.Client) (*line.Client, error) {
	return line.NewClient(log, cfg.Line.ChannelToken, cfg.Line.Endpoint, httpClient)
}

func providePoster(log *slog.Logger, cfg config.Config, images *media.Service, weatherClient *weather.Client, responder *chat.Responder, lineClient *line.Client, store record.Store) *poster.Service {
	return poster.NewService(log, images, weatherClient, responder, lineClient, store, cfg.Record.PublisherID)
}

func provideRouter(log *slog.Logger, cfg config.Config, images *media.Service, responder *chat.Responder, store record.Store, lineClient *line.Client) *inbound.Router {
	return inbound.NewRouter(log, images, responder, store, lineClient, inbound.Options{
		ChannelSecret: cfg.Line.ChannelSecret,
		PublisherID:   cfg.Record.PublisherID,
		CarouselLimit: cfg.Carousel.Limit,
		AltText:       cfg.Carousel.AltText,
		Location:      cfg.Carousel.Location(),
	})
}

func provideSchedule(log *slog.Logger, cfg config.Config, svc *poster.Service) *schedule.Service {
	return schedule.NewService(log, svc, cfg.Schedule.Cron, cfg.Carousel.Location())
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.ServerHandlers...)
}

func startScheduleService(lc fx.Lifecycle, scheduleService *schedule.Service) {
	lc.Append(fx.Hook{
		OnStart: scheduleService.Start,
		OnStop:  scheduleService.Stop,
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner, cfg config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting sprout", slog.String("version", version), slog.String("addr", cfg.Server.Addr))
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
