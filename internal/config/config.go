package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultConfigPath     = "config.toml"
	DefaultDotEnvPath     = ".env"
	DefaultHTTPAddr       = ":8080"
	DefaultAWSRegion      = "ap-northeast-1"
	DefaultBucket         = "bean-sprouts-growing"
	DefaultRawMarker      = "raw"
	DefaultRecordTable    = "line-bot-hands-on-table"
	DefaultPublisherID    = "o0001"
	DefaultSQLitePath     = "data/sprout.db"
	DefaultAzureDeploy    = "local"
	DefaultAzureVersion   = "2024-06-01"
	DefaultOpenAIBaseURL  = "https://api.openai.com/v1"
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultWeatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"
	DefaultWeatherIconURL = "https://openweathermap.org/img/wn/%s.png"
	DefaultLatitude       = 35.6968973
	DefaultLongitude      = 139.9197909
	DefaultTimeZone       = "Asia/Tokyo"
	DefaultCarouselLimit  = 5
	DefaultHTTPTimeout    = 60
)

type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	HTTP     HTTPConfig     `toml:"http"`
	Line     LineConfig     `toml:"line"`
	AWS      AWSConfig      `toml:"aws"`
	Media    MediaConfig    `toml:"media"`
	Record   RecordConfig   `toml:"record"`
	Chat     ChatConfig     `toml:"chat"`
	Weather  WeatherConfig  `toml:"weather"`
	Carousel CarouselConfig `toml:"carousel"`
	Schedule ScheduleConfig `toml:"schedule"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
	// PostToken, when set, is required as a bearer token on GET /post.
	PostToken string `toml:"post_token"`
}

type HTTPConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Timeout returns the outbound HTTP client timeout.
func (c HTTPConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultHTTPTimeout * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type LineConfig struct {
	ChannelToken  string `toml:"channel_token"`
	ChannelSecret string `toml:"channel_secret"`
	// Endpoint overrides the Messaging API base URL.
	Endpoint string `toml:"endpoint"`
}

type AWSConfig struct {
	Region          string `toml:"region"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	// Endpoint overrides the service endpoint (e.g. localstack).
	Endpoint string `toml:"endpoint"`
}

type MediaConfig struct {
	Provider  string `toml:"provider"` // s3 | local
	Bucket    string `toml:"bucket"`
	LocalRoot string `toml:"local_root"`
	RawMarker string `toml:"raw_marker"`
	// PublicBaseURL overrides the URL prefix used for broadcast images.
	PublicBaseURL string `toml:"public_base_url"`
}

type RecordConfig struct {
	Backend     string `toml:"backend"` // dynamodb | postgres | sqlite
	Table       string `toml:"table"`
	PublisherID string `toml:"publisher_id"`
	PostgresDSN string `toml:"postgres_dsn"`
	SQLitePath  string `toml:"sqlite_path"`
}

type ChatConfig struct {
	Provider    string  `toml:"provider"` // azure | openai | gemini
	APIKey      string  `toml:"api_key"`
	Endpoint    string  `toml:"endpoint"`
	Deployment  string  `toml:"deployment"`
	APIVersion  string  `toml:"api_version"`
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
	PromptsFile string  `toml:"prompts_file"`
}

type WeatherConfig struct {
	APIKey    string  `toml:"api_key"`
	BaseURL   string  `toml:"base_url"`
	IconURL   string  `toml:"icon_url"`
	Latitude  float64 `toml:"latitude"`
	Longitude float64 `toml:"longitude"`
}

type CarouselConfig struct {
	Limit    int    `toml:"limit"`
	TimeZone string `toml:"time_zone"`
	AltText  string `toml:"alt_text"`
}

// Location resolves the configured carousel time zone, falling back to UTC.
func (c CarouselConfig) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.TimeZone))
	if err != nil {
		return time.UTC
	}
	return loc
}

type ScheduleConfig struct {
	// Cron enables the in-process poster trigger when non-empty.
	Cron string `toml:"cron"`
}

func defaults() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		HTTP: HTTPConfig{
			TimeoutSeconds: DefaultHTTPTimeout,
		},
		AWS: AWSConfig{
			Region: DefaultAWSRegion,
		},
		Media: MediaConfig{
			Provider:  "s3",
			Bucket:    DefaultBucket,
			LocalRoot: "data/images",
			RawMarker: DefaultRawMarker,
		},
		Record: RecordConfig{
			Backend:     "dynamodb",
			Table:       DefaultRecordTable,
			PublisherID: DefaultPublisherID,
			SQLitePath:  DefaultSQLitePath,
		},
		Chat: ChatConfig{
			Provider:    "azure",
			Deployment:  DefaultAzureDeploy,
			APIVersion:  DefaultAzureVersion,
			BaseURL:     DefaultOpenAIBaseURL,
			MaxTokens:   4096,
			Temperature: 0.7,
		},
		Weather: WeatherConfig{
			BaseURL:   DefaultWeatherBaseURL,
			IconURL:   DefaultWeatherIconURL,
			Latitude:  DefaultLatitude,
			Longitude: DefaultLongitude,
		},
		Carousel: CarouselConfig{
			Limit:    DefaultCarouselLimit,
			TimeZone: DefaultTimeZone,
			AltText:  "bean-sprouts-list",
		},
	}
}

// Load reads configuration from defaults, an optional TOML file, an optional
// .env file and the process environment, in that order of precedence.
// Credentials are not required here; components fail when they are used
// without them.
func Load(path string) (Config, error) {
	return load(path, DefaultDotEnvPath)
}

func load(path, dotEnvPath string) (Config, error) {
	cfg := defaults()

	if path == "" {
		path = DefaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("decode %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}

	if dotEnvPath != "" {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(dotEnvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", dotEnvPath, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Server.Addr, "SERVER_ADDR")
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Server.Addr = ":" + port
	}
	setString(&cfg.Server.PostToken, "POST_TOKEN")

	setString(&cfg.Line.ChannelToken, "CHANNEL_TOKEN")
	setString(&cfg.Line.ChannelSecret, "CHANNEL_SECRET")

	setString(&cfg.AWS.Region, "AWS_REGION")
	setString(&cfg.AWS.AccessKeyID, "AWS_ACCESS_KEY_ID")
	setString(&cfg.AWS.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	setString(&cfg.AWS.Endpoint, "AWS_ENDPOINT_URL")

	setString(&cfg.Media.Bucket, "BUCKET_NAME")
	setString(&cfg.Record.Table, "DYNAMODB_TABLE_NAME")
	setString(&cfg.Record.PostgresDSN, "DATABASE_URL")

	setString(&cfg.Chat.APIKey, "AZURE_OPENAI_API_KEY")
	setString(&cfg.Chat.Endpoint, "AZURE_OPENAI_ENDPOINT")
	setString(&cfg.Chat.APIVersion, "OPENAI_API_VERSION")
	switch strings.ToLower(cfg.Chat.Provider) {
	case "openai":
		setString(&cfg.Chat.APIKey, "OPENAI_API_KEY")
	case "gemini":
		setString(&cfg.Chat.APIKey, "GEMINI_API_KEY")
	}

	setString(&cfg.Weather.APIKey, "OPEN_WEATHER_MAP_API_KEY")
	setString(&cfg.Schedule.Cron, "POST_CRON")

	if raw := strings.TrimSpace(os.Getenv("HTTP_TIMEOUT_SECONDS")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("HTTP_TIMEOUT_SECONDS: %w", err)
		}
		cfg.HTTP.TimeoutSeconds = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}
