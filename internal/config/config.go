package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxBodyBytes int64
	RateBurst    int
	RatePerSec   int
}

type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
	Issuer      string
}

type GenerationConfig struct {
	// CompletionDelay is how long a session stays in "processing" before the
	// deferred completion fires.
	CompletionDelay    time.Duration
	VideoDelay         time.Duration
	ProcessingDeadline time.Duration
	ReaperSchedule     string
	CDNBaseURL         string
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type AppConfig struct {
	Environment string
	HTTP        HTTPConfig
	Auth        AuthConfig
	Generation  GenerationConfig
	Postgres    PostgresConfig
}

// Load reads configuration from an optional config.yaml plus SOCIALLOOM_*
// environment variables, applying defaults for anything unset.
func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("SOCIALLOOM")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Auth.TokenSecret == "" {
		return nil, fmt.Errorf("auth.tokensecret is required (SOCIALLOOM_AUTH_TOKENSECRET)")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "15s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")
	v.SetDefault("http.maxbodybytes", 1<<20)
	v.SetDefault("http.rateburst", 20)
	v.SetDefault("http.ratepersec", 10)

	v.SetDefault("auth.tokenttl", "24h")
	v.SetDefault("auth.issuer", "socialloom")

	v.SetDefault("generation.completiondelay", "3s")
	v.SetDefault("generation.videodelay", "5s")
	v.SetDefault("generation.processingdeadline", "5m")
	v.SetDefault("generation.reaperschedule", "0 * * * * *")
	v.SetDefault("generation.cdnbaseurl", "https://cdn.socialloom.io")

	v.SetDefault("postgres.maxopen", 10)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")
}
