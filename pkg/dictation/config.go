package dictation

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/harunnryd/volcasr/pkg/asr"
	"github.com/harunnryd/volcasr/pkg/auth"
	"github.com/harunnryd/volcasr/pkg/configutil"
)

// Config is the file-level configuration for a dictation host.
type Config struct {
	Recognizer RecognizerConfig `mapstructure:"recognizer"`
	LogLevel   string           `mapstructure:"log_level"`
	LogFormat  string           `mapstructure:"log_format"`
}

// RecognizerConfig selects a recognition vendor and its free-form settings.
type RecognizerConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type volcengineSettings struct {
	AppID            string `mapstructure:"app_id"`
	Token            string `mapstructure:"token"`
	SecretKey        string `mapstructure:"secret_key"`
	AuthType         string `mapstructure:"auth_type"`
	Cluster          string `mapstructure:"cluster"`
	Endpoint         string `mapstructure:"endpoint"`
	Language         string `mapstructure:"language"`
	Workflow         string `mapstructure:"workflow"`
	SampleRate       *int   `mapstructure:"sample_rate"`
	Bits             *int   `mapstructure:"bits"`
	Channels         *int   `mapstructure:"channels"`
	ConnectTimeoutMS *int   `mapstructure:"connect_timeout_ms"`
	ChunkSize        *int   `mapstructure:"chunk_size"`
}

// LoadConfig reads a config file, applies defaults, and expands ${ENV}
// references in string values.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("recognizer.provider", "volcengine")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	cfg.LogLevel = os.ExpandEnv(cfg.LogLevel)
	cfg.LogFormat = os.ExpandEnv(cfg.LogFormat)
	cfg.Recognizer.Provider = os.ExpandEnv(cfg.Recognizer.Provider)
	cfg.Recognizer.Settings = expandSettings(cfg.Recognizer.Settings)

	if err := configutil.RequireString(cfg.Recognizer.Provider, "recognizer.provider"); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RecognizerFromSettings builds the vendor client config from the free-form
// settings map.
func RecognizerFromSettings(settings map[string]any) (asr.Config, error) {
	var s volcengineSettings
	if err := configutil.DecodeSettings(settings, &s); err != nil {
		return asr.Config{}, fmt.Errorf("decode recognizer settings: %w", err)
	}
	if err := configutil.RequireString(s.AppID, "recognizer.settings.app_id"); err != nil {
		return asr.Config{}, err
	}
	if err := configutil.RequireString(s.Token, "recognizer.settings.token"); err != nil {
		return asr.Config{}, err
	}
	if err := configutil.RequireString(s.Cluster, "recognizer.settings.cluster"); err != nil {
		return asr.Config{}, err
	}

	authType := auth.TypeToken
	switch strings.ToLower(strings.TrimSpace(s.AuthType)) {
	case "", "token":
	case "signature":
		authType = auth.TypeSignature
		if err := configutil.RequireString(s.SecretKey, "recognizer.settings.secret_key"); err != nil {
			return asr.Config{}, err
		}
	default:
		return asr.Config{}, fmt.Errorf("unknown auth_type %q", s.AuthType)
	}

	return asr.Config{
		AppID:          s.AppID,
		Token:          s.Token,
		SecretKey:      s.SecretKey,
		AuthType:       authType,
		Cluster:        s.Cluster,
		Endpoint:       s.Endpoint,
		Language:       s.Language,
		Workflow:       s.Workflow,
		SampleRate:     configutil.IntValue(s.SampleRate, 0),
		Bits:           configutil.IntValue(s.Bits, 0),
		Channels:       configutil.IntValue(s.Channels, 0),
		ConnectTimeout: time.Duration(configutil.IntValue(s.ConnectTimeoutMS, 0)) * time.Millisecond,
		ChunkSize:      configutil.IntValue(s.ChunkSize, 0),
	}, nil
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, val := range settings {
		if s, ok := val.(string); ok {
			settings[k] = os.ExpandEnv(s)
		}
	}
	return settings
}
