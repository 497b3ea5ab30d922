// Package config resolves service settings from defaults, the environment
// (including a .env file loaded by the binary) and command line flags.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"ai-patient/internal/llm"
)

// Keys understood by New and Load.  Flags bind to the same keys.
const (
	KeyAddr            = "addr"
	KeyScenariosDir    = "scenarios_dir"
	KeyLLMProvider     = "llm_provider"
	KeyOpenAIAPIKey    = "openai_api_key"
	KeyOpenAIBaseURL   = "openai_base_url"
	KeyOpenAIModel     = "openai_model"
	KeyLLMTimeout      = "llm_timeout"
	KeyHistoryCap      = "history_cap"
	KeyRateLimitRPS    = "rate_limit_rps"
	KeyRateLimitBurst  = "rate_limit_burst"
	KeyCORSOrigins     = "cors_origins"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
	KeyShutdownTimeout = "shutdown_timeout"
)

// Config holds the resolved settings.
type Config struct {
	Addr         string
	ScenariosDir string

	// LLMProvider is "openai" or "mock".
	LLMProvider   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	LLMTimeout    time.Duration

	// HistoryCap keeps only the newest N messages per conversation.  Zero
	// keeps everything.
	HistoryCap int

	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string

	LogLevel  string
	LogFormat string

	ShutdownTimeout time.Duration
}

// New returns a viper instance with defaults set and every key bound to
// its environment variable.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyScenariosDir, "scenarios")
	v.SetDefault(KeyLLMProvider, llm.ProviderOpenAI)
	v.SetDefault(KeyOpenAIModel, llm.DefaultModel)
	v.SetDefault(KeyLLMTimeout, time.Duration(0))
	v.SetDefault(KeyHistoryCap, 0)
	v.SetDefault(KeyRateLimitRPS, 0.0)
	v.SetDefault(KeyRateLimitBurst, 10)
	v.SetDefault(KeyCORSOrigins, "*")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyShutdownTimeout, 10*time.Second)

	// ADDR wins over PORT when both are set.
	_ = v.BindEnv(KeyAddr, "ADDR", "PORT")
	for _, key := range []string{
		KeyScenariosDir, KeyLLMProvider, KeyOpenAIAPIKey, KeyOpenAIBaseURL, KeyOpenAIModel,
		KeyLLMTimeout, KeyHistoryCap, KeyRateLimitRPS, KeyRateLimitBurst,
		KeyCORSOrigins, KeyLogLevel, KeyLogFormat, KeyShutdownTimeout,
	} {
		_ = v.BindEnv(key, strings.ToUpper(key))
	}
	return v
}

// Load reads the settings out of v and validates them.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Addr:            normalizeAddr(v.GetString(KeyAddr)),
		ScenariosDir:    v.GetString(KeyScenariosDir),
		LLMProvider:     strings.ToLower(strings.TrimSpace(v.GetString(KeyLLMProvider))),
		OpenAIAPIKey:    strings.TrimSpace(v.GetString(KeyOpenAIAPIKey)),
		OpenAIBaseURL:   v.GetString(KeyOpenAIBaseURL),
		OpenAIModel:     v.GetString(KeyOpenAIModel),
		LLMTimeout:      v.GetDuration(KeyLLMTimeout),
		HistoryCap:      v.GetInt(KeyHistoryCap),
		RateLimitRPS:    v.GetFloat64(KeyRateLimitRPS),
		RateLimitBurst:  v.GetInt(KeyRateLimitBurst),
		CORSOrigins:     splitList(v.GetString(KeyCORSOrigins)),
		LogLevel:        v.GetString(KeyLogLevel),
		LogFormat:       strings.ToLower(v.GetString(KeyLogFormat)),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.  The API key is
// checked by the completion client, so commands that never call the model
// can run without one.
func (c *Config) Validate() error {
	switch {
	case c.HistoryCap < 0:
		return errors.Errorf("%s must not be negative", strings.ToUpper(KeyHistoryCap))
	case c.RateLimitRPS < 0:
		return errors.Errorf("%s must not be negative", strings.ToUpper(KeyRateLimitRPS))
	case c.LLMTimeout < 0:
		return errors.Errorf("%s must not be negative", strings.ToUpper(KeyLLMTimeout))
	case c.ShutdownTimeout <= 0:
		return errors.Errorf("%s must be positive", strings.ToUpper(KeyShutdownTimeout))
	case c.LLMProvider != llm.ProviderOpenAI && c.LLMProvider != llm.ProviderMock:
		return errors.Errorf("%s must be %s or %s, got %q", strings.ToUpper(KeyLLMProvider), llm.ProviderOpenAI, llm.ProviderMock, c.LLMProvider)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return errors.Errorf("%s must be text or json, got %q", strings.ToUpper(KeyLogFormat), c.LogFormat)
	}
	return nil
}

// normalizeAddr accepts a bare port, as PORT is usually given.
func normalizeAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr != "" && !strings.Contains(addr, ":") {
		return ":" + addr
	}
	return addr
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
