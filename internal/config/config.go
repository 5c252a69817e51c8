package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"courtside/internal/domain"
)

// Runtime environment keys read from the Nakama runtime env.
const (
	EnvScorerSecret    = "courtside_scorer_secret"
	EnvTokenIssuer     = "courtside_token_issuer"
	EnvAutoplayEnabled = "courtside_autoplay_enabled"
)

const (
	DefaultTickRate              = 5
	DefaultScorerTokenTTLSeconds = 6 * 60 * 60
	DefaultAutoplayDelayTicks    = 5
	DefaultArchiveCollection     = "match_archive"
	DefaultIdleTimeoutSeconds    = 10 * 60
	DefaultScorerBurst           = 1
	DefaultTokenIssuer           = "courtside"
)

type ScoringConfig struct {
	DefaultFormat         domain.FormatID `json:"default_format"`
	TickRate              int             `json:"tick_rate"`
	ScorerTokenTTLSeconds int             `json:"scorer_token_ttl_seconds"`
	// AutoplayDelayTicks is how many ticks an autoplay match waits between points.
	AutoplayDelayTicks int               `json:"autoplay_delay_ticks"`
	ArchiveCollection  string            `json:"archive_collection"`
	AllowedFormats     []domain.FormatID `json:"allowed_formats"`
	// IdleTimeoutSeconds ends a match that has had no presences for this long.
	IdleTimeoutSeconds int `json:"idle_timeout_seconds"`
	// ScorerMinIntervalMillis throttles score and undo commands per scorer. Zero disables it.
	ScorerMinIntervalMillis int `json:"scorer_min_interval_ms"`
	ScorerBurst             int `json:"scorer_burst"`
}

// Defaults returns the configuration used when no file has been loaded.
func Defaults() ScoringConfig {
	return ScoringConfig{
		DefaultFormat:         domain.FormatBestOf3,
		TickRate:              DefaultTickRate,
		ScorerTokenTTLSeconds: DefaultScorerTokenTTLSeconds,
		AutoplayDelayTicks:    DefaultAutoplayDelayTicks,
		ArchiveCollection:     DefaultArchiveCollection,
		IdleTimeoutSeconds:    DefaultIdleTimeoutSeconds,
		ScorerBurst:           DefaultScorerBurst,
	}
}

var (
	cfg      *ScoringConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadScoringConfig loads the scoring configuration from the given path.
func LoadScoringConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read scoring config: %w", err)
			return
		}

		c, err := Parse(data)
		if err != nil {
			loadErr = err
			return
		}
		cfg = &c
	})
	return loadErr
}

// Parse decodes a scoring config and fills unset fields with defaults.
func Parse(data []byte) (ScoringConfig, error) {
	c := Defaults()
	if err := json.Unmarshal(data, &c); err != nil {
		return ScoringConfig{}, fmt.Errorf("failed to unmarshal scoring config: %w", err)
	}

	def := Defaults()
	if c.DefaultFormat == "" {
		c.DefaultFormat = def.DefaultFormat
	}
	if _, ok := domain.Format(c.DefaultFormat); !ok {
		return ScoringConfig{}, fmt.Errorf("unknown default format %q", c.DefaultFormat)
	}
	for _, id := range c.AllowedFormats {
		if _, ok := domain.Format(id); !ok {
			return ScoringConfig{}, fmt.Errorf("unknown allowed format %q", id)
		}
	}
	if c.TickRate <= 0 {
		c.TickRate = def.TickRate
	}
	if c.ScorerTokenTTLSeconds <= 0 {
		c.ScorerTokenTTLSeconds = def.ScorerTokenTTLSeconds
	}
	if c.AutoplayDelayTicks <= 0 {
		c.AutoplayDelayTicks = def.AutoplayDelayTicks
	}
	if c.ArchiveCollection == "" {
		c.ArchiveCollection = def.ArchiveCollection
	}
	if c.IdleTimeoutSeconds <= 0 {
		c.IdleTimeoutSeconds = def.IdleTimeoutSeconds
	}
	if c.ScorerMinIntervalMillis < 0 {
		c.ScorerMinIntervalMillis = 0
	}
	if c.ScorerBurst <= 0 {
		c.ScorerBurst = def.ScorerBurst
	}
	return c, nil
}

// GetScoringConfig returns the loaded configuration, or defaults when nothing was loaded.
func GetScoringConfig() ScoringConfig {
	if cfg == nil {
		return Defaults()
	}
	return *cfg
}

// ScorerMinInterval is ScorerMinIntervalMillis as a duration.
func (c ScoringConfig) ScorerMinInterval() time.Duration {
	return time.Duration(c.ScorerMinIntervalMillis) * time.Millisecond
}

// FormatAllowed reports whether id may be used to create a match.
func (c ScoringConfig) FormatAllowed(id domain.FormatID) bool {
	if _, ok := domain.Format(id); !ok {
		return false
	}
	if len(c.AllowedFormats) == 0 {
		return true
	}
	for _, allowed := range c.AllowedFormats {
		if allowed == id {
			return true
		}
	}
	return false
}

// Env holds the values taken from the runtime environment.
type Env struct {
	ScorerSecret    string
	TokenIssuer     string
	AutoplayEnabled bool
}

// EnvFrom reads the module settings out of the runtime env map.
func EnvFrom(env map[string]string) Env {
	e := Env{
		ScorerSecret: env[EnvScorerSecret],
		TokenIssuer:  strings.TrimSpace(env[EnvTokenIssuer]),
	}
	if e.TokenIssuer == "" {
		e.TokenIssuer = DefaultTokenIssuer
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(env[EnvAutoplayEnabled])); err == nil {
		e.AutoplayEnabled = v
	}
	return e
}
