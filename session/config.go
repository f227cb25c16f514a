package session

import "time"

// Defaults for the conversation budget and retention policy.
const (
	defaultMaxTokens      = 5000
	defaultWarnTokens     = 4500
	defaultReplyReserve   = 1000
	defaultMaxIdleMinutes = 24 * 60
)

// Config holds session budget and retention parameters.
type Config struct {
	MaxTokens      int `json:"max_tokens,omitempty"`       // hard conversation budget
	WarnTokens     int `json:"warn_tokens,omitempty"`      // one-shot warning threshold
	ReplyReserve   int `json:"reply_reserve,omitempty"`    // tokens reserved for the reply at admission
	MaxIdleMinutes int `json:"max_idle_minutes,omitempty"` // idle retention window
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		MaxTokens:      defaultMaxTokens,
		WarnTokens:     defaultWarnTokens,
		ReplyReserve:   defaultReplyReserve,
		MaxIdleMinutes: defaultMaxIdleMinutes,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.MaxTokens > 0 {
		c.MaxTokens = source.MaxTokens
	}
	if source.WarnTokens > 0 {
		c.WarnTokens = source.WarnTokens
	}
	if source.ReplyReserve > 0 {
		c.ReplyReserve = source.ReplyReserve
	}
	if source.MaxIdleMinutes > 0 {
		c.MaxIdleMinutes = source.MaxIdleMinutes
	}
}

// MaxIdle returns the idle retention window as a duration.
func (c *Config) MaxIdle() time.Duration {
	return time.Duration(c.MaxIdleMinutes) * time.Minute
}
