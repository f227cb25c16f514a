package server

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/worklaw/counsel/backend"
	"github.com/worklaw/counsel/session"
	"github.com/worklaw/counsel/transcript"
)

const defaultListenAddr = ":5000"

// Config holds initialization parameters for all service subsystems.
// Each subsystem section delegates to that subsystem's config-driven
// constructor.
type Config struct {
	ListenAddr string            `json:"listen_addr,omitempty"`
	Backend    backend.Config    `json:"backend"`
	Session    session.Config    `json:"session"`
	Transcript transcript.Config `json:"transcript"`
}

// DefaultConfig returns a Config with sensible defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		ListenAddr: defaultListenAddr,
		Backend:    backend.DefaultConfig(),
		Session:    session.DefaultConfig(),
		Transcript: transcript.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	if source.ListenAddr != "" {
		c.ListenAddr = source.ListenAddr
	}
	c.Backend.Merge(&source.Backend)
	c.Session.Merge(&source.Session)
	c.Transcript.Merge(&source.Transcript)
}

// LoadConfig reads a JSON config file, merges it with defaults, and
// returns the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
