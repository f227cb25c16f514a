package backend

// Config holds backend initialization parameters.
type Config struct {
	APIKey         string `json:"api_key,omitempty"`
	AssistantID    string `json:"assistant_id,omitempty"`
	BaseURL        string `json:"base_url,omitempty"`
	PollIntervalMs int    `json:"poll_interval_ms,omitempty"`
}

// DefaultConfig returns the default backend configuration (unconfigured).
func DefaultConfig() Config {
	return Config{}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.AssistantID != "" {
		c.AssistantID = source.AssistantID
	}
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.PollIntervalMs > 0 {
		c.PollIntervalMs = source.PollIntervalMs
	}
}

// Configured reports whether the config carries the credentials needed to
// reach a real backend.
func (c *Config) Configured() bool {
	return c.APIKey != "" && c.AssistantID != ""
}

// New creates a Backend from configuration. Returns nil when the config
// is not fully populated, indicating the service should report itself as
// unconfigured rather than fail at startup.
func New(cfg *Config) (Backend, error) {
	if !cfg.Configured() {
		return nil, nil
	}
	return NewOpenAIBackend(cfg), nil
}
