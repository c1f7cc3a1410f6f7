package config

// DefaultAPIKeyEnv is the environment variable consulted for the ranking
// service credential when the config does not name one.
const DefaultAPIKeyEnv = "DAPNOTE_API_KEY"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Source.TimeoutSeconds == 0 {
		cfg.Source.TimeoutSeconds = 30
	}
	if cfg.Ranking.Model == "" {
		cfg.Ranking.Model = "gpt-4o-mini"
	}
	if cfg.Ranking.APIKeyEnv == "" {
		cfg.Ranking.APIKeyEnv = DefaultAPIKeyEnv
	}
	if cfg.Ranking.TimeoutSeconds == 0 {
		cfg.Ranking.TimeoutSeconds = 30
	}
}
