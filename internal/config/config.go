package config

import (
	"os"
	"time"

	"quiz-session-service/internal/game"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Library struct {
		TTL string `yaml:"ttl"` // read-cache TTL for keywords and themes
	} `yaml:"library"`
	Game struct {
		CooldownSeconds     int    `yaml:"cooldownSeconds"`
		CountdownStart      int    `yaml:"countdownStart"`
		KeywordHistoryLimit int    `yaml:"keywordHistoryLimit"`
		GlobalKeywordFetch  int    `yaml:"globalKeywordFetch"`
		TickInterval        string `yaml:"tickInterval"`
	} `yaml:"game"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// GameSettings maps the game section onto session settings, falling back to
// the defaults for unset fields.
func (c Config) GameSettings() game.Settings {
	settings := game.DefaultSettings()
	if c.Game.CooldownSeconds > 0 {
		settings.CooldownSeconds = c.Game.CooldownSeconds
	}
	if c.Game.CountdownStart > 0 {
		settings.CountdownStart = c.Game.CountdownStart
	}
	if c.Game.KeywordHistoryLimit > 0 {
		settings.KeywordHistoryLimit = c.Game.KeywordHistoryLimit
	}
	if c.Game.GlobalKeywordFetch > 0 {
		settings.GlobalKeywordFetch = c.Game.GlobalKeywordFetch
	}
	return settings
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
