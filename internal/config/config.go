package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration decodes TOML strings like "100ms" or "2m" into a duration.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Network  NetworkConfig  `toml:"network"`
	Game     GameConfig     `toml:"game"`
	Balance  BalanceConfig  `toml:"balance"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	ID        int    `toml:"id"`
	StartTime int64  // set at boot, not from config
}

type DatabaseConfig struct {
	// DSN may be empty: the server then runs without profile persistence
	// (profiles live in memory for the session lifetime only).
	DSN             string   `toml:"dsn"`
	MaxOpenConns    int      `toml:"max_open_conns"`
	MaxIdleConns    int      `toml:"max_idle_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
}

type NetworkConfig struct {
	BindAddress        string   `toml:"bind_address"`
	TicketSecret       string   `toml:"ticket_secret"` // empty = guest joins allowed
	SendQueueSize      int      `toml:"send_queue_size"`
	InboundQueueSize   int      `toml:"inbound_queue_size"`
	MaxMessagesPerTick int      `toml:"max_messages_per_tick"`
	MessagesPerSecond  int      `toml:"messages_per_second"`
	WriteTimeout       Duration `toml:"write_timeout"`
	PongTimeout        Duration `toml:"pong_timeout"`
	MaxMessageBytes    int64    `toml:"max_message_bytes"`
}

type GameConfig struct {
	TickRate          Duration `toml:"tick_rate"`
	AutosaveInterval  Duration `toml:"autosave_interval"`
	PlacementAttempts int      `toml:"placement_attempts"`
	MinSeparation     float64  `toml:"min_separation"`
}

// BalanceConfig carries the combat/reward tunables. Values here are the
// global fallbacks; per-template values in the authoring data win when set.
type BalanceConfig struct {
	ClickCooldown           Duration `toml:"click_cooldown"`
	IdleReset               Duration `toml:"idle_reset"`
	HealthBroadcastInterval Duration `toml:"health_broadcast_interval"`
	ShakeThrottle           Duration `toml:"shake_throttle"`
	RespawnFallback         float64  `toml:"respawn_fallback"` // seconds
	DefaultClicksRequired   float64  `toml:"default_clicks_required"`
	BaseCritChance          float64  `toml:"base_crit_chance"` // percent
	BaseCritMultiplier      float64  `toml:"base_crit_multiplier"`
	BaseGemChance           float64  `toml:"base_gem_chance"`  // percent
	BonusGemChance          float64  `toml:"bonus_gem_chance"` // percent, 0 = disabled
	GemWeights              []int    `toml:"gem_weights"`      // weights for amounts 1..10
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

// Defaults returns the built-in configuration. Tests build engines from this
// so balance values double as the documented global tunables.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "rotclick",
			ID:   1,
		},
		Database: DatabaseConfig{
			DSN:             "",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: Duration(30 * time.Minute),
		},
		Network: NetworkConfig{
			BindAddress:        "0.0.0.0:8080",
			SendQueueSize:      256,
			InboundQueueSize:   1024,
			MaxMessagesPerTick: 64,
			MessagesPerSecond:  40,
			WriteTimeout:       Duration(10 * time.Second),
			PongTimeout:        Duration(60 * time.Second),
			MaxMessageBytes:    4096,
		},
		Game: GameConfig{
			TickRate:          Duration(100 * time.Millisecond),
			AutosaveInterval:  Duration(2 * time.Minute),
			PlacementAttempts: 250,
			MinSeparation:     2.0,
		},
		Balance: BalanceConfig{
			ClickCooldown:           Duration(100 * time.Millisecond),
			IdleReset:               Duration(10 * time.Second),
			HealthBroadcastInterval: Duration(500 * time.Millisecond),
			ShakeThrottle:           Duration(200 * time.Millisecond),
			RespawnFallback:         5,
			DefaultClicksRequired:   10,
			BaseCritChance:          0,
			BaseCritMultiplier:      2.0,
			BaseGemChance:           5,
			BonusGemChance:          0,
			GemWeights:              []int{30, 22, 16, 11, 8, 5, 4, 2, 1, 1},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
