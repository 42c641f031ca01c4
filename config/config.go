package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Game     GameConfig     `mapstructure:"game"`
	Script   ScriptConfig   `mapstructure:"script"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Debug          bool     `mapstructure:"debug"`
	AdminKey       string   `mapstructure:"admin_key"`
	AllowIPs       []string `mapstructure:"allow_ips"` // empty allows every client
	RateLimitRPS   float64  `mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type GameConfig struct {
	DataPath          string        `mapstructure:"data_path"`
	ActorCount        int           `mapstructure:"actor_count"`
	PlayerActor       int           `mapstructure:"player_actor"`
	TickMs            int           `mapstructure:"tick_ms"`
	AutosaveIntervalS int           `mapstructure:"autosave_interval_s"`
	QuicksaveTTL      time.Duration `mapstructure:"quicksave_ttl"`
}

// Tick returns the frame interval.
func (g GameConfig) Tick() time.Duration {
	return time.Duration(g.TickMs) * time.Millisecond
}

type ScriptConfig struct {
	EvalPoolSize int           `mapstructure:"eval_pool_size"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.allow_ips", []string{})
	v.SetDefault("server.rate_limit_rps", 50)
	v.SetDefault("server.rate_limit_burst", 100)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/actorai.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("game.data_path", "./data/game")
	v.SetDefault("game.actor_count", 100)
	v.SetDefault("game.player_actor", 0)
	v.SetDefault("game.tick_ms", 66)
	v.SetDefault("game.autosave_interval_s", 300)
	v.SetDefault("game.quicksave_ttl", "24h")
	v.SetDefault("script.eval_pool_size", 2)
	v.SetDefault("script.timeout", "200ms")
}
