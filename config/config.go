package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress    string        `mapstructure:"http_address"`
	RPCAddress     string        `mapstructure:"rpc_address"`
	MetricsAddress string        `mapstructure:"metrics_address"`
	Heartbeat      time.Duration `mapstructure:"heartbeat"`
	Development    bool          `mapstructure:"development"`
	LogLevel       string        `mapstructure:"log_level"`
}

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"` // gorm | postgres | memory
	Timeout  time.Duration  `mapstructure:"timeout"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// GameConfig 游戏参数
type GameConfig struct {
	Rows            int           `mapstructure:"rows"`
	Cols            int           `mapstructure:"cols"`
	MaxPlayers      int           `mapstructure:"max_players"`
	QueueLength     int           `mapstructure:"queue_length"`
	FrameDuration   time.Duration `mapstructure:"frame_duration"`
	FastMultiplier  float64       `mapstructure:"fast_multiplier"`
	MoveCooldown    time.Duration `mapstructure:"move_cooldown"`
	SpawnCooldown   time.Duration `mapstructure:"spawn_cooldown"`
	TimerResolution time.Duration `mapstructure:"timer_resolution"`
	Seed            int64         `mapstructure:"seed"` // 0 = time based
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":9090")
	v.SetDefault("server.metrics_address", ":9100")
	v.SetDefault("server.heartbeat", 30*time.Second)
	v.SetDefault("server.development", false)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.timeout", 5*time.Second)
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "tetris")
	v.SetDefault("database.postgres.sslmode", "disable")

	v.SetDefault("game.rows", 20)
	v.SetDefault("game.cols", 10)
	v.SetDefault("game.max_players", 4)
	v.SetDefault("game.queue_length", 64)
	v.SetDefault("game.frame_duration", time.Second/60)
	v.SetDefault("game.fast_multiplier", 0.5)
	v.SetDefault("game.move_cooldown", 30*time.Millisecond)
	v.SetDefault("game.spawn_cooldown", 200*time.Millisecond)
	v.SetDefault("game.timer_resolution", 10*time.Millisecond)
	v.SetDefault("game.seed", 0)
}

// LoadConfig reads config.yaml from path. A missing file is not an error:
// defaults and TETRIS_* environment variables apply.
func LoadConfig(path string) (config *Config, err error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("tetris")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	config = &Config{}
	if err = v.Unmarshal(config); err != nil {
		return nil, err
	}
	return config, config.Validate()
}

// Validate rejects values the game cannot run with.
func (c *Config) Validate() error {
	g := c.Game
	switch {
	case g.Rows < 4 || g.Cols < 4:
		return errors.New("game board must be at least 4x4")
	case g.MaxPlayers < 1:
		return errors.New("game.max_players must be positive")
	case g.QueueLength < 1:
		return errors.New("game.queue_length must be positive")
	case g.FrameDuration <= 0:
		return errors.New("game.frame_duration must be positive")
	case g.FastMultiplier <= 0:
		return errors.New("game.fast_multiplier must be positive")
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("server.log_level must be debug, info, warn or error")
	}
	switch c.Database.Driver {
	case "gorm", "postgres", "memory":
	default:
		return errors.New("database.driver must be gorm, postgres or memory")
	}
	return nil
}
