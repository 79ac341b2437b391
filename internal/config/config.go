package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel    string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat   string        `yaml:"log-format" env:"LOG_FORMAT" env-default:"json"`
	TCPPort     string        `yaml:"tcp-port" env:"TCP_PORT" env-default:"5001"`
	HTTPPort    string        `yaml:"http-port" env:"HTTP_PORT" env-default:""`
	ReadTimeout time.Duration `yaml:"read-timeout" env:"READ_TIMEOUT" env-default:"0s"`
	OutboxSize  int           `yaml:"outbox-size" env:"OUTBOX_SIZE" env-default:"64"`
	Board       Board         `yaml:"board"`
	Leaderboard Leaderboard   `yaml:"leaderboard"`
	Redis       Redis         `yaml:"redis"`
	Postgres    Postgres      `yaml:"postgres"`
}

type Board struct {
	MaxSize int `yaml:"max-size" env:"BOARD_MAX_SIZE" env-default:"15"`
}

type Leaderboard struct {
	Backend    string `yaml:"backend" env:"LEADERBOARD_BACKEND" env-default:"file"`
	Path       string `yaml:"path" env:"LEADERBOARD_PATH" env-default:"leaderboard.txt"`
	SQLitePath string `yaml:"sqlite-path" env:"LEADERBOARD_SQLITE_PATH" env-default:"leaderboard.db"`
	Top        int    `yaml:"top" env:"LEADERBOARD_TOP" env-default:"10"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-default:""`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-default:"tictactoe"`
	SSLMode  string `yaml:"sslmode" env:"POSTGRES_SSLMODE" env-default:"disable"`
}

var (
	ErrInvalidPort       = errors.New("port is required")
	ErrInvalidBackend    = errors.New("unknown leaderboard backend")
	ErrInvalidLogFormat  = errors.New("unknown log format")
	ErrInvalidOutboxSize = errors.New("outbox size must be positive")
	ErrInvalidBoardSize  = errors.New("board max-size must be 3 or at least 5")
)

// MustLoad - load all configurations from path, or from the environment alone when the file is missing.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config: %w", err))
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to read environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("unable to stat config file: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) Validate() error {
	if that.TCPPort == "" {
		return fmt.Errorf("tcp-port: %w", ErrInvalidPort)
	}

	switch that.LogFormat {
	case "json", "pretty":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, that.LogFormat)
	}

	switch that.Leaderboard.Backend {
	case "file", "redis", "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, that.Leaderboard.Backend)
	}

	if that.OutboxSize < 1 {
		return ErrInvalidOutboxSize
	}

	if that.Board.MaxSize != 3 && that.Board.MaxSize < 5 {
		return fmt.Errorf("%w: %d", ErrInvalidBoardSize, that.Board.MaxSize)
	}

	return nil
}
