package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Server     Server     `yaml:"server"`
	Logger     Logger     `yaml:"logger"`
	PostgresDB PostgresDB `yaml:"db"`
	Auth       Auth       `yaml:"auth"`
	RedisCache RedisCache `yaml:"rdb"`
	Admin      Admin      `yaml:"admin"`
}

type Server struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

type Logger struct {
	Level     string   `yaml:"level"`
	Output    []string `yaml:"output"`
	ErrOutput []string `yaml:"errOutput"`
}

type PostgresDB struct {
	Addr     string `yaml:"addr"`
	Username string `env:"POSTGRES_USER"     env-required:"true" yaml:"username"`
	Password string `env:"POSTGRES_PASSWORD" yaml:"password"`
	DB       string `env:"POSTGRES_DB"       env-required:"true" yaml:"db"`
	SSLmode  string `yaml:"sslmode"`
	MaxConns string `yaml:"maxConns"`
	Reload   bool   `yaml:"reload"`
	Version  int    `yaml:"version"`
}

// ConnString returns the pgxpool connection string.
func (p PostgresDB) ConnString() string {
	return "postgres://" + p.Username + ":" + p.Password + "@" +
		p.Addr + "/" + p.DB + "?" + "sslmode=" + p.SSLmode + "&pool_max_conns=" + p.MaxConns
}

type Auth struct {
	TTL    time.Duration `yaml:"ttl"`
	Secret string        `env:"SECRET" env-required:"true" yaml:"secret"`
}

type RedisCache struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	ExpTime  time.Duration `yaml:"exp"`
}

// Admin describes the superuser ensured at startup. Empty Username disables it.
type Admin struct {
	Username string `yaml:"username"`
	Password string `env:"ADMIN_PASSWORD" yaml:"password"`
	Email    string `yaml:"email"`
}

func New(configPath string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config error: %w", err)
	}

	return cfg, nil
}
