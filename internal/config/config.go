package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-yaml/yaml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/totegamma/lobbywatch"
)

type Config struct {
	App    App    `yaml:"app" envPrefix:"LOBBYWATCH_"`
	Server Server `yaml:"server" envPrefix:"LOBBYWATCH_"`
	Steam  Steam  `yaml:"steam" envPrefix:"STEAM_"`
}

type App struct {
	// SteamUser is the local user's SteamID in any accepted text form.
	SteamUser     string        `yaml:"steamUser" env:"STEAM_USER"`
	CycleInterval time.Duration `yaml:"cycleInterval" env:"CYCLE_INTERVAL"`
	Debug         bool          `yaml:"debug" env:"DEBUG"`
	Console       bool          `yaml:"console" env:"CONSOLE"`
}

type Server struct {
	Listen        string `yaml:"listen" env:"LISTEN"`
	PostgresDsn   string `yaml:"postgresDsn" env:"POSTGRES_DSN"`
	RedisAddr     string `yaml:"redisAddr" env:"REDIS_ADDR"`
	RedisDB       int    `yaml:"redisDB" env:"REDIS_DB"`
	MemcachedAddr string `yaml:"memcachedAddr" env:"MEMCACHED_ADDR"`
	EnableTrace   bool   `yaml:"enableTrace" env:"ENABLE_TRACE"`
	TraceEndpoint string `yaml:"traceEndpoint" env:"TRACE_ENDPOINT"`
}

type Steam struct {
	APIKey   string        `yaml:"apiKey" env:"API_KEY"`
	BaseURL  string        `yaml:"baseURL" env:"BASE_URL"`
	CacheTTL time.Duration `yaml:"cacheTTL" env:"CACHE_TTL"`
}

func defaults() Config {
	return Config{
		App: App{
			CycleInterval: 10 * time.Second,
			Console:       true,
		},
		Server: Server{
			Listen:    ":3621",
			RedisAddr: "localhost:6379",
		},
		Steam: Steam{
			BaseURL:  "https://api.steampowered.com",
			CacheTTL: 30 * time.Minute,
		},
	}
}

// Load reads the YAML file at path, then applies a .env file and the
// process environment on top. A missing file leaves the defaults in place.
func Load(path string) (Config, error) {
	config := defaults()

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&config); err != nil {
			return Config{}, errors.Wrapf(err, "decode %s", path)
		}
	case os.IsNotExist(err):
	default:
		return Config{}, errors.Wrapf(err, "open %s", path)
	}

	// .env is optional
	_ = godotenv.Load()

	if err := env.Parse(&config); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}

	if config.App.CycleInterval <= 0 {
		return Config{}, errors.New("app.cycleInterval must be positive")
	}

	return config, nil
}

// User returns the configured local user, or nil when none is set.
func (c Config) User() (*lobbywatch.SteamID, error) {
	if c.App.SteamUser == "" {
		return nil, nil
	}
	id, err := lobbywatch.ParseSteamID(c.App.SteamUser)
	if err != nil {
		return nil, errors.Wrap(err, "app.steamUser")
	}
	return &id, nil
}
