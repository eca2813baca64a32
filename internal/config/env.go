package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Env is the runtime environment: everything that varies per machine
// rather than per policy. Loaded from the process environment with an
// optional .env file on top.
type Env struct {
	ListenAddr string
	StorePath  string
	LogLevel   string
	LogFormat  string
}

// LoadEnv reads the environment, loading .env from the current
// directory first if one exists. A missing .env is not an error.
func LoadEnv(envPath ...string) (Env, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return Env{}, err
		}
	} else {
		_ = godotenv.Load()
	}

	return Env{
		ListenAddr: getEnvOrDefault("LISTEN_ADDR", ":8080"),
		StorePath:  getEnvOrDefault("STORE_PATH", "splitbooks.db"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		LogFormat:  os.Getenv("LOG_FORMAT"),
	}, nil
}

func getEnvOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Logger builds a slog logger per LOG_LEVEL and LOG_FORMAT (json|text,
// default json).
func (e Env) Logger() *slog.Logger {
	level := parseLogLevel(e.LogLevel)
	if strings.ToLower(strings.TrimSpace(e.LogFormat)) == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func parseLogLevel(s string) slog.Leveler {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR", "ERR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
