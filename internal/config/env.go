package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"fxbot/internal/logger"
)

// LoadDotEnv loads each existing file into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
		logger.Debugf("config: loaded env file %s", p)
	}
	return nil
}

func applyEnv(c *Config) {
	override(&c.Broker.Token, EnvOandaToken)
	override(&c.Broker.AccountID, EnvOandaAccount)
	override(&c.Notifier.Telegram.BotToken, EnvTelegramToken)
	override(&c.Notifier.Telegram.ChatID, EnvTelegramChat)
	override(&c.App.LogLevel, EnvLogLevel)
}

func override(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

// Path returns the config path from FXBOT_CONFIG, or fallback.
func Path(fallback string) string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	return fallback
}
