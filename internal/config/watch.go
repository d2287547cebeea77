package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"fxbot/internal/logger"
)

// Watch re-reads path whenever it changes on disk and calls onChange with
// the freshly validated configuration. Invalid edits are logged and
// ignored; the previous configuration stays in effect.
func Watch(path string, onChange func(*Config)) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config watch requires a path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) {
			return
		}
		cfg, err := Load(path)
		if err != nil {
			logger.Errorf("config reload failed (%s): %v", evt.Name, err)
			return
		}
		logger.Infof("config reloaded from %s", evt.Name)
		if onChange != nil {
			onChange(cfg)
		}
	})
	v.WatchConfig()
	return nil
}

// ApplyLogLevel is the default reload hook: only the log level is hot.
func ApplyLogLevel(cfg *Config) {
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("log level now %s", cfg.App.LogLevel)
}
