package config

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// YAML renders c as a config file. Credentials are masked.
func (c *Config) YAML() ([]byte, error) {
	out := *c
	out.Broker.Token = mask(out.Broker.Token)
	out.Notifier.Telegram.BotToken = mask(out.Notifier.Telegram.BotToken)
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DefaultYAML renders the built-in defaults.
func DefaultYAML() ([]byte, error) {
	return Default().YAML()
}

func mask(s string) string {
	if len(s) <= 4 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}
