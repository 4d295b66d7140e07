package config

import (
	"os"

	"github.com/joho/godotenv"
)

// ApplyEnv overlays credentials from the environment, loading a .env file
// first when one exists. Environment values win over YAML so secrets stay out
// of committed config files.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	setIfPresent(&c.Broker.AppID, "FYERS_APP_ID")
	setIfPresent(&c.Broker.AccessToken, "FYERS_ACCESS_TOKEN")
	setIfPresent(&c.Broker.APIKey, "ANGEL_API_KEY")
	setIfPresent(&c.Broker.JWT, "ANGEL_JWT")
	setIfPresent(&c.Alerts.TelegramToken, "TELEGRAM_TOKEN")
	setIfPresent(&c.Alerts.TelegramChatID, "TELEGRAM_CHAT_ID")
	setIfPresent(&c.Alerts.EmailAddress, "EMAIL_ADDRESS")
	setIfPresent(&c.Alerts.EmailPassword, "EMAIL_PASSWORD")
}

func setIfPresent(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
