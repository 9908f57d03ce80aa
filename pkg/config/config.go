package config

import (
	"encoding/json"
	"os"

	"github.com/joho/godotenv"
	"github.com/snavid/tg-birthday-bot/pkg/logger"
)

type Config struct {
	Database  DatabaseConfig  `json:"database"`
	Telegram  TelegramConfig  `json:"telegram"`
	OpenAI    OpenAIConfig    `json:"openai"`
	Replicate ReplicateConfig `json:"replicate"`
	Logging   LoggingConfig   `json:"logging"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	Port     int    `json:"port"`
	SSLMode  string `json:"sslmode"`
}

// TelegramConfig carries one bot token per persona. The webhook
// dispatcher selects the persona by the secret token Telegram echoes
// back in the X-Telegram-Bot-Api-Secret-Token header.
type TelegramConfig struct {
	BirthdayToken   string `json:"birthday_token"`
	DictionaryToken string `json:"dictionary_token"`
	PhraseToken     string `json:"phrase_token"`
	VoiceToken      string `json:"voice_token"`

	BirthdaySecret   string `json:"birthday_secret"`
	DictionarySecret string `json:"dictionary_secret"`
	PhraseSecret     string `json:"phrase_secret"`
	VoiceSecret      string `json:"voice_secret"`

	ListenAddr string `json:"listen_addr"`

	// AdminCodeDigest is the hex sha256 of the elevation code accepted
	// by the "!admin <code> <target>" command.
	AdminCodeDigest string `json:"admin_code_digest"`

	// GlobalRegistry makes listing and search span every owner's
	// records instead of only the caller's.
	GlobalRegistry bool `json:"global_registry"`
}

type OpenAIConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

type ReplicateConfig struct {
	APIToken string `json:"api_token"`
	Model    string `json:"model"`
}

type LoggingConfig struct {
	Level     string `json:"level"`
	File      string `json:"file"`
	GormLevel string `json:"gorm_level"`
}

var AppConfig Config

func LoadConfig(filename string) error {
	// Missing .env is fine; the config file plus real environment
	// variables are enough on a deployed host.
	_ = godotenv.Load()

	file, err := os.Open(filename)
	if err != nil {
		logger.Error("failed to open config file", "error", err)
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&AppConfig); err != nil {
		logger.Error("failed to decode config file", "error", err)
		return err
	}

	applyEnvOverrides(&AppConfig)
	return nil
}

// applyEnvOverrides lets secrets come from the environment so the
// config file can be committed without them.
func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Database.Password, "DB_PASSWORD")
	overrideString(&cfg.Telegram.BirthdayToken, "TELEGRAM_BIRTHDAY_BOT_TOKEN")
	overrideString(&cfg.Telegram.DictionaryToken, "TELEGRAM_DICTIONARY_BOT_TOKEN")
	overrideString(&cfg.Telegram.PhraseToken, "TELEGRAM_PHRASE_BOT_TOKEN")
	overrideString(&cfg.Telegram.VoiceToken, "TELEGRAM_VOICE_BOT_TOKEN")
	overrideString(&cfg.Telegram.AdminCodeDigest, "ADMIN_CODE_DIGEST")
	overrideString(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	overrideString(&cfg.Replicate.APIToken, "REPLICATE_API_TOKEN")
}

func overrideString(target *string, envName string) {
	if value, ok := os.LookupEnv(envName); ok && value != "" {
		*target = value
	}
}
