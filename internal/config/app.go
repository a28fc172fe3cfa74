package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type AppConfig struct {
	Discord   DiscordConfig
	Server    ServerConfig
	Interview InterviewConfig
	LogLevel  string
}

type DiscordConfig struct {
	Token   string
	GuildID string
}

type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

// InterviewConfig содержит параметры прохождения теста
type InterviewConfig struct {
	QuestionsPath string
	AnswerTimeout time.Duration
	MistakeLimit  int
}

func LoadAppConfig() *AppConfig {
	return &AppConfig{
		Discord: DiscordConfig{
			// TOKEN оставлен для совместимости со старыми .env
			Token:   getEnv("DISCORD_TOKEN", getEnv("TOKEN", "")),
			GuildID: getEnv("DISCORD_GUILD_ID", ""),
		},
		Server: ServerConfig{
			Port:            getEnvAsInt("PORT", 3000),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Interview: InterviewConfig{
			QuestionsPath: getEnv("QUESTIONS_PATH", "questions.json"),
			AnswerTimeout: getEnvAsDuration("ANSWER_TIMEOUT", 5*time.Minute),
			MistakeLimit:  getEnvAsInt("MISTAKE_LIMIT", 5),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate проверяет обязательные параметры окружения
func (c *AppConfig) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN не установлен")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT должен быть в диапазоне 1-65535, получен %d", c.Server.Port)
	}
	if c.Interview.AnswerTimeout <= 0 {
		return fmt.Errorf("ANSWER_TIMEOUT должен быть больше 0")
	}
	if c.Interview.MistakeLimit <= 0 {
		return fmt.Errorf("MISTAKE_LIMIT должен быть больше 0")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
