package discord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"onboarding-quiz-bot/internal/prompts"
)

// Имена slash-команд
const (
	CommandStartTest        = "starttest"
	CommandSetRatingChannel = "setlove"
)

const ratingButtonPrefix = "rate_"

// Цвета embed-сообщений
const (
	colorGreen = 0x57F287
	colorBlue  = 0x3498DB
)

// Intents, необходимые боту: slash-команды, личные сообщения и их текст
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// api описывает часть discordgo.Session, которую использует бот
type api interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// RatingButtonID возвращает custom_id кнопки оценки
func RatingButtonID(level int) string {
	return fmt.Sprintf("%s%d", ratingButtonPrefix, level)
}

// ParseRatingButton извлекает уровень оценки из custom_id
func ParseRatingButton(customID string) (int, bool) {
	if !strings.HasPrefix(customID, ratingButtonPrefix) {
		return 0, false
	}
	level, err := strconv.Atoi(strings.TrimPrefix(customID, ratingButtonPrefix))
	if err != nil || !prompts.ValidRating(level) {
		return 0, false
	}
	return level, true
}

// interactionUser возвращает автора взаимодействия на сервере или в личке
func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// isAdministrator проверяет право администратора у участника сервера
func isAdministrator(i *discordgo.Interaction) bool {
	if i.Member == nil {
		return false
	}
	return i.Member.Permissions&discordgo.PermissionAdministrator != 0
}
