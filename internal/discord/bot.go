package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"onboarding-quiz-bot/internal/interviewer"
	"onboarding-quiz-bot/internal/notifier"
	"onboarding-quiz-bot/internal/storage"
)

var (
	_ interviewer.Messenger = (*Bot)(nil)
	_ notifier.Publisher    = (*Bot)(nil)
)

// Bot представляет подключение к Discord
type Bot struct {
	session *discordgo.Session
	api     api
	router  *Router
	log     *logrus.Logger

	dmMu       sync.Mutex
	dmChannels map[string]string
}

// New создает бота с токеном. Соединение открывается методом Open.
func New(token string, log *logrus.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания сессии Discord: %w", err)
	}
	session.Identify.Intents = Intents

	bot := newBot(session, log)
	bot.session = session
	return bot, nil
}

func newBot(client api, log *logrus.Logger) *Bot {
	return &Bot{
		api:        client,
		router:     NewRouter(),
		log:        log,
		dmChannels: make(map[string]string),
	}
}

// Open подключается к шлюзу Discord
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("ошибка подключения к Discord: %w", err)
	}
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// Ask реализует interviewer.Messenger
func (b *Bot) Ask(ctx context.Context, userID, text string, timeout time.Duration) interviewer.Reply {
	channelID, err := b.dmChannel(ctx, userID)
	if err != nil {
		b.log.WithError(err).WithField("user_id", userID).Debug("Не удалось открыть личный диалог")
		return interviewer.Reply{Outcome: interviewer.OutcomeUndeliverable}
	}

	// ожидание регистрируется до отправки, чтобы не пропустить быстрый ответ
	waiter := b.router.Expect(channelID, userID)
	if _, err := b.api.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		waiter.Cancel()
		b.forgetDM(userID)
		b.log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить вопрос")
		return interviewer.Reply{Outcome: interviewer.OutcomeUndeliverable}
	}

	return waiter.Await(ctx, timeout)
}

// Notify реализует interviewer.Messenger
func (b *Bot) Notify(ctx context.Context, userID, text string) error {
	return b.SendDM(ctx, userID, text)
}

// SendDM отправляет текст в личные сообщения пользователя
func (b *Bot) SendDM(ctx context.Context, userID, text string) error {
	channelID, err := b.dmChannel(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := b.api.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		b.forgetDM(userID)
		return fmt.Errorf("ошибка отправки сообщения: %w", err)
	}
	return nil
}

// SendRatingPrompt отправляет embed с пятью кнопками оценки
func (b *Bot) SendRatingPrompt(ctx context.Context, userID string, prompt notifier.RatingPrompt) (storage.MessageRef, error) {
	channelID, err := b.dmChannel(ctx, userID)
	if err != nil {
		return storage.MessageRef{}, err
	}

	buttons := make([]discordgo.MessageComponent, 0, len(prompt.Options))
	for _, opt := range prompt.Options {
		buttons = append(buttons, discordgo.Button{
			Label:    opt.Label,
			Style:    discordgo.SecondaryButton,
			CustomID: RatingButtonID(opt.Level),
		})
	}

	msg, err := b.api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       prompt.Title,
			Description: prompt.Description,
			Color:       colorGreen,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: buttons},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		b.forgetDM(userID)
		return storage.MessageRef{}, fmt.Errorf("ошибка отправки кнопок оценки: %w", err)
	}

	return storage.MessageRef{ChannelID: channelID, MessageID: msg.ID}, nil
}

// ResolveChannel проверяет, что канал существует и доступен боту
func (b *Bot) ResolveChannel(ctx context.Context, channelID string) error {
	if _, err := b.api.Channel(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("канал %s: %w", channelID, err)
	}
	return nil
}

// SendRatingSummary публикует оценку в канал оценок
func (b *Bot) SendRatingSummary(ctx context.Context, channelID string, summary notifier.RatingSummary) error {
	_, err := b.api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       summary.Title,
			Description: summary.Description,
			Color:       colorBlue,
			Timestamp:   summary.Timestamp.Format(time.RFC3339),
		}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ошибка публикации оценки: %w", err)
	}
	return nil
}

// RespondEphemeral отвечает на взаимодействие сообщением, видимым только автору
func (b *Bot) RespondEphemeral(i *discordgo.Interaction, content string) error {
	return b.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// dmChannel возвращает id личного диалога, открывая его при необходимости
func (b *Bot) dmChannel(ctx context.Context, userID string) (string, error) {
	b.dmMu.Lock()
	channelID, ok := b.dmChannels[userID]
	b.dmMu.Unlock()
	if ok {
		return channelID, nil
	}

	channel, err := b.api.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("ошибка открытия личного диалога: %w", err)
	}

	b.dmMu.Lock()
	b.dmChannels[userID] = channel.ID
	b.dmMu.Unlock()
	return channel.ID, nil
}

func (b *Bot) forgetDM(userID string) {
	b.dmMu.Lock()
	delete(b.dmChannels, userID)
	b.dmMu.Unlock()
}
