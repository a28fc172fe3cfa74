package discord

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"onboarding-quiz-bot/internal/config"
	"onboarding-quiz-bot/internal/interviewer"
	"onboarding-quiz-bot/internal/notifier"
	"onboarding-quiz-bot/internal/prompts"
	"onboarding-quiz-bot/internal/storage"
)

type RateLimiter struct {
	requests  map[string][]time.Time
	mutex     sync.Mutex
	limit     int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (rl *RateLimiter) IsAllowed(userID string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	rl.sweep(now)

	if requests, exists := rl.requests[userID]; exists {
		var valid []time.Time
		for _, t := range requests {
			if now.Sub(t) < rl.window {
				valid = append(valid, t)
			}
		}
		rl.requests[userID] = valid
	}

	if len(rl.requests[userID]) >= rl.limit {
		return false
	}

	rl.requests[userID] = append(rl.requests[userID], now)
	return true
}

// sweep раз в окно удаляет пользователей без свежих запросов
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	rl.lastSweep = now

	for userID, requests := range rl.requests {
		if len(requests) == 0 || now.Sub(requests[len(requests)-1]) >= rl.window {
			delete(rl.requests, userID)
		}
	}
}

// Len возвращает количество отслеживаемых пользователей
func (rl *RateLimiter) Len() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.requests)
}

// HandlerOptions содержит параметры обработчика событий
type HandlerOptions struct {
	// GuildID сервера для регистрации команд. Пустое значение означает
	// первый сервер, в котором состоит бот.
	GuildID string
	Logger  *logrus.Logger
}

// Handler обрабатывает slash-команды, кнопки оценки и личные сообщения
type Handler struct {
	bot         *Bot
	store       *storage.Store
	interviewer *interviewer.Service
	notifier    *notifier.Service
	channel     *config.RatingChannel
	prompts     *prompts.Generator
	rateLimiter *RateLimiter
	guildID     string
	log         *logrus.Logger

	ctx     context.Context
	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

func NewHandler(ctx context.Context, bot *Bot, store *storage.Store, interviewerService *interviewer.Service, notifierService *notifier.Service, channel *config.RatingChannel, msgs config.Messages, opts HandlerOptions) *Handler {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		bot:         bot,
		store:       store,
		interviewer: interviewerService,
		notifier:    notifierService,
		channel:     channel,
		prompts:     prompts.New(msgs),
		rateLimiter: NewRateLimiter(10, time.Minute),
		guildID:     opts.GuildID,
		log:         log,
		ctx:         ctx,
	}
}

// Register подписывает обработчик на события сессии Discord
func (h *Handler) Register() {
	h.bot.session.AddHandler(h.onReady)
	h.bot.session.AddHandler(h.onInteraction)
	h.bot.session.AddHandler(h.onMessage)
}

// Wait перестает принимать новые тесты и дожидается завершения запущенных
func (h *Handler) Wait() {
	h.mu.Lock()
	h.closing = true
	h.mu.Unlock()

	h.wg.Wait()
}

func (h *Handler) onReady(s *discordgo.Session, r *discordgo.Ready) {
	h.log.WithField("user", r.User.String()).Info("Бот подключен к Discord")

	guildID := h.guildID
	if guildID == "" && len(r.Guilds) > 0 {
		guildID = r.Guilds[0].ID
	}
	if guildID == "" {
		h.log.Error("Добавьте бота хотя бы на один сервер")
		return
	}

	if err := h.registerCommands(r.User.ID, guildID); err != nil {
		h.log.WithError(err).Error("Ошибка регистрации slash-команд")
		return
	}
	h.log.WithField("guild_id", guildID).Info("Slash-команды зарегистрированы")
}

// registerCommands перезаписывает набор команд сервера
func (h *Handler) registerCommands(appID, guildID string) error {
	_, err := h.bot.api.ApplicationCommandBulkOverwrite(appID, guildID, h.commands())
	return err
}

func (h *Handler) commands() []*discordgo.ApplicationCommand {
	adminOnly := int64(discordgo.PermissionAdministrator)
	inDM := false
	return []*discordgo.ApplicationCommand{
		{
			Name:        CommandStartTest,
			Description: h.prompts.Messages.StartCommandDescription,
		},
		{
			Name:                     CommandSetRatingChannel,
			Description:              h.prompts.Messages.RatingCommandDescription,
			DefaultMemberPermissions: &adminOnly,
			DMPermission:             &inDM,
		},
	}
}

func (h *Handler) onInteraction(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	i := ic.Interaction
	user := interactionUser(i)
	if user == nil {
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if !h.rateLimiter.IsAllowed(user.ID) {
			h.respond(i, h.prompts.Messages.RateLimited)
			return
		}
		h.handleCommand(i, user.ID)
	case discordgo.InteractionMessageComponent:
		h.handleButton(i, user.ID)
	}
}

// handleCommand обрабатывает slash-команды
func (h *Handler) handleCommand(i *discordgo.Interaction, userID string) {
	switch i.ApplicationCommandData().Name {
	case CommandStartTest:
		h.handleStartCommand(i, userID)
	case CommandSetRatingChannel:
		h.handleSetRatingChannelCommand(i, userID)
	}
}

// handleStartCommand создает сессию и запускает тест в отдельной горутине
func (h *Handler) handleStartCommand(i *discordgo.Interaction, userID string) {
	if !h.track() {
		h.respond(i, h.prompts.Messages.ShuttingDown)
		return
	}

	if _, err := h.store.Create(userID); err != nil {
		h.wg.Done()
		h.respond(i, h.prompts.Messages.AlreadyInTest)
		return
	}

	h.respond(i, h.prompts.Messages.TestStarted)

	go func() {
		defer h.wg.Done()
		defer h.bot.forgetDM(userID)
		h.interviewer.Run(h.ctx, userID)
	}()
}

// track учитывает новый тест в WaitGroup. Возвращает false во время остановки.
func (h *Handler) track() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closing || h.ctx.Err() != nil {
		return false
	}
	h.wg.Add(1)
	return true
}

// handleSetRatingChannelCommand назначает текущий канал каналом оценок
func (h *Handler) handleSetRatingChannelCommand(i *discordgo.Interaction, userID string) {
	if !isAdministrator(i) {
		h.respond(i, h.prompts.Messages.AdminOnly)
		return
	}

	h.channel.Set(i.ChannelID)
	h.log.WithFields(logrus.Fields{"user_id": userID, "channel_id": i.ChannelID}).Info("Канал оценок изменен")
	h.respond(i, h.prompts.RatingChannelSet(i.ChannelID))
}

// handleButton обрабатывает нажатие кнопки оценки
func (h *Handler) handleButton(i *discordgo.Interaction, userID string) {
	level, ok := ParseRatingButton(i.MessageComponentData().CustomID)
	if !ok {
		return
	}

	req := notifier.RatingRequest{UserID: userID, Level: level}
	if i.Message != nil {
		req.MessageID = i.Message.ID
	}

	reply, err := h.notifier.HandleRating(h.ctx, req)
	if err != nil {
		reply = h.notifier.ErrorText(err)
	}
	h.respond(i, reply)
}

// onMessage передает ответы пользователей ожидающим вопросам
func (h *Handler) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	h.bot.router.Deliver(m.ChannelID, m.Author.ID, m.Content)
}

func (h *Handler) respond(i *discordgo.Interaction, content string) {
	if err := h.bot.RespondEphemeral(i, content); err != nil {
		h.log.WithError(err).WithField("interaction_id", i.ID).Warn("Не удалось ответить на взаимодействие")
	}
}
