package discord

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-quiz-bot/internal/config"
	"onboarding-quiz-bot/internal/interviewer"
	"onboarding-quiz-bot/internal/logger"
	"onboarding-quiz-bot/internal/metrics"
	"onboarding-quiz-bot/internal/notifier"
	"onboarding-quiz-bot/internal/storage"
)

type handlerFixture struct {
	client  *fakeAPI
	bot     *Bot
	store   *storage.Store
	channel *config.RatingChannel
	metrics *metrics.Metrics
	handler *Handler
	msgs    config.Messages
}

func newHandlerFixture(t *testing.T, ctx context.Context) *handlerFixture {
	t.Helper()
	yes := true
	bank := &config.QuestionBank{
		Personal: []config.Question{{Text: "Name?", Kind: config.KindText}},
		Rules:    []config.Question{{Text: "Respect members?", Kind: config.KindBoolean, Expected: &yes}},
		Messages: config.DefaultMessages(),
	}

	f := &handlerFixture{
		client:  newFakeAPI(),
		store:   storage.NewStore(),
		channel: config.NewRatingChannel(),
		metrics: metrics.NewMetrics(),
		msgs:    bank.Messages,
	}
	f.bot = newBot(f.client, logger.Discard())

	notifierService := notifier.New(f.store, f.channel, f.bot, bank.Messages, f.metrics, logger.Discard())
	interviewerService := interviewer.New(f.store, bank, f.bot, notifierService, interviewer.Options{
		AnswerTimeout: time.Second,
		Logger:        logger.Discard(),
		Metrics:       f.metrics,
	})
	f.handler = NewHandler(ctx, f.bot, f.store, interviewerService, notifierService, f.channel, bank.Messages, HandlerOptions{
		Logger: logger.Discard(),
	})
	return f
}

func command(name, userID, channelID string, perms int64) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        "cmd-" + name,
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: channelID,
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID}, Permissions: perms},
		Data:      discordgo.ApplicationCommandInteractionData{Name: name},
	}}
}

func button(userID string, level int, messageID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:      "btn",
		Type:    discordgo.InteractionMessageComponent,
		User:    &discordgo.User{ID: userID},
		Message: &discordgo.Message{ID: messageID},
		Data:    discordgo.MessageComponentInteractionData{CustomID: RatingButtonID(level)},
	}}
}

func dm(userID, text string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: "dm-" + userID,
		Content:   text,
		Author:    &discordgo.User{ID: userID},
	}}
}

// answer дожидается вопроса и отвечает на него
func (f *handlerFixture) answer(t *testing.T, userID, text string) {
	t.Helper()
	require.Eventually(t, func() bool { return f.bot.router.Pending() == 1 }, time.Second, time.Millisecond)
	f.handler.onMessage(nil, dm(userID, text))
	require.Eventually(t, func() bool { return f.bot.router.Pending() == 0 }, time.Second, time.Millisecond)
}

func TestHandlerFullInterviewAndRating(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newHandlerFixture(t, ctx)

	f.handler.onInteraction(nil, command(CommandSetRatingChannel, "admin", "staff", discordgo.PermissionAdministrator))
	f.client.channels["staff"] = true
	assert.Equal(t, "staff", f.channel.Get())

	f.handler.onInteraction(nil, command(CommandStartTest, "u1", "general", 0))
	f.answer(t, "u1", "Ahmed")
	f.answer(t, "u1", "صح")
	f.handler.Wait()
	assert.Empty(t, f.bot.dmChannels, "finished interview drops the cached DM channel")

	session, ok := f.store.Get("u1")
	require.True(t, ok)
	require.Equal(t, storage.StageAwaitingRating, session.Stage)
	require.NotNil(t, session.PendingMessage)

	f.handler.onInteraction(nil, button("u1", 5, session.PendingMessage.MessageID))

	_, ok = f.store.Get("u1")
	assert.False(t, ok)

	var summary *discordgo.MessageSend
	for _, m := range f.client.messages() {
		if m.ChannelID == "staff" {
			summary = m.Complex
		}
	}
	require.NotNil(t, summary)
	assert.Contains(t, summary.Embeds[0].Description, "<@u1>")
	assert.Contains(t, summary.Embeds[0].Description, "(5 من 5)")

	assert.Equal(t, []string{
		"تم تعيين قناة التقييمات: <#staff>",
		f.msgs.TestStarted,
		"شكراً لتقييمك: ⭐⭐⭐⭐⭐",
	}, f.client.replies())

	snap := f.metrics.GetSnapshot()
	assert.EqualValues(t, 1, snap.InterviewsCompleted)
	assert.EqualValues(t, 1, snap.RatingsSubmitted)
}

func TestHandlerRejectsSecondStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newHandlerFixture(t, ctx)

	f.handler.onInteraction(nil, command(CommandStartTest, "u1", "general", 0))
	f.handler.onInteraction(nil, command(CommandStartTest, "u1", "general", 0))

	assert.Equal(t, []string{f.msgs.TestStarted, f.msgs.AlreadyInTest}, f.client.replies())

	cancel()
	f.handler.Wait()
	assert.Equal(t, 0, f.store.Len(), "canceled interview removes its session")
}

func TestHandlerRejectsStartDuringShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := newHandlerFixture(t, ctx)

	f.handler.onInteraction(nil, command(CommandStartTest, "u1", "general", 0))
	f.handler.Wait()

	assert.Equal(t, []string{f.msgs.ShuttingDown}, f.client.replies())
	assert.Empty(t, f.client.messages(), "no question is sent")
	assert.Equal(t, 0, f.store.Len())
}

func TestHandlerRejectsStartAfterWait(t *testing.T) {
	f := newHandlerFixture(t, context.Background())
	f.handler.Wait()

	f.handler.onInteraction(nil, command(CommandStartTest, "u1", "general", 0))

	assert.Equal(t, []string{f.msgs.ShuttingDown}, f.client.replies())
	assert.Equal(t, 0, f.store.Len())
}

func TestHandlerSetRatingChannelRequiresAdmin(t *testing.T) {
	f := newHandlerFixture(t, context.Background())

	f.handler.onInteraction(nil, command(CommandSetRatingChannel, "u1", "general", discordgo.PermissionSendMessages))

	assert.Empty(t, f.channel.Get())
	assert.Equal(t, []string{f.msgs.AdminOnly}, f.client.replies())
}

func TestHandlerRatingWithoutSession(t *testing.T) {
	f := newHandlerFixture(t, context.Background())

	f.handler.onInteraction(nil, button("ghost", 3, "msg-1"))

	assert.Equal(t, []string{f.msgs.RatingExpired}, f.client.replies())
}

func TestHandlerIgnoresBotMessages(t *testing.T) {
	f := newHandlerFixture(t, context.Background())
	waiter := f.bot.router.Expect("dm-u1", "u1")

	msg := dm("u1", "hi")
	msg.Author.Bot = true
	f.handler.onMessage(nil, msg)

	assert.Equal(t, 1, f.bot.router.Pending())
	assert.True(t, waiter.Cancel())
}

func TestHandlerRateLimitsCommands(t *testing.T) {
	f := newHandlerFixture(t, context.Background())

	for i := 0; i < 11; i++ {
		f.handler.onInteraction(nil, command(CommandSetRatingChannel, "u1", "general", 0))
	}

	replies := f.client.replies()
	require.Len(t, replies, 11)
	assert.Equal(t, f.msgs.RateLimited, replies[10])
}

func TestRegisterCommands(t *testing.T) {
	f := newHandlerFixture(t, context.Background())

	require.NoError(t, f.handler.registerCommands("app", "guild"))

	require.Len(t, f.client.commands, 2)
	assert.Equal(t, CommandStartTest, f.client.commands[0].Name)
	setlove := f.client.commands[1]
	assert.Equal(t, CommandSetRatingChannel, setlove.Name)
	require.NotNil(t, setlove.DefaultMemberPermissions)
	assert.Equal(t, int64(discordgo.PermissionAdministrator), *setlove.DefaultMemberPermissions)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	assert.True(t, rl.IsAllowed("u1"))
	assert.True(t, rl.IsAllowed("u1"))
	assert.False(t, rl.IsAllowed("u1"))
	assert.True(t, rl.IsAllowed("u2"))
}

func TestRateLimiterForgetsIdleUsers(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	for _, user := range []string{"u1", "u2", "u3"} {
		assert.True(t, rl.IsAllowed(user))
	}
	assert.Equal(t, 3, rl.Len())

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.IsAllowed("u4"))
	assert.Equal(t, 1, rl.Len())

	assert.True(t, rl.IsAllowed("u1"), "expired requests do not count")
}
