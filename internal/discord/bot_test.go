package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-quiz-bot/internal/interviewer"
	"onboarding-quiz-bot/internal/logger"
	"onboarding-quiz-bot/internal/notifier"
)

type sentMessage struct {
	ChannelID string
	Content   string
	Complex   *discordgo.MessageSend
}

// fakeAPI записывает запросы к Discord вместо отправки по сети
type fakeAPI struct {
	mu        sync.Mutex
	sent      []sentMessage
	responses []*discordgo.InteractionResponse
	commands  []*discordgo.ApplicationCommand
	channels  map[string]bool
	dmErr     error
	sendErr   error
	nextID    int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{channels: make(map[string]bool)}
}

func (f *fakeAPI) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dmErr != nil {
		return nil, f.dmErr
	}
	return &discordgo.Channel{ID: "dm-" + recipientID, Type: discordgo.ChannelTypeDM}, nil
}

func (f *fakeAPI) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, sentMessage{ChannelID: channelID, Content: content})
	f.nextID++
	return &discordgo.Message{ID: fmt.Sprintf("msg-%d", f.nextID), ChannelID: channelID}, nil
}

func (f *fakeAPI) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, sentMessage{ChannelID: channelID, Complex: data})
	f.nextID++
	return &discordgo.Message{ID: fmt.Sprintf("msg-%d", f.nextID), ChannelID: channelID}, nil
}

func (f *fakeAPI) Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.channels[channelID] {
		return nil, errors.New("HTTP 404 Not Found")
	}
	return &discordgo.Channel{ID: channelID}, nil
}

func (f *fakeAPI) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeAPI) ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = commands
	return commands, nil
}

func (f *fakeAPI) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeAPI) replies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.responses))
	for _, r := range f.responses {
		out = append(out, r.Data.Content)
	}
	return out
}

func TestAskReturnsDeliveredAnswer(t *testing.T) {
	client := newFakeAPI()
	bot := newBot(client, logger.Discard())

	done := make(chan interviewer.Reply, 1)
	go func() {
		done <- bot.Ask(context.Background(), "u1", "Name?", time.Second)
	}()

	require.Eventually(t, func() bool { return bot.router.Pending() == 1 }, time.Second, time.Millisecond)
	assert.True(t, bot.router.Deliver("dm-u1", "u1", "Ahmed"))

	reply := <-done
	assert.Equal(t, interviewer.Reply{Outcome: interviewer.OutcomeAnswer, Text: "Ahmed"}, reply)
	require.Len(t, client.messages(), 1)
	assert.Equal(t, sentMessage{ChannelID: "dm-u1", Content: "Name?"}, client.messages()[0])
}

func TestAskUndeliverable(t *testing.T) {
	t.Run("dm closed", func(t *testing.T) {
		client := newFakeAPI()
		client.dmErr = errors.New("Cannot send messages to this user")
		bot := newBot(client, logger.Discard())

		reply := bot.Ask(context.Background(), "u1", "Name?", time.Second)
		assert.Equal(t, interviewer.OutcomeUndeliverable, reply.Outcome)
	})

	t.Run("send failed", func(t *testing.T) {
		client := newFakeAPI()
		client.sendErr = errors.New("Missing Access")
		bot := newBot(client, logger.Discard())

		reply := bot.Ask(context.Background(), "u1", "Name?", time.Second)
		assert.Equal(t, interviewer.OutcomeUndeliverable, reply.Outcome)
		assert.Equal(t, 0, bot.router.Pending())
	})
}

func TestAskTimeout(t *testing.T) {
	bot := newBot(newFakeAPI(), logger.Discard())

	reply := bot.Ask(context.Background(), "u1", "Name?", 10*time.Millisecond)
	assert.Equal(t, interviewer.OutcomeTimeout, reply.Outcome)
	assert.False(t, bot.router.Deliver("dm-u1", "u1", "late"))
}

func TestSendRatingPromptBuildsButtons(t *testing.T) {
	client := newFakeAPI()
	bot := newBot(client, logger.Discard())

	prompt := notifier.RatingPrompt{Title: "title", Description: "body"}
	for level := 1; level <= 5; level++ {
		prompt.Options = append(prompt.Options, notifier.RatingOption{Level: level, Label: fmt.Sprint(level)})
	}

	ref, err := bot.SendRatingPrompt(context.Background(), "u1", prompt)
	require.NoError(t, err)
	assert.Equal(t, "dm-u1", ref.ChannelID)
	assert.NotEmpty(t, ref.MessageID)

	msg := client.messages()[0].Complex
	require.NotNil(t, msg)
	require.Len(t, msg.Embeds, 1)
	assert.Equal(t, colorGreen, msg.Embeds[0].Color)

	require.Len(t, msg.Components, 1)
	row, ok := msg.Components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 5)
	for i, c := range row.Components {
		button := c.(discordgo.Button)
		assert.Equal(t, RatingButtonID(i+1), button.CustomID)
		assert.Equal(t, discordgo.SecondaryButton, button.Style)
	}
}

func TestResolveChannel(t *testing.T) {
	client := newFakeAPI()
	client.channels["staff"] = true
	bot := newBot(client, logger.Discard())

	assert.NoError(t, bot.ResolveChannel(context.Background(), "staff"))
	assert.Error(t, bot.ResolveChannel(context.Background(), "deleted"))
}

func TestSendRatingSummaryEmbed(t *testing.T) {
	client := newFakeAPI()
	bot := newBot(client, logger.Discard())
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := bot.SendRatingSummary(context.Background(), "staff", notifier.RatingSummary{
		Title:       "rating",
		Description: "desc",
		Timestamp:   ts,
	})
	require.NoError(t, err)

	sent := client.messages()[0]
	assert.Equal(t, "staff", sent.ChannelID)
	embed := sent.Complex.Embeds[0]
	assert.Equal(t, colorBlue, embed.Color)
	assert.Equal(t, "2024-05-01T12:00:00Z", embed.Timestamp)
}

func TestRespondEphemeral(t *testing.T) {
	client := newFakeAPI()
	bot := newBot(client, logger.Discard())

	require.NoError(t, bot.RespondEphemeral(&discordgo.Interaction{ID: "i1"}, "hello"))
	resp := client.responses[0]
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	assert.Equal(t, "hello", resp.Data.Content)
}
