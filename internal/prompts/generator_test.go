package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"onboarding-quiz-bot/internal/config"
)

func TestQuestionFormatting(t *testing.T) {
	g := New(config.DefaultMessages())

	assert.Equal(t, "السؤال (1): Name?", g.PersonalQuestion(1, config.Question{Text: "Name?"}))
	assert.Equal(t, "السؤال (2): Must follow rules? (صح/خطأ)", g.RuleQuestion(2, config.Question{Text: "Must follow rules?"}))
}

func TestRatingTexts(t *testing.T) {
	g := New(config.DefaultMessages())

	assert.Equal(t, "العضو: <@42>\nالتقييم: ⭐⭐⭐ (3 من 5)", g.RatingSummary("42", 3))
	assert.Equal(t, "شكراً لتقييمك: ⭐", g.RatingThanks(1))
	assert.Equal(t, "تم تعيين قناة التقييمات: <#99>", g.RatingChannelSet("99"))
	assert.Contains(t, g.MistakeLimit(5), "(5)")
}

func TestStars(t *testing.T) {
	assert.Equal(t, "", Stars(0))
	assert.Equal(t, "⭐⭐⭐⭐⭐", Stars(5))
}

func TestValidRating(t *testing.T) {
	for level := MinRating; level <= MaxRating; level++ {
		assert.True(t, ValidRating(level))
	}
	assert.False(t, ValidRating(0))
	assert.False(t, ValidRating(6))
}
