package prompts

import (
	"fmt"
	"strings"

	"onboarding-quiz-bot/internal/config"
)

const (
	star = "⭐"

	MinRating = 1
	MaxRating = 5
)

// Generator собирает тексты сообщений бота из набора Messages
type Generator struct {
	Messages config.Messages
}

// New создает генератор сообщений
func New(msgs config.Messages) *Generator {
	return &Generator{Messages: msgs}
}

// PersonalQuestion форматирует личный вопрос с номером n (начиная с 1)
func (g *Generator) PersonalQuestion(n int, q config.Question) string {
	return fmt.Sprintf(g.Messages.QuestionPrompt, n, q.Text)
}

// RuleQuestion форматирует вопрос о правилах с подсказкой про صح/خطأ
func (g *Generator) RuleQuestion(n int, q config.Question) string {
	return fmt.Sprintf(g.Messages.QuestionPrompt, n, q.Text) + g.Messages.RuleSuffix
}

func (g *Generator) MistakeLimit(limit int) string {
	return fmt.Sprintf(g.Messages.MistakeLimit, limit)
}

func (g *Generator) RatingChannelSet(channelID string) string {
	return fmt.Sprintf(g.Messages.RatingChannelSet, channelID)
}

// RatingSummary формирует описание оценки для канала оценок
func (g *Generator) RatingSummary(userID string, level int) string {
	return fmt.Sprintf(g.Messages.RatingSummaryBody, userID, Stars(level), level)
}

func (g *Generator) RatingThanks(level int) string {
	return fmt.Sprintf(g.Messages.RatingThanks, Stars(level))
}

// Stars возвращает n звезд
func Stars(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(star, n)
}

// ValidRating проверяет, что уровень оценки в диапазоне 1-5
func ValidRating(level int) bool {
	return level >= MinRating && level <= MaxRating
}
