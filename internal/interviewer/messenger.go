package interviewer

import (
	"context"
	"time"
)

// Outcome описывает результат ожидания ответа
type Outcome int

const (
	OutcomeAnswer Outcome = iota
	OutcomeTimeout
	OutcomeUndeliverable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAnswer:
		return "answer"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeUndeliverable:
		return "undeliverable"
	default:
		return "unknown"
	}
}

// Reply представляет ровно один результат вызова Ask
type Reply struct {
	Outcome Outcome
	Text    string
}

// Messenger доставляет вопросы пользователю в личные сообщения
type Messenger interface {
	// Ask отправляет text и ждет одно сообщение от userID в том же диалоге.
	// Ожидание регистрируется до отправки вопроса.
	Ask(ctx context.Context, userID, text string, timeout time.Duration) Reply
	// Notify отправляет сообщение без ожидания ответа
	Notify(ctx context.Context, userID, text string) error
}

// Finisher получает пользователя, успешно прошедшего все вопросы
type Finisher interface {
	PromptRating(ctx context.Context, userID string) error
}
