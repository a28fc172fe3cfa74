// Package notifier отправляет запрос оценки после успешного теста и
// публикует выбранную оценку в канал оценок.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"onboarding-quiz-bot/internal/config"
	"onboarding-quiz-bot/internal/metrics"
	"onboarding-quiz-bot/internal/prompts"
	"onboarding-quiz-bot/internal/storage"
)

var (
	ErrInvalidLevel             = errors.New("неверный уровень оценки")
	ErrNoSession                = errors.New("оценка завершена или не найдена")
	ErrAlreadyRated             = errors.New("оценка уже получена")
	ErrRatingChannelUnset       = errors.New("канал оценок не задан")
	ErrRatingChannelUnreachable = errors.New("канал оценок недоступен")
)

// RatingOption представляет одну кнопку оценки
type RatingOption struct {
	Level int
	Label string
}

// RatingPrompt представляет сообщение с кнопками оценки
type RatingPrompt struct {
	Title       string
	Description string
	Options     []RatingOption
}

// RatingSummary представляет публикацию оценки для администрации
type RatingSummary struct {
	UserID      string
	Level       int
	Title       string
	Description string
	Timestamp   time.Time
}

// RatingRequest представляет нажатие кнопки оценки
type RatingRequest struct {
	UserID string
	Level  int
	// MessageID сообщения, на котором нажата кнопка
	MessageID string
}

// Publisher доставляет сообщения уведомителя
type Publisher interface {
	SendDM(ctx context.Context, userID, text string) error
	SendRatingPrompt(ctx context.Context, userID string, prompt RatingPrompt) (storage.MessageRef, error)
	ResolveChannel(ctx context.Context, channelID string) error
	SendRatingSummary(ctx context.Context, channelID string, summary RatingSummary) error
}

// Service реализует запрос и прием оценки
type Service struct {
	store     *storage.Store
	channel   *config.RatingChannel
	publisher Publisher
	prompts   *prompts.Generator
	metrics   *metrics.Metrics
	log       *logrus.Logger
	now       func() time.Time
}

// New создает уведомитель. Канал оценок передается по ссылке и может
// меняться командой администратора в любой момент.
func New(store *storage.Store, channel *config.RatingChannel, publisher Publisher, msgs config.Messages, m *metrics.Metrics, log *logrus.Logger) *Service {
	if m == nil {
		m = metrics.NewMetrics()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		store:     store,
		channel:   channel,
		publisher: publisher,
		prompts:   prompts.New(msgs),
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// Prompt возвращает сообщение с пятью кнопками оценки
func (s *Service) Prompt() RatingPrompt {
	options := make([]RatingOption, 0, prompts.MaxRating)
	for level := prompts.MinRating; level <= prompts.MaxRating; level++ {
		options = append(options, RatingOption{Level: level, Label: prompts.Stars(level)})
	}
	return RatingPrompt{
		Title:       s.prompts.Messages.RatingPromptTitle,
		Description: s.prompts.Messages.RatingPromptBody,
		Options:     options,
	}
}

// PromptRating поздравляет пользователя и отправляет кнопки оценки.
// Если личные сообщения недоступны, сессия удаляется.
func (s *Service) PromptRating(ctx context.Context, userID string) error {
	session, ok := s.store.Get(userID)
	if !ok {
		return ErrNoSession
	}
	log := s.log.WithFields(logrus.Fields{"user_id": userID, "session_id": session.ID})

	if err := s.publisher.SendDM(ctx, userID, s.prompts.Messages.Passed); err != nil {
		s.store.DeleteSession(userID, session.ID)
		return fmt.Errorf("ошибка отправки поздравления: %w", err)
	}

	ref, err := s.publisher.SendRatingPrompt(ctx, userID, s.Prompt())
	if err != nil {
		s.store.DeleteSession(userID, session.ID)
		return fmt.Errorf("ошибка отправки запроса оценки: %w", err)
	}

	_, err = s.store.Mutate(userID, func(current *storage.Session) error {
		if current.ID != session.ID {
			return ErrNoSession
		}
		current.Stage = storage.StageAwaitingRating
		current.Rated = false
		current.PendingMessage = &ref
		return nil
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения запроса оценки: %w", err)
	}

	log.WithField("message_id", ref.MessageID).Info("Запрос оценки отправлен")
	return nil
}

// HandleRating принимает оценку. Возвращает текст ответа пользователю или
// одну из ошибок пакета. После того как оценка принята, сессия удаляется
// даже если публикация не удалась.
func (s *Service) HandleRating(ctx context.Context, req RatingRequest) (string, error) {
	if !prompts.ValidRating(req.Level) {
		return "", ErrInvalidLevel
	}

	session, err := s.store.Mutate(req.UserID, func(current *storage.Session) error {
		if current.Rated {
			return ErrAlreadyRated
		}
		if current.Stage != storage.StageAwaitingRating {
			return ErrNoSession
		}
		if stalePrompt(current.PendingMessage, req.MessageID) {
			return ErrNoSession
		}
		current.Rated = true
		current.Stage = storage.StageClosed
		return nil
	})
	if errors.Is(err, storage.ErrSessionNotFound) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", err
	}
	defer s.store.DeleteSession(req.UserID, session.ID)

	log := s.log.WithFields(logrus.Fields{
		"user_id":    req.UserID,
		"session_id": session.ID,
		"rating":     req.Level,
	})

	if err := s.publish(ctx, req); err != nil {
		s.metrics.IncrementRating(false)
		log.WithError(err).Warn("Оценка принята, но не опубликована")
		return "", err
	}

	s.metrics.IncrementRating(true)
	log.Info("Оценка опубликована")
	return s.prompts.RatingThanks(req.Level), nil
}

func (s *Service) publish(ctx context.Context, req RatingRequest) error {
	channelID := s.channel.Get()
	if channelID == "" {
		return ErrRatingChannelUnset
	}

	if err := s.publisher.ResolveChannel(ctx, channelID); err != nil {
		return fmt.Errorf("%w: %w", ErrRatingChannelUnreachable, err)
	}

	summary := RatingSummary{
		UserID:      req.UserID,
		Level:       req.Level,
		Title:       s.prompts.Messages.RatingSummaryTitle,
		Description: s.prompts.RatingSummary(req.UserID, req.Level),
		Timestamp:   s.now(),
	}
	if err := s.publisher.SendRatingSummary(ctx, channelID, summary); err != nil {
		return fmt.Errorf("%w: %w", ErrRatingChannelUnreachable, err)
	}
	return nil
}

// ErrorText переводит ошибку HandleRating в ответ пользователю
func (s *Service) ErrorText(err error) string {
	msgs := s.prompts.Messages
	switch {
	case errors.Is(err, ErrAlreadyRated):
		return msgs.AlreadyRated
	case errors.Is(err, ErrRatingChannelUnset):
		return msgs.RatingChannelUnset
	case errors.Is(err, ErrRatingChannelUnreachable):
		return msgs.RatingChannelUnreachable
	default:
		return msgs.RatingExpired
	}
}

// stalePrompt сообщает, что кнопка нажата не на последнем запросе оценки
func stalePrompt(pending *storage.MessageRef, messageID string) bool {
	if pending == nil || messageID == "" {
		return false
	}
	return pending.MessageID != messageID
}
