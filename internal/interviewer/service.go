package interviewer

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"onboarding-quiz-bot/internal/config"
	"onboarding-quiz-bot/internal/metrics"
	"onboarding-quiz-bot/internal/prompts"
	"onboarding-quiz-bot/internal/storage"
)

const (
	DefaultAnswerTimeout = 5 * time.Minute
	DefaultMistakeLimit  = 5
)

// Options содержит необязательные зависимости сервиса
type Options struct {
	AnswerTimeout time.Duration
	MistakeLimit  int
	Logger        *logrus.Logger
	Metrics       *metrics.Metrics
}

// Service проводит пользователя через личные вопросы и вопросы о правилах
type Service struct {
	store     *storage.Store
	bank      *config.QuestionBank
	prompts   *prompts.Generator
	messenger Messenger
	finisher  Finisher
	metrics   *metrics.Metrics
	log       *logrus.Logger

	answerTimeout time.Duration
	mistakeLimit  int
}

// New создает новый сервис интервьюера
func New(store *storage.Store, bank *config.QuestionBank, messenger Messenger, finisher Finisher, opts Options) *Service {
	s := &Service{
		store:         store,
		bank:          bank,
		prompts:       prompts.New(bank.Messages),
		messenger:     messenger,
		finisher:      finisher,
		metrics:       opts.Metrics,
		log:           opts.Logger,
		answerTimeout: opts.AnswerTimeout,
		mistakeLimit:  opts.MistakeLimit,
	}
	if s.answerTimeout <= 0 {
		s.answerTimeout = DefaultAnswerTimeout
	}
	if s.mistakeLimit <= 0 {
		s.mistakeLimit = DefaultMistakeLimit
	}
	if s.metrics == nil {
		s.metrics = metrics.NewMetrics()
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

// Run ведет сессию пользователя до завершения, отказа или таймаута.
// Блокирует только вызывающую горутину.
func (s *Service) Run(ctx context.Context, userID string) {
	session, ok := s.store.Get(userID)
	if !ok {
		return
	}
	sessionID := session.ID
	log := s.log.WithFields(logrus.Fields{"user_id": userID, "session_id": sessionID})

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Паника во время теста, сессия удалена")
			s.store.DeleteSession(userID, sessionID)
		}
	}()

	s.metrics.IncrementInterviewsStarted()
	log.Info("Тест начат")
	for {
		session, ok := s.store.Get(userID)
		if !ok || session.ID != sessionID {
			return
		}

		var next bool
		switch session.Stage {
		case storage.StagePersonal:
			next = s.personalStep(ctx, log, session)
		case storage.StageRules:
			next = s.rulesStep(ctx, log, session)
		default:
			return
		}
		if !next {
			return
		}
	}
}

// personalStep задает один личный вопрос. Возвращает false, когда
// сессия завершена или удалена.
func (s *Service) personalStep(ctx context.Context, log *logrus.Entry, session storage.Session) bool {
	if session.PersonalIndex >= len(s.bank.Personal) {
		session.Stage = storage.StageRules
		session.RulesIndex = 0
		log.Debug("Переход к вопросам о правилах")
		return s.save(log, session)
	}

	question := s.bank.Personal[session.PersonalIndex]
	reply := s.ask(ctx, session, s.prompts.PersonalQuestion(session.PersonalIndex+1, question))
	if reply.Outcome != OutcomeAnswer {
		s.abort(ctx, log, session, reply)
		return false
	}

	answer := strings.TrimSpace(reply.Text)
	if question.Kind == config.KindNumber && !IsNumber(answer) {
		s.metrics.IncrementInvalidAnswers()
		s.notify(ctx, log, session.UserID, s.prompts.Messages.InvalidNumber)
		return true
	}

	session.PersonalAnswers = append(session.PersonalAnswers, storage.QA{
		Question: question.Text,
		Answer:   answer,
	})
	session.PersonalIndex++
	return s.save(log, session)
}

// rulesStep задает один вопрос о правилах и учитывает ошибку
func (s *Service) rulesStep(ctx context.Context, log *logrus.Entry, session storage.Session) bool {
	if session.RulesIndex >= len(s.bank.Rules) {
		s.complete(ctx, log, session)
		return false
	}

	question := s.bank.Rules[session.RulesIndex]
	reply := s.ask(ctx, session, s.prompts.RuleQuestion(session.RulesIndex+1, question))
	if reply.Outcome != OutcomeAnswer {
		s.abort(ctx, log, session, reply)
		return false
	}

	value, ok := NormalizeAnswer(reply.Text)
	if !ok {
		s.metrics.IncrementInvalidAnswers()
		s.notify(ctx, log, session.UserID, s.prompts.Messages.InvalidBoolean)
		return true
	}

	correct := value == question.ExpectedAnswer()
	session.RulesResults = append(session.RulesResults, storage.RuleResult{
		Question: question.Text,
		Correct:  correct,
	})
	if !correct {
		session.MistakeCount++
	}

	// лимит проверяется до перехода к следующему вопросу
	if session.MistakeCount >= s.mistakeLimit {
		s.store.DeleteSession(session.UserID, session.ID)
		s.metrics.IncrementInterviewsFailed()
		log.WithField("mistakes", session.MistakeCount).Info("Тест провален: превышен лимит ошибок")
		s.notify(ctx, log, session.UserID, s.prompts.MistakeLimit(s.mistakeLimit))
		return false
	}

	session.RulesIndex++
	return s.save(log, session)
}

func (s *Service) complete(ctx context.Context, log *logrus.Entry, session storage.Session) {
	s.metrics.IncrementInterviewsCompleted()
	log.WithFields(logrus.Fields{
		"answers":  len(session.PersonalAnswers),
		"mistakes": session.WrongAnswers(),
	}).Info("Тест пройден")

	if err := s.finisher.PromptRating(ctx, session.UserID); err != nil {
		log.WithError(err).Warn("Не удалось отправить запрос оценки")
	}
}

// abort завершает сессию после таймаута или ошибки доставки
func (s *Service) abort(ctx context.Context, log *logrus.Entry, session storage.Session, reply Reply) {
	s.store.DeleteSession(session.UserID, session.ID)
	log = log.WithFields(logrus.Fields{"stage": session.Stage, "outcome": reply.Outcome.String()})

	if ctx.Err() != nil {
		log.Info("Тест прерван остановкой бота")
		return
	}

	switch reply.Outcome {
	case OutcomeTimeout:
		s.metrics.IncrementInterviewsTimedOut()
		log.Info("Тест отменен: истекло время ответа")
		s.notify(ctx, log, session.UserID, s.prompts.Messages.TimedOut)
	case OutcomeUndeliverable:
		s.metrics.IncrementInterviewsUndelivered()
		log.Warn("Тест отменен: личные сообщения недоступны")
	}
}

func (s *Service) ask(ctx context.Context, session storage.Session, text string) Reply {
	s.metrics.IncrementQuestionsAsked()
	return s.messenger.Ask(ctx, session.UserID, text, s.answerTimeout)
}

// notify отправляет сообщение, ошибка только логируется
func (s *Service) notify(ctx context.Context, log *logrus.Entry, userID, text string) {
	if err := s.messenger.Notify(ctx, userID, text); err != nil {
		log.WithError(err).Debug("Не удалось отправить сообщение")
	}
}

func (s *Service) save(log *logrus.Entry, session storage.Session) bool {
	if err := s.store.Update(session.UserID, session); err != nil {
		log.WithError(err).Debug("Сессия удалена во время шага")
		return false
	}
	return true
}
