package storage

import "time"

// Stage представляет этап прохождения теста
type Stage string

const (
	StagePersonal       Stage = "personal"
	StageRules          Stage = "rules"
	StageAwaitingRating Stage = "awaiting_rating"
	StageClosed         Stage = "closed"
)

// Session представляет состояние теста одного пользователя
type Session struct {
	ID              string       `json:"id"`
	UserID          string       `json:"user_id"`
	Stage           Stage        `json:"stage"`
	PersonalIndex   int          `json:"personal_index"`
	PersonalAnswers []QA         `json:"personal_answers"`
	RulesIndex      int          `json:"rules_index"`
	RulesResults    []RuleResult `json:"rules_results"`
	MistakeCount    int          `json:"mistake_count"`
	Rated           bool         `json:"rated"`
	PendingMessage  *MessageRef  `json:"pending_message,omitempty"`
	StartedAt       time.Time    `json:"started_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// QA представляет один вопрос и ответ
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// RuleResult представляет результат ответа на вопрос о правилах
type RuleResult struct {
	Question string `json:"question"`
	Correct  bool   `json:"correct"`
}

// MessageRef указывает на сообщение с кнопками оценки
type MessageRef struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

// Clone возвращает глубокую копию сессии
func (s Session) Clone() Session {
	c := s
	if s.PersonalAnswers != nil {
		c.PersonalAnswers = append([]QA(nil), s.PersonalAnswers...)
	}
	if s.RulesResults != nil {
		c.RulesResults = append([]RuleResult(nil), s.RulesResults...)
	}
	if s.PendingMessage != nil {
		ref := *s.PendingMessage
		c.PendingMessage = &ref
	}
	return c
}

// WrongAnswers возвращает количество неверных ответов в результатах
func (s Session) WrongAnswers() int {
	count := 0
	for _, r := range s.RulesResults {
		if !r.Correct {
			count++
		}
	}
	return count
}
