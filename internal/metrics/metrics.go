package metrics

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Metrics struct {
	mu                    sync.RWMutex
	InterviewsStarted     int64
	InterviewsCompleted   int64
	InterviewsFailed      int64
	InterviewsTimedOut    int64
	InterviewsUndelivered int64
	QuestionsAsked        int64
	InvalidAnswers        int64
	RatingsSubmitted      int64
	RatingsLost           int64
	LastUpdateTime        time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		LastUpdateTime: time.Now(),
	}
}

func (m *Metrics) IncrementInterviewsStarted() {
	m.add(&m.InterviewsStarted)
}

func (m *Metrics) IncrementInterviewsCompleted() {
	m.add(&m.InterviewsCompleted)
}

// IncrementInterviewsFailed считает тесты, отклоненные по лимиту ошибок
func (m *Metrics) IncrementInterviewsFailed() {
	m.add(&m.InterviewsFailed)
}

func (m *Metrics) IncrementInterviewsTimedOut() {
	m.add(&m.InterviewsTimedOut)
}

func (m *Metrics) IncrementInterviewsUndelivered() {
	m.add(&m.InterviewsUndelivered)
}

func (m *Metrics) IncrementQuestionsAsked() {
	m.add(&m.QuestionsAsked)
}

func (m *Metrics) IncrementInvalidAnswers() {
	m.add(&m.InvalidAnswers)
}

// IncrementRating учитывает принятую оценку. delivered=false означает, что
// оценка не попала в канал оценок.
func (m *Metrics) IncrementRating(delivered bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RatingsSubmitted++
	if !delivered {
		m.RatingsLost++
	}
	m.LastUpdateTime = time.Now()
}

func (m *Metrics) add(counter *int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*counter++
	m.LastUpdateTime = time.Now()
}

// Snapshot представляет копию счетчиков без мьютекса
type Snapshot struct {
	InterviewsStarted     int64
	InterviewsCompleted   int64
	InterviewsFailed      int64
	InterviewsTimedOut    int64
	InterviewsUndelivered int64
	QuestionsAsked        int64
	InvalidAnswers        int64
	RatingsSubmitted      int64
	RatingsLost           int64
	LastUpdateTime        time.Time
}

func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		InterviewsStarted:     m.InterviewsStarted,
		InterviewsCompleted:   m.InterviewsCompleted,
		InterviewsFailed:      m.InterviewsFailed,
		InterviewsTimedOut:    m.InterviewsTimedOut,
		InterviewsUndelivered: m.InterviewsUndelivered,
		QuestionsAsked:        m.QuestionsAsked,
		InvalidAnswers:        m.InvalidAnswers,
		RatingsSubmitted:      m.RatingsSubmitted,
		RatingsLost:           m.RatingsLost,
		LastUpdateTime:        m.LastUpdateTime,
	}
}

// Fields представляет снимок в виде полей для логгера
func (s Snapshot) Fields() logrus.Fields {
	return logrus.Fields{
		"interviews_started":     s.InterviewsStarted,
		"interviews_completed":   s.InterviewsCompleted,
		"interviews_failed":      s.InterviewsFailed,
		"interviews_timed_out":   s.InterviewsTimedOut,
		"interviews_undelivered": s.InterviewsUndelivered,
		"questions_asked":        s.QuestionsAsked,
		"invalid_answers":        s.InvalidAnswers,
		"ratings_submitted":      s.RatingsSubmitted,
		"ratings_lost":           s.RatingsLost,
	}
}
