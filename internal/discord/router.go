package discord

import (
	"context"
	"sync"
	"time"

	"onboarding-quiz-bot/internal/interviewer"
)

type routeKey struct {
	channelID string
	userID    string
}

// Router передает входящие сообщения тем, кто ждет ответа пользователя
// в конкретном личном диалоге.
type Router struct {
	mu      sync.Mutex
	waiters map[routeKey]*Waiter
}

func NewRouter() *Router {
	return &Router{waiters: make(map[routeKey]*Waiter)}
}

// Waiter ожидает одно сообщение
type Waiter struct {
	router    *Router
	key       routeKey
	ch        chan string
	delivered bool
}

// Expect регистрирует ожидание следующего сообщения userID в channelID.
// Предыдущее ожидание для той же пары заменяется.
func (r *Router) Expect(channelID, userID string) *Waiter {
	w := &Waiter{
		router: r,
		key:    routeKey{channelID: channelID, userID: userID},
		ch:     make(chan string, 1),
	}

	r.mu.Lock()
	r.waiters[w.key] = w
	r.mu.Unlock()
	return w
}

// Deliver отдает сообщение ожидающему. Возвращает false, если никто не ждет.
func (r *Router) Deliver(channelID, userID, text string) bool {
	key := routeKey{channelID: channelID, userID: userID}

	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.waiters[key]
	if !ok {
		return false
	}
	delete(r.waiters, key)
	w.delivered = true
	w.ch <- text
	return true
}

// Pending возвращает количество активных ожиданий
func (r *Router) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters)
}

// Cancel снимает ожидание. Возвращает true, если сообщение еще не пришло.
func (w *Waiter) Cancel() bool {
	w.router.mu.Lock()
	defer w.router.mu.Unlock()

	if w.delivered {
		return false
	}
	if w.router.waiters[w.key] == w {
		delete(w.router.waiters, w.key)
	}
	return true
}

// Await ждет сообщение не дольше timeout. Результат всегда ровно один:
// если сообщение и таймаут пришли одновременно, побеждает то, что
// первым захватило мьютекс роутера.
func (w *Waiter) Await(ctx context.Context, timeout time.Duration) interviewer.Reply {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case text := <-w.ch:
		return interviewer.Reply{Outcome: interviewer.OutcomeAnswer, Text: text}
	case <-timer.C:
	case <-ctx.Done():
	}

	if w.Cancel() {
		return interviewer.Reply{Outcome: interviewer.OutcomeTimeout}
	}
	// Deliver уже забрал ожидание и положил сообщение в буфер
	return interviewer.Reply{Outcome: interviewer.OutcomeAnswer, Text: <-w.ch}
}
