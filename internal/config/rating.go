package config

import "sync"

// RatingChannel хранит канал для публикации оценок. Значение живет только
// в памяти процесса и сбрасывается при перезапуске.
type RatingChannel struct {
	mu        sync.RWMutex
	channelID string
}

func NewRatingChannel() *RatingChannel {
	return &RatingChannel{}
}

// Set заменяет канал оценок, побеждает последняя запись
func (r *RatingChannel) Set(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channelID = channelID
}

// Get возвращает текущий канал или пустую строку
func (r *RatingChannel) Get() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channelID
}
