package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionExists   = errors.New("сессия уже существует")
	ErrSessionNotFound = errors.New("сессия не найдена")
)

// Store хранит сессии в памяти процесса, по одной на пользователя.
// Значения заменяются целиком, наружу отдаются только копии.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session
	now      func() time.Time
}

// NewStore создает пустое хранилище сессий
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// Create создает сессию на этапе personal. Если у пользователя уже есть
// сессия, она не меняется и возвращается ErrSessionExists.
func (s *Store) Create(userID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[userID]; exists {
		return Session{}, fmt.Errorf("пользователь %s: %w", userID, ErrSessionExists)
	}

	now := s.now()
	session := Session{
		ID:              uuid.New().String(),
		UserID:          userID,
		Stage:           StagePersonal,
		PersonalAnswers: []QA{},
		RulesResults:    []RuleResult{},
		StartedAt:       now,
		UpdatedAt:       now,
	}
	s.sessions[userID] = session
	return session.Clone(), nil
}

// Get возвращает копию сессии пользователя
func (s *Store) Get(userID string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[userID]
	if !exists {
		return Session{}, false
	}
	return session.Clone(), true
}

// Update заменяет сессию целиком. Удаленная сессия не восстанавливается.
func (s *Store) Update(userID string, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.sessions[userID]
	if !exists {
		return fmt.Errorf("пользователь %s: %w", userID, ErrSessionNotFound)
	}
	// сессия могла быть удалена и создана заново, пока шел шаг теста
	if session.ID != current.ID {
		return fmt.Errorf("пользователь %s: %w", userID, ErrSessionNotFound)
	}

	session.UpdatedAt = s.now()
	s.sessions[userID] = session.Clone()
	return nil
}

// Mutate атомарно применяет fn к копии сессии и сохраняет результат.
// Если fn вернула ошибку, сессия не меняется.
func (s *Store) Mutate(userID string, fn func(*Session) error) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.sessions[userID]
	if !exists {
		return Session{}, fmt.Errorf("пользователь %s: %w", userID, ErrSessionNotFound)
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return current.Clone(), err
	}

	next.UpdatedAt = s.now()
	s.sessions[userID] = next
	return next.Clone(), nil
}

// Delete удаляет сессию пользователя, если она есть
func (s *Store) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// DeleteSession удаляет сессию, только если это все еще та же сессия
func (s *Store) DeleteSession(userID, sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.sessions[userID]
	if !exists || current.ID != sessionID {
		return false
	}
	delete(s.sessions, userID)
	return true
}

// Len возвращает количество активных сессий
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
