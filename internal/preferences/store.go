// Package preferences holds the live overlay settings shared by the HTTP
// surface and the pipeline.
package preferences

import (
	"context"
	"sync"

	"go-page-translator/pkg/models"
)

// Listener is called with the previous and next preferences before an
// update is committed. Returning an error aborts the update.
type Listener func(ctx context.Context, previous, next models.Preferences) error

// Validator rejects invalid preference sets
type Validator interface {
	ValidatePreferences(p models.Preferences) error
}

type Store struct {
	updateMu  sync.Mutex // serializes Update
	mu        sync.RWMutex
	current   models.Preferences
	validator Validator
	listeners []Listener
}

// NewStore creates a store seeded with initial. validator may be nil.
func NewStore(initial models.Preferences, validator Validator) *Store {
	return &Store{current: initial, validator: validator}
}

func (s *Store) Get() models.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Update applies a partial update. The result is validated and offered to
// every listener; if any of them fails the stored value is unchanged.
func (s *Store) Update(ctx context.Context, update models.PreferencesUpdate) (models.Preferences, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	s.mu.RLock()
	previous := s.current
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()

	next := Apply(previous, update)
	if s.validator != nil {
		if err := s.validator.ValidatePreferences(next); err != nil {
			return previous, err
		}
	}

	for _, l := range listeners {
		if err := l(ctx, previous, next); err != nil {
			return previous, err
		}
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return next, nil
}

// Apply returns p with the non-nil fields of update applied
func Apply(p models.Preferences, update models.PreferencesUpdate) models.Preferences {
	if update.SourceLanguage != nil {
		p.SourceLanguage = *update.SourceLanguage
	}
	if update.TargetLanguage != nil {
		p.TargetLanguage = *update.TargetLanguage
	}
	if update.BackgroundOpacity != nil {
		p.BackgroundOpacity = *update.BackgroundOpacity
	}
	if update.FontScale != nil {
		p.FontScale = *update.FontScale
	}
	return p
}
