package chatstore

import (
	"context"
	"strconv"
)

// Presentation preferences ride on the same cache as the chat state, each
// under its own key. They are not replicated remotely.

func (s *Store) DarkMode(ctx context.Context) bool {
	return s.boolPref(ctx, keyDarkMode)
}

func (s *Store) SetDarkMode(ctx context.Context, on bool) {
	s.setBoolPref(ctx, keyDarkMode, on)
}

func (s *Store) TypingAnimation(ctx context.Context) bool {
	return s.boolPref(ctx, keyTypingAnimation)
}

func (s *Store) SetTypingAnimation(ctx context.Context, on bool) {
	s.setBoolPref(ctx, keyTypingAnimation, on)
}

func (s *Store) boolPref(ctx context.Context, key string) bool {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return false
	}
	v, err := strconv.ParseBool(string(data))
	return err == nil && v
}

func (s *Store) setBoolPref(ctx context.Context, key string, on bool) {
	if err := s.cache.Set(ctx, key, []byte(strconv.FormatBool(on))); err != nil {
		s.notify.Error("Error saving preference: " + err.Error())
	}
}
