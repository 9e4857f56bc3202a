package editor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgpai22/kashi/internal/translate"
)

type stubTranslator struct {
	fn func(items []translate.TranslationItem) ([]translate.TranslationResult, error)
}

func (s stubTranslator) Translate(_ context.Context, items []translate.TranslationItem) ([]translate.TranslationResult, error) {
	return s.fn(items)
}

func shout(items []translate.TranslationItem) ([]translate.TranslationResult, error) {
	out := make([]translate.TranslationResult, len(items))
	for i, it := range items {
		out[i] = translate.TranslationResult{ID: it.ID, Text: strings.ToUpper(it.Text)}
	}
	return out, nil
}

func TestTranslate_AppliesByID(t *testing.T) {
	s := NewSession(Options{})
	s.Store().Add(1, "hello")
	s.Store().Add(2, "WORLD")

	n, err := s.Translate(context.Background(), stubTranslator{fn: shout}, TranslateOptions{})
	require.NoError(t, err)

	// "WORLD" is already upper case, so only one line changes
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"HELLO", "WORLD"}, texts(s))
}

func TestTranslate_Overlay(t *testing.T) {
	s := NewSession(Options{})
	s.Store().Add(1, "hola")

	tr := stubTranslator{fn: func(items []translate.TranslationItem) ([]translate.TranslationResult, error) {
		return []translate.TranslationResult{{ID: items[0].ID, Text: "hello"}}, nil
	}}

	_, err := s.Translate(context.Background(), tr, TranslateOptions{Overlay: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"hello\nhola"}, texts(s))
}

func TestTranslate_SkipsUnknownIDs(t *testing.T) {
	s := NewSession(Options{})
	s.Store().Add(1, "one")

	tr := stubTranslator{fn: func(items []translate.TranslationItem) ([]translate.TranslationResult, error) {
		return []translate.TranslationResult{{ID: 42, Text: "ghost"}, {ID: items[0].ID, Text: "uno"}}, nil
	}}

	n, err := s.Translate(context.Background(), tr, TranslateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"uno"}, texts(s))
}

func TestTranslate_Errors(t *testing.T) {
	s := NewSession(Options{})
	_, err := s.Translate(context.Background(), stubTranslator{fn: shout}, TranslateOptions{})
	assert.ErrorIs(t, err, ErrNoEntries)

	s.Store().Add(1, "one")
	boom := errors.New("rate limited")
	_, err = s.Translate(context.Background(), stubTranslator{fn: func([]translate.TranslationItem) ([]translate.TranslationResult, error) {
		return nil, boom
	}}, TranslateOptions{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"one"}, texts(s))
}
