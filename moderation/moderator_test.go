package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newModerator(t *testing.T, words ...string) *Moderator {
	t.Helper()
	mod, err := NewModerator(words, '#', logs.GetLoggerFromLevel(slog.LevelDebug))
	require.NoError(t, err)
	return mod
}

func TestModerator_Censor(t *testing.T) {
	mod := newModerator(t, "idiot", "moron", "shut up")

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{"plain word", "you are an idiot", "you are an #####", []string{"idiot"}},
		{"pattern with a space", "Sh.ut  up now", "######### now", []string{"shutup"}},
		{"leet speak keeps trailing punctuation", "M0r0n!", "#####!", []string{"moron"}},
		{"leet digits", "ID10T", "#####", []string{"idiot"}},
		{"accents around a match", "Quel idiot, désolé", "Quel #####, désolé", []string{"idiot"}},
		{"several words", "idiot and moron", "##### and #####", []string{"idiot", "moron"}},
		{"clean message", "See you at the standup", "See you at the standup", nil},
		{"empty", "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			content, words := mod.Censor(tt.input)
			req.Equal(tt.expected, content)
			req.Equal(tt.words, words)
		})
	}
}

func TestModerator_NoiseOnlyDictionary(t *testing.T) {
	req := require.New(t)

	// Given entries that normalize to nothing
	mod := newModerator(t, "...", " ", "")

	// Then nothing is ever censored
	content, words := mod.Censor("Hello ... idiot")
	req.Equal("Hello ... idiot", content)
	req.Nil(words)
}

func TestModerator_NoiseOnlyMessage(t *testing.T) {
	req := require.New(t)
	mod := newModerator(t, "idiot")

	content, words := mod.Censor("... --- ???")

	req.Equal("... --- ???", content)
	req.Nil(words)
}
