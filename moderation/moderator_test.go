package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions (e.g., "he" inside "The")
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	dictionary := []string{"badger", "snake", "mushroom"}
	mod, err := NewModerator(dictionary, replacementChar)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "The badger is here",
			expected: "The ****** is here",
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "badger badger badger",
			expected: "****** ****** ******",
		},
		{
			name:     "Leet speak and internal punctuation",
			input:    "Look at B.4.d.g.€r !",
			expected: "Look at ********** !",
		},
		{
			name:     "Uppercase and extreme noise",
			input:    "S-N-A-K-E is a B.A.D.G.E.R",
			expected: "********* is a ***********",
		},
		{
			name:     "Accents and special characters (UTF-8)",
			input:    "Un été avec un badger",
			expected: "Un été avec un ******",
		},
		{
			name:     "Word adjacent to trailing punctuation",
			input:    "I love badger!",
			expected: "I love ******!",
		},
		{
			name:     "Nothing to censor",
			input:    "Somnus is amazing",
			expected: "Somnus is amazing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, mod.Censor(tt.input))
		})
	}
}

func TestModerator_Flagged(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator([]string{"badger", "snake"}, replacementChar)
	req.NoError(err)

	req.True(mod.Flagged("a sneaky b4dger appears"))
	req.True(mod.Flagged("S.N.A.K.E"))
	req.False(mod.Flagged("just a peaceful rain sound"))
	req.False(mod.Flagged(""))
}

func TestLoadCensored_Embedded_Dictionaries(t *testing.T) {
	req := require.New(t)

	data, err := LoadCensored()
	req.NoError(err)
	req.NotEmpty(data.Words)
	req.Contains(data.Languages, "en")
	req.Contains(data.Languages, "tr")
}
