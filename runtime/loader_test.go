package runtime

import (
	"room-lab/errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestCensoredLoader_LoadAll_Embedded(t *testing.T) {
	req := require.New(t)

	data, err := NewCensoredLoader(CensoredFolder).LoadAll("censored")

	req.NoError(err)
	req.ElementsMatch([]string{"en", "fr"}, data.Languages)
	req.Contains(data.Words, "idiot")
	req.IsIncreasing(data.Words)
}

func TestCensoredLoader_LoadAll_Dedup_And_CRLF(t *testing.T) {
	req := require.New(t)
	fsys := fstest.MapFS{
		"words/en.txt":    {Data: []byte("badger\r\nsnake\r\n\r\n")},
		"words/de.txt":    {Data: []byte("badger\n  mushroom  \n")},
		"words/notes.md":  {Data: []byte("ignored")},
		"words/sub/x.txt": {Data: []byte("nested")},
	}

	data, err := NewCensoredLoader(fsys).LoadAll("words")

	req.NoError(err)
	req.Equal([]string{"badger", "mushroom", "snake"}, data.Words)
	req.ElementsMatch([]string{"en", "de"}, data.Languages)
}

func TestCensoredLoader_LoadAll_Empty(t *testing.T) {
	fsys := fstest.MapFS{"words/en.txt": {Data: []byte("\n\n")}}
	_, err := NewCensoredLoader(fsys).LoadAll("words")
	require.ErrorIs(t, err, errors.ErrEmptyWords)
}
