package frames

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFrameList(t *testing.T) {
	path := writeFile(t, "frames.txt", "PureFrame2\n  pureframe1 \n\nPUREFRAME3\r\n")

	frames, err := LoadFrameList(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"pureframe2", "pureframe1", "pureframe3"}, frames, "order must follow the file")
}

func TestLoadFrameListMissingFile(t *testing.T) {
	frames, err := LoadFrameList(filepath.Join(t.TempDir(), "nope.txt"))

	assert.Error(t, err)
	assert.Nil(t, frames)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadTokenMap(t *testing.T) {
	path := writeFile(t, "tokens.json", `{"pureframe2-full.example.com": "tok2", "pureframe1-full.example.com": "tok1"}`)

	tokens, err := LoadTokenMap(path)

	require.NoError(t, err)
	assert.Equal(t, 2, tokens.Len())
	assert.Equal(t, []string{"pureframe2-full.example.com", "pureframe1-full.example.com"}, tokens.Keys())
	tok, ok := tokens.Get("pureframe1-full.example.com")
	assert.True(t, ok)
	assert.Equal(t, "tok1", tok)
}

func TestLoadTokenMapErrors(t *testing.T) {
	cases := map[string]string{
		"malformed":    `{"pureframe1": "tok"`,
		"not object":   `["pureframe1"]`,
		"non string":   `{"pureframe1": 42}`,
		"trailing":     `{"pureframe1": "tok"} {}`,
		"empty file":   ``,
		"bare literal": `"pureframe1"`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "tokens.json", content)

			tokens, err := LoadTokenMap(path)

			assert.Error(t, err)
			assert.Nil(t, tokens)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		tokens, err := LoadTokenMap(filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
		assert.Nil(t, tokens)
	})
}

func TestParseTokenMapDuplicateKeepsFirstPosition(t *testing.T) {
	tokens, err := ParseTokenMap(strings.NewReader(`{"a-frame": "1", "b-frame": "2", "a-frame": "3"}`))

	require.NoError(t, err)
	assert.Equal(t, []string{"a-frame", "b-frame"}, tokens.Keys())
	tok, _ := tokens.Get("a-frame")
	assert.Equal(t, "3", tok)
}

func TestResolveFullName(t *testing.T) {
	tokens := NewTokenMap()
	tokens.Set("PureFrame10.corp.example.com", "tok10")
	tokens.Set("pureframe1.corp.example.com", "tok1")
	tokens.Set("pureframe2.corp.example.com", "tok2")

	t.Run("case insensitive match", func(t *testing.T) {
		name, err := ResolveFullName("pureframe2", tokens)
		require.NoError(t, err)
		assert.Equal(t, "pureframe2.corp.example.com", name)
	})

	t.Run("first match in file order wins", func(t *testing.T) {
		name, err := ResolveFullName("pureframe1", tokens)
		require.NoError(t, err)
		assert.Equal(t, "PureFrame10.corp.example.com", name)
	})

	t.Run("no match", func(t *testing.T) {
		name, err := ResolveFullName("pureframe9", tokens)
		assert.Empty(t, name)
		assert.ErrorIs(t, err, ErrFrameNotFound)
	})

	t.Run("result is always a key containing the short name", func(t *testing.T) {
		for _, short := range []string{"pure", "frame2", "corp", "10"} {
			name, err := ResolveFullName(short, tokens)
			require.NoError(t, err)
			_, ok := tokens.Get(name)
			assert.True(t, ok)
			assert.Contains(t, strings.ToLower(name), short)
		}
	})
}

func TestResolve(t *testing.T) {
	tokens := NewTokenMap()
	tokens.Set("pureframe1-full", "tok")

	creds, err := Resolve("pureframe1", tokens)

	require.NoError(t, err)
	assert.Equal(t, Credentials{Frame: "pureframe1", FullName: "pureframe1-full", Token: "tok"}, creds)

	_, err = Resolve("other", tokens)
	assert.ErrorIs(t, err, ErrFrameNotFound)
}
