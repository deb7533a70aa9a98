// Package frames loads the frame list and API token map and resolves short frame
// names to their credentials.
package frames

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrFrameNotFound is returned when no token map key contains the short frame name.
var ErrFrameNotFound = errors.New("frame not found in token file")

// Credentials identifies one array session: the full frame name (used as the
// management address) and its API token.
type Credentials struct {
	Frame    string
	FullName string
	Token    string
}

// TokenMap is the token file content with key order preserved, so that substring
// resolution is deterministic and follows the file.
type TokenMap struct {
	keys   []string
	tokens map[string]string
}

func NewTokenMap() *TokenMap {
	return &TokenMap{tokens: make(map[string]string)}
}

// Set adds or replaces a token. A replaced key keeps its original position.
func (m *TokenMap) Set(fullName, token string) {
	if _, ok := m.tokens[fullName]; !ok {
		m.keys = append(m.keys, fullName)
	}
	m.tokens[fullName] = token
}

func (m *TokenMap) Get(fullName string) (string, bool) {
	token, ok := m.tokens[fullName]
	return token, ok
}

// Keys returns the full frame names in file order.
func (m *TokenMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *TokenMap) Len() int {
	return len(m.keys)
}

// LoadFrameList reads one frame identifier per line, trimmed and lower-cased.
// Blank lines are skipped; order is preserved.
func LoadFrameList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s not found, this file is needed for the frame list: %w", path, err)
	}
	defer f.Close()

	return ParseFrameList(f)
}

func ParseFrameList(r io.Reader) ([]string, error) {
	var frames []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		frame := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if frame == "" {
			continue
		}
		frames = append(frames, frame)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read frame list: %w", err)
	}
	return frames, nil
}

// LoadTokenMap parses a JSON object mapping full frame name to API token.
func LoadTokenMap(path string) (*TokenMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("issue with opening %s: %w", path, err)
	}
	defer f.Close()

	tokens, err := ParseTokenMap(f)
	if err != nil {
		return nil, fmt.Errorf("issue with parsing %s: %w", path, err)
	}
	return tokens, nil
}

// ParseTokenMap decodes the token object token by token; a plain map would lose
// the key order that first-match resolution depends on.
func ParseTokenMap(r io.Reader) (*TokenMap, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("token file must contain a JSON object")
	}

	tokens := NewTokenMap()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid JSON key %v", keyTok)
		}

		var token string
		if err := dec.Decode(&token); err != nil {
			return nil, fmt.Errorf("invalid token for %s: %w", key, err)
		}
		tokens.Set(key, token)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after token object")
	}

	return tokens, nil
}

// ResolveFullName returns the first key, in file order, that contains shortName.
// Matching is a plain substring test, so "pure1" also matches "pure10"; the file
// order decides which one wins.
func ResolveFullName(shortName string, tokens *TokenMap) (string, error) {
	needle := strings.ToLower(shortName)
	for _, key := range tokens.keys {
		if strings.Contains(strings.ToLower(key), needle) {
			return key, nil
		}
	}
	return "", fmt.Errorf("issue with finding %s: %w", shortName, ErrFrameNotFound)
}

// Resolve returns the full name and token for a short frame name.
func Resolve(shortName string, tokens *TokenMap) (Credentials, error) {
	fullName, err := ResolveFullName(shortName, tokens)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{
		Frame:    shortName,
		FullName: fullName,
		Token:    tokens.tokens[fullName],
	}, nil
}
