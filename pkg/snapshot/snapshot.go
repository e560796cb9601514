// Package snapshot encodes a resumable slice of a game session into an
// opaque URL-safe token for the timeline-fork share feature, and decodes
// such tokens back into a playable session.
package snapshot

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jwebster45206/tabletop-engine/pkg/chat"
	"github.com/jwebster45206/tabletop-engine/pkg/state"
)

// HistoryTail bounds how many trailing conversation messages a token
// carries. Truncation is a documented lossy step that keeps tokens
// small enough for a URL query parameter.
const HistoryTail = 4

// ErrCorruptToken is returned when a token fails every decode stage.
// Callers treat it as "no seed": fall back to a fresh session with a
// one-time notice, never a fatal error.
var ErrCorruptToken = errors.New("corrupt share token")

// Snapshot is the serialized subset of a game session. Credentials and
// the model identifier are intentionally not part of this struct.
type Snapshot struct {
	Name     string             `json:"name"`
	Class    string             `json:"class"`
	Race     string             `json:"race"`
	Level    int                `json:"level"`
	HP       *int               `json:"hp_current,omitempty"`
	MaxHP    *int               `json:"hp_max,omitempty"`
	Currency map[string]int     `json:"currency,omitempty"`
	Inventory []state.Item      `json:"inventory,omitempty"`
	History  []chat.ChatMessage `json:"history,omitempty"`
}

// FromGameState projects a session onto the shareable field subset,
// truncating history to the last HistoryTail messages.
func FromGameState(gs *state.GameState) Snapshot {
	hp := gs.HP
	maxHP := gs.MaxHP
	return Snapshot{
		Name:      gs.Name,
		Class:     gs.Class,
		Race:      gs.Race,
		Level:     gs.Level,
		HP:        &hp,
		MaxHP:     &maxHP,
		Currency:  gs.Currency,
		Inventory: gs.Inventory,
		History:   gs.HistoryTail(HistoryTail),
	}
}

// SaveFile projects a session onto the same field subset with the full
// conversation intact. Save cartridges are files rather than URLs, so
// the token size bound does not apply; credentials and the model
// identifier stay excluded.
func SaveFile(gs *state.GameState) Snapshot {
	snap := FromGameState(gs)
	snap.History = make([]chat.ChatMessage, len(gs.ChatHistory))
	copy(snap.History, gs.ChatHistory)
	return snap
}

// GameState builds a new session from the snapshot. Fields missing from
// the token fall back to the fresh-character defaults, and the session
// is marked started so play resumes directly.
func (s Snapshot) GameState(model string) *state.GameState {
	gs := &state.GameState{
		ID:        uuid.New(),
		Name:      s.Name,
		Class:     s.Class,
		Race:      s.Race,
		Level:     s.Level,
		Currency:  s.Currency,
		Inventory: s.Inventory,
		Model:     model,
		Started:   true,
	}
	if gs.Name == "" {
		gs.Name = state.DefaultName
	}
	if gs.Class == "" {
		gs.Class = state.DefaultClass
	}
	if gs.Race == "" {
		gs.Race = state.DefaultRace
	}
	if gs.Level <= 0 {
		gs.Level = state.DefaultLevel
	}
	if gs.Currency == nil {
		gs.Currency = map[string]int{"gold": 0}
	}

	maxHP := state.DefaultMaxHP
	if s.MaxHP != nil {
		maxHP = *s.MaxHP
	}
	hp := maxHP
	if s.HP != nil {
		hp = *s.HP
	}
	gs.SetVitals(hp, maxHP)

	gs.ChatHistory = make([]chat.ChatMessage, len(s.History))
	copy(gs.ChatHistory, s.History)
	return gs
}

// Encode serializes the shareable slice of gs to a URL-safe token:
// canonical JSON, deflate-compressed, base64 with the URL alphabet.
// Compression is the documented encoding; plain-JSON tokens from older
// clients remain decodable.
func Encode(gs *state.GameState) (string, error) {
	data, err := json.Marshal(FromGameState(gs))
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("failed to create compressor: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("failed to compress snapshot: %w", err)
	}
	if err := fw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish compression: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode parses a share token. It accepts both encoding variants seen
// in the wild: deflate+base64 and plain JSON+base64, in either base64
// alphabet. All failures collapse into ErrCorruptToken.
func Decode(token string) (Snapshot, error) {
	if token == "" {
		return Snapshot{}, fmt.Errorf("%w: empty token", ErrCorruptToken)
	}

	raw, err := decodeBase64(token)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorruptToken, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err == nil {
		return snap, nil
	}

	fr := flate.NewReader(bytes.NewReader(raw))
	defer func() { _ = fr.Close() }()
	inflated, err := io.ReadAll(fr)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: not JSON and not deflate", ErrCorruptToken)
	}
	if err := json.Unmarshal(inflated, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decompressed payload is not valid JSON", ErrCorruptToken)
	}
	return snap, nil
}

// decodeBase64 tries the URL-safe alphabet first, then the standard
// alphabet used by earlier revisions, with and without padding.
func decodeBase64(token string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.StdEncoding,
		base64.RawStdEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		raw, err := enc.DecodeString(token)
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
