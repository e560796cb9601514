package state

import (
	"log/slog"
	"regexp"
	"strings"
)

// The narrator is instructed to report state changes in exactly one of
// two forms: a bracketed tag or a fenced JSON block.
//
//	[STATE: {"hp_change": -4, "gold_change": 5}]
//	```json
//	{"hp_change": -4}
//	```
//
// The first block by position wins; any later blocks are left in the
// prose untouched.
const stateTagSentinel = "[STATE:"

var fencedBlockPattern = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// ParseResult is the outcome of running the narrative parser over a
// DM reply.
type ParseResult struct {
	// Text is the display text: the state block removed, fences
	// stripped, surrounding whitespace trimmed. Callers that want a
	// visible change summary append Applied.Summary() themselves.
	Text string

	// Applied describes the changes made to the game state. Nil when
	// no block was found or the block failed to decode.
	Applied *ApplyResult
}

// ApplyNarrative locates an embedded state block in reply, applies its
// deltas to gs, and returns the sanitized display text. A missing block
// is a no-op; a malformed block is stripped from the text but never
// mutates state. Nothing here is allowed to fail the turn.
func ApplyNarrative(gs *GameState, reply string, logger *slog.Logger) ParseResult {
	payload, start, end, ok := locateStateBlock(reply)
	if !ok {
		return ParseResult{Text: reply}
	}

	text := strings.TrimSpace(strings.TrimSpace(reply[:start]) + "\n" + strings.TrimSpace(reply[end:]))

	up, err := ParseUpdatePayload(payload)
	if err != nil {
		if logger != nil {
			logger.Debug("Discarding malformed state block", "error", err, "payload", payload)
		}
		return ParseResult{Text: text}
	}
	if up.IsEmpty() {
		return ParseResult{Text: text}
	}

	result := NewDeltaWorker(gs, up, logger).Apply()
	return ParseResult{Text: text, Applied: result}
}

// locateStateBlock finds the first state block in text and returns the
// captured JSON payload plus the span of the whole block.
func locateStateBlock(text string) (payload string, start, end int, ok bool) {
	tagPayload, tagStart, tagEnd, tagOK := locateBracketTag(text)

	fence := fencedBlockPattern.FindStringSubmatchIndex(text)
	fenceOK := fence != nil

	switch {
	case tagOK && (!fenceOK || tagStart < fence[0]):
		return tagPayload, tagStart, tagEnd, true
	case fenceOK:
		return text[fence[2]:fence[3]], fence[0], fence[1], true
	default:
		return "", 0, 0, false
	}
}

// locateBracketTag matches the [STATE: {...}] form. The object end is
// found with a brace depth counter rather than a minimal match, because
// structured items_added entries nest objects inside the payload.
func locateBracketTag(text string) (payload string, start, end int, ok bool) {
	start = strings.Index(text, stateTagSentinel)
	if start < 0 {
		return "", 0, 0, false
	}

	rest := text[start+len(stateTagSentinel):]
	braceOffset := strings.IndexByte(rest, '{')
	if braceOffset < 0 || strings.TrimSpace(rest[:braceOffset]) != "" {
		return "", 0, 0, false
	}

	depth := 0
	objEnd := -1
	for i := braceOffset; i < len(rest); i++ {
		switch rest[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				objEnd = i + 1
			}
		}
		if objEnd >= 0 {
			break
		}
	}
	if objEnd < 0 {
		return "", 0, 0, false
	}

	// The object must be followed by the closing bracket of the tag.
	tail := rest[objEnd:]
	closing := strings.IndexByte(tail, ']')
	if closing < 0 || strings.TrimSpace(tail[:closing]) != "" {
		return "", 0, 0, false
	}

	payload = rest[braceOffset:objEnd]
	end = start + len(stateTagSentinel) + objEnd + closing + 1
	return payload, start, end, true
}
