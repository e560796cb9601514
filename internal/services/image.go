package services

import (
	"net/url"
	"strings"
)

const (
	pollinationsBase = "https://image.pollinations.ai/prompt/"
	imageStyle       = "fantasy rpg art, oil painting, dnd 5e, highly detailed, cinematic"
	imageTagPrefix   = "[IMAGE:"
)

// ExtractImageTag scans a narrator reply for an [IMAGE: description]
// tag. It returns the reply with the tag removed and the description,
// or the original reply and "" when no tag is present.
func ExtractImageTag(reply string) (string, string) {
	start := strings.Index(reply, imageTagPrefix)
	if start < 0 {
		return reply, ""
	}
	rest := reply[start+len(imageTagPrefix):]
	end := strings.Index(rest, "]")
	if end < 0 {
		return reply, ""
	}
	desc := strings.TrimSpace(rest[:end])

	before := strings.TrimSpace(reply[:start])
	after := strings.TrimSpace(rest[end+1:])
	text := before
	if after != "" {
		if text != "" {
			text += "\n" + after
		} else {
			text = after
		}
	}
	return text, desc
}

// SceneImageURL builds a pollinations.ai image URL for a scene
// description. Returns "" for an empty description.
func SceneImageURL(description string) string {
	if strings.TrimSpace(description) == "" {
		return ""
	}
	prompt := strings.TrimSpace(description) + ", " + imageStyle
	return pollinationsBase + url.PathEscape(prompt) + "?nologo=true"
}
