package source

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidTopic = errors.New("source: invalid topic")

// ValidateTopic checks a subscription filter: non-blank, no control
// characters, wildcards only as whole levels and '#' only as the last level.
func ValidateTopic(topic string) error {
	if strings.TrimSpace(topic) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTopic)
	}
	if strings.ContainsAny(topic, "\x00\t\n\r") {
		return fmt.Errorf("%w: control character in %q", ErrInvalidTopic, topic)
	}
	levels := strings.Split(topic, "/")
	for i, level := range levels {
		if strings.Contains(level, "+") && level != "+" {
			return fmt.Errorf("%w: '+' must occupy a whole level in %q", ErrInvalidTopic, topic)
		}
		if strings.Contains(level, "#") {
			if level != "#" {
				return fmt.Errorf("%w: '#' must occupy a whole level in %q", ErrInvalidTopic, topic)
			}
			if i != len(levels)-1 {
				return fmt.Errorf("%w: '#' must be the last level in %q", ErrInvalidTopic, topic)
			}
		}
	}
	return nil
}

// TopicColor maps a topic to a stable "#rrggbb" color.
func TopicColor(topic string) string {
	sum := md5.Sum([]byte(topic))
	return "#" + hex.EncodeToString(sum[:3])
}

// TruncatePayload shortens p to max runes, appending "..." when cut.
func TruncatePayload(p string, max int) string {
	if max <= 0 {
		max = 100
	}
	r := []rune(p)
	if len(r) <= max {
		return p
	}
	return string(r[:max]) + "..."
}
