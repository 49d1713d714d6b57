package agentui

import (
	"encoding/json"
	"strings"
	"time"
)

// LogLine is one classified line from the workflow log stream. Event is set
// only for lines that decoded into a lifecycle event.
type LogLine struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Event     *Event    `json:"event,omitempty"`
}

// Layouts accepted for `[timestamp] text` lines, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"15:04:05",
}

// ParseLogLine classifies a single raw line. It returns nil for blank lines
// and never fails: lines that look like events but carry malformed JSON
// degrade to plain timestamped messages.
//
// Classification order:
//  1. `[Kind] {json}` with a known event kind: decode into an Event. The
//     event's own created_at, when present, is authoritative for display.
//  2. `[timestamp] text`: extract the timestamp, keep the rest as message.
//  3. anything else: bare message stamped with the current time.
func ParseLogLine(line string) *LogLine {
	return parseLogLineAt(line, time.Now())
}

func parseLogLineAt(line string, now time.Time) *LogLine {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		if end := strings.IndexByte(trimmed, ']'); end > 1 {
			token := trimmed[1:end]
			rest := strings.TrimSpace(trimmed[end+1:])

			if EventType(token).Known() {
				var ev Event
				if err := json.Unmarshal([]byte(rest), &ev); err == nil {
					ev.Kind = EventType(token)
					ts := now
					if ev.CreatedAt > 0 {
						ts = time.Unix(ev.CreatedAt, 0)
					}
					return &LogLine{Timestamp: ts, Message: rest, Event: &ev}
				}
			}

			if ts, ok := parseLineTimestamp(token, now); ok {
				return &LogLine{Timestamp: ts, Message: rest}
			}
		}
	}

	return &LogLine{Timestamp: now, Message: trimmed}
}

// parseLineTimestamp tries the accepted layouts. Time-only values borrow
// the current date.
func parseLineTimestamp(token string, now time.Time) (time.Time, bool) {
	token = strings.TrimSpace(token)
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, token)
		if err != nil {
			continue
		}
		if layout == "15:04:05" {
			t = time.Date(now.Year(), now.Month(), now.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, now.Location())
		}
		return t, true
	}
	return time.Time{}, false
}

// ParseLogLines splits text on newlines and classifies every non-blank
// line. It is pure and restartable: re-parsing any prefix of a growing log
// yields a prefix of the same lines.
func ParseLogLines(text string) []LogLine {
	if text == "" {
		return nil
	}

	now := time.Now()
	raw := strings.Split(text, "\n")
	lines := make([]LogLine, 0, len(raw))
	for _, r := range raw {
		if l := parseLogLineAt(r, now); l != nil {
			lines = append(lines, *l)
		}
	}
	return lines
}

// eventLineShape reports whether a raw line carries a known event tag,
// regardless of whether its JSON payload decodes. The stream reader uses it
// to count malformed event lines.
func eventLineShape(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "[") {
		return false
	}
	end := strings.IndexByte(trimmed, ']')
	if end <= 1 {
		return false
	}
	return EventType(trimmed[1:end]).Known()
}
