package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Entry is the parsed form of one log line.
type Entry struct {
	Level     slog.Level
	Component string
	Message   string
	Fields    map[string]string
	// Parsed is false for lines neither format recognizes, such as output
	// from a crashed process.
	Parsed bool
}

// Filter narrows log output. Zero values match everything.
type Filter struct {
	MinLevel  slog.Level
	Component string
	SessionID string
	RequestID string
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", value)
	}
}

// Empty reports whether the filter passes every line.
func (f Filter) Empty() bool {
	return f.MinLevel <= slog.LevelDebug && f.Component == "" && f.SessionID == "" && f.RequestID == ""
}

// Match reports whether line passes the filter.
func (f Filter) Match(line string) bool {
	if f.Empty() {
		return true
	}
	e := Parse(line)
	if !e.Parsed {
		return false
	}
	if e.Level < f.MinLevel {
		return false
	}
	if f.Component != "" && !strings.EqualFold(e.Component, f.Component) {
		return false
	}
	if f.SessionID != "" && e.Fields["session_id"] != f.SessionID {
		return false
	}
	if f.RequestID != "" && e.Fields["request_id"] != f.RequestID {
		return false
	}
	return true
}

// Parse decodes a JSON or console formatted log line.
func Parse(line string) Entry {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		if e, ok := parseJSON(trimmed); ok {
			return e
		}
	}
	return parseConsole(trimmed)
}

func parseJSON(line string) (Entry, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}
	levelName, _ := raw["level"].(string)
	level, err := ParseLevel(levelName)
	if err != nil || levelName == "" {
		return Entry{}, false
	}
	e := Entry{Level: level, Parsed: true, Fields: make(map[string]string, len(raw))}
	e.Message, _ = raw["msg"].(string)
	e.Component, _ = raw["component"].(string)
	for k, v := range raw {
		switch k {
		case "level", "msg", "ts":
			continue
		}
		e.Fields[k] = stringify(v)
	}
	return e, true
}

// parseConsole reads "<ts> <LEVEL> [component: ]message key=value ...".
func parseConsole(line string) Entry {
	parts := splitTokens(line)
	if len(parts) < 2 {
		return Entry{}
	}
	level, err := ParseLevel(parts[1])
	if err != nil || parts[1] != strings.ToUpper(parts[1]) {
		return Entry{}
	}
	e := Entry{Level: level, Parsed: true, Fields: map[string]string{}}
	rest := parts[2:]
	if len(rest) > 0 && strings.HasSuffix(rest[0], ":") && isKey(strings.TrimSuffix(rest[0], ":")) {
		e.Component = strings.TrimSuffix(rest[0], ":")
		rest = rest[1:]
	}
	var msg []string
	for _, tok := range rest {
		key, value, ok := strings.Cut(tok, "=")
		if ok && isKey(key) {
			if unq, err := strconv.Unquote(value); err == nil {
				value = unq
			}
			e.Fields[key] = value
			continue
		}
		if len(e.Fields) == 0 {
			msg = append(msg, tok)
		}
	}
	e.Message = strings.Join(msg, " ")
	return e
}

// splitTokens splits on spaces, keeping double-quoted runs together.
func splitTokens(line string) []string {
	var (
		out     []string
		cur     strings.Builder
		quoted  bool
		escaped bool
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range line {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && quoted:
			escaped = true
		case r == '"':
			quoted = !quoted
		case r == ' ' && !quoted:
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return out
}

func isKey(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' && r != '.' && r != '-' {
			return false
		}
	}
	return true
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
