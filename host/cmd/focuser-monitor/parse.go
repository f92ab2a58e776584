package main

import (
	"strconv"
	"strings"
)

// Line is one decoded firmware debug line: "[TAG] text" or a timing ring
// entry "[TIMING] NAME clock=N v1=N v2=N".
type Line struct {
	Tag   string
	Text  string
	Event string
	Clock uint32
	V1    int32
	V2    int32
	Alert bool // event names ending in '!' flag failures
}

// IsEvent reports whether the line is a timing ring entry
func (l Line) IsEvent() bool {
	return l.Event != ""
}

// ParseLine decodes a debug line. Lines without a tag keep the whole text.
func ParseLine(s string) Line {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") {
		return Line{Text: s}
	}
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return Line{Text: s}
	}
	l := Line{Tag: s[1:end], Text: strings.TrimSpace(s[end+1:])}
	if l.Tag != "TIMING" || strings.HasPrefix(l.Text, "===") {
		return l
	}

	fields := strings.Fields(l.Text)
	if len(fields) == 0 {
		return l
	}
	ev := Line{Tag: l.Tag, Text: l.Text, Event: strings.TrimSuffix(fields[0], "!")}
	ev.Alert = strings.HasSuffix(fields[0], "!")
	for _, f := range fields[1:] {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			return l
		}
		switch k {
		case "clock":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return l
			}
			ev.Clock = uint32(n)
		case "v1", "v2":
			n, err := strconv.ParseInt(v, 10, 32)
			if err != nil {
				return l
			}
			if k == "v1" {
				ev.V1 = int32(n)
			} else {
				ev.V2 = int32(n)
			}
		}
	}
	return ev
}
