package sched

import (
	"fmt"
	"strconv"
	"strings"
)

// timingEntry is one node's contribution to the timings report.
type timingEntry struct {
	name   string
	shader string
	ms     float64
	ok     bool
}

func formatTimings(entries []timingEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		if e.ok {
			parts[i] = fmt.Sprintf("%s[%s]=%sms", e.name, e.shader, strconv.FormatFloat(e.ms, 'f', 2, 64))
		} else {
			parts[i] = fmt.Sprintf("%s[%s]=n/a", e.name, e.shader)
		}
	}
	return strings.Join(parts, " | ")
}

// ParsedTiming is one entry recovered by ParseTimings.
type ParsedTiming struct {
	Name   string
	Shader string
	MS     float64
	OK     bool
}

// ParseTimings parses a report produced by formatTimings back into
// its (name, shader, ms) tuples, round-tripping the format described
// in spec.md §6 ("Node-timing report format").
func ParseTimings(report string) ([]ParsedTiming, error) {
	if report == "" {
		return nil, nil
	}
	fields := strings.Split(report, " | ")
	out := make([]ParsedTiming, 0, len(fields))
	for _, f := range fields {
		eq := strings.IndexByte(f, '=')
		if eq < 0 {
			return nil, fmt.Errorf(prefix+"malformed timing entry %q", f)
		}
		head, val := f[:eq], f[eq+1:]
		ob := strings.IndexByte(head, '[')
		cb := strings.IndexByte(head, ']')
		if ob < 0 || cb < 0 || cb < ob {
			return nil, fmt.Errorf(prefix+"malformed timing entry %q", f)
		}
		name := head[:ob]
		shader := head[ob+1 : cb]
		if val == "n/a" {
			out = append(out, ParsedTiming{Name: name, Shader: shader})
			continue
		}
		msStr := strings.TrimSuffix(val, "ms")
		ms, err := strconv.ParseFloat(msStr, 64)
		if err != nil {
			return nil, fmt.Errorf(prefix+"bad duration in %q: %w", f, err)
		}
		out = append(out, ParsedTiming{Name: name, Shader: shader, MS: ms, OK: true})
	}
	return out, nil
}
