package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"laundry-coordinator/internal/model"
)

var (
	shortRe     = regexp.MustCompile(`(?i)^([WD])\s*(\d+)$`)
	levelKindRe = regexp.MustCompile(`(?i)^(\d+)\s*[_\-\s]\s*(washer|dryer|w|d)\s*[_\-\s]?\s*(\d+)$`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// ParsedID holds the structured data parsed from a machine id.
type ParsedID struct {
	Kind  model.Kind
	Level string // empty when the id carries no level
	Seq   int
}

// ParseMachineID understands "W1", "d3", "9_washer_1", "17-D2" and "9 W 4".
func ParseMachineID(raw string) (ParsedID, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))

	if m := shortRe.FindStringSubmatch(s); m != nil {
		seq, err := strconv.Atoi(m[2])
		if err == nil && seq > 0 {
			return ParsedID{Kind: kindOf(m[1]), Seq: seq}, nil
		}
	}

	if m := levelKindRe.FindStringSubmatch(s); m != nil {
		seq, err := strconv.Atoi(m[3])
		if err == nil && seq > 0 {
			return ParsedID{Kind: kindOf(m[2]), Level: m[1], Seq: seq}, nil
		}
	}

	return ParsedID{}, fmt.Errorf("unable to parse machine id: %q", raw)
}

// ParseKind accepts "washer", "Washer", "W" and the dryer equivalents.
func ParseKind(raw string) (model.Kind, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty machine kind")
	}
	switch strings.ToLower(s) {
	case "w", "washer":
		return model.KindWasher, nil
	case "d", "dryer":
		return model.KindDryer, nil
	}
	return "", fmt.Errorf("unknown machine kind: %q", raw)
}

func kindOf(token string) model.Kind {
	k, _ := ParseKind(token)
	return k
}
