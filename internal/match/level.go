package match

import "strings"

// Level is the ordinal experience scale used to compare candidates with postings.
type Level int

const (
	Beginner     Level = 1
	Intermediate Level = 2
	Advanced     Level = 3
)

var levelNames = map[string]Level{
	"beginner":     Beginner,
	"intermediate": Intermediate,
	"advanced":     Advanced,
}

// ParseLevel maps a level name to the scale. Unrecognized names count as Beginner.
func ParseLevel(raw string) Level {
	if lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return lvl
	}
	return Beginner
}

// IsLevelName reports whether raw names a level on the scale.
func IsLevelName(raw string) bool {
	_, ok := levelNames[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}

func (l Level) String() string {
	switch l {
	case Intermediate:
		return "intermediate"
	case Advanced:
		return "advanced"
	default:
		return "beginner"
	}
}

// levelAbsent reports an unset level. Any other value, blank or not, is parsed
// and falls back to Beginner when unrecognized.
func levelAbsent(raw string) bool {
	return raw == ""
}
