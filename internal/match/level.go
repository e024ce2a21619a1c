package match

// CourseLevel is the five-tier competition classification for course-level
// matching. It is ordered from weakest to strongest competition.
type CourseLevel int

const (
	VeryLow CourseLevel = iota
	Low
	Medium
	High
	VeryHigh
)

// String returns the canonical wire representation of the level.
func (l CourseLevel) String() string {
	switch l {
	case VeryHigh:
		return "VERY_HIGH"
	case High:
		return "HIGH"
	case Medium:
		return "MEDIUM"
	case Low:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}

// Describe returns a human-readable description of the level for text reports.
func (l CourseLevel) Describe() string {
	switch l {
	case VeryHigh:
		return "VERY HIGH - Direct course competitor"
	case High:
		return "HIGH - Significant course overlap"
	case Medium:
		return "MEDIUM - Some course overlap"
	case Low:
		return "LOW - Minimal course overlap"
	default:
		return "VERY LOW - Few to no overlapping courses"
	}
}

// ParseCourseLevel maps a wire representation back to a CourseLevel.
// Unknown strings map to VeryLow.
func ParseCourseLevel(s string) CourseLevel {
	switch s {
	case "VERY_HIGH":
		return VeryHigh
	case "HIGH":
		return High
	case "MEDIUM":
		return Medium
	case "LOW":
		return Low
	default:
		return VeryLow
	}
}

// MarshalText implements encoding.TextMarshaler so levels serialize as
// their wire strings in JSON reports.
func (l CourseLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *CourseLevel) UnmarshalText(text []byte) error {
	*l = ParseCourseLevel(string(text))
	return nil
}
