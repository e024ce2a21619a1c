// Package compare implements the college-level competition comparator. It
// combines program overlap with auxiliary academic and enrollment metrics
// into a weighted 0-1 score and a four-tier competition level.
//
// This is a deliberately separate policy from the course-level classifier
// in package match: it operates on whole college profiles, gates on
// program overlap, and classifies on overlap and score jointly.
package compare

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/collegeradar/collegeradar-go/internal/config"
	"github.com/collegeradar/collegeradar-go/internal/match"
	"github.com/collegeradar/collegeradar-go/internal/sliceutil"
)

// Level is the four-tier college-level competition classification.
type Level int

const (
	None Level = iota
	Low
	Medium
	High
)

// String returns the canonical wire representation of the level.
func (l Level) String() string {
	switch l {
	case High:
		return "HIGH"
	case Medium:
		return "MEDIUM"
	case Low:
		return "LOW"
	default:
		return "NONE"
	}
}

// Rank maps the level to its ordinal used for competitor ranking.
func (l Level) Rank() int {
	switch l {
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	default:
		return 0
	}
}

// ParseLevel maps a wire representation back to a Level. Unknown strings
// map to None.
func ParseLevel(s string) Level {
	switch s {
	case "HIGH":
		return High
	case "MEDIUM":
		return Medium
	case "LOW":
		return Low
	default:
		return None
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	*l = ParseLevel(string(text))
	return nil
}

// Comparison is the outcome of comparing the home college with one
// competitor.
type Comparison struct {
	CompetitorID   string  `json:"competitor_id"`
	CompetitorName string  `json:"competitor_name"`
	Score          float64 `json:"score"`
	Level          Level   `json:"level"`
	Analysis       string  `json:"analysis"`
}

// Comparator scores whole-college competition with explicit, immutable
// weights and thresholds.
type Comparator struct {
	cfg config.MatchingConfig
}

// NewComparator creates a Comparator from the given matching configuration.
func NewComparator(cfg config.MatchingConfig) *Comparator {
	return &Comparator{cfg: cfg}
}

// ProgramSimilarity is the Jaccard overlap of the two normalized program
// sets, with the neutral 0.5 default when either side has no data.
func (c *Comparator) ProgramSimilarity(home, competitor *CollegeProfile) float64 {
	return match.OverlapRatio(match.Normalize(home.Programs), match.Normalize(competitor.Programs))
}

// MetricSimilarity compares two optional metric values. Either side absent
// yields the neutral 0.5. Both exactly zero count as identical. Otherwise
// the relative difference against the larger magnitude is inverted and
// clamped at 0.
func MetricSimilarity(v1, v2 *float64) float64 {
	if v1 == nil || v2 == nil {
		return 0.5
	}
	if *v1 == 0 && *v2 == 0 {
		return 1.0
	}

	maxVal := math.Max(math.Abs(*v1), math.Abs(*v2))
	difference := math.Abs(*v1-*v2) / maxVal
	return math.Max(0, 1-difference)
}

// AcademicSimilarity averages MetricSimilarity over the academic metrics
// present in both profiles. Metrics absent on either side are excluded
// from the average; with no shared metric at all the result is the
// neutral 0.5.
func (c *Comparator) AcademicSimilarity(home, competitor *CollegeProfile) float64 {
	sum := 0.0
	count := 0
	for _, pair := range academicMetrics(home, competitor) {
		if pair[0] == nil || pair[1] == nil {
			continue
		}
		sum += MetricSimilarity(pair[0], pair[1])
		count++
	}
	if count == 0 {
		return 0.5
	}
	return sum / float64(count)
}

// Score computes the weighted overall similarity. Program overlap below
// the gate forces the score to 0 regardless of the other components;
// without shared programs a college is not a competitor at all.
func (c *Comparator) Score(home, competitor *CollegeProfile) float64 {
	programSim := c.ProgramSimilarity(home, competitor)
	if programSim < c.cfg.ProgramGate {
		return 0.0
	}

	academicSim := c.AcademicSimilarity(home, competitor)
	enrollmentSim := MetricSimilarity(home.Enrollment, competitor.Enrollment)

	return programSim*c.cfg.ProgramWeight +
		academicSim*c.cfg.AcademicWeight +
		enrollmentSim*c.cfg.EnrollmentWeight
}

// Classify determines the competition level from program overlap and the
// overall score jointly. Score alone is not enough for HIGH or MEDIUM;
// the program overlap bar must clear as well.
func (c *Comparator) Classify(programOverlap, score float64) Level {
	switch {
	case programOverlap > c.cfg.CollegeHighOverlap && score > c.cfg.CollegeHighScore:
		return High
	case programOverlap > c.cfg.CollegeMediumOverlap && score > c.cfg.CollegeMediumScore:
		return Medium
	case programOverlap > c.cfg.ProgramGate:
		return Low
	default:
		return None
	}
}

// Compare produces the full comparison of home against one competitor:
// overall score, competition level, and the analysis text.
func (c *Comparator) Compare(home, competitor *CollegeProfile) Comparison {
	score := c.Score(home, competitor)
	level := c.Classify(c.ProgramSimilarity(home, competitor), score)

	return Comparison{
		CompetitorID:   competitor.ID,
		CompetitorName: competitor.Name,
		Score:          score,
		Level:          level,
		Analysis:       c.analysisText(home, competitor, score, level),
	}
}

// RankComparisons sorts comparisons by competition level rank then score,
// both descending. The sort is stable so equal entries keep input order.
func RankComparisons(comparisons []Comparison) []Comparison {
	ranked := make([]Comparison, len(comparisons))
	copy(ranked, comparisons)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Level.Rank() != ranked[j].Level.Rank() {
			return ranked[i].Level.Rank() > ranked[j].Level.Rank()
		}
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// analysisText renders the human-readable comparison breakdown stored
// alongside each comparison record.
func (c *Comparator) analysisText(home, competitor *CollegeProfile, score float64, level Level) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Competition Analysis:\n")
	fmt.Fprintf(&b, "- Similarity Score: %.2f%%\n", score*100)
	fmt.Fprintf(&b, "- Competition Level: %s\n\n", level)

	fmt.Fprintf(&b, "My College: %s\n", home.Name)
	fmt.Fprintf(&b, "Competitor: %s\n\n", competitor.Name)

	fmt.Fprintf(&b, "Academic Metrics Comparison:\n")
	fmt.Fprintf(&b, "- Acceptance Rate: %s vs %s\n", fmtMetric(home.AcceptanceRate), fmtMetric(competitor.AcceptanceRate))
	fmt.Fprintf(&b, "- Avg GPA: %s vs %s\n", fmtMetric(home.AvgGPA), fmtMetric(competitor.AvgGPA))
	fmt.Fprintf(&b, "- Avg SAT: %s vs %s\n", fmtMetric(home.AvgSAT), fmtMetric(competitor.AvgSAT))
	fmt.Fprintf(&b, "- Avg ACT: %s vs %s\n\n", fmtMetric(home.AvgACT), fmtMetric(competitor.AvgACT))

	fmt.Fprintf(&b, "Size & Cost:\n")
	fmt.Fprintf(&b, "- Enrollment: %s vs %s\n", fmtMetric(home.Enrollment), fmtMetric(competitor.Enrollment))
	fmt.Fprintf(&b, "- Tuition: $%s vs $%s\n\n", fmtMetric(home.Tuition), fmtMetric(competitor.Tuition))

	fmt.Fprintf(&b, "Location:\n- %s vs %s\n\n", orNA(home.Location), orNA(competitor.Location))

	fmt.Fprintf(&b, "Key Insights:\n")
	switch level {
	case High:
		b.WriteString("- This college is a direct competitor with similar metrics\n")
		b.WriteString("- Target similar student demographics and marketing strategies\n")
	case Medium:
		b.WriteString("- This college has some overlapping characteristics\n")
		b.WriteString("- Monitor their programs and offerings\n")
	default:
		b.WriteString("- Limited direct competition\n")
		b.WriteString("- Different positioning in the market\n")
	}

	homeSet := match.Normalize(home.Programs)
	compList := match.NormalizeList(competitor.Programs)

	shared := make([]string, 0)
	uniqueToCompetitor := make([]string, 0)
	for _, p := range compList {
		if _, ok := homeSet[p]; ok {
			shared = append(shared, p)
		} else {
			uniqueToCompetitor = append(uniqueToCompetitor, p)
		}
	}

	if len(shared) > 0 {
		fmt.Fprintf(&b, "\n=== SHARED PROGRAMS ===\n%s\n", strings.Join(sliceutil.Truncate(shared, 5), ", "))
	}
	if len(uniqueToCompetitor) > 0 {
		fmt.Fprintf(&b, "\n=== THEIR UNIQUE PROGRAMS ===\n%s\n", strings.Join(sliceutil.Truncate(uniqueToCompetitor, 5), ", "))
	}

	overlapPct := 0.0
	if len(compList) > 0 {
		overlapPct = float64(len(shared)) / float64(len(compList)) * 100
	}
	fmt.Fprintf(&b, "\nProgram Overlap: %.1f%% of their programs\n", overlapPct)

	if level == None {
		b.WriteString("\nNo significant program overlap - Not a direct competitor\n")
	}

	return b.String()
}

func fmtMetric(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%g", *v)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
