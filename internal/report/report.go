// Package report aggregates per-competitor match results into the course
// competition report: ranked competitors, level counts, and summary
// statistics. The JSON shape of Report is the wire format consumed by the
// export and API layers and must round-trip losslessly.
package report

import (
	"sort"

	"github.com/collegeradar/collegeradar-go/internal/compare"
	"github.com/collegeradar/collegeradar-go/internal/config"
	"github.com/collegeradar/collegeradar-go/internal/match"
	"github.com/collegeradar/collegeradar-go/internal/sliceutil"
)

// Report is the complete course competition analysis for one home college.
type Report struct {
	YourCollege YourCollege        `json:"your_college"`
	Competitors []CompetitorReport `json:"competitors"`
	Summary     Summary            `json:"summary"`
}

// YourCollege describes the home college's side of the report.
type YourCollege struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Location     string   `json:"location"`
	TotalCourses int      `json:"total_courses"`
	Courses      []string `json:"courses"`
}

// CompetitorReport is the per-competitor section of the report.
type CompetitorReport struct {
	Name               string            `json:"name"`
	URL                string            `json:"url"`
	TotalCourses       int               `json:"total_courses"`
	ExactMatches       []string          `json:"exact_matches"`
	ExactMatchCount    int               `json:"exact_match_count"`
	CloseMatches       []match.Pair      `json:"close_matches"`
	CloseMatchCount    int               `json:"close_match_count"`
	UniqueToCompetitor []string          `json:"unique_to_competitor"`
	UniqueToYours      []string          `json:"unique_to_yours"`
	CompetitionLevel   match.CourseLevel `json:"competition_level"`
	CompetitionScore   float64           `json:"competition_score"`
	MatchPercentage    float64           `json:"match_percentage"`
}

// Summary holds aggregate statistics over all analyzed competitors.
type Summary struct {
	TotalCompetitorsAnalyzed int             `json:"total_competitors_analyzed"`
	VeryHighCompetition      int             `json:"very_high_competition"`
	HighCompetition          int             `json:"high_competition"`
	MediumCompetition        int             `json:"medium_competition"`
	LowCompetition           int             `json:"low_competition"`
	AverageMatchPercentage   float64         `json:"average_match_percentage"`
	BiggestCompetitors       []TopCompetitor `json:"biggest_competitors"`
}

// TopCompetitor is one entry of the biggest-competitors ranking.
type TopCompetitor struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Matches int     `json:"matches"`
}

// CompetitorCourses is the input for one competitor: its identity plus the
// raw course list collected by scraping or import.
type CompetitorCourses struct {
	Name     string
	URL      string
	Programs []string
}

// Builder assembles reports from a home profile and competitor course
// lists using one shared matcher.
type Builder struct {
	matcher *match.Matcher
	cfg     config.MatchingConfig
}

// NewBuilder creates a report Builder.
func NewBuilder(cfg config.MatchingConfig) *Builder {
	return &Builder{
		matcher: match.NewMatcher(cfg),
		cfg:     cfg,
	}
}

// Build runs the matching pipeline against every competitor and assembles
// the full report. Competitors appear in input order; the summary ranking
// is sorted by score.
func (b *Builder) Build(home *compare.CollegeProfile, competitors []CompetitorCourses) *Report {
	homeCourses := match.NormalizeList(home.Programs)

	r := &Report{
		YourCollege: YourCollege{
			ID:           home.ID,
			Name:         home.Name,
			Location:     home.Location,
			TotalCourses: len(homeCourses),
			Courses:      homeCourses,
		},
		Competitors: make([]CompetitorReport, 0, len(competitors)),
	}

	for _, comp := range competitors {
		result := b.matcher.Match(home.Programs, comp.Programs)
		r.Competitors = append(r.Competitors, CompetitorReport{
			Name:               comp.Name,
			URL:                comp.URL,
			TotalCourses:       result.TotalCourses,
			ExactMatches:       result.ExactMatches,
			ExactMatchCount:    len(result.ExactMatches),
			CloseMatches:       result.CloseMatches,
			CloseMatchCount:    len(result.CloseMatches),
			UniqueToCompetitor: sliceutil.Truncate(result.UniqueToCompetitor, b.cfg.MaxUniquePrograms),
			UniqueToYours:      sliceutil.Truncate(result.UniqueToHome, b.cfg.MaxUniquePrograms),
			CompetitionLevel:   result.Level,
			CompetitionScore:   result.Score,
			MatchPercentage:    result.MatchPercentage,
		})
	}

	r.Summary = b.buildSummary(r.Competitors)
	return r
}

// buildSummary computes the aggregate statistics. Level buckets go by
// score thresholds. A competitor with zero courses counts as a 0% data
// point in the average match percentage, not as an excluded sample.
func (b *Builder) buildSummary(competitors []CompetitorReport) Summary {
	s := Summary{
		TotalCompetitorsAnalyzed: len(competitors),
		BiggestCompetitors:       []TopCompetitor{},
	}
	if len(competitors) == 0 {
		return s
	}

	totalMatchPct := 0.0
	for _, c := range competitors {
		totalMatchPct += c.MatchPercentage
		switch {
		case c.CompetitionScore >= b.cfg.VeryHighScore:
			s.VeryHighCompetition++
		case c.CompetitionScore >= b.cfg.HighScore:
			s.HighCompetition++
		case c.CompetitionScore >= b.cfg.MediumScore:
			s.MediumCompetition++
		default:
			s.LowCompetition++
		}
	}
	s.AverageMatchPercentage = totalMatchPct / float64(len(competitors))

	ranked := make([]CompetitorReport, len(competitors))
	copy(ranked, competitors)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CompetitionScore > ranked[j].CompetitionScore
	})

	for _, c := range sliceutil.Truncate(ranked, b.cfg.TopCompetitors) {
		s.BiggestCompetitors = append(s.BiggestCompetitors, TopCompetitor{
			Name:    c.Name,
			Score:   c.CompetitionScore,
			Matches: c.ExactMatchCount,
		})
	}
	return s
}
