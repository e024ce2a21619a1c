package match

import (
	"github.com/collegeradar/collegeradar-go/internal/config"
)

// Strategy selects the tie-break rule for close-match detection.
type Strategy int

const (
	// FirstMatch takes the first home program, in home-list order, whose
	// token ratio exceeds the threshold. Output is order-sensitive; this
	// is the default policy.
	FirstMatch Strategy = iota

	// BestMatch scans all home programs and takes the highest ratio above
	// the threshold, falling back to home-list order on exact ties.
	BestMatch
)

// Pair links one competitor program to the home program it was matched
// against. Each competitor program appears in at most one pair.
type Pair struct {
	Competitor string `json:"competitor_program"`
	Home       string `json:"home_program"`
}

// MatchResult is the outcome of matching one competitor course list against
// the home college's list.
type MatchResult struct {
	ExactMatches       []string
	CloseMatches       []Pair
	UniqueToCompetitor []string
	UniqueToHome       []string
	TotalCourses       int
	Score              float64
	Level              CourseLevel
	MatchPercentage    float64
}

// Matcher runs the course-level matching pipeline with an explicit,
// immutable threshold configuration.
type Matcher struct {
	cfg      config.MatchingConfig
	strategy Strategy
}

// NewMatcher creates a Matcher using the FirstMatch strategy.
func NewMatcher(cfg config.MatchingConfig) *Matcher {
	return &Matcher{cfg: cfg, strategy: FirstMatch}
}

// NewMatcherWithStrategy creates a Matcher with an explicit close-match
// tie-break strategy.
func NewMatcherWithStrategy(cfg config.MatchingConfig, strategy Strategy) *Matcher {
	return &Matcher{cfg: cfg, strategy: strategy}
}

// FindCloseMatches pairs competitor programs with similarly-named home
// programs using token overlap. Programs in exclude (already matched
// exactly) are skipped on both sides. A competitor program with no home
// program strictly above the threshold produces no pair; duplicate pairs
// collapse.
func (m *Matcher) FindCloseMatches(home, competitor []string, exclude map[string]struct{}) []Pair {
	homeList := make([]string, 0, len(home))
	for _, h := range NormalizeList(home) {
		if _, skip := exclude[h]; skip {
			continue
		}
		homeList = append(homeList, h)
	}

	seen := make(map[Pair]struct{})
	pairs := make([]Pair, 0)
	for _, c := range NormalizeList(competitor) {
		if _, skip := exclude[c]; skip {
			continue
		}

		partner, ok := m.closestHome(c, homeList)
		if !ok {
			continue
		}

		pair := Pair{Competitor: c, Home: partner}
		if _, dup := seen[pair]; dup {
			continue
		}
		seen[pair] = struct{}{}
		pairs = append(pairs, pair)
	}
	return pairs
}

// closestHome finds the match partner for one competitor program according
// to the configured strategy.
func (m *Matcher) closestHome(comp string, homeList []string) (string, bool) {
	best := ""
	bestRatio := 0.0
	for _, h := range homeList {
		ratio := TokenJaccard(comp, h)
		if ratio <= m.cfg.CloseMatchThreshold {
			continue
		}
		if m.strategy == FirstMatch {
			return h, true
		}
		if ratio > bestRatio {
			best, bestRatio = h, ratio
		}
	}
	return best, best != ""
}

// Score computes the course-level competition score in [0, 1]. Exact
// matches carry twice the weight of close matches under the default
// configuration. A competitor with no courses scores 0.
func (m *Matcher) Score(exactCount, closeCount, competitorTotal int) float64 {
	if competitorTotal <= 0 {
		return 0.0
	}

	weighted := float64(exactCount)*m.cfg.ExactMatchWeight + float64(closeCount)*m.cfg.CloseMatchWeight
	score := weighted / float64(competitorTotal)
	return min(1.0, score)
}

// Classify maps a course-level score onto the five-tier competition scale.
func (m *Matcher) Classify(score float64) CourseLevel {
	switch {
	case score >= m.cfg.VeryHighScore:
		return VeryHigh
	case score >= m.cfg.HighScore:
		return High
	case score >= m.cfg.MediumScore:
		return Medium
	case score >= m.cfg.LowScore:
		return Low
	default:
		return VeryLow
	}
}

// Match runs the full pipeline for one competitor: exact matches, close
// matches over the remainder, unique lists on both sides, score, level,
// and match percentage. The denominator for both score and percentage is
// the competitor's normalized course count.
func (m *Matcher) Match(home, competitor []string) MatchResult {
	homeList := NormalizeList(home)
	compList := NormalizeList(competitor)

	exact := FindExactMatches(home, competitor)
	exclude := make(map[string]struct{}, len(exact))
	for _, e := range exact {
		exclude[e] = struct{}{}
	}

	closePairs := m.FindCloseMatches(home, competitor, exclude)

	closeComp := make(map[string]struct{}, len(closePairs))
	closeHome := make(map[string]struct{}, len(closePairs))
	for _, p := range closePairs {
		closeComp[p.Competitor] = struct{}{}
		closeHome[p.Home] = struct{}{}
	}

	uniqueToCompetitor := make([]string, 0)
	for _, c := range compList {
		if _, ok := exclude[c]; ok {
			continue
		}
		if _, ok := closeComp[c]; ok {
			continue
		}
		uniqueToCompetitor = append(uniqueToCompetitor, c)
	}

	uniqueToHome := make([]string, 0)
	for _, h := range homeList {
		if _, ok := exclude[h]; ok {
			continue
		}
		if _, ok := closeHome[h]; ok {
			continue
		}
		uniqueToHome = append(uniqueToHome, h)
	}

	total := len(compList)
	score := m.Score(len(exact), len(closePairs), total)

	matchPct := 0.0
	if total > 0 {
		matchPct = float64(len(exact)) / float64(total) * 100
	}

	return MatchResult{
		ExactMatches:       exact,
		CloseMatches:       closePairs,
		UniqueToCompetitor: uniqueToCompetitor,
		UniqueToHome:       uniqueToHome,
		TotalCourses:       total,
		Score:              score,
		Level:              m.Classify(score),
		MatchPercentage:    matchPct,
	}
}
