package report

import (
	"fmt"
	"strings"

	"github.com/collegeradar/collegeradar-go/internal/sliceutil"
)

const divider = "================================================================================"

// Render formats the report as the human-readable text document shown by
// the CLI and the text export.
func Render(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\nCOURSE COMPETITION ANALYSIS REPORT\n%s\n\n", divider, divider)

	fmt.Fprintf(&b, "YOUR COLLEGE: %s\n", r.YourCollege.Name)
	fmt.Fprintf(&b, "Location: %s\n", r.YourCollege.Location)
	fmt.Fprintf(&b, "Total Courses Offered: %d\n", r.YourCollege.TotalCourses)
	fmt.Fprintf(&b, "Courses: %s\n", strings.Join(sliceutil.Truncate(r.YourCollege.Courses, 5), ", "))
	if extra := len(r.YourCollege.Courses) - 5; extra > 0 {
		fmt.Fprintf(&b, "         ... and %d more\n", extra)
	}

	fmt.Fprintf(&b, "\n%s\nCOMPETITIVE LANDSCAPE SUMMARY\n%s\n\n", divider, divider)
	fmt.Fprintf(&b, "Total Competitors Analyzed: %d\n", r.Summary.TotalCompetitorsAnalyzed)
	fmt.Fprintf(&b, "  Very High Competition: %d\n", r.Summary.VeryHighCompetition)
	fmt.Fprintf(&b, "  High Competition: %d\n", r.Summary.HighCompetition)
	fmt.Fprintf(&b, "  Medium Competition: %d\n", r.Summary.MediumCompetition)
	fmt.Fprintf(&b, "  Low Competition: %d\n", r.Summary.LowCompetition)
	fmt.Fprintf(&b, "\nAverage Course Overlap: %.1f%%\n", r.Summary.AverageMatchPercentage)

	if len(r.Summary.BiggestCompetitors) > 0 {
		fmt.Fprintf(&b, "\nTOP %d COMPETITORS:\n", len(r.Summary.BiggestCompetitors))
		for i, comp := range r.Summary.BiggestCompetitors {
			fmt.Fprintf(&b, "\n%d. %s\n", i+1, comp.Name)
			fmt.Fprintf(&b, "   Competition Score: %.2f%%\n", comp.Score*100)
			fmt.Fprintf(&b, "   Course Matches: %d exact matches\n", comp.Matches)
		}
	}

	fmt.Fprintf(&b, "\n%s\nDETAILED COMPETITOR ANALYSIS\n%s\n", divider, divider)

	for _, c := range r.Competitors {
		fmt.Fprintf(&b, "\n%s\n", c.Name)
		fmt.Fprintf(&b, "   Website: %s\n", c.URL)
		fmt.Fprintf(&b, "   Total Courses: %d\n", c.TotalCourses)
		fmt.Fprintf(&b, "   Competition Level: %s\n", c.CompetitionLevel.Describe())
		fmt.Fprintf(&b, "   Match Score: %.1f%%\n", c.MatchPercentage)

		if len(c.ExactMatches) > 0 {
			fmt.Fprintf(&b, "\n   EXACT COURSE MATCHES (%d):\n", len(c.ExactMatches))
			for _, course := range sliceutil.Truncate(c.ExactMatches, 5) {
				fmt.Fprintf(&b, "      - %s\n", course)
			}
			if extra := len(c.ExactMatches) - 5; extra > 0 {
				fmt.Fprintf(&b, "      ... and %d more\n", extra)
			}
		}

		if len(c.CloseMatches) > 0 {
			fmt.Fprintf(&b, "\n   SIMILAR COURSES (%d):\n", len(c.CloseMatches))
			for _, pair := range sliceutil.Truncate(c.CloseMatches, 3) {
				fmt.Fprintf(&b, "      - %s ~ %s\n", pair.Competitor, pair.Home)
			}
			if extra := len(c.CloseMatches) - 3; extra > 0 {
				fmt.Fprintf(&b, "      ... and %d more\n", extra)
			}
		}

		if len(c.UniqueToCompetitor) > 0 {
			fmt.Fprintf(&b, "\n   THEIR UNIQUE COURSES (%d shown):\n", len(c.UniqueToCompetitor))
			for _, course := range sliceutil.Truncate(c.UniqueToCompetitor, 3) {
				fmt.Fprintf(&b, "      - %s\n", course)
			}
			if extra := len(c.UniqueToCompetitor) - 3; extra > 0 {
				fmt.Fprintf(&b, "      ... %d more unique courses\n", extra)
			}
		}

		if len(c.UniqueToYours) > 0 {
			fmt.Fprintf(&b, "\n   YOUR UNIQUE ADVANTAGE (%d courses):\n", len(c.UniqueToYours))
			for _, course := range sliceutil.Truncate(c.UniqueToYours, 3) {
				fmt.Fprintf(&b, "      - %s\n", course)
			}
		}
	}

	fmt.Fprintf(&b, "\n%s\n", divider)
	return b.String()
}
