package scraper

import (
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/collegeradar/collegeradar-go/internal/compare"
	domerrors "github.com/collegeradar/collegeradar-go/internal/errors"
	"github.com/collegeradar/collegeradar-go/internal/logger"
	"github.com/collegeradar/collegeradar-go/internal/stringutil"
)

// MetricsRecorder defines the interface for recording scraper metrics
type MetricsRecorder interface {
	RecordScraperRequest(strategy, status string, duration float64)
}

// CollegeScraper extracts college profiles from arbitrary college websites.
// Program extraction tries several strategies in order and keeps the first
// one that yields results: known selectors, JSON-LD structured data,
// heading sections, then program-looking links.
type CollegeScraper struct {
	client      *Client
	log         *logger.Logger
	metrics     MetricsRecorder
	maxPrograms int
}

// NewCollegeScraper creates a CollegeScraper. maxPrograms caps how many
// programs are kept per page.
func NewCollegeScraper(client *Client, log *logger.Logger, maxPrograms int) *CollegeScraper {
	return &CollegeScraper{
		client:      client,
		log:         log.WithModule("scraper"),
		maxPrograms: maxPrograms,
	}
}

// SetMetrics sets the metrics recorder
func (s *CollegeScraper) SetMetrics(m MetricsRecorder) {
	s.metrics = m
}

// ScrapeCollege fetches a college website and extracts its profile.
func (s *CollegeScraper) ScrapeCollege(ctx context.Context, pageURL string) (*compare.CollegeProfile, error) {
	start := time.Now()

	doc, err := s.client.GetDocument(ctx, pageURL)
	if err != nil {
		s.record("fetch", "error", start)
		return nil, &domerrors.ScraperError{URL: pageURL, Err: err}
	}

	profile, strategy := s.ExtractCollege(doc, pageURL)
	if len(profile.Programs) == 0 {
		s.record(strategy, "not_found", start)
		s.log.WithField("url", pageURL).Warn("no programs found on page")
	} else {
		s.record(strategy, "success", start)
		s.log.WithFields(map[string]any{
			"url":      pageURL,
			"college":  profile.Name,
			"programs": len(profile.Programs),
			"strategy": strategy,
		}).Info("scraped college")
	}
	return profile, nil
}

// ExtractCollege pulls the college profile out of a parsed page. It
// returns the profile and the name of the program-extraction strategy
// that produced results ("none" when nothing matched).
func (s *CollegeScraper) ExtractCollege(doc *goquery.Document, pageURL string) (*compare.CollegeProfile, string) {
	profile := &compare.CollegeProfile{
		ID:             stringutil.SlugFromURL(pageURL),
		Name:           s.extractName(doc, pageURL),
		Location:       extractText(doc, []string{".location", ".address", "[data-location]"}),
		SourceURL:      pageURL,
		Tuition:        extractNumber(doc, []string{".tuition", "[data-tuition]"}),
		Enrollment:     extractNumber(doc, []string{".enrollment", "[data-enrollment]"}),
		AcceptanceRate: extractPercentage(doc, []string{".acceptance-rate", "[data-acceptance]"}),
		AvgGPA:         extractNumber(doc, []string{".avg-gpa", "[data-gpa]"}),
		AvgSAT:         extractNumber(doc, []string{".avg-sat", "[data-sat]"}),
		AvgACT:         extractNumber(doc, []string{".avg-act", "[data-act]"}),
	}

	strategies := []struct {
		name    string
		extract func(*goquery.Document) []string
	}{
		{"selectors", extractProgramsBySelectors},
		{"jsonld", extractProgramsFromJSONLD},
		{"headers", extractProgramsByHeaders},
		{"links", extractProgramsFromLinks},
	}
	for _, strategy := range strategies {
		programs := s.clean(strategy.extract(doc))
		if len(programs) > 0 {
			profile.Programs = programs
			return profile, strategy.name
		}
	}

	profile.Programs = []string{}
	return profile, "none"
}

// extractName tries common heading elements, then meta tags, then the page
// title, then falls back to the host name.
func (s *CollegeScraper) extractName(doc *goquery.Document, pageURL string) string {
	if name := extractText(doc, []string{"h1", ".college-name", ".institution-name"}); name != "" {
		return name
	}
	for _, property := range []string{"og:site_name", "og:title", "twitter:title"} {
		if content, ok := doc.Find(`meta[property="` + property + `"]`).Attr("content"); ok {
			if name := strings.TrimSpace(content); name != "" {
				return name
			}
		}
	}
	if content, ok := doc.Find(`meta[name="application-name"]`).Attr("content"); ok {
		if name := strings.TrimSpace(content); name != "" {
			return name
		}
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return hostOf(pageURL)
}

func hostOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return pageURL
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

// record reports a scraper request to the metrics recorder when one is
// attached.
func (s *CollegeScraper) record(strategy, status string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordScraperRequest(strategy, status, time.Since(start).Seconds())
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// clean collapses whitespace, drops very short entries, de-duplicates
// case-insensitively, and caps the list length.
func (s *CollegeScraper) clean(programs []string) []string {
	seen := make(map[string]struct{}, len(programs))
	out := make([]string, 0, len(programs))
	for _, p := range programs {
		p = whitespaceRun.ReplaceAllString(strings.TrimSpace(p), " ")
		if len(p) <= 2 {
			continue
		}
		key := strings.ToLower(p)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
		if s.maxPrograms > 0 && len(out) >= s.maxPrograms {
			break
		}
	}
	return out
}

func extractText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// extractNumber parses the first numeric value found under the selectors,
// ignoring currency symbols and thousands separators.
func extractNumber(doc *goquery.Document, selectors []string) *float64 {
	text := extractText(doc, selectors)
	if text == "" {
		return nil
	}

	var digits strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			digits.WriteRune(r)
		}
	}
	value, err := strconv.ParseFloat(digits.String(), 64)
	if err != nil {
		return nil
	}
	return &value
}

// extractPercentage parses a rate value. Values above 1 are read as
// percentages and scaled to the 0-1 range.
func extractPercentage(doc *goquery.Document, selectors []string) *float64 {
	value := extractNumber(doc, selectors)
	if value == nil {
		return nil
	}
	if *value > 1 {
		scaled := *value / 100
		return &scaled
	}
	return value
}

func extractProgramsBySelectors(doc *goquery.Document) []string {
	selectors := []string{
		".program", ".major", "[data-program]",
		"li.program", ".programs li", ".majors li", ".degree-list li",
	}

	var programs []string
	for _, selector := range selectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			if text := strings.TrimSpace(sel.Text()); text != "" {
				programs = append(programs, text)
			}
		})
	}
	return programs
}

// extractProgramsFromJSONLD reads schema.org Course entities from JSON-LD
// script blocks, including nodes nested inside an @graph list.
func extractProgramsFromJSONLD(doc *goquery.Document) []string {
	var programs []string

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return
		}

		items, ok := data.([]any)
		if !ok {
			items = []any{data}
		}
		for _, item := range items {
			node, ok := item.(map[string]any)
			if !ok {
				continue
			}
			programs = append(programs, jsonldCourseNames(node)...)
			if graph, ok := node["@graph"].([]any); ok {
				for _, g := range graph {
					if gnode, ok := g.(map[string]any); ok {
						programs = append(programs, jsonldCourseNames(gnode)...)
					}
				}
			}
		}
	})
	return programs
}

// jsonldCourseNames returns the node's name when it describes a course or
// educational offering.
func jsonldCourseNames(node map[string]any) []string {
	name, _ := node["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	nodeType, _ := node["@type"].(string)
	lower := strings.ToLower(nodeType)
	if nodeType == "Course" || strings.Contains(lower, "course") || strings.Contains(lower, "educ") {
		return []string{name}
	}
	return nil
}

var headerKeywords = []string{
	"program", "programs", "major", "majors",
	"degree", "degrees", "undergraduate", "graduate", "academics",
}

// extractProgramsByHeaders finds headings like "Programs" or "Majors" and
// collects list items from the following sibling and the enclosing
// section.
func extractProgramsByHeaders(doc *goquery.Document) []string {
	var programs []string

	doc.Find("h2, h3, h4, h5").Each(func(_ int, header *goquery.Selection) {
		text := strings.ToLower(strings.TrimSpace(header.Text()))
		matched := false
		for _, keyword := range headerKeywords {
			if strings.Contains(text, keyword) {
				matched = true
				break
			}
		}
		if !matched {
			return
		}

		header.Next().Find("li").Each(func(_ int, li *goquery.Selection) {
			if t := strings.TrimSpace(li.Text()); t != "" {
				programs = append(programs, t)
			}
		})
		header.Parent().Find("li").Each(func(_ int, li *goquery.Selection) {
			if t := strings.TrimSpace(li.Text()); t != "" {
				programs = append(programs, t)
			}
		})
	})
	return programs
}

// extractProgramsFromLinks is the last-ditch strategy: anchor text of
// links whose href looks program-related.
func extractProgramsFromLinks(doc *goquery.Document) []string {
	var programs []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.ToLower(href)
		if !strings.Contains(href, "program") && !strings.Contains(href, "major") &&
			!strings.Contains(href, "degree") && !strings.Contains(href, "academics") {
			return
		}
		if text := strings.TrimSpace(a.Text()); len(text) > 2 {
			programs = append(programs, text)
		}
	})
	return programs
}
