package report

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/collegeradar/collegeradar-go/internal/compare"
)

func sampleReport(t *testing.T) *Report {
	t.Helper()

	b := NewBuilder(testMatchingConfig())
	return b.Build(&compare.CollegeProfile{
		ID:       "my_college",
		Name:     "Home College",
		Location: "Springfield, IL",
		Programs: []string{"Computer Science", "Business", "Data Science"},
	}, []CompetitorCourses{
		{
			Name:     "Rival University",
			URL:      "https://rival.edu",
			Programs: []string{"Computer Science", "Applied Data Science", "Law"},
		},
		{
			Name:     "Empty College",
			URL:      "https://empty.edu",
			Programs: nil,
		},
	})
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	original := sampleReport(t)

	var buf bytes.Buffer
	if err := WriteJSON(&buf, original); err != nil {
		t.Fatalf("WriteJSON() failed: %v", err)
	}

	decoded, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON() failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Errorf("round trip changed the report:\noriginal: %+v\ndecoded:  %+v", original, decoded)
	}
}

func TestJSONWireFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleReport(t)); err != nil {
		t.Fatalf("WriteJSON() failed: %v", err)
	}

	// Decode into a generic map to pin the exact field names consumed by
	// downstream exporters.
	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	for _, key := range []string{"your_college", "competitors", "summary"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("top-level key %q missing", key)
		}
	}

	competitors, ok := raw["competitors"].([]any)
	if !ok || len(competitors) == 0 {
		t.Fatalf("competitors = %v", raw["competitors"])
	}
	first, ok := competitors[0].(map[string]any)
	if !ok {
		t.Fatalf("competitor entry = %v", competitors[0])
	}
	for _, key := range []string{
		"name", "url", "total_courses",
		"exact_matches", "exact_match_count",
		"close_matches", "close_match_count",
		"unique_to_competitor", "unique_to_yours",
		"competition_level", "competition_score", "match_percentage",
	} {
		if _, ok := first[key]; !ok {
			t.Errorf("competitor key %q missing", key)
		}
	}
	if level, _ := first["competition_level"].(string); level == "" {
		t.Errorf("competition_level = %v, want wire string", first["competition_level"])
	}

	summary, ok := raw["summary"].(map[string]any)
	if !ok {
		t.Fatalf("summary = %v", raw["summary"])
	}
	for _, key := range []string{
		"total_competitors_analyzed",
		"very_high_competition", "high_competition",
		"medium_competition", "low_competition",
		"average_match_percentage", "biggest_competitors",
	} {
		if _, ok := summary[key]; !ok {
			t.Errorf("summary key %q missing", key)
		}
	}
}

func TestCompressedJSONRoundTrip(t *testing.T) {
	t.Parallel()

	original := sampleReport(t)

	var buf bytes.Buffer
	if err := WriteCompressedJSON(&buf, original); err != nil {
		t.Fatalf("WriteCompressedJSON() failed: %v", err)
	}

	// zstd frames start with the magic 0x28 0xB5 0x2F 0xFD.
	if buf.Len() < 4 || buf.Bytes()[0] != 0x28 || buf.Bytes()[1] != 0xB5 {
		t.Fatalf("output does not look like a zstd frame: % x", buf.Bytes()[:4])
	}

	decoded, err := ReadCompressedJSON(&buf)
	if err != nil {
		t.Fatalf("ReadCompressedJSON() failed: %v", err)
	}
	if !reflect.DeepEqual(original, decoded) {
		t.Error("compressed round trip changed the report")
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleReport(t)); err != nil {
		t.Fatalf("WriteCSV() failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus 2 rows:\n%s", len(lines), buf.String())
	}

	if !strings.HasPrefix(lines[0], "name,url,total_courses") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Rival University") || !strings.Contains(lines[1], "computer science") {
		t.Errorf("first row = %q", lines[1])
	}
	if !strings.Contains(lines[2], "Empty College") {
		t.Errorf("second row = %q", lines[2])
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	text := Render(sampleReport(t))

	for _, fragment := range []string{
		"COURSE COMPETITION ANALYSIS REPORT",
		"YOUR COLLEGE: Home College",
		"Total Courses Offered: 3",
		"COMPETITIVE LANDSCAPE SUMMARY",
		"Total Competitors Analyzed: 2",
		"Rival University",
		"Website: https://rival.edu",
		"EXACT COURSE MATCHES (1):",
		"SIMILAR COURSES (1):",
		"applied data science ~ data science",
	} {
		if !strings.Contains(text, fragment) {
			t.Errorf("rendered report missing %q", fragment)
		}
	}
}
