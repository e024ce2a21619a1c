package geo

import (
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/collegeradar/collegeradar-go/internal/sliceutil"
)

// MapEntry is one competitor placed on the map.
type MapEntry struct {
	Name          string  `json:"name"`
	Level         string  `json:"level"`
	Score         float64 `json:"score"`
	Point         Point   `json:"point"`
	DistanceMiles float64 `json:"distance_miles"`
	Color         string  `json:"color"`
}

// levelColor maps a competition level to its marker color.
func levelColor(level string) string {
	switch level {
	case "HIGH":
		return "#ea4335"
	case "MEDIUM":
		return "#fbbc04"
	case "LOW":
		return "#34a853"
	default:
		return "#9ca3af"
	}
}

// SortByDistance returns the entries ordered nearest first.
func SortByDistance(entries []MapEntry) []MapEntry {
	sorted := make([]MapEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DistanceMiles < sorted[j].DistanceMiles
	})
	return sorted
}

// CategorizeEntries groups entries by distance category, nearest first
// within each group.
func CategorizeEntries(entries []MapEntry) map[Category][]MapEntry {
	groups := make(map[Category][]MapEntry)
	for _, e := range SortByDistance(entries) {
		c := Categorize(e.DistanceMiles)
		groups[c] = append(groups[c], e)
	}
	return groups
}

var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
	<title>College Competition Map</title>
	<meta charset="utf-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
	<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
	<style>
		body { font-family: Arial, sans-serif; margin: 20px; }
		.container { max-width: 1200px; margin: 0 auto; }
		.header { background: #1f2937; color: white; padding: 20px; border-radius: 8px; margin-bottom: 20px; }
		#map { height: 600px; border: 1px solid #ddd; border-radius: 8px; margin-bottom: 20px; }
		.info { background: #f3f4f6; padding: 15px; border-radius: 8px; margin-bottom: 20px; }
		.legend { display: grid; grid-template-columns: repeat(2, 1fr); gap: 10px; }
		.legend-item { display: flex; align-items: center; gap: 10px; }
		.color-box { width: 20px; height: 20px; border-radius: 50%; }
		table { width: 100%; border-collapse: collapse; }
		th, td { padding: 10px; text-align: left; border: 1px solid #ddd; }
		th { background: #e5e7eb; }
		.level-badge { color: white; padding: 4px 8px; border-radius: 4px; font-size: 12px; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>College Competition Map</h1>
			<p>Your College: <strong>{{.HomeName}}</strong></p>
			<p>Location: {{printf "%.4f" .Home.Lat}}, {{printf "%.4f" .Home.Lon}}</p>
		</div>

		<div class="info">
			<h3>Legend</h3>
			<div class="legend">
				<div class="legend-item"><div class="color-box" style="background: #4285f4;"></div><span>Your College</span></div>
				<div class="legend-item"><div class="color-box" style="background: #ea4335;"></div><span>HIGH Competition</span></div>
				<div class="legend-item"><div class="color-box" style="background: #fbbc04;"></div><span>MEDIUM Competition</span></div>
				<div class="legend-item"><div class="color-box" style="background: #34a853;"></div><span>LOW Competition</span></div>
			</div>
		</div>

		<div id="map"></div>

		<div class="info">
			<h3>Competitors ({{len .Entries}})</h3>
			<table>
				<tr><th>College Name</th><th>Competition</th><th>Distance</th><th>Match</th></tr>
				{{range .Entries}}
				<tr>
					<td>{{.Name}}</td>
					<td><span class="level-badge" style="background: {{.Color}};">{{.Level}}</span></td>
					<td>{{printf "%.1f" .DistanceMiles}} mi</td>
					<td>{{printf "%.0f" .ScorePercent}}%</td>
				</tr>
				{{end}}
			</table>
		</div>
	</div>

	<script>
		var map = L.map('map').setView([{{.Home.Lat}}, {{.Home.Lon}}], 6);
		L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
			attribution: '&copy; OpenStreetMap contributors'
		}).addTo(map);

		L.circleMarker([{{.Home.Lat}}, {{.Home.Lon}}], {
			radius: 10, color: '#4285f4', fillColor: '#4285f4', fillOpacity: 0.9
		}).addTo(map).bindPopup({{.HomeName}}).bindTooltip("Your College");

		var competitors = {{.EntriesJSON}};
		competitors.forEach(function(c) {
			L.circleMarker([c.point.lat, c.point.lon], {
				radius: 8, color: c.color, fillColor: c.color, fillOpacity: 0.8
			}).addTo(map).bindPopup(
				'<b>' + c.name + '</b><br>' +
				'Level: ' + c.level + '<br>' +
				'Similarity: ' + (c.score * 100).toFixed(1) + '%<br>' +
				'Distance: ' + c.distance_miles.toFixed(1) + ' miles'
			).bindTooltip(c.name);
		});
	</script>
</body>
</html>
`))

type mapEntryView struct {
	MapEntry
	ScorePercent float64
}

type mapView struct {
	HomeName    string
	Home        Point
	Entries     []mapEntryView
	EntriesJSON template.JS
}

// RenderHTMLMap renders an interactive Leaflet map with the home college
// and level-colored competitor markers, plus a distance-sorted table.
func RenderHTMLMap(homeName string, home Point, entries []MapEntry) (string, error) {
	sorted := SortByDistance(entries)
	views := make([]mapEntryView, 0, len(sorted))
	for i := range sorted {
		sorted[i].Color = levelColor(sorted[i].Level)
		views = append(views, mapEntryView{
			MapEntry:     sorted[i],
			ScorePercent: sorted[i].Score * 100,
		})
	}

	encoded, err := json.Marshal(sorted)
	if err != nil {
		return "", fmt.Errorf("failed to encode map entries: %w", err)
	}

	var b strings.Builder
	err = mapTemplate.Execute(&b, mapView{
		HomeName:    homeName,
		Home:        home,
		Entries:     views,
		EntriesJSON: template.JS(encoded),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render map: %w", err)
	}
	return b.String(), nil
}

const reportDivider = "================================================================================"

// DistanceReport renders the plain-text geographic distribution report.
// The regional and national sections list only the closest entries to
// keep the report readable.
func DistanceReport(entries []MapEntry) string {
	groups := CategorizeEntries(entries)
	total := len(groups[Local]) + len(groups[Regional]) + len(groups[National])

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nGEOGRAPHIC COMPETITION ANALYSIS\n%s\n\n", reportDivider, reportDivider)
	fmt.Fprintf(&b, "Total Competitors Mapped: %d\n\n", total)

	writeGroup := func(title string, group []MapEntry, limit int) {
		fmt.Fprintf(&b, "%s: %d\n", title, len(group))
		for _, e := range sliceutil.Truncate(group, limit) {
			fmt.Fprintf(&b, "  - %s - %.1f miles\n", e.Name, e.DistanceMiles)
		}
		b.WriteString("\n")
	}

	writeGroup("LOCAL COMPETITORS (< 50 miles)", groups[Local], len(groups[Local]))
	writeGroup("REGIONAL COMPETITORS (50-250 miles)", groups[Regional], 10)
	writeGroup("NATIONAL COMPETITORS (> 250 miles)", groups[National], 5)

	return b.String()
}
