package storage

import (
	"github.com/collegeradar/collegeradar-go/internal/compare"
)

// College is a stored college record: the home college or one competitor.
// Optional metrics are pointers; NULL in the database means unknown and is
// never coerced to zero.
type College struct {
	ID        string
	Name      string
	Location  string
	Programs  []string
	SourceURL string

	Tuition        *float64
	Enrollment     *float64
	AcceptanceRate *float64
	AvgGPA         *float64
	AvgSAT         *float64
	AvgACT         *float64

	Latitude  *float64
	Longitude *float64

	UpdatedAt int64
}

// Profile converts the stored record into a comparison profile.
func (c *College) Profile() *compare.CollegeProfile {
	return &compare.CollegeProfile{
		ID:             c.ID,
		Name:           c.Name,
		Location:       c.Location,
		Programs:       c.Programs,
		SourceURL:      c.SourceURL,
		Tuition:        c.Tuition,
		Enrollment:     c.Enrollment,
		AcceptanceRate: c.AcceptanceRate,
		AvgGPA:         c.AvgGPA,
		AvgSAT:         c.AvgSAT,
		AvgACT:         c.AvgACT,
		Latitude:       c.Latitude,
		Longitude:      c.Longitude,
	}
}

// CollegeFromProfile converts a comparison profile into a storable record.
func CollegeFromProfile(p *compare.CollegeProfile) *College {
	return &College{
		ID:             p.ID,
		Name:           p.Name,
		Location:       p.Location,
		Programs:       p.Programs,
		SourceURL:      p.SourceURL,
		Tuition:        p.Tuition,
		Enrollment:     p.Enrollment,
		AcceptanceRate: p.AcceptanceRate,
		AvgGPA:         p.AvgGPA,
		AvgSAT:         p.AvgSAT,
		AvgACT:         p.AvgACT,
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
	}
}

// ComparisonRecord is one persisted comparison outcome. Records are keyed
// by competitor and overwritten when an analysis is re-run; last write
// wins.
type ComparisonRecord struct {
	CompetitorID    string
	CompetitorName  string
	SimilarityScore float64
	Level           string
	Analysis        string
	CreatedAt       int64
}
