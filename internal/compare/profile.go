package compare

// CollegeProfile describes one college for whole-profile comparison.
// Numeric metrics are pointers because absent is a distinct state from
// zero; an absent metric is excluded from similarity averages, never
// assumed to be 0.
type CollegeProfile struct {
	ID       string
	Name     string
	Location string
	// Programs keep caller insertion order for display; comparison runs
	// on a normalized derived set.
	Programs  []string
	SourceURL string

	Tuition        *float64
	Enrollment     *float64
	AcceptanceRate *float64 // 0 to 1
	AvgGPA         *float64
	AvgSAT         *float64
	AvgACT         *float64

	Latitude  *float64
	Longitude *float64
}

// academicMetrics returns the metric pairs considered by the academic
// similarity component, in a fixed order.
func academicMetrics(a, b *CollegeProfile) [][2]*float64 {
	return [][2]*float64{
		{a.AvgGPA, b.AvgGPA},
		{a.AvgSAT, b.AvgSAT},
		{a.AvgACT, b.AvgACT},
		{a.AcceptanceRate, b.AcceptanceRate},
	}
}

// Float64Ptr returns a pointer to v. Convenience for building profiles.
func Float64Ptr(v float64) *float64 {
	return &v
}
