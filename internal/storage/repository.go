package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

const slowQueryThreshold = 100 * time.Millisecond

// SaveCollege inserts or updates a college record. The isHome flag marks
// the home college row; everything else is a competitor.
func (db *DB) SaveCollege(ctx context.Context, college *College, isHome bool) error {
	db.recordIntegrityIssues(college)

	programs, err := json.Marshal(college.Programs)
	if err != nil {
		return fmt.Errorf("encode programs for %s: %w", college.ID, err)
	}

	query := `
		INSERT INTO colleges (
			college_id, name, location, programs,
			tuition, enrollment, acceptance_rate, avg_gpa, avg_sat, avg_act,
			latitude, longitude, source_url, is_home, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(college_id) DO UPDATE SET
			name = excluded.name,
			location = excluded.location,
			programs = excluded.programs,
			tuition = excluded.tuition,
			enrollment = excluded.enrollment,
			acceptance_rate = excluded.acceptance_rate,
			avg_gpa = excluded.avg_gpa,
			avg_sat = excluded.avg_sat,
			avg_act = excluded.avg_act,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			source_url = excluded.source_url,
			is_home = excluded.is_home,
			updated_at = excluded.updated_at
	`
	start := time.Now()
	_, err = db.conn.ExecContext(ctx, query,
		college.ID, college.Name, college.Location, string(programs),
		nullFloat(college.Tuition), nullFloat(college.Enrollment), nullFloat(college.AcceptanceRate),
		nullFloat(college.AvgGPA), nullFloat(college.AvgSAT), nullFloat(college.AvgACT),
		nullFloat(college.Latitude), nullFloat(college.Longitude),
		college.SourceURL, boolToInt(isHome), time.Now().Unix(),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save college",
			"college_id", college.ID,
			"error", err)
		return fmt.Errorf("failed to save college: %w", err)
	}

	if duration := time.Since(start); duration > slowQueryThreshold {
		slog.WarnContext(ctx, "slow database operation",
			"operation", "SaveCollege",
			"duration_ms", duration.Milliseconds(),
			"college_id", college.ID)
	}
	return nil
}

// GetCollege retrieves a college by identifier. Returns nil without error
// when the college does not exist.
func (db *DB) GetCollege(ctx context.Context, id string) (*College, error) {
	query := selectColleges + ` WHERE college_id = ?`

	college, err := scanCollege(db.conn.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query college",
			"college_id", id,
			"error", err)
		return nil, fmt.Errorf("query college: %w", err)
	}
	return college, nil
}

// GetHomeCollege retrieves the home college row. Returns nil without error
// when none has been stored yet.
func (db *DB) GetHomeCollege(ctx context.Context) (*College, error) {
	query := selectColleges + ` WHERE is_home = 1 LIMIT 1`

	college, err := scanCollege(db.conn.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query home college", "error", err)
		return nil, fmt.Errorf("query home college: %w", err)
	}
	return college, nil
}

// ListCompetitors retrieves all competitor colleges ordered by name.
func (db *DB) ListCompetitors(ctx context.Context) ([]*College, error) {
	query := selectColleges + ` WHERE is_home = 0 ORDER BY name`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list competitors", "error", err)
		return nil, fmt.Errorf("query competitors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	competitors := make([]*College, 0)
	for rows.Next() {
		college, err := scanCollege(rows)
		if err != nil {
			return nil, fmt.Errorf("scan competitor: %w", err)
		}
		competitors = append(competitors, college)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate competitors: %w", err)
	}

	if duration := time.Since(start); duration > slowQueryThreshold {
		slog.WarnContext(ctx, "slow database operation",
			"operation", "ListCompetitors",
			"duration_ms", duration.Milliseconds(),
			"count", len(competitors))
	}
	return competitors, nil
}

// DeleteCompetitor removes one competitor and, via cascade, its comparison
// record.
func (db *DB) DeleteCompetitor(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM colleges WHERE college_id = ? AND is_home = 0`, id)
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete competitor",
			"college_id", id,
			"error", err)
		return fmt.Errorf("delete competitor: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ClearCompetitors removes all competitor rows and their comparisons.
func (db *DB) ClearCompetitors(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM colleges WHERE is_home = 0`); err != nil {
		slog.ErrorContext(ctx, "failed to clear competitors", "error", err)
		return fmt.Errorf("clear competitors: %w", err)
	}
	return nil
}

// CountCompetitors returns the number of stored competitor colleges.
func (db *DB) CountCompetitors(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM colleges WHERE is_home = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count competitors: %w", err)
	}
	return count, nil
}

// CountComparisons returns the number of stored comparison records.
func (db *DB) CountComparisons(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM comparisons`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count comparisons: %w", err)
	}
	return count, nil
}

// UpdateCoordinates stores geocoded coordinates for a college.
func (db *DB) UpdateCoordinates(ctx context.Context, id string, lat, lon float64) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE colleges SET latitude = ?, longitude = ?, updated_at = ? WHERE college_id = ?`,
		lat, lon, time.Now().Unix(), id)
	if err != nil {
		slog.ErrorContext(ctx, "failed to update coordinates",
			"college_id", id,
			"error", err)
		return fmt.Errorf("update coordinates: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SaveComparison inserts or overwrites the comparison record for one
// competitor. Last write wins per competitor.
func (db *DB) SaveComparison(ctx context.Context, record *ComparisonRecord) error {
	query := `
		INSERT INTO comparisons (competitor_id, similarity_score, competition_level, analysis, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(competitor_id) DO UPDATE SET
			similarity_score = excluded.similarity_score,
			competition_level = excluded.competition_level,
			analysis = excluded.analysis,
			created_at = excluded.created_at
	`
	createdAt := record.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}

	_, err := db.conn.ExecContext(ctx, query,
		record.CompetitorID, record.SimilarityScore, record.Level, record.Analysis, createdAt)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save comparison",
			"competitor_id", record.CompetitorID,
			"error", err)
		return fmt.Errorf("failed to save comparison: %w", err)
	}
	return nil
}

// ListComparisons retrieves all comparison records joined with competitor
// names, strongest competitors first.
func (db *DB) ListComparisons(ctx context.Context) ([]*ComparisonRecord, error) {
	query := `
		SELECT cr.competitor_id, c.name, cr.similarity_score, cr.competition_level, cr.analysis, cr.created_at
		FROM comparisons cr
		JOIN colleges c ON cr.competitor_id = c.college_id
		ORDER BY cr.similarity_score DESC
	`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list comparisons", "error", err)
		return nil, fmt.Errorf("query comparisons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]*ComparisonRecord, 0)
	for rows.Next() {
		var rec ComparisonRecord
		var analysis sql.NullString
		if err := rows.Scan(&rec.CompetitorID, &rec.CompetitorName, &rec.SimilarityScore,
			&rec.Level, &analysis, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comparison: %w", err)
		}
		rec.Analysis = analysis.String
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comparisons: %w", err)
	}
	return records, nil
}

// recordIntegrityIssues reports suspicious college records to the metrics
// recorder when one is attached.
func (db *DB) recordIntegrityIssues(college *College) {
	if db.metrics == nil {
		return
	}
	if college.Name == "" {
		db.metrics.RecordProfileIntegrityIssue("missing_name")
	}
	if len(college.Programs) == 0 {
		db.metrics.RecordProfileIntegrityIssue("no_programs")
	}
	if college.AcceptanceRate != nil && (*college.AcceptanceRate < 0 || *college.AcceptanceRate > 1) {
		db.metrics.RecordProfileIntegrityIssue("bad_rate")
	}
}

const selectColleges = `
	SELECT college_id, name, location, programs,
		tuition, enrollment, acceptance_rate, avg_gpa, avg_sat, avg_act,
		latitude, longitude, source_url, updated_at
	FROM colleges`

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCollege(row rowScanner) (*College, error) {
	var c College
	var programs string
	var location, sourceURL sql.NullString
	var tuition, enrollment, acceptanceRate, avgGPA, avgSAT, avgACT, lat, lon sql.NullFloat64

	err := row.Scan(&c.ID, &c.Name, &location, &programs,
		&tuition, &enrollment, &acceptanceRate, &avgGPA, &avgSAT, &avgACT,
		&lat, &lon, &sourceURL, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.Location = location.String
	c.SourceURL = sourceURL.String
	if err := json.Unmarshal([]byte(programs), &c.Programs); err != nil {
		return nil, fmt.Errorf("decode programs for %s: %w", c.ID, err)
	}
	c.Tuition = floatPtr(tuition)
	c.Enrollment = floatPtr(enrollment)
	c.AcceptanceRate = floatPtr(acceptanceRate)
	c.AvgGPA = floatPtr(avgGPA)
	c.AvgSAT = floatPtr(avgSAT)
	c.AvgACT = floatPtr(avgACT)
	c.Latitude = floatPtr(lat)
	c.Longitude = floatPtr(lon)
	return &c, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
