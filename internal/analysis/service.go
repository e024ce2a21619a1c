// Package analysis orchestrates the full competition pipeline: scrape
// competitor sites, geocode, persist, compare against the home college,
// and build reports from what is stored.
package analysis

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/collegeradar/collegeradar-go/internal/compare"
	"github.com/collegeradar/collegeradar-go/internal/config"
	domerrors "github.com/collegeradar/collegeradar-go/internal/errors"
	"github.com/collegeradar/collegeradar-go/internal/geo"
	"github.com/collegeradar/collegeradar-go/internal/logger"
	"github.com/collegeradar/collegeradar-go/internal/report"
	"github.com/collegeradar/collegeradar-go/internal/scraper"
	"github.com/collegeradar/collegeradar-go/internal/storage"
)

// maxConcurrentScrapes bounds how many competitor sites are fetched at
// once.
const maxConcurrentScrapes = 4

// MetricsRecorder defines the interface for recording analysis metrics
type MetricsRecorder interface {
	RecordAnalysis(status string, duration float64)
	RecordComparison(level string)
}

// Service runs competition analyses.
type Service struct {
	cfg        *config.Config
	db         *storage.DB
	scraper    *scraper.CollegeScraper
	geocoder   *geo.Geocoder
	comparator *compare.Comparator
	builder    *report.Builder
	log        *logger.Logger
	metrics    MetricsRecorder
}

// New creates the analysis service.
func New(cfg *config.Config, db *storage.DB, sc *scraper.CollegeScraper, gc *geo.Geocoder, log *logger.Logger) *Service {
	return &Service{
		cfg:        cfg,
		db:         db,
		scraper:    sc,
		geocoder:   gc,
		comparator: compare.NewComparator(cfg.Matching),
		builder:    report.NewBuilder(cfg.Matching),
		log:        log.WithModule("analysis"),
	}
}

// SetMetrics sets the metrics recorder
func (s *Service) SetMetrics(m MetricsRecorder) {
	s.metrics = m
}

// AnalyzeURLs scrapes the given competitor sites, stores what was found,
// and compares each against the home college. Scrape failures skip that
// competitor; the home college must exist. Competitors with no program
// overlap are stored but not kept as comparisons.
func (s *Service) AnalyzeURLs(ctx context.Context, urls []string) ([]compare.Comparison, error) {
	start := time.Now()

	home, err := s.requireHome(ctx)
	if err != nil {
		s.recordAnalysis("error", start)
		return nil, err
	}

	profiles := make([]*compare.CollegeProfile, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScrapes)
	for i, url := range urls {
		g.Go(func() error {
			profile, err := s.scraper.ScrapeCollege(gctx, url)
			if err != nil {
				s.log.WithError(err).WithField("url", url).Warn("failed to scrape competitor")
				return nil
			}
			profiles[i] = profile
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.recordAnalysis("error", start)
		return nil, err
	}

	var comparisons []compare.Comparison
	for _, profile := range profiles {
		if profile == nil {
			continue
		}

		competitor := storage.CollegeFromProfile(profile)
		s.geocodeCollege(ctx, competitor)

		if err := s.db.SaveCollege(ctx, competitor, false); err != nil {
			s.recordAnalysis("error", start)
			return comparisons, fmt.Errorf("failed to save competitor %s: %w", competitor.ID, err)
		}

		comparison, kept, err := s.compareAndSave(ctx, home, competitor)
		if err != nil {
			s.recordAnalysis("error", start)
			return comparisons, err
		}
		if kept {
			comparisons = append(comparisons, comparison)
		}
	}

	s.recordAnalysis("success", start)
	s.log.WithFields(map[string]any{
		"urls":        len(urls),
		"comparisons": len(comparisons),
	}).Info("analysis finished")
	return compare.RankComparisons(comparisons), nil
}

// AnalyzeStored compares every stored competitor against the home
// college without scraping. Used after a CSV import, where program data
// arrived with the rows.
func (s *Service) AnalyzeStored(ctx context.Context) ([]compare.Comparison, error) {
	start := time.Now()

	home, err := s.requireHome(ctx)
	if err != nil {
		s.recordAnalysis("error", start)
		return nil, err
	}

	competitors, err := s.db.ListCompetitors(ctx)
	if err != nil {
		s.recordAnalysis("error", start)
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}

	var comparisons []compare.Comparison
	for _, competitor := range competitors {
		s.geocodeCollege(ctx, competitor)
		if competitor.Latitude != nil && competitor.Longitude != nil {
			if err := s.db.UpdateCoordinates(ctx, competitor.ID, *competitor.Latitude, *competitor.Longitude); err != nil {
				s.log.WithError(err).WithField("college", competitor.ID).Warn("failed to store coordinates")
			}
		}

		comparison, kept, err := s.compareAndSave(ctx, home, competitor)
		if err != nil {
			s.recordAnalysis("error", start)
			return comparisons, err
		}
		if kept {
			comparisons = append(comparisons, comparison)
		}
	}

	s.recordAnalysis("success", start)
	return compare.RankComparisons(comparisons), nil
}

// requireHome loads the home college and geocodes it when coordinates
// are missing.
func (s *Service) requireHome(ctx context.Context) (*storage.College, error) {
	home, err := s.db.GetHomeCollege(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load home college: %w", err)
	}
	if home == nil {
		return nil, fmt.Errorf("home college not configured: %w", domerrors.ErrNotFound)
	}

	if home.Latitude == nil || home.Longitude == nil {
		s.geocodeCollege(ctx, home)
		if home.Latitude != nil && home.Longitude != nil {
			if err := s.db.UpdateCoordinates(ctx, home.ID, *home.Latitude, *home.Longitude); err != nil {
				s.log.WithError(err).Warn("failed to store home coordinates")
			}
		}
	}
	return home, nil
}

// geocodeCollege fills in coordinates from the college's location when
// they are missing. Geocoding failures are logged, never fatal.
func (s *Service) geocodeCollege(ctx context.Context, college *storage.College) {
	if s.geocoder == nil || college.Location == "" {
		return
	}
	if college.Latitude != nil && college.Longitude != nil {
		return
	}

	point, err := s.geocoder.Geocode(ctx, college.Location)
	if err != nil {
		s.log.WithError(err).WithField("location", college.Location).Warn("geocoding failed")
		return
	}
	if point != nil {
		college.Latitude = &point.Lat
		college.Longitude = &point.Lon
	}
}

// compareAndSave compares one competitor against home. Comparisons at
// level NONE are not persisted and not returned; the competitor record
// itself stays stored.
func (s *Service) compareAndSave(ctx context.Context, home, competitor *storage.College) (compare.Comparison, bool, error) {
	comparison := s.comparator.Compare(home.Profile(), competitor.Profile())

	if comparison.Level == compare.None {
		s.log.WithField("college", competitor.Name).Info("skipped competitor with no program overlap")
		return comparison, false, nil
	}

	record := &storage.ComparisonRecord{
		CompetitorID:    competitor.ID,
		SimilarityScore: comparison.Score,
		Level:           comparison.Level.String(),
		Analysis:        comparison.Analysis,
	}
	if err := s.db.SaveComparison(ctx, record); err != nil {
		return comparison, false, fmt.Errorf("failed to save comparison for %s: %w", competitor.ID, err)
	}

	if s.metrics != nil {
		s.metrics.RecordComparison(comparison.Level.String())
	}
	return comparison, true, nil
}

// BuildCourseReport builds the course-overlap report from everything
// currently stored.
func (s *Service) BuildCourseReport(ctx context.Context) (*report.Report, error) {
	home, err := s.requireHome(ctx)
	if err != nil {
		return nil, err
	}

	competitors, err := s.db.ListCompetitors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}

	courses := make([]report.CompetitorCourses, 0, len(competitors))
	for _, c := range competitors {
		courses = append(courses, report.CompetitorCourses{
			Name:     c.Name,
			URL:      c.SourceURL,
			Programs: c.Programs,
		})
	}
	return s.builder.Build(home.Profile(), courses), nil
}

// MapData assembles everything needed to render the geographic views:
// the home college position and one entry per compared competitor with
// known coordinates.
func (s *Service) MapData(ctx context.Context) (string, geo.Point, []geo.MapEntry, error) {
	home, err := s.requireHome(ctx)
	if err != nil {
		return "", geo.Point{}, nil, err
	}
	if home.Latitude == nil || home.Longitude == nil {
		return "", geo.Point{}, nil, fmt.Errorf("home college has no coordinates: %w", domerrors.ErrNotFound)
	}
	origin := geo.Point{Lat: *home.Latitude, Lon: *home.Longitude}

	records, err := s.db.ListComparisons(ctx)
	if err != nil {
		return "", geo.Point{}, nil, fmt.Errorf("failed to list comparisons: %w", err)
	}

	var entries []geo.MapEntry
	for _, record := range records {
		college, err := s.db.GetCollege(ctx, record.CompetitorID)
		if err != nil {
			return "", geo.Point{}, nil, fmt.Errorf("failed to load competitor %s: %w", record.CompetitorID, err)
		}
		if college == nil || college.Latitude == nil || college.Longitude == nil {
			continue
		}

		point := geo.Point{Lat: *college.Latitude, Lon: *college.Longitude}
		entries = append(entries, geo.MapEntry{
			Name:          college.Name,
			Level:         record.Level,
			Score:         record.SimilarityScore,
			Point:         point,
			DistanceMiles: geo.Distance(origin, point),
		})
	}
	return home.Name, origin, entries, nil
}

// RenderMap renders the interactive HTML competition map.
func (s *Service) RenderMap(ctx context.Context) (string, error) {
	name, origin, entries, err := s.MapData(ctx)
	if err != nil {
		return "", err
	}
	return geo.RenderHTMLMap(name, origin, entries)
}

func (s *Service) recordAnalysis(status string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordAnalysis(status, time.Since(start).Seconds())
}
