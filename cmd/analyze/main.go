// Package main provides a one-shot competition analysis run: import a
// competitor CSV, compare every competitor against the home college,
// and write the report and map to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/collegeradar/collegeradar-go/internal/analysis"
	"github.com/collegeradar/collegeradar-go/internal/config"
	"github.com/collegeradar/collegeradar-go/internal/geo"
	"github.com/collegeradar/collegeradar-go/internal/importer"
	"github.com/collegeradar/collegeradar-go/internal/logger"
	"github.com/collegeradar/collegeradar-go/internal/report"
	"github.com/collegeradar/collegeradar-go/internal/scraper"
	"github.com/collegeradar/collegeradar-go/internal/storage"
)

func main() {
	csvPath := flag.String("csv", "", "competitor CSV file to import before analysis")
	urlList := flag.String("urls", "", "comma-separated competitor URLs to scrape instead of stored data")
	clear := flag.Bool("clear", false, "clear stored competitors before importing")
	reportPath := flag.String("out", "competition_report.json", "JSON report output path")
	compress := flag.Bool("compress", false, "gzip-compress the JSON report")
	mapPath := flag.String("map", "competition_map.html", "HTML map output path (empty to skip)")
	printReport := flag.Bool("print", true, "print the text report to stdout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel).WithModule("analyze")

	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}
	defer func() { _ = db.Close() }()

	client := scraper.NewClient(cfg.ScraperTimeout, cfg.ScraperMaxRetries)
	collegeScraper := scraper.NewCollegeScraper(client, log, cfg.Matching.MaxProgramsPerPage)
	geocoder := geo.NewGeocoder(cfg.GeocoderBaseURL, cfg.GeocoderDelay, log)
	svc := analysis.New(cfg, db, collegeScraper, geocoder, log)

	ctx := context.Background()

	if *clear {
		if err := db.ClearCompetitors(ctx); err != nil {
			log.WithError(err).Fatal("Failed to clear competitors")
		}
		log.Info("Cleared stored competitors")
	}

	if *csvPath != "" {
		imp := importer.New(db, log)
		result, err := imp.ImportCSV(ctx, *csvPath, importer.DefaultColumnMap())
		if err != nil {
			log.WithError(err).Fatal("CSV import failed")
		}
		log.WithFields(map[string]any{
			"imported": result.Imported,
			"skipped":  result.Skipped,
		}).Info("CSV import finished")
	}

	urls := splitURLs(*urlList)
	var comparisons int
	if len(urls) > 0 {
		ranked, err := svc.AnalyzeURLs(ctx, urls)
		if err != nil {
			log.WithError(err).Fatal("Analysis failed")
		}
		comparisons = len(ranked)
	} else {
		ranked, err := svc.AnalyzeStored(ctx)
		if err != nil {
			log.WithError(err).Fatal("Analysis failed")
		}
		comparisons = len(ranked)
	}
	log.WithField("comparisons", comparisons).Info("Analysis finished")

	r, err := svc.BuildCourseReport(ctx)
	if err != nil {
		log.WithError(err).Fatal("Failed to build report")
	}

	if *reportPath != "" {
		if err := writeReport(*reportPath, r, *compress); err != nil {
			log.WithError(err).Fatal("Failed to write report")
		}
		log.WithField("path", *reportPath).Info("Report written")
	}

	if *printReport {
		fmt.Println(report.Render(r))
	}

	if *mapPath != "" {
		if err := writeMap(ctx, svc, *mapPath, log); err != nil {
			log.WithError(err).Warn("Skipping map output")
		}
	}
}

func splitURLs(raw string) []string {
	var urls []string
	for _, u := range strings.Split(raw, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func writeReport(path string, r *report.Report, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	var writeErr error
	if compress {
		writeErr = report.WriteCompressedJSON(f, r)
	} else {
		writeErr = report.WriteJSON(f, r)
	}
	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}
	return writeErr
}

// writeMap renders the HTML map and the distance summary. Missing
// coordinates are not fatal for a one-shot run.
func writeMap(ctx context.Context, svc *analysis.Service, path string, log *logger.Logger) error {
	html, err := svc.RenderMap(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return err
	}
	log.WithField("path", path).Info("Map written")

	_, _, entries, err := svc.MapData(ctx)
	if err != nil {
		return err
	}
	fmt.Println(geo.DistanceReport(entries))
	return nil
}
