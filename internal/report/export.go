package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// ReadJSON decodes a report previously written by WriteJSON.
func ReadJSON(r io.Reader) (*Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &rep, nil
}

// WriteCompressedJSON writes the report as zstd-compressed JSON, the
// format used for archived analysis runs.
func WriteCompressedJSON(w io.Writer, r *Report) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if err := WriteJSON(enc, r); err != nil {
		_ = enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close zstd writer: %w", err)
	}
	return nil
}

// ReadCompressedJSON decodes a report written by WriteCompressedJSON.
func ReadCompressedJSON(r io.Reader) (*Report, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer dec.Close()
	return ReadJSON(dec)
}

// WriteCSV writes one row per competitor with the headline figures.
// List-valued fields are joined with "; " so the file stays one row per
// competitor.
func WriteCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)

	header := []string{
		"name", "url", "total_courses",
		"exact_match_count", "close_match_count",
		"competition_level", "competition_score", "match_percentage",
		"exact_matches",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, c := range r.Competitors {
		row := []string{
			c.Name,
			c.URL,
			strconv.Itoa(c.TotalCourses),
			strconv.Itoa(c.ExactMatchCount),
			strconv.Itoa(c.CloseMatchCount),
			c.CompetitionLevel.String(),
			strconv.FormatFloat(c.CompetitionScore, 'f', 4, 64),
			strconv.FormatFloat(c.MatchPercentage, 'f', 1, 64),
			strings.Join(c.ExactMatches, "; "),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", c.Name, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
