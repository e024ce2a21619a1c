// Package search provides keyword search over stored college programs
// using BM25 ranking.
package search

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/crawlab-team/bm25"

	"github.com/collegeradar/collegeradar-go/internal/logger"
)

// ProgramEntry is one indexed document: a program offered by a college.
type ProgramEntry struct {
	CollegeID   string
	CollegeName string
	Program     string
}

// Result is one search hit. Confidence is derived from BM25 rank
// position, not from the raw score; BM25 scores are unbounded and
// query-dependent.
type Result struct {
	CollegeID   string  `json:"college_id"`
	CollegeName string  `json:"college_name"`
	Program     string  `json:"program"`
	Score       float64 `json:"score"`
	Rank        int     `json:"rank"`
	Confidence  float32 `json:"confidence"`
}

// Index is a BM25 index over program names. Rebuilt wholesale when the
// stored colleges change; BM25 needs the full corpus for IDF.
type Index struct {
	bm25Okapi   *bm25.BM25Okapi
	docs        []ProgramEntry
	log         *logger.Logger
	mu          sync.RWMutex
	initialized bool
}

// NewIndex creates an empty program index.
func NewIndex(log *logger.Logger) *Index {
	return &Index{
		log: log.WithModule("search"),
	}
}

// Build replaces the index contents. Entries with blank program names
// are skipped.
func (idx *Index) Build(entries []ProgramEntry) error {
	if idx == nil {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	docs := make([]ProgramEntry, 0, len(entries))
	corpus := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Program) == "" {
			continue
		}
		docs = append(docs, e)
		corpus = append(corpus, e.Program)
	}

	if len(corpus) == 0 {
		idx.bm25Okapi = nil
		idx.docs = nil
		idx.initialized = true
		return nil
	}

	// k1=1.5, b=0.75 are standard BM25 parameters
	bm25Okapi, err := bm25.NewBM25Okapi(corpus, tokenize, 1.5, 0.75, nil)
	if err != nil {
		return fmt.Errorf("failed to build BM25 index: %w", err)
	}

	idx.bm25Okapi = bm25Okapi
	idx.docs = docs
	idx.initialized = true

	idx.log.WithField("programs", len(docs)).Info("program index built")
	return nil
}

// Search returns programs matching the query, best score first. topN<=0
// means no limit. An uninitialized or empty index returns no results.
func (idx *Index) Search(query string, topN int) ([]Result, error) {
	if idx == nil {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.initialized || idx.bm25Okapi == nil {
		return nil, nil
	}

	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	scores, err := idx.bm25Okapi.GetScores(tokens)
	if err != nil {
		return nil, fmt.Errorf("BM25 scoring failed: %w", err)
	}

	results := make([]Result, 0, len(scores))
	for docID, score := range scores {
		if score <= 0 || docID >= len(idx.docs) {
			continue
		}
		doc := idx.docs[docID]
		results = append(results, Result{
			CollegeID:   doc.CollegeID,
			CollegeName: doc.CollegeName,
			Program:     doc.Program,
			Score:       score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	for i := range results {
		results[i].Rank = i + 1
		results[i].Confidence = rankConfidence(i + 1)
	}

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

// IsEnabled returns true once the index has been built.
func (idx *Index) IsEnabled() bool {
	if idx == nil {
		return false
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.initialized
}

// Count returns the number of indexed programs.
func (idx *Index) Count() int {
	if idx == nil {
		return 0
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// rankConfidence maps a rank position to a 0-1 confidence.
//
// Formula: 1 / (1 + 0.05 * rank)
//   - rank 1 → 0.95
//   - rank 5 → 0.80
//   - rank 10 → 0.67
func rankConfidence(rank int) float32 {
	if rank <= 0 {
		return 0
	}
	return float32(1.0 / (1.0 + 0.05*float64(rank)))
}

// tokenize lowercases and splits on anything that is not a letter or
// digit.
func tokenize(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	var word strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			word.WriteRune(r)
			continue
		}
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}
	if word.Len() > 0 {
		tokens = append(tokens, word.String())
	}
	return tokens
}
