package match

import (
	"math"
	"reflect"
	"sort"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		programs []string
		want     map[string]struct{}
	}{
		{
			name:     "lowercases and trims",
			programs: []string{"Computer Science", "  Business "},
			want:     map[string]struct{}{"computer science": {}, "business": {}},
		},
		{
			name:     "duplicates collapse",
			programs: []string{"Biology", "biology", "BIOLOGY"},
			want:     map[string]struct{}{"biology": {}},
		},
		{
			name:     "blank entries dropped",
			programs: []string{"", "  ", "Law"},
			want:     map[string]struct{}{"law": {}},
		},
		{
			name:     "empty input",
			programs: nil,
			want:     map[string]struct{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Normalize(tt.programs); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize(%v) = %v, want %v", tt.programs, got, tt.want)
			}
		})
	}
}

func TestNormalizeList(t *testing.T) {
	t.Parallel()

	got := NormalizeList([]string{"B Program", "A Program", "b program", "", "C Program"})
	want := []string{"b program", "a program", "c program"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeList = %v, want %v", got, want)
	}
}

func TestOverlapRatio(t *testing.T) {
	t.Parallel()

	set := func(items ...string) map[string]struct{} {
		s := make(map[string]struct{}, len(items))
		for _, item := range items {
			s[item] = struct{}{}
		}
		return s
	}

	tests := []struct {
		name string
		a    map[string]struct{}
		b    map[string]struct{}
		want float64
	}{
		{"identical sets", set("a", "b"), set("a", "b"), 1.0},
		{"disjoint sets", set("a", "b"), set("c", "d"), 0.0},
		{"partial overlap", set("a", "b", "c"), set("b", "c", "d"), 0.5},
		{"single shared", set("a", "b"), set("b", "c"), 1.0 / 3.0},

		// Empty sides mean no data, not no overlap.
		{"empty left", set(), set("a"), 0.5},
		{"empty right", set("a"), set(), 0.5},
		{"both empty", set(), set(), 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := OverlapRatio(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("OverlapRatio() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindExactMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		home       []string
		competitor []string
		want       []string
	}{
		{
			// Case-insensitive matching across differently-cased catalogs.
			name:       "case insensitive single match",
			home:       []string{"Computer Science", "Business", "Engineering"},
			competitor: []string{"computer science", "law", "medicine"},
			want:       []string{"computer science"},
		},
		{
			name:       "no matches",
			home:       []string{"History"},
			competitor: []string{"Physics"},
			want:       []string{},
		},
		{
			name:       "duplicates in competitor collapse",
			home:       []string{"Biology"},
			competitor: []string{"Biology", "biology", " BIOLOGY "},
			want:       []string{"biology"},
		},
		{
			name:       "multiple matches sorted",
			home:       []string{"Nursing", "Art", "Law"},
			competitor: []string{"Law", "Nursing", "Chemistry"},
			want:       []string{"law", "nursing"},
		},
		{
			name:       "empty competitor",
			home:       []string{"Art"},
			competitor: nil,
			want:       []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := FindExactMatches(tt.home, tt.competitor); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindExactMatches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindExactMatchesSymmetry(t *testing.T) {
	t.Parallel()

	a := []string{"Computer Science", "Business", "Law", "Law"}
	b := []string{"law", "computer science", "Medicine"}

	ab := FindExactMatches(a, b)
	ba := FindExactMatches(b, a)

	sort.Strings(ab)
	sort.Strings(ba)
	if !reflect.DeepEqual(ab, ba) {
		t.Errorf("exact matches not symmetric: A->B %v, B->A %v", ab, ba)
	}
}

func TestTokenJaccard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"identical", "software engineering", "software engineering", 1.0},
		{"one shared of three", "software engineering", "software development", 1.0 / 3.0},
		{"disjoint", "fine arts", "computer science", 0.0},
		{"blank left", "", "computer science", 0.0},
		{"both blank", "", "", 0.0},
		{"two of three shared", "data science degree", "data science", 2.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := TokenJaccard(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TokenJaccard(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
