package sliceutil

import (
	"reflect"
	"testing"
)

func TestDeduplicate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"no duplicates", []string{"a", "b", "c"}, []string{"a", "b", "c"}},
		{"duplicates removed keep first", []string{"b", "a", "b", "c", "a"}, []string{"b", "a", "c"}},
		{"all same", []string{"x", "x", "x"}, []string{"x"}},
		{"empty", []string{}, []string{}},
		{"nil", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Deduplicate(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Deduplicate(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDeduplicateInts(t *testing.T) {
	t.Parallel()

	got := Deduplicate([]int{3, 1, 3, 2, 1})
	want := []int{3, 1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Deduplicate = %v, want %v", got, want)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []int
		n     int
		want  []int
	}{
		{"shorter than limit", []int{1, 2}, 5, []int{1, 2}},
		{"exactly limit", []int{1, 2, 3}, 3, []int{1, 2, 3}},
		{"over limit", []int{1, 2, 3, 4}, 2, []int{1, 2}},
		{"negative limit", []int{1, 2}, -1, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Truncate(tt.input, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("Truncate(%v, %d) = %v, want %v", tt.input, tt.n, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Truncate(%v, %d)[%d] = %d, want %d", tt.input, tt.n, i, got[i], tt.want[i])
				}
			}
		})
	}
}
