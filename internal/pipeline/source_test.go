package pipeline

import (
	"fmt"
	"testing"
)

func imagePaths(n int) []string {
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("/tmp/pages/page_%04d.png", i+1)
	}
	return paths
}

func unitPages(units []WorkUnit) []int {
	pages := make([]int, len(units))
	for i, u := range units {
		pages[i] = u.Page
	}
	return pages
}

func TestBuildWorkUnits(t *testing.T) {
	tests := []struct {
		name      string
		sel       Selection
		images    int
		wantPages []int
	}{
		{"all pages", AllPages(), 3, []int{1, 2, 3}},
		{"zero value selects all", Selection{}, 3, []int{1, 2, 3}},
		{"explicit list", PageList(2, 5, 7), 3, []int{2, 5, 7}},
		{"unsorted list is sorted", PageList(7, 2, 5), 3, []int{2, 5, 7}},
		{"single page repeats", SinglePage(4), 3, []int{4, 4, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units, err := BuildWorkUnits(tt.sel, imagePaths(tt.images))
			if err != nil {
				t.Fatalf("BuildWorkUnits() error = %v", err)
			}
			if len(units) != tt.images {
				t.Fatalf("expected %d units, got %d", tt.images, len(units))
			}
			got := unitPages(units)
			for i, want := range tt.wantPages {
				if got[i] != want {
					t.Fatalf("unit pages = %v, want %v", got, tt.wantPages)
				}
			}
			for i, u := range units {
				if u.Index != i {
					t.Fatalf("unit %d has index %d", i, u.Index)
				}
				if u.ImagePath != imagePaths(tt.images)[i] {
					t.Fatalf("unit %d image path = %q", i, u.ImagePath)
				}
			}
		})
	}
}

func TestBuildWorkUnitsListMismatch(t *testing.T) {
	if _, err := BuildWorkUnits(PageList(2, 5), imagePaths(3)); err == nil {
		t.Fatal("expected error for list/image count mismatch")
	}
	if _, err := BuildWorkUnits(PageList(2, 5, 7, 9), imagePaths(3)); err == nil {
		t.Fatal("expected error for list/image count mismatch")
	}
}

func TestSelectedPages(t *testing.T) {
	tests := []struct {
		name      string
		sel       Selection
		pageCount int
		want      []int
		wantErr   bool
	}{
		{"all", AllPages(), 3, []int{1, 2, 3}, false},
		{"list", PageList(2, 5, 7), 10, []int{2, 5, 7}, false},
		{"unsorted list", PageList(7, 2, 5), 10, []int{2, 5, 7}, false},
		{"single", SinglePage(4), 10, []int{4}, false},
		{"list out of range", PageList(2, 9), 5, nil, true},
		{"single out of range", SinglePage(11), 10, nil, true},
		{"single below range", SinglePage(0), 10, nil, true},
		{"empty list", PageList(), 10, nil, true},
		{"no pages", AllPages(), 0, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectedPages(tt.sel, tt.pageCount)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectedPages() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("SelectedPages() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("SelectedPages() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
