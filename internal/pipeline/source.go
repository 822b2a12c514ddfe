package pipeline

import (
	"fmt"
	"sort"
)

// SelectionMode determines how a page selection maps units to document
// page numbers.
type SelectionMode int

const (
	// SelectAll transcribes every page; unit i is page i+1.
	SelectAll SelectionMode = iota
	// SelectList transcribes an explicit set of pages; unit i is the i-th
	// entry of the sorted list.
	SelectList
	// SelectSingle transcribes one page; every unit resolves to it.
	SelectSingle
)

// Selection names the document pages a run covers. The zero value selects
// all pages.
type Selection struct {
	Mode  SelectionMode
	Pages []int
}

// AllPages selects every page of the document.
func AllPages() Selection {
	return Selection{Mode: SelectAll}
}

// PageList selects an explicit set of pages. Order does not matter; the
// list is sorted before use.
func PageList(pages ...int) Selection {
	return Selection{Mode: SelectList, Pages: pages}
}

// SinglePage selects one page.
func SinglePage(n int) Selection {
	return Selection{Mode: SelectSingle, Pages: []int{n}}
}

// SelectedPages expands the selection against a known document page count
// into the ascending list of pages to render. Pages outside [1, pageCount]
// are rejected.
func SelectedPages(sel Selection, pageCount int) ([]int, error) {
	if pageCount < 1 {
		return nil, fmt.Errorf("document has no pages")
	}

	switch sel.Mode {
	case SelectAll:
		pages := make([]int, pageCount)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages, nil

	case SelectList:
		if len(sel.Pages) == 0 {
			return nil, fmt.Errorf("page list is empty")
		}
		pages := sortedCopy(sel.Pages)
		for _, p := range pages {
			if p < 1 || p > pageCount {
				return nil, fmt.Errorf("page %d out of range: document has %d pages", p, pageCount)
			}
		}
		return pages, nil

	case SelectSingle:
		if len(sel.Pages) == 0 {
			return nil, fmt.Errorf("no page number selected")
		}
		p := sel.Pages[0]
		if p < 1 || p > pageCount {
			return nil, fmt.Errorf("page %d out of range: document has %d pages", p, pageCount)
		}
		return []int{p}, nil

	default:
		return nil, fmt.Errorf("unknown selection mode %d", sel.Mode)
	}
}

// BuildWorkUnits pairs rendered page images, in order, with the document
// page numbers the selection resolves them to.
func BuildWorkUnits(sel Selection, imagePaths []string) ([]WorkUnit, error) {
	units := make([]WorkUnit, len(imagePaths))

	switch sel.Mode {
	case SelectAll:
		for i, path := range imagePaths {
			units[i] = WorkUnit{Index: i, Page: i + 1, ImagePath: path}
		}

	case SelectList:
		if len(sel.Pages) != len(imagePaths) {
			return nil, fmt.Errorf("page list has %d entries but %d page images were produced", len(sel.Pages), len(imagePaths))
		}
		pages := sortedCopy(sel.Pages)
		for i, path := range imagePaths {
			units[i] = WorkUnit{Index: i, Page: pages[i], ImagePath: path}
		}

	case SelectSingle:
		if len(sel.Pages) == 0 {
			return nil, fmt.Errorf("no page number selected")
		}
		for i, path := range imagePaths {
			units[i] = WorkUnit{Index: i, Page: sel.Pages[0], ImagePath: path}
		}

	default:
		return nil, fmt.Errorf("unknown selection mode %d", sel.Mode)
	}

	return units, nil
}

func sortedCopy(pages []int) []int {
	out := make([]int, len(pages))
	copy(out, pages)
	sort.Ints(out)
	return out
}
