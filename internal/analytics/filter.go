package analytics

import "errors"

var ErrEmptySelection = errors.New("selection must name at least one category and one location")

// Selection holds the categories and locations a view is restricted to.
// An empty list selects nothing; it never means "no filter".
type Selection struct {
	Categories []Category `json:"categories"`
	Locations  []string   `json:"locations"`
}

// DefaultSelection selects every distinct category and location present in
// records, in first-seen order.
func DefaultSelection(records []Record) Selection {
	var sel Selection
	seenCat := make(map[Category]bool)
	seenLoc := make(map[string]bool)
	for _, r := range records {
		if !seenCat[r.Category] {
			seenCat[r.Category] = true
			sel.Categories = append(sel.Categories, r.Category)
		}
		if !seenLoc[r.Location] {
			seenLoc[r.Location] = true
			sel.Locations = append(sel.Locations, r.Location)
		}
	}
	return sel
}

// Validate fails for callers that require a non-empty selection.
func (s Selection) Validate() error {
	if len(s.Categories) == 0 || len(s.Locations) == 0 {
		return ErrEmptySelection
	}
	return nil
}

// Filter keeps, in input order, the records whose category and location are both selected.
func Filter(records []Record, sel Selection) []Record {
	if len(sel.Categories) == 0 || len(sel.Locations) == 0 {
		return []Record{}
	}

	cats := make(map[Category]bool, len(sel.Categories))
	for _, c := range sel.Categories {
		cats[c] = true
	}
	locs := make(map[string]bool, len(sel.Locations))
	for _, l := range sel.Locations {
		locs[l] = true
	}

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if cats[r.Category] && locs[r.Location] {
			out = append(out, r)
		}
	}
	return out
}
