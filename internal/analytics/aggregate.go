package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrUnknownDimension = errors.New("unknown grouping dimension")

// Dimension is a field records can be grouped by.
type Dimension int

const (
	DimCategory Dimension = iota + 1
	DimReason
	DimItem
	DimWeek
	DimLocation
)

var dimensionNames = map[Dimension]string{
	DimCategory: "category",
	DimReason:   "reason",
	DimItem:     "item",
	DimWeek:     "week",
	DimLocation: "location",
}

func (d Dimension) String() string {
	if name, ok := dimensionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("dimension(%d)", int(d))
}

// ParseDimension maps a name such as "category" or "item" to its Dimension.
func ParseDimension(s string) (Dimension, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "item_name" {
		s = "item"
	}
	for d, name := range dimensionNames {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDimension, s)
}

// GroupKey is a typed key tuple. Only the fields of the grouped dimensions are set.
type GroupKey struct {
	Category Category
	Reason   string
	Item     string
	Week     Week
	Location string
}

// MarshalJSON emits only the populated components.
func (k GroupKey) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, 2)
	for d := DimCategory; d <= DimLocation; d++ {
		if v := k.Value(d); v != "" {
			m[d.String()] = v
		}
	}
	return json.Marshal(m)
}

// Value returns the key component for one dimension.
func (k GroupKey) Value(d Dimension) string {
	switch d {
	case DimCategory:
		return string(k.Category)
	case DimReason:
		return k.Reason
	case DimItem:
		return k.Item
	case DimWeek:
		if k.Week.Start.IsZero() {
			return ""
		}
		return k.Week.String()
	case DimLocation:
		return k.Location
	}
	return ""
}

// Label joins the key components of dims with " / ".
func (k GroupKey) Label(dims ...Dimension) string {
	parts := make([]string, 0, len(dims))
	for _, d := range dims {
		parts = append(parts, k.Value(d))
	}
	return strings.Join(parts, " / ")
}

func keyOf(r Record, dims []Dimension) (GroupKey, bool) {
	var k GroupKey
	for _, d := range dims {
		switch d {
		case DimCategory:
			k.Category = r.Category
		case DimReason:
			k.Reason = r.Reason
		case DimItem:
			k.Item = r.ItemName
		case DimWeek:
			w, ok := r.Week()
			if !ok {
				return GroupKey{}, false
			}
			k.Week = w
		case DimLocation:
			k.Location = r.Location
		}
	}
	return k, true
}

// AggregateRow is the summed quantity and cost of one key.
type AggregateRow struct {
	Key        GroupKey        `json:"key"`
	QuantityKg float64         `json:"quantity_kg"`
	Cost       decimal.Decimal `json:"cost"`
	Records    int             `json:"records"`
}

// RankedRow is one entry of a top-N ranking.
type RankedRow struct {
	Key        string  `json:"key"`
	QuantityKg float64 `json:"quantity_kg"`
}

// TotalQuantity sums quantity over records.
func TotalQuantity(records []Record) float64 {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Quantity())
	}
	return total.InexactFloat64()
}

// TotalCost sums cost over records.
func TotalCost(records []Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Cost)
	}
	return total
}

// GroupedTotals returns one row per distinct key combination of dims, in
// first-encountered order. Grouping by DimWeek skips undated records.
func GroupedTotals(records []Record, dims ...Dimension) ([]AggregateRow, error) {
	sums, err := groupSums(records, dims)
	if err != nil {
		return nil, err
	}
	rows := make([]AggregateRow, len(sums))
	for i, s := range sums {
		rows[i] = s.row
		rows[i].QuantityKg = s.qty.InexactFloat64()
	}
	return rows, nil
}

// groupSum carries the exact quantity behind an AggregateRow.
type groupSum struct {
	row AggregateRow
	qty decimal.Decimal
}

func groupSums(records []Record, dims []Dimension) ([]groupSum, error) {
	for _, d := range dims {
		if _, ok := dimensionNames[d]; !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnknownDimension, d)
		}
	}

	sums := make([]groupSum, 0)
	index := make(map[GroupKey]int)
	for _, r := range records {
		k, ok := keyOf(r, dims)
		if !ok {
			continue
		}
		i, exists := index[k]
		if !exists {
			i = len(sums)
			index[k] = i
			sums = append(sums, groupSum{row: AggregateRow{Key: k, Cost: decimal.Zero}, qty: decimal.Zero})
		}
		sums[i].qty = sums[i].qty.Add(r.Quantity())
		sums[i].row.Cost = sums[i].row.Cost.Add(r.Cost)
		sums[i].row.Records++
	}
	return sums, nil
}

// TopNByQuantity ranks groups of dim by summed quantity, descending. Ties keep
// first-encountered order. At most n rows are returned.
func TopNByQuantity(records []Record, n int, dim Dimension) ([]RankedRow, error) {
	if n <= 0 {
		if _, ok := dimensionNames[dim]; !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnknownDimension, dim)
		}
		return []RankedRow{}, nil
	}

	sums, err := groupSums(records, []Dimension{dim})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sums, func(i, j int) bool {
		return sums[i].qty.Cmp(sums[j].qty) > 0
	})

	if len(sums) > n {
		sums = sums[:n]
	}
	ranked := make([]RankedRow, 0, len(sums))
	for _, s := range sums {
		ranked = append(ranked, RankedRow{Key: s.row.Key.Value(dim), QuantityKg: s.qty.InexactFloat64()})
	}
	return ranked, nil
}
