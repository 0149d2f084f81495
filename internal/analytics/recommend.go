package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// ShareThresholdPercent is the category share above which an item is flagged.
	ShareThresholdPercent = 30.0
	// OrderReductionPercent is the suggested cut to next cycle's order.
	OrderReductionPercent = 20
	// RecurrenceTopN is the ranking depth compared between adjacent weeks.
	RecurrenceTopN = 3

	RecurrenceRecommendation = "check vendor/date rotation"
)

// ShareFlag marks an item whose weekly quantity exceeds its category threshold.
type ShareFlag struct {
	Item           string   `json:"item"`
	Category       Category `json:"category"`
	Week           Week     `json:"week"`
	ItemKg         float64  `json:"item_kg"`
	CategoryKg     float64  `json:"category_kg"`
	SharePercent   float64  `json:"share_percent"`
	Recommendation string   `json:"recommendation"`
}

// ShareReport is the result of the high category share rule.
type ShareReport struct {
	Outcome Outcome     `json:"outcome"`
	Week    *Week       `json:"week,omitempty"`
	Flags   []ShareFlag `json:"flags"`
}

// RecurrenceFlag marks an item ranked in the top three of two adjacent weeks.
type RecurrenceFlag struct {
	Item           string  `json:"item"`
	PreviousWeek   Week    `json:"previous_week"`
	CurrentWeek    Week    `json:"current_week"`
	PreviousKg     float64 `json:"previous_kg"`
	CurrentKg      float64 `json:"current_kg"`
	Recommendation string  `json:"recommendation"`
}

// RecurrenceReport is the result of the persistent top items rule.
type RecurrenceReport struct {
	Outcome Outcome          `json:"outcome"`
	Weeks   int              `json:"weeks"`
	Flags   []RecurrenceFlag `json:"flags"`
}

var (
	hundred        = decimal.NewFromInt(100)
	shareThreshold = decimal.NewFromFloat(ShareThresholdPercent)
)

type itemCategory struct {
	item     string
	category Category
}

// LatestWeek returns the most recent week among dated records.
func LatestWeek(records []Record) (Week, bool) {
	var latest Week
	found := false
	for _, r := range records {
		w, ok := r.Week()
		if !ok {
			continue
		}
		if !found || latest.Before(w) {
			latest = w
			found = true
		}
	}
	return latest, found
}

// HighCategoryShare flags every (item, category) whose share of the category's
// quantity in the reporting week is strictly above ShareThresholdPercent. The
// reporting week is the week containing asOf, or the latest week in records when
// asOf is zero.
func HighCategoryShare(records []Record, asOf time.Time) ShareReport {
	var week Week
	if asOf.IsZero() {
		w, ok := LatestWeek(records)
		if !ok {
			return ShareReport{Outcome: OutcomeNoCurrentWeekData, Flags: []ShareFlag{}}
		}
		week = w
	} else {
		week = WeekOf(asOf)
	}

	categoryKg := make(map[Category]decimal.Decimal)
	itemKg := make(map[itemCategory]decimal.Decimal)
	order := make([]itemCategory, 0)
	for _, r := range records {
		w, ok := r.Week()
		if !ok || !w.Start.Equal(week.Start) {
			continue
		}
		key := itemCategory{item: r.ItemName, category: r.Category}
		if _, seen := itemKg[key]; !seen {
			order = append(order, key)
		}
		qty := r.Quantity()
		itemKg[key] = itemKg[key].Add(qty)
		categoryKg[r.Category] = categoryKg[r.Category].Add(qty)
	}

	if len(order) == 0 {
		return ShareReport{Outcome: OutcomeNoCurrentWeekData, Week: &week, Flags: []ShareFlag{}}
	}

	flags := make([]ShareFlag, 0)
	for _, key := range order {
		total := categoryKg[key.category]
		if total.IsZero() {
			continue
		}
		qty := itemKg[key]
		// strict: a share equal to the threshold is not flagged
		if !qty.Mul(hundred).GreaterThan(total.Mul(shareThreshold)) {
			continue
		}
		flags = append(flags, ShareFlag{
			Item:           key.item,
			Category:       key.category,
			Week:           week,
			ItemKg:         qty.InexactFloat64(),
			CategoryKg:     total.InexactFloat64(),
			SharePercent:   qty.Mul(hundred).Div(total).InexactFloat64(),
			Recommendation: fmt.Sprintf("reduce next cycle's order of %s by %d%%", key.item, OrderReductionPercent),
		})
	}
	return ShareReport{Outcome: OutcomeOK, Week: &week, Flags: flags}
}

// PersistentTopItems flags every item that ranks in the top three of two
// calendar-adjacent weeks, once per adjacent pair. Weeks separated by a gap are
// not compared.
func PersistentTopItems(records []Record) RecurrenceReport {
	byWeek := make(map[Week][]Record)
	weeks := make([]Week, 0)
	for _, r := range records {
		w, ok := r.Week()
		if !ok {
			continue
		}
		if _, seen := byWeek[w]; !seen {
			weeks = append(weeks, w)
		}
		byWeek[w] = append(byWeek[w], r)
	}

	if len(weeks) < 2 {
		return RecurrenceReport{Outcome: OutcomeInsufficientHistory, Weeks: len(weeks), Flags: []RecurrenceFlag{}}
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	top := make(map[Week][]RankedRow, len(weeks))
	for _, w := range weeks {
		// DimItem is always valid, so the error is nil
		ranked, _ := TopNByQuantity(byWeek[w], RecurrenceTopN, DimItem)
		top[w] = ranked
	}

	flags := make([]RecurrenceFlag, 0)
	for i := 1; i < len(weeks); i++ {
		prev, cur := weeks[i-1], weeks[i]
		if !prev.AdjacentTo(cur) {
			continue
		}
		curKg := make(map[string]float64, RecurrenceTopN)
		for _, row := range top[cur] {
			curKg[row.Key] = row.QuantityKg
		}
		for _, row := range top[prev] {
			kg, ok := curKg[row.Key]
			if !ok {
				continue
			}
			flags = append(flags, RecurrenceFlag{
				Item:           row.Key,
				PreviousWeek:   prev,
				CurrentWeek:    cur,
				PreviousKg:     row.QuantityKg,
				CurrentKg:      kg,
				Recommendation: RecurrenceRecommendation,
			})
		}
	}
	return RecurrenceReport{Outcome: OutcomeOK, Weeks: len(weeks), Flags: flags}
}
