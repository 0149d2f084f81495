package waste

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"wastetracker/internal/analytics"
	"wastetracker/internal/logger"
	"wastetracker/internal/reports"

	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// reportQuery reads the selection and view parameters shared by every report route.
// A selection key that is present but empty selects nothing.
func reportQuery(c *fiber.Ctx) (reports.Query, error) {
	var q reports.Query
	args := c.Context().QueryArgs()

	if args.Has("categories") {
		q.Categories = make([]analytics.Category, 0)
		for _, v := range splitList(c.Query("categories")) {
			q.Categories = append(q.Categories, analytics.Category(v))
		}
	}
	if args.Has("locations") {
		q.Locations = splitList(c.Query("locations"))
	}

	if s := c.Query("as_of"); s != "" {
		t, err := time.Parse(analytics.DateLayout, s)
		if err != nil {
			return q, fiber.NewError(fiber.StatusBadRequest, "as_of must be YYYY-MM-DD")
		}
		q.AsOf = t
	}

	measure, err := analytics.ParseMeasure(c.Query("measure"))
	if err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	q.Measure = measure

	return q, nil
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (h *Handlers) build(c *fiber.Ctx, q reports.Query) (*reports.Report, error) {
	r, err := h.Reports.Build(c.UserContext(), q)
	if err != nil {
		if errors.Is(err, analytics.ErrUnknownDimension) || errors.Is(err, analytics.ErrUnknownMeasure) {
			return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		logger.Errorf(c.UserContext(), "build report: %v", err)
		return nil, fiber.NewError(fiber.StatusInternalServerError, "report could not be built")
	}
	return r, nil
}

// GET /api/reports/summary
func (h *Handlers) SummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := reportQuery(c)
		if err != nil {
			return err
		}
		r, err := h.build(c, q)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"run_id":             r.RunID,
			"generated_at":       r.GeneratedAt,
			"selection":          r.Selection,
			"records":            r.Records,
			"undated":            r.Undated,
			"total_quantity_kg":  r.TotalQuantityKg,
			"total_cost":         r.TotalCost,
			"top_items":          r.TopItems,
			"by_category":        r.ByCategory,
			"by_category_reason": r.ByCategoryReason,
		})
	}
}

// GET /api/reports/top?n=3&by=item
func (h *Handlers) TopHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := reportQuery(c)
		if err != nil {
			return err
		}
		q.TopN = reports.DefaultTopN
		if s := c.Query("n"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "n must be a non-negative integer")
			}
			q.TopN = n
		}
		if q.TopBy, err = analytics.ParseDimension(c.Query("by", "item")); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if q.TopN == 0 {
			q.TopN = -1
		}

		r, err := h.build(c, q)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"run_id": r.RunID,
			"by":     r.TopBy.String(),
			"items":  r.TopItems,
		})
	}
}

// GET /api/reports/grouped?by=category,reason
func (h *Handlers) GroupedHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := reportQuery(c)
		if err != nil {
			return err
		}
		names := splitList(c.Query("by", "category"))
		if len(names) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "by must name at least one dimension")
		}
		for _, name := range names {
			d, err := analytics.ParseDimension(name)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			q.GroupBy = append(q.GroupBy, d)
		}

		r, err := h.build(c, q)
		if err != nil {
			return err
		}
		by := make([]string, len(r.GroupBy))
		for i, d := range r.GroupBy {
			by[i] = d.String()
		}
		return c.JSON(fiber.Map{
			"run_id": r.RunID,
			"by":     by,
			"rows":   r.Grouped,
		})
	}
}

// GET /api/reports/trend?measure=quantity
func (h *Handlers) TrendHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := reportQuery(c)
		if err != nil {
			return err
		}
		r, err := h.build(c, q)
		if err != nil {
			return err
		}
		resp := fiber.Map{
			"run_id":        r.RunID,
			"weekly_totals": r.WeeklyTotals,
			"trend":         r.Trend,
		}
		if !r.Trend.Ready() {
			resp["message"] = reports.OutcomeMessage(r.Trend.Outcome)
		}
		return c.JSON(resp)
	}
}

// GET /api/reports/recommendations?as_of=2025-01-13
func (h *Handlers) RecommendationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := reportQuery(c)
		if err != nil {
			return err
		}
		r, err := h.build(c, q)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"run_id":     r.RunID,
			"share":      r.Share,
			"recurrence": r.Recurrence,
		})
	}
}

// GET /api/reports/export.xlsx
func (h *Handlers) ExportWorkbookHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := reportQuery(c)
		if err != nil {
			return err
		}
		r, err := h.build(c, q)
		if err != nil {
			return err
		}
		buf, err := reports.WriteWorkbook(r)
		if err != nil {
			logger.Errorf(c.UserContext(), "write workbook: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "workbook could not be written")
		}
		c.Attachment("waste_report.xlsx")
		c.Set(fiber.HeaderContentType, xlsxContentType)
		return c.Send(buf.Bytes())
	}
}
