package waste

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"

	"wastetracker/internal/analytics"
	"wastetracker/internal/audit"
	"wastetracker/internal/auth"
	"wastetracker/internal/logger"
	"wastetracker/internal/models"
	"wastetracker/internal/reports"
	"wastetracker/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const (
	defaultListLimit = 500
	maxImportBytes   = 10 << 20
)

var validate = newValidator()

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type CreateWasteEntryRequest struct {
	ItemName   string          `json:"item_name" validate:"required,max=200"`
	Category   string          `json:"category" validate:"required,oneof=Plastic Paper Metal Glass Organic Other"`
	QuantityKg float64         `json:"quantity_kg" validate:"gte=0"`
	Reason     string          `json:"reason" validate:"max=500"`
	Date       string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Cost       decimal.Decimal `json:"cost"`
	Location   string          `json:"location" validate:"max=100"`
}

func (r CreateWasteEntryRequest) raw() analytics.RawRecord {
	return analytics.RawRecord{
		ItemName:   r.ItemName,
		Category:   r.Category,
		QuantityKg: strconv.FormatFloat(r.QuantityKg, 'f', -1, 64),
		Reason:     r.Reason,
		Date:       r.Date,
		Cost:       r.Cost.String(),
		Location:   r.Location,
	}
}

type Handlers struct {
	Log     store.WasteLog
	Trail   store.AuditTrail
	Reports *reports.Service
}

func (h *Handlers) writeAudit(c *fiber.Ctx, opts audit.LogOptions) {
	if id, ok := auth.CurrentIdentity(c); ok {
		opts.UserID = id.UserID
		opts.UserName = id.Email
	}
	if err := audit.WriteLog(c.UserContext(), h.Trail, opts); err != nil {
		logger.Errorf(c.UserContext(), "%v", err)
	}
}

func createdBy(c *fiber.Ctx) *uint {
	if id, ok := auth.CurrentIdentity(c); ok {
		return &id.UserID
	}
	return nil
}

// POST /api/waste-entries
func (h *Handlers) CreateWasteEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateWasteEntryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
		}

		rec, err := analytics.Normalize(body.raw())
		if err != nil {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}

		entry := store.EntryFromRecord(rec)
		entry.CreatedBy = createdBy(c)
		if err := h.Log.Append(c.UserContext(), entry); err != nil {
			return appendError(c, err)
		}

		h.writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityWasteEntry,
			EntityID:    entry.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("logged %s kg of %s", strconv.FormatFloat(entry.QuantityKg, 'f', -1, 64), entry.ItemName),
			Data:        entry,
		})

		return c.Status(fiber.StatusCreated).JSON(entry)
	}
}

// GET /api/waste-entries?date_from=2025-01-01&date_to=2025-01-31&limit=100
func (h *Handlers) ListWasteEntriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts, err := listOptions(c, defaultListLimit)
		if err != nil {
			return err
		}
		entries, err := h.Log.List(c.UserContext(), opts)
		if err != nil {
			logger.Errorf(c.UserContext(), "list waste entries: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "waste entries could not be listed")
		}
		return c.JSON(entries)
	}
}

// GET /api/waste-entries/export.csv
func (h *Handlers) ExportCSVHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts, err := listOptions(c, 0)
		if err != nil {
			return err
		}
		entries, err := h.Log.List(c.UserContext(), opts)
		if err != nil {
			logger.Errorf(c.UserContext(), "export waste entries: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "waste entries could not be exported")
		}

		var buf bytes.Buffer
		if err := store.WriteCSV(&buf, entries); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "csv could not be written")
		}
		c.Attachment("waste_log.csv")
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		return c.Send(buf.Bytes())
	}
}

// POST /api/waste-entries/import (CSV or XLSX, as the body or multipart "file")
func (h *Handlers) ImportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		src, isXLSX, err := importSource(c)
		if err != nil {
			return err
		}

		read := store.ReadCSV
		if isXLSX {
			read = store.ReadXLSX
		}
		raws, err := read(src)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		records, err := analytics.NormalizeAll(raws)
		if err != nil {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		if len(records) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "import contains no rows")
		}

		uid := createdBy(c)
		entries := make([]*models.WasteEntry, len(records))
		for i, rec := range records {
			entries[i] = store.EntryFromRecord(rec)
			entries[i].CreatedBy = uid
		}
		if err := h.Log.Append(c.UserContext(), entries...); err != nil {
			return appendError(c, err)
		}

		h.writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityWasteLog,
			Action:      models.AuditActionImport,
			Description: fmt.Sprintf("imported %d rows", len(entries)),
			Data:        fiber.Map{"rows": len(entries)},
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"imported": len(entries)})
	}
}

// DELETE /api/waste-entries
func (h *Handlers) ResetLogHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		removed, err := h.Log.Reset(c.UserContext())
		if err != nil {
			logger.Errorf(c.UserContext(), "reset waste log: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "waste log could not be reset")
		}

		h.writeAudit(c, audit.LogOptions{
			EntityType:  audit.EntityWasteLog,
			Action:      models.AuditActionReset,
			Description: fmt.Sprintf("removed %d entries", removed),
			Data:        fiber.Map{"removed": removed},
		})

		return c.JSON(fiber.Map{"removed": removed})
	}
}

// importSource returns the upload and whether it is a workbook.
func importSource(c *fiber.Ctx) (io.Reader, bool, error) {
	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size > maxImportBytes {
			return nil, false, fiber.NewError(fiber.StatusRequestEntityTooLarge, "import file too large")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, false, fiber.NewError(fiber.StatusBadRequest, "uploaded file could not be read")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, false, fiber.NewError(fiber.StatusBadRequest, "uploaded file could not be read")
		}
		isXLSX := strings.HasSuffix(strings.ToLower(fh.Filename), ".xlsx") ||
			fh.Header.Get(fiber.HeaderContentType) == xlsxContentType
		return bytes.NewReader(data), isXLSX, nil
	}

	body := c.Body()
	if len(body) == 0 {
		return nil, false, fiber.NewError(fiber.StatusBadRequest, "csv/xlsx body or multipart file is required")
	}
	isXLSX := strings.HasPrefix(c.Get(fiber.HeaderContentType), xlsxContentType)
	return bytes.NewReader(body), isXLSX, nil
}

func listOptions(c *fiber.Ctx, defaultLimit int) (store.ListOptions, error) {
	opts := store.ListOptions{Limit: defaultLimit}
	var err error
	if opts.From, err = queryDate(c, "date_from"); err != nil {
		return opts, err
	}
	if opts.To, err = queryDate(c, "date_to"); err != nil {
		return opts, err
	}
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return opts, fiber.NewError(fiber.StatusBadRequest, "limit must be a positive integer")
		}
		opts.Limit = n
	}
	return opts, nil
}

func queryDate(c *fiber.Ctx, key string) (*time.Time, error) {
	s := c.Query(key)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(analytics.DateLayout, s)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, key+" must be YYYY-MM-DD")
	}
	return &t, nil
}

func appendError(c *fiber.Ctx, err error) error {
	var verr *analytics.ValidationError
	if errors.As(err, &verr) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, verr.Error())
	}
	logger.Errorf(c.UserContext(), "append waste entries: %v", err)
	return fiber.NewError(fiber.StatusInternalServerError, "waste entries could not be saved")
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be YYYY-MM-DD", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
