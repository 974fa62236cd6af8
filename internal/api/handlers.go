package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/labstack/echo/v4"
	"github.com/zeebo/xxh3"

	"salarydash/internal/engine"
	"salarydash/internal/export"
	"salarydash/internal/models"
)

// ErrNotLoaded is reported while the dataset is still loading.
var ErrNotLoaded = errors.New("dataset is still loading")

type loadState struct {
	data *engine.Dataset
	err  error
}

type Handler struct {
	state atomic.Pointer[loadState]
	opts  engine.RenderOptions
}

// NewHandler accepts a nil dataset; data endpoints answer 503 until SetData.
func NewHandler(data *engine.Dataset, opts engine.RenderOptions) *Handler {
	h := &Handler{opts: opts}
	h.state.Store(&loadState{data: data})
	return h
}

// SetData publishes the loaded dataset.
func (h *Handler) SetData(data *engine.Dataset) {
	h.state.Store(&loadState{data: data})
}

// SetLoadError records a failed load so clients see the cause.
func (h *Handler) SetLoadError(err error) {
	h.state.Store(&loadState{err: err})
}

func (h *Handler) dataset() (*engine.Dataset, error) {
	s := h.state.Load()
	if s.err != nil {
		return nil, s.err
	}
	if s.data == nil {
		return nil, ErrNotLoaded
	}
	return s.data, nil
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	api := e.Group("/api")
	api.GET("/filters", h.GetFilters)
	api.GET("/dashboard", h.GetDashboard)
	api.GET("/records", h.GetRecords)
	api.GET("/records.xlsx", h.ExportRecords)
}

// --- HELPERS ---

func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

var reservedParams = map[string]bool{"limit": true, "offset": true}

// parseSelection reads filter values from repeated or comma-separated query
// params, e.g. ?ano=2023&ano=2024 or ?ano=2023,2024.
func parseSelection(c echo.Context) (models.FilterSelection, error) {
	sel := models.FilterSelection{}
	for key, raw := range c.QueryParams() {
		if reservedParams[key] {
			continue
		}
		col, ok := models.ParseFilterColumn(key)
		if !ok {
			return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown filter %q", key))
		}
		for _, item := range raw {
			for _, v := range strings.Split(item, ",") {
				v = strings.TrimSpace(v)
				if v == "" {
					continue
				}
				if col == models.ColYear {
					n, err := strconv.Atoi(v)
					if err != nil {
						return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s %q", col, v))
					}
					// "02023" and "+2023" must match records stored as 2023
					v = strconv.Itoa(n)
				}
				sel[col] = append(sel[col], v)
			}
		}
	}
	// Sorted and deduplicated so equal selections render identical bodies.
	for col, vals := range sel {
		slices.Sort(vals)
		sel[col] = slices.Compact(vals)
	}
	return sel, nil
}

// etag identifies a response by dataset fingerprint, selection and page.
// sel must come from parseSelection, which keeps values sorted.
func etag(ds *engine.Dataset, sel models.FilterSelection, extra string) string {
	var b strings.Builder
	for _, col := range models.FilterColumns {
		b.WriteString(string(col))
		b.WriteByte('=')
		b.WriteString(strings.Join(sel[col], ","))
		b.WriteByte(';')
	}
	b.WriteString(extra)
	return fmt.Sprintf(`W/"%016x-%016x"`, ds.Fingerprint, xxh3.HashString(b.String()))
}

// notModified sets the ETag header and reports whether the client copy is current.
func notModified(c echo.Context, tag string) bool {
	c.Response().Header().Set("ETag", tag)
	return c.Request().Header.Get("If-None-Match") == tag
}

func unavailable(err error) error {
	return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error()).SetInternal(err)
}

// --- HANDLERS ---

func (h *Handler) Health(c echo.Context) error {
	s := h.state.Load()
	switch {
	case s.err != nil:
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"status": "failed",
			"error":  s.err.Error(),
		})
	case s.data == nil:
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{"status": "loading"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ready",
		"records": s.data.Len(),
	})
}

// options for the four multi-select filters
func (h *Handler) GetFilters(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return unavailable(err)
	}
	return c.JSON(http.StatusOK, ds.Options)
}

// metrics, charts and the first table page
func (h *Handler) GetDashboard(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return unavailable(err)
	}
	sel, err := parseSelection(c)
	if err != nil {
		return err
	}

	opts := h.opts
	opts.Limit, opts.Offset = getPaginationParams(c, h.opts.Limit)

	if notModified(c, etag(ds, sel, fmt.Sprintf("dashboard:%d:%d", opts.Limit, opts.Offset))) {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSON(http.StatusOK, engine.Render(ds, sel, opts))
}

// paginated detail table
func (h *Handler) GetRecords(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return unavailable(err)
	}
	sel, err := parseSelection(c)
	if err != nil {
		return err
	}

	limit, offset := getPaginationParams(c, h.opts.Limit)
	if notModified(c, etag(ds, sel, fmt.Sprintf("records:%d:%d", limit, offset))) {
		return c.NoContent(http.StatusNotModified)
	}

	page := engine.Page(engine.Apply(ds, sel), limit, offset)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":   page.Rows,
		"total":  page.Total,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// full filtered table as a workbook
func (h *Handler) ExportRecords(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return unavailable(err)
	}
	sel, err := parseSelection(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, engine.Apply(ds, sel)); err != nil {
		return fmt.Errorf("export records: %w", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="dados.xlsx"`)
	return c.Blob(http.StatusOK, export.XLSXMime, buf.Bytes())
}
