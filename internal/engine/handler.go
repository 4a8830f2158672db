package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"fastadmin/internal/admin"
	"fastadmin/internal/forms"
	"fastadmin/internal/store"
	"fastadmin/internal/validation"
)

type Handler struct {
	engine   *Engine
	registry *admin.Registry
	forms    *forms.Builder
}

func NewHandler(e *Engine, reg *admin.Registry, fb *forms.Builder) *Handler {
	return &Handler{engine: e, registry: reg, forms: fb}
}

// Index handles GET /admin/, listing the administrable tables.
func (h *Handler) Index(c *fiber.Ctx) error {
	if err := Require(getPrincipal(c), "", "read"); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": h.registry.Tables()})
}

// List handles GET /admin/:table
func (h *Handler) List(c *fiber.Ctx) error {
	cfg, appErr := h.resolveTable(c)
	if appErr != nil {
		return respondError(c, appErr)
	}
	if appErr := Require(getPrincipal(c), cfg.Table.Name, "read"); appErr != nil {
		return respondError(c, appErr)
	}

	q, appErr := parseListQuery(c, cfg)
	if appErr != nil {
		return respondError(c, appErr)
	}

	result, err := h.engine.List(c.Context(), cfg, q)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": result.Items,
		"meta": fiber.Map{
			"page":        result.Page,
			"per_page":    result.PerPage,
			"total":       result.Total,
			"total_pages": result.TotalPages,
			"has_next":    result.HasNext,
			"has_prev":    result.HasPrev,
		},
	})
}

// GetByID handles GET /admin/:table/:id
func (h *Handler) GetByID(c *fiber.Ctx) error {
	cfg, appErr := h.resolveTable(c)
	if appErr != nil {
		return respondError(c, appErr)
	}
	if appErr := Require(getPrincipal(c), cfg.Table.Name, "read"); appErr != nil {
		return respondError(c, appErr)
	}

	id, appErr := pathID(c, cfg)
	if appErr != nil {
		return respondError(c, appErr)
	}

	row, err := h.engine.Read(c.Context(), cfg, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return respondError(c, NotFoundError(cfg.Table.Name, c.Params("id")))
		}
		return fmt.Errorf("get %s/%s: %w", cfg.Table.Name, c.Params("id"), err)
	}

	return c.JSON(fiber.Map{"data": row})
}

// Create handles POST /admin/:table
func (h *Handler) Create(c *fiber.Ctx) error {
	cfg, appErr := h.resolveTable(c)
	if appErr != nil {
		return respondError(c, appErr)
	}
	if appErr := Require(getPrincipal(c), cfg.Table.Name, "create"); appErr != nil {
		return respondError(c, appErr)
	}

	payload, appErr := parseBody(c, cfg)
	if appErr != nil {
		return respondError(c, appErr)
	}

	row, err := h.engine.Create(c.Context(), cfg, payload)
	if err != nil {
		return handleWriteError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": row})
}

// Update handles PUT /admin/:table/:id
func (h *Handler) Update(c *fiber.Ctx) error {
	cfg, appErr := h.resolveTable(c)
	if appErr != nil {
		return respondError(c, appErr)
	}
	if appErr := Require(getPrincipal(c), cfg.Table.Name, "update"); appErr != nil {
		return respondError(c, appErr)
	}

	id, appErr := pathID(c, cfg)
	if appErr != nil {
		return respondError(c, appErr)
	}

	payload, appErr := parseBody(c, cfg)
	if appErr != nil {
		return respondError(c, appErr)
	}

	row, err := h.engine.Update(c.Context(), cfg, id, payload)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return respondError(c, NotFoundError(cfg.Table.Name, c.Params("id")))
		}
		return handleWriteError(c, err)
	}

	return c.JSON(fiber.Map{"data": row})
}

// Delete handles DELETE /admin/:table/:id
func (h *Handler) Delete(c *fiber.Ctx) error {
	cfg, appErr := h.resolveTable(c)
	if appErr != nil {
		return respondError(c, appErr)
	}
	if appErr := Require(getPrincipal(c), cfg.Table.Name, "delete"); appErr != nil {
		return respondError(c, appErr)
	}

	id, appErr := pathID(c, cfg)
	if appErr != nil {
		return respondError(c, appErr)
	}

	if err := h.engine.Delete(c.Context(), cfg, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return respondError(c, NotFoundError(cfg.Table.Name, c.Params("id")))
		}
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"id": id}})
}

// BulkDelete handles POST /admin/:table/bulk-delete. Form submissions carry
// repeated selected-items fields; JSON clients send {"ids": [...]}.
func (h *Handler) BulkDelete(c *fiber.Ctx) error {
	cfg, appErr := h.resolveTable(c)
	if appErr != nil {
		return respondError(c, appErr)
	}
	if appErr := Require(getPrincipal(c), cfg.Table.Name, "delete"); appErr != nil {
		return respondError(c, appErr)
	}

	ids, appErr := parseBulkIDs(c, cfg)
	if appErr != nil {
		return respondError(c, appErr)
	}

	deleted, err := h.engine.BulkDelete(c.Context(), cfg, ids)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"requested": len(ids),
			"deleted":   deleted,
		},
	})
}

func parseBulkIDs(c *fiber.Ctx, cfg *admin.Config) ([]any, *AppError) {
	ctype := string(c.Request().Header.ContentType())
	if strings.HasPrefix(ctype, fiber.MIMEApplicationForm) {
		var ids []any
		var bad *AppError
		c.Request().PostArgs().VisitAll(func(key, val []byte) {
			if string(key) != "selected-items" || bad != nil {
				return
			}
			id, err := validation.CoerceID(cfg.Table, string(val))
			if err != nil {
				bad = InvalidPayloadError(fmt.Sprintf("Invalid id: %s", val))
				return
			}
			ids = append(ids, id)
		})
		if bad != nil {
			return nil, bad
		}
		return ids, nil
	}

	var body struct {
		IDs []any `json:"ids"`
	}
	if err := c.BodyParser(&body); err != nil {
		return nil, InvalidPayloadError("Invalid JSON body")
	}
	ids := make([]any, 0, len(body.IDs))
	for _, v := range body.IDs {
		id, err := validation.CoerceID(cfg.Table, fmt.Sprint(v))
		if err != nil {
			return nil, InvalidPayloadError(fmt.Sprintf("Invalid id: %v", v))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CreateForm handles GET /admin/:table/add
func (h *Handler) CreateForm(c *fiber.Ctx) error {
	return h.form(c, forms.ModeCreate)
}

// UpdateForm handles GET /admin/:table/:id/edit
func (h *Handler) UpdateForm(c *fiber.Ctx) error {
	return h.form(c, forms.ModeUpdate)
}

func (h *Handler) form(c *fiber.Ctx, mode forms.Mode) error {
	cfg, appErr := h.resolveTable(c)
	if appErr != nil {
		return respondError(c, appErr)
	}
	if appErr := Require(getPrincipal(c), cfg.Table.Name, "read"); appErr != nil {
		return respondError(c, appErr)
	}

	spec := h.forms.Build(c.Context(), cfg, mode)

	if mode == forms.ModeUpdate {
		id, appErr := pathID(c, cfg)
		if appErr != nil {
			return respondError(c, appErr)
		}
		row, err := h.engine.Read(c.Context(), cfg, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return respondError(c, NotFoundError(cfg.Table.Name, c.Params("id")))
			}
			return err
		}
		return c.JSON(fiber.Map{"data": fiber.Map{"form": spec, "record": row}})
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"form": spec}})
}

// resolveTable returns the registered config for the :table path segment.
// The *AppError is always non-nil when cfg is nil, so callers can branch on
// it safely.
func (h *Handler) resolveTable(c *fiber.Ctx) (*admin.Config, *AppError) {
	name := c.Params("table")
	cfg := h.registry.Get(name)
	if cfg == nil {
		return nil, UnknownTableError(name)
	}
	return cfg, nil
}

func getPrincipal(c *fiber.Ctx) *admin.Principal {
	p, _ := c.Locals("principal").(*admin.Principal)
	return p
}

func respondError(c *fiber.Ctx, appErr *AppError) error {
	return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
}

func handleWriteError(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return respondError(c, appErr)
	}
	return err
}

// parseListQuery turns query params (page, search, order_by, reverse,
// filter_<field>) into a ListQuery. Filters are restricted to the configured
// filter columns; an order_by naming an unknown column is ignored and the
// default ordering applies.
func parseListQuery(c *fiber.Ctx, cfg *admin.Config) (*ListQuery, *AppError) {
	q := &ListQuery{
		Search:  c.Query("search"),
		Filters: map[string]any{},
		Page:    1,
		PerPage: cfg.PageSize(),
	}

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			q.Page = v
		}
	}
	if pp := c.Query("per_page"); pp != "" {
		if v, err := strconv.Atoi(pp); err == nil && v > 0 {
			q.PerPage = v
			if q.PerPage > 100 {
				q.PerPage = 100
			}
		}
	}

	rawFilters := map[string]string{}
	for key, val := range c.Queries() {
		if !strings.HasPrefix(key, "filter_") {
			continue
		}
		field := strings.TrimPrefix(key, "filter_")
		if !filterable(cfg, field) {
			return nil, InvalidPayloadError(fmt.Sprintf("Unknown filter field: %s", field))
		}
		rawFilters[field] = val
	}
	if len(rawFilters) > 0 {
		coerced, errs := validation.Coerce(cfg.Table, rawFilters)
		if len(errs) > 0 {
			return nil, InvalidPayloadError(errs[0].Message)
		}
		q.Filters = coerced
	}

	if field := c.Query("order_by"); field != "" && cfg.Table.HasColumn(field) {
		q.OrderBy = field
	}
	switch strings.ToLower(c.Query("reverse")) {
	case "1", "true", "on", "yes":
		q.Desc = true
	}

	return q, nil
}

func filterable(cfg *admin.Config, field string) bool {
	for _, f := range cfg.ListFilter {
		if f == field {
			return true
		}
	}
	return false
}

func pathID(c *fiber.Ctx, cfg *admin.Config) (any, *AppError) {
	id, err := validation.CoerceID(cfg.Table, c.Params("id"))
	if err != nil {
		return nil, InvalidPayloadError(fmt.Sprintf("Invalid id: %s", c.Params("id")))
	}
	return id, nil
}

// parseBody accepts either a JSON object or form-encoded fields, coercing
// the latter to typed values from the table descriptor.
func parseBody(c *fiber.Ctx, cfg *admin.Config) (map[string]any, *AppError) {
	ctype := string(c.Request().Header.ContentType())
	if strings.HasPrefix(ctype, fiber.MIMEApplicationForm) {
		raw := map[string]string{}
		c.Request().PostArgs().VisitAll(func(key, val []byte) {
			raw[string(key)] = string(val)
		})
		payload, errs := validation.Coerce(cfg.Table, raw)
		if len(errs) > 0 {
			details := make([]ErrorDetail, 0, len(errs))
			for _, e := range errs {
				details = append(details, ErrorDetail{Field: e.Field, Rule: e.Rule, Message: e.Message})
			}
			return nil, ValidationError(details)
		}
		return payload, nil
	}

	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return nil, InvalidPayloadError("Invalid JSON body")
	}
	return body, nil
}
