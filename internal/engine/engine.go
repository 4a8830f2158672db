package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fastadmin/internal/admin"
	"fastadmin/internal/auth/credentials"
	"fastadmin/internal/schema"
	"fastadmin/internal/store"
	"fastadmin/internal/validation"
)

// Engine executes validated CRUD operations against registered tables.
type Engine struct {
	store    *store.Store
	registry *admin.Registry

	mu      sync.RWMutex
	creates map[*admin.Config]*validation.Model
	updates map[*admin.Config]*validation.Model
}

func New(s *store.Store, reg *admin.Registry) *Engine {
	return &Engine{
		store:    s,
		registry: reg,
		creates:  make(map[*admin.Config]*validation.Model),
		updates:  make(map[*admin.Config]*validation.Model),
	}
}

// ListResult is one page of records plus pagination metadata.
type ListResult struct {
	Items      []map[string]any `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	TotalPages int              `json:"total_pages"`
	HasNext    bool             `json:"has_next"`
	HasPrev    bool             `json:"has_prev"`
}

// List returns one page of records. Page numbers are 1-based; out-of-range
// pages return an empty item list, not an error.
func (e *Engine) List(ctx context.Context, cfg *admin.Config, q *ListQuery) (*ListResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = cfg.PageSize()
	}

	qr := BuildListSQL(cfg, q)
	rows, err := store.QueryRows(ctx, e.store.Pool, qr.SQL, qr.Params...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", cfg.Table.Name, err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}

	cr := BuildCountSQL(cfg, q)
	countRow, err := store.QueryRow(ctx, e.store.Pool, cr.SQL, cr.Params...)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", cfg.Table.Name, err)
	}
	total := asInt64(countRow["count"])

	totalPages, hasNext, hasPrev := paginate(total, q.Page, q.PerPage)
	return &ListResult{
		Items:      rows,
		Total:      total,
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalPages: totalPages,
		HasNext:    hasNext,
		HasPrev:    hasPrev,
	}, nil
}

func paginate(total int64, page, perPage int) (totalPages int, hasNext, hasPrev bool) {
	totalPages = int(total) / perPage
	if int(total)%perPage != 0 {
		totalPages++
	}
	return totalPages, page < totalPages, page > 1
}

// Read returns a single record by primary key, password columns omitted.
func (e *Engine) Read(ctx context.Context, cfg *admin.Config, id any) (map[string]any, error) {
	qr := BuildSelectOneSQL(cfg, id)
	row, err := store.QueryRow(ctx, e.store.Pool, qr.SQL, qr.Params...)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Create validates and inserts a record, returning the stored row.
func (e *Engine) Create(ctx context.Context, cfg *admin.Config, payload map[string]any) (map[string]any, error) {
	model, err := e.createModel(cfg)
	if err != nil {
		return nil, err
	}
	if errs := model.Validate(payload); len(errs) > 0 {
		return nil, ValidationError(toDetails(errs))
	}
	if errs := EvaluateRules(cfg, payload, nil, true); len(errs) > 0 {
		return nil, ValidationError(errs)
	}
	if appErr := hashPasswordFields(cfg.Table, payload); appErr != nil {
		return nil, appErr
	}

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	qr := BuildInsertSQL(cfg, payload)
	row, err := store.QueryRow(ctx, tx, qr.SQL, qr.Params...)
	if err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, ConflictError([]ErrorDetail{{Rule: "unique", Message: err.Error()}})
		}
		return nil, fmt.Errorf("insert %s: %w", cfg.Table.Name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	stripPasswords(cfg.Table, row)
	return row, nil
}

// Update validates and applies a partial update. Only keys present in the
// payload are written; an empty payload returns the current row unchanged.
func (e *Engine) Update(ctx context.Context, cfg *admin.Config, id any, payload map[string]any) (map[string]any, error) {
	old, err := e.Read(ctx, cfg, id)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return old, nil
	}

	model, err := e.updateModel(cfg)
	if err != nil {
		return nil, err
	}
	if errs := model.Validate(payload); len(errs) > 0 {
		return nil, ValidationError(toDetails(errs))
	}

	merged := make(map[string]any, len(old)+len(payload))
	for k, v := range old {
		merged[k] = v
	}
	for k, v := range payload {
		merged[k] = v
	}
	if errs := EvaluateRules(cfg, merged, old, false); len(errs) > 0 {
		return nil, ValidationError(errs)
	}
	if appErr := hashPasswordFields(cfg.Table, payload); appErr != nil {
		return nil, appErr
	}

	qr := BuildUpdateSQL(cfg, id, payload)
	row, err := store.QueryRow(ctx, e.store.Pool, qr.SQL, qr.Params...)
	if err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, ConflictError([]ErrorDetail{{Rule: "unique", Message: err.Error()}})
		}
		return nil, err
	}

	stripPasswords(cfg.Table, row)
	return row, nil
}

// Delete removes a record by primary key.
func (e *Engine) Delete(ctx context.Context, cfg *admin.Config, id any) error {
	qr := BuildDeleteSQL(cfg, id)
	affected, err := store.Exec(ctx, e.store.Pool, qr.SQL, qr.Params...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", cfg.Table.Name, err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// BulkDelete removes the listed records in one statement and reports which
// ids were actually deleted. Missing ids are skipped, not errors.
func (e *Engine) BulkDelete(ctx context.Context, cfg *admin.Config, ids []any) ([]any, error) {
	if len(ids) == 0 {
		return []any{}, nil
	}
	qr := BuildBulkDeleteSQL(cfg, ids)
	rows, err := store.QueryRows(ctx, e.store.Pool, qr.SQL, qr.Params...)
	if err != nil {
		return nil, fmt.Errorf("bulk delete %s: %w", cfg.Table.Name, err)
	}
	pkName := cfg.Table.PrimaryKeyColumn().Name
	deleted := make([]any, 0, len(rows))
	for _, row := range rows {
		deleted = append(deleted, row[pkName])
	}
	return deleted, nil
}

// createModel returns the compiled create-mode validation model for a config,
// building it on first use. The cache key is the config pointer, so replacing
// a table's registration naturally invalidates its cached models.
func (e *Engine) createModel(cfg *admin.Config) (*validation.Model, error) {
	e.mu.RLock()
	model := e.creates[cfg]
	e.mu.RUnlock()
	if model != nil {
		return model, nil
	}

	model, err := validation.BuildCreate(cfg.Table, cfg.Exclude)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.creates[cfg] = model
	e.mu.Unlock()
	return model, nil
}

func (e *Engine) updateModel(cfg *admin.Config) (*validation.Model, error) {
	e.mu.RLock()
	model := e.updates[cfg]
	e.mu.RUnlock()
	if model != nil {
		return model, nil
	}

	model, err := validation.BuildUpdate(cfg.Table)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.updates[cfg] = model
	e.mu.Unlock()
	return model, nil
}

// hashPasswordFields replaces plain-text values in password columns with
// their argon2id hash, after checking the password policy.
func hashPasswordFields(t *schema.Table, payload map[string]any) *AppError {
	for _, col := range t.Columns {
		if col.Type != schema.TypePassword {
			continue
		}
		raw, ok := payload[col.Name]
		if !ok || raw == nil {
			continue
		}
		plain, ok := raw.(string)
		if !ok {
			continue
		}
		if problems := credentials.CheckStrength(plain); len(problems) > 0 {
			details := make([]ErrorDetail, 0, len(problems))
			for _, p := range problems {
				details = append(details, ErrorDetail{Field: col.Name, Rule: "password", Message: p})
			}
			return ValidationError(details)
		}
		hashed, err := credentials.Hash(plain)
		if err != nil {
			return InternalError()
		}
		payload[col.Name] = hashed
	}
	return nil
}

func stripPasswords(t *schema.Table, row map[string]any) {
	for _, col := range t.Columns {
		if col.Type == schema.TypePassword {
			delete(row, col.Name)
		}
	}
}

func toDetails(errs []validation.FieldError) []ErrorDetail {
	details := make([]ErrorDetail, 0, len(errs))
	for _, e := range errs {
		details = append(details, ErrorDetail{Field: e.Field, Rule: e.Rule, Message: e.Message})
	}
	return details
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
