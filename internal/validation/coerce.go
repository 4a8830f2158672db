package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fastadmin/internal/schema"
)

func excludeSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// Coerce converts raw form values (strings) into typed values according to
// the column's semantic type. Unknown keys are rejected; empty values on
// nullable columns become nil.
func Coerce(t *schema.Table, raw map[string]string) (map[string]any, []FieldError) {
	payload := make(map[string]any, len(raw))
	var errs []FieldError

	for key, val := range raw {
		col := t.Column(key)
		if col == nil {
			errs = append(errs, FieldError{
				Field:   key,
				Rule:    "unknown",
				Message: fmt.Sprintf("Unknown field: %s", key),
			})
			continue
		}

		if val == "" && col.Nullable {
			payload[key] = nil
			continue
		}

		v, err := coerceValue(col, val)
		if err != nil {
			errs = append(errs, FieldError{
				Field:   key,
				Rule:    "type",
				Message: fmt.Sprintf("Invalid value for %s: %v", key, err),
			})
			continue
		}
		payload[key] = v
	}

	return payload, errs
}

// CoerceID converts a path id segment to the primary key's value type.
func CoerceID(t *schema.Table, raw string) (any, error) {
	pk := t.PrimaryKeyColumn()
	if pk == nil {
		return raw, nil
	}
	return coerceValue(pk, raw)
}

func coerceValue(col *schema.Column, val string) (any, error) {
	switch col.Type {
	case schema.TypeInteger:
		return strconv.ParseInt(val, 10, 64)
	case schema.TypeFloat:
		return strconv.ParseFloat(val, 64)
	case schema.TypeBoolean:
		switch strings.ToLower(val) {
		case "on", "true", "1", "yes":
			return true, nil
		case "off", "false", "0", "no", "":
			return false, nil
		}
		return nil, fmt.Errorf("not a boolean: %q", val)
	case schema.TypeDatetime:
		for _, layout := range datetimeLayouts {
			if ts, err := time.Parse(layout, val); err == nil {
				return ts, nil
			}
		}
		return nil, fmt.Errorf("not a timestamp: %q", val)
	case schema.TypeDate:
		if ts, err := time.Parse("2006-01-02", val); err == nil {
			return ts, nil
		}
		return nil, fmt.Errorf("not a date: %q", val)
	default:
		return val, nil
	}
}
