package forms

import (
	"context"
	"fmt"

	"fastadmin/internal/store"
)

// ChoiceLoader fetches the option list for a foreign-key field.
type ChoiceLoader interface {
	Load(ctx context.Context, table, valueCol, displayCol string) ([]Choice, error)
}

// PostgresChoices loads options from the referenced table, ordered by the
// display column.
type PostgresChoices struct {
	Store *store.Store
}

func NewPostgresChoices(s *store.Store) *PostgresChoices {
	return &PostgresChoices{Store: s}
}

func (p *PostgresChoices) Load(ctx context.Context, table, valueCol, displayCol string) ([]Choice, error) {
	query := fmt.Sprintf(`SELECT %s AS value, %s AS label FROM %s ORDER BY %s ASC`,
		valueCol, displayCol, table, displayCol)

	rows, err := store.QueryRows(ctx, p.Store.Pool, query)
	if err != nil {
		return nil, fmt.Errorf("load choices from %s: %w", table, err)
	}

	choices := make([]Choice, 0, len(rows))
	for _, row := range rows {
		choices = append(choices, Choice{
			Value: row["value"],
			Label: fmt.Sprintf("%v", row["label"]),
		})
	}
	return choices, nil
}
