package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"dwdcdc/internal/constants"
	"dwdcdc/internal/dataset"
)

type tableColumn struct {
	Name string
	Type string
	PK   bool
}

// VerifyReadingsTable checks that the reading table of d exists with the
// primary key (station INTEGER, dwdts TEXT) and every declared column
func (s *Store) VerifyReadingsTable(ctx context.Context, d dataset.Descriptor) error {
	cols, err := s.describe(ctx, d.Table)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return schemaError(d.Table, "table does not exist")
	}

	byName := make(map[string]tableColumn, len(cols))
	var pk []string
	for _, c := range cols {
		byName[c.Name] = c
		if c.PK {
			pk = append(pk, c.Name)
		}
	}

	sort.Strings(pk)
	if strings.Join(pk, ",") != "dwdts,station" {
		return schemaError(d.Table, fmt.Sprintf("primary key is (%s), want (station, dwdts)", strings.Join(pk, ", ")))
	}
	if t := strings.ToUpper(byName["station"].Type); t != "INTEGER" {
		return schemaError(d.Table, fmt.Sprintf("station is %s, want INTEGER", t))
	}
	if t := strings.ToUpper(byName["dwdts"].Type); t != "TEXT" {
		return schemaError(d.Table, fmt.Sprintf("dwdts is %s, want TEXT", t))
	}

	for _, name := range d.ColumnNames() {
		if _, ok := byName[name]; !ok {
			return schemaError(d.Table, fmt.Sprintf("column %s is missing", name))
		}
	}
	return nil
}

func (s *Store) describe(ctx context.Context, table string) ([]tableColumn, error) {
	if s.Driver == DriverSQLite {
		var rows []struct {
			CID     int            `db:"cid"`
			Name    string         `db:"name"`
			Type    string         `db:"type"`
			NotNull int            `db:"notnull"`
			Default sql.NullString `db:"dflt_value"`
			PK      int            `db:"pk"`
		}
		if err := s.SQLX.SelectContext(ctx, &rows, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table))); err != nil {
			return nil, fmt.Errorf("describe %s: %w", table, err)
		}
		out := make([]tableColumn, 0, len(rows))
		for _, r := range rows {
			out = append(out, tableColumn{Name: r.Name, Type: r.Type, PK: r.PK > 0})
		}
		return out, nil
	}

	var rows []struct {
		Name string `db:"column_name"`
		Type string `db:"data_type"`
		PK   bool   `db:"pk"`
	}
	query := `
		SELECT c.column_name, c.data_type,
			EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage k
					ON k.constraint_name = tc.constraint_name AND k.table_name = tc.table_name
				WHERE tc.table_name = c.table_name
					AND tc.constraint_type = 'PRIMARY KEY'
					AND k.column_name = c.column_name
			) AS pk
		FROM information_schema.columns c
		WHERE c.table_name = $1
		ORDER BY c.ordinal_position`
	if err := s.SQLX.SelectContext(ctx, &rows, query, table); err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	out := make([]tableColumn, 0, len(rows))
	for _, r := range rows {
		out = append(out, tableColumn{Name: r.Name, Type: r.Type, PK: r.PK})
	}
	return out, nil
}

func schemaError(table, reason string) error {
	return fmt.Errorf("%s: %s: %s", constants.ErrCodeSchemaInvalid, table, reason)
}
