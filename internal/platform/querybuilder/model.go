package querybuilder

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

const updatedAtColumn = "updated_at"

func InsertModel(table string, model any, suffix string) (string, []any, error) {
	cols, vals, err := columnsAndValuesFromModel(model)
	if err != nil {
		return "", nil, err
	}
	return InsertInto(table).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix).
		ToSQL()
}

// UpsertModel inserts the db-tagged fields of model. On a conflict over the given columns every
// other column is overwritten except those listed in keep, and updated_at is set to NOW().
func UpsertModel(table string, model any, conflict []string, keep ...string) (string, []any, error) {
	if len(conflict) == 0 {
		return "", nil, fmt.Errorf("upsert %s: conflict columns are required", table)
	}
	cols, vals, err := columnsAndValuesFromModel(model)
	if err != nil {
		return "", nil, err
	}

	updates := make([]string, 0, len(cols))
	for _, col := range cols {
		if slices.Contains(conflict, col) || slices.Contains(keep, col) {
			continue
		}
		updates = append(updates, col)
	}

	return InsertInto(table).
		Columns(cols...).
		Values(vals...).
		OnConflict(conflict...).
		DoUpdate(updates...).
		Touch(updatedAtColumn).
		ToSQL()
}

func columnsAndValuesFromModel(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct")
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		col, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		col = strings.TrimSpace(col)
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}
