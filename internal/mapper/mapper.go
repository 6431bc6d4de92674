// Package mapper implements the catalog's column-map driven entity
// binding (spec §4.2): bind_generic/decode_generic over a declarative,
// ordered table of (sql_name, struct field, flags) built once per
// entity type from its `col` struct tags.
//
// Go has no compile-time offset-based descriptor the way the original
// systems-language implementation did, so the column map here is
// built by reflection once per type and cached — the contract is the
// same: the column map, the table schema, and the struct's field
// order must agree (see ColumnMap.AssertColumnCount).
package mapper

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Flag marks binding/decoding behavior for a single column.
type Flag uint8

const (
	// FlagNoBind skips the column when binding INSERT/UPDATE
	// parameters (derived columns: id, computed join totals).
	FlagNoBind Flag = 1 << iota
	// FlagNoZero wraps an UPDATE's bound value in daap_no_zero so a
	// zero input preserves the column's stored value (counters,
	// ratings).
	FlagNoZero
	// FlagNoSanitize exempts a field from fixup's sanitize pass.
	FlagNoSanitize
)

// Column describes one entry of an entity's column map.
type Column struct {
	SQLName    string
	FieldIndex int
	Flags      Flag
}

func (c Column) Has(f Flag) bool { return c.Flags&f != 0 }

// ColumnMap is the ordered table C2 binds and decodes by.
type ColumnMap []Column

var (
	cacheMu sync.Mutex
	cache   = map[reflect.Type]ColumnMap{}
)

// For builds (or returns the cached) column map for the concrete type
// of v, which must be a struct or a pointer to one.
func For(v interface{}) ColumnMap {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if m, ok := cache[t]; ok {
		return m
	}

	var m ColumnMap
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, ok := f.Tag.Lookup("col")
		if !ok {
			continue // derived/non-persisted field (e.g. Playlist.Items)
		}
		parts := strings.Split(tag, ",")
		col := Column{SQLName: parts[0], FieldIndex: i}
		for _, flagName := range parts[1:] {
			switch flagName {
			case "nobind":
				col.Flags |= FlagNoBind
			case "nozero":
				col.Flags |= FlagNoZero
			case "nosanitize":
				col.Flags |= FlagNoSanitize
			}
		}
		m = append(m, col)
	}
	cache[t] = m
	return m
}

// AssertColumnCount is the startup invariant check spec §4.2 requires
// ("the implementation must assert this at startup"): the column map
// must have exactly wantCount entries, matching the live schema.
func (m ColumnMap) AssertColumnCount(wantCount int) error {
	if len(m) != wantCount {
		return fmt.Errorf("mapper: column map has %d entries, schema expects %d", len(m), wantCount)
	}
	return nil
}

func fieldValue(rv reflect.Value, idx int) reflect.Value {
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	return rv.Field(idx)
}

// InsertColumns returns the column names and bound values for an
// INSERT of record, skipping FlagNoBind columns.
func (m ColumnMap) InsertColumns(record interface{}) (names []string, args []interface{}) {
	rv := reflect.ValueOf(record)
	for _, c := range m {
		if c.Has(FlagNoBind) {
			continue
		}
		names = append(names, c.SQLName)
		args = append(args, fieldValue(rv, c.FieldIndex).Interface())
	}
	return names, args
}

// UpdateAssignments returns the "col = ?"/"col = daap_no_zero(?, col)"
// fragments and bound values for an UPDATE of record, in column-map
// order. The caller appends the id as the final WHERE parameter.
func (m ColumnMap) UpdateAssignments(record interface{}) (assignments []string, args []interface{}) {
	rv := reflect.ValueOf(record)
	for _, c := range m {
		if c.Has(FlagNoBind) {
			continue
		}
		if c.Has(FlagNoZero) {
			assignments = append(assignments, fmt.Sprintf("%s = daap_no_zero(?, %s)", c.SQLName, c.SQLName))
		} else {
			assignments = append(assignments, c.SQLName+" = ?")
		}
		args = append(args, fieldValue(rv, c.FieldIndex).Interface())
	}
	return assignments, args
}

// SelectColumns returns every column name in map order, including
// FlagNoBind columns (they are still selected and decoded — only
// insert/update binding skips them).
func (m ColumnMap) SelectColumns() []string {
	names := make([]string, len(m))
	for i, c := range m {
		names[i] = c.SQLName
	}
	return names
}

// Decode scans one row from rows into dest (a pointer to the mapped
// struct), assigning columns 0..N-1 of the map in order. If rows has
// fewer columns than the map, decoding fails with a schema-drift
// error (spec §4.3 "fetch_*" contract); extra columns beyond the map
// are ignored so a newer live schema can grow without breaking old
// binaries.
func (m ColumnMap) Decode(rows *sql.Rows, dest interface{}) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	if len(cols) < len(m) {
		return fmt.Errorf("mapper: schema drift: row has %d columns, map expects %d", len(cols), len(m))
	}

	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr {
		return fmt.Errorf("mapper: Decode destination must be a pointer")
	}

	scanDest := make([]interface{}, len(cols))
	holders := make([]sql.NullString, len(cols))
	ptrs := make([]*sql.NullString, len(cols))
	for i := range holders {
		ptrs[i] = &holders[i]
		scanDest[i] = ptrs[i]
	}

	if err := rows.Scan(scanDest...); err != nil {
		return err
	}

	for i, c := range m {
		if !holders[i].Valid {
			continue
		}
		if err := assignString(fieldValue(rv, c.FieldIndex), holders[i].String); err != nil {
			return fmt.Errorf("mapper: decode column %q: %w", c.SQLName, err)
		}
	}
	return nil
}
