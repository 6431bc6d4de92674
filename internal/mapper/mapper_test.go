package mapper

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID    int64  `col:"id,nobind"`
	Name  string `col:"name"`
	Count int    `col:"count,nozero"`
	Skip  string // no tag: must be excluded from the map
}

func TestFor_SkipsUntaggedFields(t *testing.T) {
	m := For(sample{})
	assert.Len(t, m, 3)
	assert.Equal(t, "id", m[0].SQLName)
	assert.True(t, m[0].Has(FlagNoBind))
	assert.Equal(t, "name", m[1].SQLName)
	assert.False(t, m[1].Has(FlagNoZero))
	assert.Equal(t, "count", m[2].SQLName)
	assert.True(t, m[2].Has(FlagNoZero))
}

func TestFor_IsCached(t *testing.T) {
	a := For(sample{})
	b := For(&sample{})
	assert.Equal(t, a, b)
}

func TestInsertColumns_SkipsNoBind(t *testing.T) {
	m := For(sample{})
	rec := sample{ID: 7, Name: "x", Count: 3}
	names, args := m.InsertColumns(rec)
	assert.Equal(t, []string{"name", "count"}, names)
	assert.Equal(t, []interface{}{"x", 3}, args)
}

func TestUpdateAssignments_WrapsNoZero(t *testing.T) {
	m := For(sample{})
	rec := sample{ID: 7, Name: "x", Count: 0}
	assignments, args := m.UpdateAssignments(rec)
	assert.Equal(t, []string{"name = ?", "count = daap_no_zero(?, count)"}, assignments)
	assert.Equal(t, []interface{}{"x", 0}, args)
}

func TestAssertColumnCount(t *testing.T) {
	m := For(sample{})
	assert.NoError(t, m.AssertColumnCount(3))
	assert.Error(t, m.AssertColumnCount(4))
}

func TestDecode_RoundTrip(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE sample (id INTEGER PRIMARY KEY, name TEXT, count INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO sample (id, name, count) VALUES (1, 'hello', 42)`)
	require.NoError(t, err)

	m := For(sample{})
	rows, err := db.Query("SELECT " + joinCols(m.SelectColumns()) + " FROM sample")
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	var got sample
	require.NoError(t, m.Decode(rows, &got))
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "hello", got.Name)
	assert.Equal(t, 42, got.Count)
}

func TestDecode_SchemaDriftError(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE narrow (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO narrow (id, name) VALUES (1, 'hi')`)
	require.NoError(t, err)

	m := For(sample{})
	rows, err := db.Query("SELECT id, name FROM narrow")
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	var got sample
	err = m.Decode(rows, &got)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "schema drift")
}

func joinCols(cols []string) string {
	out := cols[0]
	for _, c := range cols[1:] {
		out += ", " + c
	}
	return out
}
