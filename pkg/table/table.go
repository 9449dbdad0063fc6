package table

// Table is an in-memory record set with named columns.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]Value

	index map[string]int
}

func New(name string, columns []string) *Table {
	t := &Table{
		Name:    name,
		Columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, exists := t.index[c]; !exists {
			t.index[c] = i
		}
	}
	return t
}

// Append adds a row, padding short rows with missing cells and dropping extra cells.
func (t *Table) Append(row []Value) {
	if len(row) > len(t.Columns) {
		row = row[:len(t.Columns)]
	}
	for len(row) < len(t.Columns) {
		row = append(row, Missing())
	}
	t.Rows = append(t.Rows, row)
}

func (t *Table) Len() int {
	return len(t.Rows)
}

func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Get returns the cell at row i for column, or a missing cell when the column does not exist.
func (t *Table) Get(i int, column string) Value {
	idx, ok := t.index[column]
	if !ok || i < 0 || i >= len(t.Rows) {
		return Missing()
	}
	return t.Rows[i][idx]
}

// Record returns a view over row i.
func (t *Table) Record(i int) Record {
	return Record{table: t, row: i}
}

// Record is a read-only view of one row.
type Record struct {
	table *Table
	row   int
}

func (r Record) Get(column string) Value {
	return r.table.Get(r.row, column)
}

func (r Record) Has(column string) bool {
	return r.table.Has(column)
}
