package query

// RowResult is a single streamed row from a table.
// It can contain either a row or an error.
type RowResult interface {
	Row() Row
	Err() error
}

type rowResult struct {
	row Row
	err error
}

func (r rowResult) Row() Row {
	return r.row
}

func (r rowResult) Err() error {
	return r.err
}

func RowResultSuccess(row Row) RowResult {
	return rowResult{
		row: row,
	}
}

func RowResultError(err error) RowResult {
	return rowResult{
		err: err,
	}
}

// IterativeTable is a table that returns rows one at a time.
type IterativeTable interface {
	BaseTable
	// Rows returns a channel that will be populated with rows as they are read.
	Rows() <-chan RowResult
	// RowCount returns the number of rows read so far.
	RowCount() int
	// SkipToEnd skips all remaining rows in the table.
	SkipToEnd() []error
	// ToTable materializes the remaining rows.
	ToTable() (Table, error)
}

// TableResult is a single streamed table from a dataset.
// It can contain either a table or an error.
type TableResult interface {
	Table() IterativeTable
	Err() error
}

type tableResult struct {
	table IterativeTable
	err   error
}

func (t *tableResult) Table() IterativeTable {
	return t.table
}

func (t *tableResult) Err() error {
	return t.err
}

func TableResultSuccess(table IterativeTable) TableResult {
	return &tableResult{
		table: table,
	}
}

func TableResultError(err error) TableResult {
	return &tableResult{
		err: err,
	}
}
