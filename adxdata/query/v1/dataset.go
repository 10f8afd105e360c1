package v1

import (
	"context"
	"io"

	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/adx-client/adx-go/adxdata/query"
	"github.com/adx-client/adx-go/adxdata/types"
	"github.com/adx-client/adx-go/adxdata/value"
)

// TableIndexRow is one row of the table of contents the service appends when a v1 response
// carries more than one table. Ordinal points at the table it describes.
type TableIndexRow struct {
	Ordinal    int64
	Kind       string
	Name       string
	Id         string
	PrettyName string
}

type dataset struct {
	query.Dataset
	tables []query.Table
}

// NewDatasetFromReader decodes a v1 response body and materializes it.
func NewDatasetFromReader(ctx context.Context, op errors.Op, r io.ReadCloser) (query.FullDataset, error) {
	defer r.Close()

	v1, err := decodeV1(r)
	if err != nil {
		return nil, err
	}
	return NewDataset(ctx, op, *v1)
}

// NewDataset materializes a decoded v1 body. When the response holds several tables, the
// last one is a table of contents assigning each preceding table its id, kind and name;
// a single-table response is the primary result by itself.
func NewDataset(ctx context.Context, op errors.Op, v1 V1) (query.FullDataset, error) {
	d := &dataset{
		Dataset: query.NewDataset(ctx, op),
	}

	if len(v1.Exceptions) > 0 {
		return nil, errors.ES(op, errors.KInternal, "query failed: %v", v1.Exceptions)
	}
	if len(v1.Tables) == 0 {
		return nil, errors.ES(op, errors.KInternal, "query failed: no tables returned")
	}

	if len(v1.Tables) == 1 {
		t, err := newTable(d, &v1.Tables[0], &TableIndexRow{
			Ordinal: 0,
			Kind:    query.PrimaryResultKind,
			Name:    v1.Tables[0].TableName,
		})
		if err != nil {
			return nil, err
		}
		d.tables = []query.Table{t}
		return d, nil
	}

	index, err := parseIndex(d, &v1.Tables[len(v1.Tables)-1])
	if err != nil {
		return nil, err
	}

	d.tables = make([]query.Table, 0, len(v1.Tables))
	for i := range v1.Tables[:len(v1.Tables)-1] {
		t, err := newTable(d, &v1.Tables[i], indexRowFor(index, int64(i)))
		if err != nil {
			return nil, err
		}
		d.tables = append(d.tables, t)
	}

	// The table of contents is part of the response too.
	toc, err := newTable(d, &v1.Tables[len(v1.Tables)-1], nil)
	if err != nil {
		return nil, err
	}
	d.tables = append(d.tables, toc)

	return d, nil
}

func (d *dataset) Tables() []query.Table {
	return d.tables
}

func (d *dataset) PrimaryResults() []query.Table {
	primaries := make([]query.Table, 0, len(d.tables))
	for _, t := range d.tables {
		if t.IsPrimaryResult() {
			primaries = append(primaries, t)
		}
	}
	return primaries
}

// parseIndex reads the trailing table of contents.
func parseIndex(d *dataset, rt *RawTable) ([]TableIndexRow, error) {
	t, err := newTable(d, rt, nil)
	if err != nil {
		return nil, err
	}

	rows, errs := t.GetAllRows()
	if len(errs) > 0 {
		return nil, errors.GetCombinedError(errs...)
	}

	index := make([]TableIndexRow, 0, len(rows))
	for _, r := range rows {
		var ir TableIndexRow
		if err := r.ToStruct(&ir); err != nil {
			return nil, errors.ES(d.Op(), errors.KInternal, "malformed table of contents: %s", err)
		}
		index = append(index, ir)
	}
	return index, nil
}

// normalizeKind maps the v1 table of contents kinds onto the v2 names the rest of the
// model uses. The v1 protocol calls the primary result "QueryResult".
func normalizeKind(kind string) string {
	if kind == "QueryResult" {
		return query.PrimaryResultKind
	}
	return kind
}

func indexRowFor(index []TableIndexRow, ordinal int64) *TableIndexRow {
	for i := range index {
		if index[i].Ordinal == ordinal {
			return &index[i]
		}
	}
	return nil
}

// newTable materializes one raw table. index carries the identity the table of contents
// assigned it, nil for the table of contents itself.
func newTable(d *dataset, rt *RawTable, index *TableIndexRow) (query.Table, error) {
	op := d.Op()

	var id, kind, name string
	var ordinal int64
	if index != nil {
		id = index.Id
		kind = normalizeKind(index.Kind)
		name = index.Name
		ordinal = index.Ordinal
	} else {
		name = rt.TableName
	}

	columns := make([]query.Column, len(rt.Columns))
	for i, c := range rt.Columns {
		ct := types.NormalizeColumn(c.ColumnType)
		if ct == "" {
			ct = types.NormalizeColumn(c.DataType)
		}
		if ct == "" {
			return nil, errors.ES(op, errors.KInternal, "column %q has unknown type (ColumnType %q, DataType %q)", c.ColumnName, c.ColumnType, c.DataType)
		}
		columns[i] = query.NewColumn(i, c.ColumnName, ct)
	}

	base := query.NewBaseTable(d, ordinal, id, name, kind, columns)

	rows := make([]query.Row, 0, len(rt.Rows))
	var errs []error
	for i, r := range rt.Rows {
		for _, e := range r.Errors {
			errs = append(errs, errors.ES(op, errors.KInternal, "row %d error: %s", i, e))
		}
		if r.Row == nil {
			continue
		}

		if len(r.Row) != len(columns) {
			return nil, errors.ES(op, errors.KInternal, "row %d has %d values, expected %d", i, len(r.Row), len(columns))
		}

		values := make(value.Values, len(r.Row))
		for j, cell := range r.Row {
			parsed := value.Default(columns[j].Type())
			if cell != nil {
				if err := parsed.Unmarshal(cell); err != nil {
					return nil, errors.ES(op, errors.KInternal, "unable to unmarshal column %s into a %s value: %s", columns[j].Name(), columns[j].Type(), err)
				}
			}
			values[j] = parsed
		}
		rows = append(rows, query.NewRow(base, len(rows), values))
	}

	return query.NewFullTable(base, rows, errs), nil
}
