package v2

import (
	"context"
	"io"
	"strconv"

	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/adx-client/adx-go/adxdata/query"
	"github.com/adx-client/adx-go/adxdata/utils"
)

type fullDataset struct {
	query.Dataset
	// Materialized datasets are assembled and read on the caller's goroutine, so the
	// header and completion sit behind a no-op lock.
	mu         utils.RWMutex
	header     *DataSetHeader
	completion *DataSetCompletion
	tables     []query.Table
}

// NewFullDataSet consumes the entire frame stream and returns a materialized dataset.
func NewFullDataSet(ctx context.Context, r io.ReadCloser) (Dataset, error) {
	fr := newFrameReader(ctx, r)
	defer fr.Close()

	d := &fullDataset{
		Dataset: query.NewDataset(ctx, errors.OpQuery),
		mu:      &utils.FakeMutex{},
	}

	if err := assemble(fr, d, d.Op()); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *fullDataset) onHeader(h *DataSetHeader) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.header = h
}

func (d *fullDataset) onDataTable(dt *DataTable) error {
	columns, err := parseColumns(dt.Columns, d.Op())
	if err != nil {
		return err
	}

	base := query.NewBaseTable(d, int64(dt.TableId), strconv.Itoa(dt.TableId), dt.TableName, dt.TableKind, columns)
	ft := &fragmentedTable{base: base}
	if err := ft.appendRows(dt.Rows); err != nil {
		return err
	}
	d.tables = append(d.tables, query.NewFullTable(base, ft.rows, ft.errs))
	return nil
}

func (d *fullDataset) onTableOpen(th *TableHeader) (openTable, error) {
	columns, err := parseColumns(th.Columns, d.Op())
	if err != nil {
		return nil, err
	}

	base := query.NewBaseTable(d, int64(th.TableId), strconv.Itoa(th.TableId), th.TableName, th.TableKind, columns)
	return &fragmentedTable{base: base, dataset: d}, nil
}

func (d *fullDataset) onProgress(*TableProgress) {
	// Materialized consumers read the finished dataset, progress has nowhere to go.
}

func (d *fullDataset) onCompletion(c *DataSetCompletion) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.completion = c
}

func (d *fullDataset) Header() *DataSetHeader {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.header
}

func (d *fullDataset) Completion() *DataSetCompletion {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.completion
}

func (d *fullDataset) Errors() []error {
	completion := d.Completion()
	if completion == nil || len(completion.OneApiErrors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(completion.OneApiErrors))
	for i := range completion.OneApiErrors {
		errs = append(errs, &completion.OneApiErrors[i])
	}
	return errs
}

func (d *fullDataset) Tables() []query.Table {
	return d.tables
}

func (d *fullDataset) PrimaryResults() []query.Table {
	primaries := make([]query.Table, 0, len(d.tables))
	for _, t := range d.tables {
		if t.IsPrimaryResult() {
			primaries = append(primaries, t)
		}
	}
	return primaries
}

func (d *fullDataset) QueryProperties() ([]query.QueryProperties, error) {
	return query.QueryPropertiesOf(d)
}

func (d *fullDataset) QueryCompletionInformation() ([]query.QueryCompletionInformation, error) {
	return query.QueryCompletionInformationOf(d)
}

// fragmentedTable accumulates a progressive table's rows until its completion frame.
// Error rows the service interleaves into the data are kept apart from value rows.
type fragmentedTable struct {
	base    query.BaseTable
	dataset *fullDataset
	rows    []query.Row
	errs    []error
}

func (f *fragmentedTable) appendRows(rows RawRows) error {
	for _, r := range rows {
		if r.Errors != nil {
			for i := range r.Errors {
				f.errs = append(f.errs, &r.Errors[i])
			}
			continue
		}

		row, err := parseRow(r.Row, f.base, len(f.rows))
		if err != nil {
			f.errs = append(f.errs, err)
			continue
		}
		f.rows = append(f.rows, row)
	}
	return nil
}

func (f *fragmentedTable) replaceRows(rows RawRows) error {
	f.rows = f.rows[:0]
	return f.appendRows(rows)
}

func (f *fragmentedTable) currentRowCount() int {
	return len(f.rows)
}

func (f *fragmentedTable) finish(errs []OneApiError) {
	for i := range errs {
		f.errs = append(f.errs, &errs[i])
	}
	f.dataset.tables = append(f.dataset.tables, query.NewFullTable(f.base, f.rows, f.errs))
}
