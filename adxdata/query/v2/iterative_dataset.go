package v2

import (
	"context"
	"io"
	"strconv"
	"sync"

	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/adx-client/adx-go/adxdata/query"
	"github.com/adx-client/adx-go/adxdata/utils"
)

// DefaultRowCapacity is the default capacity of each table's row channel. Lower capacity
// means less memory usage, but may block the decoder if rows are not consumed fast enough.
const DefaultRowCapacity = 1000

type iterativeDataset struct {
	query.Dataset

	reader  *frameReader
	results chan query.TableResult
	prog    chan TableProgress
	cancel  context.CancelFunc

	rowCapacity int

	mu         utils.RWMutex
	header     *DataSetHeader
	completion *DataSetCompletion

	current *iterativeTable
}

// NewIterativeDataset starts decoding the stream in the background and returns a dataset
// whose tables arrive on the Tables channel as their frames are read.
func NewIterativeDataset(ctx context.Context, r io.ReadCloser, rowCapacity int) (IterativeDataset, error) {
	ctx, cancel := context.WithCancel(ctx)

	d := &iterativeDataset{
		Dataset:     query.NewDataset(ctx, errors.OpQuery),
		reader:      newFrameReader(ctx, r),
		results:     make(chan query.TableResult, 1),
		prog:        make(chan TableProgress, 1),
		cancel:      cancel,
		rowCapacity: rowCapacity,
		mu:          &sync.RWMutex{},
	}

	go d.run()

	return d, nil
}

func (d *iterativeDataset) run() {
	defer d.reader.Close()
	defer close(d.prog)
	defer close(d.results)

	err := assemble(d.reader, d, d.Op())
	if err != nil {
		if d.current != nil {
			d.current.finishWithError(err)
			d.current = nil
		}
		d.reportError(err)
		return
	}
	if d.current != nil {
		d.current.finish(nil)
		d.current = nil
	}
}

func (d *iterativeDataset) reportError(err error) {
	select {
	case d.results <- query.TableResultError(err):
	case <-d.Context().Done():
	}
}

func (d *iterativeDataset) sendTable(t query.IterativeTable) {
	select {
	case d.results <- query.TableResultSuccess(t):
	case <-d.Context().Done():
	}
}

func (d *iterativeDataset) onHeader(h *DataSetHeader) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.header = h
}

func (d *iterativeDataset) onCompletion(c *DataSetCompletion) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.completion = c
}

func (d *iterativeDataset) onDataTable(dt *DataTable) error {
	columns, err := parseColumns(dt.Columns, d.Op())
	if err != nil {
		return err
	}

	base := query.NewBaseTable(d, int64(dt.TableId), strconv.Itoa(dt.TableId), dt.TableName, dt.TableKind, columns)
	ft := &fragmentedTable{base: base}
	if err := ft.appendRows(dt.Rows); err != nil {
		return err
	}

	d.sendTable(newMaterializedIterativeTable(base, ft.rows, ft.errs))
	return nil
}

func (d *iterativeDataset) onTableOpen(th *TableHeader) (openTable, error) {
	columns, err := parseColumns(th.Columns, d.Op())
	if err != nil {
		return nil, err
	}

	base := query.NewBaseTable(d, int64(th.TableId), strconv.Itoa(th.TableId), th.TableName, th.TableKind, columns)
	t := newIterativeTable(d.Context(), base, d.rowCapacity)
	d.current = t
	d.sendTable(t)
	return t, nil
}

func (d *iterativeDataset) onProgress(tp *TableProgress) {
	// Progress is advisory, never worth stalling the decoder for.
	select {
	case d.prog <- *tp:
	default:
	}
}

func (d *iterativeDataset) Tables() <-chan query.TableResult {
	return d.results
}

func (d *iterativeDataset) Progress() <-chan TableProgress {
	return d.prog
}

func (d *iterativeDataset) Header() *DataSetHeader {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.header
}

func (d *iterativeDataset) Completion() *DataSetCompletion {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.completion
}

func (d *iterativeDataset) Close() error {
	d.cancel()
	return nil
}

// ToFullDataset drains the stream and materializes every remaining table.
func (d *iterativeDataset) ToFullDataset() (query.FullDataset, error) {
	defer d.Close()

	var tables []query.Table
	for tb := range d.Tables() {
		if tb.Err() != nil {
			return nil, tb.Err()
		}
		t, err := tb.Table().ToTable()
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}

	return &fullDataset{
		Dataset:    query.NewDataset(d.Context(), d.Op()),
		mu:         &utils.FakeMutex{},
		header:     d.Header(),
		completion: d.Completion(),
		tables:     tables,
	}, nil
}
