package v2

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"

	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/adx-client/adx-go/adxdata/query"
)

// iterativeTable streams rows to the consumer as fragments arrive from the service.
type iterativeTable struct {
	query.BaseTable

	ctx      context.Context
	rows     chan query.RowResult
	rowCount atomic.Int64
	skip     atomic.Bool

	closeOnce      sync.Once
	reportSkipOnce sync.Once
}

// errRowsSkipped marks the row result reported when the consumer skipped the rest of the
// table. SkipToEnd filters it out while keeping every real error.
var errRowsSkipped = stderrors.New("skipping row")

func newIterativeTable(ctx context.Context, base query.BaseTable, rowCapacity int) *iterativeTable {
	return &iterativeTable{
		BaseTable: base,
		ctx:       ctx,
		rows:      make(chan query.RowResult, rowCapacity),
	}
}

func (t *iterativeTable) appendRows(rows RawRows) error {
	for _, r := range rows {
		if r.Errors != nil {
			for i := range r.Errors {
				if !t.reportError(&r.Errors[i]) {
					return nil
				}
			}
			continue
		}

		// Skipped value rows still count toward the completion frame's row count.
		if t.skip.Load() {
			t.reportSkipOnce.Do(func() {
				t.reportError(errors.E(t.Op(), errors.KInternal, errRowsSkipped))
			})
			t.rowCount.Add(1)
			continue
		}

		row, err := parseRow(r.Row, t.BaseTable, int(t.rowCount.Load()))
		if err != nil {
			if !t.reportError(err) {
				return nil
			}
			continue
		}
		if !t.reportRow(row) {
			return nil
		}
		t.rowCount.Add(1)
	}
	return nil
}

// replaceRows cannot retract rows that were already handed to the consumer, so a replace
// fragment is only valid before any value row was streamed.
func (t *iterativeTable) replaceRows(rows RawRows) error {
	if t.rowCount.Load() > 0 {
		return errors.ES(t.Op(), errors.KInternal, "received a replacing fragment for table %s after %d rows were already streamed", t.Name(), t.rowCount.Load())
	}
	return t.appendRows(rows)
}

func (t *iterativeTable) currentRowCount() int {
	return int(t.rowCount.Load())
}

func (t *iterativeTable) finish(errs []OneApiError) {
	t.closeOnce.Do(func() {
		if err := combineOneApiErrors(errs); err != nil {
			t.reportError(err)
		}
		close(t.rows)
	})
}

func (t *iterativeTable) finishWithError(err error) {
	t.closeOnce.Do(func() {
		t.reportError(err)
		close(t.rows)
	})
}

func (t *iterativeTable) reportRow(row query.Row) bool {
	select {
	case t.rows <- query.RowResultSuccess(row):
		return true
	case <-t.ctx.Done():
		return false
	}
}

func (t *iterativeTable) reportError(err error) bool {
	select {
	case t.rows <- query.RowResultError(err):
		return true
	case <-t.ctx.Done():
		return false
	}
}

// Rows returns the channel of streamed rows and errors.
func (t *iterativeTable) Rows() <-chan query.RowResult {
	return t.rows
}

// RowCount returns the number of value rows streamed so far.
func (t *iterativeTable) RowCount() int {
	return int(t.rowCount.Load())
}

// SkipToEnd discards the remaining rows, returning any errors encountered on the way.
func (t *iterativeTable) SkipToEnd() []error {
	t.skip.Store(true)

	var errs []error
	for r := range t.rows {
		if err := r.Err(); err != nil && !stderrors.Is(err, errRowsSkipped) {
			errs = append(errs, err)
		}
	}
	return errs
}

// ToTable reads the rest of the table and materializes it.
func (t *iterativeTable) ToTable() (query.Table, error) {
	if t.skip.Load() {
		return nil, errors.ES(t.Op(), errors.KInternal, "table %s was already skipped to the end", t.Name())
	}

	var rows []query.Row
	var errs []error
	for r := range t.rows {
		if r.Err() != nil {
			errs = append(errs, r.Err())
		} else {
			rows = append(rows, r.Row())
		}
	}

	return query.NewFullTable(t.BaseTable, rows, errs), nil
}

// materializedIterativeTable adapts an already decoded table to the iterative interface,
// used for the single-shot secondary tables.
type materializedIterativeTable struct {
	query.BaseTable
	rows chan query.RowResult
	all  []query.Row
	errs []error
}

func newMaterializedIterativeTable(base query.BaseTable, rows []query.Row, errs []error) query.IterativeTable {
	ch := make(chan query.RowResult, len(rows)+len(errs))
	for _, r := range rows {
		ch <- query.RowResultSuccess(r)
	}
	for _, e := range errs {
		ch <- query.RowResultError(e)
	}
	close(ch)

	return &materializedIterativeTable{
		BaseTable: base,
		rows:      ch,
		all:       rows,
		errs:      errs,
	}
}

func (t *materializedIterativeTable) Rows() <-chan query.RowResult {
	return t.rows
}

func (t *materializedIterativeTable) RowCount() int {
	return len(t.all)
}

func (t *materializedIterativeTable) SkipToEnd() []error {
	for range t.rows {
	}
	return t.errs
}

func (t *materializedIterativeTable) ToTable() (query.Table, error) {
	return query.NewFullTable(t.BaseTable, t.all, t.errs), nil
}
