// Package v2 decodes the service's v2 streaming query protocol: a JSON array of frames
// assembled into datasets, either fully materialized or streamed table by table.
package v2

import (
	"io"

	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/adx-client/adx-go/adxdata/query"
)

const version = "v2.0"

const (
	errorPlacementEndOfTable = "EndOfTable"
	errorPlacementInData     = "InData"
)

// Dataset is a v2 result with access to the protocol-level header and completion frames.
type Dataset interface {
	query.FullDataset
	Header() *DataSetHeader
	Completion() *DataSetCompletion
	// Errors returns the dataset-level errors carried on the completion frame.
	Errors() []error
	QueryProperties() ([]query.QueryProperties, error)
	QueryCompletionInformation() ([]query.QueryCompletionInformation, error)
}

// IterativeDataset streams tables as their frames arrive. Header and completion are
// available once the stream reaches them.
type IterativeDataset interface {
	query.IterativeDataset
	Header() *DataSetHeader
	Completion() *DataSetCompletion
	// Progress returns the stream of TableProgress frames the service interleaves into
	// long-running results.
	Progress() <-chan TableProgress
}

// openTable is the sink for an in-flight progressive table.
type openTable interface {
	appendRows(rows RawRows) error
	replaceRows(rows RawRows) error
	currentRowCount() int
	finish(errs []OneApiError)
}

// frameSink receives assembly events. The full and iterative modes implement it over the
// same state machine.
type frameSink interface {
	onHeader(h *DataSetHeader)
	onDataTable(dt *DataTable) error
	onTableOpen(th *TableHeader) (openTable, error)
	onProgress(tp *TableProgress)
	onCompletion(c *DataSetCompletion)
}

// assemble drives the per-table state machine over the frame stream. It returns nil when
// the stream terminates cleanly after a DataSetCompletion, and the first fatal error
// otherwise.
func assemble(fr *frameReader, sink frameSink, op errors.Op) error {
	var current openTable
	var currentId int
	sawHeader := false
	sawCompletion := false

	for {
		err := fr.advance()
		if err == io.EOF {
			if !sawCompletion {
				return errors.ES(op, errors.KInternal, "stream ended without a DataSetCompletion frame")
			}
			return nil
		}
		if err != nil {
			return err
		}

		f, err := fr.decodeFrame()
		if err != nil {
			return err
		}

		if sawCompletion {
			return errors.ES(op, errors.KInternal, "received a frame after DataSetCompletion")
		}

		if !sawHeader {
			if _, ok := f.(*DataSetHeader); !ok {
				return errors.ES(op, errors.KInternal, "the stream did not open with a DataSetHeader frame")
			}
		}

		switch f := f.(type) {
		case *DataSetHeader:
			if sawHeader {
				return errors.ES(op, errors.KInternal, "received a second DataSetHeader frame")
			}
			if f.Version != version {
				return errors.ES(op, errors.KInternal, "received a DataSetHeader frame of version %q, expected %q", f.Version, version)
			}
			if f.IsProgressive {
				return errors.ES(op, errors.KInternal, "received a DataSetHeader frame that is progressive")
			}
			if f.ErrorReportingPlacement != errorPlacementEndOfTable && f.ErrorReportingPlacement != errorPlacementInData {
				return errors.ES(op, errors.KInternal, "received a DataSetHeader frame with unsupported error placement %q", f.ErrorReportingPlacement)
			}
			sawHeader = true
			sink.onHeader(f)

		case *DataTable:
			if current != nil {
				return errors.ES(op, errors.KInternal, "received a DataTable frame while table %d was still open", currentId)
			}
			if err := sink.onDataTable(f); err != nil {
				return err
			}

		case *TableHeader:
			if current != nil {
				return errors.ES(op, errors.KInternal, "received a TableHeader frame while table %d was still open", currentId)
			}
			t, err := sink.onTableOpen(f)
			if err != nil {
				return err
			}
			current = t
			currentId = f.TableId

		case *TableFragment:
			if current == nil || f.TableId != currentId {
				return errors.ES(op, errors.KInternal, "received a TableFragment frame for unknown table %d", f.TableId)
			}
			if f.TableFragmentType == DataReplaceFragmentType {
				err = current.replaceRows(f.Rows)
			} else {
				err = current.appendRows(f.Rows)
			}
			if err != nil {
				return err
			}

		case *TableProgress:
			if current == nil || f.TableId != currentId {
				return errors.ES(op, errors.KInternal, "received a TableProgress frame for unknown table %d", f.TableId)
			}
			sink.onProgress(f)

		case *TableCompletion:
			if current == nil || f.TableId != currentId {
				return errors.ES(op, errors.KInternal, "received a TableCompletion frame for unknown table %d", f.TableId)
			}
			if got := current.currentRowCount(); got != f.RowCount {
				return errors.ES(op, errors.KInternal, "received a TableCompletion frame for table %d with row count %d while %d rows were received", f.TableId, f.RowCount, got)
			}
			current.finish(f.OneApiErrors)
			current = nil

		case *DataSetCompletion:
			if current != nil {
				return errors.ES(op, errors.KInternal, "received a DataSetCompletion frame while table %d was still open", currentId)
			}
			sawCompletion = true
			sink.onCompletion(f)
		}
	}
}
