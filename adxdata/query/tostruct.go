package query

import (
	"github.com/adx-client/adx-go/adxdata/errors"
)

// ToStructs converts a table, a slice of rows or a single row into a slice of structs.
func ToStructs[T any](data interface{}) ([]T, error) {
	var rows []Row
	var errs []error

	switch d := data.(type) {
	case Table:
		rows, errs = d.GetAllRows()
	case []Row:
		rows = d
	case Row:
		rows = []Row{d}
	default:
		return nil, errors.ES(errors.OpUnknown, errors.KClientArgs, "invalid data type - expected Table, []Row or Row, got %T", data)
	}

	if len(rows) == 0 {
		return nil, errors.GetCombinedError(errs...)
	}

	out := make([]T, len(rows))
	for i, r := range rows {
		if err := r.ToStruct(&out[i]); err != nil {
			out = out[:i]
			if len(out) == 0 {
				out = nil
			}
			return out, err
		}
	}

	return out, errors.GetCombinedError(errs...)
}

// StructResult pairs a decoded struct with the error that produced it, for streamed rows.
type StructResult[T any] struct {
	Out T
	Err error
}

// ToStructsIterative converts rows into structs as they arrive.
func ToStructsIterative[T any](tb IterativeTable) chan StructResult[T] {
	out := make(chan StructResult[T])

	go func() {
		defer close(out)
		for rowResult := range tb.Rows() {
			if rowResult.Err() != nil {
				out <- StructResult[T]{Err: rowResult.Err()}
			} else {
				var s T
				if err := rowResult.Row().ToStruct(&s); err != nil {
					out <- StructResult[T]{Err: err}
				} else {
					out <- StructResult[T]{Out: s}
				}
			}
		}
	}()

	return out
}
