package v2

import (
	"bytes"

	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/adx-client/adx-go/adxdata/query"
	"github.com/adx-client/adx-go/adxdata/types"
	"github.com/adx-client/adx-go/adxdata/value"
	"github.com/goccy/go-json"
)

func parseColumns(frameColumns []FrameColumn, op errors.Op) ([]query.Column, error) {
	columns := make([]query.Column, len(frameColumns))
	for i, c := range frameColumns {
		normalized := types.NormalizeColumn(c.ColumnType)
		if normalized == "" {
			return nil, errors.ES(op, errors.KInternal, "column[%d] %q is of type %q, which is not valid", i, c.ColumnName, c.ColumnType)
		}
		columns[i] = query.NewColumn(i, c.ColumnName, normalized)
	}
	return columns, nil
}

var nullLiteral = []byte("null")

// parseRow turns one wire row into typed values. Dynamic cells keep their raw JSON bytes,
// everything else goes through a number-preserving decode.
func parseRow(raw []json.RawMessage, t query.BaseTable, ordinal int) (query.Row, error) {
	columns := t.Columns()
	if len(raw) != len(columns) {
		return nil, errors.ES(t.Op(), errors.KInternal, "row has %d values, expected %d", len(raw), len(columns))
	}

	values := make(value.Values, len(raw))
	for i, rawVal := range raw {
		k := value.Default(columns[i].Type())
		if k == nil {
			return nil, errors.ES(t.Op(), errors.KInternal, "column %q has unsupported type %q", columns[i].Name(), columns[i].Type())
		}

		decoded, err := decodeCell(rawVal, columns[i].Type())
		if err != nil {
			return nil, errors.ES(t.Op(), errors.KInternal, "column %q: %s", columns[i].Name(), err)
		}
		if err := k.Unmarshal(decoded); err != nil {
			return nil, errors.ES(t.Op(), errors.KInternal, "column %q: %s", columns[i].Name(), err)
		}
		values[i] = k
	}

	return query.NewRow(t, ordinal, values), nil
}

func decodeCell(raw json.RawMessage, t types.Column) (interface{}, error) {
	if bytes.Equal(raw, nullLiteral) {
		return nil, nil
	}

	if t == types.Dynamic {
		return []byte(raw), nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
