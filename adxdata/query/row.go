package query

import (
	"reflect"
	"strings"
	"time"

	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/adx-client/adx-go/adxdata/types"
	"github.com/adx-client/adx-go/adxdata/value"
	"github.com/shopspring/decimal"
)

// Row is an interface that represents a row in a table.
// It provides methods to access and manipulate the data in the row.
type Row interface {
	// Ordinal returns the ordinal of the row.
	Ordinal() int

	// Table returns the table that the row belongs to.
	Table() BaseTable

	// Values returns all the values in the row.
	Values() value.Values

	// Value returns the value at the specified index.
	Value(i int) value.Kusto

	ValueByColumn(c Column) value.Kusto

	// ValueByName returns the value with the specified column name.
	ValueByName(name string) value.Kusto

	// ExtractValues extracts the values from the row and assigns them to the provided pointers.
	// It returns an error if the extraction fails.
	ExtractValues(ptrs ...interface{}) error

	// ToStruct converts the row into a struct and assigns it to the provided pointer.
	// It returns an error if the conversion fails.
	ToStruct(p interface{}) error

	// String returns a string representation of the row.
	String() string

	BoolByOrdinal(i int) (*bool, error)
	IntByOrdinal(i int) (*int32, error)
	LongByOrdinal(i int) (*int64, error)
	RealByOrdinal(i int) (*float64, error)
	DecimalByOrdinal(i int) (*decimal.Decimal, error)
	StringByOrdinal(i int) (string, error)
	DynamicByOrdinal(i int) (interface{}, error)
	DateTimeByOrdinal(i int) (*time.Time, error)
	TimespanByOrdinal(i int) (*time.Duration, error)

	BoolByName(name string) (*bool, error)
	IntByName(name string) (*int32, error)
	LongByName(name string) (*int64, error)
	RealByName(name string) (*float64, error)
	DecimalByName(name string) (*decimal.Decimal, error)
	StringByName(name string) (string, error)
	DynamicByName(name string) (interface{}, error)
	DateTimeByName(name string) (*time.Time, error)
	TimespanByName(name string) (*time.Duration, error)
}

type row struct {
	table   BaseTable
	ordinal int
	values  value.Values
}

func NewRow(t BaseTable, ordinal int, values value.Values) Row {
	return &row{
		table:   t,
		ordinal: ordinal,
		values:  values,
	}
}

func (r *row) Ordinal() int {
	return r.ordinal
}

func (r *row) Table() BaseTable {
	return r.table
}

func (r *row) Values() value.Values {
	return r.values
}

func (r *row) Value(i int) value.Kusto {
	return r.values[i]
}

func (r *row) ValueByColumn(c Column) value.Kusto {
	return r.values[c.Ordinal()]
}

func (r *row) ValueByName(name string) value.Kusto {
	col := r.table.ColumnByName(name)
	if col == nil {
		return nil
	}
	return r.values[col.Ordinal()]
}

func (r *row) ExtractValues(ptrs ...interface{}) error {
	if len(ptrs) != len(r.values) {
		return errors.ES(r.table.Op(), errors.KClientArgs, "expected %d pointers, got %d", len(r.values), len(ptrs))
	}

	for i, v := range r.values {
		rv := reflect.ValueOf(ptrs[i])
		if rv.Kind() != reflect.Ptr || rv.IsNil() {
			return errors.ES(r.table.Op(), errors.KClientArgs, "argument %d is not a non-nil pointer", i)
		}
		if err := v.Convert(rv.Elem()); err != nil {
			return errors.ES(r.table.Op(), errors.KOther, "column %s: %s", r.table.Columns()[i].Name(), err)
		}
	}
	return nil
}

// ToStruct fills p, a pointer to a struct, from the row. Fields map to columns by the
// `kusto` tag first and then by field name. Columns with no matching field are skipped.
func (r *row) ToStruct(p interface{}) error {
	rv := reflect.ValueOf(p)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errors.ES(r.table.Op(), errors.KClientArgs, "ToStruct requires a non-nil pointer to a struct, got %T", p)
	}

	sv := rv.Elem()
	fieldByColumn := structFieldMap(sv.Type())

	for _, col := range r.table.Columns() {
		idx, ok := fieldByColumn[col.Name()]
		if !ok {
			continue
		}
		if err := r.values[col.Ordinal()].Convert(sv.Field(idx)); err != nil {
			return errors.ES(r.table.Op(), errors.KOther, "column %s: %s", col.Name(), err)
		}
	}
	return nil
}

func structFieldMap(t reflect.Type) map[string]int {
	m := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("kusto"); ok {
			if tag == "-" {
				continue
			}
			name = strings.Split(tag, ",")[0]
		}
		m[name] = i
	}
	return m
}

func (r *row) String() string {
	b := strings.Builder{}
	b.WriteString("[")
	for i, v := range r.values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.String())
	}
	b.WriteString("]")
	return b.String()
}

func conversionError(r *row, from string, to string) error {
	return errors.ES(r.table.Op(), errors.KOther, "cannot convert %s to %s", from, to)
}

func columnNotFoundError(r *row, name string) error {
	return errors.ES(r.table.Op(), errors.KOther, "column %s not found", name)
}

func (r *row) BoolByOrdinal(i int) (*bool, error) {
	val := r.Value(i)
	if val.GetType() != types.Bool {
		return nil, conversionError(r, string(val.GetType()), string(types.Bool))
	}

	return val.GetValue().(*bool), nil
}

func (r *row) IntByOrdinal(i int) (*int32, error) {
	val := r.Value(i)
	if val.GetType() != types.Int {
		return nil, conversionError(r, string(val.GetType()), string(types.Int))
	}

	return val.GetValue().(*int32), nil
}

func (r *row) LongByOrdinal(i int) (*int64, error) {
	val := r.Value(i)
	if val.GetType() != types.Long {
		return nil, conversionError(r, string(val.GetType()), string(types.Long))
	}

	return val.GetValue().(*int64), nil
}

func (r *row) RealByOrdinal(i int) (*float64, error) {
	val := r.Value(i)
	if val.GetType() != types.Real {
		return nil, conversionError(r, string(val.GetType()), string(types.Real))
	}

	return val.GetValue().(*float64), nil
}

func (r *row) DecimalByOrdinal(i int) (*decimal.Decimal, error) {
	val := r.Value(i)
	if val.GetType() != types.Decimal {
		return nil, conversionError(r, string(val.GetType()), string(types.Decimal))
	}

	return val.GetValue().(*decimal.Decimal), nil
}

func (r *row) StringByOrdinal(i int) (string, error) {
	val := r.Value(i)
	if val.GetType() != types.String {
		return "", conversionError(r, string(val.GetType()), string(types.String))
	}

	return val.GetValue().(string), nil
}

func (r *row) DynamicByOrdinal(i int) (interface{}, error) {
	val := r.Value(i)
	if val.GetType() != types.Dynamic {
		return nil, conversionError(r, string(val.GetType()), string(types.Dynamic))
	}

	return val.GetValue(), nil
}

func (r *row) DateTimeByOrdinal(i int) (*time.Time, error) {
	val := r.Value(i)
	if val.GetType() != types.DateTime {
		return nil, conversionError(r, string(val.GetType()), string(types.DateTime))
	}

	return val.GetValue().(*time.Time), nil
}

func (r *row) TimespanByOrdinal(i int) (*time.Duration, error) {
	val := r.Value(i)
	if val.GetType() != types.Timespan {
		return nil, conversionError(r, string(val.GetType()), string(types.Timespan))
	}

	return val.GetValue().(*time.Duration), nil
}

func (r *row) BoolByName(name string) (*bool, error) {
	col := r.table.ColumnByName(name)
	if col == nil {
		return nil, columnNotFoundError(r, name)
	}
	return r.BoolByOrdinal(col.Ordinal())
}

func (r *row) IntByName(name string) (*int32, error) {
	col := r.table.ColumnByName(name)
	if col == nil {
		return nil, columnNotFoundError(r, name)
	}
	return r.IntByOrdinal(col.Ordinal())
}

func (r *row) LongByName(name string) (*int64, error) {
	col := r.table.ColumnByName(name)
	if col == nil {
		return nil, columnNotFoundError(r, name)
	}
	return r.LongByOrdinal(col.Ordinal())
}

func (r *row) RealByName(name string) (*float64, error) {
	col := r.table.ColumnByName(name)
	if col == nil {
		return nil, columnNotFoundError(r, name)
	}
	return r.RealByOrdinal(col.Ordinal())
}

func (r *row) DecimalByName(name string) (*decimal.Decimal, error) {
	col := r.table.ColumnByName(name)
	if col == nil {
		return nil, columnNotFoundError(r, name)
	}
	return r.DecimalByOrdinal(col.Ordinal())
}

func (r *row) StringByName(name string) (string, error) {
	col := r.table.ColumnByName(name)
	if col == nil {
		return "", columnNotFoundError(r, name)
	}
	return r.StringByOrdinal(col.Ordinal())
}

func (r *row) DynamicByName(name string) (interface{}, error) {
	col := r.table.ColumnByName(name)
	if col == nil {
		return nil, columnNotFoundError(r, name)
	}
	return r.DynamicByOrdinal(col.Ordinal())
}

func (r *row) DateTimeByName(name string) (*time.Time, error) {
	col := r.table.ColumnByName(name)
	if col == nil {
		return nil, columnNotFoundError(r, name)
	}
	return r.DateTimeByOrdinal(col.Ordinal())
}

func (r *row) TimespanByName(name string) (*time.Duration, error) {
	col := r.table.ColumnByName(name)
	if col == nil {
		return nil, columnNotFoundError(r, name)
	}
	return r.TimespanByOrdinal(col.Ordinal())
}
