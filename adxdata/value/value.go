/*
Package value holds representations of the service's scalar data values. All types provide
the native Go value and report null as a nil pointer (or Valid == false for string).

# Kusto Value

A value.Kusto can hold any of the scalar types that define column data:

	value.Bool
	value.Int
	value.Long
	value.Real
	value.Decimal
	value.String
	value.Dynamic
	value.DateTime
	value.Timespan
	value.GUID

Each type provides at minimum:

	.Value() - The typed value, nil when the cell was null.
	.String() - The string representation of the value.
	.Unmarshal() - Decodes a wire value. Internal use, prefer Row accessors or ToStruct().
*/
package value

import (
	"fmt"
	"reflect"

	"github.com/adx-client/adx-go/adxdata/types"
)

type pointerValue[T any] struct {
	value *T
}

func newPointerValue[T any](v *T) pointerValue[T] {
	return pointerValue[T]{value: v}
}

func (p *pointerValue[T]) String() string {
	if p.value == nil {
		return ""
	}
	return fmt.Sprintf("%v", *p.value)
}

func (p *pointerValue[T]) GetValue() interface{} {
	if p.value == nil {
		return nil
	}
	return p.value
}

func (p *pointerValue[T]) Value() *T {
	return p.value
}

func (p *pointerValue[T]) Unmarshal(i interface{}) error {
	if i == nil {
		p.value = nil
		return nil
	}

	v, ok := i.(T)
	if !ok {
		return fmt.Errorf("column with type '%T' had value that was %T", p, i)
	}

	p.value = &v
	return nil
}

// TryConvert assigns the held value into v, converting between the value type, pointers to
// it, and the holder itself. Returns false when no conversion applies.
func TryConvert[T any](holder interface{}, p *pointerValue[T], v reflect.Value, kind *reflect.Kind) bool {
	t := v.Type()

	if kind != nil && t.Kind() == *kind {
		if p.value != nil {
			v.Set(reflect.ValueOf(*p.value).Convert(t))
		}
		return true
	}

	if t == reflect.TypeOf(*new(T)) {
		if p.value != nil {
			v.Set(reflect.ValueOf(*p.value))
		}
		return true
	}

	if t == reflect.TypeOf(new(T)) {
		if p.value != nil {
			b := new(T)
			*b = *p.value
			v.Set(reflect.ValueOf(b))
		}
		return true
	}

	if t.ConvertibleTo(reflect.TypeOf(holder)) {
		v.Set(reflect.ValueOf(holder).Convert(t))
		return true
	}

	return false
}

// Kusto represents one scalar value of a known column type.
type Kusto interface {
	fmt.Stringer
	Convert(v reflect.Value) error
	GetValue() interface{}
	GetType() types.Column
	Unmarshal(interface{}) error
}

// Default returns a null value of the given column type, or nil for an unknown type.
func Default(t types.Column) Kusto {
	switch t {
	case types.Bool:
		return NewNullBool()
	case types.Int:
		return NewNullInt()
	case types.Long:
		return NewNullLong()
	case types.Real:
		return NewNullReal()
	case types.Decimal:
		return NewNullDecimal()
	case types.String:
		return NewNullString()
	case types.Dynamic:
		return NewNullDynamic()
	case types.DateTime:
		return NewNullDateTime()
	case types.Timespan:
		return NewNullTimespan()
	case types.GUID:
		return NewNullGUID()
	default:
		return nil
	}
}

// Values is a list of Kusto values, usually an ordered row.
type Values []Kusto
