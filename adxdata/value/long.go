package value

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/adx-client/adx-go/adxdata/types"
	"github.com/goccy/go-json"
)

// Long represents an int64 column value. Long implements Kusto.
type Long struct {
	pointerValue[int64]
}

// NewLong creates a new Long.
func NewLong(v int64) *Long {
	return &Long{newPointerValue[int64](&v)}
}

// NewNullLong creates a new null Long.
func NewNullLong() *Long {
	return &Long{newPointerValue[int64](nil)}
}

// Unmarshal unmarshals i into Long. i must be an int64 compatible number or nil.
func (l *Long) Unmarshal(i interface{}) error {
	if i == nil {
		l.value = nil
		return nil
	}

	var myLong int64
	switch v := i.(type) {
	case json.Number:
		var err error
		myLong, err = v.Int64()
		if err != nil {
			return fmt.Errorf("column with type 'long' had value %s which did not parse: %s", v, err)
		}
	case float64:
		if v != math.Trunc(v) {
			return fmt.Errorf("column with type 'long' had value %v which is not an integer", v)
		}
		myLong = int64(v)
	case int:
		myLong = int64(v)
	case int64:
		myLong = v
	case string:
		var err error
		myLong, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("column with type 'long' had value %s which did not parse: %s", v, err)
		}
	default:
		return fmt.Errorf("column with type 'long' had value that was %T", i)
	}

	l.value = &myLong
	return nil
}

// Convert Long into a reflect value.
func (l *Long) Convert(v reflect.Value) error {
	if v.CanInt() {
		if l.value != nil {
			v.SetInt(*l.value)
		}
		return nil
	}
	if !TryConvert[int64](l, &l.pointerValue, v, nil) {
		return fmt.Errorf("column with type 'long' had value that was %T", v)
	}
	return nil
}

// GetType returns the type of the value.
func (l *Long) GetType() types.Column {
	return types.Long
}
