package value

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/adx-client/adx-go/adxdata/types"
	"github.com/goccy/go-json"
)

// Int represents an int32 column value. Int implements Kusto.
type Int struct {
	pointerValue[int32]
}

// NewInt creates a new Int.
func NewInt(v int32) *Int {
	return &Int{newPointerValue[int32](&v)}
}

// NewNullInt creates a new null Int.
func NewNullInt() *Int {
	return &Int{newPointerValue[int32](nil)}
}

// Unmarshal unmarshals i into Int. i must be an int32 compatible number or nil.
func (in *Int) Unmarshal(i interface{}) error {
	if i == nil {
		in.value = nil
		return nil
	}

	var myInt int64
	switch v := i.(type) {
	case json.Number:
		var err error
		myInt, err = v.Int64()
		if err != nil {
			return fmt.Errorf("column with type 'int' had value %s which did not parse: %s", v, err)
		}
	case float64:
		if v != math.Trunc(v) {
			return fmt.Errorf("column with type 'int' had value %v which is not an integer", v)
		}
		myInt = int64(v)
	case int:
		myInt = int64(v)
	case int32:
		myInt = int64(v)
	case string:
		var err error
		myInt, err = strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("column with type 'int' had value %s which did not parse: %s", v, err)
		}
	default:
		return fmt.Errorf("column with type 'int' had value that was %T", i)
	}

	if myInt > math.MaxInt32 || myInt < math.MinInt32 {
		return fmt.Errorf("column with type 'int' had value %d which does not fit in an int32", myInt)
	}

	val := int32(myInt)
	in.value = &val
	return nil
}

// Convert Int into a reflect value.
func (in *Int) Convert(v reflect.Value) error {
	if v.CanInt() {
		if in.value != nil {
			v.SetInt(int64(*in.value))
		}
		return nil
	}
	if !TryConvert[int32](in, &in.pointerValue, v, nil) {
		return fmt.Errorf("column with type 'int' had value that was %T", v)
	}
	return nil
}

// GetType returns the type of the value.
func (in *Int) GetType() types.Column {
	return types.Int
}
