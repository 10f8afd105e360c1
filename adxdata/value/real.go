package value

import (
	"fmt"
	"math"
	"reflect"

	"github.com/adx-client/adx-go/adxdata/types"
	"github.com/goccy/go-json"
)

// Real represents a float64 column value. Real implements Kusto.
type Real struct {
	pointerValue[float64]
}

// NewReal creates a new Real.
func NewReal(v float64) *Real {
	return &Real{newPointerValue[float64](&v)}
}

// NewNullReal creates a new null Real.
func NewNullReal() *Real {
	return &Real{newPointerValue[float64](nil)}
}

// Unmarshal unmarshals i into Real. i must be a number, one of the sentinel strings
// "NaN", "Infinity" or "-Infinity", or nil.
func (r *Real) Unmarshal(i interface{}) error {
	if i == nil {
		r.value = nil
		return nil
	}

	var myFloat float64
	switch v := i.(type) {
	case json.Number:
		var err error
		myFloat, err = v.Float64()
		if err != nil {
			return fmt.Errorf("column with type 'real' had value %s which did not parse: %s", v, err)
		}
	case float64:
		myFloat = v
	case string:
		// The service encodes the non-finite values as strings.
		switch v {
		case "NaN":
			myFloat = math.NaN()
		case "Infinity":
			myFloat = math.Inf(1)
		case "-Infinity":
			myFloat = math.Inf(-1)
		default:
			return fmt.Errorf("column with type 'real' had string value %q, expected NaN, Infinity or -Infinity", v)
		}
	default:
		return fmt.Errorf("column with type 'real' had value that was %T", i)
	}

	r.value = &myFloat
	return nil
}

// Convert Real into a reflect value.
func (r *Real) Convert(v reflect.Value) error {
	kind := reflect.Float64
	if !TryConvert[float64](r, &r.pointerValue, v, &kind) {
		return fmt.Errorf("column with type 'real' had value that was %T", v)
	}
	return nil
}

// GetType returns the type of the value.
func (r *Real) GetType() types.Column {
	return types.Real
}
