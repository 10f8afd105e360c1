package value

import (
	"fmt"
	"reflect"

	"github.com/adx-client/adx-go/adxdata/types"
)

// Bool represents a boolean column value. Bool implements Kusto.
type Bool struct {
	pointerValue[bool]
}

// NewBool creates a new Bool.
func NewBool(v bool) *Bool {
	return &Bool{newPointerValue[bool](&v)}
}

// NewNullBool creates a new null Bool.
func NewNullBool() *Bool {
	return &Bool{newPointerValue[bool](nil)}
}

// Unmarshal unmarshals i into Bool. i must be a bool or nil.
func (b *Bool) Unmarshal(i interface{}) error {
	if i == nil {
		b.value = nil
		return nil
	}

	v, ok := i.(bool)
	if !ok {
		return fmt.Errorf("column with type 'bool' had value that was %T", i)
	}

	b.value = &v
	return nil
}

// Convert Bool into a reflect value.
func (b *Bool) Convert(v reflect.Value) error {
	kind := reflect.Bool
	if !TryConvert[bool](b, &b.pointerValue, v, &kind) {
		return fmt.Errorf("column with type 'bool' had value that was %T", v)
	}
	return nil
}

// GetType returns the type of the value.
func (b *Bool) GetType() types.Column {
	return types.Bool
}
