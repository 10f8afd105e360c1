package value

import (
	"fmt"
	"reflect"

	"github.com/adx-client/adx-go/adxdata/types"
	"github.com/goccy/go-json"
)

// Dynamic represents a dynamic column value, an arbitrary JSON value. Dynamic implements
// Kusto. The raw JSON bytes are preserved exactly as they arrived on the wire.
type Dynamic struct {
	value []byte
}

// NewDynamic creates a new Dynamic.
func NewDynamic(v []byte) *Dynamic {
	return &Dynamic{value: v}
}

// NewNullDynamic creates a new null Dynamic.
func NewNullDynamic() *Dynamic {
	return &Dynamic{}
}

// String implements fmt.Stringer.
func (d *Dynamic) String() string {
	return string(d.value)
}

// Value returns the raw JSON bytes, nil when the cell was null.
func (d *Dynamic) Value() []byte {
	return d.value
}

// GetValue returns the value of the type.
func (d *Dynamic) GetValue() interface{} {
	if d.value == nil {
		return nil
	}
	return d.value
}

// Unmarshal unmarshals i into Dynamic. Raw JSON bytes are stored as-is; any other value is
// re-encoded to JSON.
func (d *Dynamic) Unmarshal(i interface{}) error {
	if i == nil {
		d.value = nil
		return nil
	}

	switch v := i.(type) {
	case []byte:
		d.value = v
		return nil
	case json.RawMessage:
		d.value = v
		return nil
	case string:
		d.value = []byte(v)
		return nil
	}

	b, err := json.Marshal(i)
	if err != nil {
		return fmt.Errorf("column with type 'dynamic' had value %v that could not be encoded: %s", i, err)
	}
	d.value = b
	return nil
}

// Convert Dynamic into a reflect value. Structs, maps and slices are filled by decoding
// the held JSON.
func (d *Dynamic) Convert(v reflect.Value) error {
	t := v.Type()
	switch {
	case t == reflect.TypeOf([]byte{}):
		if d.value != nil {
			v.Set(reflect.ValueOf(d.value))
		}
		return nil
	case t.Kind() == reflect.String:
		v.SetString(string(d.value))
		return nil
	case t.ConvertibleTo(reflect.TypeOf(*d)):
		v.Set(reflect.ValueOf(*d).Convert(t))
		return nil
	}

	if d.value == nil {
		return nil
	}

	ptr := reflect.New(t)
	if err := json.Unmarshal(d.value, ptr.Interface()); err != nil {
		return fmt.Errorf("column with type 'dynamic' had value %s that could not decode into %s: %s", string(d.value), t, err)
	}
	v.Set(ptr.Elem())
	return nil
}

// GetType returns the type of the value.
func (d *Dynamic) GetType() types.Column {
	return types.Dynamic
}
