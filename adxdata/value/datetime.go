package value

import (
	"fmt"
	"reflect"
	"time"

	"github.com/adx-client/adx-go/adxdata/types"
)

// DateTime represents a datetime column value. DateTime implements Kusto.
type DateTime struct {
	pointerValue[time.Time]
}

// NewDateTime creates a new DateTime.
func NewDateTime(v time.Time) *DateTime {
	return &DateTime{newPointerValue[time.Time](&v)}
}

// NewNullDateTime creates a new null DateTime.
func NewNullDateTime() *DateTime {
	return &DateTime{newPointerValue[time.Time](nil)}
}

// String implements fmt.Stringer.
func (d *DateTime) String() string {
	if d.value == nil {
		return ""
	}
	return d.value.Format(time.RFC3339Nano)
}

// Marshal marshals the DateTime into a service compatible string.
func (d *DateTime) Marshal() string {
	if d.value == nil {
		return time.Time{}.Format(time.RFC3339Nano)
	}
	return d.value.Format(time.RFC3339Nano)
}

// Unmarshal unmarshals i into DateTime. i must be a string representing RFC3339Nano or nil.
func (d *DateTime) Unmarshal(i interface{}) error {
	if i == nil {
		d.value = nil
		return nil
	}

	str, ok := i.(string)
	if !ok {
		return fmt.Errorf("column with type 'datetime' had value that was %T", i)
	}

	t, err := time.Parse(time.RFC3339Nano, str)
	if err != nil {
		return fmt.Errorf("column with type 'datetime' had value %s which did not parse: %s", str, err)
	}
	d.value = &t
	return nil
}

// Convert DateTime into a reflect value.
func (d *DateTime) Convert(v reflect.Value) error {
	if v.Type().Kind() == reflect.String {
		v.SetString(d.String())
		return nil
	}
	if !TryConvert[time.Time](d, &d.pointerValue, v, nil) {
		return fmt.Errorf("column with type 'datetime' had value that was %T", v)
	}
	return nil
}

// GetType returns the type of the value.
func (d *DateTime) GetType() types.Column {
	return types.DateTime
}
