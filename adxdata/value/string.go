package value

import (
	"fmt"
	"reflect"

	"github.com/adx-client/adx-go/adxdata/types"
)

// String represents a string column value. String implements Kusto.
// The service does not distinguish a null string from an empty one, so String carries
// the value directly instead of a pointer.
type String struct {
	value string
}

// NewString creates a new String.
func NewString(v string) *String {
	return &String{value: v}
}

// NewNullString creates a new empty String.
func NewNullString() *String {
	return &String{}
}

// String implements fmt.Stringer.
func (s *String) String() string {
	return s.value
}

// Value returns the underlying string.
func (s *String) Value() string {
	return s.value
}

// GetValue returns the value of the type.
func (s *String) GetValue() interface{} {
	return s.value
}

// Unmarshal unmarshals i into String. i must be a string or nil.
func (s *String) Unmarshal(i interface{}) error {
	if i == nil {
		s.value = ""
		return nil
	}

	v, ok := i.(string)
	if !ok {
		return fmt.Errorf("column with type 'string' had value that was %T", i)
	}

	s.value = v
	return nil
}

// Convert String into a reflect value.
func (s *String) Convert(v reflect.Value) error {
	t := v.Type()
	switch {
	case t.Kind() == reflect.String:
		v.SetString(s.value)
		return nil
	case t == reflect.TypeOf(new(string)):
		str := s.value
		v.Set(reflect.ValueOf(&str))
		return nil
	case t.ConvertibleTo(reflect.TypeOf(*s)):
		v.Set(reflect.ValueOf(*s).Convert(t))
		return nil
	}
	return fmt.Errorf("column with type 'string' had value that was %T", v)
}

// GetType returns the type of the value.
func (s *String) GetType() types.Column {
	return types.String
}
