package value

import (
	"fmt"
	"reflect"

	"github.com/adx-client/adx-go/adxdata/types"
	"github.com/google/uuid"
)

// GUID represents a guid column value. GUID implements Kusto.
type GUID struct {
	pointerValue[uuid.UUID]
}

// NewGUID creates a new GUID.
func NewGUID(v uuid.UUID) *GUID {
	return &GUID{newPointerValue[uuid.UUID](&v)}
}

// NewNullGUID creates a new null GUID.
func NewNullGUID() *GUID {
	return &GUID{newPointerValue[uuid.UUID](nil)}
}

// Unmarshal unmarshals i into GUID. i must be a string representing a UUID or nil.
func (g *GUID) Unmarshal(i interface{}) error {
	if i == nil {
		g.value = nil
		return nil
	}

	str, ok := i.(string)
	if !ok {
		return fmt.Errorf("column with type 'guid' had value that was %T", i)
	}

	u, err := uuid.Parse(str)
	if err != nil {
		return fmt.Errorf("column with type 'guid' had value %s which did not parse: %s", str, err)
	}
	g.value = &u
	return nil
}

// Convert GUID into a reflect value.
func (g *GUID) Convert(v reflect.Value) error {
	if v.Type().Kind() == reflect.String {
		v.SetString(g.String())
		return nil
	}
	if !TryConvert[uuid.UUID](g, &g.pointerValue, v, nil) {
		return fmt.Errorf("column with type 'guid' had value that was %T", v)
	}
	return nil
}

// GetType returns the type of the value.
func (g *GUID) GetType() types.Column {
	return types.GUID
}
