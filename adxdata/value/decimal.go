package value

import (
	"fmt"
	"reflect"

	"github.com/adx-client/adx-go/adxdata/types"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Decimal represents a decimal column value. Decimal implements Kusto.
// Because floats lose precision, the service sends decimals as strings.
type Decimal struct {
	pointerValue[decimal.Decimal]
}

// NewDecimal creates a new Decimal.
func NewDecimal(v decimal.Decimal) *Decimal {
	return &Decimal{newPointerValue[decimal.Decimal](&v)}
}

// NewNullDecimal creates a new null Decimal.
func NewNullDecimal() *Decimal {
	return &Decimal{newPointerValue[decimal.Decimal](nil)}
}

// Unmarshal unmarshals i into Decimal. i must be a string representing a decimal, a
// number, or nil.
func (d *Decimal) Unmarshal(i interface{}) error {
	if i == nil {
		d.value = nil
		return nil
	}

	var str string
	switch v := i.(type) {
	case string:
		str = v
	case json.Number:
		str = v.String()
	case float64:
		dec := decimal.NewFromFloat(v)
		d.value = &dec
		return nil
	default:
		return fmt.Errorf("column with type 'decimal' had value that was %T", i)
	}

	dec, err := decimal.NewFromString(str)
	if err != nil {
		return fmt.Errorf("column with type 'decimal' had value %s which did not parse: %s", str, err)
	}

	d.value = &dec
	return nil
}

// Convert Decimal into a reflect value.
func (d *Decimal) Convert(v reflect.Value) error {
	if !TryConvert[decimal.Decimal](d, &d.pointerValue, v, nil) {
		if v.Type().Kind() == reflect.String {
			if d.value != nil {
				v.Set(reflect.ValueOf(d.value.String()))
			}
			return nil
		}
		return fmt.Errorf("column with type 'decimal' had value that was %T", v)
	}
	return nil
}

// GetType returns the type of the value.
func (d *Decimal) GetType() types.Column {
	return types.Decimal
}
