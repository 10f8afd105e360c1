package kql

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adx-client/adx-go/adxdata/value"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// stringConstant is an internal type that cannot be created outside the package. The only
// two ways to build a stringConstant are passing a string constant or using a local
// function to build it. This enforces the use of constants or strings built with
// injection protection.
type stringConstant string

// String implements fmt.Stringer.
func (s stringConstant) String() string {
	return string(s)
}

// Builder assembles a query string from literals and safely encoded values.
type Builder struct {
	builder strings.Builder
}

func New(v stringConstant) *Builder {
	return (&Builder{
		builder: strings.Builder{},
	}).AddLiteral(v)
}

func FromBuilder(builder *Builder) *Builder {
	return New(stringConstant(builder.String()))
}

// String implements fmt.Stringer.
func (b *Builder) String() string {
	return b.builder.String()
}

func (b *Builder) addBase(v fmt.Stringer) *Builder {
	b.builder.WriteString(v.String())
	return b
}

// AddUnsafe adds a string as is, with no validation or escaping. This turns off the
// safety features that keep a caller from compromising your data store.
// USE AT YOUR OWN RISK!
func (b *Builder) AddUnsafe(v string) *Builder {
	b.builder.WriteString(v)
	return b
}

func (b *Builder) AddLiteral(v stringConstant) *Builder {
	return b.addBase(v)
}

func (b *Builder) AddBool(v bool) *Builder {
	return b.AddUnsafe(QuoteValue(value.NewBool(v)))
}

func (b *Builder) AddDateTime(v time.Time) *Builder {
	return b.AddUnsafe(QuoteValue(value.NewDateTime(v)))
}

func (b *Builder) AddDynamic(v interface{}) *Builder {
	marshal, err := json.Marshal(v)
	if err != nil {
		return b.AddUnsafe(QuoteValue(value.NewNullDynamic()))
	}
	return b.AddUnsafe(QuoteValue(value.NewDynamic(marshal)))
}

func (b *Builder) AddGUID(v uuid.UUID) *Builder {
	return b.AddUnsafe(QuoteValue(value.NewGUID(v)))
}

func (b *Builder) AddInt(v int32) *Builder {
	return b.AddUnsafe(QuoteValue(value.NewInt(v)))
}

func (b *Builder) AddLong(v int64) *Builder {
	return b.AddUnsafe(QuoteValue(value.NewLong(v)))
}

func (b *Builder) AddReal(v float64) *Builder {
	return b.AddUnsafe(QuoteValue(value.NewReal(v)))
}

func (b *Builder) AddString(v string) *Builder {
	return b.AddUnsafe(QuoteString(v, false))
}

func (b *Builder) AddHiddenString(v string) *Builder {
	return b.AddUnsafe(QuoteString(v, true))
}

func (b *Builder) AddTimespan(v time.Duration) *Builder {
	return b.AddUnsafe(QuoteValue(value.NewTimespan(v)))
}

func (b *Builder) AddDecimal(v decimal.Decimal) *Builder {
	return b.AddUnsafe(QuoteValue(value.NewDecimal(v)))
}

// AddDatabase adds a database identifier wrapped in the database() function.
func (b *Builder) AddDatabase(database string) *Builder {
	return b.AddUnsafe(fmt.Sprintf("database(%s)", QuoteString(database, false)))
}

// AddTable adds a table identifier, quoted when required.
func (b *Builder) AddTable(table string) *Builder {
	return b.AddUnsafe(NormalizeIdentifier(table))
}

// AddColumn adds a column identifier, quoted when required.
func (b *Builder) AddColumn(column string) *Builder {
	return b.AddUnsafe(NormalizeIdentifier(column))
}

// AddFunction adds a function identifier, quoted when required.
func (b *Builder) AddFunction(function string) *Builder {
	return b.AddUnsafe(NormalizeIdentifier(function))
}

func (b *Builder) GetParameters() (map[string]string, error) {
	return nil, errors.New("this option does not support Parameters")
}

func (b *Builder) SupportsInlineParameters() bool {
	return false
}

// Reset resets the underlying string builder.
func (b *Builder) Reset() {
	b.builder.Reset()
}
