package kql

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/adx-client/adx-go/adxdata/value"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Parameters carries values for queries that declare query_parameters. Passing values out
// of band keeps user input from being interpreted as query text.
type Parameters struct {
	parameters map[string]value.Kusto
}

func NewParameters() *Parameters {
	return &Parameters{parameters: make(map[string]value.Kusto)}
}

func (q *Parameters) Count() int {
	return len(q.parameters)
}

func (q *Parameters) addBase(key string, v value.Kusto) *Parameters {
	q.parameters[key] = v
	return q
}

func (q *Parameters) AddBool(key string, v bool) *Parameters {
	return q.addBase(key, value.NewBool(v))
}

func (q *Parameters) AddDateTime(key string, v time.Time) *Parameters {
	return q.addBase(key, value.NewDateTime(v))
}

func (q *Parameters) AddDynamic(key string, v interface{}) *Parameters {
	marshal, err := json.Marshal(v)
	if err != nil {
		return q.addBase(key, value.NewNullDynamic())
	}
	return q.addBase(key, value.NewDynamic(marshal))
}

func (q *Parameters) AddGUID(key string, v uuid.UUID) *Parameters {
	return q.addBase(key, value.NewGUID(v))
}

func (q *Parameters) AddInt(key string, v int32) *Parameters {
	return q.addBase(key, value.NewInt(v))
}

func (q *Parameters) AddLong(key string, v int64) *Parameters {
	return q.addBase(key, value.NewLong(v))
}

func (q *Parameters) AddReal(key string, v float64) *Parameters {
	return q.addBase(key, value.NewReal(v))
}

func (q *Parameters) AddString(key string, v string) *Parameters {
	return q.addBase(key, value.NewString(v))
}

func (q *Parameters) AddTimespan(key string, v time.Duration) *Parameters {
	return q.addBase(key, value.NewTimespan(v))
}

func (q *Parameters) AddDecimal(key string, v decimal.Decimal) *Parameters {
	return q.addBase(key, value.NewDecimal(v))
}

// ToDeclarationString builds the "declare query_parameters(...);" prefix that has to
// precede the query text. Parameters are listed in sorted order so output is stable.
func (q *Parameters) ToDeclarationString() string {
	const (
		declare   = "declare query_parameters("
		closeStmt = ");"
	)

	if len(q.parameters) == 0 {
		return ""
	}

	var parameters []string
	for _, name := range q.sortedKeys() {
		parameters = append(parameters, fmt.Sprintf("%s:%v", name, q.parameters[name].GetType()))
	}

	build := strings.Builder{}
	build.WriteString(declare)
	build.WriteString(strings.Join(parameters, ", "))
	build.WriteString(closeStmt)
	return build.String()
}

// ToParameterCollection renders each value into the form the request properties carry.
func (q *Parameters) ToParameterCollection() map[string]string {
	parameters := make(map[string]string)
	for key, paramVals := range q.parameters {
		parameters[key] = QuoteValue(paramVals)
	}
	return parameters
}

func (q *Parameters) sortedKeys() []string {
	keys := make([]string, 0, len(q.parameters))
	for k := range q.parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetParameters returns the parameter collection for attaching to request properties.
func (q *Parameters) GetParameters() (map[string]string, error) {
	return q.ToParameterCollection(), nil
}

func (q *Parameters) SupportsInlineParameters() bool {
	return true
}
