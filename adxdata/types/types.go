// Package types holds the scalar column types used by the service.
package types

// Column represents a type of column data held by the service.
type Column string

// These constants represent the value types a column may hold.
const (
	Bool     Column = "bool"
	DateTime Column = "datetime"
	Dynamic  Column = "dynamic"
	GUID     Column = "guid"
	Int      Column = "int"
	Long     Column = "long"
	Real     Column = "real"
	String   Column = "string"
	Timespan Column = "timespan"
	Decimal  Column = "decimal"
)

// Valid reports whether c is a known column type.
func (c Column) Valid() bool {
	switch c {
	case Bool, DateTime, Dynamic, GUID, Int, Long, Real, String, Timespan, Decimal:
		return true
	}
	return false
}

// normalize maps the CLR data type names the v1 protocol may send instead of column types.
var normalize = map[string]Column{
	"System.Boolean":                  Bool,
	"System.SByte":                    Bool,
	"System.DateTime":                 DateTime,
	"System.Object":                   Dynamic,
	"System.Guid":                     GUID,
	"System.Int32":                    Int,
	"System.Int64":                    Long,
	"System.Double":                   Real,
	"System.String":                   String,
	"System.TimeSpan":                 Timespan,
	"System.Data.SqlTypes.SqlDecimal": Decimal,
	"Boolean":                         Bool,
	"SByte":                           Bool,
	"DateTime":                        DateTime,
	"Object":                          Dynamic,
	"Guid":                            GUID,
	"Int32":                           Int,
	"Int64":                           Long,
	"Double":                          Real,
	"String":                          String,
	"TimeSpan":                        Timespan,
	"Decimal":                         Decimal,
}

// NormalizeColumn turns a wire type name into a Column. It accepts both the column type
// names ("long") and the CLR data type names ("System.Int64", "Int64") the v1 protocol
// uses. It returns "" for a name it does not recognize.
func NormalizeColumn(s string) Column {
	if c := Column(s); c.Valid() {
		return c
	}
	if c, ok := normalize[s]; ok {
		return c
	}
	return ""
}
