package kql

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	t.Parallel()

	dt, err := time.Parse(time.RFC3339Nano, "2020-03-04T14:05:01.3109965Z")
	require.NoError(t, err)
	guid := uuid.MustParse("74be27de-1e4e-49d9-b579-fe0b331d3642")

	tests := []struct {
		name string
		b    *Builder
		want string
	}{
		{
			"literal only",
			New("Events | take 10"),
			"Events | take 10",
		},
		{
			"quoted string",
			New("Events | where Name == ").AddString(`bad"input`),
			`Events | where Name == "bad\"input"`,
		},
		{
			"table identifier quoting",
			New("").AddTable("my-table"),
			`["my-table"]`,
		},
		{
			"plain identifier untouched",
			New("").AddTable("Events_1"),
			"Events_1",
		},
		{
			"database wrapper",
			New("").AddDatabase("NetDefault"),
			`database("NetDefault")`,
		},
		{
			"typed literals",
			New("print ").AddInt(1).AddLiteral(", ").AddTimespan(time.Hour + 23*time.Minute),
			"print int(1), timespan(01:23:00.0000000)",
		},
		{
			"datetime literal",
			New("").AddDateTime(dt),
			"datetime(2020-03-04T14:05:01.3109965Z)",
		},
		{
			"guid literal",
			New("").AddGUID(guid),
			"guid(74be27de-1e4e-49d9-b579-fe0b331d3642)",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, test.want, test.b.String())
		})
	}
}

func TestQueryParameters(t *testing.T) {
	t.Parallel()

	dt, _ := time.Parse(time.RFC3339Nano, "2020-03-04T14:05:01.3109965Z")
	ts, _ := time.ParseDuration("1h23m45.6789s")
	guid, _ := uuid.Parse("74be27de-1e4e-49d9-b579-fe0b331d3642")

	tests := []struct {
		name       string
		qp         *Parameters
		dsExpected string
		pcExpected map[string]string
	}{
		{
			"empty",
			NewParameters(),
			"",
			map[string]string{},
		},
		{
			"single",
			NewParameters().AddString("foo", "bar"),
			"declare query_parameters(foo:string);",
			map[string]string{"foo": `"bar"`},
		},
		{
			"all types sorted",
			NewParameters().
				AddString("foo", "bar").
				AddInt("num", 1).
				AddDecimal("dec", decimal.RequireFromString("2.00000000000001")).
				AddDateTime("dt", dt).
				AddTimespan("span", ts).
				AddDynamic("obj", map[string]interface{}{"moshe": "value"}).
				AddBool("b", true).
				AddReal("rl", 0.01).
				AddLong("lg", 9223372036854775807).
				AddGUID("guid", guid),
			"declare query_parameters(b:bool, dec:decimal, dt:datetime, foo:string, guid:guid, lg:long, num:int, obj:dynamic, rl:real, span:timespan);",
			map[string]string{
				"foo":  `"bar"`,
				"num":  "int(1)",
				"dec":  "decimal(2.00000000000001)",
				"dt":   "datetime(2020-03-04T14:05:01.3109965Z)",
				"span": "timespan(01:23:45.6789000)",
				"obj":  `dynamic({"moshe":"value"})`,
				"b":    "bool(true)",
				"rl":   "real(0.01)",
				"lg":   "long(9223372036854775807)",
				"guid": "guid(74be27de-1e4e-49d9-b579-fe0b331d3642)",
			},
		},
		{
			"escaped strings",
			NewParameters().
				AddString("databaseName", "f\"\"o").
				AddString("txt", "b\a\r"),
			"declare query_parameters(databaseName:string, txt:string);",
			map[string]string{
				"databaseName": `"f\"\"o"`,
				"txt":          `"b\a\r"`,
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, test.dsExpected, test.qp.ToDeclarationString())
			require.Equal(t, test.pcExpected, test.qp.ToParameterCollection())
		})
	}
}
