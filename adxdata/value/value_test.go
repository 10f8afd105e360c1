package value

import (
	"math"
	"testing"
	"time"

	"github.com/adx-client/adx-go/adxdata/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimespanUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{input: "00:00:00", want: 0},
		{input: "00:00:03", want: 3 * time.Second},
		{input: "00:04:03", want: 4*time.Minute + 3*time.Second},
		{input: "02:04:03", want: 2*time.Hour + 4*time.Minute + 3*time.Second},
		{input: "01:00:00", want: time.Hour},
		{input: "1.00:00:00.0000000", want: 24 * time.Hour},
		{input: "00:00:00.0000001", want: 100 * time.Nanosecond},
		{input: "00:00:00.1234567", want: 123456700 * time.Nanosecond},
		{input: "-01:00:00", want: -1 * time.Hour},
		{input: "-1.00:00:00", want: -24 * time.Hour},
		{input: "02.04:05:07", want: 2*24*time.Hour + 4*time.Hour + 5*time.Minute + 7*time.Second},
		// digits past tick resolution are dropped
		{input: "00:00:00.00000001", want: 0},
		{input: "00:00:00.000000019", want: 0},
		{input: "00:00:01.5", want: 1500 * time.Millisecond},
		{input: "00:00:00.5", want: 500 * time.Millisecond},
		{input: "271.14:22:30", want: 271*24*time.Hour + 14*time.Hour + 22*time.Minute + 30*time.Second},
		{input: "00:60:00", wantErr: true},
		{input: "bad", wantErr: true},
		{input: "00:00", wantErr: true},
		{input: "1.2.3:00:00", wantErr: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.input, func(t *testing.T) {
			t.Parallel()

			ts := Timespan{}
			err := ts.Unmarshal(test.input)
			if test.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, ts.Value())
			assert.Equal(t, test.want, *ts.Value())
		})
	}
}

func TestTimespanUnmarshalNull(t *testing.T) {
	t.Parallel()

	ts := Timespan{}
	require.NoError(t, ts.Unmarshal(nil))
	assert.Nil(t, ts.Value())
	assert.Equal(t, "00:00:00", ts.Marshal())
}

func TestTimespanMarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input time.Duration
		want  string
	}{
		{input: 0, want: "00:00:00.0000000"},
		{input: time.Hour, want: "01:00:00.0000000"},
		{input: 24 * time.Hour, want: "1.00:00:00.0000000"},
		{input: 100 * time.Nanosecond, want: "00:00:00.0000001"},
		{input: 123456700 * time.Nanosecond, want: "00:00:00.1234567"},
		{input: -1 * time.Hour, want: "-01:00:00.0000000"},
		{input: -(2*24*time.Hour + 4*time.Hour + 5*time.Minute + 7*time.Second), want: "-2.04:05:07.0000000"},
		{input: 2*time.Hour + 4*time.Minute + 3*time.Second + 500*time.Millisecond, want: "02:04:03.5000000"},
	}

	for _, test := range tests {
		test := test
		t.Run(test.want, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, test.want, NewTimespan(test.input).Marshal())
		})
	}
}

func TestTimespanRoundTrip(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"00:00:00.0000000",
		"01:00:00.0000000",
		"1.00:00:00.0000000",
		"00:00:00.0000001",
		"00:00:00.1234567",
		"-01:00:00.0000000",
		"271.14:22:30.0000000",
	} {
		ts := Timespan{}
		require.NoError(t, ts.Unmarshal(in))
		assert.Equal(t, in, ts.Marshal())
	}
}

func TestRealUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input interface{}
		want  float64
	}{
		{name: "float", input: 2.5, want: 2.5},
		{name: "infinity", input: "Infinity", want: math.Inf(1)},
		{name: "negative infinity", input: "-Infinity", want: math.Inf(-1)},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			r := Real{}
			require.NoError(t, r.Unmarshal(test.input))
			require.NotNil(t, r.Value())
			assert.Equal(t, test.want, *r.Value())
		})
	}

	t.Run("nan", func(t *testing.T) {
		t.Parallel()

		r := Real{}
		require.NoError(t, r.Unmarshal("NaN"))
		require.NotNil(t, r.Value())
		assert.True(t, math.IsNaN(*r.Value()))
	})

	t.Run("null", func(t *testing.T) {
		t.Parallel()

		r := Real{}
		require.NoError(t, r.Unmarshal(nil))
		assert.Nil(t, r.Value())
	})

	// Finite values always arrive as JSON numbers; string floats are malformed.
	t.Run("numeric string", func(t *testing.T) {
		t.Parallel()

		r := Real{}
		err := r.Unmarshal("2.5")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected NaN, Infinity or -Infinity")
	})
}

func TestIntUnmarshal(t *testing.T) {
	t.Parallel()

	i := Int{}
	require.NoError(t, i.Unmarshal(float64(17)))
	require.NotNil(t, i.Value())
	assert.Equal(t, int32(17), *i.Value())

	require.Error(t, i.Unmarshal(float64(math.MaxInt32)+1))
	require.Error(t, i.Unmarshal(2.5))
}

func TestDateTimeUnmarshal(t *testing.T) {
	t.Parallel()

	d := DateTime{}
	require.NoError(t, d.Unmarshal("2023-04-05T06:07:08.9Z"))
	require.NotNil(t, d.Value())
	assert.Equal(t, time.Date(2023, 4, 5, 6, 7, 8, 900000000, time.UTC), *d.Value())

	require.NoError(t, d.Unmarshal(nil))
	assert.Nil(t, d.Value())

	require.Error(t, d.Unmarshal("not a time"))
}

func TestGUIDUnmarshal(t *testing.T) {
	t.Parallel()

	g := GUID{}
	require.NoError(t, g.Unmarshal("6df31d74-0a06-4dbb-9b61-b5bdb2da1b9a"))
	require.NotNil(t, g.Value())
	assert.Equal(t, uuid.MustParse("6df31d74-0a06-4dbb-9b61-b5bdb2da1b9a"), *g.Value())

	require.Error(t, g.Unmarshal("not a guid"))
}

func TestDecimalUnmarshal(t *testing.T) {
	t.Parallel()

	d := Decimal{}
	require.NoError(t, d.Unmarshal("1.23456789012345678901234567890"))
	require.NotNil(t, d.Value())
	want, err := decimal.NewFromString("1.23456789012345678901234567890")
	require.NoError(t, err)
	assert.True(t, want.Equal(*d.Value()))
}

func TestDynamicPreservesRawJSON(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"b":1,"a":2}`)
	d := Dynamic{}
	require.NoError(t, d.Unmarshal(raw))
	assert.Equal(t, raw, d.Value())
}

func TestDefault(t *testing.T) {
	t.Parallel()

	for _, ct := range []types.Column{
		types.Bool, types.DateTime, types.Dynamic, types.GUID, types.Int,
		types.Long, types.Real, types.String, types.Timespan, types.Decimal,
	} {
		v := Default(ct)
		require.NotNil(t, v, "no default value for %s", ct)
		assert.Equal(t, ct, v.GetType())
		if ct == types.String {
			// null and empty string are the same value
			assert.Equal(t, "", v.GetValue())
		} else {
			assert.Nil(t, v.GetValue())
		}
	}

	assert.Nil(t, Default(types.Column("nope")))
}
