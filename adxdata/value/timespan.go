package value

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/adx-client/adx-go/adxdata/types"
)

// tick is the service's base timespan resolution, 100 nanoseconds.
const tick = 100 * time.Nanosecond

const ticksPerSecond = int64(time.Second / tick)

var day = 24 * time.Hour

// Timespan represents a timespan column value. Timespan implements Kusto.
// The wire form is "[-][d.]HH:MM:SS[.fffffff]" with tick (100ns) resolution.
type Timespan struct {
	pointerValue[time.Duration]
}

// NewTimespan creates a new Timespan.
func NewTimespan(v time.Duration) *Timespan {
	return &Timespan{newPointerValue[time.Duration](&v)}
}

// NewNullTimespan creates a new null Timespan.
func NewNullTimespan() *Timespan {
	return &Timespan{newPointerValue[time.Duration](nil)}
}

// String implements fmt.Stringer.
func (t *Timespan) String() string {
	if t.value == nil {
		return ""
	}
	return t.value.String()
}

// Marshal marshals the Timespan into a service compatible string, always with seven
// fractional digits and the day field omitted when zero.
func (t *Timespan) Marshal() string {
	const fracDigits = 7

	if t.value == nil {
		return "00:00:00"
	}

	d := *t.value
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}

	ticks := int64(d / tick)
	frac := ticks % ticksPerSecond
	seconds := ticks / ticksPerSecond

	days := seconds / int64(day/time.Second)
	seconds -= days * int64(day/time.Second)
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	seconds = seconds % 60

	b := strings.Builder{}
	b.WriteString(sign)
	if days > 0 {
		fmt.Fprintf(&b, "%d.", days)
	}
	fmt.Fprintf(&b, "%02d:%02d:%02d.%0*d", hours, minutes, seconds, fracDigits, frac)
	return b.String()
}

// Unmarshal unmarshals i into Timespan. i must be a string of the form
// "[-][d.]HH:MM:SS[.fffffff]" or nil.
func (t *Timespan) Unmarshal(i interface{}) error {
	if i == nil {
		t.value = nil
		return nil
	}

	v, ok := i.(string)
	if !ok {
		return fmt.Errorf("column with type 'timespan' had value that was %T", i)
	}

	negative := false
	if strings.HasPrefix(v, "-") {
		negative = true
		v = v[1:]
	}

	sp := strings.Split(v, ":")
	if len(sp) != 3 {
		return fmt.Errorf("column with type 'timespan' had value %q that does not fit format '[d.]HH:MM:SS[.fffffff]'", v)
	}

	var sum time.Duration

	d, err := unmarshalDaysHours(sp[0])
	if err != nil {
		return err
	}
	sum += d

	d, err = unmarshalMinutes(sp[1])
	if err != nil {
		return err
	}
	sum += d

	d, err = unmarshalSeconds(sp[2])
	if err != nil {
		return err
	}
	sum += d

	if negative {
		sum = -sum
	}

	t.value = &sum
	return nil
}

func unmarshalDaysHours(s string) (time.Duration, error) {
	sp := strings.Split(s, ".")
	switch len(sp) {
	case 1:
		hours, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("timespan's hours/days field was incorrect, was %s", s)
		}
		return time.Duration(hours) * time.Hour, nil
	case 2:
		days, err := strconv.Atoi(sp[0])
		if err != nil {
			return 0, fmt.Errorf("timespan's hours/days field was incorrect, was %s", s)
		}
		hours, err := strconv.Atoi(sp[1])
		if err != nil {
			return 0, fmt.Errorf("timespan's hours/days field was incorrect, was %s", s)
		}
		return time.Duration(days)*day + time.Duration(hours)*time.Hour, nil
	}
	return 0, fmt.Errorf("timespan's hours/days field had too many '.'s, was %s", s)
}

func unmarshalMinutes(s string) (time.Duration, error) {
	minutes, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("timespan's minutes field was incorrect, was %s", s)
	}
	if minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("timespan's minutes field was out of range, was %s", s)
	}
	return time.Duration(minutes) * time.Minute, nil
}

// unmarshalSeconds handles the fractional encoding: the digits after the decimal are read
// as an integer count of ticks, right-padded to seven digits. Digits past the seventh are
// below tick resolution and dropped.
func unmarshalSeconds(s string) (time.Duration, error) {
	const fracDigits = 7

	sp := strings.Split(s, ".")
	switch len(sp) {
	case 1:
		seconds, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("timespan's seconds field was incorrect, was %s", s)
		}
		return time.Duration(seconds) * time.Second, nil
	case 2:
		seconds, err := strconv.Atoi(sp[0])
		if err != nil {
			return 0, fmt.Errorf("timespan's seconds field was incorrect, was %s", s)
		}
		frac := sp[1]
		if len(frac) > fracDigits {
			frac = frac[:fracDigits]
		}
		for len(frac) < fracDigits {
			frac += "0"
		}
		ticks, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("timespan's fractional seconds field was incorrect, was %s", s)
		}
		return time.Duration(seconds)*time.Second + time.Duration(ticks)*tick, nil
	}
	return 0, fmt.Errorf("timespan's seconds field had too many '.'s, was %s", s)
}

// Convert Timespan into a reflect value.
func (t *Timespan) Convert(v reflect.Value) error {
	if v.Type().Kind() == reflect.String {
		v.SetString(t.Marshal())
		return nil
	}
	if !TryConvert[time.Duration](t, &t.pointerValue, v, nil) {
		return fmt.Errorf("column with type 'timespan' had value that was %T", v)
	}
	return nil
}

// GetType returns the type of the value.
func (t *Timespan) GetType() types.Column {
	return types.Timespan
}
