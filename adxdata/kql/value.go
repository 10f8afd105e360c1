package kql

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/adx-client/adx-go/adxdata/types"
	"github.com/adx-client/adx-go/adxdata/value"
)

// FormatDatetime renders a time literal the way the service expects.
func FormatDatetime(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.9999999Z07:00")
}

// FormatTimespan renders a duration literal in the service's "[d.]HH:MM:SS.fffffff" form.
func FormatTimespan(d time.Duration) string {
	return value.NewTimespan(d).Marshal()
}

// QuoteValue renders a scalar as a query literal, wrapped in its type constructor.
// Strings are quoted instead, and null values become type(null).
func QuoteValue(v value.Kusto) string {
	val := v.GetValue()
	t := v.GetType()
	if val == nil {
		return fmt.Sprintf("%v(null)", t)
	}

	switch t {
	case types.String:
		return QuoteString(v.String(), false)
	case types.DateTime:
		val = FormatDatetime(*val.(*time.Time))
	case types.Timespan:
		val = FormatTimespan(*val.(*time.Duration))
	case types.Dynamic:
		val = string(val.([]byte))
	default:
		val = v.String()
	}

	return fmt.Sprintf("%v(%v)", t, val)
}

// QuoteString escapes a string so it can be embedded in a query. When hidden is set the
// literal is prefixed with h so the service obfuscates it in traces.
func QuoteString(v string, hidden bool) string {
	var literal strings.Builder

	if hidden {
		literal.WriteString("h")
	}
	literal.WriteString("\"")

	for _, c := range v {
		switch c {
		case '\'':
			literal.WriteString("\\'")
		case '"':
			literal.WriteString("\\\"")
		case '\\':
			literal.WriteString("\\\\")
		case '\x00':
			literal.WriteString("\\0")
		case '\a':
			literal.WriteString("\\a")
		case '\b':
			literal.WriteString("\\b")
		case '\f':
			literal.WriteString("\\f")
		case '\n':
			literal.WriteString("\\n")
		case '\r':
			literal.WriteString("\\r")
		case '\t':
			literal.WriteString("\\t")
		case '\v':
			literal.WriteString("\\v")
		default:
			if shouldBeEscaped(c) {
				fmt.Fprintf(&literal, "\\u%04x", c)
			} else {
				literal.WriteRune(c)
			}
		}
	}

	literal.WriteString("\"")
	return literal.String()
}

func shouldBeEscaped(c rune) bool {
	if c <= unicode.MaxLatin1 {
		return unicode.IsControl(c)
	}
	return true
}

// RequiresQuoting reports whether an identifier needs bracket quoting to be used safely.
func RequiresQuoting(name string) bool {
	if name == "" {
		return true
	}
	if !unicode.IsLetter(rune(name[0])) && rune(name[0]) != '_' {
		return true
	}
	for _, c := range name {
		if !(unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_') {
			return true
		}
	}
	return false
}

// NormalizeIdentifier quotes an identifier when it contains characters that need it.
func NormalizeIdentifier(name string) string {
	if name == "" {
		return name
	}
	if !RequiresQuoting(name) {
		return name
	}
	return "[" + QuoteString(name, false) + "]"
}
