/*
Package errors provides the error package for the ADX client. It wraps all errors generated by
the module. No error should be produced that doesn't come from this package. The design borrows
heavily from the Upspin errors paper written by Rob Pike, see:
https://commandcenter.blogspot.com/2017/12/error-handling-in-upspin.html
The key differences are support for wrapped errors per the go stdlib errors package and a flat
(Op, Kind) tag pair tailored to this service instead of Upspin's fields.

Usage is simply to pass an Op, a Kind, and either a standard error to be wrapped or a format
string that will become a string error.
*/
package errors

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Separator is the string used to separate nested errors.
var Separator = ":\n\t"

// Op denotes the operation that was being performed when the error occurred.
type Op uint16

const (
	// OpUnknown indicates that the operation that caused the problem is unknown.
	OpUnknown Op = 0
	// OpQuery indicates a Query() or IterativeQuery() call.
	OpQuery Op = 1
	// OpMgmt indicates a Mgmt() call.
	OpMgmt Op = 2
	// OpServConn indicates the client is attempting to connect to the service.
	OpServConn Op = 3
	// OpIngest indicates a queued ingestion call.
	OpIngest Op = 4
	// OpCloudInfo indicates retrieval of the cloud auth metadata.
	OpCloudInfo Op = 5
)

// String implements fmt.Stringer.
func (o Op) String() string {
	switch o {
	case OpQuery:
		return "OpQuery"
	case OpMgmt:
		return "OpMgmt"
	case OpServConn:
		return "OpServConn"
	case OpIngest:
		return "OpIngest"
	case OpCloudInfo:
		return "OpCloudInfo"
	}
	return "OpUnknown"
}

// Kind classifies the error as one of a set of standard conditions.
type Kind uint16

const (
	// KOther indicates the error kind was not defined.
	KOther Kind = 0
	// KIO is an external I/O error such as a network failure.
	KIO Kind = 1
	// KInternal is an internal error or inconsistency, either at the server or in the
	// protocol stream it sent.
	KInternal Kind = 2
	// KDBNotExist indicates the database does not exist.
	KDBNotExist Kind = 3
	// KTimeout indicates the request timed out.
	KTimeout Kind = 4
	// KLimitsExceeded indicates the request was too large.
	KLimitsExceeded Kind = 5
	// KClientArgs indicates the client supplied arguments that were invalid.
	KClientArgs Kind = 6
	// KClientInternal is an internal error at the client.
	KClientInternal Kind = 7
	// KHTTPError wraps a non-2xx HTTP response.
	KHTTPError Kind = 8
	// KBlobstore indicates a storage (blob/queue/table) error during ingestion.
	KBlobstore Kind = 9
	// KLocalFileSystem indicates a local filesystem error during ingestion.
	KLocalFileSystem Kind = 10
	// KNoResources indicates the service returned no usable ingestion resources.
	KNoResources Kind = 11
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KIO:
		return "KIO"
	case KInternal:
		return "KInternal"
	case KDBNotExist:
		return "KDBNotExist"
	case KTimeout:
		return "KTimeout"
	case KLimitsExceeded:
		return "KLimitsExceeded"
	case KClientArgs:
		return "KClientArgs"
	case KClientInternal:
		return "KClientInternal"
	case KHTTPError:
		return "KHTTPError"
	case KBlobstore:
		return "KBlobstore"
	case KLocalFileSystem:
		return "KLocalFileSystem"
	case KNoResources:
		return "KNoResources"
	}
	return "KOther"
}

// Error is the core error for the module.
type Error struct {
	// Op is the operation the client was trying to perform.
	Op Op
	// Kind is the error code we identify the error as.
	Kind Kind
	// Err is the wrapped internal error. This may be of any error type and may itself
	// wrap errors.
	Err error

	// restErrMsg holds the raw response body when Kind == KHTTPError.
	restErrMsg []byte

	inner   *Error
	noRetry bool
}

// SetNoRetry sets that this error is not retryable and returns the error.
func (e *Error) SetNoRetry() *Error {
	e.noRetry = true
	return e
}

// UnmarshalREST returns the raw HTTP response body attached to a KHTTPError, or nil.
func (e *Error) UnmarshalREST() []byte {
	return e.restErrMsg
}

// Unwrap implements the anonymous interface used by the stdlib errors package.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.inner == nil {
		return e.Err
	}
	return e.inner
}

// pad appends str to the builder if the builder already has content.
func pad(b *strings.Builder, str string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(str)
}

func (e *Error) Error() string {
	b := new(strings.Builder)
	if e.Op != OpUnknown {
		pad(b, ": ")
		b.WriteString(fmt.Sprintf("Op(%s)", e.Op))
	}
	if e.Kind != KOther {
		pad(b, ": ")
		b.WriteString(fmt.Sprintf("Kind(%s)", e.Kind))
	}
	if e.Err != nil {
		pad(b, ": ")
		b.WriteString(e.Err.Error())
	}
	for inner := e.inner; inner != nil; inner = inner.inner {
		pad(b, Separator)
		b.WriteString(inner.Err.Error())
	}
	if b.Len() == 0 {
		return "no error"
	}
	return b.String()
}

// E constructs an Error from an Op, Kind and error to wrap. Passing a nil error panics.
func E(o Op, k Kind, err error) *Error {
	if err == nil {
		panic("errors.E() cannot wrap a nil error")
	}
	return &Error{Op: o, Kind: k, Err: err}
}

// ES constructs an Error from an Op, Kind and a format string plus args, like fmt.Errorf.
// An empty resulting string panics.
func ES(o Op, k Kind, s string, args ...interface{}) *Error {
	str := fmt.Sprintf(s, args...)
	if strings.TrimSpace(str) == "" {
		panic("errors.ES() cannot have an empty string error")
	}
	return &Error{Op: o, Kind: k, Err: errors.New(str)}
}

// W wraps error outer around inner. Both must be of type *Error or this panics.
func W(inner error, outer error) *Error {
	o, ok := outer.(*Error)
	if !ok {
		panic("W() got an outer error that was not of type *Error")
	}
	i, ok := inner.(*Error)
	if !ok {
		panic("W() got an inner error that was not of type *Error")
	}
	o.inner = i
	return o
}

// HTTP constructs an Error from a non-2xx HTTP response. The body is read in full so that
// the service's error text travels with the error.
func HTTP(o Op, status string, statusCode int, body io.Reader, prefix string) *Error {
	raw, err := io.ReadAll(body)
	if err != nil {
		raw = []byte(fmt.Sprintf("<could not read body: %s>", err))
	}

	k := KHTTPError
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		k = KTimeout
	case http.StatusRequestEntityTooLarge:
		k = KLimitsExceeded
	}

	e := &Error{
		Op:         o,
		Kind:       k,
		Err:        fmt.Errorf("%sreceived a %s error: %s", prefix, status, string(raw)),
		restErrMsg: raw,
	}
	if statusCode >= 400 && statusCode < 500 && k == KHTTPError {
		e.noRetry = true
	}
	return e
}

// Retry reports whether an operation that returned err may be retried. Errors that do not
// originate in this package are not retryable.
func Retry(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	if e.noRetry {
		return false
	}
	switch e.Kind {
	case KIO, KTimeout, KHTTPError, KBlobstore:
		return true
	}
	return false
}

// CombinedError aggregates errors raised during a single dataset assembly.
type CombinedError struct {
	Errors []error
}

func NewCombinedError() *CombinedError {
	return &CombinedError{}
}

func (c *CombinedError) AddError(err error) {
	c.Errors = append(c.Errors, err)
}

func (c *CombinedError) Error() string {
	b := new(strings.Builder)
	for i, err := range c.Errors {
		if i > 0 {
			b.WriteString(Separator)
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap returns the single error when there is exactly one, otherwise the combination.
func (c *CombinedError) Unwrap() error {
	switch len(c.Errors) {
	case 0:
		return nil
	case 1:
		return c.Errors[0]
	}
	return c
}

// GetCombinedError folds errs into a single error.
func GetCombinedError(errs ...error) error {
	c := NewCombinedError()
	for _, e := range errs {
		c.AddError(e)
	}
	return c.Unwrap()
}
