package adxdata

// queryopts.go holds the QueryOption constructors, as the list is long enough to clog up
// client.go.

import (
	"time"

	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/adx-client/adx-go/adxdata/kql"
	"github.com/adx-client/adx-go/adxdata/value"
)

// Keys of the request properties the client sets itself.
const (
	ServerTimeoutValue              = "servertimeout"
	NoRequestTimeoutValue           = "norequesttimeout"
	ResultsProgressiveEnabledValue  = "results_progressive_enabled"
	NewlinesBetweenFramesValue      = "results_v2_newlines_between_frames"
	FragmentPrimaryTablesValue      = "results_v2_fragment_primary_tables"
	ErrorReportingPlacementValue    = "results_error_reporting_placement"
	ErrorReportingPlacementInData   = "indata"
	ErrorReportingPlacementEndOfTab = "end_of_table"
)

// requestProperties describe specific needs from the service, serialized into the request
// body's properties member.
type requestProperties struct {
	Options         map[string]interface{} `json:"Options,omitempty"`
	Parameters      map[string]string      `json:"Parameters,omitempty"`
	QueryParameters *kql.Parameters        `json:"-"`
}

type queryOptions struct {
	requestProperties *requestProperties
	rowCapacity       int
}

// QueryOption is an optional argument to Query, IterativeQuery and Mgmt.
type QueryOption func(q *queryOptions) error

// NoRequestTimeout sets the request timeout to its maximum value.
func NoRequestTimeout() QueryOption {
	return func(q *queryOptions) error {
		q.requestProperties.Options[NoRequestTimeoutValue] = true
		return nil
	}
}

// NoTruncation suppresses truncation of the query results returned to the caller.
func NoTruncation() QueryOption {
	return func(q *queryOptions) error {
		q.requestProperties.Options["notruncation"] = true
		return nil
	}
}

// ServerTimeout sets the amount of time the server will allow the request to take.
func ServerTimeout(d time.Duration) QueryOption {
	return func(q *queryOptions) error {
		if d > 1*time.Hour {
			return errors.ES(errors.OpQuery, errors.KClientArgs, "ServerTimeout option was set to %v, but can't be more than 1 hour", d)
		}
		q.requestProperties.Options[ServerTimeoutValue] = timeoutString(d)
		return nil
	}
}

// timeoutString renders a duration in the timespan literal form the service expects.
func timeoutString(d time.Duration) string {
	return value.NewTimespan(d).Marshal()
}

// CustomQueryOption sets a request property that has no typed constructor here. Note that
// the service does not error on unknown property names, it simply ignores them.
func CustomQueryOption(paramName string, i interface{}) QueryOption {
	return func(q *queryOptions) error {
		q.requestProperties.Options[paramName] = i
		return nil
	}
}

// QueryParameters attaches the out-of-band values for a query that declares
// query_parameters.
func QueryParameters(params *kql.Parameters) QueryOption {
	return func(q *queryOptions) error {
		q.requestProperties.QueryParameters = params
		return nil
	}
}

// IterativeQueryRowCapacity sets the capacity of each streamed table's row channel.
func IterativeQueryRowCapacity(capacity int) QueryOption {
	return func(q *queryOptions) error {
		if capacity < 1 {
			return errors.ES(errors.OpQuery, errors.KClientArgs, "row capacity must be at least 1, got %d", capacity)
		}
		q.rowCapacity = capacity
		return nil
	}
}

// DeferPartialQueryFailures disables reporting partial query failures as part of the
// result set.
func DeferPartialQueryFailures() QueryOption {
	return func(q *queryOptions) error {
		q.requestProperties.Options["deferpartialqueryfailures"] = true
		return nil
	}
}

// MaxOutputColumns overrides the default maximum number of columns a query is allowed to
// produce.
func MaxOutputColumns(i int) QueryOption {
	return func(q *queryOptions) error {
		q.requestProperties.Options["maxoutputcolumns"] = i
		return nil
	}
}

// QueryConsistency controls query consistency.
func QueryConsistency(c string) QueryOption {
	return func(q *queryOptions) error {
		q.requestProperties.Options["queryconsistency"] = c
		return nil
	}
}

// QueryDateTimeScopeColumn controls the column name for the query's datetime scope
// (query_datetimescope_to / query_datetimescope_from).
func QueryDateTimeScopeColumn(s string) QueryOption {
	return func(q *queryOptions) error {
		q.requestProperties.Options["query_datetimescope_column"] = s
		return nil
	}
}

// QueryDateTimeScopeFrom controls the query's datetime scope (earliest), applied as an
// auto filter on query_datetimescope_column when that is set.
func QueryDateTimeScopeFrom(t time.Time) QueryOption {
	return func(q *queryOptions) error {
		q.requestProperties.Options["query_datetimescope_from"] = t.Format(time.RFC3339Nano)
		return nil
	}
}

// QueryDateTimeScopeTo controls the query's datetime scope (latest), applied as an auto
// filter on query_datetimescope_column when that is set.
func QueryDateTimeScopeTo(t time.Time) QueryOption {
	return func(q *queryOptions) error {
		q.requestProperties.Options["query_datetimescope_to"] = t.Format(time.RFC3339Nano)
		return nil
	}
}

// QueryNow overrides the datetime value returned by the now() function.
func QueryNow(t time.Time) QueryOption {
	return func(q *queryOptions) error {
		q.requestProperties.Options["query_now"] = t.Format(time.RFC3339Nano)
		return nil
	}
}

// RequestDescription is arbitrary text the author of the request wants recorded with it.
func RequestDescription(s string) QueryOption {
	return func(q *queryOptions) error {
		q.requestProperties.Options["request_description"] = s
		return nil
	}
}

// RequestReadonly marks the request as unable to write anything.
func RequestReadonly() QueryOption {
	return func(q *queryOptions) error {
		q.requestProperties.Options["request_readonly"] = true
		return nil
	}
}

// TruncationMaxRecords overrides the default maximum number of records a query may return
// to the caller.
func TruncationMaxRecords(i int64) QueryOption {
	return func(q *queryOptions) error {
		q.requestProperties.Options["truncation_max_records"] = i
		return nil
	}
}

// TruncationMaxSize overrides the default maximum data size a query may return to the
// caller.
func TruncationMaxSize(i int64) QueryOption {
	return func(q *queryOptions) error {
		q.requestProperties.Options["truncation_max_size"] = i
		return nil
	}
}
