package v2

import (
	"fmt"
	"strings"

	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/goccy/go-json"
)

type FrameType string

const (
	DataSetHeaderFrameType     FrameType = "DataSetHeader"
	DataTableFrameType         FrameType = "DataTable"
	TableHeaderFrameType       FrameType = "TableHeader"
	TableFragmentFrameType     FrameType = "TableFragment"
	TableProgressFrameType     FrameType = "TableProgress"
	TableCompletionFrameType   FrameType = "TableCompletion"
	DataSetCompletionFrameType FrameType = "DataSetCompletion"
)

const (
	DataAppendFragmentType  = "DataAppend"
	DataReplaceFragmentType = "DataReplace"
)

// Frame is one element of the v2 streaming protocol, a self-contained JSON object.
type Frame interface {
	GetFrameType() FrameType
}

// FrameColumn is a column as it appears on the wire.
type FrameColumn struct {
	ColumnName string `json:"ColumnName"`
	ColumnType string `json:"ColumnType"`
}

type DataSetHeader struct {
	IsProgressive           bool
	Version                 string
	IsFragmented            bool
	ErrorReportingPlacement string
}

type DataTable struct {
	TableId   int
	TableKind string
	TableName string
	Columns   []FrameColumn
	Rows      RawRows
}

type TableHeader struct {
	TableId   int
	TableKind string
	TableName string
	Columns   []FrameColumn
}

type TableFragment struct {
	TableId           int
	TableFragmentType string
	Rows              RawRows
}

type TableProgress struct {
	TableId       int
	TableProgress float64
}

type TableCompletion struct {
	TableId      int
	RowCount     int
	OneApiErrors []OneApiError
}

type DataSetCompletion struct {
	HasErrors    bool
	Cancelled    bool
	OneApiErrors []OneApiError
}

func (f *DataSetHeader) GetFrameType() FrameType     { return DataSetHeaderFrameType }
func (f *DataTable) GetFrameType() FrameType         { return DataTableFrameType }
func (f *TableHeader) GetFrameType() FrameType       { return TableHeaderFrameType }
func (f *TableFragment) GetFrameType() FrameType     { return TableFragmentFrameType }
func (f *TableProgress) GetFrameType() FrameType     { return TableProgressFrameType }
func (f *TableCompletion) GetFrameType() FrameType   { return TableCompletionFrameType }
func (f *DataSetCompletion) GetFrameType() FrameType { return DataSetCompletionFrameType }

// EveryFrame is the union of all frame fields, decoded in one pass and then narrowed by
// FrameType.
type EveryFrame struct {
	FrameType               FrameType     `json:"FrameType"`
	IsProgressive           bool          `json:"IsProgressive"`
	Version                 string        `json:"Version"`
	IsFragmented            bool          `json:"IsFragmented"`
	ErrorReportingPlacement string        `json:"ErrorReportingPlacement"`
	TableId                 int           `json:"TableId"`
	TableKind               string        `json:"TableKind"`
	TableName               string        `json:"TableName"`
	Columns                 []FrameColumn `json:"Columns"`
	Rows                    RawRows       `json:"Rows"`
	TableFragmentType       string        `json:"TableFragmentType"`
	TableProgress           float64       `json:"TableProgress"`
	RowCount                int           `json:"RowCount"`
	HasErrors               bool          `json:"HasErrors"`
	Cancelled               bool          `json:"Cancelled"`
	OneApiErrors            []OneApiError `json:"OneApiErrors"`
}

func (f *EveryFrame) Decode() (Frame, error) {
	switch f.FrameType {
	case DataSetHeaderFrameType:
		return &DataSetHeader{
			IsProgressive:           f.IsProgressive,
			Version:                 f.Version,
			IsFragmented:            f.IsFragmented,
			ErrorReportingPlacement: f.ErrorReportingPlacement,
		}, nil
	case DataTableFrameType:
		return &DataTable{
			TableId:   f.TableId,
			TableKind: f.TableKind,
			TableName: f.TableName,
			Columns:   f.Columns,
			Rows:      f.Rows,
		}, nil
	case TableHeaderFrameType:
		return &TableHeader{
			TableId:   f.TableId,
			TableKind: f.TableKind,
			TableName: f.TableName,
			Columns:   f.Columns,
		}, nil
	case TableFragmentFrameType:
		return &TableFragment{
			TableId:           f.TableId,
			TableFragmentType: f.TableFragmentType,
			Rows:              f.Rows,
		}, nil
	case TableProgressFrameType:
		return &TableProgress{
			TableId:       f.TableId,
			TableProgress: f.TableProgress,
		}, nil
	case TableCompletionFrameType:
		return &TableCompletion{
			TableId:      f.TableId,
			RowCount:     f.RowCount,
			OneApiErrors: f.OneApiErrors,
		}, nil
	case DataSetCompletionFrameType:
		return &DataSetCompletion{
			HasErrors:    f.HasErrors,
			Cancelled:    f.Cancelled,
			OneApiErrors: f.OneApiErrors,
		}, nil
	default:
		return nil, errors.ES(errors.OpQuery, errors.KInternal, "unknown frame type: %s", f.FrameType)
	}
}

// RawRow is one element of a frame's Rows array. It is either an array of column values
// or, when the service reports errors in-data, an object carrying OneApiErrors.
type RawRow struct {
	Row    []json.RawMessage
	Errors []OneApiError
}

type RawRows []RawRow

func (r *RawRow) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimLeft(string(b), " \t\r\n")
	if strings.HasPrefix(trimmed, "{") {
		embedded := struct {
			OneApiErrors []OneApiError `json:"OneApiErrors"`
		}{}
		if err := json.Unmarshal(b, &embedded); err != nil {
			return err
		}
		r.Errors = embedded.OneApiErrors
		return nil
	}

	return json.Unmarshal(b, &r.Row)
}

// OneApiError is the service's structured error payload, attached to completion frames
// and embedded error rows.
type OneApiError struct {
	ErrorMessage ErrorMessage `json:"error"`
}

type ErrorMessage struct {
	Code        string       `json:"code"`
	Message     string       `json:"message"`
	Type        string       `json:"@type"`
	Context     ErrorContext `json:"@context"`
	IsPermanent bool         `json:"@permanent"`
}

type ErrorContext struct {
	Timestamp        string `json:"timestamp"`
	ServiceAlias     string `json:"serviceAlias"`
	MachineName      string `json:"machineName"`
	ProcessName      string `json:"processName"`
	ProcessId        int    `json:"processId"`
	ThreadId         int    `json:"threadId"`
	ClientRequestId  string `json:"clientRequestId"`
	ActivityId       string `json:"activityId"`
	SubActivityId    string `json:"subActivityId"`
	ActivityType     string `json:"activityType"`
	ParentActivityId string `json:"parentActivityId"`
	ActivityStack    string `json:"activityStack"`
}

func (e *OneApiError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorMessage.Code, e.ErrorMessage.Message)
}

func combineOneApiErrors(errs []OneApiError) error {
	if len(errs) == 0 {
		return nil
	}
	c := errors.NewCombinedError()
	for i := range errs {
		c.AddError(&errs[i])
	}
	return c.Unwrap()
}
