package query

import (
	"time"

	"github.com/adx-client/adx-go/adxdata/errors"
	"github.com/google/uuid"
)

// QueryProperties is a row of the QueryProperties secondary table the service attaches to
// query results.
type QueryProperties struct {
	TableId int
	Key     string
	Value   map[string]interface{}
}

// QueryCompletionInformation is a row of the QueryCompletionInformation secondary table.
type QueryCompletionInformation struct {
	Timestamp        time.Time
	ClientRequestId  string
	ActivityId       uuid.UUID
	SubActivityId    uuid.UUID
	ParentActivityId uuid.UUID
	Level            int
	LevelName        string
	StatusCode       int
	StatusCodeName   string
	EventType        int
	EventTypeName    string
	Payload          string
}

// QueryPropertiesOf extracts the QueryProperties rows from a materialized dataset.
func QueryPropertiesOf(d FullDataset) ([]QueryProperties, error) {
	t := tableOfKind(d, QueryPropertiesKind)
	if t == nil {
		return nil, errors.ES(d.Op(), errors.KInternal, "dataset has no %s table", QueryPropertiesKind)
	}
	return ToStructs[QueryProperties](t)
}

// QueryCompletionInformationOf extracts the QueryCompletionInformation rows from a
// materialized dataset.
func QueryCompletionInformationOf(d FullDataset) ([]QueryCompletionInformation, error) {
	t := tableOfKind(d, QueryCompletionInformationKind)
	if t == nil {
		return nil, errors.ES(d.Op(), errors.KInternal, "dataset has no %s table", QueryCompletionInformationKind)
	}
	return ToStructs[QueryCompletionInformation](t)
}

func tableOfKind(d FullDataset, kind string) Table {
	for _, t := range d.Tables() {
		if t.Kind() == kind {
			return t
		}
	}
	return nil
}
