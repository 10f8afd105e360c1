package adxingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/adx-client/adx-go/adxingest/internal/properties"
	"github.com/google/uuid"
)

// StatusCode is the ingestion status.
type StatusCode string

const (
	// Pending is a temporary status that may change during the course of ingestion.
	Pending StatusCode = "Pending"
	// Succeeded is a permanent status: the data has been ingested.
	Succeeded StatusCode = "Succeeded"
	// Failed is a permanent status: the data has not been ingested.
	Failed StatusCode = "Failed"
	// Queued is a permanent status: the data has been queued for ingestion and status
	// tracking was not requested. This does not indicate the ingestion succeeded.
	Queued StatusCode = "Queued"
	// Skipped is a permanent status: no data was supplied and the operation was skipped.
	Skipped StatusCode = "Skipped"
	// PartiallySucceeded is a permanent status: part of the data was ingested while
	// other parts failed.
	PartiallySucceeded StatusCode = "PartiallySucceeded"

	// StatusRetrievalFailed means the client had trouble reading the status from the
	// service.
	StatusRetrievalFailed StatusCode = "StatusRetrievalFailed"
	// StatusRetrievalCanceled means the caller canceled the status check.
	StatusRetrievalCanceled StatusCode = "StatusRetrievalCanceled"
	// ClientError means an error was detected on the client side.
	ClientError StatusCode = "ClientError"
)

// IsFinal reports whether the status can still change.
func (i StatusCode) IsFinal() bool {
	return i != Pending
}

// FailureStatusCode indicates the state of a failed ingestion attempt.
type FailureStatusCode string

const (
	// Unknown represents an undefined or unset failure state.
	Unknown FailureStatusCode = "Unknown"
	// Permanent represents a failure that will not benefit from a retry attempt.
	Permanent FailureStatusCode = "Permanent"
	// Transient represents a retryable failure.
	Transient FailureStatusCode = "Transient"
	// Exhausted represents a retryable failure that has exhausted all retry attempts.
	Exhausted FailureStatusCode = "Exhausted"
)

// StatusRecord describes the state of an ingestion job.
type StatusRecord struct {
	// Status is the ingestion status reported by the service. It remains Pending while
	// the ingestion is in flight and is updated once the service completes it.
	Status StatusCode

	// IngestionSourceID is the unique identifier of the ingested source.
	IngestionSourceID uuid.UUID

	// IngestionSourcePath is the URI of the ingested blob, secrets stripped or not
	// depending on the service's configuration.
	IngestionSourcePath string

	// Database is the name of the database holding the target table.
	Database string

	// Table is the name of the target table.
	Table string

	// UpdatedOn is when the status was last updated.
	UpdatedOn time.Time

	// OperationID is the ingestion's operation id.
	OperationID uuid.UUID

	// ActivityID is the ingestion's activity id.
	ActivityID uuid.UUID

	// ErrorCode holds the failure's error code, when the ingestion failed.
	ErrorCode string

	// FailureStatus holds the failure's state, when the ingestion failed.
	FailureStatus FailureStatusCode

	// Details holds the failure's details, when the ingestion failed.
	Details string

	// OriginatesFromUpdatePolicy indicates whether a failure originated from an update
	// policy.
	OriginatesFromUpdatePolicy bool
}

const undefinedString = "Undefined"

// newStatusRecord creates a record initialized with defaults.
func newStatusRecord() StatusRecord {
	return StatusRecord{
		Status:              Failed,
		IngestionSourceID:   uuid.Nil,
		IngestionSourcePath: undefinedString,
		Database:            undefinedString,
		Table:               undefinedString,
		UpdatedOn:           time.Now(),
		ErrorCode:           "Unknown",
		FailureStatus:       Unknown,
	}
}

// FromProps fills in the parts of the record that come from the ingestion properties.
func (r *StatusRecord) FromProps(props properties.All) {
	r.IngestionSourceID = props.Source.ID
	r.Database = props.Ingestion.DatabaseName
	r.Table = props.Ingestion.TableName
	r.UpdatedOn = time.Now()

	if props.Ingestion.BlobPath != "" && r.IngestionSourcePath == undefinedString {
		r.IngestionSourcePath = props.Ingestion.BlobPath
	}
}

// FromMap updates the record from a status table entity's properties.
func (r *StatusRecord) FromMap(data map[string]interface{}) {
	strField := func(key string) string {
		if v, ok := data[key].(string); ok {
			return v
		}
		return ""
	}
	uuidField := func(key string) uuid.UUID {
		if id, err := uuid.Parse(strField(key)); err == nil {
			return id
		}
		return uuid.Nil
	}

	if s := strField("Status"); s != "" {
		r.Status = StatusCode(s)
	}
	if id := uuidField("IngestionSourceId"); id != uuid.Nil {
		r.IngestionSourceID = id
	}
	if s := strField("IngestionSourcePath"); s != "" {
		r.IngestionSourcePath = s
	}
	if s := strField("Database"); s != "" {
		r.Database = s
	}
	if s := strField("Table"); s != "" {
		r.Table = s
	}
	if t, err := time.Parse(time.RFC3339Nano, strField("UpdatedOn")); err == nil {
		r.UpdatedOn = t
	}
	r.OperationID = uuidField("OperationId")
	r.ActivityID = uuidField("ActivityId")
	if s := strField("ErrorCode"); s != "" {
		r.ErrorCode = s
	}
	if s := strField("FailureStatus"); s != "" {
		r.FailureStatus = FailureStatusCode(s)
	}
	if s := strField("Details"); s != "" {
		r.Details = s
	}
	if s := strField("OriginatesFromUpdatePolicy"); s != "" {
		r.OriginatesFromUpdatePolicy = strings.EqualFold(s, "true")
	}
}

// ToMap converts the record to a status table entity's properties. Only the fields the
// client owns are written; the service fills in the rest.
func (r *StatusRecord) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"Status":              string(r.Status),
		"IngestionSourceId":   r.IngestionSourceID.String(),
		"IngestionSourcePath": r.IngestionSourcePath,
		"Database":            r.Database,
		"Table":               r.Table,
		"UpdatedOn":           r.UpdatedOn.Format(time.RFC3339Nano),
	}
}

// String implements fmt.Stringer.
func (r *StatusRecord) String() string {
	return fmt.Sprintf(
		"IngestionSourceID: '%s', IngestionSourcePath: '%s', Status: '%s', FailureStatus: '%s', ErrorCode: '%s', Database: '%s', Table: '%s', UpdatedOn: '%s', OperationID: '%s', ActivityID: '%s', OriginatesFromUpdatePolicy: '%t', Details: '%s'",
		r.IngestionSourceID,
		r.IngestionSourcePath,
		r.Status,
		r.FailureStatus,
		r.ErrorCode,
		r.Database,
		r.Table,
		r.UpdatedOn,
		r.OperationID,
		r.ActivityID,
		r.OriginatesFromUpdatePolicy,
		r.Details,
	)
}

// ToError converts the record to an error, or nil for a successful outcome.
func (r *StatusRecord) ToError() error {
	switch r.Status {
	case Succeeded, Queued:
		return nil
	case PartiallySucceeded:
		return fmt.Errorf("ingestion succeeded partially\n%s", r.String())
	}
	return fmt.Errorf("ingestion failed\n%s", r.String())
}
